package volume

import (
	"encoding/binary"
	"fmt"

	"github.com/coocood/freecache"

	"github.com/janelia-flyem/skeletonize/skel"
)

// CachingAccessor wraps an Accessor with an in-memory freecache of label
// subvolumes keyed by bbox, so chunk reads repeated across pipeline stages
// don't hit the underlying source twice.  Cached entries are snappy
// compressed with a crc32 so a corrupted entry falls through to the source
// rather than poisoning a skeleton.
type CachingAccessor struct {
	src   Accessor
	cache *freecache.Cache
}

// NewCachingAccessor wraps src with a cache holding up to maxBytes of
// compressed label data.
func NewCachingAccessor(src Accessor, maxBytes int) *CachingAccessor {
	return &CachingAccessor{
		src:   src,
		cache: freecache.NewCache(maxBytes),
	}
}

// GetLabels implements Accessor, serving from cache when possible.
func (c *CachingAccessor) GetLabels(bounds skel.Bbox) (*LabelVolume, error) {
	key := []byte(bounds.Token())
	if cached, err := c.cache.Get(key); err == nil {
		labels, err := decodeLabels(bounds, cached)
		if err == nil {
			return labels, nil
		}
		skel.Warningf("Ignoring bad cache entry for %s: %v\n", bounds, err)
	}

	labels, err := c.src.GetLabels(bounds)
	if err != nil {
		return nil, err
	}
	// Only cache exact-bounds hits: a clamped result under the requested
	// token would decode at the wrong size.
	if labels.Bounds.Equals(bounds) {
		encoded, err := encodeLabels(labels)
		if err != nil {
			skel.Warningf("Unable to encode labels for caching %s: %v\n", bounds, err)
		} else if err := c.cache.Set(key, encoded, 0); err != nil {
			skel.Debugf("Unable to cache labels for %s: %v\n", bounds, err)
		}
	}
	return labels, nil
}

// Resolution implements Accessor.
func (c *CachingAccessor) Resolution() skel.NdFloat32 {
	return c.src.Resolution()
}

// HitRate returns the fraction of lookups served from cache.
func (c *CachingAccessor) HitRate() float64 {
	return c.cache.HitRate()
}

func encodeLabels(labels *LabelVolume) ([]byte, error) {
	raw := make([]byte, 8*len(labels.Data))
	for i, label := range labels.Data {
		binary.LittleEndian.PutUint64(raw[i*8:], label)
	}
	return skel.SerializeData(raw, skel.DefaultCompression, skel.DefaultChecksum)
}

func decodeLabels(bounds skel.Bbox, encoded []byte) (*LabelVolume, error) {
	raw, _, err := skel.DeserializeData(encoded, true)
	if err != nil {
		return nil, err
	}
	numVoxels := bounds.Volume()
	if int64(len(raw)) != 8*numVoxels {
		return nil, fmt.Errorf("cached entry has %d bytes, expected %d for %s", len(raw), 8*numVoxels, bounds)
	}
	labels := NewLabelVolume(bounds)
	for i := range labels.Data {
		labels.Data[i] = binary.LittleEndian.Uint64(raw[i*8:])
	}
	return labels, nil
}
