/*
Package volume provides read access to labeled voxel volumes: an Accessor
interface for bbox-sliceable label sources, an in-memory implementation, a
freecache-backed caching wrapper, and dense id renumbering.
*/
package volume

import (
	"fmt"

	"github.com/janelia-flyem/skeletonize/skel"
)

// LabelVolume is a 3d array of uint64 object ids for a subvolume, with the
// same x-fastest linear layout as skel grids.  Id 0 is background.
type LabelVolume struct {
	Bounds skel.Bbox
	Data   []uint64
}

// NewLabelVolume returns a zero-filled label volume spanning bounds.
func NewLabelVolume(bounds skel.Bbox) *LabelVolume {
	return &LabelVolume{Bounds: bounds, Data: make([]uint64, bounds.Volume())}
}

// Index returns the linear index for a global voxel coordinate.
func (v *LabelVolume) Index(p skel.Point3d) int {
	local := p.Sub(v.Bounds.MinPt)
	size := v.Bounds.Size()
	return int(local[0]) + int(size[0])*(int(local[1])+int(size[1])*int(local[2]))
}

// Label returns the object id at a global voxel coordinate.
func (v *LabelVolume) Label(p skel.Point3d) uint64 {
	return v.Data[v.Index(p)]
}

// Mask returns a chunk-local boolean mask of voxels holding the object id.
func (v *LabelVolume) Mask(objectID uint64) *skel.VoxelMask {
	mask := skel.NewVoxelMask(v.Bounds.Size())
	for i, label := range v.Data {
		if label == objectID {
			mask.Bits[i] = true
		}
	}
	return mask
}

// NumVoxels returns the number of voxels held.
func (v *LabelVolume) NumVoxels() int {
	return len(v.Data)
}

// Accessor is a bbox-sliceable source of labeled voxel data.
type Accessor interface {
	// GetLabels returns the labels within bounds, clamped to the source's
	// extents.
	GetLabels(bounds skel.Bbox) (*LabelVolume, error)

	// Resolution returns physical units per voxel along each axis.
	Resolution() skel.NdFloat32
}

// InMemoryVolume is an Accessor over a fully materialized label array.
type InMemoryVolume struct {
	labels *LabelVolume
	res    skel.NdFloat32
}

// NewInMemoryVolume wraps a label array spanning bounds.
func NewInMemoryVolume(bounds skel.Bbox, data []uint64, res skel.NdFloat32) (*InMemoryVolume, error) {
	if int64(len(data)) != bounds.Volume() {
		return nil, fmt.Errorf("label data has %d voxels but %s holds %d", len(data), bounds, bounds.Volume())
	}
	if len(res) != 3 {
		return nil, fmt.Errorf("resolution must be 3d, got %d components", len(res))
	}
	return &InMemoryVolume{
		labels: &LabelVolume{Bounds: bounds, Data: data},
		res:    res,
	}, nil
}

// Bounds returns the volume's full extents.
func (v *InMemoryVolume) Bounds() skel.Bbox {
	return v.labels.Bounds
}

// GetLabels implements Accessor by copying out the clamped subvolume.
func (v *InMemoryVolume) GetLabels(bounds skel.Bbox) (*LabelVolume, error) {
	clamped := bounds.Clamp(v.labels.Bounds)
	if clamped.Volume() <= 0 {
		return nil, fmt.Errorf("requested %s lies outside volume %s", bounds, v.labels.Bounds)
	}
	out := NewLabelVolume(clamped)
	for z := clamped.MinPt[2]; z < clamped.MaxPt[2]; z++ {
		for y := clamped.MinPt[1]; y < clamped.MaxPt[1]; y++ {
			srcBeg := v.labels.Index(skel.Point3d{clamped.MinPt[0], y, z})
			dstBeg := out.Index(skel.Point3d{clamped.MinPt[0], y, z})
			n := int(clamped.MaxPt[0] - clamped.MinPt[0])
			copy(out.Data[dstBeg:dstBeg+n], v.labels.Data[srcBeg:srcBeg+n])
		}
	}
	return out, nil
}

// Resolution implements Accessor.
func (v *InMemoryVolume) Resolution() skel.NdFloat32 {
	return v.res
}
