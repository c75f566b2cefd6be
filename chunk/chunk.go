package chunk

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/janelia-flyem/skeletonize/skel"
	"github.com/janelia-flyem/skeletonize/solver"
	"github.com/janelia-flyem/skeletonize/storage"
	"github.com/janelia-flyem/skeletonize/teasar"
	"github.com/janelia-flyem/skeletonize/volume"
)

const fragmentKeyInfix = ":skel:"

// FragmentKey returns the storage key for one object's skeleton fragment
// within a chunk: "{object_id}:skel:{bbox_token}".
func FragmentKey(objectID uint64, bounds skel.Bbox) string {
	return strconv.FormatUint(objectID, 10) + fragmentKeyInfix + bounds.Token()
}

// ParseFragmentKey recovers the object id and chunk bounds from a fragment
// key, so ParseFragmentKey(FragmentKey(id, b)) round-trips.
func ParseFragmentKey(key string) (objectID uint64, bounds skel.Bbox, err error) {
	idStr, token, found := strings.Cut(key, fragmentKeyInfix)
	if !found {
		err = fmt.Errorf("malformed fragment key %q", key)
		return
	}
	if objectID, err = strconv.ParseUint(idStr, 10, 64); err != nil {
		err = fmt.Errorf("malformed fragment key %q: %v", key, err)
		return
	}
	bounds, err = skel.DecodeBboxToken(token)
	return
}

// Skeletonizer turns one (chunk, object) pair into a persisted skeleton
// fragment.  It is stateless across calls and safe for concurrent use as
// long as the store is.
type Skeletonizer struct {
	Solver solver.DistanceSolver
	Store  storage.KeyValueStore
	Params teasar.Params

	// CropMargin shrinks the chunk bbox per face before fragment cropping,
	// suppressing boundary artifacts from truncated chunk data.
	CropMargin int32

	// Resolution converts voxel coordinates to physical units.
	Resolution skel.NdFloat32
}

// Process skeletonizes every connected component of the object within the
// chunk and persists the concatenated fragment under its fragment key.
// The returned graph has physical-unit vertices.  Nothing is persisted when
// the object yields an empty skeleton.
func (s *Skeletonizer) Process(labels *volume.LabelVolume, dbf *skel.ScalarField,
	objectID uint64) (*skel.SkeletonGraph, error) {

	bounds := labels.Bounds
	inner := bounds.Shrink(s.CropMargin)

	fragment := &skel.SkeletonGraph{}
	for _, comp := range ConnectedComponents(labels.Mask(objectID)) {
		// Single-voxel components carry no centerline information.
		if comp.Bounds.Volume() <= 1 {
			continue
		}
		g, err := teasar.Extract(comp.Mask, cropField(dbf, comp.Bounds), s.Params, s.Solver)
		if err != nil {
			return nil, fmt.Errorf("object %d component at %s: %v", objectID, comp.Bounds, err)
		}
		if g.Empty() {
			continue
		}
		g.Translate(comp.Bounds.MinPt.Add(bounds.MinPt))
		if inner.Volume() > 0 {
			g = g.Crop(inner)
		}
		fragment.Append(g)
	}

	fragment.Scale(s.Resolution)
	if fragment.Empty() {
		return fragment, nil
	}

	serialization, err := fragment.Serialize()
	if err != nil {
		return nil, fmt.Errorf("object %d in %s: %v", objectID, bounds, err)
	}
	if err := s.Store.Put(FragmentKey(objectID, bounds), serialization); err != nil {
		return nil, fmt.Errorf("persisting fragment for object %d in %s: %v", objectID, bounds, err)
	}
	return fragment, nil
}

// cropField copies the subfield covered by local bounds out of a
// chunk-shaped scalar field.
func cropField(f *skel.ScalarField, bounds skel.Bbox) *skel.ScalarField {
	out := skel.NewScalarField(bounds.Size())
	for z := bounds.MinPt[2]; z < bounds.MaxPt[2]; z++ {
		for y := bounds.MinPt[1]; y < bounds.MaxPt[1]; y++ {
			srcBeg := f.Index(skel.Point3d{bounds.MinPt[0], y, z})
			dstBeg := out.Index(skel.Point3d{0, y - bounds.MinPt[1], z - bounds.MinPt[2]})
			n := int(bounds.MaxPt[0] - bounds.MinPt[0])
			copy(out.Data[dstBeg:dstBeg+n], f.Data[srcBeg:srcBeg+n])
		}
	}
	return out
}
