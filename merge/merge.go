/*
Package merge implements stage 2 of the skeletonization pipeline: fusing the
per-chunk skeleton fragments of each object into one consolidated skeleton,
uploading it to a downstream sink, and retiring the fragments.
*/
package merge

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/dustin/go-humanize"

	"github.com/janelia-flyem/skeletonize/chunk"
	"github.com/janelia-flyem/skeletonize/skel"
	"github.com/janelia-flyem/skeletonize/storage"
	"github.com/janelia-flyem/skeletonize/volume"
)

// Merger fuses an object's chunk fragments into one skeleton.  Different
// objects merge independently; within one object, pairwise reconciliation is
// sequential because it mutates shared fragment numbering.
type Merger struct {
	Store      storage.KeyValueStore
	Volume     volume.Accessor
	Sink       Sink
	Reconciler Reconciler
}

// fragment is one loaded stage-1 output.
type fragment struct {
	key    string
	bounds skel.Bbox
	graph  *skel.SkeletonGraph
}

// Provenance records which fragments produced a merged skeleton, persisted
// under "{object_id}.json" so the merge can be audited or redone.
type Provenance struct {
	Fragments []string `json:"fragments"`
}

// MergeAll merges every object whose fragment keys begin with the given
// id prefix.  Passing "" merges everything; non-overlapping prefixes
// partition the id space so shards can run concurrently against the same
// store.  Per-object failures are collected and joined, never blocking
// other objects.
func (m *Merger) MergeAll(prefix string) error {
	keys, err := m.Store.ListPrefix(prefix)
	if err != nil {
		return fmt.Errorf("listing fragments with prefix %q: %v", prefix, err)
	}
	seen := make(map[uint64]struct{})
	var ids []uint64
	for _, key := range keys {
		objectID, _, err := chunk.ParseFragmentKey(key)
		if err != nil {
			// Provenance and sink records share the keyspace.
			continue
		}
		if _, found := seen[objectID]; !found {
			seen[objectID] = struct{}{}
			ids = append(ids, objectID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var errs []error
	for _, objectID := range ids {
		if _, err := m.MergeObject(objectID); err != nil {
			skel.Errorf("Error merging object %d: %v\n", objectID, err)
			errs = append(errs, fmt.Errorf("object %d: %v", objectID, err))
		}
	}
	skel.Infof("Merged %d of %d objects under prefix %q\n", len(ids)-len(errs), len(ids), prefix)
	return errors.Join(errs...)
}

// MergeObject fuses all fragments of one object: load, reconcile overlapping
// pairs, fuse, consolidate, trim against the object's voxel point cloud,
// upload, record provenance, and finally delete the fragments.  Fragments
// are deleted only after the merged skeleton and its provenance are
// confirmed persisted; deletion failures are non-fatal since fragments
// remain reprocessable.
func (m *Merger) MergeObject(objectID uint64) (*skel.SkeletonGraph, error) {
	tlog := skel.NewTimeLog()

	keys, err := m.Store.ListPrefix(fmt.Sprintf("%d:skel:", objectID))
	if err != nil {
		return nil, fmt.Errorf("listing fragments: %v", err)
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("no fragments found")
	}

	fragments := make([]fragment, len(keys))
	for i, key := range keys {
		if fragments[i], err = m.loadFragment(key); err != nil {
			return nil, err
		}
	}

	// Chunks were produced with overlap margins, so contiguous objects have
	// at least one bbox-intersecting pair at every seam.
	res := m.Volume.Resolution()
	for i := 0; i < len(fragments); i++ {
		for j := i + 1; j < len(fragments); j++ {
			if fragments[i].bounds.Intersects(fragments[j].bounds) {
				overlap := fragments[i].bounds.Intersection(fragments[j].bounds)
				m.Reconciler.Reconcile(fragments[i].graph, fragments[j].graph, overlap, res)
			}
		}
	}

	fused := &skel.SkeletonGraph{}
	for _, frag := range fragments {
		fused.Append(frag.graph)
	}
	merged := Consolidate(fused)

	cloud, err := m.pointCloud(objectID, fragments)
	if err != nil {
		return nil, err
	}
	merged = Trim(merged, cloud, res)

	if err := m.Sink.Upload(objectID, merged); err != nil {
		return nil, fmt.Errorf("uploading merged skeleton: %v", err)
	}
	provenance, err := json.Marshal(Provenance{Fragments: keys})
	if err != nil {
		return nil, fmt.Errorf("encoding provenance: %v", err)
	}
	if err := m.Store.Put(fmt.Sprintf("%d.json", objectID), provenance); err != nil {
		return nil, fmt.Errorf("recording provenance: %v", err)
	}

	if err := m.Store.Delete(keys...); err != nil {
		skel.Warningf("Couldn't delete %d merged fragments of object %d: %v\n",
			len(keys), objectID, err)
	}

	tlog.Infof("Merged object %d: %d fragments, %s vertices", objectID, len(keys),
		humanize.Comma(int64(merged.NumVertices())))
	return merged, nil
}

func (m *Merger) loadFragment(key string) (frag fragment, err error) {
	_, bounds, err := chunk.ParseFragmentKey(key)
	if err != nil {
		return
	}
	serialization, err := m.Store.Get(key)
	if err != nil {
		err = fmt.Errorf("loading fragment %q: %v", key, err)
		return
	}
	graph, err := skel.DeserializeSkeleton(serialization)
	if err != nil {
		err = fmt.Errorf("deserializing fragment %q: %v", key, err)
		return
	}
	return fragment{key: key, bounds: bounds, graph: graph}, nil
}

// pointCloud re-reads every source chunk and collects the deduplicated set
// of voxels belonging to the object.
func (m *Merger) pointCloud(objectID uint64, fragments []fragment) (map[skel.Point3d]struct{}, error) {
	cloud := make(map[skel.Point3d]struct{})
	for _, frag := range fragments {
		labels, err := m.Volume.GetLabels(frag.bounds)
		if err != nil {
			return nil, fmt.Errorf("reading chunk %s for point cloud: %v", frag.bounds, err)
		}
		bounds := labels.Bounds
		for z := bounds.MinPt[2]; z < bounds.MaxPt[2]; z++ {
			for y := bounds.MinPt[1]; y < bounds.MaxPt[1]; y++ {
				for x := bounds.MinPt[0]; x < bounds.MaxPt[0]; x++ {
					p := skel.Point3d{x, y, z}
					if labels.Label(p) == objectID {
						cloud[p] = struct{}{}
					}
				}
			}
		}
	}
	return cloud, nil
}
