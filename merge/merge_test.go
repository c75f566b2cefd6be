package merge

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/janelia-flyem/skeletonize/chunk"
	"github.com/janelia-flyem/skeletonize/skel"
	"github.com/janelia-flyem/skeletonize/solver"
	"github.com/janelia-flyem/skeletonize/storage"
	"github.com/janelia-flyem/skeletonize/teasar"
	"github.com/janelia-flyem/skeletonize/volume"
)

// tubeSetup skeletonizes a 30-voxel tube (object 5) into two 50%-overlapping
// chunks and returns the shared volume and store holding both fragments.
func tubeSetup(t *testing.T) (*volume.InMemoryVolume, *storage.MemStore) {
	t.Helper()
	bounds := skel.NewBbox(skel.Point3d{0, 0, 0}, skel.Point3d{30, 3, 3})
	data := make([]uint64, bounds.Volume())
	for x := 0; x < 30; x++ {
		data[x+30*(1+3*1)] = 5
	}
	vol, err := volume.NewInMemoryVolume(bounds, data, skel.NdFloat32{1, 1, 1})
	if err != nil {
		t.Fatalf("couldn't create volume: %v\n", err)
	}

	store := storage.NewMemStore()
	s := &chunk.Skeletonizer{
		Solver:     solver.NewGridDijkstra(),
		Store:      store,
		Params:     teasar.Params{Scale: 10, Const: 10},
		Resolution: vol.Resolution(),
	}
	for _, chunkBounds := range []skel.Bbox{
		skel.NewBbox(skel.Point3d{0, 0, 0}, skel.Point3d{20, 3, 3}),
		skel.NewBbox(skel.Point3d{10, 0, 0}, skel.Point3d{20, 3, 3}),
	} {
		labels, err := vol.GetLabels(chunkBounds)
		if err != nil {
			t.Fatalf("couldn't read chunk %s: %v\n", chunkBounds, err)
		}
		dbf := chunk.ChunkDBF(labels, vol.Resolution())
		if _, err := s.Process(labels, dbf, 5); err != nil {
			t.Fatalf("couldn't skeletonize chunk %s: %v\n", chunkBounds, err)
		}
	}
	return vol, store
}

func newTestMerger(vol volume.Accessor, store storage.KeyValueStore) *Merger {
	return &Merger{
		Store:      store,
		Volume:     vol,
		Sink:       PrecomputedSink{Store: store},
		Reconciler: SeamReconciler{},
	}
}

// TestMergeTube covers the seam between two overlapping chunk fragments of
// one straight tube: the merged result must be a single continuous skeleton
// with no duplicate seam vertices and no gap.
func TestMergeTube(t *testing.T) {
	vol, store := tubeSetup(t)
	m := newTestMerger(vol, store)

	merged, err := m.MergeObject(5)
	if err != nil {
		t.Fatalf("couldn't merge tube: %v\n", err)
	}
	if merged.NumVertices() != 30 || merged.NumEdges() != 29 {
		t.Fatalf("expected 30 vertices / 29 edges, got %d / %d\n",
			merged.NumVertices(), merged.NumEdges())
	}

	// No duplicate positions survive consolidation.
	positions := make(map[[3]float32]struct{})
	for _, v := range merged.Vertices {
		if _, dup := positions[v]; dup {
			t.Errorf("duplicate vertex position %v\n", v)
		}
		positions[v] = struct{}{}
	}

	// Single connected component: every vertex reachable from vertex 0.
	adjacency := make(map[uint32][]uint32)
	for _, e := range merged.Edges {
		adjacency[e[0]] = append(adjacency[e[0]], e[1])
		adjacency[e[1]] = append(adjacency[e[1]], e[0])
	}
	reached := map[uint32]struct{}{0: {}}
	stack := []uint32{0}
	for len(stack) > 0 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, w := range adjacency[v] {
			if _, seen := reached[w]; !seen {
				reached[w] = struct{}{}
				stack = append(stack, w)
			}
		}
	}
	if len(reached) != merged.NumVertices() {
		t.Errorf("merged skeleton has a gap: only %d of %d vertices connected\n",
			len(reached), merged.NumVertices())
	}

	// The merged skeleton was uploaded...
	uploaded, err := store.Get(SkeletonKey(5))
	if err != nil {
		t.Fatalf("merged skeleton wasn't uploaded: %v\n", err)
	}
	decoded, err := DecodePrecomputed(uploaded)
	if err != nil {
		t.Fatalf("couldn't decode uploaded skeleton: %v\n", err)
	}
	if !reflect.DeepEqual(decoded, merged) {
		t.Errorf("uploaded skeleton differs from merged result\n")
	}

	// ...provenance names both source fragments...
	provBytes, err := store.Get("5.json")
	if err != nil {
		t.Fatalf("provenance wasn't recorded: %v\n", err)
	}
	var prov Provenance
	if err := json.Unmarshal(provBytes, &prov); err != nil {
		t.Fatalf("couldn't decode provenance: %v\n", err)
	}
	wantFragments := []string{
		"5:skel:0-20_0-3_0-3",
		"5:skel:10-30_0-3_0-3",
	}
	if !reflect.DeepEqual(prov.Fragments, wantFragments) {
		t.Errorf("expected provenance %v, got %v\n", wantFragments, prov.Fragments)
	}

	// ...and the fragments were deleted afterward.
	keys, err := store.ListPrefix("5:skel:")
	if err != nil {
		t.Fatalf("couldn't list fragments: %v\n", err)
	}
	if len(keys) != 0 {
		t.Errorf("fragments should be deleted after merge, found %v\n", keys)
	}
}

type failingSink struct{}

func (failingSink) Upload(objectID uint64, g *skel.SkeletonGraph) error {
	return errors.New("sink unavailable")
}

// TestMergeUploadFailure checks the delete-after-confirmed-persist ordering:
// when upload fails, fragments must survive for a retry.
func TestMergeUploadFailure(t *testing.T) {
	vol, store := tubeSetup(t)
	m := newTestMerger(vol, store)
	m.Sink = failingSink{}

	if _, err := m.MergeObject(5); err == nil {
		t.Fatalf("expected merge to fail with failing sink\n")
	}
	keys, err := store.ListPrefix("5:skel:")
	if err != nil {
		t.Fatalf("couldn't list fragments: %v\n", err)
	}
	if len(keys) != 2 {
		t.Errorf("fragments must survive a failed upload, found %v\n", keys)
	}
	if _, err := store.Get("5.json"); err != storage.ErrKeyNotFound {
		t.Errorf("provenance should not be recorded on failed upload\n")
	}
}

func TestMergeObjectNoFragments(t *testing.T) {
	vol, store := tubeSetup(t)
	m := newTestMerger(vol, store)
	if _, err := m.MergeObject(12345); err == nil {
		t.Errorf("expected error merging object with no fragments\n")
	}
}

func TestMergeAll(t *testing.T) {
	vol, store := tubeSetup(t)

	// A second object with one single-chunk fragment.
	bounds := skel.NewBbox(skel.Point3d{0, 0, 0}, skel.Point3d{30, 3, 3})
	other := &skel.SkeletonGraph{
		Vertices: [][3]float32{{2, 2, 2}, {3, 2, 2}},
		Edges:    [][2]uint32{{0, 1}},
		Radii:    []float32{1, 1},
	}
	ser, err := other.Serialize()
	if err != nil {
		t.Fatalf("couldn't serialize fragment: %v\n", err)
	}
	if err := store.Put(chunk.FragmentKey(8, bounds), ser); err != nil {
		t.Fatalf("couldn't store fragment: %v\n", err)
	}

	m := newTestMerger(vol, store)
	// Object 8's vertices are background voxels, so trimming empties it,
	// but the merge itself must still succeed and retire the fragment.
	if err := m.MergeAll(""); err != nil {
		t.Fatalf("couldn't merge all objects: %v\n", err)
	}

	for _, objectID := range []uint64{5, 8} {
		if _, err := store.Get(SkeletonKey(objectID)); err != nil {
			t.Errorf("object %d wasn't uploaded: %v\n", objectID, err)
		}
	}
	uploaded, err := store.Get(SkeletonKey(8))
	if err != nil {
		t.Fatalf("couldn't get uploaded skeleton: %v\n", err)
	}
	decoded, err := DecodePrecomputed(uploaded)
	if err != nil {
		t.Fatalf("couldn't decode uploaded skeleton: %v\n", err)
	}
	if !decoded.Empty() {
		t.Errorf("expected trimming to empty the off-object skeleton, got %d vertices\n",
			decoded.NumVertices())
	}
}
