package chunk

import (
	"testing"

	"github.com/janelia-flyem/skeletonize/skel"
)

func TestConnectedComponents(t *testing.T) {
	mask := skel.NewVoxelMask(skel.Point3d{8, 4, 2})
	// One L-shaped component...
	for x := int32(0); x < 4; x++ {
		mask.Set(skel.Point3d{x, 0, 0}, true)
	}
	mask.Set(skel.Point3d{3, 1, 0}, true)
	// ...and a lone voxel diagonal to it, which face adjacency keeps apart.
	mask.Set(skel.Point3d{4, 2, 0}, true)

	comps := ConnectedComponents(mask)
	if len(comps) != 2 {
		t.Fatalf("expected 2 components, got %d\n", len(comps))
	}

	// First seen in linear scan order is the L shape.
	want := skel.Bbox{MinPt: skel.Point3d{0, 0, 0}, MaxPt: skel.Point3d{4, 2, 1}}
	if !comps[0].Bounds.Equals(want) {
		t.Errorf("expected first component bounds %s, got %s\n", want, comps[0].Bounds)
	}
	if got := comps[0].Mask.NumForeground(); got != 5 {
		t.Errorf("expected 5 voxels in first component, got %d\n", got)
	}
	if !comps[0].Mask.Get(skel.Point3d{3, 1, 0}) {
		t.Errorf("component mask is missing the corner voxel\n")
	}
	if comps[0].Mask.Get(skel.Point3d{0, 1, 0}) {
		t.Errorf("component mask has a voxel that isn't in the component\n")
	}

	want = skel.Bbox{MinPt: skel.Point3d{4, 2, 0}, MaxPt: skel.Point3d{5, 3, 1}}
	if !comps[1].Bounds.Equals(want) {
		t.Errorf("expected second component bounds %s, got %s\n", want, comps[1].Bounds)
	}
	if comps[1].Bounds.Volume() != 1 {
		t.Errorf("expected single-voxel bounds, got volume %d\n", comps[1].Bounds.Volume())
	}
}

func TestConnectedComponentsEmpty(t *testing.T) {
	mask := skel.NewVoxelMask(skel.Point3d{4, 4, 4})
	if comps := ConnectedComponents(mask); len(comps) != 0 {
		t.Errorf("expected no components in empty mask, got %d\n", len(comps))
	}
}

func TestConnectedComponentsSpans3d(t *testing.T) {
	mask := skel.NewVoxelMask(skel.Point3d{2, 2, 2})
	// A face-connected chain through all three axes.
	mask.Set(skel.Point3d{0, 0, 0}, true)
	mask.Set(skel.Point3d{1, 0, 0}, true)
	mask.Set(skel.Point3d{1, 1, 0}, true)
	mask.Set(skel.Point3d{1, 1, 1}, true)

	comps := ConnectedComponents(mask)
	if len(comps) != 1 {
		t.Fatalf("expected 1 component, got %d\n", len(comps))
	}
	if got := comps[0].Mask.NumForeground(); got != 4 {
		t.Errorf("expected 4 voxels, got %d\n", got)
	}
}
