package merge

import (
	"github.com/janelia-flyem/skeletonize/skel"
)

// Reconciler unifies the seam-adjacent endpoints of two skeleton fragments
// whose source chunks overlap, so that fusion and consolidation can collapse
// the seam into single vertices.  Implementations mutate the fragments in
// place.
type Reconciler interface {
	Reconcile(a, b *skel.SkeletonGraph, overlap skel.Bbox, res skel.NdFloat32)
}

// SeamReconciler snaps every b vertex lying in the physical overlap region
// onto its nearest a vertex in that region, provided the two are within
// Tolerance physical units.  Fragments extracted from the same overlapping
// voxels land on the same centerline voxels, so in practice the snap
// distance is zero or a voxel or two where invalidation balls differed.
type SeamReconciler struct {
	// Tolerance is the maximum snap distance in physical units.
	// Non-positive means one voxel at the coarsest axis.
	Tolerance float64
}

func (r SeamReconciler) Reconcile(a, b *skel.SkeletonGraph, overlap skel.Bbox, res skel.NdFloat32) {
	tolerance := r.Tolerance
	if tolerance <= 0 {
		for _, w := range res {
			if float64(w) > tolerance {
				tolerance = float64(w)
			}
		}
	}
	tolSq := tolerance * tolerance

	// Physical bounds of the voxel overlap region.
	var minPt, maxPt [3]float32
	for dim := 0; dim < 3; dim++ {
		minPt[dim] = float32(overlap.MinPt[dim]) * res[dim]
		maxPt[dim] = float32(overlap.MaxPt[dim]) * res[dim]
	}
	inOverlap := func(v [3]float32) bool {
		for dim := 0; dim < 3; dim++ {
			if v[dim] < minPt[dim] || v[dim] >= maxPt[dim] {
				return false
			}
		}
		return true
	}

	var anchors []int
	for i, v := range a.Vertices {
		if inOverlap(v) {
			anchors = append(anchors, i)
		}
	}
	if len(anchors) == 0 {
		return
	}

	for i, v := range b.Vertices {
		if !inOverlap(v) {
			continue
		}
		best := -1
		var bestSq float64
		for _, j := range anchors {
			d := distSq(v, a.Vertices[j])
			if best < 0 || d < bestSq {
				best = j
				bestSq = d
			}
		}
		if bestSq <= tolSq {
			b.Vertices[i] = a.Vertices[best]
			b.Radii[i] = a.Radii[best]
		}
	}
}

func distSq(a, b [3]float32) float64 {
	var sum float64
	for dim := 0; dim < 3; dim++ {
		d := float64(a[dim]) - float64(b[dim])
		sum += d * d
	}
	return sum
}
