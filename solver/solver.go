/*
Package solver computes shortest-path scalar fields and literal shortest
paths over the implicit 26-connected voxel graph of a mask.  It is the one
numeric dependency of TEASAR extraction and is injectable so alternate
backends can be substituted and unit-tested independently of extraction
logic.

The weight model follows the extraction algorithm's needs: the cost of a
step is the weight field sampled at the voxel being entered, so a uniform
field of 1 gives hop counts while a boundary-distance field penalizes
steps near the component boundary.  Distances are non-negative, sources
have distance 0, and unreachable or background voxels are +Inf.

Determinism: all backends pin the same tie-break rule.  When several voxels
share the minimal tentative distance, the one with the lowest linear
(x-fastest) grid index is settled first, and strictly-better relaxation
means the first minimal-cost path found is kept.  Identical masks, weights,
and sources therefore yield bit-identical fields and paths across runs.
*/
package solver

import (
	"github.com/janelia-flyem/skeletonize/skel"
)

// DistanceSolver is the contract TEASAR extraction depends on.  A solver
// must be callable with a fresh mask and weights each time and retain no
// cross-call state.
type DistanceSolver interface {
	// DistanceField returns the shortest-path distance from the nearest
	// source to every foreground voxel of mask under the given weights.
	// Background and unreachable voxels are +Inf.
	DistanceField(mask *skel.VoxelMask, weights *skel.ScalarField, sources ...skel.Point3d) (*skel.ScalarField, error)

	// ShortestPath returns the literal voxel path from one voxel to
	// another, inclusive of both, under the given weights.
	ShortestPath(mask *skel.VoxelMask, weights *skel.ScalarField, from, to skel.Point3d) ([]skel.Point3d, error)
}

// neighbors26 holds the 26-connectivity step offsets in a fixed order so
// relaxation order is identical across runs.
var neighbors26 [26]skel.Point3d

func init() {
	i := 0
	for dz := int32(-1); dz <= 1; dz++ {
		for dy := int32(-1); dy <= 1; dy++ {
			for dx := int32(-1); dx <= 1; dx++ {
				if dx == 0 && dy == 0 && dz == 0 {
					continue
				}
				neighbors26[i] = skel.Point3d{dx, dy, dz}
				i++
			}
		}
	}
}
