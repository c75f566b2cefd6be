/*
Package teasar extracts a 1-d centerline tree from a single connected
foreground component and its boundary-distance field, following the TEASAR
algorithm:

	M. Sato, I. Bitter, M. Bender, A. Kaufman, and M. Nakajima.
	"TEASAR: tree-structure extraction algorithm for accurate and robust
	skeletons", Proc. 8th Pacific Conference on Computer Graphics and
	Applications, Oct. 2000.

Extraction picks a root at the far end of the component, builds a penalized
distance-from-root field that is cheapest along the component's center, and
repeatedly walks the shortest penalized path to the most distant unexplored
voxel, invalidating a distance-proportional ball around each path.  The
union of those paths, folded into a tree, is the skeleton.
*/
package teasar

import (
	"fmt"
	"math"

	"github.com/janelia-flyem/skeletonize/skel"
	"github.com/janelia-flyem/skeletonize/solver"
)

const (
	// pdrfScale is the magnitude of the boundary penalty.  5000 allows
	// skeleton segments to be ~3000 voxels long without exceeding float32
	// precision when summed with path distances.
	pdrfScale = 5000

	// pdrfExponent sharpens the penalty so it dominates near component
	// boundaries and vanishes at the center.
	pdrfExponent = 16
)

// Params holds the TEASAR tuning knobs.
type Params struct {
	// Scale multiplies the boundary distance when sizing the rolling
	// invalidation ball around each path vertex.
	Scale float64

	// Const is the minimum invalidation radius in voxels.
	Const float64

	// MaxBoundaryDistance skips components whose maximum boundary distance
	// exceeds it, e.g. blob-like cell bodies that should not be
	// skeletonized as processes.  Zero disables the check.
	MaxBoundaryDistance float64
}

// Extract converts one connected foreground component plus its
// boundary-distance field into a centerline skeleton.  Vertex positions are
// chunk-local voxel coordinates; radii are the boundary distance sampled at
// each vertex.  The passed mask is cloned, never mutated.  Identical inputs
// with a deterministic solver yield bit-identical output.
func Extract(mask *skel.VoxelMask, dbf *skel.ScalarField, params Params,
	ds solver.DistanceSolver) (*skel.SkeletonGraph, error) {

	foreground := mask.Clone()
	remaining := foreground.NumForeground()
	if remaining == 0 {
		return &skel.SkeletonGraph{}, nil
	}

	dbfMax := dbf.MaskedMax(foreground)
	if params.MaxBoundaryDistance > 0 && float64(dbfMax) > params.MaxBoundaryDistance {
		// Likely a soma or blood vessel; skipping is policy, not error.
		return &skel.SkeletonGraph{}, nil
	}
	if dbfMax <= 0 {
		return nil, fmt.Errorf("boundary-distance field is zero over %d foreground voxels", remaining)
	}

	// Root selection: the PDRF extremum is a valid root even when the
	// first distance field starts from an arbitrary voxel.
	seed, _ := foreground.FirstForeground()
	unit := skel.UniformField(foreground.Size, 1)
	daf, err := ds.DistanceField(foreground, unit, seed)
	if err != nil {
		return nil, fmt.Errorf("computing distance-from-any-voxel field: %v", err)
	}
	root, ok := daf.ArgMax(foreground)
	if !ok {
		return nil, fmt.Errorf("no root found in component of %d voxels", remaining)
	}

	dafRoot, err := ds.DistanceField(foreground, dbf, root)
	if err != nil {
		return nil, fmt.Errorf("computing distance-from-root field: %v", err)
	}

	pdrf := penalizedField(foreground, dafRoot, dbf, dbfMax)

	// Iterative path extraction: walk to the most distant unexplored
	// voxel, then roll the invalidation ball along the path.  The ball
	// always covers the path itself, so every pass retires at least the
	// target voxel and the loop terminates.
	invalid := foreground.Clone()
	var paths [][]skel.Point3d
	for remaining > 0 {
		target, ok := pdrf.ArgMax(invalid)
		if !ok {
			return nil, fmt.Errorf("%d voxels remain but no extraction target found", remaining)
		}
		path, err := ds.ShortestPath(foreground, pdrf, root, target)
		if err != nil {
			return nil, fmt.Errorf("extracting path to %s: %v", target, err)
		}
		remaining -= rollInvalidationBall(invalid, dbf, path, params.Scale, params.Const)
		paths = append(paths, path)
	}

	vertices, edges, err := PathUnion(paths)
	if err != nil {
		return nil, err
	}

	graph := &skel.SkeletonGraph{
		Vertices: make([][3]float32, len(vertices)),
		Edges:    edges,
		Radii:    make([]float32, len(vertices)),
	}
	for i, v := range vertices {
		graph.Vertices[i] = [3]float32{float32(v[0]), float32(v[1]), float32(v[2])}
		graph.Radii[i] = dbf.Value(v)
	}
	return graph, nil
}

// penalizedField computes PDRF = DAF' + 5000*(1 - DBF*M)^16 with
// M = 1/dbf_max^1.01, keeping the penalty within float32 precision for
// walks up to thousands of voxels.  Background voxels are +Inf.
func penalizedField(mask *skel.VoxelMask, dafRoot, dbf *skel.ScalarField, dbfMax float32) *skel.ScalarField {
	m := 1 / math.Pow(float64(dbfMax), 1.01)
	inf := float32(math.Inf(1))
	pdrf := skel.NewScalarField(mask.Size)
	for i, fg := range mask.Bits {
		if !fg {
			pdrf.Data[i] = inf
			continue
		}
		penalty := pdrfScale * math.Pow(1-float64(dbf.Data[i])*m, pdrfExponent)
		pdrf.Data[i] = float32(float64(dafRoot.Data[i]) + penalty)
	}
	return pdrf
}
