package solver

import (
	"fmt"
	"math"

	"github.com/janelia-flyem/skeletonize/skel"
)

// MultiSourceBFS is an alternate DistanceSolver for unit-weight fields: a
// breadth-first search that treats every step as cost 1 regardless of the
// passed weights.  On a uniform field of 1 it produces the same distance
// field as GridDijkstra at a fraction of the cost.  It exists so the
// root-finding pass and solver-dependent tests have an independent backend
// to cross-check against.
type MultiSourceBFS struct{}

// NewMultiSourceBFS returns a stateless BFS-based solver.
func NewMultiSourceBFS() MultiSourceBFS {
	return MultiSourceBFS{}
}

func (MultiSourceBFS) run(mask *skel.VoxelMask, sources []skel.Point3d) (dist []float64, parent []int32, err error) {
	n := len(mask.Bits)
	dist = make([]float64, n)
	parent = make([]int32, n)
	for i := range dist {
		dist[i] = math.Inf(1)
		parent[i] = -1
	}

	// Explicit FIFO queue; seeds enqueued in call order.
	queue := make([]int32, 0, len(sources))
	for _, src := range sources {
		if !mask.Inside(src) || !mask.Get(src) {
			return nil, nil, fmt.Errorf("source voxel %s is not foreground", src)
		}
		i := int32(mask.Index(src))
		if !math.IsInf(dist[i], 1) {
			continue
		}
		dist[i] = 0
		queue = append(queue, i)
	}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		p := mask.PointAt(int(cur))
		for _, step := range neighbors26 {
			np := p.Add(step)
			if !mask.Inside(np) || !mask.Get(np) {
				continue
			}
			ni := int32(mask.Index(np))
			if !math.IsInf(dist[ni], 1) {
				continue
			}
			dist[ni] = dist[cur] + 1
			parent[ni] = cur
			queue = append(queue, ni)
		}
	}
	return
}

// DistanceField implements DistanceSolver with unit step costs.
func (b MultiSourceBFS) DistanceField(mask *skel.VoxelMask, weights *skel.ScalarField,
	sources ...skel.Point3d) (*skel.ScalarField, error) {

	if len(sources) == 0 {
		return nil, fmt.Errorf("distance field request requires at least one source voxel")
	}
	dist, _, err := b.run(mask, sources)
	if err != nil {
		return nil, err
	}
	field := skel.NewScalarField(mask.Size)
	for i := range field.Data {
		field.Data[i] = float32(dist[i])
	}
	return field, nil
}

// ShortestPath implements DistanceSolver with unit step costs.
func (b MultiSourceBFS) ShortestPath(mask *skel.VoxelMask, weights *skel.ScalarField,
	from, to skel.Point3d) ([]skel.Point3d, error) {

	if !mask.Inside(to) || !mask.Get(to) {
		return nil, fmt.Errorf("path target %s is not foreground", to)
	}
	dist, parent, err := b.run(mask, []skel.Point3d{from})
	if err != nil {
		return nil, err
	}
	if math.IsInf(dist[mask.Index(to)], 1) {
		return nil, fmt.Errorf("no path from %s to %s", from, to)
	}
	return tracebackPath(mask, parent, from, to), nil
}
