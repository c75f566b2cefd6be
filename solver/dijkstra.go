package solver

import (
	"container/heap"
	"fmt"
	"math"

	"github.com/janelia-flyem/skeletonize/skel"
)

// GridDijkstra is the default DistanceSolver: Dijkstra's algorithm over the
// implicit voxel graph using an explicit binary heap.  The voxel grid is
// never materialized as an adjacency structure.
type GridDijkstra struct{}

// NewGridDijkstra returns a stateless Dijkstra-based solver.
func NewGridDijkstra() GridDijkstra {
	return GridDijkstra{}
}

type heapItem struct {
	dist float64
	idx  int32
}

// distHeap orders by distance, breaking ties on the lower linear index.
type distHeap []heapItem

func (h distHeap) Len() int { return len(h) }
func (h distHeap) Less(i, j int) bool {
	if h[i].dist != h[j].dist {
		return h[i].dist < h[j].dist
	}
	return h[i].idx < h[j].idx
}
func (h distHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *distHeap) Push(x interface{}) {
	*h = append(*h, x.(heapItem))
}

func (h *distHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// run executes Dijkstra from the sources, stopping early once target (a
// linear index, or -1 for none) is settled.  Returned distances are +Inf
// for unreached voxels; parent is -1 where no predecessor exists.
func (GridDijkstra) run(mask *skel.VoxelMask, weights *skel.ScalarField,
	sources []skel.Point3d, target int32) (dist []float64, parent []int32, err error) {

	n := len(mask.Bits)
	dist = make([]float64, n)
	parent = make([]int32, n)
	for i := range dist {
		dist[i] = math.Inf(1)
		parent[i] = -1
	}
	settled := make([]bool, n)

	h := make(distHeap, 0, len(sources))
	for _, src := range sources {
		if !mask.Inside(src) || !mask.Get(src) {
			return nil, nil, fmt.Errorf("source voxel %s is not foreground", src)
		}
		i := int32(mask.Index(src))
		dist[i] = 0
		h = append(h, heapItem{0, i})
	}
	heap.Init(&h)

	for h.Len() > 0 {
		item := heap.Pop(&h).(heapItem)
		if settled[item.idx] {
			continue
		}
		settled[item.idx] = true
		if item.idx == target {
			return
		}
		p := mask.PointAt(int(item.idx))
		for _, step := range neighbors26 {
			np := p.Add(step)
			if !mask.Inside(np) || !mask.Get(np) {
				continue
			}
			ni := int32(mask.Index(np))
			if settled[ni] {
				continue
			}
			nd := item.dist + float64(weights.Data[ni])
			if math.IsInf(nd, 1) || math.IsNaN(nd) {
				continue
			}
			if nd < dist[ni] {
				dist[ni] = nd
				parent[ni] = item.idx
				heap.Push(&h, heapItem{nd, ni})
			}
		}
	}
	return
}

// DistanceField implements DistanceSolver.
func (d GridDijkstra) DistanceField(mask *skel.VoxelMask, weights *skel.ScalarField,
	sources ...skel.Point3d) (*skel.ScalarField, error) {

	if len(sources) == 0 {
		return nil, fmt.Errorf("distance field request requires at least one source voxel")
	}
	dist, _, err := d.run(mask, weights, sources, -1)
	if err != nil {
		return nil, err
	}
	field := skel.NewScalarField(mask.Size)
	for i := range field.Data {
		field.Data[i] = float32(dist[i])
	}
	return field, nil
}

// ShortestPath implements DistanceSolver.
func (d GridDijkstra) ShortestPath(mask *skel.VoxelMask, weights *skel.ScalarField,
	from, to skel.Point3d) ([]skel.Point3d, error) {

	if !mask.Inside(to) || !mask.Get(to) {
		return nil, fmt.Errorf("path target %s is not foreground", to)
	}
	targetIdx := int32(mask.Index(to))
	dist, parent, err := d.run(mask, weights, []skel.Point3d{from}, targetIdx)
	if err != nil {
		return nil, err
	}
	if math.IsInf(dist[targetIdx], 1) {
		return nil, fmt.Errorf("no path from %s to %s", from, to)
	}
	return tracebackPath(mask, parent, from, to), nil
}

// tracebackPath follows parent links from the target back to the source and
// reverses into source-to-target order.
func tracebackPath(mask *skel.VoxelMask, parent []int32, from, to skel.Point3d) []skel.Point3d {
	var path []skel.Point3d
	for i := int32(mask.Index(to)); i >= 0; i = parent[i] {
		path = append(path, mask.PointAt(int(i)))
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
