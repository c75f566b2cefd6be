package merge

import (
	"github.com/janelia-flyem/skeletonize/skel"
)

// Consolidate removes duplicate vertices and degenerate edges from a fused
// skeleton: vertices sharing an exact position collapse to the first
// occurrence, edges are remapped, and self edges and repeated edges are
// dropped.  Vertex order is first-seen order, so consolidation of identical
// input is deterministic.
func Consolidate(g *skel.SkeletonGraph) *skel.SkeletonGraph {
	out := &skel.SkeletonGraph{}
	byPos := make(map[[3]float32]uint32, len(g.Vertices))
	remap := make([]uint32, len(g.Vertices))
	for i, v := range g.Vertices {
		id, seen := byPos[v]
		if !seen {
			id = uint32(len(out.Vertices))
			byPos[v] = id
			out.Vertices = append(out.Vertices, v)
			out.Radii = append(out.Radii, g.Radii[i])
		}
		remap[i] = id
	}

	edgeSeen := make(map[uint64]struct{}, len(g.Edges))
	for _, e := range g.Edges {
		v0, v1 := remap[e[0]], remap[e[1]]
		if v0 == v1 {
			continue
		}
		lo, hi := v0, v1
		if lo > hi {
			lo, hi = hi, lo
		}
		packed := uint64(lo)<<32 | uint64(hi)
		if _, dup := edgeSeen[packed]; dup {
			continue
		}
		edgeSeen[packed] = struct{}{}
		out.Edges = append(out.Edges, [2]uint32{v0, v1})
	}
	return out
}
