package merge

import (
	"math"

	"github.com/janelia-flyem/skeletonize/skel"
)

// Trim removes vertices whose voxel doesn't belong to the object's point
// cloud, along with edges losing an endpoint.  Reconciliation and fusion can
// leave seam vertices that drifted off the object; the voxel membership test
// removes them.
func Trim(g *skel.SkeletonGraph, cloud map[skel.Point3d]struct{}, res skel.NdFloat32) *skel.SkeletonGraph {
	out := &skel.SkeletonGraph{}
	remap := make([]uint32, len(g.Vertices))
	for i, v := range g.Vertices {
		if _, member := cloud[physicalToVoxel(v, res)]; member {
			remap[i] = uint32(len(out.Vertices))
			out.Vertices = append(out.Vertices, v)
			out.Radii = append(out.Radii, g.Radii[i])
		} else {
			remap[i] = ^uint32(0)
		}
	}
	for _, e := range g.Edges {
		v0, v1 := remap[e[0]], remap[e[1]]
		if v0 != ^uint32(0) && v1 != ^uint32(0) {
			out.Edges = append(out.Edges, [2]uint32{v0, v1})
		}
	}
	return out
}

// physicalToVoxel maps a physical-unit position back to its voxel
// coordinate by rounding.
func physicalToVoxel(v [3]float32, res skel.NdFloat32) (p skel.Point3d) {
	for dim := 0; dim < 3; dim++ {
		p[dim] = int32(math.Round(float64(v[dim]) / float64(res[dim])))
	}
	return
}
