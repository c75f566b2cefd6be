/*
Package chunk implements stage 1 of the skeletonization pipeline: per-chunk
connected component labeling, boundary-distance computation, centerline
extraction, and fragment persistence.
*/
package chunk

import (
	"github.com/janelia-flyem/skeletonize/skel"
)

// Component is one connected foreground region, cropped to its bounding box.
// Bounds are local to the labeled mask; Mask is local to Bounds.
type Component struct {
	Bounds skel.Bbox
	Mask   *skel.VoxelMask
}

// face6 holds the 6-connected neighborhood offsets in fixed scan order.
var face6 = [6]skel.Point3d{
	{0, 0, -1}, {0, -1, 0}, {-1, 0, 0},
	{1, 0, 0}, {0, 1, 0}, {0, 0, 1},
}

// ConnectedComponents labels foreground under 6-connectivity (face
// adjacency; pinned because diagonal-only touching voxels of thin processes
// are usually segmentation noise, and the finer granularity keeps seams
// mergeable).  Components are returned in order of their first foreground
// voxel in linear x-fastest scan order, so repeated runs see the same
// component numbering.
func ConnectedComponents(mask *skel.VoxelMask) []Component {
	visited := make([]bool, len(mask.Bits))
	var components []Component
	var queue []int

	for seed, fg := range mask.Bits {
		if !fg || visited[seed] {
			continue
		}
		visited[seed] = true
		queue = append(queue[:0], seed)
		var voxels []int
		minPt := mask.PointAt(seed)
		maxPt := minPt

		for len(queue) > 0 {
			idx := queue[0]
			queue = queue[1:]
			voxels = append(voxels, idx)
			p := mask.PointAt(idx)
			minPt = minPt.Min(p)
			maxPt = maxPt.Max(p)
			for _, off := range face6 {
				q := p.Add(off)
				if !mask.Inside(q) {
					continue
				}
				qi := mask.Index(q)
				if mask.Bits[qi] && !visited[qi] {
					visited[qi] = true
					queue = append(queue, qi)
				}
			}
		}

		bounds := skel.Bbox{MinPt: minPt, MaxPt: maxPt.AddScalar(1)}
		comp := Component{Bounds: bounds, Mask: skel.NewVoxelMask(bounds.Size())}
		for _, idx := range voxels {
			comp.Mask.Set(mask.PointAt(idx).Sub(minPt), true)
		}
		components = append(components, comp)
	}
	return components
}
