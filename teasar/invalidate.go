package teasar

import (
	"math"

	"github.com/janelia-flyem/skeletonize/skel"
)

// rollInvalidationBall marks as background every foreground voxel of mask
// within radius scale*DBF(v)+const of each path vertex v, a locally-sized
// "rolling ball" that retires the portion of the component this path has
// explained.  Returns the number of voxels invalidated.
func rollInvalidationBall(mask *skel.VoxelMask, dbf *skel.ScalarField,
	path []skel.Point3d, scale, konst float64) (invalidated int) {

	for _, v := range path {
		radius := scale*float64(dbf.Value(v)) + konst
		if radius < 0 {
			radius = 0
		}
		r := int32(math.Ceil(radius))
		r2 := radius * radius

		beg := v.AddScalar(-r).Max(skel.Point3d{0, 0, 0})
		end := v.AddScalar(r).Min(mask.Size.AddScalar(-1))
		for z := beg[2]; z <= end[2]; z++ {
			dz := float64(z - v[2])
			for y := beg[1]; y <= end[1]; y++ {
				dy := float64(y - v[1])
				for x := beg[0]; x <= end[0]; x++ {
					dx := float64(x - v[0])
					if dx*dx+dy*dy+dz*dz > r2 {
						continue
					}
					p := skel.Point3d{x, y, z}
					if mask.Get(p) {
						mask.Set(p, false)
						invalidated++
					}
				}
			}
		}
	}
	return
}
