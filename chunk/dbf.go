package chunk

import (
	"math"

	"github.com/janelia-flyem/skeletonize/skel"
	"github.com/janelia-flyem/skeletonize/volume"
)

// ChunkDBF computes the anisotropic exact euclidean distance from every
// voxel to the nearest voxel of a different label, in physical units, using
// the Felzenszwalb & Huttenlocher squared-distance transform once per axis.
// Label 0 is background and gets distance 0.  The region outside the grid
// counts as background, so the transform is finite even when one label fills
// the whole chunk.
//
// Within each 1d line a label change is a zero-distance site just past the
// run's ends, which is what makes the multilabel transform decompose into
// independent per-run transforms.
func ChunkDBF(labels *volume.LabelVolume, res skel.NdFloat32) *skel.ScalarField {
	size := labels.Bounds.Size()
	nx, ny, nz := int(size[0]), int(size[1]), int(size[2])
	sq := make([]float64, len(labels.Data))

	// Pass 1 along x: distance to nearest run end, no parabolas needed.
	wx := float64(res[0])
	for z := 0; z < nz; z++ {
		for y := 0; y < ny; y++ {
			base := nx * (y + ny*z)
			forRuns(labels.Data, base, 1, nx, func(beg, end int) {
				for i := beg; i < end; i++ {
					steps := i - beg + 1
					if right := end - i; right < steps {
						steps = right
					}
					d := wx * float64(steps)
					sq[base+i] = d * d
				}
			})
		}
	}

	// Passes 2 and 3 lower the parabola envelope along y then z.
	dt := newLineTransform(max(ny, nz))
	wy := float64(res[1])
	for z := 0; z < nz; z++ {
		for x := 0; x < nx; x++ {
			base := x + nx*ny*z
			forRuns(labels.Data, base, nx, ny, func(beg, end int) {
				dt.run(sq, base+beg*nx, nx, end-beg, wy)
			})
		}
	}
	wz := float64(res[2])
	for y := 0; y < ny; y++ {
		for x := 0; x < nx; x++ {
			base := x + nx*y
			forRuns(labels.Data, base, nx*ny, nz, func(beg, end int) {
				dt.run(sq, base+beg*nx*ny, nx*ny, end-beg, wz)
			})
		}
	}

	out := skel.NewScalarField(size)
	for i, d := range sq {
		out.Data[i] = float32(math.Sqrt(d))
	}
	return out
}

// DistanceTransform is the binary special case of ChunkDBF: distance from
// each foreground voxel of mask to the nearest background voxel.
func DistanceTransform(mask *skel.VoxelMask, res skel.NdFloat32) *skel.ScalarField {
	labels := volume.NewLabelVolume(skel.NewBbox(skel.Point3d{}, mask.Size))
	for i, fg := range mask.Bits {
		if fg {
			labels.Data[i] = 1
		}
	}
	return ChunkDBF(labels, res)
}

// forRuns calls f for each maximal run of equal nonzero label along a line
// of n voxels starting at base with the given stride.
func forRuns(labels []uint64, base, stride, n int, f func(beg, end int)) {
	beg := 0
	for beg < n {
		label := labels[base+beg*stride]
		end := beg + 1
		for end < n && labels[base+end*stride] == label {
			end++
		}
		if label != 0 {
			f(beg, end)
		}
		beg = end
	}
}

// lineTransform holds the scratch buffers for 1d squared-distance envelope
// transforms, reused across lines to avoid per-line allocation.
type lineTransform struct {
	f    []float64 // site values, run plus a zero site at each end
	x    []float64 // site positions
	site []int
	z    []float64
}

func newLineTransform(maxLen int) *lineTransform {
	return &lineTransform{
		f:    make([]float64, maxLen+2),
		x:    make([]float64, maxLen+2),
		site: make([]int, maxLen+2),
		z:    make([]float64, maxLen+3),
	}
}

// run lowers the parabola envelope over one run of n voxels in the squared
// field, bracketing the run with zero-valued sites one voxel past each end.
func (t *lineTransform) run(sq []float64, base, stride, n int, w float64) {
	f, x := t.f[:n+2], t.x[:n+2]
	f[0], x[0] = 0, -w
	for i := 0; i < n; i++ {
		f[i+1] = sq[base+i*stride]
		x[i+1] = w * float64(i)
	}
	f[n+1], x[n+1] = 0, w*float64(n)

	site, z := t.site[:n+2], t.z[:n+3]
	k := 0
	site[0] = 0
	z[0] = math.Inf(-1)
	z[1] = math.Inf(1)
	for i := 1; i < n+2; i++ {
		var s float64
		for {
			j := site[k]
			s = ((f[i] + x[i]*x[i]) - (f[j] + x[j]*x[j])) / (2 * (x[i] - x[j]))
			if k > 0 && s <= z[k] {
				k--
			} else {
				break
			}
		}
		k++
		site[k] = i
		z[k] = s
		z[k+1] = math.Inf(1)
	}

	k = 0
	for i := 0; i < n; i++ {
		q := w * float64(i)
		for z[k+1] < q {
			k++
		}
		j := site[k]
		sq[base+i*stride] = (q-x[j])*(q-x[j]) + f[j]
	}
}
