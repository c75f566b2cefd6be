package skel

import "math"

// VoxelMask is a 3d boolean grid for one label, with linear storage in
// x-fastest order: index = x + nx*(y + ny*z).  The grid is chunk-local;
// any offset into global coordinates is tracked by the caller's Bbox.
type VoxelMask struct {
	Size Point3d
	Bits []bool
}

// NewVoxelMask returns an all-background mask of the given size.
func NewVoxelMask(size Point3d) *VoxelMask {
	return &VoxelMask{Size: size, Bits: make([]bool, size.Prod())}
}

// Index returns the linear index of a point within the grid.
func (m *VoxelMask) Index(p Point3d) int {
	return int(p[0]) + int(m.Size[0])*(int(p[1])+int(m.Size[1])*int(p[2]))
}

// PointAt returns the point at the given linear index.
func (m *VoxelMask) PointAt(i int) Point3d {
	nx, ny := int(m.Size[0]), int(m.Size[1])
	return Point3d{int32(i % nx), int32((i / nx) % ny), int32(i / (nx * ny))}
}

// Inside returns true if the point lies within the grid bounds.
func (m *VoxelMask) Inside(p Point3d) bool {
	for dim := 0; dim < 3; dim++ {
		if p[dim] < 0 || p[dim] >= m.Size[dim] {
			return false
		}
	}
	return true
}

// Get returns the mask value at a point.
func (m *VoxelMask) Get(p Point3d) bool {
	return m.Bits[m.Index(p)]
}

// Set assigns the mask value at a point.
func (m *VoxelMask) Set(p Point3d, v bool) {
	m.Bits[m.Index(p)] = v
}

// Clone returns a deep copy of the mask.
func (m *VoxelMask) Clone() *VoxelMask {
	dup := &VoxelMask{Size: m.Size, Bits: make([]bool, len(m.Bits))}
	copy(dup.Bits, m.Bits)
	return dup
}

// NumForeground returns the number of foreground voxels.
func (m *VoxelMask) NumForeground() (n int) {
	for _, b := range m.Bits {
		if b {
			n++
		}
	}
	return
}

// FirstForeground returns the first foreground voxel in linear order,
// or false if the mask is empty.
func (m *VoxelMask) FirstForeground() (Point3d, bool) {
	for i, b := range m.Bits {
		if b {
			return m.PointAt(i), true
		}
	}
	return Point3d{}, false
}

// ScalarField is a 3d float32 grid with the same linear layout as VoxelMask.
// It holds boundary-distance fields and penalized distance fields.
type ScalarField struct {
	Size Point3d
	Data []float32
}

// NewScalarField returns a zero-valued field of the given size.
func NewScalarField(size Point3d) *ScalarField {
	return &ScalarField{Size: size, Data: make([]float32, size.Prod())}
}

// UniformField returns a field with every voxel set to the given value.
func UniformField(size Point3d, value float32) *ScalarField {
	f := NewScalarField(size)
	for i := range f.Data {
		f.Data[i] = value
	}
	return f
}

// Index returns the linear index of a point within the field.
func (f *ScalarField) Index(p Point3d) int {
	return int(p[0]) + int(f.Size[0])*(int(p[1])+int(f.Size[1])*int(p[2]))
}

// PointAt returns the point at the given linear index.
func (f *ScalarField) PointAt(i int) Point3d {
	nx, ny := int(f.Size[0]), int(f.Size[1])
	return Point3d{int32(i % nx), int32((i / nx) % ny), int32(i / (nx * ny))}
}

// Value returns the field value at a point.
func (f *ScalarField) Value(p Point3d) float32 {
	return f.Data[f.Index(p)]
}

// SetValue assigns the field value at a point.
func (f *ScalarField) SetValue(p Point3d, v float32) {
	f.Data[f.Index(p)] = v
}

// MaskedMax returns the maximum field value over foreground voxels of the
// mask, or 0 if the mask is empty.
func (f *ScalarField) MaskedMax(mask *VoxelMask) float32 {
	var max float32
	var found bool
	for i, b := range mask.Bits {
		if !b {
			continue
		}
		if !found || f.Data[i] > max {
			max = f.Data[i]
			found = true
		}
	}
	return max
}

// ArgMax returns the foreground voxel maximizing the field value.  Ties are
// broken deterministically: the lowest linear (x-fastest) index wins.  NaN
// values are skipped.  Returns false if the mask has no foreground voxel.
func (f *ScalarField) ArgMax(mask *VoxelMask) (Point3d, bool) {
	best := -1
	var bestVal float32
	for i, b := range mask.Bits {
		if !b || math.IsNaN(float64(f.Data[i])) {
			continue
		}
		if best < 0 || f.Data[i] > bestVal {
			best = i
			bestVal = f.Data[i]
		}
	}
	if best < 0 {
		return Point3d{}, false
	}
	return f.PointAt(best), true
}
