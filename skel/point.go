package skel

import (
	"fmt"
	"strconv"
	"strings"
)

// Point3d is a 3d point in voxel coordinate space.
type Point3d [3]int32

// Add returns the addition of two points.
func (p Point3d) Add(x Point3d) Point3d {
	return Point3d{p[0] + x[0], p[1] + x[1], p[2] + x[2]}
}

// Sub returns the subtraction of the passed point from the receiver.
func (p Point3d) Sub(x Point3d) Point3d {
	return Point3d{p[0] - x[0], p[1] - x[1], p[2] - x[2]}
}

// AddScalar adds a scalar value to every component.
func (p Point3d) AddScalar(value int32) Point3d {
	return Point3d{p[0] + value, p[1] + value, p[2] + value}
}

// Max returns a Point3d where each element is the maximum of the two points' elements.
func (p Point3d) Max(x Point3d) Point3d {
	result := p
	for dim := 0; dim < 3; dim++ {
		if x[dim] > result[dim] {
			result[dim] = x[dim]
		}
	}
	return result
}

// Min returns a Point3d where each element is the minimum of the two points' elements.
func (p Point3d) Min(x Point3d) Point3d {
	result := p
	for dim := 0; dim < 3; dim++ {
		if x[dim] < result[dim] {
			result[dim] = x[dim]
		}
	}
	return result
}

// Equals returns true if the two points are identical.
func (p Point3d) Equals(x Point3d) bool {
	return p[0] == x[0] && p[1] == x[1] && p[2] == x[2]
}

// Prod returns the product of the point elements.
func (p Point3d) Prod() int64 {
	return int64(p[0]) * int64(p[1]) * int64(p[2])
}

func (p Point3d) String() string {
	return fmt.Sprintf("(%d,%d,%d)", p[0], p[1], p[2])
}

// StringToPoint3d parses a string of format "x,y,z" into a Point3d.
func StringToPoint3d(s, sep string) (p Point3d, err error) {
	parts := strings.Split(s, sep)
	if len(parts) != 3 {
		err = fmt.Errorf("cannot convert %q into a 3d point", s)
		return
	}
	for dim, part := range parts {
		var v int64
		v, err = strconv.ParseInt(strings.TrimSpace(part), 10, 32)
		if err != nil {
			return
		}
		p[dim] = int32(v)
	}
	return
}

// NdFloat32 is an N-dimensional slice of float32, used for voxel resolution
// in physical units per voxel along each axis.
type NdFloat32 []float32

// StringToNdFloat32 parses a string of format "f,f,f..." into a NdFloat32.
func StringToNdFloat32(s, sep string) (nd NdFloat32, err error) {
	parts := strings.Split(s, sep)
	nd = make(NdFloat32, len(parts))
	for i, part := range parts {
		var v float64
		v, err = strconv.ParseFloat(strings.TrimSpace(part), 32)
		if err != nil {
			return
		}
		nd[i] = float32(v)
	}
	return
}
