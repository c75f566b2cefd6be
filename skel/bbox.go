package skel

import (
	"fmt"
	"strconv"
	"strings"
)

// Bbox is an integer axis-aligned box in voxel space, closed at MinPt and
// open at MaxPt, i.e., the voxel p is inside if MinPt <= p < MaxPt on every
// axis.  Bbox values are used both for subvolume geometry and as part of
// fragment keys via their reversible token encoding.
type Bbox struct {
	MinPt Point3d
	MaxPt Point3d
}

// NewBbox returns a Bbox from an origin and size.
func NewBbox(offset, size Point3d) Bbox {
	return Bbox{MinPt: offset, MaxPt: offset.Add(size)}
}

// Size returns the extent of the box along each axis.
func (b Bbox) Size() Point3d {
	return b.MaxPt.Sub(b.MinPt)
}

// Volume returns the number of voxels held by the box.  Boxes with any
// non-positive extent have volume <= 0.
func (b Bbox) Volume() int64 {
	size := b.Size()
	return int64(size[0]) * int64(size[1]) * int64(size[2])
}

// Translate returns the box moved by the given offset.
func (b Bbox) Translate(offset Point3d) Bbox {
	return Bbox{MinPt: b.MinPt.Add(offset), MaxPt: b.MaxPt.Add(offset)}
}

// Shrink returns the box contracted by margin voxels on every face.
func (b Bbox) Shrink(margin int32) Bbox {
	return Bbox{MinPt: b.MinPt.AddScalar(margin), MaxPt: b.MaxPt.AddScalar(-margin)}
}

// Contains returns true if the voxel point is within the box.
func (b Bbox) Contains(p Point3d) bool {
	for dim := 0; dim < 3; dim++ {
		if p[dim] < b.MinPt[dim] || p[dim] >= b.MaxPt[dim] {
			return false
		}
	}
	return true
}

// Intersects returns true if the two boxes share any volume.  The test is
// symmetric and strict: boxes that merely touch on a face do not intersect.
func (b Bbox) Intersects(b2 Bbox) bool {
	for dim := 0; dim < 3; dim++ {
		if b.MinPt[dim] >= b2.MaxPt[dim] || b2.MinPt[dim] >= b.MaxPt[dim] {
			return false
		}
	}
	return true
}

// Intersection returns the overlapping region of two boxes.  If the boxes
// don't intersect, the result has non-positive volume.
func (b Bbox) Intersection(b2 Bbox) Bbox {
	return Bbox{MinPt: b.MinPt.Max(b2.MinPt), MaxPt: b.MaxPt.Min(b2.MaxPt)}
}

// Clamp returns the box restricted to the bounds of another box.
func (b Bbox) Clamp(bounds Bbox) Bbox {
	return Bbox{
		MinPt: b.MinPt.Max(bounds.MinPt).Min(bounds.MaxPt),
		MaxPt: b.MaxPt.Min(bounds.MaxPt).Max(bounds.MinPt),
	}
}

// Equals returns true if the two boxes are identical.
func (b Bbox) Equals(b2 Bbox) bool {
	return b.MinPt.Equals(b2.MinPt) && b.MaxPt.Equals(b2.MaxPt)
}

// Token returns a reversible textual encoding of the box bounds, suitable
// for embedding in storage keys: "x0-x1_y0-y1_z0-z1".
func (b Bbox) Token() string {
	return fmt.Sprintf("%d-%d_%d-%d_%d-%d",
		b.MinPt[0], b.MaxPt[0], b.MinPt[1], b.MaxPt[1], b.MinPt[2], b.MaxPt[2])
}

// DecodeBboxToken recovers a Bbox from its token encoding so that
// DecodeBboxToken(b.Token()) == b for every valid box.
func DecodeBboxToken(token string) (b Bbox, err error) {
	axes := strings.Split(token, "_")
	if len(axes) != 3 {
		err = fmt.Errorf("malformed bbox token %q", token)
		return
	}
	for dim, axis := range axes {
		// Split on the range dash, keeping any leading minus signs intact.
		beg, end, ok := splitRange(axis)
		if !ok {
			err = fmt.Errorf("malformed bbox token %q: bad axis %q", token, axis)
			return
		}
		var v int64
		if v, err = strconv.ParseInt(beg, 10, 32); err != nil {
			return
		}
		b.MinPt[dim] = int32(v)
		if v, err = strconv.ParseInt(end, 10, 32); err != nil {
			return
		}
		b.MaxPt[dim] = int32(v)
	}
	return
}

// splitRange splits "a-b" where a and b may themselves be negative.
func splitRange(s string) (beg, end string, ok bool) {
	for i := 1; i < len(s); i++ {
		if s[i] == '-' && s[i-1] != '-' {
			return s[:i], s[i+1:], true
		}
	}
	return "", "", false
}

func (b Bbox) String() string {
	return fmt.Sprintf("box %s -> %s", b.MinPt, b.MaxPt)
}
