package spatial

// AABB is an axis-aligned bounding box in world space.
type AABB struct {
	Min Vec3
	Max Vec3
}

// Center returns the midpoint of the box.
func (b AABB) Center() Vec3 {
	return b.Min.Add(b.Max).Scale(0.5)
}

// Size returns the extent of the box along each axis.
func (b AABB) Size() Vec3 {
	return b.Max.Sub(b.Min)
}

// SurfaceArea returns 2*(sx*sy + sy*sz + sz*sx).
func (b AABB) SurfaceArea() float32 {
	s := b.Size()
	return 2 * (s.X*s.Y + s.Y*s.Z + s.Z*s.X)
}

// Intersects reports whether the two boxes overlap, inclusive of touching faces.
func (b AABB) Intersects(o AABB) bool {
	return b.Min.X <= o.Max.X && b.Max.X >= o.Min.X &&
		b.Min.Y <= o.Max.Y && b.Max.Y >= o.Min.Y &&
		b.Min.Z <= o.Max.Z && b.Max.Z >= o.Min.Z
}

// ContainsPoint reports whether p lies within the box, inclusive of the boundary.
func (b AABB) ContainsPoint(p Vec3) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// Contains reports whether b fully encloses o.
func (b AABB) Contains(o AABB) bool {
	return o.Min.X >= b.Min.X && o.Max.X <= b.Max.X &&
		o.Min.Y >= b.Min.Y && o.Max.Y <= b.Max.Y &&
		o.Min.Z >= b.Min.Z && o.Max.Z <= b.Max.Z
}

// Merge returns the smallest box enclosing both a and b.
func Merge(a, b AABB) AABB {
	return AABB{Min: vecMin(a.Min, b.Min), Max: vecMax(a.Max, b.Max)}
}

// Expand returns the box grown by margin on every face.
func (b AABB) Expand(margin float32) AABB {
	m := Vec3{margin, margin, margin}
	return AABB{Min: b.Min.Sub(m), Max: b.Max.Add(m)}
}

// Empty returns a degenerate box that Merge()s as the identity element.
func Empty() AABB {
	return AABB{
		Min: Vec3{X: maxFloat, Y: maxFloat, Z: maxFloat},
		Max: Vec3{X: -maxFloat, Y: -maxFloat, Z: -maxFloat},
	}
}

const maxFloat = 3.402823466e+38

// LongestAxis returns 0/1/2 for the axis (X/Y/Z) with the greatest extent.
func (b AABB) LongestAxis() int {
	s := b.Size()
	axis := 0
	longest := s.X
	if s.Y > longest {
		axis, longest = 1, s.Y
	}
	if s.Z > longest {
		axis = 2
	}
	return axis
}
