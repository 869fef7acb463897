// Package spatial implements the broad-phase spatial indexing core: a shape
// registry and six interchangeable acceleration structures that answer
// bounded-buffer spatial queries over a population of 3-D shapes. The tree
// indices reuse their traversal stacks across queries; SpatialHash and
// GridSAP build a fresh slice of cell keys on every query, so their queries
// allocate.
package spatial

import "math"

// Vec3 is a 3-D single-precision vector. Y is "up".
type Vec3 struct {
	X, Y, Z float32
}

func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3) Scale(s float32) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }

func (v Vec3) Dot(o Vec3) float32 { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }

func (v Vec3) LengthSq() float32 { return v.Dot(v) }

func (v Vec3) Length() float32 { return float32(math.Sqrt(float64(v.LengthSq()))) }

func (v Vec3) Get(axis int) float32 {
	switch axis {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}

func minF(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func maxF(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

func vecMin(a, b Vec3) Vec3 {
	return Vec3{minF(a.X, b.X), minF(a.Y, b.Y), minF(a.Z, b.Z)}
}

func vecMax(a, b Vec3) Vec3 {
	return Vec3{maxF(a.X, b.X), maxF(a.Y, b.Y), maxF(a.Z, b.Z)}
}
