package spatial

import "math"

// Kind identifies the geometric interpretation of a ShapeParams payload.
type Kind uint8

const (
	KindSphere Kind = iota
	KindCapsule
	KindCylinder
	KindBox
)

func (k Kind) String() string {
	switch k {
	case KindSphere:
		return "sphere"
	case KindCapsule:
		return "capsule"
	case KindCylinder:
		return "cylinder"
	case KindBox:
		return "box"
	default:
		return "unknown"
	}
}

// ShapeParams holds the parameter fields of every shape kind side by side.
// Only the fields relevant to Kind are meaningful.
type ShapeParams struct {
	// Sphere: Center, Radius.
	// Capsule: P1, P2, Radius.
	// Cylinder: Center (base centre, Y-aligned), Height, Radius.
	// Box: Center, HalfExtents, Yaw (radians about Y).
	Center      Vec3
	P1          Vec3
	P2          Vec3
	Radius      float32
	HalfExtents Vec3
	Height      float32
	Yaw         float32
}

// ComputeAABB derives the world-space AABB for kind/params.
func ComputeAABB(kind Kind, p ShapeParams) AABB {
	switch kind {
	case KindSphere:
		r := Vec3{p.Radius, p.Radius, p.Radius}
		return AABB{Min: p.Center.Sub(r), Max: p.Center.Add(r)}
	case KindCapsule:
		r := Vec3{p.Radius, p.Radius, p.Radius}
		box := AABB{Min: vecMin(p.P1, p.P2), Max: vecMax(p.P1, p.P2)}
		return AABB{Min: box.Min.Sub(r), Max: box.Max.Add(r)}
	case KindCylinder:
		return AABB{
			Min: Vec3{p.Center.X - p.Radius, p.Center.Y, p.Center.Z - p.Radius},
			Max: Vec3{p.Center.X + p.Radius, p.Center.Y + p.Height, p.Center.Z + p.Radius},
		}
	case KindBox:
		return boxAABB(p)
	default:
		return Empty()
	}
}

// boxAABB computes the world AABB of a box yawed about Y by rotating its
// four distinct XZ corners and taking the enclosing extent; Y is unaffected
// by a yaw-only rotation.
func boxAABB(p ShapeParams) AABB {
	c, h := p.Center, p.HalfExtents
	sinY, cosY := math.Sincos(float64(p.Yaw))
	sin, cos := float32(sinY), float32(cosY)

	minX, maxX := float32(maxFloat), float32(-maxFloat)
	minZ, maxZ := float32(maxFloat), float32(-maxFloat)
	for _, sx := range []float32{-1, 1} {
		for _, sz := range []float32{-1, 1} {
			lx, lz := sx*h.X, sz*h.Z
			wx := lx*cos + lz*sin
			wz := -lx*sin + lz*cos
			minX, maxX = minF(minX, wx), maxF(maxX, wx)
			minZ, maxZ = minF(minZ, wz), maxF(maxZ, wz)
		}
	}

	return AABB{
		Min: Vec3{c.X + minX, c.Y - h.Y, c.Z + minZ},
		Max: Vec3{c.X + maxX, c.Y + h.Y, c.Z + maxZ},
	}
}
