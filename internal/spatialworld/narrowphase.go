package spatialworld

import (
	"math"

	"github.com/arxos/broadphase/internal/spatial"
)

// This file is deliberately minimal: spec-level narrow-phase geometry
// (ray-sphere, capsule-capsule distance, ribbon intersection, ...) is a
// Non-goal of the broad-phase core. What's here exists only so the
// façade's own tests can exercise end-to-end query scenarios without a
// real physics engine sitting behind it. For sphere overlap, slash and
// point queries, shape kinds other than sphere fall back to the AABB test
// the broad phase already performed; raycast and capsule sweep report
// sphere hits only.

func closestPointOnSegment(p, a, b spatial.Vec3) spatial.Vec3 {
	ab := b.Sub(a)
	denom := ab.Dot(ab)
	if denom == 0 {
		return a
	}
	t := p.Sub(a).Dot(ab) / denom
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return a.Add(ab.Scale(t))
}

// raySphere intersects a ray against a sphere, returning the entry distance
// along the ray. dir need not be unit length; it is normalized here, so the
// distance and maxDist are in world units.
func raySphere(origin, dir spatial.Vec3, maxDist float32, center spatial.Vec3, radius float32) (hit bool, dist float32) {
	length := dir.Length()
	if length == 0 {
		return false, 0
	}
	unit := dir.Scale(1 / length)

	oc := origin.Sub(center)
	a := unit.Dot(unit)
	b := 2 * oc.Dot(unit)
	c := oc.Dot(oc) - radius*radius

	disc := b*b - 4*a*c
	if disc < 0 {
		return false, 0
	}
	sq := float32(math.Sqrt(float64(disc)))
	t := (-b - sq) / (2 * a)
	if t < 0 {
		t = (-b + sq) / (2 * a)
	}
	if t < 0 || t > maxDist {
		return false, 0
	}
	return true, t
}

// sphereSphereOverlap reports overlap inclusive of tangency.
func sphereSphereOverlap(c1 spatial.Vec3, r1 float32, c2 spatial.Vec3, r2 float32) bool {
	d := c1.Sub(c2)
	rr := r1 + r2
	return d.LengthSq() <= rr*rr
}

func pointInSphere(p, center spatial.Vec3, radius float32) bool {
	return p.Sub(center).LengthSq() <= radius*radius
}

// capsuleSweepVsSphere finds the earliest fraction t in [0,1] along
// segment p1->p2 at which a moving sphere of radius capRadius first
// touches the static sphere (sphereCenter, sphereRadius). A negative or
// already-overlapping configuration at t=0 reports toi=0, matching the
// "start in contact" scenario.
func capsuleSweepVsSphere(p1, p2 spatial.Vec3, capRadius float32, sphereCenter spatial.Vec3, sphereRadius float32) (hit bool, toi float32) {
	combined := capRadius + sphereRadius
	d := p2.Sub(p1)
	f := p1.Sub(sphereCenter)

	c := f.Dot(f) - combined*combined
	if c <= 0 {
		return true, 0
	}

	a := d.Dot(d)
	if a == 0 {
		return false, 0
	}
	b := 2 * f.Dot(d)
	disc := b*b - 4*a*c
	if disc < 0 {
		return false, 0
	}
	sq := float32(math.Sqrt(float64(disc)))
	t := (-b - sq) / (2 * a)
	if t < 0 || t > 1 {
		return false, 0
	}
	return true, t
}

// slashHitsSphere treats the ribbon baseA-tipA / baseB-tipB as two edges
// and reports a hit if either edge's closest point to the sphere centre
// lies within the sphere.
func slashHitsSphere(baseA, tipA, baseB, tipB spatial.Vec3, center spatial.Vec3, radius float32) bool {
	cp1 := closestPointOnSegment(center, baseA, tipA)
	if pointInSphere(cp1, center, radius) {
		return true
	}
	cp2 := closestPointOnSegment(center, baseB, tipB)
	return pointInSphere(cp2, center, radius)
}
