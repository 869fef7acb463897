package spatialworld

import "github.com/arxos/broadphase/internal/spatial"

func vmin(a, b spatial.Vec3) spatial.Vec3 {
	min := func(x, y float32) float32 {
		if x < y {
			return x
		}
		return y
	}
	return spatial.Vec3{X: min(a.X, b.X), Y: min(a.Y, b.Y), Z: min(a.Z, b.Z)}
}

func vmax(a, b spatial.Vec3) spatial.Vec3 {
	max := func(x, y float32) float32 {
		if x > y {
			return x
		}
		return y
	}
	return spatial.Vec3{X: max(a.X, b.X), Y: max(a.Y, b.Y), Z: max(a.Z, b.Z)}
}

// RayQuery is a ray cast request: origin, direction (need not be unit
// length), and the maximum travel distance along dir.
type RayQuery struct {
	Origin               spatial.Vec3
	Dir                  spatial.Vec3
	MaxDist              float32
	IncludeMask, ExcludeMask uint32
}

// NewRayQuery builds a RayQuery with the spec default masks (include all,
// exclude none).
func NewRayQuery(origin, dir spatial.Vec3, maxDist float32) RayQuery {
	return RayQuery{Origin: origin, Dir: dir, MaxDist: maxDist, IncludeMask: AllMask}
}

// RaycastHit is one ray-cast result: the shape index and the hit distance
// along the ray.
type RaycastHit struct {
	Index    uint32
	Distance float32
}

// SphereOverlapQuery finds shapes overlapping a query sphere.
type SphereOverlapQuery struct {
	Center                   spatial.Vec3
	Radius                   float32
	IncludeMask, ExcludeMask uint32
}

func NewSphereOverlapQuery(center spatial.Vec3, radius float32) SphereOverlapQuery {
	return SphereOverlapQuery{Center: center, Radius: radius, IncludeMask: AllMask}
}

// CapsuleSweepQuery sweeps a sphere of Radius from P1 to P2.
type CapsuleSweepQuery struct {
	P1, P2                   spatial.Vec3
	Radius                   float32
	IncludeMask, ExcludeMask uint32
}

func NewCapsuleSweepQuery(p1, p2 spatial.Vec3, radius float32) CapsuleSweepQuery {
	return CapsuleSweepQuery{P1: p1, P2: p2, Radius: radius, IncludeMask: AllMask}
}

// CapsuleSweepHit is one swept-capsule result: the shape index and the
// time-of-impact fraction in [0,1] along the sweep.
type CapsuleSweepHit struct {
	Index uint32
	TOI   float32
}

// SlashQuery is a "slash ribbon" query defined by two edges: BaseA->TipA
// and BaseB->TipB.
type SlashQuery struct {
	BaseA, TipA, BaseB, TipB spatial.Vec3
	IncludeMask, ExcludeMask uint32
}

func NewSlashQuery(baseA, tipA, baseB, tipB spatial.Vec3) SlashQuery {
	return SlashQuery{BaseA: baseA, TipA: tipA, BaseB: baseB, TipB: tipB, IncludeMask: AllMask}
}

// PointQuery finds shapes containing Point.
type PointQuery struct {
	Point                    spatial.Vec3
	IncludeMask, ExcludeMask uint32
}

func NewPointQuery(p spatial.Vec3) PointQuery {
	return PointQuery{Point: p, IncludeMask: AllMask}
}

// Raycast writes up to len(out) hits, nearest first. Only sphere-kind
// shapes can be hit: they get an exact narrow-phase test, and candidates of
// every other kind are skipped.
func (w *World) Raycast(q RayQuery, out []RaycastHit) int {
	segEnd := q.Origin.Add(q.Dir.Scale(q.MaxDist / maxF(q.Dir.Length(), 1e-9)))
	qAABB := spatial.AABB{Min: vmin(q.Origin, segEnd), Max: vmax(q.Origin, segEnd)}

	candidates := w.candidateBuffer(len(out) * 4)
	n := w.driver.Query(qAABB, candidates, q.IncludeMask, q.ExcludeMask)

	hits := 0
	for k := 0; k < n && hits < len(out); k++ {
		i := candidates[k]
		if !w.registry.IsActive(i) {
			continue
		}
		kind, params := w.registry.Kind(i), w.registry.Params(i)
		if kind != spatial.KindSphere {
			continue
		}
		if ok, dist := raySphere(q.Origin, q.Dir, q.MaxDist, params.Center, params.Radius); ok {
			insertRaycastHit(out, &hits, RaycastHit{Index: i, Distance: dist})
		}
	}
	return hits
}

func maxF(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

// insertRaycastHit inserts h into out[:*hits] keeping the slice sorted by
// ascending distance, growing *hits up to len(out).
func insertRaycastHit(out []RaycastHit, hits *int, h RaycastHit) {
	n := *hits
	pos := n
	for pos > 0 && out[pos-1].Distance > h.Distance {
		if pos < len(out) {
			out[pos] = out[pos-1]
		}
		pos--
	}
	if pos < len(out) {
		out[pos] = h
		if n < len(out) {
			*hits = n + 1
		}
	}
}

// SphereOverlap writes up to len(out) overlapping shape indices.
func (w *World) SphereOverlap(q SphereOverlapQuery, out []uint32) int {
	r := spatial.Vec3{X: q.Radius, Y: q.Radius, Z: q.Radius}
	qAABB := spatial.AABB{Min: q.Center.Sub(r), Max: q.Center.Add(r)}

	candidates := w.candidateBuffer(len(out) * 4)
	n := w.driver.Query(qAABB, candidates, q.IncludeMask, q.ExcludeMask)

	count := 0
	for k := 0; k < n && count < len(out); k++ {
		i := candidates[k]
		if !w.registry.IsActive(i) {
			continue
		}
		kind, params := w.registry.Kind(i), w.registry.Params(i)
		if kind == spatial.KindSphere && !sphereSphereOverlap(q.Center, q.Radius, params.Center, params.Radius) {
			continue
		}
		out[count] = i
		count++
	}
	return count
}

// CapsuleSweep writes up to len(out) hits, nearest (smallest TOI) first.
func (w *World) CapsuleSweep(q CapsuleSweepQuery, out []CapsuleSweepHit) int {
	r := spatial.Vec3{X: q.Radius, Y: q.Radius, Z: q.Radius}
	qAABB := spatial.AABB{
		Min: vmin(q.P1, q.P2).Sub(r),
		Max: vmax(q.P1, q.P2).Add(r),
	}

	candidates := w.candidateBuffer(len(out) * 4)
	n := w.driver.Query(qAABB, candidates, q.IncludeMask, q.ExcludeMask)

	hits := 0
	for k := 0; k < n && hits < len(out); k++ {
		i := candidates[k]
		if !w.registry.IsActive(i) {
			continue
		}
		kind, params := w.registry.Kind(i), w.registry.Params(i)
		if kind != spatial.KindSphere {
			continue
		}
		if ok, toi := capsuleSweepVsSphere(q.P1, q.P2, q.Radius, params.Center, params.Radius); ok {
			insertCapsuleHit(out, &hits, CapsuleSweepHit{Index: i, TOI: toi})
		}
	}
	return hits
}

func insertCapsuleHit(out []CapsuleSweepHit, hits *int, h CapsuleSweepHit) {
	n := *hits
	pos := n
	for pos > 0 && out[pos-1].TOI > h.TOI {
		if pos < len(out) {
			out[pos] = out[pos-1]
		}
		pos--
	}
	if pos < len(out) {
		out[pos] = h
		if n < len(out) {
			*hits = n + 1
		}
	}
}

// Slash writes up to len(out) shape indices touched by the ribbon.
func (w *World) Slash(q SlashQuery, out []uint32) int {
	qAABB := spatial.AABB{
		Min: vmin(vmin(q.BaseA, q.TipA), vmin(q.BaseB, q.TipB)),
		Max: vmax(vmax(q.BaseA, q.TipA), vmax(q.BaseB, q.TipB)),
	}

	candidates := w.candidateBuffer(len(out) * 4)
	n := w.driver.Query(qAABB, candidates, q.IncludeMask, q.ExcludeMask)

	count := 0
	for k := 0; k < n && count < len(out); k++ {
		i := candidates[k]
		if !w.registry.IsActive(i) {
			continue
		}
		kind, params := w.registry.Kind(i), w.registry.Params(i)
		if kind == spatial.KindSphere && !slashHitsSphere(q.BaseA, q.TipA, q.BaseB, q.TipB, params.Center, params.Radius) {
			continue
		}
		out[count] = i
		count++
	}
	return count
}

// PointQuery writes up to len(out) shape indices containing Point.
func (w *World) PointQuery(q PointQuery, out []uint32) int {
	qAABB := spatial.AABB{Min: q.Point, Max: q.Point}

	candidates := w.candidateBuffer(len(out) * 4)
	n := w.driver.Query(qAABB, candidates, q.IncludeMask, q.ExcludeMask)

	count := 0
	for k := 0; k < n && count < len(out); k++ {
		i := candidates[k]
		if !w.registry.IsActive(i) {
			continue
		}
		kind, params := w.registry.Kind(i), w.registry.Params(i)
		if kind == spatial.KindSphere && !pointInSphere(q.Point, params.Center, params.Radius) {
			continue
		}
		out[count] = i
		count++
	}
	return count
}
