package spatialworld

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arxos/broadphase/internal/spatial"
	"github.com/arxos/broadphase/internal/spatial/bvhcache"
)

func newTestWorld(t *testing.T, kind spatial.BroadPhaseKind) *World {
	t.Helper()
	cfg := spatial.DefaultConfig()
	cfg.BroadPhaseKind = kind
	// A threshold of 1 means any scenario past a single shape already
	// exceeds it; combined with seedFiller below, every S1-S6 scenario runs
	// through the real accelerated structure instead of indexSet.bruteForce.
	cfg.BruteForceThreshold = 1
	w, err := NewWorld(cfg, nil, nil)
	require.NoError(t, err)
	return w
}

// seedFiller adds n decoy spheres far from the origin, where every S1-S6
// scenario's query lives, purely to push the population past
// newTestWorld's BruteForceThreshold so the scenario exercises the named
// BroadPhaseKind's real traversal rather than the brute-force fallback.
func seedFiller(t *testing.T, w *World, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		_, err := w.AddSphere(spatial.Vec3{X: 1_000_000 + float32(i)*10}, 1, 0, 0)
		require.NoError(t, err)
	}
}

// S1 Raycast hit.
func TestS1RaycastHit(t *testing.T) {
	w := newTestWorld(t, spatial.KindDBVTBP)
	_, err := w.AddSphere(spatial.Vec3{X: 5, Y: 0, Z: 0}, 1, 0, 0)
	require.NoError(t, err)
	seedFiller(t, w, 2)

	q := NewRayQuery(spatial.Vec3{}, spatial.Vec3{X: 1}, 100)
	out := make([]RaycastHit, 4)
	n := w.Raycast(q, out)

	require.Equal(t, 1, n)
	assert.Equal(t, uint32(0), out[0].Index)
	assert.InDelta(t, 4.0, out[0].Distance, 0.01)
}

// S2 Raycast miss.
func TestS2RaycastMiss(t *testing.T) {
	w := newTestWorld(t, spatial.KindDBVTBP)
	seedFiller(t, w, 2)
	_, err := w.AddSphere(spatial.Vec3{X: 5, Y: 0, Z: 0}, 1, 0, 0)
	require.NoError(t, err)

	q := NewRayQuery(spatial.Vec3{Y: 5}, spatial.Vec3{X: 1}, 100)
	out := make([]RaycastHit, 4)
	n := w.Raycast(q, out)
	assert.Zero(t, n)
}

// S3 Closest hit.
func TestS3RaycastClosestHit(t *testing.T) {
	w := newTestWorld(t, spatial.KindDBVTBP)
	_, err := w.AddSphere(spatial.Vec3{X: 10, Y: 0, Z: 0}, 1, 0, 0)
	require.NoError(t, err)
	_, err = w.AddSphere(spatial.Vec3{X: 5, Y: 0, Z: 0}, 1, 0, 0)
	require.NoError(t, err)
	seedFiller(t, w, 2)

	q := NewRayQuery(spatial.Vec3{}, spatial.Vec3{X: 1}, 100)
	out := make([]RaycastHit, 4)
	n := w.Raycast(q, out)

	require.GreaterOrEqual(t, n, 1)
	assert.Equal(t, uint32(1), out[0].Index, "nearest hit must be the sphere at (5,0,0)")
	assert.InDelta(t, 4.0, out[0].Distance, 0.01)
}

// S4 Sphere overlap.
func TestS4SphereOverlap(t *testing.T) {
	w := newTestWorld(t, spatial.KindDBVTBP)
	seedFiller(t, w, 2)
	_, err := w.AddSphere(spatial.Vec3{}, 1, 0, 0)
	require.NoError(t, err)

	q := NewSphereOverlapQuery(spatial.Vec3{X: 2}, 1)
	out := make([]uint32, 4)
	n := w.SphereOverlap(q, out)
	assert.Equal(t, 1, n, "tangent spheres must count as overlapping")
}

// S5 Capsule sweep start-in-contact.
func TestS5CapsuleSweepStartInContact(t *testing.T) {
	w := newTestWorld(t, spatial.KindDBVTBP)
	_, err := w.AddSphere(spatial.Vec3{}, 2, 0, 0)
	require.NoError(t, err)
	seedFiller(t, w, 2)

	q := NewCapsuleSweepQuery(spatial.Vec3{}, spatial.Vec3{X: 5}, 0.5)
	out := make([]CapsuleSweepHit, 4)
	n := w.CapsuleSweep(q, out)

	require.Equal(t, 1, n)
	assert.Equal(t, uint32(0), out[0].Index)
	assert.InDelta(t, 0.0, out[0].TOI, 1e-6)
}

// S6 Mask filter.
func TestS6MaskFilter(t *testing.T) {
	w := newTestWorld(t, spatial.KindDBVTBP)
	seedFiller(t, w, 2)
	_, err := w.AddSphere(spatial.Vec3{}, 2, 0x01, 0)
	require.NoError(t, err)
	_, err = w.AddSphere(spatial.Vec3{}, 2, 0x02, 0)
	require.NoError(t, err)

	out := make([]uint32, 4)

	q1 := PointQuery{Point: spatial.Vec3{}, IncludeMask: 0x01}
	assert.Equal(t, 1, w.PointQuery(q1, out))

	q2 := PointQuery{Point: spatial.Vec3{}, IncludeMask: 0x02}
	assert.Equal(t, 1, w.PointQuery(q2, out))

	q3 := PointQuery{Point: spatial.Vec3{}, IncludeMask: AllMask, ExcludeMask: 0x01}
	assert.Equal(t, 1, w.PointQuery(q3, out))
}

// S7 Fat-AABB no-op: verified directly against the DBVT, since it is the
// only index with a fat-AABB concept to keep stable.
func TestS7FatAABBNoOp(t *testing.T) {
	dbvt := spatial.NewDBVT(0.1, 0, nil)
	oldAABB := spatial.AABB{Min: spatial.Vec3{X: -1, Y: -1, Z: -1}, Max: spatial.Vec3{X: 1, Y: 1, Z: 1}}
	dbvt.Add(0, oldAABB)

	newAABB := spatial.AABB{Min: spatial.Vec3{X: -1.05, Y: -1, Z: -1}, Max: spatial.Vec3{X: 0.95, Y: 1, Z: 1}}
	dbvt.Update(0, oldAABB, newAABB)

	out := make([]uint32, 1)
	n := dbvt.Query(newAABB, out, []spatial.AABB{newAABB})
	require.Equal(t, 1, n)
	assert.Equal(t, uint32(0), out[0])
}

func TestAddRemoveUpdateLifecycle(t *testing.T) {
	w := newTestWorld(t, spatial.KindOctreeBP)
	h, err := w.AddSphere(spatial.Vec3{X: 1}, 1, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, w.Count())

	require.NoError(t, w.UpdateSphere(h, spatial.Vec3{X: 50}, 1))
	out := make([]uint32, 1)
	assert.Equal(t, 1, w.SphereOverlap(NewSphereOverlapQuery(spatial.Vec3{X: 50}, 1), out))

	assert.True(t, w.Remove(h))
	assert.Zero(t, w.Count())
	assert.False(t, w.Remove(h), "double-remove must report false")
}

// TestBVHCacheWiredThroughFacade checks that a World built with the BVH
// kind answers queries through the bvhcache layer (not a bare *spatial.BVH)
// and stays correct across a mutation that must invalidate it.
func TestBVHCacheWiredThroughFacade(t *testing.T) {
	cfg := spatial.DefaultConfig()
	cfg.BroadPhaseKind = spatial.KindBVHBP
	cfg.BruteForceThreshold = 1
	cfg.BVHCacheEntries = 64
	w, err := NewWorld(cfg, nil, nil)
	require.NoError(t, err)
	_, cached := w.bp.(*bvhcache.Cache)
	require.True(t, cached, "BVH kind with BVHCacheEntries > 0 must query through bvhcache.Cache")

	seedFiller(t, w, 2)
	h, err := w.AddSphere(spatial.Vec3{X: 5}, 1, 0, 0)
	require.NoError(t, err)

	out := make([]uint32, 1)
	q := NewSphereOverlapQuery(spatial.Vec3{X: 5}, 1)
	require.Equal(t, 1, w.SphereOverlap(q, out))

	require.NoError(t, w.UpdateSphere(h, spatial.Vec3{X: 500}, 1))
	assert.Zero(t, w.SphereOverlap(q, out), "cached result at the sphere's old position must not survive an Update")
}

func TestInsertFailsAtCapacity(t *testing.T) {
	cfg := spatial.DefaultConfig()
	cfg.BroadPhaseKind = spatial.KindSpatialHashBP
	cfg.MaxShapes = 1
	w, err := NewWorld(cfg, nil, nil)
	require.NoError(t, err)

	_, err = w.AddSphere(spatial.Vec3{}, 1, 0, 0)
	require.NoError(t, err)

	_, err = w.AddSphere(spatial.Vec3{X: 10}, 1, 0, 0)
	assert.Error(t, err)
}
