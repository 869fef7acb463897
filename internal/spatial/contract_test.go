package spatial

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allKinds = []BroadPhaseKind{
	KindSpatialHashBP,
	KindGridSAP,
	KindMBP,
	KindOctreeBP,
	KindBVHBP,
	KindDBVTBP,
}

func testConfig(kind BroadPhaseKind) Config {
	cfg := DefaultConfig()
	cfg.BroadPhaseKind = kind
	cfg.BruteForceThreshold = 4 // force most of these small fixtures through the real index, not the fallback
	return cfg
}

func newPopulated(t *testing.T, kind BroadPhaseKind, boxes []AABB) (BroadPhase, *Registry) {
	t.Helper()
	bp, err := New(kind, testConfig(kind), nil)
	require.NoError(t, err)

	reg := NewRegistry()
	for _, b := range boxes {
		h := reg.Add(KindBox, ShapeParams{Center: b.Center(), HalfExtents: b.Size().Scale(0.5)}, 0xFFFFFFFF, 0)
		bp.Add(h.Index, b)
	}
	return bp, reg
}

func box(cx, cy, cz, hx, hy, hz float32) AABB {
	c := Vec3{cx, cy, cz}
	h := Vec3{hx, hy, hz}
	return AABB{Min: c.Sub(h), Max: c.Add(h)}
}

// randomBoxes scatters n small boxes across a bounded region, deterministic
// given seed so every BroadPhaseKind sees the identical fixture.
func randomBoxes(seed int64, n int) []AABB {
	r := rand.New(rand.NewSource(seed))
	out := make([]AABB, n)
	for i := range out {
		cx := r.Float32()*400 - 200
		cy := r.Float32()*400 - 200
		cz := r.Float32()*400 - 200
		out[i] = box(cx, cy, cz, 1, 1, 1)
	}
	return out
}

// TestCompleteness checks that every shape genuinely overlapping a query
// region is returned, for every BroadPhaseKind.
func TestCompleteness(t *testing.T) {
	boxes := randomBoxes(1, 200)
	q := box(0, 0, 0, 50, 50, 50)

	var want []uint32
	for i, b := range boxes {
		if b.Intersects(q) {
			want = append(want, uint32(i))
		}
	}

	for _, kind := range allKinds {
		t.Run(string(kind), func(t *testing.T) {
			bp, _ := newPopulated(t, kind, boxes)
			out := make([]uint32, len(boxes))
			n := bp.Query(q, out, boxes)
			assert.ElementsMatch(t, want, out[:n], "kind %s must not miss any true overlap", kind)
		})
	}
}

// TestNoFalsePositives checks that every candidate a BroadPhase returns
// truly intersects the query box against the registry's AABBs.
func TestNoFalsePositives(t *testing.T) {
	boxes := randomBoxes(2, 150)
	q := box(50, 0, -30, 40, 400, 40)

	for _, kind := range allKinds {
		t.Run(string(kind), func(t *testing.T) {
			bp, _ := newPopulated(t, kind, boxes)
			out := make([]uint32, len(boxes))
			n := bp.Query(q, out, boxes)
			for _, i := range out[:n] {
				assert.True(t, boxes[i].Intersects(q), "kind %s returned non-overlapping candidate %d", kind, i)
			}
		})
	}
}

// TestNoDuplicates checks that a single query never returns the same index
// twice, even though several acceleration structures visit a shape from
// more than one cell/zone/node.
func TestNoDuplicates(t *testing.T) {
	boxes := randomBoxes(3, 120)
	q := box(0, 0, 0, 300, 300, 300)

	for _, kind := range allKinds {
		t.Run(string(kind), func(t *testing.T) {
			bp, _ := newPopulated(t, kind, boxes)
			out := make([]uint32, len(boxes))
			n := bp.Query(q, out, boxes)
			seen := make(map[uint32]bool, n)
			for _, i := range out[:n] {
				assert.False(t, seen[i], "kind %s duplicated index %d", kind, i)
				seen[i] = true
			}
		})
	}
}

// TestEmptyQueryReturnsEmpty checks a query region touching nothing yields
// zero candidates.
func TestEmptyQueryReturnsEmpty(t *testing.T) {
	boxes := randomBoxes(4, 80)
	q := box(100000, 100000, 100000, 1, 1, 1)

	for _, kind := range allKinds {
		t.Run(string(kind), func(t *testing.T) {
			bp, _ := newPopulated(t, kind, boxes)
			out := make([]uint32, 8)
			n := bp.Query(q, out, boxes)
			assert.Zero(t, n, "kind %s", kind)
		})
	}
}

// TestRemoveExcludesFromFutureQueries checks that a removed shape never
// appears in a subsequent query, even one that spatially covers its old
// position.
func TestRemoveExcludesFromFutureQueries(t *testing.T) {
	boxes := randomBoxes(5, 100)
	q := box(0, 0, 0, 300, 300, 300)

	for _, kind := range allKinds {
		t.Run(string(kind), func(t *testing.T) {
			bp, _ := newPopulated(t, kind, boxes)
			removed := uint32(7)
			ok := bp.Remove(removed)
			require.True(t, ok)

			out := make([]uint32, len(boxes))
			n := bp.Query(q, out, boxes)
			assert.NotContains(t, out[:n], removed, "kind %s", kind)
			assert.Equal(t, len(boxes)-1, bp.Count(), "kind %s", kind)
		})
	}
}

// TestUpdateMovesVisibility checks that moving a shape out of one query
// region and into another is reflected by the next query, for every kind.
func TestUpdateMovesVisibility(t *testing.T) {
	for _, kind := range allKinds {
		t.Run(string(kind), func(t *testing.T) {
			bp, err := New(kind, testConfig(kind), nil)
			require.NoError(t, err)

			oldBox := box(-500, 0, -500, 1, 1, 1)
			newBox := box(500, 0, 500, 1, 1, 1)
			bp.Add(0, oldBox)

			here := box(-500, 0, -500, 5, 5, 5)
			there := box(500, 0, 500, 5, 5, 5)
			allAABBs := []AABB{oldBox}

			out := make([]uint32, 1)
			assert.Equal(t, 1, bp.Query(here, out, allAABBs))
			assert.Equal(t, 0, bp.Query(there, out, allAABBs))

			bp.Update(0, oldBox, newBox)
			allAABBs = []AABB{newBox}

			assert.Equal(t, 0, bp.Query(here, out, allAABBs), "kind %s", kind)
			assert.Equal(t, 1, bp.Query(there, out, allAABBs), "kind %s", kind)
		})
	}
}

// TestClearEmptiesEverything checks Clear drops every registration.
func TestClearEmptiesEverything(t *testing.T) {
	boxes := randomBoxes(6, 50)
	q := box(0, 0, 0, 1000, 1000, 1000)

	for _, kind := range allKinds {
		t.Run(string(kind), func(t *testing.T) {
			bp, _ := newPopulated(t, kind, boxes)
			bp.Clear()
			assert.Zero(t, bp.Count(), "kind %s", kind)

			out := make([]uint32, len(boxes))
			n := bp.Query(q, out, boxes)
			assert.Zero(t, n, "kind %s", kind)
		})
	}
}

// TestBruteForceFallbackAgreesWithAcceleratedPath checks that the same
// population returns the same answer when queried through the brute-force
// fallback (threshold above the population) and through the acceleration
// structure (threshold below it), for every kind.
func TestBruteForceFallbackAgreesWithAcceleratedPath(t *testing.T) {
	boxes := randomBoxes(7, 64)
	q := box(0, 0, 0, 200, 200, 200)

	for _, kind := range allKinds {
		t.Run(string(kind), func(t *testing.T) {
			cfg := testConfig(kind)
			cfg.BruteForceThreshold = 1000 // every query below goes through brute force
			bpBrute, err := New(kind, cfg, nil)
			require.NoError(t, err)
			for i, b := range boxes {
				bpBrute.Add(uint32(i), b)
			}

			cfgAccel := testConfig(kind)
			cfgAccel.BruteForceThreshold = 1
			bpAccel, err := New(kind, cfgAccel, nil)
			require.NoError(t, err)
			for i, b := range boxes {
				bpAccel.Add(uint32(i), b)
			}

			outBrute := make([]uint32, len(boxes))
			outAccel := make([]uint32, len(boxes))
			nBrute := bpBrute.Query(q, outBrute, boxes)
			nAccel := bpAccel.Query(q, outAccel, boxes)
			assert.ElementsMatch(t, outBrute[:nBrute], outAccel[:nAccel], "kind %s", kind)
		})
	}
}

func TestRegistryStaleHandle(t *testing.T) {
	reg := NewRegistry()
	h := reg.Add(KindSphere, ShapeParams{Center: Vec3{}, Radius: 1}, 1, 0)
	require.True(t, reg.Remove(h))

	_, _, _, _, _, err := reg.Get(h)
	require.Error(t, err)
	var spatialErr *SpatialError
	require.ErrorAs(t, err, &spatialErr)
	assert.Equal(t, ErrStaleHandle, spatialErr.Type)
}

func TestRegistryHandleRecycling(t *testing.T) {
	reg := NewRegistry()
	h1 := reg.Add(KindSphere, ShapeParams{Radius: 1}, 1, 0)
	require.True(t, reg.Remove(h1))

	h2 := reg.Add(KindSphere, ShapeParams{Radius: 2}, 1, 0)
	assert.Equal(t, h1.Index, h2.Index, "freed slot should be recycled")
	assert.NotEqual(t, h1.Generation, h2.Generation, "generation must bump on recycle")

	_, _, _, _, _, err := reg.Get(h1)
	assert.Error(t, err, "stale handle must not resolve to the recycled slot")
}
