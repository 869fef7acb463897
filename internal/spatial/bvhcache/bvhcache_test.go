package bvhcache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arxos/broadphase/internal/spatial"
)

func TestCacheHitMatchesLiveQuery(t *testing.T) {
	bvh := spatial.NewBVH(true, 0, nil)
	aabbs := []spatial.AABB{
		{Min: spatial.Vec3{X: -1, Y: -1, Z: -1}, Max: spatial.Vec3{X: 1, Y: 1, Z: 1}},
		{Min: spatial.Vec3{X: 9, Y: -1, Z: -1}, Max: spatial.Vec3{X: 11, Y: 1, Z: 1}},
	}
	for i, b := range aabbs {
		bvh.Add(uint32(i), b)
	}

	c, err := New(bvh, 1000)
	require.NoError(t, err)
	defer c.Close()

	q := spatial.AABB{Min: spatial.Vec3{X: -5, Y: -5, Z: -5}, Max: spatial.Vec3{X: 5, Y: 5, Z: 5}}
	out1 := make([]uint32, 2)
	n1 := c.Query(q, out1, aabbs)

	out2 := make([]uint32, 2)
	n2 := c.Query(q, out2, aabbs)

	assert.Equal(t, n1, n2)
	assert.ElementsMatch(t, out1[:n1], out2[:n2])
}

func TestCacheInvalidatesOnMutation(t *testing.T) {
	bvh := spatial.NewBVH(true, 0, nil)
	aabb := spatial.AABB{Min: spatial.Vec3{X: -1, Y: -1, Z: -1}, Max: spatial.Vec3{X: 1, Y: 1, Z: 1}}
	bvh.Add(0, aabb)

	c, err := New(bvh, 1000)
	require.NoError(t, err)
	defer c.Close()

	q := spatial.AABB{Min: spatial.Vec3{X: -5, Y: -5, Z: -5}, Max: spatial.Vec3{X: 5, Y: 5, Z: 5}}
	out := make([]uint32, 1)
	n := c.Query(q, out, []spatial.AABB{aabb})
	require.Equal(t, 1, n)

	moved := spatial.AABB{Min: spatial.Vec3{X: 99, Y: 99, Z: 99}, Max: spatial.Vec3{X: 101, Y: 101, Z: 101}}
	bvh.Update(0, aabb, moved)

	n = c.Query(q, out, []spatial.AABB{moved})
	assert.Zero(t, n, "cache must not serve a stale result after mutation bumped the generation")
}

// TestCacheKeyVariesWithBufferSize guards against a cache entry computed
// for a small output buffer being replayed for a later call with a larger
// one at the same generation and bounds, which would silently truncate a
// result that should no longer be truncated.
func TestCacheKeyVariesWithBufferSize(t *testing.T) {
	bvh := spatial.NewBVH(true, 0, nil)
	aabbs := []spatial.AABB{
		{Min: spatial.Vec3{X: -1, Y: -1, Z: -1}, Max: spatial.Vec3{X: 1, Y: 1, Z: 1}},
		{Min: spatial.Vec3{X: 4, Y: -1, Z: -1}, Max: spatial.Vec3{X: 6, Y: 1, Z: 1}},
		{Min: spatial.Vec3{X: 9, Y: -1, Z: -1}, Max: spatial.Vec3{X: 11, Y: 1, Z: 1}},
	}
	for i, b := range aabbs {
		bvh.Add(uint32(i), b)
	}

	c, err := New(bvh, 1000)
	require.NoError(t, err)
	defer c.Close()

	q := spatial.AABB{Min: spatial.Vec3{X: -5, Y: -5, Z: -5}, Max: spatial.Vec3{X: 15, Y: 5, Z: 5}}

	small := make([]uint32, 1)
	nSmall := c.Query(q, small, aabbs)
	require.Equal(t, 1, nSmall, "small buffer truncates to its own capacity")

	large := make([]uint32, 3)
	nLarge := c.Query(q, large, aabbs)
	assert.Equal(t, 3, nLarge, "a larger buffer at the same generation/bounds must not replay the small buffer's truncated result")
}
