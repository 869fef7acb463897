// Package bvhcache layers a ristretto-backed result cache above a *spatial.BVH.
// It never sits inside BVH.Query: a cache hit only ever returns a previously
// computed result for the identical (generation, query bounds, output buffer
// length) tuple, so it cannot change what a query would otherwise have
// returned.
package bvhcache

import (
	"fmt"

	"github.com/dgraph-io/ristretto"

	"github.com/arxos/broadphase/internal/spatial"
)

type cachedResult struct {
	candidates []uint32
}

// Cache wraps a *spatial.BVH, skipping repeated query work when neither the
// tree's generation nor the query bounds changed since the last call.
type Cache struct {
	bvh *spatial.BVH
	rc  *ristretto.Cache
}

// New builds a Cache over bvh with the given maximum number of cached
// entries (approximated via ristretto's cost-based eviction).
func New(bvh *spatial.BVH, maxEntries int64) (*Cache, error) {
	rc, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxEntries * 10,
		MaxCost:     maxEntries,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &Cache{bvh: bvh, rc: rc}, nil
}

// cacheKey includes len(out): BVH.Query truncates its result to fit the
// caller's output buffer, so a cached result computed for a smaller buffer
// is not a valid answer for a later call with a larger one at the same
// generation and bounds. Keying on buffer length keeps each cached entry
// valid only for callers that would have produced the identical truncation.
func cacheKey(gen uint64, q spatial.AABB, outLen int) string {
	return fmt.Sprintf("%d|%v|%v|%d", gen, q.Min, q.Max, outLen)
}

// Query behaves exactly like BVH.Query, but answers from cache when the
// tree hasn't mutated since an identical query (same bounds and output
// buffer length) was last issued.
func (c *Cache) Query(q spatial.AABB, out []uint32, allAABBs []spatial.AABB) int {
	key := cacheKey(c.bvh.Generation(), q, len(out))
	if v, ok := c.rc.Get(key); ok {
		cached := v.(cachedResult)
		return copy(out, cached.candidates)
	}

	n := c.bvh.Query(q, out, allAABBs)
	stored := make([]uint32, n)
	copy(stored, out[:n])
	c.rc.Set(key, cachedResult{candidates: stored}, int64(n)+1)
	return n
}

// Add, Remove, Update, Clear, and Count delegate straight to the wrapped
// BVH, so *Cache itself satisfies spatial.BroadPhase and can stand in for
// a bare *spatial.BVH anywhere one is expected.
func (c *Cache) Add(i uint32, aabb spatial.AABB) { c.bvh.Add(i, aabb) }
func (c *Cache) Remove(i uint32) bool            { return c.bvh.Remove(i) }
func (c *Cache) Update(i uint32, oldAABB, newAABB spatial.AABB) {
	c.bvh.Update(i, oldAABB, newAABB)
}
func (c *Cache) Clear()     { c.bvh.Clear() }
func (c *Cache) Count() int { return c.bvh.Count() }

// Close releases the underlying ristretto cache's background goroutines.
func (c *Cache) Close() { c.rc.Close() }
