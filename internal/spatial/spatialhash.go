package spatial

// defaultHashCapacity is the requested bucket capacity when none is given;
// the table is sized to the next power of two at or above it.
const defaultHashCapacity = 1024

// maxHashQueryCells bounds how many cells a single query may walk before
// the spatial hash falls back to brute force. Without this cap a ray with
// a huge bounding AABB could sweep the entire table.
const maxHashQueryCells = 512

// SpatialHash is a fixed hash table of cells; each cell holds a dynamic
// array of shape indices. Insert spans the inclusive cell range of a
// shape's AABB and appends the shape index into every spanned cell's
// bucket, hashed by the packed cell key.
type SpatialHash struct {
	cellSize    float32
	buckets     [][]uint32
	mask        uint64 // len(buckets)-1, since len(buckets) is a power of two
	shapeCells  map[uint32][]uint64 // shape index -> packed cell keys it spans
	present     indexSet
	dedup       marker
	threshold   int
}

// NewSpatialHash constructs a spatial hash with the given cell size and
// brute-force threshold, using the default bucket capacity. metrics may be
// nil.
func NewSpatialHash(cellSize float32, threshold int, metrics *Metrics) *SpatialHash {
	return NewSpatialHashCapacity(cellSize, defaultHashCapacity, threshold, metrics)
}

// NewSpatialHashCapacity is NewSpatialHash with an explicit requested
// bucket capacity (rounded up to the next power of two).
func NewSpatialHashCapacity(cellSize float32, capacity, threshold int, metrics *Metrics) *SpatialHash {
	n := nextPow2(capacity)
	return &SpatialHash{
		cellSize:   cellSize,
		buckets:    make([][]uint32, n),
		mask:       uint64(n - 1),
		shapeCells: make(map[uint32][]uint64),
		threshold:  threshold,
		present:    indexSet{metrics: metrics},
	}
}

func (h *SpatialHash) cellCoord(v float32) int32 {
	// floor division for a float32 coordinate against a positive cell size.
	c := v / h.cellSize
	ic := int32(c)
	if c < 0 && float32(ic) != c {
		ic--
	}
	return ic
}

// cellRange returns the packed keys of every cell the AABB spans, and the
// total number of cells spanned (for the query-cap check).
func (h *SpatialHash) cellRange(aabb AABB) (keys []uint64, cellCount int) {
	minX, maxX := h.cellCoord(aabb.Min.X), h.cellCoord(aabb.Max.X)
	minY, maxY := h.cellCoord(aabb.Min.Y), h.cellCoord(aabb.Max.Y)
	minZ, maxZ := h.cellCoord(aabb.Min.Z), h.cellCoord(aabb.Max.Z)

	nx := int(maxX-minX) + 1
	ny := int(maxY-minY) + 1
	nz := int(maxZ-minZ) + 1
	cellCount = nx * ny * nz

	keys = make([]uint64, 0, cellCount)
	for x := minX; x <= maxX; x++ {
		for y := minY; y <= maxY; y++ {
			for z := minZ; z <= maxZ; z++ {
				keys = append(keys, packCellKey(x, y, z))
			}
		}
	}
	return keys, cellCount
}

func (h *SpatialHash) bucketFor(key uint64) uint64 {
	return splitmix64(key) & h.mask
}

func (h *SpatialHash) Add(i uint32, aabb AABB) {
	keys, _ := h.cellRange(aabb)
	for _, key := range keys {
		b := h.bucketFor(key)
		h.buckets[b] = append(h.buckets[b], i)
	}
	h.shapeCells[i] = keys
	h.present.add(i)
}

func (h *SpatialHash) Remove(i uint32) bool {
	keys, ok := h.shapeCells[i]
	if !ok {
		return false
	}
	for _, key := range keys {
		b := h.bucketFor(key)
		h.removeFromBucket(b, i)
	}
	delete(h.shapeCells, i)
	h.present.remove(i)
	return true
}

func (h *SpatialHash) removeFromBucket(b uint64, i uint32) {
	bucket := h.buckets[b]
	for idx, v := range bucket {
		if v == i {
			last := len(bucket) - 1
			bucket[idx] = bucket[last]
			h.buckets[b] = bucket[:last]
			return
		}
	}
}

func (h *SpatialHash) Update(i uint32, oldAABB, newAABB AABB) {
	newKeys, _ := h.cellRange(newAABB)
	oldKeys := h.shapeCells[i]
	if sameKeySet(oldKeys, newKeys) {
		return
	}
	h.Remove(i)
	h.Add(i, newAABB)
}

func sameKeySet(a, b []uint64) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[uint64]int, len(a))
	for _, k := range a {
		seen[k]++
	}
	for _, k := range b {
		seen[k]--
	}
	for _, c := range seen {
		if c != 0 {
			return false
		}
	}
	return true
}

func (h *SpatialHash) Query(q AABB, out []uint32, allAABBs []AABB) int {
	if h.present.count <= h.threshold {
		return h.present.bruteForce(q, out, 0, allAABBs)
	}

	keys, cellCount := h.cellRange(q)
	if cellCount > maxHashQueryCells {
		return h.present.bruteForce(q, out, 0, allAABBs)
	}

	id := h.dedup.next()
	n := 0
	for _, key := range keys {
		b := h.bucketFor(key)
		for _, i := range h.buckets[b] {
			if n >= len(out) {
				return n
			}
			if h.dedup.seen(i, id) {
				continue
			}
			if int(i) < len(allAABBs) && allAABBs[i].Intersects(q) {
				out[n] = i
				n++
			}
		}
	}
	return n
}

func (h *SpatialHash) Clear() {
	for i := range h.buckets {
		h.buckets[i] = h.buckets[i][:0]
	}
	h.shapeCells = make(map[uint32][]uint64)
	h.present.clear()
}

func (h *SpatialHash) Count() int { return h.present.count }
