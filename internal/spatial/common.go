package spatial

// DefaultBruteForceThreshold is the population size at/below which every
// broad-phase implementation iterates its active index set directly
// instead of consulting its acceleration structure. It is simultaneously
// an optimization for small worlds and a safety net: a broken index would
// otherwise silently miss candidates, but below the threshold correctness
// is unconditional.
const DefaultBruteForceThreshold = 32

// cellBias embeds negative coordinates into a 21-bit unsigned lane.
const cellBias = 1 << 20

// packCellKey packs three signed cell coordinates into a single 64-bit key,
// each axis biased by 2^20 into a 21-bit lane, most significant bit first:
// [pad:1][x:21][y:21][z:21].
// This layout is load-bearing: every broad-phase that hashes cell
// coordinates must use it, or cross-structure dedup assumptions break.
func packCellKey(x, y, z int32) uint64 {
	ux := uint64(x+cellBias) & 0x1FFFFF
	uy := uint64(y+cellBias) & 0x1FFFFF
	uz := uint64(z+cellBias) & 0x1FFFFF
	return ux<<42 | uy<<21 | uz
}

// splitmix64 is a fast integer hash used to scatter packed cell keys across
// a fixed-size bucket table.
func splitmix64(x uint64) uint64 {
	x += 0x9E3779B97F4A7C15
	x = (x ^ (x >> 30)) * 0xBF58476D1CE4E5B9
	x = (x ^ (x >> 27)) * 0x94D049BB133111EB
	x = x ^ (x >> 31)
	return x
}

// nextPow2 returns the smallest power of two >= n (minimum 1).
func nextPow2(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// marker implements O(1) query-scoped deduplication via a rolling integer
// stamped into a per-index array, per spec: no hash set, no heap traffic
// after warm-up, reset only on 32-bit wraparound.
type marker struct {
	stamps []uint32
	id     uint32
}

// next advances the rolling id, clearing stamps on wraparound, and returns
// the id candidates must be compared against this query.
func (m *marker) next() uint32 {
	m.id++
	if m.id == 0 {
		for i := range m.stamps {
			m.stamps[i] = 0
		}
		m.id = 1
	}
	return m.id
}

// seen reports whether index i has already been stamped with id during the
// current query, stamping it if not.
func (m *marker) seen(i uint32, id uint32) bool {
	for uint32(len(m.stamps)) <= i {
		m.stamps = append(m.stamps, 0)
	}
	if m.stamps[i] == id {
		return true
	}
	m.stamps[i] = id
	return false
}

// indexSet tracks which shape indices are currently registered with a
// broad-phase implementation, so it can enumerate them directly for the
// brute-force fallback without consulting the registry (which may be
// ahead of or behind this index mid-mutation).
type indexSet struct {
	present []bool
	members []uint32
	count   int
	metrics *Metrics
}

func (s *indexSet) add(i uint32) {
	for uint32(len(s.present)) <= i {
		s.present = append(s.present, false)
	}
	if s.present[i] {
		return
	}
	s.present[i] = true
	s.members = append(s.members, i)
	s.count++
}

func (s *indexSet) remove(i uint32) bool {
	if int(i) >= len(s.present) || !s.present[i] {
		return false
	}
	s.present[i] = false
	for idx, m := range s.members {
		if m == i {
			last := len(s.members) - 1
			s.members[idx] = s.members[last]
			s.members = s.members[:last]
			break
		}
	}
	s.count--
	return true
}

func (s *indexSet) clear() {
	s.present = s.present[:0]
	s.members = s.members[:0]
	s.count = 0
}

// bruteForce appends every tracked index whose registry AABB intersects q
// to out, stopping when out is full. Returns the new length of out.
func (s *indexSet) bruteForce(q AABB, out []uint32, n int, allAABBs []AABB) int {
	s.metrics.IncBruteForceFallback()
	for _, i := range s.members {
		if n >= len(out) {
			break
		}
		if int(i) < len(allAABBs) && allAABBs[i].Intersects(q) {
			out[n] = i
			n++
		}
	}
	return n
}
