package spatial

// mbpRegion stores its shapes' indices and X interval in parallel arrays,
// sorting deferred until the next query touches it.
type mbpRegion struct {
	indices  []uint32
	minX     []float32
	maxX     []float32
	isSorted bool
}

func (r *mbpRegion) insert(i uint32, minX, maxX float32) {
	r.indices = append(r.indices, i)
	r.minX = append(r.minX, minX)
	r.maxX = append(r.maxX, maxX)
	r.isSorted = false
}

func (r *mbpRegion) remove(i uint32) bool {
	for k, v := range r.indices {
		if v == i {
			last := len(r.indices) - 1
			r.indices[k] = r.indices[last]
			r.minX[k] = r.minX[last]
			r.maxX[k] = r.maxX[last]
			r.indices = r.indices[:last]
			r.minX = r.minX[:last]
			r.maxX = r.maxX[:last]
			r.isSorted = false
			return true
		}
	}
	return false
}

func (r *mbpRegion) ensureSorted() {
	if r.isSorted {
		return
	}
	// Insertion sort: efficient under local motion, matching the deferred-
	// sort amortisation strategy spec.md calls for.
	for i := 1; i < len(r.indices); i++ {
		mx, mn, idx := r.maxX[i], r.minX[i], r.indices[i]
		j := i - 1
		for j >= 0 && r.minX[j] > mn {
			r.minX[j+1] = r.minX[j]
			r.maxX[j+1] = r.maxX[j]
			r.indices[j+1] = r.indices[j]
			j--
		}
		r.minX[j+1] = mn
		r.maxX[j+1] = mx
		r.indices[j+1] = idx
	}
	r.isSorted = true
}

func (r *mbpRegion) query(minX, maxX float32, emit func(uint32)) {
	r.ensureSorted()
	for i, mn := range r.minX {
		if mn > maxX {
			break
		}
		if r.maxX[i] < minX {
			continue
		}
		emit(r.indices[i])
	}
}

// MBP is Multi-Box Pruning: a fixed 2-D grid of regions_x × regions_z
// regions covering a fixed world AABB, each holding a deferred-sort list
// of shapes whose XZ footprint overlaps it.
type MBP struct {
	worldBounds       AABB
	regionsX, regionsZ uint32
	cellW, cellD      float32
	regions           []mbpRegion
	outOfBounds       mbpRegion
	shapeRegions      map[uint32][]int // region index, or -1 for out-of-bounds
	present           indexSet
	dedup             marker
	threshold         int
}

// NewMBP constructs a multi-box-pruning broad phase. metrics may be nil.
func NewMBP(worldBounds AABB, regionsX, regionsZ uint32, threshold int, metrics *Metrics) *MBP {
	size := worldBounds.Size()
	m := &MBP{
		worldBounds: worldBounds,
		regionsX:    regionsX,
		regionsZ:    regionsZ,
		cellW:       size.X / float32(regionsX),
		cellD:       size.Z / float32(regionsZ),
		regions:     make([]mbpRegion, regionsX*regionsZ),
		shapeRegions: make(map[uint32][]int),
		threshold:   threshold,
		present:     indexSet{metrics: metrics},
	}
	return m
}

// regionRange clamps region indices to [0, regions-1] per spec's normative
// border handling: shapes straddling the world border land in the edge
// regions only, never extended beyond them.
func (m *MBP) regionRange(aabb AABB) (minRX, maxRX, minRZ, maxRZ int, inBounds bool) {
	if !m.worldBounds.Intersects(aabb) {
		return 0, 0, 0, 0, false
	}
	minRX = m.clampRegion(int((aabb.Min.X-m.worldBounds.Min.X)/m.cellW), int(m.regionsX))
	maxRX = m.clampRegion(int((aabb.Max.X-m.worldBounds.Min.X)/m.cellW), int(m.regionsX))
	minRZ = m.clampRegion(int((aabb.Min.Z-m.worldBounds.Min.Z)/m.cellD), int(m.regionsZ))
	maxRZ = m.clampRegion(int((aabb.Max.Z-m.worldBounds.Min.Z)/m.cellD), int(m.regionsZ))
	return minRX, maxRX, minRZ, maxRZ, true
}

func (m *MBP) clampRegion(r, n int) int {
	if r < 0 {
		return 0
	}
	if r >= n {
		return n - 1
	}
	return r
}

func (m *MBP) regionIndex(rx, rz int) int { return rz*int(m.regionsX) + rx }

func (m *MBP) Add(i uint32, aabb AABB) {
	minRX, maxRX, minRZ, maxRZ, inBounds := m.regionRange(aabb)
	if !inBounds {
		m.outOfBounds.insert(i, aabb.Min.X, aabb.Max.X)
		m.shapeRegions[i] = []int{-1}
		m.present.add(i)
		return
	}
	var touched []int
	for rx := minRX; rx <= maxRX; rx++ {
		for rz := minRZ; rz <= maxRZ; rz++ {
			ri := m.regionIndex(rx, rz)
			m.regions[ri].insert(i, aabb.Min.X, aabb.Max.X)
			touched = append(touched, ri)
		}
	}
	m.shapeRegions[i] = touched
	m.present.add(i)
}

func (m *MBP) Remove(i uint32) bool {
	regions, ok := m.shapeRegions[i]
	if !ok {
		return false
	}
	for _, ri := range regions {
		if ri == -1 {
			m.outOfBounds.remove(i)
		} else {
			m.regions[ri].remove(i)
		}
	}
	delete(m.shapeRegions, i)
	m.present.remove(i)
	return true
}

func (m *MBP) Update(i uint32, oldAABB, newAABB AABB) {
	m.Remove(i)
	m.Add(i, newAABB)
}

func (m *MBP) Query(q AABB, out []uint32, allAABBs []AABB) int {
	if m.present.count <= m.threshold {
		return m.present.bruteForce(q, out, 0, allAABBs)
	}

	id := m.dedup.next()
	n := 0
	emit := func(i uint32) {
		if n >= len(out) || m.dedup.seen(i, id) {
			return
		}
		if int(i) < len(allAABBs) && allAABBs[i].Intersects(q) {
			out[n] = i
			n++
		}
	}

	// The clamped region range is walked even when q misses the world
	// bounds: a shape straddling the border is stored only in edge regions,
	// and q may touch just the part of it that lies outside.
	minRX := m.clampRegion(int((q.Min.X-m.worldBounds.Min.X)/m.cellW), int(m.regionsX))
	maxRX := m.clampRegion(int((q.Max.X-m.worldBounds.Min.X)/m.cellW), int(m.regionsX))
	minRZ := m.clampRegion(int((q.Min.Z-m.worldBounds.Min.Z)/m.cellD), int(m.regionsZ))
	maxRZ := m.clampRegion(int((q.Max.Z-m.worldBounds.Min.Z)/m.cellD), int(m.regionsZ))
	for rx := minRX; rx <= maxRX; rx++ {
		for rz := minRZ; rz <= maxRZ; rz++ {
			m.regions[m.regionIndex(rx, rz)].query(q.Min.X, q.Max.X, emit)
		}
	}
	m.outOfBounds.query(q.Min.X, q.Max.X, emit)
	return n
}

func (m *MBP) Clear() {
	for i := range m.regions {
		m.regions[i] = mbpRegion{}
	}
	m.outOfBounds = mbpRegion{}
	m.shapeRegions = make(map[uint32][]int)
	m.present.clear()
}

func (m *MBP) Count() int { return m.present.count }
