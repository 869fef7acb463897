package spatial

import "sort"

// defaultMaxZonesPerShape bounds how many zones a single shape may be
// inserted into before it is treated as a large object and bypasses zone
// insertion entirely, to avoid a mountain-sized object polluting thousands
// of zones.
const defaultMaxZonesPerShape = 64

// maxSAPQueryZones bounds how many zones a single query may visit before
// Grid+SAP falls back to brute force.
const maxSAPQueryZones = 2048

// sapEntry is one shape's record within a zone's Sweep-and-Prune list,
// sorted by MinP (the primary-axis minimum).
type sapEntry struct {
	index              uint32
	MinP, MaxP         float32
	MinS, MaxS         float32 // secondary axis, used only in AxisXZ mode
}

// sapZone is one zone's Sweep-and-Prune structure.
type sapZone struct {
	entries []sapEntry
	lookup  map[uint32]int // shape index -> position in entries
}

func newSAPZone() *sapZone {
	return &sapZone{lookup: make(map[uint32]int)}
}

func (z *sapZone) primary(aabb AABB, axis AxisMode) (minP, maxP, minS, maxS float32) {
	switch axis {
	case AxisZ:
		return aabb.Min.Z, aabb.Max.Z, aabb.Min.X, aabb.Max.X
	default: // AxisX and AxisXZ both sweep X primarily
		return aabb.Min.X, aabb.Max.X, aabb.Min.Z, aabb.Max.Z
	}
}

func (z *sapZone) insert(i uint32, aabb AABB, axis AxisMode) {
	minP, maxP, minS, maxS := z.primary(aabb, axis)
	e := sapEntry{index: i, MinP: minP, MaxP: maxP, MinS: minS, MaxS: maxS}

	pos := sort.Search(len(z.entries), func(k int) bool { return z.entries[k].MinP >= minP })
	z.entries = append(z.entries, sapEntry{})
	copy(z.entries[pos+1:], z.entries[pos:])
	z.entries[pos] = e

	for k := pos; k < len(z.entries); k++ {
		z.lookup[z.entries[k].index] = k
	}
}

func (z *sapZone) remove(i uint32) bool {
	pos, ok := z.lookup[i]
	if !ok {
		return false
	}
	copy(z.entries[pos:], z.entries[pos+1:])
	z.entries = z.entries[:len(z.entries)-1]
	delete(z.lookup, i)
	for k := pos; k < len(z.entries); k++ {
		z.lookup[z.entries[k].index] = k
	}
	return true
}

// update repositions i's entry and repairs sort order by insertion-sort:
// shifting the entry left or right one step at a time while a neighbour's
// MinP violates order. This is O(1) amortised for small (physics-like)
// motion and O(n) worst case.
func (z *sapZone) update(i uint32, aabb AABB, axis AxisMode) bool {
	pos, ok := z.lookup[i]
	if !ok {
		return false
	}
	minP, maxP, minS, maxS := z.primary(aabb, axis)
	z.entries[pos].MinP = minP
	z.entries[pos].MaxP = maxP
	z.entries[pos].MinS = minS
	z.entries[pos].MaxS = maxS

	for pos > 0 && z.entries[pos-1].MinP > z.entries[pos].MinP {
		z.entries[pos-1], z.entries[pos] = z.entries[pos], z.entries[pos-1]
		z.lookup[z.entries[pos].index] = pos
		z.lookup[z.entries[pos-1].index] = pos - 1
		pos--
	}
	for pos < len(z.entries)-1 && z.entries[pos+1].MinP < z.entries[pos].MinP {
		z.entries[pos+1], z.entries[pos] = z.entries[pos], z.entries[pos+1]
		z.lookup[z.entries[pos].index] = pos
		z.lookup[z.entries[pos+1].index] = pos + 1
		pos++
	}
	return true
}

// query appends candidates whose primary interval overlaps [minP,maxP] (and
// whose secondary interval overlaps [minS,maxS] when axis is AxisXZ) by
// scanning from the start of the sorted-by-MinP list and stopping as soon
// as an entry's MinP exceeds the window — the exit bound spec calls for;
// entries that started before the window but still extend into it (large
// MaxP) are still visited because the scan begins at zero.
func (z *sapZone) query(minP, maxP, minS, maxS float32, axis AxisMode, emit func(uint32)) {
	for _, e := range z.entries {
		if e.MinP > maxP {
			break
		}
		if e.MaxP < minP {
			continue
		}
		if axis == AxisXZ {
			if e.MaxS < minS || e.MinS > maxS {
				continue
			}
		}
		emit(e.index)
	}
}

// GridSAP is the Grid + SAP ("Zone Sweep") broad phase: space is
// partitioned into zones by gridSize, each zone owning an independent
// Sweep-and-Prune structure.
type GridSAP struct {
	gridSize  float32
	axis      AxisMode
	zones     map[uint64]*sapZone
	shapeZones map[uint32][]uint64
	large     indexSet // shapes whose span exceeds maxZonesPerShape
	present   indexSet
	dedup     marker
	threshold int
	maxZonesPerShape int
}

// NewGridSAP constructs a grid+SAP broad phase. metrics may be nil.
func NewGridSAP(gridSize float32, axis AxisMode, threshold int, metrics *Metrics) *GridSAP {
	return &GridSAP{
		gridSize:         gridSize,
		axis:             axis,
		zones:            make(map[uint64]*sapZone),
		shapeZones:       make(map[uint32][]uint64),
		threshold:        threshold,
		maxZonesPerShape: defaultMaxZonesPerShape,
		present:          indexSet{metrics: metrics},
	}
}

func (g *GridSAP) zoneCoord(v float32) int32 {
	c := v / g.gridSize
	ic := int32(c)
	if c < 0 && float32(ic) != c {
		ic--
	}
	return ic
}

func (g *GridSAP) zoneKeys(aabb AABB) []uint64 {
	minX, maxX := g.zoneCoord(aabb.Min.X), g.zoneCoord(aabb.Max.X)
	minZ, maxZ := g.zoneCoord(aabb.Min.Z), g.zoneCoord(aabb.Max.Z)
	keys := make([]uint64, 0, (maxX-minX+1)*(maxZ-minZ+1))
	for x := minX; x <= maxX; x++ {
		for z := minZ; z <= maxZ; z++ {
			keys = append(keys, packCellKey(x, 0, z))
		}
	}
	return keys
}

func (g *GridSAP) zoneFor(key uint64) *sapZone {
	z, ok := g.zones[key]
	if !ok {
		z = newSAPZone()
		g.zones[key] = z
	}
	return z
}

func (g *GridSAP) Add(i uint32, aabb AABB) {
	keys := g.zoneKeys(aabb)
	if len(keys) > g.maxZonesPerShape {
		g.large.add(i)
		g.present.add(i)
		return
	}
	for _, key := range keys {
		g.zoneFor(key).insert(i, aabb, g.axis)
	}
	g.shapeZones[i] = keys
	g.present.add(i)
}

func (g *GridSAP) Remove(i uint32) bool {
	if g.large.present != nil && i < uint32(len(g.large.present)) && g.large.present[i] {
		g.large.remove(i)
		g.present.remove(i)
		return true
	}
	keys, ok := g.shapeZones[i]
	if !ok {
		return false
	}
	for _, key := range keys {
		if z, ok := g.zones[key]; ok {
			z.remove(i)
		}
	}
	delete(g.shapeZones, i)
	g.present.remove(i)
	return true
}

func (g *GridSAP) Update(i uint32, oldAABB, newAABB AABB) {
	if g.large.present != nil && i < uint32(len(g.large.present)) && g.large.present[i] {
		return // large objects carry no per-zone state to refresh
	}
	newKeys := g.zoneKeys(newAABB)
	if len(newKeys) > g.maxZonesPerShape {
		g.Remove(i)
		g.Add(i, newAABB)
		return
	}
	oldKeys := g.shapeZones[i]
	if sameKeySet(oldKeys, newKeys) {
		for _, key := range oldKeys {
			g.zoneFor(key).update(i, newAABB, g.axis)
		}
		return
	}
	g.Remove(i)
	g.Add(i, newAABB)
}

func (g *GridSAP) Query(q AABB, out []uint32, allAABBs []AABB) int {
	if g.present.count <= g.threshold {
		return g.present.bruteForce(q, out, 0, allAABBs)
	}

	keys := g.zoneKeys(q)
	if len(keys) > maxSAPQueryZones {
		return g.present.bruteForce(q, out, 0, allAABBs)
	}

	id := g.dedup.next()
	n := 0

	emit := func(i uint32) {
		if n >= len(out) || g.dedup.seen(i, id) {
			return
		}
		if int(i) < len(allAABBs) && allAABBs[i].Intersects(q) {
			out[n] = i
			n++
		}
	}

	var minP, maxP, minS, maxS float32
	switch g.axis {
	case AxisZ:
		minP, maxP, minS, maxS = q.Min.Z, q.Max.Z, q.Min.X, q.Max.X
	default:
		minP, maxP, minS, maxS = q.Min.X, q.Max.X, q.Min.Z, q.Max.Z
	}

	for _, key := range keys {
		if z, ok := g.zones[key]; ok {
			z.query(minP, maxP, minS, maxS, g.axis, emit)
		}
	}
	for _, i := range g.large.members {
		emit(i)
	}
	return n
}

func (g *GridSAP) Clear() {
	g.zones = make(map[uint64]*sapZone)
	g.shapeZones = make(map[uint32][]uint64)
	g.large.clear()
	g.present.clear()
}

func (g *GridSAP) Count() int { return g.present.count }
