package spatial

// Driver is the query front-end every broad-phase call goes through: it
// rotates its own query id for dedup (independent of whatever dedup an
// acceleration structure uses internally), collects candidates from the
// active BroadPhase into a scratch buffer, re-tests each one against the
// registry's live AABBs, and applies the caller's layer mask before
// writing to the caller's output slice.
type Driver struct {
	registry   *Registry
	broadPhase BroadPhase
	metrics    *Metrics

	scratch []uint32
	queryID uint32
	seen    marker
}

// NewDriver builds a Driver over registry using bp as the active
// acceleration structure. metrics may be nil.
func NewDriver(registry *Registry, bp BroadPhase, metrics *Metrics) *Driver {
	return &Driver{registry: registry, broadPhase: bp, metrics: metrics}
}

// SetBroadPhase swaps the active acceleration structure, e.g. when
// switching BroadPhaseKind at runtime. The caller is responsible for
// re-inserting every live shape into the replacement.
func (d *Driver) SetBroadPhase(bp BroadPhase) { d.broadPhase = bp }

// Add inserts a shape into the active broad phase.
func (d *Driver) Add(i uint32, aabb AABB) { d.broadPhase.Add(i, aabb) }

// Remove removes a shape from the active broad phase.
func (d *Driver) Remove(i uint32) bool { return d.broadPhase.Remove(i) }

// Update moves a shape within the active broad phase.
func (d *Driver) Update(i uint32, oldAABB, newAABB AABB) { d.broadPhase.Update(i, oldAABB, newAABB) }

// Query runs q against the active broad phase, performs the final per-
// candidate AABB test against the registry's live bounds itself — some
// indices (Grid+SAP's zones, DBVT's fattened leaves, Octree's node bounds)
// store a surrogate box rather than the shape's true AABB, so the driver
// cannot trust a candidate until it has checked the real box — then filters
// by layer mask (candidate passes when (mask&include)!=0 and
// (mask&exclude)==0), and writes survivors into out. Returns the number
// written. If out is too small to hold every candidate the scratch buffer
// surfaced, the result is truncated, never an error.
func (d *Driver) Query(q AABB, out []uint32, include, exclude uint32) int {
	if cap(d.scratch) < len(out) {
		d.scratch = make([]uint32, len(out))
	}
	scratch := d.scratch[:len(out)]

	allAABBs := d.registry.AABBs()
	candidateCount := d.broadPhase.Query(q, scratch, allAABBs)
	if d.metrics != nil {
		d.metrics.ObserveQueryCandidates(candidateCount)
	}

	d.queryID++
	if d.queryID == 0 {
		d.queryID = 1
	}
	id := d.queryID

	n := 0
	for k := 0; k < candidateCount; k++ {
		i := scratch[k]
		if d.seen.seen(i, id) {
			continue
		}
		if !d.registry.IsActive(i) {
			continue
		}
		if int(i) >= len(allAABBs) || !allAABBs[i].Intersects(q) {
			continue
		}
		mask := d.registry.Mask(i)
		if mask&include == 0 || mask&exclude != 0 {
			continue
		}
		if n >= len(out) {
			break
		}
		out[n] = i
		n++
	}
	return n
}
