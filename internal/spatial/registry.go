package spatial

// Registry is the shape registry: a structure-of-arrays store keyed by
// shape index. It owns no broad-phase state; broad-phase implementations
// re-ask it for AABBs on every query (Registry.AABBs) because some of them
// store fattened or bucket-bound surrogates rather than the true shape box.
type Registry struct {
	active     []bool
	generation []uint32
	kinds      []Kind
	params     []ShapeParams
	aabbs      []AABB
	masks      []uint32
	tags       []int32

	freeList  []uint32
	liveCount int
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Count returns the number of currently active shapes.
func (r *Registry) Count() int { return r.liveCount }

// Len returns the number of slots ever allocated, including freed ones.
func (r *Registry) Len() int { return len(r.active) }

// Add allocates a slot (recycled or appended), computes its AABB from
// params, and returns a fresh handle.
func (r *Registry) Add(kind Kind, params ShapeParams, mask uint32, tag int32) Handle {
	aabb := ComputeAABB(kind, params)

	if n := len(r.freeList); n > 0 {
		idx := r.freeList[n-1]
		r.freeList = r.freeList[:n-1]

		r.active[idx] = true
		r.generation[idx]++
		r.kinds[idx] = kind
		r.params[idx] = params
		r.aabbs[idx] = aabb
		r.masks[idx] = mask
		r.tags[idx] = tag
		r.liveCount++
		return Handle{Index: idx, Generation: r.generation[idx]}
	}

	idx := uint32(len(r.active))
	r.active = append(r.active, true)
	r.generation = append(r.generation, 0)
	r.kinds = append(r.kinds, kind)
	r.params = append(r.params, params)
	r.aabbs = append(r.aabbs, aabb)
	r.masks = append(r.masks, mask)
	r.tags = append(r.tags, tag)
	r.liveCount++
	return Handle{Index: idx, Generation: 0}
}

// valid reports whether h names a currently-active slot.
func (r *Registry) valid(h Handle) bool {
	i := int(h.Index)
	return i >= 0 && i < len(r.active) && r.active[i] && r.generation[i] == h.Generation
}

// Update recomputes the AABB for handle h from newParams, returning the
// previous and new AABB so the caller can forward both to the broad phase.
func (r *Registry) Update(h Handle, newParams ShapeParams) (oldAABB, newAABB AABB, err error) {
	if !r.valid(h) {
		return AABB{}, AABB{}, newStaleHandle(h)
	}
	i := h.Index
	oldAABB = r.aabbs[i]
	r.params[i] = newParams
	newAABB = ComputeAABB(r.kinds[i], newParams)
	r.aabbs[i] = newAABB
	return oldAABB, newAABB, nil
}

// Remove invalidates handle h, freeing its slot for reuse. Returns false if
// h was already stale.
func (r *Registry) Remove(h Handle) bool {
	if !r.valid(h) {
		return false
	}
	i := h.Index
	r.active[i] = false
	r.liveCount--
	r.freeList = append(r.freeList, i)
	return true
}

// Get reads back a shape's data. Fails with ErrStaleHandle on generation
// mismatch.
func (r *Registry) Get(h Handle) (kind Kind, params ShapeParams, aabb AABB, mask uint32, tag int32, err error) {
	if !r.valid(h) {
		err = newStaleHandle(h)
		return
	}
	i := h.Index
	return r.kinds[i], r.params[i], r.aabbs[i], r.masks[i], r.tags[i], nil
}

// AABBs returns the read-only view every broad-phase implementation uses
// for final per-candidate AABB filtering. Entries at indices that are not
// active are stale and must not be trusted without also checking IsActive.
func (r *Registry) AABBs() []AABB { return r.aabbs }

// IsActive reports whether index i currently names a live shape.
func (r *Registry) IsActive(i uint32) bool {
	return int(i) < len(r.active) && r.active[i]
}

// Mask returns the layer mask stored for index i.
func (r *Registry) Mask(i uint32) uint32 { return r.masks[i] }

// Tag returns the user tag stored for index i.
func (r *Registry) Tag(i uint32) int32 { return r.tags[i] }

// Kind returns the shape kind stored for index i.
func (r *Registry) Kind(i uint32) Kind { return r.kinds[i] }

// Params returns the shape parameters stored for index i.
func (r *Registry) Params(i uint32) ShapeParams { return r.params[i] }

// ForEachActive calls fn for every active index, in ascending order.
func (r *Registry) ForEachActive(fn func(i uint32)) {
	for i, active := range r.active {
		if active {
			fn(uint32(i))
		}
	}
}
