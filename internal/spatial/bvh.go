package spatial

import "sort"

// bvhNode is either a leaf (left == -1, leafIndex is the shape index) or an
// internal node (left/right are child node ids, leafIndex is unused).
type bvhNode struct {
	bounds    AABB
	left      int32
	right     int32
	leafIndex int32
}

type bvhLeaf struct {
	index    uint32
	aabb     AABB
	centroid Vec3
}

// BVH is a top-down-built bounding volume hierarchy, rebuilt wholesale on
// the next query after any mutation (spec.md §4.7: a dirty flag, not
// incremental repair, because a from-scratch build stays cheap enough at
// the sizes this index targets and keeps the tree balanced).
type BVH struct {
	nodes []bvhNode
	root  int32

	shapeAABB map[uint32]AABB
	present   indexSet
	useSAH    bool
	dirty     bool
	threshold int
	gen       uint64

	stack []int32
}

// Generation returns a counter bumped on every Add/Remove/Update/Clear, so a
// cache layered above Query can tell whether the tree's contents could
// have changed since a previous call.
func (b *BVH) Generation() uint64 { return b.gen }

// NewBVH constructs an empty BVH. useSAH selects the split heuristic used
// on rebuild: when true, each internal split is evaluated once per axis at
// the parent node's centroid (not binned or swept across candidate planes)
// and the cheapest axis is kept; when false, a median split by centroid is
// used.
// metrics may be nil.
func NewBVH(useSAH bool, threshold int, metrics *Metrics) *BVH {
	return &BVH{
		shapeAABB: make(map[uint32]AABB),
		root:      -1,
		useSAH:    useSAH,
		threshold: threshold,
		present:   indexSet{metrics: metrics},
	}
}

func (b *BVH) Add(i uint32, aabb AABB) {
	b.shapeAABB[i] = aabb
	b.present.add(i)
	b.dirty = true
	b.gen++
}

func (b *BVH) Remove(i uint32) bool {
	if _, ok := b.shapeAABB[i]; !ok {
		return false
	}
	delete(b.shapeAABB, i)
	b.present.remove(i)
	b.dirty = true
	b.gen++
	return true
}

func (b *BVH) Update(i uint32, oldAABB, newAABB AABB) {
	if _, ok := b.shapeAABB[i]; !ok {
		return
	}
	b.shapeAABB[i] = newAABB
	b.dirty = true
	b.gen++
}

func (b *BVH) rebuild() {
	leaves := make([]bvhLeaf, 0, b.present.count)
	for _, i := range b.present.members {
		aabb := b.shapeAABB[i]
		leaves = append(leaves, bvhLeaf{index: i, aabb: aabb, centroid: aabb.Center()})
	}
	b.nodes = b.nodes[:0]
	if len(leaves) == 0 {
		b.root = -1
	} else {
		b.root = b.buildRange(leaves)
	}
	b.dirty = false
}

func (b *BVH) newLeaf(bounds AABB, shapeIndex uint32) int32 {
	id := int32(len(b.nodes))
	b.nodes = append(b.nodes, bvhNode{bounds: bounds, left: -1, right: -1, leafIndex: int32(shapeIndex)})
	return id
}

func (b *BVH) newInternal(bounds AABB, left, right int32) int32 {
	id := int32(len(b.nodes))
	b.nodes = append(b.nodes, bvhNode{bounds: bounds, left: left, right: right, leafIndex: -1})
	return id
}

func (b *BVH) buildRange(leaves []bvhLeaf) int32 {
	bounds := leaves[0].aabb
	for _, l := range leaves[1:] {
		bounds = Merge(bounds, l.aabb)
	}
	if len(leaves) == 1 {
		return b.newLeaf(bounds, leaves[0].index)
	}

	split := b.partition(leaves, bounds)

	left := b.buildRange(leaves[:split])
	right := b.buildRange(leaves[split:])
	return b.newInternal(bounds, left, right)
}

// axisCost evaluates the SAH cost of splitting leaves at the parent bound's
// centroid on axis — (A_L*n_L + A_R*n_R)/A_parent, per spec.md §4.7 — without
// reordering leaves. ok is false when every centroid falls on one side, which
// makes the split degenerate.
func axisCost(leaves []bvhLeaf, axis int, parentArea float32) (cost float32, ok bool) {
	plane := func() AABB {
		b := Empty()
		for _, l := range leaves {
			b = Merge(b, l.aabb)
		}
		return b
	}().Center().Get(axis)

	left, right := Empty(), Empty()
	nL, nR := 0, 0
	for _, l := range leaves {
		if l.centroid.Get(axis) < plane {
			left = Merge(left, l.aabb)
			nL++
		} else {
			right = Merge(right, l.aabb)
			nR++
		}
	}
	if nL == 0 || nR == 0 {
		return 0, false
	}
	return (left.SurfaceArea()*float32(nL) + right.SurfaceArea()*float32(nR)) / parentArea, true
}

// partition picks the split point and reorders leaves in place so that
// leaves[:split] is the left child's set.
//
// In SAH mode, the cost (A_L*n_L + A_R*n_R)/A_parent is evaluated at the
// parent bound's centroid on each of the three axes (not binned across many
// candidate planes along one axis) and the lowest-cost axis is kept (on a
// tie, the lower-numbered axis); when every axis is degenerate it falls
// back to a median split on the longest axis.
//
// In Median mode, leaves are partitioned in place around the parent
// centroid on the longest axis via a two-pointer scan; only when that
// degenerates (every centroid on one side) does it fall back to an
// index-median sort.
func (b *BVH) partition(leaves []bvhLeaf, bounds AABB) int {
	axis := bounds.LongestAxis()
	if b.useSAH {
		parentArea := bounds.SurfaceArea()
		bestAxis := -1
		var bestCost float32
		for a := 0; a < 3; a++ {
			cost, ok := axisCost(leaves, a, parentArea)
			if !ok {
				continue
			}
			if bestAxis == -1 || cost < bestCost {
				bestAxis, bestCost = a, cost
			}
		}
		if bestAxis == -1 {
			sort.Slice(leaves, func(a, c int) bool { return leaves[a].centroid.Get(axis) < leaves[c].centroid.Get(axis) })
			return len(leaves) / 2
		}
		axis = bestAxis
	}

	plane := bounds.Center().Get(axis)
	i, j := 0, len(leaves)-1
	for i <= j {
		for i <= j && leaves[i].centroid.Get(axis) < plane {
			i++
		}
		for i <= j && leaves[j].centroid.Get(axis) >= plane {
			j--
		}
		if i < j {
			leaves[i], leaves[j] = leaves[j], leaves[i]
			i++
			j--
		}
	}
	if i > 0 && i < len(leaves) {
		return i
	}
	sort.Slice(leaves, func(a, c int) bool { return leaves[a].centroid.Get(axis) < leaves[c].centroid.Get(axis) })
	return len(leaves) / 2
}

func (b *BVH) Query(q AABB, out []uint32, allAABBs []AABB) int {
	if b.present.count <= b.threshold {
		return b.present.bruteForce(q, out, 0, allAABBs)
	}
	if b.dirty {
		b.rebuild()
	}
	if b.root == -1 {
		return 0
	}

	n := 0
	b.stack = append(b.stack[:0], b.root)
	for len(b.stack) > 0 {
		id := b.stack[len(b.stack)-1]
		b.stack = b.stack[:len(b.stack)-1]

		node := &b.nodes[id]
		if !node.bounds.Intersects(q) {
			continue
		}
		if node.left == -1 {
			if n >= len(out) {
				return n
			}
			i := uint32(node.leafIndex)
			if int(i) < len(allAABBs) && allAABBs[i].Intersects(q) {
				out[n] = i
				n++
			}
			continue
		}
		b.stack = append(b.stack, node.left, node.right)
	}
	return n
}

func (b *BVH) Clear() {
	b.nodes = b.nodes[:0]
	b.root = -1
	b.shapeAABB = make(map[uint32]AABB)
	b.present.clear()
	b.dirty = false
	b.gen++
}

func (b *BVH) Count() int { return b.present.count }
