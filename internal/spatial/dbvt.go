package spatial

// dbvtNode is a node in the dynamic BVH. Leaves have left == right == -1
// and carry shapeIndex; internal nodes have both children set. Freed nodes
// are linked through left into the tree's free list — no extra field or
// flag is needed, since a node's liveness is only ever checked by walking
// from the root or the shapeNode map, never by scanning the array.
type dbvtNode struct {
	fatAABB    AABB
	parent     int32
	left       int32
	right      int32
	shapeIndex uint32
}

// DBVT is the dynamic bounding volume tree of spec.md §4.8: each leaf keeps
// a margin-expanded ("fat") AABB so that small motions don't force a
// re-insertion, and insertion picks a sibling by a SAH-flavoured branch-
// and-bound cost instead of always descending to a fixed side.
type DBVT struct {
	nodes    []dbvtNode
	freeHead int32
	root     int32
	margin   float32

	shapeNode map[uint32]int32
	present   indexSet
	threshold int

	stack []int32
}

// NewDBVT constructs a dynamic bounding volume tree. metrics may be nil.
func NewDBVT(fatMargin float32, threshold int, metrics *Metrics) *DBVT {
	return &DBVT{
		freeHead:  -1,
		root:      -1,
		margin:    fatMargin,
		shapeNode: make(map[uint32]int32),
		threshold: threshold,
		present:   indexSet{metrics: metrics},
	}
}

func (t *DBVT) isLeaf(id int32) bool { return t.nodes[id].left == -1 }

func (t *DBVT) alloc() int32 {
	if t.freeHead != -1 {
		id := t.freeHead
		t.freeHead = t.nodes[id].left
		return id
	}
	id := int32(len(t.nodes))
	t.nodes = append(t.nodes, dbvtNode{})
	return id
}

func (t *DBVT) free(id int32) {
	t.nodes[id].left = t.freeHead
	t.freeHead = id
}

// descendCost estimates the cost of placing leafAABB under child: the full
// merged area for a leaf (no further descent possible), or the marginal
// area increase for an internal node (the cheapest a further descent could
// cost, per the branch-and-bound lower bound).
func (t *DBVT) descendCost(child int32, leafAABB AABB) float32 {
	box := t.nodes[child].fatAABB
	merged := Merge(box, leafAABB)
	if t.isLeaf(child) {
		return merged.SurfaceArea()
	}
	return merged.SurfaceArea() - box.SurfaceArea()
}

func (t *DBVT) bestSibling(leafAABB AABB) int32 {
	index := t.root
	for !t.isLeaf(index) {
		left, right := t.nodes[index].left, t.nodes[index].right
		area := t.nodes[index].fatAABB.SurfaceArea()
		combined := Merge(t.nodes[index].fatAABB, leafAABB)
		combinedArea := combined.SurfaceArea()

		cost := 2 * combinedArea
		inheritanceCost := 2 * (combinedArea - area)
		costLeft := t.descendCost(left, leafAABB) + inheritanceCost
		costRight := t.descendCost(right, leafAABB) + inheritanceCost

		if cost < costLeft && cost < costRight {
			break
		}
		if costLeft < costRight {
			index = left
		} else {
			index = right
		}
	}
	return index
}

func (t *DBVT) refitFrom(id int32) {
	for id != -1 {
		l, r := t.nodes[id].left, t.nodes[id].right
		t.nodes[id].fatAABB = Merge(t.nodes[l].fatAABB, t.nodes[r].fatAABB)
		id = t.nodes[id].parent
	}
}

func (t *DBVT) insertLeaf(leaf int32) {
	if t.root == -1 {
		t.root = leaf
		t.nodes[leaf].parent = -1
		return
	}

	leafAABB := t.nodes[leaf].fatAABB
	sibling := t.bestSibling(leafAABB)
	oldParent := t.nodes[sibling].parent

	newParent := t.alloc()
	t.nodes[newParent] = dbvtNode{
		fatAABB: Merge(t.nodes[sibling].fatAABB, leafAABB),
		parent:  oldParent,
		left:    sibling,
		right:   leaf,
	}
	t.nodes[sibling].parent = newParent
	t.nodes[leaf].parent = newParent

	if oldParent == -1 {
		t.root = newParent
	} else {
		if t.nodes[oldParent].left == sibling {
			t.nodes[oldParent].left = newParent
		} else {
			t.nodes[oldParent].right = newParent
		}
	}
	t.refitFrom(newParent)
}

// removeLeaf detaches leaf from the tree structure, collapsing its parent
// into its sibling, but does not return leaf itself to the free list.
func (t *DBVT) removeLeaf(leaf int32) {
	parent := t.nodes[leaf].parent
	if parent == -1 {
		t.root = -1
		return
	}
	grandparent := t.nodes[parent].parent
	var sibling int32
	if t.nodes[parent].left == leaf {
		sibling = t.nodes[parent].right
	} else {
		sibling = t.nodes[parent].left
	}

	if grandparent == -1 {
		t.root = sibling
		t.nodes[sibling].parent = -1
	} else {
		if t.nodes[grandparent].left == parent {
			t.nodes[grandparent].left = sibling
		} else {
			t.nodes[grandparent].right = sibling
		}
		t.nodes[sibling].parent = grandparent
		t.refitFrom(grandparent)
	}
	t.free(parent)
}

func (t *DBVT) Add(i uint32, aabb AABB) {
	leaf := t.alloc()
	t.nodes[leaf] = dbvtNode{fatAABB: aabb.Expand(t.margin), parent: -1, left: -1, right: -1, shapeIndex: i}
	t.insertLeaf(leaf)
	t.shapeNode[i] = leaf
	t.present.add(i)
}

func (t *DBVT) Remove(i uint32) bool {
	leaf, ok := t.shapeNode[i]
	if !ok {
		return false
	}
	t.removeLeaf(leaf)
	t.free(leaf)
	delete(t.shapeNode, i)
	t.present.remove(i)
	return true
}

// Update is a no-op when the shape's true AABB still fits inside its
// existing fat AABB, per spec: only a real escape triggers a remove and
// branch-and-bound re-insertion with a freshly margined box.
func (t *DBVT) Update(i uint32, oldAABB, newAABB AABB) {
	leaf, ok := t.shapeNode[i]
	if !ok {
		return
	}
	if t.nodes[leaf].fatAABB.Contains(newAABB) {
		return
	}
	t.removeLeaf(leaf)
	t.nodes[leaf] = dbvtNode{fatAABB: newAABB.Expand(t.margin), parent: -1, left: -1, right: -1, shapeIndex: i}
	t.insertLeaf(leaf)
}

func (t *DBVT) Query(q AABB, out []uint32, allAABBs []AABB) int {
	if t.present.count <= t.threshold {
		return t.present.bruteForce(q, out, 0, allAABBs)
	}
	if t.root == -1 {
		return 0
	}

	n := 0
	t.stack = append(t.stack[:0], t.root)
	for len(t.stack) > 0 {
		id := t.stack[len(t.stack)-1]
		t.stack = t.stack[:len(t.stack)-1]

		node := &t.nodes[id]
		if !node.fatAABB.Intersects(q) {
			continue
		}
		if t.isLeaf(id) {
			if n >= len(out) {
				return n
			}
			i := node.shapeIndex
			if int(i) < len(allAABBs) && allAABBs[i].Intersects(q) {
				out[n] = i
				n++
			}
			continue
		}
		t.stack = append(t.stack, node.left, node.right)
	}
	return n
}

func (t *DBVT) Clear() {
	t.nodes = t.nodes[:0]
	t.freeHead = -1
	t.root = -1
	t.shapeNode = make(map[uint32]int32)
	t.present.clear()
}

func (t *DBVT) Count() int { return t.present.count }
