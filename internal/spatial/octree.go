package spatial

// octNode is a node in the octree: an AABB, a depth, up to eight lazily-
// created children, and an intrusive singly-linked list of the objects
// stored directly at this node (its straddlers, or all of its objects if
// it has no children yet).
type octNode struct {
	bounds   AABB
	depth    uint32
	children [8]int32 // node id, or -1
	objHead  int32    // first entry id in this node's object list, or -1
	objCount int
}

// octEntry is one object's record. next chains the node's intrusive list
// when node >= 0, or the free list when node == -1 (the free-list sentinel
// the design notes call for).
type octEntry struct {
	index uint32
	aabb  AABB
	node  int32
	next  int32
}

// Octree is the tree-family index described in spec.md §4.6: the root
// covers a fixed world AABB; children are created lazily once a node
// exceeds maxObjectsPerNode and is below maxDepth.
type Octree struct {
	nodes []octNode
	root  int32

	entries     []octEntry
	freeEntry   int32 // -1 if none free
	shapeEntry  map[uint32]int32

	maxObjectsPerNode int
	maxDepth          uint32

	present   indexSet
	dedup     marker
	threshold int

	// stack is reused across queries to stay allocation-free after warm-up.
	stack []int32
}

const defaultMaxObjectsPerNode = 8

// NewOctree constructs an octree covering worldBounds. metrics may be nil.
func NewOctree(worldBounds AABB, maxDepth uint32, threshold int, metrics *Metrics) *Octree {
	t := &Octree{
		freeEntry:         -1,
		shapeEntry:        make(map[uint32]int32),
		maxObjectsPerNode: defaultMaxObjectsPerNode,
		maxDepth:          maxDepth,
		threshold:         threshold,
		present:           indexSet{metrics: metrics},
	}
	t.root = t.newNode(worldBounds, 0)
	return t
}

func (t *Octree) newNode(bounds AABB, depth uint32) int32 {
	id := int32(len(t.nodes))
	t.nodes = append(t.nodes, octNode{bounds: bounds, depth: depth, objHead: -1, children: [8]int32{-1, -1, -1, -1, -1, -1, -1, -1}})
	return id
}

func (t *Octree) allocEntry(index uint32, aabb AABB) int32 {
	if t.freeEntry != -1 {
		id := t.freeEntry
		t.freeEntry = t.entries[id].next
		t.entries[id] = octEntry{index: index, aabb: aabb, node: -1, next: -1}
		return id
	}
	id := int32(len(t.entries))
	t.entries = append(t.entries, octEntry{index: index, aabb: aabb, node: -1, next: -1})
	return id
}

func (t *Octree) freeEntryID(id int32) {
	t.entries[id].node = -1
	t.entries[id].next = t.freeEntry
	t.freeEntry = id
}

func (t *Octree) attach(nodeID, entryID int32) {
	n := &t.nodes[nodeID]
	t.entries[entryID].node = nodeID
	t.entries[entryID].next = n.objHead
	n.objHead = entryID
	n.objCount++
}

func (t *Octree) detach(nodeID, entryID int32) {
	n := &t.nodes[nodeID]
	if n.objHead == entryID {
		n.objHead = t.entries[entryID].next
		n.objCount--
		return
	}
	prev := n.objHead
	for prev != -1 {
		next := t.entries[prev].next
		if next == entryID {
			t.entries[prev].next = t.entries[entryID].next
			n.objCount--
			return
		}
		prev = next
	}
}

// octantOf returns the 0..7 child index that fully contains aabb, or -1 if
// aabb straddles the split planes on any axis.
func octantOf(bounds AABB, aabb AABB) int {
	c := bounds.Center()
	bit := func(lo, hi, mid float32) int {
		if hi <= mid {
			return 0
		}
		if lo >= mid {
			return 1
		}
		return -1
	}
	bx := bit(aabb.Min.X, aabb.Max.X, c.X)
	by := bit(aabb.Min.Y, aabb.Max.Y, c.Y)
	bz := bit(aabb.Min.Z, aabb.Max.Z, c.Z)
	if bx < 0 || by < 0 || bz < 0 {
		return -1
	}
	return bx | by<<1 | bz<<2
}

func childBounds(parent AABB, octant int) AABB {
	c := parent.Center()
	min, max := parent.Min, parent.Max
	if octant&1 == 0 {
		max.X = c.X
	} else {
		min.X = c.X
	}
	if octant&2 == 0 {
		max.Y = c.Y
	} else {
		min.Y = c.Y
	}
	if octant&4 == 0 {
		max.Z = c.Z
	} else {
		min.Z = c.Z
	}
	return AABB{Min: min, Max: max}
}

func (t *Octree) subdivide(nodeID int32) {
	// newNode appends to t.nodes, so take the node pointer only after every
	// child has been created.
	bounds, depth := t.nodes[nodeID].bounds, t.nodes[nodeID].depth
	var children [8]int32
	for oct := 0; oct < 8; oct++ {
		children[oct] = t.newNode(childBounds(bounds, oct), depth+1)
	}
	n := &t.nodes[nodeID]
	n.children = children

	// Redistribute existing objects: those fully contained by exactly one
	// child move there; the rest remain as straddlers at this node.
	entryID := n.objHead
	n.objHead = -1
	n.objCount = 0
	for entryID != -1 {
		next := t.entries[entryID].next
		oct := octantOf(n.bounds, t.entries[entryID].aabb)
		if oct >= 0 {
			t.attach(n.children[oct], entryID)
		} else {
			t.attach(nodeID, entryID)
		}
		entryID = next
	}
}

func (t *Octree) insertNode(nodeID int32, entryID int32) {
	n := &t.nodes[nodeID]
	if n.children[0] == -1 {
		t.attach(nodeID, entryID)
		if n.objCount > t.maxObjectsPerNode && n.depth < t.maxDepth {
			t.subdivide(nodeID)
		}
		return
	}
	oct := octantOf(n.bounds, t.entries[entryID].aabb)
	if oct < 0 {
		t.attach(nodeID, entryID)
		return
	}
	t.insertNode(n.children[oct], entryID)
}

func (t *Octree) Add(i uint32, aabb AABB) {
	entryID := t.allocEntry(i, aabb)
	t.insertNode(t.root, entryID)
	t.shapeEntry[i] = entryID
	t.present.add(i)
}

func (t *Octree) Remove(i uint32) bool {
	entryID, ok := t.shapeEntry[i]
	if !ok {
		return false
	}
	t.detach(t.entries[entryID].node, entryID)
	t.freeEntryID(entryID)
	delete(t.shapeEntry, i)
	t.present.remove(i)
	return true
}

func (t *Octree) Update(i uint32, oldAABB, newAABB AABB) {
	entryID, ok := t.shapeEntry[i]
	if !ok {
		return
	}
	nodeID := t.entries[entryID].node
	if t.nodes[nodeID].bounds.Contains(newAABB) {
		t.entries[entryID].aabb = newAABB
		return
	}
	t.detach(nodeID, entryID)
	t.entries[entryID].aabb = newAABB
	t.insertNode(t.root, entryID)
}

func (t *Octree) Query(q AABB, out []uint32, allAABBs []AABB) int {
	if t.present.count <= t.threshold {
		return t.present.bruteForce(q, out, 0, allAABBs)
	}

	id := t.dedup.next()
	n := 0
	t.stack = append(t.stack[:0], t.root)
	for len(t.stack) > 0 {
		nodeID := t.stack[len(t.stack)-1]
		t.stack = t.stack[:len(t.stack)-1]

		node := &t.nodes[nodeID]
		if !node.bounds.Intersects(q) {
			continue
		}
		for e := node.objHead; e != -1; e = t.entries[e].next {
			if n >= len(out) {
				return n
			}
			i := t.entries[e].index
			if t.dedup.seen(i, id) {
				continue
			}
			if int(i) < len(allAABBs) && allAABBs[i].Intersects(q) {
				out[n] = i
				n++
			}
		}
		if node.children[0] != -1 {
			for _, c := range node.children {
				t.stack = append(t.stack, c)
			}
		}
	}
	return n
}

func (t *Octree) Clear() {
	root := t.nodes[t.root].bounds
	t.nodes = t.nodes[:0]
	t.entries = t.entries[:0]
	t.freeEntry = -1
	t.shapeEntry = make(map[uint32]int32)
	t.present.clear()
	t.root = t.newNode(root, 0)
}

func (t *Octree) Count() int { return t.present.count }
