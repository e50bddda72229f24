// Copyright 2025 dacapoday
// SPDX-License-Identifier: Apache-2.0

// Package rbtree implements the augmented red-black tree that orders the pieces
// of a piece table.
//
// Nodes live in a flat arena and refer to each other by NodeID. Slot 0 is the
// sentinel: it is black, its links point to itself and its aggregates are zero.
// Every node carries, besides its piece, the total length and the total line
// feed count of its left subtree, which makes offset and line lookups O(log n).
//
// Tree requires no initialization:
//
//	var tree Tree
//	id := tree.InsertRight(Sentinel, piece)
package rbtree

// NodeID identifies a node slot in the arena.
// IDs of deleted nodes are recycled by later inserts.
type NodeID int32

// Sentinel is the reserved "no node" slot.
const Sentinel NodeID = 0

type color uint8

const (
	black color = iota
	red
)

// BufferCursor is a position inside one backing buffer,
// with Line relative to that buffer's own line starts.
type BufferCursor struct {
	Line   int
	Column int
}

// Piece is the half-open slice [Start, End) of the backing buffer BufferIndex.
type Piece struct {
	BufferIndex   int
	Start         BufferCursor
	End           BufferCursor
	Length        int
	LineFeedCount int
}

type node struct {
	parent, left, right NodeID
	color               color
	piece               Piece
	sizeLeft            int // total length of the left subtree
	lfLeft              int // total line feed count of the left subtree
}

// Tree is an arena-backed red-black tree of pieces kept in document order.
// Not thread-safe.
type Tree struct {
	nodes []node
	free  []NodeID
	root  NodeID
	count int
}

// Reset drops every node. Arena capacity is kept.
func (t *Tree) Reset() {
	if t.nodes == nil {
		t.nodes = make([]node, 1, 64)
	}
	t.nodes = t.nodes[:1]
	t.nodes[Sentinel] = node{}
	t.free = t.free[:0]
	t.root = Sentinel
	t.count = 0
}

func (t *Tree) at(id NodeID) *node {
	if len(t.nodes) == 0 {
		t.Reset()
	}
	return &t.nodes[id]
}

func (t *Tree) alloc(p Piece) NodeID {
	if len(t.nodes) == 0 {
		t.Reset()
	}
	n := node{color: red, piece: p}
	var id NodeID
	if l := len(t.free); l > 0 {
		id = t.free[l-1]
		t.free = t.free[:l-1]
		t.nodes[id] = n
	} else {
		id = NodeID(len(t.nodes))
		t.nodes = append(t.nodes, n)
	}
	t.count++
	return id
}

func (t *Tree) release(id NodeID) {
	t.nodes[id] = node{}
	t.free = append(t.free, id)
	t.count--
}

func (t *Tree) resetSentinel() {
	t.nodes[Sentinel] = node{}
}

// Root returns the root node, or Sentinel for an empty tree.
func (t *Tree) Root() NodeID {
	return t.root
}

// Empty reports whether the tree has no nodes.
func (t *Tree) Empty() bool {
	return t.root == Sentinel
}

// Len returns the number of nodes.
func (t *Tree) Len() int {
	return t.count
}

// Piece returns the piece owned by id.
func (t *Tree) Piece(id NodeID) Piece {
	return t.at(id).piece
}

// SetPiece replaces the piece owned by id without touching any aggregate.
// Callers follow up with UpdateMetadata when length or line feed count changed.
func (t *Tree) SetPiece(id NodeID, p Piece) {
	if id == Sentinel {
		return
	}
	t.at(id).piece = p
}

func (t *Tree) Left(id NodeID) NodeID   { return t.at(id).left }
func (t *Tree) Right(id NodeID) NodeID  { return t.at(id).right }
func (t *Tree) Parent(id NodeID) NodeID { return t.at(id).parent }

// SizeLeft returns the total length of the left subtree of id.
func (t *Tree) SizeLeft(id NodeID) int { return t.at(id).sizeLeft }

// LFLeft returns the total line feed count of the left subtree of id.
func (t *Tree) LFLeft(id NodeID) int { return t.at(id).lfLeft }

// Leftmost returns the first node of the subtree rooted at id.
func (t *Tree) Leftmost(id NodeID) NodeID {
	for t.at(id).left != Sentinel {
		id = t.nodes[id].left
	}
	return id
}

// Rightmost returns the last node of the subtree rooted at id.
func (t *Tree) Rightmost(id NodeID) NodeID {
	for t.at(id).right != Sentinel {
		id = t.nodes[id].right
	}
	return id
}

// First returns the first node in document order, or Sentinel.
func (t *Tree) First() NodeID {
	if t.root == Sentinel {
		return Sentinel
	}
	return t.Leftmost(t.root)
}

// Last returns the last node in document order, or Sentinel.
func (t *Tree) Last() NodeID {
	if t.root == Sentinel {
		return Sentinel
	}
	return t.Rightmost(t.root)
}

// Next returns the in-order successor of id, or Sentinel.
func (t *Tree) Next(id NodeID) NodeID {
	if id == Sentinel {
		return Sentinel
	}
	if r := t.at(id).right; r != Sentinel {
		return t.Leftmost(r)
	}
	for p := t.nodes[id].parent; p != Sentinel; p = t.nodes[id].parent {
		if t.nodes[p].left == id {
			return p
		}
		id = p
	}
	return Sentinel
}

// Prev returns the in-order predecessor of id, or Sentinel.
func (t *Tree) Prev(id NodeID) NodeID {
	if id == Sentinel {
		return Sentinel
	}
	if l := t.at(id).left; l != Sentinel {
		return t.Rightmost(l)
	}
	for p := t.nodes[id].parent; p != Sentinel; p = t.nodes[id].parent {
		if t.nodes[p].right == id {
			return p
		}
		id = p
	}
	return Sentinel
}

// OffsetOf returns the document offset at which the piece of id starts.
func (t *Tree) OffsetOf(id NodeID) int {
	pos := t.at(id).sizeLeft
	for id != t.root {
		p := t.nodes[id].parent
		if t.nodes[p].right == id {
			pos += t.nodes[p].sizeLeft + t.nodes[p].piece.Length
		}
		id = p
	}
	return pos
}

// Totals returns the document length and line feed count by walking the right spine.
func (t *Tree) Totals() (length, lineFeeds int) {
	for x := t.root; x != Sentinel; x = t.nodes[x].right {
		n := &t.nodes[x]
		length += n.sizeLeft + n.piece.Length
		lineFeeds += n.lfLeft + n.piece.LineFeedCount
	}
	return
}

// Pieces implements iter.Seq2[NodeID, Piece], yielding every piece in document order.
// The walk uses an explicit stack and stops as soon as yield returns false.
// The tree must not be mutated during the walk.
func (t *Tree) Pieces(yield func(id NodeID, piece Piece) bool) {
	if t.root == Sentinel {
		return
	}
	stack := make([]NodeID, 0, 64)
	x := t.root
	for x != Sentinel || len(stack) > 0 {
		for x != Sentinel {
			stack = append(stack, x)
			x = t.nodes[x].left
		}
		x = stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !yield(x, t.nodes[x].piece) {
			return
		}
		x = t.nodes[x].right
	}
}

// InsertRight inserts p immediately after id in document order and returns the new node.
// On an empty tree id is ignored and the new node becomes the root.
//
//	  id              id
//	 /  \            /  \
//	a    b   --->   a    b
//	                    /
//	                   z
func (t *Tree) InsertRight(id NodeID, p Piece) NodeID {
	z := t.alloc(p)
	switch {
	case t.root == Sentinel:
		t.root = z
		t.nodes[z].color = black
	case t.nodes[id].right == Sentinel:
		t.nodes[id].right = z
		t.nodes[z].parent = id
	default:
		next := t.Leftmost(t.nodes[id].right)
		t.nodes[next].left = z
		t.nodes[z].parent = next
	}
	t.fixInsert(z)
	return z
}

// InsertLeft inserts p immediately before id in document order and returns the new node.
// On an empty tree id is ignored and the new node becomes the root.
//
//	  id              id
//	 /  \            /  \
//	a    b   --->   a    b
//	                 \
//	                  z
func (t *Tree) InsertLeft(id NodeID, p Piece) NodeID {
	z := t.alloc(p)
	switch {
	case t.root == Sentinel:
		t.root = z
		t.nodes[z].color = black
	case t.nodes[id].left == Sentinel:
		t.nodes[id].left = z
		t.nodes[z].parent = id
	default:
		prev := t.Rightmost(t.nodes[id].left)
		t.nodes[prev].right = z
		t.nodes[z].parent = prev
	}
	t.fixInsert(z)
	return z
}
