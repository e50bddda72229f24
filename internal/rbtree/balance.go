// Copyright 2025 dacapoday
// SPDX-License-Identifier: Apache-2.0

package rbtree

// subtreeSize sums the lengths of the subtree rooted at x along its right spine.
func (t *Tree) subtreeSize(x NodeID) (size int) {
	for ; x != Sentinel; x = t.nodes[x].right {
		size += t.nodes[x].sizeLeft + t.nodes[x].piece.Length
	}
	return
}

// subtreeLF sums the line feed counts of the subtree rooted at x along its right spine.
func (t *Tree) subtreeLF(x NodeID) (lf int) {
	for ; x != Sentinel; x = t.nodes[x].right {
		lf += t.nodes[x].lfLeft + t.nodes[x].piece.LineFeedCount
	}
	return
}

// rotateLeft lifts the right child of x into its place.
//
//	  x                y
//	 / \              / \
//	a   y     --->   x   c
//	   / \          / \
//	  b   c        a   b
func (t *Tree) rotateLeft(x NodeID) {
	n := t.nodes
	y := n[x].right

	n[y].sizeLeft += n[x].sizeLeft + n[x].piece.Length
	n[y].lfLeft += n[x].lfLeft + n[x].piece.LineFeedCount

	n[x].right = n[y].left
	if n[y].left != Sentinel {
		n[n[y].left].parent = x
	}
	n[y].parent = n[x].parent
	switch p := n[x].parent; {
	case p == Sentinel:
		t.root = y
	case n[p].left == x:
		n[p].left = y
	default:
		n[p].right = y
	}
	n[y].left = x
	n[x].parent = y
}

// rotateRight lifts the left child of y into its place.
//
//	    y            x
//	   / \          / \
//	  x   c  --->  a   y
//	 / \              / \
//	a   b            b   c
func (t *Tree) rotateRight(y NodeID) {
	n := t.nodes
	x := n[y].left

	n[y].left = n[x].right
	if n[x].right != Sentinel {
		n[n[x].right].parent = y
	}
	n[x].parent = n[y].parent

	n[y].sizeLeft -= n[x].sizeLeft + n[x].piece.Length
	n[y].lfLeft -= n[x].lfLeft + n[x].piece.LineFeedCount

	switch p := n[y].parent; {
	case p == Sentinel:
		t.root = x
	case n[p].right == y:
		n[p].right = x
	default:
		n[p].left = x
	}
	n[x].right = y
	n[y].parent = x
}

// UpdateMetadata propagates a change of the piece of x to every ancestor
// that holds x in its left subtree.
func (t *Tree) UpdateMetadata(x NodeID, sizeDelta, lfDelta int) {
	if sizeDelta == 0 && lfDelta == 0 {
		return
	}
	n := t.nodes
	for x != t.root && x != Sentinel {
		p := n[x].parent
		if n[p].left == x {
			n[p].sizeLeft += sizeDelta
			n[p].lfLeft += lfDelta
		}
		x = p
	}
}

// recomputeMetadata repairs the aggregates above x after the subtree
// containing x changed shape.
func (t *Tree) recomputeMetadata(x NodeID) {
	n := t.nodes
	if x == t.root {
		return
	}
	// climb to the lowest ancestor whose left subtree changed
	for x != t.root && x == n[n[x].parent].right {
		x = n[x].parent
	}
	if x == t.root {
		return
	}
	x = n[x].parent

	sizeDelta := t.subtreeSize(n[x].left) - n[x].sizeLeft
	lfDelta := t.subtreeLF(n[x].left) - n[x].lfLeft
	n[x].sizeLeft += sizeDelta
	n[x].lfLeft += lfDelta

	for x != t.root && (sizeDelta != 0 || lfDelta != 0) {
		p := n[x].parent
		if n[p].left == x {
			n[p].sizeLeft += sizeDelta
			n[p].lfLeft += lfDelta
		}
		x = p
	}
}

func (t *Tree) fixInsert(x NodeID) {
	t.recomputeMetadata(x)
	n := t.nodes
	for x != t.root && n[n[x].parent].color == red {
		p := n[x].parent
		g := n[p].parent
		if p == n[g].left {
			u := n[g].right
			if n[u].color == red {
				n[p].color = black
				n[u].color = black
				n[g].color = red
				x = g
				continue
			}
			if x == n[p].right {
				x = p
				t.rotateLeft(x)
			}
			p = n[x].parent
			n[p].color = black
			n[n[p].parent].color = red
			t.rotateRight(n[p].parent)
		} else {
			u := n[g].left
			if n[u].color == red {
				n[p].color = black
				n[u].color = black
				n[g].color = red
				x = g
				continue
			}
			if x == n[p].left {
				x = p
				t.rotateRight(x)
			}
			p = n[x].parent
			n[p].color = black
			n[n[p].parent].color = red
			t.rotateLeft(n[p].parent)
		}
	}
	n[t.root].color = black
}

// Delete detaches z from the tree and frees its slot.
// The successor of a node with two children is relinked into its place,
// so no surviving NodeID changes its piece.
func (t *Tree) Delete(z NodeID) {
	if z == Sentinel || len(t.nodes) == 0 {
		return
	}
	n := t.nodes
	var x, y NodeID
	switch {
	case n[z].left == Sentinel:
		y = z
		x = n[y].right
	case n[z].right == Sentinel:
		y = z
		x = n[y].left
	default:
		y = t.Leftmost(n[z].right)
		x = n[y].right
	}

	if y == t.root {
		t.root = x
		n[x].color = black
		t.release(z)
		t.resetSentinel()
		n[t.root].parent = Sentinel
		return
	}

	yWasRed := n[y].color == red

	if yp := n[y].parent; y == n[yp].left {
		n[yp].left = x
	} else {
		n[yp].right = x
	}

	if y == z {
		n[x].parent = n[y].parent
		t.recomputeMetadata(x)
	} else {
		if n[y].parent == z {
			n[x].parent = y
		} else {
			n[x].parent = n[y].parent
		}
		t.recomputeMetadata(x)

		n[y].left = n[z].left
		n[y].right = n[z].right
		n[y].parent = n[z].parent
		n[y].color = n[z].color

		switch zp := n[z].parent; {
		case z == t.root:
			t.root = y
		case z == n[zp].left:
			n[zp].left = y
		default:
			n[zp].right = y
		}
		if n[y].left != Sentinel {
			n[n[y].left].parent = y
		}
		if n[y].right != Sentinel {
			n[n[y].right].parent = y
		}
		n[y].sizeLeft = n[z].sizeLeft
		n[y].lfLeft = n[z].lfLeft
		t.recomputeMetadata(y)
	}

	t.release(z)

	if xp := n[x].parent; n[xp].left == x {
		size, lf := t.subtreeSize(x), t.subtreeLF(x)
		if size != n[xp].sizeLeft || lf != n[xp].lfLeft {
			sizeDelta, lfDelta := size-n[xp].sizeLeft, lf-n[xp].lfLeft
			n[xp].sizeLeft = size
			n[xp].lfLeft = lf
			t.UpdateMetadata(xp, sizeDelta, lfDelta)
		}
	}
	t.recomputeMetadata(n[x].parent)

	if yWasRed {
		t.resetSentinel()
		return
	}

	for x != t.root && n[x].color == black {
		p := n[x].parent
		if x == n[p].left {
			w := n[p].right
			if n[w].color == red {
				n[w].color = black
				n[p].color = red
				t.rotateLeft(p)
				w = n[p].right
			}
			if n[n[w].left].color == black && n[n[w].right].color == black {
				n[w].color = red
				x = p
				continue
			}
			if n[n[w].right].color == black {
				n[n[w].left].color = black
				n[w].color = red
				t.rotateRight(w)
				w = n[p].right
			}
			n[w].color = n[p].color
			n[p].color = black
			n[n[w].right].color = black
			t.rotateLeft(p)
			x = t.root
		} else {
			w := n[p].left
			if n[w].color == red {
				n[w].color = black
				n[p].color = red
				t.rotateRight(p)
				w = n[p].left
			}
			if n[n[w].left].color == black && n[n[w].right].color == black {
				n[w].color = red
				x = p
				continue
			}
			if n[n[w].left].color == black {
				n[n[w].right].color = black
				n[w].color = red
				t.rotateLeft(w)
				w = n[p].left
			}
			n[w].color = n[p].color
			n[p].color = black
			n[n[w].left].color = black
			t.rotateRight(p)
			x = t.root
		}
	}
	n[x].color = black
	t.resetSentinel()
}
