// Copyright 2025 dacapoday
// SPDX-License-Identifier: Apache-2.0

package rbtree

import "github.com/cockroachdb/errors"

// Validate checks the red-black shape, the parent links, the left subtree
// aggregates and the sentinel slot. It walks the whole tree.
func (t *Tree) Validate() error {
	if len(t.nodes) == 0 {
		return nil
	}
	if s := t.nodes[Sentinel]; s.color != black || s.sizeLeft != 0 || s.lfLeft != 0 || s.piece != (Piece{}) ||
		s.left != Sentinel || s.right != Sentinel || s.parent != Sentinel {
		return errors.AssertionFailedf("rbtree: sentinel mutated: %+v", s)
	}
	if t.root == Sentinel {
		if t.count != 0 {
			return errors.AssertionFailedf("rbtree: empty tree counts %d nodes", t.count)
		}
		return nil
	}
	if t.nodes[t.root].color != black {
		return errors.AssertionFailedf("rbtree: root %d is red", t.root)
	}
	if p := t.nodes[t.root].parent; p != Sentinel {
		return errors.AssertionFailedf("rbtree: root %d has parent %d", t.root, p)
	}
	v := validator{t: t}
	if _, _, _, err := v.walk(t.root); err != nil {
		return err
	}
	if v.count != t.count {
		return errors.AssertionFailedf("rbtree: reached %d nodes, counted %d", v.count, t.count)
	}
	return nil
}

type validator struct {
	t     *Tree
	count int
}

// walk returns the black height, total length and line feed count of the subtree at x.
func (v *validator) walk(x NodeID) (blackHeight, size, lf int, err error) {
	if x == Sentinel {
		return 1, 0, 0, nil
	}
	v.count++
	if v.count > v.t.count {
		return 0, 0, 0, errors.AssertionFailedf("rbtree: cycle or stray node at %d", x)
	}
	n := &v.t.nodes[x]
	for _, c := range [2]NodeID{n.left, n.right} {
		if c == Sentinel {
			continue
		}
		if v.t.nodes[c].parent != x {
			return 0, 0, 0, errors.AssertionFailedf("rbtree: node %d has parent %d, want %d", c, v.t.nodes[c].parent, x)
		}
		if n.color == red && v.t.nodes[c].color == red {
			return 0, 0, 0, errors.AssertionFailedf("rbtree: red node %d has red child %d", x, c)
		}
	}

	lh, ls, llf, err := v.walk(n.left)
	if err != nil {
		return
	}
	rh, rs, rlf, err := v.walk(n.right)
	if err != nil {
		return
	}
	if lh != rh {
		return 0, 0, 0, errors.AssertionFailedf("rbtree: black height %d != %d under node %d", lh, rh, x)
	}
	if ls != n.sizeLeft {
		return 0, 0, 0, errors.AssertionFailedf("rbtree: node %d size_left %d, want %d", x, n.sizeLeft, ls)
	}
	if llf != n.lfLeft {
		return 0, 0, 0, errors.AssertionFailedf("rbtree: node %d lf_left %d, want %d", x, n.lfLeft, llf)
	}
	if n.color == black {
		lh++
	}
	return lh, ls + n.piece.Length + rs, llf + n.piece.LineFeedCount + rlf, nil
}
