package piecetable

import (
	"slices"

	"github.com/dacapoday/piecetree/internal/rbtree"
)

type cacheEntry struct {
	node        rbtree.NodeID
	startLine   int // 1-based line at which the node starts, 0 if unknown
	startOffset int
}

// searchCache remembers the most recent tree descents, newest last.
type searchCache struct {
	limit   int
	entries []cacheEntry
}

func newSearchCache(limit int) searchCache {
	return searchCache{limit: limit, entries: make([]cacheEntry, 0, limit)}
}

// get returns the newest entry whose node covers offset, bounds inclusive.
func (c *searchCache) get(tree *rbtree.Tree, offset int) (cacheEntry, bool) {
	for i := len(c.entries) - 1; i >= 0; i-- {
		e := c.entries[i]
		if e.startOffset <= offset && e.startOffset+tree.Piece(e.node).Length >= offset {
			return e, true
		}
	}
	return cacheEntry{}, false
}

// getLine returns the newest entry whose node contains the start of line
// at a position other than its own first byte.
func (c *searchCache) getLine(tree *rbtree.Tree, line int) (cacheEntry, bool) {
	for i := len(c.entries) - 1; i >= 0; i-- {
		e := c.entries[i]
		if e.startLine > 0 && e.startLine < line && e.startLine+tree.Piece(e.node).LineFeedCount >= line {
			return e, true
		}
	}
	return cacheEntry{}, false
}

func (c *searchCache) set(e cacheEntry) {
	if len(c.entries) >= c.limit {
		c.entries = slices.Delete(c.entries, 0, len(c.entries)-c.limit+1)
	}
	c.entries = append(c.entries, e)
}

// validate drops every entry starting at or after offset.
func (c *searchCache) validate(offset int) {
	c.entries = slices.DeleteFunc(c.entries, func(e cacheEntry) bool {
		return e.startOffset >= offset
	})
}

// remove drops every entry referring to node. Called before its slot is freed.
func (c *searchCache) remove(node rbtree.NodeID) {
	c.entries = slices.DeleteFunc(c.entries, func(e cacheEntry) bool {
		return e.node == node
	})
}

func (c *searchCache) reset() {
	c.entries = c.entries[:0]
}
