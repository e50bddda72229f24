// Package piecetable stores a mutable document as a piece table: append-only
// backing buffers plus an augmented red-black tree of pieces referring to slices
// of them.
//
// Offsets are byte offsets into the document. Lines and columns are 1-based.
// A Table is not safe for concurrent use; snapshots are.
package piecetable

import (
	"bytes"

	"github.com/cockroachdb/errors"
	"github.com/dacapoday/piecetree"
	"github.com/dacapoday/piecetree/internal/invariants"
	"github.com/dacapoday/piecetree/internal/rbtree"
)

type (
	NodeID       = rbtree.NodeID
	Piece        = rbtree.Piece
	BufferCursor = rbtree.BufferCursor
)

const sentinel = rbtree.Sentinel

// Table is a piece table.
//
// Buffer 0 is the only buffer that ever grows; every other buffer is frozen
// from the moment it is added.
type Table struct {
	buffers []StringBuffer
	tree    rbtree.Tree

	length    int
	lineCount int

	eol           piecetree.EndOfLine
	eolNormalized bool

	// end of buffer 0, where the next small insert is appended
	lastChange BufferCursor

	cache       searchCache
	lastVisited struct {
		line  int
		value []byte
	}

	bufferSize int
}

// New builds a table holding chunks in order, one piece per non-empty chunk.
// Chunks without line starts get them computed. The table takes ownership
// of the chunk buffers; callers must not modify them afterwards.
//
// eolNormalized claims that every line break in chunks is eol.
func New(chunks []StringBuffer, eol piecetree.EndOfLine, eolNormalized bool, opt any) *Table {
	t := &Table{
		bufferSize: getBufferSize(opt),
		cache:      newSearchCache(getSearchCacheSize(opt)),
	}
	t.create(chunks, eol, eolNormalized)
	return t
}

func (t *Table) create(chunks []StringBuffer, eol piecetree.EndOfLine, eolNormalized bool) {
	t.buffers = append(make([]StringBuffer, 0, len(chunks)+1), StringBuffer{LineStarts: []int{0}})
	t.tree.Reset()
	t.eol = eol
	t.eolNormalized = eolNormalized
	t.lastChange = BufferCursor{}

	last := sentinel
	for _, chunk := range chunks {
		if len(chunk.Buffer) == 0 {
			continue
		}
		if len(chunk.LineStarts) == 0 {
			chunk.LineStarts = CreateLineStarts(chunk.Buffer)
		}
		lines := len(chunk.LineStarts) - 1
		piece := Piece{
			BufferIndex:   len(t.buffers),
			End:           BufferCursor{Line: lines, Column: len(chunk.Buffer) - chunk.LineStarts[lines]},
			Length:        len(chunk.Buffer),
			LineFeedCount: lines,
		}
		t.buffers = append(t.buffers, chunk)
		last = t.tree.InsertRight(last, piece)
	}

	t.cache.reset()
	t.resetLastVisited()
	t.computeBufferMetadata()
	t.check()
}

// Length returns the document length in bytes.
func (t *Table) Length() int { return t.length }

// LineCount returns the number of lines, which is one more than the number of line breaks.
func (t *Table) LineCount() int { return t.lineCount }

// EOL returns the preferred end of line of the document.
func (t *Table) EOL() piecetree.EndOfLine { return t.eol }

// EOLNormalized reports whether every line break in the document is EOL().
func (t *Table) EOLNormalized() bool { return t.eolNormalized }

// PieceCount returns the number of pieces in the tree.
func (t *Table) PieceCount() int { return t.tree.Len() }

func (t *Table) computeBufferMetadata() {
	length, lineFeeds := t.tree.Totals()
	t.length = length
	t.lineCount = lineFeeds + 1
	t.cache.validate(t.length)
}

func (t *Table) resetLastVisited() {
	t.lastVisited.line = 0
	t.lastVisited.value = nil
}

func (t *Table) check() {
	invariants.Check(t.Validate)
}

func (t *Table) shouldCheckCRLF() bool {
	return !(t.eolNormalized && t.eol == piecetree.LF)
}

func (t *Table) offsetInBuffer(bufferIndex int, cursor BufferCursor) int {
	return t.buffers[bufferIndex].LineStarts[cursor.Line] + cursor.Column
}

// positionInBuffer converts a remainder inside the piece of node to a buffer cursor.
func (t *Table) positionInBuffer(node NodeID, remainder int) BufferCursor {
	piece := t.tree.Piece(node)
	lineStarts := t.buffers[piece.BufferIndex].LineStarts
	offset := lineStarts[piece.Start.Line] + piece.Start.Column + remainder

	low, high := piece.Start.Line, piece.End.Line
	mid, midStart := 0, 0
	for low <= high {
		mid = low + (high-low)/2
		midStart = lineStarts[mid]
		if mid == high {
			break
		}
		midStop := lineStarts[mid+1]
		if offset < midStart {
			high = mid - 1
		} else if offset >= midStop {
			low = mid + 1
		} else {
			break
		}
	}
	return BufferCursor{Line: mid, Column: offset - midStart}
}

// lineFeedCount counts the line breaks in [start, end) of a buffer.
// An end sitting between \r and \n still owns the break of that \r.
func (t *Table) lineFeedCount(bufferIndex int, start, end BufferCursor) int {
	if end.Column == 0 {
		return end.Line - start.Line
	}
	buf := &t.buffers[bufferIndex]
	if end.Line == len(buf.LineStarts)-1 {
		return end.Line - start.Line
	}
	nextLineStart := buf.LineStarts[end.Line+1]
	endOffset := buf.LineStarts[end.Line] + end.Column
	if nextLineStart > endOffset+1 {
		return end.Line - start.Line
	}
	// the byte at endOffset is \n
	if buf.Buffer[endOffset-1] == '\r' {
		return end.Line - start.Line + 1
	}
	return end.Line - start.Line
}

// accumulatedValue returns the length of the piece of node up to the end of
// its index-th line break, or the whole piece when it has fewer breaks.
func (t *Table) accumulatedValue(node NodeID, index int) int {
	if index < 0 {
		return 0
	}
	piece := t.tree.Piece(node)
	lineStarts := t.buffers[piece.BufferIndex].LineStarts
	expected := piece.Start.Line + index + 1
	if expected > piece.End.Line {
		return lineStarts[piece.End.Line] + piece.End.Column - lineStarts[piece.Start.Line] - piece.Start.Column
	}
	return lineStarts[expected] - lineStarts[piece.Start.Line] - piece.Start.Column
}

// indexOf returns how many line breaks of the piece of node precede accumulated,
// and the column of accumulated on its line.
func (t *Table) indexOf(node NodeID, accumulated int) (index, remainder int) {
	piece := t.tree.Piece(node)
	pos := t.positionInBuffer(node, accumulated)
	lineCount := pos.Line - piece.Start.Line

	if t.offsetInBuffer(piece.BufferIndex, piece.End)-t.offsetInBuffer(piece.BufferIndex, piece.Start) == accumulated {
		// end of the piece: it may end between \r and \n
		if real := t.lineFeedCount(piece.BufferIndex, piece.Start, pos); real != lineCount {
			return real, 0
		}
	}
	return lineCount, pos.Column
}

// charAt returns the byte at offset inside the piece of node,
// or -1 when the piece has no line break.
func (t *Table) charAt(node NodeID, offset int) int {
	piece := t.tree.Piece(node)
	if piece.LineFeedCount < 1 {
		return -1
	}
	return int(t.buffers[piece.BufferIndex].Buffer[t.offsetInBuffer(piece.BufferIndex, piece.Start)+offset])
}

func (t *Table) startsWithLF(node NodeID) bool {
	if node == sentinel {
		return false
	}
	piece := t.tree.Piece(node)
	if piece.LineFeedCount == 0 {
		return false
	}
	buf := &t.buffers[piece.BufferIndex]
	line := piece.Start.Line
	startOffset := buf.LineStarts[line] + piece.Start.Column
	if line == len(buf.LineStarts)-1 {
		return false
	}
	if buf.LineStarts[line+1] > startOffset+1 {
		return false
	}
	return buf.Buffer[startOffset] == '\n'
}

func (t *Table) endsWithCR(node NodeID) bool {
	if node == sentinel {
		return false
	}
	piece := t.tree.Piece(node)
	if piece.LineFeedCount == 0 {
		return false
	}
	return t.charAt(node, piece.Length-1) == '\r'
}

// pieceBytes returns the bytes of piece, aliasing the backing buffer.
func (t *Table) pieceBytes(piece Piece) []byte {
	start := t.offsetInBuffer(piece.BufferIndex, piece.Start)
	end := t.offsetInBuffer(piece.BufferIndex, piece.End)
	return t.buffers[piece.BufferIndex].Buffer[start:end:end]
}

// deleteNode removes node from the tree, dropping cached lookups that refer to it.
func (t *Table) deleteNode(node NodeID) {
	t.cache.remove(node)
	t.tree.Delete(node)
}

func (t *Table) deleteNodes(nodes []NodeID) {
	for _, node := range nodes {
		t.deleteNode(node)
	}
}

// Validate checks the tree shape, every piece against its buffer, the CRLF
// pairing across piece boundaries and the cached totals. It walks the whole
// table and is meant for tests and debug builds.
func (t *Table) Validate() error {
	if err := t.tree.Validate(); err != nil {
		return err
	}
	var length, lineFeeds int
	var prevCR bool
	for id, piece := range t.tree.Pieces {
		if piece.BufferIndex < 0 || piece.BufferIndex >= len(t.buffers) {
			return errors.AssertionFailedf("piecetable: node %d refers to buffer %d of %d", id, piece.BufferIndex, len(t.buffers))
		}
		start := t.offsetInBuffer(piece.BufferIndex, piece.Start)
		end := t.offsetInBuffer(piece.BufferIndex, piece.End)
		if end-start != piece.Length || piece.Length <= 0 {
			return errors.AssertionFailedf("piecetable: node %d length %d, spans %d", id, piece.Length, end-start)
		}
		if lf := t.lineFeedCount(piece.BufferIndex, piece.Start, piece.End); lf != piece.LineFeedCount {
			return errors.AssertionFailedf("piecetable: node %d line feed count %d, want %d", id, piece.LineFeedCount, lf)
		}
		content := t.pieceBytes(piece)
		if prevCR && content[0] == '\n' {
			return errors.AssertionFailedf("piecetable: CRLF split in front of node %d", id)
		}
		prevCR = content[len(content)-1] == '\r'
		length += piece.Length
		lineFeeds += piece.LineFeedCount
	}
	if length != t.length {
		return errors.AssertionFailedf("piecetable: length %d, pieces sum to %d", t.length, length)
	}
	if lineFeeds+1 != t.lineCount {
		return errors.AssertionFailedf("piecetable: line count %d, pieces hold %d line feeds", t.lineCount, lineFeeds)
	}
	if b0 := t.buffers[0]; t.offsetInBuffer(0, t.lastChange) != len(b0.Buffer) {
		return errors.AssertionFailedf("piecetable: last change %+v is not the end of buffer 0 (%d)", t.lastChange, len(b0.Buffer))
	}
	return nil
}

// Equal reports whether a and b hold the same bytes.
func Equal(a, b *Table) bool {
	if a.length != b.length || a.lineCount != b.lineCount {
		return false
	}
	return bytes.Equal(a.Content(), b.Content())
}
