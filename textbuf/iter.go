package textbuf

import (
	"github.com/dacapoday/piecetree"
	"github.com/dacapoday/piecetree/iterator"
)

// LineIter walks the lines of a Buffer. Any mutation of the buffer after the
// iterator was positioned invalidates it with piecetree.ErrModified.
type LineIter struct {
	buf     *Buffer
	version uint64
	line    int // 0 when not positioned
	err     error
}

var _ iterator.Iterator = (*LineIter)(nil)

// Lines returns an unpositioned iterator over the lines of b.
func (b *Buffer) Lines() *LineIter {
	return &LineIter{buf: b}
}

func (it *LineIter) Valid() bool { return !it.stale() && it.line > 0 }

func (it *LineIter) Error() error { return it.err }

func (it *LineIter) Line() int { return it.line }

// Bytes returns the current line without its line break, or nil when the
// iterator is not valid.
func (it *LineIter) Bytes() []byte {
	if !it.Valid() {
		return nil
	}
	return it.buf.LineContent(it.line)
}

func (it *LineIter) position(line int) bool {
	if line < 1 || line > it.buf.LineCount() {
		it.line = 0
		return false
	}
	it.line = line
	it.version = it.buf.version
	it.err = nil
	return true
}

func (it *LineIter) stale() bool {
	if it.line > 0 && it.version != it.buf.version {
		it.err = piecetree.ErrModified
		it.line = 0
	}
	return it.err != nil
}

func (it *LineIter) Next() bool {
	if it.stale() || it.line == 0 {
		return false
	}
	return it.position(it.line + 1)
}

func (it *LineIter) Prev() bool {
	if it.stale() || it.line == 0 {
		return false
	}
	return it.position(it.line - 1)
}

func (it *LineIter) SeekFirst() bool { return it.position(1) }

func (it *LineIter) SeekLast() bool { return it.position(it.buf.LineCount()) }

func (it *LineIter) Seek(line int) bool { return it.position(max(line, 1)) }
