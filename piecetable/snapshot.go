package piecetable

import (
	"io"
	"slices"
)

// Snapshot is a point-in-time view of a table's content, read piece by piece.
// It pins the byte spans of the pieces at creation time, so later edits of the
// table never show through. A Snapshot is read once.
type Snapshot struct {
	bom   []byte
	spans [][]byte
	index int
}

// CreateSnapshot captures the current content of the table, prefixed by bom.
func (t *Table) CreateSnapshot(bom []byte) *Snapshot {
	s := &Snapshot{
		bom:   slices.Clone(bom),
		spans: make([][]byte, 0, t.tree.Len()),
	}
	for _, piece := range t.tree.Pieces {
		s.spans = append(s.spans, t.pieceBytes(piece))
	}
	return s
}

// Read returns the next chunk of content, or nil once the snapshot is drained.
// The first chunk carries the byte order mark; an empty document yields it alone.
// Returned chunks belong to the caller.
func (s *Snapshot) Read() []byte {
	if len(s.spans) == 0 {
		if s.index == 0 {
			s.index++
			return append([]byte{}, s.bom...)
		}
		return nil
	}
	if s.index >= len(s.spans) {
		return nil
	}
	i := s.index
	s.index++
	if i == 0 {
		return append(append(make([]byte, 0, len(s.bom)+len(s.spans[0])), s.bom...), s.spans[0]...)
	}
	return slices.Clone(s.spans[i])
}

// WriteTo writes the unread content of the snapshot to w.
func (s *Snapshot) WriteTo(w io.Writer) (n int64, err error) {
	if s.index == 0 && len(s.bom) > 0 {
		m, err := w.Write(s.bom)
		n += int64(m)
		if err != nil {
			return n, err
		}
	}
	if len(s.spans) == 0 {
		s.index = 1
		return n, nil
	}
	for ; s.index < len(s.spans); s.index++ {
		m, err := w.Write(s.spans[s.index])
		n += int64(m)
		if err != nil {
			return n, err
		}
	}
	return n, nil
}
