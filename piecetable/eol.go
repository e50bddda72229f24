package piecetable

import "github.com/dacapoday/piecetree"

// SetEOL rewrites every line break of the document to eol and rebuilds the
// table from chunks between two thirds and four thirds of the buffer size.
func (t *Table) SetEOL(eol piecetree.EndOfLine) {
	if eol == t.eol && t.eolNormalized {
		return
	}
	low := t.bufferSize - t.bufferSize/3
	high := 2 * low
	sep := eol.Bytes()

	var chunks []StringBuffer
	var pending []byte
	for _, piece := range t.tree.Pieces {
		content := t.pieceBytes(piece)
		if len(pending) <= low || len(pending)+len(content) < high {
			pending = append(pending, content...)
			continue
		}
		chunks = append(chunks, NewStringBuffer(ReplaceLineBreaks(pending, sep)))
		pending = append(pending[:0:0], content...)
	}
	if len(pending) > 0 {
		chunks = append(chunks, NewStringBuffer(ReplaceLineBreaks(pending, sep)))
	}
	t.create(chunks, eol, true)
}
