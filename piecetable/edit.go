package piecetable

import (
	"bytes"
	"unicode/utf8"

	"github.com/dacapoday/piecetree"
)

// Insert inserts value at offset, clamped to [0, Length()].
//
// eolNormalized claims that every line break in value is EOL(); the claim is
// checked, and a false claim clears the normalized state of the table.
func (t *Table) Insert(offset int, value []byte, eolNormalized bool) {
	if len(value) == 0 {
		return
	}
	offset = max(0, min(offset, t.length))
	value = bytes.Clone(value)
	t.eolNormalized = t.eolNormalized && eolNormalized && isNormalized(value, t.eol)
	t.resetLastVisited()

	if t.tree.Empty() {
		pieces := t.createNewPieces(value)
		node := t.tree.InsertLeft(sentinel, pieces[0])
		for _, piece := range pieces[1:] {
			node = t.tree.InsertRight(node, piece)
		}
		t.computeBufferMetadata()
		t.check()
		return
	}

	np, _ := t.nodeAt(offset)
	t.cache.validate(offset)
	node, remainder, nodeStart := np.node, np.remainder, np.startOffset
	piece := t.tree.Piece(node)
	bufferIndex := piece.BufferIndex
	insertPos := t.positionInBuffer(node, remainder)

	switch {
	case bufferIndex == 0 &&
		piece.End == t.lastChange &&
		nodeStart+piece.Length == offset &&
		len(value) < t.bufferSize:
		// typing at the end of the last appended piece
		t.appendToNode(node, value)

	case nodeStart == offset:
		t.insertContentToNodeLeft(value, node)

	case nodeStart+piece.Length > offset:
		var toDelete []NodeID
		right := Piece{
			BufferIndex:   bufferIndex,
			Start:         insertPos,
			End:           piece.End,
			Length:        t.offsetInBuffer(bufferIndex, piece.End) - t.offsetInBuffer(bufferIndex, insertPos),
			LineFeedCount: t.lineFeedCount(bufferIndex, insertPos, piece.End),
		}

		if t.shouldCheckCRLF() && endsWithCR(value) && t.charAt(node, remainder) == '\n' {
			// the right half gives its leading \n to the inserted \r
			start := BufferCursor{Line: right.Start.Line + 1}
			right = Piece{
				BufferIndex:   bufferIndex,
				Start:         start,
				End:           right.End,
				Length:        right.Length - 1,
				LineFeedCount: t.lineFeedCount(bufferIndex, start, right.End),
			}
			value = append(value, '\n')
		}

		if t.shouldCheckCRLF() && startsWithLF(value) && t.charAt(node, remainder-1) == '\r' {
			// the left half gives its trailing \r to the inserted \n
			t.deleteNodeTail(node, t.positionInBuffer(node, remainder-1))
			value = append([]byte{'\r'}, value...)
			if t.tree.Piece(node).Length == 0 {
				toDelete = append(toDelete, node)
			}
		} else {
			t.deleteNodeTail(node, insertPos)
		}

		pieces := t.createNewPieces(value)
		if right.Length > 0 {
			t.tree.InsertRight(node, right)
		}
		tmp := node
		for _, p := range pieces {
			tmp = t.tree.InsertRight(tmp, p)
		}
		t.deleteNodes(toDelete)

	default:
		t.insertContentToNodeRight(value, node)
	}

	t.computeBufferMetadata()
	t.check()
}

// Delete removes count bytes starting at offset. The span is clamped to the document.
func (t *Table) Delete(offset, count int) {
	t.resetLastVisited()
	if count <= 0 || t.tree.Empty() {
		return
	}
	end := max(0, min(offset+count, t.length))
	offset = max(0, min(offset, t.length))
	count = end - offset
	if count <= 0 {
		return
	}

	startPos, _ := t.nodeAt(offset)
	endPos, _ := t.nodeAt(offset + count)
	t.cache.validate(offset)
	startNode, endNode := startPos.node, endPos.node

	if startNode == endNode {
		startSplit := t.positionInBuffer(startNode, startPos.remainder)
		endSplit := t.positionInBuffer(startNode, endPos.remainder)
		piece := t.tree.Piece(startNode)

		switch {
		case startPos.startOffset == offset && count == piece.Length:
			next := t.tree.Next(startNode)
			t.deleteNode(startNode)
			t.validateCRLFWithPrevNode(next)
		case startPos.startOffset == offset:
			t.deleteNodeHead(startNode, endSplit)
			t.validateCRLFWithPrevNode(startNode)
		case startPos.startOffset+piece.Length == offset+count:
			t.deleteNodeTail(startNode, startSplit)
			t.validateCRLFWithNextNode(startNode)
		default:
			t.shrinkNode(startNode, startSplit, endSplit)
		}
		t.computeBufferMetadata()
		t.check()
		return
	}

	var toDelete []NodeID

	t.deleteNodeTail(startNode, t.positionInBuffer(startNode, startPos.remainder))
	if t.tree.Piece(startNode).Length == 0 {
		toDelete = append(toDelete, startNode)
	}

	t.deleteNodeHead(endNode, t.positionInBuffer(endNode, endPos.remainder))
	if t.tree.Piece(endNode).Length == 0 {
		toDelete = append(toDelete, endNode)
	}

	for node := t.tree.Next(startNode); node != sentinel && node != endNode; node = t.tree.Next(node) {
		toDelete = append(toDelete, node)
	}

	prev := startNode
	if t.tree.Piece(startNode).Length == 0 {
		prev = t.tree.Prev(startNode)
	}
	t.deleteNodes(toDelete)
	t.validateCRLFWithNextNode(prev)
	t.computeBufferMetadata()
	t.check()
}

func (t *Table) insertContentToNodeLeft(value []byte, node NodeID) {
	var toDelete []NodeID
	if t.shouldCheckCRLF() && endsWithCR(value) && t.startsWithLF(node) {
		// move the leading \n of node into the new text
		piece := t.tree.Piece(node)
		start := BufferCursor{Line: piece.Start.Line + 1}
		shrunk := Piece{
			BufferIndex:   piece.BufferIndex,
			Start:         start,
			End:           piece.End,
			Length:        piece.Length - 1,
			LineFeedCount: t.lineFeedCount(piece.BufferIndex, start, piece.End),
		}
		t.tree.SetPiece(node, shrunk)
		t.tree.UpdateMetadata(node, -1, shrunk.LineFeedCount-piece.LineFeedCount)
		value = append(value, '\n')
		if shrunk.Length == 0 {
			toDelete = append(toDelete, node)
		}
	}

	pieces := t.createNewPieces(value)
	newNode := t.tree.InsertLeft(node, pieces[len(pieces)-1])
	for k := len(pieces) - 2; k >= 0; k-- {
		newNode = t.tree.InsertLeft(newNode, pieces[k])
	}
	t.validateCRLFWithPrevNode(newNode)
	t.deleteNodes(toDelete)
}

func (t *Table) insertContentToNodeRight(value []byte, node NodeID) {
	if t.adjustCarriageReturnFromNext(value, node) {
		value = append(value, '\n')
	}

	pieces := t.createNewPieces(value)
	newNode := t.tree.InsertRight(node, pieces[0])
	tmp := newNode
	for _, piece := range pieces[1:] {
		tmp = t.tree.InsertRight(tmp, piece)
	}
	t.validateCRLFWithPrevNode(newNode)
}

// appendToNode grows the piece of node, which ends at the tail of buffer 0, by value.
func (t *Table) appendToNode(node NodeID, value []byte) {
	if t.adjustCarriageReturnFromNext(value, node) {
		value = append(value, '\n')
	}

	hitCRLF := t.shouldCheckCRLF() && startsWithLF(value) && t.endsWithCR(node)
	b0 := &t.buffers[0]
	startOffset := len(b0.Buffer)
	b0.Buffer = append(b0.Buffer, value...)
	if hitCRLF {
		// the trailing \r and the leading \n now form one line break
		b0.LineStarts = b0.LineStarts[:len(b0.LineStarts)-1]
	}
	b0.LineStarts = appendLineStarts(b0.LineStarts, value, startOffset)

	endIndex := len(b0.LineStarts) - 1
	newEnd := BufferCursor{Line: endIndex, Column: len(b0.Buffer) - b0.LineStarts[endIndex]}
	piece := t.tree.Piece(node)
	lineFeeds := t.lineFeedCount(0, piece.Start, newEnd)
	t.tree.SetPiece(node, Piece{
		BufferIndex:   piece.BufferIndex,
		Start:         piece.Start,
		End:           newEnd,
		Length:        piece.Length + len(value),
		LineFeedCount: lineFeeds,
	})
	t.lastChange = newEnd
	t.tree.UpdateMetadata(node, len(value), lineFeeds-piece.LineFeedCount)
}

// createNewPieces stores text in backing buffers and returns pieces covering it.
// Text up to the buffer size is appended to buffer 0; larger text is split
// into new buffers, never between \r and \n nor inside a UTF-8 sequence.
func (t *Table) createNewPieces(text []byte) []Piece {
	if len(text) > t.bufferSize {
		var pieces []Piece
		for len(text) > t.bufferSize {
			n := splitPoint(text, t.bufferSize)
			pieces = append(pieces, t.addBuffer(text[:n:n]))
			text = text[n:]
		}
		return append(pieces, t.addBuffer(text))
	}

	b0 := &t.buffers[0]
	startOffset := len(b0.Buffer)
	start := t.lastChange
	if startOffset != 0 &&
		b0.LineStarts[len(b0.LineStarts)-1] == startOffset &&
		startsWithLF(text) &&
		endsWithCR(b0.Buffer) {
		// a filler byte keeps the buffered \r and the new \n apart
		t.lastChange.Column++
		start = t.lastChange
		b0.Buffer = append(b0.Buffer, '_')
		startOffset++
	}
	b0.LineStarts = appendLineStarts(b0.LineStarts, text, startOffset)
	b0.Buffer = append(b0.Buffer, text...)

	endIndex := len(b0.LineStarts) - 1
	end := BufferCursor{Line: endIndex, Column: len(b0.Buffer) - b0.LineStarts[endIndex]}
	piece := Piece{
		BufferIndex:   0,
		Start:         start,
		End:           end,
		Length:        len(b0.Buffer) - startOffset,
		LineFeedCount: t.lineFeedCount(0, start, end),
	}
	t.lastChange = end
	return []Piece{piece}
}

func splitPoint(text []byte, size int) int {
	n := size
	if text[n-1] == '\r' {
		return n - 1
	}
	for i := 0; i < utf8.UTFMax-1 && n > 1 && !utf8.RuneStart(text[n]); i++ {
		n--
	}
	return n
}

// addBuffer freezes chunk as a new backing buffer and returns the piece covering it.
func (t *Table) addBuffer(chunk []byte) Piece {
	lineStarts := CreateLineStarts(chunk)
	lines := len(lineStarts) - 1
	t.buffers = append(t.buffers, StringBuffer{Buffer: chunk, LineStarts: lineStarts})
	return Piece{
		BufferIndex:   len(t.buffers) - 1,
		End:           BufferCursor{Line: lines, Column: len(chunk) - lineStarts[lines]},
		Length:        len(chunk),
		LineFeedCount: lines,
	}
}

func (t *Table) deleteNodeTail(node NodeID, pos BufferCursor) {
	piece := t.tree.Piece(node)
	lineFeeds := t.lineFeedCount(piece.BufferIndex, piece.Start, pos)
	sizeDelta := t.offsetInBuffer(piece.BufferIndex, pos) - t.offsetInBuffer(piece.BufferIndex, piece.End)
	t.tree.SetPiece(node, Piece{
		BufferIndex:   piece.BufferIndex,
		Start:         piece.Start,
		End:           pos,
		Length:        piece.Length + sizeDelta,
		LineFeedCount: lineFeeds,
	})
	t.tree.UpdateMetadata(node, sizeDelta, lineFeeds-piece.LineFeedCount)
}

func (t *Table) deleteNodeHead(node NodeID, pos BufferCursor) {
	piece := t.tree.Piece(node)
	lineFeeds := t.lineFeedCount(piece.BufferIndex, pos, piece.End)
	sizeDelta := t.offsetInBuffer(piece.BufferIndex, piece.Start) - t.offsetInBuffer(piece.BufferIndex, pos)
	t.tree.SetPiece(node, Piece{
		BufferIndex:   piece.BufferIndex,
		Start:         pos,
		End:           piece.End,
		Length:        piece.Length + sizeDelta,
		LineFeedCount: lineFeeds,
	})
	t.tree.UpdateMetadata(node, sizeDelta, lineFeeds-piece.LineFeedCount)
}

// shrinkNode cuts [start, end) out of the middle of the piece of node,
// leaving two pieces.
func (t *Table) shrinkNode(node NodeID, start, end BufferCursor) {
	piece := t.tree.Piece(node)
	bi := piece.BufferIndex

	lineFeeds := t.lineFeedCount(bi, piece.Start, start)
	length := t.offsetInBuffer(bi, start) - t.offsetInBuffer(bi, piece.Start)
	t.tree.SetPiece(node, Piece{
		BufferIndex:   bi,
		Start:         piece.Start,
		End:           start,
		Length:        length,
		LineFeedCount: lineFeeds,
	})
	t.tree.UpdateMetadata(node, length-piece.Length, lineFeeds-piece.LineFeedCount)

	newNode := t.tree.InsertRight(node, Piece{
		BufferIndex:   bi,
		Start:         end,
		End:           piece.End,
		Length:        t.offsetInBuffer(bi, piece.End) - t.offsetInBuffer(bi, end),
		LineFeedCount: t.lineFeedCount(bi, end, piece.End),
	})
	t.validateCRLFWithPrevNode(newNode)
}

func isNormalized(b []byte, eol piecetree.EndOfLine) bool {
	if eol == piecetree.LF {
		return bytes.IndexByte(b, '\r') < 0
	}
	for i, c := range b {
		switch c {
		case '\r':
			if i+1 >= len(b) || b[i+1] != '\n' {
				return false
			}
		case '\n':
			if i == 0 || b[i-1] != '\r' {
				return false
			}
		}
	}
	return true
}
