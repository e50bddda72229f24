package piecetable

import (
	"bytes"

	"github.com/dacapoday/piecetree"
)

// nodePosition locates a document offset inside the piece of node.
type nodePosition struct {
	node        NodeID
	remainder   int // offset inside the piece
	startOffset int // document offset of the piece
}

// nodeAt finds the piece covering offset, bounds inclusive.
func (t *Table) nodeAt(offset int) (nodePosition, bool) {
	if e, ok := t.cache.get(&t.tree, offset); ok {
		return nodePosition{node: e.node, remainder: offset - e.startOffset, startOffset: e.startOffset}, true
	}

	x := t.tree.Root()
	startOffset := 0
	for x != sentinel {
		sizeLeft, length := t.tree.SizeLeft(x), t.tree.Piece(x).Length
		switch {
		case sizeLeft > offset:
			x = t.tree.Left(x)
		case sizeLeft+length >= offset:
			startOffset += sizeLeft
			t.cache.set(cacheEntry{node: x, startOffset: startOffset})
			return nodePosition{node: x, remainder: offset - sizeLeft, startOffset: startOffset}, true
		default:
			offset -= sizeLeft + length
			startOffset += sizeLeft + length
			x = t.tree.Right(x)
		}
	}
	return nodePosition{}, false
}

// nodeAtPosition finds the piece holding (line, column). A column past the end of
// the line resolves to the end of that line including its line break.
func (t *Table) nodeAtPosition(line, column int) (nodePosition, bool) {
	x := t.tree.Root()
	startOffset := 0
	for x != sentinel {
		piece := t.tree.Piece(x)
		lfLeft := t.tree.LFLeft(x)
		switch {
		case t.tree.Left(x) != sentinel && lfLeft >= line-1:
			x = t.tree.Left(x)
			continue
		case lfLeft+piece.LineFeedCount > line-1:
			prev := t.accumulatedValue(x, line-lfLeft-2)
			acc := t.accumulatedValue(x, line-lfLeft-1)
			startOffset += t.tree.SizeLeft(x)
			return nodePosition{node: x, remainder: min(prev+column-1, acc), startOffset: startOffset}, true
		case lfLeft+piece.LineFeedCount == line-1:
			prev := t.accumulatedValue(x, line-lfLeft-2)
			if prev+column-1 <= piece.Length {
				return nodePosition{node: x, remainder: prev + column - 1, startOffset: startOffset + t.tree.SizeLeft(x)}, true
			}
			column -= piece.Length - prev
		default:
			line -= lfLeft + piece.LineFeedCount
			startOffset += t.tree.SizeLeft(x) + piece.Length
			x = t.tree.Right(x)
			continue
		}
		break
	}
	if x == sentinel {
		return nodePosition{}, false
	}

	// the line continues in the following pieces
	for x = t.tree.Next(x); x != sentinel; x = t.tree.Next(x) {
		piece := t.tree.Piece(x)
		if piece.LineFeedCount > 0 {
			acc := t.accumulatedValue(x, 0)
			return nodePosition{node: x, remainder: min(column-1, acc), startOffset: t.tree.OffsetOf(x)}, true
		}
		if piece.Length >= column-1 {
			return nodePosition{node: x, remainder: column - 1, startOffset: t.tree.OffsetOf(x)}, true
		}
		column -= piece.Length
	}

	last := t.tree.Last()
	return nodePosition{node: last, remainder: t.tree.Piece(last).Length, startOffset: t.tree.OffsetOf(last)}, true
}

// offsetAt resolves (line, column) without clamping.
func (t *Table) offsetAt(line, column int) int {
	leftLen := 0
	x := t.tree.Root()
	for x != sentinel {
		piece := t.tree.Piece(x)
		lfLeft := t.tree.LFLeft(x)
		switch {
		case t.tree.Left(x) != sentinel && lfLeft+1 >= line:
			x = t.tree.Left(x)
		case lfLeft+piece.LineFeedCount+1 >= line:
			leftLen += t.tree.SizeLeft(x)
			return leftLen + t.accumulatedValue(x, line-lfLeft-2) + column - 1
		default:
			line -= lfLeft + piece.LineFeedCount
			leftLen += t.tree.SizeLeft(x) + piece.Length
			x = t.tree.Right(x)
		}
	}
	return leftLen
}

// OffsetAt returns the document offset of (line, column).
// The line is clamped to [1, LineCount()]. A column inside the line, line break
// included, addresses that byte; a column past it resolves to the line end.
func (t *Table) OffsetAt(line, column int) int {
	line = max(1, min(line, t.lineCount))
	column = max(1, column)
	start := t.offsetAt(line, 1)
	if line == t.lineCount {
		return min(start+column-1, t.length)
	}
	if end := t.offsetAt(line+1, 1); start+column-1 >= end {
		return start + t.LineLength(line)
	}
	return start + column - 1
}

// PositionAt returns the (line, column) of a document offset clamped to [0, Length()].
func (t *Table) PositionAt(offset int) piecetree.Position {
	offset = max(0, min(offset, t.length))
	original := offset
	lineFeeds := 0

	x := t.tree.Root()
	for x != sentinel {
		sizeLeft, piece := t.tree.SizeLeft(x), t.tree.Piece(x)
		switch {
		case sizeLeft != 0 && sizeLeft >= offset:
			x = t.tree.Left(x)
		case sizeLeft+piece.Length >= offset:
			index, remainder := t.indexOf(x, offset-sizeLeft)
			lineFeeds += t.tree.LFLeft(x) + index
			if index == 0 {
				lineStart := t.offsetAt(lineFeeds+1, 1)
				return piecetree.Position{Line: lineFeeds + 1, Column: original - lineStart + 1}
			}
			return piecetree.Position{Line: lineFeeds + 1, Column: remainder + 1}
		default:
			offset -= sizeLeft + piece.Length
			lineFeeds += t.tree.LFLeft(x) + piece.LineFeedCount
			if t.tree.Right(x) == sentinel {
				lineStart := t.offsetAt(lineFeeds+1, 1)
				return piecetree.Position{Line: lineFeeds + 1, Column: original - offset - lineStart + 1}
			}
			x = t.tree.Right(x)
		}
	}
	return piecetree.Position{Line: 1, Column: 1}
}

// ValidatePosition clamps pos into the document. The column is clamped to
// [1, LineLength+1], so a valid position never falls inside a line break.
func (t *Table) ValidatePosition(pos piecetree.Position) piecetree.Position {
	if pos.Line < 1 {
		return piecetree.Position{Line: 1, Column: 1}
	}
	if pos.Line > t.lineCount {
		return piecetree.Position{Line: t.lineCount, Column: t.LineLength(t.lineCount) + 1}
	}
	if pos.Column <= 1 {
		return piecetree.Position{Line: pos.Line, Column: 1}
	}
	pos.Column = min(pos.Column, t.LineLength(pos.Line)+1)
	return pos
}

// ValidateRange clamps both ends of r into the document.
func (t *Table) ValidateRange(r piecetree.Range) piecetree.Range {
	return piecetree.RangeFrom(t.ValidatePosition(r.Start()), t.ValidatePosition(r.End()))
}

// lineRawContent returns line including its line break, minus endOffset trailing bytes.
// The result never aliases a backing buffer.
func (t *Table) lineRawContent(line, endOffset int) []byte {
	var ret []byte
	x := t.tree.Root()

	if e, ok := t.cache.getLine(&t.tree, line); ok {
		x = e.node
		piece := t.tree.Piece(x)
		buf := t.buffers[piece.BufferIndex].Buffer
		start := t.offsetInBuffer(piece.BufferIndex, piece.Start)
		prev := t.accumulatedValue(x, line-e.startLine-1)
		if e.startLine+piece.LineFeedCount != line {
			acc := t.accumulatedValue(x, line-e.startLine)
			return bytes.Clone(buf[start+prev : start+acc-endOffset])
		}
		ret = append(ret, buf[start+prev:start+piece.Length]...)
	} else {
		original := line
		startOffset := 0
	descend:
		for x != sentinel {
			piece := t.tree.Piece(x)
			lfLeft := t.tree.LFLeft(x)
			switch {
			case t.tree.Left(x) != sentinel && lfLeft >= line-1:
				x = t.tree.Left(x)
			case lfLeft+piece.LineFeedCount > line-1:
				prev := t.accumulatedValue(x, line-lfLeft-2)
				acc := t.accumulatedValue(x, line-lfLeft-1)
				buf := t.buffers[piece.BufferIndex].Buffer
				start := t.offsetInBuffer(piece.BufferIndex, piece.Start)
				startOffset += t.tree.SizeLeft(x)
				t.cache.set(cacheEntry{
					node:        x,
					startLine:   original - (line - 1 - lfLeft),
					startOffset: startOffset,
				})
				return bytes.Clone(buf[start+prev : start+acc-endOffset])
			case lfLeft+piece.LineFeedCount == line-1:
				prev := t.accumulatedValue(x, line-lfLeft-2)
				buf := t.buffers[piece.BufferIndex].Buffer
				start := t.offsetInBuffer(piece.BufferIndex, piece.Start)
				ret = append(ret, buf[start+prev:start+piece.Length]...)
				break descend
			default:
				line -= lfLeft + piece.LineFeedCount
				startOffset += t.tree.SizeLeft(x) + piece.Length
				x = t.tree.Right(x)
			}
		}
	}

	// the line ends in the first following piece holding a line break
	for x = t.tree.Next(x); x != sentinel; x = t.tree.Next(x) {
		piece := t.tree.Piece(x)
		buf := t.buffers[piece.BufferIndex].Buffer
		start := t.offsetInBuffer(piece.BufferIndex, piece.Start)
		if piece.LineFeedCount > 0 {
			acc := t.accumulatedValue(x, 0)
			return append(ret, buf[start:start+acc-endOffset]...)
		}
		ret = append(ret, buf[start:start+piece.Length]...)
	}
	return ret
}

// LineRawContent returns line including its line break, or nil outside [1, LineCount()].
func (t *Table) LineRawContent(line int) []byte {
	if line < 1 || line > t.lineCount {
		return nil
	}
	return t.lineRawContent(line, 0)
}

// LineContent returns line without its line break, or nil outside [1, LineCount()].
// The returned slice belongs to the caller.
func (t *Table) LineContent(line int) []byte {
	if line < 1 || line > t.lineCount {
		return nil
	}
	if t.lastVisited.line == line && t.lastVisited.value != nil {
		return bytes.Clone(t.lastVisited.value)
	}

	var value []byte
	switch {
	case line == t.lineCount:
		value = t.lineRawContent(line, 0)
	case t.eolNormalized:
		value = t.lineRawContent(line, t.eol.Len())
	default:
		value = trimLineBreak(t.lineRawContent(line, 0))
	}
	if value == nil {
		value = []byte{}
	}
	t.lastVisited.line = line
	t.lastVisited.value = value
	return bytes.Clone(value)
}

func trimLineBreak(b []byte) []byte {
	switch {
	case bytes.HasSuffix(b, []byte("\r\n")):
		return b[:len(b)-2]
	case bytes.HasSuffix(b, []byte("\n")), bytes.HasSuffix(b, []byte("\r")):
		return b[:len(b)-1]
	}
	return b
}

// LineLength returns the length of line without its line break, or 0 outside [1, LineCount()].
func (t *Table) LineLength(line int) int {
	if line < 1 || line > t.lineCount {
		return 0
	}
	if line == t.lineCount {
		return t.length - t.offsetAt(line, 1)
	}
	if t.eolNormalized {
		return t.offsetAt(line+1, 1) - t.offsetAt(line, 1) - t.eol.Len()
	}
	return len(t.LineContent(line))
}

// ByteAt returns the byte at the 0-based index of line, or 0 when there is none.
func (t *Table) ByteAt(line, index int) byte {
	if line < 1 || line > t.lineCount || index < 0 {
		return 0
	}
	np, ok := t.nodeAtPosition(line, index+1)
	if !ok {
		return 0
	}
	piece := t.tree.Piece(np.node)
	if np.remainder == piece.Length {
		// the byte is the head of the next piece
		next := t.tree.Next(np.node)
		if next == sentinel {
			return 0
		}
		piece = t.tree.Piece(next)
		return t.buffers[piece.BufferIndex].Buffer[t.offsetInBuffer(piece.BufferIndex, piece.Start)]
	}
	return t.buffers[piece.BufferIndex].Buffer[t.offsetInBuffer(piece.BufferIndex, piece.Start)+np.remainder]
}

// valueBetween concatenates the document bytes between two resolved positions.
func (t *Table) valueBetween(start, end nodePosition) []byte {
	if start.node == end.node {
		piece := t.tree.Piece(start.node)
		buf := t.buffers[piece.BufferIndex].Buffer
		offset := t.offsetInBuffer(piece.BufferIndex, piece.Start)
		return bytes.Clone(buf[offset+start.remainder : offset+end.remainder])
	}

	x := start.node
	piece := t.tree.Piece(x)
	offset := t.offsetInBuffer(piece.BufferIndex, piece.Start)
	ret := append([]byte(nil), t.buffers[piece.BufferIndex].Buffer[offset+start.remainder:offset+piece.Length]...)

	for x = t.tree.Next(x); x != sentinel; x = t.tree.Next(x) {
		piece = t.tree.Piece(x)
		buf := t.buffers[piece.BufferIndex].Buffer
		offset = t.offsetInBuffer(piece.BufferIndex, piece.Start)
		if x == end.node {
			ret = append(ret, buf[offset:offset+end.remainder]...)
			break
		}
		ret = append(ret, buf[offset:offset+piece.Length]...)
	}
	return ret
}

// clampPosition clamps pos into the document. Unlike ValidatePosition, a column
// may address the bytes of the line break, up to the start of the next line.
func (t *Table) clampPosition(pos piecetree.Position) piecetree.Position {
	if pos.Line < 1 {
		return piecetree.Position{Line: 1, Column: 1}
	}
	if pos.Line > t.lineCount {
		return piecetree.Position{Line: t.lineCount, Column: t.LineLength(t.lineCount) + 1}
	}
	maxColumn := t.LineLength(pos.Line) + 1
	if pos.Line < t.lineCount {
		maxColumn = t.offsetAt(pos.Line+1, 1) - t.offsetAt(pos.Line, 1) + 1
	}
	pos.Column = max(1, min(pos.Column, maxColumn))
	return pos
}

// ValueInRange returns the bytes covered by r, clamped into the document.
// A column may address the bytes of a line break, so a range can end between
// \r and \n. TextDefined returns the stored bytes; PreferLF and PreferCRLF
// rewrite every line break to that end of line.
func (t *Table) ValueInRange(r piecetree.Range, pref piecetree.EndOfLinePreference) []byte {
	r = piecetree.RangeFrom(t.clampPosition(r.Start()), t.clampPosition(r.End()))
	if r.IsEmpty() {
		return []byte{}
	}
	start, ok := t.nodeAtPosition(r.StartLine, r.StartColumn)
	if !ok {
		return []byte{}
	}
	end, ok := t.nodeAtPosition(r.EndLine, r.EndColumn)
	if !ok {
		return []byte{}
	}
	value := t.valueBetween(start, end)

	var eol piecetree.EndOfLine
	switch pref {
	case piecetree.PreferLF:
		eol = piecetree.LF
	case piecetree.PreferCRLF:
		eol = piecetree.CRLF
	default:
		return value
	}
	if eol == t.eol && t.eolNormalized {
		return value
	}
	return ReplaceLineBreaks(value, eol.Bytes())
}

// ReplaceLineBreaks rewrites every \r\n, lone \r and lone \n of b to eol.
func ReplaceLineBreaks(b, eol []byte) []byte {
	out := make([]byte, 0, len(b))
	for i := 0; i < len(b); i++ {
		switch b[i] {
		case '\r':
			if i+1 < len(b) && b[i+1] == '\n' {
				i++
			}
			out = append(out, eol...)
		case '\n':
			out = append(out, eol...)
		default:
			out = append(out, b[i])
		}
	}
	return out
}

// Content returns a copy of the whole document.
func (t *Table) Content() []byte {
	out := make([]byte, 0, t.length)
	for _, piece := range t.tree.Pieces {
		out = append(out, t.pieceBytes(piece)...)
	}
	return out
}

// LinesContent returns every line of the document without line breaks.
func (t *Table) LinesContent() [][]byte {
	content := t.Content()
	lines := make([][]byte, 0, t.lineCount)
	start := 0
	for i := 0; i < len(content); i++ {
		switch content[i] {
		case '\r':
			lines = append(lines, content[start:i:i])
			if i+1 < len(content) && content[i+1] == '\n' {
				i++
			}
			start = i + 1
		case '\n':
			lines = append(lines, content[start:i:i])
			start = i + 1
		}
	}
	return append(lines, content[start:])
}
