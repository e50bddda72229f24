package piecetable

// validateCRLFWithPrevNode repairs a \r\n pair split between next and its predecessor.
func (t *Table) validateCRLFWithPrevNode(next NodeID) {
	if t.shouldCheckCRLF() && t.startsWithLF(next) {
		if prev := t.tree.Prev(next); t.endsWithCR(prev) {
			t.fixCRLF(prev, next)
		}
	}
}

// validateCRLFWithNextNode repairs a \r\n pair split between node and its successor.
func (t *Table) validateCRLFWithNextNode(node NodeID) {
	if t.shouldCheckCRLF() && t.endsWithCR(node) {
		if next := t.tree.Next(node); t.startsWithLF(next) {
			t.fixCRLF(node, next)
		}
	}
}

// fixCRLF moves the trailing \r of prev and the leading \n of next into a new
// two byte piece between them. Pieces left empty are deleted.
func (t *Table) fixCRLF(prev, next NodeID) {
	var toDelete []NodeID

	piece := t.tree.Piece(prev)
	lineStarts := t.buffers[piece.BufferIndex].LineStarts
	var end BufferCursor
	if piece.End.Column == 0 {
		// the piece ends with a lone \r
		end = BufferCursor{
			Line:   piece.End.Line - 1,
			Column: lineStarts[piece.End.Line] - lineStarts[piece.End.Line-1] - 1,
		}
	} else {
		// the piece ends between \r and \n
		end = BufferCursor{Line: piece.End.Line, Column: piece.End.Column - 1}
	}
	t.tree.SetPiece(prev, Piece{
		BufferIndex:   piece.BufferIndex,
		Start:         piece.Start,
		End:           end,
		Length:        piece.Length - 1,
		LineFeedCount: piece.LineFeedCount - 1,
	})
	t.tree.UpdateMetadata(prev, -1, -1)
	if piece.Length == 1 {
		toDelete = append(toDelete, prev)
	}

	piece = t.tree.Piece(next)
	start := BufferCursor{Line: piece.Start.Line + 1}
	lineFeeds := t.lineFeedCount(piece.BufferIndex, start, piece.End)
	t.tree.SetPiece(next, Piece{
		BufferIndex:   piece.BufferIndex,
		Start:         start,
		End:           piece.End,
		Length:        piece.Length - 1,
		LineFeedCount: lineFeeds,
	})
	t.tree.UpdateMetadata(next, -1, lineFeeds-piece.LineFeedCount)
	if piece.Length == 1 {
		toDelete = append(toDelete, next)
	}

	pieces := t.createNewPieces([]byte{'\r', '\n'})
	t.tree.InsertRight(prev, pieces[0])
	t.deleteNodes(toDelete)
}

// adjustCarriageReturnFromNext takes the leading \n of the successor of node
// when value ends with \r. The caller appends the \n to value.
func (t *Table) adjustCarriageReturnFromNext(value []byte, node NodeID) bool {
	if !t.shouldCheckCRLF() || !endsWithCR(value) {
		return false
	}
	next := t.tree.Next(node)
	if !t.startsWithLF(next) {
		return false
	}

	piece := t.tree.Piece(next)
	if piece.Length == 1 {
		t.deleteNode(next)
		return true
	}
	start := BufferCursor{Line: piece.Start.Line + 1}
	lineFeeds := t.lineFeedCount(piece.BufferIndex, start, piece.End)
	t.tree.SetPiece(next, Piece{
		BufferIndex:   piece.BufferIndex,
		Start:         start,
		End:           piece.End,
		Length:        piece.Length - 1,
		LineFeedCount: lineFeeds,
	})
	t.tree.UpdateMetadata(next, -1, lineFeeds-piece.LineFeedCount)
	return true
}
