package textbuf

import (
	"bytes"
	"cmp"
	"slices"

	"github.com/cockroachdb/errors"
	"github.com/dacapoday/piecetree"
)

// OperationID identifies an edit operation to its caller.
type OperationID struct {
	Major int
	Minor int
}

// EditOperation replaces Range with Text. An empty range inserts, empty text deletes.
type EditOperation struct {
	ID    *OperationID
	Range piecetree.Range
	Text  []byte

	// ForceMoveMarkers gives the edit insert semantics for markers at its bounds.
	ForceMoveMarkers bool
	// IsAutoWhitespaceEdit marks whitespace that may be trimmed on the next edit.
	IsAutoWhitespaceEdit bool
	// IsTracked keeps the batch from being collapsed.
	IsTracked bool
}

// ReverseEditOperation undoes one applied operation.
// SortIndex is the position of the forward operation in its batch.
type ReverseEditOperation struct {
	EditOperation
	SortIndex int
}

// ContentChange records one mutation of the document. Range, RangeOffset and
// RangeLength refer to the document as it was before the batch.
type ContentChange struct {
	Range            piecetree.Range
	RangeOffset      int
	RangeLength      int
	Text             []byte
	ForceMoveMarkers bool
}

type ApplyEditsResult struct {
	ReverseEdits []ReverseEditOperation
	// Changes are ordered from the bottom of the document to the top.
	Changes []ContentChange
	// TrimAutoWhitespaceLines lists, in descending order, lines left holding
	// nothing but auto inserted whitespace.
	TrimAutoWhitespaceLines []int
}

type validatedOperation struct {
	sortIndex   int
	id          *OperationID
	rng         piecetree.Range
	rangeOffset int
	rangeLength int
	lines       [][]byte

	forceMoveMarkers     bool
	isAutoWhitespaceEdit bool
}

func compareAscending(a, b validatedOperation) int {
	if r := piecetree.CompareUsingEnds(a.rng, b.rng); r != 0 {
		return r
	}
	return cmp.Compare(a.sortIndex, b.sortIndex)
}

func compareDescending(a, b validatedOperation) int {
	return compareAscending(b, a)
}

type trimCandidate struct {
	line int
	old  []byte
}

// ApplyEdits applies ops as one batch. Ranges are clamped into the document and
// refer to it as it was before the batch. Ranges may touch but must not overlap;
// an overlap fails with ErrOverlappingRanges before anything is changed.
func (b *Buffer) ApplyEdits(ops []EditOperation, recordTrimAutoWhitespace bool) (ApplyEditsResult, error) {
	mightContainRTL := b.mightContainRTL
	mightContainNonBasicASCII := b.mightContainNonBasicASCII
	canReduce := true

	operations := make([]validatedOperation, len(ops))
	for i, op := range ops {
		if op.IsTracked {
			canReduce = false
		}
		if len(op.Text) > 0 {
			mightContainRTL = mightContainRTL || ContainsRTL(op.Text)
			mightContainNonBasicASCII = mightContainNonBasicASCII || !IsBasicASCII(op.Text)
		}
		rng := b.table.ValidateRange(op.Range)
		operations[i] = validatedOperation{
			sortIndex:            i,
			id:                   op.ID,
			rng:                  rng,
			rangeOffset:          b.OffsetAt(rng.StartLine, rng.StartColumn),
			rangeLength:          b.ValueLengthInRange(rng),
			lines:                splitLines(op.Text),
			forceMoveMarkers:     op.ForceMoveMarkers,
			isAutoWhitespaceEdit: op.IsAutoWhitespaceEdit,
		}
	}
	slices.SortFunc(operations, compareAscending)

	hasTouchingRanges := false
	for i := 0; i+1 < len(operations); i++ {
		end := operations[i].rng.End()
		next := operations[i+1].rng.Start()
		if !next.IsBeforeOrEqual(end) {
			continue
		}
		if next.IsBefore(end) {
			b.log.Debug("rejected edits", "ops", len(ops), "range", operations[i].rng, "next", operations[i+1].rng)
			return ApplyEditsResult{}, errors.Wrapf(piecetree.ErrOverlappingRanges,
				"%s and %s", operations[i].rng, operations[i+1].rng)
		}
		hasTouchingRanges = true
	}

	collapsed := canReduce && len(operations) > b.reduceThreshold
	if collapsed {
		operations = []validatedOperation{b.toSingleEditOperation(operations)}
	}

	reverseRanges := inverseEditRanges(operations)

	var candidates []trimCandidate
	if recordTrimAutoWhitespace {
		for i, op := range operations {
			if !op.isAutoWhitespaceEdit || !op.rng.IsEmpty() {
				continue
			}
			rr := reverseRanges[i]
			for line := rr.StartLine; line <= rr.EndLine; line++ {
				var current []byte
				if line == rr.StartLine {
					current = b.LineContent(op.rng.StartLine)
					if firstNonWhitespaceIndex(current) != -1 {
						continue
					}
				}
				candidates = append(candidates, trimCandidate{line: line, old: current})
			}
		}
	}

	reverse := make([]ReverseEditOperation, len(operations))
	for i, op := range operations {
		reverse[i] = ReverseEditOperation{
			EditOperation: EditOperation{
				ID:               op.id,
				Range:            reverseRanges[i],
				Text:             b.ValueInRange(op.rng, piecetree.TextDefined),
				ForceMoveMarkers: op.forceMoveMarkers,
			},
			SortIndex: op.sortIndex,
		}
	}
	// touching ranges make the applied order significant
	if !hasTouchingRanges {
		slices.SortFunc(reverse, func(x, y ReverseEditOperation) int {
			return cmp.Compare(x.SortIndex, y.SortIndex)
		})
	}

	b.mightContainRTL = mightContainRTL
	b.mightContainNonBasicASCII = mightContainNonBasicASCII

	changes := b.doApplyEdits(operations)
	b.version++

	var trimLines []int
	if len(candidates) > 0 {
		slices.SortStableFunc(candidates, func(x, y trimCandidate) int {
			return cmp.Compare(y.line, x.line)
		})
		for i, c := range candidates {
			if i > 0 && candidates[i-1].line == c.line {
				continue
			}
			content := b.LineContent(c.line)
			if len(content) == 0 || bytes.Equal(content, c.old) || firstNonWhitespaceIndex(content) != -1 {
				continue
			}
			trimLines = append(trimLines, c.line)
		}
	}

	b.log.Debug("applied edits", "ops", len(ops), "collapsed", collapsed, "changes", len(changes))
	return ApplyEditsResult{
		ReverseEdits:            reverse,
		Changes:                 changes,
		TrimAutoWhitespaceLines: trimLines,
	}, nil
}

// toSingleEditOperation merges sorted, non overlapping operations into one
// edit spanning all of them, splicing the untouched text in between.
func (b *Buffer) toSingleEditOperation(operations []validatedOperation) validatedOperation {
	first, last := operations[0].rng, operations[len(operations)-1].rng
	entire := piecetree.Range{
		StartLine:   first.StartLine,
		StartColumn: first.StartColumn,
		EndLine:     last.EndLine,
		EndColumn:   last.EndColumn,
	}

	forceMoveMarkers := false
	lastEndLine, lastEndColumn := first.StartLine, first.StartColumn
	var text []byte
	for _, op := range operations {
		r := op.rng
		forceMoveMarkers = forceMoveMarkers || op.forceMoveMarkers

		for line := lastEndLine; line < r.StartLine; line++ {
			if line == lastEndLine {
				text = append(text, b.LineContent(line)[lastEndColumn-1:]...)
			} else {
				text = append(text, '\n')
				text = append(text, b.LineContent(line)...)
			}
		}
		if r.StartLine == lastEndLine {
			text = append(text, b.LineContent(r.StartLine)[lastEndColumn-1:r.StartColumn-1]...)
		} else {
			text = append(text, '\n')
			text = append(text, b.LineContent(r.StartLine)[:r.StartColumn-1]...)
		}

		for j, line := range op.lines {
			if j > 0 {
				text = append(text, '\n')
			}
			text = append(text, line...)
		}
		lastEndLine, lastEndColumn = r.EndLine, r.EndColumn
	}

	return validatedOperation{
		id:               operations[0].id,
		rng:              entire,
		rangeOffset:      b.OffsetAt(entire.StartLine, entire.StartColumn),
		rangeLength:      b.ValueLengthInRange(entire),
		lines:            bytes.Split(text, []byte{'\n'}),
		forceMoveMarkers: forceMoveMarkers,
	}
}

// inverseEditRanges computes where each operation's text lands once the whole
// sorted batch is applied, accumulating the shift of the operations before it.
func inverseEditRanges(operations []validatedOperation) []piecetree.Range {
	result := make([]piecetree.Range, 0, len(operations))
	var prevEndLine, prevEndColumn int
	for i, op := range operations {
		startLine, startColumn := op.rng.StartLine, op.rng.StartColumn
		if i > 0 {
			prev := operations[i-1].rng
			if prev.EndLine == op.rng.StartLine {
				startLine = prevEndLine
				startColumn = prevEndColumn + (op.rng.StartColumn - prev.EndColumn)
			} else {
				startLine = prevEndLine + (op.rng.StartLine - prev.EndLine)
			}
		}

		r := piecetree.Range{StartLine: startLine, StartColumn: startColumn, EndLine: startLine, EndColumn: startColumn}
		switch n := len(op.lines); {
		case n == 1:
			r.EndColumn = startColumn + len(op.lines[0])
		case n > 1:
			r.EndLine = startLine + n - 1
			r.EndColumn = len(op.lines[n-1]) + 1
		}
		prevEndLine, prevEndColumn = r.EndLine, r.EndColumn
		result = append(result, r)
	}
	return result
}

// doApplyEdits mutates the table bottom up, so offsets resolved before the
// batch stay valid for the operations not yet applied.
func (b *Buffer) doApplyEdits(operations []validatedOperation) []ContentChange {
	slices.SortFunc(operations, compareDescending)
	eol := b.table.EOL().Bytes()

	changes := make([]ContentChange, 0, len(operations))
	for _, op := range operations {
		text := bytes.Join(op.lines, eol)
		if op.rng.IsEmpty() && len(text) == 0 {
			continue
		}
		b.table.Delete(op.rangeOffset, op.rangeLength)
		b.table.Insert(op.rangeOffset, text, true)
		changes = append(changes, ContentChange{
			Range:            op.rng,
			RangeOffset:      op.rangeOffset,
			RangeLength:      op.rangeLength,
			Text:             text,
			ForceMoveMarkers: op.forceMoveMarkers,
		})
	}
	return changes
}
