package piecetree

import "fmt"

// Range is a span of a document: (StartLine, StartColumn) is never after
// (EndLine, EndColumn).
type Range struct {
	StartLine   int
	StartColumn int
	EndLine     int
	EndColumn   int
}

// NewRange builds a Range, swapping the endpoints if they are out of order.
func NewRange(startLine, startColumn, endLine, endColumn int) Range {
	if endLine < startLine || (endLine == startLine && endColumn < startColumn) {
		startLine, startColumn, endLine, endColumn = endLine, endColumn, startLine, startColumn
	}
	return Range{
		StartLine:   startLine,
		StartColumn: startColumn,
		EndLine:     endLine,
		EndColumn:   endColumn,
	}
}

// RangeFrom builds a Range from two positions.
func RangeFrom(start, end Position) Range {
	return NewRange(start.Line, start.Column, end.Line, end.Column)
}

// IsEmpty reports whether the range starts and ends at the same position.
func (r Range) IsEmpty() bool {
	return r.StartLine == r.EndLine && r.StartColumn == r.EndColumn
}

func (r Range) Start() Position {
	return Position{Line: r.StartLine, Column: r.StartColumn}
}

func (r Range) End() Position {
	return Position{Line: r.EndLine, Column: r.EndColumn}
}

func (r Range) String() string {
	return fmt.Sprintf("[%d,%d -> %d,%d]", r.StartLine, r.StartColumn, r.EndLine, r.EndColumn)
}

// CompareUsingEnds orders ranges by end position, then by start position.
// The result is negative if a < b, zero if equal, positive if a > b.
func CompareUsingEnds(a, b Range) int {
	if a.EndLine == b.EndLine {
		if a.EndColumn == b.EndColumn {
			if a.StartLine == b.StartLine {
				return a.StartColumn - b.StartColumn
			}
			return a.StartLine - b.StartLine
		}
		return a.EndColumn - b.EndColumn
	}
	return a.EndLine - b.EndLine
}
