// Package piecetree defines the coordinate types, end-of-line markers and errors
// shared by the piece tree text buffer packages.
//
// Positions and ranges are 1-based and measured in bytes:
// line 1, column 1 is the first byte of the document.
package piecetree

// Position is a (line, column) location in a document. Both are 1-based.
type Position struct {
	Line   int
	Column int
}

// Compare returns -1 if p is before other, 0 if equal, 1 if after.
func (p Position) Compare(other Position) int {
	if p.Line < other.Line {
		return -1
	}
	if p.Line > other.Line {
		return 1
	}
	if p.Column < other.Column {
		return -1
	}
	if p.Column > other.Column {
		return 1
	}
	return 0
}

// IsBefore reports whether p is strictly before other.
func (p Position) IsBefore(other Position) bool {
	return p.Compare(other) < 0
}

// IsBeforeOrEqual reports whether p is before or equal to other.
func (p Position) IsBeforeOrEqual(other Position) bool {
	return p.Compare(other) <= 0
}
