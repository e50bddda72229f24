package piecetree

import "github.com/cockroachdb/errors"

var (
	ErrOverlappingRanges = errors.New("overlapping ranges")
	ErrInvalidEndOfLine  = errors.New("invalid end of line")
	ErrModified          = errors.New("buffer modified during iteration")
)
