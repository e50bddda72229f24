package iterator

import "iter"

// Iterator is a cursor over the lines of a document.
// Lines are numbered from 1 and visited in document order.
//
// Usage:
//
//	for iter.SeekFirst(); iter.Valid(); iter.Next() {
//	    line, text := iter.Line(), iter.Bytes()
//	    // process line, text
//	}
//	if err := iter.Error(); err != nil {
//	    // handle error
//	}
type Iterator interface {
	// Valid returns true if positioned at a line.
	// Returns false when not positioned; check Error() to distinguish the cause.
	Valid() bool

	// Error returns any error that occurred during operations.
	// Returns nil when not positioned due to normal conditions (initial state,
	// boundary reached). Returns non-nil when the underlying document changed
	// since the iterator was positioned.
	Error() error

	// Line returns the 1-based number of the current line.
	// Behavior is undefined if Valid() returns false.
	Line() int

	// Bytes returns the current line without its line break.
	// Behavior is undefined if Valid() returns false.
	Bytes() []byte

	// Next advances to the following line.
	// Returns false past the last line or on error.
	Next() bool

	// Prev moves to the preceding line.
	// Returns false before the first line or on error.
	Prev() bool

	// SeekFirst positions the iterator at the first line.
	SeekFirst() bool

	// SeekLast positions the iterator at the last line.
	SeekLast() bool

	// Seek positions the iterator at line, raised to 1 when smaller.
	// Returns false if line is past the last line.
	Seek(line int) bool
}

// Lines returns a sequence over the lines from the current position of it
// (the first line if it is not positioned) to the end.
// Stops early if the consumer returns false. Check it.Error() afterwards.
func Lines(it Iterator) iter.Seq2[int, []byte] {
	return func(yield func(int, []byte) bool) {
		if !it.Valid() && !it.SeekFirst() {
			return
		}
		for ; it.Valid(); it.Next() {
			if !yield(it.Line(), it.Bytes()) {
				return
			}
		}
	}
}

// Backward returns a sequence over the lines from the current position of it
// (the last line if it is not positioned) back to the first.
func Backward(it Iterator) iter.Seq2[int, []byte] {
	return func(yield func(int, []byte) bool) {
		if !it.Valid() && !it.SeekLast() {
			return
		}
		for ; it.Valid(); it.Prev() {
			if !yield(it.Line(), it.Bytes()) {
				return
			}
		}
	}
}
