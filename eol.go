package piecetree

import "strings"

// EndOfLine is the line break sequence a document is normalized to.
type EndOfLine uint8

const (
	LF   EndOfLine = iota // \n
	CRLF                  // \r\n
)

// Bytes returns the line break sequence.
func (eol EndOfLine) Bytes() []byte {
	if eol == CRLF {
		return []byte{'\r', '\n'}
	}
	return []byte{'\n'}
}

// Len returns the byte length of the line break sequence.
func (eol EndOfLine) Len() int {
	if eol == CRLF {
		return 2
	}
	return 1
}

func (eol EndOfLine) String() string {
	if eol == CRLF {
		return "CRLF"
	}
	return "LF"
}

// ParseEndOfLine accepts "LF", "CRLF", "\n" or "\r\n" (case-insensitive names).
func ParseEndOfLine(s string) (EndOfLine, error) {
	switch strings.ToUpper(s) {
	case "LF", "\n", "":
		return LF, nil
	case "CRLF", "\r\n":
		return CRLF, nil
	}
	return LF, ErrInvalidEndOfLine
}

// EndOfLinePreference selects the line break used when reading text out of a buffer.
type EndOfLinePreference uint8

const (
	// TextDefined uses the buffer's own end of line.
	TextDefined EndOfLinePreference = iota
	// PreferLF uses \n.
	PreferLF
	// PreferCRLF uses \r\n.
	PreferCRLF
)
