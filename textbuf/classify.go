package textbuf

import (
	"unicode/utf8"

	"golang.org/x/text/unicode/bidi"
)

// ContainsRTL reports whether b holds a right-to-left character
// (bidi class R or AL). Invalid UTF-8 is skipped byte by byte.
func ContainsRTL(b []byte) bool {
	for i := 0; i < len(b); {
		if b[i] < utf8.RuneSelf {
			i++
			continue
		}
		props, size := bidi.Lookup(b[i:])
		if size == 0 {
			i++
			continue
		}
		if class := props.Class(); class == bidi.R || class == bidi.AL {
			return true
		}
		i += size
	}
	return false
}

// IsBasicASCII reports whether every byte of b is printable ASCII, tab, \r or \n.
func IsBasicASCII(b []byte) bool {
	for _, c := range b {
		if c != '\t' && c != '\n' && c != '\r' && (c < 0x20 || c > 0x7e) {
			return false
		}
	}
	return true
}

func firstNonWhitespaceIndex(b []byte) int {
	for i, c := range b {
		if c != ' ' && c != '\t' {
			return i
		}
	}
	return -1
}

func lastNonWhitespaceIndex(b []byte) int {
	for i := len(b) - 1; i >= 0; i-- {
		if c := b[i]; c != ' ' && c != '\t' {
			return i
		}
	}
	return -1
}

// splitLines splits text on \r\n, lone \r and lone \n. Empty text yields no lines.
func splitLines(text []byte) [][]byte {
	if len(text) == 0 {
		return nil
	}
	var lines [][]byte
	start := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '\r':
			lines = append(lines, text[start:i:i])
			if i+1 < len(text) && text[i+1] == '\n' {
				i++
			}
			start = i + 1
		case '\n':
			lines = append(lines, text[start:i:i])
			start = i + 1
		}
	}
	return append(lines, text[start:])
}
