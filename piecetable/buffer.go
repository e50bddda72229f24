package piecetable

// StringBuffer is a backing buffer together with the offsets at which its lines start.
type StringBuffer struct {
	Buffer     []byte
	LineStarts []int
}

// NewStringBuffer wraps data and computes its line starts.
func NewStringBuffer(data []byte) StringBuffer {
	return StringBuffer{Buffer: data, LineStarts: CreateLineStarts(data)}
}

// LineStarts holds the line start offsets of a chunk and the number of
// line breaks of each kind it contains.
type LineStarts struct {
	Starts []int
	CR     int
	LF     int
	CRLF   int
}

// CreateLineStarts returns the offsets at which lines start in data.
// The first entry is always 0; \r\n, lone \r and lone \n each end one line.
func CreateLineStarts(data []byte) []int {
	return appendLineStarts([]int{0}, data, 0)
}

// appendLineStarts appends to starts the line starts of data shifted by base,
// excluding the implicit leading 0.
func appendLineStarts(starts []int, data []byte, base int) []int {
	for i := 0; i < len(data); i++ {
		switch data[i] {
		case '\r':
			if i+1 < len(data) && data[i+1] == '\n' {
				i++
			}
			starts = append(starts, base+i+1)
		case '\n':
			starts = append(starts, base+i+1)
		}
	}
	return starts
}

// ScanLineStarts is CreateLineStarts that also counts line break kinds.
func ScanLineStarts(data []byte) (ls LineStarts) {
	ls.Starts = []int{0}
	for i := 0; i < len(data); i++ {
		switch data[i] {
		case '\r':
			if i+1 < len(data) && data[i+1] == '\n' {
				ls.CRLF++
				i++
			} else {
				ls.CR++
			}
			ls.Starts = append(ls.Starts, i+1)
		case '\n':
			ls.LF++
			ls.Starts = append(ls.Starts, i+1)
		}
	}
	return
}

func endsWithCR(b []byte) bool {
	return len(b) > 0 && b[len(b)-1] == '\r'
}

func startsWithLF(b []byte) bool {
	return len(b) > 0 && b[0] == '\n'
}
