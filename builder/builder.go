// Package builder turns a stream of byte chunks into a text buffer. It strips
// the UTF-8 byte order mark, computes line starts, counts line breaks to pick
// the end of line and classifies the content.
package builder

import (
	"bytes"
	"io"

	"github.com/dacapoday/piecetree"
	"github.com/dacapoday/piecetree/piecetable"
	"github.com/dacapoday/piecetree/textbuf"
)

// BOM is the UTF-8 byte order mark.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// ChunkSize is the size of the chunks ReadFrom cuts a stream into.
const ChunkSize = piecetable.DefaultBufferSize

// Builder accumulates chunks. The zero value is ready to use.
//
// A trailing \r of a chunk is carried over to the next one, so a \r\n pair
// always lands in a single chunk.
type Builder struct {
	chunks []piecetable.StringBuffer
	bom    []byte

	pendingCR bool

	cr, lf, crlf int

	containsRTL   bool
	nonBasicASCII bool
}

// AcceptChunk appends chunk to the content. The builder takes ownership of chunk.
func (b *Builder) AcceptChunk(chunk []byte) {
	if len(chunk) == 0 {
		return
	}
	if len(b.chunks) == 0 && !b.pendingCR && b.bom == nil && bytes.HasPrefix(chunk, BOM) {
		b.bom = BOM
		chunk = chunk[len(BOM):]
		if len(chunk) == 0 {
			return
		}
	}
	b.containsRTL = b.containsRTL || textbuf.ContainsRTL(chunk)
	b.nonBasicASCII = b.nonBasicASCII || !textbuf.IsBasicASCII(chunk)

	if chunk[len(chunk)-1] == '\r' {
		b.accept(chunk[:len(chunk)-1])
		b.pendingCR = true
		return
	}
	b.accept(chunk)
	b.pendingCR = false
}

func (b *Builder) accept(chunk []byte) {
	if b.pendingCR {
		chunk = append([]byte{'\r'}, chunk...)
	}
	if len(chunk) > 0 {
		b.add(chunk)
	}
}

func (b *Builder) add(chunk []byte) {
	ls := piecetable.ScanLineStarts(chunk)
	b.chunks = append(b.chunks, piecetable.StringBuffer{Buffer: chunk, LineStarts: ls.Starts})
	b.cr += ls.CR
	b.lf += ls.LF
	b.crlf += ls.CRLF
}

// ReadFrom reads r until EOF, accepting the data in chunks of ChunkSize bytes.
// It implements io.ReaderFrom.
//
// ReadFrom returns the number of bytes read and any error encountered,
// except that io.EOF is not returned as an error.
func (b *Builder) ReadFrom(r io.Reader) (n int64, err error) {
	for {
		buf := make([]byte, ChunkSize)
		c, err := io.ReadFull(r, buf)
		if c > 0 {
			n += int64(c)
			b.AcceptChunk(buf[:c:c])
		}
		if err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				err = nil
			}
			return n, err
		}
	}
}

// Finish flushes the carried \r and returns a factory over the content.
// With normalizeEOL the factory rewrites every line break to the chosen end of line.
func (b *Builder) Finish(normalizeEOL bool) *Factory {
	if b.pendingCR {
		b.pendingCR = false
		if len(b.chunks) == 0 {
			b.add([]byte{'\r'})
		} else {
			last := &b.chunks[len(b.chunks)-1]
			last.Buffer = append(last.Buffer, '\r')
			last.LineStarts = append(last.LineStarts, len(last.Buffer))
			b.cr++
		}
	}
	return &Factory{
		chunks:       b.chunks,
		bom:          b.bom,
		cr:           b.cr,
		lf:           b.lf,
		crlf:         b.crlf,
		normalizeEOL: normalizeEOL,
		containsRTL:  b.containsRTL,
		isBasicASCII: !b.nonBasicASCII,
	}
}

// Factory creates buffers from the content of a finished Builder.
type Factory struct {
	chunks       []piecetable.StringBuffer
	bom          []byte
	cr, lf, crlf int
	normalizeEOL bool

	containsRTL  bool
	isBasicASCII bool
}

// EOL picks the end of line of the content: def when there are no line breaks,
// CRLF when \r\n and lone \r make up more than half of them, LF otherwise.
func (f *Factory) EOL(def piecetree.EndOfLine) piecetree.EndOfLine {
	total := f.cr + f.lf + f.crlf
	if total == 0 {
		return def
	}
	if f.cr+f.crlf > total/2 {
		return piecetree.CRLF
	}
	return piecetree.LF
}

// BOM returns the byte order mark stripped from the content, if any.
func (f *Factory) BOM() []byte { return bytes.Clone(f.bom) }

// Create builds a buffer. def is the end of line of content without line breaks.
// opt is passed to textbuf.New.
func (f *Factory) Create(def piecetree.EndOfLine, opt any) *textbuf.Buffer {
	eol := f.EOL(def)
	chunks := f.chunks
	if f.normalizeEOL && f.mixed(eol) {
		chunks = make([]piecetable.StringBuffer, len(f.chunks))
		for i, chunk := range f.chunks {
			chunks[i] = piecetable.NewStringBuffer(piecetable.ReplaceLineBreaks(chunk.Buffer, eol.Bytes()))
		}
	}
	return textbuf.New(chunks, textbuf.Meta{
		BOM:           f.bom,
		EOL:           eol,
		EOLNormalized: f.normalizeEOL,
		ContainsRTL:   f.containsRTL,
		IsBasicASCII:  f.isBasicASCII,
	}, opt)
}

// mixed reports whether the content holds line breaks other than eol.
func (f *Factory) mixed(eol piecetree.EndOfLine) bool {
	if eol == piecetree.CRLF {
		return f.cr > 0 || f.lf > 0
	}
	return f.cr > 0 || f.crlf > 0
}

// FirstLineText returns the first line of the leading limit bytes of the content.
func (f *Factory) FirstLineText(limit int) []byte {
	if len(f.chunks) == 0 {
		return []byte{}
	}
	head := f.chunks[0].Buffer
	head = head[:min(limit, len(head))]
	if i := bytes.IndexAny(head, "\r\n"); i >= 0 {
		head = head[:i]
	}
	return bytes.Clone(head)
}
