// Package textbuf is the editing surface over a piece table: batched edits
// with overlap checks and undo ranges, end of line handling, line helpers
// and content snapshots.
package textbuf

import (
	"bytes"
	"log/slog"

	"github.com/cespare/xxhash/v2"
	"github.com/dacapoday/piecetree"
	"github.com/dacapoday/piecetree/piecetable"
	"github.com/google/uuid"
)

// Meta describes the initial content of a Buffer, as measured by a builder.
type Meta struct {
	BOM           []byte
	EOL           piecetree.EndOfLine
	EOLNormalized bool
	ContainsRTL   bool
	IsBasicASCII  bool
}

// Buffer is a text document. It is not safe for concurrent use.
type Buffer struct {
	id    uuid.UUID
	log   *slog.Logger
	table *piecetable.Table
	bom   []byte

	mightContainRTL           bool
	mightContainNonBasicASCII bool

	reduceThreshold int
	// bumped by every mutation, checked by line iterators
	version uint64
}

// New builds a buffer over chunks. See piecetable.New for chunk ownership.
//
// opt may implement piecetable.BufferSize, piecetable.SearchCacheSize,
// ReduceThreshold and Logger.
func New(chunks []piecetable.StringBuffer, meta Meta, opt any) *Buffer {
	id := uuid.New()
	return &Buffer{
		id:                        id,
		log:                       getLogger(opt).With("buffer", id.String()),
		table:                     piecetable.New(chunks, meta.EOL, meta.EOLNormalized, opt),
		bom:                       bytes.Clone(meta.BOM),
		mightContainRTL:           meta.ContainsRTL,
		mightContainNonBasicASCII: !meta.IsBasicASCII,
		reduceThreshold:           getReduceThreshold(opt),
	}
}

func (b *Buffer) ID() uuid.UUID { return b.id }

// Table exposes the underlying piece table for read access.
func (b *Buffer) Table() *piecetable.Table { return b.table }

func (b *Buffer) BOM() []byte { return bytes.Clone(b.bom) }

func (b *Buffer) EOL() piecetree.EndOfLine { return b.table.EOL() }

// SetEOL normalizes every line break of the document to eol.
func (b *Buffer) SetEOL(eol piecetree.EndOfLine) {
	b.log.Debug("set end of line", "from", b.table.EOL(), "to", eol)
	b.table.SetEOL(eol)
	b.version++
}

func (b *Buffer) MightContainRTL() bool { return b.mightContainRTL }

func (b *Buffer) MightContainNonBasicASCII() bool { return b.mightContainNonBasicASCII }

func (b *Buffer) Length() int { return b.table.Length() }

func (b *Buffer) LineCount() int { return b.table.LineCount() }

func (b *Buffer) OffsetAt(line, column int) int { return b.table.OffsetAt(line, column) }

func (b *Buffer) PositionAt(offset int) piecetree.Position { return b.table.PositionAt(offset) }

// RangeAt returns the range covering length bytes from offset.
func (b *Buffer) RangeAt(offset, length int) piecetree.Range {
	return piecetree.RangeFrom(b.PositionAt(offset), b.PositionAt(offset+length))
}

// ValueInRange returns the text of r with line breaks chosen by pref.
func (b *Buffer) ValueInRange(r piecetree.Range, pref piecetree.EndOfLinePreference) []byte {
	if r.IsEmpty() {
		return nil
	}
	return b.table.ValueInRange(r, pref)
}

// ValueLengthInRange returns the byte length of r. A single line range is
// measured by its columns alone.
func (b *Buffer) ValueLengthInRange(r piecetree.Range) int {
	if r.IsEmpty() {
		return 0
	}
	if r.StartLine == r.EndLine {
		return r.EndColumn - r.StartColumn
	}
	return b.OffsetAt(r.EndLine, r.EndColumn) - b.OffsetAt(r.StartLine, r.StartColumn)
}

func (b *Buffer) LineContent(line int) []byte { return b.table.LineContent(line) }

func (b *Buffer) LinesContent() [][]byte { return b.table.LinesContent() }

func (b *Buffer) LineLength(line int) int { return b.table.LineLength(line) }

// LineByte returns the byte at the 0-based index of line.
func (b *Buffer) LineByte(line, index int) byte { return b.table.ByteAt(line, index) }

func (b *Buffer) LineMinColumn(line int) int { return 1 }

func (b *Buffer) LineMaxColumn(line int) int { return b.LineLength(line) + 1 }

// LineFirstNonWhitespaceColumn returns the column of the first byte of line
// that is neither space nor tab, or 0 for a blank line.
func (b *Buffer) LineFirstNonWhitespaceColumn(line int) int {
	i := firstNonWhitespaceIndex(b.LineContent(line))
	if i == -1 {
		return 0
	}
	return i + 1
}

// LineLastNonWhitespaceColumn returns the column just after the last byte of
// line that is neither space nor tab, or 0 for a blank line.
func (b *Buffer) LineLastNonWhitespaceColumn(line int) int {
	i := lastNonWhitespaceIndex(b.LineContent(line))
	if i == -1 {
		return 0
	}
	return i + 2
}

// CreateSnapshot captures the current content, led by the byte order mark
// when preserveBOM is set.
func (b *Buffer) CreateSnapshot(preserveBOM bool) *piecetable.Snapshot {
	if preserveBOM {
		return b.table.CreateSnapshot(b.bom)
	}
	return b.table.CreateSnapshot(nil)
}

// Checksum hashes the content, byte order mark excluded.
func (b *Buffer) Checksum() uint64 {
	h := xxhash.New()
	b.table.CreateSnapshot(nil).WriteTo(h)
	return h.Sum64()
}

// Equal reports whether a and b hold the same byte order mark, end of line and content.
func Equal(a, b *Buffer) bool {
	return bytes.Equal(a.bom, b.bom) && a.table.EOL() == b.table.EOL() && piecetable.Equal(a.table, b.table)
}
