package piecetable

import (
	"bytes"
	"math/rand/v2"
	"testing"
	"unicode/utf8"

	"github.com/dacapoday/piecetree"
	"github.com/stretchr/testify/require"
)

type testOption struct {
	bufferSize      int
	searchCacheSize int
}

func (o testOption) BufferSize() int      { return o.bufferSize }
func (o testOption) SearchCacheSize() int { return o.searchCacheSize }

func newTable(normalized bool, chunks ...string) *Table {
	buffers := make([]StringBuffer, 0, len(chunks))
	for _, c := range chunks {
		buffers = append(buffers, NewStringBuffer([]byte(c)))
	}
	return New(buffers, piecetree.LF, normalized, nil)
}

// splitLines splits on \r\n, lone \r and lone \n.
func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\r':
			lines = append(lines, s[start:i])
			if i+1 < len(s) && s[i+1] == '\n' {
				i++
			}
			start = i + 1
		case '\n':
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	return append(lines, s[start:])
}

// requireModel compares every observable of tbl against the plain string model.
func requireModel(t *testing.T, tbl *Table, model string) {
	t.Helper()
	require.NoError(t, tbl.Validate())
	require.Equal(t, model, string(tbl.Content()))
	require.Equal(t, len(model), tbl.Length())

	lines := splitLines(model)
	require.Equal(t, len(lines), tbl.LineCount())
	for i, line := range lines {
		require.Equal(t, line, string(tbl.LineContent(i+1)), "line %d", i+1)
		require.Equal(t, len(line), tbl.LineLength(i+1), "line %d", i+1)
	}

	end := tbl.PositionAt(tbl.Length())
	whole := piecetree.Range{StartLine: 1, StartColumn: 1, EndLine: end.Line, EndColumn: end.Column}
	require.Equal(t, model, string(tbl.ValueInRange(whole, piecetree.TextDefined)))

	for offset := 0; offset <= len(model); offset++ {
		pos := tbl.PositionAt(offset)
		require.Equal(t, offset, tbl.OffsetAt(pos.Line, pos.Column), "offset %d at %+v", offset, pos)
	}
}

func TestScenarioInsertLines(t *testing.T) {
	tbl := newTable(false)
	tbl.Insert(0, []byte("abc\n"), false)
	tbl.Insert(4, []byte("def"), false)
	require.Equal(t, 2, tbl.LineCount())
	require.Equal(t, "abc", string(tbl.LineContent(1)))
	require.Equal(t, "def", string(tbl.LineContent(2)))

	tbl.Insert(1, []byte("A"), false)
	require.Equal(t, "aAbc", string(tbl.LineContent(1)))
	requireModel(t, tbl, "aAbc\ndef")
}

func TestScenarioPositions(t *testing.T) {
	tbl := newTable(true, "1\n2\n3\n4")
	require.Equal(t, piecetree.Position{Line: 4, Column: 1}, tbl.PositionAt(6))
	require.Equal(t, 5, tbl.OffsetAt(3, 2))
	require.Equal(t, piecetree.Position{Line: 1, Column: 1}, tbl.PositionAt(-3))
	require.Equal(t, piecetree.Position{Line: 4, Column: 2}, tbl.PositionAt(100))
	require.Equal(t, 0, tbl.OffsetAt(0, 0))
	require.Equal(t, 7, tbl.OffsetAt(9, 9))
	require.Equal(t, 1, tbl.OffsetAt(1, 50))
}

func TestScenarioDeleteCRLF(t *testing.T) {
	tbl := newTable(false, "a\r\nb")
	tbl.Delete(2, 2)
	require.Equal(t, 2, tbl.LineCount())
	requireModel(t, tbl, "a\r")

	tbl = newTable(false, "a\r\nb")
	tbl.Delete(0, 2)
	require.Equal(t, 2, tbl.LineCount())
	requireModel(t, tbl, "\nb")

	tbl = newTable(false)
	tbl.Insert(0, []byte("a\r\nb"), false)
	tbl.Delete(0, 2)
	require.Equal(t, 2, tbl.LineCount())
	requireModel(t, tbl, "\nb")
}

func TestLineRawContent(t *testing.T) {
	tbl := newTable(true, "1\n2\n3\n4")
	require.Equal(t, "1\n", string(tbl.LineRawContent(1)))
	require.Equal(t, "2\n", string(tbl.LineRawContent(2)))
	require.Equal(t, "3\n", string(tbl.LineRawContent(3)))
	require.Equal(t, "4", string(tbl.LineRawContent(4)))
	require.Nil(t, tbl.LineRawContent(5))
	require.Nil(t, tbl.LineContent(0))
	require.Zero(t, tbl.LineLength(5))

	tbl = newTable(true, "a\nb\nc\nde")
	tbl.Insert(8, []byte("fh\ni\njk"), false)
	tbl.Delete(7, 2)
	for i, want := range []string{"a\n", "b\n", "c\n", "dh\n", "i\n", "jk"} {
		require.Equal(t, want, string(tbl.LineRawContent(i+1)))
	}
	requireModel(t, tbl, "a\nb\nc\ndh\ni\njk")
}

func TestLineContentIsCopied(t *testing.T) {
	tbl := newTable(true, "abc\ndef")
	line := tbl.LineContent(1)
	line[0] = 'X'
	require.Equal(t, "abc", string(tbl.LineContent(1)))
	require.Equal(t, "abc\ndef", string(tbl.Content()))
}

func TestValueInRange(t *testing.T) {
	tbl := newTable(true, "a\nb\nc\nde")
	tbl.Insert(8, []byte("fh\ni\njk"), true)
	tbl.Delete(7, 2)

	r := func(sl, sc, el, ec int) piecetree.Range {
		return piecetree.Range{StartLine: sl, StartColumn: sc, EndLine: el, EndColumn: ec}
	}
	require.Equal(t, "a\n", string(tbl.ValueInRange(r(1, 1, 1, 3), piecetree.TextDefined)))
	require.Equal(t, "b\n", string(tbl.ValueInRange(r(2, 1, 2, 3), piecetree.TextDefined)))
	require.Equal(t, "dh\n", string(tbl.ValueInRange(r(4, 1, 4, 4), piecetree.TextDefined)))
	require.Equal(t, "jk", string(tbl.ValueInRange(r(6, 1, 6, 3), piecetree.TextDefined)))
	require.Equal(t, "c\r\ndh\r\ni", string(tbl.ValueInRange(r(3, 1, 5, 2), piecetree.PreferCRLF)))
	require.Empty(t, tbl.ValueInRange(r(2, 2, 2, 2), piecetree.TextDefined))
	require.Equal(t, "jk", string(tbl.ValueInRange(r(6, 1, 60, 1), piecetree.TextDefined)))
}

func TestValueInRangeMixedBreaks(t *testing.T) {
	tbl := newTable(false, "a\r\nb\rc\nd")
	end := tbl.PositionAt(tbl.Length())
	whole := piecetree.Range{StartLine: 1, StartColumn: 1, EndLine: end.Line, EndColumn: end.Column}
	require.Equal(t, "a\r\nb\rc\nd", string(tbl.ValueInRange(whole, piecetree.TextDefined)))
	require.Equal(t, "a\nb\nc\nd", string(tbl.ValueInRange(whole, piecetree.PreferLF)))
	require.Equal(t, "a\r\nb\r\nc\r\nd", string(tbl.ValueInRange(whole, piecetree.PreferCRLF)))
}

func TestValueInRangeLineBreakColumns(t *testing.T) {
	tbl := newTable(false, "a\r\nb\nc")
	r := func(sl, sc, el, ec int) piecetree.Range {
		return piecetree.Range{StartLine: sl, StartColumn: sc, EndLine: el, EndColumn: ec}
	}
	require.Equal(t, "a\r", string(tbl.ValueInRange(r(1, 1, 1, 3), piecetree.TextDefined)))
	require.Equal(t, "a\r\n", string(tbl.ValueInRange(r(1, 1, 1, 4), piecetree.TextDefined)))
	// past the line break the column stops at the next line start
	require.Equal(t, "a\r\n", string(tbl.ValueInRange(r(1, 1, 1, 40), piecetree.TextDefined)))
	require.Equal(t, "\nb\n", string(tbl.ValueInRange(r(1, 3, 2, 9), piecetree.TextDefined)))
	require.Equal(t, "c", string(tbl.ValueInRange(r(3, 1, 3, 9), piecetree.TextDefined)))
	require.Equal(t, "a\nb\n", string(tbl.ValueInRange(r(0, 0, 2, 3), piecetree.PreferLF)))

	// positions handed to edits never fall inside a line break
	require.Equal(t, piecetree.Position{Line: 1, Column: 2}, tbl.ValidatePosition(piecetree.Position{Line: 1, Column: 3}))
}

func TestByteAt(t *testing.T) {
	tbl := newTable(true, "ab", "c\nd")
	require.Equal(t, byte('a'), tbl.ByteAt(1, 0))
	require.Equal(t, byte('c'), tbl.ByteAt(1, 2))
	require.Equal(t, byte('\n'), tbl.ByteAt(1, 3))
	require.Equal(t, byte('d'), tbl.ByteAt(2, 0))
	require.Zero(t, tbl.ByteAt(3, 0))
	require.Zero(t, tbl.ByteAt(1, -1))
}

func TestLinesContent(t *testing.T) {
	tbl := newTable(false, "a\r\nb\rc\n", "\nd")
	lines := tbl.LinesContent()
	var got []string
	for _, l := range lines {
		got = append(got, string(l))
	}
	require.Equal(t, []string{"a", "b", "c", "", "d"}, got)
}

func TestAppendFastPath(t *testing.T) {
	tbl := newTable(false)
	model := ""
	for i := range 200 {
		s := string(rune('a' + i%26))
		if i%17 == 0 {
			s = "\n"
		}
		tbl.Insert(tbl.Length(), []byte(s), false)
		model += s
	}
	require.Equal(t, 1, tbl.PieceCount())
	requireModel(t, tbl, model)
}

func TestAppendJoinsCRLF(t *testing.T) {
	tbl := newTable(false)
	tbl.Insert(0, []byte("a\r"), false)
	tbl.Insert(2, []byte("\nb"), false)
	require.Equal(t, 2, tbl.LineCount())
	requireModel(t, tbl, "a\r\nb")

	tbl.Insert(0, []byte("x\r"), false)
	tbl.Insert(2, []byte("\n"), false)
	requireModel(t, tbl, "x\r\na\r\nb")
}

func TestInsertSplitsCRLF(t *testing.T) {
	tbl := newTable(false, "a\r\nb")
	tbl.Insert(2, []byte("x"), false)
	requireModel(t, tbl, "a\rx\nb")
	require.Equal(t, 3, tbl.LineCount())

	tbl.Delete(2, 1)
	requireModel(t, tbl, "a\r\nb")
	require.Equal(t, 2, tbl.LineCount())
}

func TestInsertCompletesCRLF(t *testing.T) {
	tbl := newTable(false, "ab\ncd")
	tbl.Insert(2, []byte("\r"), false)
	requireModel(t, tbl, "ab\r\ncd")
	require.Equal(t, 2, tbl.LineCount())

	tbl = newTable(false, "ab\rcd")
	tbl.Insert(3, []byte("\n"), false)
	requireModel(t, tbl, "ab\r\ncd")

	tbl = newTable(false, "\nab")
	tbl.Insert(0, []byte("x\r"), false)
	requireModel(t, tbl, "x\r\nab")

	tbl = newTable(false, "ab\r", "cd")
	tbl.Insert(3, []byte("\n"), false)
	requireModel(t, tbl, "ab\r\ncd")
}

func TestFillerAfterBufferedCR(t *testing.T) {
	tbl := newTable(false, "0123")
	tbl.Insert(4, []byte("a\r"), false)
	tbl.Insert(0, []byte("\nz"), false)
	requireModel(t, tbl, "\nz0123a\r")
	tbl.Insert(tbl.Length(), []byte("\n"), false)
	requireModel(t, tbl, "\nz0123a\r\n")
}

func TestLargeInsertSplits(t *testing.T) {
	tbl := New(nil, piecetree.LF, false, testOption{bufferSize: 16})
	text := bytes.Repeat([]byte("0123456789abcd\r\n"), 10)
	tbl.Insert(0, text, false)
	require.Greater(t, tbl.PieceCount(), 1)
	requireModel(t, tbl, string(text))

	utf := bytes.Repeat([]byte("héllo wörld ✓ "), 8)
	tbl.Insert(5, utf, false)
	requireModel(t, tbl, string(text[:5])+string(utf)+string(text[5:]))
	for _, buf := range tbl.buffers[1:] {
		require.True(t, utf8.Valid(buf.Buffer), "%q", buf.Buffer)
		require.False(t, endsWithCR(buf.Buffer), "%q", buf.Buffer)
	}
}

func TestSplitPoint(t *testing.T) {
	// the pair already ends at the split
	require.Equal(t, 4, splitPoint([]byte("ab\r\ncd"), 4))
	// a chunk never ends in \r, so the pair stays whole
	require.Equal(t, 2, splitPoint([]byte("ab\r\ncd"), 3))
	require.Equal(t, 2, splitPoint([]byte("ab\rcd"), 3))
	require.Equal(t, 4, splitPoint([]byte("abcdef"), 4))
	// é is two bytes starting at index 3
	require.Equal(t, 3, splitPoint([]byte("abcé"), 4))
	// ✓ is three bytes starting at index 2
	require.Equal(t, 2, splitPoint([]byte("ab✓z"), 4))
}

func TestDeleteClamps(t *testing.T) {
	tbl := newTable(true, "hello\nworld")
	tbl.Delete(-5, 2)
	requireModel(t, tbl, "hello\nworld")
	tbl.Delete(-2, 3)
	requireModel(t, tbl, "ello\nworld")
	tbl.Delete(-1, 1)
	requireModel(t, tbl, "ello\nworld")
	tbl.Insert(0, []byte("h"), true)
	tbl.Delete(8, 100)
	requireModel(t, tbl, "hello\nwo")
	tbl.Delete(0, 0)
	requireModel(t, tbl, "hello\nwo")
	tbl.Delete(0, tbl.Length())
	requireModel(t, tbl, "")
	tbl.Insert(99, []byte("x"), true)
	requireModel(t, tbl, "x")
}

func TestSearchCache(t *testing.T) {
	tbl := New([]StringBuffer{
		NewStringBuffer([]byte("a\nb\n")),
		NewStringBuffer([]byte("c\nd\n")),
		NewStringBuffer([]byte("e\nf")),
	}, piecetree.LF, true, testOption{searchCacheSize: 3})

	for range 2 {
		for line := 1; line <= tbl.LineCount(); line++ {
			require.Equal(t, string(rune('a'+line-1)), string(tbl.LineContent(line)))
		}
	}
	require.NotEmpty(t, tbl.cache.entries)
	require.LessOrEqual(t, len(tbl.cache.entries), 3)

	tbl.Delete(4, 4)
	for _, e := range tbl.cache.entries {
		require.Less(t, e.startOffset, 4)
	}
	requireModel(t, tbl, "a\nb\ne\nf")
}

func TestSearchCacheDropsFreedNodes(t *testing.T) {
	tbl := New([]StringBuffer{
		NewStringBuffer([]byte("a\nb\n")),
		NewStringBuffer([]byte("c\nd\n")),
	}, piecetree.LF, true, testOption{searchCacheSize: 4})
	require.Equal(t, "d", string(tbl.LineContent(4)))
	first := tbl.tree.First()
	tbl.cache.set(cacheEntry{node: first, startLine: 1, startOffset: 0})

	tbl.Delete(0, 4)
	for _, e := range tbl.cache.entries {
		require.NotEqual(t, first, e.node)
	}
	requireModel(t, tbl, "c\nd\n")
}

func TestSetEOL(t *testing.T) {
	tbl := New([]StringBuffer{NewStringBuffer([]byte("a\r\nb\rc\nd"))}, piecetree.LF, false, testOption{bufferSize: 16})
	tbl.Insert(1, bytes.Repeat([]byte("xy\n"), 20), false)
	model := replaceBreaks("a"+string(bytes.Repeat([]byte("xy\n"), 20))+"\r\nb\rc\nd", "\r\n")

	tbl.SetEOL(piecetree.CRLF)
	require.Equal(t, piecetree.CRLF, tbl.EOL())
	require.True(t, tbl.EOLNormalized())
	requireModel(t, tbl, model)

	tbl.SetEOL(piecetree.LF)
	requireModel(t, tbl, replaceBreaks(model, "\n"))
}

func replaceBreaks(s, eol string) string {
	return string(ReplaceLineBreaks([]byte(s), []byte(eol)))
}

func TestNormalizedClaimIsChecked(t *testing.T) {
	tbl := newTable(true, "a\nb")
	require.True(t, tbl.EOLNormalized())
	tbl.Insert(1, []byte("x\r"), true)
	require.False(t, tbl.EOLNormalized())
	requireModel(t, tbl, "ax\r\nb")
}

func TestEqual(t *testing.T) {
	a := newTable(true, "abc", "\ndef")
	b := newTable(true, "ab", "c\nd", "ef")
	require.True(t, Equal(a, b))
	b.Insert(0, []byte("z"), true)
	require.False(t, Equal(a, b))
	b.Delete(0, 1)
	require.True(t, Equal(a, b))
}

func TestSnapshot(t *testing.T) {
	tbl := newTable(true, "abc\n", "def")
	snap := tbl.CreateSnapshot([]byte{0xEF, 0xBB, 0xBF})
	tbl.Insert(0, []byte("zzz"), true)
	tbl.Delete(5, 3)

	var got []byte
	for chunk := snap.Read(); chunk != nil; chunk = snap.Read() {
		got = append(got, chunk...)
	}
	require.Equal(t, "\xEF\xBB\xBFabc\ndef", string(got))
	require.Nil(t, snap.Read())

	empty := newTable(true).CreateSnapshot(nil)
	chunk := empty.Read()
	require.NotNil(t, chunk)
	require.Empty(t, chunk)
	require.Nil(t, empty.Read())
}

func TestSnapshotPinsAppendedTail(t *testing.T) {
	tbl := newTable(false)
	tbl.Insert(0, []byte("a\r"), false)
	snap := tbl.CreateSnapshot(nil)
	tbl.Insert(2, []byte("\nb"), false)

	var buf bytes.Buffer
	n, err := snap.WriteTo(&buf)
	require.NoError(t, err)
	require.EqualValues(t, 2, n)
	require.Equal(t, "a\r", buf.String())
	require.Nil(t, snap.Read())
}

func TestRandomEdits(t *testing.T) {
	alphabets := []string{
		"abcdefghij",
		"ab\n",
		"a\r\n",
		"\r\n\r\nx",
	}
	for seed, alphabet := range alphabets {
		r := rand.New(rand.NewPCG(uint64(seed), 99))
		tbl := New(nil, piecetree.LF, false, testOption{bufferSize: 16, searchCacheSize: 1 + seed})
		model := ""
		randomText := func() string {
			b := make([]byte, 1+r.IntN(24))
			for i := range b {
				b[i] = alphabet[r.IntN(len(alphabet))]
			}
			return string(b)
		}

		for step := range 600 {
			switch op := r.IntN(10); {
			case op < 5 || len(model) == 0:
				offset := r.IntN(len(model) + 1)
				text := randomText()
				tbl.Insert(offset, []byte(text), false)
				model = model[:offset] + text + model[offset:]
			case op < 6:
				text := randomText()
				tbl.Insert(len(model), []byte(text), false)
				model += text
			default:
				offset := r.IntN(len(model))
				count := 1 + r.IntN(min(len(model)-offset, 30))
				tbl.Delete(offset, count)
				model = model[:offset] + model[offset+count:]
			}
			require.NoError(t, tbl.Validate(), "alphabet %q step %d", alphabet, step)
			require.Equal(t, model, string(tbl.Content()), "alphabet %q step %d", alphabet, step)
			require.Equal(t, len(splitLines(model)), tbl.LineCount())
			if step%25 == 0 {
				requireModel(t, tbl, model)
			}
		}
		requireModel(t, tbl, model)
	}
}
