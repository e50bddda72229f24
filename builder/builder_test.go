package builder

import (
	"bytes"
	"io"
	"math/rand/v2"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/dacapoday/piecetree"
	"github.com/stretchr/testify/require"
)

func build(normalize bool, chunks ...string) *Factory {
	var b Builder
	for _, c := range chunks {
		b.AcceptChunk([]byte(c))
	}
	return b.Finish(normalize)
}

func text(f *Factory, def piecetree.EndOfLine) string {
	var out bytes.Buffer
	buf := f.Create(def, nil)
	buf.CreateSnapshot(true).WriteTo(&out)
	return out.String()
}

func TestBOM(t *testing.T) {
	f := build(false, "\xEF\xBB\xBFabc")
	require.Equal(t, BOM, f.BOM())
	buf := f.Create(piecetree.LF, nil)
	require.Equal(t, "abc", string(buf.LineContent(1)))
	require.Equal(t, "\xEF\xBB\xBFabc", text(f, piecetree.LF))

	// only a leading mark is stripped
	f = build(false, "abc", "\xEF\xBB\xBFdef")
	require.Nil(t, f.BOM())
	require.Equal(t, "abc\xEF\xBB\xBFdef", text(f, piecetree.LF))

	f = build(false, "\xEF\xBB\xBF", "\xEF\xBB\xBFx")
	require.Equal(t, BOM, f.BOM())
	require.Equal(t, "\xEF\xBB\xBF\xEF\xBB\xBFx", text(f, piecetree.LF))
}

func TestCarriageReturnCarried(t *testing.T) {
	f := build(false, "a\r", "\nb\r", "\r", "c\r")
	// only the final flush and a lone carried \r end a chunk with \r
	for _, chunk := range f.chunks[:len(f.chunks)-1] {
		if !bytes.Equal(chunk.Buffer, []byte("\r")) {
			require.False(t, bytes.HasSuffix(chunk.Buffer, []byte("\r")), "%q", chunk.Buffer)
		}
	}
	require.Equal(t, 1, f.crlf)
	require.Equal(t, 3, f.cr)
	require.Zero(t, f.lf)
	require.Equal(t, "a\r\nb\r\rc\r", text(f, piecetree.LF))
	require.Equal(t, 5, f.Create(piecetree.LF, nil).LineCount())

	f = build(false, "\r")
	require.Equal(t, 1, f.cr)
	require.Equal(t, "\r", text(f, piecetree.LF))
}

func TestEOL(t *testing.T) {
	require.Equal(t, piecetree.LF, build(false, "abc").EOL(piecetree.LF))
	require.Equal(t, piecetree.CRLF, build(false, "abc").EOL(piecetree.CRLF))
	require.Equal(t, piecetree.LF, build(false, "a\nb\r\nc").EOL(piecetree.CRLF))
	require.Equal(t, piecetree.CRLF, build(false, "a\r\nb\r\nc\n").EOL(piecetree.LF))
	require.Equal(t, piecetree.CRLF, build(false, "a\rb\r\nc\n").EOL(piecetree.LF))
	require.Equal(t, piecetree.LF, build(false, "a\rb\nc\nd").EOL(piecetree.LF))
}

func TestNormalize(t *testing.T) {
	f := build(true, "a\r\nb\r", "\nc\rd\n")
	require.Equal(t, piecetree.CRLF, f.EOL(piecetree.LF))
	buf := f.Create(piecetree.LF, nil)
	require.Equal(t, "a\r\nb\r\nc\r\nd\r\n", text(f, piecetree.LF))
	require.True(t, buf.Table().EOLNormalized())
	require.Equal(t, 5, buf.LineCount())

	f = build(false, "a\r\nb\r\nc\n")
	buf = f.Create(piecetree.LF, nil)
	require.Equal(t, "a\r\nb\r\nc\n", text(f, piecetree.LF))
	require.False(t, buf.Table().EOLNormalized())
	require.Equal(t, piecetree.CRLF, buf.EOL())
}

func TestClassification(t *testing.T) {
	buf := build(false, "plain").Create(piecetree.LF, nil)
	require.False(t, buf.MightContainRTL())
	require.False(t, buf.MightContainNonBasicASCII())

	buf = build(false, "plain", "naïve").Create(piecetree.LF, nil)
	require.False(t, buf.MightContainRTL())
	require.True(t, buf.MightContainNonBasicASCII())

	buf = build(false, "x", "שלום").Create(piecetree.LF, nil)
	require.True(t, buf.MightContainRTL())
}

func TestFirstLineText(t *testing.T) {
	f := build(false, "first line\r\nsecond")
	require.Equal(t, "first line", string(f.FirstLineText(100)))
	require.Equal(t, "first", string(f.FirstLineText(5)))
	require.Empty(t, build(false).FirstLineText(10))
}

func TestReadFrom(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 4))
	var sb strings.Builder
	sb.Write(BOM)
	for sb.Len() < 3*ChunkSize {
		switch r.IntN(10) {
		case 0:
			sb.WriteString("\r\n")
		case 1:
			sb.WriteString("\n")
		case 2:
			sb.WriteString("\r")
		default:
			sb.WriteByte(byte('a' + r.IntN(26)))
		}
	}
	input := sb.String()

	var b Builder
	n, err := b.ReadFrom(iotest.HalfReader(strings.NewReader(input)))
	require.NoError(t, err)
	require.Equal(t, int64(len(input)), n)

	f := b.Finish(false)
	require.Equal(t, BOM, f.BOM())
	require.Equal(t, input, text(f, piecetree.LF))

	breaks := strings.Count(input, "\r\n")
	require.Equal(t, breaks, f.crlf)
	require.Equal(t, strings.Count(input, "\r")-breaks, f.cr)
	require.Equal(t, strings.Count(input, "\n")-breaks, f.lf)
	require.Equal(t, 1+f.cr+f.lf+f.crlf, f.Create(piecetree.LF, nil).LineCount())
}

func TestReadFromError(t *testing.T) {
	var b Builder
	fail := io.MultiReader(strings.NewReader("abc"), iotest.ErrReader(io.ErrClosedPipe))
	n, err := b.ReadFrom(fail)
	require.ErrorIs(t, err, io.ErrClosedPipe)
	require.Equal(t, int64(3), n)
	require.Equal(t, "abc", text(b.Finish(false), piecetree.LF))
}
