package textbuf_test

import (
	"fmt"

	"github.com/dacapoday/piecetree"
	"github.com/dacapoday/piecetree/piecetable"
	"github.com/dacapoday/piecetree/textbuf"
)

func ExampleBuffer_ApplyEdits() {
	chunks := []piecetable.StringBuffer{piecetable.NewStringBuffer([]byte("hello\nworld"))}
	buf := textbuf.New(chunks, textbuf.Meta{EOL: piecetree.LF, EOLNormalized: true, IsBasicASCII: true}, nil)

	res, err := buf.ApplyEdits([]textbuf.EditOperation{
		{Range: piecetree.NewRange(1, 1, 1, 6), Text: []byte("goodbye")},
		{Range: piecetree.NewRange(2, 6, 2, 6), Text: []byte("!")},
	}, false)
	if err != nil {
		panic(err)
	}
	for line := 1; line <= buf.LineCount(); line++ {
		fmt.Printf("%d: %s\n", line, buf.LineContent(line))
	}
	for _, r := range res.ReverseEdits {
		fmt.Printf("undo %s with %q\n", r.Range, r.Text)
	}

	_, err = buf.ApplyEdits([]textbuf.EditOperation{
		{Range: piecetree.NewRange(1, 1, 1, 4), Text: []byte("X")},
		{Range: piecetree.NewRange(1, 2, 1, 5), Text: []byte("Y")},
	}, false)
	fmt.Println(err)

	// Output:
	// 1: goodbye
	// 2: world!
	// undo [1,1 -> 1,8] with "hello"
	// undo [2,6 -> 2,7] with ""
	// [1,1 -> 1,4] and [1,2 -> 1,5]: overlapping ranges
}
