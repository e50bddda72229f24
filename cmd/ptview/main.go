// ptview is a simple CLI tool for browsing text files through the piece tree.
//
// Usage:
//
//	ptview <filename>              # interactive mode
//	ptview -l <filename>           # list mode (print all lines)
//	ptview -l -n 20 <filename>     # list first 20 lines
//	ptview -c cfg.yaml <filename>  # load settings from a YAML or TOML file
//
// Interactive mode:
//
//	j/↓    scroll down
//	k/↑    scroll up
//	g      jump to first line
//	G      jump to last line
//	/      search text (next line containing it)
//	q/Esc  quit
package main

import (
	"bufio"
	"bytes"
	"flag"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/dacapoday/piecetree/builder"
	"github.com/dacapoday/piecetree/config"
	"github.com/dacapoday/piecetree/iterator"
	"github.com/dacapoday/piecetree/textbuf"
	"github.com/rivo/uniseg"
	"golang.org/x/term"
)

func main() {
	listFlag := flag.Bool("l", false, "list mode (non-interactive)")
	countFlag := flag.Int("n", 0, "number of lines (0 = all)")
	widthFlag := flag.Int("w", 0, "truncate lines to this many cells in list mode (0 = no limit)")
	configFlag := flag.String("c", "", "config file (.yaml, .yml or .toml)")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: ptview [-l] [-n count] [-w width] [-c config] <filename>")
		os.Exit(1)
	}

	cfg := config.Default()
	if *configFlag != "" {
		var err error
		if cfg, err = config.Load(*configFlag); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	}

	filename := flag.Arg(0)
	buf, err := open(filename, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if *listFlag {
		runList(buf, *countFlag, *widthFlag)
		return
	}

	runInteractive(filename, buf)
}

func open(filename string, cfg *config.Config) (*textbuf.Buffer, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var b builder.Builder
	if _, err := b.ReadFrom(f); err != nil {
		return nil, err
	}
	return b.Finish(cfg.NormalizeEOL()).Create(cfg.DefaultEOL(), cfg), nil
}

func runList(buf *textbuf.Buffer, count, width int) {
	w := bufio.NewWriter(os.Stdout)
	defer w.Flush()

	it := buf.Lines()
	for line, text := range iterator.Lines(it) {
		if count > 0 && line > count {
			break
		}
		fmt.Fprintf(w, "%6d  %s\n", line, display(text, width))
	}
	if err := it.Error(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func runInteractive(filename string, buf *textbuf.Buffer) {
	oldState, err := term.MakeRaw(int(os.Stdin.Fd()))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer term.Restore(int(os.Stdin.Fd()), oldState)

	v := &viewer{
		name: filename,
		buf:  buf,
		iter: buf.Lines(),
		top:  1,
	}
	v.updateSize()
	v.load()

	fmt.Print("\033[?25l\033[2J")             // hide cursor, clear screen once
	defer fmt.Print("\033[?25h\033[2J\033[H") // show cursor, clear screen

	reader := bufio.NewReader(os.Stdin)

	for {
		// update terminal size on each render
		if v.updateSize() {
			v.load() // reload if size changed
		}
		v.render()

		b, err := reader.ReadByte()
		if err != nil {
			break
		}

		v.status = "" // clear status on any input

		switch b {
		case 'q', 3, 27: // q, Ctrl+C, Esc
			if b == 27 && reader.Buffered() > 0 {
				// escape sequence
				b2, _ := reader.ReadByte()
				if b2 == '[' {
					b3, _ := reader.ReadByte()
					switch b3 {
					case 'A': // up
						v.up()
					case 'B': // down
						v.down()
					case '5': // page up
						reader.ReadByte()
						v.pageUp()
					case '6': // page down
						reader.ReadByte()
						v.pageDown()
					}
				}
				continue
			}
			return
		case 'j':
			v.down()
		case 'k':
			v.up()
		case 'g':
			v.first()
		case 'G':
			v.last()
		case '/':
			v.search(reader)
		}
	}
}

type viewer struct {
	name   string
	buf    *textbuf.Buffer
	iter   *textbuf.LineIter
	top    int      // line shown first
	lines  [][]byte // visible lines from top
	width  int
	height int
	status string
}

// updateSize checks terminal size and returns true if changed.
func (v *viewer) updateSize() bool {
	w, h, err := term.GetSize(int(os.Stdin.Fd()))
	if err != nil {
		w, h = 80, 24
	}
	if w == v.width && h == v.height {
		return false
	}
	v.width, v.height = w, h
	return true
}

func (v *viewer) rows() int {
	return v.height - 4 // title + separator + separator + status
}

func (v *viewer) load() {
	v.lines = v.lines[:0]
	for v.iter.Seek(v.top); v.iter.Valid() && len(v.lines) < v.rows(); v.iter.Next() {
		v.lines = append(v.lines, v.iter.Bytes())
	}
}

func (v *viewer) atStart() bool { return v.top <= 1 }

func (v *viewer) atEnd() bool { return v.top+len(v.lines) > v.buf.LineCount() }

func (v *viewer) down() {
	// at end, allow scrolling until only 1 line visible
	if v.top < v.buf.LineCount() {
		v.top++
		v.load()
	}
}

func (v *viewer) up() {
	if !v.atStart() {
		v.top--
		v.load()
	}
}

func (v *viewer) pageDown() {
	v.top = min(v.top+v.rows()-1, v.buf.LineCount())
	v.load()
}

func (v *viewer) pageUp() {
	v.top = max(v.top-v.rows()+1, 1)
	v.load()
}

func (v *viewer) first() {
	v.top = 1
	v.load()
}

func (v *viewer) last() {
	// back up to show a full screen
	v.top = max(v.buf.LineCount()-v.rows()+1, 1)
	v.load()
}

func (v *viewer) search(reader *bufio.Reader) {
	// show search prompt
	fmt.Print("\033[?25h") // show cursor
	fmt.Printf("\033[%d;1H\033[K/", v.height)

	// read search input
	var input []byte
	for {
		b, err := reader.ReadByte()
		if err != nil {
			break
		}
		if b == 27 || b == 3 { // Esc or Ctrl+C
			fmt.Print("\033[?25l")
			v.status = ""
			return
		}
		if b == 13 || b == 10 { // Enter
			break
		}
		if b == 127 || b == 8 { // Backspace
			if len(input) > 0 {
				_, size := utf8.DecodeLastRune(input)
				input = input[:len(input)-size]
				fmt.Print("\b \b")
			}
			continue
		}
		if b >= 32 {
			input = append(input, b)
			os.Stdout.Write([]byte{b})
		}
	}
	fmt.Print("\033[?25l")

	if len(input) == 0 {
		v.status = ""
		return
	}

	// search forward from the line after top
	if !v.iter.Seek(v.top + 1) {
		v.status = "not found"
		return
	}
	for line, text := range iterator.Lines(v.iter) {
		if bytes.Contains(text, input) {
			v.top = line
			v.load()
			v.status = fmt.Sprintf("line %d: %s", line, display(input, 20))
			return
		}
	}
	v.status = "not found"
}

func (v *viewer) render() {
	var b strings.Builder

	// move to top (no clear)
	b.WriteString("\033[H")

	// header
	fmt.Fprintf(&b, "[ ptview ] %s  %d lines  %s  %016x\033[K\r\n",
		display([]byte(v.name), 32), v.buf.LineCount(), v.buf.EOL(), v.buf.Checksum())
	b.WriteString(strings.Repeat("─", v.width))
	b.WriteString("\033[K\r\n")

	textWidth := max(v.width-8, 20)
	for i := range v.rows() {
		if i < len(v.lines) {
			fmt.Fprintf(&b, "%6d  %s", v.top+i, display(v.lines[i], textWidth))
		} else {
			b.WriteString("~")
		}
		b.WriteString("\033[K\r\n")
	}

	// footer
	b.WriteString(strings.Repeat("─", v.width))
	b.WriteString("\033[K\r\n")

	// status line
	pos := ""
	if v.atStart() && v.atEnd() {
		pos = "[all]"
	} else if v.atStart() {
		pos = "[top]"
	} else if v.atEnd() {
		pos = "[end]"
	}

	if v.status != "" {
		b.WriteString(" ")
		b.WriteString(v.status)
		b.WriteString(" ")
		b.WriteString(pos)
	} else {
		b.WriteString(" j/k:scroll g/G:jump /:search q:quit ")
		b.WriteString(pos)
	}
	b.WriteString("\033[K")

	fmt.Print(b.String())
}

// display renders a line in at most width terminal cells (no limit when width <= 0).
// Tabs expand to 4 column stops and control characters show in caret notation.
func display(b []byte, width int) string {
	rest := string(bytes.ToValidUTF8(b, []byte("�")))

	var sb strings.Builder
	cells := 0
	state := -1
	for len(rest) > 0 {
		var cluster string
		var w int
		cluster, rest, w, state = uniseg.FirstGraphemeClusterInString(rest, state)
		switch c := cluster[0]; {
		case c == '\t':
			w = 4 - cells%4
			cluster = strings.Repeat(" ", w)
		case c < 0x20:
			cluster, w = "^"+string(rune(c+'@')), 2
		case c == 0x7f:
			cluster, w = "^?", 2
		}
		if width > 0 && cells+w > width {
			break
		}
		if width > 0 && len(rest) > 0 && cells+w == width {
			sb.WriteString("…")
			return sb.String()
		}
		sb.WriteString(cluster)
		cells += w
	}
	return sb.String()
}
