package parser

import (
	"testing"

	"github.com/javanhut/vtcore/grid"
	"github.com/javanhut/vtcore/palette"
)

func feedString(p *Parser, s string) {
	p.FeedBytes([]byte(s))
}

func TestSimpleWrite(t *testing.T) {
	g := grid.New(24, 80)
	p := New(g, nil)
	feedString(p, "a")
	row, col := g.Cursor()
	if row != 0 || col != 1 {
		t.Fatalf("cursor = (%d,%d), want (0,1)", row, col)
	}
	if got := g.DisplayCell(0, 0).Rune; got != 'a' {
		t.Fatalf("cell(0,0) = %q, want 'a'", got)
	}
}

func TestCRLF(t *testing.T) {
	g := grid.New(2, 80)
	p := New(g, nil)
	feedString(p, "a\r\n")
	row, col := g.Cursor()
	if row != 1 || col != 0 {
		t.Fatalf("cursor = (%d,%d), want (1,0)", row, col)
	}
	if got := g.DisplayCell(0, 0).Rune; got != 'a' {
		t.Fatalf("cell(0,0) = %q, want 'a'", got)
	}
}

func TestTabAdvance(t *testing.T) {
	g := grid.New(24, 80)
	p := New(g, nil)
	feedString(p, "a\t")
	_, col := g.Cursor()
	if col != 8 {
		t.Fatalf("col = %d, want 8", col)
	}
}

func TestICHInsert(t *testing.T) {
	g := grid.New(24, 80)
	p := New(g, nil)
	feedString(p, "a\r\x1b[2@")
	if got := g.DisplayCell(0, 0).Rune; got != ' ' {
		t.Fatalf("cell(0,0) = %q, want blank", got)
	}
	if got := g.DisplayCell(0, 1).Rune; got != ' ' {
		t.Fatalf("cell(0,1) = %q, want blank", got)
	}
	if got := g.DisplayCell(0, 2).Rune; got != 'a' {
		t.Fatalf("cell(0,2) = %q, want 'a' (shifted right by 2)", got)
	}
	row, col := g.Cursor()
	if row != 0 || col != 0 {
		t.Fatalf("cursor = (%d,%d), want (0,0)", row, col)
	}
}

func TestCursorUpClampedAtScrollTop(t *testing.T) {
	g := grid.New(24, 80)
	p := New(g, nil)
	feedString(p, "b\r\x1b[2;3r")
	top, bottom := g.ScrollRegion()
	if top != 1 || bottom != 2 {
		t.Fatalf("scroll region = [%d,%d], want [1,2]", top, bottom)
	}
	row, col := g.Cursor()
	if row != 1 || col != 0 {
		t.Fatalf("cursor after DECSTBM = (%d,%d), want (1,0)", row, col)
	}
	feedString(p, "\r\x1b[A")
	row, col = g.Cursor()
	if row != 1 || col != 0 {
		t.Fatalf("cursor after CUU across scroll_top = (%d,%d), want (1,0)", row, col)
	}
}

func TestDECALN(t *testing.T) {
	g := grid.New(2, 3)
	p := New(g, nil)
	feedString(p, "\x1b#8")
	for r := 0; r < g.Rows; r++ {
		for c := 0; c < g.Cols; c++ {
			if got := g.DisplayCell(r, c).Rune; got != 'E' {
				t.Fatalf("cell(%d,%d) = %q, want 'E'", r, c, got)
			}
		}
	}
}

type capturingCollaborator struct {
	written       [][]byte
	copied        []string
	pasteRequests int
}

func (c *capturingCollaborator) WriteToPty(b []byte) {
	cp := make([]byte, len(b))
	copy(cp, b)
	c.written = append(c.written, cp)
}
func (c *capturingCollaborator) Copy(base64 string)         { c.copied = append(c.copied, base64) }
func (c *capturingCollaborator) RequestPaste()              { c.pasteRequests++ }
func (c *capturingCollaborator) ResizeExternalWindow(newCols int) {}

func TestPrimaryDAReply(t *testing.T) {
	g := grid.New(24, 80)
	coll := &capturingCollaborator{}
	p := New(g, coll)
	feedString(p, "\x1b[c")
	if len(coll.written) != 1 {
		t.Fatalf("expected one reply write, got %d", len(coll.written))
	}
	want := []byte{0x1B, 0x5B, 0x3F, 0x31, 0x3B, 0x32, 0x63}
	if string(coll.written[0]) != string(want) {
		t.Fatalf("primary DA reply = % X, want % X", coll.written[0], want)
	}
}

func TestELThenRewrite(t *testing.T) {
	g := grid.New(24, 80)
	p := New(g, nil)
	feedString(p, "ab\b\x1b[K")
	if got := g.DisplayCell(0, 0).Rune; got != 'a' {
		t.Fatalf("cell(0,0) = %q, want 'a'", got)
	}
	if got := g.DisplayCell(0, 1).Rune; got != ' ' {
		t.Fatalf("cell(0,1) = %q, want blank", got)
	}
	row, col := g.Cursor()
	if row != 0 || col != 1 {
		t.Fatalf("cursor = (%d,%d), want (0,1)", row, col)
	}
}

func TestSGRResetIsIdempotent(t *testing.T) {
	g := grid.New(24, 80)
	p := New(g, nil)
	feedString(p, "\x1b[1;31;44m\x1b[0m")
	once := p.Style()
	feedString(p, "\x1b[0m")
	twice := p.Style()
	if once != twice {
		t.Fatalf("SGR 0 not idempotent: %+v != %+v", once, twice)
	}
}

func TestSGRReverseInverseSymmetry(t *testing.T) {
	g := grid.New(24, 80)
	p := New(g, nil)
	feedString(p, "\x1b[31;44m")
	before := p.Style()
	feedString(p, "\x1b[7m\x1b[27m")
	after := p.Style()
	if before != after {
		t.Fatalf("SGR 7 then 27 did not restore style: %+v != %+v", before, after)
	}
}

func TestSGR256AndRGB(t *testing.T) {
	g := grid.New(24, 80)
	p := New(g, nil)
	feedString(p, "\x1b[38;5;196m")
	fg := p.Style().Fg
	if fg.Kind != palette.Kind256 || fg.Index != 196 {
		t.Fatalf("expected 256-indexed fg 196, got %+v", fg)
	}
	feedString(p, "\x1b[48;2;10;20;30m")
	bg := p.Style().Bg
	if bg.Kind != palette.KindRGB || bg.RGB.R != 10 || bg.RGB.G != 20 || bg.RGB.B != 30 {
		t.Fatalf("expected RGB bg (10,20,30), got %+v", bg)
	}
}

func TestDSRCursorPositionReport(t *testing.T) {
	g := grid.New(24, 80)
	coll := &capturingCollaborator{}
	p := New(g, coll)
	feedString(p, "\x1b[5;10H\x1b[6n")
	if len(coll.written) != 1 {
		t.Fatalf("expected one reply write, got %d", len(coll.written))
	}
	want := "\x1b[5;10R"
	if string(coll.written[0]) != want {
		t.Fatalf("DSR6 reply = %q, want %q", coll.written[0], want)
	}
}

func TestREPRepeatsLastGraphic(t *testing.T) {
	g := grid.New(24, 80)
	p := New(g, nil)
	feedString(p, "x\x1b[3b")
	for c := 0; c < 4; c++ {
		if got := g.DisplayCell(0, c).Rune; got != 'x' {
			t.Fatalf("cell(0,%d) = %q, want 'x'", c, got)
		}
	}
	_, col := g.Cursor()
	if col != 4 {
		t.Fatalf("col = %d, want 4", col)
	}
}

func TestAltScreenModeSwap(t *testing.T) {
	g := grid.New(5, 5)
	p := New(g, nil)
	feedString(p, "m")
	feedString(p, "\x1b[?1049h")
	if !g.InAltScreen() {
		t.Fatal("expected alt screen active after CSI ?1049h")
	}
	feedString(p, "\x1b[?1049l")
	if g.InAltScreen() {
		t.Fatal("expected main screen restored after CSI ?1049l")
	}
	if got := g.DisplayCell(0, 0).Rune; got != 'm' {
		t.Fatalf("main screen content lost: got %q", got)
	}
}

func TestRISFullReset(t *testing.T) {
	g := grid.New(24, 80)
	p := New(g, nil)
	feedString(p, "\x1b[31mhello\x1b[5;10r")
	feedString(p, "\x1bc")
	if got := p.Style(); got != palette.DefaultStyle() {
		t.Fatalf("style after RIS = %+v, want default", got)
	}
	top, bottom := g.ScrollRegion()
	if top != 0 || bottom != g.Rows-1 {
		t.Fatalf("scroll region after RIS = [%d,%d], want full height", top, bottom)
	}
	if got := g.DisplayCell(0, 0).Rune; got != ' ' {
		t.Fatalf("cell(0,0) after RIS = %q, want blank", got)
	}
}

func TestOSC52CopyInvokesCollaborator(t *testing.T) {
	g := grid.New(24, 80)
	coll := &capturingCollaborator{}
	p := New(g, coll)
	feedString(p, "\x1b]52;c;aGVsbG8=\x07")
	if len(coll.copied) != 1 || coll.copied[0] != "aGVsbG8=" {
		t.Fatalf("Copy called with %v, want one call with \"aGVsbG8=\"", coll.copied)
	}
	feedString(p, "z")
	if got := g.DisplayCell(0, 0).Rune; got != 'z' {
		t.Fatalf("parser state corrupted after OSC 52: cell(0,0) = %q", got)
	}
}

func TestOSC52PasteRequestInvokesCollaborator(t *testing.T) {
	g := grid.New(24, 80)
	coll := &capturingCollaborator{}
	p := New(g, coll)
	feedString(p, "\x1b]52;c;?\x07")
	if coll.pasteRequests != 1 {
		t.Fatalf("RequestPaste called %d times, want 1", coll.pasteRequests)
	}
}

func TestOSC7UpdatesWorkingDirectory(t *testing.T) {
	g := grid.New(24, 80)
	p := New(g, nil)
	feedString(p, "\x1b]7;file://host/home/user/project\x1b\\")
	if got := p.WorkingDirectory(); got != "/home/user/project" {
		t.Fatalf("WorkingDirectory() = %q, want /home/user/project", got)
	}
}

func TestUnknownEscapeDoesNotCorruptGrid(t *testing.T) {
	g := grid.New(24, 80)
	p := New(g, nil)
	feedString(p, "\x1bZ")
	feedString(p, "ok")
	if got := g.DisplayCell(0, 0).Rune; got != 'o' {
		t.Fatalf("cell(0,0) = %q, want 'o'", got)
	}
	if got := g.DisplayCell(0, 1).Rune; got != 'k' {
		t.Fatalf("cell(0,1) = %q, want 'k'", got)
	}
}

func TestMultiByteUTF8PassesThroughGroundDispatch(t *testing.T) {
	g := grid.New(24, 80)
	p := New(g, nil)
	feedString(p, "café")
	if got := g.DisplayCell(0, 0).Rune; got != 'c' {
		t.Fatalf("cell(0,0) = %q, want 'c'", got)
	}
	if got := g.DisplayCell(0, 3).Rune; got != 'é' {
		t.Fatalf("cell(0,3) = %q, want 'é'", got)
	}
	_, col := g.Cursor()
	if col != 4 {
		t.Fatalf("cursor col = %d, want 4", col)
	}
}

func TestWideCJKRuneOccupiesTwoCellsThroughGroundDispatch(t *testing.T) {
	g := grid.New(24, 80)
	p := New(g, nil)
	feedString(p, "你好")
	if got := g.DisplayCell(0, 0).Rune; got != '你' {
		t.Fatalf("cell(0,0) = %q, want '\\u4f60'", got)
	}
	if !g.DisplayCell(0, 1).IsWideContinuation() {
		t.Fatal("cell(0,1) expected wide continuation sentinel")
	}
	if got := g.DisplayCell(0, 2).Rune; got != '好' {
		t.Fatalf("cell(0,2) = %q, want '\\u597d'", got)
	}
	_, col := g.Cursor()
	if col != 4 {
		t.Fatalf("cursor col = %d, want 4", col)
	}
}
