package grid

import (
	"testing"

	"github.com/javanhut/vtcore/palette"
)

func TestNewGridDimensions(t *testing.T) {
	g := New(24, 80)
	if g.Rows != 24 || g.Cols != 80 {
		t.Fatalf("got %dx%d, want 24x80", g.Rows, g.Cols)
	}
	top, bottom := g.ScrollRegion()
	if top != 0 || bottom != 23 {
		t.Fatalf("scroll region = [%d,%d], want [0,23]", top, bottom)
	}
}

func TestNewGridClampsBelowMinimum(t *testing.T) {
	g := New(0, -5)
	if g.Rows != 1 || g.Cols != 1 {
		t.Fatalf("got %dx%d, want 1x1", g.Rows, g.Cols)
	}
}

func TestInsertCellAdvancesCursor(t *testing.T) {
	g := New(24, 80)
	g.InsertCell('a', palette.DefaultStyle(), 1, true)
	row, col := g.Cursor()
	if row != 0 || col != 1 {
		t.Fatalf("cursor = (%d,%d), want (0,1)", row, col)
	}
	if got := g.DisplayCell(0, 0).Rune; got != 'a' {
		t.Fatalf("cell(0,0) = %q, want 'a'", got)
	}
}

func TestCRLF(t *testing.T) {
	g := New(2, 80)
	g.InsertCell('a', palette.DefaultStyle(), 1, true)
	g.CarriageReturn()
	g.Newline()
	row, col := g.Cursor()
	if row != 1 || col != 0 {
		t.Fatalf("cursor = (%d,%d), want (1,0)", row, col)
	}
	if got := g.DisplayCell(0, 0).Rune; got != 'a' {
		t.Fatalf("cell(0,0) = %q, want 'a'", got)
	}
}

func TestTabAdvance(t *testing.T) {
	g := New(24, 80)
	g.InsertCell('a', palette.DefaultStyle(), 1, true)
	g.Tab()
	_, col := g.Cursor()
	if col != 8 {
		t.Fatalf("col = %d, want 8", col)
	}
}

func TestTabNoStopsLandsOnLastColumn(t *testing.T) {
	g := New(24, 80)
	g.ClearAllTabStops()
	g.Tab()
	_, col := g.Cursor()
	if col != g.Cols-1 {
		t.Fatalf("col = %d, want %d", col, g.Cols-1)
	}
}

func TestInsertChars(t *testing.T) {
	g := New(24, 80)
	g.InsertCell('a', palette.DefaultStyle(), 1, true)
	g.CarriageReturn()
	g.InsertChars(2)
	row, col := g.Cursor()
	if row != 0 || col != 0 {
		t.Fatalf("cursor = (%d,%d), want (0,0)", row, col)
	}
	if got := g.DisplayCell(0, 0).Rune; got != ' ' {
		t.Fatalf("cell(0,0) = %q, want blank", got)
	}
	if got := g.DisplayCell(0, 1).Rune; got != ' ' {
		t.Fatalf("cell(0,1) = %q, want blank", got)
	}
	if got := g.DisplayCell(0, 2).Rune; got != 'a' {
		t.Fatalf("cell(0,2) = %q, want 'a'", got)
	}
}

func TestCursorClampedAtScrollRegionInOriginMode(t *testing.T) {
	g := New(24, 80)
	if ok := g.SetScrollRegion(5, 10); !ok {
		t.Fatal("SetScrollRegion(5, 10) rejected")
	}
	g.SetOriginMode(true)
	g.SetCursor(0, 0)
	row, _ := g.Cursor()
	if row != 5 {
		t.Fatalf("origin-mode home row = %d, want 5 (scrollTop)", row)
	}
	// Moving above scrollTop must clamp back to it.
	g.MoveCursor(-3, 0)
	if row, _ := g.Cursor(); row != 5 {
		t.Fatalf("cursor crossed scroll_top: row = %d, want 5", row)
	}
	// Moving past scrollBottom must clamp to it.
	g.MoveCursor(20, 0)
	if row, _ := g.Cursor(); row != 10 {
		t.Fatalf("cursor crossed scroll_bottom: row = %d, want 10", row)
	}
}

func TestDECALNFillsEntireGrid(t *testing.T) {
	g := New(2, 3)
	g.Fill('E', palette.DefaultStyle())
	for r := 0; r < g.Rows; r++ {
		for c := 0; c < g.Cols; c++ {
			if got := g.DisplayCell(r, c).Rune; got != 'E' {
				t.Fatalf("cell(%d,%d) = %q, want 'E'", r, c, got)
			}
		}
	}
}

func TestELThenRewrite(t *testing.T) {
	g := New(24, 80)
	g.InsertCell('a', palette.DefaultStyle(), 1, true)
	g.InsertCell('b', palette.DefaultStyle(), 1, true)
	g.Backspace()
	g.EraseLineToEnd()
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

func TestWrapInvarianceWithAutowrapOff(t *testing.T) {
	g := New(24, 10)
	for i := 0; i < 12; i++ {
		g.InsertCell(rune('a'+i), palette.DefaultStyle(), 1, false)
	}
	if got := g.DisplayCell(0, 9).Rune; got != 'a'+11 {
		t.Fatalf("last column = %q, want last written char", got)
	}
	_, col := g.Cursor()
	if col != 10 {
		t.Fatalf("col = %d, want 10 (cursor rests one past last column; overwrite-in-place never moves it)", col)
	}
}

func TestWrapInvarianceWithAutowrapOn(t *testing.T) {
	g := New(24, 10)
	for i := 0; i < 10; i++ {
		g.InsertCell(rune('a'+i), palette.DefaultStyle(), 1, true)
	}
	_, col := g.Cursor()
	if col != 10 {
		t.Fatalf("col = %d, want 10 (deferred wrap rests one past last column)", col)
	}
}

func TestScrollbackConservation(t *testing.T) {
	g := New(3, 10)
	for i := 0; i < 5; i++ {
		g.InsertCell(rune('0'+i), palette.DefaultStyle(), 1, true)
		g.CarriageReturn()
		g.Newline()
	}
	if g.ScrollbackLen() == 0 {
		t.Fatal("expected retired rows in scrollback")
	}
	if g.ScrollbackLen() > DefaultScrollbackCap {
		t.Fatalf("scrollback len %d exceeds cap %d", g.ScrollbackLen(), DefaultScrollbackCap)
	}
}

func TestEraseSafetyLeavesDefaultBlankCells(t *testing.T) {
	g := New(5, 5)
	g.Fill('x', palette.Style{Fg: palette.ANSI(1)})
	g.EraseAll()
	want := blankCell()
	for r := 0; r < g.Rows; r++ {
		for c := 0; c < g.Cols; c++ {
			if got := g.DisplayCell(r, c); got != want {
				t.Fatalf("cell(%d,%d) = %+v, want default blank %+v", r, c, got, want)
			}
		}
	}
}

func TestResizeBelowMinimumClamped(t *testing.T) {
	g := New(24, 80)
	g.ResizeTo(0, 0)
	if g.Rows != 1 || g.Cols != 1 {
		t.Fatalf("got %dx%d, want 1x1", g.Rows, g.Cols)
	}
}

func TestResizePreservesTabStopsAndExtendsDefaults(t *testing.T) {
	g := New(24, 10)
	g.ClearAllTabStops()
	g.SetTabStop() // at col 0
	g.ResizeTo(24, 20)
	if !g.tabStops[0] {
		t.Fatal("existing tab stop at col 0 was not preserved")
	}
	if !g.tabStops[16] {
		t.Fatal("newly exposed column 16 should default to a tab stop (multiple of 8)")
	}
}

func TestSaveRestoreCursor(t *testing.T) {
	g := New(24, 80)
	g.SetCursor(5, 10)
	style := palette.Style{Fg: palette.ANSI(2)}
	g.SaveCursor(style)
	g.SetCursor(0, 0)
	got, ok := g.RestoreCursor()
	if !ok {
		t.Fatal("RestoreCursor reported nothing saved")
	}
	if got != style {
		t.Fatalf("restored style = %+v, want %+v", got, style)
	}
	row, col := g.Cursor()
	if row != 5 || col != 10 {
		t.Fatalf("cursor = (%d,%d), want (5,10)", row, col)
	}
}

func TestAltScreenRoundTrip(t *testing.T) {
	g := New(3, 3)
	g.InsertCell('m', palette.DefaultStyle(), 1, true)
	g.EnterAltScreen()
	if got := g.DisplayCell(0, 0).Rune; got != ' ' {
		t.Fatalf("alt screen should start blank, got %q", got)
	}
	g.InsertCell('a', palette.DefaultStyle(), 1, true)
	g.ExitAltScreen()
	if got := g.DisplayCell(0, 0).Rune; got != 'm' {
		t.Fatalf("main screen content lost across alt-screen round trip: got %q", got)
	}
}

func TestWideCellSentinelInvariant(t *testing.T) {
	g := New(24, 80)
	g.InsertCell('国', palette.DefaultStyle(), 2, true)
	if !g.DisplayCell(0, 1).IsWideContinuation() {
		t.Fatal("expected sentinel cell immediately after a wide cell")
	}
	_, col := g.Cursor()
	if col != 2 {
		t.Fatalf("col = %d, want 2 after a double-width insert", col)
	}
}
