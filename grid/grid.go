// Package grid implements the in-memory styled character buffer the
// parser mutates: the cell matrix, scrollback history, tab stops, cursor
// position and save slot, and the scrolling-region bounds. All operations
// are pure in-memory transforms guarded by a single mutex shared with the
// parser (see the terminal package for the lock-holding contract).
package grid

import (
	"strings"
	"sync"

	"github.com/javanhut/vtcore/palette"
)

// DefaultScrollbackCap is the default number of retired rows retained in
// history before the oldest are evicted.
const DefaultScrollbackCap = 5000

// DefaultCols and DefaultRows are the nominal grid dimensions used when a
// host does not request a specific size.
const (
	DefaultCols = 80
	DefaultRows = 24
)

// wideContinuation is the reserved sentinel codepoint occupying the
// trailing half of a double-width cell. Unicode noncharacter U+FFFE is
// never assigned to real text. The UTF-8 decoder does not reject it,
// though, so a U+FFFE in the input stream is stored as this same
// sentinel value.
const wideContinuation rune = '￾'

// Cell is a single character position: a codepoint and the style it was
// written with.
type Cell struct {
	Rune  rune
	Style palette.Style
}

// IsWideContinuation reports whether this cell is the trailing half of a
// double-width cell owned by the cell to its left.
func (c Cell) IsWideContinuation() bool { return c.Rune == wideContinuation }

func blankCell() Cell {
	return Cell{Rune: ' ', Style: palette.DefaultStyle()}
}

// Grid is the terminal's cell buffer plus the cursor, scrolling-region,
// tab-stop, save-slot, and scrollback state the parser mutates.
type Grid struct {
	mu    sync.Mutex
	Rows  int
	Cols  int
	cells []Cell // row-major, length Rows*Cols

	// alternate-screen swap slot (§3.1)
	altActive  bool
	savedCells []Cell
	savedRow   int
	savedCol   int

	cursorRow int
	cursorCol int

	scrollTop    int // 0-based, inclusive
	scrollBottom int // 0-based, inclusive

	tabStops []bool

	scrollback    [][]Cell
	scrollbackCap int
	viewOffset    int // scroll-view offset into scrollback, 0 = live

	saveSlotValid bool
	saveRow       int
	saveCol       int
	saveStyle     palette.Style

	// originMode affects how SetCursor/ClampCursor interpret row 0.
	originMode bool
}

// New creates a grid with the given dimensions. Dimensions below 1x1 are
// clamped up, matching the "never panic" contract of spec.md §7.
func New(rows, cols int) *Grid {
	if rows < 1 {
		rows = 1
	}
	if cols < 1 {
		cols = 1
	}
	g := &Grid{
		Rows:          rows,
		Cols:          cols,
		scrollbackCap: DefaultScrollbackCap,
	}
	g.cells = newCells(rows, cols)
	g.scrollTop = 0
	g.scrollBottom = rows - 1
	g.tabStops = defaultTabStops(cols)
	return g
}

func newCells(rows, cols int) []Cell {
	cells := make([]Cell, rows*cols)
	for i := range cells {
		cells[i] = blankCell()
	}
	return cells
}

func defaultTabStops(cols int) []bool {
	stops := make([]bool, cols)
	for c := 0; c < cols; c += 8 {
		stops[c] = true
	}
	return stops
}

func (g *Grid) index(row, col int) int { return row*g.Cols + col }

// Lock/Unlock expose the grid's mutex so a caller can hold one lock
// across a whole batch of Parser.Feed calls (spec.md §5).
func (g *Grid) Lock()   { g.mu.Lock() }
func (g *Grid) Unlock() { g.mu.Unlock() }

// --- cursor ---------------------------------------------------------------

// Cursor returns the current cursor position (0-based).
func (g *Grid) Cursor() (row, col int) { return g.cursorRow, g.cursorCol }

// SetOriginMode toggles DECOM; it affects subsequent SetCursor/Home calls.
func (g *Grid) SetOriginMode(on bool) { g.originMode = on }

// OriginMode reports whether DECOM is currently active.
func (g *Grid) OriginMode() bool { return g.originMode }

// ClampCursor clamps the cursor into grid bounds: column to [0,cols-1],
// row to [0,rows-1] normally or to the scrolling region when origin mode
// is active.
func (g *Grid) ClampCursor() {
	if g.cursorCol < 0 {
		g.cursorCol = 0
	}
	if g.cursorCol > g.Cols-1 {
		g.cursorCol = g.Cols - 1
	}
	lo, hi := 0, g.Rows-1
	if g.originMode {
		lo, hi = g.scrollTop, g.scrollBottom
	}
	if g.cursorRow < lo {
		g.cursorRow = lo
	}
	if g.cursorRow > hi {
		g.cursorRow = hi
	}
}

// SetCursor places the cursor at an absolute position. In origin mode row
// is interpreted relative to scrollTop. Always followed by a clamp.
func (g *Grid) SetCursor(row, col int) {
	if g.originMode {
		row += g.scrollTop
	}
	g.cursorRow = row
	g.cursorCol = col
	g.ClampCursor()
}

// SetAbsoluteCursor places the cursor at an absolute grid position,
// ignoring origin mode's row translation (used when the target row was
// already computed in absolute terms, e.g. clamping to scroll_top).
func (g *Grid) SetAbsoluteCursor(row, col int) {
	g.cursorRow = row
	g.cursorCol = col
	g.ClampCursor()
}

// MoveCursor applies a relative displacement, then clamps.
func (g *Grid) MoveCursor(dRow, dCol int) {
	g.cursorRow += dRow
	g.cursorCol += dCol
	g.ClampCursor()
}

// Home moves the cursor to the grid's home position (row 0 or, in origin
// mode, the top of the scrolling region), column 0.
func (g *Grid) Home() {
	g.SetCursor(0, 0)
}

// --- writing ---------------------------------------------------------------

func (g *Grid) writeAt(row, col int, r rune, style palette.Style) {
	if row < 0 || row >= g.Rows || col < 0 || col >= g.Cols {
		return
	}
	g.cells[g.index(row, col)] = Cell{Rune: r, Style: style}
}

// InsertCell writes a rune of the given display width (1 or 2 columns) at
// the cursor with the given style, then advances the cursor. Deferred
// wrap: if the cursor has no room for the cell on entry, autowrap decides
// whether to newline-with-scroll (then write at column 0) or overwrite
// the last column in place without advancing.
func (g *Grid) InsertCell(r rune, style palette.Style, width int, autowrap bool) {
	if width < 1 {
		width = 1
	}
	noRoom := g.cursorCol >= g.Cols || (width == 2 && g.cursorCol == g.Cols-1)
	if noRoom {
		if autowrap {
			g.newlineWithScroll()
			g.cursorCol = 0
		} else {
			g.writeAt(g.cursorRow, g.Cols-1, r, style)
			return
		}
	}

	g.writeAt(g.cursorRow, g.cursorCol, r, style)
	g.cursorCol++
	if width == 2 && g.cursorCol < g.Cols {
		g.writeAt(g.cursorRow, g.cursorCol, wideContinuation, style)
		g.cursorCol++
	}
}

// newlineWithScroll advances the cursor to the next row, scrolling the
// region (and retiring into scrollback) if that crosses scrollBottom.
func (g *Grid) newlineWithScroll() {
	g.cursorRow++
	g.DropFirstRowIfOverflow()
}

// Newline performs LF semantics: advance one row, scrolling as needed.
// Column is left unchanged (CR is a separate control).
func (g *Grid) Newline() { g.newlineWithScroll() }

// CarriageReturn resets the column to 0.
func (g *Grid) CarriageReturn() { g.cursorCol = 0 }

// Backspace moves the cursor left one column without erasing.
func (g *Grid) Backspace() {
	if g.cursorCol > 0 {
		g.cursorCol--
	}
}

// Tab advances the cursor to the next set tab stop, or to the last column
// if none remain. The cursor never wraps as a result of a tab.
func (g *Grid) Tab() {
	for c := g.cursorCol + 1; c < g.Cols; c++ {
		if g.tabStops[c] {
			g.cursorCol = c
			return
		}
	}
	g.cursorCol = g.Cols - 1
}

// --- scrolling ---------------------------------------------------------------

// DropFirstRowIfOverflow retires the scrolling region's top row into
// scrollback when the cursor has advanced one past scrollBottom, then
// pulls the cursor back onto the last row of the region. Outside that
// exact trigger, a cursor row that has drifted past the grid is clamped.
func (g *Grid) DropFirstRowIfOverflow() {
	if g.cursorRow == g.scrollBottom+1 {
		g.shiftRegionUp(1, true)
		g.cursorRow = g.scrollBottom
		return
	}
	if g.cursorRow >= g.Rows {
		g.cursorRow = g.Rows - 1
	}
}

// ScrollUp shifts the scrolling region's rows up by n, blanking the
// vacated rows at the bottom. Used by CSI `S`; does not touch scrollback.
func (g *Grid) ScrollUp(n int) { g.shiftRegionUp(n, false) }

// ScrollDown shifts the scrolling region's rows down by n, blanking the
// vacated rows at the top. Used by CSI `T` and the reverse-index (`ESC M`)
// path; never touches scrollback.
func (g *Grid) ScrollDown(n int) {
	top, bottom := g.scrollTop, g.scrollBottom
	for i := 0; i < n; i++ {
		for r := bottom; r > top; r-- {
			g.copyRow(r-1, r)
		}
		g.blankRow(top)
	}
}

func (g *Grid) shiftRegionUp(n int, captureScrollback bool) {
	top, bottom := g.scrollTop, g.scrollBottom
	for i := 0; i < n; i++ {
		if captureScrollback {
			g.pushScrollback(g.rowCopy(top))
		}
		for r := top; r < bottom; r++ {
			g.copyRow(r+1, r)
		}
		g.blankRow(bottom)
	}
}

func (g *Grid) rowCopy(row int) []Cell {
	out := make([]Cell, g.Cols)
	copy(out, g.cells[g.index(row, 0):g.index(row, 0)+g.Cols])
	return out
}

func (g *Grid) copyRow(src, dst int) {
	copy(g.cells[g.index(dst, 0):g.index(dst, 0)+g.Cols], g.cells[g.index(src, 0):g.index(src, 0)+g.Cols])
}

func (g *Grid) blankRow(row int) {
	for c := 0; c < g.Cols; c++ {
		g.cells[g.index(row, c)] = blankCell()
	}
}

func (g *Grid) pushScrollback(row []Cell) {
	g.scrollback = append(g.scrollback, row)
	if len(g.scrollback) > g.scrollbackCap {
		g.scrollback = g.scrollback[1:]
	}
}

// ScrollbackLen returns the number of retired rows currently retained.
func (g *Grid) ScrollbackLen() int { return len(g.scrollback) }

// SetScrollbackCap changes the retained-row cap, trimming from the head
// immediately if the new cap is smaller than the current backlog.
func (g *Grid) SetScrollbackCap(n int) {
	if n < 0 {
		n = 0
	}
	g.scrollbackCap = n
	if len(g.scrollback) > g.scrollbackCap {
		g.scrollback = g.scrollback[len(g.scrollback)-g.scrollbackCap:]
	}
}

// ScrollViewBy adjusts the non-negative scroll-view offset into
// scrollback; positive delta scrolls further into history.
func (g *Grid) ScrollViewBy(delta int) {
	g.viewOffset += delta
	if g.viewOffset < 0 {
		g.viewOffset = 0
	}
	if g.viewOffset > len(g.scrollback) {
		g.viewOffset = len(g.scrollback)
	}
}

// ResetScrollView resets the scroll-view offset to the live (most recent)
// position.
func (g *Grid) ResetScrollView() { g.viewOffset = 0 }

// ScrollViewOffset returns the current scroll-view offset.
func (g *Grid) ScrollViewOffset() int { return g.viewOffset }

// DisplayCell returns the cell visible at (row,col) accounting for the
// current scroll-view offset into scrollback.
func (g *Grid) DisplayCell(row, col int) Cell {
	if g.viewOffset == 0 {
		if row < 0 || row >= g.Rows || col < 0 || col >= g.Cols {
			return blankCell()
		}
		return g.cells[g.index(row, col)]
	}

	sbRow := len(g.scrollback) - g.viewOffset + row
	if sbRow < 0 {
		return blankCell()
	}
	if sbRow < len(g.scrollback) {
		if col < len(g.scrollback[sbRow]) {
			return g.scrollback[sbRow][col]
		}
		return blankCell()
	}
	gridRow := sbRow - len(g.scrollback)
	if gridRow >= g.Rows || col >= g.Cols {
		return blankCell()
	}
	return g.cells[g.index(gridRow, col)]
}

// --- scrolling region --------------------------------------------------------

// SetScrollRegion sets the scrolling region (0-based, inclusive). Invalid
// bounds (bottom <= top) are rejected and the region is left unchanged.
func (g *Grid) SetScrollRegion(top, bottom int) bool {
	if top < 0 {
		top = 0
	}
	if bottom > g.Rows-1 {
		bottom = g.Rows - 1
	}
	if bottom <= top {
		return false
	}
	g.scrollTop = top
	g.scrollBottom = bottom
	return true
}

// ScrollRegion returns the current scrolling-region bounds (0-based,
// inclusive).
func (g *Grid) ScrollRegion() (top, bottom int) { return g.scrollTop, g.scrollBottom }

func (g *Grid) resetScrollRegion() {
	g.scrollTop = 0
	g.scrollBottom = g.Rows - 1
}

// --- erase / insert / delete -------------------------------------------------

// EraseToEnd clears from the cursor to the end of the screen.
func (g *Grid) EraseToEnd() {
	for c := g.cursorCol; c < g.Cols; c++ {
		g.cells[g.index(g.cursorRow, c)] = blankCell()
	}
	for r := g.cursorRow + 1; r < g.Rows; r++ {
		g.blankRow(r)
	}
}

// EraseToStart clears from the start of the screen to the cursor
// (inclusive).
func (g *Grid) EraseToStart() {
	for r := 0; r < g.cursorRow; r++ {
		g.blankRow(r)
	}
	for c := 0; c <= g.cursorCol && c < g.Cols; c++ {
		g.cells[g.index(g.cursorRow, c)] = blankCell()
	}
}

// EraseAll clears the entire grid.
func (g *Grid) EraseAll() {
	for r := 0; r < g.Rows; r++ {
		g.blankRow(r)
	}
}

// EraseLineToEnd clears from the cursor to the end of the current line.
func (g *Grid) EraseLineToEnd() {
	for c := g.cursorCol; c < g.Cols; c++ {
		g.cells[g.index(g.cursorRow, c)] = blankCell()
	}
}

// EraseLineToStart clears from the start of the line to the cursor
// (inclusive).
func (g *Grid) EraseLineToStart() {
	for c := 0; c <= g.cursorCol && c < g.Cols; c++ {
		g.cells[g.index(g.cursorRow, c)] = blankCell()
	}
}

// EraseLine clears the entire current line.
func (g *Grid) EraseLine() { g.blankRow(g.cursorRow) }

// EraseChars erases n characters from the cursor without moving it.
func (g *Grid) EraseChars(n int) {
	for i := 0; i < n && g.cursorCol+i < g.Cols; i++ {
		g.cells[g.index(g.cursorRow, g.cursorCol+i)] = blankCell()
	}
}

// InsertChars inserts n blank cells at the cursor, shifting the rest of
// the row right within [cursorCol, cols-1].
func (g *Grid) InsertChars(n int) {
	row := g.cursorRow
	for c := g.Cols - 1; c >= g.cursorCol+n; c-- {
		g.cells[g.index(row, c)] = g.cells[g.index(row, c-n)]
	}
	for c := g.cursorCol; c < g.cursorCol+n && c < g.Cols; c++ {
		g.cells[g.index(row, c)] = blankCell()
	}
}

// DeleteChars deletes n characters at the cursor, shifting the rest of
// the row left.
func (g *Grid) DeleteChars(n int) {
	row := g.cursorRow
	for c := g.cursorCol; c < g.Cols-n; c++ {
		g.cells[g.index(row, c)] = g.cells[g.index(row, c+n)]
	}
	for c := g.Cols - n; c < g.Cols; c++ {
		if c < 0 {
			continue
		}
		g.cells[g.index(row, c)] = blankCell()
	}
}

// InsertLines inserts n blank lines at the cursor row, shifting rows
// downward within the scrolling region. A no-op if the cursor is outside
// the region. Sets the column to 0.
func (g *Grid) InsertLines(n int) {
	if g.cursorRow < g.scrollTop || g.cursorRow > g.scrollBottom {
		g.cursorCol = 0
		return
	}
	for r := g.scrollBottom; r >= g.cursorRow+n; r-- {
		g.copyRow(r-n, r)
	}
	top := g.cursorRow
	end := g.cursorRow + n
	if end > g.scrollBottom+1 {
		end = g.scrollBottom + 1
	}
	for r := top; r < end; r++ {
		g.blankRow(r)
	}
	g.cursorCol = 0
}

// DeleteLines deletes n lines at the cursor row, shifting rows upward
// within the scrolling region. A no-op if the cursor is outside the
// region. Sets the column to 0.
func (g *Grid) DeleteLines(n int) {
	if g.cursorRow < g.scrollTop || g.cursorRow > g.scrollBottom {
		g.cursorCol = 0
		return
	}
	for r := g.cursorRow; r <= g.scrollBottom-n; r++ {
		g.copyRow(r+n, r)
	}
	start := g.scrollBottom - n + 1
	if start < g.cursorRow {
		start = g.cursorRow
	}
	for r := start; r <= g.scrollBottom; r++ {
		g.blankRow(r)
	}
	g.cursorCol = 0
}

// --- tab stops ---------------------------------------------------------------

// SetTabStop sets a tab stop at the current column.
func (g *Grid) SetTabStop() {
	if g.cursorCol >= 0 && g.cursorCol < len(g.tabStops) {
		g.tabStops[g.cursorCol] = true
	}
}

// ClearTabStop clears the tab stop at the current column.
func (g *Grid) ClearTabStop() {
	if g.cursorCol >= 0 && g.cursorCol < len(g.tabStops) {
		g.tabStops[g.cursorCol] = false
	}
}

// ClearAllTabStops clears every tab stop.
func (g *Grid) ClearAllTabStops() {
	for i := range g.tabStops {
		g.tabStops[i] = false
	}
}

// ResetTabStopsToDefault restores the every-8th-column tab stops a fresh
// grid starts with, used by RIS.
func (g *Grid) ResetTabStopsToDefault() {
	g.tabStops = defaultTabStops(g.Cols)
}

// --- save/restore cursor -----------------------------------------------------

// SaveCursor stores the current (row, col, style) into the save slot.
func (g *Grid) SaveCursor(style palette.Style) {
	g.saveRow, g.saveCol, g.saveStyle = g.cursorRow, g.cursorCol, style
	g.saveSlotValid = true
}

// RestoreCursor restores (row, col, style) from the save slot, clamping
// the cursor afterward. ok is false if nothing was ever saved, in which
// case the cursor is sent home per DEC convention and a default style is
// returned.
func (g *Grid) RestoreCursor() (style palette.Style, ok bool) {
	if !g.saveSlotValid {
		g.cursorRow, g.cursorCol = 0, 0
		g.ClampCursor()
		return palette.DefaultStyle(), false
	}
	g.cursorRow, g.cursorCol = g.saveRow, g.saveCol
	g.ClampCursor()
	return g.saveStyle, true
}

// --- resize ------------------------------------------------------------------

// ResizeTo changes the grid's dimensions in place: existing content is
// padded or truncated, the scrolling region resets to full height, the
// cursor is clamped into the new bounds, and tab stops are extended
// (default every 8 columns) for newly exposed columns while existing
// stops are preserved. Dimensions below 1x1 are clamped up.
func (g *Grid) ResizeTo(rows, cols int) {
	if rows < 1 {
		rows = 1
	}
	if cols < 1 {
		cols = 1
	}

	newCellBuf := newCells(rows, cols)
	copyRows := rows
	if g.Rows < copyRows {
		copyRows = g.Rows
	}
	copyCols := cols
	if g.Cols < copyCols {
		copyCols = g.Cols
	}
	for r := 0; r < copyRows; r++ {
		for c := 0; c < copyCols; c++ {
			newCellBuf[r*cols+c] = g.cells[g.index(r, c)]
		}
	}
	g.cells = newCellBuf

	newStops := make([]bool, cols)
	copy(newStops, g.tabStops)
	for c := g.Cols; c < cols; c++ {
		if c%8 == 0 {
			newStops[c] = true
		}
	}
	g.tabStops = newStops

	g.Rows, g.Cols = rows, cols
	g.resetScrollRegion()

	if g.cursorCol >= cols {
		g.cursorCol = cols - 1
	}
	if g.cursorRow >= rows {
		g.cursorRow = rows - 1
	}
}

// --- alternate screen ---------------------------------------------------------

// EnterAltScreen swaps in a blank alternate buffer, preserving the main
// buffer's content to be restored by ExitAltScreen. A no-op if already in
// the alternate screen.
func (g *Grid) EnterAltScreen() {
	if g.altActive {
		return
	}
	g.savedCells = g.cells
	g.savedRow, g.savedCol = g.cursorRow, g.cursorCol
	g.cells = newCells(g.Rows, g.Cols)
	g.cursorRow, g.cursorCol = 0, 0
	g.altActive = true
}

// ExitAltScreen restores the main buffer saved by EnterAltScreen. A no-op
// if not currently in the alternate screen.
func (g *Grid) ExitAltScreen() {
	if !g.altActive {
		return
	}
	g.cells = g.savedCells
	g.cursorRow, g.cursorCol = g.savedRow, g.savedCol
	g.savedCells = nil
	g.altActive = false
}

// InAltScreen reports whether the alternate screen is active.
func (g *Grid) InAltScreen() bool { return g.altActive }

// --- misc --------------------------------------------------------------------

// Fill overwrites every cell in the grid with r in the given style,
// ignoring the scrolling region (used by DECALN).
func (g *Grid) Fill(r rune, style palette.Style) {
	for i := range g.cells {
		g.cells[i] = Cell{Rune: r, Style: style}
	}
}

// VisibleText renders the currently displayed rows as plain text, with
// trailing blanks trimmed per line.
func (g *Grid) VisibleText() string {
	lines := make([]string, g.Rows)
	for r := 0; r < g.Rows; r++ {
		var b strings.Builder
		for c := 0; c < g.Cols; c++ {
			cell := g.DisplayCell(r, c)
			if cell.IsWideContinuation() {
				continue
			}
			ch := cell.Rune
			if ch == 0 {
				ch = ' '
			}
			b.WriteRune(ch)
		}
		lines[r] = strings.TrimRight(b.String(), " ")
	}
	return strings.TrimRight(strings.Join(lines, "\n"), "\n")
}
