package parser

import (
	"log"
	"strconv"
)

func (p *Parser) feedCSI(b byte) {
	switch {
	case b >= 0x20 && b <= 0x3F:
		p.paramBuf = append(p.paramBuf, b)
	case b >= 0x40 && b <= 0x7E:
		p.dispatchCSI(b)
		p.state = StateGround
	default:
		log.Printf("parser: aborting CSI sequence on byte %#x", b)
		p.state = StateGround
	}
}

// csiParams holds a parsed CSI parameter list: an optional prefix rune
// ('?' for DEC private, '>' for secondary) and the semicolon-split
// integer parameters, with -1 standing in for an omitted (empty) field.
type csiParams struct {
	prefix byte
	values []int
}

func (cp csiParams) get(i, def int) int {
	if i < 0 || i >= len(cp.values) || cp.values[i] == -1 {
		return def
	}
	return cp.values[i]
}

func (cp csiParams) isPrivate() bool   { return cp.prefix == '?' }
func (cp csiParams) isSecondary() bool { return cp.prefix == '>' }

func parseCSIParams(buf []byte) csiParams {
	var cp csiParams
	if len(buf) > 0 && (buf[0] == '?' || buf[0] == '>') {
		cp.prefix = buf[0]
		buf = buf[1:]
	}
	start := 0
	pushField := func(field []byte) {
		if len(field) == 0 {
			cp.values = append(cp.values, -1)
			return
		}
		n, err := strconv.Atoi(string(field))
		if err != nil {
			cp.values = append(cp.values, -1)
			return
		}
		cp.values = append(cp.values, n)
	}
	for i, c := range buf {
		if c == ';' {
			pushField(buf[start:i])
			start = i + 1
		}
	}
	if len(buf) > 0 || start > 0 {
		pushField(buf[start:])
	}
	return cp
}

func (p *Parser) dispatchCSI(final byte) {
	cp := parseCSIParams(p.paramBuf)

	switch final {
	case '@':
		p.grid.InsertChars(cp.get(0, 1))
	case 'A':
		p.cursorUpClamped(cp.get(0, 1))
	case 'B':
		p.cursorDownClamped(cp.get(0, 1))
	case 'C':
		p.grid.MoveCursor(0, cp.get(0, 1))
	case 'D':
		p.grid.MoveCursor(0, -cp.get(0, 1))
	case 'E':
		_, col := p.grid.Cursor()
		p.grid.MoveCursor(cp.get(0, 1), -col)
	case 'F':
		_, col := p.grid.Cursor()
		p.grid.MoveCursor(-cp.get(0, 1), -col)
	case 'G':
		_, col := p.grid.Cursor()
		p.grid.MoveCursor(0, (cp.get(0, 1)-1)-col)
	case 'H', 'f':
		p.cursorPosition(cp)
	case 'J':
		p.eraseDisplay(cp.get(0, 0))
	case 'K':
		p.eraseLine(cp.get(0, 0))
	case 'L':
		p.grid.InsertLines(cp.get(0, 1))
		p.grid.CarriageReturn()
	case 'M':
		p.grid.DeleteLines(cp.get(0, 1))
		p.grid.CarriageReturn()
	case 'P':
		p.grid.DeleteChars(cp.get(0, 1))
	case 'S':
		p.grid.ScrollUp(cp.get(0, 1))
	case 'T':
		p.grid.ScrollDown(cp.get(0, 1))
	case 'X':
		p.grid.EraseChars(cp.get(0, 1))
	case 'b':
		p.repeatLastGraphic(cp.get(0, 1))
	case 'c':
		p.deviceAttributes(cp)
	case 'd':
		_, col := p.grid.Cursor()
		p.grid.SetCursor(cp.get(0, 1)-1, col)
	case 'g':
		p.tabClear(cp.get(0, 0))
	case 'h':
		p.setMode(cp, true)
	case 'l':
		p.setMode(cp, false)
	case 'm':
		p.applySGR(cp.values)
	case 'n':
		p.deviceStatusReport(cp.get(0, 0))
	case 'r':
		p.setScrollRegion(cp)
	default:
		log.Printf("parser: unhandled CSI final %q", final)
	}
}

func (p *Parser) cursorUpClamped(n int) {
	top, _ := p.grid.ScrollRegion()
	row, _ := p.grid.Cursor()
	wasInRegion := row >= top
	p.grid.MoveCursor(-n, 0)
	if wasInRegion {
		if row2, col := p.grid.Cursor(); row2 < top {
			p.grid.SetAbsoluteCursor(top, col)
		}
	}
}

func (p *Parser) cursorDownClamped(n int) {
	_, bottom := p.grid.ScrollRegion()
	row, _ := p.grid.Cursor()
	wasInRegion := row <= bottom
	p.grid.MoveCursor(n, 0)
	if wasInRegion {
		if row2, col := p.grid.Cursor(); row2 > bottom {
			p.grid.SetAbsoluteCursor(bottom, col)
		}
	}
}

func (p *Parser) cursorPosition(cp csiParams) {
	switch len(cp.values) {
	case 0:
		p.grid.SetCursor(0, 0)
	case 1:
		p.grid.SetCursor(cp.get(0, 1)-1, 0)
	default:
		p.grid.SetCursor(cp.get(0, 1)-1, cp.get(1, 1)-1)
	}
}

func (p *Parser) eraseDisplay(mode int) {
	switch mode {
	case 1:
		p.grid.EraseToStart()
	case 2:
		p.grid.EraseAll()
	default:
		p.grid.EraseToEnd()
	}
}

func (p *Parser) eraseLine(mode int) {
	switch mode {
	case 1:
		p.grid.EraseLineToStart()
	case 2:
		p.grid.EraseLine()
	default:
		p.grid.EraseLineToEnd()
	}
}

func (p *Parser) repeatLastGraphic(n int) {
	if !p.last.valid {
		return
	}
	for i := 0; i < n; i++ {
		p.grid.InsertCell(p.last.r, p.last.style, p.last.width, p.autowrap)
	}
}

func (p *Parser) tabClear(mode int) {
	switch mode {
	case 3:
		p.grid.ClearAllTabStops()
	default:
		p.grid.ClearTabStop()
	}
}

func (p *Parser) setScrollRegion(cp csiParams) {
	rows := p.grid.Rows
	top := cp.get(0, 1) - 1
	bottom := cp.get(1, rows) - 1
	if len(cp.values) == 0 {
		top, bottom = 0, rows-1
	}
	if p.grid.SetScrollRegion(top, bottom) {
		if p.grid.OriginMode() {
			p.grid.SetCursor(0, 0)
		} else {
			newTop, _ := p.grid.ScrollRegion()
			p.grid.SetCursor(newTop, 0)
		}
	}
}

func (p *Parser) deviceAttributes(cp csiParams) {
	if cp.isSecondary() {
		p.coll.WriteToPty([]byte("\x1b[>0;276;0c"))
		return
	}
	p.coll.WriteToPty([]byte("\x1b[?1;2c"))
}

func (p *Parser) deviceStatusReport(n int) {
	switch n {
	case 5:
		p.coll.WriteToPty([]byte("\x1b[0n"))
	case 6:
		row, col := p.grid.Cursor()
		p.coll.WriteToPty([]byte("\x1b[" + strconv.Itoa(row+1) + ";" + strconv.Itoa(col+1) + "R"))
	}
}
