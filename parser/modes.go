package parser

import "log"

// setMode implements CSI h (set, on=true) / CSI l (reset, on=false),
// dispatching on whether a DEC private ('?') prefix was present.
func (p *Parser) setMode(cp csiParams, on bool) {
	if cp.isPrivate() {
		for _, n := range cp.values {
			p.setPrivateMode(n, on)
		}
		return
	}
	for _, n := range cp.values {
		switch n {
		case 4:
			p.insertMode = on
		default:
			log.Printf("parser: unhandled ANSI mode %d", n)
		}
	}
}

func (p *Parser) setPrivateMode(n int, on bool) {
	switch n {
	case 1:
		p.appCursorKeys = on
	case 3:
		p.setDECCOLM(on)
	case 5:
		p.reverseVideo = on
	case 6:
		p.grid.SetOriginMode(on)
		p.grid.Home()
	case 7:
		p.autowrap = on
	case 12:
		// blinking cursor: accepted, no grid effect
	case 25:
		p.showCursor = on
	case 47, 1047:
		p.setAltScreen(on, false)
	case 1000, 1002, 1006:
		p.mouseReporting = on
	case 1049:
		p.setAltScreen(on, true)
	case 2004:
		p.bracketedPaste = on
	default:
		log.Printf("parser: unhandled DEC private mode %d", n)
	}
}

func (p *Parser) setDECCOLM(on bool) {
	cols := 80
	if on {
		cols = 132
	}
	p.grid.ResizeTo(p.grid.Rows, cols)
	p.grid.EraseAll()
	p.grid.Home()
	p.coll.ResizeExternalWindow(cols)
}

func (p *Parser) setAltScreen(on, saveCursor bool) {
	if on {
		if saveCursor {
			p.grid.SaveCursor(p.style)
		}
		p.grid.EnterAltScreen()
		return
	}
	p.grid.ExitAltScreen()
	if saveCursor {
		if style, ok := p.grid.RestoreCursor(); ok {
			p.style = style
		}
	}
}
