package parser

import "github.com/javanhut/vtcore/palette"

// applySGR applies a semicolon-split SGR parameter list left to right.
// An empty list (bare "ESC [ m") means reset, same as an explicit 0.
func (p *Parser) applySGR(params []int) {
	if len(params) == 0 {
		p.style = palette.DefaultStyle()
		return
	}

	i := 0
	for i < len(params) {
		n := params[i]
		if n == -1 {
			n = 0
		}
		switch {
		case n == 0 || n == 10:
			p.style = palette.DefaultStyle()
		case n == 1:
			p.style.Weight = palette.WeightBold
		case n == 22:
			p.style.Weight = palette.WeightRegular
		case n == 5 || n == 6:
			p.style.Blink = true
		case n == 25:
			p.style.Blink = false
		case n == 7:
			p.style.SetReverse()
		case n == 27:
			p.style.ClearReverse()
		case n == 2, n == 4, n == 9, n == 21, n == 24:
			// recognised, no visual effect in this design
		case n >= 30 && n <= 37:
			p.style.Fg = palette.ANSI(uint8(n - 30))
		case n >= 90 && n <= 97:
			p.style.Fg = palette.ANSI(uint8(n-90) + 8)
		case n == 39:
			p.style.Fg = palette.Default()
		case n >= 40 && n <= 47:
			p.style.Bg = palette.ANSI(uint8(n - 40))
		case n >= 100 && n <= 107:
			p.style.Bg = palette.ANSI(uint8(n-100) + 8)
		case n == 49:
			p.style.Bg = palette.Default()
		case n == 38:
			consumed := p.applyExtendedColor(params[i:], true)
			i += consumed
			continue
		case n == 48:
			consumed := p.applyExtendedColor(params[i:], false)
			i += consumed
			continue
		}
		i++
	}
}

// applyExtendedColor parses a "38;5;N", "38;2;R;G;B" (or 48-prefixed)
// run starting at params[0], applying it to fg (if fg) or bg. Returns
// how many parameter slots were consumed so the caller can skip them.
func (p *Parser) applyExtendedColor(params []int, fg bool) int {
	if len(params) < 2 {
		return len(params)
	}
	mode := params[1]
	switch mode {
	case 5:
		if len(params) < 3 {
			return len(params)
		}
		c := palette.Indexed(uint8(clampParam(params[2])))
		if fg {
			p.style.Fg = c
		} else {
			p.style.Bg = c
		}
		return 3
	case 2:
		if len(params) < 5 {
			return len(params)
		}
		c := palette.RGB(uint8(clampParam(params[2])), uint8(clampParam(params[3])), uint8(clampParam(params[4])))
		if fg {
			p.style.Fg = c
		} else {
			p.style.Bg = c
		}
		return 5
	default:
		return 2
	}
}

func clampParam(n int) int {
	if n < 0 {
		return 0
	}
	if n > 255 {
		return 255
	}
	return n
}
