// Package palette implements the terminal's colour model: the 16 named
// ANSI colours, the fixed 256-colour map, and the Style record the parser
// mutates in response to SGR sequences.
package palette

import "image/color"

// ColorKind distinguishes how a Color resolves to an RGB triple.
type ColorKind uint8

const (
	// KindDefault resolves to the terminal's default foreground/background.
	KindDefault ColorKind = iota
	// KindANSI resolves through the 16-entry named table (index 0-15).
	KindANSI
	// Kind256 resolves through the 256-entry map (index 0-255).
	Kind256
	// KindRGB carries an explicit 24-bit triple.
	KindRGB
)

// Color is a terminal colour reference: either "use the default", an ANSI
// or 256-indexed palette slot, or a direct 24-bit RGB triple.
type Color struct {
	Kind  ColorKind
	Index uint8
	RGB   color.RGBA
}

// Default returns the sentinel "use the terminal default" color.
func Default() Color { return Color{Kind: KindDefault} }

// ANSI returns a reference to ANSI palette slot i (0-15).
func ANSI(i uint8) Color { return Color{Kind: KindANSI, Index: i} }

// Indexed returns a reference to 256-colour map slot i.
func Indexed(i uint8) Color { return Color{Kind: Kind256, Index: i} }

// RGB returns a direct 24-bit colour.
func RGB(r, g, b uint8) Color {
	return Color{Kind: KindRGB, RGB: color.RGBA{R: r, G: g, B: b, A: 255}}
}

// ANSI16 is the 16 named ANSI colours in the order black, red, green,
// yellow, blue, magenta, cyan, white, then the eight bright variants. This
// is the Solarized-light variant used as vtcore's default palette.
var ANSI16 = [16]color.RGBA{
	{R: 7, G: 54, B: 66, A: 255},     // black
	{R: 220, G: 50, B: 47, A: 255},   // red
	{R: 13, G: 153, B: 0, A: 255},    // green
	{R: 181, G: 137, B: 0, A: 255},   // yellow
	{R: 38, G: 139, B: 210, A: 255},  // blue
	{R: 221, G: 54, B: 130, A: 255},  // magenta
	{R: 42, G: 161, B: 152, A: 255},  // cyan
	{R: 238, G: 232, B: 213, A: 255}, // white
	{R: 0, G: 43, B: 54, A: 255},     // bright black
	{R: 203, G: 75, B: 22, A: 255},   // bright red
	{R: 88, G: 110, B: 117, A: 255},  // bright green
	{R: 101, G: 123, B: 131, A: 255}, // bright yellow
	{R: 131, G: 148, B: 150, A: 255}, // bright blue
	{R: 108, G: 113, B: 196, A: 255}, // bright magenta
	{R: 147, G: 161, B: 161, A: 255}, // bright cyan
	{R: 253, G: 246, B: 227, A: 255}, // bright white
}

// DefaultForeground is the terminal's default foreground colour (the
// palette's "black" entry, per the Solarized-light convention).
var DefaultForeground = ANSI16[0]

// DefaultBackground is the terminal's default background colour (the
// palette's "white" entry).
var DefaultBackground = ANSI16[7]

// cubeSteps are the xterm 6x6x6 colour-cube channel values.
var cubeSteps = [6]uint8{0, 95, 135, 175, 215, 255}

// Map256 is the fixed 256-entry colour map: 0-15 alias ANSI16, 16-231 form
// the 6x6x6 cube, 232-255 are a 24-step greyscale ramp.
var Map256 = buildMap256()

func buildMap256() [256]color.RGBA {
	var m [256]color.RGBA
	copy(m[0:16], ANSI16[:])

	i := 16
	for r := 0; r < 6; r++ {
		for g := 0; g < 6; g++ {
			for b := 0; b < 6; b++ {
				m[i] = color.RGBA{R: cubeSteps[r], G: cubeSteps[g], B: cubeSteps[b], A: 255}
				i++
			}
		}
	}

	for j := 0; j < 24; j++ {
		v := uint8(8 + j*10)
		m[232+j] = color.RGBA{R: v, G: v, B: v, A: 255}
	}
	return m
}

// Resolve turns a Color into a concrete RGB triple. fg selects which
// default applies when c is KindDefault.
func Resolve(c Color, fg bool) color.RGBA {
	switch c.Kind {
	case KindANSI:
		if int(c.Index) < len(ANSI16) {
			return ANSI16[c.Index]
		}
	case Kind256:
		return Map256[c.Index]
	case KindRGB:
		return c.RGB
	}
	if fg {
		return DefaultForeground
	}
	return DefaultBackground
}

// Weight is the text font weight attribute.
type Weight uint8

const (
	WeightRegular Weight = iota
	WeightBold
)

// Style is the active text-rendering attribute record the parser mutates
// as it processes SGR sequences, and that is stamped onto every Cell
// written to the grid.
type Style struct {
	Fg       Color
	Bg       Color
	Weight   Weight
	Blink    bool
	reversed bool // internal: whether Fg/Bg currently hold swapped values
}

// DefaultStyle returns the style newly-written cells and a freshly reset
// terminal start with: default fg/bg, regular weight, no blink.
func DefaultStyle() Style {
	return Style{Fg: Default(), Bg: Default(), Weight: WeightRegular}
}

// SetReverse swaps Fg and Bg in place, the first time it is called since
// the last ClearReverse. Calling it again while already reversed is a
// no-op, matching real terminal behaviour where a repeated SGR 7 does not
// toggle back to normal.
func (s *Style) SetReverse() {
	if s.reversed {
		return
	}
	s.Fg, s.Bg = s.Bg, s.Fg
	s.reversed = true
}

// ClearReverse swaps Fg and Bg back, undoing a prior SetReverse. A no-op
// if not currently reversed.
func (s *Style) ClearReverse() {
	if !s.reversed {
		return
	}
	s.Fg, s.Bg = s.Bg, s.Fg
	s.reversed = false
}

// Reversed reports whether the style is currently in the swapped state.
func (s *Style) Reversed() bool { return s.reversed }
