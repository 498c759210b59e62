package grid

import (
	"unicode"

	"golang.org/x/text/width"
)

// RuneWidth returns the display width of a rune in cells: 0 for
// zero-width (combining marks, the null rune), 1 for normal text, 2 for
// wide characters (CJK, emoji, ...).
func RuneWidth(r rune) int {
	if r == '\x00' {
		return 0
	}
	if !unicode.IsPrint(r) {
		return 0
	}

	// Mn/Me/Mc: nonspacing, enclosing, and spacing-combining marks.
	if unicode.Is(unicode.Mn, r) || unicode.Is(unicode.Me, r) || unicode.Is(unicode.Mc, r) {
		return 0
	}

	k := width.LookupRune(r)
	switch k.Kind() {
	case width.EastAsianWide, width.EastAsianFullwidth:
		return 2
	default:
		return 1
	}
}

// StringWidth returns the total display width of a string
func StringWidth(s string) int {
	w := 0
	for _, r := range s {
		w += RuneWidth(r)
	}
	return w
}
