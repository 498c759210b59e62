// Package parser implements the escape-sequence interpreter: a byte-at-a-
// time state machine that turns a PTY's raw output stream into mutations
// on a grid.Grid, delegating UTF-8 assembly to utf8decode and clipboard/
// resize side effects to an injected Collaborator.
package parser

import (
	"log"

	"github.com/javanhut/vtcore/grid"
	"github.com/javanhut/vtcore/palette"
	"github.com/javanhut/vtcore/utf8decode"
)

// State is the parser's top-level tagged state: five variants per the
// escape-sequence grammar.
type State uint8

const (
	StateGround State = iota
	StateAfterESC
	StateInCSI
	StateInOSC
	StateInDCS
)

// Collaborator is the narrow slice of the host-supplied collaborator the
// parser itself needs: writing replies back to the PTY and forwarding
// clipboard/resize requests it cannot satisfy on its own.
type Collaborator interface {
	WriteToPty(b []byte)
	Copy(base64 string)
	RequestPaste()
	ResizeExternalWindow(newCols int)
}

// NullCollaborator discards every callback; useful for driving Parser
// directly in tests.
type NullCollaborator struct{}

func (NullCollaborator) WriteToPty(b []byte)        {}
func (NullCollaborator) Copy(base64 string)         {}
func (NullCollaborator) RequestPaste()              {}
func (NullCollaborator) ResizeExternalWindow(newCols int) {}

// lastGraphic remembers the most recently inserted printable cell, for
// CSI b (REP) to repeat.
type lastGraphic struct {
	r     rune
	style palette.Style
	width int
	valid bool
}

// Parser drives a grid.Grid from a raw input byte stream. The zero value
// is not usable; construct with New.
type Parser struct {
	grid *grid.Grid
	coll Collaborator

	state State
	utf8  *utf8decode.Decoder

	paramBuf []byte // raw CSI parameter/intermediate bytes, prefix included
	oscBuf   []byte
	dcsBuf   []byte
	sawESC   bool // mid-string-terminator detection for OSC/DCS

	pendingIntermediate byte // '#', '(', ')' awaiting a second byte in AfterESC

	style palette.Style
	last  lastGraphic

	autowrap       bool
	insertMode     bool // IRM
	showCursor     bool
	reverseVideo   bool // DECSCNM
	blinkEnabled   bool
	appCursorKeys  bool
	mouseReporting bool
	bracketedPaste bool

	workingDirectory string
}

// New returns a Parser driving g, with the default mode set a freshly
// reset terminal starts in: autowrap on, cursor visible, IRM off.
func New(g *grid.Grid, coll Collaborator) *Parser {
	if coll == nil {
		coll = NullCollaborator{}
	}
	p := &Parser{
		grid:       g,
		coll:       coll,
		state:      StateGround,
		utf8:       utf8decode.New(),
		style:      palette.DefaultStyle(),
		autowrap:   true,
		showCursor: true,
	}
	return p
}

// State reports the parser's current top-level state.
func (p *Parser) State() State { return p.state }

// Style returns the style that would be stamped on the next inserted
// cell.
func (p *Parser) Style() palette.Style { return p.style }

// WorkingDirectory returns the most recent path reported via OSC 7, or
// "" if none has been reported.
func (p *Parser) WorkingDirectory() string { return p.workingDirectory }

// ShowCursor reports whether DECTCEM has the cursor visible.
func (p *Parser) ShowCursor() bool { return p.showCursor }

// ReverseVideo reports whether DECSCNM screen-reverse is active.
func (p *Parser) ReverseVideo() bool { return p.reverseVideo }

// BracketedPaste reports whether bracketed-paste mode is active.
func (p *Parser) BracketedPaste() bool { return p.bracketedPaste }

// MouseReporting reports whether any of the mouse-tracking modes are on.
func (p *Parser) MouseReporting() bool { return p.mouseReporting }

// Feed processes a single input byte. Callers holding the grid's lock
// across a whole read (per the concurrency design) should call Feed once
// per byte without releasing it in between.
func (p *Parser) Feed(b byte) {
	switch p.state {
	case StateGround:
		p.feedGround(b)
	case StateAfterESC:
		p.feedAfterESC(b)
	case StateInCSI:
		p.feedCSI(b)
	case StateInOSC:
		p.feedOSC(b)
	case StateInDCS:
		p.feedDCS(b)
	default:
		p.state = StateGround
	}
}

// FeedBytes processes a batch of bytes; equivalent to calling Feed in a
// loop.
func (p *Parser) FeedBytes(bs []byte) {
	for _, b := range bs {
		p.Feed(b)
	}
}

func (p *Parser) feedGround(b byte) {
	// Mid-sequence continuation bytes (0x80-0xBF) must reach the decoder
	// even though they fall outside the printable-ASCII/lead-byte ranges
	// below; otherwise a multi-byte rune never completes and the decoder
	// is left waiting for a continuation byte this path would have
	// silently dropped.
	if p.utf8.State() != utf8decode.Initial {
		p.feedPrintable(b)
		return
	}

	switch {
	case b == 0x1B:
		p.enterAfterESC()
	case b == 0x0D:
		p.grid.CarriageReturn()
	case b == 0x0A:
		p.grid.Newline()
	case b == 0x08:
		p.grid.Backspace()
	case b == 0x09:
		p.grid.Tab()
	case b >= 0x20 && b <= 0x7E, b >= 0xC2 && b <= 0xF4:
		p.feedPrintable(b)
	default:
		// Other C0 controls (NUL, BEL, VT, FF, SO, SI, ...) are silently
		// consumed; they carry no grid effect in this design.
	}
}

// feedPrintable routes a byte that is either plain ASCII or part of a
// multi-byte UTF-8 sequence to the decoder, inserting a cell whenever it
// yields a complete codepoint.
func (p *Parser) feedPrintable(b byte) {
	r, ok := p.utf8.Feed(b)
	if !ok {
		return
	}
	p.insertRune(r)
}

func (p *Parser) insertRune(r rune) {
	w := grid.RuneWidth(r)
	if w == 0 {
		w = 1
	}
	if p.insertMode {
		p.shiftRightForInsert(w)
	}
	p.grid.InsertCell(r, p.style, w, p.autowrap)
	p.last = lastGraphic{r: r, style: p.style, width: w, valid: true}
}

// shiftRightForInsert makes room for a width-w insert at the cursor when
// IRM is active by shifting the remainder of the row right, identical in
// effect to an ICH of width w at the current column.
func (p *Parser) shiftRightForInsert(w int) {
	p.grid.InsertChars(w)
}

func (p *Parser) enterAfterESC() {
	p.state = StateAfterESC
	p.paramBuf = p.paramBuf[:0]
	p.pendingIntermediate = 0
}

func (p *Parser) feedAfterESC(b byte) {
	if p.pendingIntermediate != 0 {
		p.dispatchESCIntermediate(p.pendingIntermediate, b)
		p.pendingIntermediate = 0
		p.state = StateGround
		return
	}

	switch b {
	case '[':
		p.state = StateInCSI
		p.paramBuf = p.paramBuf[:0]
	case ']':
		p.state = StateInOSC
		p.oscBuf = p.oscBuf[:0]
		p.sawESC = false
	case 'P':
		p.state = StateInDCS
		p.dcsBuf = p.dcsBuf[:0]
		p.sawESC = false
	case '7':
		p.grid.SaveCursor(p.style)
		p.state = StateGround
	case '8':
		if style, ok := p.grid.RestoreCursor(); ok {
			p.style = style
		}
		p.state = StateGround
	case 'A':
		p.grid.MoveCursor(-1, 0)
		p.state = StateGround
	case 'B':
		p.grid.MoveCursor(1, 0)
		p.state = StateGround
	case 'C':
		p.grid.MoveCursor(0, 1)
		p.state = StateGround
	case 'D':
		// IND: index down, scrolling the region if needed. This overrides
		// the generic "cursor left" reading of the A/B/C/D quartet.
		p.grid.Newline()
		p.state = StateGround
	case 'E':
		p.grid.CarriageReturn()
		p.grid.Newline()
		p.state = StateGround
	case 'H':
		p.grid.SetTabStop()
		p.state = StateGround
	case 'M':
		p.reverseIndex()
		p.state = StateGround
	case '=', '>':
		// keypad mode toggle: accepted, no grid effect.
		p.state = StateGround
	case '#', '(', ')':
		p.pendingIntermediate = b
		// stay in AfterESC for the combining byte
	case 'c':
		p.fullReset()
		p.state = StateGround
	default:
		log.Printf("parser: unhandled ESC %q", b)
		p.state = StateGround
	}
}

func (p *Parser) reverseIndex() {
	top, _ := p.grid.ScrollRegion()
	row, _ := p.grid.Cursor()
	if row == top {
		p.grid.ScrollDown(1)
		return
	}
	p.grid.MoveCursor(-1, 0)
}

func (p *Parser) dispatchESCIntermediate(inter, final byte) {
	switch inter {
	case '#':
		if final == '8' {
			p.grid.Fill('E', palette.DefaultStyle())
		}
	case '(', ')':
		// G0/G1 charset designation: accepted, no effect (no alternate
		// character sets are rendered in this design).
	}
}

// fullReset implements RIS (ESC c): total re-initialisation of style,
// modes, tab stops, and screen content.
func (p *Parser) fullReset() {
	p.style = palette.DefaultStyle()
	p.autowrap = true
	p.insertMode = false
	p.showCursor = true
	p.reverseVideo = false
	p.blinkEnabled = false
	p.appCursorKeys = false
	p.mouseReporting = false
	p.bracketedPaste = false
	p.last = lastGraphic{}
	p.workingDirectory = ""
	p.utf8.Reset()

	rows := p.grid.Rows
	p.grid.EraseAll()
	p.grid.SetOriginMode(false)
	p.grid.SetScrollRegion(0, rows-1)
	p.grid.ResetTabStopsToDefault()
	p.grid.Home()
}
