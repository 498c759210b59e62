// Package terminal is the external-facing façade: it wires Grid, Parser
// and the PTY worker together behind the small set of operations a host
// process needs (start, send input, resize, scroll) and the callbacks
// the core needs back from its host (draw lifecycle, clipboard, window
// resize), grounded on the teacher's tab.Tab/TabManager orchestration.
package terminal

import (
	"context"
	"sync"

	"github.com/javanhut/vtcore/grid"
	"github.com/javanhut/vtcore/parser"
	"github.com/javanhut/vtcore/ptyio"
)

// Collaborator is the full host contract the façade requires: clipboard
// plumbing, external window resize on DECCOLM, and a before/after-draw
// pair the renderer straddles its frame with. It is a superset of
// parser.Collaborator and ptyio.PastePoller, so an Emulator can hand the
// same value to both.
type Collaborator interface {
	WriteToPty(b []byte)
	Copy(base64 string)
	RequestPaste()
	PollPaste() (base64Data string, ok bool)
	ResizeExternalWindow(newCols int)
	CellSize() (pixelWidth, pixelHeight int)
	BeforeDraw()
	AfterDraw()
}

// NullCollaborator discards every callback and reports an 8x16 cell size;
// suitable for driving an Emulator directly in tests.
type NullCollaborator struct{}

func (NullCollaborator) WriteToPty(b []byte)              {}
func (NullCollaborator) Copy(base64 string)               {}
func (NullCollaborator) RequestPaste()                    {}
func (NullCollaborator) PollPaste() (string, bool)        { return "", false }
func (NullCollaborator) ResizeExternalWindow(newCols int) {}
func (NullCollaborator) CellSize() (int, int)             { return 8, 16 }
func (NullCollaborator) BeforeDraw()                      {}
func (NullCollaborator) AfterDraw()                       {}

const (
	defaultRows = 24
	defaultCols = 80
)

// ptySession is the narrow slice of ptyio.Session the façade drives;
// kept as an interface so tests can wire a fake without forking a real
// shell.
type ptySession interface {
	Write(data []byte) (int, error)
	Resize(rows, cols uint16) error
	HasExited() bool
	Close() error
}

// workerSizer is the narrow slice of ptyio.Worker the façade needs when
// propagating a resize.
type workerSizer interface {
	SetSize(rows, cols uint16)
}

// Emulator is one running terminal: a Grid, the Parser driving it, and
// the Worker feeding the Parser from a PTY session. The zero value is
// not usable; construct with New and call Start.
type Emulator struct {
	mu sync.Mutex

	grid   *grid.Grid
	parser *parser.Parser
	coll   Collaborator

	session ptySession
	worker  workerSizer
	cancel  context.CancelFunc

	rows, cols int
}

// New returns an Emulator ready to Start; coll may be nil, in which case
// a NullCollaborator is used.
func New(coll Collaborator) *Emulator {
	if coll == nil {
		coll = NullCollaborator{}
	}
	return &Emulator{coll: coll}
}

// Start creates the grid at rows x cols (falling back to 24x80 for
// non-positive dimensions), forks a child shell attached to a PTY of
// that size, and spawns the worker goroutine that feeds the parser.
// shell overrides the discovered login shell when non-empty, matching
// ptyio.Options.Shell.
func (e *Emulator) Start(rows, cols int, shell string) error {
	if rows <= 0 {
		rows = defaultRows
	}
	if cols <= 0 {
		cols = defaultCols
	}

	g := grid.New(rows, cols)

	session, err := ptyio.Start(ptyio.Options{Shell: shell, Rows: uint16(rows), Cols: uint16(cols)})
	if err != nil {
		return err
	}

	// Reply bytes (DA/DSR/OSC queries) must reach the child's stdin via
	// the PTY master, not whatever display channel the host collaborator
	// uses; the adapter binds WriteToPty to the session the way the
	// teacher's Terminal.SetResponseWriter is bound by its tab owner,
	// while every other callback still reaches the host unchanged.
	adapter := &collaboratorAdapter{host: e.coll, session: session}
	p := parser.New(g, adapter)
	w := ptyio.NewWorker(session, g, p, adapter, uint16(rows), uint16(cols))
	ctx, cancel := context.WithCancel(context.Background())

	e.mu.Lock()
	e.grid = g
	e.parser = p
	e.session = session
	e.worker = w
	e.cancel = cancel
	e.rows, e.cols = rows, cols
	e.mu.Unlock()

	go w.Run(ctx)
	return nil
}

// Grid exposes the live grid for a renderer to snapshot under its own
// Lock/Unlock pair.
func (e *Emulator) Grid() *grid.Grid {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.grid
}

// SendInput writes bytes fully to the PTY and resets the scroll-view
// offset back to the live position, matching a real terminal's behaviour
// of snapping to the bottom on keystroke.
func (e *Emulator) SendInput(data []byte) error {
	e.mu.Lock()
	session, g := e.session, e.grid
	e.mu.Unlock()

	for len(data) > 0 {
		n, err := session.Write(data)
		if err != nil {
			return err
		}
		data = data[n:]
	}

	g.Lock()
	g.ResetScrollView()
	g.Unlock()
	return nil
}

// Resize derives a new row/column count from a pixel-sized viewport and
// the collaborator's reported cell size, then applies it via ResizeGrid.
func (e *Emulator) Resize(pixelWidth, pixelHeight int) error {
	cellW, cellH := e.coll.CellSize()
	if cellW <= 0 {
		cellW = 1
	}
	if cellH <= 0 {
		cellH = 1
	}
	rows := pixelHeight / cellH
	cols := pixelWidth / cellW
	return e.ResizeGrid(rows, cols)
}

// ResizeGrid applies rows x cols directly to the grid and propagates the
// new size to the PTY and worker.
func (e *Emulator) ResizeGrid(rows, cols int) error {
	if rows < 1 {
		rows = 1
	}
	if cols < 1 {
		cols = 1
	}

	e.mu.Lock()
	g, session, w := e.grid, e.session, e.worker
	e.mu.Unlock()

	g.Lock()
	g.ResizeTo(rows, cols)
	g.Unlock()

	w.SetSize(uint16(rows), uint16(cols))

	e.mu.Lock()
	e.rows, e.cols = rows, cols
	e.mu.Unlock()

	return session.Resize(uint16(rows), uint16(cols))
}

// ScrollBy adjusts the scroll-view offset by deltaPixels worth of rows,
// using the collaborator's cell height for the pixel-to-row conversion;
// the offset is clamped to stay within the retained scrollback.
func (e *Emulator) ScrollBy(deltaPixels int) {
	_, cellH := e.coll.CellSize()
	if cellH <= 0 {
		cellH = 1
	}
	deltaRows := deltaPixels / cellH
	if deltaRows == 0 && deltaPixels != 0 {
		if deltaPixels > 0 {
			deltaRows = 1
		} else {
			deltaRows = -1
		}
	}

	g := e.Grid()
	g.Lock()
	g.ScrollViewBy(deltaRows)
	g.Unlock()
}

// HasExited reports whether the child shell process has terminated.
func (e *Emulator) HasExited() bool {
	e.mu.Lock()
	session := e.session
	e.mu.Unlock()
	return session.HasExited()
}

// Close stops the worker and tears down the PTY session.
func (e *Emulator) Close() error {
	e.mu.Lock()
	cancel, session := e.cancel, e.session
	e.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if session != nil {
		return session.Close()
	}
	return nil
}

// collaboratorAdapter sits between the parser/worker and the host
// Collaborator, rebinding WriteToPty to the live PTY session while
// forwarding every other callback straight to the host.
type collaboratorAdapter struct {
	host    Collaborator
	session ptySession
}

func (a *collaboratorAdapter) WriteToPty(b []byte) {
	for len(b) > 0 {
		n, err := a.session.Write(b)
		if err != nil {
			return
		}
		b = b[n:]
	}
}

func (a *collaboratorAdapter) Copy(base64 string)               { a.host.Copy(base64) }
func (a *collaboratorAdapter) RequestPaste()                    { a.host.RequestPaste() }
func (a *collaboratorAdapter) PollPaste() (string, bool)        { return a.host.PollPaste() }
func (a *collaboratorAdapter) ResizeExternalWindow(newCols int) { a.host.ResizeExternalWindow(newCols) }

// wireForTest builds an Emulator from pre-constructed parts, bypassing
// Start's real PTY/shell fork so tests can drive Resize/ScrollBy/
// SendInput against a fake session.
func wireForTest(g *grid.Grid, p *parser.Parser, coll Collaborator, session ptySession, worker workerSizer) *Emulator {
	return &Emulator{
		grid:    g,
		parser:  p,
		coll:    coll,
		session: session,
		worker:  worker,
		rows:    g.Rows,
		cols:    g.Cols,
	}
}
