package ptyio

import (
	"context"
	"encoding/base64"
	"errors"
	"log"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/javanhut/vtcore/grid"
	"github.com/javanhut/vtcore/palette"
	"github.com/javanhut/vtcore/parser"
)

const pollTimeoutMillis = 100

// PastePoller lets the worker drain clipboard-paste data the host
// collaborator has accumulated, without the worker depending on the
// full Collaborator interface.
type PastePoller interface {
	PollPaste() (base64Data string, ok bool)
}

// Worker owns the poll-read-feed loop that drives a Parser from a
// Session's byte stream, restarting the child on EIO and draining
// clipboard-paste replies on every iteration.
type Worker struct {
	session *Session
	grid    *grid.Grid
	parser  *parser.Parser
	paste   PastePoller

	rows, cols uint16
}

// NewWorker returns a Worker that feeds s's output into p (which shares
// g's lock), polling coll for paste data each iteration.
func NewWorker(s *Session, g *grid.Grid, p *parser.Parser, coll PastePoller, rows, cols uint16) *Worker {
	return &Worker{session: s, grid: g, parser: p, paste: coll, rows: rows, cols: cols}
}

// SetSize updates the size the worker uses to re-fork a child after EIO.
func (w *Worker) SetSize(rows, cols uint16) {
	w.rows, w.cols = rows, cols
}

// Run blocks, servicing the pty until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	buf := make([]byte, 4096)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		fds := []unix.PollFd{{Fd: int32(w.session.Fd()), Events: unix.POLLIN}}
		n, err := unix.Poll(fds, pollTimeoutMillis)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			log.Printf("ptyio: poll error: %v", err)
			continue
		}

		if n > 0 && fds[0].Revents&unix.POLLIN != 0 {
			w.readAndFeed(buf)
		}

		w.drainPaste()
	}
}

func (w *Worker) readAndFeed(buf []byte) {
	nr, err := w.session.Read(buf)
	if err != nil {
		w.handleReadError(err)
		return
	}
	if nr == 0 {
		return
	}
	w.grid.Lock()
	for i := 0; i < nr; i++ {
		w.parser.Feed(buf[i])
	}
	w.grid.Unlock()
}

func (w *Worker) handleReadError(err error) {
	if errors.Is(err, syscall.EAGAIN) {
		return
	}
	if errors.Is(err, syscall.EIO) {
		w.restartChild()
		return
	}
	log.Printf("ptyio: read error: %v", err)
}

func (w *Worker) restartChild() {
	w.grid.Lock()
	_, col := w.grid.Cursor()
	if col != 0 {
		w.grid.CarriageReturn()
		w.grid.Newline()
	}
	notice := palette.DefaultStyle()
	for _, r := range "[program exited, restarting]" {
		w.grid.InsertCell(r, notice, 1, true)
	}
	w.grid.CarriageReturn()
	w.grid.Newline()
	w.grid.Unlock()

	if err := w.session.Restart(w.rows, w.cols); err != nil {
		log.Printf("ptyio: failed to restart child: %v", err)
	}
}

func (w *Worker) drainPaste() {
	if w.paste == nil {
		return
	}
	data, ok := w.paste.PollPaste()
	if !ok {
		return
	}
	reply := "\x1b]52;c;" + data + "\x1b\\"
	if _, err := w.session.Write([]byte(reply)); err != nil {
		log.Printf("ptyio: failed to write paste reply: %v", err)
	}
}

// EncodePasteData base64-encodes raw clipboard bytes for a collaborator
// implementing PastePoller.
func EncodePasteData(raw []byte) string {
	return base64.StdEncoding.EncodeToString(raw)
}
