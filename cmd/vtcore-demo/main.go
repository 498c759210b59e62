// Command vtcore-demo is a minimal headless host for package terminal:
// it forwards stdin to the emulated shell and redraws the visible grid
// to stdout on a fixed tick, standing in for the teacher's GLFW window
// loop without a GPU renderer.
package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/javanhut/vtcore/config"
	"github.com/javanhut/vtcore/grid"
	"github.com/javanhut/vtcore/terminal"
)

const tickInterval = 50 * time.Millisecond

// demoCollaborator implements terminal.Collaborator for a plain-text
// host: clipboard copies are logged rather than wired to a real OS
// clipboard, paste requests are ignored, and the cell size is a fixed
// stand-in for font metrics.
type demoCollaborator struct {
	terminal.NullCollaborator
}

func (demoCollaborator) Copy(base64 string) {
	log.Printf("vtcore-demo: clipboard copy requested (%d bytes base64)", len(base64))
}

func (demoCollaborator) CellSize() (int, int) { return 9, 18 }

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("vtcore-demo: loading config: %v", err)
	}

	emu := terminal.New(demoCollaborator{})
	if err := emu.Start(24, 80, cfg.ResolveShell()); err != nil {
		log.Fatalf("vtcore-demo: starting emulator: %v", err)
	}
	if cfg.ScrollbackCap != 0 {
		emu.Grid().SetScrollbackCap(cfg.ScrollbackCap)
	}
	defer emu.Close()

	go forwardStdin(emu)

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for range ticker.C {
		if emu.HasExited() {
			fmt.Println("\n[child process exited]")
			return
		}
		redraw(emu.Grid())
	}
}

func forwardStdin(emu *terminal.Emulator) {
	reader := bufio.NewReader(os.Stdin)
	buf := make([]byte, 1)
	for {
		n, err := reader.Read(buf)
		if err != nil {
			return
		}
		if n > 0 {
			if err := emu.SendInput(buf[:n]); err != nil {
				return
			}
		}
	}
}

func redraw(g *grid.Grid) {
	g.Lock()
	text := g.VisibleText()
	g.Unlock()

	fmt.Print("\x1b[2J\x1b[H")
	fmt.Print(text)
}
