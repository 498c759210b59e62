// Package ptyio owns the pseudo-terminal: spawning the child shell,
// reading/writing its byte stream, resizing the window, and restarting
// the child when its end of the pty reports EIO.
package ptyio

import (
	"os"
	"os/exec"
	"os/user"
	"strings"
	"sync"
	"syscall"

	"github.com/creack/pty"
)

// Session wraps one pty-attached child process. The zero value is not
// usable; construct with Start.
type Session struct {
	cmd *exec.Cmd
	pty *os.File
	mu  sync.Mutex

	shell string
	env   []string
	dir   string

	exitedMu sync.Mutex
	exited   bool
}

// Options configures the shell a Session spawns.
type Options struct {
	Shell string // overrides the discovered login shell when non-empty
	Rows  uint16
	Cols  uint16
}

// Start forks a login shell attached to a freshly allocated pty sized to
// opts.Rows x opts.Cols.
func Start(opts Options) (*Session, error) {
	currentUser, err := user.Current()
	if err != nil {
		return nil, err
	}

	shell := opts.Shell
	if shell == "" {
		shell = discoverShell(currentUser.Username)
	}

	rows, cols := opts.Rows, opts.Cols
	if rows == 0 {
		rows = 24
	}
	if cols == 0 {
		cols = 80
	}

	cmd := exec.Command(shell, "-i")
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	cmd.Dir = currentUser.HomeDir
	cmd.Env = buildEnv(currentUser, shell)

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{Cols: cols, Rows: rows})
	if err != nil {
		return nil, err
	}

	s := &Session{
		cmd:   cmd,
		pty:   ptmx,
		shell: shell,
		env:   cmd.Env,
		dir:   cmd.Dir,
	}

	go s.watchExit()

	return s, nil
}

func (s *Session) watchExit() {
	s.cmd.Wait()
	s.exitedMu.Lock()
	s.exited = true
	s.exitedMu.Unlock()
}

// HasExited reports whether the child process has terminated.
func (s *Session) HasExited() bool {
	s.exitedMu.Lock()
	defer s.exitedMu.Unlock()
	return s.exited
}

// Read reads raw bytes from the pty master side.
func (s *Session) Read(buf []byte) (int, error) {
	return s.pty.Read(buf)
}

// Write writes raw bytes to the pty master side.
func (s *Session) Write(data []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pty.Write(data)
}

// Fd returns the pty master's file descriptor, for poll-based I/O.
func (s *Session) Fd() uintptr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pty.Fd()
}

// Resize applies a new terminal size to the pty and signals the child.
func (s *Session) Resize(rows, cols uint16) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return pty.Setsize(s.pty, &pty.Winsize{Cols: cols, Rows: rows})
}

// Close kills the child and closes the pty master fd.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cmd.Process != nil {
		s.cmd.Process.Kill()
	}
	return s.pty.Close()
}

// Restart closes the current pty/child (if still alive) and forks a
// fresh child with the same shell/env/size, swapping in the new pty.
func (s *Session) Restart(rows, cols uint16) error {
	s.mu.Lock()
	if s.cmd.Process != nil {
		s.cmd.Process.Kill()
	}
	s.pty.Close()
	s.mu.Unlock()

	cmd := exec.Command(s.shell, "-i")
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	cmd.Dir = s.dir
	cmd.Env = s.env

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{Cols: cols, Rows: rows})
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.cmd = cmd
	s.pty = ptmx
	s.mu.Unlock()

	s.exitedMu.Lock()
	s.exited = false
	s.exitedMu.Unlock()

	go s.watchExit()
	return nil
}

func discoverShell(username string) string {
	if shell := passwdShell(username); shell != "" {
		if _, err := os.Stat(shell); err == nil {
			return shell
		}
	}
	for _, candidate := range []string{"/bin/bash", "/usr/bin/bash", "/bin/zsh", "/usr/bin/zsh", "/bin/sh"} {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return "/bin/sh"
}

func passwdShell(username string) string {
	data, err := os.ReadFile("/etc/passwd")
	if err != nil {
		return ""
	}
	for _, line := range strings.Split(string(data), "\n") {
		fields := strings.Split(line, ":")
		if len(fields) >= 7 && fields[0] == username {
			return fields[6]
		}
	}
	return ""
}

func buildEnv(u *user.User, shell string) []string {
	env := []string{
		"PATH=/usr/local/sbin:/usr/local/bin:/usr/sbin:/usr/bin:/sbin:/bin:" + os.Getenv("PATH"),
		"TERM=xterm-256color",
		"COLORTERM=truecolor",
		"VTCORE=1",
		"HOME=" + u.HomeDir,
		"USER=" + u.Username,
		"SHELL=" + shell,
		"LANG=en_US.UTF-8",
		"LC_ALL=en_US.UTF-8",
	}
	if display := os.Getenv("DISPLAY"); display != "" {
		env = append(env, "DISPLAY="+display)
	}
	if wayland := os.Getenv("WAYLAND_DISPLAY"); wayland != "" {
		env = append(env, "WAYLAND_DISPLAY="+wayland)
		env = append(env, "XDG_SESSION_TYPE=wayland")
	}
	return env
}
