// Package debugconsole reads raw, unbuffered stdin keystrokes and maps them
// to debugcpu commands so an operator attached to the coordinator's
// terminal can pause/resume/step the debug CPU without a remote debug
// client. Grounded on the teacher's terminal_host.go (TerminalHost): raw
// mode via golang.org/x/term, a non-blocking single-byte read loop, and a
// Stop() that restores the terminal unconditionally.
package debugconsole

import (
	"fmt"
	"os"
	"sync"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/wilsonzlin/aero-sub000/internal/debugcpu"
)

// Keymap: p=pause, r=resume, s=step, e=export scrollback, q=quit (quit only
// closes the console, it does not stop the coordinator).
const (
	keyPause  = 'p'
	keyResume = 'r'
	keyStep   = 's'
	keyExport = 'e'
	keyQuit   = 'q'
)

// Console reads raw stdin and drives a debugcpu.CPU interactively.
type Console struct {
	cpu *debugcpu.CPU

	// OnExport, if set, is invoked when the operator presses the export key.
	// Wired by the caller to a debugmonitor.Monitor's Export method.
	OnExport func()

	fd           int
	oldTermState *term.State
	nonblockSet  bool

	stopCh  chan struct{}
	done    chan struct{}
	stopped sync.Once
}

// New creates a console bound to cpu. Call Start to begin reading stdin.
func New(cpu *debugcpu.CPU) *Console {
	return &Console{
		cpu:    cpu,
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Start puts stdin into raw, non-blocking mode and begins routing
// keystrokes to debug commands in a background goroutine. If stdin is not a
// terminal (e.g. running under a test harness or piped input), Start logs
// the failure and returns without starting the read loop.
func (c *Console) Start() {
	c.fd = int(os.Stdin.Fd())

	oldState, err := term.MakeRaw(c.fd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "debugconsole: stdin is not a terminal, interactive commands disabled: %v\n", err)
		close(c.done)
		return
	}
	c.oldTermState = oldState

	if err := syscall.SetNonblock(c.fd, true); err != nil {
		fmt.Fprintf(os.Stderr, "debugconsole: failed to set non-blocking stdin: %v\n", err)
		_ = term.Restore(c.fd, c.oldTermState)
		c.oldTermState = nil
		close(c.done)
		return
	}
	c.nonblockSet = true

	go c.readLoop()
}

func (c *Console) readLoop() {
	defer close(c.done)
	buf := make([]byte, 1)

	for {
		select {
		case <-c.stopCh:
			return
		default:
		}

		n, err := syscall.Read(c.fd, buf)
		if n > 0 {
			c.dispatch(buf[0])
		}
		if err == syscall.EAGAIN || err == syscall.EWOULDBLOCK {
			time.Sleep(5 * time.Millisecond)
			continue
		}
		if err != nil {
			return
		}
		if n == 0 {
			time.Sleep(5 * time.Millisecond)
		}
	}
}

func (c *Console) dispatch(b byte) {
	switch b {
	case keyPause:
		c.cpu.Pause(debugcpu.PauseReasonExplicit)
	case keyResume:
		c.cpu.Resume()
	case keyStep:
		c.cpu.Step()
	case keyExport:
		if c.OnExport != nil {
			c.OnExport()
		}
	case keyQuit:
		c.stopped.Do(func() { close(c.stopCh) })
	}
}

// Stop terminates the read loop and restores the terminal to its prior
// mode. Safe to call more than once.
func (c *Console) Stop() {
	c.stopped.Do(func() { close(c.stopCh) })
	<-c.done
	if c.nonblockSet {
		_ = syscall.SetNonblock(c.fd, false)
		c.nonblockSet = false
	}
	if c.oldTermState != nil {
		_ = term.Restore(c.fd, c.oldTermState)
		c.oldTermState = nil
	}
}
