// Package debugmonitor keeps a scrollback transcript of debug CPU events
// and can push it to the host clipboard on request. Grounded on the
// teacher's debug_monitor.go (a line-buffered operator console) but backed
// by a real terminal cell grid, github.com/charmbracelet/x/vt, instead of a
// hand-rolled slice of strings — the same approach the retrieval pack's
// embeddable terminal view (internal/term in tinyrange-cc) uses to keep
// scrollback as addressable cells rather than raw text.
package debugmonitor

import (
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/x/vt"
	"golang.design/x/clipboard"

	"github.com/wilsonzlin/aero-sub000/internal/debugcpu"
)

// Monitor renders debug CPU events into a scrollback grid and can export
// the visible transcript as plain text.
type Monitor struct {
	mu  sync.Mutex
	emu *vt.SafeEmulator

	clipboardOnce sync.Once
	clipboardOK   bool
}

// New creates a scrollback buffer cols x rows cells wide.
func New(cols, rows int) *Monitor {
	return &Monitor{emu: vt.NewSafeEmulator(cols, rows)}
}

// WriteEvent formats a debugcpu.Event as one scrollback line (teacher's
// debug_monitor.go line format: "<kind> <details>") and appends it.
func (m *Monitor) WriteEvent(ev debugcpu.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fmt.Fprintf(m.emu, "%s\r\n", formatEvent(ev))
}

func formatEvent(ev debugcpu.Event) string {
	switch ev.Kind {
	case debugcpu.EventPaused:
		return fmt.Sprintf("paused reason=%v", ev.PauseReason)
	case debugcpu.EventBreakpointHit:
		return fmt.Sprintf("breakpoint hit rip=%#x", ev.RIP)
	case debugcpu.EventMemoryData:
		return fmt.Sprintf("memory addr=%#x len=%d", ev.MemAddr, len(ev.MemData))
	case debugcpu.EventCpuState:
		return fmt.Sprintf("cpu_state registers=%d", len(ev.Registers))
	case debugcpu.EventDeviceState:
		return fmt.Sprintf("device_state devices=%d", len(ev.Devices))
	case debugcpu.EventTraceChunk:
		return fmt.Sprintf("trace_chunk entries=%d", len(ev.TraceEvents))
	case debugcpu.EventSerialOutput:
		return fmt.Sprintf("serial port=%#x len=%d", ev.SerialPort, len(ev.SerialData))
	default:
		return fmt.Sprintf("event kind=%v", ev.Kind)
	}
}

// Export renders the current scrollback grid as plain text (one line per
// row, trailing blanks trimmed) and, if a host clipboard is reachable,
// copies it there — the teacher's monitor "export" command. Clipboard
// availability is probed once; a headless CI/container host without a
// display server simply skips the copy and returns the text anyway.
func (m *Monitor) Export() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	text := m.renderLocked()

	m.clipboardOnce.Do(func() {
		m.clipboardOK = clipboard.Init() == nil
	})
	if m.clipboardOK {
		clipboard.Write(clipboard.FmtText, []byte(text))
	}
	return text
}

func (m *Monitor) renderLocked() string {
	cols, rows := m.emu.Width(), m.emu.Height()
	var sb strings.Builder
	for y := 0; y < rows; y++ {
		var line strings.Builder
		for x := 0; x < cols; x++ {
			cell := m.emu.CellAt(x, y)
			if cell == nil || cell.Content == "" {
				line.WriteByte(' ')
				continue
			}
			line.WriteString(cell.Content)
		}
		sb.WriteString(strings.TrimRight(line.String(), " "))
		sb.WriteByte('\n')
	}
	return sb.String()
}
