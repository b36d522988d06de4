package debugmonitor

import (
	"strings"
	"testing"

	"github.com/wilsonzlin/aero-sub000/internal/debugcpu"
)

func TestWriteEventAppendsFormattedLineToScrollback(t *testing.T) {
	m := New(80, 24)
	m.WriteEvent(debugcpu.Event{Kind: debugcpu.EventBreakpointHit, RIP: 0x1000})

	text := m.renderLocked()
	if !strings.Contains(text, "breakpoint hit rip=0x1000") {
		t.Fatalf("scrollback = %q, want it to contain the breakpoint line", text)
	}
}

func TestExportReturnsNonEmptyTranscriptAfterEvents(t *testing.T) {
	m := New(40, 10)
	m.WriteEvent(debugcpu.Event{Kind: debugcpu.EventPaused, PauseReason: debugcpu.PauseReasonExplicit})
	m.WriteEvent(debugcpu.Event{Kind: debugcpu.EventCpuState, Registers: map[string]uint64{"rip": 1}})

	text := m.Export()
	if !strings.Contains(text, "paused reason=") {
		t.Fatalf("export missing paused line: %q", text)
	}
	if !strings.Contains(text, "cpu_state registers=1") {
		t.Fatalf("export missing cpu_state line: %q", text)
	}
}

func TestFormatEventCoversEveryEventKind(t *testing.T) {
	kinds := []debugcpu.Event{
		{Kind: debugcpu.EventPaused},
		{Kind: debugcpu.EventBreakpointHit},
		{Kind: debugcpu.EventMemoryData},
		{Kind: debugcpu.EventCpuState},
		{Kind: debugcpu.EventDeviceState},
		{Kind: debugcpu.EventTraceChunk},
		{Kind: debugcpu.EventSerialOutput},
	}
	for _, ev := range kinds {
		if got := formatEvent(ev); got == "" {
			t.Fatalf("formatEvent(%v) returned empty string", ev.Kind)
		}
	}
}
