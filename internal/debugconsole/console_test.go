package debugconsole

import (
	"testing"
	"time"

	"github.com/wilsonzlin/aero-sub000/internal/debugcpu"
)

func stepOnce() debugcpu.StepFn {
	var rip uint64
	return func() (uint64, []byte) {
		r := rip
		rip++
		return r, nil
	}
}

func TestDispatchPauseTransitionsCPUToPaused(t *testing.T) {
	cpu := debugcpu.New(stepOnce())
	cpu.StartRunning()
	c := &Console{cpu: cpu, stopCh: make(chan struct{}), done: make(chan struct{})}

	c.dispatch(keyPause)

	if cpu.State() != debugcpu.Paused {
		t.Fatalf("state = %v, want Paused after dispatching pause", cpu.State())
	}
}

func TestDispatchResumeTransitionsCPUToRunning(t *testing.T) {
	cpu := debugcpu.New(stepOnce())
	cpu.Pause(debugcpu.PauseReasonExplicit)
	c := &Console{cpu: cpu, stopCh: make(chan struct{}), done: make(chan struct{})}

	c.dispatch(keyResume)

	if cpu.State() != debugcpu.Running {
		t.Fatalf("state = %v, want Running after dispatching resume", cpu.State())
	}
}

func TestDispatchQuitClosesStopChannelExactlyOnce(t *testing.T) {
	cpu := debugcpu.New(stepOnce())
	c := &Console{cpu: cpu, stopCh: make(chan struct{}), done: make(chan struct{})}

	c.dispatch(keyQuit)
	c.dispatch(keyQuit) // must not panic on double-close

	select {
	case <-c.stopCh:
	case <-time.After(time.Second):
		t.Fatal("stopCh was never closed by dispatching quit")
	}
}

func TestDispatchExportInvokesOnExportHook(t *testing.T) {
	cpu := debugcpu.New(stepOnce())
	called := false
	c := &Console{cpu: cpu, stopCh: make(chan struct{}), done: make(chan struct{}), OnExport: func() { called = true }}

	c.dispatch(keyExport)

	if !called {
		t.Fatal("dispatching export did not invoke OnExport")
	}
}

func TestDispatchExportWithoutHookDoesNotPanic(t *testing.T) {
	cpu := debugcpu.New(stepOnce())
	c := &Console{cpu: cpu, stopCh: make(chan struct{}), done: make(chan struct{})}
	c.dispatch(keyExport) // must not panic when OnExport is nil
}

func TestDispatchUnknownKeyIsIgnored(t *testing.T) {
	cpu := debugcpu.New(stepOnce())
	cpu.StartRunning()
	c := &Console{cpu: cpu, stopCh: make(chan struct{}), done: make(chan struct{})}

	c.dispatch('z')

	if cpu.State() != debugcpu.Running {
		t.Fatalf("state = %v, want unchanged Running for an unmapped key", cpu.State())
	}
}
