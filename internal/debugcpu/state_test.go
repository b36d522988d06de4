package debugcpu

import "testing"

func TestNewCPUStartsPaused(t *testing.T) {
	c := New(func() (uint64, []byte) { return 0, nil })
	if c.State() != Paused {
		t.Fatalf("State() = %v, want Paused", c.State())
	}
}

func TestPauseResumeTransitions(t *testing.T) {
	c := New(func() (uint64, []byte) { return 0, nil })
	c.StartRunning()
	if c.State() != Running {
		t.Fatalf("State() = %v, want Running after StartRunning", c.State())
	}

	c.Pause(PauseReasonExplicit)
	if c.State() != Paused {
		t.Fatalf("State() = %v, want Paused", c.State())
	}
	select {
	case ev := <-c.Events():
		if ev.Kind != EventPaused || ev.PauseReason != PauseReasonExplicit {
			t.Fatalf("unexpected event %+v", ev)
		}
	default:
		t.Fatal("expected a Paused event")
	}

	c.Resume()
	if c.State() != Running {
		t.Fatalf("State() = %v, want Running after Resume", c.State())
	}
}

func TestPauseIsNoOpWhenAlreadyPaused(t *testing.T) {
	c := New(func() (uint64, []byte) { return 0, nil })
	c.Pause(PauseReasonExplicit)
	select {
	case ev := <-c.Events():
		t.Fatalf("unexpected event on no-op pause: %+v", ev)
	default:
	}
}

func TestStepFromPausedGoesRunningWithBudget(t *testing.T) {
	c := New(func() (uint64, []byte) { return 0, nil })
	c.Step()
	if c.State() != Running {
		t.Fatalf("State() = %v, want Running after Step from Paused", c.State())
	}
	if c.stepBudget != 1 {
		t.Fatalf("stepBudget = %d, want 1", c.stepBudget)
	}
}

func TestEmitDropsNewestWhenChannelFull(t *testing.T) {
	c := New(func() (uint64, []byte) { return 0, nil })
	for i := 0; i < cap(c.events)+10; i++ {
		c.emit(Event{Kind: EventPaused})
	}
	if len(c.events) != cap(c.events) {
		t.Fatalf("channel len = %d, want full at cap %d", len(c.events), cap(c.events))
	}
}
