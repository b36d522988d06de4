package debugcpu

import "testing"

func TestSetRemoveClearBreakpoints(t *testing.T) {
	c := New(func() (uint64, []byte) { return 0, nil })
	c.SetBreakpoint(0x10)
	c.SetBreakpoint(0x20)
	if len(c.breakpoints) != 2 {
		t.Fatalf("len(breakpoints) = %d, want 2", len(c.breakpoints))
	}

	c.RemoveBreakpoint(0x10)
	if _, ok := c.breakpoints[0x10]; ok {
		t.Fatal("breakpoint 0x10 still present after RemoveBreakpoint")
	}

	c.ClearBreakpoints()
	if len(c.breakpoints) != 0 {
		t.Fatalf("len(breakpoints) = %d, want 0 after ClearBreakpoints", len(c.breakpoints))
	}
}

func TestWatchpointDetectsChangeOnly(t *testing.T) {
	c := New(func() (uint64, []byte) { return 0, nil })
	c.SetWatchpoint(0x5000, 0x00)

	if c.CheckWatchpoint(0x5000, 0x00) {
		t.Fatal("CheckWatchpoint fired on an unchanged value")
	}
	if !c.CheckWatchpoint(0x5000, 0x01) {
		t.Fatal("CheckWatchpoint did not fire on a changed value")
	}
	if c.CheckWatchpoint(0x5000, 0x01) {
		t.Fatal("CheckWatchpoint fired again with no further change")
	}

	c.RemoveWatchpoint(0x5000)
	if c.CheckWatchpoint(0x5000, 0x02) {
		t.Fatal("CheckWatchpoint fired after RemoveWatchpoint")
	}
}

func TestEvaluateConditionOperators(t *testing.T) {
	regs := func(name string) (uint64, bool) {
		if name == "rcx" {
			return 5, true
		}
		return 0, false
	}

	cases := []struct {
		op   ConditionOp
		want bool
	}{
		{CondEqual, false},
		{CondNotEqual, true},
		{CondLess, false},
		{CondGreater, true},
		{CondLessEqual, false},
		{CondGreaterEqual, true},
	}
	for _, tc := range cases {
		cond := BreakpointCondition{Source: "register", RegName: "rcx", Op: tc.op, Value: 3}
		if got := evaluateCondition(cond, 0, regs); got != tc.want {
			t.Errorf("op=%v: evaluateCondition = %v, want %v", tc.op, got, tc.want)
		}
	}
}

func TestEvaluateConditionHitCountSource(t *testing.T) {
	cond := BreakpointCondition{Source: "hitcount", Op: CondGreaterEqual, Value: 3}
	noRegs := func(string) (uint64, bool) { return 0, false }
	if evaluateCondition(cond, 2, noRegs) {
		t.Fatal("condition matched before hit count reached threshold")
	}
	if !evaluateCondition(cond, 3, noRegs) {
		t.Fatal("condition did not match once hit count reached threshold")
	}
}

func TestEvaluateConditionUnknownRegisterNeverMatches(t *testing.T) {
	regs := func(string) (uint64, bool) { return 0, false }
	cond := BreakpointCondition{Source: "register", RegName: "rzz", Op: CondEqual, Value: 0}
	if evaluateCondition(cond, 0, regs) {
		t.Fatal("condition matched for an unresolvable register")
	}
}
