package debugcpu

// Tick runs one cooperative batch: while Running, it calls step up to
// batchSize times (or until step_budget reaches zero when in single-step
// mode), checking breakpoints after every instruction and yielding back to
// the caller's message pump at the end of the batch — spec §4.5: "executes
// up to N instructions (e.g. 5000) per cooperative tick". regs resolves a
// register by name for conditional-breakpoint evaluation; pass nil if the
// caller has no registers wired yet (register conditions then never match;
// hitcount conditions are still evaluated).
func (c *CPU) Tick(regs func(name string) (uint64, bool)) {
	if c.State() != Running {
		return
	}
	if regs == nil {
		regs = func(string) (uint64, bool) { return 0, false }
	}

	for i := 0; i < c.batchSize; i++ {
		c.mu.Lock()
		if c.state != Running {
			c.mu.Unlock()
			return
		}
		singleStep := c.stepBudget > 0
		c.mu.Unlock()

		rip, instrBytes := c.step()
		c.trace.RecordInstruction(rip, instrBytes)

		if c.breakpointHit(rip, regs) {
			c.mu.Lock()
			c.state = Paused
			c.mu.Unlock()
			c.flushTraceOnPause()
			c.emit(Event{Kind: EventBreakpointHit, RIP: rip})
			return
		}

		if singleStep {
			c.mu.Lock()
			c.stepBudget--
			exhausted := c.stepBudget == 0
			if exhausted {
				c.state = Paused
			}
			c.mu.Unlock()
			if exhausted {
				c.flushTraceOnPause()
				c.emit(Event{Kind: EventPaused, PauseReason: PauseReasonSingleStep})
				return
			}
		}

		if c.trace.ShouldFlush() {
			c.emit(Event{Kind: EventTraceChunk, TraceEvents: c.trace.Flush()})
		}
	}
}
