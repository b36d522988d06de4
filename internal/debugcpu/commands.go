package debugcpu

// This file implements the remote-debug command surface and the
// Running/Paused transition table of spec §4.5:
//
//	Running: On Pause -> Paused.
//	         On Step   step_budget += 1 (consumed on the next tick).
//	         On breakpoint RIP hit -> Paused, emit BreakpointHit.
//	Paused:  On Resume -> Running.
//	         On Step   step_budget += 1, -> Running.

// Pause transitions Running -> Paused (command Pause). A no-op if already
// paused.
func (c *CPU) Pause(reason PauseReason) {
	c.mu.Lock()
	if c.state == Paused {
		c.mu.Unlock()
		return
	}
	c.state = Paused
	c.mu.Unlock()

	c.flushTraceOnPause()
	c.emit(Event{Kind: EventPaused, PauseReason: reason})
}

// Resume transitions Paused -> Running (command Resume). A no-op if already
// running.
func (c *CPU) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = Running
}

// Step implements command Step: in either state, step_budget += 1; if
// Paused, also transitions to Running so the next tick consumes the budget.
func (c *CPU) Step() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stepBudget++
	c.state = Running
}

// ReadMemory is the command ReadMemory{paddr, len}; actual memory backing
// is supplied by the caller since guest RAM access is out of this package's
// scope.
func (c *CPU) ReadMemory(paddr uint64, read func(paddr uint64, length int) []byte, length int) {
	data := read(paddr, length)
	c.emit(Event{Kind: EventMemoryData, MemAddr: paddr, MemData: data})
}

// RequestCpuState is the command RequestCpuState; regs is supplied by the
// caller's register file snapshot.
func (c *CPU) RequestCpuState(regs map[string]uint64) {
	c.emit(Event{Kind: EventCpuState, Registers: regs})
}

// RequestDeviceState is the command RequestDeviceState.
func (c *CPU) RequestDeviceState(devices map[string]string, uart string) {
	c.emit(Event{Kind: EventDeviceState, Devices: devices, UART: uart})
}

// EnableTrace is the command EnableTrace{filter}.
func (c *CPU) EnableTrace(filter TraceFilter) {
	c.trace.Enable(filter)
}

// DisableTrace is the command DisableTrace.
func (c *CPU) DisableTrace() {
	c.trace.Disable()
}

func (c *CPU) flushTraceOnPause() {
	entries := c.trace.Flush()
	if len(entries) == 0 {
		return
	}
	c.emit(Event{Kind: EventTraceChunk, TraceEvents: entries})
}
