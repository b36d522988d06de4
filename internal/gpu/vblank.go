package gpu

import (
	"sync/atomic"
	"time"
)

// VblankClock maintains the monotonic vblank_seq counter and
// last_vblank_time_ns readable via the debug escape channel (spec §4.4.5).
// The period is derived from the presenter's refresh-rate estimate.
type VblankClock struct {
	seq          atomic.Uint64
	lastNanos    atomic.Int64
	refreshHz    float64
	now          func() int64 // injected for deterministic tests
}

// NewVblankClock creates a clock against the given refresh-rate estimate.
// now defaults to a wall-clock source if nil.
func NewVblankClock(refreshHz float64, now func() int64) *VblankClock {
	if now == nil {
		now = func() int64 { return time.Now().UnixNano() }
	}
	return &VblankClock{refreshHz: refreshHz, now: now}
}

// Period returns the estimated inter-vblank interval.
func (c *VblankClock) Period() time.Duration {
	if c.refreshHz <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / c.refreshHz)
}

// Tick records one vblank edge, bumping vblank_seq and the timestamp.
func (c *VblankClock) Tick() {
	c.seq.Add(1)
	c.lastNanos.Store(c.now())
}

// VblankSeq returns the monotonic vblank counter.
func (c *VblankClock) VblankSeq() uint64 { return c.seq.Load() }

// LastVblankTimeNs returns the timestamp of the most recent Tick.
func (c *VblankClock) LastVblankTimeNs() int64 { return c.lastNanos.Load() }
