package hidbroker

import (
	"sync/atomic"
	"time"
)

// DefaultDrainInterval is the short timer spec §4.6 drains the output ring
// on: "the broker drains on a short timer and calls the host device's send
// API".
const DefaultDrainInterval = 2 * time.Millisecond

// DrainLoop runs the output/feature report drain on a ticker until stopped
// via the returned stop func. Each tick pops every currently-queued record
// off ring and, for devices still attached, calls Device.SendReport;
// records for devices that detached mid-flight are dropped silently.
func (b *Broker) DrainLoop(ring OutputRing, interval time.Duration) (stop func()) {
	if interval <= 0 {
		interval = DefaultDrainInterval
	}
	stopCh := make(chan struct{})
	doneCh := make(chan struct{})
	go func() {
		defer close(doneCh)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stopCh:
				return
			case <-ticker.C:
				b.DrainOnce(ring)
			}
		}
	}()
	return func() {
		close(stopCh)
		<-doneCh
	}
}

// DrainErrors returns the count of SendReport failures observed by
// DrainOnce, for diagnostics — not part of the wire protocol.
func (b *Broker) DrainErrors() uint64 { return b.drainErrors.Load() }

// DrainOnce pops every record currently queued on ring and delivers each to
// its target device's SendReport, if still attached.
func (b *Broker) DrainOnce(ring OutputRing) {
	for {
		raw, ok := ring.Pop()
		if !ok {
			return
		}
		msg, ok := DecodeSendReport(raw)
		if !ok {
			continue // malformed record: protocol violation, drop (spec §7)
		}

		b.mu.Lock()
		at, attached := b.attached[msg.DeviceID]
		b.mu.Unlock()
		if !attached {
			continue // peer disappeared mid-flight: drop, don't error
		}

		if err := at.device.SendReport(msg.ReportID, msg.ReportType, msg.Data); err != nil {
			b.drainErrors.Add(1)
		}
	}
}
