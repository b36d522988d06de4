package hidbroker

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/wilsonzlin/aero-sub000/internal/protocol"
)

// ErrAlreadyAttached is returned when attaching a device id that is already
// bridged.
var ErrAlreadyAttached = errors.New("hidbroker: device already attached")

// ErrNotAttached is returned when detaching or sending to an unknown
// device id.
var ErrNotAttached = errors.New("hidbroker: device not attached")

type attachment struct {
	device      Device
	guestPort   uint32
	hasGuestPort bool
	stopListen  func()
	inputRing   InputRing // nil if no dedicated ring was attached
	dropped     uint64
}

// Broker owns the HIDDevice<->DeviceId mapping of spec §4.6. It runs on a
// single host thread; the I/O worker runs on another, and all cross-thread
// traffic goes through rings or the IOWorkerPort.
type Broker struct {
	port IOWorkerPort

	mu       sync.Mutex
	attached map[uint32]*attachment

	drainErrors atomic.Uint64
}

// New creates a broker posting attach/detach/fallback traffic through port.
func New(port IOWorkerPort) *Broker {
	return &Broker{port: port, attached: make(map[uint32]*attachment)}
}

// Attach validates dev's collection tree, computes has_interrupt_out, posts
// hid.attach to the I/O worker, and installs dev's input-report listener.
// guestPortHint, when hasGuestPort is true, is claimed for the duration of
// the attachment. Any failure after partial setup rolls back everything
// that had succeeded (spec §4.6: "Attachment failures roll back partial
// state").
func (b *Broker) Attach(deviceID uint32, dev Device, guestPortHint uint32, hasGuestPort bool) (err error) {
	hasInterruptOut, err := validateCollections(dev.Collections())
	if err != nil {
		return fmt.Errorf("hidbroker: attach device %d: %w", deviceID, err)
	}

	b.mu.Lock()
	if _, exists := b.attached[deviceID]; exists {
		b.mu.Unlock()
		return fmt.Errorf("hidbroker: attach device %d: %w", deviceID, ErrAlreadyAttached)
	}
	at := &attachment{device: dev, guestPort: guestPortHint, hasGuestPort: hasGuestPort}
	b.attached[deviceID] = at
	b.mu.Unlock()

	rollback := func() {
		b.mu.Lock()
		delete(b.attached, deviceID)
		b.mu.Unlock()
	}

	msg := protocol.AttachMessage{
		DeviceID:        deviceID,
		VendorID:        dev.VendorID(),
		ProductID:       dev.ProductID(),
		ProductName:     dev.ProductName(),
		GuestPort:       guestPortHint,
		Collections:     dev.Collections(),
		HasInterruptOut: hasInterruptOut,
	}
	if err := b.port.PostAttach(msg); err != nil {
		rollback()
		return fmt.Errorf("hidbroker: attach device %d: post attach: %w", deviceID, err)
	}

	stop := dev.Listen(func(reportID uint8, data []byte, tsMs uint64) {
		b.forwardInputReport(deviceID, reportID, data, tsMs)
	})

	b.mu.Lock()
	at.stopListen = stop
	b.mu.Unlock()

	return nil
}

// AttachRing installs a dedicated input ring for deviceID as the preferred
// forward path (hid.ringAttach). Attach must have already succeeded.
func (b *Broker) AttachRing(deviceID uint32, ring InputRing) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	at, ok := b.attached[deviceID]
	if !ok {
		return fmt.Errorf("hidbroker: attach ring for device %d: %w", deviceID, ErrNotAttached)
	}
	at.inputRing = ring
	return nil
}

// Detach unbridges deviceID cleanly: removes the listener, posts
// hid.detach best-effort, releases the guest port claim, and clears
// pending state (spec §4.6, §8's attach/detach invariant).
func (b *Broker) Detach(deviceID uint32) error {
	b.mu.Lock()
	at, ok := b.attached[deviceID]
	if !ok {
		b.mu.Unlock()
		return fmt.Errorf("hidbroker: detach device %d: %w", deviceID, ErrNotAttached)
	}
	delete(b.attached, deviceID)
	b.mu.Unlock()

	if at.stopListen != nil {
		at.stopListen()
	}
	// Best-effort: a detach notification failure does not re-attach the
	// device or retry. The device is already unbridged on the broker side.
	_ = b.port.PostDetach(protocol.DetachMessage{DeviceID: deviceID})
	return nil
}

// Attached reports whether deviceID currently holds a listener and entry.
func (b *Broker) Attached(deviceID uint32) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.attached[deviceID]
	return ok
}

// DroppedInputReports returns the number of input reports dropped for
// deviceID because its dedicated ring was full (spec §4.4.6-style
// back-pressure, reused for the HID fast path).
func (b *Broker) DroppedInputReports(deviceID uint32) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	at, ok := b.attached[deviceID]
	if !ok {
		return 0
	}
	return at.dropped
}

func (b *Broker) forwardInputReport(deviceID uint32, reportID uint8, data []byte, tsMs uint64) {
	b.mu.Lock()
	at, ok := b.attached[deviceID]
	b.mu.Unlock()
	if !ok {
		return // detached since the report was queued by the host device
	}

	if at.inputRing != nil {
		payload := protocol.InputReportMessage{DeviceID: deviceID, ReportID: reportID, Data: data, TsMs: tsMs}
		if encodeInputReport(at.inputRing, payload) {
			return
		}
		b.mu.Lock()
		at.dropped++
		b.mu.Unlock()
		return
	}

	// Copy-message fallback: best-effort, no drop counter since the
	// IOWorkerPort's own queue (if any) owns that bookkeeping.
	_ = b.port.PostInputReport(protocol.InputReportMessage{DeviceID: deviceID, ReportID: reportID, Data: data, TsMs: tsMs})
}

// encodeInputReport pushes msg onto ring, returning false (caller bumps the
// drop counter) if the ring has no space.
func encodeInputReport(ring InputRing, msg protocol.InputReportMessage) bool {
	return ring.TryPush(EncodeInputReport(msg))
}
