package hidbroker

import (
	"errors"
	"sync"
	"testing"

	"github.com/wilsonzlin/aero-sub000/internal/protocol"
)

type fakeDevice struct {
	vendor, product uint16
	name            string
	collections     []protocol.Collection

	mu       sync.Mutex
	listener func(reportID uint8, data []byte, tsMs uint64)
	stopped  bool

	sent []protocol.SendReportMessage
	sendErr error
}

func (d *fakeDevice) VendorID() uint16                      { return d.vendor }
func (d *fakeDevice) ProductID() uint16                     { return d.product }
func (d *fakeDevice) ProductName() string                   { return d.name }
func (d *fakeDevice) Collections() []protocol.Collection    { return d.collections }

func (d *fakeDevice) SendReport(reportID uint8, reportType protocol.ReportType, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, protocol.SendReportMessage{ReportID: reportID, ReportType: reportType, Data: append([]byte(nil), data...)})
	return d.sendErr
}

func (d *fakeDevice) Listen(fn func(reportID uint8, data []byte, tsMs uint64)) func() {
	d.mu.Lock()
	d.listener = fn
	d.mu.Unlock()
	return func() {
		d.mu.Lock()
		d.stopped = true
		d.listener = nil
		d.mu.Unlock()
	}
}

func (d *fakeDevice) emit(reportID uint8, data []byte, tsMs uint64) {
	d.mu.Lock()
	fn := d.listener
	d.mu.Unlock()
	if fn != nil {
		fn(reportID, data, tsMs)
	}
}

type fakePort struct {
	mu       sync.Mutex
	attached []protocol.AttachMessage
	detached []protocol.DetachMessage
	inputs   []protocol.InputReportMessage

	attachErr error
}

func (p *fakePort) PostAttach(msg protocol.AttachMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.attachErr != nil {
		return p.attachErr
	}
	p.attached = append(p.attached, msg)
	return nil
}

func (p *fakePort) PostDetach(msg protocol.DetachMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.detached = append(p.detached, msg)
	return nil
}

func (p *fakePort) PostInputReport(msg protocol.InputReportMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.inputs = append(p.inputs, msg)
	return nil
}

type fakeRing struct {
	mu       sync.Mutex
	records  [][]byte
	capacity int
}

func (r *fakeRing) TryPush(payload []byte) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.capacity > 0 && len(r.records) >= r.capacity {
		return false
	}
	r.records = append(r.records, append([]byte(nil), payload...))
	return true
}

func (r *fakeRing) Pop() ([]byte, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.records) == 0 {
		return nil, false
	}
	rec := r.records[0]
	r.records = r.records[1:]
	return rec, true
}

func TestAttachComputesHasInterruptOutAndPostsAttach(t *testing.T) {
	port := &fakePort{}
	b := New(port)
	dev := &fakeDevice{vendor: 0x046D, product: 0xC52B, name: "mouse", collections: []protocol.Collection{
		{ReportID: 1, HasOutput: false},
		{ReportID: 2, HasOutput: true},
	}}

	if err := b.Attach(1, dev, 0, false); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	if len(port.attached) != 1 || !port.attached[0].HasInterruptOut {
		t.Fatalf("attach message = %+v, want HasInterruptOut=true", port.attached)
	}
	if !b.Attached(1) {
		t.Fatal("Attached(1) = false after successful Attach")
	}
}

func TestAttachRejectsMixedReportIDs(t *testing.T) {
	port := &fakePort{}
	b := New(port)
	dev := &fakeDevice{collections: []protocol.Collection{{ReportID: 0}, {ReportID: 1}}}

	err := b.Attach(1, dev, 0, false)
	if !errors.Is(err, ErrMixedReportIDs) {
		t.Fatalf("err = %v, want ErrMixedReportIDs", err)
	}
	if b.Attached(1) {
		t.Fatal("device considered attached after a validation failure")
	}
}

func TestAttachRollsBackOnPostAttachFailure(t *testing.T) {
	port := &fakePort{attachErr: errors.New("io worker unreachable")}
	b := New(port)
	dev := &fakeDevice{collections: []protocol.Collection{{ReportID: 1}}}

	if err := b.Attach(1, dev, 0, false); err == nil {
		t.Fatal("expected Attach to fail when PostAttach fails")
	}
	if b.Attached(1) {
		t.Fatal("device left attached after PostAttach failure; rollback did not run")
	}
}

func TestAttachRejectsDuplicateDeviceID(t *testing.T) {
	port := &fakePort{}
	b := New(port)
	dev := &fakeDevice{collections: []protocol.Collection{{ReportID: 1}}}
	if err := b.Attach(1, dev, 0, false); err != nil {
		t.Fatalf("first Attach: %v", err)
	}
	if err := b.Attach(1, dev, 0, false); !errors.Is(err, ErrAlreadyAttached) {
		t.Fatalf("err = %v, want ErrAlreadyAttached", err)
	}
}

func TestDetachClearsListenerAndAttachmentState(t *testing.T) {
	port := &fakePort{}
	b := New(port)
	dev := &fakeDevice{collections: []protocol.Collection{{ReportID: 1}}}
	if err := b.Attach(1, dev, 0, false); err != nil {
		t.Fatalf("Attach: %v", err)
	}

	if err := b.Detach(1); err != nil {
		t.Fatalf("Detach: %v", err)
	}
	if b.Attached(1) {
		t.Fatal("Attached(1) = true after Detach")
	}
	dev.mu.Lock()
	stopped := dev.stopped
	dev.mu.Unlock()
	if !stopped {
		t.Fatal("listener was not stopped on Detach")
	}
	if len(port.detached) != 1 || port.detached[0].DeviceID != 1 {
		t.Fatalf("detached messages = %+v, want one for device 1", port.detached)
	}
}

func TestDetachUnknownDeviceReturnsError(t *testing.T) {
	b := New(&fakePort{})
	if err := b.Detach(99); !errors.Is(err, ErrNotAttached) {
		t.Fatalf("err = %v, want ErrNotAttached", err)
	}
}

func TestInputReportPrefersRingOverCopyFallback(t *testing.T) {
	port := &fakePort{}
	b := New(port)
	dev := &fakeDevice{collections: []protocol.Collection{{ReportID: 1}}}
	if err := b.Attach(1, dev, 0, false); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	ring := &fakeRing{}
	if err := b.AttachRing(1, ring); err != nil {
		t.Fatalf("AttachRing: %v", err)
	}

	dev.emit(1, []byte{0xAA, 0xBB}, 1234)

	if len(port.inputs) != 0 {
		t.Fatalf("fallback path used despite an attached ring: %+v", port.inputs)
	}
	if len(ring.records) != 1 {
		t.Fatalf("ring has %d records, want 1", len(ring.records))
	}
	decoded, ok := DecodeInputReport(ring.records[0])
	if !ok || decoded.ReportID != 1 || decoded.TsMs != 1234 {
		t.Fatalf("decoded = %+v ok=%v, want ReportID=1 TsMs=1234", decoded, ok)
	}
}

func TestInputReportFallsBackToCopyMessageWithoutRing(t *testing.T) {
	port := &fakePort{}
	b := New(port)
	dev := &fakeDevice{collections: []protocol.Collection{{ReportID: 1}}}
	if err := b.Attach(1, dev, 0, false); err != nil {
		t.Fatalf("Attach: %v", err)
	}

	dev.emit(1, []byte{0x01}, 0)

	if len(port.inputs) != 1 || port.inputs[0].ReportID != 1 {
		t.Fatalf("inputs = %+v, want one fallback InputReportMessage", port.inputs)
	}
}

func TestInputReportDropsAndCountsWhenRingFull(t *testing.T) {
	port := &fakePort{}
	b := New(port)
	dev := &fakeDevice{collections: []protocol.Collection{{ReportID: 1}}}
	if err := b.Attach(1, dev, 0, false); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	full := &alwaysFullRing{}
	if err := b.AttachRing(1, full); err != nil {
		t.Fatalf("AttachRing: %v", err)
	}

	dev.emit(1, []byte{0x01}, 0)
	dev.emit(1, []byte{0x02}, 0)

	if got := b.DroppedInputReports(1); got != 2 {
		t.Fatalf("DroppedInputReports = %d, want 2", got)
	}
}

type alwaysFullRing struct{}

func (alwaysFullRing) TryPush([]byte) bool { return false }

func TestDrainOnceDeliversQueuedReportsToAttachedDevices(t *testing.T) {
	port := &fakePort{}
	b := New(port)
	dev := &fakeDevice{collections: []protocol.Collection{{ReportID: 1}}}
	if err := b.Attach(1, dev, 0, false); err != nil {
		t.Fatalf("Attach: %v", err)
	}

	ring := &fakeRing{}
	ring.records = append(ring.records,
		EncodeSendReport(protocol.SendReportMessage{DeviceID: 1, ReportID: 5, ReportType: protocol.ReportOutput, Data: []byte{0x9}}),
	)

	b.DrainOnce(ring)

	dev.mu.Lock()
	defer dev.mu.Unlock()
	if len(dev.sent) != 1 || dev.sent[0].ReportID != 5 {
		t.Fatalf("sent = %+v, want one report id 5", dev.sent)
	}
}

func TestDrainOnceDropsReportsForDetachedDevices(t *testing.T) {
	port := &fakePort{}
	b := New(port)
	dev := &fakeDevice{collections: []protocol.Collection{{ReportID: 1}}}
	if err := b.Attach(1, dev, 0, false); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	if err := b.Detach(1); err != nil {
		t.Fatalf("Detach: %v", err)
	}

	ring := &fakeRing{}
	ring.records = append(ring.records,
		EncodeSendReport(protocol.SendReportMessage{DeviceID: 1, ReportID: 5, ReportType: protocol.ReportFeature, Data: nil}),
	)
	b.DrainOnce(ring) // must not panic or deliver to the detached device

	dev.mu.Lock()
	defer dev.mu.Unlock()
	if len(dev.sent) != 0 {
		t.Fatalf("sent = %+v, want none after detach", dev.sent)
	}
}
