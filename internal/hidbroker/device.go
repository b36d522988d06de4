// Package hidbroker implements the host-device HID bridge of spec §4.6: it
// owns the mapping between host HID devices and guest-visible DeviceIds,
// validates report-descriptor collection trees on attach, and forwards
// input/output/feature reports across a ring-preferred, copy-message-fallback
// transport to the I/O worker.
//
// Grounded on the teacher's CoprocessorManager attach/start/stop lifecycle
// (coprocessor_manager.go) — mutex-guarded worker table, rollback on partial
// failure — generalized from coprocessor workers to host HID peripherals, and
// on the ring-preferred transport idiom of the gokvm virtio-net device for
// the input-report forwarding path.
package hidbroker

import "github.com/wilsonzlin/aero-sub000/internal/protocol"

// Device is a host HID device as seen by the broker. A real implementation
// wraps a platform HID API handle; tests supply a fake.
type Device interface {
	VendorID() uint16
	ProductID() uint16
	ProductName() string
	Collections() []protocol.Collection
	// SendReport delivers an Output or Feature report to the physical
	// device. Called from the broker's drain timer, never concurrently
	// for the same device.
	SendReport(reportID uint8, reportType protocol.ReportType, data []byte) error
	// Listen registers fn to be called for every input report the device
	// produces until the returned stop func is called. Implementations
	// must tolerate Listen being called at most once per attach.
	Listen(fn func(reportID uint8, data []byte, tsMs uint64)) (stop func())
}

// IOWorkerPort is the broker's view of the I/O worker: where attach/detach
// notifications and fallback-path input reports are posted.
type IOWorkerPort interface {
	PostAttach(msg protocol.AttachMessage) error
	PostDetach(msg protocol.DetachMessage) error
	// PostInputReport is the copy-message fallback path, used only when
	// no dedicated input ring was attached for this device.
	PostInputReport(msg protocol.InputReportMessage) error
}

// InputRing is the dedicated shared-ring fast path for input reports,
// preferred over PostInputReport when attached (spec §4.6).
type InputRing interface {
	// TryPush returns false if the ring is full; the broker bumps its
	// drop counter and does not retry (spec §4.4.6-style back-pressure
	// policy, reused here for HID input reports).
	TryPush(payload []byte) bool
}

// OutputRing is the dedicated shared-ring the I/O worker uses to push
// Output/Feature reports back to the broker for delivery to the host device.
type OutputRing interface {
	Pop() ([]byte, bool)
}
