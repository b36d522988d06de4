package gpu

import (
	"github.com/wilsonzlin/aero-sub000/internal/protocol"
	"github.com/wilsonzlin/aero-sub000/internal/scanout"
	"github.com/wilsonzlin/aero-sub000/internal/shm"
)

// pendingSubmission tracks one in-flight submission's DMA resources so they
// can be freed once the fence retires (spec §4.4.1: "on acknowledgement the
// pending submission list is drained of entries whose fence <= fence
// completed; their DMA-copy buffers and descriptor buffers are freed").
type pendingSubmission struct {
	fence         uint32
	descGPA       uint64
	descSize      uint32
	dmaBufferGPA  uint64
	dmaBufferSize uint32
}

// SubmissionTracker consumes the GPU submission ring and retires fences.
type SubmissionTracker struct {
	ring    *shm.Ring
	ram     *shm.Region
	vram    *shm.Region
	vramLen uint64

	pending        []pendingSubmission
	fenceCompleted uint32
	freedBuffers   int // count of retired DMA allocations, observable for tests
}

// NewSubmissionTracker wraps an already-attached submission ring entry
// stream together with the address spaces descriptors are resolved against.
func NewSubmissionTracker(ring *shm.Ring, ram, vram *shm.Region, vramLen uint64) *SubmissionTracker {
	return &SubmissionTracker{ring: ring, ram: ram, vram: vram, vramLen: vramLen}
}

// PollSubmission pops and processes at most one new ring entry, reading its
// descriptor and recording it as pending. Returns false if the ring was
// empty.
func (t *SubmissionTracker) PollSubmission() (protocol.SubmissionDescriptor, bool, error) {
	raw, ok := t.ring.Pop()
	if !ok {
		return protocol.SubmissionDescriptor{}, false, nil
	}
	entry, ok := protocol.DecodeRingEntry(raw)
	if !ok {
		return protocol.SubmissionDescriptor{}, false, nil
	}

	descBytes, err := scanout.Resolve(entry.DescGPA, int(entry.DescSize), t.ram, t.vram, t.vramLen)
	if err != nil {
		return protocol.SubmissionDescriptor{}, false, err
	}
	desc, err := protocol.DecodeSubmissionDescriptor(descBytes)
	if err != nil {
		return protocol.SubmissionDescriptor{}, false, err
	}

	t.pending = append(t.pending, pendingSubmission{
		fence:         entry.Fence,
		descGPA:       entry.DescGPA,
		descSize:      entry.DescSize,
		dmaBufferGPA:  desc.DMABufferGPA,
		dmaBufferSize: desc.DMABufferSize,
	})
	return desc, true, nil
}

// SimulateCompletion marks the given fence as completed — the worker
// "simulates completion" immediately rather than modeling real GPU latency
// (spec §4.4.1). It only advances fence_completed; the tracker keeps no
// interrupt status and raises no interrupt.
func (t *SubmissionTracker) SimulateCompletion(fence uint32) {
	if fence > t.fenceCompleted {
		t.fenceCompleted = fence
	}
}

// FenceCompleted returns the last published fence_completed value.
func (t *SubmissionTracker) FenceCompleted() uint32 { return t.fenceCompleted }

// Retire drains every pending entry whose fence is <= fence_completed,
// freeing its DMA and descriptor buffers. Returns the number retired.
func (t *SubmissionTracker) Retire() int {
	kept := t.pending[:0]
	retired := 0
	for _, p := range t.pending {
		if p.fence <= t.fenceCompleted {
			retired++
			t.freedBuffers++
			continue
		}
		kept = append(kept, p)
	}
	t.pending = kept
	return retired
}

// Pending returns the number of submissions still awaiting retirement.
func (t *SubmissionTracker) Pending() int { return len(t.pending) }

// FreedBuffers returns the cumulative count of retired DMA allocations.
func (t *SubmissionTracker) FreedBuffers() int { return t.freedBuffers }
