package shm

import (
	"encoding/binary"
	"fmt"
	"sync/atomic"
	"unsafe"
)

// Ring header word offsets, per spec: HEAD, TAIL, RESERVED, CAPACITY.
const (
	ringHeadOff     = 0
	ringTailOff     = 4
	ringReservedOff = 8
	ringCapOff      = 12
	ringHeaderSize  = 16

	// recordHeaderSize is the 4-byte length prefix in front of every record.
	recordHeaderSize = 4
	// recordAlign is the minimum record alignment boundary.
	recordAlign = 4
)

// Ring is a fixed-capacity, single-producer/single-consumer byte ring backed
// by shared memory. Capacity must be a power of two (cheap index masking).
// head/tail are monotonic counters; wrapped position is counter & (capacity-1).
type Ring struct {
	data     []byte // header (16 bytes) + payload (capacity bytes)
	capacity uint32
	dropped  atomic.Uint64
}

// NewRing formats a fresh ring over data (which must be exactly
// ringHeaderSize+capacity bytes) and returns a handle to it. capacity must be
// a power of two.
func NewRing(data []byte, capacity uint32) (*Ring, error) {
	if capacity == 0 || capacity&(capacity-1) != 0 {
		return nil, fmt.Errorf("shm: ring capacity must be a power of two, got %d", capacity)
	}
	if uint32(len(data)) != ringHeaderSize+capacity {
		return nil, fmt.Errorf("shm: ring buffer wrong size: want %d got %d", ringHeaderSize+capacity, len(data))
	}
	r := &Ring{data: data, capacity: capacity}
	r.setWordRelaxed(ringHeadOff, 0)
	r.setWordRelaxed(ringTailOff, 0)
	r.setWordRelaxed(ringReservedOff, 0)
	r.setWordRelaxed(ringCapOff, capacity)
	return r, nil
}

// AttachRing opens a ring previously formatted by NewRing, trusting the
// CAPACITY word already stored in the header.
func AttachRing(data []byte) (*Ring, error) {
	if len(data) < ringHeaderSize {
		return nil, fmt.Errorf("shm: ring region too small to hold a header: %d bytes", len(data))
	}
	r := &Ring{data: data}
	r.capacity = r.wordPtr(ringCapOff).Load()
	if r.capacity == 0 || r.capacity&(r.capacity-1) != 0 {
		return nil, fmt.Errorf("shm: attached ring has invalid capacity %d", r.capacity)
	}
	if uint32(len(data)) != ringHeaderSize+r.capacity {
		return nil, fmt.Errorf("shm: ring region size %d does not match header capacity %d", len(data), r.capacity)
	}
	return r, nil
}

// RingSize returns the total byte size a ring of the given payload capacity
// occupies, header included — the number to pass to shm.Region allocation.
func RingSize(capacity uint32) int { return ringHeaderSize + int(capacity) }

func (r *Ring) wordPtr(off int) *atomic.Uint32 {
	return (*atomic.Uint32)(unsafe.Pointer(&r.data[off]))
}

func (r *Ring) setWordRelaxed(off int, v uint32) { r.wordPtr(off).Store(v) }

func (r *Ring) head() uint32           { return r.wordPtr(ringHeadOff).Load() }
func (r *Ring) tailAcquire() uint32    { return r.wordPtr(ringTailOff).Load() }
func (r *Ring) publishHead(v uint32)   { r.wordPtr(ringHeadOff).Store(v) }
func (r *Ring) publishTail(v uint32)   { r.wordPtr(ringTailOff).Store(v) }

// Capacity returns the ring's immutable payload capacity in bytes.
func (r *Ring) Capacity() uint32 { return r.capacity }

// Dropped returns the number of records dropped because the ring was full.
func (r *Ring) Dropped() uint64 { return r.dropped.Load() }

func align4(n uint32) uint32 { return (n + recordAlign - 1) &^ (recordAlign - 1) }

// freeSpace returns the number of unreserved bytes, as observed by the single
// producer (which always knows its own last-published tail).
func (r *Ring) freeSpace(head, tail uint32) uint32 {
	return r.capacity - (tail - head)
}

func (r *Ring) payloadOffset(counter uint32) int {
	return ringHeaderSize + int(counter&(r.capacity-1))
}

// writeAt writes buf into the ring payload at the given counter position,
// splitting across the wrap point if necessary.
func (r *Ring) writeAt(counter uint32, buf []byte) {
	pos := counter & (r.capacity - 1)
	off := ringHeaderSize + int(pos)
	first := r.capacity - pos
	if uint32(len(buf)) <= first {
		copy(r.data[off:], buf)
		return
	}
	copy(r.data[off:], buf[:first])
	copy(r.data[ringHeaderSize:], buf[first:])
}

func (r *Ring) readAt(counter uint32, n uint32) []byte {
	pos := counter & (r.capacity - 1)
	off := ringHeaderSize + int(pos)
	first := r.capacity - pos
	out := make([]byte, n)
	if n <= first {
		copy(out, r.data[off:off+int(n)])
		return out
	}
	copy(out, r.data[off:off+int(first)])
	copy(out[first:], r.data[ringHeaderSize:ringHeaderSize+int(n-first)])
	return out
}

// TryPush reserves n bytes (record-header-aligned) and invokes writer with a
// fresh n-byte buffer to fill. The record becomes visible to the consumer
// only after writer returns and the tail publish completes. Returns false
// (and bumps the drop counter) if the ring has insufficient free space —
// TryPush never blocks.
func (r *Ring) TryPush(n uint32, writer func([]byte)) bool {
	recLen := align4(n)
	total := recordHeaderSize + recLen

	head := r.head()
	tail := r.tailAcquire()
	if total > r.freeSpace(head, tail) {
		r.dropped.Add(1)
		return false
	}

	var lenHdr [recordHeaderSize]byte
	binary.LittleEndian.PutUint32(lenHdr[:], n)
	r.writeAt(tail, lenHdr[:])

	buf := make([]byte, n)
	writer(buf)
	r.writeAt(tail+recordHeaderSize, buf)

	r.publishTail(tail + total) // release: payload visible before this store
	return true
}

// TryPushSlice is TryPush for callers that already have the payload bytes.
func (r *Ring) TryPushSlice(payload []byte) bool {
	return r.TryPush(uint32(len(payload)), func(dst []byte) { copy(dst, payload) })
}

// Pop returns the next complete record, or (nil, false) if the ring is empty.
// A corrupt length prefix (length > capacity) is treated as fatal: the ring
// is drained (head snapped to tail) and Pop returns (nil, false), per the
// ring buffer's "corrupt header" failure policy.
func (r *Ring) Pop() ([]byte, bool) {
	head := r.head()
	tail := r.tailAcquire() // acquire: observes producer's payload writes
	if tail == head {
		return nil, false
	}

	lenBuf := r.readAt(head, recordHeaderSize)
	n := binary.LittleEndian.Uint32(lenBuf)
	if n > r.capacity {
		r.publishHead(tail)
		return nil, false
	}
	total := recordHeaderSize + align4(n)
	if tail-head < total {
		return nil, false
	}

	payload := r.readAt(head+recordHeaderSize, n)
	r.publishHead(head + total) // release
	return payload, true
}

// Reset rewinds head and tail to zero. Only safe when no producer is
// mid-push; the caller must coordinate that externally (e.g. while the
// owning worker is paused).
func (r *Ring) Reset() {
	r.publishTail(0)
	r.publishHead(0)
}
