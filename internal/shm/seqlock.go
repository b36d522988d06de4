package shm

import (
	"fmt"
	"sync/atomic"
	"unsafe"
)

// BusyBit is bit 31 of a generation word: set while a writer is mid-publish.
const BusyBit uint32 = 1 << 31

// DefaultRetryBound is the number of snapshot retries before a reader gives
// up and reports WriterStuck, per spec ("bounded to a small constant").
const DefaultRetryBound = 128

// SnapshotStatus is the outcome of a single (non-retrying) snapshot attempt.
type SnapshotStatus int

const (
	// StatusValid means both generation reads matched, even, and not busy.
	StatusValid SnapshotStatus = iota
	// StatusStaleRetry means the generation was busy or changed mid-read;
	// the caller should retry.
	StatusStaleRetry
	// StatusWriterStuck means the retry bound was exceeded.
	StatusWriterStuck
)

// Seqlock wraps a small array of 32-bit words with a dedicated generation
// word, giving wait-free readers under a single writer (see spec §4.2).
// Layout: word 0 is the generation; words 1..N are the protected fields.
type Seqlock struct {
	data      []byte
	numFields int
	retryMax  int
}

// NewSeqlock formats a fresh seqlock over data, which must be exactly
// 4*(numFields+1) bytes.
func NewSeqlock(data []byte, numFields int) (*Seqlock, error) {
	want := 4 * (numFields + 1)
	if len(data) != want {
		return nil, fmt.Errorf("shm: seqlock region wrong size: want %d got %d", want, len(data))
	}
	s := &Seqlock{data: data, numFields: numFields, retryMax: DefaultRetryBound}
	s.genPtr().Store(0)
	for i := 0; i < numFields; i++ {
		s.fieldPtr(i).Store(0)
	}
	return s, nil
}

// SeqlockSize returns the byte size of a seqlock region with numFields words.
func SeqlockSize(numFields int) int { return 4 * (numFields + 1) }

func (s *Seqlock) genPtr() *atomic.Uint32 {
	return (*atomic.Uint32)(unsafe.Pointer(&s.data[0]))
}

func (s *Seqlock) fieldPtr(i int) *atomic.Uint32 {
	return (*atomic.Uint32)(unsafe.Pointer(&s.data[4*(i+1)]))
}

// NumFields returns the number of protected 32-bit fields.
func (s *Seqlock) NumFields() int { return s.numFields }

// Publish atomically updates all fields. Not safe for concurrent callers —
// the seqlock has exactly one writer (the owning worker). Publish panics if
// it observes the busy bit already set, since that means the single-writer
// invariant was violated by the caller.
func (s *Seqlock) Publish(fields []uint32) {
	if len(fields) != s.numFields {
		panic(fmt.Sprintf("shm: seqlock.Publish: want %d fields got %d", s.numFields, len(fields)))
	}
	gen := s.genPtr().Load()
	if gen&BusyBit != 0 {
		panic("shm: seqlock.Publish: busy bit already set (concurrent writer)")
	}
	s.genPtr().Store(gen | BusyBit)
	for i, v := range fields {
		s.fieldPtr(i).Store(v)
	}
	s.genPtr().Store(gen + 2) // busy cleared, parity preserved
}

// TrySnapshot performs one (non-retrying) read attempt.
func (s *Seqlock) TrySnapshot() ([]uint32, SnapshotStatus) {
	g1 := s.genPtr().Load()
	if g1&BusyBit != 0 {
		return nil, StatusStaleRetry
	}
	fields := make([]uint32, s.numFields)
	for i := range fields {
		fields[i] = s.fieldPtr(i).Load()
	}
	g2 := s.genPtr().Load()
	if g1 != g2 {
		return nil, StatusStaleRetry
	}
	return fields, StatusValid
}

// Snapshot retries TrySnapshot up to the configured bound, yielding between
// attempts. Returns (fields, true) on success, or (nil, false) once the
// retry bound is exceeded — the caller must substitute a deterministic stub.
func (s *Seqlock) Snapshot() ([]uint32, bool) {
	for i := 0; i < s.retryMax; i++ {
		fields, status := s.TrySnapshot()
		if status == StatusValid {
			return fields, true
		}
		yieldToWriter()
	}
	return nil, false
}

// Generation returns the raw generation word (for diagnostics/tests).
func (s *Seqlock) Generation() uint32 { return s.genPtr().Load() }

// ForceStuck sets the generation's busy bit without clearing it, simulating
// a crashed writer (test/scenario helper — see spec §8 scenario 5).
func (s *Seqlock) ForceStuck() {
	s.genPtr().Store(s.genPtr().Load() | BusyBit | 1)
}
