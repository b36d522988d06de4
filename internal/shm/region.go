// Package shm implements the shared-memory substrate that carries guest RAM,
// the VRAM aperture, and the lock-free ring/seqlock control structures between
// the coordinator and the CPU, I/O, GPU, disk, and net workers.
package shm

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Region owns one mmap'd anonymous shared region. Anonymous + MAP_SHARED
// mappings are inherited by forked workers and stay mapped at the same
// virtual address across goroutines within one process; callers that spawn
// real OS processes for workers would back this by memfd/shm_open instead,
// but the mapping contract (Slice/Close) is unchanged either way.
type Region struct {
	data []byte
	name string
}

// NewRegion allocates a zero-filled anonymous shared region of the given size.
func NewRegion(name string, size int) (*Region, error) {
	if size <= 0 {
		return nil, fmt.Errorf("shm: region %q: size must be positive, got %d", name, size)
	}
	data, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED|unix.MAP_ANON)
	if err != nil {
		return nil, fmt.Errorf("shm: mmap region %q (%d bytes): %w", name, size, err)
	}
	return &Region{data: data, name: name}, nil
}

// Len returns the region's total byte size.
func (r *Region) Len() int { return len(r.data) }

// Name returns the region's diagnostic name.
func (r *Region) Name() string { return r.name }

// Bytes returns the full backing slice. Callers across workers alias the same
// memory; synchronization is the caller's responsibility via Ring or Seqlock.
func (r *Region) Bytes() []byte { return r.data }

// Slice returns a sub-view [off, off+length) of the region. Panics on an
// out-of-bounds range since this always indicates a coordinator wiring bug,
// not a runtime condition a worker should recover from.
func (r *Region) Slice(off, length int) []byte {
	if off < 0 || length < 0 || off+length > len(r.data) {
		panic(fmt.Sprintf("shm: region %q: slice [%d:%d) out of bounds (len=%d)", r.name, off, off+length, len(r.data)))
	}
	return r.data[off : off+length]
}

// Close unmaps the region. Safe to call once; the coordinator owns the call,
// workers only hold references and must never close a region themselves.
func (r *Region) Close() error {
	if r.data == nil {
		return nil
	}
	err := unix.Munmap(r.data)
	r.data = nil
	return err
}
