// Package coordinator is the control plane that wires the CPU, I/O, GPU,
// and HID-broker workers together at init: it allocates every shared-memory
// region and ring, publishes an init bundle of region handles to each
// worker, and supervises the worker goroutines with an errgroup (spec §2/§5;
// "the control plane that wires workers together at init" from §1's
// IN-SCOPE list).
//
// Grounded on the teacher's main.go-level backend selection (one process
// picks one chip set and wires it together) and runtime_ipc.go's
// single-instance coordination pattern, generalized from "one process, one
// chip set" to "one coordinator, several workers sharing guest memory."
package coordinator

import (
	"fmt"

	"github.com/wilsonzlin/aero-sub000/internal/config"
	"github.com/wilsonzlin/aero-sub000/internal/fb"
	"github.com/wilsonzlin/aero-sub000/internal/protocol"
	"github.com/wilsonzlin/aero-sub000/internal/shm"
)

// ringRegionSize is the total byte size of a ring region (header + payload)
// sized from cfg's ring capacity.
func ringRegionSize(cfg config.Config) int {
	return shm.RingSize(cfg.RingCapacity)
}

// Regions owns every shared-memory allocation the workers alias. The
// coordinator is the sole owner: workers only ever hold references handed
// to them through an InitBundle, never call Close themselves.
type Regions struct {
	GuestRAM *shm.Region
	VRAM     *shm.Region // nil if cfg.VRAMSize == 0

	IORequestRing  *shm.Region
	IOResponseRing *shm.Region

	GPUSubmissionRing *shm.Region

	HIDInputRing  *shm.Region
	HIDOutputRing *shm.Region

	ScanoutState *shm.Region
	CursorState  *shm.Region

	SharedFramebuffer *shm.Region
}

// AllocateRegions mmaps every region a worker topology of cfg needs. On any
// failure, regions already allocated are closed before returning the error
// (spec §7 Resource exhaustion: "do not leak prior allocations").
func AllocateRegions(cfg config.Config) (*Regions, error) {
	r := &Regions{}
	var allocated []*shm.Region

	alloc := func(name string, size int) (*shm.Region, error) {
		reg, err := shm.NewRegion(name, size)
		if err != nil {
			for _, prior := range allocated {
				prior.Close()
			}
			return nil, fmt.Errorf("coordinator: allocate region %q: %w", name, err)
		}
		allocated = append(allocated, reg)
		return reg, nil
	}

	var err error
	if r.GuestRAM, err = alloc("guest-ram", cfg.GuestRAMSize); err != nil {
		return nil, err
	}
	if cfg.VRAMSize > 0 {
		if r.VRAM, err = alloc("vram-aperture", cfg.VRAMSize); err != nil {
			return nil, err
		}
	}

	ringSize := ringRegionSize(cfg)
	if r.IORequestRing, err = alloc("io-request-ring", ringSize); err != nil {
		return nil, err
	}
	if r.IOResponseRing, err = alloc("io-response-ring", ringSize); err != nil {
		return nil, err
	}
	if r.GPUSubmissionRing, err = alloc("gpu-submission-ring", ringSize); err != nil {
		return nil, err
	}
	if r.HIDInputRing, err = alloc("hid-input-ring", ringSize); err != nil {
		return nil, err
	}
	if r.HIDOutputRing, err = alloc("hid-output-ring", ringSize); err != nil {
		return nil, err
	}

	if r.ScanoutState, err = alloc("scanout-state", shm.SeqlockSize(protocol.ScanoutNumFields)); err != nil {
		return nil, err
	}
	if r.CursorState, err = alloc("cursor-state", shm.SeqlockSize(protocol.CursorNumFields)); err != nil {
		return nil, err
	}

	const defaultFBWidth, defaultFBHeight = 1920, 1080
	fbSize := fb.Size(defaultFBWidth, defaultFBHeight, protocol.FormatR8G8B8A8)
	if r.SharedFramebuffer, err = alloc("shared-framebuffer", fbSize); err != nil {
		return nil, err
	}

	return r, nil
}

// Close unmaps every allocated region. Safe to call once.
func (r *Regions) Close() {
	for _, reg := range []*shm.Region{
		r.GuestRAM, r.VRAM,
		r.IORequestRing, r.IOResponseRing,
		r.GPUSubmissionRing,
		r.HIDInputRing, r.HIDOutputRing,
		r.ScanoutState, r.CursorState,
		r.SharedFramebuffer,
	} {
		if reg != nil {
			reg.Close()
		}
	}
}

// VRAMLen returns the VRAM aperture's configured length, or 0 if none was
// allocated.
func (r *Regions) VRAMLen() uint64 {
	if r.VRAM == nil {
		return 0
	}
	return uint64(r.VRAM.Len())
}
