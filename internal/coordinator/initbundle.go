package coordinator

import (
	"sync/atomic"
	"time"

	"github.com/wilsonzlin/aero-sub000/internal/shm"
)

// Role tags a worker within the init bundle, mirroring the teacher's
// cpuType discriminator in coprocessor_manager.go (one tag per kind of
// worker instead of one tag per kind of coprocessor CPU).
type Role int

const (
	RoleCPU Role = iota
	RoleIO
	RoleGPU
	RoleHID
)

func (r Role) String() string {
	switch r {
	case RoleCPU:
		return "cpu"
	case RoleIO:
		return "io"
	case RoleGPU:
		return "gpu"
	case RoleHID:
		return "hid"
	default:
		return "unknown"
	}
}

// Bundle is the set of region handles and rings one worker needs at init.
// Every field a given role doesn't use is left nil/zero; workers only read
// the fields relevant to their Role.
type Bundle struct {
	Role Role

	GuestRAM *shm.Region
	VRAM     *shm.Region

	IORequestRing  *shm.Ring
	IOResponseRing *shm.Ring

	GPUSubmissionRing *shm.Ring

	HIDInputRing  *shm.Ring
	HIDOutputRing *shm.Ring

	ScanoutState *shm.Region
	CursorState  *shm.Region

	SharedFramebuffer *shm.Region
}

// readyWord is a per-worker atomic flag the coordinator polls; each worker
// flips its word to 1 once it has finished consuming its Bundle and is
// ready to run (spec §2: "wait for each worker's status word to flip to
// ready").
type readyWord struct {
	flag atomic.Bool
}

// MarkReady flips the word. Safe to call once per worker; idempotent.
func (w *readyWord) MarkReady() { w.flag.Store(true) }

func (w *readyWord) isReady() bool { return w.flag.Load() }

// InitBundles holds one Bundle and readiness word per worker role, built
// from a set of allocated Regions and their formatted rings.
type InitBundles struct {
	bundles map[Role]*Bundle
	ready   map[Role]*readyWord
}

// BuildInitBundles formats every ring region (shm.NewRing) and assembles one
// Bundle per role. Regions not relevant to a role are simply omitted from
// its Bundle.
func BuildInitBundles(regions *Regions, ringCapacity uint32) (*InitBundles, error) {
	ioReqRing, err := shm.NewRing(regions.IORequestRing.Bytes(), ringCapacity)
	if err != nil {
		return nil, err
	}
	ioRespRing, err := shm.NewRing(regions.IOResponseRing.Bytes(), ringCapacity)
	if err != nil {
		return nil, err
	}
	gpuSubRing, err := shm.NewRing(regions.GPUSubmissionRing.Bytes(), ringCapacity)
	if err != nil {
		return nil, err
	}
	hidInRing, err := shm.NewRing(regions.HIDInputRing.Bytes(), ringCapacity)
	if err != nil {
		return nil, err
	}
	hidOutRing, err := shm.NewRing(regions.HIDOutputRing.Bytes(), ringCapacity)
	if err != nil {
		return nil, err
	}

	ib := &InitBundles{
		bundles: make(map[Role]*Bundle, 4),
		ready:   make(map[Role]*readyWord, 4),
	}

	ib.bundles[RoleCPU] = &Bundle{
		Role:           RoleCPU,
		GuestRAM:       regions.GuestRAM,
		IORequestRing:  ioReqRing,
		IOResponseRing: ioRespRing,
	}
	ib.bundles[RoleIO] = &Bundle{
		Role:           RoleIO,
		GuestRAM:       regions.GuestRAM,
		IORequestRing:  ioReqRing,
		IOResponseRing: ioRespRing,
		HIDInputRing:   hidInRing,
		HIDOutputRing:  hidOutRing,
	}
	ib.bundles[RoleGPU] = &Bundle{
		Role:              RoleGPU,
		GuestRAM:          regions.GuestRAM,
		VRAM:              regions.VRAM,
		GPUSubmissionRing: gpuSubRing,
		ScanoutState:      regions.ScanoutState,
		CursorState:       regions.CursorState,
		SharedFramebuffer: regions.SharedFramebuffer,
	}
	ib.bundles[RoleHID] = &Bundle{
		Role:          RoleHID,
		HIDInputRing:  hidInRing,
		HIDOutputRing: hidOutRing,
	}

	for role := range ib.bundles {
		ib.ready[role] = &readyWord{}
	}
	return ib, nil
}

// For returns the Bundle published to role.
func (ib *InitBundles) For(role Role) *Bundle { return ib.bundles[role] }

// MarkReady flips role's readiness word.
func (ib *InitBundles) MarkReady(role Role) { ib.ready[role].MarkReady() }

// WaitAllReady blocks until every worker's readiness word is set, or
// returns false if timeout elapses first.
func (ib *InitBundles) WaitAllReady(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		allReady := true
		for _, w := range ib.ready {
			if !w.isReady() {
				allReady = false
				break
			}
		}
		if allReady {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(time.Millisecond)
	}
}
