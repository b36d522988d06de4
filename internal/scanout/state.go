package scanout

import (
	"github.com/wilsonzlin/aero-sub000/internal/protocol"
	"github.com/wilsonzlin/aero-sub000/internal/shm"
)

// ScanoutFields is the decoded, typed view of a ScanoutState snapshot.
type ScanoutFields struct {
	Source     protocol.ScanoutSource
	BasePaddr  uint64
	Width      uint32
	Height     uint32
	PitchBytes uint32
	Format     Format
	Generation uint32
}

// ScanoutState wraps the seqlock-protected descriptor described in spec
// §3/§4.4.2/§6.
type ScanoutState struct {
	seq *shm.Seqlock
}

// NewScanoutState formats a fresh ScanoutState over data.
func NewScanoutState(data []byte) (*ScanoutState, error) {
	seq, err := shm.NewSeqlock(data, protocol.ScanoutNumFields)
	if err != nil {
		return nil, err
	}
	return &ScanoutState{seq: seq}, nil
}

// ScanoutStateSize is the byte size of one ScanoutState region.
const ScanoutStateSize = (protocol.ScanoutNumFields + 1) * 4

// Publish writes a new scanout descriptor, visible to readers only after the
// generation bump (spec §4.2).
func (s *ScanoutState) Publish(f ScanoutFields) {
	fields := make([]uint32, protocol.ScanoutNumFields)
	fields[protocol.ScanoutSourceWord-1] = uint32(f.Source)
	fields[protocol.ScanoutBasePaddrLo-1] = uint32(f.BasePaddr)
	fields[protocol.ScanoutBasePaddrHi-1] = uint32(f.BasePaddr >> 32)
	fields[protocol.ScanoutWidth-1] = f.Width
	fields[protocol.ScanoutHeight-1] = f.Height
	fields[protocol.ScanoutPitchBytes-1] = f.PitchBytes
	fields[protocol.ScanoutFormat-1] = uint32(f.Format)
	s.seq.Publish(fields)
}

// stubScanout is the deterministic 1×1 black framebuffer substituted when the
// seqlock retry bound is exceeded (spec §7 Writer-stuck policy).
var stubScanout = ScanoutFields{Source: protocol.SourceLegacyVbeLfb, Width: 1, Height: 1, PitchBytes: 4, Format: FormatR8G8B8A8}

// Snapshot returns the current descriptor, or the deterministic stub if the
// writer appears stuck. Callers that must distinguish a genuine stub
// descriptor from a WriterStuck condition (the GPU readback path, which
// special-cases base_paddr==0 as "use the shared framebuffer directly")
// should use TrySnapshot instead.
func (s *ScanoutState) Snapshot() ScanoutFields {
	fields, ok := s.TrySnapshot()
	if !ok {
		return stubScanout
	}
	return fields
}

// TrySnapshot returns the current descriptor and true, or (zero value,
// false) if the seqlock retry bound was exceeded (writer stuck).
func (s *ScanoutState) TrySnapshot() (ScanoutFields, bool) {
	fields, ok := s.seq.Snapshot()
	if !ok {
		return ScanoutFields{}, false
	}
	return ScanoutFields{
		Source:     protocol.ScanoutSource(fields[protocol.ScanoutSourceWord-1]),
		BasePaddr:  uint64(fields[protocol.ScanoutBasePaddrLo-1]) | uint64(fields[protocol.ScanoutBasePaddrHi-1])<<32,
		Width:      fields[protocol.ScanoutWidth-1],
		Height:     fields[protocol.ScanoutHeight-1],
		PitchBytes: fields[protocol.ScanoutPitchBytes-1],
		Format:     Format(fields[protocol.ScanoutFormat-1]),
		Generation: s.seq.Generation(),
	}, true
}

// ForceStuck simulates a crashed writer (test/scenario helper, spec §8 scenario 5).
func (s *ScanoutState) ForceStuck() { s.seq.ForceStuck() }

// CursorFields is the decoded, typed view of a CursorState snapshot.
type CursorFields struct {
	Enable     bool
	X, Y       int32
	HotX, HotY int32
	Width      uint32
	Height     uint32
	PitchBytes uint32
	Format     Format
	BasePaddr  uint64
}

// CursorState wraps the seqlock-protected cursor descriptor (spec §3/§4.4.3/§6).
type CursorState struct {
	seq *shm.Seqlock
}

// CursorStateSize is the byte size of one CursorState region.
const CursorStateSize = (protocol.CursorNumFields + 1) * 4

// NewCursorState formats a fresh CursorState over data.
func NewCursorState(data []byte) (*CursorState, error) {
	seq, err := shm.NewSeqlock(data, protocol.CursorNumFields)
	if err != nil {
		return nil, err
	}
	return &CursorState{seq: seq}, nil
}

func (c *CursorState) Publish(f CursorFields) {
	fields := make([]uint32, protocol.CursorNumFields)
	enable := uint32(0)
	if f.Enable {
		enable = 1
	}
	fields[protocol.CursorEnable-1] = enable
	fields[protocol.CursorX-1] = uint32(f.X)
	fields[protocol.CursorY-1] = uint32(f.Y)
	fields[protocol.CursorHotX-1] = uint32(f.HotX)
	fields[protocol.CursorHotY-1] = uint32(f.HotY)
	fields[protocol.CursorWidth-1] = f.Width
	fields[protocol.CursorHeight-1] = f.Height
	fields[protocol.CursorPitchBytes-1] = f.PitchBytes
	fields[protocol.CursorFormat-1] = uint32(f.Format)
	fields[protocol.CursorBasePaddrLo-1] = uint32(f.BasePaddr)
	fields[protocol.CursorBasePaddrHi-1] = uint32(f.BasePaddr >> 32)
	c.seq.Publish(fields)
}

// disabledCursor is the deterministic stub substituted when the cursor
// writer appears stuck (spec §7: "cursor → disabled").
var disabledCursor = CursorFields{Enable: false}

func (c *CursorState) Snapshot() CursorFields {
	fields, ok := c.seq.Snapshot()
	if !ok {
		return disabledCursor
	}
	return CursorFields{
		Enable:     fields[protocol.CursorEnable-1] != 0,
		X:          int32(fields[protocol.CursorX-1]),
		Y:          int32(fields[protocol.CursorY-1]),
		HotX:       int32(fields[protocol.CursorHotX-1]),
		HotY:       int32(fields[protocol.CursorHotY-1]),
		Width:      fields[protocol.CursorWidth-1],
		Height:     fields[protocol.CursorHeight-1],
		PitchBytes: fields[protocol.CursorPitchBytes-1],
		Format:     Format(fields[protocol.CursorFormat-1]),
		BasePaddr:  uint64(fields[protocol.CursorBasePaddrLo-1]) | uint64(fields[protocol.CursorBasePaddrHi-1])<<32,
	}
}

func (c *CursorState) ForceStuck() { c.seq.ForceStuck() }
