package protocol

import "encoding/binary"

// GPU MMIO register offsets from BAR0 base (spec §6). All registers are 32-bit.
const (
	GPURegMagic          = 0x00
	GPURegVersion         = 0x04
	GPURegScanoutFBLo     = 0x08
	GPURegScanoutFBHi     = 0x0C
	GPURegScanoutPitch    = 0x10
	GPURegScanoutWidth    = 0x14
	GPURegScanoutHeight   = 0x18
	GPURegScanoutFormat   = 0x1C
	GPURegScanoutEnable   = 0x20
	GPURegRingBaseLo      = 0x24
	GPURegRingBaseHi      = 0x28
	GPURegRingEntryCount  = 0x2C
	GPURegRingHead        = 0x30
	GPURegRingTail        = 0x34
	GPURegRingDoorbell    = 0x38
	GPURegIntStatus       = 0x3C
	GPURegIntAck          = 0x40
	GPURegFenceCompleted  = 0x44
)

// GPUMagicValue and GPUVersionValue are the values read from GPURegMagic /
// GPURegVersion on a correctly-wired device.
const (
	GPUMagicValue   uint32 = 0x41455247 // "AERG"
	GPUVersionValue uint32 = 1
)

// Interrupt bits (spec §6).
const (
	IntFence         uint32 = 1 << 0
	IntScanoutVblank uint32 = 1 << 1
	IntError         uint32 = 1 << 31
)

// SubmissionEntryType discriminates GPU ring entries.
type SubmissionEntryType uint32

const (
	SubmitEntry SubmissionEntryType = iota
)

// RingEntry is the fixed-size GPU submission ring entry (spec §4.4.1/§3).
type RingEntry struct {
	Type    SubmissionEntryType
	Flags   uint32
	Fence   uint32
	DescGPA uint64
	DescSize uint32
}

// RingEntrySize is the packed, little-endian wire size of one RingEntry.
const RingEntrySize = 4 + 4 + 4 + 8 + 4

// Encode writes the ring entry in packed little-endian form.
func (e RingEntry) Encode() []byte {
	buf := make([]byte, RingEntrySize)
	binary.LittleEndian.PutUint32(buf[0:], uint32(e.Type))
	binary.LittleEndian.PutUint32(buf[4:], e.Flags)
	binary.LittleEndian.PutUint32(buf[8:], e.Fence)
	binary.LittleEndian.PutUint64(buf[12:], e.DescGPA)
	binary.LittleEndian.PutUint32(buf[20:], e.DescSize)
	return buf
}

// DecodeRingEntry parses a packed little-endian ring entry.
func DecodeRingEntry(buf []byte) (RingEntry, bool) {
	if len(buf) < RingEntrySize {
		return RingEntry{}, false
	}
	return RingEntry{
		Type:     SubmissionEntryType(binary.LittleEndian.Uint32(buf[0:])),
		Flags:    binary.LittleEndian.Uint32(buf[4:]),
		Fence:    binary.LittleEndian.Uint32(buf[8:]),
		DescGPA:  binary.LittleEndian.Uint64(buf[12:]),
		DescSize: binary.LittleEndian.Uint32(buf[20:]),
	}, true
}

// SubmissionAllocation is one entry of a submission descriptor's
// variable-length allocation table (spec §6).
type SubmissionAllocation struct {
	Handle uint64
	GPA    uint64
	Size   uint32
}

const submissionAllocationSize = 8 + 8 + 4 + 4 // + reserved

// SubmissionDescriptor is the guest/VRAM-resident structure a driver writes
// before pushing a RingEntry (spec §4.4.1/§6).
type SubmissionDescriptor struct {
	Version         uint32
	Type            uint32
	Fence           uint32
	DMABufferGPA    uint64
	DMABufferSize   uint32
	AllocationCount uint32
	Allocations     []SubmissionAllocation
}

// submissionHeaderSize is {version,type,fence,reserved0,dma_gpa,dma_size,alloc_count}.
const submissionHeaderSize = 4 + 4 + 4 + 4 + 8 + 4 + 4

// MaxAllocationsPerSubmission bounds worst-case pending-submission bookkeeping
// memory (SPEC_FULL addition resolving the unparameterized resource-exhaustion
// guard named in spec.md §7).
const MaxAllocationsPerSubmission = 4096

// DecodeSubmissionDescriptor parses a packed little-endian submission
// descriptor and its allocation table.
func DecodeSubmissionDescriptor(buf []byte) (SubmissionDescriptor, error) {
	if len(buf) < submissionHeaderSize {
		return SubmissionDescriptor{}, ErrShortSubmission
	}
	d := SubmissionDescriptor{
		Version:       binary.LittleEndian.Uint32(buf[0:]),
		Type:          binary.LittleEndian.Uint32(buf[4:]),
		Fence:         binary.LittleEndian.Uint32(buf[8:]),
		DMABufferGPA:  binary.LittleEndian.Uint64(buf[16:]),
		DMABufferSize: binary.LittleEndian.Uint32(buf[24:]),
	}
	d.AllocationCount = binary.LittleEndian.Uint32(buf[28:])
	if d.AllocationCount > MaxAllocationsPerSubmission {
		return SubmissionDescriptor{}, ErrTooManyAllocations
	}
	need := submissionHeaderSize + int(d.AllocationCount)*submissionAllocationSize
	if len(buf) < need {
		return SubmissionDescriptor{}, ErrShortSubmission
	}
	d.Allocations = make([]SubmissionAllocation, d.AllocationCount)
	off := submissionHeaderSize
	for i := range d.Allocations {
		d.Allocations[i] = SubmissionAllocation{
			Handle: binary.LittleEndian.Uint64(buf[off:]),
			GPA:    binary.LittleEndian.Uint64(buf[off+8:]),
			Size:   binary.LittleEndian.Uint32(buf[off+16:]),
		}
		off += submissionAllocationSize
	}
	return d, nil
}
