// Package fb implements the shared double-buffered framebuffer described in
// spec §3/§6: a header, two pixel slots, per-slot frame sequence counters,
// and a dirty-tile bitmap per slot. Readers and writers never touch the same
// slot concurrently; active_index is the only word both sides inspect, and
// it is updated with release semantics only after the back buffer is
// complete, generalizing the teacher's in-process dirty-region grid
// (video_chip.go initialiseDirtyGrid/markRegionDirty) to a tile bitmap two
// workers touch across shared memory.
package fb

import (
	"fmt"
	"sync/atomic"
	"unsafe"

	"github.com/wilsonzlin/aero-sub000/internal/protocol"
	"github.com/wilsonzlin/aero-sub000/internal/scanout"
)

// TileSize is the edge length, in pixels, of one dirty-tracking tile.
// Grounded on the teacher's DIRTY_REGION_SIZE (32x32 pixel regions).
const TileSize = 32

// Framebuffer wraps a shared-memory region formatted per spec §6: header,
// two FrameState blocks, two dirty bitmaps, then two pixel slots.
type Framebuffer struct {
	data       []byte
	width      int
	height     int
	strideByte int
	format     scanout.Format
	tilesX     int
	tilesY     int
	dirtyWords int
	slotSize   int

	headerOff    int
	frameStateOf [2]int
	dirtyOf      [2]int
	pixelsOf     [2]int
}

func ceilDiv(a, b int) int { return (a + b - 1) / b }

// layout computes the section offsets for a framebuffer of the given
// dimensions, shared by New and Attach.
func layout(width, height int, format scanout.Format) (fb *Framebuffer) {
	bpp := format.BytesPerPixel()
	stride := width * bpp
	tilesX := ceilDiv(width, TileSize)
	tilesY := ceilDiv(height, TileSize)
	dirtyWords := ceilDiv(tilesX*tilesY, 32)
	slotSize := stride * height

	fb = &Framebuffer{
		width: width, height: height, strideByte: stride, format: format,
		tilesX: tilesX, tilesY: tilesY, dirtyWords: dirtyWords, slotSize: slotSize,
	}
	off := protocol.FBHeaderSize
	fb.headerOff = 0
	fb.frameStateOf[0] = off
	off += protocol.FrameStateWords * 4
	fb.frameStateOf[1] = off
	off += protocol.FrameStateWords * 4
	fb.dirtyOf[0] = off
	off += dirtyWords * 4
	fb.dirtyOf[1] = off
	off += dirtyWords * 4
	fb.pixelsOf[0] = off
	off += slotSize
	fb.pixelsOf[1] = off
	off += slotSize
	return fb
}

// Size returns the total byte size a framebuffer of the given dimensions and
// format occupies, the number to pass to shm.Region allocation.
func Size(width, height int, format scanout.Format) int {
	fb := layout(width, height, format)
	return fb.pixelsOf[1] + fb.slotSize
}

// New formats a fresh Framebuffer over data, which must be exactly
// Size(width, height, format) bytes.
func New(data []byte, width, height int, format scanout.Format) (*Framebuffer, error) {
	fb := layout(width, height, format)
	if len(data) != fb.pixelsOf[1]+fb.slotSize {
		return nil, fmt.Errorf("fb: region wrong size: want %d got %d", fb.pixelsOf[1]+fb.slotSize, len(data))
	}
	fb.data = data

	fb.word(protocol.FBMagic).Store(protocol.FBMagicValue)
	fb.word(protocol.FBVersion).Store(protocol.FBVersionValue)
	fb.word(protocol.FBWidth).Store(uint32(width))
	fb.word(protocol.FBHeight).Store(uint32(height))
	fb.word(protocol.FBStrideBytes).Store(uint32(fb.strideByte))
	fb.word(protocol.FBFormat).Store(uint32(format))
	fb.word(protocol.FBTileSize).Store(TileSize)
	fb.word(protocol.FBTilesX).Store(uint32(fb.tilesX))
	fb.word(protocol.FBTilesY).Store(uint32(fb.tilesY))
	fb.word(protocol.FBDirtyWordsPerBuffer).Store(uint32(fb.dirtyWords))
	fb.word(protocol.FBActiveIndex).Store(0)
	fb.word(protocol.FBFrameSeq).Store(0)
	fb.word(protocol.FBFrameDirty).Store(0)
	fb.word(protocol.FBBuf0FrameSeq).Store(0)
	fb.word(protocol.FBBuf1FrameSeq).Store(0)
	fb.word(protocol.FBFlags).Store(0)
	fb.SetFrameStatus(0, protocol.FrameDirty)
	fb.SetFrameStatus(1, protocol.FrameDirty)
	return fb, nil
}

// Attach opens a framebuffer previously formatted by New, validating the
// MAGIC/VERSION header per spec §7 ("magic/version mismatch on attach" is
// fatal).
func Attach(data []byte) (*Framebuffer, error) {
	if len(data) < protocol.FBHeaderSize {
		return nil, fmt.Errorf("fb: region too small to hold a header: %d bytes", len(data))
	}
	probe := &Framebuffer{data: data}
	magic := probe.word(protocol.FBMagic).Load()
	version := probe.word(protocol.FBVersion).Load()
	if magic != protocol.FBMagicValue {
		return nil, fmt.Errorf("fb: bad magic 0x%08X, want 0x%08X", magic, protocol.FBMagicValue)
	}
	if version != protocol.FBVersionValue {
		return nil, fmt.Errorf("fb: unsupported version %d, want %d", version, protocol.FBVersionValue)
	}
	width := int(probe.word(protocol.FBWidth).Load())
	height := int(probe.word(protocol.FBHeight).Load())
	format := scanout.Format(probe.word(protocol.FBFormat).Load())

	fb := layout(width, height, format)
	if len(data) != fb.pixelsOf[1]+fb.slotSize {
		return nil, fmt.Errorf("fb: region size %d does not match header dimensions", len(data))
	}
	fb.data = data
	return fb, nil
}

func (f *Framebuffer) word(idx int) *atomic.Uint32 {
	off := idx * 4
	return (*atomic.Uint32)(unsafe.Pointer(&f.data[off]))
}

// Width, Height, Stride and Format report the fixed-at-init geometry.
func (f *Framebuffer) Width() int            { return f.width }
func (f *Framebuffer) Height() int           { return f.height }
func (f *Framebuffer) Stride() int           { return f.strideByte }
func (f *Framebuffer) Format() scanout.Format { return f.format }

// ActiveIndex returns the slot index (0 or 1) readers should currently
// present, loaded with acquire semantics.
func (f *Framebuffer) ActiveIndex() int {
	return int(f.word(protocol.FBActiveIndex).Load())
}

// FrameSeq returns the monotonic publish counter.
func (f *Framebuffer) FrameSeq() uint64 { return uint64(f.word(protocol.FBFrameSeq).Load()) }

// BackIndex returns the slot index the writer should render into: the slot
// that is not currently active.
func (f *Framebuffer) BackIndex() int { return 1 - f.ActiveIndex() }

// SlotPixels returns the raw pixel bytes for the given slot (0 or 1).
func (f *Framebuffer) SlotPixels(slot int) []byte {
	off := f.pixelsOf[slot]
	return f.data[off : off+f.slotSize]
}

func (f *Framebuffer) frameStateWord(slot, idx int) *atomic.Uint32 {
	off := f.frameStateOf[slot] + idx*4
	return (*atomic.Uint32)(unsafe.Pointer(&f.data[off]))
}

// SetFrameStatus records slot's FrameState.status (spec §3: the GPU worker
// sets Presenting while rendering into slot, then Presented once the slot is
// safe to display or screenshot; drivers may only advance Presented->Dirty).
func (f *Framebuffer) SetFrameStatus(slot int, status protocol.FrameStatus) {
	f.frameStateWord(slot, protocol.FrameStatusWord).Store(uint32(status))
}

// FrameStatus returns slot's FrameState.status, loaded with acquire
// semantics.
func (f *Framebuffer) FrameStatus(slot int) protocol.FrameStatus {
	return protocol.FrameStatus(f.frameStateWord(slot, protocol.FrameStatusWord).Load())
}

// Publish completes a render into the back buffer: it bumps that buffer's
// frame_seq, flips active_index with release semantics so the next reader
// observes a fully-written slot, and clears the dirty bitmap belonging to
// the buffer that just became the new back buffer (spec §3: "the
// framebuffer uses double-buffering so readers and writers never touch the
// same slot; active_index is the only word they both inspect, and it is
// updated with release semantics after the back buffer is complete").
func (f *Framebuffer) Publish() {
	back := f.BackIndex()
	seq := f.word(protocol.FBFrameSeq).Add(1)
	if back == 0 {
		f.word(protocol.FBBuf0FrameSeq).Store(seq)
	} else {
		f.word(protocol.FBBuf1FrameSeq).Store(seq)
	}
	f.word(protocol.FBActiveIndex).Store(uint32(back))
	// The slot that was active until now becomes the next back buffer; clear
	// its dirty bitmap so the coming render pass starts from a clean slate.
	f.clearDirty(1 - back)
}
