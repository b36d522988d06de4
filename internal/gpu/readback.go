package gpu

import (
	"errors"
	"runtime"
	"sync"

	"github.com/wilsonzlin/aero-sub000/internal/fb"
	"github.com/wilsonzlin/aero-sub000/internal/protocol"
	"github.com/wilsonzlin/aero-sub000/internal/scanout"
	"github.com/wilsonzlin/aero-sub000/internal/shm"
)

// ErrWriterStuck is returned by Frame when the scanout seqlock snapshot
// exceeded its retry bound (spec §7/§4.4.4): callers such as Screenshot
// substitute the deterministic 1x1 black stub in response.
var ErrWriterStuck = errors.New("gpu: scanout writer stuck")

// Readback resolves the current scanout (and, if enabled, cursor)
// descriptors into a canonical R8G8B8A8 frame, per spec §4.4.2/§4.4.3.
type Readback struct {
	scanoutState *scanout.ScanoutState
	cursorState  *scanout.CursorState
	ram          *shm.Region
	vram         *shm.Region
	vramLen      uint64
	sharedFB     *fb.Framebuffer // legacy path: LegacyVbeLfb with base_paddr==0

	lastGoodMu sync.Mutex
	lastGood   []byte // last Presented legacy frame, for the Presenting fallback below
	lastGoodW  int
	lastGoodH  int
}

// NewReadback wires a Readback to the shared descriptors and address spaces
// it samples each frame.
func NewReadback(scanoutState *scanout.ScanoutState, cursorState *scanout.CursorState, ram, vram *shm.Region, vramLen uint64, sharedFB *fb.Framebuffer) *Readback {
	return &Readback{
		scanoutState: scanoutState,
		cursorState:  cursorState,
		ram:          ram,
		vram:         vram,
		vramLen:      vramLen,
		sharedFB:     sharedFB,
	}
}

// Frame decodes the current scanout (and composites the cursor, if
// includeCursor and the cursor is enabled) into dst, a width*height*4
// canonical R8G8B8A8 buffer the caller owns. Returns the resolved
// width/height (which may differ from len(dst)/4 if the caller passed an
// oversized buffer).
func (rb *Readback) Frame(dst []byte, includeCursor bool) (width, height int, err error) {
	sc, ok := rb.scanoutState.TrySnapshot()
	if !ok {
		return 0, 0, ErrWriterStuck
	}

	if sc.Source == protocol.SourceLegacyVbeLfb && sc.BasePaddr == 0 {
		width, height = rb.sharedFB.Width(), rb.sharedFB.Height()
		if slot, ok := rb.awaitPresentedSlot(); ok {
			// The shared framebuffer already stores canonical RGBA8; no decode needed.
			src := rb.sharedFB.SlotPixels(slot)
			copy(dst[:width*height*4], src)
			rb.cacheGood(dst[:width*height*4], width, height)
		} else if cached, cw, ch, ok := rb.cachedGood(); ok {
			// spec §4.4.4: a screenshot concurrent with a render must never
			// observe a torn slot; fall back to the last Presented frame.
			copy(dst[:cw*ch*4], cached)
			width, height = cw, ch
		} else {
			return 0, 0, ErrWriterStuck
		}
	} else {
		width, height = int(sc.Width), int(sc.Height)
		span := scanout.RequiredSpanLength(width, height, sc.PitchBytes, sc.Format)
		var src []byte
		src, err = scanout.Resolve(sc.BasePaddr, span, rb.ram, rb.vram, rb.vramLen)
		if err != nil {
			return 0, 0, err
		}
		bpp := sc.Format.BytesPerPixel()
		for y := 0; y < height; y++ {
			rowOff := int(sc.PitchBytes) * y
			srcRow := src[rowOff : rowOff+width*bpp]
			dstRow := dst[y*width*4 : y*width*4+width*4]
			scanout.DecodeRow(dstRow, srcRow, width, sc.Format)
		}
	}

	if includeCursor {
		cur := rb.cursorState.Snapshot()
		if cur.Enable {
			if err := rb.compositeCursor(dst, width, height, cur); err != nil {
				return 0, 0, err
			}
		}
	}
	return width, height, nil
}

// awaitPresentedSlot returns the shared framebuffer's current active slot
// once its FrameState.status is not Presenting, retrying up to
// shm.DefaultRetryBound times (the same bound the seqlock snapshot retry
// uses) with a scheduler yield between attempts. This is the legacy path's
// guard against the boundary case in spec §4.4.4: a screenshot concurrent
// with a render must never observe a torn slot.
func (rb *Readback) awaitPresentedSlot() (slot int, ok bool) {
	for i := 0; i < shm.DefaultRetryBound; i++ {
		slot = rb.sharedFB.ActiveIndex()
		if rb.sharedFB.FrameStatus(slot) != protocol.FramePresenting {
			return slot, true
		}
		runtime.Gosched()
	}
	return 0, false
}

// cacheGood remembers the last successfully read legacy frame so
// awaitPresentedSlot's failure path can substitute "the last Presented
// frame" per spec §4.4.4 instead of falling straight to ErrWriterStuck.
func (rb *Readback) cacheGood(frame []byte, width, height int) {
	rb.lastGoodMu.Lock()
	defer rb.lastGoodMu.Unlock()
	need := width * height * 4
	if cap(rb.lastGood) < need {
		rb.lastGood = make([]byte, need)
	}
	rb.lastGood = rb.lastGood[:need]
	copy(rb.lastGood, frame)
	rb.lastGoodW, rb.lastGoodH = width, height
}

func (rb *Readback) cachedGood() (frame []byte, width, height int, ok bool) {
	rb.lastGoodMu.Lock()
	defer rb.lastGoodMu.Unlock()
	if rb.lastGood == nil {
		return nil, 0, 0, false
	}
	return rb.lastGood, rb.lastGoodW, rb.lastGoodH, true
}

// Dimensions reports the width/height the next Frame call would resolve to,
// without performing the decode, so callers can size a destination buffer.
func (rb *Readback) Dimensions() (width, height int) {
	sc, ok := rb.scanoutState.TrySnapshot()
	if !ok {
		return 0, 0
	}
	if sc.Source == protocol.SourceLegacyVbeLfb && sc.BasePaddr == 0 {
		return rb.sharedFB.Width(), rb.sharedFB.Height()
	}
	return int(sc.Width), int(sc.Height)
}

func (rb *Readback) compositeCursor(dst []byte, width, height int, cur scanout.CursorFields) error {
	cw, ch := int(cur.Width), int(cur.Height)
	span := scanout.RequiredSpanLength(cw, ch, cur.PitchBytes, cur.Format)
	src, err := scanout.Resolve(cur.BasePaddr, span, rb.ram, rb.vram, rb.vramLen)
	if err != nil {
		return err
	}
	bpp := cur.Format.BytesPerPixel()
	decoded := make([]byte, cw*ch*4)
	for y := 0; y < ch; y++ {
		rowOff := int(cur.PitchBytes) * y
		srcRow := src[rowOff : rowOff+cw*bpp]
		dstRow := decoded[y*cw*4 : y*cw*4+cw*4]
		scanout.DecodeRow(dstRow, srcRow, cw, cur.Format)
	}
	originX := int(cur.X) - int(cur.HotX)
	originY := int(cur.Y) - int(cur.HotY)
	scanout.CompositeCursor(dst[:width*height*4], width, height, decoded, cw, ch, originX, originY, cur.Format.HasAlpha())
	return nil
}
