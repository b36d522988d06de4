package fb

import (
	"sync/atomic"
	"unsafe"

	"github.com/wilsonzlin/aero-sub000/internal/protocol"
)

func (f *Framebuffer) dirtyWord(slot, wordIdx int) *atomic.Uint32 {
	off := f.dirtyOf[slot] + wordIdx*4
	return (*atomic.Uint32)(unsafe.Pointer(&f.data[off]))
}

func (f *Framebuffer) tileIndex(x, y int) int {
	tx := x / TileSize
	ty := y / TileSize
	return ty*f.tilesX + tx
}

// MarkDirty flags every tile overlapping the pixel rectangle
// [x, x+w) x [y, y+h) as dirty in the given buffer slot. Coordinates outside
// the framebuffer are clipped. Grounded on the teacher's markRegionDirty
// (video_chip.go), generalized from an in-process map to an atomic bitmap.
func (f *Framebuffer) MarkDirty(slot, x, y, w, h int) {
	if x < 0 {
		w += x
		x = 0
	}
	if y < 0 {
		h += y
		y = 0
	}
	if x+w > f.width {
		w = f.width - x
	}
	if y+h > f.height {
		h = f.height - y
	}
	if w <= 0 || h <= 0 {
		return
	}
	x0, y0 := x/TileSize, y/TileSize
	x1, y1 := (x+w-1)/TileSize, (y+h-1)/TileSize
	for ty := y0; ty <= y1; ty++ {
		for tx := x0; tx <= x1; tx++ {
			idx := ty*f.tilesX + tx
			f.setTileBit(slot, idx)
		}
	}
	f.word(protocol.FBFrameDirty).Store(1)
}

func (f *Framebuffer) setTileBit(slot, idx int) {
	wordIdx := idx / 32
	bit := uint32(1) << uint(idx%32)
	w := f.dirtyWord(slot, wordIdx)
	for {
		old := w.Load()
		if old&bit != 0 {
			return
		}
		if w.CompareAndSwap(old, old|bit) {
			return
		}
	}
}

// TileDirty reports whether the given tile index is marked dirty in slot.
func (f *Framebuffer) TileDirty(slot, tileIdx int) bool {
	wordIdx := tileIdx / 32
	bit := uint32(1) << uint(tileIdx%32)
	return f.dirtyWord(slot, wordIdx).Load()&bit != 0
}

// TilesX and TilesY report the dirty-tile grid dimensions.
func (f *Framebuffer) TilesX() int { return f.tilesX }
func (f *Framebuffer) TilesY() int { return f.tilesY }

func (f *Framebuffer) clearDirty(slot int) {
	for i := 0; i < f.dirtyWords; i++ {
		f.dirtyWord(slot, i).Store(0)
	}
}
