package scanout

import (
	"fmt"

	"github.com/wilsonzlin/aero-sub000/internal/protocol"
	"github.com/wilsonzlin/aero-sub000/internal/shm"
)

// Resolve maps a guest physical address range to a backing shared-memory
// span: addresses inside [VRAMBase, VRAMBase+vramSize) index the VRAM
// aperture; everything else indexes guest RAM (spec §3/§6). It is a
// protocol violation for the requested span to cross out of either region.
func Resolve(paddr uint64, length int, ram, vram *shm.Region, vramSize uint64) ([]byte, error) {
	if vram != nil && protocol.InVRAMAperture(paddr, vramSize) {
		off := paddr - protocol.VRAMBase
		if off+uint64(length) > uint64(vram.Len()) {
			return nil, fmt.Errorf("scanout: span [0x%X,+%d) exceeds VRAM aperture (size %d)", paddr, length, vram.Len())
		}
		return vram.Slice(int(off), length), nil
	}
	if paddr+uint64(length) > uint64(ram.Len()) {
		return nil, fmt.Errorf("scanout: span [0x%X,+%d) exceeds guest RAM (size %d)", paddr, length, ram.Len())
	}
	return ram.Slice(int(paddr), length), nil
}

// RequiredSpanLength returns the number of bytes a pitch·height surface
// actually needs: trailing pitch padding of the last row must NOT be
// required, since the driver only guarantees pixels, not padding (spec
// §4.4.2).
func RequiredSpanLength(width, height int, pitchBytes uint32, format Format) int {
	rowBytes := width * format.BytesPerPixel()
	if height == 0 {
		return 0
	}
	return int(pitchBytes)*(height-1) + rowBytes
}
