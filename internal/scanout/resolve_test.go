package scanout

import (
	"testing"

	"github.com/wilsonzlin/aero-sub000/internal/protocol"
	"github.com/wilsonzlin/aero-sub000/internal/shm"
)

func mustRegion(t *testing.T, size int) *shm.Region {
	t.Helper()
	r, err := shm.NewRegion("test", size)
	if err != nil {
		t.Fatalf("NewRegion: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func TestResolvePrefersVRAMApertureOverRAM(t *testing.T) {
	ram := mustRegion(t, 1<<20)
	vram := mustRegion(t, 1<<20)
	copy(vram.Bytes()[0x100:], []byte{0xAA, 0xBB, 0xCC, 0xDD})

	span, err := Resolve(protocol.VRAMBase+0x100, 4, ram, vram, uint64(vram.Len()))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	want := []byte{0xAA, 0xBB, 0xCC, 0xDD}
	for i := range want {
		if span[i] != want[i] {
			t.Fatalf("span = %v want %v", span, want)
		}
	}
}

func TestResolveFallsBackToRAMOutsideAperture(t *testing.T) {
	ram := mustRegion(t, 1<<20)
	vram := mustRegion(t, 1<<20)
	copy(ram.Bytes()[0x200:], []byte{0x11, 0x22, 0x33, 0x44})

	span, err := Resolve(0x200, 4, ram, vram, uint64(vram.Len()))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	want := []byte{0x11, 0x22, 0x33, 0x44}
	for i := range want {
		if span[i] != want[i] {
			t.Fatalf("span = %v want %v", span, want)
		}
	}
}

func TestResolveGuestRAMUpperBoundary(t *testing.T) {
	// spec §8 boundary case: a scanout at the extreme upper end of guest RAM
	// must succeed exactly at the boundary and fail by +1 byte with a
	// protocol-violation error, not a crash.
	ram := mustRegion(t, protocol.GuestRAMSize)
	vram := mustRegion(t, 1<<20)

	okAddr := uint64(protocol.GuestRAMSize - 4)
	if _, err := Resolve(okAddr, 4, ram, vram, uint64(vram.Len())); err != nil {
		t.Fatalf("Resolve at exact boundary should succeed: %v", err)
	}

	badAddr := uint64(protocol.GuestRAMSize - 3)
	if _, err := Resolve(badAddr, 4, ram, vram, uint64(vram.Len())); err == nil {
		t.Fatal("Resolve one byte past guest RAM should fail with a protocol violation, not succeed")
	}
}

func TestRequiredSpanLengthZeroHeight(t *testing.T) {
	if got := RequiredSpanLength(4, 0, 16, FormatR8G8B8A8); got != 0 {
		t.Fatalf("RequiredSpanLength with height 0 = %d, want 0", got)
	}
}
