package coordinator

import (
	"testing"

	"github.com/wilsonzlin/aero-sub000/internal/config"
)

func testConfig() config.Config {
	return config.Config{
		GuestRAMSize:     1 << 20,
		VRAMBase:         0xE000_0000,
		VRAMSize:         1 << 16,
		RingCapacity:     1 << 10,
		TraceSampleRate:  1,
		PresenterBackend: "ebiten",
	}
}

func TestAllocateRegionsSizesMatchConfig(t *testing.T) {
	cfg := testConfig()
	regions, err := AllocateRegions(cfg)
	if err != nil {
		t.Fatalf("AllocateRegions: %v", err)
	}
	defer regions.Close()

	if regions.GuestRAM.Len() != cfg.GuestRAMSize {
		t.Errorf("GuestRAM.Len() = %d, want %d", regions.GuestRAM.Len(), cfg.GuestRAMSize)
	}
	if regions.VRAM == nil || regions.VRAM.Len() != cfg.VRAMSize {
		t.Errorf("VRAM region missing or wrong size")
	}
	if regions.VRAMLen() != uint64(cfg.VRAMSize) {
		t.Errorf("VRAMLen() = %d, want %d", regions.VRAMLen(), cfg.VRAMSize)
	}
}

func TestAllocateRegionsSkipsVRAMWhenZeroSized(t *testing.T) {
	cfg := testConfig()
	cfg.VRAMSize = 0
	regions, err := AllocateRegions(cfg)
	if err != nil {
		t.Fatalf("AllocateRegions: %v", err)
	}
	defer regions.Close()

	if regions.VRAM != nil {
		t.Fatal("VRAM region allocated despite VRAMSize=0")
	}
	if regions.VRAMLen() != 0 {
		t.Fatalf("VRAMLen() = %d, want 0", regions.VRAMLen())
	}
}

func TestAllocateRegionsRollsBackOnFailure(t *testing.T) {
	cfg := testConfig()
	cfg.GuestRAMSize = -1 // forces NewRegion to fail on the very first allocation
	if _, err := AllocateRegions(cfg); err == nil {
		t.Fatal("expected an error for a negative guest RAM size")
	}
}
