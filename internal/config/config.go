// Package config parses the coordinator's startup topology: shared-memory
// region sizes, the VRAM aperture, ring capacities, and the debug trace
// sample rate (spec §6). The teacher parses its own startup mode from raw
// os.Args; this module generalizes that one process/one mode choice to five
// workers' worth of shared-memory sizing, so it reaches for the standard
// flag package instead — still no third-party CLI framework, matching the
// teacher's stdlib-only startup path.
package config

import (
	"flag"
	"fmt"

	"github.com/wilsonzlin/aero-sub000/internal/protocol"
)

// Defaults mirror protocol's address-space constants (spec §6); the ring
// capacity and trace sample rate have no named default in the wire layout,
// so round development-build values are chosen here.
const (
	DefaultGuestRAMSize    = protocol.GuestRAMSize
	DefaultVRAMBase        = protocol.VRAMBase
	DefaultVRAMSize        = protocol.VRAMSize
	DefaultRingCapacity    = 1 << 16 // 64 KiB, power of two per spec §4.1
	DefaultTraceSampleRate = 1
)

// Config is the coordinator's resolved startup topology.
type Config struct {
	GuestRAMSize int
	VRAMBase     uint64
	VRAMSize     int
	RingCapacity uint32

	TraceSampleRate int

	PresenterBackend string // "ebiten" or "vulkan"
}

// Parse parses args (typically os.Args[1:]) into a Config, applying spec §6
// defaults for anything not given.
func Parse(args []string) (Config, error) {
	fs := flag.NewFlagSet("aerovm", flag.ContinueOnError)

	cfg := Config{}
	fs.IntVar(&cfg.GuestRAMSize, "ram-size", DefaultGuestRAMSize, "guest RAM region size in bytes")
	vramBase := fs.Uint64("vram-base", DefaultVRAMBase, "VRAM aperture guest physical base")
	fs.IntVar(&cfg.VRAMSize, "vram-size", DefaultVRAMSize, "VRAM aperture size in bytes")
	ringCap := fs.Uint("ring-capacity", DefaultRingCapacity, "ring buffer payload capacity in bytes (power of two)")
	fs.IntVar(&cfg.TraceSampleRate, "trace-sample-rate", DefaultTraceSampleRate, "keep every Nth debug trace event")
	fs.StringVar(&cfg.PresenterBackend, "presenter", "ebiten", "GPU presenter backend: ebiten or vulkan")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg.VRAMBase = *vramBase
	cfg.RingCapacity = uint32(*ringCap)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.GuestRAMSize <= 0 {
		return fmt.Errorf("config: ram-size must be positive, got %d", c.GuestRAMSize)
	}
	if c.VRAMSize < 0 {
		return fmt.Errorf("config: vram-size must not be negative, got %d", c.VRAMSize)
	}
	if c.RingCapacity == 0 || c.RingCapacity&(c.RingCapacity-1) != 0 {
		return fmt.Errorf("config: ring-capacity must be a power of two, got %d", c.RingCapacity)
	}
	if c.TraceSampleRate < 1 {
		return fmt.Errorf("config: trace-sample-rate must be >= 1, got %d", c.TraceSampleRate)
	}
	if c.PresenterBackend != "ebiten" && c.PresenterBackend != "vulkan" {
		return fmt.Errorf("config: presenter must be %q or %q, got %q", "ebiten", "vulkan", c.PresenterBackend)
	}
	return nil
}
