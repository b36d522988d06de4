// Package ebitenpresenter implements gpu.Presenter on top of
// github.com/hajimehoshi/ebiten/v2, adapted from the teacher's
// video_backend_ebiten.go EbitenOutput (window lifecycle, frame buffer
// mutex, vsync gating, window-close detection).
package ebitenpresenter

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/wilsonzlin/aero-sub000/internal/gpu"
)

// Backend presents composited GPU frames through an Ebiten window.
type Backend struct {
	mu     sync.RWMutex
	width  int
	height int
	pix    []byte
	window *ebiten.Image

	closed  atomic.Bool
	started atomic.Bool

	vsyncChan chan struct{}
}

// New creates a presenter backend sized for width x height frames. Start
// must be called once before the first Present.
func New(width, height int) *Backend {
	return &Backend{
		width:     width,
		height:    height,
		pix:       make([]byte, width*height*4),
		vsyncChan: make(chan struct{}, 1),
	}
}

// Start launches the Ebiten run loop (RunGame) on a background goroutine,
// not on the main OS thread.
func (b *Backend) Start(title string) error {
	if b.started.Swap(true) {
		return nil
	}
	ebiten.SetWindowSize(b.width, b.height)
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowResizable(true)
	ebiten.SetRunnableOnUnfocused(true)
	ebiten.SetVsyncEnabled(true)

	go func() {
		if err := ebiten.RunGame(b); err != nil {
			fmt.Printf("ebitenpresenter: run loop exited: %v\n", err)
		}
		b.closed.Store(true)
	}()
	return nil
}

// Present implements gpu.Presenter. A closed window reports Dropped so the
// caller does not advance frame_seq for frames nobody will ever see.
func (b *Backend) Present(pix []byte, width, height int) gpu.PresentOutcome {
	if b.closed.Load() {
		return gpu.Dropped
	}
	b.mu.Lock()
	if width != b.width || height != b.height {
		b.width, b.height = width, height
		b.pix = make([]byte, width*height*4)
		b.window = nil
	}
	copy(b.pix, pix)
	b.mu.Unlock()
	return gpu.Presented
}

// RefreshRateHz reports Ebiten's measured frame rate once the loop has been
// running a moment, falling back to a conservative 60Hz estimate at
// startup.
func (b *Backend) RefreshRateHz() float64 {
	if fps := ebiten.ActualFPS(); fps > 1 {
		return fps
	}
	return 60
}

// Update implements ebiten.Game. Window-close detection mirrors the
// teacher's EbitenOutput.Update.
func (b *Backend) Update() error {
	if ebiten.IsWindowBeingClosed() {
		return ebiten.Termination
	}
	return nil
}

// Draw implements ebiten.Game, blitting the latest presented frame.
func (b *Backend) Draw(screen *ebiten.Image) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.window == nil {
		b.window = ebiten.NewImage(b.width, b.height)
	}
	b.window.WritePixels(b.pix)
	screen.DrawImage(b.window, nil)

	select {
	case b.vsyncChan <- struct{}{}:
	default:
	}
}

// Layout implements ebiten.Game.
func (b *Backend) Layout(_, _ int) (int, int) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.width, b.height
}
