package ebitenpresenter

import (
	"testing"

	"github.com/wilsonzlin/aero-sub000/internal/gpu"
)

func TestPresentReportsDroppedAfterClose(t *testing.T) {
	b := New(4, 4)
	b.closed.Store(true)
	pix := make([]byte, 4*4*4)
	if outcome := b.Present(pix, 4, 4); outcome != gpu.Dropped {
		t.Fatalf("outcome = %v, want Dropped after close", outcome)
	}
}

func TestPresentResizesBufferOnDimensionChange(t *testing.T) {
	b := New(4, 4)
	pix := make([]byte, 8*8*4)
	for i := range pix {
		pix[i] = 0x77
	}
	if outcome := b.Present(pix, 8, 8); outcome != gpu.Presented {
		t.Fatalf("outcome = %v, want Presented", outcome)
	}
	w, h := b.Layout(0, 0)
	if w != 8 || h != 8 {
		t.Fatalf("Layout = %dx%d, want 8x8", w, h)
	}
}

func TestRefreshRateHzFallsBackBeforeLoopRuns(t *testing.T) {
	b := New(4, 4)
	if hz := b.RefreshRateHz(); hz != 60 {
		t.Fatalf("RefreshRateHz = %v, want 60 fallback before the run loop starts", hz)
	}
}
