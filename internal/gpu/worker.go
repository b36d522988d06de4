package gpu

import (
	"log"

	"github.com/wilsonzlin/aero-sub000/internal/fb"
	"github.com/wilsonzlin/aero-sub000/internal/protocol"
)

// Worker ties the submission ring, scanout readback, cursor composition,
// screenshot service and vblank clock to a concrete Presenter backend
// (spec §4.4 in full).
type Worker struct {
	submissions *SubmissionTracker
	readback    *Readback
	presenter   Presenter
	vblank      *VblankClock
	sharedFB    *fb.Framebuffer
	frame       []byte
}

// NewWorker assembles a GPU worker. sharedFB is the double-buffered
// framebuffer the worker renders composited frames into before handing them
// to the presenter.
func NewWorker(submissions *SubmissionTracker, readback *Readback, presenter Presenter, sharedFB *fb.Framebuffer) *Worker {
	return &Worker{
		submissions: submissions,
		readback:    readback,
		presenter:   presenter,
		vblank:      NewVblankClock(presenter.RefreshRateHz(), nil),
		sharedFB:    sharedFB,
		frame:       make([]byte, sharedFB.Width()*sharedFB.Height()*4),
	}
}

// PumpSubmissions drains all currently-queued submission ring entries,
// simulating immediate completion and retiring fences whose DMA buffers can
// now be freed (spec §4.4.1).
func (w *Worker) PumpSubmissions() {
	for {
		desc, ok, err := w.submissions.PollSubmission()
		if err != nil {
			log.Printf("gpu: submission descriptor rejected: %v", err)
			continue
		}
		if !ok {
			break
		}
		w.submissions.SimulateCompletion(desc.Fence)
	}
	w.submissions.Retire()
}

// RenderFrame composites the current scanout+cursor into the worker's scratch
// buffer and writes it into the back slot of the shared framebuffer. The
// back slot carries FrameState.status==Presenting for the duration of the
// write and Presented once the slot holds a complete, consistent frame
// (spec §3); the slot is not flipped to active here — Present flips it once
// it has actually been handed to the presenter, so a render that completes
// this tick is the one shown this tick rather than the next.
func (w *Worker) RenderFrame() error {
	back := w.sharedFB.BackIndex()
	w.sharedFB.SetFrameStatus(back, protocol.FramePresenting)
	dst := w.sharedFB.SlotPixels(back)
	width, height, err := w.readback.Frame(w.frame, true)
	if err != nil {
		w.sharedFB.SetFrameStatus(back, protocol.FrameDirty)
		return err
	}
	copy(dst, w.frame[:width*height*4])
	w.sharedFB.MarkDirty(back, 0, 0, width, height)
	w.sharedFB.SetFrameStatus(back, protocol.FramePresented)
	return nil
}

// Present hands the back shared-framebuffer slot — the one RenderFrame just
// wrote — to the presenter, then flips it to active. Reading the back slot
// here, rather than the still-active previous slot, is what makes the frame
// RenderFrame just produced the one that actually gets shown: presenting the
// already-active slot instead would always be one tick stale. Per spec
// §4.4.6, a Dropped outcome must not advance the shared framebuffer's
// frame_seq; only on Presented or Absent does the worker publish (flip
// active_index / bump frame_seq).
func (w *Worker) Present() PresentOutcome {
	back := w.sharedFB.BackIndex()
	pix := w.sharedFB.SlotPixels(back)
	outcome := w.presenter.Present(pix, w.sharedFB.Width(), w.sharedFB.Height())
	if outcome == Dropped {
		return outcome
	}
	w.sharedFB.Publish()
	return outcome
}

// TickVblank records one vblank edge.
func (w *Worker) TickVblank() { w.vblank.Tick() }

// Vblank exposes the vblank clock for the debug escape channel (spec §6).
func (w *Worker) Vblank() *VblankClock { return w.vblank }

// ScreenshotPNG forces one readback tick and encodes it as PNG, optionally
// downscaled to fit within req.MaxWidth/MaxHeight (SPEC_FULL §4.4.4
// supplement). It shares the worker's readback rather than requiring the
// caller to reach into worker internals.
func (w *Worker) ScreenshotPNG(req ScreenshotPNGRequest) ([]byte, error) {
	return ScreenshotPNG(w.readback, req)
}
