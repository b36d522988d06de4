package gpu

// PresentOutcome is the three-valued result of a present() call, per spec §8:
// a dropped frame does not advance frame_seq, and backends that cannot tell
// the difference report Absent, which callers treat as Presented.
type PresentOutcome int

const (
	// Presented means the frame reached the screen.
	Presented PresentOutcome = iota
	// Dropped means the frame was intentionally skipped — a surface-acquire
	// timeout or a recoverable backend error.
	Dropped
	// Absent is the back-compat outcome for presenters that cannot report
	// drops; callers treat it identically to Presented.
	Absent
)

// Presenter abstracts the windowing/graphics backend that actually pushes
// pixels to a surface. internal/presenter/ebitenpresenter and
// internal/presenter/vulkanpresenter implement this against
// github.com/hajimehoshi/ebiten/v2 and github.com/goki/vulkan respectively.
type Presenter interface {
	// Present pushes pix (width*height*4 bytes, canonical R8G8B8A8) to the
	// display surface.
	Present(pix []byte, width, height int) PresentOutcome
	// RefreshRateHz reports the backend's best estimate of the display
	// refresh rate, used to derive the vblank period.
	RefreshRateHz() float64
}
