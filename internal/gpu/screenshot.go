package gpu

// ScreenshotRequest is the {request_id, include_cursor} request of spec
// §4.4.4.
type ScreenshotRequest struct {
	RequestID     uint64
	IncludeCursor bool
}

// ScreenshotResponse carries {request_id, width, height, pixels} — pixels is
// always canonical R8G8B8A8.
type ScreenshotResponse struct {
	RequestID uint64
	Width     int
	Height    int
	Pixels    []byte
}

// stubPixels is the deterministic 1x1 black response substituted when the
// scanout seqlock snapshot is WriterStuck (spec §4.4.4/§7).
var stubPixels = []byte{0x00, 0x00, 0x00, 0xFF}

// Screenshot forces one readback tick of the current scanout (optionally
// compositing the cursor) and returns it as a ScreenshotResponse. When
// rb.Dimensions reports no size, or rb.Frame returns an error (such as
// ErrWriterStuck) or an empty frame, Screenshot returns the 1x1 black
// stubPixels response instead.
func Screenshot(rb *Readback, req ScreenshotRequest) ScreenshotResponse {
	width, height := rb.Dimensions()
	if width <= 0 || height <= 0 {
		return ScreenshotResponse{RequestID: req.RequestID, Width: 1, Height: 1, Pixels: append([]byte(nil), stubPixels...)}
	}
	scratch := make([]byte, width*height*4)

	gotW, gotH, err := rb.Frame(scratch, req.IncludeCursor)
	if err != nil || gotW == 0 || gotH == 0 {
		return ScreenshotResponse{RequestID: req.RequestID, Width: 1, Height: 1, Pixels: append([]byte(nil), stubPixels...)}
	}
	pixels := append([]byte(nil), scratch[:gotW*gotH*4]...)
	return ScreenshotResponse{RequestID: req.RequestID, Width: gotW, Height: gotH, Pixels: pixels}
}
