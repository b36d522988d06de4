package gpu

import (
	"bytes"
	"image"
	"image/png"

	"golang.org/x/image/draw"
)

// ScreenshotPNGRequest extends ScreenshotRequest with an optional target
// size; MaxWidth/MaxHeight of 0 means "no downscale, encode at native
// resolution" (spec §4.4.4's raw RGBA path, with an on-disk artifact
// supplementing it per SPEC_FULL).
type ScreenshotPNGRequest struct {
	ScreenshotRequest
	MaxWidth, MaxHeight int
}

// ScreenshotPNG takes the same readback Screenshot does and encodes it as
// PNG, downscaling with x/image/draw's bilinear scaler when the frame
// exceeds MaxWidth/MaxHeight. Mirrors the teacher's screenshot command in
// debug_commands.go, which likewise writes a PNG artifact next to the raw
// in-memory dump.
func ScreenshotPNG(rb *Readback, req ScreenshotPNGRequest) ([]byte, error) {
	shot := Screenshot(rb, req.ScreenshotRequest)

	src := &image.NRGBA{
		Pix:    shot.Pixels,
		Stride: shot.Width * 4,
		Rect:   image.Rect(0, 0, shot.Width, shot.Height),
	}

	img := image.Image(src)
	if req.MaxWidth > 0 && req.MaxHeight > 0 && (shot.Width > req.MaxWidth || shot.Height > req.MaxHeight) {
		dstW, dstH := scaledDimensions(shot.Width, shot.Height, req.MaxWidth, req.MaxHeight)
		dst := image.NewNRGBA(image.Rect(0, 0, dstW, dstH))
		draw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
		img = dst
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// scaledDimensions fits width x height within maxWidth x maxHeight,
// preserving aspect ratio and never upscaling.
func scaledDimensions(width, height, maxWidth, maxHeight int) (int, int) {
	wScale := float64(maxWidth) / float64(width)
	hScale := float64(maxHeight) / float64(height)
	scale := wScale
	if hScale < scale {
		scale = hScale
	}
	if scale > 1 {
		scale = 1
	}
	dstW := int(float64(width) * scale)
	dstH := int(float64(height) * scale)
	if dstW < 1 {
		dstW = 1
	}
	if dstH < 1 {
		dstH = 1
	}
	return dstW, dstH
}
