package scanout

// CompositeCursor blends a decoded cursor surface over a decoded scanout
// surface, both already canonical R8G8B8A8, per spec §4.4.3. scanout is
// scanoutW*scanoutH*4 bytes and is modified in place. cursor is
// cursorW*cursorH*4 bytes. originX/originY are x-hot_x, y-hot_y and may be
// negative; out-of-bounds cursor pixels are clipped before sampling.
func CompositeCursor(scanoutPix []byte, scanoutW, scanoutH int, cursorPix []byte, cursorW, cursorH int, originX, originY int, cursorHasAlpha bool) {
	for cy := 0; cy < cursorH; cy++ {
		sy := originY + cy
		if sy < 0 || sy >= scanoutH {
			continue
		}
		for cx := 0; cx < cursorW; cx++ {
			sx := originX + cx
			if sx < 0 || sx >= scanoutW {
				continue
			}
			src := cursorPix[(cy*cursorW+cx)*4 : (cy*cursorW+cx)*4+4 : (cy*cursorW+cx)*4+4]
			dstOff := (sy*scanoutW + sx) * 4
			dst := scanoutPix[dstOff : dstOff+4 : dstOff+4]
			blendPixel(dst, src, cursorHasAlpha)
		}
	}
}

// blendPixel applies straight-alpha-over in place: dst = src over dst.
// When cursorHasAlpha is false the format carries no alpha channel, so the
// cursor pixel is treated as fully opaque and overwrites dst outright.
func blendPixel(dst, src []byte, cursorHasAlpha bool) {
	if !cursorHasAlpha {
		dst[0], dst[1], dst[2], dst[3] = src[0], src[1], src[2], 0xFF
		return
	}
	srcA := uint32(src[3])
	if srcA == 0 {
		return // fully transparent: scanout pixel unchanged
	}
	if srcA == 0xFF {
		dst[0], dst[1], dst[2], dst[3] = src[0], src[1], src[2], 0xFF
		return
	}
	inv := 255 - srcA
	for i := 0; i < 3; i++ {
		dst[i] = uint8((uint32(src[i])*255 + uint32(dst[i])*inv) / 255)
	}
	dst[3] = uint8((srcA*255 + uint32(dst[3])*inv) / 255)
}
