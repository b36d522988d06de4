package scanout

import "github.com/wilsonzlin/aero-sub000/internal/protocol"

// Format re-exports protocol.Format so callers only need one import for the
// common case of decoding pixels.
type Format = protocol.Format

const (
	FormatB8G8R8X8     = protocol.FormatB8G8R8X8
	FormatB8G8R8A8     = protocol.FormatB8G8R8A8
	FormatR8G8B8X8     = protocol.FormatR8G8B8X8
	FormatR8G8B8A8     = protocol.FormatR8G8B8A8
	FormatB8G8R8X8SRGB = protocol.FormatB8G8R8X8SRGB
	FormatR8G8B8X8SRGB = protocol.FormatR8G8B8X8SRGB
	FormatB8G8R8A8SRGB = protocol.FormatB8G8R8A8SRGB
	FormatR8G8B8A8SRGB = protocol.FormatR8G8B8A8SRGB
	FormatB5G6R5       = protocol.FormatB5G6R5
	FormatB5G5R5A1     = protocol.FormatB5G5R5A1
)

// DecodePixel converts one source pixel (src, exactly format.BytesPerPixel()
// bytes) into canonical R8G8B8A8 (dst, exactly 4 bytes), per the format table
// in spec §4.4.2.
func DecodePixel(dst []byte, src []byte, format Format) {
	switch format {
	case FormatB8G8R8X8:
		dst[0], dst[1], dst[2], dst[3] = src[2], src[1], src[0], 0xFF
	case FormatB8G8R8A8:
		dst[0], dst[1], dst[2], dst[3] = src[2], src[1], src[0], src[3]
	case FormatR8G8B8X8:
		dst[0], dst[1], dst[2], dst[3] = src[0], src[1], src[2], 0xFF
	case FormatR8G8B8A8:
		dst[0], dst[1], dst[2], dst[3] = src[0], src[1], src[2], src[3]
	case FormatB8G8R8X8SRGB:
		dst[0], dst[1], dst[2] = DecodeSRGBByte(src[2]), DecodeSRGBByte(src[1]), DecodeSRGBByte(src[0])
		dst[3] = 0xFF
	case FormatR8G8B8X8SRGB:
		dst[0], dst[1], dst[2] = DecodeSRGBByte(src[0]), DecodeSRGBByte(src[1]), DecodeSRGBByte(src[2])
		dst[3] = 0xFF
	case FormatB8G8R8A8SRGB:
		dst[0], dst[1], dst[2] = DecodeSRGBByte(src[2]), DecodeSRGBByte(src[1]), DecodeSRGBByte(src[0])
		dst[3] = src[3]
	case FormatR8G8B8A8SRGB:
		dst[0], dst[1], dst[2] = DecodeSRGBByte(src[0]), DecodeSRGBByte(src[1]), DecodeSRGBByte(src[2])
		dst[3] = src[3]
	case FormatB5G6R5:
		v := uint16(src[0]) | uint16(src[1])<<8
		r5 := (v >> 11) & 0x1F
		g6 := (v >> 5) & 0x3F
		b5 := v & 0x1F
		dst[0] = expand5(r5)
		dst[1] = expand6(g6)
		dst[2] = expand5(b5)
		dst[3] = 0xFF
	case FormatB5G5R5A1:
		v := uint16(src[0]) | uint16(src[1])<<8
		r5 := (v >> 10) & 0x1F
		g5 := (v >> 5) & 0x1F
		b5 := v & 0x1F
		a := v >> 15
		dst[0] = expand5(r5)
		dst[1] = expand5(g5)
		dst[2] = expand5(b5)
		if a != 0 {
			dst[3] = 0xFF
		} else {
			dst[3] = 0x00
		}
	default:
		dst[0], dst[1], dst[2], dst[3] = 0, 0, 0, 0xFF
	}
}

// expand5 widens a 5-bit channel to 8 bits by bit replication.
func expand5(v uint16) uint8 {
	return uint8((v << 3) | (v >> 2))
}

// expand6 widens a 6-bit channel to 8 bits by bit replication.
func expand6(v uint16) uint8 {
	return uint8((v << 2) | (v >> 4))
}

// IsFastPathEligible reports whether a source row can use the aligned 4-byte
// word-load swizzle path rather than the byte-wise fallback (spec §4.4.2):
// the format must be a 4-bpp variant and the row must start 4-byte aligned.
func IsFastPathEligible(format Format, rowAddr uint64) bool {
	if format.BytesPerPixel() != 4 {
		return false
	}
	return rowAddr%4 == 0
}

// DecodeRow decodes one scanline of src (format.BytesPerPixel()*width bytes)
// into dst (4*width bytes of canonical RGBA8).
func DecodeRow(dst []byte, src []byte, width int, format Format) {
	bpp := format.BytesPerPixel()
	for x := 0; x < width; x++ {
		DecodePixel(dst[x*4:x*4+4], src[x*bpp:x*bpp+bpp], format)
	}
}
