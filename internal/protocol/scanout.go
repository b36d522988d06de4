package protocol

// ScanoutState word indices (little-endian 32-bit words), per spec §6.
const (
	ScanoutGeneration = iota
	ScanoutSourceWord
	ScanoutBasePaddrLo
	ScanoutBasePaddrHi
	ScanoutWidth
	ScanoutHeight
	ScanoutPitchBytes
	ScanoutFormat
	ScanoutNumFields = ScanoutFormat // generation is not counted as a protected field
)

// ScanoutSource enumerates where the scanout pixels originate.
type ScanoutSource uint32

const (
	SourceLegacyVbeLfb ScanoutSource = 0
	SourceModernDriver ScanoutSource = 1
)

// CursorState word indices, per spec §6.
const (
	CursorGeneration = iota
	CursorEnable
	CursorX
	CursorY
	CursorHotX
	CursorHotY
	CursorWidth
	CursorHeight
	CursorPitchBytes
	CursorFormat
	CursorBasePaddrLo
	CursorBasePaddrHi
	CursorNumFields = CursorBasePaddrHi
)

// Format enumerates the scanout/cursor pixel formats (spec §4.4.2).
type Format uint32

const (
	FormatB8G8R8X8 Format = iota
	FormatB8G8R8A8
	FormatR8G8B8X8
	FormatR8G8B8A8
	FormatB8G8R8X8SRGB
	FormatR8G8B8X8SRGB
	FormatB8G8R8A8SRGB
	FormatR8G8B8A8SRGB
	FormatB5G6R5
	FormatB5G5R5A1
)

// BytesPerPixel returns the storage width of one pixel in this format.
func (f Format) BytesPerPixel() int {
	switch f {
	case FormatB5G6R5, FormatB5G5R5A1:
		return 2
	default:
		return 4
	}
}

// HasAlpha reports whether the format carries a meaningful alpha channel
// (as opposed to an X-padding byte that is always fully opaque).
func (f Format) HasAlpha() bool {
	switch f {
	case FormatB8G8R8A8, FormatR8G8B8A8, FormatB8G8R8A8SRGB, FormatR8G8B8A8SRGB, FormatB5G5R5A1:
		return true
	default:
		return false
	}
}

// IsSRGB reports whether decode must run channel values through the sRGB
// electro-optical transfer function.
func (f Format) IsSRGB() bool {
	switch f {
	case FormatB8G8R8X8SRGB, FormatR8G8B8X8SRGB, FormatB8G8R8A8SRGB, FormatR8G8B8A8SRGB:
		return true
	default:
		return false
	}
}
