package scanout

import (
	"bytes"
	"testing"
)

func TestDecodePixelBGRXSwapsAndForcesAlpha(t *testing.T) {
	dst := make([]byte, 4)
	DecodePixel(dst, []byte{0x00, 0xFF, 0x00, 0x00}, FormatB8G8R8X8)
	want := []byte{0x00, 0xFF, 0x00, 0xFF}
	if !bytes.Equal(dst, want) {
		t.Fatalf("got %v want %v", dst, want)
	}
}

func TestDecodeRowScenario1BGRXPitchPadded(t *testing.T) {
	// spec §8 Scenario 1: 2x2 BGRX, pitch 16.
	row0 := []byte{0x00, 0x00, 0xFF, 0x00, 0x00, 0xFF, 0x00, 0x00}
	row1 := []byte{0xFF, 0x00, 0x00, 0x00, 0xFF, 0xFF, 0xFF, 0x00}

	dst0 := make([]byte, 8)
	dst1 := make([]byte, 8)
	DecodeRow(dst0, row0, 2, FormatB8G8R8X8)
	DecodeRow(dst1, row1, 2, FormatB8G8R8X8)

	want0 := []byte{0xFF, 0x00, 0x00, 0xFF, 0x00, 0xFF, 0x00, 0xFF}
	want1 := []byte{0x00, 0x00, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}
	if !bytes.Equal(dst0, want0) {
		t.Fatalf("row0 = %v want %v", dst0, want0)
	}
	if !bytes.Equal(dst1, want1) {
		t.Fatalf("row1 = %v want %v", dst1, want1)
	}
}

func TestDecodeB5G6R5Expansion(t *testing.T) {
	dst := make([]byte, 4)
	// All bits set: white.
	DecodePixel(dst, []byte{0xFF, 0xFF}, FormatB5G6R5)
	if dst[0] != 0xFF || dst[1] != 0xFF || dst[2] != 0xFF || dst[3] != 0xFF {
		t.Fatalf("white B5G6R5 decoded to %v", dst)
	}
}

func TestDecodeB5G5R5A1AlphaBit(t *testing.T) {
	dst := make([]byte, 4)
	DecodePixel(dst, []byte{0x00, 0x00}, FormatB5G5R5A1)
	if dst[3] != 0x00 {
		t.Fatalf("alpha bit clear should decode to 0x00, got 0x%X", dst[3])
	}
	DecodePixel(dst, []byte{0x00, 0x80}, FormatB5G5R5A1)
	if dst[3] != 0xFF {
		t.Fatalf("alpha bit set should decode to 0xFF, got 0x%X", dst[3])
	}
}

func TestSRGBDecodeEncodeIdempotentWithinOneLSB(t *testing.T) {
	for i := 0; i < 256; i++ {
		linear := DecodeSRGBByte(uint8(i))
		back := EncodeSRGBByte(linear)
		diff := int(back) - i
		if diff < -1 || diff > 1 {
			t.Fatalf("round-trip at %d: got %d, diff %d exceeds ±1 LSB", i, back, diff)
		}
	}
}

func TestSRGBScenario4CursorDecode(t *testing.T) {
	// spec §8 Scenario 4: BGRA [00 00 80 FF] in B8G8R8A8_SRGB.
	dst := make([]byte, 4)
	DecodePixel(dst, []byte{0x00, 0x00, 0x80, 0xFF}, FormatB8G8R8A8SRGB)
	want := []byte{0x37, 0x00, 0x00, 0xFF}
	if !bytes.Equal(dst, want) {
		t.Fatalf("got %v want %v", dst, want)
	}
}

func TestRequiredSpanLengthExcludesTrailingPitchPadding(t *testing.T) {
	// 2x2, pitch 16, B8G8R8X8 (4 bpp): row bytes = 8, required = 16*1+8 = 24,
	// NOT 32 (2 rows * 16 pitch).
	got := RequiredSpanLength(2, 2, 16, FormatB8G8R8X8)
	if got != 24 {
		t.Fatalf("RequiredSpanLength = %d, want 24", got)
	}
}
