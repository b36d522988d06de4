package scanout

import "math"

// srgbToLinearLUT is the 256-entry lookup table mapping an sRGB-encoded
// 8-bit channel value to its decoded value, also quantized to 8 bits
// (spec §4.4.2: "precomputed from the standard piecewise transfer function").
var srgbToLinearLUT = buildSRGBToLinearLUT()

func buildSRGBToLinearLUT() [256]uint8 {
	var lut [256]uint8
	for i := 0; i < 256; i++ {
		c := float64(i) / 255.0
		var linear float64
		if c <= 0.04045 {
			linear = c / 12.92
		} else {
			linear = math.Pow((c+0.055)/1.055, 2.4)
		}
		v := int(math.Round(linear * 255.0))
		if v < 0 {
			v = 0
		} else if v > 255 {
			v = 255
		}
		lut[i] = uint8(v)
	}
	return lut
}

// linearToSRGBLUT is the inverse transfer function, used only by tests that
// check decode/encode round-trip idempotence (spec §8).
var linearToSRGBLUT = buildLinearToSRGBLUT()

func buildLinearToSRGBLUT() [256]uint8 {
	var lut [256]uint8
	for i := 0; i < 256; i++ {
		c := float64(i) / 255.0
		var srgb float64
		if c <= 0.0031308 {
			srgb = c * 12.92
		} else {
			srgb = 1.055*math.Pow(c, 1.0/2.4) - 0.055
		}
		v := int(math.Round(srgb * 255.0))
		if v < 0 {
			v = 0
		} else if v > 255 {
			v = 255
		}
		lut[i] = uint8(v)
	}
	return lut
}

// DecodeSRGBByte converts one sRGB-encoded channel byte to its linear value.
func DecodeSRGBByte(b uint8) uint8 { return srgbToLinearLUT[b] }

// EncodeSRGBByte converts one linear channel byte back to sRGB encoding.
func EncodeSRGBByte(b uint8) uint8 { return linearToSRGBLUT[b] }
