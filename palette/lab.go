package palette

import "math"

// D65 reference white.
const (
	refX = 0.95047
	refY = 1.0
	refZ = 1.08883
)

// srgbToLinear undoes the sRGB transfer curve on a single 0-255 channel.
func srgbToLinear(c uint8) float64 {
	s := float64(c) / 255
	if s <= 0.04045 {
		return s / 12.92
	}
	return math.Pow((s+0.055)/1.055, 2.4)
}

func labF(t float64) float64 {
	if t > 0.008856 {
		return math.Cbrt(t)
	}
	return 7.787*t + 16.0/116
}

// RGBToLab converts an 8-bit sRGB triplet to CIE LAB under D65. It is
// defined over the whole 0-255 cube and is fully deterministic.
func RGBToLab(r, g, b uint8) (float64, float64, float64) {
	lr := srgbToLinear(r)
	lg := srgbToLinear(g)
	lb := srgbToLinear(b)

	// Linear sRGB to XYZ.
	x := 0.4124564*lr + 0.3575761*lg + 0.1804375*lb
	y := 0.2126729*lr + 0.7151522*lg + 0.0721750*lb
	z := 0.0193339*lr + 0.1191920*lg + 0.9503041*lb

	fx := labF(x / refX)
	fy := labF(y / refY)
	fz := labF(z / refZ)

	return 116*fy - 16, 500 * (fx - fy), 200 * (fy - fz)
}
