/*
Package dither implements sequential error-diffusion dithering of an
interleaved RGB8 pixel buffer against a fixed palette.

The algorithm is strictly raster order: each pixel is matched against
the palette using its current, already-partially-diffused value, the
matched color is written out, and the quantization error is spread to
not-yet-visited neighbors. Pixel (x, y) must see the error diffused
into it by every earlier pixel before it is matched, so the loop must
not be parallelized.
*/
package dither

import (
	"fmt"

	"github.com/chaerem/glance/palette"
)

// A Tap is one diffusion target relative to the current pixel. Taps
// only ever point at pixels later in raster order.
type Tap struct {
	DX, DY int
	Weight float64
}

// Kernel is a named error-diffusion weight matrix.
type Kernel struct {
	Name string
	Taps []Tap
}

// FloydSteinberg diffuses the full error over four neighbors.
var FloydSteinberg = Kernel{
	Name: "floyd-steinberg",
	Taps: []Tap{
		{1, 0, 7.0 / 16},
		{-1, 1, 3.0 / 16},
		{0, 1, 5.0 / 16},
		{1, 1, 1.0 / 16},
	},
}

// Atkinson diffuses only 6/8 of the error over six neighbors; the
// remaining 2/8 is discarded, which lifts contrast.
var Atkinson = Kernel{
	Name: "atkinson",
	Taps: []Tap{
		{1, 0, 1.0 / 8},
		{2, 0, 1.0 / 8},
		{-1, 1, 1.0 / 8},
		{0, 1, 1.0 / 8},
		{1, 1, 1.0 / 8},
		{0, 2, 1.0 / 8},
	},
}

// KernelByName maps an algorithm name to its kernel. The empty string
// selects Floyd-Steinberg.
func KernelByName(name string) (Kernel, error) {
	switch name {
	case "", FloydSteinberg.Name:
		return FloydSteinberg, nil
	case Atkinson.Name:
		return Atkinson, nil
	}
	return Kernel{}, fmt.Errorf("dither: unknown kernel %q", name)
}

// Apply dithers src, a row-major interleaved RGB8 buffer of w by h
// pixels, and returns a new buffer of the same size in which every
// pixel equals some palette entry. src is not modified; the diffusion
// happens on a private float working copy, with every write clamped to
// [0, 255]. An input whose pixels are all exact palette colors is
// returned unchanged.
func Apply(src []byte, w, h int, m palette.Matcher, k Kernel) ([]byte, error) {
	if len(src) != w*h*3 {
		return nil, fmt.Errorf("dither: buffer is %d bytes, want %d (%dx%dx3)", len(src), w*h*3, w, h)
	}

	work := make([]float64, len(src))
	for i, v := range src {
		work[i] = float64(v)
	}
	out := make([]byte, len(src))

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := (y*w + x) * 3

			e := m.Match(round(work[i]), round(work[i+1]), round(work[i+2]))
			out[i], out[i+1], out[i+2] = e.R, e.G, e.B

			er := work[i] - float64(e.R)
			eg := work[i+1] - float64(e.G)
			eb := work[i+2] - float64(e.B)

			for _, t := range k.Taps {
				nx, ny := x+t.DX, y+t.DY
				if nx < 0 || nx >= w || ny >= h {
					continue
				}
				j := (ny*w + nx) * 3
				work[j] = clamp(work[j] + er*t.Weight)
				work[j+1] = clamp(work[j+1] + eg*t.Weight)
				work[j+2] = clamp(work[j+2] + eb*t.Weight)
			}
		}
	}

	return out, nil
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}

// round converts a working value back to an 8-bit channel. Clamped
// writes keep the value in [0, 255] already.
func round(v float64) uint8 {
	return uint8(v + 0.5)
}
