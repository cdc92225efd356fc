/*
Package palette defines the fixed six-color palette of the Spectra 6
e-paper panel and nearest-color matching against it.

The panel can only realize the six pigments below; everything else is
approximated by dithering. Matching is available under two metrics: a
perceptual one (Euclidean distance in CIE LAB, the CIE76 Delta E) and a
cheaper luminance-weighted RGB distance.
*/
package palette

import "math"

// Entry is one hardware color: its sRGB value and the 4-bit code the
// panel controller expects for it.
type Entry struct {
	R, G, B uint8
	Code    uint8
}

// Palette is an ordered list of hardware colors. Order matters: ties
// during matching resolve to the earliest entry.
type Palette []Entry

// Spectra6 is the palette of the 13.3" Spectra 6 panel. Values and
// order are fixed by the hardware; code 0x4 is unused by the
// controller.
var Spectra6 = Palette{
	{0, 0, 0, 0x0},       // black
	{255, 255, 255, 0x1}, // white
	{255, 235, 0, 0x2},   // yellow
	{220, 0, 0, 0x3},     // red
	{0, 0, 200, 0x5},     // blue
	{0, 180, 0, 0x6},     // green
}

// Index returns the position of the entry with exactly the given RGB
// value, or -1 if the color is not in the palette.
func (p Palette) Index(r, g, b uint8) int {
	for i, e := range p {
		if e.R == r && e.G == g && e.B == b {
			return i
		}
	}
	return -1
}

// A Matcher finds the palette entry closest to a color under some
// distance metric.
type Matcher interface {
	Match(r, g, b uint8) Entry
}

type labMatcher struct {
	palette Palette
	lab     [][3]float64
}

// NewLabMatcher returns a Matcher using Euclidean distance in CIE LAB.
// The palette entries are converted to LAB once up front.
func NewLabMatcher(p Palette) Matcher {
	m := &labMatcher{palette: p, lab: make([][3]float64, len(p))}
	for i, e := range p {
		l, a, b := RGBToLab(e.R, e.G, e.B)
		m.lab[i] = [3]float64{l, a, b}
	}
	return m
}

func (m *labMatcher) Match(r, g, b uint8) Entry {
	l, a, bb := RGBToLab(r, g, b)
	best := 0
	bestDist := math.MaxFloat64
	for i, e := range m.lab {
		dl := l - e[0]
		da := a - e[1]
		db := bb - e[2]
		if d := dl*dl + da*da + db*db; d < bestDist {
			bestDist = d
			best = i
		}
	}
	return m.palette[best]
}

// Per-channel weights approximating human luminance sensitivity.
const (
	weightR = 2
	weightG = 4
	weightB = 3
)

type weightedRGBMatcher struct {
	palette Palette
}

// NewWeightedRGBMatcher returns a Matcher using weighted Euclidean
// distance in RGB. Cheaper than LAB matching, less accurate.
func NewWeightedRGBMatcher(p Palette) Matcher {
	return &weightedRGBMatcher{palette: p}
}

func (m *weightedRGBMatcher) Match(r, g, b uint8) Entry {
	best := 0
	bestDist := math.MaxFloat64
	for i, e := range m.palette {
		dr := float64(r) - float64(e.R)
		dg := float64(g) - float64(e.G)
		db := float64(b) - float64(e.B)
		if d := weightR*dr*dr + weightG*dg*dg + weightB*db*db; d < bestDist {
			bestDist = d
			best = i
		}
	}
	return m.palette[best]
}
