package eink

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

// Contrast enhancement is the linear transform out = in*gain + bias.
const (
	contrastGain = 1.2
	contrastBias = -128 * 0.2
)

const sharpenSigma = 1.0

// rotate applies a lossless clockwise rotation in 90 degree multiples.
// The imaging primitives rotate counter-clockwise, hence the swap.
func rotate(img image.Image, degrees int) image.Image {
	switch degrees {
	case 90:
		return imaging.Rotate270(img)
	case 180:
		return imaging.Rotate180(img)
	case 270:
		return imaging.Rotate90(img)
	}
	return img
}

// autoTrim strips border margins whose pixels all stay within
// tolerance of the top-left corner color. Finding no margin, or a
// margin that swallows the whole image, is not an error; the input is
// returned unchanged.
func autoTrim(img *image.NRGBA, tolerance int) *image.NRGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w < 2 || h < 2 {
		return img
	}
	bg := img.NRGBAAt(b.Min.X, b.Min.Y)

	rowIsBackground := func(y int) bool {
		for x := b.Min.X; x < b.Max.X; x++ {
			if !withinTolerance(img.NRGBAAt(x, y), bg, tolerance) {
				return false
			}
		}
		return true
	}
	colIsBackground := func(x int) bool {
		for y := b.Min.Y; y < b.Max.Y; y++ {
			if !withinTolerance(img.NRGBAAt(x, y), bg, tolerance) {
				return false
			}
		}
		return true
	}

	top, bottom := b.Min.Y, b.Max.Y
	for top < bottom && rowIsBackground(top) {
		top++
	}
	if top == bottom {
		// Uniform image, nothing left to keep.
		return img
	}
	for bottom > top && rowIsBackground(bottom-1) {
		bottom--
	}

	left, right := b.Min.X, b.Max.X
	for left < right && colIsBackground(left) {
		left++
	}
	for right > left && colIsBackground(right-1) {
		right--
	}

	r := image.Rect(left, top, right, bottom)
	if r == b {
		return img
	}
	return imaging.Crop(img, r)
}

func withinTolerance(c, bg color.NRGBA, tolerance int) bool {
	return absDiff(c.R, bg.R) <= tolerance &&
		absDiff(c.G, bg.G) <= tolerance &&
		absDiff(c.B, bg.B) <= tolerance
}

func absDiff(a, b uint8) int {
	if a > b {
		return int(a) - int(b)
	}
	return int(b) - int(a)
}

// window computes the crop rectangle for a zoom window centered at
// (cropX%, cropY%) of a w by h image. zoom is a magnification factor;
// 1.0 selects the whole image. The window is clamped inside the image.
func window(w, h int, cropX, cropY, zoom float64) image.Rectangle {
	if zoom < 1 {
		zoom = 1
	}
	ww := int(math.Round(float64(w) / zoom))
	wh := int(math.Round(float64(h) / zoom))
	if ww < 1 {
		ww = 1
	}
	if wh < 1 {
		wh = 1
	}

	x0 := int(math.Round(cropX/100*float64(w))) - ww/2
	y0 := int(math.Round(cropY/100*float64(h))) - wh/2
	x0 = clampInt(x0, 0, w-ww)
	y0 = clampInt(y0, 0, h-wh)

	return image.Rect(x0, y0, x0+ww, y0+wh)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// contrastFn applies the contrast transform to one pixel, leaving
// alpha untouched.
func contrastFn(c color.NRGBA) color.NRGBA {
	return color.NRGBA{
		R: stretch(c.R),
		G: stretch(c.G),
		B: stretch(c.B),
		A: c.A,
	}
}

func stretch(v uint8) uint8 {
	s := float64(v)*contrastGain + contrastBias
	if s < 0 {
		return 0
	}
	if s > 255 {
		return 255
	}
	return uint8(s + 0.5)
}

// flattenRGB converts the image to a row-major interleaved RGB8
// buffer, compositing any transparency onto the white panel
// background.
func flattenRGB(img *image.NRGBA) ([]byte, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if len(img.Pix) != w*h*4 {
		return nil, &ChannelMismatchError{Got: len(img.Pix) / (w * h)}
	}

	out := make([]byte, w*h*3)
	for i, j := 0, 0; i < len(img.Pix); i, j = i+4, j+3 {
		r, g, bl, a := img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3]
		if a == 255 {
			out[j], out[j+1], out[j+2] = r, g, bl
			continue
		}
		out[j] = compositeWhite(r, a)
		out[j+1] = compositeWhite(g, a)
		out[j+2] = compositeWhite(bl, a)
	}
	return out, nil
}

func compositeWhite(c, a uint8) uint8 {
	return uint8((uint32(c)*uint32(a) + 255*(255-uint32(a)) + 127) / 255)
}
