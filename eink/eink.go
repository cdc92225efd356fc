/*
Package eink converts photos into the fixed-size, fixed-palette pixel
buffers the e-paper panel can display.

The pipeline is: decode, rotate, auto-trim, crop/zoom window, cover-fit
resize, sRGB normalize, optional contrast and sharpen, then
error-diffusion dithering against the hardware palette. A conversion is
pure over its inputs: it holds no shared state, so independent
conversions may run in parallel, each on its own buffers.
*/
package eink

import (
	"bytes"
	"fmt"

	"github.com/chaerem/glance/dither"
	"github.com/chaerem/glance/palette"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// Canonical panel dimensions, portrait.
const (
	DefaultWidth  = 1200
	DefaultHeight = 1600
)

// DefaultTrimTolerance is the per-channel tolerance used by auto-trim
// when Options leaves it unset. Tuned on real photos with white and
// off-white mats.
const DefaultTrimTolerance = 30

// Options controls a single conversion. The zero value converts for
// the default panel size with Floyd-Steinberg dithering, no zoom
// window and no enhancement.
type Options struct {
	// Rotation is a clockwise rotation in degrees: 0, 90, 180 or 270.
	// Rotating by 90 or 270 swaps the target dimensions.
	Rotation int

	// TargetWidth and TargetHeight select the output size before any
	// rotation swap; zero means the panel default.
	TargetWidth  int
	TargetHeight int

	// CropX and CropY position the center of the zoom window as a
	// percentage (0-100) of the working image. Zero is a valid
	// position (the left/top edge); negative means centered (50).
	CropX float64
	CropY float64

	// Zoom is the window magnification, at least 1.0.
	Zoom float64

	// Algorithm names the dither kernel ("floyd-steinberg" or
	// "atkinson"); empty means Floyd-Steinberg.
	Algorithm string

	// Matcher selects the palette metric: "lab" (perceptual, default)
	// or "rgb" (weighted, faster).
	Matcher string

	// Palette overrides the hardware palette; nil means Spectra6.
	Palette palette.Palette

	EnhanceContrast    bool
	Sharpen            bool
	AutoCropWhitespace bool

	// TrimTolerance is the per-channel auto-trim tolerance; zero means
	// DefaultTrimTolerance.
	TrimTolerance int
}

func (o Options) withDefaults() Options {
	if o.TargetWidth <= 0 {
		o.TargetWidth = DefaultWidth
	}
	if o.TargetHeight <= 0 {
		o.TargetHeight = DefaultHeight
	}
	if o.CropX < 0 {
		o.CropX = 50
	}
	if o.CropY < 0 {
		o.CropY = 50
	}
	if o.Zoom < 1 {
		o.Zoom = 1
	}
	if o.Palette == nil {
		o.Palette = palette.Spectra6
	}
	if o.TrimTolerance <= 0 {
		o.TrimTolerance = DefaultTrimTolerance
	}
	return o
}

func (o Options) matcher() (palette.Matcher, error) {
	switch o.Matcher {
	case "", "lab":
		return palette.NewLabMatcher(o.Palette), nil
	case "rgb":
		return palette.NewWeightedRGBMatcher(o.Palette), nil
	}
	return nil, fmt.Errorf("eink: unknown matcher %q", o.Matcher)
}

// Frame is a converted panel image: a row-major interleaved RGB8
// buffer of Width*Height*3 bytes in which every pixel is one of the
// palette colors.
type Frame struct {
	Width  int
	Height int
	Pix    []byte
}

// Convert runs the full pipeline on encoded image bytes (JPEG, PNG,
// GIF, BMP, TIFF or WebP). It either returns a complete frame of
// exactly the target size or a typed error identifying the failing
// stage; it never returns a partial buffer.
func Convert(data []byte, opts Options) (*Frame, error) {
	opts = opts.withDefaults()

	if opts.Rotation%90 != 0 || opts.Rotation < 0 || opts.Rotation > 270 {
		return nil, fmt.Errorf("eink: invalid rotation %d", opts.Rotation)
	}

	kernel, err := dither.KernelByName(opts.Algorithm)
	if err != nil {
		return nil, err
	}
	matcher, err := opts.matcher()
	if err != nil {
		return nil, err
	}

	tw, th := opts.TargetWidth, opts.TargetHeight
	if opts.Rotation == 90 || opts.Rotation == 270 {
		tw, th = th, tw
	}

	src, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, &DecodeError{Err: err}
	}

	img := imaging.Clone(rotate(src, opts.Rotation))

	if opts.AutoCropWhitespace {
		img = autoTrim(img, opts.TrimTolerance)
	}

	b := img.Bounds()
	if r := window(b.Dx(), b.Dy(), opts.CropX, opts.CropY, opts.Zoom); r != b {
		img = imaging.Crop(img, r)
	}

	img = imaging.Fill(img, tw, th, imaging.Center, imaging.Lanczos)

	if opts.EnhanceContrast {
		img = imaging.AdjustFunc(img, contrastFn)
	}
	if opts.Sharpen {
		img = imaging.Sharpen(img, sharpenSigma)
	}

	if got := img.Bounds(); got.Dx() != tw || got.Dy() != th {
		return nil, &DimensionMismatchError{
			WantWidth: tw, WantHeight: th,
			GotWidth: got.Dx(), GotHeight: got.Dy(),
		}
	}

	pix, err := flattenRGB(img)
	if err != nil {
		return nil, err
	}

	out, err := dither.Apply(pix, tw, th, matcher, kernel)
	if err != nil {
		return nil, err
	}

	return &Frame{Width: tw, Height: th, Pix: out}, nil
}
