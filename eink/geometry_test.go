package eink

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func fill(img *image.NRGBA, r image.Rectangle, c color.NRGBA) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
}

func TestWindow(t *testing.T) {
	tests := []struct {
		name         string
		w, h         int
		cx, cy, zoom float64
		want         image.Rectangle
	}{
		{"no zoom", 100, 100, 50, 50, 1.0, image.Rect(0, 0, 100, 100)},
		{"2x centered", 100, 100, 50, 50, 2.0, image.Rect(25, 25, 75, 75)},
		{"2x corner clamped", 100, 100, 0, 0, 2.0, image.Rect(0, 0, 50, 50)},
		{"2x far corner clamped", 100, 100, 100, 100, 2.0, image.Rect(50, 50, 100, 100)},
		{"zoom below one treated as one", 80, 60, 50, 50, 0.5, image.Rect(0, 0, 80, 60)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, window(tt.w, tt.h, tt.cx, tt.cy, tt.zoom))
		})
	}
}

func TestAutoTrim(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 20, 20))
	fill(img, img.Bounds(), color.NRGBA{250, 250, 250, 255})
	fill(img, image.Rect(5, 7, 15, 13), color.NRGBA{200, 0, 0, 255})

	got := autoTrim(img, 30)
	b := got.Bounds()
	assert.Equal(t, 10, b.Dx())
	assert.Equal(t, 6, b.Dy())
}

func TestAutoTrimNoMargin(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	fill(img, img.Bounds(), color.NRGBA{200, 0, 0, 255})
	fill(img, image.Rect(0, 0, 1, 1), color.NRGBA{0, 0, 0, 255})
	fill(img, image.Rect(7, 7, 8, 8), color.NRGBA{0, 0, 0, 255})

	// Corner color never spans a full row or column, so nothing is
	// trimmed.
	assert.Equal(t, img, autoTrim(img, 10))
}

func TestAutoTrimUniformImageIsNoOp(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	fill(img, img.Bounds(), color.NRGBA{255, 255, 255, 255})

	assert.Equal(t, img, autoTrim(img, 30))
}

func TestStretchContrast(t *testing.T) {
	// out = in*1.2 - 25.6, clamped.
	assert.Equal(t, uint8(0), stretch(0))
	assert.Equal(t, uint8(0), stretch(21)) // 21*1.2 = 25.2, below the bias
	assert.Equal(t, uint8(128), stretch(128))
	assert.Equal(t, uint8(255), stretch(255))
	assert.Equal(t, uint8(94), stretch(100)) // 120 - 25.6 = 94.4
}

func TestFlattenRGBCompositesAlphaOntoWhite(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{0, 0, 0, 255})
	img.SetNRGBA(1, 0, color.NRGBA{0, 0, 0, 0}) // fully transparent

	pix, err := flattenRGB(img)
	assert.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 0, 255, 255, 255}, pix)
}

func TestRotateDimensions(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 30, 20))

	for _, deg := range []int{90, 270} {
		b := rotate(img, deg).Bounds()
		assert.Equal(t, 20, b.Dx(), "rotation %d", deg)
		assert.Equal(t, 30, b.Dy(), "rotation %d", deg)
	}
	for _, deg := range []int{0, 180} {
		b := rotate(img, deg).Bounds()
		assert.Equal(t, 30, b.Dx(), "rotation %d", deg)
		assert.Equal(t, 20, b.Dy(), "rotation %d", deg)
	}
}
