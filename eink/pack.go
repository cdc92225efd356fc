package eink

import (
	"fmt"

	"github.com/chaerem/glance/palette"
)

// PackFramebuffer converts a dithered frame into the panel's native
// 4-bit-per-pixel layout: two hardware color codes per byte, the left
// pixel in the high nibble, Width*Height/2 bytes total. The frame
// width must be even and every pixel must be an exact palette color;
// an off-palette pixel means the buffer did not come out of the
// ditherer.
func PackFramebuffer(f *Frame, pal palette.Palette) ([]byte, error) {
	if len(f.Pix) != f.Width*f.Height*3 {
		return nil, fmt.Errorf("eink: frame is %d bytes, want %d", len(f.Pix), f.Width*f.Height*3)
	}
	if f.Width%2 != 0 {
		return nil, fmt.Errorf("eink: frame width %d is not even", f.Width)
	}

	out := make([]byte, f.Width*f.Height/2)
	for i, j := 0, 0; i < len(f.Pix); i, j = i+6, j+1 {
		hi := pal.Index(f.Pix[i], f.Pix[i+1], f.Pix[i+2])
		lo := pal.Index(f.Pix[i+3], f.Pix[i+4], f.Pix[i+5])
		if hi < 0 || lo < 0 {
			return nil, fmt.Errorf("eink: off-palette pixel at byte %d", i)
		}
		out[j] = pal[hi].Code&0x0f<<4 | pal[lo].Code&0x0f
	}
	return out, nil
}
