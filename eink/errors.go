package eink

import "fmt"

// DecodeError reports input bytes that could not be decoded as an
// image.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("eink: decode: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ChannelMismatchError reports a decoded image that could not be
// normalized to three interleaved 8-bit channels.
type ChannelMismatchError struct {
	Got int
}

func (e *ChannelMismatchError) Error() string {
	return fmt.Sprintf("eink: image has %d channels, want 3", e.Got)
}

// DimensionMismatchError reports a resize that did not produce the
// requested target dimensions.
type DimensionMismatchError struct {
	WantWidth, WantHeight int
	GotWidth, GotHeight   int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("eink: resized to %dx%d, want %dx%d",
		e.GotWidth, e.GotHeight, e.WantWidth, e.WantHeight)
}
