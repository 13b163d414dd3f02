package ppm

import (
	"errors"
	"fmt"
)

var (
	ErrAllocation      = errors.New("cannot allocate pixel storage")
	ErrParse           = errors.New("malformed ppm data")
	ErrIO              = errors.New("ppm i/o failure")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrInvalidGrid     = errors.New("empty or released grid")
)

var (
	ErrInvalidMagic      = fmt.Errorf("%w: invalid magic number", ErrParse)
	ErrUnsupportedFormat = fmt.Errorf("%w: unsupported format", ErrParse)
	ErrInvalidDimensions = fmt.Errorf("%w: invalid width or height", ErrParse)
	ErrInvalidMaxValue   = fmt.Errorf("%w: invalid max value", ErrParse)
	ErrInvalidPixel      = fmt.Errorf("%w: invalid pixel value", ErrParse)
	ErrTruncated         = fmt.Errorf("%w: unexpected end of data", ErrParse)
	ErrPixelCount        = fmt.Errorf("%w: pixel count mismatch", ErrParse)
	ErrChannelRange      = fmt.Errorf("%w: channel above max value", ErrParse)
)

// ParseError reports which decoding step failed. Row and Col are -1 when the
// failure happened before the body.
type ParseError struct {
	Step string
	Row  int
	Col  int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Row < 0 {
		return fmt.Sprintf("reading %s: %v", e.Step, e.Err)
	}
	return fmt.Sprintf("reading %s at r: %d, c: %d: %v", e.Step, e.Row, e.Col, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func headerError(step string, err error) error {
	return &ParseError{Step: step, Row: -1, Col: -1, Err: err}
}
