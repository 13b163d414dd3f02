// Package ppm loads and saves plain-text PPM (P3) images.
//
// A decoded image is a *Grid: a rows x cols array of RGB pixels held in one
// contiguous slice. Grids come from Allocate, Decode or FromImage and belong to
// the caller, who releases them with Release once done:
//
//	g, err := ppm.Load("in.ppm")
//	if err != nil {
//		return err
//	}
//	defer g.Release()
//	return ppm.Save("out.ppm", g)
//
// The header is read in a fixed order: the magic number, optional '#' comment
// lines, a "cols rows" line, then the max value (1-255). Channel values are
// not checked against the max value unless Decoder.Strict is set.
//
// The encoder writes a max value of 15 by default regardless of the pixel
// data; set Encoder.MaxValue or Encoder.ComputeMaxValue to write a different
// one. Either way the written max value never exceeds 255, the largest the
// decoder reads back: a computed value is capped there and an explicit one
// above it is rejected. Binary (P6) files are not supported.
//
// Errors can be matched with errors.Is against ErrAllocation, ErrParse, ErrIO,
// ErrInvalidArgument and ErrInvalidGrid, or against the finer parse kinds
// such as ErrInvalidMagic and ErrTruncated.
package ppm
