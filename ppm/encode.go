package ppm

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
)

// MaxChannelValue is the largest max value the decoder accepts, and so the
// largest one the encoder writes.
const MaxChannelValue = 255

// DefaultMaxValue is written as the max value line unless the Encoder says
// otherwise. It does not reflect the channel values actually present.
const DefaultMaxValue = 15

// field widths used to align the written channels
const (
	firstFieldWidth = 2
	fieldWidth      = 3
)

// Encoder writes P3 images. The zero value is ready to use.
type Encoder struct {
	// Logger receives diagnostics; slog.Default() when nil.
	Logger *slog.Logger
	// MaxValue is written in the header; DefaultMaxValue when zero. Values
	// outside 0..MaxChannelValue make Encode fail with ErrInvalidArgument.
	MaxValue int
	// ComputeMaxValue writes the largest channel value found in the grid
	// instead of MaxValue, kept within 1..MaxChannelValue.
	ComputeMaxValue bool
}

// Encode writes g to w using a zero Encoder.
func Encode(w io.Writer, g *Grid) error {
	return (&Encoder{}).Encode(w, g)
}

// Save writes g to the named file using a zero Encoder.
func Save(path string, g *Grid) error {
	return (&Encoder{}).Save(path, g)
}

// Save creates or truncates the named file and writes g to it. A failed write
// leaves whatever was already written in place.
func (e *Encoder) Save(path string, g *Grid) (err error) {
	logger := e.logger().With("file", path)
	if path == "" {
		logger.Error("attempt to save to empty filename")
		return fmt.Errorf("%w: empty filename", ErrInvalidArgument)
	}
	if !g.Valid() {
		logger.Error("attempt to save empty ppm")
		return fmt.Errorf("could not save %q: %w", path, ErrInvalidGrid)
	}
	if err = e.validate(); err != nil {
		logger.Error("invalid encoder settings", "error", err)
		return fmt.Errorf("could not save %q: %w", path, err)
	}

	f, err := os.Create(path)
	if err != nil {
		logger.Error("unable to open file for writing", "error", err)
		return fmt.Errorf("%w: unable to open %q for writing: %w", ErrIO, path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			logger.Error("could not close file", "error", closeErr)
			err = errors.Join(err, fmt.Errorf("%w: could not close %q: %w", ErrIO, path, closeErr))
		}
	}()

	enc := *e
	enc.Logger = logger
	if err = enc.Encode(f, g); err != nil {
		logger.Error("could not save ppm", "error", err)
		return fmt.Errorf("could not save %q: %w", path, err)
	}
	return nil
}

// Encode writes g to w in P3 format.
func (e *Encoder) Encode(w io.Writer, g *Grid) error {
	if !g.Valid() {
		return ErrInvalidGrid
	}
	if err := e.validate(); err != nil {
		return err
	}

	maxVal := e.maxValue(g)
	bw := bufio.NewWriter(w)

	line := make([]byte, 0, 64)
	line = append(line, "P3\n"...)
	line = strconv.AppendInt(line, int64(g.cols), 10)
	line = append(line, ' ')
	line = strconv.AppendInt(line, int64(g.rows), 10)
	line = append(line, '\n')
	line = strconv.AppendInt(line, int64(maxVal), 10)
	line = append(line, '\n')
	if _, err := bw.Write(line); err != nil {
		return fmt.Errorf("%w: writing header: %w", ErrIO, err)
	}

	for r := range g.rows {
		line = line[:0]
		for c, p := range g.Row(r) {
			width := fieldWidth
			if c == 0 {
				width = firstFieldWidth
			}
			line = appendField(line, p.R, width, c == 0)
			line = appendField(line, p.G, fieldWidth, false)
			line = appendField(line, p.B, fieldWidth, false)
		}
		line = append(line, '\n')
		if _, err := bw.Write(line); err != nil {
			return fmt.Errorf("%w: writing row %d: %w", ErrIO, r, err)
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("%w: flushing: %w", ErrIO, err)
	}
	e.logger().Debug("encoded ppm", "cols", g.cols, "rows", g.rows, "maxval", maxVal)
	return nil
}

// appendField right-aligns v in width columns. A value that fills its field
// gets a leading space unless it starts the row, so adjacent fields never run
// together.
func appendField(dst []byte, v, width int, rowStart bool) []byte {
	var num [20]byte
	digits := strconv.AppendInt(num[:0], int64(v), 10)
	switch {
	case len(digits) < width:
		for range width - len(digits) {
			dst = append(dst, ' ')
		}
	case !rowStart:
		dst = append(dst, ' ')
	}
	return append(dst, digits...)
}

func (e *Encoder) maxValue(g *Grid) int {
	if !e.ComputeMaxValue {
		if e.MaxValue > 0 {
			return e.MaxValue
		}
		return DefaultMaxValue
	}

	maxVal := 1
	for _, p := range g.pix {
		maxVal = max(maxVal, p.R, p.G, p.B)
	}
	return min(maxVal, MaxChannelValue)
}

func (e *Encoder) validate() error {
	if e.MaxValue < 0 || e.MaxValue > MaxChannelValue {
		return fmt.Errorf("%w: max value %d outside 0..%d", ErrInvalidArgument, e.MaxValue, MaxChannelValue)
	}
	return nil
}

func (e *Encoder) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.Default()
	}
	return e.Logger
}
