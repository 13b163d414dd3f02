package ppm

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// maxTokenLen bounds a single numeric token; nothing valid comes close.
const maxTokenLen = 32

// Decoder reads P3 images. The zero value is ready to use.
type Decoder struct {
	// Logger receives diagnostics; slog.Default() when nil.
	Logger *slog.Logger
	// MaxPixels caps rows*cols; DefaultMaxPixels when zero.
	MaxPixels int
	// Strict rejects channel values above the declared max value. By default
	// they are stored as read.
	Strict bool
}

type header struct {
	rows   int
	cols   int
	maxVal int
}

// Decode reads a P3 image from r using a zero Decoder.
func Decode(r io.Reader) (*Grid, error) {
	return (&Decoder{}).Decode(r)
}

// DecodeConfig reads only the header of a P3 image.
func DecodeConfig(r io.Reader) (image.Config, error) {
	h, err := readHeader(newScanner(r))
	if err != nil {
		return image.Config{}, err
	}
	return image.Config{
		ColorModel: color.RGBAModel,
		Width:      h.cols,
		Height:     h.rows,
	}, nil
}

// Load opens the named file and decodes it using a zero Decoder.
// NOTE: the caller owns the grid and should call Release when done with it.
func Load(path string) (*Grid, error) {
	return (&Decoder{}).Load(path)
}

func (d *Decoder) Load(path string) (*Grid, error) {
	logger := d.logger().With("file", path)
	if path == "" {
		logger.Error("empty filename provided to load")
		return nil, fmt.Errorf("%w: empty filename", ErrInvalidArgument)
	}

	f, err := os.Open(path)
	if err != nil {
		logger.Error("could not open file", "error", err)
		return nil, fmt.Errorf("%w: could not open file %q: %w", ErrIO, path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			logger.Error("could not close file", "error", closeErr)
		}
	}()

	dec := *d
	dec.Logger = logger
	g, err := dec.Decode(f)
	if err != nil {
		logger.Error("could not load ppm", "error", err)
		return nil, fmt.Errorf("could not load %q: %w", path, err)
	}
	return g, nil
}

// Decode reads a complete P3 image from r. On failure no grid is returned and
// any partially filled storage has already been released.
func (d *Decoder) Decode(r io.Reader) (*Grid, error) {
	logger := d.logger()
	s := newScanner(r)

	h, err := readHeader(s)
	if err != nil {
		return nil, err
	}
	logger.Debug("read ppm header", "cols", h.cols, "rows", h.rows, "maxval", h.maxVal)

	g, err := allocate(h.rows, h.cols, d.MaxPixels, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create ppm: %w", err)
	}

	if err = d.readBody(s, g, h); err != nil {
		g.Release()
		return nil, err
	}
	return g, nil
}

func (d *Decoder) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.Default()
	}
	return d.Logger
}

func readHeader(s *scanner) (header, error) {
	var h header

	b, err := s.r.ReadByte()
	if err != nil {
		return h, s.headerFailure("magic number", ErrInvalidMagic, err)
	}
	if b != 'P' {
		return h, headerError("magic number", fmt.Errorf("%w: starts with %q", ErrInvalidMagic, b))
	}
	tok, err := s.token()
	if err != nil {
		return h, s.headerFailure("magic number", ErrInvalidMagic, err)
	}
	magic, err := strconv.ParseUint(tok, 10, 32)
	if err != nil {
		return h, headerError("magic number", fmt.Errorf("%w: P%s", ErrInvalidMagic, tok))
	}
	if magic != 3 {
		return h, headerError("magic number", fmt.Errorf("%w: P%d", ErrUnsupportedFormat, magic))
	}

	// some ppm files have # comment lines after the magic number
	if err = s.skipSpace(); err != nil {
		return h, s.headerFailure("dimensions", ErrTruncated, err)
	}
	var line string
	for {
		line, err = s.line()
		if err != nil {
			kind := ErrTruncated
			if !isReadError(err) {
				kind = ErrInvalidDimensions
			}
			return h, s.headerFailure("dimensions", kind, err)
		}
		if !strings.HasPrefix(line, "#") {
			break
		}
	}

	fields := strings.Fields(line)
	if len(fields) < 2 {
		return h, headerError("dimensions", fmt.Errorf("%w: %q", ErrInvalidDimensions, strings.TrimSpace(line)))
	}
	cols, colErr := parseUint(fields[0])
	rows, rowErr := parseUint(fields[1])
	if colErr != nil || rowErr != nil || cols <= 0 || rows <= 0 {
		return h, headerError("dimensions", fmt.Errorf("%w: %s %s", ErrInvalidDimensions, fields[0], fields[1]))
	}

	tok, err = s.token()
	if err != nil {
		return h, s.headerFailure("max value", ErrInvalidMaxValue, err)
	}
	maxVal, err := strconv.ParseUint(tok, 10, 32)
	if err != nil || maxVal == 0 || maxVal > 255 {
		return h, headerError("max value", fmt.Errorf("%w: %s", ErrInvalidMaxValue, tok))
	}

	h.rows, h.cols, h.maxVal = rows, cols, int(maxVal)
	return h, nil
}

func (d *Decoder) readBody(s *scanner, g *Grid, h header) error {
	var read int
	for r := range h.rows {
		row := g.Row(r)
		for c := range h.cols {
			var ch [3]int
			for i := range ch {
				v, err := s.channel()
				if err != nil {
					return bodyError(r, c, err)
				}
				if d.Strict && v > h.maxVal {
					return &ParseError{Step: "pixel data", Row: r, Col: c,
						Err: fmt.Errorf("%w: %d > %d", ErrChannelRange, v, h.maxVal)}
				}
				ch[i] = v
			}
			row[c] = Pixel{R: ch[0], G: ch[1], B: ch[2]}
			read++
		}
	}

	if read != h.rows*h.cols {
		return &ParseError{Step: "pixel data", Row: -1, Col: -1,
			Err: fmt.Errorf("%w: read %d, expected %d", ErrPixelCount, read, h.rows*h.cols)}
	}
	return nil
}

func bodyError(r, c int, err error) error {
	if errors.Is(err, ErrIO) {
		return fmt.Errorf("reading pixel data at r: %d, c: %d: %w", r, c, err)
	}
	return &ParseError{Step: "pixel data", Row: r, Col: c, Err: err}
}

type scanner struct {
	r   *bufio.Reader
	buf []byte
}

func newScanner(r io.Reader) *scanner {
	return &scanner{
		r:   bufio.NewReader(r),
		buf: make([]byte, 0, maxTokenLen),
	}
}

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}

// skipSpace consumes whitespace up to the next non-space byte.
func (s *scanner) skipSpace() error {
	for {
		b, err := s.r.ReadByte()
		if err != nil {
			return err
		}
		if !isSpace(b) {
			return s.r.UnreadByte()
		}
	}
}

// token returns the next whitespace delimited word. The delimiter is consumed.
func (s *scanner) token() (string, error) {
	if err := s.skipSpace(); err != nil {
		return "", err
	}
	s.buf = s.buf[:0]
	for {
		b, err := s.r.ReadByte()
		if err == io.EOF {
			break
		} else if err != nil {
			return "", err
		}
		if isSpace(b) {
			break
		}
		if len(s.buf) == maxTokenLen {
			return "", &tokenError{msg: fmt.Sprintf("token longer than %d bytes", maxTokenLen)}
		}
		s.buf = append(s.buf, b)
	}
	return string(s.buf), nil
}

// line returns the next line without its terminator. A final line without a
// newline is returned as is; io.EOF is only reported when nothing was left.
// Lines longer than the read buffer are rejected.
func (s *scanner) line() (string, error) {
	line, err := s.r.ReadSlice('\n')
	if err == bufio.ErrBufferFull {
		return "", &tokenError{msg: fmt.Sprintf("header line longer than %d bytes", s.r.Size())}
	}
	if err == io.EOF && len(line) > 0 {
		err = nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(line), "\r\n"), nil
}

func (s *scanner) channel() (int, error) {
	tok, err := s.token()
	if err == io.EOF {
		return 0, ErrTruncated
	} else if err != nil {
		if isReadError(err) {
			return 0, fmt.Errorf("%w: %w", ErrIO, err)
		}
		return 0, fmt.Errorf("%w: %w", ErrInvalidPixel, err)
	}
	v, err := parseUint(tok)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPixel, tok)
	}
	return v, nil
}

// parseUint accepts plain decimal digits only, no sign, fitting in an int.
func parseUint(tok string) (int, error) {
	v, err := strconv.ParseUint(tok, 10, strconv.IntSize-1)
	return int(v), err
}

// headerFailure classifies err: end of data becomes kind, underlying reader
// failures become ErrIO.
func (s *scanner) headerFailure(step string, kind, err error) error {
	if err == io.EOF {
		if kind == ErrTruncated {
			return headerError(step, ErrTruncated)
		}
		return headerError(step, fmt.Errorf("%w: %w", kind, ErrTruncated))
	}
	if isReadError(err) {
		return fmt.Errorf("reading %s: %w: %w", step, ErrIO, err)
	}
	return headerError(step, fmt.Errorf("%w: %w", kind, err))
}

// isReadError tells reader failures apart from the scanner's own token errors.
func isReadError(err error) bool {
	var te *tokenError
	return !errors.As(err, &te)
}

type tokenError struct {
	msg string
}

func (e *tokenError) Error() string {
	return e.msg
}
