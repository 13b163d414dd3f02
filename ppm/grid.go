package ppm

import (
	"fmt"
	"log/slog"
	"math"
)

// DefaultMaxPixels bounds the storage Allocate will request.
const DefaultMaxPixels = 1 << 28

// Pixel is one RGB sample. Channels hold the values as read, not scaled.
type Pixel struct {
	R int
	G int
	B int
}

// Grid is a rows x cols array of pixels backed by a single allocation. The
// row index holds one slice per row pointing into that allocation at stride
// cols.
type Grid struct {
	rows   int
	cols   int
	pix    []Pixel
	index  [][]Pixel
	logger *slog.Logger
}

// Allocate creates a grid with zeroed pixels.
// NOTE: the caller owns the grid and should call Release when done with it.
func Allocate(rows, cols int) (*Grid, error) {
	return allocate(rows, cols, DefaultMaxPixels, nil)
}

func allocate(rows, cols, maxPixels int, logger *slog.Logger) (*Grid, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("%w: grid size %dx%d", ErrInvalidArgument, cols, rows)
	}
	if logger == nil {
		logger = slog.Default()
	}
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}

	if rows > math.MaxInt/cols {
		return nil, fmt.Errorf("%w: %dx%d overflows", ErrAllocation, cols, rows)
	}
	n := rows * cols
	if n > maxPixels {
		return nil, fmt.Errorf("%w: %d pixels exceeds limit of %d", ErrAllocation, n, maxPixels)
	}

	pix := make([]Pixel, n)
	index := make([][]Pixel, rows)
	for r := range index {
		index[r] = pix[r*cols : (r+1)*cols : (r+1)*cols]
	}

	return &Grid{
		rows:   rows,
		cols:   cols,
		pix:    pix,
		index:  index,
		logger: logger,
	}, nil
}

// Release drops the grid's storage. Releasing a nil or already released grid
// only logs a warning.
func (g *Grid) Release() {
	if !g.Valid() {
		logger := slog.Default()
		if g != nil && g.logger != nil {
			logger = g.logger
		}
		logger.Warn("attempt to release an empty ppm grid")
		return
	}

	g.pix = nil
	g.index = nil
	g.rows, g.cols = -1, -1
}

// Valid reports whether g holds pixel storage.
func (g *Grid) Valid() bool {
	return g != nil && g.pix != nil
}

// Rows returns the grid height, or -1 for a nil or released grid.
func (g *Grid) Rows() int {
	if !g.Valid() {
		return -1
	}
	return g.rows
}

// Cols returns the grid width, or -1 for a nil or released grid.
func (g *Grid) Cols() int {
	if !g.Valid() {
		return -1
	}
	return g.cols
}

// Pixel returns the pixel at row, col. It panics when either is out of range.
func (g *Grid) Pixel(row, col int) Pixel {
	return g.index[row][col]
}

// SetPixel stores p at row, col. It panics when either is out of range.
func (g *Grid) SetPixel(row, col int, p Pixel) {
	g.index[row][col] = p
}

// Row returns the pixels of one row. The slice aliases the grid storage.
func (g *Grid) Row(row int) []Pixel {
	return g.index[row]
}

// Pix returns the whole row-major storage. The slice aliases the grid storage;
// the pixel at (row, col) is Pix()[row*Cols()+col].
func (g *Grid) Pix() []Pixel {
	return g.pix
}
