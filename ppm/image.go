package ppm

import (
	"fmt"
	"image"
	"image/color"
	"io"
)

// Magic is the plain PPM magic number, the only one this package reads.
const Magic = "P3"

func init() {
	image.RegisterFormat("ppm", Magic, decodeImage, DecodeConfig)
}

func decodeImage(r io.Reader) (image.Image, error) {
	g, err := Decode(r)
	if err != nil {
		return nil, err
	}
	return g, nil
}

var _ image.Image = (*Grid)(nil)

func (g *Grid) ColorModel() color.Model {
	return color.RGBAModel
}

func (g *Grid) Bounds() image.Rectangle {
	if !g.Valid() {
		return image.Rectangle{}
	}
	return image.Rect(0, 0, g.cols, g.rows)
}

// At returns the pixel at column x, row y. Channels above 255 saturate.
func (g *Grid) At(x, y int) color.Color {
	if !(image.Point{X: x, Y: y}.In(g.Bounds())) {
		return color.RGBA{}
	}
	p := g.index[y][x]
	return color.RGBA{
		R: clamp8(p.R),
		G: clamp8(p.G),
		B: clamp8(p.B),
		A: 0xFF,
	}
}

func clamp8(v int) uint8 {
	return uint8(min(max(v, 0), 0xFF))
}

// FromImage copies img into a new grid, dropping alpha.
// NOTE: the caller owns the grid and should call Release when done with it.
func FromImage(img image.Image) (*Grid, error) {
	b := img.Bounds()
	g, err := Allocate(b.Dy(), b.Dx())
	if err != nil {
		return nil, fmt.Errorf("could not create ppm from %v image: %w", b, err)
	}

	for y := range g.rows {
		row := g.index[y]
		for x := range row {
			c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			row[x] = Pixel{R: int(c.R), G: int(c.G), B: int(c.B)}
		}
	}
	return g, nil
}
