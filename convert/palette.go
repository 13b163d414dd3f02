package convert

import (
	"image"
	"image/color"
	"log/slog"

	"golang.org/x/image/draw"
)

// repalette maps every pixel of img to the nearest color of pal, optionally
// with Floyd-Steinberg error diffusion.
func repalette(logger *slog.Logger, img image.Image, pal color.Palette, dither bool) image.Image {
	logger.Info("applying palette", "colors", len(pal), "dither", dither)
	sr := img.Bounds()
	dr := image.Rect(0, 0, sr.Dx(), sr.Dy())
	dest := image.NewPaletted(dr, pal)

	if dither {
		draw.FloydSteinberg.Draw(dest, dr, img, sr.Min)
	} else {
		draw.Draw(dest, dr, img, sr.Min, draw.Src)
	}
	return dest
}
