package convert

import (
	"image"
	"image/color"
	"log/slog"
	"math"

	"golang.org/x/image/draw"
)

// resize scales img to fit width x height, 0 keeping the source dimension.
// With crop the source is trimmed to the target aspect ratio; otherwise the
// result shrinks to keep the ratio, or is padded with fillColor when given.
func resize(logger *slog.Logger, img image.Image, width, height int, crop bool, fillColor color.Color) image.Image {
	srcBounds := img.Bounds()
	srcWidth := float64(srcBounds.Dx())
	srcHeight := float64(srcBounds.Dy())

	destWidth := float64(width)
	if destWidth == 0 {
		destWidth = srcWidth
	}

	destHeight := float64(height)
	if destHeight == 0 {
		destHeight = srcHeight
	}

	if (srcWidth == destWidth) && (srcHeight == destHeight) {
		return img
	}

	destSize := image.Rect(0, 0, int(destWidth), int(destHeight))
	destBounds := destSize

	srcAR := srcWidth / srcHeight
	destAR := destWidth / destHeight
	var fill bool
	switch {
	case crop && srcAR < destAR:
		dh := int(math.Round((srcHeight - srcWidth/destAR) / 2))
		srcBounds.Min.Y += dh
		srcBounds.Max.Y -= dh
	case crop && srcAR > destAR:
		dw := int(math.Round((srcWidth - srcHeight*destAR) / 2))
		srcBounds.Min.X += dw
		srcBounds.Max.X -= dw
	case !crop && srcAR < destAR:
		dw := destHeight * srcAR
		if fillColor == nil {
			destSize.Max.X = max(1, int(math.Round(dw)))
			destBounds.Max.X = destSize.Max.X
		} else if fill = destWidth > dw; fill {
			idw := int(math.Round((destWidth - dw) / 2))
			destBounds.Min.X += idw
			destBounds.Max.X -= idw
		}
	case !crop && srcAR > destAR:
		dh := destWidth / srcAR
		if fillColor == nil {
			destSize.Max.Y = max(1, int(math.Round(dh)))
			destBounds.Max.Y = destSize.Max.Y
		} else if fill = destHeight > dh; fill {
			idh := int(math.Round((destHeight - dh) / 2))
			destBounds.Min.Y += idh
			destBounds.Max.Y -= idh
		}
	}

	logger.Info("resizing", "width", destBounds.Dx(), "height", destBounds.Dy())
	dest := image.NewRGBA(destSize)
	if fill {
		draw.Draw(dest, destSize, image.NewUniform(fillColor), destSize.Min, draw.Src)
	}
	draw.CatmullRom.Scale(dest, destBounds, img, srcBounds, draw.Over, nil)

	return dest
}
