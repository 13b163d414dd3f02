// Package convert holds the command line operations built on the ppm codec:
// resaving a single P3 file and converting whole folders between P3 and other
// image formats.
package convert

import (
	"fmt"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"ppmio/palette"
	"ppmio/parallel"
	"ppmio/ppm"

	"github.com/alecthomas/kong"
)

type CLICmd struct {
	Scan       string        `help:"Source folder to scan" default:"."`
	Dest       string        `help:"Destination folder for converted pictures. Relative to scan dir if not absolute." default:"converted"`
	Format     string        `help:"Output format. 'same' keeps the input format when it can be written, PPM otherwise." enum:"same,ppm,png,jpeg,gif,bmp,tiff,pnm" default:"ppm"`
	Strict     bool          `help:"Reject P3 channel values above the declared max value" default:"false" group:"ppm"`
	MaxPixels  int           `help:"Largest P3 image accepted, in pixels" default:"0" group:"ppm"`
	MaxValue   int           `help:"Max value written in P3 headers (15 when 0)" default:"0" group:"ppm"`
	ComputeMax bool          `help:"Write the largest channel value as P3 max value" default:"false" group:"ppm"`
	Resize     bool          `help:"Resize image" default:"false" group:"resize"`
	Width      int           `help:"Max width" group:"resize"`
	Height     int           `help:"Max height" group:"resize"`
	Crop       bool          `help:"Crop image to maintain requested aspect ratio" default:"false" group:"resize"`
	Fill       string        `help:"If given and not cropping, will fill background with this color to maintain destination aspect ratio" group:"resize"`
	Palette    string        `help:"Palette name (bw, gray16, vga16, websafe, plan9) or PAL file in RIFF format to apply" group:"palette"`
	Dither     bool          `help:"Apply dithering" default:"false" group:"palette"`
	FillColor  color.Color   `kong:"-"`
	Colors     color.Palette `kong:"-"`
}

func (c *CLICmd) Validate(kctx *kong.Context) error {
	scanDir, err := filepath.Abs(c.Scan)
	var info os.FileInfo
	if err == nil {
		if info, err = os.Stat(scanDir); err == nil && !info.IsDir() {
			err = fmt.Errorf("not a directory")
		}
	}
	if err != nil {
		return fmt.Errorf("invalid scan path %q: %w", c.Scan, err)
	}
	c.Scan = scanDir

	if !filepath.IsAbs(c.Dest) {
		c.Dest = filepath.Join(scanDir, c.Dest)
	}

	if c.Resize {
		switch {
		case (c.Width < 0):
			return fmt.Errorf("invalid resize width: %d", c.Width)
		case (c.Height < 0):
			return fmt.Errorf("invalid resize height: %d", c.Height)
		case (c.Width == 0) && (c.Height == 0):
			return fmt.Errorf("no resize dimensions given")
		}
	}

	if (!c.Crop) && (c.Fill != "") {
		if c.FillColor, err = parseHexToColor(c.Fill); err != nil {
			return err
		}
	}

	if c.Palette != "" {
		if c.Colors, err = palette.Load(c.Palette); err != nil {
			return err
		}
	}

	switch {
	case c.MaxPixels < 0:
		return fmt.Errorf("invalid max pixels: %d", c.MaxPixels)
	case c.MaxValue < 0 || c.MaxValue > ppm.MaxChannelValue:
		return fmt.Errorf("invalid max value: %d", c.MaxValue)
	}

	return nil
}

func (c *CLICmd) Run(worker parallel.WorkerFunc, wait parallel.WaitFunc) error {
	if err := os.MkdirAll(c.Dest, 0o755); err != nil {
		return fmt.Errorf("unable to create destination folder %q: %w", c.Dest, err)
	}

	files, err := os.ReadDir(c.Scan)
	if err != nil {
		return fmt.Errorf("unable to read folder %q: %w", c.Scan, err)
	}

	var processedCount, errCount atomic.Uint64
	for _, file := range files {
		if file.IsDir() {
			continue
		}

		worker(func(fileName string) func() {
			return func() {
				logger := slog.Default().With("file", filepath.Join(c.Scan, fileName))
				if err := c.convert(logger, fileName); err != nil {
					errCount.Add(1)
					logger.Error("could not convert image", "error", err)
					return
				}
				processedCount.Add(1)
			}
		}(file.Name()))
	}

	wait(true)

	processed := processedCount.Load()
	errors := errCount.Load()
	slog.Info("stats", "processed", processed, "errors", errors,
		"total", processed+errors)

	if errors > 0 {
		return fmt.Errorf("error processing %d files", errors)
	}
	return nil
}

func (c *CLICmd) convert(logger *slog.Logger, fileName string) error {
	dec := &ppm.Decoder{
		Logger:    logger,
		MaxPixels: c.MaxPixels,
		Strict:    c.Strict,
	}
	img, imgType, err := decodeFile(filepath.Join(c.Scan, fileName), dec)
	if err != nil {
		return err
	}
	defer release(img)
	logger.Debug("decoded", "type", imgType, "bounds", img.Bounds())

	if c.Resize {
		img = resize(logger, img, c.Width, c.Height, c.Crop, c.FillColor)
	}

	if len(c.Colors) > 0 {
		img = repalette(logger.With("palette", c.Palette), img, c.Colors, c.Dither)
	}

	outType := c.Format
	if outType == "same" {
		outType = imgType
		if !isFormat(outType) {
			logger.Warn("no encoder for input format, writing PPM", "type", imgType)
			outType = "ppm"
		}
	}

	enc := &ppm.Encoder{
		Logger:          logger,
		MaxValue:        c.MaxValue,
		ComputeMaxValue: c.ComputeMax,
	}
	if err = save(img, outType, c.Dest, fileName, enc); err != nil {
		return fmt.Errorf("could not save image in %q: %w", c.Dest, err)
	}
	return nil
}

func isFormat(name string) bool {
	for _, f := range Formats {
		if f == name {
			return true
		}
	}
	return false
}

func parseHexToColor(s string) (color.Color, error) {
	var c color.RGBA
	switch len(s) {
	case 4:
		n, err := fmt.Sscanf(s, "#%1x%1x%1x", &c.R, &c.G, &c.B)
		if err != nil {
			return nil, fmt.Errorf("could not read color: %w", err)
		} else if n < 3 {
			return nil, fmt.Errorf("insufficient fill color fields: %d", n)
		}

		c.R |= c.R << 4
		c.G |= c.G << 4
		c.B |= c.B << 4
		c.A = 0xFF
	case 7:
		n, err := fmt.Sscanf(s, "#%2x%2x%2x", &c.R, &c.G, &c.B)
		if err != nil {
			return nil, fmt.Errorf("could not read color: %w", err)
		} else if n < 3 {
			return nil, fmt.Errorf("insufficient fill color fields: %d", n)
		}

		c.A = 0xFF
	default:
		return nil, fmt.Errorf("invalid fill color, should be #RGB or #RRGGBB")
	}

	return c, nil
}
