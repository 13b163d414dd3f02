package convert

import (
	"fmt"
	"log/slog"

	"github.com/alecthomas/kong"

	"ppmio/ppm"
)

// CopyCmd loads a single P3 file and saves it again through the codec.
type CopyCmd struct {
	Src        string `arg:"" help:"P3 file to load"`
	Dest       string `arg:"" help:"Destination file"`
	Force      bool   `help:"Overwrite the destination if it already exists" default:"false"`
	Strict     bool   `help:"Reject channel values above the declared max value" default:"false"`
	MaxValue   int    `help:"Max value written in the header (15 when 0)" default:"0"`
	ComputeMax bool   `help:"Write the largest channel value as max value" default:"false"`
}

func (c *CopyCmd) Validate(kctx *kong.Context) error {
	if c.MaxValue < 0 || c.MaxValue > ppm.MaxChannelValue {
		return fmt.Errorf("invalid max value: %d", c.MaxValue)
	}
	return nil
}

func (c *CopyCmd) Run() error {
	logger := slog.Default().With("from", c.Src, "to", c.Dest)

	if err := checkFile(c.Src, c.Dest, c.Force); err != nil {
		return err
	}

	dec := ppm.Decoder{Logger: logger, Strict: c.Strict}
	g, err := dec.Load(c.Src)
	if err != nil {
		return err
	}
	defer g.Release()
	logger.Info("ppm loaded", "rows", g.Rows(), "cols", g.Cols())

	enc := ppm.Encoder{
		Logger:          logger,
		MaxValue:        c.MaxValue,
		ComputeMaxValue: c.ComputeMax,
	}
	if err = enc.Save(c.Dest, g); err != nil {
		return fmt.Errorf("could not copy %q to %q: %w", c.Src, c.Dest, err)
	}
	logger.Info("ppm saved")
	return nil
}
