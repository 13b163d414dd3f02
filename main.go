package main

import (
	"fmt"
	"log/slog"
	"os"

	"ppmio/convert"
	"ppmio/parallel"

	"github.com/alecthomas/kong"
)

type CLI struct {
	Config    kong.ConfigFlag `help:"JSON file with default flag values" env:"PPMIO_CONFIG"`
	LogLevel  string          `help:"Minimum level of logged messages" enum:"debug,info,warn,error" default:"info" env:"PPMIO_LOG_LEVEL"`
	LogFormat string          `help:"Log output format" enum:"text,json" default:"text" env:"PPMIO_LOG_FORMAT"`
	Workers   int             `help:"Files converted concurrently, 0 for one per CPU" default:"0"`

	Copy    convert.CopyCmd `cmd:"" help:"Load a P3 image and save it again"`
	Convert convert.CLICmd  `cmd:"" help:"Convert every image of a folder to P3 or another format"`
}

func newLogger(level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	opts := &slog.HandlerOptions{Level: lvl}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts)), nil
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts)), nil
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("ppmio"),
		kong.Description("Load, save and convert plain PPM (P3) images."),
		kong.UsageOnError(),
		kong.Configuration(kong.JSON, "/etc/ppmio.json", "~/.config/ppmio.json"),
	)

	logger, err := newLogger(cli.LogLevel, cli.LogFormat)
	kctx.FatalIfErrorf(err)
	slog.SetDefault(logger)

	pool := parallel.Start(cli.Workers)
	defer pool.Close()

	slog.Debug("running", "command", kctx.Command(), "workers", pool.Workers())
	err = kctx.Run(parallel.WorkerFunc(pool.Do), parallel.WaitFunc(pool.Wait))
	if err != nil {
		slog.Error("failed", "command", kctx.Command(), "error", err)
		pool.Close()
		os.Exit(1)
	}
}
