// Package palette provides the palettes the converter can reduce images to:
// a few built-in ones and RIFF PAL files.
package palette

import (
	"fmt"
	"image/color"
	stdpalette "image/color/palette"
	"log/slog"
	"os"
	"strings"
)

var builtin = map[string]func() color.Palette{
	"bw": func() color.Palette {
		return color.Palette{color.Black, color.White}
	},
	"gray16": func() color.Palette {
		pal := make(color.Palette, 16)
		for i := range pal {
			pal[i] = color.Gray{Y: uint8(i * 0x11)}
		}
		return pal
	},
	"vga16": func() color.Palette {
		pal := make(color.Palette, 16)
		for i := range pal {
			hi := uint8(0xAA)
			if i >= 8 {
				hi = 0xFF
			}
			lo := uint8(0)
			if i >= 8 {
				lo = 0x55
			}
			c := color.RGBA{R: lo, G: lo, B: lo, A: 0xFF}
			if i&4 != 0 {
				c.R = hi
			}
			if i&2 != 0 {
				c.G = hi
			}
			if i&1 != 0 {
				c.B = hi
			}
			pal[i] = c
		}
		// brown instead of dark yellow
		pal[6] = color.RGBA{R: 0xAA, G: 0x55, A: 0xFF}
		return pal
	},
	"websafe": func() color.Palette {
		return append(color.Palette(nil), stdpalette.WebSafe...)
	},
	"plan9": func() color.Palette {
		return append(color.Palette(nil), stdpalette.Plan9...)
	},
}

// Names lists the built-in palettes.
func Names() []string {
	return []string{"bw", "gray16", "vga16", "websafe", "plan9"}
}

// Load returns the built-in palette called name, or reads name as a RIFF PAL
// file and merges every palette it holds.
func Load(name string) (color.Palette, error) {
	if gen, ok := builtin[strings.ToLower(name)]; ok {
		return gen(), nil
	}

	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("unknown palette %q: %w", name, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			slog.Error("could not close palette file", "name", name, "error", closeErr)
		}
	}()

	pals, err := ReadFrom(f)
	if err != nil {
		return nil, fmt.Errorf("could not load palettes from %q: %w", name, err)
	}

	var res color.Palette
	for _, pal := range pals {
		res = append(res, pal...)
	}
	if len(res) == 0 {
		return nil, fmt.Errorf("palette file %q holds no colors", name)
	}
	return res, nil
}
