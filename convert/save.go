package convert

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"ppmio/ppm"

	pnm "github.com/jbuchbinder/gopnm"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/vp8l"
	_ "golang.org/x/image/webp"
)

// Formats lists the output formats save understands.
var Formats = []string{"ppm", "png", "jpeg", "gif", "bmp", "tiff", "pnm"}

func extension(outType string) string {
	switch outType {
	case "jpeg":
		return ".jpg"
	case "tiff":
		return ".tif"
	}
	return "." + outType
}

// decodeFile decodes a plain PPM with dec and anything else with the
// registered image decoders. A *ppm.Grid result must be released.
func decodeFile(path string, dec *ppm.Decoder) (image.Image, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("could not open image %q: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			slog.Error("could not close image", "file", path, "error", closeErr)
		}
	}()

	br := bufio.NewReader(f)
	if magic, _ := br.Peek(len(ppm.Magic)); string(magic) == ppm.Magic {
		g, err := dec.Decode(br)
		if err != nil {
			return nil, "", fmt.Errorf("could not decode PPM image %q: %w", path, err)
		}
		return g, "ppm", nil
	}

	img, imgType, err := image.Decode(br)
	if err != nil {
		return nil, "", fmt.Errorf("could not decode image %q: %w", path, err)
	}
	return img, imgType, nil
}

func release(img image.Image) {
	if g, ok := img.(*ppm.Grid); ok {
		g.Release()
	}
}

// save encodes img as outType into destDir. The image is written to a
// temporary file first and renamed once complete, so a failed conversion never
// leaves a partial destination behind.
func save(img image.Image, outType, destDir, srcName string, enc *ppm.Encoder) (err error) {
	oldExt := filepath.Ext(srcName)
	destName := srcName[:len(srcName)-len(oldExt)] + extension(outType)

	outFile, err := os.CreateTemp(destDir, destName+".*")
	if err != nil {
		return fmt.Errorf("could not create temporary destination %q: %w", destName, err)
	}
	canRename := false
	defer func() {
		if defErr := outFile.Sync(); defErr != nil {
			err = errors.Join(err, fmt.Errorf("could not flush temporary destination %q: %w", destName, defErr))
		}
		if defErr := outFile.Close(); defErr != nil {
			err = errors.Join(err, fmt.Errorf("could not close temporary destination %q: %w", destName, defErr))
		}

		if canRename && err == nil {
			if defErr := os.Rename(outFile.Name(), filepath.Join(destDir, destName)); defErr != nil {
				err = fmt.Errorf("could not rename destination file %q: %w", destName, defErr)
			}
		}
		if err != nil {
			if defErr := os.Remove(outFile.Name()); defErr != nil && !errors.Is(defErr, os.ErrNotExist) {
				slog.Error("could not remove temporary destination", "name", outFile.Name(), "error", defErr)
			}
		}
	}()

	switch outType {
	case "ppm":
		g, ok := img.(*ppm.Grid)
		if !ok {
			if g, err = ppm.FromImage(img); err != nil {
				return fmt.Errorf("could not convert %q to PPM: %w", destName, err)
			}
			defer g.Release()
		}
		if err = enc.Encode(outFile, g); err != nil {
			return fmt.Errorf("could not encode PPM destination %q: %w", destName, err)
		}
	case "pnm":
		if err = pnm.Encode(outFile, img, pnm.PPM); err != nil {
			return fmt.Errorf("could not encode binary PPM destination %q: %w", destName, err)
		}
	case "gif":
		if err = gif.Encode(outFile, img, nil); err != nil {
			return fmt.Errorf("could not encode GIF destination %q: %w", destName, err)
		}
	case "jpeg":
		if err = jpeg.Encode(outFile, img, &jpeg.Options{Quality: 100}); err != nil {
			return fmt.Errorf("could not encode JPEG destination %q: %w", destName, err)
		}
	case "png":
		pngEnc := png.Encoder{
			CompressionLevel: png.BestCompression,
			BufferPool:       pngPool,
		}
		if err = pngEnc.Encode(outFile, img); err != nil {
			return fmt.Errorf("could not encode PNG destination %q: %w", destName, err)
		}
	case "bmp":
		if err = bmp.Encode(outFile, img); err != nil {
			return fmt.Errorf("could not encode BMP destination %q: %w", destName, err)
		}
	case "tiff":
		if err = tiff.Encode(outFile, img, nil); err != nil {
			return fmt.Errorf("could not encode TIFF destination %q: %w", destName, err)
		}
	default:
		return fmt.Errorf("unsupported output format: %s", outType)
	}

	canRename = true
	return nil
}

type pngEncoderBufferPool struct {
	pool sync.Pool
}

func (p *pngEncoderBufferPool) Get() *png.EncoderBuffer {
	return p.pool.Get().(*png.EncoderBuffer)
}

func (p *pngEncoderBufferPool) Put(buf *png.EncoderBuffer) {
	p.pool.Put(buf)
}

var pngPool = &pngEncoderBufferPool{
	pool: sync.Pool{
		New: func() any {
			return &png.EncoderBuffer{}
		},
	},
}
