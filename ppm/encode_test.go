package ppm

import (
	"bytes"
	"errors"
	"io/fs"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestEncode(t *testing.T) {
	// given
	g, err := Decode(strings.NewReader(twoPixels))
	if err != nil {
		t.Fatal(err)
	}
	defer g.Release()

	// when
	var buf bytes.Buffer
	if err = Encode(&buf, g); err != nil {
		t.Fatal(err)
	}

	// then
	expected := "P3\n2 1\n15\n255  0  0  0 255  0\n"
	if buf.String() != expected {
		t.Fatalf("expected %q, actual %q", expected, buf.String())
	}

	again, err := Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	defer again.Release()
	if again.Pixel(0, 0) != (Pixel{R: 255}) || again.Pixel(0, 1) != (Pixel{G: 255}) {
		t.Fatalf("unexpected pixels after re-decoding: %+v", again.Pix())
	}
}

func TestEncodeAlignment(t *testing.T) {
	g, err := Allocate(2, 2)
	if err != nil {
		t.Fatal(err)
	}
	defer g.Release()
	g.SetPixel(0, 0, Pixel{R: 1, G: 2, B: 3})
	g.SetPixel(0, 1, Pixel{R: 4, G: 5, B: 6})
	g.SetPixel(1, 0, Pixel{R: 10, G: 11, B: 12})
	g.SetPixel(1, 1, Pixel{R: 13, G: 14, B: 15})

	var buf bytes.Buffer
	if err = Encode(&buf, g); err != nil {
		t.Fatal(err)
	}

	expected := "P3\n2 2\n15\n" +
		" 1  2  3  4  5  6\n" +
		"10 11 12 13 14 15\n"
	if buf.String() != expected {
		t.Fatalf("expected %q, actual %q", expected, buf.String())
	}
}

func TestEncodeMaxValue(t *testing.T) {
	g, err := Allocate(1, 2)
	if err != nil {
		t.Fatal(err)
	}
	defer g.Release()
	g.SetPixel(0, 1, Pixel{R: 7, G: 200, B: 9})

	tests := []struct {
		name     string
		enc      Encoder
		expected string
	}{
		{"default", Encoder{}, "P3\n2 1\n15\n"},
		{"explicit", Encoder{MaxValue: 255}, "P3\n2 1\n255\n"},
		{"computed", Encoder{ComputeMaxValue: true}, "P3\n2 1\n200\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := tc.enc.Encode(&buf, g); err != nil {
				t.Fatal(err)
			}
			if !strings.HasPrefix(buf.String(), tc.expected) {
				t.Fatalf("expected header %q, actual %q", tc.expected, buf.String())
			}
		})
	}

	black, err := Allocate(1, 1)
	if err != nil {
		t.Fatal(err)
	}
	defer black.Release()
	var buf bytes.Buffer
	if err = (&Encoder{ComputeMaxValue: true}).Encode(&buf, black); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(buf.String(), "P3\n1 1\n1\n") {
		t.Fatalf("expected max value 1 for a black image, actual %q", buf.String())
	}
}

func TestEncodeMaxValueRange(t *testing.T) {
	// given
	bright, err := Allocate(1, 2)
	if err != nil {
		t.Fatal(err)
	}
	defer bright.Release()
	bright.SetPixel(0, 0, Pixel{R: 300, G: 10, B: 20})

	tests := []struct {
		name     string
		enc      Encoder
		header   string
		expected error
	}{
		{"computed above 255 is capped", Encoder{ComputeMaxValue: true}, "P3\n2 1\n255\n", nil},
		{"largest explicit", Encoder{MaxValue: MaxChannelValue}, "P3\n2 1\n255\n", nil},
		{"explicit above 255", Encoder{MaxValue: 1000}, "", ErrInvalidArgument},
		{"negative", Encoder{MaxValue: -1}, "", ErrInvalidArgument},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			// when
			var buf bytes.Buffer
			err := tc.enc.Encode(&buf, bright)

			// then
			if !errors.Is(err, tc.expected) {
				t.Fatalf("expected %v, actual %v", tc.expected, err)
			}
			if tc.expected != nil {
				if buf.Len() != 0 {
					t.Fatalf("expected nothing written, actual %q", buf.String())
				}
				return
			}
			if !strings.HasPrefix(buf.String(), tc.header) {
				t.Fatalf("expected header %q, actual %q", tc.header, buf.String())
			}
			decoded, err := Decode(&buf)
			if err != nil {
				t.Fatalf("written output does not decode: %v", err)
			}
			defer decoded.Release()
			if decoded.Pixel(0, 0) != bright.Pixel(0, 0) {
				t.Fatalf("expected %+v, actual %+v", bright.Pixel(0, 0), decoded.Pixel(0, 0))
			}
		})
	}
}

func TestEncodeInvalidGrid(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, nil); !errors.Is(err, ErrInvalidGrid) {
		t.Fatalf("expected %v, actual %v", ErrInvalidGrid, err)
	}

	g, err := Allocate(1, 1)
	if err != nil {
		t.Fatal(err)
	}
	g.Release()
	if err = Encode(&buf, g); !errors.Is(err, ErrInvalidGrid) {
		t.Fatalf("expected %v, actual %v", ErrInvalidGrid, err)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected nothing written, actual %q", buf.String())
	}
}

func TestEncodeWriteFailure(t *testing.T) {
	g, err := Allocate(1, 1)
	if err != nil {
		t.Fatal(err)
	}
	defer g.Release()

	broken := errors.New("disk full")
	err = Encode(&failingWriter{err: broken}, g)
	if !errors.Is(err, ErrIO) || !errors.Is(err, broken) {
		t.Fatalf("expected i/o failure, actual %v", err)
	}
}

func TestRoundTrip(t *testing.T) {
	rnd := rand.New(rand.NewPCG(3, 15))
	for i := range 25 {
		// given
		rows, cols := 1+rnd.IntN(12), 1+rnd.IntN(12)
		g, err := Allocate(rows, cols)
		if err != nil {
			t.Fatal(err)
		}
		for j := range g.Pix() {
			g.Pix()[j] = Pixel{R: rnd.IntN(256), G: rnd.IntN(256), B: rnd.IntN(256)}
		}

		// when
		var buf bytes.Buffer
		if err = Encode(&buf, g); err != nil {
			t.Fatal(err)
		}
		decoded, err := Decode(&buf)
		if err != nil {
			t.Fatalf("iteration %d: %v", i, err)
		}

		// then
		if decoded.Rows() != rows || decoded.Cols() != cols {
			t.Fatalf("iteration %d: expected %dx%d, actual %dx%d", i, rows, cols, decoded.Rows(), decoded.Cols())
		}
		for r := range rows {
			for c := range cols {
				if g.Pixel(r, c) != decoded.Pixel(r, c) {
					t.Fatalf("iteration %d: pixel (%d, %d): expected %+v, actual %+v", i, r, c, g.Pixel(r, c), decoded.Pixel(r, c))
				}
			}
		}
		g.Release()
		decoded.Release()
	}
}

func TestSave(t *testing.T) {
	g, err := Decode(strings.NewReader(twoPixels))
	if err != nil {
		t.Fatal(err)
	}
	defer g.Release()

	name := filepath.Join(t.TempDir(), "out.ppm")
	if err = Save(name, g); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(name)
	if err != nil {
		t.Fatal(err)
	}
	defer loaded.Release()
	if loaded.Pixel(0, 0) != g.Pixel(0, 0) || loaded.Pixel(0, 1) != g.Pixel(0, 1) {
		t.Fatalf("unexpected pixels %+v", loaded.Pix())
	}
}

func TestSaveFailures(t *testing.T) {
	g, err := Allocate(1, 1)
	if err != nil {
		t.Fatal(err)
	}
	defer g.Release()
	dir := t.TempDir()

	if err = Save("", g); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected %v, actual %v", ErrInvalidArgument, err)
	}

	name := filepath.Join(dir, "empty.ppm")
	if err = Save(name, nil); !errors.Is(err, ErrInvalidGrid) {
		t.Fatalf("expected %v, actual %v", ErrInvalidGrid, err)
	}
	if _, statErr := os.Stat(name); !errors.Is(statErr, fs.ErrNotExist) {
		t.Fatalf("expected no file for an empty grid, stat: %v", statErr)
	}

	existing := filepath.Join(dir, "existing.ppm")
	if err = os.WriteFile(existing, []byte(twoPixels), 0o644); err != nil {
		t.Fatal(err)
	}
	if err = (&Encoder{MaxValue: 1000}).Save(existing, g); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected %v, actual %v", ErrInvalidArgument, err)
	}
	if data, readErr := os.ReadFile(existing); readErr != nil || string(data) != twoPixels {
		t.Fatalf("expected existing file untouched, actual %q (%v)", data, readErr)
	}

	err = Save(filepath.Join(dir, "missing", "out.ppm"), g)
	if !errors.Is(err, ErrIO) {
		t.Fatalf("expected %v, actual %v", ErrIO, err)
	}
}

type failingWriter struct {
	err error
}

func (w *failingWriter) Write([]byte) (int, error) {
	return 0, w.err
}
