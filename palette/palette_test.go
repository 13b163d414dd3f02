package palette

import (
	"bytes"
	"image/color"
	"os"
	"path/filepath"
	"testing"
)

func TestBuiltin(t *testing.T) {
	expected := map[string]int{
		"bw":      2,
		"gray16":  16,
		"vga16":   16,
		"websafe": 216,
		"plan9":   256,
	}
	for _, name := range Names() {
		pal, err := Load(name)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if len(pal) != expected[name] {
			t.Fatalf("%s: expected %d colors, actual %d", name, expected[name], len(pal))
		}
	}

	vga, _ := Load("VGA16")
	if vga[12] != (color.RGBA{R: 0xFF, G: 0x55, B: 0x55, A: 0xFF}) {
		t.Fatalf("unexpected light red: %+v", vga[12])
	}
}

func TestRIFF(t *testing.T) {
	// given
	pals := []color.Palette{
		{color.RGBA{R: 1, G: 2, B: 3, A: 0xFF}, color.RGBA{R: 250, G: 128, B: 0, A: 0xFF}},
		{color.White},
	}
	var buf bytes.Buffer
	n, err := WriteTo(&buf, pals)
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Fatalf("expected 3 colors written, actual %d", n)
	}

	// when
	read, err := ReadFrom(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatal(err)
	}

	// then
	if len(read) != 2 || len(read[0]) != 2 || len(read[1]) != 1 {
		t.Fatalf("unexpected palettes: %v", read)
	}
	if read[0][1] != (color.RGBA{R: 250, G: 128, B: 0, A: 0xFF}) {
		t.Fatalf("unexpected color: %+v", read[0][1])
	}

	name := filepath.Join(t.TempDir(), "two.pal")
	if err = os.WriteFile(name, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	merged, err := Load(name)
	if err != nil {
		t.Fatal(err)
	}
	if len(merged) != 3 {
		t.Fatalf("expected 3 merged colors, actual %d", len(merged))
	}
}

func TestLoadUnknown(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatal("expected error for unknown palette")
	}
	if _, err := ReadFrom(bytes.NewReader([]byte("RIFF\x04\x00\x00\x00WAVE"))); err == nil {
		t.Fatal("expected error for non PAL stream")
	}
}
