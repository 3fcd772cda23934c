package main

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"badge/hal"
)

func TestWriteRGB565(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.SetRGBA(0, 0, color.RGBA{R: 0xFF, A: 0xFF})
	img.SetRGBA(1, 0, color.RGBA{B: 0xFF, A: 0xFF})

	var buf bytes.Buffer
	if err := writeRGB565(&buf, img, true); err != nil {
		t.Fatalf("writeRGB565() err = %v", err)
	}
	want := []byte{2, 0, 1, 0, 0xF8, 0x00, 0x00, 0x1F}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Fatalf("writeRGB565() = % x, want % x", buf.Bytes(), want)
	}

	buf.Reset()
	if err := writeRGB565(&buf, img, false); err != nil {
		t.Fatalf("writeRGB565() err = %v", err)
	}
	if got := buf.Len(); got != 4 {
		t.Fatalf("raw length = %d, want 4", got)
	}
}

func TestFitRect(t *testing.T) {
	dst := image.Rect(0, 0, hal.DisplayWidth, hal.DisplayHeight)
	tests := []struct {
		src  image.Rectangle
		want image.Rectangle
	}{
		{image.Rect(0, 0, 640, 340), dst},
		{image.Rect(0, 0, 100, 100), image.Rect(75, 0, 245, 170)},
		{image.Rect(0, 0, 640, 100), image.Rect(0, 60, 320, 110)},
		{image.Rect(0, 0, 0, 10), image.Rectangle{}},
	}
	for _, tt := range tests {
		if got := fitRect(tt.src, dst); got != tt.want {
			t.Fatalf("fitRect(%v) = %v, want %v", tt.src, got, tt.want)
		}
	}
}

func TestConvertFileFit(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.png")
	out := filepath.Join(dir, "out.bin")

	src := image.NewRGBA(image.Rect(0, 0, 64, 34))
	for i := range src.Pix {
		src.Pix[i] = 0xFF
	}
	f, err := os.Create(in)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, src); err != nil {
		t.Fatal(err)
	}
	f.Close()

	if err := convertFile(in, out, options{fit: true, header: false, label: "hi"}); err != nil {
		t.Fatalf("convertFile() err = %v", err)
	}
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := len(b), hal.DisplayWidth*hal.DisplayHeight*2; got != want {
		t.Fatalf("output is %d bytes, want %d", got, want)
	}
	// The middle of a white source stays white.
	mid := (85*hal.DisplayWidth + 160) * 2
	if b[mid] != 0xFF || b[mid+1] != 0xFF {
		t.Fatalf("centre pixel = %02x%02x, want ffff", b[mid], b[mid+1])
	}
}
