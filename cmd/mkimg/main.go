// Command mkimg converts a PNG to the panel's raw big-endian RGB565 format.
package main

import (
	"bufio"
	"encoding/binary"
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"

	"badge/hal"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

type options struct {
	fit    bool
	header bool
	label  string
}

func main() {
	var (
		inPath  = flag.String("in", "", "Input PNG.")
		outPath = flag.String("out", "", "Output raw RGB565 file.")
		fit     = flag.Bool("fit", false, "Scale to fit 320x170, centred on black.")
		header  = flag.Bool("header", true, "Prefix the pixels with little-endian uint16 width and height.")
		label   = flag.String("label", "", "Caption drawn at the bottom left.")
	)
	flag.Parse()

	if *inPath == "" || *outPath == "" {
		fatalf("usage: mkimg -in in.png -out out.bin [-fit] [-header=false] [-label text]")
	}
	opt := options{fit: *fit, header: *header, label: *label}
	if err := convertFile(*inPath, *outPath, opt); err != nil {
		fatalf("mkimg: %v", err)
	}
}

func fatalf(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(2)
}

func convertFile(inPath, outPath string, opt options) error {
	in, err := os.Open(inPath)
	if err != nil {
		return err
	}
	defer in.Close()

	src, err := png.Decode(in)
	if err != nil {
		return fmt.Errorf("png: %w", err)
	}
	img := prepare(src, opt)

	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(out)
	if err := writeRGB565(w, img, opt.header); err != nil {
		out.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		out.Close()
		return err
	}
	b := img.Bounds()
	fmt.Printf("wrote %dx%d (%d bytes of pixels) to %s\n", b.Dx(), b.Dy(), b.Dx()*b.Dy()*2, outPath)
	return out.Close()
}

// prepare scales and captions src as asked and returns it as RGBA.
func prepare(src image.Image, opt options) *image.RGBA {
	var dst *image.RGBA
	if opt.fit {
		dst = image.NewRGBA(image.Rect(0, 0, hal.DisplayWidth, hal.DisplayHeight))
		draw.Draw(dst, dst.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)
		draw.CatmullRom.Scale(dst, fitRect(src.Bounds(), dst.Bounds()), src, src.Bounds(), draw.Over, nil)
	} else {
		b := src.Bounds()
		dst = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	}

	if opt.label != "" {
		d := font.Drawer{
			Dst:  dst,
			Src:  image.NewUniform(color.White),
			Face: basicfont.Face7x13,
			Dot:  fixed.P(2, dst.Bounds().Dy()-3),
		}
		d.DrawString(opt.label)
	}
	return dst
}

// fitRect is the largest rectangle with the aspect of src centred in dst.
func fitRect(src, dst image.Rectangle) image.Rectangle {
	sw, sh := src.Dx(), src.Dy()
	dw, dh := dst.Dx(), dst.Dy()
	if sw == 0 || sh == 0 {
		return image.Rectangle{}
	}
	w, h := dw, sh*dw/sw
	if h > dh {
		w, h = sw*dh/sh, dh
	}
	x := dst.Min.X + (dw-w)/2
	y := dst.Min.Y + (dh-h)/2
	return image.Rect(x, y, x+w, y+h)
}

func writeRGB565(w io.Writer, img *image.RGBA, header bool) error {
	b := img.Bounds()
	if header {
		if b.Dx() > 0xFFFF || b.Dy() > 0xFFFF {
			return fmt.Errorf("image %dx%d too large for header", b.Dx(), b.Dy())
		}
		if err := binary.Write(w, binary.LittleEndian, [2]uint16{uint16(b.Dx()), uint16(b.Dy())}); err != nil {
			return err
		}
	}
	row := make([]byte, b.Dx()*2)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			hal.RGB565Of(img.RGBAAt(x, y)).Put(row[(x-b.Min.X)*2:])
		}
		if _, err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}
