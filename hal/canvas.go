package hal

import (
	"context"
	"image"
	"image/color"

	"tinygo.org/x/drivers"
)

// FramebufferWriter is the part of Display a Canvas flushes into.
type FramebufferWriter interface {
	WriteFramebuffer(buf []byte, win image.Rectangle) (*Transfer, error)
}

// Canvas is an off-screen RGB565 framebuffer for a window of the panel. It
// implements drivers.Displayer, the tinyterm display surface and draw.Image.
//
// Drawing into a Canvas while a Flush transfer is pending tears the frame.
type Canvas struct {
	out FramebufferWriter
	win image.Rectangle
	buf []byte
}

// NewCanvas returns a canvas covering win, flushed into out.
func NewCanvas(out FramebufferWriter, win image.Rectangle) *Canvas {
	return &Canvas{
		out: out,
		win: win,
		buf: make([]byte, win.Dx()*win.Dy()*2),
	}
}

// Buffer is the raw big-endian RGB565 frame.
func (c *Canvas) Buffer() []byte { return c.buf }

// Window is the panel rectangle the canvas is flushed to.
func (c *Canvas) Window() image.Rectangle { return c.win }

func (c *Canvas) Size() (x, y int16) {
	return int16(c.win.Dx()), int16(c.win.Dy())
}

func (c *Canvas) SetPixel(x, y int16, col color.RGBA) {
	w, h := c.win.Dx(), c.win.Dy()
	ix, iy := int(x), int(y)
	if ix < 0 || ix >= w || iy < 0 || iy >= h {
		return
	}
	RGB565Of(col).Put(c.buf[(iy*w+ix)*2:])
}

// Flush starts sending the frame and returns the pending transfer.
func (c *Canvas) Flush() (*Transfer, error) {
	return c.out.WriteFramebuffer(c.buf, c.win)
}

// Display flushes the frame and waits for the transfer.
func (c *Canvas) Display() error {
	t, err := c.Flush()
	if err != nil {
		return err
	}
	return t.Wait(context.Background())
}

func (c *Canvas) FillRectangle(x, y, width, height int16, col color.RGBA) error {
	w, h := c.win.Dx(), c.win.Dy()

	x0 := clampInt(int(x), 0, w)
	y0 := clampInt(int(y), 0, h)
	x1 := clampInt(int(x)+int(width), 0, w)
	y1 := clampInt(int(y)+int(height), 0, h)
	if x0 >= x1 || y0 >= y1 {
		return nil
	}

	px := RGB565Of(col)
	for py := y0; py < y1; py++ {
		Row(c.buf[(py*w+x0)*2 : (py*w+x1)*2]).Fill(px)
	}
	return nil
}

// Clear fills the whole canvas.
func (c *Canvas) Clear(col RGB565) {
	Row(c.buf).Fill(col)
}

// ScrollUp shifts the content up by lines and clears the exposed rows.
func (c *Canvas) ScrollUp(lines int16, bg color.RGBA) error {
	w, h := c.win.Dx(), c.win.Dy()
	n := int(lines)
	if n <= 0 {
		return nil
	}
	if n >= h {
		return c.FillRectangle(0, 0, int16(w), int16(h), bg)
	}
	stride := w * 2
	copy(c.buf, c.buf[n*stride:])
	return c.FillRectangle(0, int16(h-n), int16(w), int16(n), bg)
}

// SetScroll is a no-op; terminals on a Canvas scroll in software.
func (c *Canvas) SetScroll(int16) {}

// SetRotation accepts only the fixed landscape orientation, like Display.
func (c *Canvas) SetRotation(rotation drivers.Rotation) error {
	if rotation != drivers.Rotation0 {
		return ErrNotImplemented
	}
	return nil
}

func (c *Canvas) ColorModel() color.Model { return color.RGBAModel }

func (c *Canvas) Bounds() image.Rectangle {
	return image.Rect(0, 0, c.win.Dx(), c.win.Dy())
}

func (c *Canvas) At(x, y int) color.Color {
	if !(image.Point{x, y}).In(c.Bounds()) {
		return color.RGBA{}
	}
	off := (y*c.win.Dx() + x) * 2
	return RGB565(uint16(c.buf[off])<<8 | uint16(c.buf[off+1])).RGBA8()
}

func (c *Canvas) Set(x, y int, col color.Color) {
	r, g, b, _ := col.RGBA()
	c.SetPixel(int16(x), int16(y), color.RGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: 0xFF})
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
