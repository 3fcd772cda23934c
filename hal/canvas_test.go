//go:build !tinygo

package hal

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/draw"
	"tinygo.org/x/drivers"
)

func TestCanvasDrawing(t *testing.T) {
	c := NewCanvas(nil, image.Rect(10, 10, 30, 20))
	w, h := c.Size()
	assert.Equal(t, int16(20), w)
	assert.Equal(t, int16(10), h)
	assert.Len(t, c.Buffer(), 20*10*2)

	c.SetPixel(0, 0, colorRed)
	c.SetPixel(-1, 0, colorRed)
	c.SetPixel(20, 0, colorRed)
	assert.Equal(t, RGB565Of(colorRed).RGBA8(), c.At(0, 0))
	assert.Equal(t, color.RGBA{}, c.At(20, 0))

	require.NoError(t, c.FillRectangle(-5, 5, 10, 100, colorRed))
	assert.Equal(t, RGB565Of(colorRed).RGBA8(), c.At(4, 9))
	assert.Equal(t, RGB565(0).RGBA8(), c.At(5, 9))
}

func TestCanvasScrollUp(t *testing.T) {
	c := NewCanvas(nil, image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		c.SetPixel(0, int16(y), color.RGBA{R: uint8(y * 64), A: 0xFF})
	}
	want := c.At(0, 3)

	require.NoError(t, c.ScrollUp(3, color.RGBA{}))
	assert.Equal(t, want, c.At(0, 0))
	assert.Equal(t, RGB565(0).RGBA8(), c.At(0, 1))

	c.Clear(0xFFFF)
	require.NoError(t, c.ScrollUp(10, color.RGBA{}))
	assert.Equal(t, RGB565(0).RGBA8(), c.At(3, 3))
}

func TestCanvasFlushToPanel(t *testing.T) {
	d, sim := newSimDisplay(t, DisplayConfig{})
	win := image.Rect(100, 50, 140, 80)
	c := NewCanvas(d, win)

	src := image.NewUniform(color.RGBA{G: 0xFF, A: 0xFF})
	draw.Draw(c, image.Rect(0, 0, 10, 10), src, image.Point{}, draw.Src)
	require.NoError(t, c.Display())

	green := RGB565Of(color.RGBA{G: 0xFF, A: 0xFF})
	assert.Equal(t, green, sim.Panel().Memory(100, 50))
	assert.Equal(t, green, sim.Panel().Memory(109, 59))
	assert.Equal(t, RGB565(0), sim.Panel().Memory(110, 60))
}

func TestCanvasRotationMatchesDisplay(t *testing.T) {
	d, _ := newSimDisplay(t, DisplayConfig{})
	c := NewCanvas(d, d.Bounds())

	for _, rot := range []drivers.Rotation{drivers.Rotation0, drivers.Rotation90, drivers.Rotation180, drivers.Rotation270} {
		derr, cerr := d.SetRotation(rot), c.SetRotation(rot)
		assert.Equal(t, derr, cerr, "rotation %d", rot)
	}
	assert.NoError(t, c.SetRotation(drivers.Rotation0))
	assert.ErrorIs(t, c.SetRotation(drivers.Rotation90), ErrNotImplemented)
}
