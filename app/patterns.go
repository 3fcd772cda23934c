package app

import (
	"context"
	"time"

	"badge/hal"
	"badge/kernel"

	"golang.org/x/sync/errgroup"
)

// patternHold is how long each test pattern stays up.
const patternHold = 2 * time.Second

type pattern struct {
	name string
	draw func(c *hal.Canvas, frame uint32)
}

var testPatterns = []pattern{
	{"color bars", drawColorBars},
	{"hue sweep", drawHueSweep},
	{"gray ramp", drawGrayRamp},
	{"checkerboard", drawCheckerboard},
	{"grid", drawGrid},
	{"border", drawBorder},
}

// runPatterns cycles through test patterns in framebuffer mode. A renderer
// draws into one of two canvases while a blitter flushes the other; the
// canvases travel between them through mailboxes. Right or Start skips to
// the next pattern.
func runPatterns(ctx context.Context, b *board) error {
	var free, ready kernel.Mailbox[*hal.Canvas]
	for i := 0; i < 2; i++ {
		free.Send(hal.NewCanvas(b.disp, b.disp.Bounds()))
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for {
			c, err := ready.RecvContext(ctx)
			if err != nil {
				return err
			}
			if err := c.Display(); err != nil {
				return err
			}
			free.Send(c)
		}
	})
	g.Go(func() error {
		idx := 0
		shown := time.Now()
		return every(ctx, 33*time.Millisecond, func(frame uint32) error {
			events := b.buttons.Scan()
			if pressed(events, hal.ButtonRight) || pressed(events, hal.ButtonStart) || time.Since(shown) >= patternHold {
				idx = (idx + 1) % len(testPatterns)
				shown = time.Now()
				b.log.Debug().Str("pattern", testPatterns[idx].name).Msg("next")
			}
			if pressed(events, hal.ButtonLeft) {
				idx = (idx + len(testPatterns) - 1) % len(testPatterns)
				shown = time.Now()
			}

			c, err := free.RecvContext(ctx)
			if err != nil {
				return err
			}
			testPatterns[idx].draw(c, frame)
			return ready.SendContext(ctx, c)
		})
	})
	return g.Wait()
}

func drawColorBars(c *hal.Canvas, _ uint32) {
	bars := []hal.RGB565{
		rgb(31, 63, 31), rgb(31, 63, 0), rgb(0, 63, 31), rgb(0, 63, 0),
		rgb(31, 0, 31), rgb(31, 0, 0), rgb(0, 0, 31), rgb(0, 0, 0),
	}
	w, h := c.Size()
	bw := int(w) / len(bars)
	for i, col := range bars {
		_ = c.FillRectangle(int16(i*bw), 0, int16(bw), h, col.RGBA8())
	}
}

func drawHueSweep(c *hal.Canvas, frame uint32) {
	w, h := c.Size()
	for x := int16(0); x < w; x++ {
		col := hsv(float64(x)/float64(w)+float64(frame)/200, 1, 1)
		_ = c.FillRectangle(x, 0, 1, h, col)
	}
}

func drawGrayRamp(c *hal.Canvas, _ uint32) {
	w, h := c.Size()
	for x := int16(0); x < w; x++ {
		v := int(x) * 32 / int(w)
		_ = c.FillRectangle(x, 0, 1, h/2, rgb(v, v*2, v).RGBA8())
	}
	const steps = 16
	sw := int(w) / steps
	for i := 0; i < steps; i++ {
		v := i * 31 / (steps - 1)
		_ = c.FillRectangle(int16(i*sw), h/2, int16(sw), h-h/2, rgb(v, v*2, v).RGBA8())
	}
}

func drawCheckerboard(c *hal.Canvas, frame uint32) {
	const sq = 10
	w, h := c.Size()
	shift := int(frame/8) % 2
	for y := 0; y < int(h); y += sq {
		for x := 0; x < int(w); x += sq {
			col := black
			if (x/sq+y/sq+shift)%2 == 0 {
				col = white
			}
			_ = c.FillRectangle(int16(x), int16(y), sq, sq, col)
		}
	}
}

func drawGrid(c *hal.Canvas, _ uint32) {
	w, h := c.Size()
	c.Clear(0)
	line := rgb(0, 63, 0).RGBA8()
	for x := int16(0); x < w; x += 20 {
		_ = c.FillRectangle(x, 0, 1, h, line)
	}
	for y := int16(0); y < h; y += 20 {
		_ = c.FillRectangle(0, y, w, 1, line)
	}
	label(c, 4, 4, "320x170", white)
}

func drawBorder(c *hal.Canvas, _ uint32) {
	w, h := c.Size()
	c.Clear(0)
	red := rgb(31, 0, 0).RGBA8()
	_ = c.FillRectangle(0, 0, w, 1, red)
	_ = c.FillRectangle(0, h-1, w, 1, red)
	_ = c.FillRectangle(0, 0, 1, h, red)
	_ = c.FillRectangle(w-1, 0, 1, h, red)
	_ = c.FillRectangle(w/2, 0, 1, h, white)
	_ = c.FillRectangle(0, h/2, w, 1, white)
}
