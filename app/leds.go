package app

import (
	"context"
	"fmt"
	"image/color"
	"time"

	"badge/hal"
)

// ledBrightness keeps the strip easy on the eyes and the battery.
const ledBrightness = 0.08

// runLeds rotates a rainbow around the strip. A switches to bar mode where
// Up and Down move the level shown on both bars. The panel shows the mode.
func runLeds(ctx context.Context, b *board) error {
	var (
		bars   bool
		level  = 2
		offset int
		shown  = -1
	)
	c := hal.NewCanvas(b.disp, b.disp.Bounds())

	return every(ctx, 100*time.Millisecond, func(uint32) error {
		for _, ev := range b.buttons.Scan() {
			if !ev.Pressed {
				continue
			}
			switch ev.Button {
			case hal.ButtonA:
				bars = !bars
			case hal.ButtonUp:
				if level < hal.BarCount {
					level++
				}
			case hal.ButtonDown:
				if level > 0 {
					level--
				}
			}
		}

		if bars {
			b.leds.Clear()
			b.leds.SetBothBars(barGradient(level))
		} else {
			for i := 0; i < b.leds.Len(); i++ {
				b.leds.Set(i, hsv(float64(i+offset)/float64(b.leds.Len()), 1, ledBrightness))
			}
			offset = (offset + 1) % b.leds.Len()
		}
		if err := b.leds.Update(); err != nil {
			return err
		}

		// Redraw the panel only when the text changes.
		key := level
		if !bars {
			key = -2
		}
		if key == shown {
			return nil
		}
		shown = key
		lines := []string{"leds: rainbow", "A: bar mode"}
		if bars {
			lines = []string{fmt.Sprintf("leds: bars, level %d", level), "A: rainbow  up/down: level"}
		}
		writeScreen(c, lines, white, black)
		return c.Display()
	})
}

// barGradient lights the bottom n LEDs of a bar, green at the bottom turning
// red towards the top.
func barGradient(n int) [hal.BarCount]color.RGBA {
	var bar [hal.BarCount]color.RGBA
	for i := 0; i < n && i < hal.BarCount; i++ {
		bar[i] = color.RGBA{R: uint8(i * 6), G: uint8(24 - i*5), A: 0xFF}
	}
	return bar
}
