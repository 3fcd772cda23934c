package app

import (
	"context"
	"time"

	"badge/hal"
)

var stripeColors = []hal.RGB565{
	rgb(31, 0, 0), rgb(0, 63, 0), rgb(0, 0, 31), rgb(31, 63, 0),
	rgb(0, 63, 31), rgb(31, 41, 0), rgb(31, 0, 31), rgb(31, 63, 31),
}

// runScroll draws vertical stripes once and then moves them with the
// controller's scroll registers only. Left and Right set the direction, Up
// and Down the speed.
func runScroll(ctx context.Context, b *board) error {
	c := hal.NewCanvas(b.disp, b.disp.Bounds())
	w, h := c.Size()
	sw := int(w) / len(stripeColors)
	for i, col := range stripeColors {
		_ = c.FillRectangle(int16(i*sw), 0, int16(sw), h, col.RGBA8())
	}
	if err := c.Display(); err != nil {
		return err
	}
	if err := b.disp.SetScrollArea(0, 0); err != nil {
		return err
	}

	offset, step := 0, 1
	return every(ctx, 10*time.Millisecond, func(uint32) error {
		for _, ev := range b.buttons.Scan() {
			if !ev.Pressed {
				continue
			}
			switch ev.Button {
			case hal.ButtonLeft:
				step = -abs(step)
			case hal.ButtonRight:
				step = abs(step)
			case hal.ButtonUp:
				if abs(step) < 8 {
					step += sign(step)
				}
			case hal.ButtonDown:
				if abs(step) > 1 {
					step -= sign(step)
				}
			}
		}
		offset += step
		return b.disp.SetScroll(offset)
	})
}

func sign(v int) int {
	if v < 0 {
		return -1
	}
	return 1
}
