package app

import (
	"context"
	"fmt"
	"time"

	"badge/hal"

	"tinygo.org/x/tinyterm"
)

// vibrateTime is how long B runs the motor.
const vibrateTime = 200 * time.Millisecond

// runConsole prints button events on a terminal. A toggles the backlight and
// B pulses the vibration motor.
func runConsole(ctx context.Context, b *board) error {
	c := hal.NewCanvas(b.disp, b.disp.Bounds())
	term := tinyterm.NewTerminal(c)
	term.Configure(&tinyterm.Config{
		Font:              textFont,
		FontHeight:        textLineHeight,
		FontOffset:        textOffset,
		UseSoftwareScroll: true,
	})
	fmt.Fprintf(term, "badge console\r\nA: backlight  B: vibrate\r\n")
	if err := c.Display(); err != nil {
		return err
	}

	return every(ctx, 20*time.Millisecond, func(uint32) error {
		events := b.buttons.Scan()
		if len(events) == 0 {
			return nil
		}
		for _, ev := range events {
			fmt.Fprintf(term, "%s\r\n", fmtButton(ev))
			if !ev.Pressed {
				continue
			}
			switch ev.Button {
			case hal.ButtonA:
				b.backlight.Toggle()
				fmt.Fprintf(term, "backlight %v\r\n", b.backlight.IsOn())
			case hal.ButtonB:
				go func() {
					if err := b.vib.Pulse(ctx, vibrateTime); err != nil && ctx.Err() == nil {
						b.log.Warn().Err(err).Msg("vibrate")
					}
				}()
			}
		}
		return c.Display()
	})
}
