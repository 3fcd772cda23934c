//go:build !tinygo

package hal

import (
	"context"
	"fmt"
	"time"

	"github.com/eiannone/keyboard"
	"github.com/rs/zerolog"
)

// WindowConfig controls the desktop window.
type WindowConfig struct {
	Title string
	Scale int
}

// HeadlessConfig controls the no-window host runner.
type HeadlessConfig struct {
	Hz    int
	Ticks uint64

	// Keyboard reads terminal keys and taps the matching buttons.
	Keyboard bool

	Logger *zerolog.Logger
}

// tapTime is how long a terminal key holds its button down.
const tapTime = 150 * time.Millisecond

// RunHeadless watches the simulated board without opening a window, logging
// LED frames and panel updates. It returns when ctx ends or after Ticks
// ticks.
func RunHeadless(ctx context.Context, s *Sim, cfg HeadlessConfig) error {
	if cfg.Hz <= 0 {
		cfg.Hz = 60
	}
	log := zerolog.Nop()
	if cfg.Logger != nil {
		log = cfg.Logger.With().Str("runner", "headless").Logger()
	}

	d := time.Second / time.Duration(cfg.Hz)
	if d <= 0 {
		return fmt.Errorf("invalid headless hz: %d", cfg.Hz)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if cfg.Keyboard {
		if err := keyboard.Open(); err != nil {
			return fmt.Errorf("headless: keyboard: %w", err)
		}
		defer keyboard.Close()
		go readKeys(ctx, cancel, s, log)
	}

	t := time.NewTicker(d)
	defer t.Stop()

	var (
		tick     uint64
		lastGen  uint64
		lastLeds uint64
	)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			if gen := s.Panel().Generation(); gen != lastGen {
				lastGen = gen
				log.Debug().Uint64("gen", gen).Uint64("pixel_bytes", s.Panel().PixelBytes()).Msg("panel")
			}
			if n := s.Strip().Frames(); n != lastLeds {
				lastLeds = n
				log.Debug().Uint64("frames", n).Str("leds", formatFrame(s.Strip().Frame())).Msg("strip")
			}
			tick++
			if cfg.Ticks > 0 && tick >= cfg.Ticks {
				return nil
			}
		}
	}
}

func readKeys(ctx context.Context, stop context.CancelFunc, s *Sim, log zerolog.Logger) {
	for ctx.Err() == nil {
		ch, key, err := keyboard.GetKey()
		if err != nil {
			log.Warn().Err(err).Msg("keyboard")
			return
		}
		id, ok := terminalButton(ch, key)
		if key == keyboard.KeyEsc || key == keyboard.KeyCtrlC {
			stop()
			return
		}
		if !ok {
			continue
		}
		s.Press(id)
		time.AfterFunc(tapTime, func() { s.Release(id) })
	}
}

func terminalButton(ch rune, key keyboard.Key) (ButtonID, bool) {
	switch key {
	case keyboard.KeyArrowUp:
		return ButtonUp, true
	case keyboard.KeyArrowDown:
		return ButtonDown, true
	case keyboard.KeyArrowLeft:
		return ButtonLeft, true
	case keyboard.KeyArrowRight:
		return ButtonRight, true
	case keyboard.KeySpace:
		return ButtonStick, true
	case keyboard.KeyEnter:
		return ButtonStart, true
	case keyboard.KeyBackspace, keyboard.KeyBackspace2:
		return ButtonSelect, true
	}
	switch ch {
	case 'z', 'Z':
		return ButtonA, true
	case 'x', 'X':
		return ButtonB, true
	}
	return 0, false
}

func formatFrame(f LedFrame) string {
	out := make([]byte, 0, LedCount*7)
	for i, c := range f {
		if i > 0 {
			out = append(out, ' ')
		}
		out = fmt.Appendf(out, "%02x%02x%02x", c.R, c.G, c.B)
	}
	return string(out)
}
