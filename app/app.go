// Package app runs the badge demo programs on top of the board support in
// hal.
package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"badge/hal"
	"badge/internal/buildinfo"

	"github.com/rs/zerolog"
)

// Config selects the demo and tunes the drivers.
type Config struct {
	// Demo is one of Demos(). Empty selects "patterns".
	Demo string

	Display hal.DisplayConfig
	Leds    hal.LedConfig

	Logger *zerolog.Logger
}

// DefaultDemo runs when Config.Demo is empty.
const DefaultDemo = "patterns"

type demoFunc func(ctx context.Context, b *board) error

var demos = map[string]demoFunc{
	"patterns":   runPatterns,
	"shader":     runShader,
	"scroll":     runScroll,
	"leds":       runLeds,
	"taskswitch": runTaskSwitch,
	"console":    runConsole,
}

// Demos lists the demo names.
func Demos() []string {
	names := make([]string, 0, len(demos))
	for name := range demos {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// board holds the driver handles of one claimed board.
type board struct {
	log       zerolog.Logger
	disp      *hal.Display
	buttons   *hal.Buttons
	leds      *hal.Leds
	backlight *hal.Backlight
	vib       *hal.Vibration
}

// Run claims the board behind p and runs the configured demo until ctx ends.
// A claim violation or a driver fault is fatal: it is logged, drawn on the
// panel when the panel works, and returned.
func Run(ctx context.Context, p *hal.Peripherals, cfg Config) error {
	log := zerolog.Nop()
	if cfg.Logger != nil {
		log = *cfg.Logger
	}
	name := cfg.Demo
	if name == "" {
		name = DefaultDemo
	}
	demo, ok := demos[name]
	if !ok {
		return fmt.Errorf("app: unknown demo %q (have %s)", name, strings.Join(Demos(), ", "))
	}

	b, err := open(p, cfg, log)
	if err != nil {
		fatal(b, err)
		return err
	}
	log.Info().Str("demo", name).Str("build", buildinfo.Short()).Msg("board up")
	splash(b, name)

	err = demo(ctx, b)
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		log.Info().Str("demo", name).Msg("stopped")
		return nil
	}
	fatal(b, err)
	return err
}

// open splits the registry and builds every handle. On error the returned
// board holds whatever was built so far.
func open(p *hal.Peripherals, cfg Config, log zerolog.Logger) (*board, error) {
	b := &board{log: log}
	if cfg.Display.Logger == nil {
		cfg.Display.Logger = &log
	}
	if cfg.Leds.Logger == nil {
		cfg.Leds.Logger = &log
	}

	r, err := hal.Split(p)
	if err != nil {
		return b, fmt.Errorf("app: split: %w", err)
	}
	if b.backlight, err = hal.NewBacklight(r.Backlight); err != nil {
		return b, fmt.Errorf("app: backlight: %w", err)
	}
	if b.disp, err = hal.NewDisplay(r.Display, cfg.Display); err != nil {
		return b, fmt.Errorf("app: display: %w", err)
	}
	if b.buttons, err = hal.NewButtons(r.Buttons); err != nil {
		return b, fmt.Errorf("app: buttons: %w", err)
	}
	if b.leds, err = hal.NewLeds(r.Leds, cfg.Leds); err != nil {
		return b, fmt.Errorf("app: leds: %w", err)
	}
	if b.vib, err = hal.NewVibration(r.Vibration); err != nil {
		return b, fmt.Errorf("app: vibration: %w", err)
	}
	return b, nil
}

// every calls fn once per period with a running frame count until ctx ends
// or fn fails.
func every(ctx context.Context, period time.Duration, fn func(frame uint32) error) error {
	t := time.NewTicker(period)
	defer t.Stop()
	for frame := uint32(0); ; frame++ {
		if err := fn(frame); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
}

// pressed reports whether events contain a press of id.
func pressed(events []hal.ButtonEvent, id hal.ButtonID) bool {
	for _, ev := range events {
		if ev.Button == id && ev.Pressed {
			return true
		}
	}
	return false
}
