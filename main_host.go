//go:build !tinygo

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"badge/app"
	"badge/hal"
	"badge/internal/buildinfo"
	"badge/internal/config"
	"badge/internal/mirror"

	"github.com/rs/zerolog"
)

func main() {
	var (
		configPath = flag.String("config", "", "Optional YAML config file.")
		demo       = flag.String("demo", app.DefaultDemo, "Demo to run: "+strings.Join(app.Demos(), ", ")+".")
		headless   = flag.Bool("headless", false, "Run without a window.")
		hz         = flag.Int("hz", 60, "Tick rate in headless mode.")
		ticks      = flag.Uint64("ticks", 0, "Stop after N ticks in headless mode (0 = run forever).")
		keys       = flag.Bool("keyboard", false, "Read terminal keys as buttons in headless mode.")
		scale      = flag.Int("scale", 2, "Window scale.")
		mirrorAddr = flag.String("mirror", "", "Serve a websocket mirror on this address, e.g. :8080.")
		logLevel   = flag.String("log-level", "info", "debug|info|warn|error.")
	)
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		c, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "config %s: %v\n", *configPath, err)
			os.Exit(2)
		}
		cfg = c
	}
	// Flags given on the command line win over the file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "demo":
			cfg.Demo = *demo
		case "headless":
			cfg.Sim.Headless = *headless
		case "hz":
			cfg.Sim.Hz = *hz
		case "keyboard":
			cfg.Sim.Keyboard = *keys
		case "scale":
			cfg.Sim.Scale = *scale
		case "mirror":
			cfg.Sim.Mirror = *mirrorAddr
		case "log-level":
			cfg.LogLevel = *logLevel
		}
	})

	zerolog.TimeFieldFormat = time.RFC3339
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).With().Timestamp().Logger()
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil && lvl != zerolog.NoLevel {
		log = log.Level(lvl)
	}
	log.Info().Str("build", buildinfo.Line()).Str("demo", cfg.Demo).Bool("headless", cfg.Sim.Headless).Msg("badge simulator")

	p, err := hal.Take()
	if err != nil {
		log.Fatal().Err(err).Msg("take peripherals")
	}
	sim := p.Sim()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Sim.Mirror != "" {
		hub := mirror.New(sim, mirror.Config{Logger: &log})
		go func() {
			if err := hub.Serve(ctx, cfg.Sim.Mirror); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("mirror")
			}
		}()
	}

	acfg := app.Config{
		Demo:    cfg.Demo,
		Display: cfg.DisplayConfig(),
		Leds:    cfg.LedConfig(),
		Logger:  &log,
	}
	appErr := make(chan error, 1)
	go func() {
		err := app.Run(ctx, p, acfg)
		if err != nil && cfg.Sim.Headless {
			stop()
		}
		appErr <- err
	}()

	if cfg.Sim.Headless {
		err = hal.RunHeadless(ctx, sim, hal.HeadlessConfig{
			Hz:       cfg.Sim.Hz,
			Ticks:    *ticks,
			Keyboard: cfg.Sim.Keyboard,
			Logger:   &log,
		})
	} else {
		err = hal.RunWindow(ctx, sim, hal.WindowConfig{Title: "badge", Scale: cfg.Sim.Scale})
	}
	stop()
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("runner")
		os.Exit(1)
	}
	if err := <-appErr; err != nil {
		log.Error().Err(err).Msg("app")
		os.Exit(1)
	}
}
