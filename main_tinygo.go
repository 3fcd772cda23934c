//go:build tinygo

package main

import (
	"context"

	"badge/app"
	"badge/hal"

	"github.com/rs/zerolog"
)

func main() {
	log := zerolog.New(hal.Console()).With().Timestamp().Logger()

	p, err := hal.Take()
	if err != nil {
		log.Error().Err(err).Msg("take peripherals")
		select {}
	}
	if err := app.Run(context.Background(), p, app.Config{Logger: &log}); err != nil {
		log.Error().Err(err).Msg("app")
	}
	select {}
}
