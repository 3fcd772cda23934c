// Package config loads the optional YAML board and simulator settings.
package config

import (
	"fmt"
	"os"
	"time"

	"badge/hal"

	"gopkg.in/yaml.v3"
	"periph.io/x/conn/v3/physic"
)

type Display struct {
	SpeedHz    int `yaml:"speed_hz"`    // SPI clock, e.g. 80000000
	WatchdogMs int `yaml:"watchdog_ms"` // DMA completion watchdog, <0 disables
}

type Leds struct {
	ClockHz int `yaml:"clock_hz"` // pulse generator source clock
	Divider int `yaml:"divider"`
	ResetUs int `yaml:"reset_us"` // latch gap
}

type Sim struct {
	Headless bool   `yaml:"headless"`
	Hz       int    `yaml:"hz"`
	Scale    int    `yaml:"scale"`
	Keyboard bool   `yaml:"keyboard"`
	Mirror   string `yaml:"mirror,omitempty"` // websocket mirror listen address
}

type Config struct {
	Demo     string `yaml:"demo"`
	LogLevel string `yaml:"log_level"`

	Display Display `yaml:"display"`
	Leds    Leds    `yaml:"leds"`
	Sim     Sim     `yaml:"sim"`
}

// Default is the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Demo:     "patterns",
		LogLevel: "info",
		Display:  Display{SpeedHz: 80_000_000, WatchdogMs: 1000},
		Leds:     Leds{ClockHz: 40_000_000, Divider: 1, ResetUs: 50},
		Sim:      Sim{Hz: 60, Scale: 2},
	}
}

// Load reads path over the defaults.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Validate rejects values the drivers cannot represent.
func (c *Config) Validate() error {
	switch {
	case c.Leds.Divider < 1 || c.Leds.Divider > 255:
		return fmt.Errorf("leds.divider %d out of range 1..255", c.Leds.Divider)
	case c.Leds.ClockHz < 0:
		return fmt.Errorf("leds.clock_hz %d is negative", c.Leds.ClockHz)
	case c.Leds.ResetUs < 0:
		return fmt.Errorf("leds.reset_us %d is negative", c.Leds.ResetUs)
	case c.Display.SpeedHz < 0:
		return fmt.Errorf("display.speed_hz %d is negative", c.Display.SpeedHz)
	}
	return nil
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

// DisplayConfig converts the display section. Zero fields keep the driver
// defaults.
func (c *Config) DisplayConfig() hal.DisplayConfig {
	d := hal.DisplayConfig{
		Frequency: physic.Frequency(c.Display.SpeedHz) * physic.Hertz,
	}
	switch {
	case c.Display.WatchdogMs < 0:
		d.Watchdog = -1
	case c.Display.WatchdogMs > 0:
		d.Watchdog = time.Duration(c.Display.WatchdogMs) * time.Millisecond
	}
	return d
}

// LedConfig converts the LED section. Zero fields keep the driver defaults.
func (c *Config) LedConfig() hal.LedConfig {
	return hal.LedConfig{
		Clock:   physic.Frequency(c.Leds.ClockHz) * physic.Hertz,
		Divider: uint8(c.Leds.Divider),
		Reset:   time.Duration(c.Leds.ResetUs) * time.Microsecond,
	}
}
