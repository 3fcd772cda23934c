// Package hal is the board-support layer for the badge: a 320x170 ST7789
// panel on SPI2 with a DMA channel, ten WS2812 LEDs on the RMT pulse
// generator, nine buttons, a backlight and a vibration motor.
//
// The chip peripherals are claimed once with Take, split into disjoint
// capability groups with Split, and each group is consumed by exactly one
// driver constructor.
//
// Built with TinyGo the drivers run on the machine package. On the host the
// same drivers run against a simulated board (see Sim).
package hal

import "errors"

var (
	// Ownership. A peripheral or group was claimed twice.
	ErrClaimViolation = errors.New("claim_violation")

	// Display addressing window outside the panel or empty.
	ErrInvalidWindow = errors.New("invalid_window")

	// The transfer engine reported a fault or its watchdog expired.
	ErrTransferFault = errors.New("transfer_fault")

	// Pulse timing the engine clock cannot produce within tolerance.
	ErrTimingViolation = errors.New("timing_violation")

	ErrNotImplemented = errors.New("not_implemented")
)

// Panel geometry in the landscape orientation the driver programs.
const (
	DisplayWidth  = 320
	DisplayHeight = 170
)

// LedCount is the number of addressable LEDs on the strip.
const LedCount = 10
