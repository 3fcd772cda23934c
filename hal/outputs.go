package hal

import (
	"context"
	"sync"
	"time"
)

// Backlight switches the panel backlight. It is on after construction.
type Backlight struct {
	mu  sync.Mutex
	pin GPIOPin
	on  bool
}

// NewBacklight consumes the backlight group and turns the light on.
func NewBacklight(r BacklightResources) (*Backlight, error) {
	if err := r.g.consume(r.members()...); err != nil {
		return nil, err
	}
	pin, err := outputPin(r.b, r.Pin, true)
	if err != nil {
		return nil, err
	}
	return &Backlight{pin: pin, on: true}, nil
}

func (b *Backlight) On()  { b.set(true) }
func (b *Backlight) Off() { b.set(false) }

func (b *Backlight) Toggle() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.on = !b.on
	_ = b.pin.Write(b.on)
}

func (b *Backlight) IsOn() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.on
}

func (b *Backlight) set(on bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.on = on
	_ = b.pin.Write(on)
}

// Vibration switches the vibration motor. It is off after construction.
type Vibration struct {
	mu  sync.Mutex
	pin GPIOPin
}

func NewVibration(r VibrationResources) (*Vibration, error) {
	if err := r.g.consume(r.members()...); err != nil {
		return nil, err
	}
	pin, err := outputPin(r.b, r.Pin, false)
	if err != nil {
		return nil, err
	}
	return &Vibration{pin: pin}, nil
}

func (v *Vibration) On()  { v.set(true) }
func (v *Vibration) Off() { v.set(false) }

// Pulse runs the motor for d. The motor is stopped even if ctx ends early.
func (v *Vibration) Pulse(ctx context.Context, d time.Duration) error {
	v.On()
	defer v.Off()

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (v *Vibration) set(on bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	_ = v.pin.Write(on)
}
