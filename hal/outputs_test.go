//go:build !tinygo

package hal

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBacklightDefaultsOn(t *testing.T) {
	r, sim := newSimBoard(t)
	assert.False(t, sim.Backlight())

	bl, err := NewBacklight(r.Backlight)
	require.NoError(t, err)
	assert.True(t, bl.IsOn())
	assert.True(t, sim.Backlight())

	bl.Toggle()
	assert.False(t, bl.IsOn())
	assert.False(t, sim.Backlight())

	bl.On()
	assert.True(t, sim.Backlight())
	bl.Off()
	assert.False(t, sim.Backlight())

	_, err = NewBacklight(r.Backlight)
	assert.ErrorIs(t, err, ErrClaimViolation)
}

func TestVibrationPulse(t *testing.T) {
	r, sim := newSimBoard(t)
	v, err := NewVibration(r.Vibration)
	require.NoError(t, err)
	assert.False(t, sim.Vibrating())

	v.On()
	assert.True(t, sim.Vibrating())
	v.Off()

	done := make(chan error, 1)
	go func() { done <- v.Pulse(context.Background(), 20*time.Millisecond) }()
	assert.Eventually(t, sim.Vibrating, time.Second, time.Millisecond)
	require.NoError(t, <-done)
	assert.False(t, sim.Vibrating())
}

func TestVibrationPulseCancelled(t *testing.T) {
	r, sim := newSimBoard(t)
	v, err := NewVibration(r.Vibration)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, v.Pulse(ctx, time.Hour), context.Canceled)
	assert.False(t, sim.Vibrating())
}
