//go:build !tinygo

package app

import (
	"context"
	"testing"
	"time"

	"badge/hal"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startDemo runs demo on a fresh simulated board until the test ends.
func startDemo(t *testing.T, demo string) *hal.Sim {
	t.Helper()
	p, sim := hal.NewSimBoard()
	runDemo(t, p, demo)
	return sim
}

func runDemo(t *testing.T, p *hal.Peripherals, demo string) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Run(ctx, p, Config{Demo: demo}) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Errorf("demo %s did not stop", demo)
		}
	})
}

// waitBoardUp waits until the panel is on and the demo has had time to take
// its first button scan. Buttons are opened right after the display.
func waitBoardUp(t *testing.T, sim *hal.Sim) {
	t.Helper()
	require.Eventually(t, func() bool { return sim.Panel().State().On }, 2*time.Second, 5*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
}

func TestDemosRun(t *testing.T) {
	for _, name := range Demos() {
		t.Run(name, func(t *testing.T) {
			sim := startDemo(t, name)
			gen := sim.Panel().Generation()
			assert.Eventually(t, func() bool {
				return sim.Panel().Generation() != gen && sim.Panel().State().On
			}, 2*time.Second, 5*time.Millisecond)
			assert.True(t, sim.Backlight())
		})
	}
}

func TestUnknownDemo(t *testing.T) {
	p, _ := hal.NewSimBoard()
	err := Run(context.Background(), p, Config{Demo: "tetris"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown demo")
}

func TestClaimViolationIsFatal(t *testing.T) {
	p, sim := hal.NewSimBoard()
	_, err := hal.Split(p)
	require.NoError(t, err)

	err = Run(context.Background(), p, Config{})
	assert.ErrorIs(t, err, hal.ErrClaimViolation)
	assert.False(t, sim.Panel().State().On, "no display to draw the fatal screen on")
}

func TestScrollDemoUsesScrollRegisters(t *testing.T) {
	sim := startDemo(t, "scroll")
	assert.Eventually(t, func() bool {
		return sim.Panel().State().ScrollStart > 10
	}, 2*time.Second, 5*time.Millisecond)

	dma := sim.DMA(0)
	starts := dma.Starts()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, starts, dma.Starts())
}

func TestLedsDemo(t *testing.T) {
	sim := startDemo(t, "leds")
	assert.Eventually(t, func() bool {
		return sim.Strip().Frames() >= 2
	}, 2*time.Second, 5*time.Millisecond)
	assert.True(t, sim.LedPower())
	assert.NotEqual(t, hal.LedFrame{}, sim.Strip().Frame())
}

func TestConsoleButtons(t *testing.T) {
	sim := startDemo(t, "console")
	waitBoardUp(t, sim)
	require.True(t, sim.Backlight())

	sim.Press(hal.ButtonA)
	assert.Eventually(t, func() bool { return !sim.Backlight() }, time.Second, 5*time.Millisecond)
	sim.Release(hal.ButtonA)

	sim.Press(hal.ButtonB)
	assert.Eventually(t, sim.Vibrating, time.Second, 2*time.Millisecond)
	sim.Release(hal.ButtonB)
	assert.Eventually(t, func() bool { return !sim.Vibrating() }, time.Second, 5*time.Millisecond)
}

func TestButtonHeldDuringBootIsNotAPress(t *testing.T) {
	p, sim := hal.NewSimBoard()
	sim.Press(hal.ButtonA)
	runDemo(t, p, "console")
	waitBoardUp(t, sim)

	time.Sleep(60 * time.Millisecond)
	assert.True(t, sim.Backlight(), "a held button must not toggle the backlight")

	sim.Release(hal.ButtonA)
	time.Sleep(60 * time.Millisecond)
	sim.Press(hal.ButtonA)
	assert.Eventually(t, func() bool { return !sim.Backlight() }, time.Second, 5*time.Millisecond)
	sim.Release(hal.ButtonA)
}

func TestTakeRunes(t *testing.T) {
	p, r := takeRunes("héllo world", 5)
	assert.Equal(t, "héllo", p)
	assert.Equal(t, " world", r)

	p, r = takeRunes("ok", 5)
	assert.Equal(t, "ok", p)
	assert.Empty(t, r)
}

func TestIsin(t *testing.T) {
	assert.Equal(t, 0, isin(0))
	assert.Equal(t, 120, isin(256))
	assert.Equal(t, -120, isin(768))
	assert.Equal(t, isin(100), isin(100+1024))
	assert.Equal(t, 120, icos(0))
}
