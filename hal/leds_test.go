//go:build !tinygo

package hal

import (
	"errors"
	"image/color"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/physic"
)

func newSimLeds(t *testing.T) (*Leds, *Sim) {
	t.Helper()
	r, sim := newSimBoard(t)
	l, err := NewLeds(r.Leds, LedConfig{})
	require.NoError(t, err)
	return l, sim
}

func TestWS2812TimingAt40MHz(t *testing.T) {
	tm, err := newWS2812Timing(40*physic.MegaHertz, 50*time.Microsecond)
	require.NoError(t, err)

	assert.Equal(t, PulseCode{Level0: true, Duration0: 32, Duration1: 18}, tm.one)
	assert.Equal(t, PulseCode{Level0: true, Duration0: 16, Duration1: 34}, tm.zero)
	assert.Equal(t, PulseCode{Duration0: 2000}, tm.reset)
}

func TestWS2812TimingRejectsUnusableClocks(t *testing.T) {
	for _, f := range []physic.Frequency{0, 400 * physic.KiloHertz, 2 * physic.MegaHertz} {
		_, err := newWS2812Timing(f, 50*time.Microsecond)
		assert.ErrorIs(t, err, ErrTimingViolation, "tick %v", f)
	}

	_, err := newWS2812Timing(40*physic.MegaHertz, 10*time.Millisecond)
	assert.ErrorIs(t, err, ErrTimingViolation)

	r, _ := newSimBoard(t)
	_, err = NewLeds(r.Leds, LedConfig{Divider: 200})
	assert.ErrorIs(t, err, ErrTimingViolation)
}

func TestWS2812LongResetSplits(t *testing.T) {
	tm, err := newWS2812Timing(40*physic.MegaHertz, 1*time.Millisecond)
	require.NoError(t, err)
	assert.False(t, tm.reset.Level0)
	assert.False(t, tm.reset.Level1)
	assert.Equal(t, 40000, int(tm.reset.Duration0)+int(tm.reset.Duration1))
}

func TestTransmitDarkFrame(t *testing.T) {
	l, sim := newSimLeds(t)
	require.NoError(t, l.Transmit(LedFrame{}))

	codes := sim.Strip().LastCodes()
	require.Len(t, codes, 241)
	for i, c := range codes[:240] {
		assert.Equal(t, PulseCode{Level0: true, Duration0: 16, Duration1: 34}, c, "code %d", i)
	}
	assert.Equal(t, PulseCode{Duration0: 2000}, codes[240])
}

func TestTransmitBitOrder(t *testing.T) {
	l, sim := newSimLeds(t)
	var f LedFrame
	f[0] = color.RGBA{R: 0x00, G: 0x80, B: 0x01}
	require.NoError(t, l.Transmit(f))

	codes := sim.Strip().LastCodes()
	one := func(i int) bool { return codes[i].Duration0 == 32 }
	assert.True(t, one(0), "green MSB first")
	for i := 1; i < 23; i++ {
		assert.False(t, one(i), "bit %d", i)
	}
	assert.True(t, one(23), "blue LSB last")
}

func TestTransmitRoundTrip(t *testing.T) {
	l, sim := newSimLeds(t)
	var f LedFrame
	for i := range f {
		f[i] = color.RGBA{R: uint8(i * 25), G: uint8(255 - i*3), B: uint8(i*i + 1), A: 0xFF}
	}
	require.NoError(t, l.Transmit(f))
	assert.Equal(t, f, sim.Strip().Frame())
	assert.Equal(t, uint64(1), sim.Strip().Frames())
}

func TestStripPower(t *testing.T) {
	l, sim := newSimLeds(t)
	assert.True(t, sim.LedPower())

	l.Fill(color.RGBA{R: 1, A: 0xFF})
	require.NoError(t, l.Update())
	assert.Equal(t, uint8(1), sim.Strip().Frame()[9].R)
}

func TestTransmitFault(t *testing.T) {
	l, sim := newSimLeds(t)
	sim.Strip().FailNext(errors.New("rmt busy"))
	assert.ErrorIs(t, l.Transmit(LedFrame{}), ErrTransferFault)
	assert.NoError(t, l.Transmit(LedFrame{}))
}

func TestBars(t *testing.T) {
	l, _ := newSimLeds(t)
	red := color.RGBA{R: 0xFF, A: 0xFF}
	blue := color.RGBA{B: 0xFF, A: 0xFF}

	l.SetRightBar(Level(2, red))
	l.SetLeftBar(Level(1, blue))
	f := l.Frame()
	assert.Equal(t, red, f[0])
	assert.Equal(t, red, f[1])
	assert.Equal(t, color.RGBA{}, f[2])
	assert.Equal(t, blue, f[9], "left bar bottom is the last LED")
	assert.Equal(t, color.RGBA{}, f[5])

	l.Clear()
	l.SetBothBars(Level(BarCount, red))
	for i, c := range l.Frame() {
		assert.Equal(t, red, c, "led %d", i)
	}

	l.Clear()
	l.Set(3, blue)
	l.Set(-1, red)
	l.Set(LedCount, red)
	f = l.Frame()
	assert.Equal(t, blue, f[3])
	assert.Equal(t, color.RGBA{}, f[0])

	l.FillFrom([]color.RGBA{red, blue})
	f = l.Frame()
	assert.Equal(t, red, f[0])
	assert.Equal(t, blue, f[1])
	assert.Equal(t, blue, f[3])
}

func TestLedsClaimedOnce(t *testing.T) {
	r, _ := newSimBoard(t)
	_, err := NewLeds(r.Leds, LedConfig{})
	require.NoError(t, err)
	_, err = NewLeds(r.Leds, LedConfig{})
	assert.ErrorIs(t, err, ErrClaimViolation)
}
