package hal

import (
	"fmt"
	"image/color"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"periph.io/x/conn/v3/physic"
)

// LedFrame holds one colour per LED. Index 0 is the bottom of the right bar,
// 4 its top; 5 is the top of the left bar, 9 its bottom.
type LedFrame [LedCount]color.RGBA

// BarCount is the number of LEDs in each of the two bars.
const BarCount = LedCount / 2

// WS2812 bit timing.
const (
	ws2812T1H       = 800 * time.Nanosecond
	ws2812T1L       = 450 * time.Nanosecond
	ws2812T0H       = 400 * time.Nanosecond
	ws2812T0L       = 850 * time.Nanosecond
	ws2812Tolerance = 150 * time.Nanosecond

	// Largest duration one pulse-code half can hold.
	maxPulseTicks = 1<<15 - 1
)

// LedConfig tunes the strip driver. The zero value is the board default.
type LedConfig struct {
	// Pulse generator source clock and divider. Defaults to 40 MHz / 1.
	Clock   physic.Frequency
	Divider uint8

	// Low time that latches the frame. Defaults to 50µs.
	Reset time.Duration

	Logger *zerolog.Logger
}

func (c *LedConfig) setDefaults() {
	if c.Clock == 0 {
		c.Clock = 40 * physic.MegaHertz
	}
	if c.Divider == 0 {
		c.Divider = 1
	}
	if c.Reset == 0 {
		c.Reset = 50 * time.Microsecond
	}
}

// ws2812Timing is the bit encoding in engine ticks.
type ws2812Timing struct {
	one   PulseCode
	zero  PulseCode
	reset PulseCode
}

func newWS2812Timing(tick physic.Frequency, reset time.Duration) (ws2812Timing, error) {
	if tick <= 0 {
		return ws2812Timing{}, fmt.Errorf("ws2812: tick rate %v: %w", tick, ErrTimingViolation)
	}
	ticks := func(d time.Duration) int {
		return int(math.Round(float64(d) * float64(tick) / float64(physic.Hertz) / float64(time.Second)))
	}
	period := time.Duration(float64(time.Second) * float64(physic.Hertz) / float64(tick))

	var enc [4]uint16
	for i, want := range []time.Duration{ws2812T1H, ws2812T1L, ws2812T0H, ws2812T0L} {
		n := ticks(want)
		got := time.Duration(n) * period
		if n <= 0 || n > maxPulseTicks || got < want-ws2812Tolerance || got > want+ws2812Tolerance {
			return ws2812Timing{}, fmt.Errorf("ws2812: %v at %v ticks is %v: %w", want, tick, got, ErrTimingViolation)
		}
		enc[i] = uint16(n)
	}

	r := ticks(reset)
	if r <= 0 || r > 2*maxPulseTicks {
		return ws2812Timing{}, fmt.Errorf("ws2812: reset %v at %v: %w", reset, tick, ErrTimingViolation)
	}
	first := r
	if first > maxPulseTicks {
		first = maxPulseTicks
	}

	return ws2812Timing{
		one:   PulseCode{Level0: true, Duration0: enc[0], Level1: false, Duration1: enc[1]},
		zero:  PulseCode{Level0: true, Duration0: enc[2], Level1: false, Duration1: enc[3]},
		reset: PulseCode{Level0: false, Duration0: uint16(first), Level1: false, Duration1: uint16(r - first)},
	}, nil
}

// encode appends the GRB, MSB-first codes of frame and the reset code.
func (t ws2812Timing) encode(dst []PulseCode, frame *LedFrame) []PulseCode {
	for _, c := range frame {
		for _, b := range [3]byte{c.G, c.R, c.B} {
			for bit := 7; bit >= 0; bit-- {
				if b&(1<<bit) != 0 {
					dst = append(dst, t.one)
				} else {
					dst = append(dst, t.zero)
				}
			}
		}
	}
	return append(dst, t.reset)
}

// Leds drives the WS2812 strip through the pulse generator.
type Leds struct {
	mu     sync.Mutex
	log    zerolog.Logger
	eng    PulseEngine
	power  GPIOPin
	timing ws2812Timing

	frame LedFrame
	codes []PulseCode
}

// NewLeds consumes the LED group, powers the strip and binds the pulse
// generator to the data pin.
func NewLeds(r LedResources, cfg LedConfig) (*Leds, error) {
	if err := r.g.consume(r.members()...); err != nil {
		return nil, err
	}
	cfg.setDefaults()

	rc := RMTConfig{Clock: cfg.Clock, Divider: cfg.Divider}
	timing, err := newWS2812Timing(rc.TickFrequency(), cfg.Reset)
	if err != nil {
		return nil, err
	}

	l := &Leds{
		log:    zerolog.Nop(),
		timing: timing,
		codes:  make([]PulseCode, 0, LedCount*24+1),
	}
	if cfg.Logger != nil {
		l.log = cfg.Logger.With().Str("drv", "ws2812").Logger()
	}

	if l.power, err = outputPin(r.b, r.Power, true); err != nil {
		return nil, err
	}
	if l.eng, err = r.b.rmt(r.RMT, r.Data, rc); err != nil {
		return nil, fmt.Errorf("ws2812: %v: %w", r.RMT, err)
	}
	l.log.Debug().
		Uint16("t1h", timing.one.Duration0).
		Uint16("t0h", timing.zero.Duration0).
		Msg("strip powered")
	return l, nil
}

// Len is the number of LEDs.
func (l *Leds) Len() int { return LedCount }

// Transmit sends frame to the strip and blocks until the latch gap ended.
func (l *Leds) Transmit(frame LedFrame) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.transmit(&frame)
}

func (l *Leds) transmit(frame *LedFrame) error {
	l.codes = l.timing.encode(l.codes[:0], frame)
	if err := l.eng.Transmit(l.codes); err != nil {
		l.log.Warn().Err(err).Msg("transmit failed")
		return fmt.Errorf("ws2812: %w", transferFault(err))
	}
	return nil
}

// Update transmits the driver's own frame.
func (l *Leds) Update() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.transmit(&l.frame)
}

// Frame returns a copy of the driver's frame.
func (l *Leds) Frame() LedFrame {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.frame
}

// Set changes one LED of the driver's frame. Out-of-range indices are ignored.
func (l *Leds) Set(i int, c color.RGBA) {
	if i < 0 || i >= LedCount {
		return
	}
	l.mu.Lock()
	l.frame[i] = c
	l.mu.Unlock()
}

func (l *Leds) Fill(c color.RGBA) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.frame {
		l.frame[i] = c
	}
}

func (l *Leds) Clear() { l.Fill(color.RGBA{}) }

// FillFrom copies colours into the frame starting at LED 0, up to Len.
func (l *Leds) FillFrom(colors []color.RGBA) {
	l.mu.Lock()
	defer l.mu.Unlock()
	copy(l.frame[:], colors)
}

// SetRightBar sets the right bar, colors[0] at the bottom.
func (l *Leds) SetRightBar(colors [BarCount]color.RGBA) {
	l.mu.Lock()
	defer l.mu.Unlock()
	copy(l.frame[:BarCount], colors[:])
}

// SetLeftBar sets the left bar, colors[0] at the bottom.
func (l *Leds) SetLeftBar(colors [BarCount]color.RGBA) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := 0; i < BarCount; i++ {
		l.frame[BarCount+i] = colors[BarCount-1-i]
	}
}

func (l *Leds) SetBothBars(colors [BarCount]color.RGBA) {
	l.SetRightBar(colors)
	l.SetLeftBar(colors)
}

// Level returns bar colours lighting the bottom n LEDs with c.
func Level(n int, c color.RGBA) [BarCount]color.RGBA {
	var bar [BarCount]color.RGBA
	for i := 0; i < n && i < BarCount; i++ {
		bar[i] = c
	}
	return bar
}
