//go:build !tinygo

package hal

import (
	"fmt"
	"image/color"
	"sync"
	"time"

	"periph.io/x/conn/v3/physic"
)

// SimStrip is a simulated WS2812 strip on the RMT output. It decodes the
// pulse train back into colours the way the LEDs sample it: a high time over
// 600ns is a one.
type SimStrip struct {
	power *virtualPin

	mu       sync.Mutex
	tick     physic.Frequency
	frame    LedFrame
	frames   uint64
	last     []PulseCode
	failNext error
}

func newSimStrip(power *virtualPin) *SimStrip {
	return &SimStrip{power: power}
}

func (s *SimStrip) setTick(f physic.Frequency) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tick = f
}

func (s *SimStrip) period() time.Duration {
	if s.tick <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) * float64(physic.Hertz) / float64(s.tick))
}

// Transmit implements PulseEngine. It blocks for as long as the train lasts.
func (s *SimStrip) Transmit(codes []PulseCode) error {
	s.mu.Lock()
	if err := s.failNext; err != nil {
		s.failNext = nil
		s.mu.Unlock()
		return err
	}
	period := s.period()
	if period == 0 {
		s.mu.Unlock()
		return fmt.Errorf("ws2812 sim: no tick rate")
	}
	s.last = append(s.last[:0], codes...)

	var (
		total time.Duration
		bits  []bool
	)
	for _, c := range codes {
		total += time.Duration(int(c.Duration0)+int(c.Duration1)) * period
		if !c.Level0 {
			s.latch(bits)
			bits = bits[:0]
			continue
		}
		bits = append(bits, time.Duration(c.Duration0)*period > 600*time.Nanosecond)
	}
	s.mu.Unlock()

	if total >= busyWaitBelow {
		time.Sleep(total)
	}
	return nil
}

// latch shifts decoded bits into the LEDs, GRB and MSB first. Caller holds s.mu.
func (s *SimStrip) latch(bits []bool) {
	if len(bits) == 0 {
		return
	}
	var frame LedFrame
	for i := 0; i < LedCount && (i+1)*24 <= len(bits); i++ {
		var grb [3]byte
		for j := 0; j < 24; j++ {
			if bits[i*24+j] {
				grb[j/8] |= 0x80 >> (j % 8)
			}
		}
		frame[i] = color.RGBA{R: grb[1], G: grb[0], B: grb[2], A: 0xFF}
	}
	s.frame = frame
	s.frames++
}

// Frame is the colours last latched. An unpowered strip shows nothing.
func (s *SimStrip) Frame() LedFrame {
	if !s.power.output() {
		return LedFrame{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frame
}

// Frames is the number of latched frames.
func (s *SimStrip) Frames() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

// LastCodes returns the pulse codes of the last transmission.
func (s *SimStrip) LastCodes() []PulseCode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]PulseCode(nil), s.last...)
}

// FailNext makes the next transmission fail with err.
func (s *SimStrip) FailNext(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = err
}
