//go:build !tinygo

package hal

import (
	"image"
	"sync"
	"time"

	"periph.io/x/conn/v3/physic"
	"tinygo.org/x/drivers"
)

// Board wiring of the simulated PCB.
const (
	pinDisplayDC  = 15
	pinDisplayCS  = 6
	pinDisplayRST = 7
	pinBacklight  = 19
	pinVibration  = 20
	pinLedPower   = 17
)

var buttonLines = [buttonCount]int{11, 1, 21, 2, 14, 13, 38, 12, 45}

// hostBoard is the simulated badge: virtual IO lines, a ST7789 controller
// listening on SPI2, a DMA channel feeding it and a WS2812 strip on the RMT.
type hostBoard struct {
	mu    sync.Mutex
	pins  map[int]*virtualPin
	panel *SimPanel
	dmas  map[int]*SimDMA
	strip *SimStrip
}

func newBoardBackend() backend {
	return newHostBoard()
}

func newHostBoard() *hostBoard {
	b := &hostBoard{
		pins: make(map[int]*virtualPin),
		dmas: make(map[int]*SimDMA),
	}
	b.panel = newSimPanel(b.line(pinDisplayDC), b.line(pinDisplayCS), b.line(pinDisplayRST))
	b.strip = newSimStrip(b.line(pinLedPower))
	return b
}

func (b *hostBoard) line(n int) *virtualPin {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.pins[n]
	if !ok {
		p = newVirtualPin(GPIO{num: n}.String(), gpioCapAll)
		b.pins[n] = p
	}
	return p
}

func (b *hostBoard) pin(g GPIO) GPIOPin {
	return b.line(g.num)
}

func (b *hostBoard) spi(bus SPI, cfg SPIConfig) (drivers.SPI, error) {
	b.panel.setFrequency(cfg.Frequency)
	return b.panel, nil
}

func (b *hostBoard) dma(ch DMAChannel, bus drivers.SPI) (BlockTransfer, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	d := newSimDMA(bus, b.panel.Frequency)
	b.dmas[ch.id] = d
	return d, nil
}

func (b *hostBoard) rmt(r RMT, data GPIO, cfg RMTConfig) (PulseEngine, error) {
	b.strip.setTick(cfg.TickFrequency())
	return b.strip, nil
}

// Sim exposes the simulated board behind a registry. It exists only in host
// builds.
type Sim struct {
	b *hostBoard
}

// Sim returns the simulated board the registry drives.
func (p *Peripherals) Sim() *Sim {
	hb, _ := p.b.(*hostBoard)
	if hb == nil {
		return nil
	}
	return &Sim{b: hb}
}

// NewSimBoard returns the registry of a fresh simulated board and the board
// itself. Unlike Take it can be called any number of times; boards are
// independent of each other.
func NewSimBoard() (*Peripherals, *Sim) {
	b := newHostBoard()
	return newPeripherals(b), &Sim{b: b}
}

// Leds is the colours the strip shows.
func (s *Sim) Leds() LedFrame { return s.b.strip.Frame() }

// Generation changes whenever the panel content or registers change.
func (s *Sim) Generation() uint64 { return s.b.panel.Generation() }

// Snapshot renders what the panel shows into dst, which must be 320x170.
func (s *Sim) Snapshot(dst *image.RGBA) { s.b.panel.Snapshot(dst) }

// Panel is the simulated display controller.
func (s *Sim) Panel() *SimPanel { return s.b.panel }

// Strip is the simulated LED strip.
func (s *Sim) Strip() *SimStrip { return s.b.strip }

// Press drives a button line to its pressed level.
func (s *Sim) Press(id ButtonID) {
	if id >= buttonCount {
		return
	}
	s.b.line(buttonLines[id]).drive(id == ButtonSelect)
}

// Release lets a button line return to its pull level.
func (s *Sim) Release(id ButtonID) {
	if id >= buttonCount {
		return
	}
	s.b.line(buttonLines[id]).release()
}

func (s *Sim) Backlight() bool { return s.b.line(pinBacklight).output() }
func (s *Sim) Vibrating() bool { return s.b.line(pinVibration).output() }
func (s *Sim) LedPower() bool  { return s.b.line(pinLedPower).output() }

// DMA returns the simulated channel bound as DMA_CH<n>, nil if unbound.
func (s *Sim) DMA(n int) *SimDMA {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	return s.b.dmas[n]
}

// busTime is how long n bytes take on a bus clocked at f.
func busTime(n int, f physic.Frequency) time.Duration {
	if f <= 0 {
		return 0
	}
	return time.Duration(float64(n*8) * float64(time.Second) * float64(physic.Hertz) / float64(f))
}
