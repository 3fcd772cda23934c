//go:build tinygo

package hal

import (
	"fmt"
	"machine"
	"time"

	"periph.io/x/conn/v3/physic"
	"tinygo.org/x/drivers"
	"tinygo.org/x/drivers/ws2812"
)

// machineBoard binds the capability groups to the ESP32-S3 peripherals.
type machineBoard struct{}

func newBoardBackend() backend { return machineBoard{} }

func (machineBoard) pin(g GPIO) GPIOPin {
	return &machinePin{pin: machine.Pin(g.num), name: g.String()}
}

func (machineBoard) spi(bus SPI, cfg SPIConfig) (drivers.SPI, error) {
	if bus.id != 2 {
		return nil, fmt.Errorf("hal: %v: %w", bus, ErrNotImplemented)
	}
	spi := machine.SPI2
	err := spi.Configure(machine.SPIConfig{
		Frequency: uint32(cfg.Frequency / physic.Hertz),
		SCK:       machine.Pin(cfg.SCK.num),
		SDO:       machine.Pin(cfg.SDO.num),
		SDI:       machine.Pin(cfg.SDI.num),
		Mode:      cfg.Mode,
	})
	if err != nil {
		return nil, err
	}
	return spi, nil
}

func (machineBoard) dma(ch DMAChannel, bus drivers.SPI) (BlockTransfer, error) {
	return newSPIWorker(bus), nil
}

func (machineBoard) rmt(r RMT, data GPIO, cfg RMTConfig) (PulseEngine, error) {
	pin := machine.Pin(data.num)
	pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	return &ws2812Engine{dev: ws2812.New(pin), tick: cfg.TickFrequency()}, nil
}

type machinePin struct {
	pin  machine.Pin
	name string
}

func (p *machinePin) Name() string   { return p.name }
func (p *machinePin) Caps() GPIOCaps { return gpioCapAll }

func (p *machinePin) Configure(mode GPIOMode, pull GPIOPull) error {
	var m machine.PinMode
	switch {
	case mode == GPIOModeOutput:
		m = machine.PinOutput
	case mode == GPIOModeInput && pull == GPIOPullUp:
		m = machine.PinInputPullup
	case mode == GPIOModeInput && pull == GPIOPullDown:
		m = machine.PinInputPulldown
	case mode == GPIOModeInput:
		m = machine.PinInput
	default:
		return fmt.Errorf("gpio: pin %s: invalid mode", p.name)
	}
	p.pin.Configure(machine.PinConfig{Mode: m})
	return nil
}

func (p *machinePin) Read() (bool, error) { return p.pin.Get(), nil }

func (p *machinePin) Write(level bool) error {
	p.pin.Set(level)
	return nil
}

// spiWorker stands in for the DMA channel: a goroutine drains queued buffers
// onto the bus so the caller returns immediately.
type spiWorker struct {
	bus  drivers.SPI
	jobs chan spiJob
}

type spiJob struct {
	buf  []byte
	done func(error)
}

func newSPIWorker(bus drivers.SPI) *spiWorker {
	w := &spiWorker{bus: bus, jobs: make(chan spiJob, 2)}
	go w.run()
	return w
}

func (w *spiWorker) run() {
	for j := range w.jobs {
		j.done(w.bus.Tx(j.buf, nil))
	}
}

func (w *spiWorker) MaxChunk() int { return 32000 }

func (w *spiWorker) Start(buf []byte, done func(error)) error {
	select {
	case w.jobs <- spiJob{buf: buf, done: done}:
		return nil
	default:
		return fmt.Errorf("dma: queue full: %w", ErrTransferFault)
	}
}

// ws2812Engine replays pulse codes through the bit-banged ws2812 driver.
// Codes are turned back into bytes; a code whose high time is longer than its
// low time is a one.
type ws2812Engine struct {
	dev  ws2812.Device
	tick physic.Frequency
	buf  []byte
}

func (e *ws2812Engine) Transmit(codes []PulseCode) error {
	e.buf = e.buf[:0]
	var cur byte
	bits := 0
	for _, c := range codes {
		if !c.Level0 {
			period := time.Duration(float64(time.Second) * float64(physic.Hertz) / float64(e.tick))
			if _, err := e.dev.Write(e.buf); err != nil {
				return err
			}
			time.Sleep(time.Duration(int(c.Duration0)+int(c.Duration1)) * period)
			e.buf = e.buf[:0]
			bits = 0
			continue
		}
		cur <<= 1
		if c.Duration0 > c.Duration1 {
			cur |= 1
		}
		bits++
		if bits == 8 {
			e.buf = append(e.buf, cur)
			cur, bits = 0, 0
		}
	}
	return nil
}
