//go:build !tinygo

package hal

import (
	"sync"
	"sync/atomic"
	"time"

	"periph.io/x/conn/v3/physic"
	"tinygo.org/x/drivers"
)

// simDMAChunk mirrors the descriptor buffers of the board's DMA channel.
const simDMAChunk = 32000

// busyWaitBelow is the shortest transfer the simulation sleeps for.
const busyWaitBelow = 200 * time.Microsecond

// SimDMA is a simulated DMA channel. Each Start copies the buffer onto the
// bus from its own goroutine after the time the bytes take at the bus clock.
type SimDMA struct {
	bus  drivers.SPI
	freq func() physic.Frequency

	starts atomic.Uint64
	bytes  atomic.Uint64

	mu       sync.Mutex
	failNext error
	stall    bool
}

func newSimDMA(bus drivers.SPI, freq func() physic.Frequency) *SimDMA {
	return &SimDMA{bus: bus, freq: freq}
}

func (d *SimDMA) MaxChunk() int { return simDMAChunk }

func (d *SimDMA) Start(buf []byte, done func(error)) error {
	d.starts.Add(1)

	d.mu.Lock()
	fail, stall := d.failNext, d.stall
	d.failNext, d.stall = nil, false
	d.mu.Unlock()

	var f physic.Frequency
	if d.freq != nil {
		f = d.freq()
	}
	wait := busTime(len(buf), f)

	go func() {
		if stall {
			return
		}
		if wait >= busyWaitBelow {
			time.Sleep(wait)
		}
		if fail != nil {
			done(fail)
			return
		}
		err := d.bus.Tx(buf, nil)
		d.bytes.Add(uint64(len(buf)))
		done(err)
	}()
	return nil
}

// Starts is the number of Start calls so far.
func (d *SimDMA) Starts() uint64 { return d.starts.Load() }

// Bytes is the number of bytes moved so far.
func (d *SimDMA) Bytes() uint64 { return d.bytes.Load() }

// FailNext makes the next transfer complete with err without moving data.
func (d *SimDMA) FailNext(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failNext = err
}

// StallNext makes the next transfer never complete.
func (d *SimDMA) StallNext() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stall = true
}
