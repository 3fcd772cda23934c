package hal

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"periph.io/x/conn/v3/physic"
	"tinygo.org/x/drivers"
)

// SPIConfig configures the synchronous serial controller bound to the display.
type SPIConfig struct {
	Frequency physic.Frequency
	Mode      uint8
	SCK       GPIO
	SDO       GPIO
	SDI       GPIO
}

// RMTConfig configures the pulse-train generator bound to the LED strip.
type RMTConfig struct {
	Clock   physic.Frequency
	Divider uint8
}

// TickFrequency is the rate at which pulse durations are counted.
func (c RMTConfig) TickFrequency() physic.Frequency {
	if c.Divider == 0 {
		return c.Clock
	}
	return c.Clock / physic.Frequency(c.Divider)
}

// BlockTransfer moves a buffer to the bus it was bound to without the
// caller touching each byte.
type BlockTransfer interface {
	// Start begins sending buf and returns immediately. done is called once,
	// from any goroutine, after the last byte left or the engine faulted.
	// buf must not be modified before done runs.
	Start(buf []byte, done func(error)) error

	// MaxChunk is the largest buffer a single Start accepts.
	MaxChunk() int
}

// PulseCode is one pulse-train item: Level0 held for Duration0 ticks, then
// Level1 for Duration1 ticks. A zero duration ends the item early.
type PulseCode struct {
	Level0    bool
	Duration0 uint16
	Level1    bool
	Duration1 uint16
}

// PulseEngine emits a pulse train on its output pin.
type PulseEngine interface {
	// Transmit blocks until every code has been emitted.
	Transmit(codes []PulseCode) error
}

// backend binds capability groups to the transfer engines of one board.
// The TinyGo build uses the machine package, the host build a simulation.
type backend interface {
	pin(g GPIO) GPIOPin
	spi(bus SPI, cfg SPIConfig) (drivers.SPI, error)
	dma(ch DMAChannel, bus drivers.SPI) (BlockTransfer, error)
	rmt(r RMT, data GPIO, cfg RMTConfig) (PulseEngine, error)
}

// Transfer is the completion handle of an asynchronous display transfer.
type Transfer struct {
	n    int
	once sync.Once
	done chan struct{}
	err  error
}

func newTransfer(n int) *Transfer {
	return &Transfer{n: n, done: make(chan struct{})}
}

// Len is the number of bytes the transfer moves.
func (t *Transfer) Len() int { return t.n }

// Done is closed when the transfer completed or faulted.
func (t *Transfer) Done() <-chan struct{} { return t.done }

// Err returns the transfer result once Done is closed, nil before.
func (t *Transfer) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}

// Wait blocks until the transfer completes or ctx ends. Giving up on the wait
// does not stop the hardware.
func (t *Transfer) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// finish records the result and closes Done. Only the first call counts;
// release runs before Done closes.
func (t *Transfer) finish(err error, release func()) bool {
	first := false
	t.once.Do(func() {
		first = true
		if release != nil {
			release()
		}
		t.err = err
		close(t.done)
	})
	return first
}

// transferFault makes err match ErrTransferFault.
func transferFault(err error) error {
	if err == nil || errors.Is(err, ErrTransferFault) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrTransferFault, err)
}
