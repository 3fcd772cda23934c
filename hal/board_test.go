//go:build !tinygo

package hal

import (
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/conntest"
	"tinygo.org/x/drivers"
)

func TestMain(m *testing.M) {
	sleep = func(time.Duration) {}
	os.Exit(m.Run())
}

// newSimBoard returns the groups of a fresh simulated board.
func newSimBoard(t *testing.T) (Resources, *Sim) {
	t.Helper()
	p := newPeripherals(newHostBoard())
	r, err := Split(p)
	require.NoError(t, err)
	return r, p.Sim()
}

// recordBus is a drivers.SPI that records every write.
type recordBus struct {
	conntest.Record
}

func (b *recordBus) Transfer(c byte) (byte, error) {
	return 0, b.Tx([]byte{c}, nil)
}

// recordDMA completes each Start on its own goroutine after writing the
// buffer to the bus.
type recordDMA struct {
	bus drivers.SPI

	mu     sync.Mutex
	chunks []int
}

func (d *recordDMA) MaxChunk() int { return simDMAChunk }

func (d *recordDMA) Start(buf []byte, done func(error)) error {
	d.mu.Lock()
	d.chunks = append(d.chunks, len(buf))
	d.mu.Unlock()
	go func() { done(d.bus.Tx(buf, nil)) }()
	return nil
}

// recordBoard is the simulated board with SPI2 replaced by a recorder.
type recordBoard struct {
	*hostBoard
	rec *recordBus
	eng *recordDMA
}

func newRecordBoard() *recordBoard {
	bus := &recordBus{}
	return &recordBoard{hostBoard: newHostBoard(), rec: bus, eng: &recordDMA{bus: bus}}
}

func (b *recordBoard) spi(SPI, SPIConfig) (drivers.SPI, error) { return b.rec, nil }

func (b *recordBoard) dma(DMAChannel, drivers.SPI) (BlockTransfer, error) { return b.eng, nil }

func (b *recordBoard) writes() [][]byte {
	b.rec.Lock()
	defer b.rec.Unlock()
	out := make([][]byte, len(b.rec.Ops))
	for i, op := range b.rec.Ops {
		out[i] = op.W
	}
	return out
}
