package hal

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"periph.io/x/conn/v3/physic"
	"tinygo.org/x/drivers"
)

// DisplayState is the driver state.
type DisplayState uint32

const (
	StateUninitialized DisplayState = iota
	StateConfiguring
	StateReady
	StateStreaming
)

func (s DisplayState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateConfiguring:
		return "configuring"
	case StateReady:
		return "ready"
	case StateStreaming:
		return "streaming"
	}
	return fmt.Sprintf("DisplayState(%d)", uint32(s))
}

// DisplayConfig tunes the panel driver. The zero value is the board default.
type DisplayConfig struct {
	// SPI clock. Defaults to 80 MHz.
	Frequency physic.Frequency

	// Reset low time and settle time after release.
	ResetPulse  time.Duration
	ResetSettle time.Duration

	// A transfer that has not completed after Watchdog faults with
	// ErrTransferFault. Defaults to one second; negative disables it.
	Watchdog time.Duration

	Logger *zerolog.Logger
}

func (c *DisplayConfig) setDefaults() {
	if c.Frequency == 0 {
		c.Frequency = 80 * physic.MegaHertz
	}
	if c.ResetPulse == 0 {
		c.ResetPulse = 10 * time.Millisecond
	}
	if c.ResetSettle == 0 {
		c.ResetSettle = 120 * time.Millisecond
	}
	if c.Watchdog == 0 {
		c.Watchdog = time.Second
	}
}

// sleep is swapped out by tests.
var sleep = time.Sleep

// Row is one line of big-endian RGB565 pixels handed to a RowFunc.
type Row []byte

func (r Row) Width() int { return len(r) / 2 }

func (r Row) Set(x int, c RGB565) { c.Put(r[2*x:]) }

func (r Row) SetRGBA(x int, c color.RGBA) { RGB565Of(c).Put(r[2*x:]) }

func (r Row) Fill(c RGB565) {
	for i := 0; i+1 < len(r); i += 2 {
		c.Put(r[i:])
	}
}

// RowFunc fills row y (relative to the window) of a direct-mode transfer.
type RowFunc func(y int, row Row) error

// Display drives the ST7789 panel in landscape.
type Display struct {
	mu  sync.Mutex
	cfg DisplayConfig
	log zerolog.Logger

	bus drivers.SPI
	dma BlockTransfer
	dc  GPIOPin
	cs  GPIOPin
	rst GPIOPin

	state   atomic.Uint32
	pending *Transfer

	window       image.Rectangle
	scroll       int
	scrollTop    int
	scrollBottom int

	cmd  [1]byte
	args [6]byte
	rows [2][]byte
}

// NewDisplay consumes the display group, binds SPI2 and its DMA channel, and
// runs the panel initialization. The backlight is left alone.
func NewDisplay(r DisplayResources, cfg DisplayConfig) (*Display, error) {
	if err := r.g.consume(r.members()...); err != nil {
		return nil, err
	}
	cfg.setDefaults()

	d := &Display{
		cfg:    cfg,
		log:    zerolog.Nop(),
		window: displayBounds,
	}
	if cfg.Logger != nil {
		d.log = cfg.Logger.With().Str("drv", "st7789").Logger()
	}

	var err error
	if d.dc, err = outputPin(r.b, r.DC, true); err != nil {
		return nil, err
	}
	if d.cs, err = outputPin(r.b, r.CS, true); err != nil {
		return nil, err
	}
	if d.rst, err = outputPin(r.b, r.RST, true); err != nil {
		return nil, err
	}
	d.bus, err = r.b.spi(r.SPI, SPIConfig{
		Frequency: cfg.Frequency,
		SCK:       r.SCK,
		SDO:       r.MOSI,
		SDI:       r.MISO,
	})
	if err != nil {
		return nil, fmt.Errorf("st7789: %v: %w", r.SPI, err)
	}
	if d.dma, err = r.b.dma(r.DMA, d.bus); err != nil {
		return nil, fmt.Errorf("st7789: %v: %w", r.DMA, err)
	}

	if err := d.configure(); err != nil {
		d.setState(StateUninitialized)
		return nil, err
	}
	return d, nil
}

var displayBounds = image.Rect(0, 0, DisplayWidth, DisplayHeight)

func (d *Display) configure() error {
	d.setState(StateConfiguring)

	if err := d.rst.Write(false); err != nil {
		return fmt.Errorf("st7789: reset: %w", err)
	}
	sleep(d.cfg.ResetPulse)
	if err := d.rst.Write(true); err != nil {
		return fmt.Errorf("st7789: reset: %w", err)
	}
	sleep(d.cfg.ResetSettle)

	if err := d.commands(st7789Init); err != nil {
		return err
	}
	if err := d.setWindow(displayBounds); err != nil {
		return err
	}
	if err := d.writeScroll(); err != nil {
		return err
	}
	if err := d.commands(st7789Start); err != nil {
		return err
	}

	d.setState(StateReady)
	return nil
}

func (d *Display) setState(s DisplayState) {
	prev := DisplayState(d.state.Swap(uint32(s)))
	if prev != s {
		d.log.Debug().Stringer("from", prev).Stringer("to", s).Msg("state")
	}
}

// State reports the driver state.
func (d *Display) State() DisplayState { return DisplayState(d.state.Load()) }

// Window is the addressing window last programmed.
func (d *Display) Window() image.Rectangle {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.window
}

// ScrollOffset is the current hardware scroll offset.
func (d *Display) ScrollOffset() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.scroll
}

// Bounds is the full panel rectangle.
func (d *Display) Bounds() image.Rectangle { return displayBounds }

// SetWindow programs the addressing window without writing pixels.
func (d *Display) SetWindow(win image.Rectangle) error {
	if err := checkWindow(win); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.waitIdle()
	return d.setWindow(win)
}

// WriteFramebuffer sends buf, big-endian RGB565 rows of win, through the DMA
// engine and returns without waiting. buf must stay untouched until the
// returned transfer is done. Later calls on the display wait for it.
func (d *Display) WriteFramebuffer(buf []byte, win image.Rectangle) (*Transfer, error) {
	if err := checkWindow(win); err != nil {
		return nil, err
	}
	if want := win.Dx() * win.Dy() * 2; len(buf) != want {
		return nil, fmt.Errorf("st7789: buffer is %d bytes, window %v needs %d: %w", len(buf), win, want, ErrInvalidWindow)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.waitIdle()

	if err := d.setWindow(win); err != nil {
		return nil, err
	}
	if err := d.beginPixels(); err != nil {
		return nil, err
	}

	t := newTransfer(len(buf))
	d.pending = t
	d.setState(StateStreaming)
	d.stream(t, buf)
	return t, nil
}

// stream chains buf through the engine in chunks it accepts.
func (d *Display) stream(t *Transfer, buf []byte) {
	var wd *time.Timer
	if d.cfg.Watchdog > 0 {
		wd = time.AfterFunc(d.cfg.Watchdog, func() {
			d.complete(t, fmt.Errorf("st7789: dma watchdog after %v: %w", d.cfg.Watchdog, ErrTransferFault))
		})
	}
	finish := func(err error) {
		if wd != nil {
			wd.Stop()
		}
		d.complete(t, transferFault(err))
	}

	chunk := d.dma.MaxChunk()
	var next func(off int)
	next = func(off int) {
		select {
		case <-t.Done():
			return
		default:
		}
		n := len(buf) - off
		if chunk > 0 && n > chunk {
			n = chunk
		}
		err := d.dma.Start(buf[off:off+n], func(err error) {
			switch {
			case err != nil:
				finish(err)
			case off+n < len(buf):
				next(off + n)
			default:
				finish(nil)
			}
		})
		if err != nil {
			finish(err)
		}
	}
	next(0)
}

// complete releases the bus and returns the driver to Ready. It runs from
// the engine's completion callback and must not take d.mu.
func (d *Display) complete(t *Transfer, err error) {
	t.finish(err, func() {
		if cerr := d.cs.Write(true); cerr != nil {
			d.log.Warn().Err(cerr).Msg("release CS")
		}
		d.setState(StateReady)
		if err != nil {
			d.log.Warn().Err(err).Int("bytes", t.Len()).Msg("transfer failed")
		}
	})
}

// waitIdle blocks until the pending transfer is done. Caller holds d.mu.
func (d *Display) waitIdle() {
	if d.pending == nil {
		return
	}
	<-d.pending.Done()
	d.pending = nil
}

// StreamDirect writes win without a framebuffer. produce is called for each
// row in order; while row y is transferred row y+1 is produced into the other
// of two row buffers.
func (d *Display) StreamDirect(ctx context.Context, win image.Rectangle, produce RowFunc) error {
	if err := checkWindow(win); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.waitIdle()

	rowBytes := win.Dx() * 2
	for i := range d.rows {
		if cap(d.rows[i]) < rowBytes {
			d.rows[i] = make([]byte, DisplayWidth*2)
		}
	}

	if err := d.setWindow(win); err != nil {
		return err
	}
	if err := d.beginPixels(); err != nil {
		return err
	}

	t := newTransfer(rowBytes * win.Dy())
	d.pending = t
	d.setState(StateStreaming)

	err := d.streamRows(ctx, win.Dy(), rowBytes, produce)
	if err != nil {
		err = fmt.Errorf("st7789: direct row stream: %w", err)
	}
	d.complete(t, err)
	d.pending = nil
	return err
}

func (d *Display) streamRows(ctx context.Context, h, rowBytes int, produce RowFunc) error {
	acks := [2]chan error{make(chan error, 1), make(chan error, 1)}
	var inflight chan error
	for y := 0; y < h; y++ {
		row := d.rows[y%2][:rowBytes]
		perr := produce(y, Row(row))
		if err := d.await(inflight); err != nil {
			return err
		}
		inflight = nil
		if perr != nil {
			return perr
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		ack := acks[y%2]
		if err := d.dma.Start(row, func(err error) { ack <- err }); err != nil {
			return transferFault(err)
		}
		inflight = ack
	}
	return d.await(inflight)
}

func (d *Display) await(ack chan error) error {
	if ack == nil {
		return nil
	}
	var timeout <-chan time.Time
	if d.cfg.Watchdog > 0 {
		t := time.NewTimer(d.cfg.Watchdog)
		defer t.Stop()
		timeout = t.C
	}
	select {
	case err := <-ack:
		return transferFault(err)
	case <-timeout:
		return fmt.Errorf("dma watchdog after %v: %w", d.cfg.Watchdog, ErrTransferFault)
	}
}

// SetScroll moves the hardware scroll start so the scroll area shows its
// content offset by offset lines along the 320-pixel axis. It only rewrites
// the scroll registers; no pixel data moves. The offset wraps.
func (d *Display) SetScroll(offset int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.waitIdle()

	area := panelLines - d.scrollTop - d.scrollBottom
	d.scroll = ((offset % area) + area) % area
	return d.writeScroll()
}

// SetScrollArea fixes top and bottom lines that do not scroll.
func (d *Display) SetScrollArea(top, bottom int) error {
	if top < 0 || bottom < 0 || top+bottom >= panelLines {
		return fmt.Errorf("st7789: scroll area top=%d bottom=%d: %w", top, bottom, ErrInvalidWindow)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.waitIdle()

	d.scrollTop, d.scrollBottom = top, bottom
	area := panelLines - top - bottom
	d.scroll %= area
	return d.writeScroll()
}

func (d *Display) writeScroll() error {
	area := panelLines - d.scrollTop - d.scrollBottom
	a := d.args[:6]
	a[0], a[1] = be16(d.scrollTop)
	a[2], a[3] = be16(area)
	a[4], a[5] = be16(d.scrollBottom)
	if err := d.command(cmdVSCRDEF, a...); err != nil {
		return err
	}
	a = d.args[:2]
	a[0], a[1] = be16(d.scrollTop + d.scroll)
	return d.command(cmdVSCSAD, a...)
}

// Fill paints the whole panel with c in direct mode.
func (d *Display) Fill(c RGB565) error {
	return d.StreamDirect(context.Background(), displayBounds, func(_ int, row Row) error {
		row.Fill(c)
		return nil
	})
}

// Size implements drivers.Displayer.
func (d *Display) Size() (x, y int16) {
	return DisplayWidth, DisplayHeight
}

// SetPixel implements drivers.Displayer. Each call is a one-pixel window
// write; draw into a Canvas for anything larger.
func (d *Display) SetPixel(x, y int16, c color.RGBA) {
	win := image.Rect(int(x), int(y), int(x)+1, int(y)+1)
	if checkWindow(win) != nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.waitIdle()

	err := d.setWindow(win)
	if err == nil {
		px := d.args[:2]
		RGB565Of(c).Put(px)
		err = d.command(cmdRAMWR, px...)
	}
	if err != nil {
		d.log.Warn().Err(err).Int16("x", x).Int16("y", y).Msg("set pixel")
	}
}

// Display implements drivers.Displayer. It waits for the pending transfer
// and returns its error.
func (d *Display) Display() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending == nil {
		return nil
	}
	t := d.pending
	d.waitIdle()
	return t.Err()
}

// FillRectangle fills the rectangle in direct mode. An empty or negative
// size draws nothing.
func (d *Display) FillRectangle(x, y, width, height int16, c color.RGBA) error {
	if width <= 0 || height <= 0 {
		return nil
	}
	win := image.Rect(int(x), int(y), int(x)+int(width), int(y)+int(height))
	px := RGB565Of(c)
	return d.StreamDirect(context.Background(), win, func(_ int, row Row) error {
		row.Fill(px)
		return nil
	})
}

// SetRotation accepts only the fixed landscape orientation.
func (d *Display) SetRotation(rotation drivers.Rotation) error {
	if rotation != drivers.Rotation0 {
		return ErrNotImplemented
	}
	return nil
}

func checkWindow(win image.Rectangle) error {
	if win.Empty() || !win.In(displayBounds) {
		return fmt.Errorf("st7789: window %v outside %v: %w", win, displayBounds, ErrInvalidWindow)
	}
	return nil
}

func (d *Display) setWindow(win image.Rectangle) error {
	a := d.args[:4]
	a[0], a[1] = be16(win.Min.X)
	a[2], a[3] = be16(win.Max.X - 1)
	if err := d.command(cmdCASET, a...); err != nil {
		return err
	}
	a[0], a[1] = be16(win.Min.Y + panelRowOffset)
	a[2], a[3] = be16(win.Max.Y - 1 + panelRowOffset)
	if err := d.command(cmdRASET, a...); err != nil {
		return err
	}
	d.window = win
	return nil
}

func (d *Display) commands(list []commando) error {
	for _, c := range list {
		if err := d.command(c.Command, c.Args...); err != nil {
			return err
		}
		if c.Delay > 0 {
			sleep(c.Delay)
		}
	}
	return nil
}

// command sends one command byte with DC low followed by its arguments with
// DC high, framed by CS.
func (d *Display) command(c byte, args ...byte) error {
	lines := errors.Join(d.cs.Write(false), d.dc.Write(false))
	d.cmd[0] = c
	err := d.bus.Tx(d.cmd[:], nil)
	lines = errors.Join(lines, d.dc.Write(true))
	if err == nil && len(args) > 0 {
		err = d.bus.Tx(args, nil)
	}
	lines = errors.Join(lines, d.cs.Write(true))
	if err != nil {
		return fmt.Errorf("st7789: command %#02x: %w", c, transferFault(err))
	}
	if lines != nil {
		return fmt.Errorf("st7789: command %#02x: control line: %w", c, lines)
	}
	return nil
}

// beginPixels issues RAMWR and leaves CS low with DC high for the data phase.
func (d *Display) beginPixels() error {
	lines := errors.Join(d.cs.Write(false), d.dc.Write(false))
	d.cmd[0] = cmdRAMWR
	err := d.bus.Tx(d.cmd[:], nil)
	lines = errors.Join(lines, d.dc.Write(true))
	if err != nil || lines != nil {
		if cerr := d.cs.Write(true); cerr != nil {
			d.log.Warn().Err(cerr).Msg("release CS")
		}
	}
	if err != nil {
		return fmt.Errorf("st7789: RAMWR: %w", transferFault(err))
	}
	if lines != nil {
		return fmt.Errorf("st7789: RAMWR: control line: %w", lines)
	}
	return nil
}

func outputPin(b backend, g GPIO, initial bool) (GPIOPin, error) {
	p := b.pin(g)
	if p == nil {
		return nil, fmt.Errorf("hal: %v: %w", g, ErrNotImplemented)
	}
	if err := p.Configure(GPIOModeOutput, GPIOPullNone); err != nil {
		return nil, err
	}
	if err := p.Write(initial); err != nil {
		return nil, err
	}
	return p, nil
}
