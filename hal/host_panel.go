//go:build !tinygo

package hal

import (
	"fmt"
	"image"
	"sync"

	"periph.io/x/conn/v3/physic"
)

// Frame memory of the controller, large enough for either orientation.
const (
	simMemCols = 320
	simMemRows = 320
)

// PanelState is the register state of the simulated controller.
type PanelState struct {
	MADCTL   byte
	COLMOD   byte
	Inverted bool
	On       bool
	Asleep   bool

	// Column and row address range, inclusive, in frame memory coordinates.
	Columns [2]int
	Rows    [2]int

	// Vertical scroll definition and start address.
	ScrollTop    int
	ScrollArea   int
	ScrollBottom int
	ScrollStart  int
}

// SimPanel is a simulated ST7789 listening on the SPI bus. It decodes the
// command stream using the DC and CS lines, keeps its own frame memory and
// renders the visible 320x170 landscape area.
type SimPanel struct {
	dc, cs, rst *virtualPin

	mu    sync.Mutex
	freq  physic.Frequency
	state PanelState
	mem   []uint16

	cmd     byte
	params  []byte
	cx, cy  int
	half    byte
	hasHalf bool

	commands   []byte
	pixelBytes uint64
	gen        uint64
}

func newSimPanel(dc, cs, rst *virtualPin) *SimPanel {
	p := &SimPanel{
		dc:  dc,
		cs:  cs,
		rst: rst,
		mem: make([]uint16, simMemCols*simMemRows),
	}
	p.reset()
	rst.onWrite = func(level bool) {
		if !level {
			p.mu.Lock()
			p.reset()
			p.mu.Unlock()
		}
	}
	return p
}

// reset puts the registers in their power-on state. Caller holds p.mu
// except during construction.
func (p *SimPanel) reset() {
	p.state = PanelState{
		COLMOD:     0x66,
		Asleep:     true,
		Columns:    [2]int{0, 239},
		Rows:       [2]int{0, 319},
		ScrollArea: panelLines,
	}
	p.cmd = cmdNOP
	p.params = p.params[:0]
	p.hasHalf = false
	p.gen++
}

func (p *SimPanel) setFrequency(f physic.Frequency) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.freq = f
}

// Frequency is the SPI clock the controller is driven at.
func (p *SimPanel) Frequency() physic.Frequency {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.freq
}

// Tx implements drivers.SPI. Bytes are ignored while CS is high. Reading
// frame memory back is not supported.
func (p *SimPanel) Tx(w, r []byte) error {
	if len(r) > 0 {
		return fmt.Errorf("st7789 sim: readback: %w", ErrNotImplemented)
	}
	if sel, _ := p.cs.Read(); sel {
		return nil
	}
	data, _ := p.dc.Read()

	p.mu.Lock()
	defer p.mu.Unlock()
	if !data {
		for _, c := range w {
			p.command(c)
		}
		return nil
	}
	p.data(w)
	return nil
}

// Transfer implements drivers.SPI.
func (p *SimPanel) Transfer(b byte) (byte, error) {
	return 0, p.Tx([]byte{b}, nil)
}

func (p *SimPanel) command(c byte) {
	p.cmd = c
	p.params = p.params[:0]
	p.hasHalf = false
	if len(p.commands) < 4096 {
		p.commands = append(p.commands, c)
	}

	switch c {
	case cmdSWRESET:
		p.reset()
		p.cmd = c
	case cmdSLPOUT:
		p.state.Asleep = false
	case cmdSLPIN:
		p.state.Asleep = true
	case cmdINVON:
		p.state.Inverted = true
	case cmdINVOFF:
		p.state.Inverted = false
	case cmdDISPON:
		p.state.On = true
	case cmdDISPOFF:
		p.state.On = false
	case cmdRAMWR:
		p.cx, p.cy = p.state.Columns[0], p.state.Rows[0]
	}
}

func paramCount(c byte) int {
	switch c {
	case cmdMADCTL, cmdCOLMOD:
		return 1
	case cmdVSCSAD:
		return 2
	case cmdCASET, cmdRASET:
		return 4
	case cmdVSCRDEF:
		return 6
	}
	return 0
}

func (p *SimPanel) data(b []byte) {
	if p.cmd == cmdRAMWR {
		p.pixels(b)
		return
	}
	n := paramCount(p.cmd)
	for _, v := range b {
		if len(p.params) >= n {
			return
		}
		p.params = append(p.params, v)
	}
	if len(p.params) != n {
		return
	}

	a := p.params
	u16 := func(i int) int { return int(a[i])<<8 | int(a[i+1]) }
	switch p.cmd {
	case cmdMADCTL:
		p.state.MADCTL = a[0]
	case cmdCOLMOD:
		p.state.COLMOD = a[0]
	case cmdCASET:
		p.state.Columns = [2]int{u16(0), u16(2)}
	case cmdRASET:
		p.state.Rows = [2]int{u16(0), u16(2)}
	case cmdVSCRDEF:
		p.state.ScrollTop, p.state.ScrollArea, p.state.ScrollBottom = u16(0), u16(2), u16(4)
	case cmdVSCSAD:
		p.state.ScrollStart = u16(0)
	}
	p.gen++
}

func (p *SimPanel) pixels(b []byte) {
	if p.state.COLMOD&0x0F != colmodRGB565&0x0F {
		return
	}
	i := 0
	if p.hasHalf && len(b) > 0 {
		p.put(uint16(p.half)<<8 | uint16(b[0]))
		p.hasHalf = false
		i = 1
	}
	for ; i+1 < len(b); i += 2 {
		p.put(uint16(b[i])<<8 | uint16(b[i+1]))
	}
	if i < len(b) {
		p.half, p.hasHalf = b[i], true
	}
	p.pixelBytes += uint64(len(b))
	p.gen++
}

func (p *SimPanel) put(px uint16) {
	cols, rows := p.memSize()
	if p.cx < cols && p.cy < rows {
		p.mem[p.cy*simMemCols+p.cx] = px
	}
	p.cx++
	if p.cx > p.state.Columns[1] {
		p.cx = p.state.Columns[0]
		p.cy++
		if p.cy > p.state.Rows[1] {
			p.cy = p.state.Rows[0]
		}
	}
}

// memSize is the addressable frame memory given the row/column exchange bit.
func (p *SimPanel) memSize() (cols, rows int) {
	if p.state.MADCTL&madctlMV != 0 {
		return 320, 240
	}
	return 240, 320
}

// State returns a copy of the register state.
func (p *SimPanel) State() PanelState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Commands returns the command bytes received so far.
func (p *SimPanel) Commands() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]byte(nil), p.commands...)
}

// PixelBytes is the number of RAMWR data bytes received.
func (p *SimPanel) PixelBytes() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pixelBytes
}

// Generation changes whenever memory or registers change.
func (p *SimPanel) Generation() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.gen
}

// Memory returns the stored pixel at landscape (x, y), ignoring scroll and
// inversion.
func (p *SimPanel) Memory(x, y int) RGB565 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.memAt(x, y+panelRowOffset)
}

func (p *SimPanel) memAt(col, row int) RGB565 {
	if col < 0 || col >= simMemCols || row < 0 || row >= simMemRows {
		return 0
	}
	return RGB565(p.mem[row*simMemCols+col])
}

// Pixel returns the colour shown at landscape (x, y).
func (p *SimPanel) Pixel(x, y int) RGB565 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.visible(x, y)
}

func (p *SimPanel) visible(x, y int) RGB565 {
	s := p.state
	if !s.On || s.Asleep {
		return 0
	}
	col := x
	if x >= s.ScrollTop && x < s.ScrollTop+s.ScrollArea && s.ScrollArea > 0 {
		col = s.ScrollTop + ((x-s.ScrollTop)+(s.ScrollStart-s.ScrollTop)+s.ScrollArea)%s.ScrollArea
	}
	px := p.memAt(col, y+panelRowOffset)
	if !s.Inverted {
		// The glass inverts; INVON cancels it.
		px = ^px
	}
	return px
}

// Snapshot renders the visible area into dst, which must be 320x170.
func (p *SimPanel) Snapshot(dst *image.RGBA) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for y := 0; y < DisplayHeight; y++ {
		row := dst.Pix[y*dst.Stride:]
		for x := 0; x < DisplayWidth; x++ {
			c := p.visible(x, y).RGBA8()
			row[x*4+0] = c.R
			row[x*4+1] = c.G
			row[x*4+2] = c.B
			row[x*4+3] = 0xFF
		}
	}
}

// Image returns a new snapshot of the visible area.
func (p *SimPanel) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, DisplayWidth, DisplayHeight))
	p.Snapshot(img)
	return img
}
