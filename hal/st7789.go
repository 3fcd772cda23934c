package hal

import "time"

// ST7789 command set used by the driver.
const (
	cmdNOP     = 0x00
	cmdSWRESET = 0x01
	cmdSLPIN   = 0x10
	cmdSLPOUT  = 0x11
	cmdNORON   = 0x13
	cmdINVOFF  = 0x20
	cmdINVON   = 0x21
	cmdDISPOFF = 0x28
	cmdDISPON  = 0x29
	cmdCASET   = 0x2A
	cmdRASET   = 0x2B
	cmdRAMWR   = 0x2C
	cmdRAMRD   = 0x2E
	cmdVSCRDEF = 0x33
	cmdMADCTL  = 0x36
	cmdVSCSAD  = 0x37
	cmdCOLMOD  = 0x3A
)

// MADCTL bits.
const (
	madctlMY  = 0x80
	madctlMX  = 0x40
	madctlMV  = 0x20
	madctlML  = 0x10
	madctlBGR = 0x08
	madctlMH  = 0x04
)

const (
	colmodRGB565 = 0x55

	// Landscape: rows and columns exchanged, columns mirrored.
	madctlLandscape = madctlMX | madctlMV

	// Native frame memory is 240x320; in landscape the 170 visible lines
	// start at row 35.
	panelRowOffset = 35
	panelLines     = 320
)

// commando is one step of the initialization table.
type commando struct {
	Command byte
	Args    []byte
	Delay   time.Duration
}

// st7789Init brings the controller out of reset into RGB565 landscape with
// inversion on. The addressing window and scroll definition are programmed
// afterwards from the driver state.
var st7789Init = []commando{
	{Command: cmdSWRESET, Delay: 150 * time.Millisecond},
	{Command: cmdSLPOUT, Delay: 10 * time.Millisecond},
	{Command: cmdCOLMOD, Args: []byte{colmodRGB565}, Delay: 10 * time.Millisecond},
	{Command: cmdMADCTL, Args: []byte{madctlLandscape}},
	{Command: cmdINVON},
}

var st7789Start = []commando{
	{Command: cmdNORON, Delay: 10 * time.Millisecond},
	{Command: cmdDISPON, Delay: 10 * time.Millisecond},
}

func be16(v int) (hi, lo byte) {
	return byte(v >> 8), byte(v)
}
