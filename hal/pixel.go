package hal

import "image/color"

// RGB565 is a 16-bit panel pixel. The panel takes it big-endian.
type RGB565 uint16

// RGB565Of packs an 8-bit-per-channel colour.
func RGB565Of(c color.RGBA) RGB565 {
	return RGB565(rgb565(c.R, c.G, c.B))
}

// RGBA8 expands the pixel to 8 bits per channel.
func (p RGB565) RGBA8() color.RGBA {
	r, g, b := rgb888From565(uint16(p))
	return color.RGBA{R: r, G: g, B: b, A: 0xFF}
}

// Put writes the pixel big-endian into b[0:2].
func (p RGB565) Put(b []byte) {
	b[0] = byte(p >> 8)
	b[1] = byte(p)
}

func rgb565(r, g, b uint8) uint16 {
	rr := uint16(r>>3) & 0x1F
	gg := uint16(g>>2) & 0x3F
	bb := uint16(b>>3) & 0x1F
	return (rr << 11) | (gg << 5) | bb
}

func rgb888From565(p uint16) (r, g, b uint8) {
	rr := (p >> 11) & 0x1F
	gg := (p >> 5) & 0x3F
	bb := p & 0x1F

	r = uint8((rr * 255) / 31)
	g = uint8((gg * 255) / 63)
	b = uint8((bb * 255) / 31)
	return r, g, b
}
