package app

import (
	"image/color"

	"badge/hal"
)

// rgb packs 5-bit red, 6-bit green and 5-bit blue, clamping each.
func rgb(r, g, b int) hal.RGB565 {
	return hal.RGB565(clamp(r, 31)<<11 | clamp(g, 63)<<5 | clamp(b, 31))
}

func clamp(v, hi int) int {
	if v < 0 {
		return 0
	}
	if v > hi {
		return hi
	}
	return v
}

// hsv converts hue, saturation and value in [0,1] to a colour.
func hsv(h, s, v float64) color.RGBA {
	h -= float64(int(h))
	if h < 0 {
		h++
	}
	i := int(h * 6.0)
	f := h*6.0 - float64(i)
	p := v * (1.0 - s)
	q := v * (1.0 - f*s)
	t := v * (1.0 - (1.0-f)*s)

	var r, g, b float64
	switch i % 6 {
	case 0:
		r, g, b = v, t, p
	case 1:
		r, g, b = q, v, p
	case 2:
		r, g, b = p, v, t
	case 3:
		r, g, b = p, q, v
	case 4:
		r, g, b = t, p, v
	default:
		r, g, b = v, p, q
	}
	return color.RGBA{R: uint8(r * 255), G: uint8(g * 255), B: uint8(b * 255), A: 0xFF}
}

// Quarter sine table, 0..64 covering 0..90 degrees, amplitude 120.
var sinQ = [65]int16{
	0, 3, 6, 9, 12, 16, 19, 22, 25, 28, 31, 34, 37, 40, 43, 46, 49, 51, 54, 57, 60, 62, 65, 67,
	70, 72, 75, 77, 79, 81, 84, 86, 88, 90, 92, 93, 95, 97, 99, 100, 102, 103, 105, 106, 107,
	108, 110, 111, 112, 113, 114, 114, 115, 116, 117, 117, 118, 118, 119, 119, 119, 120, 120, 120,
	120,
}

// isin is a fixed-point sine: a full turn is 1024, the result is in -120..120.
func isin(angle int) int {
	a := ((angle % 1024) + 1024) % 1024
	i := (a % 256) * 64 / 256
	switch a / 256 {
	case 0:
		return int(sinQ[i])
	case 1:
		return int(sinQ[64-i])
	case 2:
		return -int(sinQ[i])
	default:
		return -int(sinQ[64-i])
	}
}

func icos(angle int) int { return isin(angle + 256) }
