package app

import (
	"context"
	"time"

	"badge/hal"
)

// effectTime is how long each shader runs before the next one.
const effectTime = 8 * time.Second

type shaderFunc func(x, y, frame int) hal.RGB565

var shaders = []struct {
	name string
	fn   shaderFunc
}{
	{"plasma", plasma},
	{"tunnel", tunnel},
	{"rotozoom", rotozoom},
	{"copper", copper},
}

// runShader renders full-screen effects in direct mode: every row is
// computed just before it goes out, with no framebuffer. Start skips to the
// next effect.
func runShader(ctx context.Context, b *board) error {
	idx := 0
	started := time.Now()
	win := b.disp.Bounds()

	return every(ctx, 16*time.Millisecond, func(frame uint32) error {
		if pressed(b.buttons.Scan(), hal.ButtonStart) || time.Since(started) >= effectTime {
			idx = (idx + 1) % len(shaders)
			started = time.Now()
			b.log.Debug().Str("shader", shaders[idx].name).Msg("next")
		}
		fn, f := shaders[idx].fn, int(frame)
		return b.disp.StreamDirect(ctx, win, func(y int, row hal.Row) error {
			for x := 0; x < row.Width(); x++ {
				row.Set(x, fn(x, y, f))
			}
			return nil
		})
	})
}

func plasma(x, y, f int) hal.RGB565 {
	a := isin(x*10 + f*7)
	b := icos(y*14 - f*9)
	c := isin((x-y*2)*6 - f*11)
	d := icos((x*3+y)*4 + f*5)
	return rgb((a+c)*31/240+16, (b+d)*63/240+32, (c+b)*31/240+16)
}

func tunnel(x, y, f int) hal.RGB565 {
	dx, dy := x-hal.DisplayWidth/2, y-hal.DisplayHeight/2
	ax, ay := abs(dx), abs(dy)
	dist := ay + ax/2
	if ax > ay {
		dist = ax + ay/2
	}
	if dist < 2 {
		return 0
	}
	var angle int
	switch {
	case ax > ay:
		angle = 256 * dy / ax
		if dx < 0 {
			angle = 512 - angle
		}
	case dy != 0:
		angle = 512 - 256*dx/ay
		if dx < 0 {
			angle = 512 - angle
		}
	}
	u := (1200/dist + f*3) & 0x1F
	v := (angle/8 + f) & 0x1F
	tex := u ^ v
	return rgb(tex, tex, tex*2)
}

func rotozoom(x, y, f int) hal.RGB565 {
	xc, yc := x-hal.DisplayWidth/2, y-hal.DisplayHeight/2
	sa, ca := isin(f*2), icos(f*2)
	zoom := 80 + isin(f*3)*60/120
	if zoom < 20 {
		zoom = 20
	}
	u := (xc*ca - yc*sa) / zoom
	v := (xc*sa + yc*ca) / zoom
	tex := abs(u^v) & 0xF
	return rgb(tex*2, tex*2, tex*2)
}

func copper(x, y, f int) hal.RGB565 {
	band := isin(y*12+f*8) + isin(y*5-f*3)
	shade := (band + 240) * 31 / 480
	return rgb(shade, (shade*2+isin(x*4+f)/8)&63, 31-shade)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
