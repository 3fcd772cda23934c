//go:build !tinygo && cgo

package hal

import (
	"context"
	"image"
	"image/color"

	"badge/internal/buildinfo"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// Width of the LED bar drawn on each side of the panel.
const barWidth = 24

// RunWindow shows the simulated panel between the two LED bars and forwards
// keyboard input to the buttons. It blocks until the window closes or ctx
// ends.
func RunWindow(ctx context.Context, s *Sim, cfg WindowConfig) error {
	if cfg.Scale <= 0 {
		cfg.Scale = 2
	}
	title := cfg.Title
	if title == "" {
		title = "badge"
	}

	g := &simGame{ctx: ctx, sim: s}
	ebiten.SetWindowTitle(title + " (" + buildinfo.Short() + ")")
	ebiten.SetWindowSize((DisplayWidth+2*barWidth)*cfg.Scale, DisplayHeight*cfg.Scale)
	ebiten.SetTPS(60)
	return ebiten.RunGame(g)
}

type simGame struct {
	ctx     context.Context
	sim     *Sim
	img     *image.RGBA
	panel   *ebiten.Image
	lastGen uint64
	frame   uint64
}

func (g *simGame) Update() error {
	if g.ctx.Err() != nil {
		return ebiten.Termination
	}
	pollKeys(g.sim)
	g.frame++
	return nil
}

func (g *simGame) Draw(screen *ebiten.Image) {
	if g.img == nil {
		g.img = image.NewRGBA(image.Rect(0, 0, DisplayWidth, DisplayHeight))
		g.panel = ebiten.NewImage(DisplayWidth, DisplayHeight)
	}

	p := g.sim.Panel()
	if gen := p.Generation(); gen != g.lastGen {
		p.Snapshot(g.img)
		g.panel.WritePixels(g.img.Pix)
		g.lastGen = gen
	}

	op := &ebiten.DrawImageOptions{}
	x := float64(barWidth)
	if g.sim.Vibrating() {
		x += float64(g.frame%3) - 1
	}
	op.GeoM.Translate(x, 0)
	if !g.sim.Backlight() {
		op.ColorScale.Scale(0.08, 0.08, 0.08, 1)
	}
	screen.DrawImage(g.panel, op)

	leds := g.sim.Strip().Frame()
	step := float32(DisplayHeight) / BarCount
	r := float32(barWidth) / 3
	for i := 0; i < BarCount; i++ {
		// Row 0 is the top of the window.
		cy := step*float32(i) + step/2
		left := leds[BarCount+i]
		right := leds[BarCount-1-i]
		vector.DrawFilledCircle(screen, barWidth/2, cy, r, ledColor(left), true)
		vector.DrawFilledCircle(screen, DisplayWidth+barWidth+barWidth/2, cy, r, ledColor(right), true)
	}
}

func ledColor(c color.RGBA) color.RGBA {
	if c.R == 0 && c.G == 0 && c.B == 0 {
		return color.RGBA{R: 0x20, G: 0x20, B: 0x20, A: 0xFF}
	}
	c.A = 0xFF
	return c
}

func (g *simGame) Layout(outsideWidth, outsideHeight int) (int, int) {
	return DisplayWidth + 2*barWidth, DisplayHeight
}
