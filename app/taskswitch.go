package app

import (
	"context"
	"errors"
	"time"

	"badge/hal"
	"badge/kernel"

	"golang.org/x/sync/errgroup"
)

type turn int

const (
	turnBall turn = iota
	turnBanner
)

const (
	turnFrames = 60
	turnFrame  = 50 * time.Millisecond
)

// runTaskSwitch lets two tasks take turns on the display. The baton says
// whose turn it is; a task that takes it out of turn gives it straight back.
func runTaskSwitch(ctx context.Context, b *board) error {
	baton := kernel.NewBaton(turnBall)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return takeTurns(ctx, b, baton, turnBall, turnBanner, newBall()) })
	g.Go(func() error { return takeTurns(ctx, b, baton, turnBanner, turnBall, newBanner()) })
	return g.Wait()
}

type animation interface {
	draw(c *hal.Canvas)
}

func takeTurns(ctx context.Context, b *board, baton *kernel.Baton[turn], me, next turn, a animation) error {
	c := hal.NewCanvas(b.disp, b.disp.Bounds())
	for {
		t, err := baton.Take(ctx)
		if err != nil {
			return err
		}
		if t != me {
			baton.Give(t)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(10 * time.Millisecond):
			}
			continue
		}

		b.log.Debug().Int("task", int(me)).Msg("my turn")
		err = every(ctx, turnFrame, func(frame uint32) error {
			if frame >= turnFrames {
				return errTurnOver
			}
			a.draw(c)
			return c.Display()
		})
		baton.Give(next)
		if err != errTurnOver {
			return err
		}
	}
}

var errTurnOver = errors.New("turn over")

// ball bounces an orange square on dark blue.
type ball struct {
	x, y, dx, dy int
}

func newBall() *ball { return &ball{x: 40, y: 85, dx: 3, dy: 2} }

const ballR = 12

func (a *ball) draw(c *hal.Canvas) {
	c.Clear(rgb(0, 0, 8))
	label(c, 5, 5, "BALL", white)

	a.x += a.dx
	a.y += a.dy
	if a.x-ballR <= 0 || a.x+ballR >= hal.DisplayWidth {
		a.dx = -a.dx
	}
	if a.y-ballR <= 0 || a.y+ballR >= hal.DisplayHeight {
		a.dy = -a.dy
	}
	a.x = max(ballR, min(a.x, hal.DisplayWidth-ballR))
	a.y = max(ballR, min(a.y, hal.DisplayHeight-ballR))

	orange := rgb(31, 41, 0)
	for dy := -ballR; dy <= ballR; dy++ {
		for dx := -ballR; dx <= ballR; dx++ {
			if dx*dx+dy*dy <= ballR*ballR {
				c.SetPixel(int16(a.x+dx), int16(a.y+dy), orange.RGBA8())
			}
		}
	}
}

// banner scrolls a line of text across dark green.
type banner struct {
	offset int
}

const bannerText = "** badge task switch **"

func newBanner() *banner { return &banner{offset: hal.DisplayWidth} }

func (a *banner) draw(c *hal.Canvas) {
	c.Clear(rgb(0, 8, 0))
	label(c, 5, 5, "BANNER", white)
	label(c, int16(a.offset), hal.DisplayHeight/2, bannerText, rgb(31, 63, 0).RGBA8())
	a.offset -= 4
	if a.offset < -len(bannerText)*8 {
		a.offset = hal.DisplayWidth
	}
}
