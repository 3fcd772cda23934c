package app

import (
	"errors"
	"fmt"
	"image/color"
	"strings"
	"unicode/utf8"

	"badge/hal"
	"badge/internal/buildinfo"

	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/proggy"
)

var (
	textFont       = &proggy.TinySZ8pt7b
	textLineHeight = int16(10)
	textOffset     = int16(7)

	white = color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
	black = color.RGBA{A: 0xFF}
)

// fatal logs err and, if the panel came up, draws it on a white screen.
func fatal(b *board, err error) {
	if b == nil {
		return
	}
	ev := b.log.Error().Err(err)
	if errors.Is(err, hal.ErrClaimViolation) {
		ev = ev.Bool("claim", true)
	}
	ev.Msg("fatal")

	if b.disp == nil {
		return
	}
	if b.backlight != nil {
		b.backlight.On()
	}
	lines := []string{
		"badge fatal error:",
		err.Error(),
		"",
		"build: " + buildinfo.Short(),
	}
	c := hal.NewCanvas(b.disp, b.disp.Bounds())
	writeScreen(c, lines, black, white)
	if derr := c.Display(); derr != nil {
		b.log.Error().Err(derr).Msg("fatal screen")
	}
}

// splash shows the build and demo name until the demo draws.
func splash(b *board, demo string) {
	c := hal.NewCanvas(b.disp, b.disp.Bounds())
	writeScreen(c, []string{
		"badge " + buildinfo.Short(),
		"demo: " + demo,
	}, white, black)
	if err := c.Display(); err != nil {
		b.log.Warn().Err(err).Msg("splash")
	}
}

// writeScreen clears c to bg and writes lines from the top, wrapping at the
// right edge. Lines that do not fit are dropped.
func writeScreen(c *hal.Canvas, lines []string, fg, bg color.RGBA) {
	c.Clear(hal.RGB565Of(bg))

	_, outboxWidth := tinyfont.LineWidth(textFont, "0")
	fontWidth := int16(outboxWidth)
	if fontWidth <= 0 {
		return
	}
	maxW, maxH := c.Size()
	cols := maxW / fontWidth
	if cols <= 0 {
		cols = 1
	}

	y := int16(0)
	for _, line := range lines {
		if line == "" {
			y += textLineHeight
			continue
		}
		for len(line) > 0 {
			if y+textLineHeight > maxH {
				return
			}
			chunk, rest := takeRunes(line, cols)
			drawTextLine(c, fontWidth, 0, y, chunk, fg)
			y += textLineHeight
			line = strings.TrimLeft(rest, " ")
		}
	}
}

func drawTextLine(c *hal.Canvas, fontWidth, x0, y0 int16, s string, fg color.RGBA) {
	x := x0
	for _, r := range s {
		tinyfont.DrawChar(c, textFont, x, y0+textOffset, r, fg)
		x += fontWidth
	}
}

// label writes s with its top-left corner at (x, y).
func label(c *hal.Canvas, x, y int16, s string, fg color.RGBA) {
	tinyfont.WriteLine(c, textFont, x, y+textOffset, s, fg)
}

func takeRunes(s string, n int16) (prefix, rest string) {
	if n <= 0 || s == "" {
		return "", s
	}
	if int64(len(s)) <= int64(n) {
		return s, ""
	}
	var i int
	var count int16
	for i < len(s) && count < n {
		_, size := utf8.DecodeRuneInString(s[i:])
		if size <= 0 {
			break
		}
		i += size
		count++
	}
	if i >= len(s) {
		return s, ""
	}
	return s[:i], s[i:]
}

func fmtButton(ev hal.ButtonEvent) string {
	if ev.Pressed {
		return fmt.Sprintf("%-6s down", ev.Button)
	}
	return fmt.Sprintf("%-6s up", ev.Button)
}
