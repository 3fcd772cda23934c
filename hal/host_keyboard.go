//go:build !tinygo && cgo

package hal

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// windowKeys maps desktop keys onto the badge buttons.
var windowKeys = []struct {
	key ebiten.Key
	id  ButtonID
}{
	{ebiten.KeyArrowUp, ButtonUp},
	{ebiten.KeyArrowDown, ButtonDown},
	{ebiten.KeyArrowLeft, ButtonLeft},
	{ebiten.KeyArrowRight, ButtonRight},
	{ebiten.KeySpace, ButtonStick},
	{ebiten.KeyZ, ButtonA},
	{ebiten.KeyX, ButtonB},
	{ebiten.KeyEnter, ButtonStart},
	{ebiten.KeyBackspace, ButtonSelect},
}

// pollKeys forwards key edges of the last frame to the button lines.
func pollKeys(s *Sim) {
	for _, k := range windowKeys {
		if inpututil.IsKeyJustPressed(k.key) {
			s.Press(k.id)
		}
		if inpututil.IsKeyJustReleased(k.key) {
			s.Release(k.id)
		}
	}
}
