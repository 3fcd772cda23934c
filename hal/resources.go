package hal

import "fmt"

// DisplayResources is the capability group of the ST7789 panel.
type DisplayResources struct {
	SPI  SPI
	DMA  DMAChannel
	DC   GPIO
	RST  GPIO
	SCK  GPIO
	CS   GPIO
	MISO GPIO
	MOSI GPIO

	g *claim
	b backend
}

// ButtonResources is the capability group of the nine buttons.
type ButtonResources struct {
	Up     GPIO
	Down   GPIO
	Left   GPIO
	Right  GPIO
	Stick  GPIO
	A      GPIO
	B      GPIO
	Start  GPIO
	Select GPIO

	g *claim
	b backend
}

// LedResources is the capability group of the WS2812 strip.
type LedResources struct {
	RMT   RMT
	Power GPIO
	Data  GPIO

	g *claim
	b backend
}

// BacklightResources is the capability group of the panel backlight.
type BacklightResources struct {
	Pin GPIO

	g *claim
	b backend
}

// VibrationResources is the capability group of the vibration motor.
type VibrationResources struct {
	Pin GPIO

	g *claim
	b backend
}

// Resources is the partition of the registry into disjoint groups.
//
// The platform peripherals (SYSTEM, TIMG0, LPWR), the microphone set
// (I2S0, DMA_CH1, GPIO8, GPIO3, GPIO46) and the boot pin GPIO0 are withheld.
type Resources struct {
	Display   DisplayResources
	Buttons   ButtonResources
	Leds      LedResources
	Backlight BacklightResources
	Vibration VibrationResources
}

// Split consumes the registry and returns its capability groups. Every raw
// peripheral placed in a group is bound to it; splitting the same registry
// again fails with ErrClaimViolation.
func Split(p *Peripherals) (Resources, error) {
	if p == nil {
		return Resources{}, fmt.Errorf("%w: nil peripherals", ErrClaimViolation)
	}

	r := Resources{
		Display: DisplayResources{
			SPI:  p.SPI2,
			DMA:  p.DMACh0,
			DC:   p.GPIO15,
			RST:  p.GPIO7,
			SCK:  p.GPIO4,
			CS:   p.GPIO6,
			MISO: p.GPIO16,
			MOSI: p.GPIO5,
			g:    newClaim("display group"),
			b:    p.b,
		},
		Buttons: ButtonResources{
			Up:     p.GPIO11,
			Down:   p.GPIO1,
			Left:   p.GPIO21,
			Right:  p.GPIO2,
			Stick:  p.GPIO14,
			A:      p.GPIO13,
			B:      p.GPIO38,
			Start:  p.GPIO12,
			Select: p.GPIO45,
			g:      newClaim("button group"),
			b:      p.b,
		},
		Leds: LedResources{
			RMT:   p.RMT,
			Power: p.GPIO17,
			Data:  p.GPIO18,
			g:     newClaim("led group"),
			b:     p.b,
		},
		Backlight: BacklightResources{
			Pin: p.GPIO19,
			g:   newClaim("backlight group"),
			b:   p.b,
		},
		Vibration: VibrationResources{
			Pin: p.GPIO20,
			g:   newClaim("vibration group"),
			b:   p.b,
		},
	}

	groups := []struct {
		g       *claim
		members []claimable
	}{
		{r.Display.g, r.Display.members()},
		{r.Buttons.g, r.Buttons.members()},
		{r.Leds.g, r.Leds.members()},
		{r.Backlight.g, r.Backlight.members()},
		{r.Vibration.g, r.Vibration.members()},
	}
	for _, grp := range groups {
		for _, m := range grp.members {
			if err := m.token().bindTo(grp.g); err != nil {
				return Resources{}, err
			}
		}
	}
	return r, nil
}

func (r DisplayResources) members() []claimable {
	return []claimable{r.SPI, r.DMA, r.DC, r.RST, r.SCK, r.CS, r.MISO, r.MOSI}
}

func (r ButtonResources) members() []claimable {
	return []claimable{r.Up, r.Down, r.Left, r.Right, r.Stick, r.A, r.B, r.Start, r.Select}
}

func (r LedResources) members() []claimable {
	return []claimable{r.RMT, r.Power, r.Data}
}

func (r BacklightResources) members() []claimable { return []claimable{r.Pin} }

func (r VibrationResources) members() []claimable { return []claimable{r.Pin} }
