package hal

import (
	"fmt"
	"sync"
)

// GPIOMode selects whether a pin is an input or output.
type GPIOMode uint8

const (
	GPIOModeUnset GPIOMode = iota
	GPIOModeInput
	GPIOModeOutput
)

// GPIOPull selects the pull resistor configuration.
type GPIOPull uint8

const (
	GPIOPullNone GPIOPull = iota
	GPIOPullUp
	GPIOPullDown
)

// GPIOCaps declares what operations a pin supports.
type GPIOCaps uint8

const (
	GPIOCapInput GPIOCaps = 1 << iota
	GPIOCapOutput
	GPIOCapPullUp
	GPIOCapPullDown
)

const gpioCapAll = GPIOCapInput | GPIOCapOutput | GPIOCapPullUp | GPIOCapPullDown

// GPIOPin is a single digital IO line bound to a driver.
type GPIOPin interface {
	Name() string
	Caps() GPIOCaps
	Configure(mode GPIOMode, pull GPIOPull) error
	Read() (level bool, err error)
	Write(level bool) error
}

// virtualPin is an IO line with no hardware behind it. Inputs read their
// pull level unless something external drives them.
type virtualPin struct {
	mu    sync.Mutex
	name  string
	caps  GPIOCaps
	mode  GPIOMode
	pull  GPIOPull
	level bool

	driven bool
	ext    bool

	onWrite func(level bool)
}

func newVirtualPin(name string, caps GPIOCaps) *virtualPin {
	return &virtualPin{
		name: name,
		caps: caps,
		pull: GPIOPullNone,
	}
}

func (p *virtualPin) Name() string   { return p.name }
func (p *virtualPin) Caps() GPIOCaps { return p.caps }

func (p *virtualPin) Configure(mode GPIOMode, pull GPIOPull) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch mode {
	case GPIOModeInput:
		if p.caps&GPIOCapInput == 0 {
			return fmt.Errorf("gpio: pin %s: input unsupported", p.name)
		}
	case GPIOModeOutput:
		if p.caps&GPIOCapOutput == 0 {
			return fmt.Errorf("gpio: pin %s: output unsupported", p.name)
		}
	default:
		return fmt.Errorf("gpio: pin %s: invalid mode", p.name)
	}

	switch pull {
	case GPIOPullNone:
	case GPIOPullUp:
		if p.caps&GPIOCapPullUp == 0 {
			return fmt.Errorf("gpio: pin %s: pull-up unsupported", p.name)
		}
	case GPIOPullDown:
		if p.caps&GPIOCapPullDown == 0 {
			return fmt.Errorf("gpio: pin %s: pull-down unsupported", p.name)
		}
	default:
		return fmt.Errorf("gpio: pin %s: invalid pull", p.name)
	}

	p.mode = mode
	p.pull = pull
	return nil
}

func (p *virtualPin) Read() (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch p.mode {
	case GPIOModeOutput:
		return p.level, nil
	case GPIOModeInput:
		if p.driven {
			return p.ext, nil
		}
		return p.pull == GPIOPullUp, nil
	}
	return false, fmt.Errorf("gpio: pin %s: not configured", p.name)
}

func (p *virtualPin) Write(level bool) error {
	p.mu.Lock()
	if p.mode != GPIOModeOutput {
		p.mu.Unlock()
		return fmt.Errorf("gpio: pin %s: not in output mode", p.name)
	}
	p.level = level
	hook := p.onWrite
	p.mu.Unlock()

	if hook != nil {
		hook(level)
	}
	return nil
}

// drive forces the external level seen by an input.
func (p *virtualPin) drive(level bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.driven = true
	p.ext = level
}

// release lets an input float back to its pull level.
func (p *virtualPin) release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.driven = false
}

// output reports the level last written while in output mode.
func (p *virtualPin) output() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mode == GPIOModeOutput && p.level
}
