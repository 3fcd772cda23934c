package hal

import (
	"fmt"
	"strconv"
	"sync/atomic"
)

// claim is the ownership token shared by every copy of a raw peripheral or
// capability group. It can be acquired once. A raw peripheral's claim also
// records the group Split placed it in.
type claim struct {
	name  string
	taken atomic.Bool
	group atomic.Pointer[claim]
}

func newClaim(name string) *claim {
	return &claim{name: name}
}

func (c *claim) acquire() error {
	if c == nil {
		return fmt.Errorf("%w: peripheral was not issued by Take", ErrClaimViolation)
	}
	if !c.taken.CompareAndSwap(false, true) {
		return fmt.Errorf("%w: %s already owned", ErrClaimViolation, c.name)
	}
	return nil
}

// bindTo acquires a raw peripheral for group.
func (c *claim) bindTo(group *claim) error {
	if err := c.acquire(); err != nil {
		return err
	}
	c.group.Store(group)
	return nil
}

// consume acquires group c after checking that every member was bound to it
// by Split. A group whose fields were swapped with another group's is
// rejected without being consumed.
func (c *claim) consume(members ...claimable) error {
	if c == nil {
		return fmt.Errorf("%w: group was not issued by Split", ErrClaimViolation)
	}
	for _, m := range members {
		t := m.token()
		if t == nil {
			return fmt.Errorf("%w: %v was not issued by Take", ErrClaimViolation, m)
		}
		if t.group.Load() != c {
			return fmt.Errorf("%w: %s is not part of the %s", ErrClaimViolation, t.name, c.name)
		}
	}
	return c.acquire()
}

func (c *claim) owned() bool {
	return c != nil && c.taken.Load()
}

type claimable interface {
	fmt.Stringer
	token() *claim
}

// GPIO is a raw general-purpose IO line.
type GPIO struct {
	num int
	c   *claim
}

func (g GPIO) Num() int       { return g.num }
func (g GPIO) String() string { return "GPIO" + strconv.Itoa(g.num) }
func (g GPIO) token() *claim  { return g.c }

// SPI is a raw synchronous serial controller.
type SPI struct {
	id int
	c  *claim
}

func (s SPI) String() string { return "SPI" + strconv.Itoa(s.id) }
func (s SPI) token() *claim  { return s.c }

// DMAChannel is a raw block-transfer channel.
type DMAChannel struct {
	id int
	c  *claim
}

func (d DMAChannel) String() string { return "DMA_CH" + strconv.Itoa(d.id) }
func (d DMAChannel) token() *claim  { return d.c }

// RMT is the raw pulse-train generator.
type RMT struct {
	c *claim
}

func (RMT) String() string  { return "RMT" }
func (r RMT) token() *claim { return r.c }

// I2S is a raw audio serial controller.
type I2S struct {
	id int
	c  *claim
}

func (s I2S) String() string { return "I2S" + strconv.Itoa(s.id) }
func (s I2S) token() *claim  { return s.c }

// Platform is a clock, timer or power peripheral the runtime keeps for itself.
type Platform struct {
	name string
	c    *claim
}

func (p Platform) String() string { return p.name }
func (p Platform) token() *claim  { return p.c }

// Peripherals holds every raw peripheral the board exposes.
// There is at most one per process; see Take.
type Peripherals struct {
	SPI2   SPI
	DMACh0 DMAChannel
	DMACh1 DMAChannel
	RMT    RMT
	I2S0   I2S

	GPIO0  GPIO
	GPIO1  GPIO
	GPIO2  GPIO
	GPIO3  GPIO
	GPIO4  GPIO
	GPIO5  GPIO
	GPIO6  GPIO
	GPIO7  GPIO
	GPIO8  GPIO
	GPIO11 GPIO
	GPIO12 GPIO
	GPIO13 GPIO
	GPIO14 GPIO
	GPIO15 GPIO
	GPIO16 GPIO
	GPIO17 GPIO
	GPIO18 GPIO
	GPIO19 GPIO
	GPIO20 GPIO
	GPIO21 GPIO
	GPIO38 GPIO
	GPIO45 GPIO
	GPIO46 GPIO

	SYSTEM Platform
	TIMG0  Platform
	LPWR   Platform

	b backend
}

var peripheralsTaken atomic.Bool

// Take returns the peripheral registry. Only the first call succeeds; every
// later call returns ErrClaimViolation.
func Take() (*Peripherals, error) {
	if !peripheralsTaken.CompareAndSwap(false, true) {
		return nil, fmt.Errorf("%w: peripherals already taken", ErrClaimViolation)
	}
	return newPeripherals(newBoardBackend()), nil
}

func newPeripherals(b backend) *Peripherals {
	gpio := func(n int) GPIO {
		return GPIO{num: n, c: newClaim("GPIO" + strconv.Itoa(n))}
	}
	return &Peripherals{
		SPI2:   SPI{id: 2, c: newClaim("SPI2")},
		DMACh0: DMAChannel{id: 0, c: newClaim("DMA_CH0")},
		DMACh1: DMAChannel{id: 1, c: newClaim("DMA_CH1")},
		RMT:    RMT{c: newClaim("RMT")},
		I2S0:   I2S{id: 0, c: newClaim("I2S0")},

		GPIO0:  gpio(0),
		GPIO1:  gpio(1),
		GPIO2:  gpio(2),
		GPIO3:  gpio(3),
		GPIO4:  gpio(4),
		GPIO5:  gpio(5),
		GPIO6:  gpio(6),
		GPIO7:  gpio(7),
		GPIO8:  gpio(8),
		GPIO11: gpio(11),
		GPIO12: gpio(12),
		GPIO13: gpio(13),
		GPIO14: gpio(14),
		GPIO15: gpio(15),
		GPIO16: gpio(16),
		GPIO17: gpio(17),
		GPIO18: gpio(18),
		GPIO19: gpio(19),
		GPIO20: gpio(20),
		GPIO21: gpio(21),
		GPIO38: gpio(38),
		GPIO45: gpio(45),
		GPIO46: gpio(46),

		SYSTEM: Platform{name: "SYSTEM", c: newClaim("SYSTEM")},
		TIMG0:  Platform{name: "TIMG0", c: newClaim("TIMG0")},
		LPWR:   Platform{name: "LPWR", c: newClaim("LPWR")},

		b: b,
	}
}
