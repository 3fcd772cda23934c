package hal

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// ButtonID names a button.
type ButtonID uint8

const (
	ButtonUp ButtonID = iota
	ButtonDown
	ButtonLeft
	ButtonRight
	ButtonStick
	ButtonA
	ButtonB
	ButtonStart
	ButtonSelect

	buttonCount
)

var buttonNames = [buttonCount]string{"up", "down", "left", "right", "stick", "a", "b", "start", "select"}

func (id ButtonID) String() string {
	if id < buttonCount {
		return buttonNames[id]
	}
	return fmt.Sprintf("ButtonID(%d)", uint8(id))
}

const (
	DebounceTime = 20 * time.Millisecond
	pollInterval = 2 * time.Millisecond
)

// Button is one debounced input. All buttons are pulled up and pressed low,
// except Select which is pulled down and pressed high.
type Button struct {
	id         ButtonID
	pin        GPIOPin
	activeHigh bool
}

func (b *Button) ID() ButtonID { return b.id }

// Get reports the raw line level.
func (b *Button) Get() bool {
	level, _ := b.pin.Read()
	return level
}

// Pressed reports the logical state.
func (b *Button) Pressed() bool {
	return b.Get() == b.activeHigh
}

// WaitPress blocks until a press edge that is still held after DebounceTime.
func (b *Button) WaitPress(ctx context.Context) error {
	return b.waitEdge(ctx, true)
}

// WaitRelease blocks until a release edge that holds for DebounceTime.
func (b *Button) WaitRelease(ctx context.Context) error {
	return b.waitEdge(ctx, false)
}

// WaitClick waits for a full press and release.
func (b *Button) WaitClick(ctx context.Context) error {
	if err := b.WaitPress(ctx); err != nil {
		return err
	}
	return b.WaitRelease(ctx)
}

func (b *Button) waitEdge(ctx context.Context, pressed bool) error {
	t := time.NewTicker(pollInterval)
	defer t.Stop()

	prev := b.Pressed()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
		cur := b.Pressed()
		if cur == pressed && prev != pressed {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(DebounceTime):
			}
			if b.Pressed() == pressed {
				return nil
			}
			cur = !pressed
		}
		prev = cur
	}
}

// ButtonEvent is an edge reported by Scan.
type ButtonEvent struct {
	Button  ButtonID
	Pressed bool
}

// Buttons owns the nine button inputs.
type Buttons struct {
	Up     *Button
	Down   *Button
	Left   *Button
	Right  *Button
	Stick  *Button
	A      *Button
	B      *Button
	Start  *Button
	Select *Button

	mu   sync.Mutex
	all  [buttonCount]*Button
	last uint16
}

// NewButtons consumes the button group and configures the pulls.
func NewButtons(r ButtonResources) (*Buttons, error) {
	if err := r.g.consume(r.members()...); err != nil {
		return nil, err
	}

	bs := &Buttons{}
	lines := [buttonCount]GPIO{r.Up, r.Down, r.Left, r.Right, r.Stick, r.A, r.B, r.Start, r.Select}
	for i, g := range lines {
		id := ButtonID(i)
		pin := r.b.pin(g)
		if pin == nil {
			return nil, fmt.Errorf("buttons: %v: %w", g, ErrNotImplemented)
		}
		pull := GPIOPullUp
		if id == ButtonSelect {
			pull = GPIOPullDown
		}
		if err := pin.Configure(GPIOModeInput, pull); err != nil {
			return nil, fmt.Errorf("buttons: %v: %w", id, err)
		}
		bs.all[i] = &Button{id: id, pin: pin, activeHigh: pull == GPIOPullDown}
	}

	bs.Up, bs.Down, bs.Left, bs.Right = bs.all[ButtonUp], bs.all[ButtonDown], bs.all[ButtonLeft], bs.all[ButtonRight]
	bs.Stick, bs.A, bs.B = bs.all[ButtonStick], bs.all[ButtonA], bs.all[ButtonB]
	bs.Start, bs.Select = bs.all[ButtonStart], bs.all[ButtonSelect]
	bs.last = bs.State()
	return bs, nil
}

// Button returns the button with the given id, nil if unknown.
func (bs *Buttons) Button(id ButtonID) *Button {
	if id >= buttonCount {
		return nil
	}
	return bs.all[id]
}

// State is a bitmask of pressed buttons, bit n for ButtonID n.
func (bs *Buttons) State() uint16 {
	var mask uint16
	for i, b := range bs.all {
		if b.Pressed() {
			mask |= 1 << i
		}
	}
	return mask
}

// Scan samples every button and returns the edges since the previous scan.
func (bs *Buttons) Scan() []ButtonEvent {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	cur := bs.State()
	changed := cur ^ bs.last
	bs.last = cur
	if changed == 0 {
		return nil
	}
	var events []ButtonEvent
	for i := ButtonID(0); i < buttonCount; i++ {
		if changed&(1<<i) != 0 {
			events = append(events, ButtonEvent{Button: i, Pressed: cur&(1<<i) != 0})
		}
	}
	return events
}
