package kernel

import "context"

// Baton is a single-slot handoff: whoever took the value owns it until they
// give it back. Two tasks sharing a display pass it this way.
type Baton[T any] struct {
	slot chan T
}

// NewBaton returns a baton holding v, free to be taken.
func NewBaton[T any](v T) *Baton[T] {
	b := &Baton[T]{slot: make(chan T, 1)}
	b.slot <- v
	return b
}

// Take waits until the value is free and takes it.
func (b *Baton[T]) Take(ctx context.Context) (T, error) {
	select {
	case v := <-b.slot:
		return v, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// TryTake takes the value if it is free.
func (b *Baton[T]) TryTake() (T, bool) {
	select {
	case v := <-b.slot:
		return v, true
	default:
		var zero T
		return zero, false
	}
}

// Give hands the value back. It returns false, dropping v, if the baton
// already holds a value.
func (b *Baton[T]) Give(v T) bool {
	select {
	case b.slot <- v:
		return true
	default:
		return false
	}
}
