// Package kernel holds the small task-coordination primitives the demos
// share: a fixed-size mailbox and a single-slot baton.
package kernel

import (
	"context"
	"runtime"
	"sync/atomic"
	"time"
)

const mailboxSlots = 8

// spinLimit is how many yields a blocked Send or Recv makes before it starts
// sleeping between attempts.
const spinLimit = 64

type slot[T any] struct {
	// seq is 2*lap while the slot is free for the lap's send and 2*lap+1
	// once it holds that lap's value.
	seq atomic.Uint32
	v   T
}

// Mailbox is a fixed-size multi-producer queue. The zero value is empty and
// ready. It does not allocate; blocked callers yield and then back off.
type Mailbox[T any] struct {
	_     [0]func() // prevent accidental copying.
	head  atomic.Uint32
	tail  atomic.Uint32
	slots [mailboxSlots]slot[T]
}

// Cap is the number of values the mailbox holds.
func (mb *Mailbox[T]) Cap() int { return mailboxSlots }

// Len is the number of queued values. It is a snapshot.
func (mb *Mailbox[T]) Len() int {
	return int(mb.head.Load() - mb.tail.Load())
}

// TrySend attempts to enqueue v, returning false if the mailbox is full.
func (mb *Mailbox[T]) TrySend(v T) bool {
	for {
		head := mb.head.Load()
		s := &mb.slots[head%mailboxSlots]
		want := 2 * (head / mailboxSlots)
		switch diff := int32(s.seq.Load() - want); {
		case diff == 0:
			if mb.head.CompareAndSwap(head, head+1) {
				s.v = v
				s.seq.Store(want + 1)
				return true
			}
		case diff < 0:
			return false
		}
	}
}

// Send enqueues v, blocking until there is room.
func (mb *Mailbox[T]) Send(v T) {
	for i := 0; !mb.TrySend(v); i++ {
		backoff(i)
	}
}

// SendContext enqueues v unless ctx ends first.
func (mb *Mailbox[T]) SendContext(ctx context.Context, v T) error {
	for i := 0; !mb.TrySend(v); i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		backoff(i)
	}
	return nil
}

// TryRecv attempts to dequeue one value, returning false if empty.
func (mb *Mailbox[T]) TryRecv() (T, bool) {
	for {
		tail := mb.tail.Load()
		s := &mb.slots[tail%mailboxSlots]
		lap := tail / mailboxSlots
		switch diff := int32(s.seq.Load() - (2*lap + 1)); {
		case diff == 0:
			if mb.tail.CompareAndSwap(tail, tail+1) {
				v := s.v
				var zero T
				s.v = zero
				s.seq.Store(2 * (lap + 1))
				return v, true
			}
		case diff < 0:
			var zero T
			return zero, false
		}
	}
}

// Recv blocks until one value is available.
func (mb *Mailbox[T]) Recv() T {
	for i := 0; ; i++ {
		if v, ok := mb.TryRecv(); ok {
			return v
		}
		backoff(i)
	}
}

// RecvContext blocks until one value is available or ctx ends.
func (mb *Mailbox[T]) RecvContext(ctx context.Context) (T, error) {
	for i := 0; ; i++ {
		if v, ok := mb.TryRecv(); ok {
			return v, nil
		}
		if err := ctx.Err(); err != nil {
			var zero T
			return zero, err
		}
		backoff(i)
	}
}

func backoff(i int) {
	if i < spinLimit {
		runtime.Gosched()
		return
	}
	time.Sleep(50 * time.Microsecond)
}
