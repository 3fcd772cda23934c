package kernel

import (
	"context"
	"runtime"
	"sync"
	"testing"
	"time"
)

type frame struct {
	id  uint32
	pix [64]byte
}

func TestMailboxTryRecvEmpty(t *testing.T) {
	var mb Mailbox[frame]

	_, ok := mb.TryRecv()
	if ok {
		t.Fatalf("TryRecv() ok = true, want false")
	}
}

func TestMailboxTrySendFull(t *testing.T) {
	var mb Mailbox[int]

	for i := 0; i < mailboxSlots; i++ {
		if ok := mb.TrySend(i); !ok {
			t.Fatalf("TrySend() ok = false at slot %d, want true", i)
		}
	}
	if ok := mb.TrySend(99); ok {
		t.Fatalf("TrySend() ok = true when full, want false")
	}
	if got := mb.Len(); got != mailboxSlots {
		t.Fatalf("Len() = %d, want %d", got, mailboxSlots)
	}

	for i := 0; i < mailboxSlots; i++ {
		v, ok := mb.TryRecv()
		if !ok {
			t.Fatalf("TryRecv() ok = false at slot %d, want true", i)
		}
		if v != i {
			t.Fatalf("TryRecv() = %d, want %d", v, i)
		}
	}
	if ok := mb.TrySend(1); !ok {
		t.Fatalf("TrySend() after drain ok = false, want true")
	}
}

func TestMailboxWrapsAround(t *testing.T) {
	var mb Mailbox[int]
	for i := 0; i < 10*mailboxSlots; i++ {
		mb.Send(i)
		if v := mb.Recv(); v != i {
			t.Fatalf("Recv() = %d, want %d", v, i)
		}
	}
}

func TestMailboxConcurrentProducers(t *testing.T) {
	oldProcs := runtime.GOMAXPROCS(1)
	defer runtime.GOMAXPROCS(oldProcs)

	const (
		producers = 4
		perProd   = 10_000
		total     = producers * perProd
	)

	var mb Mailbox[frame]

	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(producers)
	for producerID := 0; producerID < producers; producerID++ {
		go func(producerID int) {
			defer wg.Done()
			<-start
			for i := 0; i < perProd; i++ {
				f := frame{id: uint32(producerID*perProd + i)}
				f.pix[0] = byte(f.id)
				mb.Send(f)
			}
		}(producerID)
	}
	close(start)

	seen := make([]bool, total)
	for i := 0; i < total; i++ {
		f := mb.Recv()
		if int(f.id) >= total {
			t.Fatalf("Recv() id = %d, want < %d", f.id, total)
		}
		if f.pix[0] != byte(f.id) {
			t.Fatalf("Recv() id %d carries torn payload %d", f.id, f.pix[0])
		}
		if seen[f.id] {
			t.Fatalf("Recv() duplicate id %d", f.id)
		}
		seen[f.id] = true
	}

	wg.Wait()
}

func TestMailboxRecvContext(t *testing.T) {
	var mb Mailbox[int]
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := mb.RecvContext(ctx); err != context.DeadlineExceeded {
		t.Fatalf("RecvContext() err = %v, want %v", err, context.DeadlineExceeded)
	}

	for i := 0; i < mailboxSlots; i++ {
		mb.Send(i)
	}
	if err := mb.SendContext(ctx, 8); err != context.DeadlineExceeded {
		t.Fatalf("SendContext() on full mailbox err = %v, want %v", err, context.DeadlineExceeded)
	}
}
