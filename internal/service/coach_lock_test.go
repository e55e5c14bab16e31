package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestLocalCoachLocker_MutualExclusion(t *testing.T) {
	l := newLocalCoachLocker()
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(ctx, "c1")
			if err != nil {
				t.Errorf("Lock failed: %v", err)
				return
			}
			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inside--
			mu.Unlock()
			unlock()
		}()
	}
	wg.Wait()

	if maxSeen != 1 {
		t.Errorf("expected at most one holder, saw %d", maxSeen)
	}
	if len(l.locks) != 0 {
		t.Errorf("expected lock table to be empty, got %d entries", len(l.locks))
	}
}

func TestLocalCoachLocker_IndependentCoaches(t *testing.T) {
	l := newLocalCoachLocker()
	ctx := context.Background()

	unlock1, err := l.Lock(ctx, "c1")
	if err != nil {
		t.Fatalf("Lock c1 failed: %v", err)
	}
	defer unlock1()

	done := make(chan struct{})
	go func() {
		unlock2, err := l.Lock(ctx, "c2")
		if err == nil {
			unlock2()
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("locking another coach must not block")
	}
}

func TestLocalCoachLocker_ContextCancelled(t *testing.T) {
	l := newLocalCoachLocker()

	unlock, err := l.Lock(context.Background(), "c1")
	if err != nil {
		t.Fatalf("Lock failed: %v", err)
	}
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := l.Lock(ctx, "c1"); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestLocalCoachLocker_UnlockIsIdempotent(t *testing.T) {
	l := newLocalCoachLocker()
	unlock, _ := l.Lock(context.Background(), "c1")
	unlock()
	unlock()

	relock, err := l.Lock(context.Background(), "c1")
	if err != nil {
		t.Fatalf("relock failed: %v", err)
	}
	relock()
}

func TestLockCoaches_DeduplicatesIDs(t *testing.T) {
	l := newLocalCoachLocker()
	unlock, err := lockCoaches(context.Background(), l, []string{"b", "a", "b"})
	if err != nil {
		t.Fatalf("lockCoaches failed: %v", err)
	}
	if len(l.locks) != 2 {
		t.Errorf("expected 2 held locks, got %d", len(l.locks))
	}
	unlock()
	if len(l.locks) != 0 {
		t.Errorf("expected all locks released, got %d", len(l.locks))
	}
}
