package keylock

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/moby/locker"
)

// released reports whether key no longer has an entry.
func released(l *Locker, key string) bool {
	return errors.Is(l.named.Unlock(key), locker.ErrNoSuchLock)
}

func TestLocker_SerializesSameKey(t *testing.T) {
	l := New()

	var mu sync.Mutex
	inside := 0
	maxInside := 0

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := l.Lock("user-1")
			defer unlock()

			mu.Lock()
			inside++
			if inside > maxInside {
				maxInside = inside
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inside--
			mu.Unlock()
		}()
	}
	wg.Wait()

	if maxInside != 1 {
		t.Errorf("expected at most 1 holder, saw %d", maxInside)
	}
	if !released(l, "user-1") {
		t.Error("expected the entry to be released")
	}
	if l.Len() != 0 {
		t.Errorf("expected no holders, got %d", l.Len())
	}
}

func TestLocker_DifferentKeysDoNotBlock(t *testing.T) {
	l := New()

	unlockA := l.Lock("a")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlock := l.Lock("b")
		unlock()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on key b waited for key a")
	}
}

func TestLocker_UnlockIsIdempotent(t *testing.T) {
	l := New()

	unlock := l.Lock("k")
	unlock()
	unlock()

	if !released(l, "k") {
		t.Error("expected no entry after unlock")
	}

	// The key must still be usable.
	again := l.Lock("k")
	again()
}
