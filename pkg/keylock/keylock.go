// Package keylock provides mutual exclusion keyed by an arbitrary string,
// so that work for one key never waits on work for another.
package keylock

import (
	"sync"
	"sync/atomic"

	"github.com/moby/locker"
)

// Locker hands out one mutex per key. Entries are dropped as soon as no
// goroutine holds or waits for them.
type Locker struct {
	named  *locker.Locker
	active atomic.Int64
}

func New() *Locker {
	return &Locker{named: locker.New()}
}

// Lock blocks until the key is free and returns the matching unlock function.
// Calling the unlock function more than once is a no-op.
func (l *Locker) Lock(key string) func() {
	l.active.Add(1)
	l.named.Lock(key)

	var once sync.Once
	return func() {
		once.Do(func() {
			_ = l.named.Unlock(key)
			l.active.Add(-1)
		})
	}
}

// Len reports how many Lock calls are holding or waiting.
func (l *Locker) Len() int {
	return int(l.active.Load())
}
