package util

import (
	"sync"

	"github.com/puzpuzpuz/xsync/v3"
)

type keyLockEntry struct {
	mu   sync.Mutex
	refs int // number of goroutines holding or waiting for mu
}

// KeyLock hands out one mutex per key. Entries are created on first use and
// dropped when the last holder unlocks, so memory stays proportional to the
// number of keys currently in use.
//
// Thread-safety: all methods may be called concurrently.
type KeyLock struct {
	locks *xsync.MapOf[string, *keyLockEntry]
}

// NewKeyLock creates an empty KeyLock.
func NewKeyLock() *KeyLock {
	return &KeyLock{
		locks: xsync.NewMapOfWithHasher[string, *keyLockEntry](HashString),
	}
}

// Lock blocks until the caller holds the lock for key and returns the
// function that releases it.
func (l *KeyLock) Lock(key string) (unlock func()) {
	e, _ := l.locks.Compute(key, func(old *keyLockEntry, loaded bool) (*keyLockEntry, bool) {
		if !loaded {
			old = &keyLockEntry{}
		}
		old.refs++
		return old, false
	})
	e.mu.Lock()

	return func() {
		e.mu.Unlock()
		l.locks.Compute(key, func(old *keyLockEntry, loaded bool) (*keyLockEntry, bool) {
			old.refs--
			return old, old.refs == 0
		})
	}
}

// Len returns the number of keys that currently have a lock entry.
func (l *KeyLock) Len() int {
	return l.locks.Size()
}
