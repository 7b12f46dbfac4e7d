package util

import (
	"sync"
	"testing"
)

func TestKeyLockSerializesSameKey(t *testing.T) {
	l := NewKeyLock()
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				unlock := l.Lock("counter")
				counter++
				unlock()
			}
		}()
	}
	wg.Wait()

	if counter != 5000 {
		t.Errorf("expected 5000, got %d", counter)
	}
	if l.Len() != 0 {
		t.Errorf("expected all entries to be released, %d left", l.Len())
	}
}

func TestKeyLockIndependentKeys(t *testing.T) {
	l := NewKeyLock()
	unlockA := l.Lock("a")

	done := make(chan struct{})
	go func() {
		unlock := l.Lock("b")
		unlock()
		close(done)
	}()
	<-done

	if l.Len() != 1 {
		t.Errorf("expected one held entry, got %d", l.Len())
	}
	unlockA()
}

func TestHashString(t *testing.T) {
	if HashString("key", 1) == HashString("key", 2) {
		t.Errorf("seed must change the hash")
	}
	if HashString("key", 7) != HashString("key", 7) {
		t.Errorf("hash must be deterministic")
	}
	if len(RandomName(4)) != 8 {
		t.Errorf("expected 8 hex characters")
	}
}
