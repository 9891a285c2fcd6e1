package keylock_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"pantrypal/internal/keylock"
)

func TestSameKeySerializes(t *testing.T) {
	locks := keylock.New()
	var active, peak int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock("u1/PANTRY#a")
			defer unlock()
			n := atomic.AddInt32(&active, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			atomic.AddInt32(&active, -1)
		}()
	}
	wg.Wait()
	if peak != 1 {
		t.Fatalf("expected at most one holder, saw %d", peak)
	}
	if locks.Len() != 0 {
		t.Fatalf("expected released keys to be forgotten, %d remain", locks.Len())
	}
}

func TestDifferentKeysDoNotBlock(t *testing.T) {
	locks := keylock.New()
	unlockA := locks.Lock("a")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlock := locks.Lock("b")
		unlock()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on a different key blocked")
	}
}
