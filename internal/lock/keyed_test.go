package lock

import (
	"sync"
	"testing"
)

func TestKeyedSerializesSameKey(t *testing.T) {
	k := NewKeyed()

	var wg sync.WaitGroup
	counter := 0

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := k.Lock("course-1:student-1")
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	if counter != 50 {
		t.Fatalf("counter = %d, want 50", counter)
	}
}

func TestKeyedReleasesEntries(t *testing.T) {
	k := NewKeyed()

	unlock := k.Lock("a")
	unlock()
	unlock2 := k.Lock("b")
	unlock2()

	k.mu.Lock()
	defer k.mu.Unlock()
	if len(k.locks) != 0 {
		t.Fatalf("locks map has %d entries after release, want 0", len(k.locks))
	}
}

func TestKeyedIndependentKeysDoNotBlock(t *testing.T) {
	k := NewKeyed()

	unlockA := k.Lock("a")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlockB := k.Lock("b")
		unlockB()
		close(done)
	}()
	<-done
}
