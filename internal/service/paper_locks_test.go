package service

import (
	"sync"
	"testing"
)

func TestPaperLocksSerializeSameID(t *testing.T) {
	locks := NewPaperLocks()
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
			unlock := locks.Lock(7)
			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()

			mu.Lock()
			inside--
			mu.Unlock()
			unlock()
		}()
	}
	wg.Wait()

	if maxSeen != 1 {
		t.Fatalf("expected at most one holder, saw %d", maxSeen)
	}
	if locks.size() != 0 {
		t.Fatalf("expected lock entries to be released, %d left", locks.size())
	}
}

func TestPaperLocksIndependentIDs(t *testing.T) {
	locks := NewPaperLocks()
	unlockA := locks.Lock(1)
	done := make(chan struct{})
	go func() {
		unlock := locks.Lock(2)
		unlock()
		close(done)
	}()
	<-done
	unlockA()
}
