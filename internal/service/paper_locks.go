package service

import "sync"

// PaperLocks serializes PDF asset mutations per paper id. Entries are
// reference counted and dropped once no goroutine holds or waits on them.
type PaperLocks struct {
	mu    sync.Mutex
	locks map[uint]*paperLock
}

type paperLock struct {
	mu   sync.Mutex
	refs int
}

func NewPaperLocks() *PaperLocks {
	return &PaperLocks{locks: make(map[uint]*paperLock)}
}

// Lock blocks until the paper's lock is held and returns its release func.
func (l *PaperLocks) Lock(paperID uint) func() {
	l.mu.Lock()
	pl, ok := l.locks[paperID]
	if !ok {
		pl = &paperLock{}
		l.locks[paperID] = pl
	}
	pl.refs++
	l.mu.Unlock()

	pl.mu.Lock()
	return func() {
		pl.mu.Unlock()
		l.mu.Lock()
		pl.refs--
		if pl.refs == 0 {
			delete(l.locks, paperID)
		}
		l.mu.Unlock()
	}
}

func (l *PaperLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
