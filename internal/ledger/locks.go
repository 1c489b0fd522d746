package ledger

import "sync"

// betLocks serializes writers per bet ID. Entries are dropped once no
// goroutine holds or waits on them.
type betLocks struct {
	mu    sync.Mutex
	locks map[string]*betLock
}

type betLock struct {
	mu   sync.Mutex
	refs int
}

func newBetLocks() *betLocks {
	return &betLocks{locks: make(map[string]*betLock)}
}

// Lock acquires the lock for id and returns its release func
func (b *betLocks) Lock(id string) func() {
	b.mu.Lock()
	l, ok := b.locks[id]
	if !ok {
		l = &betLock{}
		b.locks[id] = l
	}
	l.refs++
	b.mu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()
		b.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(b.locks, id)
		}
		b.mu.Unlock()
	}
}

func (b *betLocks) size() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.locks)
}
