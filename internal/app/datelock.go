package app

import (
	"sync"

	"github.com/neomorfeo/lifegarden/internal/domain"
)

// dateLocks serializes watering per calendar date. Entries are reference
// counted and dropped once no request holds or waits on them.
type dateLocks struct {
	mu    sync.Mutex
	locks map[string]*dateLock
}

type dateLock struct {
	sync.Mutex
	refs int
}

func newDateLocks() *dateLocks {
	return &dateLocks{locks: make(map[string]*dateLock)}
}

// lock blocks until the caller holds date's lock and returns the release func.
func (l *dateLocks) lock(date domain.Date) (unlock func()) {
	key := date.String()

	l.mu.Lock()
	dl, ok := l.locks[key]
	if !ok {
		dl = &dateLock{}
		l.locks[key] = dl
	}
	dl.refs++
	l.mu.Unlock()

	dl.Lock()

	return func() {
		dl.Unlock()

		l.mu.Lock()
		dl.refs--
		if dl.refs == 0 {
			delete(l.locks, key)
		}
		l.mu.Unlock()
	}
}

// size returns the number of live entries.
func (l *dateLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
