package syncstate

import (
	"errors"
	"sync"
)

// ErrRunInProgress is returned when the state location is already locked by another run.
var ErrRunInProgress = errors.New("a synchronization run is already in progress for this state")

// Locker hands out exclusive, non-blocking locks keyed by state location.
type Locker struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewLocker creates an empty locker.
func NewLocker() *Locker {
	return &Locker{held: make(map[string]struct{})}
}

// TryLock acquires key or fails fast with ErrRunInProgress. The returned
// function releases the lock and is safe to call more than once.
func (l *Locker) TryLock(key string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, busy := l.held[key]; busy {
		return nil, ErrRunInProgress
	}
	l.held[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, key)
			l.mu.Unlock()
		})
	}, nil
}

// Held reports whether key is currently locked.
func (l *Locker) Held(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, busy := l.held[key]
	return busy
}
