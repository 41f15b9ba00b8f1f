package keylock

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// KeyedLock provides one exclusive critical section per key. Distinct keys
// never contend. It is not reentrant: entering a key already held by the
// same call chain blocks until the context is done.
// The zero value is not usable; use New.
type KeyedLock struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	sem  *semaphore.Weighted
	refs int
}

// New creates an empty KeyedLock.
func New() *KeyedLock {
	return &KeyedLock{slots: make(map[string]*slot)}
}

// Enter blocks until the caller holds key or ctx is done. On success the
// returned release func must be called exactly once to leave the section;
// extra calls are ignored. On cancellation the context error is returned and
// nothing is held.
func (l *KeyedLock) Enter(ctx context.Context, key string) (release func(), err error) {
	s := l.ref(key)

	if err := s.sem.Acquire(ctx, 1); err != nil {
		l.unref(key, s)
		return nil, err
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			s.sem.Release(1)
			l.unref(key, s)
		})
	}, nil
}

// Len returns the number of keys currently held or waited on.
func (l *KeyedLock) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.slots)
}

func (l *KeyedLock) ref(key string) *slot {
	l.mu.Lock()
	defer l.mu.Unlock()

	s, ok := l.slots[key]
	if !ok {
		s = &slot{sem: semaphore.NewWeighted(1)}
		l.slots[key] = s
	}
	s.refs++
	return s
}

func (l *KeyedLock) unref(key string, s *slot) {
	l.mu.Lock()
	defer l.mu.Unlock()

	s.refs--
	if s.refs == 0 {
		delete(l.slots, key)
	}
}
