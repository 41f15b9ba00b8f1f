package keylock

import "sync"

// Registry hands out one KeyedLock per name. It is owned by the composing
// service and passed to each manager, so managers of the same entity kind
// share their locks without any package-level state.
type Registry struct {
	mu    sync.Mutex
	locks map[string]*KeyedLock
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{locks: make(map[string]*KeyedLock)}
}

// Get returns the lock registered under name, creating it on first use.
func (r *Registry) Get(name string) *KeyedLock {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.locks[name]
	if !ok {
		l = New()
		r.locks[name] = l
	}
	return l
}
