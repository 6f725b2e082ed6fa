package lock

import "sync"

// Keyed serializes operations that share a string key. The read-check-
// write pipelines around attempt creation and grade updates hold the
// per-key lock for their full duration; unrelated keys never contend.
type Keyed struct {
	mu    sync.Mutex
	locks map[string]*entry
}

type entry struct {
	mu   sync.Mutex
	refs int
}

// NewKeyed creates an empty keyed lock registry.
func NewKeyed() *Keyed {
	return &Keyed{locks: make(map[string]*entry)}
}

// Lock acquires the lock for key and returns the matching unlock
// function. Entries are reference-counted and removed once the last
// holder releases, so the registry does not grow with key cardinality.
func (k *Keyed) Lock(key string) (unlock func()) {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &entry{}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()

	return func() {
		e.mu.Unlock()

		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
