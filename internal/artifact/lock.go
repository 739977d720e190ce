package artifact

import "sync"

// KeyMutex serializes pipeline runs per artifact key inside one process.
// The source system had no such coordination; this is a hardening layer so
// two dispatches for the same key cannot race on the same stage files.
// Cross-process locking is out of scope.
type KeyMutex struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

// NewKeyMutex returns an empty per-key lock table.
func NewKeyMutex() *KeyMutex {
	return &KeyMutex{locks: make(map[string]*keyLock)}
}

// Lock acquires the lock for a key and returns the matching unlock func.
// Entries are reference counted and removed once unused, so the table does
// not grow with the number of distinct keys ever seen.
func (m *KeyMutex) Lock(key Key) func() {
	id := key.String()

	m.mu.Lock()
	l, ok := m.locks[id]
	if !ok {
		l = &keyLock{}
		m.locks[id] = l
	}
	l.refs++
	m.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		m.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(m.locks, id)
		}
		m.mu.Unlock()
	}
}
