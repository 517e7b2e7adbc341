package masterkey

import (
	"sync"
	"time"
)

// Session is one cached master key. Immutable after creation, so concurrent
// readers need no coordination beyond the store's own lock.
type Session struct {
	Key       []byte
	ExpiresAt time.Time
}

// Store is the injectable cache keyed by user id. Implementations hold keys
// in memory only; derived keys must never reach disk.
type Store interface {
	Put(userID int, s Session)
	Get(userID int) (Session, bool)
	Delete(userID int)
}

type memoryStore struct {
	mu       sync.RWMutex
	sessions map[int]Session
}

func NewMemoryStore() Store {
	return &memoryStore{sessions: make(map[int]Session)}
}

func (m *memoryStore) Put(userID int, s Session) {
	// Detach from the caller's buffer; the cached key stays immutable for
	// its whole lifetime.
	key := make([]byte, len(s.Key))
	copy(key, s.Key)
	s.Key = key

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[userID] = s
}

func (m *memoryStore) Get(userID int) (Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[userID]
	return s, ok
}

// Delete drops the entry without touching the key bytes: Get hands out the
// same backing array, so a reader mid-decrypt may still hold it. The buffer
// is unreachable once released and falls to the GC.
func (m *memoryStore) Delete(userID int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
}
