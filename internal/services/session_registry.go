package services

import "sync"

// SessionStore is the storage backend for live playback state. The in-memory
// implementation is sufficient; the interface exists so tests can inject and
// reset state between cases.
type SessionStore interface {
	// Get returns the tracked index and whether an entry exists.
	Get(presentationID int) (int, bool)
	// Set overwrites the tracked index, creating the entry if absent.
	Set(presentationID, index int)
}

// MemorySessionStore is a mutex-guarded map of presentation id to slide index.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[int]int
}

// NewMemorySessionStore creates an empty in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[int]int)}
}

func (m *MemorySessionStore) Get(presentationID int) (int, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	idx, ok := m.sessions[presentationID]
	return idx, ok
}

func (m *MemorySessionStore) Set(presentationID, index int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[presentationID] = index
}

// SessionRegistry is the process-wide record of which slide each presentation
// is currently showing. Entries are materialized lazily on first join or
// first advance and live for the life of the process; there is no eviction.
//
// The registry knows nothing about slide counts. Indexes are stored verbatim,
// last writer wins.
type SessionRegistry struct {
	store SessionStore
}

// NewSessionRegistry creates a registry over the given backend.
func NewSessionRegistry(store SessionStore) *SessionRegistry {
	return &SessionRegistry{store: store}
}

// EnsureSession materializes a session at index 0 if none exists and returns
// the current index. Any id is accepted; this never fails.
func (r *SessionRegistry) EnsureSession(presentationID int) int {
	if idx, ok := r.store.Get(presentationID); ok {
		return idx
	}
	r.store.Set(presentationID, 0)
	return 0
}

// CurrentIndex returns the tracked index, or 0 when no session exists.
// Reading does not materialize a session.
func (r *SessionRegistry) CurrentIndex(presentationID int) int {
	idx, _ := r.store.Get(presentationID)
	return idx
}

// SetCurrentIndex overwrites the tracked index unconditionally. The value is
// not validated against the presentation's slide count.
func (r *SessionRegistry) SetCurrentIndex(presentationID, index int) {
	r.store.Set(presentationID, index)
}
