package game

import "sync"

// Registry is the process-wide map of room id to live session. It is the only
// structure shared across sessions; sessions never reference it themselves.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Get returns the session for roomID, or nil.
func (r *Registry) Get(roomID string) *Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessions[roomID]
}

// GetOrCreate returns the session for roomID, creating it with build when
// absent. build runs under the registry lock; keep it cheap.
func (r *Registry) GetOrCreate(roomID string, build func() *Session) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[roomID]; ok {
		return s
	}
	s := build()
	r.sessions[roomID] = s
	return s
}

// Put registers a session under roomID.
func (r *Registry) Put(roomID string, s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[roomID] = s
}

// Delete removes the session for roomID.
func (r *Registry) Delete(roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, roomID)
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
