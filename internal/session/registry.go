package session

import "sync"

// Registry maps a room id to at most one active session. It is the single
// piece of shared mutable state in the pipeline: Acquire is the concurrency
// gate that prevents two simultaneous recordings in the same room.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
	}
}

// Acquire registers s as the active session for its room. It returns
// ErrConflict while a non-terminal session holds the room; a terminal
// leftover is replaced.
func (r *Registry) Acquire(s *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.sessions[s.RoomID]; ok && !existing.State.Terminal() {
		return ErrConflict
	}
	r.sessions[s.RoomID] = s
	return nil
}

// Get returns the session registered for roomID.
func (r *Registry) Get(roomID string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[roomID]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// Release removes the session registered for roomID. Releasing an
// unregistered room is a no-op.
func (r *Registry) Release(roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, roomID)
}
