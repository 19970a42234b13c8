package server

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/canopyviz/canopy/pkg/tree"
)

// session is one client's view state: which nodes are open. The tree
// itself is shared across sessions; only the expanded set is per
// session.
type session struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	mu       sync.Mutex
	expanded tree.ExpandedSet
}

// snapshotExpanded returns a copy of the session's expanded ids.
func (s *session) snapshotExpanded() tree.ExpandedSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return tree.NewExpandedSet(s.expanded.IDs()...)
}

// setExpanded replaces the session's expanded set.
func (s *session) setExpanded(e tree.ExpandedSet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expanded = e
	s.UpdatedAt = time.Now()
}

// toggle flips one node's expansion and returns the new set.
func (s *session) toggle(id string) tree.ExpandedSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expanded = tree.Toggle(s.expanded, id)
	s.UpdatedAt = time.Now()
	return s.expanded
}

// sessionManager tracks live sessions by id.
type sessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*session
}

func newSessionManager() *sessionManager {
	return &sessionManager{sessions: make(map[string]*session)}
}

// create registers a new session seeded with the given expanded set.
func (m *sessionManager) create(expanded tree.ExpandedSet) *session {
	now := time.Now()
	s := &session{
		ID:        uuid.New().String(),
		CreatedAt: now,
		UpdatedAt: now,
		expanded:  expanded,
	}
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	sessionsActive.Set(float64(m.count()))
	return s
}

// get looks up a session by id.
func (m *sessionManager) get(id string) (*session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// remove deletes a session. It reports whether the session existed.
func (m *sessionManager) remove(id string) bool {
	m.mu.Lock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	sessionsActive.Set(float64(m.count()))
	return ok
}

func (m *sessionManager) count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
