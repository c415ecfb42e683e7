// Package store defines persistence for exported replay sessions.
//
// The core owns only the interface; production storage is an external
// collaborator. MemoryStore is the reference implementation used by tests
// and by in-process consumers.
package store

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/isl-lang/chaoscore/pkg/session"
)

// ErrNotFound is returned when no session exists under the requested id.
var ErrNotFound = errors.New("store: session not found")

// SessionStore persists exported replay sessions.
type SessionStore interface {
	Save(ctx context.Context, s *session.Session) error
	Load(ctx context.Context, id string) (*session.Session, error)
	List(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// MemoryStore is an in-memory SessionStore. Sessions are deep-copied on
// both save and load so no caller can mutate stored state.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*session.Session
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*session.Session)}
}

// Save stores a snapshot of the session under its id.
func (m *MemoryStore) Save(ctx context.Context, s *session.Session) error {
	if s == nil || s.ID == "" {
		return errors.New("store: session has no id")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s.Clone()
	return nil
}

// Load returns an independent copy of the stored session.
func (m *MemoryStore) Load(ctx context.Context, id string) (*session.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s.Clone(), nil
}

// List returns all stored session ids, sorted for stable output.
func (m *MemoryStore) List(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Delete removes a session, reporting whether it existed.
func (m *MemoryStore) Delete(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	return ok, nil
}
