package session

import (
	"context"
	"sync"

	"github.com/ann82/dv-assistant-sub003/internal/model/conversation"
)

// Backend persists sessions by key. Implementations must store and return
// copies so callers cannot mutate shared state.
type Backend interface {
	Get(ctx context.Context, key string) (*conversation.Session, bool, error)
	Set(ctx context.Context, key string, session *conversation.Session) error
	Delete(ctx context.Context, key string) error
}

// MemoryBackend keeps sessions in process memory.
type MemoryBackend struct {
	mu       sync.RWMutex
	sessions map[string]*conversation.Session
}

// NewMemoryBackend bootstraps an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{sessions: make(map[string]*conversation.Session)}
}

func (m *MemoryBackend) Get(_ context.Context, key string) (*conversation.Session, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[key]
	if !ok {
		return nil, false, nil
	}
	return s.Clone(), true, nil
}

func (m *MemoryBackend) Set(_ context.Context, key string, session *conversation.Session) error {
	m.mu.Lock()
	m.sessions[key] = session.Clone()
	m.mu.Unlock()
	return nil
}

func (m *MemoryBackend) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.sessions, key)
	m.mu.Unlock()
	return nil
}

// Len reports the number of stored sessions.
func (m *MemoryBackend) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
