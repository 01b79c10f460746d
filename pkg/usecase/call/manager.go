package call

import (
	"context"
	"sort"
	"sync"

	"github.com/Vamsi1807/AI-Call-Center/pkg/service/gateway"
)

// Manager owns one Session per user key
type Manager struct {
	corpus    ContextSource
	generator gateway.Generator
	opts      []SessionOption

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates a Manager whose sessions share the corpus, generator and options
func NewManager(corpus ContextSource, generator gateway.Generator, opts ...SessionOption) *Manager {
	return &Manager{
		corpus:    corpus,
		generator: generator,
		opts:      opts,
		sessions:  make(map[string]*Session),
	}
}

// Session returns the session of key, creating an idle one on first use
func (m *Manager) Session(key string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[key]; ok {
		return s
	}
	s := NewSession(m.corpus, m.generator, m.opts...)
	m.sessions[key] = s
	return s
}

// Remove ends the session of key and forgets it
func (m *Manager) Remove(ctx context.Context, key string) {
	m.mu.Lock()
	s, ok := m.sessions[key]
	delete(m.sessions, key)
	m.mu.Unlock()

	if ok {
		s.EndCall(ctx)
	}
}

// Keys lists the user keys with a session, sorted
func (m *Manager) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	keys := make([]string, 0, len(m.sessions))
	for k := range m.sessions {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
