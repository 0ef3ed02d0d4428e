// Package session scopes production counters and removals to an explicit
// session handle.
package session

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"purissima/internal"
	"purissima/internal/production"
)

type Session struct {
	ID      string
	Tracker *production.Tracker
	Ledger  *production.Ledger
}

// Manager hands out one Session value per id so that every caller of the same
// session shares its tracker and ledger locks.
type Manager struct {
	store  production.StateStore
	logger *zap.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(store production.StateStore, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{store: store, logger: logger, sessions: map[string]*Session{}}
}

func (m *Manager) Create() *Session {
	id := uuid.NewString()
	s := m.Open(id)
	m.logger.Info("session created", zap.String("session_id", id))
	return s
}

// Open attaches to id, which may have been created by another process sharing
// the same store.
func (m *Manager) Open(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		return s
	}
	s := &Session{
		ID:      id,
		Tracker: production.NewTracker(m.store, id, m.logger.With(zap.String("session_id", id))),
		Ledger:  production.NewLedger(m.store, id, m.logger.With(zap.String("session_id", id))),
	}
	m.sessions[id] = s
	return s
}

func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Destroy drops every record of the session from the store.
func (m *Manager) Destroy(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: empty session id", internal.ErrInvalidInput)
	}
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()

	if err := m.store.DropSession(ctx, id); err != nil {
		return fmt.Errorf("destroy session %s: %w", id, err)
	}
	m.logger.Info("session destroyed", zap.String("session_id", id))
	return nil
}
