package storage

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"purissima/internal"
	"purissima/internal/production"
)

type sessionState struct {
	production map[string]map[string]internal.ProductionRecord
	removals   []internal.RemovalRecord
}

// MemoryStore keeps session state for the lifetime of the process.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*sessionState
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: map[string]*sessionState{}}
}

// state must be called with mu held for writing.
func (s *MemoryStore) state(session string) *sessionState {
	st, ok := s.sessions[session]
	if !ok {
		st = &sessionState{production: map[string]map[string]internal.ProductionRecord{}}
		s.sessions[session] = st
	}
	return st
}

func (s *MemoryStore) PutProduction(_ context.Context, session string, rec internal.ProductionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state(session)
	items, ok := st.production[rec.Context]
	if !ok {
		items = map[string]internal.ProductionRecord{}
		st.production[rec.Context] = items
	}
	items[rec.Item] = rec
	return nil
}

func (s *MemoryStore) DeleteProduction(_ context.Context, session, contextKey, item string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.sessions[session]
	if !ok {
		return nil
	}
	delete(st.production[contextKey], item)
	return nil
}

func (s *MemoryStore) ListProduction(_ context.Context, session, contextKey string) ([]internal.ProductionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.sessions[session]
	if !ok {
		return nil, nil
	}
	out := make([]internal.ProductionRecord, 0, len(st.production[contextKey]))
	for _, rec := range st.production[contextKey] {
		out = append(out, rec)
	}
	slices.SortFunc(out, func(a, b internal.ProductionRecord) int {
		return strings.Compare(a.Item, b.Item)
	})
	return out, nil
}

func (s *MemoryStore) AppendRemovals(_ context.Context, session string, recs []internal.RemovalRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state(session)
	st.removals = append(st.removals, recs...)
	return nil
}

func (s *MemoryStore) DeleteRemovals(_ context.Context, session string, orderIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.sessions[session]
	if !ok {
		return nil
	}
	st.removals = slices.DeleteFunc(st.removals, func(r internal.RemovalRecord) bool {
		return slices.Contains(orderIDs, r.OrderID)
	})
	return nil
}

func (s *MemoryStore) ListRemovals(_ context.Context, session string) ([]internal.RemovalRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.sessions[session]
	if !ok {
		return nil, nil
	}
	return slices.Clone(st.removals), nil
}

func (s *MemoryStore) PurgeRemovals(_ context.Context, session string, before time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.sessions[session]
	if !ok {
		return 0, nil
	}
	n := len(st.removals)
	st.removals = slices.DeleteFunc(st.removals, func(r internal.RemovalRecord) bool {
		return r.RemovedAt.Before(before)
	})
	return n - len(st.removals), nil
}

func (s *MemoryStore) DropSession(_ context.Context, session string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, session)
	return nil
}

var _ production.StateStore = (*MemoryStore)(nil)
