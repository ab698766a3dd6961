package results

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps entries in process memory. Entries do not survive a restart and
// are not shared between instances.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	ttl     time.Duration
	nowFunc func() time.Time
}

// NewMemoryStore returns an empty store; ttl <= 0 falls back to DefaultTTL.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		entries: make(map[string]*Entry),
		ttl:     ttl,
		nowFunc: time.Now,
	}
}

// NewMemoryStoreWithClock is NewMemoryStore with an injected clock.
func NewMemoryStoreWithClock(ttl time.Duration, now func() time.Time) *MemoryStore {
	s := NewMemoryStore(ttl)
	if now != nil {
		s.nowFunc = now
	}
	return s
}

func (s *MemoryStore) Put(_ context.Context, sessionID string, items []json.RawMessage) (*Entry, error) {
	if sessionID == "" {
		return nil, ErrEmptySession
	}
	e := &Entry{
		SessionID:  sessionID,
		Items:      cloneItems(items),
		ReceivedAt: s.nowFunc().UTC(),
	}

	s.mu.Lock()
	s.entries[sessionID] = e
	s.mu.Unlock()

	return copyEntry(e), nil
}

func (s *MemoryStore) Get(_ context.Context, sessionID string) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[sessionID]
	if !ok || s.expired(e) {
		return nil, nil
	}
	return copyEntry(e), nil
}

func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	delete(s.entries, sessionID)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) EvictExpired(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, e := range s.entries {
		if s.expired(e) {
			delete(s.entries, id)
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) Sessions(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.entries))
	for id, e := range s.entries {
		if !s.expired(e) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// Len reports the number of entries held, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *MemoryStore) expired(e *Entry) bool {
	return s.nowFunc().Sub(e.ReceivedAt) > s.ttl
}

func copyEntry(e *Entry) *Entry {
	return &Entry{
		SessionID:  e.SessionID,
		Items:      cloneItems(e.Items),
		ReceivedAt: e.ReceivedAt,
	}
}
