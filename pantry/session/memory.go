// session/memory.go
package session

import (
	"context"
	"maps"
	"sync"
	"time"
)

// MemoryStore keeps sessions in process memory. A background sweep drops
// expired entries; Close stops it.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*SessionData
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewMemoryStore sweeps every cleanupInterval (10 minutes when <= 0).
func NewMemoryStore(cleanupInterval time.Duration) *MemoryStore {
	if cleanupInterval <= 0 {
		cleanupInterval = 10 * time.Minute
	}
	s := &MemoryStore{
		sessions: make(map[string]*SessionData),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	go s.cleanup(cleanupInterval)
	return s
}

func (s *MemoryStore) Load(_ context.Context, id string) (*SessionData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	if time.Now().After(data.ExpiresAt) {
		return nil, ErrExpired
	}
	return copySessionData(data), nil
}

func (s *MemoryStore) Save(_ context.Context, data *SessionData) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[data.ID] = copySessionData(data)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

func (s *MemoryStore) Close() error {
	close(s.stopCh)
	<-s.doneCh
	return nil
}

// Len reports the number of stored sessions, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *MemoryStore) cleanup(interval time.Duration) {
	defer close(s.doneCh)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.removeExpired(time.Now())
		}
	}
}

func (s *MemoryStore) removeExpired(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, data := range s.sessions {
		if now.After(data.ExpiresAt) {
			delete(s.sessions, id)
		}
	}
}

func copySessionData(data *SessionData) *SessionData {
	cp := *data
	cp.Data = maps.Clone(data.Data)
	if cp.Data == nil {
		cp.Data = make(map[string]any)
	}
	return &cp
}
