package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"quizlab-service/internal/auth"
	"quizlab-service/internal/domain"
)

// SessionStore is an in-memory implementation of auth.SessionStore.
type SessionStore struct {
	ttl   time.Duration
	clock func() time.Time

	mu       sync.RWMutex
	sessions map[string]sessionEntry
}

type sessionEntry struct {
	identity  auth.Identity
	expiresAt time.Time
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		ttl:      ttl,
		clock:    time.Now,
		sessions: make(map[string]sessionEntry),
	}
}

func (s *SessionStore) Create(_ context.Context, identity auth.Identity) (string, error) {
	token := uuid.NewString()
	s.mu.Lock()
	s.sessions[token] = sessionEntry{
		identity:  identity,
		expiresAt: s.clock().Add(s.ttl),
	}
	s.mu.Unlock()
	return token, nil
}

func (s *SessionStore) Get(_ context.Context, token string) (auth.Identity, error) {
	s.mu.RLock()
	entry, ok := s.sessions[token]
	s.mu.RUnlock()
	if !ok || entry.expiresAt.Before(s.clock()) {
		return auth.Identity{}, fmt.Errorf("%w: session", domain.ErrNotFound)
	}
	return entry.identity, nil
}

func (s *SessionStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
	return nil
}
