package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"quizlab-service/internal/auth"
	"quizlab-service/internal/domain"
)

// SessionStore keeps opaque session tokens in Redis with a TTL, so sessions
// survive process restarts and are shared across instances.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

func (s *SessionStore) Create(ctx context.Context, identity auth.Identity) (string, error) {
	token := uuid.NewString()
	doc, err := json.Marshal(identity)
	if err != nil {
		return "", err
	}
	if err := s.client.Set(ctx, s.key(token), doc, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return token, nil
}

func (s *SessionStore) Get(ctx context.Context, token string) (auth.Identity, error) {
	doc, err := s.client.Get(ctx, s.key(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return auth.Identity{}, fmt.Errorf("%w: session", domain.ErrNotFound)
	}
	if err != nil {
		return auth.Identity{}, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	var identity auth.Identity
	if err := json.Unmarshal(doc, &identity); err != nil {
		return auth.Identity{}, fmt.Errorf("%w: session: %v", domain.ErrCorruptRecord, err)
	}
	return identity, nil
}

func (s *SessionStore) Delete(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, s.key(token)).Err(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *SessionStore) key(token string) string {
	return "session:" + token
}
