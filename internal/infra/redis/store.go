package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"quizlab-service/internal/domain"
)

// keyspace prefix for document keys, keeping them apart from session keys.
const docPrefix = "doc:"

// Store is a Redis implementation of app.DocumentStore. Each document is a
// JSON string value; conditional creates use SETNX and Scan walks the
// keyspace with a MATCH pattern.
type Store struct {
	client *redis.Client
}

func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	doc, err := s.client.Get(ctx, docPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return doc, nil
}

func (s *Store) Put(ctx context.Context, key string, doc []byte) error {
	if err := s.client.Set(ctx, docPrefix+key, doc, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *Store) PutIfAbsent(ctx context.Context, key string, doc []byte) error {
	ok, err := s.client.SetNX(ctx, docPrefix+key, doc, 0).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrConflict, key)
	}
	return nil
}

// Merge is a read-modify-write: Redis string values carry whole documents, so
// the partial update is applied client-side. Concurrent merges of the same
// key can lose fields; per-key mutation traffic here is a single admin or
// creator, which matches the accepted consistency model.
func (s *Store) Merge(ctx context.Context, key string, fields map[string]any) error {
	doc, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	var merged map[string]json.RawMessage
	if err := json.Unmarshal(doc, &merged); err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrCorruptRecord, key, err)
	}
	for name, value := range fields {
		raw, err := json.Marshal(value)
		if err != nil {
			return err
		}
		merged[name] = raw
	}
	out, err := json.Marshal(merged)
	if err != nil {
		return err
	}
	return s.Put(ctx, key, out)
}

func (s *Store) Delete(ctx context.Context, key string) error {
	deleted, err := s.client.Del(ctx, docPrefix+key).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	if deleted == 0 {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, key)
	}
	return nil
}

func (s *Store) BatchGet(ctx context.Context, keys []string) (map[string][]byte, error) {
	if len(keys) == 0 {
		return map[string][]byte{}, nil
	}
	prefixed := make([]string, len(keys))
	for i, key := range keys {
		prefixed[i] = docPrefix + key
	}
	values, err := s.client.MGet(ctx, prefixed...).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	found := make(map[string][]byte, len(keys))
	for i, value := range values {
		if value == nil {
			continue
		}
		if text, ok := value.(string); ok {
			found[keys[i]] = []byte(text)
		}
	}
	return found, nil
}

func (s *Store) Scan(ctx context.Context, prefix string) (map[string][]byte, error) {
	var (
		cursor uint64
		keys   []string
	)
	for {
		batch, next, err := s.client.Scan(ctx, cursor, docPrefix+prefix+"*", 100).Result()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
		}
		for _, key := range batch {
			keys = append(keys, key[len(docPrefix):])
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return s.BatchGet(ctx, keys)
}
