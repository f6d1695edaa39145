package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"quizlab-service/internal/domain"
)

// Store is an in-memory implementation of app.DocumentStore, used in tests
// and when no backend is configured.
type Store struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

func NewStore() *Store {
	return &Store{docs: make(map[string][]byte)}
}

func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, key)
	}
	return append([]byte(nil), doc...), nil
}

func (s *Store) Put(_ context.Context, key string, doc []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[key] = append([]byte(nil), doc...)
	return nil
}

func (s *Store) PutIfAbsent(_ context.Context, key string, doc []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[key]; ok {
		return fmt.Errorf("%w: %s", domain.ErrConflict, key)
	}
	s.docs[key] = append([]byte(nil), doc...)
	return nil
}

func (s *Store) Merge(_ context.Context, key string, fields map[string]any) error {
	patch, err := normalizeFields(fields)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[key]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, key)
	}
	var merged map[string]json.RawMessage
	if err := json.Unmarshal(doc, &merged); err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrCorruptRecord, key, err)
	}
	for name, value := range patch {
		merged[name] = value
	}
	out, err := json.Marshal(merged)
	if err != nil {
		return err
	}
	s.docs[key] = out
	return nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[key]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, key)
	}
	delete(s.docs, key)
	return nil
}

func (s *Store) BatchGet(_ context.Context, keys []string) (map[string][]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	found := make(map[string][]byte, len(keys))
	for _, key := range keys {
		if doc, ok := s.docs[key]; ok {
			found[key] = append([]byte(nil), doc...)
		}
	}
	return found, nil
}

func (s *Store) Scan(_ context.Context, prefix string) (map[string][]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	found := make(map[string][]byte)
	for key, doc := range s.docs {
		if strings.HasPrefix(key, prefix) {
			found[key] = append([]byte(nil), doc...)
		}
	}
	return found, nil
}

// normalizeFields round-trips patch values through JSON so typed values
// (roles, question slices) land in the document the same way a full marshal
// would store them.
func normalizeFields(fields map[string]any) (map[string]json.RawMessage, error) {
	patch := make(map[string]json.RawMessage, len(fields))
	for name, value := range fields {
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		patch[name] = raw
	}
	return patch, nil
}
