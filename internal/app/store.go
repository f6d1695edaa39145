package app

import (
	"context"

	"quizlab-service/internal/domain"
)

// DocumentStore is the single-table key-value collection every repository
// persists into (in-memory, Redis, Postgres). Documents are JSON blobs keyed
// by a single string primary key.
type DocumentStore interface {
	// Get returns the document at key, or domain.ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Put writes the document unconditionally.
	Put(ctx context.Context, key string, doc []byte) error
	// PutIfAbsent writes only when the key does not exist yet and returns
	// domain.ErrConflict otherwise.
	PutIfAbsent(ctx context.Context, key string, doc []byte) error
	// Merge overwrites only the given top-level fields of an existing
	// document and returns domain.ErrNotFound when the key is absent.
	Merge(ctx context.Context, key string, fields map[string]any) error
	// Delete removes the document and returns domain.ErrNotFound when the
	// key was absent.
	Delete(ctx context.Context, key string) error
	// BatchGet returns the documents for the given keys; missing keys are
	// simply omitted from the result.
	BatchGet(ctx context.Context, keys []string) (map[string][]byte, error)
	// Scan returns all documents whose key starts with prefix.
	Scan(ctx context.Context, prefix string) (map[string][]byte, error)
}

// QuizSource loads quiz documents for read paths (repository or cache).
type QuizSource interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}
