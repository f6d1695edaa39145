package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quizlab-service/internal/domain"
)

// Store is a Postgres implementation of app.DocumentStore: one jsonb row per
// document in a single table, mirroring the single-table key-value layout.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var doc []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM documents WHERE key=$1`, key).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return doc, nil
}

func (s *Store) Put(ctx context.Context, key string, doc []byte) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO documents (key, data) VALUES ($1, $2::jsonb)
		 ON CONFLICT (key) DO UPDATE SET data=EXCLUDED.data`, key, doc)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *Store) PutIfAbsent(ctx context.Context, key string, doc []byte) error {
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO documents (key, data) VALUES ($1, $2::jsonb)
		 ON CONFLICT (key) DO NOTHING`, key, doc)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", domain.ErrConflict, key)
	}
	return nil
}

// Merge is atomic here: jsonb concatenation overwrites the supplied top-level
// fields in one statement.
func (s *Store) Merge(ctx context.Context, key string, fields map[string]any) error {
	patch, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE documents SET data = data || $2::jsonb WHERE key=$1`, key, patch)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, key)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM documents WHERE key=$1`, key)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, key)
	}
	return nil
}

func (s *Store) BatchGet(ctx context.Context, keys []string) (map[string][]byte, error) {
	if len(keys) == 0 {
		return map[string][]byte{}, nil
	}
	rows, err := s.pool.Query(ctx, `SELECT key, data FROM documents WHERE key = ANY($1)`, keys)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	defer rows.Close()
	return collectRows(rows)
}

func (s *Store) Scan(ctx context.Context, prefix string) (map[string][]byte, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT key, data FROM documents WHERE key LIKE $1 || '%'`, prefix)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	defer rows.Close()
	return collectRows(rows)
}

func collectRows(rows pgx.Rows) (map[string][]byte, error) {
	found := make(map[string][]byte)
	for rows.Next() {
		var (
			key string
			doc []byte
		)
		if err := rows.Scan(&key, &doc); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
		}
		found[key] = doc
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return found, nil
}
