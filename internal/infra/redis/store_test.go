package redis

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"quizlab-service/internal/domain"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewStore(client), mr
}

func TestStoreRoundtrip(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestStore(t)

	if err := store.Put(ctx, "QUIZ#1", []byte(`{"id":"1"}`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	if !mr.Exists("doc:QUIZ#1") {
		t.Fatalf("expected prefixed redis key")
	}

	doc, err := store.Get(ctx, "QUIZ#1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(doc) != `{"id":"1"}` {
		t.Fatalf("unexpected doc: %s", doc)
	}
	if _, err := store.Get(ctx, "QUIZ#missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestStorePutIfAbsent(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	if err := store.PutIfAbsent(ctx, "USER#a", []byte(`{"v":1}`)); err != nil {
		t.Fatalf("first put: %v", err)
	}
	if err := store.PutIfAbsent(ctx, "USER#a", []byte(`{"v":2}`)); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	doc, _ := store.Get(ctx, "USER#a")
	if string(doc) != `{"v":1}` {
		t.Fatalf("conflicting write overwrote doc: %s", doc)
	}
}

func TestStoreMerge(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	if err := store.Merge(ctx, "QUIZ#1", map[string]any{"title": "x"}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("merge on missing key: expected not found, got %v", err)
	}

	_ = store.Put(ctx, "QUIZ#1", []byte(`{"id":"1","title":"old","published":false}`))
	if err := store.Merge(ctx, "QUIZ#1", map[string]any{"published": true}); err != nil {
		t.Fatalf("merge: %v", err)
	}

	doc, _ := store.Get(ctx, "QUIZ#1")
	var got struct {
		ID        string `json:"id"`
		Title     string `json:"title"`
		Published bool   `json:"published"`
	}
	if err := json.Unmarshal(doc, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.ID != "1" || got.Title != "old" || !got.Published {
		t.Fatalf("merge clobbered fields: %+v", got)
	}
}

func TestStoreDelete(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	_ = store.Put(ctx, "QUIZ#1", []byte(`{}`))
	if err := store.Delete(ctx, "QUIZ#1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.Delete(ctx, "QUIZ#1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestStoreBatchGetOmitsMissing(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	_ = store.Put(ctx, "QUIZ#1", []byte(`{}`))
	found, err := store.BatchGet(ctx, []string{"QUIZ#1", "QUIZ#2"})
	if err != nil {
		t.Fatalf("batch get: %v", err)
	}
	if len(found) != 1 {
		t.Fatalf("expected one hit, got %d", len(found))
	}
	if _, ok := found["QUIZ#1"]; !ok {
		t.Fatalf("expected QUIZ#1 present")
	}
}

func TestStoreScanPrefix(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	_ = store.Put(ctx, "QUIZ#1", []byte(`{}`))
	_ = store.Put(ctx, "QUIZ#2", []byte(`{}`))
	_ = store.Put(ctx, "USER#a", []byte(`{}`))

	found, err := store.Scan(ctx, "QUIZ#")
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(found) != 2 {
		t.Fatalf("expected 2 quiz docs, got %d: %v", len(found), found)
	}
	for key := range found {
		if key != "QUIZ#1" && key != "QUIZ#2" {
			t.Fatalf("scan returned unstripped or foreign key %q", key)
		}
	}
}
