package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"quizlab-service/internal/domain"
)

// QuizRepository owns quiz documents and the manifest index used to list them
// without a full table scan. The manifest is best-effort: the quiz document
// is the source of truth for existence.
type QuizRepository struct {
	store DocumentStore
	now   func() time.Time
	newID func() string
}

func NewQuizRepository(store DocumentStore) *QuizRepository {
	return &QuizRepository{
		store: store,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// ListFilter narrows List output. Zero value matches everything.
type ListFilter struct {
	CreatorID string
}

// QuizPatch carries the fields of a partial update; nil fields are left
// untouched.
type QuizPatch struct {
	Title     *string
	Questions *[]domain.Question
	Published *bool
}

func (p QuizPatch) empty() bool {
	return p.Title == nil && p.Questions == nil && p.Published == nil
}

// Create writes a fresh unpublished quiz with no questions and appends its id
// to the manifest. The two writes are separate; a manifest failure is
// surfaced without rolling back the quiz document.
func (r *QuizRepository) Create(ctx context.Context, title, creatorID string) (domain.Quiz, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return domain.Quiz{}, fmt.Errorf("%w: title required", domain.ErrValidation)
	}

	quiz := domain.Quiz{
		ID:        r.newID(),
		Kind:      domain.KindQuiz,
		Title:     title,
		Questions: []domain.Question{},
		Published: false,
		CreatorID: creatorID,
		CreatedAt: r.now().UnixMilli(),
	}
	doc, err := json.Marshal(quiz)
	if err != nil {
		return domain.Quiz{}, err
	}
	// Conditional write: id generation and the existence check are not
	// atomic, so guard against the (practically unreachable) collision.
	if err := r.store.PutIfAbsent(ctx, domain.QuizKey(quiz.ID), doc); err != nil {
		return domain.Quiz{}, err
	}
	if err := r.appendManifest(ctx, quiz.ID); err != nil {
		return quiz, err
	}
	return quiz, nil
}

// GetQuiz returns the full, unredacted quiz document. Stored documents that
// fail schema validation surface as domain.ErrCorruptRecord.
func (r *QuizRepository) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	doc, err := r.store.Get(ctx, domain.QuizKey(quizID))
	if err != nil {
		return domain.Quiz{}, err
	}
	return decodeQuiz(doc)
}

// List reads the manifest and batch-fetches the referenced quizzes in
// manifest order. Entries with no backing document (index/data divergence)
// are skipped and logged rather than failing the whole listing.
func (r *QuizRepository) List(ctx context.Context, filter ListFilter) ([]domain.Quiz, error) {
	manifest, err := r.loadManifest(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return []domain.Quiz{}, nil
		}
		return nil, err
	}

	keys := make([]string, 0, len(manifest.QuizIDs))
	for _, id := range manifest.QuizIDs {
		keys = append(keys, domain.QuizKey(id))
	}
	docs, err := r.store.BatchGet(ctx, keys)
	if err != nil {
		return nil, err
	}

	quizzes := make([]domain.Quiz, 0, len(manifest.QuizIDs))
	for _, id := range manifest.QuizIDs {
		doc, ok := docs[domain.QuizKey(id)]
		if !ok {
			log.Printf("quiz manifest references missing quiz %s, skipping", id)
			continue
		}
		quiz, err := decodeQuiz(doc)
		if err != nil {
			log.Printf("skipping quiz %s: %v", id, err)
			continue
		}
		if filter.CreatorID != "" && quiz.CreatorID != filter.CreatorID {
			continue
		}
		quizzes = append(quizzes, quiz)
	}
	return quizzes, nil
}

// UpdatePartial applies only the supplied fields. An empty patch succeeds
// without touching the store.
func (r *QuizRepository) UpdatePartial(ctx context.Context, quizID string, patch QuizPatch) error {
	if patch.empty() {
		return nil
	}
	fields := make(map[string]any, 3)
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return fmt.Errorf("%w: title required", domain.ErrValidation)
		}
		fields["title"] = title
	}
	if patch.Questions != nil {
		probe := domain.Quiz{ID: quizID, Kind: domain.KindQuiz, Questions: *patch.Questions}
		if err := probe.Validate(); err != nil {
			return err
		}
		fields["questions"] = *patch.Questions
	}
	if patch.Published != nil {
		fields["published"] = *patch.Published
	}
	return r.store.Merge(ctx, domain.QuizKey(quizID), fields)
}

// SetPublished flips the published flag.
func (r *QuizRepository) SetPublished(ctx context.Context, quizID string, published bool) error {
	return r.store.Merge(ctx, domain.QuizKey(quizID), map[string]any{"published": published})
}

// Delete removes the quiz document and then its manifest entry. The manifest
// update is a non-atomic read-modify-write: a create racing a delete can drop
// an id from the manifest. Accepted at this scale; List tolerates divergence
// in both directions.
func (r *QuizRepository) Delete(ctx context.Context, quizID string) error {
	if err := r.store.Delete(ctx, domain.QuizKey(quizID)); err != nil {
		return err
	}
	return r.removeManifest(ctx, quizID)
}

func (r *QuizRepository) loadManifest(ctx context.Context) (domain.Manifest, error) {
	doc, err := r.store.Get(ctx, domain.ManifestKey)
	if err != nil {
		return domain.Manifest{}, err
	}
	var manifest domain.Manifest
	if err := json.Unmarshal(doc, &manifest); err != nil {
		return domain.Manifest{}, fmt.Errorf("%w: manifest: %v", domain.ErrCorruptRecord, err)
	}
	return manifest, nil
}

func (r *QuizRepository) appendManifest(ctx context.Context, quizID string) error {
	manifest, err := r.loadManifest(ctx)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	manifest.Kind = domain.KindManifest
	for _, id := range manifest.QuizIDs {
		if id == quizID {
			return nil
		}
	}
	manifest.QuizIDs = append(manifest.QuizIDs, quizID)
	return r.putManifest(ctx, manifest)
}

func (r *QuizRepository) removeManifest(ctx context.Context, quizID string) error {
	manifest, err := r.loadManifest(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}
	kept := manifest.QuizIDs[:0]
	for _, id := range manifest.QuizIDs {
		if id != quizID {
			kept = append(kept, id)
		}
	}
	manifest.QuizIDs = kept
	return r.putManifest(ctx, manifest)
}

func (r *QuizRepository) putManifest(ctx context.Context, manifest domain.Manifest) error {
	doc, err := json.Marshal(manifest)
	if err != nil {
		return err
	}
	return r.store.Put(ctx, domain.ManifestKey, doc)
}

func decodeQuiz(doc []byte) (domain.Quiz, error) {
	var quiz domain.Quiz
	if err := json.Unmarshal(doc, &quiz); err != nil {
		return domain.Quiz{}, fmt.Errorf("%w: %v", domain.ErrCorruptRecord, err)
	}
	if err := quiz.Validate(); err != nil {
		return domain.Quiz{}, fmt.Errorf("%w: %v", domain.ErrCorruptRecord, err)
	}
	return quiz, nil
}
