package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"quizlab-service/internal/domain"
)

// UserRepository stores user documents keyed by lowercased email. The stored
// role is the sole authorization input for quiz mutations.
type UserRepository struct {
	store DocumentStore
	now   func() time.Time
}

func NewUserRepository(store DocumentStore) *UserRepository {
	return &UserRepository{store: store, now: time.Now}
}

// GetByEmail returns the user document, or domain.ErrNotFound.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	doc, err := r.store.Get(ctx, domain.UserKey(email))
	if err != nil {
		return domain.User{}, err
	}
	return decodeUser(doc)
}

// Ensure creates the user on first sign-in or touches lastLoginAt on
// subsequent ones. The create is a conditional write, so concurrent first
// sign-ins cannot produce duplicates; the loser of the race falls through to
// the touch path. Empty name/image are backfilled from the input.
func (r *UserRepository) Ensure(ctx context.Context, email, name, image string, defaultRole domain.Role) (domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return domain.User{}, fmt.Errorf("%w: email required", domain.ErrValidation)
	}
	if !defaultRole.Valid() {
		defaultRole = domain.RoleLearner
	}

	now := r.now().UnixMilli()
	user := domain.User{
		ID:          email,
		Kind:        domain.KindUser,
		Email:       email,
		Role:        defaultRole,
		Name:        name,
		Image:       image,
		CreatedAt:   now,
		LastLoginAt: now,
	}
	if err := user.Validate(); err != nil {
		return domain.User{}, err
	}
	doc, err := json.Marshal(user)
	if err != nil {
		return domain.User{}, err
	}

	err = r.store.PutIfAbsent(ctx, domain.UserKey(email), doc)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, domain.ErrConflict) {
		return domain.User{}, err
	}

	existing, err := r.GetByEmail(ctx, email)
	if err != nil {
		return domain.User{}, err
	}
	fields := map[string]any{"lastLoginAt": now}
	if existing.Name == "" && name != "" {
		fields["name"] = name
		existing.Name = name
	}
	if existing.Image == "" && image != "" {
		fields["image"] = image
		existing.Image = image
	}
	if err := r.store.Merge(ctx, domain.UserKey(email), fields); err != nil {
		return domain.User{}, err
	}
	existing.LastLoginAt = now
	return existing, nil
}

// SetRole updates an existing user's role and fails with domain.ErrNotFound
// when no such user exists.
func (r *UserRepository) SetRole(ctx context.Context, email string, role domain.Role) error {
	if !role.Valid() {
		return fmt.Errorf("%w: role %q", domain.ErrValidation, role)
	}
	return r.store.Merge(ctx, domain.UserKey(email), map[string]any{"role": role})
}

func decodeUser(doc []byte) (domain.User, error) {
	var user domain.User
	if err := json.Unmarshal(doc, &user); err != nil {
		return domain.User{}, fmt.Errorf("%w: %v", domain.ErrCorruptRecord, err)
	}
	if err := user.Validate(); err != nil {
		return domain.User{}, fmt.Errorf("%w: %v", domain.ErrCorruptRecord, err)
	}
	return user, nil
}
