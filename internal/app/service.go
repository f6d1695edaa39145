package app

import (
	"context"
	"errors"
	"fmt"

	"quizlab-service/internal/auth"
	"quizlab-service/internal/domain"
)

// QuizService exposes the caller-facing operations. Every mutation resolves
// the caller's stored role through the user repository before touching quiz
// documents; validation and authorization failures never leave partial
// writes.
type QuizService struct {
	quizzes *QuizRepository
	users   *UserRepository
	scorer  *AttemptScorer

	// invalidate drops a quiz from the read cache after a mutation, when a
	// cache is wired in.
	invalidate func(quizID string)
}

func NewQuizService(quizzes *QuizRepository, users *UserRepository, scorer *AttemptScorer) *QuizService {
	return &QuizService{quizzes: quizzes, users: users, scorer: scorer}
}

// SetCacheInvalidator wires the quiz read cache's invalidation hook.
func (s *QuizService) SetCacheInvalidator(invalidate func(quizID string)) {
	s.invalidate = invalidate
}

// CreateQuiz creates an unpublished quiz owned by the caller. Requires the
// admin or creator role.
func (s *QuizService) CreateQuiz(ctx context.Context, identity auth.Identity, title string) (domain.Quiz, error) {
	caller, err := s.requireRole(ctx, identity, domain.RoleAdmin, domain.RoleCreator)
	if err != nil {
		return domain.Quiz{}, err
	}
	return s.quizzes.Create(ctx, title, caller.Email)
}

// GetQuiz returns one quiz. Learners only see published quizzes and never the
// answer key.
func (s *QuizService) GetQuiz(ctx context.Context, identity auth.Identity, quizID string) (domain.Quiz, error) {
	caller, err := s.requireRole(ctx, identity, domain.RoleAdmin, domain.RoleCreator, domain.RoleLearner)
	if err != nil {
		return domain.Quiz{}, err
	}
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	if caller.Role == domain.RoleLearner {
		if !quiz.Published {
			return domain.Quiz{}, fmt.Errorf("%w: quiz %s", domain.ErrNotFound, quizID)
		}
		return quiz.Redacted(), nil
	}
	return quiz, nil
}

// ListQuizzes lists quizzes in manifest order. Learners see published quizzes
// only, with answer keys stripped.
func (s *QuizService) ListQuizzes(ctx context.Context, identity auth.Identity, filter ListFilter) ([]domain.Quiz, error) {
	caller, err := s.requireRole(ctx, identity, domain.RoleAdmin, domain.RoleCreator, domain.RoleLearner)
	if err != nil {
		return nil, err
	}
	quizzes, err := s.quizzes.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if caller.Role != domain.RoleLearner {
		return quizzes, nil
	}
	visible := make([]domain.Quiz, 0, len(quizzes))
	for _, quiz := range quizzes {
		if quiz.Published {
			visible = append(visible, quiz.Redacted())
		}
	}
	return visible, nil
}

// UpdateQuiz applies a partial update. Requires admin or creator.
func (s *QuizService) UpdateQuiz(ctx context.Context, identity auth.Identity, quizID string, patch QuizPatch) error {
	if _, err := s.requireRole(ctx, identity, domain.RoleAdmin, domain.RoleCreator); err != nil {
		return err
	}
	if err := s.quizzes.UpdatePartial(ctx, quizID, patch); err != nil {
		return err
	}
	s.dropCached(quizID)
	return nil
}

// SetPublished flips the published flag. Requires admin or creator.
func (s *QuizService) SetPublished(ctx context.Context, identity auth.Identity, quizID string, published bool) error {
	if _, err := s.requireRole(ctx, identity, domain.RoleAdmin, domain.RoleCreator); err != nil {
		return err
	}
	if err := s.quizzes.SetPublished(ctx, quizID, published); err != nil {
		return err
	}
	s.dropCached(quizID)
	return nil
}

// DeleteQuiz removes a quiz and its manifest entry. Requires admin.
func (s *QuizService) DeleteQuiz(ctx context.Context, identity auth.Identity, quizID string) error {
	if _, err := s.requireRole(ctx, identity, domain.RoleAdmin); err != nil {
		return err
	}
	if err := s.quizzes.Delete(ctx, quizID); err != nil {
		return err
	}
	s.dropCached(quizID)
	return nil
}

// SubmitAttempt scores and persists one attempt for the authenticated caller.
func (s *QuizService) SubmitAttempt(ctx context.Context, identity auth.Identity, quizID string, submissions []domain.Submission) (domain.AttemptResult, error) {
	if !identity.Authenticated() {
		return domain.AttemptResult{}, domain.ErrUnauthenticated
	}
	return s.scorer.Submit(ctx, identity.Email, quizID, submissions)
}

// EnsureUser creates or touches a user document on sign-in.
func (s *QuizService) EnsureUser(ctx context.Context, email, name, image string, defaultRole domain.Role) (domain.User, error) {
	return s.users.Ensure(ctx, email, name, image, defaultRole)
}

// GetUser returns a user document. Admins may read anyone; everyone else only
// themselves.
func (s *QuizService) GetUser(ctx context.Context, identity auth.Identity, email string) (domain.User, error) {
	caller, err := s.requireRole(ctx, identity, domain.RoleAdmin, domain.RoleCreator, domain.RoleLearner)
	if err != nil {
		return domain.User{}, err
	}
	if caller.Role != domain.RoleAdmin && domain.UserKey(caller.Email) != domain.UserKey(email) {
		return domain.User{}, domain.ErrUnauthorized
	}
	return s.users.GetByEmail(ctx, email)
}

// SetUserRole updates an existing user's role. Requires admin.
func (s *QuizService) SetUserRole(ctx context.Context, identity auth.Identity, email string, role domain.Role) error {
	if _, err := s.requireRole(ctx, identity, domain.RoleAdmin); err != nil {
		return err
	}
	return s.users.SetRole(ctx, email, role)
}

// requireRole resolves the caller's stored user document and checks its role
// against the allowed set. A missing identity is an authentication failure; a
// missing user document or disallowed role an authorization one.
func (s *QuizService) requireRole(ctx context.Context, identity auth.Identity, allowed ...domain.Role) (domain.User, error) {
	if !identity.Authenticated() {
		return domain.User{}, domain.ErrUnauthenticated
	}
	caller, err := s.users.GetByEmail(ctx, identity.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.User{}, domain.ErrUnauthorized
		}
		return domain.User{}, err
	}
	for _, role := range allowed {
		if caller.Role == role {
			return caller, nil
		}
	}
	return domain.User{}, domain.ErrUnauthorized
}

func (s *QuizService) dropCached(quizID string) {
	if s.invalidate != nil {
		s.invalidate(quizID)
	}
}
