package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"quizlab-service/internal/domain"
)

// AttemptScorer scores submitted selections against the stored answer key and
// persists the result as an immutable attempt record.
type AttemptScorer struct {
	quizzes QuizSource
	store   DocumentStore
	feed    *ResultsFeed
	now     func() time.Time
	newID   func() string
}

func NewAttemptScorer(quizzes QuizSource, store DocumentStore, feed *ResultsFeed) *AttemptScorer {
	return &AttemptScorer{
		quizzes: quizzes,
		store:   store,
		feed:    feed,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// Score compares submissions against the quiz answer key. Total is the number
// of quiz questions, not submissions. Questions are judged in quiz order; a
// question with no matching submission counts as an empty selection, and
// submissions whose qid is not in the quiz are ignored. A question is correct
// iff the selected indices equal the answer key as sets.
func Score(quiz domain.Quiz, submissions []domain.Submission) domain.ScoreResult {
	selected := make(map[string][]int, len(submissions))
	for _, s := range submissions {
		if _, ok := selected[s.QID]; !ok {
			selected[s.QID] = s.SelectedIndices
		}
	}

	result := domain.ScoreResult{
		Total:       len(quiz.Questions),
		PerQuestion: make([]domain.QuestionVerdict, 0, len(quiz.Questions)),
	}
	for _, question := range quiz.Questions {
		correct := sameIndexSet(question.AnswerIndices, selected[question.QID])
		if correct {
			result.Score++
		}
		result.PerQuestion = append(result.PerQuestion, domain.QuestionVerdict{
			QID:     question.QID,
			Correct: correct,
		})
	}
	return result
}

// sameIndexSet compares two index lists as sets: order and duplicates are
// irrelevant. Out-of-range selections simply never match a valid answer key.
func sameIndexSet(key, selected []int) bool {
	want := make(map[int]struct{}, len(key))
	for _, idx := range key {
		want[idx] = struct{}{}
	}
	got := make(map[int]struct{}, len(selected))
	for _, idx := range selected {
		got[idx] = struct{}{}
	}
	if len(want) != len(got) {
		return false
	}
	for idx := range want {
		if _, ok := got[idx]; !ok {
			return false
		}
	}
	return true
}

// Submit scores the submissions for userID against the quiz and persists the
// attempt. Anonymous submission is rejected before any scoring work. A failed
// attempt write fails the whole call: an unsaved attempt has no durable
// record.
func (s *AttemptScorer) Submit(ctx context.Context, userID, quizID string, submissions []domain.Submission) (domain.AttemptResult, error) {
	if userID == "" {
		return domain.AttemptResult{}, domain.ErrUnauthenticated
	}
	if quizID == "" {
		return domain.AttemptResult{}, fmt.Errorf("%w: quizId required", domain.ErrValidation)
	}

	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.AttemptResult{}, err
	}

	scored := Score(quiz, submissions)
	attempt := domain.Attempt{
		ID:        s.newID(),
		Kind:      domain.KindAttempt,
		QuizID:    quizID,
		UserID:    userID,
		Score:     scored.Score,
		Total:     scored.Total,
		CreatedAt: s.now().UnixMilli(),
	}
	if err := attempt.Validate(); err != nil {
		return domain.AttemptResult{}, err
	}
	doc, err := json.Marshal(attempt)
	if err != nil {
		return domain.AttemptResult{}, err
	}
	if err := s.store.PutIfAbsent(ctx, domain.AttemptKey(attempt.ID), doc); err != nil {
		return domain.AttemptResult{}, err
	}

	result := domain.AttemptResult{Attempt: attempt, Verdict: scored.PerQuestion}
	if s.feed != nil {
		s.feed.Publish(quizID, result)
	}
	return result, nil
}
