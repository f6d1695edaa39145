package domain

import "fmt"

// Validate checks the structural invariants of a stored quiz document:
// answer indices must address existing options, qids must be unique within
// the quiz, and single questions carry exactly one correct index.
func (q Quiz) Validate() error {
	if q.ID == "" {
		return fmt.Errorf("%w: quiz id missing", ErrValidation)
	}
	if q.Kind != KindQuiz {
		return fmt.Errorf("%w: kind %q", ErrValidation, q.Kind)
	}
	seen := make(map[string]struct{}, len(q.Questions))
	for _, question := range q.Questions {
		if err := question.Validate(); err != nil {
			return err
		}
		if _, ok := seen[question.QID]; ok {
			return fmt.Errorf("%w: duplicate qid %q", ErrValidation, question.QID)
		}
		seen[question.QID] = struct{}{}
	}
	return nil
}

// Validate checks a single question.
func (q Question) Validate() error {
	if q.QID == "" {
		return fmt.Errorf("%w: question id missing", ErrValidation)
	}
	if q.Type != QuestionSingle && q.Type != QuestionMulti {
		return fmt.Errorf("%w: question %s has type %q", ErrValidation, q.QID, q.Type)
	}
	if q.Type == QuestionSingle && len(q.AnswerIndices) != 1 {
		return fmt.Errorf("%w: single question %s has %d correct indices", ErrValidation, q.QID, len(q.AnswerIndices))
	}
	for _, idx := range q.AnswerIndices {
		if idx < 0 || idx >= len(q.Options) {
			return fmt.Errorf("%w: question %s answer index %d out of range", ErrValidation, q.QID, idx)
		}
	}
	return nil
}

// Validate checks a stored user document.
func (u User) Validate() error {
	if u.Email == "" {
		return fmt.Errorf("%w: email missing", ErrValidation)
	}
	if u.Kind != KindUser {
		return fmt.Errorf("%w: kind %q", ErrValidation, u.Kind)
	}
	if !u.Role.Valid() {
		return fmt.Errorf("%w: role %q", ErrValidation, u.Role)
	}
	return nil
}

// Validate checks an attempt before it is persisted.
func (a Attempt) Validate() error {
	if a.ID == "" || a.QuizID == "" || a.UserID == "" {
		return fmt.Errorf("%w: attempt fields missing", ErrValidation)
	}
	if a.Kind != KindAttempt {
		return fmt.Errorf("%w: kind %q", ErrValidation, a.Kind)
	}
	if a.Score < 0 || a.Score > a.Total {
		return fmt.Errorf("%w: score %d/%d", ErrValidation, a.Score, a.Total)
	}
	return nil
}
