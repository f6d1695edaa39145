package domain

// Role gates which mutating operations a caller may invoke.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleCreator Role = "creator"
	RoleLearner Role = "learner"
)

// Valid reports whether the role is one of the three known roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleCreator || r == RoleLearner
}

// Question types. A single question has exactly one correct index.
const (
	QuestionSingle = "single"
	QuestionMulti  = "multi"
)

// Document kinds stored in the single-table document store.
const (
	KindQuiz    = "QUIZ"
	KindAttempt = "ATTEMPT"
	KindUser    = "USER"
)

// Question models one MCQ question. AnswerIndices are positions in Options
// marked correct (the answer key).
type Question struct {
	QID           string   `json:"qid"`
	Text          string   `json:"text"`
	Type          string   `json:"type"`
	Options       []string `json:"options"`
	AnswerIndices []int    `json:"answerIndices"`
	Explanation   string   `json:"explanation,omitempty"`
}

// Quiz is a stored quiz document.
type Quiz struct {
	ID        string     `json:"id"`
	Kind      string     `json:"kind"`
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
	Published bool       `json:"published"`
	CreatorID string     `json:"creatorId,omitempty"`
	CreatedAt int64      `json:"createdAt"`
}

// Attempt is an immutable record of one scored submission.
type Attempt struct {
	ID        string `json:"id"`
	Kind      string `json:"kind"`
	QuizID    string `json:"quizId"`
	UserID    string `json:"userId"`
	Score     int    `json:"score"`
	Total     int    `json:"total"`
	CreatedAt int64  `json:"createdAt"`
}

// User is a stored user document, keyed by lowercased email.
type User struct {
	ID          string `json:"id"`
	Kind        string `json:"kind"`
	Email       string `json:"email"`
	Role        Role   `json:"role"`
	Name        string `json:"name,omitempty"`
	Image       string `json:"image,omitempty"`
	CreatedAt   int64  `json:"createdAt"`
	LastLoginAt int64  `json:"lastLoginAt"`
}

// Submission is one learner's selection for one question.
type Submission struct {
	QID             string `json:"qid"`
	SelectedIndices []int  `json:"selectedIndices"`
}

// QuestionVerdict is the per-question correctness outcome of scoring.
type QuestionVerdict struct {
	QID     string `json:"qid"`
	Correct bool   `json:"correct"`
}

// ScoreResult aggregates a scored attempt. PerQuestion follows quiz order and
// contains every quiz question exactly once.
type ScoreResult struct {
	Score       int               `json:"score"`
	Total       int               `json:"total"`
	PerQuestion []QuestionVerdict `json:"perQuestion"`
}

// AttemptResult pairs a persisted attempt with its verdicts, as published to
// live result subscribers.
type AttemptResult struct {
	Attempt Attempt           `json:"attempt"`
	Verdict []QuestionVerdict `json:"perQuestion"`
}
