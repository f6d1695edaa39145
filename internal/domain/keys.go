package domain

import "strings"

// Key prefixes for the single-table document store.
const (
	QuizKeyPrefix    = "QUIZ#"
	AttemptKeyPrefix = "ATTEMPT#"
	UserKeyPrefix    = "USER#"

	// ManifestKey holds the singleton list of known quiz ids.
	ManifestKey = "MANIFEST#QUIZ"
)

func QuizKey(quizID string) string { return QuizKeyPrefix + quizID }

func AttemptKey(attemptID string) string { return AttemptKeyPrefix + attemptID }

// UserKey lowercases the email: the store treats emails case-insensitively.
func UserKey(email string) string {
	return UserKeyPrefix + strings.ToLower(strings.TrimSpace(email))
}

// Manifest is the singleton index document listing all known quiz ids in
// creation order. It is a derived index, not the source of truth.
type Manifest struct {
	Kind    string   `json:"kind"`
	QuizIDs []string `json:"quizIds"`
}

const KindManifest = "MANIFEST"
