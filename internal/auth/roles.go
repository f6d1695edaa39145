package auth

import (
	"strings"

	"quizlab-service/internal/domain"
)

// DefaultRole resolves the role granted at first sign-in from the configured
// admin/creator email lists, falling back to learner. Comparison is
// case-insensitive, matching the store's treatment of emails.
func DefaultRole(adminEmails, creatorEmails []string, email string) domain.Role {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, admin := range adminEmails {
		if strings.ToLower(strings.TrimSpace(admin)) == email {
			return domain.RoleAdmin
		}
	}
	for _, creator := range creatorEmails {
		if strings.ToLower(strings.TrimSpace(creator)) == email {
			return domain.RoleCreator
		}
	}
	return domain.RoleLearner
}
