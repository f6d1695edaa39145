package cli

import (
	"context"
	"log"

	"github.com/spf13/cobra"

	"quizlab-service/internal/app"
	"quizlab-service/internal/auth"
	"quizlab-service/internal/config"
	"quizlab-service/internal/domain"
)

// NewSeedCmd writes a demo quiz (and the configured admin users) into the
// document store, so a fresh deployment has something to show.
func NewSeedCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seed a demo quiz and the configured admin users",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd.Context(), *configPath)
		},
	}
}

func runSeed(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	store, _, cleanup, err := buildStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	users := app.NewUserRepository(store)
	for _, email := range append(append([]string(nil), cfg.Auth.AdminEmails...), cfg.Auth.CreatorEmails...) {
		role := auth.DefaultRole(cfg.Auth.AdminEmails, cfg.Auth.CreatorEmails, email)
		if _, err := users.Ensure(ctx, email, "", "", role); err != nil {
			return err
		}
		log.Printf("ensured user %s (%s)", email, role)
	}

	quizzes := app.NewQuizRepository(store)
	quiz, err := quizzes.Create(ctx, "AWS Basics (Demo)", "seed")
	if err != nil {
		return err
	}
	questions := []domain.Question{
		{
			QID:           "q1",
			Type:          domain.QuestionSingle,
			Text:          "Which AWS service is NoSQL?",
			Options:       []string{"RDS", "DynamoDB", "Aurora", "Redshift"},
			AnswerIndices: []int{1},
		},
		{
			QID:           "q2",
			Type:          domain.QuestionSingle,
			Text:          "Which region code is Europe (Stockholm)?",
			Options:       []string{"eu-west-1", "eu-central-1", "eu-north-1", "eu-south-1"},
			AnswerIndices: []int{2},
		},
	}
	if err := quizzes.UpdatePartial(ctx, quiz.ID, app.QuizPatch{Questions: &questions}); err != nil {
		return err
	}
	if err := quizzes.SetPublished(ctx, quiz.ID, true); err != nil {
		return err
	}
	log.Printf("seeded quiz %s", quiz.ID)
	return nil
}
