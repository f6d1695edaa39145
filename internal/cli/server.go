package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"quizlab-service/internal/app"
	"quizlab-service/internal/auth"
	"quizlab-service/internal/config"
	"quizlab-service/internal/domain"
	"quizlab-service/internal/infra/memory"
	pgstore "quizlab-service/internal/infra/postgres"
	redisinfra "quizlab-service/internal/infra/redis"
	transport "quizlab-service/internal/transport/http"
)

// NewServeCmd builds the CLI subcommand to start the server.
func NewServeCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	store, sessions, cleanup, err := buildStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	service, feed := buildService(store, cfg)
	defaultRole := func(email string) domain.Role {
		return auth.DefaultRole(cfg.Auth.AdminEmails, cfg.Auth.CreatorEmails, email)
	}
	api := transport.NewAPI(service, sessions, feed, defaultRole)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      api.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quizlab on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// buildStores picks the document store backend (postgres, then redis, then
// in-memory) and the session store (redis when available, else in-memory).
func buildStores(ctx context.Context, cfg config.Config) (app.DocumentStore, auth.SessionStore, func(), error) {
	sessionTTL := config.TTLDuration(cfg.Auth.SessionTTL, 24*time.Hour)

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var sessions auth.SessionStore
	if redisClient != nil {
		sessions = redisinfra.NewSessionStore(redisClient, sessionTTL)
	} else {
		sessions = memory.NewSessionStore(sessionTTL)
	}

	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, nil, nil, err
		}
		cleanup := func() {
			pool.Close()
			if redisClient != nil {
				_ = redisClient.Close()
			}
		}
		return pgstore.NewStore(pool), sessions, cleanup, nil
	}

	if redisClient != nil {
		return redisinfra.NewStore(redisClient), sessions, func() { _ = redisClient.Close() }, nil
	}
	log.Println("no store configured, using in-memory documents (data is lost on restart)")
	return memory.NewStore(), sessions, func() {}, nil
}

func buildService(store app.DocumentStore, cfg config.Config) (*app.QuizService, *app.ResultsFeed) {
	quizzes := app.NewQuizRepository(store)
	users := app.NewUserRepository(store)
	feed := app.NewResultsFeed()

	cacheTTL := config.TTLDuration(cfg.Quiz.CacheTTL, 5*time.Minute)
	cache := memory.NewQuizCache(quizzes, cacheTTL)
	scorer := app.NewAttemptScorer(cache, store, feed)

	service := app.NewQuizService(quizzes, users, scorer)
	service.SetCacheInvalidator(cache.Invalidate)
	return service, feed
}
