package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"quiz-runner/internal/api"
	"quiz-runner/internal/app"
	"quiz-runner/internal/config"
	"quiz-runner/internal/domain"
	"quiz-runner/internal/infra/memory"
	pgbank "quiz-runner/internal/infra/postgres"
	redcache "quiz-runner/internal/infra/redis"
	"quiz-runner/internal/logger"
	transport "quiz-runner/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the gateway.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz runner gateway",
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

	log, err := logger.New(cfg.Env)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	timers := domain.TimerDefaults{
		Standard: cfg.Timer.DefaultSeconds,
		Long:     cfg.Timer.LongSeconds,
	}

	// Question content comes from the remote quiz API when configured, a
	// local Postgres question bank otherwise, or the built-in sample sets.
	var (
		source    app.QuestionSource
		submitter app.ScoreSubmitter
		lister    transport.CategoryLister
	)
	switch {
	case cfg.API.BaseURL != "":
		client := api.NewClient(cfg.API.BaseURL, cfg.API.Token,
			config.TTLDuration(cfg.API.Timeout, 10*time.Second), timers, log)
		source, submitter, lister = client, client, client
		log.Info("using remote quiz api", zap.String("base_url", cfg.API.BaseURL))
	case cfg.Postgres.URL != "":
		if err := runMigrationsWithConfig(ctx, cfg, log); err != nil {
			return err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		bank := pgbank.NewQuestionBank(pool, timers, log)
		source, lister = bank, bank
		log.Info("using postgres question bank")
	default:
		static := memory.NewStaticSource(sampleQuestionSets(timers))
		source, lister = static, static
		log.Info("using built-in sample question sets")
	}

	// Fetched question sets are cached so restarts of a category do not
	// re-hit the backing source.
	cacheTTL := config.TTLDuration(cfg.Quiz.CacheTTL, 10*time.Minute)
	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		source = redcache.NewQuestionCache(redisClient, source, cacheTTL)
	} else {
		source = memory.NewCachingSource(source, cacheTTL)
	}

	wsHandler := transport.NewWSHandler(source, submitter, log)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	mux.HandleFunc("/categories", transport.CategoriesHandler(lister, log))

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info("starting quiz runner gateway", zap.String("port", finalPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("failed to start server", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutting down server...")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleQuestionSets provides minimal quiz content for running without any
// backing source configured.
func sampleQuestionSets(timers domain.TimerDefaults) map[string][]domain.Question {
	return map[string][]domain.Question{
		"general": {
			{
				ID:           "g1",
				Prompt:       "Which planet is known as the Red Planet?",
				Options:      []string{"Venus", "Mars", "Jupiter", "Mercury"},
				CorrectIndex: 1,
				Seconds:      timers.ForQuestion("general", ""),
				Points:       1,
			},
			{
				ID:           "g2",
				Prompt:       "What is the capital of France?",
				Options:      []string{"Lyon", "Marseille", "Paris"},
				CorrectIndex: 2,
				Seconds:      timers.ForQuestion("general", ""),
				Points:       1,
			},
		},
		"math": {
			{
				ID:           "m1",
				Prompt:       "What is 12 × 12?",
				Options:      []string{"124", "144", "154"},
				CorrectIndex: 1,
				Seconds:      timers.ForQuestion("math", ""),
				Points:       1,
			},
		},
	}
}
