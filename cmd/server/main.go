package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"assessment-backend/internal/config"
	"assessment-backend/internal/database"
	"assessment-backend/internal/handlers"
	"assessment-backend/internal/logger"
	"assessment-backend/internal/metrics"
	"assessment-backend/internal/middleware"
	"assessment-backend/internal/repository"
	"assessment-backend/internal/router"
	"assessment-backend/internal/services"
	"assessment-backend/internal/websocket"
	"assessment-backend/migrations"
)

func main() {
	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", "error", err)
	}
	log.Info("starting assessment backend", "env", cfg.Env, "provider", cfg.GenerationProvider)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("postgres connection failed", "error", err)
	}
	defer pool.Close()
	log.Info("postgres connected")

	// ──── Step 3: Initialize Redis Clients ────
	redisClients, err := database.NewRedisClients(cfg.RedisURL)
	if err != nil {
		log.Fatal("redis connection failed", "error", err)
	}
	defer redisClients.Close()
	log.Info("redis connected")

	// ──── Step 4: Run Database Migrations ────
	if err := database.RunMigrations(pool, migrations.FS, log); err != nil {
		log.Fatal("database migration failed", "error", err)
	}

	metrics.Init()

	// ──── Step 5: Initialize Generation Client ────
	generator, closeGenerator, err := newGenerator(ctx, cfg, log)
	if err != nil {
		log.Fatal("generation client initialization failed", "error", err)
	}
	defer closeGenerator()

	// ──── Initialize Repositories ────
	store := repository.NewStore(pool)
	documentRepo := repository.NewDocumentRepo(pool)
	questionRepo := repository.NewQuestionRepo(pool)
	progressRepo := repository.NewProgressRepo(pool)
	historyRepo := repository.NewHistoryRepo(pool)
	studiedRepo := repository.NewStudiedRepo(pool)
	interactionRepo := repository.NewInteractionRepo(pool)

	// ──── Initialize Services ────
	content := services.NewDocumentContentSource(documentRepo, cfg.ContentFetchTimeout, cfg.ContentMaxBytes)
	locker := services.NewRedisLocker(redisClients.Commands, cfg.GenerationLockTTL, cfg.GenerationLockWait, log)
	notifier := services.NewRedisNotifier(redisClients.Commands, log)

	quizService := services.NewQuizService(documentRepo, questionRepo, store, content, generator, locker, notifier, log)
	submissionService := services.NewSubmissionService(documentRepo, questionRepo, store, content, generator, notifier, log)
	progressService := services.NewProgressService(progressRepo, historyRepo, studiedRepo, documentRepo, log)
	chatService := services.NewChatService(content, generator, interactionRepo, log)

	// ──── Step 6: Start WebSocket Hub ────
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)
	wsHub := websocket.NewHub(redisClients.PubSub, jwtAuth, log)
	defer wsHub.Close()

	// ──── Step 7: Start HTTP Server ────
	r := router.New(ctx, jwtAuth, router.Handlers{
		Quiz:       handlers.NewQuizHandler(quizService),
		Submission: handlers.NewSubmissionHandler(submissionService),
		Chat:       handlers.NewChatHandler(chatService),
		Progress:   handlers.NewProgressHandler(progressService),
		WebSocket:  wsHub.HandleWebSocket,
	}, router.Options{
		FrontendURL:    cfg.FrontendURL,
		AIRateLimitMin: cfg.AIRateLimitPerMin,
		Log:            log,
	})

	// Long enough for every upstream attempt plus backoff.
	writeTimeout := time.Duration(cfg.UpstreamMaxAttempts)*(cfg.UpstreamTimeout+cfg.UpstreamMaxBackoff) + 30*time.Second

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: writeTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		<-ctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Warn("graceful shutdown failed", "error", err)
		}
	}()

	log.Info("assessment backend ready", "addr", server.Addr, "api", "/api/v1", "ws", "/api/v1/ws")

	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("server error", "error", err)
	}
}

// newGenerator builds the configured provider client wrapped in retries.
func newGenerator(ctx context.Context, cfg *config.Config, log *logger.Logger) (services.TextGenerator, func(), error) {
	retry := services.DefaultRetryConfig()
	retry.MaxAttempts = cfg.UpstreamMaxAttempts
	retry.AttemptTimeout = cfg.UpstreamTimeout
	retry.InitialWait = cfg.UpstreamInitialBackoff
	retry.MaxWait = cfg.UpstreamMaxBackoff

	switch cfg.GenerationProvider {
	case "openai":
		client, err := services.NewOpenAIClient(services.OpenAIConfig{
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.OpenAIModel,
		})
		if err != nil {
			return nil, nil, err
		}
		log.Info("openai-compatible client initialized", "model", cfg.OpenAIModel)
		return services.WithRetry(client, "openai", retry, log), func() {}, nil

	default:
		client, err := services.NewGeminiClient(ctx, services.GeminiConfig{
			APIKey:         cfg.GeminiAPIKey,
			Model:          cfg.GeminiModel,
			BaseURL:        cfg.GeminiBaseURL,
			ConcurrentReqs: cfg.GeminiConcurrentReqs,
		})
		if err != nil {
			return nil, nil, err
		}
		log.Info("gemini client initialized", "model", cfg.GeminiModel)
		return services.WithRetry(client, "gemini", retry, log), func() { client.Close() }, nil
	}
}
