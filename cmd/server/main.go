package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/oazco/profiler-backend/internal/assessment"
	"github.com/oazco/profiler-backend/internal/config"
	"github.com/oazco/profiler-backend/internal/database"
	"github.com/oazco/profiler-backend/internal/generation"
	"github.com/oazco/profiler-backend/internal/handler"
	"github.com/oazco/profiler-backend/internal/llm"
	"github.com/oazco/profiler-backend/internal/logger"
	"github.com/oazco/profiler-backend/internal/repository"
	"github.com/oazco/profiler-backend/internal/router"
	"github.com/oazco/profiler-backend/internal/service"
	"github.com/oazco/profiler-backend/internal/validator"
	"github.com/oazco/profiler-backend/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting Profiler Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	sessionRepo := repository.NewSessionRepository(pool)
	itemRepo := repository.NewItemRepository(pool)
	responseRepo := repository.NewResponseRepository(pool)
	snapshotRepo := repository.NewSnapshotRepository(pool)

	// ─── Initialize LLM Provider ──────────────────────────────────────
	// Without an API key the stub provider keeps every flow working:
	// rubric answers grade on length heuristics, generation is disabled
	// upstream by config, and moderation passes everything.
	var (
		textGen   llm.TextGenerator
		rubric    llm.RubricScorer
		embedder  llm.Embedder
		moderator llm.Moderator
	)
	if cfg.OpenAIAPIKey != "" {
		client := llm.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.EmbeddingModel, log)
		textGen = client
		rubric = client
		embedder = client
		moderator = client
	} else {
		log.Warn().Msg("OPENAI_API_KEY not set — using stub LLM provider")
		textGen = llm.Stub{}
		rubric = llm.Stub{}
		embedder = llm.Stub{}
		moderator = llm.Stub{}
	}
	embedder = llm.NewCachedEmbedder(embedder, rdb, cfg.EmbeddingModel, log)

	// ─── Initialize Services ──────────────────────────────────────────
	// The selector and generator draw from this on concurrent request
	// goroutines, so the source must be locked.
	rng := assessment.NewLockedRand(time.Now().UnixNano())

	tokenService := service.NewTokenService(cfg)

	var generator *generation.Generator
	if cfg.GenerationEnabled {
		semanticValidator := generation.NewSemanticValidator(embedder, log)
		generator = generation.NewGenerator(textGen, semanticValidator, cfg.GenerationAttempts, rng, log)
	}

	assessmentService := service.NewAssessmentService(
		cfg, pool, rdb,
		sessionRepo, itemRepo, responseRepo, snapshotRepo,
		tokenService, rubric, moderator, generator, rng, log,
	)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Session:    handler.NewSessionHandler(assessmentService),
		ProgressWS: handler.NewProgressWSHandler(rdb, assessmentService, log, cfg.AllowedOrigins),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	snapshotWorker := worker.NewSnapshotWorker(assessmentService, rdb, log)
	go snapshotWorker.Start(workerCtx)

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(tokenService, handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop background workers and wait for queues to drain.
	workerCancel()
	time.Sleep(2 * time.Second) // Allow workers to drain.

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
