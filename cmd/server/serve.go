package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"feynman-backend/internal/config"
	"feynman-backend/internal/database"
	"feynman-backend/internal/handlers"
	"feynman-backend/internal/llm"
	"feynman-backend/internal/logger"
	"feynman-backend/internal/middleware"
	"feynman-backend/internal/repository"
	"feynman-backend/internal/router"
	"feynman-backend/internal/services"
	"feynman-backend/internal/websocket"
	"feynman-backend/internal/worker"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP and WebSocket server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func runServe(cmd *cobra.Command) error {
	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()

	log.Info("Starting Feynman backend", "env", cfg.Env, "storage", cfg.StorageDriver, "ai_provider", cfg.AIProvider)
	ctx := cmd.Context()

	// ──── Storage ────
	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	if cfg.SeedDemoData {
		created, err := repository.Seed(ctx, store)
		if err != nil {
			return fmt.Errorf("failed to seed demo data: %w", err)
		}
		if created {
			log.Info("Demo data seeded", "username", repository.DemoUsername)
		}
	}

	// ──── Redis (optional) ────
	var redisClients *database.RedisClients
	if cfg.RedisURL != "" {
		redisClients, err = database.NewRedisClients(cfg.RedisURL)
		if err != nil {
			return err
		}
		defer redisClients.Close()
		log.Info("Redis connected")
	} else {
		log.Info("REDIS_URL not set; running without queue or cross-instance events")
	}

	// ──── AI ────
	analyzer, responder, closeAI, err := buildAI(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeAI()

	// ──── Realtime ────
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)
	var hub *websocket.Hub
	if redisClients != nil {
		hub = websocket.NewHub(redisClients.PubSub, jwtAuth, log)
	} else {
		hub = websocket.NewHub(nil, jwtAuth, log)
	}

	// ──── Services ────
	var (
		attempts   services.AttemptStore = services.NewMemoryAttemptStore()
		queue      services.ConceptQueue
		workerPool *worker.Pool
	)
	if redisClients != nil {
		attempts = services.NewRedisAttemptStore(redisClients.Queue)
		workerPool = worker.NewPool(redisClients.Queue, nil, hub, cfg.WorkerCount, log)
		queue = workerPool
	}

	progressService := services.NewProgressService(store, hub, log)
	userService := services.NewUserService(store, jwtAuth)
	statsService := services.NewStatsService(store)
	personaService := services.NewPersonaService(store)
	sessionService := services.NewSessionService(store, hub, log)
	chatService := services.NewChatService(store, responder, progressService, log)
	materialService := services.NewMaterialService(store, analyzer, queue, hub, log)
	gapService := services.NewGapService(store, analyzer, hub, log)
	quizService := services.NewQuizService(store, analyzer, attempts, cfg.QuizAdvanceDelay, log)

	if workerPool != nil {
		workerPool.SetProcessor(materialService)
		workerPool.Start()
		log.Info("Worker pool started", "workers", cfg.WorkerCount)
	}

	// ──── HTTP ────
	r := router.New(
		jwtAuth,
		handlers.NewUserHandler(userService, statsService),
		handlers.NewPersonaHandler(personaService),
		handlers.NewSessionHandler(sessionService, progressService),
		handlers.NewChatHandler(chatService),
		handlers.NewMaterialHandler(materialService, cfg.MaxUploadBytes),
		handlers.NewGapHandler(gapService),
		handlers.NewQuizHandler(quizService),
		hub,
		cfg.FrontendURL,
		log,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.AITimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info("Shutting down...")
		if workerPool != nil {
			workerPool.Stop()
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("Server shutdown failed", "error", err)
		}
	}()

	log.Info("Feynman backend ready",
		"api", fmt.Sprintf("http://localhost:%s/api", cfg.Port),
		"ws", fmt.Sprintf("ws://localhost:%s/api/ws", cfg.Port),
	)

	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// buildAI picks the analyzer and responder. Without a configured provider
// both fall back to the local heuristics.
func buildAI(ctx context.Context, cfg *config.Config, log *logger.Logger) (services.ContentAnalyzer, services.Responder, func(), error) {
	provider, err := llm.NewProvider(ctx, llm.Config{
		Provider: cfg.AIProvider,
		OpenAI: llm.OpenAIConfig{
			APIKey:  cfg.OpenAIAPIKey,
			Model:   cfg.OpenAIModel,
			BaseURL: cfg.OpenAIBaseURL,
		},
		Gemini: llm.GeminiConfig{
			APIKey: cfg.GeminiAPIKey,
			Model:  cfg.GeminiModel,
		},
		Anthropic: llm.AnthropicConfig{
			APIKey: cfg.AnthropicAPIKey,
			Model:  cfg.AnthropicModel,
		},
	})
	if errors.Is(err, llm.ErrNotConfigured) {
		log.Info("No AI provider configured; using heuristic analysis")
		return services.NewHeuristicAnalyzer(), services.NewHeuristicResponder(), func() {}, nil
	}
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize AI provider: %w", err)
	}

	closeFn := func() {}
	if c, ok := provider.(io.Closer); ok {
		closeFn = func() { _ = c.Close() }
	}

	gateway := services.NewAIGateway(provider, cfg.AIConcurrentRequests, cfg.AITimeout, log)
	log.Info("AI provider initialized", "model", provider.ModelID())
	return services.NewDelegatedAnalyzer(gateway), gateway, closeFn, nil
}
