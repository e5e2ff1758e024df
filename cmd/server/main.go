package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/shiksha-ai/shiksha-engine/internal/ai"
	"github.com/shiksha-ai/shiksha-engine/internal/api"
	"github.com/shiksha-ai/shiksha-engine/internal/curriculum"
	"github.com/shiksha-ai/shiksha-engine/internal/learner"
	"github.com/shiksha-ai/shiksha-engine/internal/platform/cache"
	"github.com/shiksha-ai/shiksha-engine/internal/platform/config"
	"github.com/shiksha-ai/shiksha-engine/internal/platform/database"
	"github.com/shiksha-ai/shiksha-engine/internal/quiz"
	"github.com/shiksha-ai/shiksha-engine/internal/report"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	setupLogger(cfg.Log)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	graph, err := curriculum.Load(cfg.CatalogPath)
	if err != nil {
		slog.Error("failed to load catalog", "path", cfg.CatalogPath, "error", err)
		os.Exit(1)
	}

	store, ready, cleanup, err := newStore(ctx, cfg)
	if err != nil {
		slog.Error("failed to open ledger store", "backend", cfg.Store.Backend, "error", err)
		os.Exit(1)
	}
	defer cleanup()

	router := newRouter(cfg)
	composer := quiz.NewComposer(graph, newGenerator(router, cfg.AI.Model), quiz.WithGenTimeout(cfg.AI.GenTimeout))

	srv := &http.Server{
		Addr: fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: api.NewServer(
			graph,
			store,
			learner.NewAccountant(graph),
			learner.NewRecorder(graph),
			composer,
			report.NewExporter(graph),
			router,
			combineReady(ready, routerReady(router)),
		).Mux(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", srv.Addr, "store", cfg.Store.Backend)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// newStore opens the configured ledger backend. The returned ready func is
// wired into /readyz and the cleanup func closes the backing connection.
func newStore(ctx context.Context, cfg *config.Config) (learner.Store, func(ctx context.Context) error, func(), error) {
	switch cfg.Store.Backend {
	case config.StorePostgres:
		db, err := database.New(ctx, cfg.Database.URL, database.PoolConfig{
			MaxConns:     cfg.Database.MaxConns,
			MinConns:     cfg.Database.MinConns,
			ConnLifetime: cfg.Database.ConnLifetime,
			ConnIdleTime: cfg.Database.ConnIdleTime,
		})
		if err != nil {
			return nil, nil, nil, err
		}
		store, err := learner.NewPostgresStore(ctx, db.Pool)
		if err != nil {
			db.Close()
			return nil, nil, nil, err
		}
		return store, db.HealthCheck, db.Close, nil

	case config.StoreRedis:
		c, err := cache.New(ctx, cfg.Cache.URL)
		if err != nil {
			return nil, nil, nil, err
		}
		cleanup := func() {
			if err := c.Close(); err != nil {
				slog.Warn("failed to close cache", "error", err)
			}
		}
		return learner.NewRedisStore(c.Client), c.HealthCheck, cleanup, nil

	default:
		return learner.NewMemoryStore(), nil, func() {}, nil
	}
}

// newRouter wires an AI router from whatever providers are configured.
// Returns nil when none is; quizzes then use static banks only.
func newRouter(cfg *config.Config) *ai.Router {
	if !cfg.HasAIProvider() {
		slog.Info("no AI provider configured, quizzes will use static banks only")
		return nil
	}

	router := ai.NewRouter()
	if cfg.AI.Google.APIKey != "" {
		router.Register("google", ai.NewGoogleProvider(cfg.AI.Google.APIKey))
	}
	if cfg.AI.OpenAI.APIKey != "" {
		router.Register("openai", ai.NewOpenAIProvider(cfg.AI.OpenAI.APIKey))
	}
	if cfg.AI.DeepSeek.APIKey != "" {
		router.Register("deepseek", ai.NewDeepSeekProvider(cfg.AI.DeepSeek.APIKey))
	}
	if cfg.AI.Ollama.Enabled {
		router.Register("ollama", ai.NewOllamaProvider(cfg.AI.Ollama.URL))
	}
	return router
}

func newGenerator(router *ai.Router, model string) quiz.Generator {
	if router == nil {
		return nil
	}
	gen, err := ai.NewQuestionGenerator(router, model)
	if err != nil {
		slog.Error("failed to build question generator", "error", err)
		return nil
	}
	return gen
}

func routerReady(router *ai.Router) func(ctx context.Context) error {
	if router == nil {
		return nil
	}
	return router.HealthCheck
}

// combineReady folds readiness probes into one; nil probes are skipped.
func combineReady(probes ...func(ctx context.Context) error) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		for _, probe := range probes {
			if probe == nil {
				continue
			}
			if err := probe(ctx); err != nil {
				return err
			}
		}
		return nil
	}
}
