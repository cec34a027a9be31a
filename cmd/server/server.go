package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"agent-server/services/conversation-sync/internal/config"
	"agent-server/services/conversation-sync/internal/domain/conversation"
	"agent-server/services/conversation-sync/internal/infrastructure/agentclient"
	"agent-server/services/conversation-sync/internal/infrastructure/cache"
	"agent-server/services/conversation-sync/internal/infrastructure/database"
	"agent-server/services/conversation-sync/internal/infrastructure/livestore"
	"agent-server/services/conversation-sync/internal/infrastructure/logger"
	"agent-server/services/conversation-sync/internal/infrastructure/observability"
	"agent-server/services/conversation-sync/internal/infrastructure/statestore"
	"agent-server/services/conversation-sync/internal/interfaces/httpserver"
	"agent-server/services/conversation-sync/internal/worker"
)

type Application struct {
	httpServer *httpserver.HttpServer
	log        zerolog.Logger
}

func NewApplication(httpServer *httpserver.HttpServer, log zerolog.Logger) *Application {
	return &Application{
		httpServer: httpServer,
		log:        log,
	}
}

func (a *Application) Start(ctx context.Context) error {
	return a.httpServer.Run(ctx)
}

func main() {
	loadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observability.Setup(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize observability")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown telemetry")
		}
	}()

	states, err := newStateStore(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize state store")
	}

	live := livestore.New()

	queries, err := cache.NewLRUCache(cfg.ConversationCacheSize)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize conversation cache")
	}

	agentAPI := agentclient.NewClient(cfg.AgentAPIURL, cfg.AgentAPITimeout)
	reader := agentclient.NewCachedReader(agentAPI, queries)

	tracker := worker.NewTracker(
		agentAPI,
		states,
		live,
		queries,
		worker.Config{PollInterval: cfg.PollInterval},
		log,
	)

	if err := tracker.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("start task tracker")
	}
	defer func() {
		log.Info().Msg("stopping task tracker")
		tracker.Stop()
	}()

	httpServer := httpserver.New(cfg, log, tracker, states, reader)
	app := NewApplication(httpServer, log)

	if err := app.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("application stopped with error")
	}

	log.Info().Msg("application exited cleanly")
}

func newStateStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (conversation.StateStore, error) {
	switch cfg.StateBackend {
	case config.StateBackendMemory:
		return statestore.NewMemoryStore(), nil
	case config.StateBackendRedis:
		return statestore.NewRedisStore(cfg.RedisURL, cfg.StateTTL, log)
	case config.StateBackendPostgres:
		db, err := database.Connect(cfg)
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		if err := database.AutoMigrate(ctx, db, log); err != nil {
			return nil, fmt.Errorf("migrate database: %w", err)
		}
		return statestore.NewPostgresStore(db), nil
	default:
		return nil, fmt.Errorf("unknown state store backend %q", cfg.StateBackend)
	}
}

func loadEnvFiles() {
	paths := []string{".env", "../.env"}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Overload(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
}
