package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/KirkDiggler/dm-table/internal/clients/dnd5e"
	"github.com/KirkDiggler/dm-table/internal/config"
	"github.com/KirkDiggler/dm-table/internal/events"
	"github.com/KirkDiggler/dm-table/internal/handlers/api"
	"github.com/KirkDiggler/dm-table/internal/repositories/gamestate"
	"github.com/KirkDiggler/dm-table/internal/repositories/gamestate/sqlite"
	"github.com/KirkDiggler/dm-table/internal/services/combat"
	"github.com/KirkDiggler/dm-table/internal/services/session"
	"github.com/KirkDiggler/dm-table/internal/telemetry"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	} else {
		log.Println("Loaded .env file")
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := run(cfg); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("setup telemetry: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.Printf("Failed to flush traces: %v", err)
		}
	}()

	// Keep Redis client for cleanup
	var redisClient *redis.Client
	if cfg.Store.Driver == config.StoreRedis || cfg.Redis.URL != "" {
		redisClient, err = connectRedis(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Printf("Failed to close Redis connection: %v", err)
			}
		}()
	}

	repo, closeStore, err := openStore(cfg, redisClient)
	if err != nil {
		return err
	}
	defer closeStore()

	bus := events.NewBus()
	if redisClient != nil {
		publisher := events.NewRedisPublisher(redisClient, cfg.Redis.Channel)
		bus.SubscribeAll(events.CombatEventTypes, publisher)
		bus.SubscribeAll([]events.EventType{events.EventTypeSessionPaused, events.EventTypeSessionResumed}, publisher)
		log.Printf("Publishing table events to Redis channel %s", cfg.Redis.Channel)
	}

	var monsterClient dnd5e.Client
	if cfg.DND5E.Enabled {
		monsterClient, err = dnd5e.New(&dnd5e.Config{
			HttpClient: &http.Client{
				Timeout: cfg.DND5E.Timeout,
			},
		})
		if err != nil {
			return fmt.Errorf("create D&D 5e client: %w", err)
		}
	}

	combatService := combat.NewService(&combat.ServiceConfig{
		Repository:         repo,
		Publisher:          bus,
		MonsterClient:      monsterClient,
		MaxConflictRetries: cfg.Combat.MaxConflictRetries,
	})
	sessionService := session.NewService(&session.ServiceConfig{
		Repository: repo,
		Publisher:  bus,
	})

	handler := api.NewHandler(&api.HandlerConfig{
		CombatService:  combatService,
		SessionService: sessionService,
	})

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           api.NewRouter(handler, cfg.HTTP.GinMode),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("dm-table listening on %s (store: %s)", cfg.HTTP.Addr, cfg.Store.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	fmt.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}

	return nil
}

func connectRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	opts := &redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
	if cfg.URL != "" {
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		opts = parsed
	}

	log.Printf("Connecting to Redis at: %s", opts.Addr)
	client := redis.NewClient(opts)

	// Test connection
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to Redis: %w", err)
	}

	log.Println("Successfully connected to Redis")
	return client, nil
}

func openStore(cfg *config.Config, redisClient *redis.Client) (gamestate.Repository, func(), error) {
	noop := func() {}

	switch cfg.Store.Driver {
	case config.StoreRedis:
		log.Println("Using Redis for persistence")
		return gamestate.NewRedis(redisClient, cfg.Store.SessionTTL), noop, nil
	case config.StoreSQLite:
		store, err := sqlite.Open(cfg.SQLite.Path)
		if err != nil {
			return nil, noop, fmt.Errorf("open sqlite store: %w", err)
		}
		log.Printf("Using SQLite at %s for persistence", cfg.SQLite.Path)
		return store, func() {
			if err := store.Close(); err != nil {
				log.Printf("Failed to close SQLite store: %v", err)
			}
		}, nil
	default:
		log.Println("Using in-memory persistence, state is lost on restart")
		return gamestate.NewInMemoryRepository(), noop, nil
	}
}
