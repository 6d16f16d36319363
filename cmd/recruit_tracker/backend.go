package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jonathan/recruit-tracker/internal/config"
	"github.com/jonathan/recruit-tracker/internal/db"
	"github.com/jonathan/recruit-tracker/internal/events"
	"github.com/jonathan/recruit-tracker/internal/memstore"
	"github.com/jonathan/recruit-tracker/internal/seed"
	"github.com/jonathan/recruit-tracker/internal/tracker"
)

// loadConfig resolves the effective configuration with command-line overrides applied.
func loadConfig() (config.Config, error) {
	getenv := os.Getenv
	if storeFlag != "" || seedFlag != "" {
		getenv = func(key string) string {
			switch {
			case key == "TRACKER_STORE" && storeFlag != "":
				return storeFlag
			case key == "TRACKER_SEED_FILE" && seedFlag != "":
				return seedFlag
			}
			return os.Getenv(key)
		}
	}
	cfg, err := config.Load(configPath, getenv)
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// backend bundles the store and publisher a command runs against.
type backend struct {
	store   tracker.Store
	pub     events.Publisher
	ping    func(context.Context) error
	closers []func()
}

func (b *backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

// openBackend connects the configured store and, when REDIS_URL is set, the
// event publisher. The memory store is seeded from cfg.SeedFile because it
// starts empty on every run.
func openBackend(ctx context.Context, cfg config.Config) (*backend, error) {
	b := &backend{pub: events.Nop{}}

	switch cfg.Store {
	case config.StorePostgres:
		database, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		b.closers = append(b.closers, database.Close)
		if err := database.Migrate(ctx); err != nil {
			b.Close()
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		b.store = database
		b.ping = database.Ping
	default:
		mem := memstore.New()
		b.store = mem
		if cfg.SeedFile != "" {
			if _, err := applySeed(ctx, mem, cfg.SeedFile); err != nil {
				return nil, err
			}
		}
	}

	if cfg.RedisURL != "" {
		rdb, err := events.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		b.closers = append(b.closers, func() { _ = rdb.Close() })
		b.pub = events.NewRedisPublisher(rdb, cfg.EventsChannel)
		log.Printf("[events] publishing to %s:*", cfg.EventsChannel)
	}
	return b, nil
}

func applySeed(ctx context.Context, store tracker.Store, path string) (seed.Summary, error) {
	f, err := seed.LoadFile(path)
	if err != nil {
		return seed.Summary{}, fmt.Errorf("failed to load seed file: %w", err)
	}
	sum, err := seed.Apply(ctx, store, f, time.Now())
	if err != nil {
		return seed.Summary{}, fmt.Errorf("failed to apply seed: %w", err)
	}
	return sum, nil
}

// newService builds the tracker service over b.
func newService(cfg config.Config, b *backend) (*tracker.Service, error) {
	return tracker.New(b.store, b.pub, tracker.Options{
		DefaultPageSize:     cfg.DefaultPageSize,
		ReassignConcurrency: cfg.ReassignConcurrency,
	})
}
