package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dmitrymomot/entitlements/pkg/usage"
)

// Storage is an opened usage store plus the resources backing it.
type Storage struct {
	Backend     Backend
	Store       usage.Store
	Healthcheck func(context.Context) error

	closeFn func()
}

// Close releases the backend connection. It is safe to call more than once.
func (s *Storage) Close() {
	if s.closeFn != nil {
		s.closeFn()
		s.closeFn = nil
	}
}

// Open connects the configured backend and returns a ready usage store.
// Postgres migrations run first when AutoMigrate is set.
func Open(ctx context.Context, cfg Config, log *slog.Logger) (*Storage, error) {
	if log == nil {
		log = slog.Default()
	}

	switch cfg.Backend {
	case BackendMemory, "":
		return &Storage{
			Backend:     BackendMemory,
			Store:       usage.NewMemoryStore(),
			Healthcheck: func(context.Context) error { return nil },
		}, nil

	case BackendRedis:
		client, err := ConnectRedis(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		opts := []usage.RedisStoreOption{usage.WithKeyPrefix(cfg.Redis.KeyPrefix)}
		if cfg.Redis.KeyTTL > 0 {
			opts = append(opts, usage.WithKeyTTL(cfg.Redis.KeyTTL))
		}
		return &Storage{
			Backend:     BackendRedis,
			Store:       usage.NewRedisStore(client, opts...),
			Healthcheck: RedisHealthcheck(client),
			closeFn: func() {
				if err := client.Close(); err != nil {
					log.Error("failed to close redis client", "error", err)
				}
			},
		}, nil

	case BackendPostgres:
		pool, err := ConnectPostgres(ctx, cfg.Postgres)
		if err != nil {
			return nil, err
		}
		if cfg.Postgres.AutoMigrate {
			if err := Migrate(ctx, pool, cfg.Postgres, log); err != nil {
				pool.Close()
				return nil, err
			}
		}
		return &Storage{
			Backend:     BackendPostgres,
			Store:       usage.NewPostgresStore(pool),
			Healthcheck: PostgresHealthcheck(pool),
			closeFn:     pool.Close,
		}, nil
	}

	return nil, errors.Join(ErrUnknownBackend, fmt.Errorf("backend %q", cfg.Backend))
}
