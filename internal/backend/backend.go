// Package backend opens the storage selected by configuration: the
// in-memory database or a PostgreSQL pool, optionally migrated and seeded.
package backend

import (
	"context"
	"fmt"
	"log/slog"

	"championship-engine/internal/config"
	"championship-engine/internal/observability"
	"championship-engine/internal/seed"
	"championship-engine/internal/storage"
	"championship-engine/internal/storage/memory"
	"championship-engine/internal/storage/migrations"
	"championship-engine/internal/storage/postgres"
)

// Backend names.
const (
	Memory   = "memory"
	Postgres = "postgres"
)

// Backend is an opened storage backend.
type Backend struct {
	Name string
	Tx   storage.Transactor

	pool *postgres.Pool
}

// Open connects the backend described by cfg. Close must be called when
// Open succeeds.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Backend, error) {
	if logger == nil {
		logger = observability.Discard()
	}

	b := &Backend{}
	if cfg.UseMemory {
		b.Name = Memory
		b.Tx = observability.InstrumentTransactor(Memory, memory.NewDB())
	} else {
		pool, err := postgres.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		b.Name = Postgres
		b.pool = pool
		b.Tx = observability.InstrumentTransactor(Postgres, postgres.NewTransactor(pool))

		if cfg.Migrate {
			if err := migrations.RunPostgresMigrations(ctx, pool.Pool); err != nil {
				pool.Close()
				return nil, fmt.Errorf("migrate: %w", err)
			}
			version, err := migrations.PostgresVersion(ctx, pool.Pool)
			if err != nil {
				pool.Close()
				return nil, fmt.Errorf("migration version: %w", err)
			}
			logger.Info("migrations_applied", slog.Int64("version", version))
		}
	}
	logger.Info("backend_opened", slog.String("backend", b.Name))

	if cfg.SeedFile != "" {
		f, err := seed.LoadFile(cfg.SeedFile)
		if err == nil {
			_, err = seed.Apply(ctx, b.Tx, f, logger)
		}
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("seed %s: %w", cfg.SeedFile, err)
		}
	}

	return b, nil
}

// Close releases the connection pool, if any.
func (b *Backend) Close() {
	if b.pool != nil {
		b.pool.Close()
	}
}
