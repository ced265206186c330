package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"championship-engine/internal/storage"
)

// Transactor implements storage.Transactor with SERIALIZABLE transactions.
type Transactor struct {
	pool *Pool
}

// NewTransactor creates a new Transactor.
func NewTransactor(pool *Pool) *Transactor {
	return &Transactor{pool: pool}
}

// Compile-time interface check.
var _ storage.Transactor = (*Transactor)(nil)

// WithinTx runs fn inside one SERIALIZABLE transaction. Serialization
// failures surface as storage.ErrTxConflict and are not retried.
func (t *Transactor) WithinTx(ctx context.Context, fn func(ctx context.Context, s *storage.Stores) error) error {
	tx, err := t.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(ctx, newStores(tx)); err != nil {
		if isSerializationError(err) && !errors.Is(err, storage.ErrTxConflict) {
			return fmt.Errorf("%w: %v", storage.ErrTxConflict, err)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		if isSerializationError(err) {
			return fmt.Errorf("%w: %v", storage.ErrTxConflict, err)
		}
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// Stores returns autocommit stores over the pool.
func (p *Pool) Stores() *storage.Stores {
	return newStores(p)
}

func newStores(db querier) *storage.Stores {
	return &storage.Stores{
		Championships: &ChampionshipStore{db: db},
		Teams:         &TeamStore{db: db},
		Drivers:       &DriverStore{db: db},
		Races:         &RaceStore{db: db},
		Results:       &ResultStore{db: db},
		Penalties:     &PenaltyStore{db: db},
	}
}
