package observability

import (
	"context"
	"time"

	"championship-engine/internal/storage"
)

// instrumentedTx records duration and failures of every transaction.
type instrumentedTx struct {
	backend string
	next    storage.Transactor
}

// InstrumentTransactor wraps next so each WithinTx call is measured
// under the given backend label.
func InstrumentTransactor(backend string, next storage.Transactor) storage.Transactor {
	return &instrumentedTx{backend: backend, next: next}
}

func (t *instrumentedTx) WithinTx(ctx context.Context, fn func(ctx context.Context, s *storage.Stores) error) error {
	start := time.Now()
	err := t.next.WithinTx(ctx, fn)
	RecordTx(t.backend, time.Since(start).Seconds(), err)
	return err
}
