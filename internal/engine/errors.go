package engine

import (
	"context"
	"errors"
	"fmt"

	"championship-engine/internal/domain"
	"championship-engine/internal/storage"
)

// translate maps storage sentinels that escaped the services onto the
// engine taxonomy. Domain errors and context errors pass through.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if domain.KindOf(err) != domain.KindInternal {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	switch {
	case errors.Is(err, storage.ErrDuplicateKey), errors.Is(err, storage.ErrTxConflict):
		return fmt.Errorf("%w: %w", domain.ErrConflict, err)
	case errors.Is(err, storage.ErrNotFound):
		return fmt.Errorf("%w: %w", domain.ErrNotFound, err)
	case errors.Is(err, storage.ErrInvalidInput):
		// A referenced row vanished between the service check and the write.
		return fmt.Errorf("%w: %w", domain.ErrConflict, err)
	}
	return err
}

// status is the metrics label of an operation outcome.
func status(err error) string {
	if err == nil {
		return "ok"
	}
	return string(domain.KindOf(err))
}
