package dsq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"championship-engine/internal/storage"
)

// Outcome reports what a sync did to a result.
type Outcome string

const (
	OutcomeSet      Outcome = "set"
	OutcomeCleared  Outcome = "cleared"
	OutcomeRetained Outcome = "retained" // another active disqualification remains
	OutcomeSkipped  Outcome = "skipped"  // result no longer exists
)

// Synchronizer writes dsq flags from the penalties table. It must run on
// stores bound to the same transaction as the penalty write.
type Synchronizer struct {
	results   storage.ResultStore
	penalties storage.PenaltyStore
	logger    *slog.Logger
	observe   func(Outcome)
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithLogger sets the logger used for per-result sync events.
func WithLogger(l *slog.Logger) Option {
	return func(s *Synchronizer) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithObserver registers a callback invoked with every outcome.
func WithObserver(fn func(Outcome)) Option {
	return func(s *Synchronizer) {
		if fn != nil {
			s.observe = fn
		}
	}
}

// NewSynchronizer creates a Synchronizer over the given stores.
func NewSynchronizer(results storage.ResultStore, penalties storage.PenaltyStore, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		results:   results,
		penalties: penalties,
		logger:    slog.New(slog.DiscardHandler),
		observe:   func(Outcome) {},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sync applies one directive to resultID. Set writes dsq=true. Clear
// writes dsq=false only when no active disqualification references the
// result any more. A missing result is skipped.
func (s *Synchronizer) Sync(ctx context.Context, resultID string, d Directive) (Outcome, error) {
	if _, err := s.results.GetByID(ctx, resultID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return s.done(resultID, d, OutcomeSkipped), nil
		}
		return "", fmt.Errorf("load result %s: %w", resultID, err)
	}

	switch d {
	case Set:
		if err := s.results.SetDSQ(ctx, resultID, true); err != nil {
			return "", fmt.Errorf("set dsq on %s: %w", resultID, err)
		}
		return s.done(resultID, d, OutcomeSet), nil

	case Clear:
		remaining, err := s.penalties.CountActiveDisqualifications(ctx, resultID)
		if err != nil {
			return "", fmt.Errorf("count disqualifications of %s: %w", resultID, err)
		}
		if remaining > 0 {
			return s.done(resultID, d, OutcomeRetained), nil
		}
		if err := s.results.SetDSQ(ctx, resultID, false); err != nil {
			return "", fmt.Errorf("clear dsq on %s: %w", resultID, err)
		}
		return s.done(resultID, d, OutcomeCleared), nil
	}

	return "", fmt.Errorf("unknown dsq directive %d", d)
}

// Apply runs actions in order and stops at the first error.
func (s *Synchronizer) Apply(ctx context.Context, actions []Action) ([]Outcome, error) {
	outcomes := make([]Outcome, 0, len(actions))
	for _, a := range actions {
		o, err := s.Sync(ctx, a.ResultID, a.Directive)
		if err != nil {
			return outcomes, err
		}
		outcomes = append(outcomes, o)
	}
	return outcomes, nil
}

func (s *Synchronizer) done(resultID string, d Directive, o Outcome) Outcome {
	s.logger.Debug("dsq_synced",
		slog.String("result_id", resultID),
		slog.String("directive", d.String()),
		slog.String("outcome", string(o)),
	)
	s.observe(o)
	return o
}
