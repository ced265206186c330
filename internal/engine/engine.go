// Package engine is the write/read contract of the championship scoring
// engine. Every call runs in exactly one storage transaction, so a
// penalty write and the dsq updates it implies commit together.
package engine

import (
	"context"
	"log/slog"
	"time"

	"championship-engine/internal/domain"
	"championship-engine/internal/dsq"
	"championship-engine/internal/observability"
	"championship-engine/internal/penalties"
	"championship-engine/internal/query"
	"championship-engine/internal/results"
	"championship-engine/internal/storage"
	"championship-engine/internal/verification"
)

// Engine serves results, penalties and standings over a Transactor.
type Engine struct {
	tx     storage.Transactor
	logger *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// New creates an Engine.
func New(tx storage.Transactor, opts ...Option) *Engine {
	e := &Engine{
		tx:     tx,
		logger: observability.Discard(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With(slog.String("component", "engine"))
	return e
}

// run executes fn in one transaction, translates its error and records
// metrics and a log line for the operation.
func (e *Engine) run(ctx context.Context, op string, write bool, fn func(ctx context.Context, s *storage.Stores) error, attrs ...any) error {
	start := time.Now()
	err := translate(e.tx.WithinTx(ctx, fn))
	elapsed := time.Since(start)

	observability.RecordOperation(op, status(err), elapsed.Seconds())

	attrs = append(attrs, slog.Duration("elapsed", elapsed))
	switch {
	case err == nil && write:
		observability.MarkWrite(time.Now().Unix())
		e.logger.Info(op, attrs...)
	case err == nil:
		e.logger.Debug(op, attrs...)
	case domain.KindOf(err) == domain.KindInternal:
		e.logger.Error(op+"_failed", append(attrs, slog.Any("error", err))...)
	default:
		e.logger.Warn(op+"_rejected", append(attrs, slog.String("kind", string(domain.KindOf(err))), slog.String("error", err.Error()))...)
	}
	return err
}

// penaltyService builds a penalty service whose dsq outcomes are
// collected for recording after commit.
func (e *Engine) penaltyService(s *storage.Stores, outcomes *[]dsq.Outcome) *penalties.Service {
	return penalties.New(s,
		dsq.WithLogger(e.logger),
		dsq.WithObserver(func(o dsq.Outcome) { *outcomes = append(*outcomes, o) }),
	)
}

func recordOutcomes(outcomes []dsq.Outcome) {
	for _, o := range outcomes {
		observability.RecordDSQSync(string(o))
	}
}

// CreateResult records a finishing result.
func (e *Engine) CreateResult(ctx context.Context, in results.CreateInput) (*domain.RaceResult, error) {
	var out *domain.RaceResult
	err := e.run(ctx, "result_created", true, func(ctx context.Context, s *storage.Stores) error {
		var err error
		out, err = results.New(s).Create(ctx, in)
		return err
	}, slog.String("race_id", in.RaceID), slog.String("team_id", in.TeamID))
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateResult applies a partial update to a result.
func (e *Engine) UpdateResult(ctx context.Context, id string, in results.UpdateInput) (*domain.RaceResult, error) {
	var out *domain.RaceResult
	err := e.run(ctx, "result_updated", true, func(ctx context.Context, s *storage.Stores) error {
		var err error
		out, err = results.New(s).Update(ctx, id, in)
		return err
	}, slog.String("result_id", id))
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteResult removes a result and detaches its penalties.
func (e *Engine) DeleteResult(ctx context.Context, id string) error {
	return e.run(ctx, "result_deleted", true, func(ctx context.Context, s *storage.Stores) error {
		return results.New(s).Delete(ctx, id)
	}, slog.String("result_id", id))
}

// GetResult returns one result.
func (e *Engine) GetResult(ctx context.Context, id string) (*domain.RaceResult, error) {
	var out *domain.RaceResult
	err := e.run(ctx, "result_read", false, func(ctx context.Context, s *storage.Stores) error {
		var err error
		out, err = results.New(s).Get(ctx, id)
		return err
	}, slog.String("result_id", id))
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListRaceResults returns the results of a race ordered by position.
func (e *Engine) ListRaceResults(ctx context.Context, raceID string) ([]*domain.RaceResult, error) {
	var out []*domain.RaceResult
	err := e.run(ctx, "race_results_listed", false, func(ctx context.Context, s *storage.Stores) error {
		var err error
		out, err = results.New(s).ListByRace(ctx, raceID)
		return err
	}, slog.String("race_id", raceID))
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CreatePenalty records a penalty and syncs the dsq flag of its result.
func (e *Engine) CreatePenalty(ctx context.Context, in penalties.CreateInput) (*domain.Penalty, error) {
	var out *domain.Penalty
	var outcomes []dsq.Outcome
	err := e.run(ctx, "penalty_created", true, func(ctx context.Context, s *storage.Stores) error {
		outcomes = outcomes[:0]
		var err error
		out, err = e.penaltyService(s, &outcomes).Create(ctx, in)
		return err
	}, slog.String("race_id", in.RaceID), slog.String("penalty_type", in.PenaltyType))
	if err != nil {
		return nil, err
	}
	recordOutcomes(outcomes)
	return out, nil
}

// UpdatePenalty applies a partial update to a penalty and syncs the dsq
// flags of the results it pointed at before and after.
func (e *Engine) UpdatePenalty(ctx context.Context, id string, in penalties.UpdateInput) (*domain.Penalty, error) {
	var out *domain.Penalty
	var outcomes []dsq.Outcome
	err := e.run(ctx, "penalty_updated", true, func(ctx context.Context, s *storage.Stores) error {
		outcomes = outcomes[:0]
		var err error
		out, err = e.penaltyService(s, &outcomes).Update(ctx, id, in)
		return err
	}, slog.String("penalty_id", id))
	if err != nil {
		return nil, err
	}
	recordOutcomes(outcomes)
	return out, nil
}

// DeletePenalty removes a penalty and re-syncs its former result.
func (e *Engine) DeletePenalty(ctx context.Context, id string) error {
	var outcomes []dsq.Outcome
	err := e.run(ctx, "penalty_deleted", true, func(ctx context.Context, s *storage.Stores) error {
		outcomes = outcomes[:0]
		return e.penaltyService(s, &outcomes).Delete(ctx, id)
	}, slog.String("penalty_id", id))
	if err != nil {
		return err
	}
	recordOutcomes(outcomes)
	return nil
}

// GetPenalty returns one penalty.
func (e *Engine) GetPenalty(ctx context.Context, id string) (*domain.Penalty, error) {
	var out *domain.Penalty
	err := e.run(ctx, "penalty_read", false, func(ctx context.Context, s *storage.Stores) error {
		var err error
		out, err = penalties.New(s).Get(ctx, id)
		return err
	}, slog.String("penalty_id", id))
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListRacePenalties returns the penalties of a race in creation order.
func (e *Engine) ListRacePenalties(ctx context.Context, raceID string) ([]*domain.Penalty, error) {
	var out []*domain.Penalty
	err := e.run(ctx, "race_penalties_listed", false, func(ctx context.Context, s *storage.Stores) error {
		var err error
		out, err = penalties.New(s).ListByRace(ctx, raceID)
		return err
	}, slog.String("race_id", raceID))
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetStandings returns the team table of a championship.
func (e *Engine) GetStandings(ctx context.Context, championshipID string) ([]domain.TeamStanding, error) {
	var out []domain.TeamStanding
	err := e.run(ctx, "standings_read", false, func(ctx context.Context, s *storage.Stores) error {
		var err error
		out, err = query.New(s).GetStandings(ctx, championshipID)
		return err
	}, slog.String("championship_id", championshipID))
	if err != nil {
		return nil, err
	}
	observability.RecordStandings("teams", len(out))
	return out, nil
}

// GetDriverStandings returns the driver table of a championship.
func (e *Engine) GetDriverStandings(ctx context.Context, championshipID string) ([]domain.DriverStanding, error) {
	var out []domain.DriverStanding
	err := e.run(ctx, "driver_standings_read", false, func(ctx context.Context, s *storage.Stores) error {
		var err error
		out, err = query.New(s).GetDriverStandings(ctx, championshipID)
		return err
	}, slog.String("championship_id", championshipID))
	if err != nil {
		return nil, err
	}
	observability.RecordStandings("drivers", len(out))
	return out, nil
}

// GetBreakdown returns the per-race ledger of a championship.
func (e *Engine) GetBreakdown(ctx context.Context, championshipID string) (*domain.Breakdown, error) {
	var out *domain.Breakdown
	err := e.run(ctx, "breakdown_read", false, func(ctx context.Context, s *storage.Stores) error {
		var err error
		out, err = query.New(s).GetBreakdown(ctx, championshipID)
		return err
	}, slog.String("championship_id", championshipID))
	if err != nil {
		return nil, err
	}
	observability.RecordStandings("breakdown", len(out.TeamStandings))
	return out, nil
}

// VerifyDSQ audits the dsq flags of a championship's results against
// their active disqualifications. With repair set, divergent results are
// re-synced in the same transaction.
func (e *Engine) VerifyDSQ(ctx context.Context, championshipID string, repair bool) (*verification.Report, error) {
	var out *verification.Report
	var outcomes []dsq.Outcome
	err := e.run(ctx, "dsq_verified", repair, func(ctx context.Context, s *storage.Stores) error {
		outcomes = outcomes[:0]
		v := verification.NewVerifier(s)
		report, err := v.VerifyChampionship(ctx, championshipID)
		if err != nil {
			return err
		}
		if repair {
			if err := v.Repair(ctx, report,
				dsq.WithLogger(e.logger),
				dsq.WithObserver(func(o dsq.Outcome) { outcomes = append(outcomes, o) }),
			); err != nil {
				return err
			}
		}
		out = report
		return nil
	}, slog.String("championship_id", championshipID), slog.Bool("repair", repair))
	if err != nil {
		return nil, err
	}
	recordOutcomes(outcomes)
	if out.DivergentResults > 0 {
		e.logger.Warn("dsq_divergence",
			slog.String("championship_id", championshipID),
			slog.Int("divergent", out.DivergentResults),
			slog.Int("repaired", out.Repaired),
		)
	}
	if len(out.PositionClashes) > 0 {
		e.logger.Warn("dsq_position_clash",
			slog.String("championship_id", championshipID),
			slog.Int("clashes", len(out.PositionClashes)),
		)
	}
	return out, nil
}
