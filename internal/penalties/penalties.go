// Package penalties manages the penalty lifecycle and keeps the dsq flag
// of linked results in step with every write.
package penalties

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"championship-engine/internal/domain"
	"championship-engine/internal/dsq"
	"championship-engine/internal/storage"
)

// CreateInput holds the fields of a new penalty.
type CreateInput struct {
	RaceID             string  `json:"race_id"`
	TeamID             string  `json:"team_id"`
	DriverID           *string `json:"driver_id,omitempty"`
	ResultID           *string `json:"result_id,omitempty"`
	PenaltyType        string  `json:"penalty_type"`
	Reason             string  `json:"reason"`
	PointsDeducted     float64 `json:"points_deducted"`
	TimePenaltySeconds *int    `json:"time_penalty_seconds,omitempty"`
	LapNumber          *int    `json:"lap_number,omitempty"`
	IsActive           *bool   `json:"is_active,omitempty"` // defaults to true
}

// UpdateInput holds a partial update. Nil fields are left unchanged.
// ResultID set to the empty string detaches the penalty from its result.
type UpdateInput struct {
	DriverID           *string  `json:"driver_id,omitempty"`
	ResultID           *string  `json:"result_id,omitempty"`
	PenaltyType        *string  `json:"penalty_type,omitempty"`
	Reason             *string  `json:"reason,omitempty"`
	PointsDeducted     *float64 `json:"points_deducted,omitempty"`
	TimePenaltySeconds *int     `json:"time_penalty_seconds,omitempty"`
	LapNumber          *int     `json:"lap_number,omitempty"`
	IsActive           *bool    `json:"is_active,omitempty"`
}

// Service mutates penalties through stores bound to one transaction.
type Service struct {
	races     storage.RaceStore
	teams     storage.TeamStore
	drivers   storage.DriverStore
	results   storage.ResultStore
	penalties storage.PenaltyStore
	sync      *dsq.Synchronizer
}

// New creates a Service over s. opts configure the DSQ synchronizer.
func New(s *storage.Stores, opts ...dsq.Option) *Service {
	return &Service{
		races:     s.Races,
		teams:     s.Teams,
		drivers:   s.Drivers,
		results:   s.Results,
		penalties: s.Penalties,
		sync:      dsq.NewSynchronizer(s.Results, s.Penalties, opts...),
	}
}

// Create validates in, inserts the penalty and syncs the linked result.
func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.Penalty, error) {
	typ, err := domain.ParsePenaltyType(in.PenaltyType)
	if err != nil {
		return nil, err
	}
	p := &domain.Penalty{
		RaceID:             in.RaceID,
		TeamID:             in.TeamID,
		DriverID:           in.DriverID,
		ResultID:           in.ResultID,
		Type:               typ,
		Reason:             in.Reason,
		PointsDeducted:     in.PointsDeducted,
		TimePenaltySeconds: in.TimePenaltySeconds,
		LapNumber:          in.LapNumber,
		IsActive:           in.IsActive == nil || *in.IsActive,
	}
	if err := validate(p); err != nil {
		return nil, err
	}

	if _, err := s.races.GetByID(ctx, p.RaceID); err != nil {
		return nil, notFound(err, "race", p.RaceID)
	}
	if _, err := s.teams.GetByID(ctx, p.TeamID); err != nil {
		return nil, notFound(err, "team", p.TeamID)
	}
	if p.DriverID != nil {
		if _, err := s.drivers.GetByID(ctx, *p.DriverID); err != nil {
			return nil, notFound(err, "driver", *p.DriverID)
		}
	}
	if p.ResultID != nil {
		if err := s.checkResult(ctx, *p.ResultID, p.RaceID); err != nil {
			return nil, err
		}
	}

	if err := s.penalties.Insert(ctx, p); err != nil {
		return nil, fmt.Errorf("insert penalty: %w", err)
	}
	if _, err := s.sync.Apply(ctx, dsq.PlanCreate(dsq.SnapshotOf(p))); err != nil {
		return nil, err
	}
	return p, nil
}

// Update applies the non-nil fields of in to penalty id and syncs the
// results linked before and after the change. An empty driver or result
// id detaches it.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*domain.Penalty, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	before := dsq.SnapshotOf(p)

	if in.PenaltyType != nil {
		typ, err := domain.ParsePenaltyType(*in.PenaltyType)
		if err != nil {
			return nil, err
		}
		p.Type = typ
	}
	if in.Reason != nil {
		p.Reason = *in.Reason
	}
	if in.PointsDeducted != nil {
		p.PointsDeducted = *in.PointsDeducted
	}
	if in.TimePenaltySeconds != nil {
		p.TimePenaltySeconds = in.TimePenaltySeconds
	}
	if in.LapNumber != nil {
		p.LapNumber = in.LapNumber
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
	if err := validate(p); err != nil {
		return nil, err
	}

	if in.DriverID != nil {
		if *in.DriverID == "" {
			p.DriverID = nil
		} else {
			if _, err := s.drivers.GetByID(ctx, *in.DriverID); err != nil {
				return nil, notFound(err, "driver", *in.DriverID)
			}
			p.DriverID = in.DriverID
		}
	}
	if in.ResultID != nil {
		if *in.ResultID == "" {
			p.ResultID = nil
		} else {
			if err := s.checkResult(ctx, *in.ResultID, p.RaceID); err != nil {
				return nil, err
			}
			p.ResultID = in.ResultID
		}
	}

	if err := s.penalties.Update(ctx, p); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, domain.NotFoundf("penalty %s", id)
		}
		return nil, fmt.Errorf("update penalty: %w", err)
	}
	if _, err := s.sync.Apply(ctx, dsq.Plan(before, dsq.SnapshotOf(p))); err != nil {
		return nil, err
	}
	return p, nil
}

// Delete removes penalty id. The linked result is re-synced after the
// row is gone so it no longer counts as an active disqualification.
func (s *Service) Delete(ctx context.Context, id string) error {
	p, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	before := dsq.SnapshotOf(p)

	if err := s.penalties.Delete(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.NotFoundf("penalty %s", id)
		}
		return fmt.Errorf("delete penalty: %w", err)
	}
	if _, err := s.sync.Apply(ctx, dsq.PlanDelete(before)); err != nil {
		return err
	}
	return nil
}

// Get returns penalty id.
func (s *Service) Get(ctx context.Context, id string) (*domain.Penalty, error) {
	p, err := s.penalties.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "penalty", id)
	}
	return p, nil
}

// ListByRace returns the penalties of a race in creation order.
func (s *Service) ListByRace(ctx context.Context, raceID string) ([]*domain.Penalty, error) {
	if _, err := s.races.GetByID(ctx, raceID); err != nil {
		return nil, notFound(err, "race", raceID)
	}
	list, err := s.penalties.GetByRace(ctx, raceID)
	if err != nil {
		return nil, fmt.Errorf("list penalties: %w", err)
	}
	return list, nil
}

func (s *Service) checkResult(ctx context.Context, resultID, raceID string) error {
	r, err := s.results.GetByID(ctx, resultID)
	if err != nil {
		return notFound(err, "result", resultID)
	}
	if r.RaceID != raceID {
		return domain.Conflictf("result %s belongs to race %s, not %s", resultID, r.RaceID, raceID)
	}
	return nil
}

func validate(p *domain.Penalty) error {
	if strings.TrimSpace(p.Reason) == "" {
		return domain.Validationf("reason must not be blank")
	}
	if p.PointsDeducted < 0 {
		return domain.Validationf("points_deducted must be >= 0, got %v", p.PointsDeducted)
	}
	if p.TimePenaltySeconds != nil && *p.TimePenaltySeconds < 0 {
		return domain.Validationf("time_penalty_seconds must be >= 0, got %d", *p.TimePenaltySeconds)
	}
	if p.LapNumber != nil && *p.LapNumber < 0 {
		return domain.Validationf("lap_number must be >= 0, got %d", *p.LapNumber)
	}
	return nil
}

func notFound(err error, kind, id string) error {
	if errors.Is(err, storage.ErrNotFound) {
		return domain.NotFoundf("%s %s", kind, id)
	}
	return fmt.Errorf("load %s: %w", kind, err)
}
