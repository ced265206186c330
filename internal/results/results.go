// Package results enforces the structural invariants of race results:
// one result per team per race, unique positions among non-DSQ results,
// and results only for finished races the team entered.
package results

import (
	"context"
	"errors"
	"fmt"

	"championship-engine/internal/domain"
	"championship-engine/internal/storage"
)

// CreateInput holds the fields of a new result.
type CreateInput struct {
	RaceID        string  `json:"race_id"`
	TeamID        string  `json:"team_id"`
	DriverID      *string `json:"driver_id,omitempty"`
	Position      int     `json:"position"`
	Points        float64 `json:"points"`
	LapsCompleted *int    `json:"laps_completed,omitempty"`
	FastestLap    bool    `json:"fastest_lap"`
	DNF           bool    `json:"dnf"`
	DSQ           bool    `json:"dsq"`
	Notes         *string `json:"notes,omitempty"`
}

// UpdateInput holds a partial update. Nil fields are left unchanged.
type UpdateInput struct {
	DriverID      *string  `json:"driver_id,omitempty"`
	Position      *int     `json:"position,omitempty"`
	Points        *float64 `json:"points,omitempty"`
	LapsCompleted *int     `json:"laps_completed,omitempty"`
	FastestLap    *bool    `json:"fastest_lap,omitempty"`
	DNF           *bool    `json:"dnf,omitempty"`
	DSQ           *bool    `json:"dsq,omitempty"`
	Notes         *string  `json:"notes,omitempty"`
}

// Service mutates results through stores bound to one transaction.
type Service struct {
	races     storage.RaceStore
	teams     storage.TeamStore
	drivers   storage.DriverStore
	results   storage.ResultStore
	penalties storage.PenaltyStore
}

// New creates a Service over s.
func New(s *storage.Stores) *Service {
	return &Service{
		races:     s.Races,
		teams:     s.Teams,
		drivers:   s.Drivers,
		results:   s.Results,
		penalties: s.Penalties,
	}
}

// Create validates in and inserts a new result.
func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.RaceResult, error) {
	if err := validateNumbers(in.Position, in.Points, in.LapsCompleted); err != nil {
		return nil, err
	}

	race, err := s.race(ctx, in.RaceID)
	if err != nil {
		return nil, err
	}
	if !race.IsFinished() {
		return nil, domain.Conflictf("race %s is %s, results require a finished race", race.ID, race.Status)
	}

	if _, err := s.teams.GetByID(ctx, in.TeamID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, domain.NotFoundf("team %s", in.TeamID)
		}
		return nil, fmt.Errorf("load team: %w", err)
	}
	enrolled, err := s.races.IsEnrolled(ctx, race.ID, in.TeamID)
	if err != nil {
		return nil, fmt.Errorf("check enrollment: %w", err)
	}
	if !enrolled {
		return nil, domain.Conflictf("team %s is not enrolled in race %s", in.TeamID, race.ID)
	}

	if in.DriverID != nil {
		if err := s.checkDriver(ctx, *in.DriverID, in.TeamID); err != nil {
			return nil, err
		}
	}

	if _, err := s.results.GetByRaceAndTeam(ctx, race.ID, in.TeamID); err == nil {
		return nil, domain.Conflictf("result for team %s in race %s already exists", in.TeamID, race.ID)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("check existing result: %w", err)
	}

	if !in.DSQ {
		if err := s.checkPosition(ctx, race.ID, in.Position, ""); err != nil {
			return nil, err
		}
	}

	r := &domain.RaceResult{
		RaceID:        race.ID,
		TeamID:        in.TeamID,
		DriverID:      in.DriverID,
		Position:      in.Position,
		Points:        in.Points,
		LapsCompleted: in.LapsCompleted,
		FastestLap:    in.FastestLap,
		DNF:           in.DNF,
		DSQ:           in.DSQ,
		Notes:         in.Notes,
	}
	if err := s.results.Insert(ctx, r); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			return nil, domain.Conflictf("result for team %s in race %s already exists", in.TeamID, race.ID)
		}
		return nil, fmt.Errorf("insert result: %w", err)
	}
	return r, nil
}

// Update applies the non-nil fields of in to result id.
//
// The position check runs only when position or dsq is supplied and the
// resulting dsq flag is false. Clearing dsq is rejected while an active
// disqualification still references the result. An empty driver id
// detaches the driver.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*domain.RaceResult, error) {
	r, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.DriverID != nil {
		if *in.DriverID == "" {
			r.DriverID = nil
		} else {
			if err := s.checkDriver(ctx, *in.DriverID, r.TeamID); err != nil {
				return nil, err
			}
			r.DriverID = in.DriverID
		}
	}
	if in.Position != nil {
		r.Position = *in.Position
	}
	if in.Points != nil {
		r.Points = *in.Points
	}
	if in.LapsCompleted != nil {
		r.LapsCompleted = in.LapsCompleted
	}
	if in.FastestLap != nil {
		r.FastestLap = *in.FastestLap
	}
	if in.DNF != nil {
		r.DNF = *in.DNF
	}
	if in.DSQ != nil {
		r.DSQ = *in.DSQ
	}
	if in.Notes != nil {
		r.Notes = in.Notes
	}

	if err := validateNumbers(r.Position, r.Points, r.LapsCompleted); err != nil {
		return nil, err
	}
	if in.DSQ != nil && !r.DSQ {
		if err := s.checkNoActiveDSQ(ctx, r.ID); err != nil {
			return nil, err
		}
	}
	if (in.Position != nil || in.DSQ != nil) && !r.DSQ {
		if err := s.checkPosition(ctx, r.RaceID, r.Position, r.ID); err != nil {
			return nil, err
		}
	}

	if err := s.results.Update(ctx, r); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, domain.NotFoundf("result %s", id)
		}
		return nil, fmt.Errorf("update result: %w", err)
	}
	return r, nil
}

// Delete removes result id. Penalties pointing at it are detached.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.results.Delete(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.NotFoundf("result %s", id)
		}
		return fmt.Errorf("delete result: %w", err)
	}
	return nil
}

// Get returns result id.
func (s *Service) Get(ctx context.Context, id string) (*domain.RaceResult, error) {
	r, err := s.results.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, domain.NotFoundf("result %s", id)
		}
		return nil, fmt.Errorf("load result: %w", err)
	}
	return r, nil
}

// ListByRace returns the results of a race ordered by position.
func (s *Service) ListByRace(ctx context.Context, raceID string) ([]*domain.RaceResult, error) {
	if _, err := s.race(ctx, raceID); err != nil {
		return nil, err
	}
	list, err := s.results.GetByRace(ctx, raceID)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	return list, nil
}

func (s *Service) race(ctx context.Context, id string) (*domain.Race, error) {
	race, err := s.races.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, domain.NotFoundf("race %s", id)
		}
		return nil, fmt.Errorf("load race: %w", err)
	}
	return race, nil
}

func (s *Service) checkDriver(ctx context.Context, driverID, teamID string) error {
	d, err := s.drivers.GetByID(ctx, driverID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.NotFoundf("driver %s", driverID)
		}
		return fmt.Errorf("load driver: %w", err)
	}
	if d.TeamID != teamID {
		return domain.Conflictf("driver %s does not drive for team %s", driverID, teamID)
	}
	return nil
}

func (s *Service) checkNoActiveDSQ(ctx context.Context, resultID string) error {
	n, err := s.penalties.CountActiveDisqualifications(ctx, resultID)
	if err != nil {
		return fmt.Errorf("count disqualifications: %w", err)
	}
	if n > 0 {
		return domain.Conflictf("result %s has %d active disqualification(s)", resultID, n)
	}
	return nil
}

func (s *Service) checkPosition(ctx context.Context, raceID string, position int, excludeID string) error {
	taken, err := s.results.PositionTaken(ctx, raceID, position, excludeID)
	if err != nil {
		return fmt.Errorf("check position: %w", err)
	}
	if taken {
		return domain.Conflictf("position %d in race %s is already taken", position, raceID)
	}
	return nil
}

func validateNumbers(position int, points float64, laps *int) error {
	if position < 1 {
		return domain.Validationf("position must be >= 1, got %d", position)
	}
	if points < 0 {
		return domain.Validationf("points must be >= 0, got %v", points)
	}
	if laps != nil && *laps < 0 {
		return domain.Validationf("laps_completed must be >= 0, got %d", *laps)
	}
	return nil
}
