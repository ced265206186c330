// Package seed loads catalog fixtures, results and penalties from YAML
// and applies them through the regular services in one transaction.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"championship-engine/internal/domain"
	"championship-engine/internal/penalties"
	"championship-engine/internal/results"
	"championship-engine/internal/storage"
)

// Fixture is the document layout of a seed file.
type Fixture struct {
	Championships []Championship `yaml:"championships"`
	Teams         []Team         `yaml:"teams"`
	Drivers       []Driver       `yaml:"drivers"`
	Races         []Race         `yaml:"races"`
	Results       []Result       `yaml:"results"`
	Penalties     []Penalty      `yaml:"penalties"`
}

type Championship struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	DisplayName string `yaml:"display_name"`
	SeasonYear  int    `yaml:"season_year"`
	Status      string `yaml:"status"`
}

type Team struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	DisplayName string `yaml:"display_name"`
	Inactive    bool   `yaml:"inactive"`
}

type Driver struct {
	ID           string `yaml:"id"`
	Name         string `yaml:"name"`
	DisplayName  string `yaml:"display_name"`
	Abbreviation string `yaml:"abbreviation"`
	Number       int    `yaml:"number"`
	TeamID       string `yaml:"team_id"`
	Inactive     bool   `yaml:"inactive"`
}

// Race lists the teams entered for it under Teams.
type Race struct {
	ID             string   `yaml:"id"`
	ChampionshipID string   `yaml:"championship_id"`
	Name           string   `yaml:"name"`
	DisplayName    string   `yaml:"display_name"`
	RoundNumber    int      `yaml:"round_number"`
	Status         string   `yaml:"status"`
	Teams          []string `yaml:"teams"`
}

type Result struct {
	RaceID        string  `yaml:"race_id"`
	TeamID        string  `yaml:"team_id"`
	DriverID      *string `yaml:"driver_id"`
	Position      int     `yaml:"position"`
	Points        float64 `yaml:"points"`
	LapsCompleted *int    `yaml:"laps_completed"`
	FastestLap    bool    `yaml:"fastest_lap"`
	DNF           bool    `yaml:"dnf"`
	DSQ           bool    `yaml:"dsq"`
	Notes         *string `yaml:"notes"`
}

// Penalty attaches to the team's result in the race when AttachResult is set.
type Penalty struct {
	RaceID             string  `yaml:"race_id"`
	TeamID             string  `yaml:"team_id"`
	DriverID           *string `yaml:"driver_id"`
	AttachResult       bool    `yaml:"attach_result"`
	PenaltyType        string  `yaml:"penalty_type"`
	Reason             string  `yaml:"reason"`
	PointsDeducted     float64 `yaml:"points_deducted"`
	TimePenaltySeconds *int    `yaml:"time_penalty_seconds"`
	LapNumber          *int    `yaml:"lap_number"`
	IsActive           *bool   `yaml:"is_active"`
}

// Summary counts what Apply wrote.
type Summary struct {
	Skipped       bool
	Championships int
	Teams         int
	Drivers       int
	Races         int
	Results       int
	Penalties     int
}

// Parse decodes a fixture. Unknown keys are rejected.
func Parse(r io.Reader) (*Fixture, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f Fixture
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &f, nil
		}
		return nil, fmt.Errorf("decode fixture: %w", err)
	}
	return &f, nil
}

// LoadFile reads and parses the fixture at path.
func LoadFile(path string) (*Fixture, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fixture: %w", err)
	}
	defer fh.Close()
	return Parse(fh)
}

// Apply writes the fixture in a single transaction. A fixture whose first
// championship already exists is treated as applied and skipped.
func Apply(ctx context.Context, tx storage.Transactor, f *Fixture, logger *slog.Logger) (Summary, error) {
	var sum Summary
	err := tx.WithinTx(ctx, func(ctx context.Context, s *storage.Stores) error {
		sum = Summary{}
		if len(f.Championships) > 0 {
			_, err := s.Championships.GetByID(ctx, f.Championships[0].ID)
			if err == nil {
				sum.Skipped = true
				return nil
			}
			if !errors.Is(err, storage.ErrNotFound) {
				return err
			}
		}
		return apply(ctx, s, f, &sum)
	})
	if err != nil {
		return Summary{}, err
	}

	if logger != nil {
		logger.Info("seed_applied",
			slog.Bool("skipped", sum.Skipped),
			slog.Int("championships", sum.Championships),
			slog.Int("teams", sum.Teams),
			slog.Int("drivers", sum.Drivers),
			slog.Int("races", sum.Races),
			slog.Int("results", sum.Results),
			slog.Int("penalties", sum.Penalties),
		)
	}
	return sum, nil
}

func apply(ctx context.Context, s *storage.Stores, f *Fixture, sum *Summary) error {
	for _, c := range f.Championships {
		status := domain.ChampionshipStatus(c.Status)
		if status == "" {
			status = domain.ChampionshipActive
		}
		if !status.IsValid() {
			return fmt.Errorf("championship %s: invalid status %q", c.ID, c.Status)
		}
		if err := s.Championships.Insert(ctx, &domain.Championship{
			ID:          c.ID,
			Name:        c.Name,
			DisplayName: c.DisplayName,
			SeasonYear:  c.SeasonYear,
			Status:      status,
		}); err != nil {
			return fmt.Errorf("championship %s: %w", c.ID, err)
		}
		sum.Championships++
	}

	for _, t := range f.Teams {
		if err := s.Teams.Insert(ctx, &domain.Team{
			ID:          t.ID,
			Name:        t.Name,
			DisplayName: t.DisplayName,
			IsActive:    !t.Inactive,
		}); err != nil {
			return fmt.Errorf("team %s: %w", t.ID, err)
		}
		sum.Teams++
	}

	for _, d := range f.Drivers {
		if err := s.Drivers.Insert(ctx, &domain.Driver{
			ID:           d.ID,
			Name:         d.Name,
			DisplayName:  d.DisplayName,
			Abbreviation: d.Abbreviation,
			Number:       d.Number,
			TeamID:       d.TeamID,
			IsActive:     !d.Inactive,
		}); err != nil {
			return fmt.Errorf("driver %s: %w", d.ID, err)
		}
		sum.Drivers++
	}

	for _, r := range f.Races {
		status := domain.RaceStatus(r.Status)
		if status == "" {
			status = domain.RaceScheduled
		}
		if !status.IsValid() {
			return fmt.Errorf("race %s: invalid status %q", r.ID, r.Status)
		}
		if err := s.Races.Insert(ctx, &domain.Race{
			ID:             r.ID,
			ChampionshipID: r.ChampionshipID,
			Name:           r.Name,
			DisplayName:    r.DisplayName,
			RoundNumber:    r.RoundNumber,
			Status:         status,
		}); err != nil {
			return fmt.Errorf("race %s: %w", r.ID, err)
		}
		for _, teamID := range r.Teams {
			if err := s.Races.Enroll(ctx, r.ID, teamID); err != nil {
				return fmt.Errorf("race %s: enroll %s: %w", r.ID, teamID, err)
			}
		}
		sum.Races++
	}

	rs := results.New(s)
	for _, r := range f.Results {
		if _, err := rs.Create(ctx, results.CreateInput{
			RaceID:        r.RaceID,
			TeamID:        r.TeamID,
			DriverID:      r.DriverID,
			Position:      r.Position,
			Points:        r.Points,
			LapsCompleted: r.LapsCompleted,
			FastestLap:    r.FastestLap,
			DNF:           r.DNF,
			DSQ:           r.DSQ,
			Notes:         r.Notes,
		}); err != nil {
			return fmt.Errorf("result %s/%s: %w", r.RaceID, r.TeamID, err)
		}
		sum.Results++
	}

	ps := penalties.New(s)
	for i, p := range f.Penalties {
		in := penalties.CreateInput{
			RaceID:             p.RaceID,
			TeamID:             p.TeamID,
			DriverID:           p.DriverID,
			PenaltyType:        p.PenaltyType,
			Reason:             p.Reason,
			PointsDeducted:     p.PointsDeducted,
			TimePenaltySeconds: p.TimePenaltySeconds,
			LapNumber:          p.LapNumber,
			IsActive:           p.IsActive,
		}
		if p.AttachResult {
			res, err := s.Results.GetByRaceAndTeam(ctx, p.RaceID, p.TeamID)
			if err != nil {
				return fmt.Errorf("penalty %d: result of %s in %s: %w", i, p.TeamID, p.RaceID, err)
			}
			in.ResultID = &res.ID
		}
		if _, err := ps.Create(ctx, in); err != nil {
			return fmt.Errorf("penalty %d: %w", i, err)
		}
		sum.Penalties++
	}
	return nil
}
