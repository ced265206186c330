// Package query serves the read views of a championship: team and
// driver standings and the per-race breakdown, decorated with names.
package query

import (
	"context"
	"errors"
	"fmt"

	"championship-engine/internal/domain"
	"championship-engine/internal/standings"
	"championship-engine/internal/storage"
)

// Facade reads through stores bound to one transaction. Every call
// re-reads its inputs.
type Facade struct {
	s *storage.Stores
}

// New creates a Facade over s.
func New(s *storage.Stores) *Facade {
	return &Facade{s: s}
}

// GetStandings returns the flat team table of a championship.
func (f *Facade) GetStandings(ctx context.Context, championshipID string) ([]domain.TeamStanding, error) {
	in, err := f.load(ctx, championshipID)
	if err != nil {
		return nil, err
	}

	names := newNames(f.s)
	out := make([]domain.TeamStanding, 0)
	for _, st := range standings.Teams(in) {
		ts, err := names.team(ctx, st)
		if err != nil {
			return nil, err
		}
		out = append(out, ts)
	}
	return out, nil
}

// GetDriverStandings returns the flat driver table of a championship.
func (f *Facade) GetDriverStandings(ctx context.Context, championshipID string) ([]domain.DriverStanding, error) {
	in, err := f.load(ctx, championshipID)
	if err != nil {
		return nil, err
	}

	names := newNames(f.s)
	out := make([]domain.DriverStanding, 0)
	for _, st := range standings.Drivers(in) {
		ds, err := names.driver(ctx, st)
		if err != nil {
			return nil, err
		}
		out = append(out, ds)
	}
	return out, nil
}

// GetBreakdown returns the per-race ledger of a championship.
func (f *Facade) GetBreakdown(ctx context.Context, championshipID string) (*domain.Breakdown, error) {
	in, err := f.load(ctx, championshipID)
	if err != nil {
		return nil, err
	}
	b := standings.Compute(in)

	out := &domain.Breakdown{
		Races:           make([]domain.BreakdownRace, 0, len(b.Races)),
		TeamStandings:   make([]domain.TeamBreakdown, 0, len(b.Teams)),
		DriverStandings: make([]domain.DriverBreakdown, 0, len(b.Drivers)),
	}
	for _, race := range b.Races {
		out.Races = append(out.Races, domain.BreakdownRace{
			RaceID:      race.ID,
			RaceName:    race.Name,
			DisplayName: race.DisplayName,
			RoundNumber: race.RoundNumber,
		})
	}

	names := newNames(f.s)
	for _, row := range b.Teams {
		ts, err := names.team(ctx, row.Standing)
		if err != nil {
			return nil, err
		}
		out.TeamStandings = append(out.TeamStandings, domain.TeamBreakdown{TeamStanding: ts, RacePoints: row.RacePoints})
	}
	for _, row := range b.Drivers {
		ds, err := names.driver(ctx, row.Standing)
		if err != nil {
			return nil, err
		}
		out.DriverStandings = append(out.DriverStandings, domain.DriverBreakdown{DriverStanding: ds, RacePoints: row.RacePoints})
	}
	return out, nil
}

func (f *Facade) load(ctx context.Context, championshipID string) (standings.Input, error) {
	if _, err := f.s.Championships.GetByID(ctx, championshipID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return standings.Input{}, domain.NotFoundf("championship %s", championshipID)
		}
		return standings.Input{}, fmt.Errorf("load championship: %w", err)
	}

	races, err := f.s.Races.GetByChampionship(ctx, championshipID)
	if err != nil {
		return standings.Input{}, fmt.Errorf("load races: %w", err)
	}
	results, err := f.s.Results.GetByChampionship(ctx, championshipID)
	if err != nil {
		return standings.Input{}, fmt.Errorf("load results: %w", err)
	}
	penalties, err := f.s.Penalties.GetActiveByChampionship(ctx, championshipID)
	if err != nil {
		return standings.Input{}, fmt.Errorf("load penalties: %w", err)
	}

	return standings.Input{Races: races, Results: results, Penalties: penalties}, nil
}

// names resolves display fields, reading each team and driver once per call.
type names struct {
	s       *storage.Stores
	teams   map[string]*domain.Team
	drivers map[string]*domain.Driver
}

func newNames(s *storage.Stores) *names {
	return &names{
		s:       s,
		teams:   make(map[string]*domain.Team),
		drivers: make(map[string]*domain.Driver),
	}
}

func (n *names) lookupTeam(ctx context.Context, id string) (*domain.Team, error) {
	if t, ok := n.teams[id]; ok {
		return t, nil
	}
	t, err := n.s.Teams.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load team %s: %w", id, err)
	}
	n.teams[id] = t
	return t, nil
}

func (n *names) team(ctx context.Context, st domain.Standing) (domain.TeamStanding, error) {
	t, err := n.lookupTeam(ctx, st.SubjectID)
	if err != nil {
		return domain.TeamStanding{}, err
	}
	return domain.TeamStanding{
		Position:        st.Position,
		TeamID:          t.ID,
		TeamName:        t.Name,
		TeamDisplayName: t.DisplayName,
		TotalPoints:     st.TotalPoints,
		RacesScored:     st.RacesScored,
		Wins:            st.Wins,
	}, nil
}

func (n *names) driver(ctx context.Context, st domain.Standing) (domain.DriverStanding, error) {
	d, ok := n.drivers[st.SubjectID]
	if !ok {
		var err error
		d, err = n.s.Drivers.GetByID(ctx, st.SubjectID)
		if err != nil {
			return domain.DriverStanding{}, fmt.Errorf("load driver %s: %w", st.SubjectID, err)
		}
		n.drivers[d.ID] = d
	}
	t, err := n.lookupTeam(ctx, d.TeamID)
	if err != nil {
		return domain.DriverStanding{}, err
	}

	return domain.DriverStanding{
		Position:           st.Position,
		DriverID:           d.ID,
		DriverName:         d.Name,
		DriverDisplayName:  d.DisplayName,
		DriverAbbreviation: d.Abbreviation,
		TeamID:             t.ID,
		TeamName:           t.Name,
		TotalPoints:        st.TotalPoints,
		RacesScored:        st.RacesScored,
		Wins:               st.Wins,
	}, nil
}
