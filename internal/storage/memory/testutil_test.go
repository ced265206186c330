package memory

import (
	"context"
	"testing"

	"championship-engine/internal/domain"
)

type fixture struct {
	db      *DB
	champ   *domain.Championship
	teamA   *domain.Team
	teamB   *domain.Team
	driverA *domain.Driver
	round1  *domain.Race
	round2  *domain.Race
}

// newFixture seeds one championship with two finished races and two
// teams enrolled in both.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	db := NewDB()
	s := db.Stores()

	f := &fixture{
		db:    db,
		champ: &domain.Championship{Name: "gp-2024", DisplayName: "GP 2024", SeasonYear: 2024, Status: domain.ChampionshipActive},
		teamA: &domain.Team{Name: "alpha", DisplayName: "Alpha", IsActive: true},
		teamB: &domain.Team{Name: "bravo", DisplayName: "Bravo", IsActive: true},
	}
	if err := s.Championships.Insert(ctx, f.champ); err != nil {
		t.Fatalf("insert championship: %v", err)
	}
	for _, team := range []*domain.Team{f.teamA, f.teamB} {
		if err := s.Teams.Insert(ctx, team); err != nil {
			t.Fatalf("insert team: %v", err)
		}
	}
	f.driverA = &domain.Driver{Name: "ann", DisplayName: "Ann", Abbreviation: "ANN", Number: 7, TeamID: f.teamA.ID, IsActive: true}
	if err := s.Drivers.Insert(ctx, f.driverA); err != nil {
		t.Fatalf("insert driver: %v", err)
	}

	// Inserted out of round order on purpose.
	f.round2 = &domain.Race{ChampionshipID: f.champ.ID, Name: "r2", RoundNumber: 2, Status: domain.RaceFinished}
	f.round1 = &domain.Race{ChampionshipID: f.champ.ID, Name: "r1", RoundNumber: 1, Status: domain.RaceFinished}
	for _, race := range []*domain.Race{f.round2, f.round1} {
		if err := s.Races.Insert(ctx, race); err != nil {
			t.Fatalf("insert race: %v", err)
		}
		for _, team := range []*domain.Team{f.teamA, f.teamB} {
			if err := s.Races.Enroll(ctx, race.ID, team.ID); err != nil {
				t.Fatalf("enroll: %v", err)
			}
		}
	}
	return f
}

func ptr[T any](v T) *T {
	return &v
}
