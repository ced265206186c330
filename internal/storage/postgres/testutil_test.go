package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"championship-engine/internal/domain"
	"championship-engine/internal/storage/migrations"
)

// setupTestDB creates a PostgreSQL container for testing and applies migrations.
// Returns a cleanup function that must be called after tests complete.
func setupTestDB(t *testing.T) (*Pool, func()) {
	t.Helper()

	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start postgres container")

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "failed to get connection string")

	pool, err := NewPool(ctx, dsn)
	require.NoError(t, err, "failed to create pool")

	err = migrations.RunPostgresMigrations(ctx, pool.Pool)
	require.NoError(t, err, "failed to apply migrations")

	cleanup := func() {
		pool.Close()
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}

	return pool, cleanup
}

// catalog holds the rows seeded by seedCatalog.
type catalog struct {
	champ  *domain.Championship
	teamA  *domain.Team
	teamB  *domain.Team
	driver *domain.Driver
	round1 *domain.Race
	round2 *domain.Race
}

// seedCatalog inserts one championship with two finished races and two
// enrolled teams.
func seedCatalog(t *testing.T, ctx context.Context, pool *Pool) *catalog {
	t.Helper()
	s := pool.Stores()

	c := &catalog{
		champ: &domain.Championship{Name: "gp-2024", SeasonYear: 2024, Status: domain.ChampionshipActive},
		teamA: &domain.Team{Name: "alpha", DisplayName: "Alpha", IsActive: true},
		teamB: &domain.Team{Name: "bravo", DisplayName: "Bravo", IsActive: true},
	}
	require.NoError(t, s.Championships.Insert(ctx, c.champ))
	require.NoError(t, s.Teams.Insert(ctx, c.teamA))
	require.NoError(t, s.Teams.Insert(ctx, c.teamB))

	c.driver = &domain.Driver{Name: "ann", Abbreviation: "ANN", Number: 7, TeamID: c.teamA.ID, IsActive: true}
	require.NoError(t, s.Drivers.Insert(ctx, c.driver))

	c.round2 = &domain.Race{ChampionshipID: c.champ.ID, Name: "r2", RoundNumber: 2, Status: domain.RaceFinished}
	c.round1 = &domain.Race{ChampionshipID: c.champ.ID, Name: "r1", RoundNumber: 1, Status: domain.RaceFinished}
	for _, race := range []*domain.Race{c.round2, c.round1} {
		require.NoError(t, s.Races.Insert(ctx, race))
		require.NoError(t, s.Races.Enroll(ctx, race.ID, c.teamA.ID))
		require.NoError(t, s.Races.Enroll(ctx, race.ID, c.teamB.ID))
	}
	return c
}

// ptr is a helper to create pointers to values.
func ptr[T any](v T) *T {
	return &v
}
