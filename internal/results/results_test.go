package results

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"championship-engine/internal/domain"
	"championship-engine/internal/storage"
	"championship-engine/internal/storage/memory"
)

// seedRace inserts race "r1" in the given status with teams alpha and
// bravo enrolled. Team charlie exists but is not enrolled.
func seedRace(t *testing.T, status domain.RaceStatus) *storage.Stores {
	t.Helper()
	ctx := context.Background()
	s := memory.NewDB().Stores()

	require.NoError(t, s.Championships.Insert(ctx, &domain.Championship{ID: "gp", Name: "gp", Status: domain.ChampionshipActive}))
	for _, id := range []string{"alpha", "bravo", "charlie"} {
		require.NoError(t, s.Teams.Insert(ctx, &domain.Team{ID: id, Name: id, IsActive: true}))
	}
	require.NoError(t, s.Drivers.Insert(ctx, &domain.Driver{ID: "ann", Name: "ann", TeamID: "alpha"}))
	require.NoError(t, s.Races.Insert(ctx, &domain.Race{ID: "r1", ChampionshipID: "gp", Name: "r1", RoundNumber: 1, Status: status}))
	require.NoError(t, s.Races.Enroll(ctx, "r1", "alpha"))
	require.NoError(t, s.Races.Enroll(ctx, "r1", "bravo"))
	return s
}

func ptr[T any](v T) *T {
	return &v
}

func TestCreate_RoundTrip(t *testing.T) {
	svc := New(seedRace(t, domain.RaceFinished))
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateInput{
		RaceID:        "r1",
		TeamID:        "alpha",
		DriverID:      ptr("ann"),
		Position:      1,
		Points:        25,
		LapsCompleted: ptr(58),
		FastestLap:    true,
		Notes:         ptr("lights to flag"),
	})
	require.NoError(t, err)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "alpha", got.TeamID)
	assert.Equal(t, 1, got.Position)
	assert.InDelta(t, 25.0, got.Points, 1e-9)
	assert.Equal(t, 58, *got.LapsCompleted)
	assert.Equal(t, "lights to flag", *got.Notes)
	assert.True(t, got.FastestLap)
	assert.False(t, got.DSQ)
}

func TestCreate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status domain.RaceStatus
		in     CreateInput
		want   error
	}{
		{"position zero", domain.RaceFinished, CreateInput{RaceID: "r1", TeamID: "alpha", Position: 0}, domain.ErrValidation},
		{"negative points", domain.RaceFinished, CreateInput{RaceID: "r1", TeamID: "alpha", Position: 1, Points: -1}, domain.ErrValidation},
		{"negative laps", domain.RaceFinished, CreateInput{RaceID: "r1", TeamID: "alpha", Position: 1, LapsCompleted: ptr(-1)}, domain.ErrValidation},
		{"unknown race", domain.RaceFinished, CreateInput{RaceID: "nope", TeamID: "alpha", Position: 1}, domain.ErrNotFound},
		{"race not finished", domain.RaceActive, CreateInput{RaceID: "r1", TeamID: "alpha", Position: 1}, domain.ErrConflict},
		{"unknown team", domain.RaceFinished, CreateInput{RaceID: "r1", TeamID: "nope", Position: 1}, domain.ErrNotFound},
		{"team not enrolled", domain.RaceFinished, CreateInput{RaceID: "r1", TeamID: "charlie", Position: 1}, domain.ErrConflict},
		{"unknown driver", domain.RaceFinished, CreateInput{RaceID: "r1", TeamID: "alpha", DriverID: ptr("nope"), Position: 1}, domain.ErrNotFound},
		{"driver of other team", domain.RaceFinished, CreateInput{RaceID: "r1", TeamID: "bravo", DriverID: ptr("ann"), Position: 1}, domain.ErrConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := New(seedRace(t, tt.status))
			_, err := svc.Create(context.Background(), tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCreate_DuplicateTeamResult(t *testing.T) {
	svc := New(seedRace(t, domain.RaceFinished))
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInput{RaceID: "r1", TeamID: "alpha", Position: 1})
	require.NoError(t, err)

	_, err = svc.Create(ctx, CreateInput{RaceID: "r1", TeamID: "alpha", Position: 2})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestCreate_PositionUniqueness(t *testing.T) {
	svc := New(seedRace(t, domain.RaceFinished))
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInput{RaceID: "r1", TeamID: "alpha", Position: 1})
	require.NoError(t, err)

	_, err = svc.Create(ctx, CreateInput{RaceID: "r1", TeamID: "bravo", Position: 1})
	assert.ErrorIs(t, err, domain.ErrConflict)

	// A DSQ result neither blocks nor is blocked.
	_, err = svc.Create(ctx, CreateInput{RaceID: "r1", TeamID: "bravo", Position: 1, DSQ: true})
	assert.NoError(t, err)
}

func TestUpdate_PositionCheck(t *testing.T) {
	svc := New(seedRace(t, domain.RaceFinished))
	ctx := context.Background()

	a, err := svc.Create(ctx, CreateInput{RaceID: "r1", TeamID: "alpha", Position: 1})
	require.NoError(t, err)
	b, err := svc.Create(ctx, CreateInput{RaceID: "r1", TeamID: "bravo", Position: 2})
	require.NoError(t, err)

	// Re-stating its own position is not a clash.
	_, err = svc.Update(ctx, a.ID, UpdateInput{Position: ptr(1)})
	assert.NoError(t, err)

	_, err = svc.Update(ctx, b.ID, UpdateInput{Position: ptr(1)})
	assert.ErrorIs(t, err, domain.ErrConflict)

	// Moving onto P1 while flagged DSQ is allowed.
	updated, err := svc.Update(ctx, b.ID, UpdateInput{Position: ptr(1), DSQ: ptr(true)})
	require.NoError(t, err)
	assert.True(t, updated.DSQ)

	// Clearing the flag re-checks the position.
	_, err = svc.Update(ctx, b.ID, UpdateInput{DSQ: ptr(false)})
	assert.ErrorIs(t, err, domain.ErrConflict)

	// Fields that do not touch position or dsq skip the check.
	_, err = svc.Update(ctx, b.ID, UpdateInput{Points: ptr(10.0)})
	assert.NoError(t, err)
}

func TestUpdate_Errors(t *testing.T) {
	svc := New(seedRace(t, domain.RaceFinished))
	ctx := context.Background()

	_, err := svc.Update(ctx, "missing", UpdateInput{Points: ptr(1.0)})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	r, err := svc.Create(ctx, CreateInput{RaceID: "r1", TeamID: "bravo", Position: 3})
	require.NoError(t, err)

	_, err = svc.Update(ctx, r.ID, UpdateInput{Points: ptr(-5.0)})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.Update(ctx, r.ID, UpdateInput{DriverID: ptr("ann")})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestDeleteAndList(t *testing.T) {
	svc := New(seedRace(t, domain.RaceFinished))
	ctx := context.Background()

	second, err := svc.Create(ctx, CreateInput{RaceID: "r1", TeamID: "bravo", Position: 2})
	require.NoError(t, err)
	first, err := svc.Create(ctx, CreateInput{RaceID: "r1", TeamID: "alpha", Position: 1})
	require.NoError(t, err)

	list, err := svc.ListByRace(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)
	assert.Equal(t, second.ID, list[1].ID)

	_, err = svc.ListByRace(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, svc.Delete(ctx, first.ID))
	assert.ErrorIs(t, svc.Delete(ctx, first.ID), domain.ErrNotFound)

	// The position is free again.
	_, err = svc.Update(ctx, second.ID, UpdateInput{Position: ptr(1)})
	assert.NoError(t, err)
}

func TestUpdate_ClearDSQRejectedWhileDisqualified(t *testing.T) {
	s := seedRace(t, domain.RaceFinished)
	svc := New(s)
	ctx := context.Background()

	a, err := svc.Create(ctx, CreateInput{RaceID: "r1", TeamID: "alpha", Position: 1, Points: 25, DSQ: true})
	require.NoError(t, err)
	p := &domain.Penalty{
		RaceID:   "r1",
		TeamID:   "alpha",
		ResultID: ptr(a.ID),
		Type:     domain.PenaltyDisqualification,
		Reason:   "underweight",
		IsActive: true,
	}
	require.NoError(t, s.Penalties.Insert(ctx, p))

	_, err = svc.Update(ctx, a.ID, UpdateInput{DSQ: ptr(false)})
	assert.ErrorIs(t, err, domain.ErrConflict)

	got, err := svc.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, got.DSQ)

	// Re-stating the flag and unrelated fields are still accepted.
	_, err = svc.Update(ctx, a.ID, UpdateInput{DSQ: ptr(true), Points: ptr(0.0)})
	assert.NoError(t, err)

	p.IsActive = false
	require.NoError(t, s.Penalties.Update(ctx, p))
	updated, err := svc.Update(ctx, a.ID, UpdateInput{DSQ: ptr(false)})
	require.NoError(t, err)
	assert.False(t, updated.DSQ)
}

func TestUpdate_EmptyDriverDetaches(t *testing.T) {
	svc := New(seedRace(t, domain.RaceFinished))
	ctx := context.Background()

	r, err := svc.Create(ctx, CreateInput{RaceID: "r1", TeamID: "alpha", DriverID: ptr("ann"), Position: 1})
	require.NoError(t, err)
	require.NotNil(t, r.DriverID)

	updated, err := svc.Update(ctx, r.ID, UpdateInput{DriverID: ptr("")})
	require.NoError(t, err)
	assert.Nil(t, updated.DriverID)

	got, err := svc.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Nil(t, got.DriverID)

	_, err = svc.Update(ctx, r.ID, UpdateInput{DriverID: ptr("ghost")})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
