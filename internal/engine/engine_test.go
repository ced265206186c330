package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"championship-engine/internal/domain"
	"championship-engine/internal/penalties"
	"championship-engine/internal/results"
	"championship-engine/internal/storage"
	"championship-engine/internal/storage/memory"
)

func ptr[T any](v T) *T {
	return &v
}

// newEngine seeds championship "gp" with finished race "r1", teams A and
// B enrolled, and driver "ann" for team A.
func newEngine(t *testing.T) (*Engine, *memory.DB) {
	t.Helper()
	ctx := context.Background()
	db := memory.NewDB()
	s := db.Stores()

	require.NoError(t, s.Championships.Insert(ctx, &domain.Championship{ID: "gp", Name: "gp", Status: domain.ChampionshipActive}))
	for _, id := range []string{"A", "B"} {
		require.NoError(t, s.Teams.Insert(ctx, &domain.Team{ID: id, Name: "team-" + id, DisplayName: "Team " + id, IsActive: true}))
	}
	require.NoError(t, s.Drivers.Insert(ctx, &domain.Driver{ID: "ann", Name: "ann", Abbreviation: "ANN", TeamID: "A"}))
	require.NoError(t, s.Races.Insert(ctx, &domain.Race{ID: "r1", ChampionshipID: "gp", Name: "r1", RoundNumber: 1, Status: domain.RaceFinished}))
	require.NoError(t, s.Races.Enroll(ctx, "r1", "A"))
	require.NoError(t, s.Races.Enroll(ctx, "r1", "B"))

	return New(db), db
}

func createResults(t *testing.T, e *Engine) (a, b *domain.RaceResult) {
	t.Helper()
	ctx := context.Background()

	a, err := e.CreateResult(ctx, results.CreateInput{RaceID: "r1", TeamID: "A", DriverID: ptr("ann"), Position: 1, Points: 25})
	require.NoError(t, err)
	b, err = e.CreateResult(ctx, results.CreateInput{RaceID: "r1", TeamID: "B", Position: 2, Points: 18})
	require.NoError(t, err)
	return a, b
}

func order(rows []domain.TeamStanding) []string {
	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = fmt.Sprintf("%s:%g", r.TeamID, r.TotalPoints)
	}
	return ids
}

func TestDeductionScenario(t *testing.T) {
	e, _ := newEngine(t)
	ctx := context.Background()
	createResults(t, e)

	got, err := e.GetStandings(ctx, "gp")
	require.NoError(t, err)
	assert.Equal(t, []string{"A:25", "B:18"}, order(got))

	p, err := e.CreatePenalty(ctx, penalties.CreateInput{
		RaceID:         "r1",
		TeamID:         "A",
		PenaltyType:    "points_deduction",
		Reason:         "unsafe release",
		PointsDeducted: 10,
	})
	require.NoError(t, err)

	got, err = e.GetStandings(ctx, "gp")
	require.NoError(t, err)
	assert.Equal(t, []string{"B:18", "A:15"}, order(got))

	require.NoError(t, e.DeletePenalty(ctx, p.ID))

	got, err = e.GetStandings(ctx, "gp")
	require.NoError(t, err)
	assert.Equal(t, []string{"A:25", "B:18"}, order(got))
}

func TestDeductionDeactivateRoundTrip(t *testing.T) {
	e, _ := newEngine(t)
	ctx := context.Background()
	createResults(t, e)

	before, err := e.GetStandings(ctx, "gp")
	require.NoError(t, err)

	p, err := e.CreatePenalty(ctx, penalties.CreateInput{
		RaceID: "r1", TeamID: "A", PenaltyType: "points_deduction", Reason: "x", PointsDeducted: 7.3,
	})
	require.NoError(t, err)
	_, err = e.UpdatePenalty(ctx, p.ID, penalties.UpdateInput{IsActive: ptr(false)})
	require.NoError(t, err)

	after, err := e.GetStandings(ctx, "gp")
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestDisqualificationScenario(t *testing.T) {
	e, _ := newEngine(t)
	ctx := context.Background()
	a, _ := createResults(t, e)

	dsqPenalty := penalties.CreateInput{
		RaceID:      "r1",
		TeamID:      "A",
		ResultID:    ptr(a.ID),
		PenaltyType: "disqualification",
		Reason:      "underweight",
	}
	first, err := e.CreatePenalty(ctx, dsqPenalty)
	require.NoError(t, err)

	got, err := e.GetResult(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, got.DSQ, "dsq is set immediately")

	standings, err := e.GetStandings(ctx, "gp")
	require.NoError(t, err)
	assert.Equal(t, []string{"B:18"}, order(standings))

	second, err := e.CreatePenalty(ctx, dsqPenalty)
	require.NoError(t, err)

	require.NoError(t, e.DeletePenalty(ctx, first.ID))
	got, err = e.GetResult(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, got.DSQ, "another active disqualification remains")

	require.NoError(t, e.DeletePenalty(ctx, second.ID))
	got, err = e.GetResult(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, got.DSQ)
}

func TestDSQFreesPosition(t *testing.T) {
	e, _ := newEngine(t)
	ctx := context.Background()
	a, b := createResults(t, e)

	_, err := e.UpdateResult(ctx, b.ID, results.UpdateInput{Position: ptr(1)})
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = e.CreatePenalty(ctx, penalties.CreateInput{
		RaceID: "r1", TeamID: "A", ResultID: ptr(a.ID), PenaltyType: "disqualification", Reason: "x",
	})
	require.NoError(t, err)

	_, err = e.UpdateResult(ctx, b.ID, results.UpdateInput{Position: ptr(1)})
	assert.NoError(t, err)
}

func TestBreakdownIgnoresDeductions(t *testing.T) {
	e, _ := newEngine(t)
	ctx := context.Background()
	a, _ := createResults(t, e)

	_, err := e.CreatePenalty(ctx, penalties.CreateInput{
		RaceID: "r1", TeamID: "A", PenaltyType: "points_deduction", Reason: "x", PointsDeducted: 10,
	})
	require.NoError(t, err)
	_, err = e.CreatePenalty(ctx, penalties.CreateInput{
		RaceID: "r1", TeamID: "B", PenaltyType: "points_deduction", Reason: "y", PointsDeducted: 1,
	})
	require.NoError(t, err)

	b, err := e.GetBreakdown(ctx, "gp")
	require.NoError(t, err)
	require.Len(t, b.TeamStandings, 2)
	assert.Equal(t, "A", b.TeamStandings[0].TeamID)
	assert.Equal(t, 25.0, b.TeamStandings[0].TotalPoints)
	assert.Equal(t, "Team A", b.TeamStandings[0].TeamDisplayName)

	_, err = e.CreatePenalty(ctx, penalties.CreateInput{
		RaceID: "r1", TeamID: "A", ResultID: ptr(a.ID), PenaltyType: "disqualification", Reason: "z",
	})
	require.NoError(t, err)

	b, err = e.GetBreakdown(ctx, "gp")
	require.NoError(t, err)
	require.Len(t, b.TeamStandings, 2, "DSQ-only team still listed")
	last := b.TeamStandings[1]
	assert.Equal(t, "A", last.TeamID)
	assert.Equal(t, 0.0, last.TotalPoints)
	assert.Equal(t, []domain.RacePoints{{RaceID: "r1", Points: 0, Position: 1, DSQ: true}}, last.RacePoints)
}

func TestDeleteResultDetachesPenalty(t *testing.T) {
	e, _ := newEngine(t)
	ctx := context.Background()
	a, _ := createResults(t, e)

	p, err := e.CreatePenalty(ctx, penalties.CreateInput{
		RaceID: "r1", TeamID: "A", ResultID: ptr(a.ID), PenaltyType: "disqualification", Reason: "x",
	})
	require.NoError(t, err)

	require.NoError(t, e.DeleteResult(ctx, a.ID))

	got, err := e.GetPenalty(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ResultID)

	// Syncing a detached penalty is a no-op.
	_, err = e.UpdatePenalty(ctx, p.ID, penalties.UpdateInput{IsActive: ptr(false)})
	assert.NoError(t, err)
	assert.NoError(t, e.DeletePenalty(ctx, p.ID))
}

func TestCreateThenRead(t *testing.T) {
	e, _ := newEngine(t)
	ctx := context.Background()
	a, b := createResults(t, e)

	list, err := e.ListRaceResults(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, a, list[0])
	assert.Equal(t, b, list[1])

	p, err := e.CreatePenalty(ctx, penalties.CreateInput{
		RaceID: "r1", TeamID: "B", PenaltyType: "time_penalty", Reason: "speeding in pit lane", TimePenaltySeconds: ptr(5), LapNumber: ptr(14),
	})
	require.NoError(t, err)

	ps, err := e.ListRacePenalties(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, ps, 1)
	assert.Equal(t, p, ps[0])
}

func TestErrorTaxonomy(t *testing.T) {
	e, _ := newEngine(t)
	ctx := context.Background()

	_, err := e.GetStandings(ctx, "nope")
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))

	_, err = e.CreateResult(ctx, results.CreateInput{RaceID: "r1", TeamID: "A", Position: 0})
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	_, err = e.CreatePenalty(ctx, penalties.CreateInput{RaceID: "r1", TeamID: "A", PenaltyType: "nope", Reason: "x"})
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	createResults(t, e)
	_, err = e.CreateResult(ctx, results.CreateInput{RaceID: "r1", TeamID: "A", Position: 3})
	assert.Equal(t, domain.KindConflict, domain.KindOf(err))

	assert.Equal(t, domain.KindNotFound, domain.KindOf(e.DeleteResult(ctx, "nope")))
	assert.Equal(t, domain.KindNotFound, domain.KindOf(e.DeletePenalty(ctx, "nope")))
}

func TestTranslate(t *testing.T) {
	tests := []struct {
		in   error
		want domain.Kind
	}{
		{storage.ErrDuplicateKey, domain.KindConflict},
		{fmt.Errorf("commit: %w", storage.ErrTxConflict), domain.KindConflict},
		{storage.ErrNotFound, domain.KindNotFound},
		{storage.ErrInvalidInput, domain.KindConflict},
		{domain.Validationf("bad"), domain.KindValidation},
		{errors.New("disk on fire"), domain.KindInternal},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, domain.KindOf(translate(tt.in)), "translate(%v)", tt.in)
	}
	assert.Nil(t, translate(nil))
	assert.ErrorIs(t, translate(storage.ErrDuplicateKey), storage.ErrDuplicateKey)
}

// failingTx runs fn and then fails the commit.
type failingTx struct {
	db *memory.DB
}

func (f failingTx) WithinTx(ctx context.Context, fn func(ctx context.Context, s *storage.Stores) error) error {
	return f.db.WithinTx(ctx, func(ctx context.Context, s *storage.Stores) error {
		if err := fn(ctx, s); err != nil {
			return err
		}
		return storage.ErrTxConflict
	})
}

func TestPenaltyAndSyncCommitTogether(t *testing.T) {
	e, db := newEngine(t)
	ctx := context.Background()
	a, _ := createResults(t, e)

	failing := New(failingTx{db: db})
	_, err := failing.CreatePenalty(ctx, penalties.CreateInput{
		RaceID: "r1", TeamID: "A", ResultID: ptr(a.ID), PenaltyType: "disqualification", Reason: "x",
	})
	assert.ErrorIs(t, err, domain.ErrConflict)

	got, err := e.GetResult(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, got.DSQ)

	ps, err := e.ListRacePenalties(ctx, "r1")
	require.NoError(t, err)
	assert.Empty(t, ps)
}

func TestConcurrentDisqualifications(t *testing.T) {
	e, _ := newEngine(t)
	ctx := context.Background()
	a, _ := createResults(t, e)

	const n = 16
	ids := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := e.CreatePenalty(ctx, penalties.CreateInput{
				RaceID: "r1", TeamID: "A", ResultID: ptr(a.ID), PenaltyType: "disqualification", Reason: "x",
			})
			if assert.NoError(t, err) {
				ids[i] = p.ID
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			assert.NoError(t, e.DeletePenalty(ctx, id))
		}(ids[i])
	}
	wg.Wait()

	got, err := e.GetResult(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, got.DSQ)
}

func TestVerifyDSQ(t *testing.T) {
	e, db := newEngine(t)
	ctx := context.Background()
	a, _ := createResults(t, e)

	report, err := e.VerifyDSQ(ctx, "gp", false)
	require.NoError(t, err)
	assert.Equal(t, 2, report.MatchedResults)
	assert.Empty(t, report.Divergences)

	// A disqualification written around the engine leaves the flag unset.
	require.NoError(t, db.Stores().Penalties.Insert(ctx, &domain.Penalty{
		RaceID: "r1", TeamID: "A", ResultID: ptr(a.ID),
		Type: domain.PenaltyDisqualification, Reason: "late import", IsActive: true,
	}))

	report, err = e.VerifyDSQ(ctx, "gp", false)
	require.NoError(t, err)
	require.Len(t, report.Divergences, 1)
	assert.Equal(t, a.ID, report.Divergences[0].ResultID)
	assert.Zero(t, report.Repaired)

	report, err = e.VerifyDSQ(ctx, "gp", true)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Repaired)

	got, err := e.GetResult(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, got.DSQ)

	_, err = e.VerifyDSQ(ctx, "nope", false)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdateResult_CannotClearActiveDisqualification(t *testing.T) {
	e, _ := newEngine(t)
	ctx := context.Background()
	a, _ := createResults(t, e)

	p, err := e.CreatePenalty(ctx, penalties.CreateInput{
		RaceID: "r1", TeamID: "A", ResultID: ptr(a.ID), PenaltyType: "disqualification", Reason: "fuel flow",
	})
	require.NoError(t, err)

	_, err = e.UpdateResult(ctx, a.ID, results.UpdateInput{DSQ: ptr(false)})
	assert.ErrorIs(t, err, domain.ErrConflict)

	got, err := e.GetResult(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, got.DSQ)

	rows, err := e.GetStandings(ctx, "gp")
	require.NoError(t, err)
	assert.Equal(t, []string{"B:18"}, order(rows))

	// Lifting the penalty is the way to reinstate the result.
	require.NoError(t, e.DeletePenalty(ctx, p.ID))
	rows, err = e.GetStandings(ctx, "gp")
	require.NoError(t, err)
	assert.Equal(t, []string{"A:25", "B:18"}, order(rows))
}

func TestVerifyDSQ_ReportsPositionClashAfterLiftedDisqualification(t *testing.T) {
	e, _ := newEngine(t)
	ctx := context.Background()
	a, b := createResults(t, e)

	p, err := e.CreatePenalty(ctx, penalties.CreateInput{
		RaceID: "r1", TeamID: "A", ResultID: ptr(a.ID), PenaltyType: "disqualification", Reason: "skid block",
	})
	require.NoError(t, err)
	_, err = e.UpdateResult(ctx, b.ID, results.UpdateInput{Position: ptr(1)})
	require.NoError(t, err)

	// Lifting the penalty reinstates A at P1 next to B.
	require.NoError(t, e.DeletePenalty(ctx, p.ID))

	report, err := e.VerifyDSQ(ctx, "gp", true)
	require.NoError(t, err)
	assert.Empty(t, report.Divergences)
	assert.Zero(t, report.Repaired)
	require.Len(t, report.PositionClashes, 1)
	assert.Equal(t, 1, report.PositionClashes[0].Position)
	assert.ElementsMatch(t, []string{a.ID, b.ID}, report.PositionClashes[0].ResultIDs)
}
