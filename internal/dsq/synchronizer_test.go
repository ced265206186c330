package dsq

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"championship-engine/internal/domain"
	"championship-engine/internal/storage"
	"championship-engine/internal/storage/memory"
)

type syncFixture struct {
	stores *storage.Stores
	race   *domain.Race
	result *domain.RaceResult
}

func newSyncFixture(t *testing.T) *syncFixture {
	t.Helper()
	ctx := context.Background()
	s := memory.NewDB().Stores()

	champ := &domain.Championship{Name: "c", Status: domain.ChampionshipActive}
	require.NoError(t, s.Championships.Insert(ctx, champ))
	team := &domain.Team{Name: "t", IsActive: true}
	require.NoError(t, s.Teams.Insert(ctx, team))
	race := &domain.Race{ChampionshipID: champ.ID, Name: "r", RoundNumber: 1, Status: domain.RaceFinished}
	require.NoError(t, s.Races.Insert(ctx, race))
	result := &domain.RaceResult{RaceID: race.ID, TeamID: team.ID, Position: 1, Points: 25}
	require.NoError(t, s.Results.Insert(ctx, result))

	return &syncFixture{stores: s, race: race, result: result}
}

func (f *syncFixture) addPenalty(t *testing.T, typ domain.PenaltyType, active bool) *domain.Penalty {
	t.Helper()
	p := &domain.Penalty{
		RaceID:   f.race.ID,
		TeamID:   f.result.TeamID,
		ResultID: ref(f.result.ID),
		Type:     typ,
		Reason:   "test",
		IsActive: active,
	}
	require.NoError(t, f.stores.Penalties.Insert(context.Background(), p))
	return p
}

func (f *syncFixture) dsq(t *testing.T) bool {
	t.Helper()
	r, err := f.stores.Results.GetByID(context.Background(), f.result.ID)
	require.NoError(t, err)
	return r.DSQ
}

func TestSync_SetAndClear(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()

	var observed []Outcome
	sync := NewSynchronizer(f.stores.Results, f.stores.Penalties, WithObserver(func(o Outcome) {
		observed = append(observed, o)
	}))

	o, err := sync.Sync(ctx, f.result.ID, Set)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSet, o)
	assert.True(t, f.dsq(t))

	// No disqualification in the penalties table, so Clear takes effect.
	o, err = sync.Sync(ctx, f.result.ID, Clear)
	require.NoError(t, err)
	assert.Equal(t, OutcomeCleared, o)
	assert.False(t, f.dsq(t))

	assert.Equal(t, []Outcome{OutcomeSet, OutcomeCleared}, observed)
}

func TestSync_ClearRetainedByOtherDisqualification(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()
	f.addPenalty(t, domain.PenaltyDisqualification, true)

	sync := NewSynchronizer(f.stores.Results, f.stores.Penalties)
	_, err := sync.Sync(ctx, f.result.ID, Set)
	require.NoError(t, err)

	o, err := sync.Sync(ctx, f.result.ID, Clear)
	require.NoError(t, err)
	assert.Equal(t, OutcomeRetained, o)
	assert.True(t, f.dsq(t))
}

func TestSync_InactiveOrOtherTypesDoNotRetain(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()
	f.addPenalty(t, domain.PenaltyDisqualification, false)
	f.addPenalty(t, domain.PenaltyPointsDeduction, true)

	sync := NewSynchronizer(f.stores.Results, f.stores.Penalties)
	outcomes, err := sync.Apply(ctx, []Action{{f.result.ID, Set}, {f.result.ID, Clear}})
	require.NoError(t, err)
	assert.Equal(t, []Outcome{OutcomeSet, OutcomeCleared}, outcomes)
	assert.False(t, f.dsq(t))
}

func TestSync_MissingResultIsSkipped(t *testing.T) {
	f := newSyncFixture(t)

	sync := NewSynchronizer(f.stores.Results, f.stores.Penalties)
	o, err := sync.Sync(context.Background(), "missing", Set)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSkipped, o)
}

func TestSync_NilOptionsKeepDefaults(t *testing.T) {
	f := newSyncFixture(t)

	sync := NewSynchronizer(f.stores.Results, f.stores.Penalties, WithLogger(nil), WithObserver(nil))
	require.NotPanics(t, func() {
		o, err := sync.Sync(context.Background(), f.result.ID, Set)
		require.NoError(t, err)
		assert.Equal(t, OutcomeSet, o)
	})
	assert.True(t, f.dsq(t))
}
