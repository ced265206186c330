package storage

import (
	"context"

	"championship-engine/internal/domain"
)

// ChampionshipStore provides access to championships storage.
type ChampionshipStore interface {
	// Insert adds a new championship. Returns ErrDuplicateKey if id or name exists.
	Insert(ctx context.Context, c *domain.Championship) error

	// GetByID retrieves a championship by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id string) (*domain.Championship, error)
}

// TeamStore provides access to teams storage.
type TeamStore interface {
	// Insert adds a new team. Returns ErrDuplicateKey if id or name exists.
	Insert(ctx context.Context, t *domain.Team) error

	// GetByID retrieves a team by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id string) (*domain.Team, error)
}

// DriverStore provides access to drivers storage.
type DriverStore interface {
	// Insert adds a new driver. Returns ErrDuplicateKey if id, name or abbreviation exists.
	Insert(ctx context.Context, d *domain.Driver) error

	// GetByID retrieves a driver by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id string) (*domain.Driver, error)
}

// RaceStore provides access to races and race_entries storage.
type RaceStore interface {
	// Insert adds a new race. Returns ErrDuplicateKey if id exists.
	Insert(ctx context.Context, r *domain.Race) error

	// GetByID retrieves a race by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id string) (*domain.Race, error)

	// GetByChampionship retrieves all races of a championship, ordered by round_number ASC.
	GetByChampionship(ctx context.Context, championshipID string) ([]*domain.Race, error)

	// Enroll registers a team for a race. Enrolling twice is a no-op.
	Enroll(ctx context.Context, raceID, teamID string) error

	// IsEnrolled reports whether the team is registered for the race.
	IsEnrolled(ctx context.Context, raceID, teamID string) (bool, error)
}

// ResultStore provides access to race_results storage.
type ResultStore interface {
	// Insert adds a new result. Returns ErrDuplicateKey if (race_id, team_id) exists.
	// An empty ID is assigned by the store.
	Insert(ctx context.Context, r *domain.RaceResult) error

	// Update overwrites all mutable columns of an existing result.
	// Returns ErrNotFound if not exists.
	Update(ctx context.Context, r *domain.RaceResult) error

	// Delete removes a result and detaches penalties referencing it.
	// Returns ErrNotFound if not exists.
	Delete(ctx context.Context, id string) error

	// SetDSQ overwrites the dsq flag of a result. Returns ErrNotFound if not exists.
	SetDSQ(ctx context.Context, id string, dsq bool) error

	// GetByID retrieves a result by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id string) (*domain.RaceResult, error)

	// GetByRaceAndTeam retrieves the result of a team in a race. Returns ErrNotFound if not exists.
	GetByRaceAndTeam(ctx context.Context, raceID, teamID string) (*domain.RaceResult, error)

	// GetByRace retrieves all results of a race, ordered by position ASC, then creation order.
	GetByRace(ctx context.Context, raceID string) ([]*domain.RaceResult, error)

	// PositionTaken reports whether a non-DSQ result other than excludeID
	// holds position in the race. Pass an empty excludeID to check all results.
	PositionTaken(ctx context.Context, raceID string, position int, excludeID string) (bool, error)

	// GetByChampionship retrieves all results of races in a championship,
	// ordered by round_number ASC, position ASC, then creation order.
	GetByChampionship(ctx context.Context, championshipID string) ([]*domain.RaceResult, error)
}

// PenaltyStore provides access to penalties storage.
type PenaltyStore interface {
	// Insert adds a new penalty. An empty ID is assigned by the store.
	Insert(ctx context.Context, p *domain.Penalty) error

	// Update overwrites all mutable columns of an existing penalty.
	// Returns ErrNotFound if not exists.
	Update(ctx context.Context, p *domain.Penalty) error

	// Delete removes a penalty. Returns ErrNotFound if not exists.
	Delete(ctx context.Context, id string) error

	// GetByID retrieves a penalty by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id string) (*domain.Penalty, error)

	// GetByRace retrieves all penalties of a race in creation order.
	GetByRace(ctx context.Context, raceID string) ([]*domain.Penalty, error)

	// CountActiveDisqualifications counts active disqualification penalties
	// whose result_id equals resultID.
	CountActiveDisqualifications(ctx context.Context, resultID string) (int, error)

	// GetActiveByChampionship retrieves all active penalties of races in a
	// championship in creation order.
	GetActiveByChampionship(ctx context.Context, championshipID string) ([]*domain.Penalty, error)
}
