package storage

import "context"

// Stores bundles the repositories bound to one unit of work.
type Stores struct {
	Championships ChampionshipStore
	Teams         TeamStore
	Drivers       DriverStore
	Races         RaceStore
	Results       ResultStore
	Penalties     PenaltyStore
}

// Transactor runs a function as a single atomic unit.
//
// All writes issued through the Stores passed to fn commit together when fn
// returns nil and are discarded when fn returns an error.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, s *Stores) error) error
}
