package domain

// ChampionshipStatus is the lifecycle status of a championship.
type ChampionshipStatus string

const (
	ChampionshipPlanned   ChampionshipStatus = "planned"
	ChampionshipActive    ChampionshipStatus = "active"
	ChampionshipCompleted ChampionshipStatus = "completed"
	ChampionshipCancelled ChampionshipStatus = "cancelled"
)

// IsValid checks if the status is a known value.
func (s ChampionshipStatus) IsValid() bool {
	switch s {
	case ChampionshipPlanned, ChampionshipActive, ChampionshipCompleted, ChampionshipCancelled:
		return true
	}
	return false
}

// Championship groups races into a season.
// Corresponds to championships table in PostgreSQL.
type Championship struct {
	ID          string // PRIMARY KEY (uuid)
	Name        string // unique slug
	DisplayName string
	SeasonYear  int
	Status      ChampionshipStatus
	CreatedAt   int64 // record creation timestamp (ms)
}
