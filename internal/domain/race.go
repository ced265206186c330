package domain

// RaceStatus is the lifecycle status of a race.
type RaceStatus string

const (
	RaceScheduled  RaceStatus = "scheduled"
	RaceQualifying RaceStatus = "qualifying"
	RaceActive     RaceStatus = "active"
	RaceFinished   RaceStatus = "finished"
	RaceCancelled  RaceStatus = "cancelled"
)

// String returns the string representation of RaceStatus.
func (s RaceStatus) String() string {
	return string(s)
}

// IsValid checks if the status is a known value.
func (s RaceStatus) IsValid() bool {
	switch s {
	case RaceScheduled, RaceQualifying, RaceActive, RaceFinished, RaceCancelled:
		return true
	}
	return false
}

// Race is one round of a championship.
// Corresponds to races table in PostgreSQL.
type Race struct {
	ID             string // PRIMARY KEY (uuid)
	ChampionshipID string
	Name           string
	DisplayName    string
	RoundNumber    int
	Status         RaceStatus
	CreatedAt      int64 // ms
}

// IsFinished reports whether results may be recorded for the race.
func (r *Race) IsFinished() bool {
	return r.Status == RaceFinished
}
