package domain

// RaceResult is the finishing result of one team in one race.
// Corresponds to race_results table in PostgreSQL, unique on (race_id, team_id).
type RaceResult struct {
	ID            string  // PRIMARY KEY (uuid)
	RaceID        string  // race the result belongs to
	TeamID        string  // finishing team
	DriverID      *string // driver of record (nullable)
	Position      int     // finishing position, >= 1
	Points        float64 // base points awarded, >= 0
	LapsCompleted *int    // nullable
	FastestLap    bool
	DNF           bool
	DSQ           bool    // derived from active disqualification penalties
	Notes         *string // nullable
	CreatedAt     int64   // ms
	UpdatedAt     int64   // ms
}

// Scores reports whether the result contributes to standings.
func (r *RaceResult) Scores() bool {
	return !r.DSQ
}

// IsWin reports whether the result counts as a race win.
func (r *RaceResult) IsWin() bool {
	return !r.DSQ && r.Position == 1
}
