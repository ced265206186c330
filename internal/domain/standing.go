package domain

// Standing is one ranked row of a championship table. It is computed on
// demand and never persisted.
type Standing struct {
	Position    int     // 1-indexed rank after sorting
	SubjectID   string  // team_id or driver_id
	TotalPoints float64 // net of deductions in the flat view
	RacesScored int     // non-DSQ results counted
	Wins        int     // non-DSQ results with position 1
}

// TeamStanding is a Standing decorated with team names.
type TeamStanding struct {
	Position        int     `json:"position"`
	TeamID          string  `json:"team_id"`
	TeamName        string  `json:"team_name"`
	TeamDisplayName string  `json:"team_display_name"`
	TotalPoints     float64 `json:"total_points"`
	RacesScored     int     `json:"races_scored"`
	Wins            int     `json:"wins"`
}

// DriverStanding is a Standing decorated with driver and team names.
type DriverStanding struct {
	Position           int     `json:"position"`
	DriverID           string  `json:"driver_id"`
	DriverName         string  `json:"driver_name"`
	DriverDisplayName  string  `json:"driver_display_name"`
	DriverAbbreviation string  `json:"driver_abbreviation"`
	TeamID             string  `json:"team_id"`
	TeamName           string  `json:"team_name"`
	TotalPoints        float64 `json:"total_points"`
	RacesScored        int     `json:"races_scored"`
	Wins               int     `json:"wins"`
}

// RacePoints is one cell of the breakdown ledger.
// Points is zero for DSQ results; DSQ still exposes the flag.
type RacePoints struct {
	RaceID   string  `json:"race_id"`
	Points   float64 `json:"points"`
	Position int     `json:"position"`
	DSQ      bool    `json:"dsq"`
}

// BreakdownRace is a race column of the breakdown.
type BreakdownRace struct {
	RaceID      string `json:"race_id"`
	RaceName    string `json:"race_name"`
	DisplayName string `json:"display_name"`
	RoundNumber int    `json:"round_number"`
}

// TeamBreakdown is a team row of the breakdown.
type TeamBreakdown struct {
	TeamStanding
	RacePoints []RacePoints `json:"race_points"`
}

// DriverBreakdown is a driver row of the breakdown.
type DriverBreakdown struct {
	DriverStanding
	RacePoints []RacePoints `json:"race_points"`
}

// Breakdown is the per-race points ledger of a championship.
type Breakdown struct {
	Races           []BreakdownRace   `json:"races"`
	TeamStandings   []TeamBreakdown   `json:"team_standings"`
	DriverStandings []DriverBreakdown `json:"driver_standings"`
}
