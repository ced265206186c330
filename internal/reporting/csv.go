package reporting

import (
	"encoding/csv"
	"strconv"
	"strings"

	"championship-engine/internal/domain"
)

// RenderCSV renders team standings as CSV string.
func RenderCSV(teams []domain.TeamStanding) (string, error) {
	var sb strings.Builder
	w := csv.NewWriter(&sb)

	_ = w.Write([]string{"position", "team_id", "team_name", "team_display_name", "total_points", "races_scored", "wins"})
	for _, t := range teams {
		_ = w.Write([]string{
			strconv.Itoa(t.Position),
			t.TeamID,
			t.TeamName,
			t.TeamDisplayName,
			formatPoints(t.TotalPoints),
			strconv.Itoa(t.RacesScored),
			strconv.Itoa(t.Wins),
		})
	}

	w.Flush()
	return sb.String(), w.Error()
}

// RenderDriversCSV renders driver standings as CSV string.
func RenderDriversCSV(drivers []domain.DriverStanding) (string, error) {
	var sb strings.Builder
	w := csv.NewWriter(&sb)

	_ = w.Write([]string{"position", "driver_id", "driver_name", "driver_abbreviation", "team_id", "team_name", "total_points", "races_scored", "wins"})
	for _, d := range drivers {
		_ = w.Write([]string{
			strconv.Itoa(d.Position),
			d.DriverID,
			d.DriverName,
			d.DriverAbbreviation,
			d.TeamID,
			d.TeamName,
			formatPoints(d.TotalPoints),
			strconv.Itoa(d.RacesScored),
			strconv.Itoa(d.Wins),
		})
	}

	w.Flush()
	return sb.String(), w.Error()
}
