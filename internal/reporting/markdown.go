package reporting

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"championship-engine/internal/domain"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString(fmt.Sprintf("# Championship Standings: %s\n\n", r.ChampionshipID))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))

	// Teams
	sb.WriteString("## Teams\n\n")
	if len(r.Teams) > 0 {
		sb.WriteString("| Pos | Team | Points | Races | Wins |\n")
		sb.WriteString("|-----|------|--------|-------|------|\n")
		for _, t := range r.Teams {
			sb.WriteString(fmt.Sprintf("| %d | %s | %s | %d | %d |\n",
				t.Position, teamLabel(t), formatPoints(t.TotalPoints), t.RacesScored, t.Wins))
		}
	} else {
		sb.WriteString("No team standings available.\n")
	}
	sb.WriteString("\n")

	// Drivers
	sb.WriteString("## Drivers\n\n")
	if len(r.Drivers) > 0 {
		sb.WriteString("| Pos | Driver | Team | Points | Races | Wins |\n")
		sb.WriteString("|-----|--------|------|--------|-------|------|\n")
		for _, d := range r.Drivers {
			sb.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %d | %d |\n",
				d.Position, driverLabel(d), d.TeamName, formatPoints(d.TotalPoints), d.RacesScored, d.Wins))
		}
	} else {
		sb.WriteString("No driver standings available.\n")
	}

	if r.Breakdown != nil {
		sb.WriteString("\n")
		renderBreakdown(&sb, r.Breakdown)
	}

	return sb.String()
}

// renderBreakdown writes the team ledger. Cells are race points before
// deductions; DSQ marks a disqualified result and "-" a race without one.
func renderBreakdown(sb *strings.Builder, b *domain.Breakdown) {
	sb.WriteString("## Race Breakdown\n\n")
	if len(b.Races) == 0 {
		sb.WriteString("No finished races.\n")
		return
	}

	sb.WriteString("| Team |")
	sep := "|------|"
	for _, race := range b.Races {
		name := race.DisplayName
		if name == "" {
			name = race.RaceName
		}
		sb.WriteString(fmt.Sprintf(" R%d %s |", race.RoundNumber, name))
		sep += "-----|"
	}
	sb.WriteString(" Total |\n")
	sb.WriteString(sep + "-------|\n")

	for _, row := range b.TeamStandings {
		cells := make(map[string]domain.RacePoints, len(row.RacePoints))
		for _, rp := range row.RacePoints {
			cells[rp.RaceID] = rp
		}

		sb.WriteString(fmt.Sprintf("| %s |", teamLabel(row.TeamStanding)))
		for _, race := range b.Races {
			rp, ok := cells[race.RaceID]
			switch {
			case !ok:
				sb.WriteString(" - |")
			case rp.DSQ:
				sb.WriteString(" DSQ |")
			default:
				sb.WriteString(fmt.Sprintf(" %s |", formatPoints(rp.Points)))
			}
		}
		sb.WriteString(fmt.Sprintf(" %s |\n", formatPoints(row.TotalPoints)))
	}
}

func teamLabel(t domain.TeamStanding) string {
	if t.TeamDisplayName != "" {
		return t.TeamDisplayName
	}
	return t.TeamName
}

func driverLabel(d domain.DriverStanding) string {
	name := d.DriverDisplayName
	if name == "" {
		name = d.DriverName
	}
	if d.DriverAbbreviation == "" {
		return name
	}
	return fmt.Sprintf("%s (%s)", name, d.DriverAbbreviation)
}

// formatPoints prints the shortest exact representation: 25, 12.5.
func formatPoints(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
