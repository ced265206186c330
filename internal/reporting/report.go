package reporting

import (
	"time"

	"championship-engine/internal/domain"
)

// Report is a snapshot of one championship's tables.
type Report struct {
	GeneratedAt    time.Time
	ChampionshipID string

	// Flat tables, net of active deductions.
	Teams   []domain.TeamStanding
	Drivers []domain.DriverStanding

	// Per-race ledger of finished races. Nil when not requested.
	Breakdown *domain.Breakdown
}

// Format selects a renderer.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatCSV      Format = "csv"
)

// IsValid checks if the format is a known value.
func (f Format) IsValid() bool {
	return f == FormatMarkdown || f == FormatCSV
}
