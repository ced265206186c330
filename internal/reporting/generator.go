package reporting

import (
	"context"
	"fmt"
	"time"

	"championship-engine/internal/domain"
)

// Source provides the standings views a report is built from.
// Both the engine and the query facade satisfy it.
type Source interface {
	GetStandings(ctx context.Context, championshipID string) ([]domain.TeamStanding, error)
	GetDriverStandings(ctx context.Context, championshipID string) ([]domain.DriverStanding, error)
	GetBreakdown(ctx context.Context, championshipID string) (*domain.Breakdown, error)
}

// Generator produces reports from a Source.
type Generator struct {
	source Source
	now    func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(source Source) *Generator {
	return &Generator{
		source: source,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate loads the team, driver and breakdown views of a championship.
func (g *Generator) Generate(ctx context.Context, championshipID string) (*Report, error) {
	teams, err := g.source.GetStandings(ctx, championshipID)
	if err != nil {
		return nil, fmt.Errorf("team standings: %w", err)
	}

	drivers, err := g.source.GetDriverStandings(ctx, championshipID)
	if err != nil {
		return nil, fmt.Errorf("driver standings: %w", err)
	}

	breakdown, err := g.source.GetBreakdown(ctx, championshipID)
	if err != nil {
		return nil, fmt.Errorf("breakdown: %w", err)
	}

	return &Report{
		GeneratedAt:    g.now(),
		ChampionshipID: championshipID,
		Teams:          teams,
		Drivers:        drivers,
		Breakdown:      breakdown,
	}, nil
}

// Render renders r in the given format.
func Render(r *Report, format Format) (string, error) {
	switch format {
	case FormatMarkdown:
		return RenderMarkdown(r), nil
	case FormatCSV:
		return RenderCSV(r.Teams)
	default:
		return "", fmt.Errorf("unknown report format %q", format)
	}
}
