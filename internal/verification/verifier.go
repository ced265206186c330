// Package verification audits stored dsq flags against the active
// disqualification penalties that reference each result.
package verification

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"

	"championship-engine/internal/domain"
	"championship-engine/internal/dsq"
	"championship-engine/internal/storage"
)

// Divergence is a result carrying dsq=false while active disqualifications
// reference it. A dsq=true result without penalties is a manual
// disqualification and is not reported.
type Divergence struct {
	ResultID                string `json:"result_id"`
	RaceID                  string `json:"race_id"`
	TeamID                  string `json:"team_id"`
	StoredDSQ               bool   `json:"stored_dsq"`
	ActiveDisqualifications int    `json:"active_disqualifications"`
}

// PositionClash lists non-DSQ results of one race sharing a position.
// Lifting a disqualification reinstates the result without re-checking its
// position, so clashes are reported for manual resolution and never
// repaired.
type PositionClash struct {
	RaceID    string   `json:"race_id"`
	Position  int      `json:"position"`
	ResultIDs []string `json:"result_ids"`
}

// Report contains the audit of one championship.
type Report struct {
	ChampionshipID   string          `json:"championship_id"`
	TotalResults     int             `json:"total_results"`
	MatchedResults   int             `json:"matched_results"`
	DivergentResults int             `json:"divergent_results"`
	Divergences      []Divergence    `json:"divergences"`
	PositionClashes  []PositionClash `json:"position_clashes"`
	Repaired         int             `json:"repaired"`
}

// Verifier compares dsq flags with penalties.
type Verifier struct {
	s *storage.Stores
}

// NewVerifier creates a Verifier over s.
func NewVerifier(s *storage.Stores) *Verifier {
	return &Verifier{s: s}
}

// VerifyChampionship audits every result of the championship.
func (v *Verifier) VerifyChampionship(ctx context.Context, championshipID string) (*Report, error) {
	if _, err := v.s.Championships.GetByID(ctx, championshipID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, domain.NotFoundf("championship %s", championshipID)
		}
		return nil, fmt.Errorf("load championship: %w", err)
	}

	results, err := v.s.Results.GetByChampionship(ctx, championshipID)
	if err != nil {
		return nil, fmt.Errorf("load results: %w", err)
	}
	active, err := v.s.Penalties.GetActiveByChampionship(ctx, championshipID)
	if err != nil {
		return nil, fmt.Errorf("load penalties: %w", err)
	}

	counts := CountDisqualifications(active)

	report := &Report{
		ChampionshipID: championshipID,
		TotalResults:   len(results),
		Divergences:    []Divergence{},
	}
	for _, r := range results {
		if d, ok := Compare(r, counts[r.ID]); ok {
			report.Divergences = append(report.Divergences, d)
			continue
		}
		report.MatchedResults++
	}
	report.DivergentResults = len(report.Divergences)
	report.PositionClashes = FindPositionClashes(results)
	return report, nil
}

// Repair sets dsq on every divergent result of report.
func (v *Verifier) Repair(ctx context.Context, report *Report, opts ...dsq.Option) error {
	sync := dsq.NewSynchronizer(v.s.Results, v.s.Penalties, opts...)
	for _, d := range report.Divergences {
		out, err := sync.Sync(ctx, d.ResultID, dsq.Set)
		if err != nil {
			return fmt.Errorf("repair result %s: %w", d.ResultID, err)
		}
		if out == dsq.OutcomeSet {
			report.Repaired++
		}
	}
	return nil
}

// CountDisqualifications counts active disqualifications per result id.
func CountDisqualifications(penalties []*domain.Penalty) map[string]int {
	counts := make(map[string]int)
	for _, p := range penalties {
		if p.IsActiveDisqualification() && p.ResultID != nil {
			counts[*p.ResultID]++
		}
	}
	return counts
}

// Compare reports a divergence when active disqualifications reference r
// but its dsq flag is unset.
func Compare(r *domain.RaceResult, activeDisqualifications int) (Divergence, bool) {
	if activeDisqualifications == 0 || r.DSQ {
		return Divergence{}, false
	}
	return Divergence{
		ResultID:                r.ID,
		RaceID:                  r.RaceID,
		TeamID:                  r.TeamID,
		StoredDSQ:               r.DSQ,
		ActiveDisqualifications: activeDisqualifications,
	}, true
}

// FindPositionClashes groups non-DSQ results by race and position and
// returns the groups holding more than one result, ordered by race id then
// position.
func FindPositionClashes(results []*domain.RaceResult) []PositionClash {
	type slot struct {
		raceID   string
		position int
	}
	groups := make(map[slot][]string)
	for _, r := range results {
		if r.DSQ {
			continue
		}
		k := slot{r.RaceID, r.Position}
		groups[k] = append(groups[k], r.ID)
	}

	clashes := []PositionClash{}
	for k, ids := range groups {
		if len(ids) < 2 {
			continue
		}
		slices.Sort(ids)
		clashes = append(clashes, PositionClash{RaceID: k.raceID, Position: k.position, ResultIDs: ids})
	}
	slices.SortFunc(clashes, func(a, b PositionClash) int {
		return cmp.Or(cmp.Compare(a.RaceID, b.RaceID), cmp.Compare(a.Position, b.Position))
	})
	return clashes
}
