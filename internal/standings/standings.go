// Package standings aggregates race results and penalties into ranked
// championship tables. Every function is pure; nothing is cached.
package standings

import (
	"sort"

	"github.com/shopspring/decimal"

	"championship-engine/internal/domain"
)

// Input is everything the calculator reads for one championship.
//
// Results are expected in (round_number, position, creation) order and
// Penalties in creation order, as the stores return them. Ties keep the
// order in which subjects first appear in Results.
type Input struct {
	Races     []*domain.Race
	Results   []*domain.RaceResult
	Penalties []*domain.Penalty
}

// Row is a standing together with its per-race ledger.
type Row struct {
	domain.Standing
	RacePoints []domain.RacePoints
}

// Breakdown is the per-race view of a championship.
type Breakdown struct {
	Races   []*domain.Race
	Teams   []Row
	Drivers []Row
}

// subjectFunc extracts the grouping key of a result; ok=false skips it.
type subjectFunc func(r *domain.RaceResult) (id string, ok bool)

func byTeam(r *domain.RaceResult) (string, bool) {
	return r.TeamID, true
}

func byDriver(r *domain.RaceResult) (string, bool) {
	if r.DriverID == nil {
		return "", false
	}
	return *r.DriverID, true
}

// tally accumulates one subject.
type tally struct {
	id     string
	total  decimal.Decimal
	scored int
	wins   int
	ledger []domain.RacePoints
}

func (t *tally) add(r *domain.RaceResult) {
	if r.Scores() {
		t.total = t.total.Add(decimal.NewFromFloat(r.Points))
		t.scored++
	}
	if r.IsWin() {
		t.wins++
	}
}

// group folds results into tallies in first-appearance order.
func group(results []*domain.RaceResult, subject subjectFunc, keep func(r *domain.RaceResult) bool) ([]*tally, map[string]*tally) {
	var order []*tally
	index := make(map[string]*tally)
	for _, r := range results {
		if !keep(r) {
			continue
		}
		id, ok := subject(r)
		if !ok {
			continue
		}
		t, exists := index[id]
		if !exists {
			t = &tally{id: id}
			index[id] = t
			order = append(order, t)
		}
		t.add(r)
	}
	return order, index
}

// rank sorts tallies by total descending, keeping input order for ties,
// and assigns 1-indexed positions.
func rank(tallies []*tally) []Row {
	sort.SliceStable(tallies, func(i, j int) bool {
		return tallies[i].total.GreaterThan(tallies[j].total)
	})

	rows := make([]Row, 0, len(tallies))
	for i, t := range tallies {
		rows = append(rows, Row{
			Standing: domain.Standing{
				Position:    i + 1,
				SubjectID:   t.id,
				TotalPoints: t.total.InexactFloat64(),
				RacesScored: t.scored,
				Wins:        t.wins,
			},
			RacePoints: t.ledger,
		})
	}
	return rows
}

func flat(in Input, subject subjectFunc, penaltySubject func(p *domain.Penalty) (string, bool)) []domain.Standing {
	tallies, index := group(in.Results, subject, (*domain.RaceResult).Scores)

	for _, p := range in.Penalties {
		d := p.Deduction()
		if d == 0 {
			continue
		}
		id, ok := penaltySubject(p)
		if !ok {
			continue
		}
		if t, exists := index[id]; exists {
			t.total = t.total.Sub(decimal.NewFromFloat(d))
		}
	}

	rows := rank(tallies)
	out := make([]domain.Standing, len(rows))
	for i, row := range rows {
		out[i] = row.Standing
	}
	return out
}

// Teams ranks teams by the sum of their non-DSQ points minus active
// points deductions against the team. Teams without a scoring result are
// omitted.
func Teams(in Input) []domain.Standing {
	return flat(in, byTeam, func(p *domain.Penalty) (string, bool) {
		return p.TeamID, true
	})
}

// Drivers ranks drivers like Teams. Results without a driver are skipped
// and deductions apply to the penalty's driver.
func Drivers(in Input) []domain.Standing {
	return flat(in, byDriver, func(p *domain.Penalty) (string, bool) {
		if p.DriverID == nil {
			return "", false
		}
		return *p.DriverID, true
	})
}

// Compute builds the per-race breakdown over finished races.
//
// Every team or driver with a result in a finished race gets a row, DSQ
// rows included with zero points. Totals do not subtract deductions.
func Compute(in Input) Breakdown {
	var races []*domain.Race
	finished := make(map[string]bool)
	for _, race := range in.Races {
		if race.IsFinished() {
			races = append(races, race)
			finished[race.ID] = true
		}
	}
	sort.SliceStable(races, func(i, j int) bool {
		return races[i].RoundNumber < races[j].RoundNumber
	})

	inFinished := func(r *domain.RaceResult) bool {
		return finished[r.RaceID]
	}

	return Breakdown{
		Races:   races,
		Teams:   ledger(races, in.Results, byTeam, inFinished),
		Drivers: ledger(races, in.Results, byDriver, inFinished),
	}
}

func ledger(races []*domain.Race, results []*domain.RaceResult, subject subjectFunc, keep func(r *domain.RaceResult) bool) []Row {
	tallies, index := group(results, subject, keep)

	// Ledger entries follow race order, not result order.
	for _, race := range races {
		for _, r := range results {
			if r.RaceID != race.ID {
				continue
			}
			id, ok := subject(r)
			if !ok {
				continue
			}
			points := r.Points
			if r.DSQ {
				points = 0
			}
			t := index[id]
			t.ledger = append(t.ledger, domain.RacePoints{
				RaceID:   race.ID,
				Points:   points,
				Position: r.Position,
				DSQ:      r.DSQ,
			})
		}
	}

	return rank(tallies)
}
