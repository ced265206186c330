package memory

import (
	"context"
	"sort"

	"championship-engine/internal/domain"
	"championship-engine/internal/storage"
)

// ResultStore is an in-memory implementation of storage.ResultStore.
type ResultStore struct {
	v view
}

// NewResultStore creates an autocommit result store over db.
func NewResultStore(db *DB) *ResultStore {
	return &ResultStore{v: view{db: db}}
}

// Insert adds a new result. Returns ErrDuplicateKey if (race_id, team_id) exists.
func (s *ResultStore) Insert(_ context.Context, r *domain.RaceResult) error {
	if r == nil || r.RaceID == "" || r.TeamID == "" {
		return storage.ErrInvalidInput
	}

	return s.v.write(func(st *state) error {
		if r.ID != "" {
			if _, exists := st.results[r.ID]; exists {
				return storage.ErrDuplicateKey
			}
		}
		for _, row := range st.results {
			if row.result.RaceID == r.RaceID && row.result.TeamID == r.TeamID {
				return storage.ErrDuplicateKey
			}
		}

		if r.ID == "" {
			r.ID = newID()
		}
		now := nowMs()
		if r.CreatedAt == 0 {
			r.CreatedAt = now
		}
		r.UpdatedAt = r.CreatedAt
		st.results[r.ID] = &resultRow{seq: st.nextSeq(), result: copyResult(r)}
		return nil
	})
}

// Update overwrites all mutable columns of an existing result.
func (s *ResultStore) Update(_ context.Context, r *domain.RaceResult) error {
	if r == nil {
		return storage.ErrInvalidInput
	}

	return s.v.write(func(st *state) error {
		row, exists := st.results[r.ID]
		if !exists {
			return storage.ErrNotFound
		}
		for id, other := range st.results {
			if id != r.ID && other.result.RaceID == r.RaceID && other.result.TeamID == r.TeamID {
				return storage.ErrDuplicateKey
			}
		}

		r.CreatedAt = row.result.CreatedAt
		r.UpdatedAt = nowMs()
		row.result = copyResult(r)
		return nil
	})
}

// Delete removes a result and nulls result_id on penalties referencing it.
func (s *ResultStore) Delete(_ context.Context, id string) error {
	return s.v.write(func(st *state) error {
		if _, exists := st.results[id]; !exists {
			return storage.ErrNotFound
		}
		delete(st.results, id)

		for _, row := range st.penalties {
			if row.penalty.ResultID != nil && *row.penalty.ResultID == id {
				row.penalty.ResultID = nil
			}
		}
		return nil
	})
}

// SetDSQ overwrites the dsq flag of a result.
func (s *ResultStore) SetDSQ(_ context.Context, id string, dsq bool) error {
	return s.v.write(func(st *state) error {
		row, exists := st.results[id]
		if !exists {
			return storage.ErrNotFound
		}
		if row.result.DSQ != dsq {
			row.result.DSQ = dsq
			row.result.UpdatedAt = nowMs()
		}
		return nil
	})
}

// GetByID retrieves a result by its ID. Returns ErrNotFound if not exists.
func (s *ResultStore) GetByID(_ context.Context, id string) (*domain.RaceResult, error) {
	var out *domain.RaceResult
	err := s.v.read(func(st *state) error {
		row, exists := st.results[id]
		if !exists {
			return storage.ErrNotFound
		}
		cp := copyResult(&row.result)
		out = &cp
		return nil
	})
	return out, err
}

// GetByRaceAndTeam retrieves the result of a team in a race.
func (s *ResultStore) GetByRaceAndTeam(_ context.Context, raceID, teamID string) (*domain.RaceResult, error) {
	var out *domain.RaceResult
	err := s.v.read(func(st *state) error {
		for _, row := range st.results {
			if row.result.RaceID == raceID && row.result.TeamID == teamID {
				cp := copyResult(&row.result)
				out = &cp
				return nil
			}
		}
		return storage.ErrNotFound
	})
	return out, err
}

// GetByRace retrieves all results of a race, ordered by position ASC, then creation order.
func (s *ResultStore) GetByRace(_ context.Context, raceID string) ([]*domain.RaceResult, error) {
	var result []*domain.RaceResult
	err := s.v.read(func(st *state) error {
		var rows []*resultRow
		for _, row := range st.results {
			if row.result.RaceID == raceID {
				rows = append(rows, row)
			}
		}
		sort.Slice(rows, func(i, j int) bool {
			if rows[i].result.Position != rows[j].result.Position {
				return rows[i].result.Position < rows[j].result.Position
			}
			return rows[i].seq < rows[j].seq
		})
		result = resultsOf(rows)
		return nil
	})
	return result, err
}

// PositionTaken reports whether a non-DSQ result other than excludeID holds position in the race.
func (s *ResultStore) PositionTaken(_ context.Context, raceID string, position int, excludeID string) (bool, error) {
	var taken bool
	err := s.v.read(func(st *state) error {
		for id, row := range st.results {
			if id == excludeID || row.result.DSQ {
				continue
			}
			if row.result.RaceID == raceID && row.result.Position == position {
				taken = true
				return nil
			}
		}
		return nil
	})
	return taken, err
}

// GetByChampionship retrieves all results of a championship ordered by
// round_number, position, then creation order.
func (s *ResultStore) GetByChampionship(_ context.Context, championshipID string) ([]*domain.RaceResult, error) {
	var result []*domain.RaceResult
	err := s.v.read(func(st *state) error {
		var rows []*resultRow
		for _, row := range st.results {
			race, exists := st.races[row.result.RaceID]
			if exists && race.ChampionshipID == championshipID {
				rows = append(rows, row)
			}
		}
		sort.Slice(rows, func(i, j int) bool {
			ri := st.races[rows[i].result.RaceID].RoundNumber
			rj := st.races[rows[j].result.RaceID].RoundNumber
			if ri != rj {
				return ri < rj
			}
			if rows[i].result.Position != rows[j].result.Position {
				return rows[i].result.Position < rows[j].result.Position
			}
			return rows[i].seq < rows[j].seq
		})
		result = resultsOf(rows)
		return nil
	})
	return result, err
}

func resultsOf(rows []*resultRow) []*domain.RaceResult {
	result := make([]*domain.RaceResult, 0, len(rows))
	for _, row := range rows {
		cp := copyResult(&row.result)
		result = append(result, &cp)
	}
	return result
}

// Verify interface compliance at compile time.
var _ storage.ResultStore = (*ResultStore)(nil)
