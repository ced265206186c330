package memory

import (
	"context"
	"sort"

	"championship-engine/internal/domain"
	"championship-engine/internal/storage"
)

// PenaltyStore is an in-memory implementation of storage.PenaltyStore.
type PenaltyStore struct {
	v view
}

// NewPenaltyStore creates an autocommit penalty store over db.
func NewPenaltyStore(db *DB) *PenaltyStore {
	return &PenaltyStore{v: view{db: db}}
}

// Insert adds a new penalty. Returns ErrDuplicateKey if id exists.
func (s *PenaltyStore) Insert(_ context.Context, p *domain.Penalty) error {
	if p == nil || p.RaceID == "" || p.TeamID == "" || !p.Type.IsValid() {
		return storage.ErrInvalidInput
	}

	return s.v.write(func(st *state) error {
		if p.ID != "" {
			if _, exists := st.penalties[p.ID]; exists {
				return storage.ErrDuplicateKey
			}
		}
		if p.ResultID != nil {
			if _, exists := st.results[*p.ResultID]; !exists {
				return storage.ErrInvalidInput
			}
		}

		if p.ID == "" {
			p.ID = newID()
		}
		if p.CreatedAt == 0 {
			p.CreatedAt = nowMs()
		}
		p.UpdatedAt = p.CreatedAt
		st.penalties[p.ID] = &penaltyRow{seq: st.nextSeq(), penalty: copyPenalty(p)}
		return nil
	})
}

// Update overwrites all mutable columns of an existing penalty.
func (s *PenaltyStore) Update(_ context.Context, p *domain.Penalty) error {
	if p == nil || !p.Type.IsValid() {
		return storage.ErrInvalidInput
	}

	return s.v.write(func(st *state) error {
		row, exists := st.penalties[p.ID]
		if !exists {
			return storage.ErrNotFound
		}
		if p.ResultID != nil {
			if _, exists := st.results[*p.ResultID]; !exists {
				return storage.ErrInvalidInput
			}
		}

		p.CreatedAt = row.penalty.CreatedAt
		p.UpdatedAt = nowMs()
		row.penalty = copyPenalty(p)
		return nil
	})
}

// Delete removes a penalty. Returns ErrNotFound if not exists.
func (s *PenaltyStore) Delete(_ context.Context, id string) error {
	return s.v.write(func(st *state) error {
		if _, exists := st.penalties[id]; !exists {
			return storage.ErrNotFound
		}
		delete(st.penalties, id)
		return nil
	})
}

// GetByID retrieves a penalty by its ID. Returns ErrNotFound if not exists.
func (s *PenaltyStore) GetByID(_ context.Context, id string) (*domain.Penalty, error) {
	var out *domain.Penalty
	err := s.v.read(func(st *state) error {
		row, exists := st.penalties[id]
		if !exists {
			return storage.ErrNotFound
		}
		cp := copyPenalty(&row.penalty)
		out = &cp
		return nil
	})
	return out, err
}

// GetByRace retrieves all penalties of a race in creation order.
func (s *PenaltyStore) GetByRace(_ context.Context, raceID string) ([]*domain.Penalty, error) {
	var result []*domain.Penalty
	err := s.v.read(func(st *state) error {
		result = penaltiesWhere(st, func(p *domain.Penalty) bool {
			return p.RaceID == raceID
		})
		return nil
	})
	return result, err
}

// CountActiveDisqualifications counts active disqualification penalties referencing resultID.
func (s *PenaltyStore) CountActiveDisqualifications(_ context.Context, resultID string) (int, error) {
	var count int
	err := s.v.read(func(st *state) error {
		for _, row := range st.penalties {
			p := &row.penalty
			if p.IsActiveDisqualification() && p.ResultID != nil && *p.ResultID == resultID {
				count++
			}
		}
		return nil
	})
	return count, err
}

// GetActiveByChampionship retrieves all active penalties of a championship in creation order.
func (s *PenaltyStore) GetActiveByChampionship(_ context.Context, championshipID string) ([]*domain.Penalty, error) {
	var result []*domain.Penalty
	err := s.v.read(func(st *state) error {
		result = penaltiesWhere(st, func(p *domain.Penalty) bool {
			race, exists := st.races[p.RaceID]
			return p.IsActive && exists && race.ChampionshipID == championshipID
		})
		return nil
	})
	return result, err
}

func penaltiesWhere(st *state, keep func(p *domain.Penalty) bool) []*domain.Penalty {
	var rows []*penaltyRow
	for _, row := range st.penalties {
		if keep(&row.penalty) {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].seq < rows[j].seq
	})

	result := make([]*domain.Penalty, 0, len(rows))
	for _, row := range rows {
		cp := copyPenalty(&row.penalty)
		result = append(result, &cp)
	}
	return result
}

// Verify interface compliance at compile time.
var _ storage.PenaltyStore = (*PenaltyStore)(nil)
