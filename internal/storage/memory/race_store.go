package memory

import (
	"context"
	"sort"

	"championship-engine/internal/domain"
	"championship-engine/internal/storage"
)

// RaceStore is an in-memory implementation of storage.RaceStore.
type RaceStore struct {
	v view
}

// NewRaceStore creates an autocommit race store over db.
func NewRaceStore(db *DB) *RaceStore {
	return &RaceStore{v: view{db: db}}
}

// Insert adds a new race. Returns ErrDuplicateKey if id exists,
// ErrInvalidInput if the championship does not exist.
func (s *RaceStore) Insert(_ context.Context, r *domain.Race) error {
	if r == nil || r.ChampionshipID == "" || !r.Status.IsValid() {
		return storage.ErrInvalidInput
	}

	return s.v.write(func(st *state) error {
		if _, exists := st.championships[r.ChampionshipID]; !exists {
			return storage.ErrInvalidInput
		}
		if r.ID != "" {
			if _, exists := st.races[r.ID]; exists {
				return storage.ErrDuplicateKey
			}
		}

		if r.ID == "" {
			r.ID = newID()
		}
		if r.CreatedAt == 0 {
			r.CreatedAt = nowMs()
		}
		cp := *r
		st.races[r.ID] = &cp
		return nil
	})
}

// GetByID retrieves a race by its ID. Returns ErrNotFound if not exists.
func (s *RaceStore) GetByID(_ context.Context, id string) (*domain.Race, error) {
	var out *domain.Race
	err := s.v.read(func(st *state) error {
		r, exists := st.races[id]
		if !exists {
			return storage.ErrNotFound
		}
		cp := *r
		out = &cp
		return nil
	})
	return out, err
}

// GetByChampionship retrieves all races of a championship, ordered by round_number ASC.
func (s *RaceStore) GetByChampionship(_ context.Context, championshipID string) ([]*domain.Race, error) {
	var result []*domain.Race
	err := s.v.read(func(st *state) error {
		result = racesOf(st, championshipID)
		return nil
	})
	return result, err
}

// Enroll registers a team for a race. Enrolling twice is a no-op.
func (s *RaceStore) Enroll(_ context.Context, raceID, teamID string) error {
	return s.v.write(func(st *state) error {
		if _, exists := st.races[raceID]; !exists {
			return storage.ErrInvalidInput
		}
		if _, exists := st.teams[teamID]; !exists {
			return storage.ErrInvalidInput
		}
		st.entries[entryKey{raceID: raceID, teamID: teamID}] = struct{}{}
		return nil
	})
}

// IsEnrolled reports whether the team is registered for the race.
func (s *RaceStore) IsEnrolled(_ context.Context, raceID, teamID string) (bool, error) {
	var enrolled bool
	err := s.v.read(func(st *state) error {
		_, enrolled = st.entries[entryKey{raceID: raceID, teamID: teamID}]
		return nil
	})
	return enrolled, err
}

// racesOf returns copies of the championship's races ordered by round_number.
func racesOf(st *state, championshipID string) []*domain.Race {
	var result []*domain.Race
	for _, r := range st.races {
		if r.ChampionshipID == championshipID {
			cp := *r
			result = append(result, &cp)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].RoundNumber != result[j].RoundNumber {
			return result[i].RoundNumber < result[j].RoundNumber
		}
		return result[i].ID < result[j].ID
	})
	return result
}

// Verify interface compliance at compile time.
var _ storage.RaceStore = (*RaceStore)(nil)
