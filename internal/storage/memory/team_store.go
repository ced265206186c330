package memory

import (
	"context"

	"championship-engine/internal/domain"
	"championship-engine/internal/storage"
)

// TeamStore is an in-memory implementation of storage.TeamStore.
type TeamStore struct {
	v view
}

// NewTeamStore creates an autocommit team store over db.
func NewTeamStore(db *DB) *TeamStore {
	return &TeamStore{v: view{db: db}}
}

// Insert adds a new team. Returns ErrDuplicateKey if id or name exists.
func (s *TeamStore) Insert(_ context.Context, t *domain.Team) error {
	if t == nil || t.Name == "" {
		return storage.ErrInvalidInput
	}

	return s.v.write(func(st *state) error {
		if t.ID != "" {
			if _, exists := st.teams[t.ID]; exists {
				return storage.ErrDuplicateKey
			}
		}
		for _, existing := range st.teams {
			if existing.Name == t.Name {
				return storage.ErrDuplicateKey
			}
		}

		if t.ID == "" {
			t.ID = newID()
		}
		if t.CreatedAt == 0 {
			t.CreatedAt = nowMs()
		}
		cp := *t
		st.teams[t.ID] = &cp
		return nil
	})
}

// GetByID retrieves a team by its ID. Returns ErrNotFound if not exists.
func (s *TeamStore) GetByID(_ context.Context, id string) (*domain.Team, error) {
	var out *domain.Team
	err := s.v.read(func(st *state) error {
		t, exists := st.teams[id]
		if !exists {
			return storage.ErrNotFound
		}
		cp := *t
		out = &cp
		return nil
	})
	return out, err
}

// DriverStore is an in-memory implementation of storage.DriverStore.
type DriverStore struct {
	v view
}

// NewDriverStore creates an autocommit driver store over db.
func NewDriverStore(db *DB) *DriverStore {
	return &DriverStore{v: view{db: db}}
}

// Insert adds a new driver. Returns ErrDuplicateKey if id, name or
// abbreviation exists, ErrInvalidInput if the team does not exist.
func (s *DriverStore) Insert(_ context.Context, d *domain.Driver) error {
	if d == nil || d.Name == "" || d.TeamID == "" {
		return storage.ErrInvalidInput
	}

	return s.v.write(func(st *state) error {
		if _, exists := st.teams[d.TeamID]; !exists {
			return storage.ErrInvalidInput
		}
		if d.ID != "" {
			if _, exists := st.drivers[d.ID]; exists {
				return storage.ErrDuplicateKey
			}
		}
		for _, existing := range st.drivers {
			if existing.Name == d.Name || (d.Abbreviation != "" && existing.Abbreviation == d.Abbreviation) {
				return storage.ErrDuplicateKey
			}
		}

		if d.ID == "" {
			d.ID = newID()
		}
		if d.CreatedAt == 0 {
			d.CreatedAt = nowMs()
		}
		cp := *d
		st.drivers[d.ID] = &cp
		return nil
	})
}

// GetByID retrieves a driver by its ID. Returns ErrNotFound if not exists.
func (s *DriverStore) GetByID(_ context.Context, id string) (*domain.Driver, error) {
	var out *domain.Driver
	err := s.v.read(func(st *state) error {
		d, exists := st.drivers[id]
		if !exists {
			return storage.ErrNotFound
		}
		cp := *d
		out = &cp
		return nil
	})
	return out, err
}

// Verify interface compliance at compile time.
var (
	_ storage.TeamStore   = (*TeamStore)(nil)
	_ storage.DriverStore = (*DriverStore)(nil)
)
