package memory

import (
	"context"

	"championship-engine/internal/domain"
	"championship-engine/internal/storage"
)

// ChampionshipStore is an in-memory implementation of storage.ChampionshipStore.
type ChampionshipStore struct {
	v view
}

// NewChampionshipStore creates an autocommit championship store over db.
func NewChampionshipStore(db *DB) *ChampionshipStore {
	return &ChampionshipStore{v: view{db: db}}
}

// Insert adds a new championship. Returns ErrDuplicateKey if id or name exists.
func (s *ChampionshipStore) Insert(_ context.Context, c *domain.Championship) error {
	if c == nil || c.Name == "" {
		return storage.ErrInvalidInput
	}

	return s.v.write(func(st *state) error {
		if c.ID != "" {
			if _, exists := st.championships[c.ID]; exists {
				return storage.ErrDuplicateKey
			}
		}
		for _, existing := range st.championships {
			if existing.Name == c.Name {
				return storage.ErrDuplicateKey
			}
		}

		if c.ID == "" {
			c.ID = newID()
		}
		if c.CreatedAt == 0 {
			c.CreatedAt = nowMs()
		}
		cp := *c
		st.championships[c.ID] = &cp
		return nil
	})
}

// GetByID retrieves a championship by its ID. Returns ErrNotFound if not exists.
func (s *ChampionshipStore) GetByID(_ context.Context, id string) (*domain.Championship, error) {
	var out *domain.Championship
	err := s.v.read(func(st *state) error {
		c, exists := st.championships[id]
		if !exists {
			return storage.ErrNotFound
		}
		cp := *c
		out = &cp
		return nil
	})
	return out, err
}

// Verify interface compliance at compile time.
var _ storage.ChampionshipStore = (*ChampionshipStore)(nil)
