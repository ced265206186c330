package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"championship-engine/internal/domain"
	"championship-engine/internal/storage"
)

// ChampionshipStore implements storage.ChampionshipStore using PostgreSQL.
type ChampionshipStore struct {
	db querier
}

// NewChampionshipStore creates a new ChampionshipStore.
func NewChampionshipStore(pool *Pool) *ChampionshipStore {
	return &ChampionshipStore{db: pool}
}

// Compile-time interface check.
var _ storage.ChampionshipStore = (*ChampionshipStore)(nil)

// Insert adds a new championship. Returns ErrDuplicateKey if id or name exists.
func (s *ChampionshipStore) Insert(ctx context.Context, c *domain.Championship) error {
	if c == nil || c.Name == "" {
		return storage.ErrInvalidInput
	}
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.CreatedAt == 0 {
		c.CreatedAt = time.Now().UnixMilli()
	}

	query := `
		INSERT INTO championships (id, name, display_name, season_year, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.Exec(ctx, query, c.ID, c.Name, c.DisplayName, c.SeasonYear, string(c.Status), c.CreatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert championship: %w", err)
	}
	return nil
}

// GetByID retrieves a championship by its ID. Returns ErrNotFound if not exists.
func (s *ChampionshipStore) GetByID(ctx context.Context, id string) (*domain.Championship, error) {
	query := `
		SELECT id, name, display_name, season_year, status, created_at
		FROM championships
		WHERE id = $1
	`

	var c domain.Championship
	var status string
	err := s.db.QueryRow(ctx, query, id).Scan(&c.ID, &c.Name, &c.DisplayName, &c.SeasonYear, &status, &c.CreatedAt)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get championship by id: %w", err)
	}
	c.Status = domain.ChampionshipStatus(status)
	return &c, nil
}

// TeamStore implements storage.TeamStore using PostgreSQL.
type TeamStore struct {
	db querier
}

// NewTeamStore creates a new TeamStore.
func NewTeamStore(pool *Pool) *TeamStore {
	return &TeamStore{db: pool}
}

// Compile-time interface check.
var _ storage.TeamStore = (*TeamStore)(nil)

// Insert adds a new team. Returns ErrDuplicateKey if id or name exists.
func (s *TeamStore) Insert(ctx context.Context, t *domain.Team) error {
	if t == nil || t.Name == "" {
		return storage.ErrInvalidInput
	}
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.CreatedAt == 0 {
		t.CreatedAt = time.Now().UnixMilli()
	}

	query := `
		INSERT INTO teams (id, name, display_name, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.Exec(ctx, query, t.ID, t.Name, t.DisplayName, t.IsActive, t.CreatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert team: %w", err)
	}
	return nil
}

// GetByID retrieves a team by its ID. Returns ErrNotFound if not exists.
func (s *TeamStore) GetByID(ctx context.Context, id string) (*domain.Team, error) {
	query := `
		SELECT id, name, display_name, is_active, created_at
		FROM teams
		WHERE id = $1
	`

	var t domain.Team
	err := s.db.QueryRow(ctx, query, id).Scan(&t.ID, &t.Name, &t.DisplayName, &t.IsActive, &t.CreatedAt)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get team by id: %w", err)
	}
	return &t, nil
}

// DriverStore implements storage.DriverStore using PostgreSQL.
type DriverStore struct {
	db querier
}

// NewDriverStore creates a new DriverStore.
func NewDriverStore(pool *Pool) *DriverStore {
	return &DriverStore{db: pool}
}

// Compile-time interface check.
var _ storage.DriverStore = (*DriverStore)(nil)

// Insert adds a new driver. Returns ErrDuplicateKey if id, name or abbreviation
// exists, ErrInvalidInput if the team does not exist.
func (s *DriverStore) Insert(ctx context.Context, d *domain.Driver) error {
	if d == nil || d.Name == "" || d.TeamID == "" {
		return storage.ErrInvalidInput
	}
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	if d.CreatedAt == 0 {
		d.CreatedAt = time.Now().UnixMilli()
	}

	query := `
		INSERT INTO drivers (id, name, display_name, abbreviation, number, team_id, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.Exec(ctx, query,
		d.ID, d.Name, d.DisplayName, nullIfEmpty(d.Abbreviation), d.Number, d.TeamID, d.IsActive, d.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		if isForeignKeyError(err) {
			return storage.ErrInvalidInput
		}
		return fmt.Errorf("insert driver: %w", err)
	}
	return nil
}

// GetByID retrieves a driver by its ID. Returns ErrNotFound if not exists.
func (s *DriverStore) GetByID(ctx context.Context, id string) (*domain.Driver, error) {
	query := `
		SELECT id, name, display_name, abbreviation, number, team_id, is_active, created_at
		FROM drivers
		WHERE id = $1
	`

	var d domain.Driver
	var abbreviation *string
	err := s.db.QueryRow(ctx, query, id).Scan(
		&d.ID, &d.Name, &d.DisplayName, &abbreviation, &d.Number, &d.TeamID, &d.IsActive, &d.CreatedAt,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get driver by id: %w", err)
	}
	if abbreviation != nil {
		d.Abbreviation = *abbreviation
	}
	return &d, nil
}

// RaceStore implements storage.RaceStore using PostgreSQL.
type RaceStore struct {
	db querier
}

// NewRaceStore creates a new RaceStore.
func NewRaceStore(pool *Pool) *RaceStore {
	return &RaceStore{db: pool}
}

// Compile-time interface check.
var _ storage.RaceStore = (*RaceStore)(nil)

// Insert adds a new race. Returns ErrDuplicateKey if id exists,
// ErrInvalidInput if the championship does not exist.
func (s *RaceStore) Insert(ctx context.Context, r *domain.Race) error {
	if r == nil || r.ChampionshipID == "" || !r.Status.IsValid() {
		return storage.ErrInvalidInput
	}
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.CreatedAt == 0 {
		r.CreatedAt = time.Now().UnixMilli()
	}

	query := `
		INSERT INTO races (id, championship_id, name, display_name, round_number, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.Exec(ctx, query,
		r.ID, r.ChampionshipID, r.Name, r.DisplayName, r.RoundNumber, string(r.Status), r.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		if isForeignKeyError(err) {
			return storage.ErrInvalidInput
		}
		return fmt.Errorf("insert race: %w", err)
	}
	return nil
}

const raceColumns = `id, championship_id, name, display_name, round_number, status, created_at`

// GetByID retrieves a race by its ID. Returns ErrNotFound if not exists.
func (s *RaceStore) GetByID(ctx context.Context, id string) (*domain.Race, error) {
	query := `SELECT ` + raceColumns + ` FROM races WHERE id = $1`

	r, err := scanRace(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get race by id: %w", err)
	}
	return r, nil
}

// GetByChampionship retrieves all races of a championship, ordered by round_number ASC.
func (s *RaceStore) GetByChampionship(ctx context.Context, championshipID string) ([]*domain.Race, error) {
	query := `
		SELECT ` + raceColumns + `
		FROM races
		WHERE championship_id = $1
		ORDER BY round_number ASC, id ASC
	`

	rows, err := s.db.Query(ctx, query, championshipID)
	if err != nil {
		return nil, fmt.Errorf("get races by championship: %w", err)
	}
	defer rows.Close()

	var result []*domain.Race
	for rows.Next() {
		r, err := scanRace(rows)
		if err != nil {
			return nil, fmt.Errorf("scan race: %w", err)
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate races: %w", err)
	}
	return result, nil
}

// Enroll registers a team for a race. Enrolling twice is a no-op.
func (s *RaceStore) Enroll(ctx context.Context, raceID, teamID string) error {
	query := `
		INSERT INTO race_entries (race_id, team_id)
		VALUES ($1, $2)
		ON CONFLICT (race_id, team_id) DO NOTHING
	`
	if _, err := s.db.Exec(ctx, query, raceID, teamID); err != nil {
		if isForeignKeyError(err) {
			return storage.ErrInvalidInput
		}
		return fmt.Errorf("enroll team: %w", err)
	}
	return nil
}

// IsEnrolled reports whether the team is registered for the race.
func (s *RaceStore) IsEnrolled(ctx context.Context, raceID, teamID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM race_entries WHERE race_id = $1 AND team_id = $2)`

	var enrolled bool
	if err := s.db.QueryRow(ctx, query, raceID, teamID).Scan(&enrolled); err != nil {
		return false, fmt.Errorf("check enrollment: %w", err)
	}
	return enrolled, nil
}

func scanRace(row pgx.Row) (*domain.Race, error) {
	var r domain.Race
	var status string
	err := row.Scan(&r.ID, &r.ChampionshipID, &r.Name, &r.DisplayName, &r.RoundNumber, &status, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	r.Status = domain.RaceStatus(status)
	return &r, nil
}
