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

// PenaltyStore implements storage.PenaltyStore using PostgreSQL.
type PenaltyStore struct {
	db querier
}

// NewPenaltyStore creates a new PenaltyStore.
func NewPenaltyStore(pool *Pool) *PenaltyStore {
	return &PenaltyStore{db: pool}
}

// Compile-time interface check.
var _ storage.PenaltyStore = (*PenaltyStore)(nil)

const penaltyColumns = `
	p.id, p.race_id, p.team_id, p.driver_id, p.result_id, p.penalty_type,
	p.reason, p.points_deducted, p.time_penalty_seconds, p.lap_number,
	p.is_active, p.created_at, p.updated_at
`

// Insert adds a new penalty. Returns ErrDuplicateKey if id exists.
func (s *PenaltyStore) Insert(ctx context.Context, p *domain.Penalty) error {
	if p == nil || p.RaceID == "" || p.TeamID == "" || !p.Type.IsValid() {
		return storage.ErrInvalidInput
	}
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.CreatedAt == 0 {
		p.CreatedAt = time.Now().UnixMilli()
	}
	p.UpdatedAt = p.CreatedAt

	query := `
		INSERT INTO penalties (
			id, race_id, team_id, driver_id, result_id, penalty_type,
			reason, points_deducted, time_penalty_seconds, lap_number,
			is_active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := s.db.Exec(ctx, query,
		p.ID, p.RaceID, p.TeamID, p.DriverID, p.ResultID, p.Type.String(),
		p.Reason, p.PointsDeducted, p.TimePenaltySeconds, p.LapNumber,
		p.IsActive, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		if isForeignKeyError(err) {
			return storage.ErrInvalidInput
		}
		return fmt.Errorf("insert penalty: %w", err)
	}
	return nil
}

// Update overwrites all mutable columns of an existing penalty.
func (s *PenaltyStore) Update(ctx context.Context, p *domain.Penalty) error {
	if p == nil || !p.Type.IsValid() {
		return storage.ErrInvalidInput
	}
	p.UpdatedAt = time.Now().UnixMilli()

	query := `
		UPDATE penalties SET
			race_id = $2, team_id = $3, driver_id = $4, result_id = $5, penalty_type = $6,
			reason = $7, points_deducted = $8, time_penalty_seconds = $9, lap_number = $10,
			is_active = $11, updated_at = $12
		WHERE id = $1
		RETURNING created_at
	`
	err := s.db.QueryRow(ctx, query,
		p.ID, p.RaceID, p.TeamID, p.DriverID, p.ResultID, p.Type.String(),
		p.Reason, p.PointsDeducted, p.TimePenaltySeconds, p.LapNumber,
		p.IsActive, p.UpdatedAt,
	).Scan(&p.CreatedAt)
	if err != nil {
		if isNotFoundError(err) {
			return storage.ErrNotFound
		}
		if isForeignKeyError(err) {
			return storage.ErrInvalidInput
		}
		return fmt.Errorf("update penalty: %w", err)
	}
	return nil
}

// Delete removes a penalty. Returns ErrNotFound if not exists.
func (s *PenaltyStore) Delete(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM penalties WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete penalty: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// GetByID retrieves a penalty by its ID. Returns ErrNotFound if not exists.
func (s *PenaltyStore) GetByID(ctx context.Context, id string) (*domain.Penalty, error) {
	query := `SELECT ` + penaltyColumns + ` FROM penalties p WHERE p.id = $1`

	p, err := scanPenalty(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get penalty by id: %w", err)
	}
	return p, nil
}

// GetByRace retrieves all penalties of a race in creation order.
func (s *PenaltyStore) GetByRace(ctx context.Context, raceID string) ([]*domain.Penalty, error) {
	query := `
		SELECT ` + penaltyColumns + `
		FROM penalties p
		WHERE p.race_id = $1
		ORDER BY p.seq ASC
	`

	rows, err := s.db.Query(ctx, query, raceID)
	if err != nil {
		return nil, fmt.Errorf("get penalties by race: %w", err)
	}
	defer rows.Close()

	return scanPenalties(rows)
}

// CountActiveDisqualifications counts active disqualification penalties referencing resultID.
func (s *PenaltyStore) CountActiveDisqualifications(ctx context.Context, resultID string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM penalties
		WHERE result_id = $1 AND is_active AND penalty_type = $2
	`

	var count int
	err := s.db.QueryRow(ctx, query, resultID, domain.PenaltyDisqualification.String()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count active disqualifications: %w", err)
	}
	return count, nil
}

// GetActiveByChampionship retrieves all active penalties of a championship in creation order.
func (s *PenaltyStore) GetActiveByChampionship(ctx context.Context, championshipID string) ([]*domain.Penalty, error) {
	query := `
		SELECT ` + penaltyColumns + `
		FROM penalties p
		JOIN races r ON r.id = p.race_id
		WHERE r.championship_id = $1 AND p.is_active
		ORDER BY p.seq ASC
	`

	rows, err := s.db.Query(ctx, query, championshipID)
	if err != nil {
		return nil, fmt.Errorf("get active penalties by championship: %w", err)
	}
	defer rows.Close()

	return scanPenalties(rows)
}

func scanPenalty(row pgx.Row) (*domain.Penalty, error) {
	var p domain.Penalty
	var penaltyType string
	err := row.Scan(
		&p.ID, &p.RaceID, &p.TeamID, &p.DriverID, &p.ResultID, &penaltyType,
		&p.Reason, &p.PointsDeducted, &p.TimePenaltySeconds, &p.LapNumber,
		&p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.Type, err = domain.ParsePenaltyType(penaltyType)
	if err != nil {
		return nil, fmt.Errorf("scan penalty %s: %w", p.ID, err)
	}
	return &p, nil
}

func scanPenalties(rows pgx.Rows) ([]*domain.Penalty, error) {
	var result []*domain.Penalty
	for rows.Next() {
		p, err := scanPenalty(rows)
		if err != nil {
			return nil, fmt.Errorf("scan penalty: %w", err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate penalties: %w", err)
	}
	return result, nil
}
