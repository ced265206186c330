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

// ResultStore implements storage.ResultStore using PostgreSQL.
type ResultStore struct {
	db querier
}

// NewResultStore creates a new ResultStore.
func NewResultStore(pool *Pool) *ResultStore {
	return &ResultStore{db: pool}
}

// Compile-time interface check.
var _ storage.ResultStore = (*ResultStore)(nil)

const resultColumns = `
	rr.id, rr.race_id, rr.team_id, rr.driver_id, rr.position, rr.points,
	rr.laps_completed, rr.fastest_lap, rr.dnf, rr.dsq, rr.notes,
	rr.created_at, rr.updated_at
`

// Insert adds a new result. Returns ErrDuplicateKey if (race_id, team_id) exists.
func (s *ResultStore) Insert(ctx context.Context, r *domain.RaceResult) error {
	if r == nil || r.RaceID == "" || r.TeamID == "" {
		return storage.ErrInvalidInput
	}
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.CreatedAt == 0 {
		r.CreatedAt = time.Now().UnixMilli()
	}
	r.UpdatedAt = r.CreatedAt

	query := `
		INSERT INTO race_results (
			id, race_id, team_id, driver_id, position, points,
			laps_completed, fastest_lap, dnf, dsq, notes,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := s.db.Exec(ctx, query,
		r.ID, r.RaceID, r.TeamID, r.DriverID, r.Position, r.Points,
		r.LapsCompleted, r.FastestLap, r.DNF, r.DSQ, r.Notes,
		r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		if isForeignKeyError(err) {
			return storage.ErrInvalidInput
		}
		return fmt.Errorf("insert race result: %w", err)
	}
	return nil
}

// Update overwrites all mutable columns of an existing result.
func (s *ResultStore) Update(ctx context.Context, r *domain.RaceResult) error {
	if r == nil {
		return storage.ErrInvalidInput
	}
	r.UpdatedAt = time.Now().UnixMilli()

	query := `
		UPDATE race_results SET
			race_id = $2, team_id = $3, driver_id = $4, position = $5, points = $6,
			laps_completed = $7, fastest_lap = $8, dnf = $9, dsq = $10, notes = $11,
			updated_at = $12
		WHERE id = $1
		RETURNING created_at
	`
	err := s.db.QueryRow(ctx, query,
		r.ID, r.RaceID, r.TeamID, r.DriverID, r.Position, r.Points,
		r.LapsCompleted, r.FastestLap, r.DNF, r.DSQ, r.Notes,
		r.UpdatedAt,
	).Scan(&r.CreatedAt)
	if err != nil {
		if isNotFoundError(err) {
			return storage.ErrNotFound
		}
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		if isForeignKeyError(err) {
			return storage.ErrInvalidInput
		}
		return fmt.Errorf("update race result: %w", err)
	}
	return nil
}

// Delete removes a result. The penalties.result_id foreign key is
// ON DELETE SET NULL, which detaches referencing penalties.
func (s *ResultStore) Delete(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM race_results WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete race result: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// SetDSQ overwrites the dsq flag of a result.
func (s *ResultStore) SetDSQ(ctx context.Context, id string, dsq bool) error {
	query := `
		UPDATE race_results
		SET dsq = $2,
			updated_at = CASE WHEN dsq = $2 THEN updated_at ELSE $3 END
		WHERE id = $1
	`
	tag, err := s.db.Exec(ctx, query, id, dsq, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("set dsq: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// GetByID retrieves a result by its ID. Returns ErrNotFound if not exists.
func (s *ResultStore) GetByID(ctx context.Context, id string) (*domain.RaceResult, error) {
	query := `SELECT ` + resultColumns + ` FROM race_results rr WHERE rr.id = $1`

	r, err := scanResult(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get race result by id: %w", err)
	}
	return r, nil
}

// GetByRaceAndTeam retrieves the result of a team in a race.
func (s *ResultStore) GetByRaceAndTeam(ctx context.Context, raceID, teamID string) (*domain.RaceResult, error) {
	query := `SELECT ` + resultColumns + ` FROM race_results rr WHERE rr.race_id = $1 AND rr.team_id = $2`

	r, err := scanResult(s.db.QueryRow(ctx, query, raceID, teamID))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get race result by race and team: %w", err)
	}
	return r, nil
}

// GetByRace retrieves all results of a race, ordered by position ASC, then creation order.
func (s *ResultStore) GetByRace(ctx context.Context, raceID string) ([]*domain.RaceResult, error) {
	query := `
		SELECT ` + resultColumns + `
		FROM race_results rr
		WHERE rr.race_id = $1
		ORDER BY rr.position ASC, rr.seq ASC
	`

	rows, err := s.db.Query(ctx, query, raceID)
	if err != nil {
		return nil, fmt.Errorf("get race results by race: %w", err)
	}
	defer rows.Close()

	return scanResults(rows)
}

// PositionTaken reports whether a non-DSQ result other than excludeID holds position in the race.
func (s *ResultStore) PositionTaken(ctx context.Context, raceID string, position int, excludeID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM race_results
			WHERE race_id = $1 AND position = $2 AND NOT dsq AND id <> $3
		)
	`

	var taken bool
	if err := s.db.QueryRow(ctx, query, raceID, position, excludeID).Scan(&taken); err != nil {
		return false, fmt.Errorf("check position: %w", err)
	}
	return taken, nil
}

// GetByChampionship retrieves all results of a championship ordered by
// round_number, position, then creation order.
func (s *ResultStore) GetByChampionship(ctx context.Context, championshipID string) ([]*domain.RaceResult, error) {
	query := `
		SELECT ` + resultColumns + `
		FROM race_results rr
		JOIN races r ON r.id = rr.race_id
		WHERE r.championship_id = $1
		ORDER BY r.round_number ASC, rr.position ASC, rr.seq ASC
	`

	rows, err := s.db.Query(ctx, query, championshipID)
	if err != nil {
		return nil, fmt.Errorf("get race results by championship: %w", err)
	}
	defer rows.Close()

	return scanResults(rows)
}

func scanResult(row pgx.Row) (*domain.RaceResult, error) {
	var r domain.RaceResult
	err := row.Scan(
		&r.ID, &r.RaceID, &r.TeamID, &r.DriverID, &r.Position, &r.Points,
		&r.LapsCompleted, &r.FastestLap, &r.DNF, &r.DSQ, &r.Notes,
		&r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func scanResults(rows pgx.Rows) ([]*domain.RaceResult, error) {
	var result []*domain.RaceResult
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, fmt.Errorf("scan race result: %w", err)
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate race results: %w", err)
	}
	return result, nil
}
