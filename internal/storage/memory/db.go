package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"championship-engine/internal/domain"
	"championship-engine/internal/storage"
)

// DB is the shared in-memory state behind all memory stores.
//
// Stores created with the New*Store constructors run every call as its own
// atomic operation. WithinTx runs a function against a private copy of the
// state and publishes the copy only when the function succeeds.
type DB struct {
	mu sync.RWMutex
	st *state
}

// NewDB creates an empty in-memory database.
func NewDB() *DB {
	return &DB{st: newState()}
}

type entryKey struct {
	raceID string
	teamID string
}

type resultRow struct {
	seq    int64
	result domain.RaceResult
}

type penaltyRow struct {
	seq     int64
	penalty domain.Penalty
}

type state struct {
	seq           int64
	championships map[string]*domain.Championship
	teams         map[string]*domain.Team
	drivers       map[string]*domain.Driver
	races         map[string]*domain.Race
	entries       map[entryKey]struct{}
	results       map[string]*resultRow
	penalties     map[string]*penaltyRow
}

func newState() *state {
	return &state{
		championships: make(map[string]*domain.Championship),
		teams:         make(map[string]*domain.Team),
		drivers:       make(map[string]*domain.Driver),
		races:         make(map[string]*domain.Race),
		entries:       make(map[entryKey]struct{}),
		results:       make(map[string]*resultRow),
		penalties:     make(map[string]*penaltyRow),
	}
}

// clone deep-copies the state so a transaction can be discarded.
func (s *state) clone() *state {
	c := newState()
	c.seq = s.seq
	for k, v := range s.championships {
		cp := *v
		c.championships[k] = &cp
	}
	for k, v := range s.teams {
		cp := *v
		c.teams[k] = &cp
	}
	for k, v := range s.drivers {
		cp := *v
		c.drivers[k] = &cp
	}
	for k, v := range s.races {
		cp := *v
		c.races[k] = &cp
	}
	for k := range s.entries {
		c.entries[k] = struct{}{}
	}
	for k, v := range s.results {
		c.results[k] = &resultRow{seq: v.seq, result: copyResult(&v.result)}
	}
	for k, v := range s.penalties {
		c.penalties[k] = &penaltyRow{seq: v.seq, penalty: copyPenalty(&v.penalty)}
	}
	return c
}

func (s *state) nextSeq() int64 {
	s.seq++
	return s.seq
}

// view binds a store to either the live state (autocommit) or a
// transaction snapshot.
type view struct {
	db *DB
	st *state
}

func (v view) read(fn func(st *state) error) error {
	if v.st != nil {
		return fn(v.st)
	}
	v.db.mu.RLock()
	defer v.db.mu.RUnlock()
	return fn(v.db.st)
}

func (v view) write(fn func(st *state) error) error {
	if v.st != nil {
		return fn(v.st)
	}
	v.db.mu.Lock()
	defer v.db.mu.Unlock()
	return fn(v.db.st)
}

// WithinTx runs fn against a snapshot of the database. Transactions are
// serialised; the snapshot replaces the live state only if fn returns nil.
func (db *DB) WithinTx(ctx context.Context, fn func(ctx context.Context, s *storage.Stores) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	snapshot := db.st.clone()
	if err := fn(ctx, stores(view{db: db, st: snapshot})); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	db.st = snapshot
	return nil
}

// Stores returns autocommit stores over the live state.
func (db *DB) Stores() *storage.Stores {
	return stores(view{db: db})
}

func stores(v view) *storage.Stores {
	return &storage.Stores{
		Championships: &ChampionshipStore{v: v},
		Teams:         &TeamStore{v: v},
		Drivers:       &DriverStore{v: v},
		Races:         &RaceStore{v: v},
		Results:       &ResultStore{v: v},
		Penalties:     &PenaltyStore{v: v},
	}
}

// Verify interface compliance at compile time.
var _ storage.Transactor = (*DB)(nil)

func newID() string {
	return uuid.New().String()
}

func nowMs() int64 {
	return time.Now().UnixMilli()
}

func copyString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func copyResult(r *domain.RaceResult) domain.RaceResult {
	cp := *r
	cp.DriverID = copyString(r.DriverID)
	cp.LapsCompleted = copyInt(r.LapsCompleted)
	cp.Notes = copyString(r.Notes)
	return cp
}

func copyPenalty(p *domain.Penalty) domain.Penalty {
	cp := *p
	cp.DriverID = copyString(p.DriverID)
	cp.ResultID = copyString(p.ResultID)
	cp.TimePenaltySeconds = copyInt(p.TimePenaltySeconds)
	cp.LapNumber = copyInt(p.LapNumber)
	return cp
}
