package escalation

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RecordStore persists escalation records for audit and responder handoff.
type RecordStore interface {
	Save(ctx context.Context, rec *Record) error
	Get(ctx context.Context, id string) (*Record, error)
	UpdateStatus(ctx context.Context, id string, to Status, at time.Time) error
	ListByUser(ctx context.Context, userID string) ([]*Record, error)
}

// MemoryStore is the in-process store used when no database is configured
// and by tests.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*Record)}
}

func (s *MemoryStore) Save(_ context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *rec
	s.records[rec.ID] = &cp
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, fmt.Errorf("escalation %s not found", id)
	}
	cp := *rec
	return &cp, nil
}

func (s *MemoryStore) UpdateStatus(_ context.Context, id string, to Status, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return fmt.Errorf("escalation %s not found", id)
	}
	if !rec.Transition(to, at) {
		return fmt.Errorf("illegal transition %s -> %s for escalation %s", rec.Status, to, id)
	}
	return nil
}

func (s *MemoryStore) ListByUser(_ context.Context, userID string) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Record
	for _, rec := range s.records {
		if rec.UserID == userID {
			cp := *rec
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Timeline.Initiated.Before(out[j].Timeline.Initiated)
	})
	return out, nil
}

// PGStore persists records in Postgres.
type PGStore struct {
	pool *pgxpool.Pool
}

const pgSchema = `
CREATE TABLE IF NOT EXISTS escalations (
	id           TEXT PRIMARY KEY,
	user_id      TEXT NOT NULL,
	tier         TEXT NOT NULL,
	trigger      TEXT NOT NULL,
	status       TEXT NOT NULL,
	severity     TEXT NOT NULL,
	risk_factors TEXT[] NOT NULL DEFAULT '{}',
	responder_id TEXT NOT NULL DEFAULT '',
	initiated_at TIMESTAMPTZ NOT NULL,
	assigned_at  TIMESTAMPTZ,
	resolved_at  TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS escalations_user_idx ON escalations (user_id, initiated_at);
`

// NewPGStore connects to Postgres and ensures the schema exists.
func NewPGStore(ctx context.Context, url string) (*PGStore, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, pgSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &PGStore{pool: pool}, nil
}

func (s *PGStore) Save(ctx context.Context, rec *Record) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO escalations
			(id, user_id, tier, trigger, status, severity, risk_factors, responder_id, initiated_at, assigned_at, resolved_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			responder_id = EXCLUDED.responder_id,
			assigned_at = EXCLUDED.assigned_at,
			resolved_at = EXCLUDED.resolved_at`,
		rec.ID, rec.UserID, string(rec.Tier), string(rec.Trigger), string(rec.Status),
		rec.Severity, rec.RiskFactors, rec.ResponderID,
		rec.Timeline.Initiated, rec.Timeline.Assigned, rec.Timeline.Resolved)
	if err != nil {
		return fmt.Errorf("save escalation %s: %w", rec.ID, err)
	}
	return nil
}

func (s *PGStore) Get(ctx context.Context, id string) (*Record, error) {
	rec := &Record{}
	var tier, trigger, status string
	err := s.pool.QueryRow(ctx, `
		SELECT id, user_id, tier, trigger, status, severity, risk_factors, responder_id, initiated_at, assigned_at, resolved_at
		FROM escalations WHERE id = $1`, id).Scan(
		&rec.ID, &rec.UserID, &tier, &trigger, &status,
		&rec.Severity, &rec.RiskFactors, &rec.ResponderID,
		&rec.Timeline.Initiated, &rec.Timeline.Assigned, &rec.Timeline.Resolved)
	if err != nil {
		return nil, fmt.Errorf("get escalation %s: %w", id, err)
	}
	rec.Tier = Tier(tier)
	rec.Trigger = Trigger(trigger)
	rec.Status = Status(status)
	return rec, nil
}

func (s *PGStore) UpdateStatus(ctx context.Context, id string, to Status, at time.Time) error {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !rec.Transition(to, at) {
		return fmt.Errorf("illegal transition %s -> %s for escalation %s", rec.Status, to, id)
	}
	return s.Save(ctx, rec)
}

func (s *PGStore) ListByUser(ctx context.Context, userID string) ([]*Record, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, tier, trigger, status, severity, risk_factors, responder_id, initiated_at, assigned_at, resolved_at
		FROM escalations WHERE user_id = $1 ORDER BY initiated_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("list escalations for %s: %w", userID, err)
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		rec := &Record{}
		var tier, trigger, status string
		if err := rows.Scan(
			&rec.ID, &rec.UserID, &tier, &trigger, &status,
			&rec.Severity, &rec.RiskFactors, &rec.ResponderID,
			&rec.Timeline.Initiated, &rec.Timeline.Assigned, &rec.Timeline.Resolved); err != nil {
			return nil, err
		}
		rec.Tier = Tier(tier)
		rec.Trigger = Trigger(trigger)
		rec.Status = Status(status)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Close releases the connection pool.
func (s *PGStore) Close() { s.pool.Close() }
