package coordinator

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/corneliawysoudil/sensoryexperience-swirlpattern/internal/state"
)

// SQLiteStore persists the coordinator's state in SQLite.
//
// The last-known state lives in the single-row installation_state table
// ("last state wins" — there are no stronger guarantees); every transition
// is appended to state_history for diagnostics.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a store over an open database handle.
// The schema is managed by the embedded migrations.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// SaveLastState upserts the current state into the single-row table.
func (s *SQLiteStore) SaveLastState(ctx context.Context, st state.State) error {
	query := `
		INSERT INTO installation_state (id, state, updated_at)
		VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET state = excluded.state, updated_at = excluded.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query, st.String(), time.Now().UTC()); err != nil {
		return fmt.Errorf("saving last state: %w", err)
	}
	return nil
}

// LoadLastState returns the persisted state, or ErrNoStoredState when the
// installation has never persisted one.
func (s *SQLiteStore) LoadLastState(ctx context.Context) (state.State, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		"SELECT state FROM installation_state WHERE id = 1",
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return state.StateNone, ErrNoStoredState
	}
	if err != nil {
		return state.StateNone, fmt.Errorf("loading last state: %w", err)
	}

	st := state.ParseState(raw)
	if !st.Valid() {
		// A corrupted row behaves like no row: the caller falls back to
		// standby rather than propagating the raw string.
		return state.StateNone, ErrNoStoredState
	}
	return st, nil
}

// AppendHistory records one transition.
func (s *SQLiteStore) AppendHistory(ctx context.Context, rec HistoryRecord) error {
	query := `
		INSERT INTO state_history (change_id, from_state, to_state, origin, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		rec.ChangeID,
		rec.FromState.String(),
		rec.ToState.String(),
		rec.Origin,
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("appending state history: %w", err)
	}
	return nil
}

// History returns the most recent transitions, newest first, up to limit.
func (s *SQLiteStore) History(ctx context.Context, limit int) ([]HistoryRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT change_id, from_state, to_state, origin, created_at
		FROM state_history
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying state history: %w", err)
	}
	defer rows.Close() //nolint:errcheck // Read-only cursor

	var out []HistoryRecord
	for rows.Next() {
		var rec HistoryRecord
		var from, to string
		if err := rows.Scan(&rec.ChangeID, &from, &to, &rec.Origin, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		rec.FromState = state.ParseState(from)
		rec.ToState = state.ParseState(to)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating history rows: %w", err)
	}
	return out, nil
}
