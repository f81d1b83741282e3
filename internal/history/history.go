// Package history logs every layer order an editor session applies to the
// map, in a DuckDB table.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

const schema = `
CREATE SEQUENCE IF NOT EXISTS layer_order_history_seq;
CREATE TABLE IF NOT EXISTS layer_order_history (
	id          BIGINT PRIMARY KEY DEFAULT nextval('layer_order_history_seq'),
	session_id  VARCHAR NOT NULL,
	recorded_at TIMESTAMP NOT NULL,
	layers      VARCHAR NOT NULL
);`

// Entry is one recorded draw order.
type Entry struct {
	ID         int64     `json:"id" doc:"Entry ID, increasing"`
	SessionID  string    `json:"sessionId" doc:"Editor session that applied the order"`
	RecordedAt time.Time `json:"recordedAt" doc:"When the order was applied"`
	Layers     []string  `json:"layers" doc:"Layer IDs in draw order, bottom first"`
}

// Store reads and writes the history table.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// New creates the history table if needed.
func New(ctx context.Context, db *sql.DB) (*Store, error) {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("create history table: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Record implements service.Recorder.
func (s *Store) Record(ctx context.Context, sessionID string, drawOrder []string) error {
	if drawOrder == nil {
		drawOrder = []string{}
	}
	layers, err := json.Marshal(drawOrder)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO layer_order_history (session_id, recorded_at, layers) VALUES (?, ?, ?)",
		sessionID, s.now().UTC(), string(layers))
	return err
}

// List returns the most recent entries first. limit <= 0 means all.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	query := "SELECT id, session_id, recorded_at, layers FROM layer_order_history ORDER BY id DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var (
			e      Entry
			layers string
		)
		if err := rows.Scan(&e.ID, &e.SessionID, &e.RecordedAt, &layers); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(layers), &e.Layers); err != nil {
			return nil, fmt.Errorf("history entry %d: %w", e.ID, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
