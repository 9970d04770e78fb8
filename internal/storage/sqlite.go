package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
    id TEXT PRIMARY KEY,
    data BLOB NOT NULL,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS wireframes (
    session_id TEXT NOT NULL,
    id TEXT NOT NULL,
    data BLOB NOT NULL,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (session_id, id),
    FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_sessions_updated_at ON sessions(updated_at);
CREATE INDEX IF NOT EXISTS idx_wireframes_session_id ON wireframes(session_id);
`

// SQLite stores records as JSON blobs in a single database file. Each write
// is one upsert inside a transaction, which gives the atomic-replace
// guarantee Backend requires.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(dbPath string) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Pragmas go in the DSN so every pooled connection gets them.
	params := url.Values{}
	params.Add("_pragma", "foreign_keys(1)")
	params.Add("_pragma", "busy_timeout(10000)")
	params.Add("_pragma", "journal_mode(WAL)")
	params.Add("_pragma", "synchronous(NORMAL)")

	db, err := sql.Open("sqlite", dbPath+"?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) ReadSession(ctx context.Context, id string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM sessions WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return data, wrap("read session", id, err)
}

func (s *SQLite) WriteSession(ctx context.Context, id string, data []byte) error {
	return wrap("write session", id, s.upsert(ctx,
		`INSERT INTO sessions (id, data, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		id, data))
}

func (s *SQLite) ListSessions(ctx context.Context) ([]string, error) {
	ids, err := s.queryIDs(ctx, `SELECT id FROM sessions ORDER BY updated_at DESC, id`)
	return ids, wrap("list sessions", "", err)
}

func (s *SQLite) DeleteSession(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrap("delete session", id, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM wireframes WHERE session_id = ?`, id); err != nil {
		return wrap("delete session", id, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return wrap("delete session", id, err)
	}
	return wrap("delete session", id, tx.Commit())
}

func (s *SQLite) ReadWireframe(ctx context.Context, sessionID, wireframeID string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM wireframes WHERE session_id = ? AND id = ?`,
		sessionID, wireframeID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return data, wrap("read wireframe", wireframeKey(sessionID, wireframeID), err)
}

func (s *SQLite) WriteWireframe(ctx context.Context, sessionID, wireframeID string, data []byte) error {
	return wrap("write wireframe", wireframeKey(sessionID, wireframeID), s.upsert(ctx,
		`INSERT INTO wireframes (session_id, id, data, updated_at) VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(session_id, id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		sessionID, wireframeID, data))
}

func (s *SQLite) ListWireframes(ctx context.Context, sessionID string) ([]string, error) {
	ids, err := s.queryIDs(ctx,
		`SELECT id FROM wireframes WHERE session_id = ? ORDER BY updated_at DESC, id`, sessionID)
	return ids, wrap("list wireframes", sessionID, err)
}

func (s *SQLite) DeleteWireframe(ctx context.Context, sessionID, wireframeID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM wireframes WHERE session_id = ? AND id = ?`, sessionID, wireframeID)
	return wrap("delete wireframe", wireframeKey(sessionID, wireframeID), err)
}

func (s *SQLite) upsert(ctx context.Context, query string, args ...any) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLite) queryIDs(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

var _ Backend = (*SQLite)(nil)
