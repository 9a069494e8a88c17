package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const defaultSQLitePath = "chess_relay.db"

// SQLite records sessions in a local database file, for single-host
// deployments that want relay bookkeeping to survive restarts.
type SQLite struct {
	db *sql.DB
}

func sqlitePathFromEnv() string {
	if v := strings.TrimSpace(os.Getenv("LEDGER_SQLITE_PATH")); v != "" {
		return v
	}
	return defaultSQLitePath
}

func NewSQLiteFromEnv() (*SQLite, error) {
	return NewSQLite(sqlitePathFromEnv())
}

func NewSQLite(dbPath string) (*SQLite, error) {
	dbPath = strings.TrimSpace(dbPath)
	if dbPath == "" {
		return nil, fmt.Errorf("empty sqlite database path")
	}
	if dbPath != ":memory:" {
		parent := filepath.Dir(dbPath)
		if parent != "" && parent != "." {
			if err := os.MkdirAll(parent, 0o755); err != nil {
				return nil, err
			}
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, pragma := range []string{
		`PRAGMA busy_timeout = 5000;`,
		`PRAGMA journal_mode = WAL;`,
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS sessions (
    id           TEXT PRIMARY KEY,
    created_at_ms INTEGER NOT NULL,
    joined_at_ms  INTEGER,
    closed_at_ms  INTEGER
)`); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) SessionCreated(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := s.db.ExecContext(ctx, `
INSERT INTO sessions (id, created_at_ms) VALUES (?, ?)
ON CONFLICT (id) DO UPDATE SET created_at_ms = excluded.created_at_ms
`, id, time.Now().UTC().UnixMilli())
	return err
}

func (s *SQLite) PeerJoined(id string) error {
	return s.stamp(id, "joined_at_ms")
}

func (s *SQLite) SessionClosed(id string) error {
	return s.stamp(id, "closed_at_ms")
}

func (s *SQLite) stamp(id, column string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET `+column+` = ? WHERE id = ?`,
		time.Now().UTC().UnixMilli(), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrUnknownSession
	}
	return nil
}

func (s *SQLite) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
