package storage

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	// register the pure-Go SQLite driver with the database/sql package.
	_ "modernc.org/sqlite"
)

const sessionsSchema = `CREATE TABLE IF NOT EXISTS sessions (
	code         TEXT PRIMARY KEY,
	host         TEXT NOT NULL,
	guest        TEXT NOT NULL DEFAULT '',
	status       TEXT NOT NULL,
	settings     TEXT NOT NULL,
	seed         INTEGER NOT NULL,
	current_turn TEXT NOT NULL,
	last_move    TEXT,
	board_state  TEXT,
	version      INTEGER NOT NULL,
	created_at   INTEGER NOT NULL,
	last_update  INTEGER NOT NULL
)`

type Storage struct {
	Connection *sql.DB
}

func NewSQLiteStorage(path string) (*Storage, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite storage path is required")
	}

	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("can't open database: %w", err)
	}

	// SQLite has a single writer.
	conn.SetMaxOpenConns(1)

	if err = conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("can't connect to database: %w", err)
	}

	return &Storage{Connection: conn}, nil
}

func (that *Storage) Init(ctx context.Context) error {
	_, err := that.Connection.ExecContext(ctx, sessionsSchema)
	if err != nil {
		return fmt.Errorf("can't create table: %w", err)
	}

	return nil
}

func (that *Storage) Ping(ctx context.Context) error {
	return that.Connection.PingContext(ctx)
}

func (that *Storage) Close() error {
	return that.Connection.Close()
}
