package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/rocketscienceinc/tacticwar-backend/internal/apperror"
	"github.com/rocketscienceinc/tacticwar-backend/internal/entity"
)

const sessionColumns = `code, host, guest, status, settings, seed, current_turn, last_move, board_state, version, created_at, last_update`

type sqliteSession struct {
	conn *sql.DB
}

func NewSQLiteSessionRepository(conn *sql.DB) SessionRepository {
	return &sqliteSession{
		conn: conn,
	}
}

func (that *sqliteSession) Reserve(ctx context.Context, session *entity.Session) error {
	query := `INSERT INTO sessions (` + sessionColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := that.conn.ExecContext(ctx, query,
		session.Code,
		session.Host,
		session.Guest,
		session.Status,
		string(session.Settings.ObjectOrEmpty()),
		session.Seed,
		session.CurrentTurn,
		nullDocument(session.LastMove),
		nullDocument(session.BoardState),
		session.Version,
		toMillis(session.CreatedAt),
		toMillis(session.LastUpdate),
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %s", apperror.ErrCodeTaken, session.Code)
	}

	if err != nil {
		return fmt.Errorf("can't reserve session: %w", err)
	}

	return nil
}

func (that *sqliteSession) GetByCode(ctx context.Context, code string) (*entity.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE code = ?`

	session, err := scanSession(that.conn.QueryRowContext(ctx, query, code))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.ErrNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("can't find session: %w", err)
	}

	return session, nil
}

func (that *sqliteSession) Update(ctx context.Context, session *entity.Session, expectedVersion int64) error {
	query := `UPDATE sessions
		SET guest = ?, status = ?, current_turn = ?, last_move = ?, board_state = ?, version = ?, last_update = ?
		WHERE code = ? AND version = ?`

	result, err := that.conn.ExecContext(ctx, query,
		session.Guest,
		session.Status,
		session.CurrentTurn,
		nullDocument(session.LastMove),
		nullDocument(session.BoardState),
		session.Version,
		toMillis(session.LastUpdate),
		session.Code,
		expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("can't update session: %w", err)
	}

	return that.checkSwapped(ctx, result, session.Code, expectedVersion)
}

func (that *sqliteSession) List(ctx context.Context) ([]*entity.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions ORDER BY code`

	rows, err := that.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("can't list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*entity.Session

	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("can't read session: %w", err)
		}

		sessions = append(sessions, session)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("can't list sessions: %w", err)
	}

	return sessions, nil
}

func (that *sqliteSession) DeleteByCode(ctx context.Context, code string, expectedVersion int64) error {
	query := `DELETE FROM sessions WHERE code = ? AND version = ?`

	result, err := that.conn.ExecContext(ctx, query, code, expectedVersion)
	if err != nil {
		return fmt.Errorf("can't delete session: %w", err)
	}

	return that.checkSwapped(ctx, result, code, expectedVersion)
}

// checkSwapped tells a lost race apart from a missing row when a conditional write matched nothing.
func (that *sqliteSession) checkSwapped(ctx context.Context, result sql.Result, code string, expectedVersion int64) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("can't read affected rows: %w", err)
	}

	if affected > 0 {
		return nil
	}

	var version int64

	err = that.conn.QueryRowContext(ctx, `SELECT version FROM sessions WHERE code = ?`, code).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return apperror.ErrNotFound
	}

	if err != nil {
		return fmt.Errorf("can't read session version: %w", err)
	}

	return fmt.Errorf("%w: stored version %d, expected %d", apperror.ErrVersionConflict, version, expectedVersion)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*entity.Session, error) {
	var (
		session              entity.Session
		settings             string
		lastMove, boardState sql.NullString
		createdAt, updatedAt int64
	)

	err := row.Scan(
		&session.Code,
		&session.Host,
		&session.Guest,
		&session.Status,
		&settings,
		&session.Seed,
		&session.CurrentTurn,
		&lastMove,
		&boardState,
		&session.Version,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	session.Settings = entity.Document(settings)
	if lastMove.Valid {
		session.LastMove = entity.Document(lastMove.String)
	}
	if boardState.Valid {
		session.BoardState = entity.Document(boardState.String)
	}
	session.CreatedAt = fromMillis(createdAt)
	session.LastUpdate = fromMillis(updatedAt)

	return &session, nil
}

func nullDocument(document entity.Document) sql.NullString {
	if document.IsEmpty() {
		return sql.NullString{}
	}

	return sql.NullString{String: string(document), Valid: true}
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}

	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
