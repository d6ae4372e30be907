// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/danielhkuo/stage/db"
	"github.com/danielhkuo/stage/realtime"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrProcedureNotFound = errors.New("procedure not found")
)

// ChangeSink receives a notification after every committed write
type ChangeSink interface {
	NotifyChange(realtime.Change)
}

type Store struct {
	conn    *sql.DB
	dialect db.Dialect
	sink    ChangeSink
	now     func() time.Time
}

// New wraps an open database. sink may be nil.
func New(conn *sql.DB, dialect db.Dialect, sink ChangeSink) *Store {
	return &Store{
		conn:    conn,
		dialect: dialect,
		sink:    sink,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Ping checks the database connection
func (s *Store) Ping(ctx context.Context) error {
	return s.conn.PingContext(ctx)
}

func (s *Store) q(query string) string {
	return db.Rebind(s.dialect, query)
}

func (s *Store) notify(table, op, eventID, rowID string) {
	if s.sink == nil {
		return
	}
	s.sink.NotifyChange(realtime.Change{Table: table, Op: op, EventID: eventID, RowID: rowID})
}

// forUpdate rebinds a single-row SELECT and adds a row lock where the
// dialect supports one. SQLite writes are already serialized.
func (s *Store) forUpdate(query string) string {
	if s.dialect == db.Postgres {
		query += " FOR UPDATE"
	}
	return s.q(query)
}

// inTx runs fn inside a transaction. Only tx may be used inside fn.
func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return classify(fmt.Errorf("failed to commit: %w", err))
	}
	return nil
}

// classify maps driver errors onto the package sentinels
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505", "P0001":
			return fmt.Errorf("%w: %v", ErrConflict, err)
		case "42883":
			return fmt.Errorf("%w: %v", ErrProcedureNotFound, err)
		}
		return err
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT:
			return fmt.Errorf("%w: %v", ErrConflict, err)
		}
	}

	return err
}

// queryer is satisfied by *sql.DB and *sql.Tx
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// affected turns a zero-row guarded write into ErrNotFound or ErrConflict
// depending on whether the row exists at all.
func (s *Store) affected(ctx context.Context, qr queryer, res sql.Result, table, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	var exists int
	err = qr.QueryRowContext(ctx, s.q("SELECT 1 FROM "+table+" WHERE id = ?"), id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return ErrConflict
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}

func nullString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}
