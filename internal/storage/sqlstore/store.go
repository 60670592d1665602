// Package sqlstore implements storage.Store on SQLite (modernc.org/sqlite)
// and PostgreSQL (lib/pq) behind one set of queries.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tuvisminds-design/fin-easy/internal/model"
	"github.com/tuvisminds-design/fin-easy/internal/storage"
)

var _ storage.Store = (*Store)(nil)

// Store is a database/sql backed ledger store.
type Store struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...any) error
}

// Open connects to the database named by rawURL (see ParseURL) and applies
// pending migrations.
func Open(ctx context.Context, rawURL string) (*Store, error) {
	dialect, dsn, err := ParseURL(rawURL)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(dialect.driverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", dialect, err)
	}
	if dialect == SQLite && strings.HasPrefix(dsn, "file::memory:") {
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s database: %w", dialect, err)
	}
	if err := applyMigrations(ctx, db, dialect); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}

	return &Store{db: db, dialect: dialect, now: time.Now}, nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB exposes the raw handle for maintenance tooling and tests.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Dialect reports which backend the store is connected to.
func (s *Store) Dialect() Dialect {
	return s.dialect
}

// InTx runs fn in a single transaction.
func (s *Store) InTx(ctx context.Context, fn func(tx storage.PostingTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &model.StorageError{Op: "begin", Err: err}
	}

	ptx := &postingTx{tx: sqlTx, dialect: s.dialect, now: s.now}
	if err := fn(ptx); err != nil {
		_ = sqlTx.Rollback()
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return &model.StorageError{Op: "commit", Err: err}
	}
	return nil
}

func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *model.StorageError
	if errors.As(err, &se) || errors.Is(err, model.ErrNotFound) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &model.StorageError{Op: op, Err: err}
}

func millis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func formatDay(t time.Time) string {
	return model.Day(t).Format(model.DateFormat)
}

func parseDay(s string) (time.Time, error) {
	t, err := time.Parse(model.DateFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored date %q: %w", s, err)
	}
	return t, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func cents(d decimal.Decimal) (int64, error) {
	c, err := model.ToCents(d)
	if err != nil {
		return 0, &model.MalformedEntryError{Reason: err.Error()}
	}
	return c, nil
}
