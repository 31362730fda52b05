// Package sqlite provides a SQLite-backed ledger store with lease-aware reads.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"alpha-duel/internal/storage/sqlite/migrations"
	"alpha-duel/internal/storage/sqlitemigrate"
	"alpha-duel/sdk"
)

// ErrBusy is returned when the database stayed locked past the busy timeout.
var ErrBusy = errors.New("ledger database is busy")

// Store persists ledger entries in SQLite.
type Store struct {
	sqlDB *sql.DB
}

// Open opens a SQLite ledger store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.Apply(context.Background(), sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Get returns the entry under key if it is live at ledger.
func (s *Store) Get(ctx context.Context, key sdk.Key, ledger uint32) (sdk.Entry, error) {
	if err := ctx.Err(); err != nil {
		return sdk.Entry{}, err
	}
	if s == nil || s.sqlDB == nil {
		return sdk.Entry{}, fmt.Errorf("storage is not configured")
	}

	var (
		value     []byte
		liveUntil int64
	)
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT value, live_until FROM ledger_entries WHERE key = ?`,
		key.String(),
	).Scan(&value, &liveUntil)
	if errors.Is(err, sql.ErrNoRows) {
		return sdk.Entry{}, sdk.ErrNotFound
	}
	if err != nil {
		return sdk.Entry{}, fmt.Errorf("get %s: %w", key, classify(err))
	}

	entry := sdk.Entry{Value: value, LiveUntil: uint32(liveUntil)}
	if entry.Expired(ledger) {
		return sdk.Entry{}, sdk.ErrNotFound
	}
	return entry, nil
}

// Commit upserts all changes in one transaction.
func (s *Store) Commit(ctx context.Context, changes []sdk.Change) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if len(changes) == 0 {
		return nil
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin commit: %w", classify(err))
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO ledger_entries (key, kind, value, live_until)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
		  kind = excluded.kind,
		  value = excluded.value,
		  live_until = excluded.live_until`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare upsert: %w", classify(err))
	}
	defer stmt.Close()

	for _, c := range changes {
		value := c.Value
		if value == nil {
			value = []byte{}
		}
		if _, err := stmt.ExecContext(ctx, c.Key.String(), int64(c.Key.Kind), value, int64(c.LiveUntil)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("upsert %s: %w", c.Key, classify(err))
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", classify(err))
	}
	return nil
}

// PurgeExpired deletes entries whose lease ended before ledger.
func (s *Store) PurgeExpired(ctx context.Context, ledger uint32) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s == nil || s.sqlDB == nil {
		return 0, fmt.Errorf("storage is not configured")
	}
	res, err := s.sqlDB.ExecContext(ctx,
		`DELETE FROM ledger_entries WHERE live_until != 0 AND live_until < ?`,
		int64(ledger),
	)
	if err != nil {
		return 0, fmt.Errorf("purge expired: %w", classify(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge expired rows: %w", err)
	}
	return n, nil
}

// CountByKind returns how many rows of kind are stored, live or not.
func (s *Store) CountByKind(ctx context.Context, kind sdk.KeyKind) (int64, error) {
	if s == nil || s.sqlDB == nil {
		return 0, fmt.Errorf("storage is not configured")
	}
	var n int64
	if err := s.sqlDB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM ledger_entries WHERE kind = ?`, int64(kind),
	).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %d: %w", kind, classify(err))
	}
	return n, nil
}

// classify maps lock contention to ErrBusy and leaves other errors alone.
func classify(err error) error {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() & 0xff {
		case sqlite3lib.SQLITE_BUSY, sqlite3lib.SQLITE_LOCKED:
			return fmt.Errorf("%w: %v", ErrBusy, err)
		}
	}
	return err
}

var _ sdk.Store = (*Store)(nil)
