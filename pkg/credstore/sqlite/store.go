// Package sqlite is a file-backed credstore.Store for the CLI.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/taskdeck/pkg/credstore"
	_ "modernc.org/sqlite"
)

const (
	upsertCredential = `
INSERT INTO credentials (name, domain, path, value, secure, http_only, same_site, expires_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (name, domain, path) DO UPDATE SET
    value      = excluded.value,
    secure     = excluded.secure,
    http_only  = excluded.http_only,
    same_site  = excluded.same_site,
    expires_at = excluded.expires_at,
    updated_at = excluded.updated_at`

	deleteCredential = `DELETE FROM credentials WHERE name = ? AND domain = ? AND path = ?`

	selectCredential = `
SELECT value FROM credentials
WHERE name = ? AND (expires_at IS NULL OR expires_at > ?)
ORDER BY updated_at DESC
LIMIT 1`

	deleteExpired = `DELETE FROM credentials WHERE expires_at IS NOT NULL AND expires_at <= ?`
)

// Store keeps credentials in a SQLite database.
type Store struct {
	db  *sql.DB
	dsn string

	// Now is the clock; defaults to time.Now.
	Now func() time.Time
}

var (
	_ credstore.Store   = (*Store)(nil)
	_ credstore.Batcher = (*Store)(nil)
)

// NewStore opens dsn. Call ApplyMigrations before first use.
func NewStore(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// One connection: keeps ":memory:" databases coherent and serialises writers.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(context.Background(), `PRAGMA busy_timeout = 5000;`); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db, dsn: dsn, Now: time.Now}, nil
}

// Open is NewStore followed by ApplyMigrations.
func Open(dsn string) (*Store, error) {
	s, err := NewStore(dsn)
	if err != nil {
		return nil, err
	}
	if err := s.ApplyMigrations(); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to migrate credential store: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) Set(ctx context.Context, name, value string, opts credstore.Options) error {
	return s.set(ctx, s.db, s.Now(), credstore.Entry{Name: name, Value: value, Options: opts})
}

// SetAll writes every entry in one transaction.
func (s *Store) SetAll(ctx context.Context, entries []credstore.Entry) error {
	return s.WithTx(ctx, func(tx *sql.Tx) error {
		now := s.Now()
		for _, e := range entries {
			if err := s.set(ctx, tx, now, e); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) set(ctx context.Context, db execer, now time.Time, e credstore.Entry) error {
	exp := credstore.ExpiresAt(e.Options, now)
	if credstore.Expired(exp, now) {
		_, err := db.ExecContext(ctx, deleteCredential, e.Name, e.Options.Domain, e.Options.Path)
		return err
	}

	_, err := db.ExecContext(ctx, upsertCredential,
		e.Name,
		e.Options.Domain,
		e.Options.Path,
		e.Value,
		e.Options.Secure,
		e.Options.HTTPOnly,
		int(e.Options.SameSite),
		mapOptionalTime(exp),
		now.UnixNano(),
	)
	return err
}

func (s *Store) Get(ctx context.Context, name string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, selectCredential, name, s.Now().Unix()).Scan(&value)
	if err != nil {
		return "", mapNotFound(err)
	}
	return value, nil
}

func (s *Store) Remove(ctx context.Context, name string, opts credstore.Options) error {
	return s.Set(ctx, name, "", credstore.RemoveOptions(opts))
}

// DeleteExpired prunes rows whose lifetime has elapsed.
func (s *Store) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, deleteExpired, s.Now().Unix())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// WithTx executes fn within a transaction, automatically handling commit/rollback.
func (s *Store) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		_ = tx.Rollback() // safe to call even after commit
	}()

	if err := fn(tx); err != nil {
		return err
	}

	return tx.Commit()
}

func mapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return credstore.ErrNotFound
	}
	return err
}

func mapOptionalTime(t time.Time) sql.NullInt64 {
	if t.IsZero() {
		return sql.NullInt64{Valid: false}
	}
	return sql.NullInt64{Int64: t.Unix(), Valid: true}
}
