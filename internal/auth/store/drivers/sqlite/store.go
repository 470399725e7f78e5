// Package sqlite stores accounts, challenges and revocations in a SQLite
// database through modernc.org/sqlite.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/aussiebroadwan/doorman/internal/auth/store"
	_ "modernc.org/sqlite"
)

type Option func(*Store)

// WithClock overrides time.Now for expiry decisions.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithChallengeTTL overrides store.DefaultChallengeTTL.
func WithChallengeTTL(d time.Duration) Option {
	return func(s *Store) { s.ttl = d }
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Store struct {
	db  *sql.DB
	now func() time.Time
	ttl time.Duration
}

// NewStore opens dsn, a file path or ":memory:". Read and write access is
// funnelled through one connection: SQLite serialises writers anyway and an
// in-memory database exists per connection.
func NewStore(dsn string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite", withPragmas(dsn))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: open %q: %w", dsn, err)
	}

	s := &Store{db: db, now: time.Now, ttl: store.DefaultChallengeTTL}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func withPragmas(dsn string) string {
	if dsn == ":memory:" || strings.Contains(dsn, "_pragma=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

func (s *Store) Close() error { return s.db.Close() }

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Accounts() store.Accounts       { return &accountsRepo{q: s.db} }
func (s *Store) Challenges() store.Challenges   { return &challengesRepo{q: s.db, s: s} }
func (s *Store) Revocations() store.Revocations { return &revocationsRepo{q: s.db, s: s} }

// WithTx executes fn within a transaction, automatically handling commit/rollback.
func (s *Store) WithTx(ctx context.Context, fn func(q queryer) error) error {
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

// PurgeExpired deletes expired challenges and revocations in one transaction.
func (s *Store) PurgeExpired(ctx context.Context) (int64, error) {
	cutoff := millis(s.now())

	var total int64
	err := s.WithTx(ctx, func(q queryer) error {
		for _, query := range []string{
			`DELETE FROM challenges WHERE expires_at <= ?`,
			`DELETE FROM revoked_tokens WHERE expires_at <= ?`,
		} {
			res, err := q.ExecContext(ctx, query, cutoff)
			if err != nil {
				return err
			}
			n, err := res.RowsAffected()
			if err != nil {
				return err
			}
			total += n
		}
		return nil
	})
	return total, err
}

func millis(t time.Time) int64 { return t.UnixMilli() }

var (
	_ store.Purger = (*Store)(nil)
	_ store.Pinger = (*Store)(nil)
)
