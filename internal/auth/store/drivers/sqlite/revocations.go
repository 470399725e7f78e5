package sqlite

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/doorman/internal/auth/store"
)

type revocationsRepo struct {
	q queryer
	s *Store
}

// Revoke inserts the fingerprint, or revives an entry whose expiry has
// passed but has not been purged yet. A live entry is left untouched.
func (r *revocationsRepo) Revoke(ctx context.Context, token string, expiresAt time.Time) error {
	res, err := r.q.ExecContext(ctx,
		`INSERT INTO revoked_tokens (fingerprint, expires_at)
		 VALUES (?, ?)
		 ON CONFLICT (fingerprint) DO UPDATE SET expires_at = excluded.expires_at
		 WHERE revoked_tokens.expires_at <= ?`,
		store.RevocationKey(token), millis(expiresAt), millis(r.s.now()),
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrAlreadyRevoked
	}
	return nil
}

func (r *revocationsRepo) Contains(ctx context.Context, token string) (bool, error) {
	var one int
	err := r.q.QueryRowContext(ctx,
		`SELECT 1 FROM revoked_tokens WHERE fingerprint = ? AND expires_at > ?`,
		store.RevocationKey(token), millis(r.s.now()),
	).Scan(&one)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(mapNotFound(err), store.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}
