package memory

import (
	"context"
	"sync"
	"time"

	"github.com/aussiebroadwan/doorman/internal/auth/store"
)

type revocationsRepo struct {
	s *Store

	mu   sync.RWMutex
	rows map[string]time.Time // fingerprint: token expiry
}

func (r *revocationsRepo) Revoke(ctx context.Context, token string, expiresAt time.Time) error {
	key := store.RevocationKey(token)

	r.mu.Lock()
	defer r.mu.Unlock()

	if exp, ok := r.rows[key]; ok && r.s.now().Before(exp) {
		return store.ErrAlreadyRevoked
	}
	r.rows[key] = expiresAt
	return nil
}

func (r *revocationsRepo) Contains(ctx context.Context, token string) (bool, error) {
	key := store.RevocationKey(token)

	r.mu.RLock()
	exp, ok := r.rows[key]
	r.mu.RUnlock()

	return ok && r.s.now().Before(exp), nil
}

func (r *revocationsRepo) purge(now time.Time) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for key, exp := range r.rows {
		if !now.Before(exp) {
			delete(r.rows, key)
			n++
		}
	}
	return n
}
