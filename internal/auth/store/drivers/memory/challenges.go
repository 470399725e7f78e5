package memory

import (
	"context"
	"sync"
	"time"

	"github.com/aussiebroadwan/doorman/internal/auth/domain"
	"github.com/aussiebroadwan/doorman/internal/auth/store"
)

type challengeRow struct {
	id        domain.ChallengeID
	code      domain.ChallengeCode
	expiresAt time.Time
}

type challengesRepo struct {
	s *Store

	mu   sync.RWMutex
	rows map[string]challengeRow
}

func (r *challengesRepo) Put(ctx context.Context, c domain.Challenge) error {
	row := challengeRow{id: c.ID, code: c.Code, expiresAt: r.s.now().Add(r.s.ttl)}

	r.mu.Lock()
	r.rows[string(c.Email)] = row
	r.mu.Unlock()
	return nil
}

func (r *challengesRepo) Get(ctx context.Context, email domain.Email) (domain.Challenge, error) {
	r.mu.RLock()
	row, ok := r.rows[string(email)]
	r.mu.RUnlock()

	if !ok || !r.s.now().Before(row.expiresAt) {
		return domain.Challenge{}, store.ErrNotFound
	}
	return domain.Challenge{Email: email, ID: row.id, Code: row.code}, nil
}

func (r *challengesRepo) Remove(ctx context.Context, email domain.Email, id domain.ChallengeID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	row, ok := r.rows[string(email)]
	if !ok || row.id != id {
		return store.ErrNotFound
	}
	delete(r.rows, string(email))
	if !r.s.now().Before(row.expiresAt) {
		return store.ErrNotFound
	}
	return nil
}

func (r *challengesRepo) purge(now time.Time) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for email, row := range r.rows {
		if !now.Before(row.expiresAt) {
			delete(r.rows, email)
			n++
		}
	}
	return n
}
