package memory

import (
	"context"
	"sync"
	"time"

	"github.com/aussiebroadwan/doorman/internal/auth/domain"
	"github.com/aussiebroadwan/doorman/internal/auth/store"
)

type accountRow struct {
	hash      string
	mfa       bool
	createdAt time.Time
}

type accountsRepo struct {
	mu   sync.RWMutex
	rows map[string]accountRow
}

func (r *accountsRepo) Add(ctx context.Context, a domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rows[string(a.Email)]; ok {
		return store.ErrAlreadyExists
	}
	r.rows[string(a.Email)] = accountRow{hash: a.PasswordHash, mfa: a.RequiresSecondFactor, createdAt: a.CreatedAt}
	return nil
}

func (r *accountsRepo) Get(ctx context.Context, email domain.Email) (domain.Account, error) {
	r.mu.RLock()
	row, ok := r.rows[string(email)]
	r.mu.RUnlock()

	if !ok {
		return domain.Account{}, store.ErrNotFound
	}
	return domain.Account{
		Email:                email,
		PasswordHash:         row.hash,
		RequiresSecondFactor: row.mfa,
		CreatedAt:            row.createdAt,
	}, nil
}

// Validate hashes outside the lock; argon2 is slow and accounts are immutable.
func (r *accountsRepo) Validate(ctx context.Context, email domain.Email, password domain.Password) error {
	acc, err := r.Get(ctx, email)
	if err != nil {
		return err
	}
	return store.CheckPassword(acc, password)
}
