package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/aussiebroadwan/doorman/internal/auth/domain"
	"github.com/aussiebroadwan/doorman/internal/auth/store"
)

type accountsRepo struct {
	q queryer
}

func (r *accountsRepo) Add(ctx context.Context, a domain.Account) error {
	res, err := r.q.ExecContext(ctx,
		`INSERT INTO accounts (email, password_hash, requires_2fa, created_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (email) DO NOTHING`,
		string(a.Email), a.PasswordHash, a.RequiresSecondFactor, a.CreatedAt.Unix(),
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrAlreadyExists
	}
	return nil
}

func (r *accountsRepo) Get(ctx context.Context, email domain.Email) (domain.Account, error) {
	var (
		hash    string
		mfa     bool
		created int64
	)
	err := r.q.QueryRowContext(ctx,
		`SELECT password_hash, requires_2fa, created_at FROM accounts WHERE email = ?`,
		string(email),
	).Scan(&hash, &mfa, &created)
	if err != nil {
		return domain.Account{}, mapNotFound(err)
	}
	return domain.Account{
		Email:                email,
		PasswordHash:         hash,
		RequiresSecondFactor: mfa,
		CreatedAt:            time.Unix(created, 0).UTC(),
	}, nil
}

func (r *accountsRepo) Validate(ctx context.Context, email domain.Email, password domain.Password) error {
	acc, err := r.Get(ctx, email)
	if err != nil {
		return err
	}
	return store.CheckPassword(acc, password)
}

func mapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}
