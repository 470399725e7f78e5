package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/doorman/internal/auth/domain"
	"github.com/aussiebroadwan/doorman/internal/auth/store"
)

type accountsRepo struct {
	q querier
}

func (r *accountsRepo) Add(ctx context.Context, a domain.Account) error {
	tag, err := r.q.Exec(ctx, `
		INSERT INTO accounts (email, password_hash, requires_2fa, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (email) DO NOTHING
	`, string(a.Email), a.PasswordHash, a.RequiresSecondFactor, a.CreatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrAlreadyExists
	}
	return nil
}

func (r *accountsRepo) Get(ctx context.Context, email domain.Email) (domain.Account, error) {
	acc := domain.Account{Email: email}
	err := r.q.QueryRow(ctx, `
		SELECT password_hash, requires_2fa, created_at
		FROM accounts
		WHERE email = $1
	`, string(email)).Scan(&acc.PasswordHash, &acc.RequiresSecondFactor, &acc.CreatedAt)
	if err != nil {
		return domain.Account{}, mapNotFound(err)
	}
	return acc, nil
}

func (r *accountsRepo) Validate(ctx context.Context, email domain.Email, password domain.Password) error {
	acc, err := r.Get(ctx, email)
	if err != nil {
		return err
	}
	return store.CheckPassword(acc, password)
}

type challengesRepo struct {
	q querier
	s *Store
}

func (r *challengesRepo) Put(ctx context.Context, c domain.Challenge) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO challenges (email, challenge_id, code, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (email) DO UPDATE SET
			challenge_id = EXCLUDED.challenge_id,
			code         = EXCLUDED.code,
			expires_at   = EXCLUDED.expires_at
	`, string(c.Email), string(c.ID), string(c.Code), r.s.now().Add(r.s.ttl))
	return err
}

func (r *challengesRepo) Get(ctx context.Context, email domain.Email) (domain.Challenge, error) {
	var id, code string
	err := r.q.QueryRow(ctx, `
		SELECT challenge_id::text, code
		FROM challenges
		WHERE email = $1 AND expires_at > $2
	`, string(email), r.s.now()).Scan(&id, &code)
	if err != nil {
		return domain.Challenge{}, mapNotFound(err)
	}
	return domain.Challenge{Email: email, ID: domain.ChallengeID(id), Code: domain.ChallengeCode(code)}, nil
}

func (r *challengesRepo) Remove(ctx context.Context, email domain.Email, id domain.ChallengeID) error {
	tag, err := r.q.Exec(ctx, `
		DELETE FROM challenges
		WHERE email = $1 AND challenge_id::text = $2 AND expires_at > $3
	`, string(email), string(id), r.s.now())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

type revocationsRepo struct {
	q querier
	s *Store
}

func (r *revocationsRepo) Revoke(ctx context.Context, token string, expiresAt time.Time) error {
	tag, err := r.q.Exec(ctx, `
		INSERT INTO revoked_tokens (fingerprint, expires_at)
		VALUES ($1, $2)
		ON CONFLICT (fingerprint) DO UPDATE SET expires_at = EXCLUDED.expires_at
		WHERE revoked_tokens.expires_at <= $3
	`, store.RevocationKey(token), expiresAt, r.s.now())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrAlreadyRevoked
	}
	return nil
}

func (r *revocationsRepo) Contains(ctx context.Context, token string) (bool, error) {
	var one int
	err := r.q.QueryRow(ctx, `
		SELECT 1 FROM revoked_tokens
		WHERE fingerprint = $1 AND expires_at > $2
	`, store.RevocationKey(token), r.s.now()).Scan(&one)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(mapNotFound(err), store.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}
