package sqlite

import (
	"context"

	"github.com/aussiebroadwan/doorman/internal/auth/domain"
	"github.com/aussiebroadwan/doorman/internal/auth/store"
)

type challengesRepo struct {
	q queryer
	s *Store
}

func (r *challengesRepo) Put(ctx context.Context, c domain.Challenge) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO challenges (email, challenge_id, code, expires_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (email) DO UPDATE SET
		     challenge_id = excluded.challenge_id,
		     code         = excluded.code,
		     expires_at   = excluded.expires_at`,
		string(c.Email), string(c.ID), string(c.Code), millis(r.s.now().Add(r.s.ttl)),
	)
	return err
}

func (r *challengesRepo) Get(ctx context.Context, email domain.Email) (domain.Challenge, error) {
	var id, code string
	err := r.q.QueryRowContext(ctx,
		`SELECT challenge_id, code FROM challenges WHERE email = ? AND expires_at > ?`,
		string(email), millis(r.s.now()),
	).Scan(&id, &code)
	if err != nil {
		return domain.Challenge{}, mapNotFound(err)
	}
	return domain.Challenge{Email: email, ID: domain.ChallengeID(id), Code: domain.ChallengeCode(code)}, nil
}

// Remove leaves an expired row for PurgeExpired and reports it as absent.
func (r *challengesRepo) Remove(ctx context.Context, email domain.Email, id domain.ChallengeID) error {
	res, err := r.q.ExecContext(ctx,
		`DELETE FROM challenges WHERE email = ? AND challenge_id = ? AND expires_at > ?`,
		string(email), string(id), millis(r.s.now()),
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
