package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/doorman/internal/auth/domain"
	"github.com/aussiebroadwan/doorman/pkg/cryptox"
)

var (
	ErrNotFound           = errors.New("store: not found")
	ErrAlreadyExists      = errors.New("store: already exists")
	ErrInvalidCredentials = errors.New("store: invalid credentials")
	ErrAlreadyRevoked     = errors.New("store: already revoked")
)

// DefaultChallengeTTL is how long a second-factor challenge stays live.
const DefaultChallengeTTL = 10 * time.Minute

// Accounts holds registered accounts keyed by email.
type Accounts interface {
	// Add inserts a new account, ErrAlreadyExists if the email is taken.
	Add(ctx context.Context, a domain.Account) error

	// Get returns the account or ErrNotFound.
	Get(ctx context.Context, email domain.Email) (domain.Account, error)

	// Validate checks a candidate password: ErrNotFound when there is no
	// such account, ErrInvalidCredentials when the password is wrong.
	Validate(ctx context.Context, email domain.Email, password domain.Password) error
}

// Challenges holds at most one live second-factor challenge per email.
// Expired entries behave exactly like absent ones.
type Challenges interface {
	// Put replaces any existing challenge for the email and restarts its TTL.
	Put(ctx context.Context, c domain.Challenge) error

	// Get returns the live challenge or ErrNotFound.
	Get(ctx context.Context, email domain.Email) (domain.Challenge, error)

	// Remove deletes the live challenge for email only if its id is still
	// id. ErrNotFound if there was none, or if it was replaced meanwhile.
	Remove(ctx context.Context, email domain.Email, id domain.ChallengeID) error
}

// Revocations records session tokens that must no longer be honoured.
type Revocations interface {
	// Revoke adds the token, ErrAlreadyRevoked if it was already present.
	// expiresAt is the token's own expiry, after which the entry may be
	// dropped.
	Revoke(ctx context.Context, token string, expiresAt time.Time) error

	// Contains reports whether the token has been revoked.
	Contains(ctx context.Context, token string) (bool, error)
}

// Purger is implemented by backends without native TTL expiry.
type Purger interface {
	// PurgeExpired deletes expired challenges and revocations and returns
	// how many rows went.
	PurgeExpired(ctx context.Context) (int64, error)
}

// Pinger is implemented by backends with a remote connection.
type Pinger interface {
	Ping(ctx context.Context) error
}

// CheckPassword verifies password against the account's stored hash and
// maps a mismatch to ErrInvalidCredentials. A hash that cannot be decoded is
// a data fault, not a credentials failure.
func CheckPassword(a domain.Account, password domain.Password) error {
	err := cryptox.VerifyPassword(string(password), a.PasswordHash)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, cryptox.ErrPasswordMismatch):
		return ErrInvalidCredentials
	default:
		return fmt.Errorf("store: stored hash for account: %w", err)
	}
}

// RevocationKey is the form a token is persisted under: its SHA-256
// fingerprint, so a database dump does not leak live sessions.
func RevocationKey(token string) string {
	return cryptox.FingerprintToken(token)
}
