// Package memory is an in-process store driver. Each table sits behind its
// own RWMutex, state is lost on restart.
package memory

import (
	"context"
	"time"

	"github.com/aussiebroadwan/doorman/internal/auth/store"
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

type Store struct {
	now func() time.Time
	ttl time.Duration

	accounts    *accountsRepo
	challenges  *challengesRepo
	revocations *revocationsRepo
}

func NewStore(opts ...Option) *Store {
	s := &Store{now: time.Now, ttl: store.DefaultChallengeTTL}
	for _, opt := range opts {
		opt(s)
	}
	s.accounts = &accountsRepo{rows: make(map[string]accountRow)}
	s.challenges = &challengesRepo{s: s, rows: make(map[string]challengeRow)}
	s.revocations = &revocationsRepo{s: s, rows: make(map[string]time.Time)}
	return s
}

func (s *Store) Accounts() store.Accounts       { return s.accounts }
func (s *Store) Challenges() store.Challenges   { return s.challenges }
func (s *Store) Revocations() store.Revocations { return s.revocations }

// PurgeExpired drops expired challenges and revocations.
func (s *Store) PurgeExpired(ctx context.Context) (int64, error) {
	now := s.now()
	return s.challenges.purge(now) + s.revocations.purge(now), nil
}

var _ store.Purger = (*Store)(nil)
