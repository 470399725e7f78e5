package sqlite_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/doorman/internal/auth/domain"
	"github.com/aussiebroadwan/doorman/internal/auth/store"
	"github.com/aussiebroadwan/doorman/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/doorman/internal/auth/store/storetest"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestStore(t *testing.T, opts ...sqlite.Option) *sqlite.Store {
	t.Helper()
	s, err := sqlite.NewStore(":memory:", opts...)
	require.NoError(t, err)
	require.NoError(t, s.ApplyMigrations())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newClockedStore(t *testing.T) (*sqlite.Store, *fakeClock) {
	clock := &fakeClock{now: time.Now()}
	return newTestStore(t, sqlite.WithClock(clock.Now)), clock
}

func TestAccounts(t *testing.T) {
	storetest.RunAccounts(t, func(t *testing.T) store.Accounts {
		return newTestStore(t).Accounts()
	})
}

func TestChallenges(t *testing.T) {
	storetest.RunChallenges(t, func(t *testing.T) (store.Challenges, storetest.Clock, storetest.Purge) {
		s, clock := newClockedStore(t)
		purge := func(ctx context.Context) error {
			_, err := s.PurgeExpired(ctx)
			return err
		}
		return s.Challenges(), clock.Advance, purge
	})
}

func TestRevocations(t *testing.T) {
	storetest.RunRevocations(t, func(t *testing.T) (store.Revocations, storetest.Clock, storetest.Purge) {
		s, clock := newClockedStore(t)
		purge := func(ctx context.Context) error {
			_, err := s.PurgeExpired(ctx)
			return err
		}
		return s.Revocations(), clock.Advance, purge
	})
}

func TestApplyMigrationsIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.ApplyMigrations())
	require.NoError(t, s.Ping(context.Background()))
}

func TestPurgeExpired(t *testing.T) {
	ctx := context.Background()
	s, clock := newClockedStore(t)

	require.NoError(t, s.Challenges().Put(ctx, domain.Challenge{Email: "b@x.com", ID: domain.NewChallengeID(), Code: "123456"}))
	require.NoError(t, s.Revocations().Revoke(ctx, "keep", clock.Now().Add(time.Hour)))
	require.NoError(t, s.Revocations().Revoke(ctx, "drop", clock.Now().Add(time.Minute)))

	clock.Advance(store.DefaultChallengeTTL + time.Second)
	n, err := s.PurgeExpired(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 2, n)

	found, err := s.Revocations().Contains(ctx, "keep")
	require.NoError(t, err)
	require.True(t, found)
}

func TestChallengeTTLOption(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Now()}
	s := newTestStore(t, sqlite.WithClock(clock.Now), sqlite.WithChallengeTTL(time.Minute))

	c := domain.Challenge{Email: "b@x.com", ID: domain.NewChallengeID(), Code: "123456"}
	require.NoError(t, s.Challenges().Put(ctx, c))

	clock.Advance(59 * time.Second)
	_, err := s.Challenges().Get(ctx, "b@x.com")
	require.NoError(t, err)

	clock.Advance(2 * time.Second)
	_, err = s.Challenges().Get(ctx, "b@x.com")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestRevokeRevivesExpiredRow(t *testing.T) {
	ctx := context.Background()
	s, clock := newClockedStore(t)

	require.NoError(t, s.Revocations().Revoke(ctx, "tok", clock.Now().Add(time.Minute)))
	clock.Advance(2 * time.Minute)
	require.NoError(t, s.Revocations().Revoke(ctx, "tok", clock.Now().Add(time.Minute)), "an expired entry does not block a new one")
	require.ErrorIs(t, s.Revocations().Revoke(ctx, "tok", clock.Now().Add(time.Minute)), store.ErrAlreadyRevoked)
}

func TestFileDatabaseSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "auth.db")

	s, err := sqlite.NewStore(path)
	require.NoError(t, err)
	require.NoError(t, s.ApplyMigrations())
	require.NoError(t, s.Accounts().Add(ctx, domain.Account{Email: "a@x.com", PasswordHash: "x", CreatedAt: time.Now()}))
	require.NoError(t, s.Close())

	s, err = sqlite.NewStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.ApplyMigrations())

	got, err := s.Accounts().Get(ctx, "a@x.com")
	require.NoError(t, err)
	require.Equal(t, domain.Email("a@x.com"), got.Email)
}
