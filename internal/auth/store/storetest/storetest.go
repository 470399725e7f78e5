// Package storetest is the behavioural contract every store driver must
// pass. Driver packages call the Run functions from their own tests.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aussiebroadwan/doorman/internal/auth/domain"
	"github.com/aussiebroadwan/doorman/internal/auth/store"
	"github.com/aussiebroadwan/doorman/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

// Clock moves a backend's notion of time forward.
type Clock func(d time.Duration)

// Purge makes expiry visible on backends that only drop rows on demand.
// It may be nil.
type Purge func(ctx context.Context) error

func newAccount(t *testing.T, email string, password string, mfa bool) domain.Account {
	t.Helper()
	cryptox.SetPepper("storetest-pepper")
	hash, err := cryptox.HashPassword(password)
	require.NoError(t, err)
	return domain.Account{
		Email:                domain.Email(email),
		PasswordHash:         hash,
		RequiresSecondFactor: mfa,
		CreatedAt:            time.Now().UTC().Truncate(time.Second),
	}
}

// RunAccounts exercises an Accounts implementation. newStore must return an
// empty store each call.
func RunAccounts(t *testing.T, newStore func(t *testing.T) store.Accounts) {
	ctx := context.Background()

	t.Run("add then get", func(t *testing.T) {
		s := newStore(t)
		acc := newAccount(t, "a@x.com", "password123", true)
		require.NoError(t, s.Add(ctx, acc))

		got, err := s.Get(ctx, "a@x.com")
		require.NoError(t, err)
		require.Equal(t, acc.Email, got.Email)
		require.Equal(t, acc.PasswordHash, got.PasswordHash)
		require.True(t, got.RequiresSecondFactor)
		require.WithinDuration(t, acc.CreatedAt, got.CreatedAt, time.Second)
	})

	t.Run("get missing", func(t *testing.T) {
		_, err := newStore(t).Get(ctx, "nobody@x.com")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("duplicate email", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Add(ctx, newAccount(t, "a@x.com", "password123", false)))
		err := s.Add(ctx, newAccount(t, "a@x.com", "different-pass", true))
		require.ErrorIs(t, err, store.ErrAlreadyExists)

		got, err := s.Get(ctx, "a@x.com")
		require.NoError(t, err)
		require.False(t, got.RequiresSecondFactor, "the first account is untouched")
	})

	t.Run("emails are case sensitive", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Add(ctx, newAccount(t, "a@x.com", "password123", false)))
		require.NoError(t, s.Add(ctx, newAccount(t, "A@x.com", "password123", false)))
	})

	t.Run("validate", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Add(ctx, newAccount(t, "a@x.com", "password123", false)))

		require.NoError(t, s.Validate(ctx, "a@x.com", "password123"))
		require.ErrorIs(t, s.Validate(ctx, "a@x.com", "password124"), store.ErrInvalidCredentials)
		require.ErrorIs(t, s.Validate(ctx, "b@x.com", "password123"), store.ErrNotFound)
	})

	t.Run("concurrent add of one email", func(t *testing.T) {
		s := newStore(t)
		acc := newAccount(t, "race@x.com", "password123", false)

		var ok, dup atomic.Int32
		var wg sync.WaitGroup
		for range 8 {
			wg.Go(func() {
				switch err := s.Add(ctx, acc); {
				case err == nil:
					ok.Add(1)
				case errors.Is(err, store.ErrAlreadyExists):
					dup.Add(1)
				default:
					t.Errorf("unexpected error: %v", err)
				}
			})
		}
		wg.Wait()
		require.EqualValues(t, 1, ok.Load())
		require.EqualValues(t, 7, dup.Load())
	})
}

func newChallenge(email string) domain.Challenge {
	code, err := domain.NewChallengeCode()
	if err != nil {
		panic(err)
	}
	return domain.Challenge{Email: domain.Email(email), ID: domain.NewChallengeID(), Code: code}
}

// RunChallenges exercises a Challenges implementation built with
// store.DefaultChallengeTTL. The Clock must move the store's notion of now.
func RunChallenges(t *testing.T, newStore func(t *testing.T) (store.Challenges, Clock, Purge)) {
	ctx := context.Background()

	t.Run("put then get", func(t *testing.T) {
		s, _, _ := newStore(t)
		c := newChallenge("b@x.com")
		require.NoError(t, s.Put(ctx, c))

		got, err := s.Get(ctx, "b@x.com")
		require.NoError(t, err)
		require.Equal(t, c, got)
	})

	t.Run("get missing", func(t *testing.T) {
		s, _, _ := newStore(t)
		_, err := s.Get(ctx, "b@x.com")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("put replaces", func(t *testing.T) {
		s, _, _ := newStore(t)
		first, second := newChallenge("b@x.com"), newChallenge("b@x.com")
		require.NoError(t, s.Put(ctx, first))
		require.NoError(t, s.Put(ctx, second))

		got, err := s.Get(ctx, "b@x.com")
		require.NoError(t, err)
		require.Equal(t, second, got)
		require.False(t, got.Matches(first.ID, first.Code))
	})

	t.Run("keys are independent", func(t *testing.T) {
		s, _, _ := newStore(t)
		b, c := newChallenge("b@x.com"), newChallenge("c@x.com")
		require.NoError(t, s.Put(ctx, b))
		require.NoError(t, s.Put(ctx, c))
		require.NoError(t, s.Remove(ctx, "b@x.com", b.ID))

		got, err := s.Get(ctx, "c@x.com")
		require.NoError(t, err)
		require.Equal(t, c, got)
	})

	t.Run("remove is single use", func(t *testing.T) {
		s, _, _ := newStore(t)
		c := newChallenge("b@x.com")
		require.NoError(t, s.Put(ctx, c))

		require.NoError(t, s.Remove(ctx, "b@x.com", c.ID))
		require.ErrorIs(t, s.Remove(ctx, "b@x.com", c.ID), store.ErrNotFound)

		_, err := s.Get(ctx, "b@x.com")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("remove of a superseded challenge keeps the new one", func(t *testing.T) {
		s, _, _ := newStore(t)
		old, fresh := newChallenge("b@x.com"), newChallenge("b@x.com")
		require.NoError(t, s.Put(ctx, old))
		require.NoError(t, s.Put(ctx, fresh))

		require.ErrorIs(t, s.Remove(ctx, "b@x.com", old.ID), store.ErrNotFound)

		got, err := s.Get(ctx, "b@x.com")
		require.NoError(t, err)
		require.Equal(t, fresh, got)
		require.NoError(t, s.Remove(ctx, "b@x.com", fresh.ID))
	})

	t.Run("expires after ttl", func(t *testing.T) {
		s, advance, purge := newStore(t)
		c := newChallenge("b@x.com")
		require.NoError(t, s.Put(ctx, c))

		advance(store.DefaultChallengeTTL - time.Second)
		_, err := s.Get(ctx, "b@x.com")
		require.NoError(t, err, "still live just before the ttl")

		advance(2 * time.Second)
		_, err = s.Get(ctx, "b@x.com")
		require.ErrorIs(t, err, store.ErrNotFound)
		require.ErrorIs(t, s.Remove(ctx, "b@x.com", c.ID), store.ErrNotFound)

		if purge != nil {
			require.NoError(t, purge(ctx))
			_, err = s.Get(ctx, "b@x.com")
			require.ErrorIs(t, err, store.ErrNotFound)
		}
	})

	t.Run("put resets the ttl", func(t *testing.T) {
		s, advance, _ := newStore(t)
		require.NoError(t, s.Put(ctx, newChallenge("b@x.com")))
		advance(store.DefaultChallengeTTL - time.Minute)

		fresh := newChallenge("b@x.com")
		require.NoError(t, s.Put(ctx, fresh))
		advance(2 * time.Minute)

		got, err := s.Get(ctx, "b@x.com")
		require.NoError(t, err)
		require.Equal(t, fresh, got)
	})

	t.Run("concurrent removes consume once", func(t *testing.T) {
		s, _, _ := newStore(t)
		c := newChallenge("b@x.com")
		require.NoError(t, s.Put(ctx, c))

		var ok atomic.Int32
		var wg sync.WaitGroup
		for range 8 {
			wg.Go(func() {
				err := s.Remove(ctx, "b@x.com", c.ID)
				if err == nil {
					ok.Add(1)
				} else if !errors.Is(err, store.ErrNotFound) {
					t.Errorf("unexpected error: %v", err)
				}
			})
		}
		wg.Wait()
		require.EqualValues(t, 1, ok.Load())
	})

	t.Run("readers never see a torn challenge", func(t *testing.T) {
		s, _, _ := newStore(t)
		written := make(map[domain.ChallengeID]domain.ChallengeCode)
		var mu sync.Mutex

		var wg sync.WaitGroup
		for i := range 4 {
			wg.Go(func() {
				for range 25 {
					c := newChallenge("b@x.com")
					mu.Lock()
					written[c.ID] = c.Code
					mu.Unlock()
					if err := s.Put(ctx, c); err != nil {
						t.Errorf("put %d: %v", i, err)
						return
					}
				}
			})
		}
		for range 4 {
			wg.Go(func() {
				for range 25 {
					got, err := s.Get(ctx, "b@x.com")
					if errors.Is(err, store.ErrNotFound) {
						continue
					}
					if err != nil {
						t.Errorf("get: %v", err)
						return
					}
					mu.Lock()
					want, ok := written[got.ID]
					mu.Unlock()
					if !ok || want != got.Code {
						t.Errorf("read id %s with code %s that was never written together", got.ID, got.Code)
						return
					}
				}
			})
		}
		wg.Wait()
	})
}

// RunRevocations exercises a Revocations implementation.
func RunRevocations(t *testing.T, newStore func(t *testing.T) (store.Revocations, Clock, Purge)) {
	ctx := context.Background()
	token := func(i int) string { return fmt.Sprintf("header.payload-%d.signature", i) }

	t.Run("revoke then contains", func(t *testing.T) {
		s, _, _ := newStore(t)
		found, err := s.Contains(ctx, token(1))
		require.NoError(t, err)
		require.False(t, found)

		require.NoError(t, s.Revoke(ctx, token(1), time.Now().Add(time.Hour)))

		found, err = s.Contains(ctx, token(1))
		require.NoError(t, err)
		require.True(t, found)

		found, err = s.Contains(ctx, token(2))
		require.NoError(t, err)
		require.False(t, found)
	})

	t.Run("second revoke is reported", func(t *testing.T) {
		s, _, _ := newStore(t)
		exp := time.Now().Add(time.Hour)
		require.NoError(t, s.Revoke(ctx, token(1), exp))
		require.ErrorIs(t, s.Revoke(ctx, token(1), exp), store.ErrAlreadyRevoked)
	})

	t.Run("concurrent revokes succeed once", func(t *testing.T) {
		s, _, _ := newStore(t)
		exp := time.Now().Add(time.Hour)

		var ok atomic.Int32
		var wg sync.WaitGroup
		for range 8 {
			wg.Go(func() {
				err := s.Revoke(ctx, token(7), exp)
				if err == nil {
					ok.Add(1)
				} else if !errors.Is(err, store.ErrAlreadyRevoked) {
					t.Errorf("unexpected error: %v", err)
				}
			})
		}
		wg.Wait()
		require.EqualValues(t, 1, ok.Load())
	})

	t.Run("entry is pruned after the token expires", func(t *testing.T) {
		s, advance, purge := newStore(t)
		require.NoError(t, s.Revoke(ctx, token(1), time.Now().Add(time.Hour)))

		advance(30 * time.Minute)
		found, err := s.Contains(ctx, token(1))
		require.NoError(t, err)
		require.True(t, found, "still revoked while the token could be valid")

		advance(time.Hour)
		if purge != nil {
			require.NoError(t, purge(ctx))
		}
		found, err = s.Contains(ctx, token(1))
		require.NoError(t, err)
		require.False(t, found, "pruned once the token itself has expired")
	})

	t.Run("already expired token", func(t *testing.T) {
		s, _, _ := newStore(t)
		require.NoError(t, s.Revoke(ctx, token(3), time.Now().Add(-time.Minute)))
	})
}
