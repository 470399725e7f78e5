// Package redis keeps challenges and revocations in Redis, relying on key
// expiry for their TTLs.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/doorman/internal/auth/domain"
	"github.com/aussiebroadwan/doorman/internal/auth/store"
	"github.com/redis/go-redis/v9"
)

const (
	challengePrefix  = "two_fa_code:"
	revocationPrefix = "banned_token:"
)

type Option func(*Store)

// WithChallengeTTL overrides store.DefaultChallengeTTL.
func WithChallengeTTL(d time.Duration) Option {
	return func(s *Store) { s.ttl = d }
}

// WithNamespace prefixes every key, for sharing one Redis between services.
func WithNamespace(ns string) Option {
	return func(s *Store) { s.ns = ns }
}

type Store struct {
	rdb *redis.Client
	ttl time.Duration
	ns  string
}

// Open dials Redis and verifies the connection with a PING.
func Open(ctx context.Context, opts *redis.Options, storeOpts ...Option) (*Store, error) {
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", opts.Addr, err)
	}
	return New(rdb, storeOpts...), nil
}

// New wraps an existing client.
func New(rdb *redis.Client, opts ...Option) *Store {
	s := &Store{rdb: rdb, ttl: store.DefaultChallengeTTL}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Close() error                   { return s.rdb.Close() }
func (s *Store) Ping(ctx context.Context) error { return s.rdb.Ping(ctx).Err() }

func (s *Store) Challenges() store.Challenges   { return &challengesRepo{s: s} }
func (s *Store) Revocations() store.Revocations { return &revocationsRepo{s: s} }

func (s *Store) challengeKey(email domain.Email) string {
	return s.ns + challengePrefix + string(email)
}

func (s *Store) revocationKey(token string) string {
	return s.ns + revocationPrefix + store.RevocationKey(token)
}

type challengesRepo struct{ s *Store }

// Put stores the pair as a JSON array, ["<login attempt id>", "<code>"].
func (r *challengesRepo) Put(ctx context.Context, c domain.Challenge) error {
	payload, err := json.Marshal([2]string{string(c.ID), string(c.Code)})
	if err != nil {
		return err
	}
	return r.s.rdb.Set(ctx, r.s.challengeKey(c.Email), payload, r.s.ttl).Err()
}

func (r *challengesRepo) Get(ctx context.Context, email domain.Email) (domain.Challenge, error) {
	return getChallenge(ctx, r.s.rdb, r.s.challengeKey(email), email)
}

func getChallenge(ctx context.Context, c redis.Cmdable, key string, email domain.Email) (domain.Challenge, error) {
	raw, err := c.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Challenge{}, store.ErrNotFound
	}
	if err != nil {
		return domain.Challenge{}, err
	}

	var pair [2]string
	if err := json.Unmarshal(raw, &pair); err != nil {
		return domain.Challenge{}, fmt.Errorf("redis: decode challenge: %w", err)
	}
	return domain.Challenge{Email: email, ID: domain.ChallengeID(pair[0]), Code: domain.ChallengeCode(pair[1])}, nil
}

// Remove deletes under WATCH, so a Put landing between the id check and the
// DEL aborts the transaction instead of losing the new challenge.
func (r *challengesRepo) Remove(ctx context.Context, email domain.Email, id domain.ChallengeID) error {
	key := r.s.challengeKey(email)
	err := r.s.rdb.Watch(ctx, func(tx *redis.Tx) error {
		c, err := getChallenge(ctx, tx, key, email)
		if err != nil {
			return err
		}
		if c.ID != id {
			return store.ErrNotFound
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			return nil
		})
		return err
	}, key)
	if errors.Is(err, redis.TxFailedErr) {
		return store.ErrNotFound
	}
	return err
}

type revocationsRepo struct{ s *Store }

// Revoke is a SET NX, so concurrent revokes of one token resolve in Redis.
// The key lives until the token would have expired, at least a second.
func (r *revocationsRepo) Revoke(ctx context.Context, token string, expiresAt time.Time) error {
	ttl := max(time.Until(expiresAt), time.Second)

	ok, err := r.s.rdb.SetNX(ctx, r.s.revocationKey(token), expiresAt.Unix(), ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return store.ErrAlreadyRevoked
	}
	return nil
}

func (r *revocationsRepo) Contains(ctx context.Context, token string) (bool, error) {
	n, err := r.s.rdb.Exists(ctx, r.s.revocationKey(token)).Result()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

var _ store.Pinger = (*Store)(nil)
