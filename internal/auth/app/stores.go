package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/doorman/internal/auth/store"
	"github.com/aussiebroadwan/doorman/internal/auth/store/drivers/memory"
	"github.com/aussiebroadwan/doorman/internal/auth/store/drivers/postgres"
	redisstore "github.com/aussiebroadwan/doorman/internal/auth/store/drivers/redis"
	"github.com/aussiebroadwan/doorman/internal/auth/store/drivers/sqlite"
	"github.com/redis/go-redis/v9"
)

type (
	accountsBackend    interface{ Accounts() store.Accounts }
	challengesBackend  interface{ Challenges() store.Challenges }
	revocationsBackend interface{ Revocations() store.Revocations }
)

// storeOpener opens each configured backend at most once, so roles sharing
// a backend share its connection.
type storeOpener struct {
	cfg    Config
	logger *slog.Logger
	opened map[string]any
	set    *store.Set
}

// openStores builds the store set from AUTH_ACCOUNT_STORE,
// AUTH_CHALLENGE_STORE and AUTH_REVOCATION_STORE.
func openStores(ctx context.Context, cfg Config, logger *slog.Logger) (*store.Set, error) {
	o := &storeOpener{cfg: cfg, logger: logger, opened: make(map[string]any), set: &store.Set{}}
	if err := o.wire(ctx); err != nil {
		_ = o.set.Close()
		return nil, err
	}
	return o.set, nil
}

func (o *storeOpener) wire(ctx context.Context) error {
	b, err := o.backend(ctx, o.cfg.AccountStore)
	if err != nil {
		return err
	}
	accounts, ok := b.(accountsBackend)
	if !ok {
		return fmt.Errorf("%s cannot store accounts", o.cfg.AccountStore)
	}
	o.set.Accounts = accounts.Accounts()

	if b, err = o.backend(ctx, o.cfg.ChallengeStore); err != nil {
		return err
	}
	challenges, ok := b.(challengesBackend)
	if !ok {
		return fmt.Errorf("%s cannot store challenges", o.cfg.ChallengeStore)
	}
	o.set.Challenges = challenges.Challenges()

	if b, err = o.backend(ctx, o.cfg.RevocationStore); err != nil {
		return err
	}
	revocations, ok := b.(revocationsBackend)
	if !ok {
		return fmt.Errorf("%s cannot store revocations", o.cfg.RevocationStore)
	}
	o.set.Revocations = revocations.Revocations()

	o.logger.Info("stores ready",
		"accounts", o.cfg.AccountStore,
		"challenges", o.cfg.ChallengeStore,
		"revocations", o.cfg.RevocationStore,
	)
	return nil
}

func (o *storeOpener) backend(ctx context.Context, kind string) (any, error) {
	if b, ok := o.opened[kind]; ok {
		return b, nil
	}

	var b any
	switch kind {
	case BackendMemory:
		o.logger.Warn("using in-memory store, state is lost on restart")
		b = memory.NewStore(memory.WithChallengeTTL(o.cfg.ChallengeTTL))

	case BackendSQLite:
		db, err := sqlite.NewStore(o.cfg.DatabaseFile, sqlite.WithChallengeTTL(o.cfg.ChallengeTTL))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		if err := db.ApplyMigrations(); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to apply database migrations: %w", err)
		}
		o.logger.Info("database migrations applied successfully", "backend", kind, "file", o.cfg.DatabaseFile)
		b = db

	case BackendPostgres:
		db, err := postgres.Open(ctx, o.cfg.DatabaseURL, postgres.WithChallengeTTL(o.cfg.ChallengeTTL))
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		if err := db.ApplyMigrations(); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to apply database migrations: %w", err)
		}
		o.logger.Info("database migrations applied successfully", "backend", kind)
		b = db

	case BackendRedis:
		rdb, err := redisstore.Open(ctx, &redis.Options{
			Addr:     o.cfg.RedisAddr,
			Password: o.cfg.RedisPassword,
			DB:       o.cfg.RedisDB,
		},
			redisstore.WithNamespace(o.cfg.RedisNamespace),
			redisstore.WithChallengeTTL(o.cfg.ChallengeTTL),
		)
		if err != nil {
			return nil, err
		}
		o.logger.Info("connected to redis", "addr", o.cfg.RedisAddr, "db", o.cfg.RedisDB)
		b = rdb

	default:
		return nil, fmt.Errorf("unknown store backend %q", kind)
	}

	o.opened[kind] = b
	o.set.Attach(b)
	return b, nil
}
