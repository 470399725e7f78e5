package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/aussiebroadwan/doorman/internal/auth/store"
	"github.com/aussiebroadwan/doorman/pkg/httpx"
	"github.com/aussiebroadwan/doorman/pkg/jwtx"
	"github.com/aussiebroadwan/doorman/pkg/validx"
)

// Store backends, selectable per role.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

type Config struct {
	Issuer         string        // Issuer claim for session tokens (default: doorman)
	SigningKeyFile string        // Optional: PKCS8 PEM Ed25519 key; unset generates an ephemeral key
	TokenTTL       time.Duration // Session token lifetime (default: 2h)
	CookieName     string        // Session cookie name (default: jwt)
	CookieDomain   string        // Optional: cookie Domain attribute
	CookieInsecure bool          // Drop the Secure attribute, for plain-http development only
	ChallengeTTL   time.Duration // Login code lifetime (default: 10m)

	AccountStore    string `validate:"oneof=memory sqlite postgres"`
	ChallengeStore  string `validate:"oneof=memory sqlite postgres redis"`
	RevocationStore string `validate:"oneof=memory sqlite postgres redis"`

	DatabaseFile   string // SQLite database file (default: ./auth.db)
	DatabaseURL    string // Postgres DSN, required when any store is postgres
	RedisAddr      string // host:port, required when any store is redis
	RedisPassword  string
	RedisDB        int
	RedisNamespace string // Optional: prefix for every Redis key

	Notifier     string `validate:"oneof=log smtp sns"`
	SMTPAddr     string `validate:"required_if=Notifier smtp"`
	SMTPFrom     string `validate:"required_if=Notifier smtp"`
	SMTPUsername string
	SMTPPassword string
	SNSRegion    string `validate:"required_if=Notifier sns"`
	SNSTopicARN  string `validate:"required_if=Notifier sns"`

	PepperFile           string        // File containing the password hashing pepper (default: ./pepper)
	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        `validate:"oneof=json text"`
	Port                 int           `validate:"min=1,max=65535"`
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)

	TrustProxy  bool // Take client IPs from X-Forwarded-For / X-Real-IP
	StrictLimit httpx.RateLimitConfig
	PublicLimit httpx.RateLimitConfig
}

func LoadConfig() (Config, error) {
	cfg := Config{
		Issuer:         getEnvOrDefault("AUTH_ISSUER", "doorman"),
		SigningKeyFile: os.Getenv("AUTH_SIGNING_KEY_FILE"),
		TokenTTL:       getEnvDurationOrDefault("AUTH_TOKEN_TTL", jwtx.DefaultSessionTTL),
		CookieName:     getEnvOrDefault("AUTH_COOKIE_NAME", "jwt"),
		CookieDomain:   os.Getenv("AUTH_COOKIE_DOMAIN"),
		CookieInsecure: getEnvBoolOrDefault("AUTH_COOKIE_INSECURE", false),
		ChallengeTTL:   getEnvDurationOrDefault("AUTH_CHALLENGE_TTL", store.DefaultChallengeTTL),

		AccountStore:    getEnvOrDefault("AUTH_ACCOUNT_STORE", BackendSQLite),
		ChallengeStore:  getEnvOrDefault("AUTH_CHALLENGE_STORE", BackendSQLite),
		RevocationStore: getEnvOrDefault("AUTH_REVOCATION_STORE", BackendSQLite),

		DatabaseFile:   getEnvOrDefault("DATABASE_FILE", "auth.db"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		RedisDB:        getEnvIntOrDefault("REDIS_DB", 0),
		RedisNamespace: os.Getenv("REDIS_NAMESPACE"),

		Notifier:     getEnvOrDefault("AUTH_NOTIFIER", "log"),
		SMTPAddr:     os.Getenv("SMTP_ADDR"),
		SMTPFrom:     os.Getenv("SMTP_FROM"),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		SNSRegion:    os.Getenv("SNS_REGION"),
		SNSTopicARN:  os.Getenv("SNS_TOPIC_ARN"),

		PepperFile:           getEnvOrDefault("AUTH_PEPPER_FILE", "pepper"),
		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),

		TrustProxy:  getEnvBoolOrDefault("TRUST_PROXY", false),
		StrictLimit: httpx.ParseRateLimitFromEnv("STRICT", httpx.StrictLimit),
		PublicLimit: httpx.ParseRateLimitFromEnv("PUBLIC", httpx.PublicLimit),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field rules and the cross-field backend requirements.
func (c Config) Validate() error {
	if err := validx.Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	var errs []error
	if c.uses(BackendPostgres) && c.DatabaseURL == "" {
		errs = append(errs, errors.New("config: DATABASE_URL is required for the postgres store"))
	}
	if c.uses(BackendRedis) && c.RedisAddr == "" {
		errs = append(errs, errors.New("config: REDIS_ADDR is required for the redis store"))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, errors.New("config: AUTH_TOKEN_TTL must be positive"))
	}
	if c.ChallengeTTL <= 0 {
		errs = append(errs, errors.New("config: AUTH_CHALLENGE_TTL must be positive"))
	}
	return errors.Join(errs...)
}

func (c Config) uses(backend string) bool {
	return c.AccountStore == backend || c.ChallengeStore == backend || c.RevocationStore == backend
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer minutes (for backwards compatibility)
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
