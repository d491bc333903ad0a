package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures everything main needs to wire the console.
type Server struct {
	Addr string

	// ReadOnly starts the console degraded: reads work, writes and retry
	// dispatch are refused until the flag is cleared at runtime.
	ReadOnly bool

	LedgerBaseURL string
	LedgerTimeout time.Duration

	// State files used by the file-backed stores.
	FailedActionsPath   string
	RecentCustomersPath string

	FailedActionCap int
	FailedActionTTL time.Duration

	// ConfirmDisplay is how long a confirmed mutation stays visible in the
	// pending view before it is cleared. FailedDisplay is the same window for
	// failed mutations; it is longer so agents can read the error.
	ConfirmDisplay time.Duration
	FailedDisplay  time.Duration

	AccountCacheTTL time.Duration

	Redis    RedisConfig
	Postgres PostgresConfig

	KafkaBrokers []string
	KafkaTopic   string
}

// RedisConfig configures the optional Redis backend.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// PostgresConfig configures the optional Postgres backend.
type PostgresConfig struct {
	URL string
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	return Server{
		Addr:                envOr("CONSOLE_ADDR", ":8080"),
		ReadOnly:            os.Getenv("CONSOLE_READ_ONLY") == "true",
		LedgerBaseURL:       envOr("LEDGER_BASE_URL", "http://localhost:9090"),
		LedgerTimeout:       envDuration("LEDGER_TIMEOUT", 10*time.Second),
		FailedActionsPath:   envOr("FAILED_ACTIONS_PATH", "state/failed-actions.json"),
		RecentCustomersPath: envOr("RECENT_CUSTOMERS_PATH", "state/recent-customers.json"),
		FailedActionCap:     envInt("FAILED_ACTION_CAP", 50),
		FailedActionTTL:     envDuration("FAILED_ACTION_TTL", 7*24*time.Hour),
		ConfirmDisplay:      envDuration("CONFIRM_DISPLAY", 2*time.Second),
		FailedDisplay:       envDuration("FAILED_DISPLAY", 30*time.Second),
		AccountCacheTTL:     envDuration("ACCOUNT_CACHE_TTL", 30*time.Second),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Postgres: PostgresConfig{
			URL: os.Getenv("POSTGRES_URL"),
		},
		KafkaBrokers: splitNonEmpty(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   envOr("KAFKA_AUDIT_TOPIC", "loanconsole.mutation-audit"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func splitNonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
