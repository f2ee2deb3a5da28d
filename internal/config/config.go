package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App       AppConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Logger    LoggerConfig
	Auth      AuthConfig
	Lifecycle LifecycleConfig
	Dashboard DashboardConfig
	Board     BoardConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	BcryptCost            int
}

// LifecycleConfig selects the status transition policy ("free" or "forward_only").
type LifecycleConfig struct {
	Policy string
}

// DashboardConfig controls list pagination and how long idle dashboard views are kept.
type DashboardConfig struct {
	DefaultPageSize    int
	MaxPageSize        int
	ViewIdleTTLMinutes int
}

// BoardConfig controls the demo board.
type BoardConfig struct {
	Enabled          bool
	NewMarkerDelayMS int
}

// RateLimitConfig bounds ticket creation per profile.
type RateLimitConfig struct {
	TicketsPerMinute float64
	Burst            int
}

// CacheConfig holds Redis cache TTLs.
type CacheConfig struct {
	CategoryTTLSeconds int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	maxConns := int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10))
	minConns := int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2))
	runMigrations := getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true)
	connMaxIdle := int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30))
	connMaxLife := int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300))

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "helpdesk"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       maxConns,
			MinConns:       minConns,
			RunMigrations:  runMigrations,
			ConnMaxIdleSec: connMaxIdle,
			ConnMaxLifeSec: connMaxLife,
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		Lifecycle: LifecycleConfig{
			Policy: getEnv("LIFECYCLE_POLICY", "free"),
		},
		Dashboard: DashboardConfig{
			DefaultPageSize:    getEnvAsInt("DASHBOARD_PAGE_SIZE", 50),
			MaxPageSize:        getEnvAsInt("DASHBOARD_MAX_PAGE_SIZE", 200),
			ViewIdleTTLMinutes: getEnvAsInt("DASHBOARD_VIEW_IDLE_MINUTES", 30),
		},
		Board: BoardConfig{
			Enabled:          getEnvAsBool("BOARD_ENABLED", true),
			NewMarkerDelayMS: getEnvAsInt("BOARD_NEW_MARKER_MS", 500),
		},
		RateLimit: RateLimitConfig{
			TicketsPerMinute: getEnvAsFloat("RATE_LIMIT_TICKETS_PER_MINUTE", 10),
			Burst:            getEnvAsInt("RATE_LIMIT_TICKETS_BURST", 5),
		},
		Cache: CacheConfig{
			CategoryTTLSeconds: getEnvAsInt("CACHE_CATEGORY_TTL_SECONDS", 300),
		},
	}

	if cfg.Dashboard.DefaultPageSize <= 0 {
		return nil, fmt.Errorf("invalid DASHBOARD_PAGE_SIZE: %d", cfg.Dashboard.DefaultPageSize)
	}
	if cfg.Dashboard.MaxPageSize < cfg.Dashboard.DefaultPageSize {
		cfg.Dashboard.MaxPageSize = cfg.Dashboard.DefaultPageSize
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// AccessTokenTTL returns the JWT lifetime.
func (a AuthConfig) AccessTokenTTL() time.Duration {
	return time.Duration(a.AccessTokenTTLMinutes) * time.Minute
}

// NewMarkerDelay returns how long board tickets stay marked as new.
func (b BoardConfig) NewMarkerDelay() time.Duration {
	return time.Duration(b.NewMarkerDelayMS) * time.Millisecond
}

// ViewIdleTTL returns how long an unused dashboard view is kept; zero keeps views forever.
func (d DashboardConfig) ViewIdleTTL() time.Duration {
	if d.ViewIdleTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(d.ViewIdleTTLMinutes) * time.Minute
}

// CategoryTTL returns the category cache lifetime.
func (c CacheConfig) CategoryTTL() time.Duration {
	return time.Duration(c.CategoryTTLSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsFloat(key string, fallback float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
