// Package config loads the service configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/robfig/cron/v3"
)

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"

	// DriverPGX and DriverPQ are the database/sql driver names.
	DriverPGX = "pgx"
	DriverPQ  = "postgres"
)

type Config struct {
	// --- Server ---
	Port      string `envconfig:"PORT" default:"8080"`
	Storage   string `envconfig:"STORAGE" default:"postgres"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`

	CORSOrigins []string `envconfig:"CORS_ORIGINS" default:"*"`

	// --- Database ---
	DBDriver   string `envconfig:"DB_DRIVER" default:"pgx"`
	DBHost     string `envconfig:"DB_HOST" default:"localhost"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"kanso_user"`
	DBPassword string `envconfig:"DB_PASSWORD"`
	DBName     string `envconfig:"DB_NAME" default:"kanso_db"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	DBMaxConns int    `envconfig:"DB_MAX_CONNS" default:"25"`
	// DBAutoMigrate applies pending migrations when the server starts.
	DBAutoMigrate bool `envconfig:"DB_AUTO_MIGRATE" default:"true"`

	// --- Redis ---
	// An empty REDIS_HOST disables the cache and the rate limiter.
	RedisHost     string        `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     string        `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD"`
	RedisDB       int           `envconfig:"REDIS_DB" default:"0"`
	CacheTTL      time.Duration `envconfig:"CACHE_TTL" default:"30m"`

	// --- Auth ---
	JWTSecret string        `envconfig:"JWT_SECRET" required:"true"`
	JWTIssuer string        `envconfig:"JWT_ISSUER" default:"kanso-progress-engine"`
	JWTTTL    time.Duration `envconfig:"JWT_TTL" default:"72h"`

	// --- Progress ---
	// Days roll over at midnight in this zone.
	AppTimezone     string `envconfig:"APP_TIMEZONE" default:"UTC"`
	RecalcSchedule  string `envconfig:"RECALC_SCHEDULE" default:"5 0 * * *"`
	WorkerQueueSize int    `envconfig:"WORKER_QUEUE_SIZE" default:"100"`

	// --- Rate Limiting ---
	RateLimitRequests int           `envconfig:"RATE_LIMIT_REQUESTS" default:"100"`
	RateLimitWindow   time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`

	location *time.Location
}

func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

// RedisAddr is empty when Redis is disabled.
func (c *Config) RedisAddr() string {
	if c.RedisHost == "" {
		return ""
	}
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}

// Location is the zone used to decide which calendar day "today" is.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT must not be empty")
	}
	if c.Storage != StoragePostgres && c.Storage != StorageMemory {
		return fmt.Errorf("STORAGE must be %q or %q, got %q", StoragePostgres, StorageMemory, c.Storage)
	}
	if c.DBDriver != DriverPGX && c.DBDriver != DriverPQ {
		return fmt.Errorf("DB_DRIVER must be %q or %q, got %q", DriverPGX, DriverPQ, c.DBDriver)
	}
	if c.DBMaxConns <= 0 {
		return errors.New("DB_MAX_CONNS must be > 0")
	}
	if c.WorkerQueueSize <= 0 {
		return errors.New("WORKER_QUEUE_SIZE must be > 0")
	}
	if c.RateLimitRequests <= 0 || c.RateLimitWindow <= 0 {
		return errors.New("RATE_LIMIT_REQUESTS and RATE_LIMIT_WINDOW must be > 0")
	}
	if c.JWTTTL <= 0 {
		return errors.New("JWT_TTL must be > 0")
	}

	loc, err := time.LoadLocation(c.AppTimezone)
	if err != nil {
		return fmt.Errorf("APP_TIMEZONE: %w", err)
	}
	c.location = loc

	if _, err := cron.ParseStandard(c.RecalcSchedule); err != nil {
		return fmt.Errorf("RECALC_SCHEDULE: %w", err)
	}
	return nil
}

// Load reads an optional .env file, then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
