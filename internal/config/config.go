package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// LogConfig controls the global slog logger.
type LogConfig struct {
	Level     string
	Format    string
	Component string
	Source    bool
}

// EngineConfig carries the tunables of the like/abuse engine.
type EngineConfig struct {
	Cooldown            time.Duration
	SpamDenyThreshold   int
	ModerationThreshold int
	SpamFailurePolicy   string // "open" or "closed"
	QuotaSource         string // "legacy" or "verification"
	Timezone            string
	CandidatePoolSize   int
	NewAccountAge       time.Duration
	NotifyTimeout       time.Duration
}

type Config struct {
	App struct {
		ENV string
	}

	Log LogConfig

	DB struct {
		Driver   string
		DSN      string
		Host     string
		Port     string
		User     string
		Password string
		Name     string
	}

	Redis struct {
		Addr     string
		Password string
		DB       int
	}

	GRPC struct {
		Host string
		Port string
	}

	HTTP struct {
		Addr string
	}

	Auth struct {
		JWTSecret string
	}

	Engine EngineConfig
}

// New builds the configuration from the environment. A .env file in the
// working directory is loaded first when present; real env vars win.
func New() *Config {
	_ = godotenv.Load()

	cfg := &Config{}

	cfg.App.ENV = getEnvDefault("APP_ENV", "development")

	// Logger
	cfg.Log.Level = getEnvDefault("LOG_LEVEL", "info")
	cfg.Log.Format = getEnvDefault("LOG_FORMAT", "text")
	cfg.Log.Component = getEnvDefault("LOG_COMPONENT", "match_engine")
	cfg.Log.Source = isTruthy(os.Getenv("LOG_SOURCE"))

	// Database
	cfg.DB.Driver = strings.ToLower(getEnvDefault("DB_DRIVER", "mysql"))
	cfg.DB.DSN = os.Getenv("DB_DSN")
	if cfg.DB.DSN == "" {
		cfg.DB.DSN = os.Getenv("MYSQL_DSN")
	}
	if cfg.DB.DSN == "" {
		switch cfg.DB.Driver {
		case "sqlite":
			cfg.DB.DSN = getEnvDefault("SQLITE_PATH", "match_engine.db")
		default:
			cfg.DB.Host = getEnvDefault("DB_HOST", "localhost")
			cfg.DB.Port = getEnvDefault("DB_PORT", "3306")
			cfg.DB.User = getEnvDefault("DB_USER", "root")
			cfg.DB.Password = getEnvDefault("DB_PASSWORD", "root")
			cfg.DB.Name = getEnvDefault("DB_NAME", "matching")

			cfg.DB.DSN = fmt.Sprintf(
				"%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
				cfg.DB.User, cfg.DB.Password, cfg.DB.Host, cfg.DB.Port, cfg.DB.Name,
			)
		}
	}

	// Redis
	cfg.Redis.Addr = getEnvDefault("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnvDefault("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)

	// gRPC
	cfg.GRPC.Host = getEnvDefault("GRPC_HOST", "127.0.0.1")
	cfg.GRPC.Port = getEnvDefault("GRPC_PORT", "50051")

	// ops listener (/healthz, /metrics)
	cfg.HTTP.Addr = getEnvDefault("HTTP_ADDR", "127.0.0.1:9090")

	// empty secret disables the auth interceptor
	cfg.Auth.JWTSecret = os.Getenv("JWT_SECRET")

	// Engine
	cfg.Engine.Cooldown = getEnvDuration("LIKE_COOLDOWN", time.Hour)
	cfg.Engine.SpamDenyThreshold = getEnvInt("SPAM_DENY_THRESHOLD", 70)
	cfg.Engine.ModerationThreshold = getEnvInt("SPAM_MODERATION_THRESHOLD", 80)
	cfg.Engine.SpamFailurePolicy = strings.ToLower(getEnvDefault("SPAM_FAILURE_POLICY", "open"))
	cfg.Engine.QuotaSource = strings.ToLower(getEnvDefault("QUOTA_SOURCE", "legacy"))
	cfg.Engine.Timezone = getEnvDefault("ENGINE_TIMEZONE", "Local")
	cfg.Engine.CandidatePoolSize = getEnvInt("CANDIDATE_POOL_SIZE", 500)
	cfg.Engine.NewAccountAge = getEnvDuration("NEW_ACCOUNT_AGE", 7*24*time.Hour)
	cfg.Engine.NotifyTimeout = getEnvDuration("NOTIFY_TIMEOUT", 2*time.Second)

	return cfg
}

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	switch c.DB.Driver {
	case "mysql", "sqlite":
	default:
		return fmt.Errorf("invalid DB_DRIVER: %s", c.DB.Driver)
	}
	if c.DB.DSN == "" {
		return fmt.Errorf("database DSN is required")
	}

	switch c.Engine.SpamFailurePolicy {
	case "open", "closed":
	default:
		return fmt.Errorf("invalid SPAM_FAILURE_POLICY: %s", c.Engine.SpamFailurePolicy)
	}
	switch c.Engine.QuotaSource {
	case "legacy", "verification":
	default:
		return fmt.Errorf("invalid QUOTA_SOURCE: %s", c.Engine.QuotaSource)
	}

	if c.Engine.Cooldown < 0 {
		return fmt.Errorf("LIKE_COOLDOWN must not be negative")
	}
	if c.Engine.SpamDenyThreshold < 0 || c.Engine.SpamDenyThreshold > 100 {
		return fmt.Errorf("SPAM_DENY_THRESHOLD must be between 0 and 100")
	}
	if c.Engine.ModerationThreshold < c.Engine.SpamDenyThreshold || c.Engine.ModerationThreshold > 100 {
		return fmt.Errorf("SPAM_MODERATION_THRESHOLD must be between the deny threshold and 100")
	}
	if c.Engine.CandidatePoolSize < 1 {
		return fmt.Errorf("CANDIDATE_POOL_SIZE must be positive")
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("invalid ENGINE_TIMEZONE: %w", err)
	}

	if c.IsProduction() && c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required in production")
	}
	return nil
}

// Location resolves the timezone that defines a "calendar day" for quotas.
func (c *Config) Location() (*time.Location, error) {
	switch c.Engine.Timezone {
	case "", "Local":
		return time.Local, nil
	case "UTC":
		return time.UTC, nil
	}
	return time.LoadLocation(c.Engine.Timezone)
}

func (c *Config) IsProduction() bool {
	return c.App.ENV == "production"
}

func getEnvDefault(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getEnvInt(k string, def int) int {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvDuration(k string, def time.Duration) time.Duration {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}
