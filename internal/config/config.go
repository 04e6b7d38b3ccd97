package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Session store backends.
const (
	SessionBackendPostgres = "postgres"
	SessionBackendRedis    = "redis"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Server   ServerConfig
	Session  SessionConfig
}

// AppConfig holds the platform app credentials used by the auth gate and the
// OAuth install flow.
type AppConfig struct {
	APIKey     string // platform client ID; session-token audience
	APISecret  string //nolint:gosec // G117: shared app secret config
	AppURL     string // public base URL of this gateway
	Scopes     []string
	APIVersion string // upstream Admin API version segment
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string //nolint:gosec // G117: DB connection config
	DBName   string
	SSLMode  string
	MaxConns int
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string //nolint:gosec // G117: Redis connection config
	DB       int
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CORSOrigins  []string
}

// SessionConfig selects which store backs the session layer.
type SessionConfig struct {
	Backend string
}

// Load reads configuration from environment variables.
// Defaults are safe for local development only. In production, the app
// credentials must be set explicitly.
func Load() (*Config, error) {
	dbPort, err := getEnvInt("STOCKGATE_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	dbMaxConns, err := getEnvInt("STOCKGATE_DB_MAX_CONNS", 25)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	redisDB, err := getEnvInt("STOCKGATE_REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	readTimeout, err := getEnvDuration("STOCKGATE_SERVER_READ_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	writeTimeout, err := getEnvDuration("STOCKGATE_SERVER_WRITE_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			APIKey:     getEnv("STOCKGATE_APP_API_KEY", ""),
			APISecret:  getEnv("STOCKGATE_APP_API_SECRET", ""),
			AppURL:     getEnv("STOCKGATE_APP_URL", "http://localhost:8080"),
			Scopes:     getEnvList("STOCKGATE_APP_SCOPES", []string{"read_inventory"}),
			APIVersion: getEnv("STOCKGATE_APP_API_VERSION", "2025-01"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("STOCKGATE_DB_HOST", "localhost"),
			Port:     dbPort,
			User:     getEnv("STOCKGATE_DB_USER", "stockgate"),
			Password: getEnv("STOCKGATE_DB_PASSWORD", ""),
			DBName:   getEnv("STOCKGATE_DB_NAME", "stockgate_dev"),
			SSLMode:  getEnv("STOCKGATE_DB_SSLMODE", "disable"),
			MaxConns: dbMaxConns,
		},
		Redis: RedisConfig{
			Addr:     getEnv("STOCKGATE_REDIS_ADDR", "localhost:6379"),
			Password: getEnv("STOCKGATE_REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Server: ServerConfig{
			Addr:         getEnv("STOCKGATE_SERVER_ADDR", ":8080"),
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
			CORSOrigins:  getEnvList("STOCKGATE_CORS_ORIGINS", []string{"*"}),
		},
		Session: SessionConfig{
			Backend: getEnv("STOCKGATE_SESSION_BACKEND", SessionBackendPostgres),
		},
	}

	err = cfg.validate()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	return cfg, nil
}

// validate checks required fields and value bounds.
func (c *Config) validate() error {
	if c.App.APIKey == "" {
		return errors.New("STOCKGATE_APP_API_KEY is required")
	}
	if c.App.APISecret == "" {
		return errors.New("STOCKGATE_APP_API_SECRET is required")
	}
	if len(c.App.APISecret) < 16 {
		return errors.New("STOCKGATE_APP_API_SECRET must be at least 16 characters")
	}
	if len(c.App.Scopes) == 0 {
		return errors.New("STOCKGATE_APP_SCOPES must name at least one scope")
	}

	switch c.Session.Backend {
	case SessionBackendPostgres, SessionBackendRedis:
	default:
		return fmt.Errorf("STOCKGATE_SESSION_BACKEND must be %q or %q, got %q",
			SessionBackendPostgres, SessionBackendRedis, c.Session.Backend)
	}

	if c.Session.Backend == SessionBackendPostgres && c.Database.SSLMode == "disable" {
		log.Warn().Msg("STOCKGATE_DB_SSLMODE=disable is insecure for production; set to 'require' or 'verify-full'")
	}

	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("STOCKGATE_DB_PORT must be 1-65535, got %d", c.Database.Port)
	}
	if c.Database.MaxConns < 1 {
		return fmt.Errorf("STOCKGATE_DB_MAX_CONNS must be >= 1, got %d", c.Database.MaxConns)
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("STOCKGATE_SERVER_READ_TIMEOUT must be positive, got %s", c.Server.ReadTimeout)
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("STOCKGATE_SERVER_WRITE_TIMEOUT must be positive, got %s", c.Server.WriteTimeout)
	}

	return nil
}

// DSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as int: %w", key, v, err)
	}
	return n, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as duration: %w", key, v, err)
	}
	return d, nil
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
