package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Storage drivers understood by the server
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	App      AppConfig      `yaml:"app"`
	Click    ClickConfig    `yaml:"click"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            string        `yaml:"port"`
	BaseURL         string        `yaml:"base_url"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig holds PostgreSQL connection settings
type DatabaseConfig struct {
	Driver          string        `yaml:"driver"`
	Host            string        `yaml:"host"`
	Port            string        `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	DBName          string        `yaml:"dbname"`
	SSLMode         string        `yaml:"sslmode"`
	MaxConns        int           `yaml:"max_conns"`
	MinConns        int           `yaml:"min_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	QueryTimeout    time.Duration `yaml:"query_timeout"`
	AutoMigrate     bool          `yaml:"auto_migrate"`
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Host     string        `yaml:"host"`
	Port     string        `yaml:"port"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Environment        string `yaml:"environment"`
	LogLevel           string `yaml:"log_level"`
	LogFormat          string `yaml:"log_format"`
	HashLength         int    `yaml:"hash_length"`
	RateLimitEnabled   bool   `yaml:"rate_limit_enabled"`
	RateLimitPerMinute int    `yaml:"rate_limit_per_minute"`
	EnableMetrics      bool   `yaml:"enable_metrics"`
}

// ClickConfig tunes the detached click-statistics writes
type ClickConfig struct {
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8080",
			BaseURL:         "http://localhost:8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:          DriverPostgres,
			Host:            "localhost",
			Port:            "5432",
			User:            "shortlink",
			Password:        "dev_password_123",
			DBName:          "shortlink",
			SSLMode:         "disable",
			MaxConns:        25,
			MinConns:        5,
			ConnMaxLifetime: 5 * time.Minute,
			QueryTimeout:    3 * time.Second,
			AutoMigrate:     true,
		},
		Redis: RedisConfig{
			Enabled:  false,
			Host:     "localhost",
			Port:     "6379",
			DB:       0,
			CacheTTL: time.Hour,
		},
		App: AppConfig{
			Environment:        "development",
			LogLevel:           "info",
			LogFormat:          "json",
			HashLength:         6,
			RateLimitEnabled:   false,
			RateLimitPerMinute: 100,
			EnableMetrics:      true,
		},
		Click: ClickConfig{
			WriteTimeout: 5 * time.Second,
		},
	}
}

// Load builds the configuration in three layers:
// defaults, then the optional YAML file named by CONFIG_FILE, then
// environment variables (a local .env file is loaded first, best-effort).
func Load() (*Config, error) {
	// Missing .env is normal outside local development
	_ = godotenv.Load()

	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadFile overlays YAML values onto cfg; keys absent from the file keep
// their current values
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Server.Port = getEnv("SERVER_PORT", c.Server.Port)
	c.Server.BaseURL = getEnv("BASE_URL", c.Server.BaseURL)
	c.Server.ReadTimeout = parseDuration("SERVER_READ_TIMEOUT", c.Server.ReadTimeout)
	c.Server.WriteTimeout = parseDuration("SERVER_WRITE_TIMEOUT", c.Server.WriteTimeout)
	c.Server.IdleTimeout = parseDuration("SERVER_IDLE_TIMEOUT", c.Server.IdleTimeout)
	c.Server.ShutdownTimeout = parseDuration("SERVER_SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout)

	c.Database.Driver = getEnv("DB_DRIVER", c.Database.Driver)
	c.Database.Host = getEnv("DB_HOST", c.Database.Host)
	c.Database.Port = getEnv("DB_PORT", c.Database.Port)
	c.Database.User = getEnv("DB_USER", c.Database.User)
	c.Database.Password = getEnv("DB_PASSWORD", c.Database.Password)
	c.Database.DBName = getEnv("DB_NAME", c.Database.DBName)
	c.Database.SSLMode = getEnv("DB_SSLMODE", c.Database.SSLMode)
	c.Database.MaxConns = parseInt("DB_MAX_CONNS", c.Database.MaxConns)
	c.Database.MinConns = parseInt("DB_MIN_CONNS", c.Database.MinConns)
	c.Database.ConnMaxLifetime = parseDuration("DB_CONN_MAX_LIFETIME", c.Database.ConnMaxLifetime)
	c.Database.QueryTimeout = parseDuration("DB_QUERY_TIMEOUT", c.Database.QueryTimeout)
	c.Database.AutoMigrate = parseBool("DB_AUTO_MIGRATE", c.Database.AutoMigrate)

	c.Redis.Enabled = parseBool("REDIS_ENABLED", c.Redis.Enabled)
	c.Redis.Host = getEnv("REDIS_HOST", c.Redis.Host)
	c.Redis.Port = getEnv("REDIS_PORT", c.Redis.Port)
	c.Redis.Password = getEnv("REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = parseInt("REDIS_DB", c.Redis.DB)
	c.Redis.CacheTTL = parseDuration("REDIS_CACHE_TTL", c.Redis.CacheTTL)

	c.App.Environment = getEnv("APP_ENV", c.App.Environment)
	c.App.LogLevel = getEnv("LOG_LEVEL", c.App.LogLevel)
	c.App.LogFormat = getEnv("LOG_FORMAT", c.App.LogFormat)
	c.App.HashLength = parseInt("HASH_LENGTH", c.App.HashLength)
	c.App.RateLimitEnabled = parseBool("RATE_LIMIT_ENABLED", c.App.RateLimitEnabled)
	c.App.RateLimitPerMinute = parseInt("RATE_LIMIT_REQUESTS_PER_MINUTE", c.App.RateLimitPerMinute)
	c.App.EnableMetrics = parseBool("ENABLE_METRICS", c.App.EnableMetrics)

	c.Click.WriteTimeout = parseDuration("CLICK_WRITE_TIMEOUT", c.Click.WriteTimeout)
}

// Validate rejects settings the server cannot run with
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}
	if c.App.HashLength < 2 || c.App.HashLength%2 != 0 {
		return errors.New("hash length must be an even number of at least 2")
	}
	if c.Click.WriteTimeout <= 0 {
		return errors.New("click write timeout must be positive")
	}
	if c.Redis.Enabled && c.Redis.CacheTTL <= 0 {
		return errors.New("redis cache TTL must be positive")
	}
	if c.App.RateLimitEnabled && c.App.RateLimitPerMinute <= 0 {
		return errors.New("rate limit must be positive when enabled")
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection URL.
// Both pgxpool and golang-migrate accept this form.
func (c *DatabaseConfig) DatabaseURL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: url.Values{"sslmode": []string{c.SSLMode}}.Encode(),
	}
	return u.String()
}

// RedisAddr returns the Redis address in host:port format
func (c *RedisConfig) RedisAddr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// Helper functions to parse environment variables with defaults

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func parseBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func parseDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
