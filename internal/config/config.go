package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	pkghttp "github.com/BradenHooton/authguard/pkg/http"
	"github.com/joho/godotenv"
)

// Rate limiter store backends
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

type Config struct {
	Server    ServerConfig
	RateLimit RateLimitConfig
	Detection DetectionConfig
	Redis     RedisConfig
	Database  DatabaseConfig
	Payload   PayloadConfig
	Timing    TimingConfig
}

type ServerConfig struct {
	Port           string
	Env            string
	LogLevel       string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	TrustedProxies []string
	// Requests per minute per client IP on /v1 routes
	APIRateLimit int
	// APIKey guards the routes that record outcomes or reset identifiers
	APIKey string
}

type RateLimitConfig struct {
	MaxAttempts   int
	Window        time.Duration
	Store         string
	SweepInterval time.Duration
}

type DetectionConfig struct {
	Window           time.Duration
	HistoryRetention time.Duration
}

type RedisConfig struct {
	URL string
}

// DatabaseConfig is optional. Without it attempt history stays in memory.
type DatabaseConfig struct {
	URL               string
	Host              string
	Port              int
	User              string
	Password          string
	Name              string
	SSLMode           string
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
}

type PayloadConfig struct {
	Secret string
}

type TimingConfig struct {
	BaseDelayMs    int
	RandomDelayMs  int
	DelayOnSuccess bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	env := getEnv("ENV", "development")

	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			Env:            env,
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			ReadTimeout:    getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:   getEnvAsDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:    getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			TrustedProxies: getEnvAsList("TRUSTED_PROXIES"),
			APIRateLimit:   getEnvAsInt("API_RATE_LIMIT_PER_MINUTE", 60),
			APIKey:         getEnv("API_KEY", ""),
		},
		RateLimit: RateLimitConfig{
			MaxAttempts:   getEnvAsInt("RATE_LIMIT_MAX_ATTEMPTS", 5),
			Window:        getEnvAsDuration("RATE_LIMIT_WINDOW", 15*time.Minute),
			Store:         strings.ToLower(getEnv("RATE_LIMIT_STORE", StoreMemory)),
			SweepInterval: getEnvAsDuration("RATE_LIMIT_SWEEP_INTERVAL", 5*time.Minute),
		},
		Detection: DetectionConfig{
			Window:           getEnvAsDuration("SUSPICIOUS_WINDOW", time.Hour),
			HistoryRetention: getEnvAsDuration("ATTEMPT_HISTORY_RETENTION", 24*time.Hour),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", ""),
		},
		Database: DatabaseConfig{
			URL:               getEnv("DATABASE_URL", ""),
			Host:              getEnv("DB_HOST", ""),
			Port:              getEnvAsInt("DB_PORT", 5432),
			User:              getEnv("DB_USER", "postgres"),
			Password:          getEnv("DB_PASSWORD", ""),
			Name:              getEnv("DB_NAME", "authguard"),
			SSLMode:           getEnv("DB_SSLMODE", "disable"),
			MaxConns:          int32(getEnvAsInt("DB_MAX_CONNS", 10)),
			MinConns:          int32(getEnvAsInt("DB_MIN_CONNS", 2)),
			MaxConnLifetime:   getEnvAsDuration("DB_MAX_CONN_LIFETIME", 5*time.Minute),
			MaxConnIdleTime:   getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 1*time.Minute),
			HealthCheckPeriod: getEnvAsDuration("DB_HEALTH_CHECK_PERIOD", 1*time.Minute),
		},
		Payload: PayloadConfig{
			Secret: getEnv("PAYLOAD_SECRET", ""),
		},
		Timing: TimingConfig{
			BaseDelayMs:    getEnvAsInt("TIMING_DELAY_BASE_MS", 100),
			RandomDelayMs:  getEnvAsInt("TIMING_DELAY_RANDOM_MS", 50),
			DelayOnSuccess: getEnvAsBool("TIMING_DELAY_ON_SUCCESS", false),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Payload.Secret == "" {
		return fmt.Errorf("PAYLOAD_SECRET is required")
	}
	if err := validateSecret("PAYLOAD_SECRET", c.Payload.Secret, c.Server.Env); err != nil {
		return err
	}

	if c.Server.APIKey == "" {
		return fmt.Errorf("API_KEY is required")
	}
	if err := validateSecret("API_KEY", c.Server.APIKey, c.Server.Env); err != nil {
		return err
	}
	if c.Server.APIKey == c.Payload.Secret {
		return fmt.Errorf("API_KEY must differ from PAYLOAD_SECRET")
	}

	switch c.RateLimit.Store {
	case StoreMemory:
	case StoreRedis:
		if c.Redis.URL == "" {
			return fmt.Errorf("REDIS_URL is required when RATE_LIMIT_STORE=redis")
		}
	default:
		return fmt.Errorf("RATE_LIMIT_STORE must be %q or %q (got %q)", StoreMemory, StoreRedis, c.RateLimit.Store)
	}

	if c.RateLimit.MaxAttempts <= 0 {
		return fmt.Errorf("RATE_LIMIT_MAX_ATTEMPTS must be positive (got %d)", c.RateLimit.MaxAttempts)
	}
	if c.RateLimit.Window <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive (got %s)", c.RateLimit.Window)
	}

	if c.Database.Host != "" && c.Database.URL == "" && c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required when DB_HOST is set")
	}

	for _, proxy := range c.Server.TrustedProxies {
		if _, err := pkghttp.ParseTrustedProxy(proxy); err != nil {
			return fmt.Errorf("TRUSTED_PROXIES: %w", err)
		}
	}

	return nil
}

// validateSecret enforces minimum security standards for configured secrets
func validateSecret(name, secret, env string) error {
	minLength := 16
	if env == "production" {
		minLength = 32
	}

	if len(secret) < minLength {
		return fmt.Errorf("%s must be at least %d characters in %s environment (got %d)",
			name, minLength, env, len(secret))
	}

	weakSecrets := []string{
		"secret", "test", "password", "12345", "changeme",
		"admin", "root", "default", "example",
	}

	secretLower := strings.ToLower(secret)
	for _, weak := range weakSecrets {
		if secretLower == weak {
			return fmt.Errorf("%s cannot be a common weak value", name)
		}
	}

	return nil
}

// Enabled reports whether a PostgreSQL attempt log is configured
func (c *DatabaseConfig) Enabled() bool {
	return c.URL != "" || c.Host != ""
}

func (c *DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// IsProduction reports whether ENV=production
func (c *ServerConfig) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultVal
}

func getEnvAsList(key string) []string {
	value := getEnv(key, "")
	if value == "" {
		return nil
	}

	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
