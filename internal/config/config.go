package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// MinSessionSecretLength is the minimum accepted SESSION_SECRET length in bytes.
const MinSessionSecretLength = 32

type Config struct {
	Server      ServerConfig
	Session     SessionConfig
	Users       UsersConfig
	Events      EventsConfig
	RateLimit   RateLimitConfig
	Logging     LoggingConfig
	Metrics     MetricsConfig
	Tracing     TracingConfig
	Environment string
}

type ServerConfig struct {
	Host    string
	Port    int
	BaseURL string
}

type SessionConfig struct {
	Secret     string
	TTL        time.Duration
	CookieName string
}

// UsersConfig controls where the credential store is loaded from.
// When File is empty a single bootstrap identity is built from the Bootstrap* fields.
type UsersConfig struct {
	File              string
	BootstrapEmail    string
	BootstrapPassword string
	BootstrapName     string
}

type EventsConfig struct {
	SeedFile string
}

type RateLimitConfig struct {
	PublicPerMinute   int
	LoginPer15Minutes int
	TrustedProxyCIDRs []string
}

type LoggingConfig struct {
	Level  string
	Format string
}

type MetricsConfig struct {
	Enabled bool
}

type TracingConfig struct {
	Enabled      bool
	Exporter     string
	ServiceName  string
	OTLPEndpoint string
	SampleRate   float64
}

func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Host:    getEnv("SERVER_HOST", "0.0.0.0"),
			Port:    getEnvInt("SERVER_PORT", 8080),
			BaseURL: getEnv("SERVER_BASE_URL", "http://localhost:8080"),
		},
		Session: SessionConfig{
			Secret:     os.Getenv("SESSION_SECRET"),
			TTL:        getEnvDuration("SESSION_TTL", 24*time.Hour),
			CookieName: getEnv("SESSION_COOKIE_NAME", "eventdesk_session"),
		},
		Users: UsersConfig{
			File:              getEnv("USERS_FILE", ""),
			BootstrapEmail:    getEnv("BOOTSTRAP_EMAIL", ""),
			BootstrapPassword: getEnv("BOOTSTRAP_PASSWORD", ""),
			BootstrapName:     getEnv("BOOTSTRAP_NAME", ""),
		},
		Events: EventsConfig{
			SeedFile: getEnv("EVENTS_SEED_FILE", ""),
		},
		RateLimit: RateLimitConfig{
			PublicPerMinute:   getEnvInt("RATE_LIMIT_PUBLIC", 0),
			LoginPer15Minutes: getEnvInt("RATE_LIMIT_LOGIN", 5),
			TrustedProxyCIDRs: getEnvList("TRUSTED_PROXY_CIDRS"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvBool("METRICS_ENABLED", true),
		},
		Tracing: TracingConfig{
			Enabled:      getEnvBool("TRACING_ENABLED", false),
			Exporter:     getEnv("TRACING_EXPORTER", "stdout"),
			ServiceName:  getEnv("TRACING_SERVICE_NAME", "eventdesk"),
			OTLPEndpoint: getEnv("TRACING_OTLP_ENDPOINT", "localhost:4317"),
			SampleRate:   getEnvFloat("TRACING_SAMPLE_RATE", 1.0),
		},
		Environment: getEnv("ENVIRONMENT", "development"),
	}

	if cfg.Session.Secret == "" {
		return Config{}, fmt.Errorf("SESSION_SECRET is required")
	}
	if len(cfg.Session.Secret) < MinSessionSecretLength {
		return Config{}, fmt.Errorf("SESSION_SECRET must be at least %d characters long (got %d)", MinSessionSecretLength, len(cfg.Session.Secret))
	}
	if cfg.Session.TTL <= 0 {
		return Config{}, fmt.Errorf("SESSION_TTL must be positive")
	}
	return cfg, nil
}

// IsProduction reports whether secure-only cookies and HSTS should be used.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// Addr returns the listen address for the HTTP server.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var result []string
	for _, item := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
