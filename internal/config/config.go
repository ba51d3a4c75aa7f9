package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the server configuration, read from the environment. A .env file
// is loaded by the entry points before Load runs.
type Config struct {
	Environment string
	Port        string
	BaseURL     string // public URL of the web front end, used in email links
	CORSOrigins []string

	Log       LogConfig
	Database  DatabaseConfig
	Auth      AuthConfig
	Redis     RedisConfig
	Formio    FormioConfig
	AWS       AWSConfig
	Telemetry TelemetryConfig
	RateLimit RateLimitConfig
	Scheduler SchedulerConfig
	Exports   ExportConfig

	// RequiredServices are checked at startup; the server refuses to start
	// when one of them is unreachable.
	RequiredServices []string
}

type LogConfig struct {
	Level   string
	File    string
	Console bool
}

type DatabaseConfig struct {
	Driver       string // postgres or sqlite
	URL          string
	MaxIdleConns int
	MaxOpenConns int
	Debug        bool
}

type AuthConfig struct {
	JWTSecret  string
	TokenTTL   time.Duration
	ResetTTL   time.Duration
	TOTPIssuer string
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
}

// Addr returns host:port.
func (r RedisConfig) Addr() string {
	return r.Host + ":" + r.Port
}

type FormioConfig struct {
	URL      string
	APIKey   string
	Timeout  time.Duration
	CacheTTL time.Duration
}

type AWSConfig struct {
	Region       string
	S3Bucket     string
	SESFromEmail string
	SESFromName  string
}

type TelemetryConfig struct {
	Enabled      bool
	ServiceName  string
	OTLPEndpoint string
	SamplingRate float64
}

type RateLimitConfig struct {
	Requests     int
	Window       time.Duration
	AuthRequests int // per window, for login and password reset
}

type SchedulerConfig struct {
	Enabled        bool
	OverdueSpec    string
	ReminderSpec   string
	ReminderWindow time.Duration
}

type ExportConfig struct {
	Workers   int
	QueueSize int
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{
		Environment: getEnvOrDefault("ENVIRONMENT", "development"),
		Port:        getEnvOrDefault("PORT", "8787"),
		BaseURL:     getEnvOrDefault("BASE_URL", "http://localhost:3000"),
		CORSOrigins: getEnvList("CORS_ORIGINS", []string{"http://localhost:3000"}),
		Log: LogConfig{
			Level:   getEnvOrDefault("LOG_LEVEL", "info"),
			File:    os.Getenv("LOG_FILE"),
			Console: getEnvBool("LOG_CONSOLE", true),
		},
		Database: DatabaseConfig{
			Driver:       getEnvOrDefault("DB_DRIVER", "postgres"),
			URL:          databaseURL(),
			MaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 100),
		},
		Auth: AuthConfig{
			JWTSecret:  os.Getenv("JWT_SECRET"),
			TokenTTL:   getEnvDuration("JWT_TTL", 24*time.Hour),
			ResetTTL:   getEnvDuration("PASSWORD_RESET_TTL", time.Hour),
			TOTPIssuer: getEnvOrDefault("TOTP_ISSUER", "Formdesk"),
		},
		Redis: RedisConfig{
			Enabled:  getEnvBool("REDIS_ENABLED", true),
			Host:     getEnvOrDefault("REDIS_HOST", "localhost"),
			Port:     getEnvOrDefault("REDIS_PORT", "6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Formio: FormioConfig{
			URL:      getEnvOrDefault("FORMIO_URL", "http://localhost:3001"),
			APIKey:   os.Getenv("FORMIO_API_KEY"),
			Timeout:  getEnvDuration("FORMIO_TIMEOUT", 10*time.Second),
			CacheTTL: getEnvDuration("FORMIO_CACHE_TTL", 5*time.Minute),
		},
		AWS: AWSConfig{
			Region:       getEnvOrDefault("AWS_REGION", "us-east-1"),
			S3Bucket:     os.Getenv("S3_BUCKET"),
			SESFromEmail: getEnvOrDefault("SES_FROM_EMAIL", "noreply@formdesk.local"),
			SESFromName:  getEnvOrDefault("SES_FROM_NAME", "Formdesk"),
		},
		Telemetry: TelemetryConfig{
			Enabled:      getEnvBool("OTEL_ENABLED", false),
			ServiceName:  getEnvOrDefault("OTEL_SERVICE_NAME", "formdesk-api"),
			OTLPEndpoint: getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			SamplingRate: getEnvFloat("OTEL_SAMPLING_RATE", 1.0),
		},
		RateLimit: RateLimitConfig{
			Requests:     getEnvInt("RATE_LIMIT_REQUESTS", 300),
			Window:       getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
			AuthRequests: getEnvInt("RATE_LIMIT_AUTH_REQUESTS", 10),
		},
		Scheduler: SchedulerConfig{
			Enabled:        getEnvBool("SCHEDULER_ENABLED", true),
			OverdueSpec:    getEnvOrDefault("SCHEDULER_OVERDUE_SPEC", "@every 5m"),
			ReminderSpec:   getEnvOrDefault("SCHEDULER_REMINDER_SPEC", "0 8 * * *"),
			ReminderWindow: getEnvDuration("SCHEDULER_REMINDER_WINDOW", 24*time.Hour),
		},
		Exports: ExportConfig{
			Workers:   getEnvInt("EXPORT_WORKERS", 2),
			QueueSize: getEnvInt("EXPORT_QUEUE_SIZE", 50),
		},
		RequiredServices: getEnvList("REQUIRED_SERVICES", nil),
	}
	cfg.Database.Debug = cfg.Environment == "development"

	if cfg.Auth.JWTSecret == "" {
		if cfg.IsProduction() {
			return nil, fmt.Errorf("JWT_SECRET environment variable not set")
		}
		cfg.Auth.JWTSecret = "development-secret-change-me"
	}
	if cfg.Database.Driver != "postgres" && cfg.Database.Driver != "sqlite" {
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Database.Driver)
	}
	return cfg, nil
}

// databaseURL returns DATABASE_URL or builds a DSN from DB_* components.
func databaseURL() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}
	host := getEnvOrDefault("DB_HOST", "localhost")
	port := getEnvOrDefault("DB_PORT", "5432")
	user := getEnvOrDefault("DB_USER", "postgres")
	password := getEnvOrDefault("DB_PASSWORD", "")
	dbname := getEnvOrDefault("DB_NAME", "formdesk")
	sslmode := getEnvOrDefault("DB_SSLMODE", "disable")

	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, dbname, sslmode)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
