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
	SMTP      SMTPConfig
	Scheduler SchedulerConfig
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

// AuthConfig defines token lifetimes and credential parameters.
type AuthConfig struct {
	JWTSecret               string
	RegistrationTokenTTL    time.Duration
	AccessTokenTTL          time.Duration
	RefreshTokenTTL         time.Duration
	ChangePasswordTokenTTL  time.Duration
	InactiveUserGracePeriod time.Duration
	BcryptCost              int
	VerifyEmailLinkBase     string
	ChangePasswordLinkBase  string
}

// SMTPConfig holds outgoing mail settings.
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

// SchedulerConfig controls the delayed job queue.
type SchedulerConfig struct {
	QueueKey     string
	PollInterval time.Duration
	RetryDelay   time.Duration
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "account-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
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
			JWTSecret:               getEnv("AUTH_JWT_SECRET", "dev-secret"),
			RegistrationTokenTTL:    getEnvAsMinutes("AUTH_REGISTRATION_TOKEN_TTL_MINUTES", 15),
			AccessTokenTTL:          getEnvAsMinutes("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			RefreshTokenTTL:         getEnvAsMinutes("AUTH_REFRESH_TOKEN_TTL_MINUTES", 60*24*14),
			ChangePasswordTokenTTL:  getEnvAsMinutes("AUTH_CHANGE_PASSWORD_TOKEN_TTL_MINUTES", 15),
			InactiveUserGracePeriod: getEnvAsMinutes("AUTH_INACTIVE_USER_GRACE_MINUTES", 60),
			BcryptCost:              getEnvAsInt("AUTH_BCRYPT_COST", 12),
			VerifyEmailLinkBase:     getEnv("AUTH_VERIFY_EMAIL_LINK_BASE", "http://localhost:8080/auth/verify-email/"),
			ChangePasswordLinkBase:  getEnv("AUTH_CHANGE_PASSWORD_LINK_BASE", "http://localhost:8080/user/change-password/"),
		},
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", "127.0.0.1"),
			Port:     getEnv("SMTP_PORT", "25"),
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     getEnv("SMTP_FROM", "noreply@example.com"),
		},
		Scheduler: SchedulerConfig{
			QueueKey:     getEnv("SCHEDULER_QUEUE_KEY", "account-service:jobs"),
			PollInterval: getEnvAsSeconds("SCHEDULER_POLL_INTERVAL_SECONDS", 5),
			RetryDelay:   getEnvAsSeconds("SCHEDULER_RETRY_DELAY_SECONDS", 30),
		},
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

func getEnvAsMinutes(key string, fallback int) time.Duration {
	return time.Duration(getEnvAsInt(key, fallback)) * time.Minute
}

func getEnvAsSeconds(key string, fallback int) time.Duration {
	return time.Duration(getEnvAsInt(key, fallback)) * time.Second
}
