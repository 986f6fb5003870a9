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
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	Engine   EngineConfig
	Notifier NotifierConfig
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

// AuthConfig defines token verification parameters for actor extraction.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
}

// EngineConfig holds lifecycle and escalation policy values.
type EngineConfig struct {
	MaxAssignmentsPerWorker   int
	EscalationLevel1Threshold time.Duration
	EscalationLevel2Threshold time.Duration
	SweepInterval             time.Duration
	ConflictRetryAttempts     int
}

// NotifierConfig holds notification queue and retry policy values.
type NotifierConfig struct {
	QueueKey        string
	MaxAttempts     int
	RetryBackoff    time.Duration
	PollInterval    time.Duration
	DispatchTimeout time.Duration
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
			Name:                  getEnv("APP_NAME", "complaint-service"),
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
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
		},
		Engine: EngineConfig{
			MaxAssignmentsPerWorker:   getEnvAsInt("ENGINE_MAX_ASSIGNMENTS_PER_WORKER", 3),
			EscalationLevel1Threshold: getEnvAsDuration("ENGINE_ESCALATION_LEVEL1_THRESHOLD", 24*time.Hour),
			EscalationLevel2Threshold: getEnvAsDuration("ENGINE_ESCALATION_LEVEL2_THRESHOLD", 48*time.Hour),
			SweepInterval:             getEnvAsDuration("ENGINE_SWEEP_INTERVAL", 5*time.Minute),
			ConflictRetryAttempts:     getEnvAsInt("ENGINE_CONFLICT_RETRY_ATTEMPTS", 3),
		},
		Notifier: NotifierConfig{
			QueueKey:        getEnv("NOTIFY_QUEUE_KEY", "complaint:notifications"),
			MaxAttempts:     getEnvAsInt("NOTIFY_MAX_ATTEMPTS", 5),
			RetryBackoff:    getEnvAsDuration("NOTIFY_RETRY_BACKOFF", 10*time.Second),
			PollInterval:    getEnvAsDuration("NOTIFY_POLL_INTERVAL", time.Second),
			DispatchTimeout: getEnvAsDuration("NOTIFY_DISPATCH_TIMEOUT", 5*time.Second),
		},
	}

	if cfg.Engine.MaxAssignmentsPerWorker < 1 {
		return nil, fmt.Errorf("ENGINE_MAX_ASSIGNMENTS_PER_WORKER must be >= 1")
	}
	if cfg.Engine.EscalationLevel2Threshold <= cfg.Engine.EscalationLevel1Threshold {
		return nil, fmt.Errorf("level 2 escalation threshold must exceed level 1")
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

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(val)
	if err != nil {
		return fallback
	}
	return parsed
}
