package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	CORS     CORSConfig
	Log      LogConfig
	Payroll  PayrollConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

// RedisConfig configures the session store connection. OpTimeout bounds every
// session store round-trip so an outage surfaces as a retryable error instead
// of hanging the request.
type RedisConfig struct {
	Host      string
	Port      int
	Password  string
	DB        int
	OpTimeout time.Duration
}

// AuthConfig carries the two signing secrets and token lifetimes. Access and
// refresh tokens are signed with independent secrets so leaking one does not
// let an attacker mint the other kind.
type AuthConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
	BcryptCost    int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// PayrollConfig configures asynchronous payroll export generation.
type PayrollConfig struct {
	StorageDir        string
	SignedURLSecret   string
	SignedURLTTL      time.Duration
	WorkerConcurrency int
	WorkerRetries     int
	CleanupInterval   time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:      v.GetString("REDIS_HOST"),
		Port:      v.GetInt("REDIS_PORT"),
		Password:  v.GetString("REDIS_PASSWORD"),
		DB:        v.GetInt("REDIS_DB"),
		OpTimeout: parseDuration(v.GetString("REDIS_OP_TIMEOUT"), 2*time.Second),
	}

	cfg.Auth = AuthConfig{
		AccessSecret:  v.GetString("JWT_SECRET"),
		RefreshSecret: v.GetString("JWT_REFRESH_SECRET"),
		AccessTTL:     parseDuration(v.GetString("ACCESS_TOKEN_TTL"), 15*time.Minute),
		RefreshTTL:    parseDuration(v.GetString("REFRESH_TOKEN_TTL"), 7*24*time.Hour),
		Issuer:        v.GetString("JWT_ISSUER"),
		BcryptCost:    v.GetInt("BCRYPT_COST"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Payroll = PayrollConfig{
		StorageDir:        v.GetString("PAYROLL_STORAGE_DIR"),
		SignedURLSecret:   v.GetString("PAYROLL_SIGNED_URL_SECRET"),
		SignedURLTTL:      parseDuration(v.GetString("PAYROLL_SIGNED_URL_TTL"), 24*time.Hour),
		WorkerConcurrency: v.GetInt("PAYROLL_WORKER_CONCURRENCY"),
		WorkerRetries:     v.GetInt("PAYROLL_WORKER_RETRIES"),
		CleanupInterval:   parseDuration(v.GetString("PAYROLL_CLEANUP_INTERVAL"), time.Hour),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "crewflow")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_OP_TIMEOUT", "2s")

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_REFRESH_SECRET", "dev_refresh_secret")
	v.SetDefault("ACCESS_TOKEN_TTL", "15m")
	v.SetDefault("REFRESH_TOKEN_TTL", "168h")
	v.SetDefault("JWT_ISSUER", "crewflow-api")
	v.SetDefault("BCRYPT_COST", 12)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("PAYROLL_STORAGE_DIR", "./exports")
	v.SetDefault("PAYROLL_SIGNED_URL_SECRET", "dev_payroll_secret")
	v.SetDefault("PAYROLL_SIGNED_URL_TTL", "24h")
	v.SetDefault("PAYROLL_WORKER_CONCURRENCY", 1)
	v.SetDefault("PAYROLL_WORKER_RETRIES", 3)
	v.SetDefault("PAYROLL_CLEANUP_INTERVAL", "1h")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
