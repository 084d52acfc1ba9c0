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

// Session store drivers.
const (
	SessionStoreMemory   = "memory"
	SessionStoreRedis    = "redis"
	SessionStorePostgres = "postgres"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Backend       BackendConfig
	Session       SessionConfig
	Database      DatabaseConfig
	Redis         RedisConfig
	CORS          CORSConfig
	Log           LogConfig
	Catalogs      CatalogConfig
	Notifications NotificationConfig
	Exports       ExportsConfig
	Audit         AuditConfig
	Swagger       bool
	Metrics       bool
}

// BackendConfig points the portal at the thesis backend REST API.
type BackendConfig struct {
	BaseURL        string
	RequestTimeout time.Duration
}

// SessionConfig selects the durable session store and token signing material.
type SessionConfig struct {
	Store    string
	Secret   string
	TokenTTL time.Duration
	Issuer   string
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

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// CatalogConfig tunes the catalog response cache.
type CatalogConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
}

// NotificationConfig drives the notification poller.
type NotificationConfig struct {
	PollInterval time.Duration
}

// ExportsConfig configures asynchronous project table exports.
type ExportsConfig struct {
	Enabled           bool
	StorageDir        string
	SignedURLSecret   string
	SignedURLTTL      time.Duration
	CleanupInterval   time.Duration
	WorkerConcurrency int
	WorkerRetries     int
}

// AuditConfig toggles persistence of portal mutations.
type AuditConfig struct {
	Enabled bool
}

// RequiresDatabase reports whether any enabled component needs Postgres.
func (c *Config) RequiresDatabase() bool {
	return c.Session.Store == SessionStorePostgres || c.Audit.Enabled || c.Exports.Enabled
}

// RequiresRedis reports whether any enabled component needs Redis.
func (c *Config) RequiresRedis() bool {
	return c.Session.Store == SessionStoreRedis || c.Catalogs.CacheEnabled
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

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{}

	cfg.Env = v.GetString("APP_ENV")
	cfg.Port = v.GetInt("API_PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Backend = BackendConfig{
		BaseURL:        strings.TrimRight(v.GetString("BACKEND_BASE_URL"), "/"),
		RequestTimeout: parseDuration(v.GetString("BACKEND_REQUEST_TIMEOUT"), 15*time.Second),
	}
	if cfg.Backend.BaseURL == "" {
		return nil, errors.New("BACKEND_BASE_URL is required")
	}

	cfg.Session = SessionConfig{
		Store:    strings.ToLower(strings.TrimSpace(v.GetString("SESSION_STORE"))),
		Secret:   v.GetString("SESSION_SECRET"),
		TokenTTL: parseDuration(v.GetString("SESSION_TOKEN_TTL"), 720*time.Hour),
		Issuer:   v.GetString("SESSION_ISSUER"),
	}
	switch cfg.Session.Store {
	case SessionStoreMemory, SessionStoreRedis, SessionStorePostgres:
	default:
		return nil, errors.New("SESSION_STORE must be one of memory, redis, postgres")
	}
	if cfg.Env == EnvProduction && cfg.Session.Secret == "dev_session_secret" {
		return nil, errors.New("SESSION_SECRET must be set in production")
	}

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
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("CORS_ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Catalogs = CatalogConfig{
		CacheEnabled: v.GetBool("ENABLE_CATALOG_CACHE"),
		CacheTTL:     parseDuration(v.GetString("CATALOG_CACHE_TTL"), 30*time.Minute),
	}

	cfg.Notifications = NotificationConfig{
		PollInterval: parseDuration(v.GetString("NOTIFICATION_POLL_INTERVAL"), 30*time.Second),
	}

	cfg.Exports = ExportsConfig{
		Enabled:           v.GetBool("ENABLE_EXPORTS"),
		StorageDir:        v.GetString("EXPORTS_STORAGE_DIR"),
		SignedURLSecret:   v.GetString("EXPORTS_SIGNED_URL_SECRET"),
		SignedURLTTL:      parseDuration(v.GetString("EXPORTS_SIGNED_URL_TTL"), 24*time.Hour),
		CleanupInterval:   parseDuration(v.GetString("EXPORTS_CLEANUP_INTERVAL"), time.Hour),
		WorkerConcurrency: v.GetInt("EXPORTS_WORKER_CONCURRENCY"),
		WorkerRetries:     v.GetInt("EXPORTS_WORKER_RETRIES"),
	}

	cfg.Audit = AuditConfig{Enabled: v.GetBool("ENABLE_AUDIT")}
	cfg.Swagger = v.GetBool("ENABLE_SWAGGER")
	cfg.Metrics = v.GetBool("ENABLE_METRICS")

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", EnvDevelopment)
	v.SetDefault("API_PORT", 8090)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("BACKEND_BASE_URL", "http://localhost:8080")
	v.SetDefault("BACKEND_REQUEST_TIMEOUT", "15s")

	v.SetDefault("SESSION_STORE", SessionStoreMemory)
	v.SetDefault("SESSION_SECRET", "dev_session_secret")
	v.SetDefault("SESSION_TOKEN_TTL", "720h")
	v.SetDefault("SESSION_ISSUER", "thesis-portal")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "thesis_portal")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:5173")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_CATALOG_CACHE", false)
	v.SetDefault("CATALOG_CACHE_TTL", "30m")
	v.SetDefault("NOTIFICATION_POLL_INTERVAL", "30s")

	v.SetDefault("ENABLE_EXPORTS", false)
	v.SetDefault("EXPORTS_STORAGE_DIR", "./exports")
	v.SetDefault("EXPORTS_SIGNED_URL_SECRET", "dev_exports_secret")
	v.SetDefault("EXPORTS_SIGNED_URL_TTL", "24h")
	v.SetDefault("EXPORTS_CLEANUP_INTERVAL", "1h")
	v.SetDefault("EXPORTS_WORKER_CONCURRENCY", 1)
	v.SetDefault("EXPORTS_WORKER_RETRIES", 3)

	v.SetDefault("ENABLE_AUDIT", false)
	v.SetDefault("ENABLE_SWAGGER", true)
	v.SetDefault("ENABLE_METRICS", true)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
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
