package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/tukcommunity/backend/pkg/jwtx"
)

const (
	EnvLocal      = "local"
	EnvProduction = "production"

	EngineMySQL  = "mysql"
	EngineSQLite = "sqlite"

	BlacklistSQL   = "sql"
	BlacklistRedis = "redis"
)

type Config struct {
	Env       string // local or production (default: local)
	LogLevel  string // Log level (debug, info, warn, error) (default: info)
	LogFormat string // Log format (json, text) (default: json)

	Port                int           // HTTP server port (default: 8000)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
	CORSAllowedOrigins  []string      // Production only; local allows any origin
	AllowedHosts        []string      // Production only
	MetricsEnabled      bool          // Serve /metrics (default: true)

	DB DBConfig

	// SecretKey signs every JWT. Resolved from the secret source.
	SecretKey string
	// SecretKeyGenerated is set when a local run had no SECRET_KEY and a
	// random one was generated; tokens do not survive a restart then.
	SecretKeyGenerated bool

	Issuer                 string        // Optional "iss" claim
	AccessTTL              time.Duration // default: 5m
	RefreshTTL             time.Duration // default: 24h
	RotateRefreshTokens    bool          // default: false
	BlacklistAfterRotation bool          // default: true

	Blacklist BlacklistConfig

	Pepper               string        // From the secret source; empty means use PepperFile
	PepperFile           string        // Optional fallback pepper file
	PasswordMinLength    int           // default: 8
	HousekeepingInterval time.Duration // default: 1h

	Vault VaultConfig
}

type DBConfig struct {
	Engine          string // mysql or sqlite (default: mysql)
	Name            string
	User            string
	Password        string // Resolved from the secret source
	Host            string
	Port            int
	File            string // SQLite database file
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ApplyMigrations bool // default: false for mysql, true for sqlite
}

type BlacklistConfig struct {
	Backend       string // sql or redis (default: sql)
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// VaultConfig names the OCI Vault secrets read in production.
type VaultConfig struct {
	SecretKeyOCID  string
	DBPasswordOCID string
	PepperOCID     string
	// AuthMode is "instance_principal" (default) or "config" for
	// ~/.oci/config based credentials.
	AuthMode string
}

// IsProduction reports whether the production profile is active.
func (c Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// LoadConfig reads the configuration from the environment, loading .env
// first in local mode, and resolves secrets from the source matching the
// environment.
func LoadConfig(ctx context.Context) (Config, error) {
	if !isProductionEnv() {
		// A missing .env is fine; the process environment still applies.
		_ = godotenv.Load()
	}

	cfg, err := ConfigFromEnv()
	if err != nil {
		return Config{}, err
	}

	src, err := NewSecretSource(cfg)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.ResolveSecrets(ctx, src); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ConfigFromEnv reads every non-secret setting from the environment.
func ConfigFromEnv() (Config, error) {
	env := EnvLocal
	if isProductionEnv() {
		env = EnvProduction
	}

	engine, err := parseEngine(getEnvOrDefault("DB_ENGINE", EngineMySQL))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Env:                 env,
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8000),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		CORSAllowedOrigins:  getEnvList("CORS_ALLOWED_ORIGINS"),
		AllowedHosts:        getEnvList("ALLOWED_HOSTS"),
		MetricsEnabled:      getEnvBoolOrDefault("METRICS_ENABLED", true),
		DB: DBConfig{
			Engine:          engine,
			Name:            getEnvOrDefault("DB_NAME", "tuk_community"),
			User:            getEnvOrDefault("DB_USER", "root"),
			Host:            getEnvOrDefault("DB_HOST", "localhost"),
			Port:            getEnvIntOrDefault("DB_PORT", 3306),
			File:            getEnvOrDefault("DB_FILE", "tukcommunity.db"),
			MaxOpenConns:    getEnvIntOrDefault("DB_MAX_OPEN_CONNS", 20),
			MaxIdleConns:    getEnvIntOrDefault("DB_MAX_IDLE_CONNS", 10),
			ConnMaxLifetime: getEnvDurationOrDefault("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			ApplyMigrations: getEnvBoolOrDefault("DB_APPLY_MIGRATIONS", engine == EngineSQLite),
		},
		Issuer:                 os.Getenv("JWT_ISSUER"),
		AccessTTL:              getEnvDurationOrDefault("ACCESS_TOKEN_LIFETIME", jwtx.DefaultAccessTokenTTL),
		RefreshTTL:             getEnvDurationOrDefault("REFRESH_TOKEN_LIFETIME", jwtx.DefaultRefreshTokenTTL),
		RotateRefreshTokens:    getEnvBoolOrDefault("ROTATE_REFRESH_TOKENS", false),
		BlacklistAfterRotation: getEnvBoolOrDefault("BLACKLIST_AFTER_ROTATION", true),
		Blacklist: BlacklistConfig{
			Backend:       strings.ToLower(getEnvOrDefault("TOKEN_BLACKLIST_BACKEND", BlacklistSQL)),
			RedisAddr:     getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
			RedisPassword: os.Getenv("REDIS_PASSWORD"),
			RedisDB:       getEnvIntOrDefault("REDIS_DB", 0),
		},
		PepperFile:           os.Getenv("PEPPER_FILE"),
		PasswordMinLength:    getEnvIntOrDefault("PASSWORD_MIN_LENGTH", 8),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
		Vault: VaultConfig{
			SecretKeyOCID:  os.Getenv("VAULT_SECRET_KEY_OCID"),
			DBPasswordOCID: os.Getenv("VAULT_DB_PASSWORD_OCID"),
			PepperOCID:     os.Getenv("VAULT_PEPPER_OCID"),
			AuthMode:       getEnvOrDefault("OCI_AUTH", "instance_principal"),
		},
	}

	switch cfg.Blacklist.Backend {
	case BlacklistSQL, BlacklistRedis:
	default:
		return Config{}, fmt.Errorf("TOKEN_BLACKLIST_BACKEND: unknown backend %q", cfg.Blacklist.Backend)
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return Config{}, errors.New("token lifetimes must be positive")
	}

	return cfg, nil
}

// ResolveSecrets fills the secret fields from src. Production refuses to
// start without a signing secret; local runs get a random one.
func (c *Config) ResolveSecrets(ctx context.Context, src SecretSource) error {
	var err error
	if c.SecretKey, err = src.Secret(ctx, SecretKey); err != nil {
		return fmt.Errorf("resolve %s: %w", SecretKey, err)
	}
	if c.DB.Password, err = src.Secret(ctx, SecretDBPassword); err != nil {
		return fmt.Errorf("resolve %s: %w", SecretDBPassword, err)
	}
	if c.Pepper, err = src.Secret(ctx, SecretPepper); err != nil {
		return fmt.Errorf("resolve %s: %w", SecretPepper, err)
	}

	if c.SecretKey == "" {
		if c.IsProduction() {
			return errors.New("SECRET_KEY must be set in production")
		}
		key, err := randomSecret()
		if err != nil {
			return err
		}
		c.SecretKey, c.SecretKeyGenerated = key, true
	}
	return nil
}

func isProductionEnv() bool {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = os.Getenv("DJANGO_ENV")
	}
	return strings.EqualFold(env, EnvProduction)
}

func parseEngine(v string) (string, error) {
	switch strings.ToLower(v) {
	case "mysql", "django.db.backends.mysql":
		return EngineMySQL, nil
	case "sqlite", "sqlite3", "django.db.backends.sqlite3":
		return EngineSQLite, nil
	default:
		return "", fmt.Errorf("DB_ENGINE: unsupported engine %q", v)
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer minutes
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}

// getEnvList splits a comma separated value, dropping empty items.
func getEnvList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
