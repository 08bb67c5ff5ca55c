package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/tuckshop/pkg/cryptox"
	"github.com/aussiebroadwan/tuckshop/pkg/httpx"
	"github.com/aussiebroadwan/tuckshop/pkg/jwtx"
	"github.com/joho/godotenv"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	SessionsSQL   = "sql"
	SessionsRedis = "redis"
)

type Config struct {
	Issuer        string   // Optional: iss claim (default: tuckshop)
	Audience      []string // Optional: aud claim, comma separated (default: tuckshop-api)
	AccessSecret  string   // Required: HMAC secret for access tokens
	RefreshSecret string   // Required: HMAC secret for refresh tokens, distinct from AccessSecret

	AccessTTL            time.Duration // Optional: access token lifetime (default: 15m)
	RefreshTTL           time.Duration // Optional: refresh token lifetime (default: 7d)
	EmbedDisplayNames    bool          // Optional: trust given/family name from the access token
	ReturnRotated        bool          // Optional: hand the rotated refresh token back on /refresh
	CookieSecure         bool          // Optional: mark the refresh cookie Secure (default: true)
	BcryptCost           int           // Optional: bcrypt work factor (default: 12, min: 12)
	DatabaseDriver       string        // Optional: sqlite or postgres (default: sqlite)
	DatabaseFile         string        // Optional: SQLite file (default: ./tuckshop.db)
	DatabaseURL          string        // Required for postgres
	SessionBackend       string        // Optional: sql or redis (default: sql)
	RedisAddr            string        // Required for the redis backend
	RedisPassword        string        // Optional
	RedisDB              int           // Optional (default: 0)
	AdminEmail           string        // Optional: seeds an ADMIN account when set with the two below
	AdminUsername        string        // Optional
	AdminPassword        string        // Optional
	SentryDSN            string        // Optional: errors are reported to Sentry when set
	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	TrustedProxies       []string      // Optional: CIDRs or addresses whose X-Forwarded-For is honoured
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Expired session sweep interval (default: 1h)
}

// LoadConfig reads the environment, after loading .env when one exists.
func LoadConfig() Config {
	_ = godotenv.Load()

	return Config{
		Issuer:               getEnvOrDefault("AUTH_ISSUER", "tuckshop"),
		Audience:             getEnvListOrDefault("AUTH_AUDIENCE", []string{"tuckshop-api"}),
		AccessSecret:         os.Getenv("AUTH_ACCESS_SECRET"),
		RefreshSecret:        os.Getenv("AUTH_REFRESH_SECRET"),
		AccessTTL:            getEnvDurationOrDefault("AUTH_ACCESS_TTL", jwtx.DefaultAccessTokenTTL),
		RefreshTTL:           getEnvDurationOrDefault("AUTH_REFRESH_TTL", jwtx.DefaultRefreshTokenTTL),
		EmbedDisplayNames:    getEnvBoolOrDefault("AUTH_EMBED_DISPLAY_NAMES", false),
		ReturnRotated:        getEnvBoolOrDefault("AUTH_REFRESH_RETURN_ROTATED", false),
		CookieSecure:         getEnvBoolOrDefault("AUTH_COOKIE_SECURE", true),
		BcryptCost:           getEnvIntOrDefault("BCRYPT_COST", cryptox.MinBcryptCost),
		DatabaseDriver:       strings.ToLower(getEnvOrDefault("DATABASE_DRIVER", DriverSQLite)),
		DatabaseFile:         getEnvOrDefault("DATABASE_FILE", "tuckshop.db"),
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		SessionBackend:       strings.ToLower(getEnvOrDefault("SESSION_BACKEND", SessionsSQL)),
		RedisAddr:            os.Getenv("REDIS_ADDR"),
		RedisPassword:        os.Getenv("REDIS_PASSWORD"),
		RedisDB:              getEnvIntOrDefault("REDIS_DB", 0),
		AdminEmail:           os.Getenv("ADMIN_EMAIL"),
		AdminUsername:        os.Getenv("ADMIN_USERNAME"),
		AdminPassword:        os.Getenv("ADMIN_PASSWORD"),
		SentryDSN:            os.Getenv("SENTRY_DSN"),
		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		TrustedProxies:       getEnvListOrDefault("RATELIMIT_TRUSTED_PROXIES", nil),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}
}

// Validate reports every problem with cfg at once.
func (cfg Config) Validate() error {
	var errs []error

	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		errs = append(errs, errors.New("AUTH_ACCESS_SECRET and AUTH_REFRESH_SECRET are required"))
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		errs = append(errs, errors.New("token TTLs must be positive"))
	}
	if cfg.BcryptCost < cryptox.MinBcryptCost {
		errs = append(errs, fmt.Errorf("BCRYPT_COST must be at least %d", cryptox.MinBcryptCost))
	}

	switch cfg.DatabaseDriver {
	case DriverSQLite:
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown DATABASE_DRIVER %q", cfg.DatabaseDriver))
	}

	switch cfg.SessionBackend {
	case SessionsSQL:
	case SessionsRedis:
		if cfg.RedisAddr == "" {
			errs = append(errs, errors.New("REDIS_ADDR is required for the redis session backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown SESSION_BACKEND %q", cfg.SessionBackend))
	}

	if _, err := httpx.ParseTrustedProxies(cfg.TrustedProxies...); err != nil {
		errs = append(errs, fmt.Errorf("RATELIMIT_TRUSTED_PROXIES: %w", err))
	}

	admin := []string{cfg.AdminEmail, cfg.AdminUsername, cfg.AdminPassword}
	set := 0
	for _, v := range admin {
		if v != "" {
			set++
		}
	}
	if set != 0 && set != len(admin) {
		errs = append(errs, errors.New("ADMIN_EMAIL, ADMIN_USERNAME and ADMIN_PASSWORD must be set together"))
	}

	return errors.Join(errs...)
}

// HasAdmin reports whether an admin account should be seeded.
func (cfg Config) HasAdmin() bool {
	return cfg.AdminEmail != "" && cfg.AdminUsername != "" && cfg.AdminPassword != ""
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

func getEnvListOrDefault(key string, defaultValue []string) []string {
	var out []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
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

	// Bare integers are minutes
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
