package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		AccessSecret:   "access-secret",
		RefreshSecret:  "refresh-secret",
		AccessTTL:      15 * time.Minute,
		RefreshTTL:     7 * 24 * time.Hour,
		BcryptCost:     12,
		DatabaseDriver: DriverSQLite,
		SessionBackend: SessionsSQL,
	}
}

func TestLoadConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Chdir(t.TempDir()) // no .env
		cfg := LoadConfig()

		require.Equal(t, "tuckshop", cfg.Issuer)
		require.Equal(t, []string{"tuckshop-api"}, cfg.Audience)
		require.Equal(t, 15*time.Minute, cfg.AccessTTL)
		require.Equal(t, 7*24*time.Hour, cfg.RefreshTTL)
		require.Equal(t, DriverSQLite, cfg.DatabaseDriver)
		require.Equal(t, SessionsSQL, cfg.SessionBackend)
		require.True(t, cfg.CookieSecure)
		require.False(t, cfg.ReturnRotated)
		require.Empty(t, cfg.TrustedProxies)
		require.Equal(t, 8080, cfg.Port)
	})

	t.Run("overrides", func(t *testing.T) {
		t.Chdir(t.TempDir())
		t.Setenv("AUTH_AUDIENCE", "web, mobile ,")
		t.Setenv("AUTH_ACCESS_TTL", "5m")
		t.Setenv("AUTH_REFRESH_TTL", "90")
		t.Setenv("AUTH_COOKIE_SECURE", "false")
		t.Setenv("AUTH_REFRESH_RETURN_ROTATED", "true")
		t.Setenv("DATABASE_DRIVER", "Postgres")
		t.Setenv("PORT", "not-a-port")
		t.Setenv("RATELIMIT_TRUSTED_PROXIES", "10.0.0.0/8, 172.16.0.1")

		cfg := LoadConfig()
		require.Equal(t, []string{"web", "mobile"}, cfg.Audience)
		require.Equal(t, 5*time.Minute, cfg.AccessTTL)
		require.Equal(t, 90*time.Minute, cfg.RefreshTTL)
		require.False(t, cfg.CookieSecure)
		require.True(t, cfg.ReturnRotated)
		require.Equal(t, DriverPostgres, cfg.DatabaseDriver)
		require.Equal(t, []string{"10.0.0.0/8", "172.16.0.1"}, cfg.TrustedProxies)
		require.Equal(t, 8080, cfg.Port)
	})
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	tests := []struct {
		name   string
		modify func(*Config)
		want   string
	}{
		{"missing secrets", func(c *Config) { c.RefreshSecret = "" }, "AUTH_REFRESH_SECRET"},
		{"weak bcrypt cost", func(c *Config) { c.BcryptCost = 10 }, "BCRYPT_COST"},
		{"postgres without url", func(c *Config) { c.DatabaseDriver = DriverPostgres }, "DATABASE_URL"},
		{"unknown driver", func(c *Config) { c.DatabaseDriver = "mysql" }, "DATABASE_DRIVER"},
		{"redis without addr", func(c *Config) { c.SessionBackend = SessionsRedis }, "REDIS_ADDR"},
		{"partial admin", func(c *Config) { c.AdminEmail = "admin@example.com" }, "ADMIN_"},
		{"zero ttl", func(c *Config) { c.AccessTTL = 0 }, "TTL"},
		{"bad trusted proxy", func(c *Config) { c.TrustedProxies = []string{"10.0.0.0/8", "proxy.local"} }, "RATELIMIT_TRUSTED_PROXIES"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.want)
		})
	}

	t.Run("reports every problem", func(t *testing.T) {
		cfg := validConfig()
		cfg.AccessSecret = ""
		cfg.SessionBackend = "memcached"
		err := cfg.Validate()
		require.ErrorContains(t, err, "AUTH_ACCESS_SECRET")
		require.ErrorContains(t, err, "SESSION_BACKEND")
	})
}
