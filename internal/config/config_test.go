package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("MAIL_PASSWORD", "abcd efgh ijkl mnop")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "5000", cfg.Port)
	require.Equal(t, DriverSQLite, cfg.Database.Driver)
	require.Equal(t, "gemini-2.5-flash", cfg.Gemini.Model)
	require.True(t, cfg.Gemini.UseSDK)
	require.Equal(t, 30*time.Second, cfg.Gemini.Timeout)
	require.Equal(t, time.Hour, cfg.Account.ResetTokenTTL)
	require.Equal(t, 6, cfg.Account.MinPasswordLength)
	require.Equal(t, "abcdefghijklmnop", cfg.Mail.Password)
	require.Equal(t, []string{"https://mooc-frontend-myqa.onrender.com"}, cfg.CORSAllowedOrigins)
}

func TestLoadPostgresRequiresHost(t *testing.T) {
	t.Setenv("DB_DRIVER", "Postgres")
	t.Setenv("DB_HOST", "")
	t.Setenv("DB_NAME", "")

	_, err := Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "DB_HOST")
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("DB_DRIVER", "oracle")

	_, err := Load()
	require.Error(t, err)
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Name: "silay", SSLMode: "require"}
	require.Equal(t, "host=db port=5432 user=u password=p dbname=silay sslmode=require", d.DSN())
}

func TestSlogLevel(t *testing.T) {
	c := &Config{LogLevel: "DEBUG"}
	require.Equal(t, slog.LevelDebug, c.SlogLevel())
	c.LogLevel = "nope"
	require.Equal(t, slog.LevelInfo, c.SlogLevel())
}
