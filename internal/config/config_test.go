package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_TYPE", "memory")
	t.Setenv("JWT_SECRET", " s3cret ")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":3001", cfg.HTTPAddress())
	assert.Equal(t, "s3cret", cfg.JWTSecret)
	assert.Equal(t, time.Hour, cfg.AccessTTL())
	assert.Equal(t, 720*time.Hour, cfg.RefreshTTL())
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSOrigins)
	assert.False(t, cfg.SeedDemoData)
	assert.False(t, cfg.R2.Enabled())
	assert.Equal(t, "/auth", cfg.CookiePath)
}

func TestLoadCookiePathBehindPrefix(t *testing.T) {
	t.Setenv("DB_TYPE", "memory")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("REFRESH_COOKIE_PATH", "api/auth/")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/api/auth", cfg.CookiePath)
}

func TestLoadRequiresBackendURL(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")

	t.Setenv("DB_TYPE", "postgres")
	t.Setenv("DATABASE_URL", "")
	_, err := Load()
	assert.EqualError(t, err, "DATABASE_URL is required")

	t.Setenv("DB_TYPE", "mongo")
	t.Setenv("MONGO_URL", "")
	_, err = Load()
	assert.EqualError(t, err, "MONGO_URL is required")

	t.Setenv("DB_TYPE", "sqlite")
	_, err = Load()
	assert.Error(t, err)
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("DB_TYPE", "memory")
	t.Setenv("JWT_SECRET", "")
	_, err := Load()
	assert.EqualError(t, err, "JWT_SECRET is required")
}

func TestLoadParsesListsAndR2(t *testing.T) {
	t.Setenv("DB_TYPE", "memory")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("JWT_TTL_MINUTES", "15")
	t.Setenv("R2_ACCOUNT_ID", "acct")
	t.Setenv("R2_BUCKET", "avatars")
	t.Setenv("R2_ACCESS_KEY_ID", "key")
	t.Setenv("R2_SECRET_ACCESS_KEY", "secret")
	t.Setenv("R2_PUBLIC_URL", "https://cdn.example")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, 15*time.Minute, cfg.AccessTTL())
	assert.True(t, cfg.R2.Enabled())
	assert.Equal(t, "avatars", cfg.R2.Bucket)
}
