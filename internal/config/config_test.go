package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "5175", c.Port)
	assert.Equal(t, ":5175", c.Addr())
	assert.Equal(t, zerolog.InfoLevel, c.LogLevel)
	assert.Equal(t, 30*time.Minute, c.SessionTTL)
	assert.Equal(t, 14, c.JWTExpiresDays)
	assert.False(t, c.Production)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("SESSION_TTL", "5m")
	t.Setenv("PALETTE_FILE", "/tmp/p.txt")

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "9000", c.Port)
	assert.Equal(t, zerolog.DebugLevel, c.LogLevel)
	assert.Equal(t, 5*time.Minute, c.SessionTTL)
	assert.Equal(t, "/tmp/p.txt", c.PaletteFile)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memorama.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: \"7000\"\ndaily_salt: pepper\n"), 0o644))
	t.Setenv("DAILY_SALT", "salt-from-env")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "7000", c.Port)
	assert.Equal(t, "salt-from-env", c.DailySalt)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("LOG_LEVEL", "loud")
	_, err := Load("")
	assert.ErrorIs(t, err, ErrInvalid)

	t.Setenv("LOG_LEVEL", "info")
	t.Setenv("APP_ENV", "production")
	_, err = Load("")
	assert.ErrorIs(t, err, ErrInvalid, "production needs a real secret")

	t.Setenv("JWT_SECRET", "s3cret")
	c, err := Load("")
	require.NoError(t, err)
	assert.True(t, c.Production)
}
