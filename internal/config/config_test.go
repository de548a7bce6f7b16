package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir moves into an empty directory so no stray config or .env is picked up.
func chdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:5000", cfg.Server.Addr)
	assert.Equal(t, "data/fintrack.db", cfg.Database.Path)
	assert.Zero(t, cfg.Auth.SessionTTL)
	assert.False(t, cfg.Auth.NormalizeEmail)
	assert.Equal(t, 10, cfg.Auth.BcryptCost)
	assert.Equal(t, "statements", cfg.Storage.KeyPrefix)
	assert.Equal(t, 15*time.Minute, cfg.Storage.URLExpiry)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_EnvOverrides(t *testing.T) {
	chdir(t)
	t.Setenv("FINTRACK_SERVER_ADDR", "127.0.0.1:9000")
	t.Setenv("FINTRACK_AUTH_SESSIONTTL", "2h")
	t.Setenv("FINTRACK_AUTH_NORMALIZEEMAIL", "true")
	t.Setenv("FINTRACK_STORAGE_BUCKET", "ledger")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, 2*time.Hour, cfg.Auth.SessionTTL)
	assert.True(t, cfg.Auth.NormalizeEmail)
	assert.Equal(t, "ledger", cfg.Storage.Bucket)
}

func TestLoad_DotEnvAndFile(t *testing.T) {
	dir := chdir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("FINTRACK_DATABASE_PATH=/tmp/from-dotenv.db\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("log:\n  level: debug\nratelimit:\n  burst: 3\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("FINTRACK_DATABASE_PATH") })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/from-dotenv.db", cfg.Database.Path)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 3, cfg.RateLimit.Burst)
}

func TestLoad_RejectsBadValues(t *testing.T) {
	chdir(t)
	t.Setenv("FINTRACK_AUTH_BCRYPTCOST", "2")

	_, err := Load()
	assert.Error(t, err)
}
