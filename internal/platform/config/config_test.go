package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, k := range []string{"BINDER_ADDR", "CAS_CREATE_USER", "USERNAME_TRIES_LIMIT", "CAS_SYNC_ATTRIBUTES", "OIDC_CLAIMS_CACHE_TTL", "DATABASE_TX_TIMEOUT"} {
		t.Setenv(k, "")
	}

	cfg := FromEnv()

	assert.Equal(t, ":8080", cfg.Addr)
	assert.True(t, cfg.CAS.CreateUser)
	assert.Equal(t, DefaultUsernameTriesLimit, cfg.CAS.UsernameTriesLimit)
	assert.Equal(t, []string{"email", "first_name", "last_name"}, cfg.CAS.SyncAttributes)
	assert.Zero(t, cfg.Provider.ClaimsCacheTTL)
	assert.Equal(t, 5*time.Second, cfg.TxTimeout)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("CAS_SERVER_URL", "https://cas.example.com")
	t.Setenv("CAS_CREATE_USER", "false")
	t.Setenv("CAS_SYNC_ATTRIBUTES", " email , ")
	t.Setenv("USERNAME_TRIES_LIMIT", "10")
	t.Setenv("KAFKA_BROKERS", "a:9092,b:9092")
	t.Setenv("OIDC_CLAIMS_CACHE_TTL", "30s")
	t.Setenv("DATABASE_TX_TIMEOUT", "750ms")

	cfg := FromEnv()

	assert.Equal(t, "https://cas.example.com/", cfg.CAS.ServerURL)
	assert.False(t, cfg.CAS.CreateUser)
	assert.Equal(t, []string{"email"}, cfg.CAS.SyncAttributes)
	assert.Equal(t, 10, cfg.CAS.UsernameTriesLimit)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 30*time.Second, cfg.Provider.ClaimsCacheTTL)
	assert.Equal(t, 750*time.Millisecond, cfg.TxTimeout)
}

func TestLoadDotEnvKeepsExistingValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("BINDER_ADDR=:9999\nLOG_FORMAT=text\n"), 0o600))
	t.Setenv("BINDER_ADDR", ":7000")
	t.Setenv("LOG_FORMAT", "")
	require.NoError(t, os.Unsetenv("LOG_FORMAT"))

	LoadDotEnv(path, filepath.Join(dir, "missing.env"))

	assert.Equal(t, ":7000", os.Getenv("BINDER_ADDR"))
	assert.Equal(t, "text", os.Getenv("LOG_FORMAT"))
}
