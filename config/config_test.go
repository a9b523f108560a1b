package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("IPMS_CONFIG", "")
	t.Setenv("STORAGE_DRIVER", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StorageFile, cfg.Storage.Driver)
	assert.Equal(t, 3, cfg.Policy.MaxPendingApplications)
	assert.Equal(t, 10, cfg.Policy.MaxSlots)
	assert.Equal(t, "password", cfg.Policy.DefaultPassword)
	assert.Equal(t, "Asia/Singapore", cfg.App.Location.String())
	assert.Equal(t, filepath.Join("data", "opportunities.csv"), cfg.DataPath(cfg.Storage.Files.Opportunities))
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ipms.yaml")
	content := `
app:
  data_dir: /srv/ipms
storage:
  driver: redis
  redis:
    addr: cache:6379
policy:
  max_slots: 5
session:
  ttl: 30m
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("IPMS_CONFIG", path)
	t.Setenv("POLICY_MAX_SLOTS", "7")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/srv/ipms", cfg.App.DataDir)
	assert.Equal(t, StorageRedis, cfg.Storage.Driver)
	assert.Equal(t, "cache:6379", cfg.Storage.Redis.Addr)
	assert.Equal(t, 7, cfg.Policy.MaxSlots, "environment wins over the file")
	assert.Equal(t, 30*time.Minute, cfg.Session.TTL)
	// untouched keys keep their defaults
	assert.Equal(t, "ipms:", cfg.Storage.Redis.KeyPrefix)
}

func TestValidate_CollectsAllProblems(t *testing.T) {
	cfg := Default()
	cfg.Storage.Driver = "sqlite"
	cfg.Session.Driver = "memcached"
	cfg.Policy.MaxSlots = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STORAGE_DRIVER")
	assert.Contains(t, err.Error(), "SESSION_DRIVER")
	assert.Contains(t, err.Error(), "POLICY_MAX_SLOTS")
}

func TestValidate_PostgresNeedsURL(t *testing.T) {
	cfg := Default()
	cfg.Storage.Driver = StoragePostgres

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")

	cfg.Storage.Database.URL = "postgres://localhost/ipms"
	assert.NoError(t, cfg.Validate())
}

func TestDataPath_Absolute(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "/tmp/x.csv", cfg.DataPath("/tmp/x.csv"))
}
