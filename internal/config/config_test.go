package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"APP_HOST", "PORT", "DB_HOST", "DB_PORT", "DB_NAME", "DB_SHARDS",
		"HASH_KEY", "IDREPO_ACTIVE_STATUS", "IDREPO_DEFAULT_LANG", "IDREPO_SYSTEM_USER"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "5432", cfg.Database.Port)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Nil(t, cfg.Database.Shards)
	assert.Equal(t, 10, cfg.Database.MaxOpenConns)
	assert.Equal(t, "REGISTERED", cfg.Repo.ActiveStatus)
	assert.Equal(t, "AR", cfg.Repo.DefaultLangCode)
	assert.Equal(t, "idrepo", cfg.Repo.SystemUser)
}

func TestLoadShards(t *testing.T) {
	t.Run("falls back to DB_NAME", func(t *testing.T) {
		t.Setenv("DB_SHARDS", "")
		t.Setenv("DB_NAME", "idrepo")

		cfg := Load()
		assert.Equal(t, []string{"idrepo"}, cfg.Database.Shards)
	})

	t.Run("comma separated list", func(t *testing.T) {
		t.Setenv("DB_SHARDS", "idrepo_shard0, idrepo_shard1,idrepo_shard2")

		cfg := Load()
		assert.Equal(t, []string{"idrepo_shard0", "idrepo_shard1", "idrepo_shard2"}, cfg.Database.Shards)
	})
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("IDREPO_ACTIVE_STATUS", "ACTIVATED")
	t.Setenv("HASH_KEY", "test-key")
	t.Setenv("MINIO_USE_SSL", "true")
	t.Setenv("DB_MAX_OPEN_CONNS", "25")

	cfg := Load()

	assert.Equal(t, "ACTIVATED", cfg.Repo.ActiveStatus)
	assert.Equal(t, "test-key", cfg.Repo.HashKey)
	assert.True(t, cfg.MinIO.UseSSL)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
}
