package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
database:
  path: ./test.db
site:
  base_url: https://example.neocities.org
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, DefaultBatchSize, cfg.Publish.BatchSize)
	assert.Equal(t, DefaultBatchCooldown, cfg.Publish.BatchCooldown.Std())
	assert.Equal(t, DefaultMinWriteInterval, cfg.Publish.MinWriteInterval.Std())
	assert.Equal(t, DefaultListTTL, cfg.Cache.ListTTL.Std())
	assert.Equal(t, "https://neocities.org/api", cfg.Site.APIURL)
	assert.Equal(t, "./cache", cfg.Cache.Directory)
}

func TestLoadParsesDurations(t *testing.T) {
	path := writeConfig(t, `
database:
  path: ./test.db
site:
  base_url: https://example.neocities.org
cache:
  list_ttl: 30s
publish:
  batch_size: 10
  batch_cooldown: 5s
  min_write_interval: 2m
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.Publish.BatchSize)
	assert.Equal(t, 5*time.Second, cfg.Publish.BatchCooldown.Std())
	assert.Equal(t, 2*time.Minute, cfg.Publish.MinWriteInterval.Std())
	assert.Equal(t, 30*time.Second, cfg.Cache.ListTTL.Std())
}

func TestLoadExpandsEnvironment(t *testing.T) {
	t.Setenv("TEST_MOUSEADMIN_KEY", "secret-key")
	path := writeConfig(t, `
database:
  path: ./test.db
site:
  base_url: https://example.neocities.org
  api_key: ${TEST_MOUSEADMIN_KEY}
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "secret-key", cfg.Site.APIKey)
}

func TestLoadRejectsMissingBaseURL(t *testing.T) {
	path := writeConfig(t, `
database:
  path: ./test.db
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "base_url")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestInitAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, Init(path, false))

	// A second Init without force must refuse to clobber.
	require.Error(t, Init(path, false))
	require.NoError(t, Init(path, true))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultBatchSize, cfg.Publish.BatchSize)
}
