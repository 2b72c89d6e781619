package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/entropia/pkg/config"
	"github.com/aretw0/entropia/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "entropia.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := config.Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, domain.DefaultSumTolerance, cfg.Tolerances.Sum)
	assert.Equal(t, 0.0, cfg.Tolerances.Prune)
	assert.Equal(t, 64, cfg.BatchSize)
	assert.Equal(t, config.BackendFile, cfg.Store.Backend)
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
tolerances:
  prune: 1e-12
parallelism: 4
logging:
  level: debug
store:
  backend: redis
  redact: "password,token"
  redis:
    addr: redis:6379
    ttl: 90m
`)
	cfg, err := config.LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, 1e-12, cfg.Tolerances.Prune)
	assert.Equal(t, domain.DefaultSumTolerance, cfg.Tolerances.Sum, "absent keys keep defaults")
	assert.Equal(t, 4, cfg.Parallelism)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, config.BackendRedis, cfg.Store.Backend)
	assert.Equal(t, []string{"password", "token"}, cfg.Store.Redact)
	assert.Equal(t, "redis:6379", cfg.Store.Redis.Addr)
	assert.Equal(t, "entropia:snapshot:", cfg.Store.Redis.Prefix)
	assert.Equal(t, 90*time.Minute, cfg.Store.Redis.TTL)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromFile_Errors(t *testing.T) {
	_, err := config.LoadFromFile(writeConfig(t, "batch_sise: 3\n"))
	assert.ErrorContains(t, err, "batch_sise")

	_, err = config.LoadFromFile(writeConfig(t, "store: [\n"))
	assert.Error(t, err)

	_, err = config.LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	cfg, err := config.LoadFromFile(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
batch_size: 8
store:
  backend: memory
`)
	t.Setenv("ENTROPIA_BATCH_SIZE", "16")
	t.Setenv("ENTROPIA_TOLERANCE_PRUNE", "1e-10")
	t.Setenv("ENTROPIA_LOG_LEVEL", "warn")
	t.Setenv("ENTROPIA_STORE_REDACT", "secret,key")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 16, cfg.BatchSize)
	assert.Equal(t, 1e-10, cfg.Tolerances.Prune)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, config.BackendMemory, cfg.Store.Backend, "unset env keeps the file value")
	assert.Equal(t, []string{"secret", "key"}, cfg.Store.Redact)
}

func TestLoad_InvalidEnv(t *testing.T) {
	t.Setenv("ENTROPIA_PARALLELISM", "many")
	_, err := config.Load("")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := config.Default()
	cfg.Tolerances.Sum = 0
	cfg.Tolerances.Prune = -1
	cfg.BatchSize = -1
	cfg.Logging.Level = "loud"
	cfg.Store.Backend = "s3"
	cfg.Store.Format = "toml"
	cfg.Store.Redact = []string{"(unclosed"}

	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"tolerances.sum", "tolerances.prune", "batch_size", "logging.level", "store.backend", "store.format", "store.redact[0]"} {
		assert.ErrorContains(t, err, want)
	}
}

func TestStoreKeys(t *testing.T) {
	key := strings.Repeat("ab", 32)
	old := strings.Repeat("cd", 32)

	active, fallback, err := config.Store{EncryptionKey: key, FallbackKeys: []string{old}}.Keys()
	require.NoError(t, err)
	assert.Len(t, active, 32)
	require.Len(t, fallback, 1)
	assert.Equal(t, byte(0xcd), fallback[0][0])

	active, _, err = config.Store{}.Keys()
	require.NoError(t, err)
	assert.Nil(t, active)

	_, _, err = config.Store{EncryptionKey: "abcd"}.Keys()
	assert.ErrorContains(t, err, "32 bytes")
	_, _, err = config.Store{EncryptionKey: "zz"}.Keys()
	assert.ErrorContains(t, err, "not hex")
	_, _, err = config.Store{FallbackKeys: []string{old}}.Keys()
	assert.Error(t, err)
}
