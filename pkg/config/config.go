// Package config loads engine and CLI settings from defaults, a YAML file and
// ENTROPIA_* environment variables, in that order of precedence.
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/entropia/internal/logging"
	"github.com/aretw0/entropia/pkg/domain"
	"github.com/aretw0/entropia/pkg/explorer"
	"github.com/aretw0/entropia/pkg/snapshot"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "ENTROPIA_"

// Store backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
)

// Config is the full set of tunables.
type Config struct {
	Tolerances domain.Tolerances `yaml:"tolerances" mapstructure:"tolerances" envPrefix:"TOLERANCE_"`

	// Parallelism caps concurrent oracle resolutions; zero means GOMAXPROCS.
	Parallelism int `yaml:"parallelism" mapstructure:"parallelism" env:"PARALLELISM"`

	BatchSize int `yaml:"batch_size" mapstructure:"batch_size" env:"BATCH_SIZE"`

	// IterationLimit bounds exploration and convergence loops; zero or less is unbounded.
	IterationLimit int `yaml:"iteration_limit" mapstructure:"iteration_limit" env:"ITERATION_LIMIT"`

	Logging Logging `yaml:"logging" mapstructure:"logging" envPrefix:"LOG_"`
	Metrics Metrics `yaml:"metrics" mapstructure:"metrics" envPrefix:"METRICS_"`
	Store   Store   `yaml:"store" mapstructure:"store" envPrefix:"STORE_"`
}

type Logging struct {
	Level string `yaml:"level" mapstructure:"level" env:"LEVEL"`
}

// Metrics configures the Prometheus endpoint. An empty Addr disables it.
type Metrics struct {
	Addr string `yaml:"addr" mapstructure:"addr" env:"ADDR"`
}

// Store selects and configures the snapshot store.
type Store struct {
	Backend string `yaml:"backend" mapstructure:"backend" env:"BACKEND"`
	Path    string `yaml:"path" mapstructure:"path" env:"PATH"`
	Format  string `yaml:"format" mapstructure:"format" env:"FORMAT"`
	Redis   Redis  `yaml:"redis" mapstructure:"redis" envPrefix:"REDIS_"`

	// EncryptionKey is a hex-encoded 32-byte AES key; empty disables encryption.
	EncryptionKey string `yaml:"encryption_key" mapstructure:"encryption_key" env:"ENCRYPTION_KEY"`

	// FallbackKeys are hex-encoded keys accepted for decryption during rotation.
	FallbackKeys []string `yaml:"fallback_keys" mapstructure:"fallback_keys" env:"FALLBACK_KEYS" envSeparator:","`

	// Redact lists regular expressions of metadata keys masked before saving.
	Redact []string `yaml:"redact" mapstructure:"redact" env:"REDACT" envSeparator:","`
}

type Redis struct {
	Addr     string        `yaml:"addr" mapstructure:"addr" env:"ADDR"`
	Password string        `yaml:"password" mapstructure:"password" env:"PASSWORD"`
	DB       int           `yaml:"db" mapstructure:"db" env:"DB"`
	Prefix   string        `yaml:"prefix" mapstructure:"prefix" env:"PREFIX"`
	TTL      time.Duration `yaml:"ttl" mapstructure:"ttl" env:"TTL"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Tolerances: domain.DefaultTolerances(),
		BatchSize:  explorer.DefaultBatchSize,
		Logging:    Logging{Level: "info"},
		Store: Store{
			Backend: BackendFile,
			Format:  string(snapshot.FormatJSON),
			Redis: Redis{
				Addr:   "localhost:6379",
				Prefix: "entropia:snapshot:",
			},
		},
	}
}

// Load builds a configuration from defaults, the optional YAML file at path and the
// environment, then validates it.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.MergeFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFromFile reads path over the defaults without consulting the environment.
func LoadFromFile(path string) (Config, error) {
	cfg := Default()
	if err := cfg.MergeFile(path); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// MergeFile decodes the YAML file at path over c. Keys absent from the file keep
// their current values; unknown keys are rejected.
func (c *Config) MergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if raw == nil {
		return nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           c,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(raw); err != nil {
		return fmt.Errorf("failed to decode config %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides c with any ENTROPIA_* variables that are set.
func (c *Config) ApplyEnv() error {
	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	t := c.Tolerances
	if !(t.Sum > 0 && t.Sum < 1) {
		errs = append(errs, fmt.Errorf("tolerances.sum must be in (0, 1), got %g", t.Sum))
	}
	if t.Prune < 0 {
		errs = append(errs, fmt.Errorf("tolerances.prune must not be negative, got %g", t.Prune))
	}
	if !(t.Convergence > 0) {
		errs = append(errs, fmt.Errorf("tolerances.convergence must be positive, got %g", t.Convergence))
	}
	if c.Parallelism < 0 {
		errs = append(errs, fmt.Errorf("parallelism must not be negative, got %d", c.Parallelism))
	}
	if c.BatchSize < 0 {
		errs = append(errs, fmt.Errorf("batch_size must not be negative, got %d", c.BatchSize))
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, fmt.Errorf("logging.level: %w", err))
	}

	switch c.Store.Backend {
	case BackendMemory, BackendFile:
	case BackendRedis:
		if c.Store.Redis.Addr == "" {
			errs = append(errs, errors.New("store.redis.addr is required for the redis backend"))
		}
		if c.Store.Redis.TTL < 0 {
			errs = append(errs, fmt.Errorf("store.redis.ttl must not be negative, got %s", c.Store.Redis.TTL))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store.backend %q", c.Store.Backend))
	}
	if _, err := snapshot.ParseFormat(c.Store.Format); err != nil {
		errs = append(errs, fmt.Errorf("store.format: %w", err))
	}
	if _, _, err := c.Store.Keys(); err != nil {
		errs = append(errs, err)
	}
	for i, p := range c.Store.Redact {
		if _, err := regexp.Compile(p); err != nil {
			errs = append(errs, fmt.Errorf("store.redact[%d]: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

// Keys decodes the encryption keys. The active key is nil when encryption is off.
func (s Store) Keys() (active []byte, fallback [][]byte, err error) {
	if s.EncryptionKey == "" {
		if len(s.FallbackKeys) > 0 {
			return nil, nil, errors.New("store.fallback_keys set without store.encryption_key")
		}
		return nil, nil, nil
	}
	if active, err = decodeKey("store.encryption_key", s.EncryptionKey); err != nil {
		return nil, nil, err
	}
	for i, k := range s.FallbackKeys {
		key, err := decodeKey(fmt.Sprintf("store.fallback_keys[%d]", i), k)
		if err != nil {
			return nil, nil, err
		}
		fallback = append(fallback, key)
	}
	return active, fallback, nil
}

func decodeKey(name, value string) ([]byte, error) {
	key, err := hex.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("%s is not hex: %w", name, err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("%s must be 32 bytes, got %d", name, len(key))
	}
	return key, nil
}
