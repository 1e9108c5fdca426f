// Package config loads the axnav configuration file.
package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/aretw0/axnav/pkg/executor"
	"github.com/aretw0/axnav/pkg/governor"
	"github.com/aretw0/axnav/pkg/tree"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// MCP transports.
const (
	TransportStdio = "stdio"
	TransportSSE   = "sse"
)

// Config is the whole configuration. Durations are written as Go duration
// strings ("250ms", "5s").
type Config struct {
	// Fixture is the recorded desktop the fixture provider serves.
	Fixture string `mapstructure:"fixture"`

	Log      LogConfig        `mapstructure:"log"`
	Executor ExecutorConfig   `mapstructure:"executor"`
	Governor governor.Config  `mapstructure:"governor"`
	Tree     tree.LoadOptions `mapstructure:"tree"`
	Store    StoreConfig      `mapstructure:"store"`
	HTTP     HTTPConfig       `mapstructure:"http"`
	MCP      MCPConfig        `mapstructure:"mcp"`

	// MaxResolveDepth bounds how deep goto and find materialize the tree.
	MaxResolveDepth int `mapstructure:"max_resolve_depth"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ExecutorConfig is the per-call policy for provider calls.
type ExecutorConfig struct {
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxAttempts int           `mapstructure:"max_attempts"`
	RetryDelay  time.Duration `mapstructure:"retry_delay"`
}

// Apply copies the policy onto ex.
func (c ExecutorConfig) Apply(ex *executor.Executor) {
	ex.Timeout = c.Timeout
	ex.MaxAttempts = c.MaxAttempts
	ex.RetryDelay = c.RetryDelay
}

type StoreConfig struct {
	Backend    string           `mapstructure:"backend"`
	Redis      RedisConfig      `mapstructure:"redis"`
	LockTTL    time.Duration    `mapstructure:"lock_ttl"`
	Encryption EncryptionConfig `mapstructure:"encryption"`

	// Redact lists regular expressions over attribute names whose values
	// are masked before snapshots are cached.
	Redact []string `mapstructure:"redact"`
}

// EncryptionConfig holds base64-encoded AES-256 keys. An empty Key leaves
// snapshots unencrypted.
type EncryptionConfig struct {
	Key          string   `mapstructure:"key"`
	FallbackKeys []string `mapstructure:"fallback_keys"`
}

// Keys decodes the active and fallback keys.
func (c EncryptionConfig) Keys() (active []byte, fallbacks [][]byte, err error) {
	active, err = decodeKey(c.Key)
	if err != nil {
		return nil, nil, fmt.Errorf("store.encryption.key: %w", err)
	}
	for i, k := range c.FallbackKeys {
		fb, err := decodeKey(k)
		if err != nil {
			return nil, nil, fmt.Errorf("store.encryption.fallback_keys[%d]: %w", i, err)
		}
		fallbacks = append(fallbacks, fb)
	}
	return active, fallbacks, nil
}

func decodeKey(s string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, err
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("want 32 bytes, got %d", len(key))
	}
	return key, nil
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type HTTPConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type MCPConfig struct {
	Transport string `mapstructure:"transport"`
	Addr      string `mapstructure:"addr"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Log: LogConfig{Level: "info", Format: "text"},
		Executor: ExecutorConfig{
			Timeout:     executor.DefaultTimeout,
			MaxAttempts: executor.DefaultMaxAttempts,
			RetryDelay:  executor.DefaultRetryDelay,
		},
		Governor: governor.DefaultConfig(),
		Tree:     tree.DefaultLoadOptions(),
		Store: StoreConfig{
			Backend: StoreMemory,
			Redis:   RedisConfig{Addr: "localhost:6379", Prefix: "axnav:snapshot:", TTL: 10 * time.Minute},
			LockTTL: 30 * time.Second,
		},
		HTTP:            HTTPConfig{Addr: ":8080", ShutdownTimeout: 5 * time.Second},
		MCP:             MCPConfig{Transport: TransportStdio, Addr: ":8081"},
		MaxResolveDepth: 8,
	}
}

// Load reads path over the defaults, then applies AXNAV_* environment
// overrides. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := Decode(data, &cfg); err != nil {
			return cfg, fmt.Errorf("%s: %w", path, err)
		}
	}
	if err := ApplyEnv(&cfg, os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// Decode merges YAML data into cfg. Keys absent from data keep their
// current values; unknown keys are an error.
func Decode(data []byte, cfg *Config) error {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	if raw == nil {
		return nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
		),
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		Result:           cfg,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(raw); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	return nil
}

// ApplyEnv overrides a handful of deployment settings from the environment.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := map[string]*string{
		"AXNAV_FIXTURE":        &cfg.Fixture,
		"AXNAV_LOG_LEVEL":      &cfg.Log.Level,
		"AXNAV_LOG_FORMAT":     &cfg.Log.Format,
		"AXNAV_STORE":          &cfg.Store.Backend,
		"AXNAV_REDIS_ADDR":     &cfg.Store.Redis.Addr,
		"AXNAV_REDIS_PASSWORD": &cfg.Store.Redis.Password,
		"AXNAV_HTTP_ADDR":      &cfg.HTTP.Addr,
		"AXNAV_STORE_KEY":      &cfg.Store.Encryption.Key,
	}
	for key, dst := range str {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}
	if v, ok := lookup("AXNAV_REDIS_DB"); ok {
		db, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("AXNAV_REDIS_DB: %w", err)
		}
		cfg.Store.Redis.DB = db
	}
	if v, ok := lookup("AXNAV_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("AXNAV_TIMEOUT: %w", err)
		}
		cfg.Executor.Timeout = d
	}
	return nil
}

// Validate checks values that have no safe fallback.
func (c Config) Validate() error {
	var errs []error
	if c.Executor.Timeout <= 0 {
		errs = append(errs, errors.New("executor.timeout must be positive"))
	}
	if c.Executor.MaxAttempts < 1 {
		errs = append(errs, errors.New("executor.max_attempts must be at least 1"))
	}
	if c.Executor.RetryDelay < 0 {
		errs = append(errs, errors.New("executor.retry_delay must not be negative"))
	}
	if err := c.Governor.Validate(); err != nil {
		errs = append(errs, err)
	}
	switch c.Store.Backend {
	case StoreMemory:
	case StoreRedis:
		if c.Store.Redis.Addr == "" {
			errs = append(errs, errors.New("store.redis.addr is required for the redis backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("store.backend: unknown backend %q", c.Store.Backend))
	}
	if c.Store.Encryption.Key != "" {
		if _, _, err := c.Store.Encryption.Keys(); err != nil {
			errs = append(errs, err)
		}
	} else if len(c.Store.Encryption.FallbackKeys) > 0 {
		errs = append(errs, errors.New("store.encryption.fallback_keys needs store.encryption.key"))
	}
	for _, p := range c.Store.Redact {
		if _, err := regexp.Compile(p); err != nil {
			errs = append(errs, fmt.Errorf("store.redact: %w", err))
		}
	}
	switch c.MCP.Transport {
	case TransportStdio, TransportSSE:
	default:
		errs = append(errs, fmt.Errorf("mcp.transport: unknown transport %q", c.MCP.Transport))
	}
	if c.MaxResolveDepth < 1 {
		errs = append(errs, errors.New("max_resolve_depth must be at least 1"))
	}
	return errors.Join(errs...)
}
