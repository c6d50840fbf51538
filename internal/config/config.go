// Package config loads the assetd YAML configuration.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/unkn0wn-root/assetcache"
)

// Tier backends.
const (
	BackendNone      = "none"
	BackendRistretto = "ristretto"
	BackendBigcache  = "bigcache"
	BackendRedis     = "redis"
)

// Config is the complete daemon configuration.
type Config struct {
	LogLevel   string      `yaml:"log_level"`
	Listen     string      `yaml:"listen"` // "" disables the HTTP endpoint
	FrameRate  int         `yaml:"frame_rate"`
	BaseURL    string      `yaml:"base_url"`
	DataFormat string      `yaml:"data_format"` // json, msgpack or cbor
	Cache      CacheConfig `yaml:"cache"`
	Retry      RetryConfig `yaml:"retry"`
	Tier       TierConfig  `yaml:"tier"`
	Assets     []Asset     `yaml:"assets"`
}

// CacheConfig maps onto the runtime store options.
type CacheConfig struct {
	SweepInterval time.Duration `yaml:"sweep_interval"`
	EntryTTL      time.Duration `yaml:"entry_ttl"`
	EntryTTLTicks uint64        `yaml:"entry_ttl_ticks"`
}

// RetryConfig is the escalation schedule. Empty keeps the runtime default.
type RetryConfig struct {
	Intervals []time.Duration `yaml:"intervals"`
}

// TierConfig selects the byte tier in front of the origin.
type TierConfig struct {
	Backend   string          `yaml:"backend"`
	Namespace string          `yaml:"namespace"`
	TTL       time.Duration   `yaml:"ttl"`
	Ristretto RistrettoConfig `yaml:"ristretto"`
	Bigcache  BigcacheConfig  `yaml:"bigcache"`
	Redis     RedisConfig     `yaml:"redis"`
}

type RistrettoConfig struct {
	NumCounters int64 `yaml:"num_counters"`
	MaxCostMB   int64 `yaml:"max_cost_mb"`
}

type BigcacheConfig struct {
	LifeWindow   time.Duration `yaml:"life_window"`
	HardMaxMB    int           `yaml:"hard_max_mb"`
	MaxEntrySize int           `yaml:"max_entry_size"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// Asset is one manifest line to preload.
type Asset struct {
	Key      string          `yaml:"key"`
	Kind     assetcache.Kind `yaml:"kind"`
	URL      string          `yaml:"url"`
	Priority bool            `yaml:"priority"`
}

// Load reads and validates the file at path.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML, applies defaults and validates. Unknown fields are errors.
func Parse(b []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.FrameRate <= 0 {
		c.FrameRate = 60
	}
	if c.DataFormat == "" {
		c.DataFormat = "json"
	}
	if c.Tier.Backend == "" {
		c.Tier.Backend = BackendNone
	}
	if c.Tier.Namespace == "" {
		c.Tier.Namespace = "asset"
	}
	if c.Tier.Ristretto.NumCounters <= 0 {
		c.Tier.Ristretto.NumCounters = 100_000
	}
	if c.Tier.Ristretto.MaxCostMB <= 0 {
		c.Tier.Ristretto.MaxCostMB = 256
	}
	if c.Tier.Redis.Addr == "" {
		c.Tier.Redis.Addr = "localhost:6379"
	}
}

// Frame returns the host loop interval.
func (c *Config) Frame() time.Duration {
	return time.Second / time.Duration(c.FrameRate)
}

// Validate reports every problem found, joined.
func (c *Config) Validate() error {
	var errs []error
	switch c.Tier.Backend {
	case BackendNone, BackendRistretto, BackendBigcache, BackendRedis:
	default:
		errs = append(errs, fmt.Errorf("config: unknown tier backend %q", c.Tier.Backend))
	}
	switch c.DataFormat {
	case "json", "msgpack", "cbor":
	default:
		errs = append(errs, fmt.Errorf("config: unknown data_format %q", c.DataFormat))
	}
	for i, d := range c.Retry.Intervals {
		if d < 0 {
			errs = append(errs, fmt.Errorf("config: retry.intervals[%d] is negative", i))
		}
	}
	seen := make(map[assetcache.Kind]map[string]bool)
	for i, a := range c.Assets {
		if a.Key == "" {
			errs = append(errs, fmt.Errorf("config: assets[%d]: key is required", i))
		}
		if a.URL == "" {
			errs = append(errs, fmt.Errorf("config: assets[%d]: url is required", i))
		}
		if seen[a.Kind] == nil {
			seen[a.Kind] = make(map[string]bool)
		}
		if seen[a.Kind][a.Key] {
			errs = append(errs, fmt.Errorf("config: assets[%d]: duplicate %s key %q", i, a.Kind, a.Key))
		}
		seen[a.Kind][a.Key] = true
	}
	return errors.Join(errs...)
}
