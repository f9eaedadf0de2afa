// Package config loads the runtime configuration: per-named-cache bounds,
// antiflood defaults, and the telemetry reporting interval.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/groupwarden/go-warden/cache"
	"github.com/groupwarden/go-warden/flood"
)

type TelemetryCfg struct {
	// Enabled turns the periodic stats log on.
	Enabled bool `yaml:"enabled"`

	// Interval between stats reports. Example: "30s".
	Interval time.Duration `yaml:"interval"`
}

type Config struct {
	// Caches overrides the built-in config for named caches. Caches not
	// listed here use the preset their module picked.
	Caches map[string]cache.Config `yaml:"caches"`

	// Flood is the default antiflood policy for chats without their own.
	Flood flood.Config `yaml:"flood"`

	// Telemetry controls the periodic stats log.
	Telemetry TelemetryCfg `yaml:"telemetry"`
}

// Default returns the configuration used when no file is supplied.
func Default() *Config {
	return &Config{
		Flood:     flood.DefaultConfig(),
		Telemetry: TelemetryCfg{Enabled: true, Interval: 30 * time.Second},
	}
}

// Load reads and validates a yaml config file.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("stat config path: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config yaml file %s: %w", path, err)
	}

	var cfg *Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal yaml from %s: %w", path, err)
	}
	if err = cfg.Adjust(); err != nil {
		return nil, fmt.Errorf("adjust config from %s: %w", path, err)
	}

	return cfg, nil
}

// Adjust fills derived defaults and validates ranges.
func (cfg *Config) Adjust() error {
	if cfg.Flood == (flood.Config{}) {
		cfg.Flood = flood.DefaultConfig()
	}
	if err := cfg.Flood.Validate(); err != nil {
		return fmt.Errorf("flood: %w", err)
	}

	if cfg.Telemetry.Enabled && cfg.Telemetry.Interval <= 0 {
		cfg.Telemetry.Interval = 30 * time.Second
	}

	for name, c := range cfg.Caches {
		if c.MaxCapacity == 0 {
			return fmt.Errorf("cache %q: max_capacity must be set", name)
		}
	}
	return nil
}

// CacheConfig returns the configured bounds for a named cache, falling back
// to the given preset.
func (cfg *Config) CacheConfig(name string, preset cache.Config) cache.Config {
	if c, ok := cfg.Caches[name]; ok {
		return c
	}
	return preset
}
