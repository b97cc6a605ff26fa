package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config controls the revalidation endpoint.
type Config struct {
	Addr              string        `yaml:"addr"`
	Route             string        `yaml:"route"`
	RevalidateSeconds int           `yaml:"revalidate_seconds"`
	RevalidateTimeout time.Duration `yaml:"revalidate_timeout"`
	LogLevel          string        `yaml:"log_level"`
}

// DefaultConfig returns the standard configuration used when no overrides are
// provided. The five second window matches the route's revalidate setting.
func DefaultConfig() Config {
	return Config{
		Addr:              ":8080",
		Route:             "/api",
		RevalidateSeconds: 5,
		RevalidateTimeout: 2 * time.Second,
		LogLevel:          "info",
	}
}

// Window is the revalidation window as a duration.
func (c Config) Window() time.Duration {
	return time.Duration(c.RevalidateSeconds) * time.Second
}

// Merge overlays the non-zero fields of override onto c.
func (c Config) Merge(override Config) Config {
	result := c
	if v := strings.TrimSpace(override.Addr); v != "" {
		result.Addr = v
	}
	if v := strings.TrimSpace(override.Route); v != "" {
		result.Route = v
	}
	if override.RevalidateSeconds != 0 {
		result.RevalidateSeconds = override.RevalidateSeconds
	}
	if override.RevalidateTimeout != 0 {
		result.RevalidateTimeout = override.RevalidateTimeout
	}
	if v := strings.TrimSpace(override.LogLevel); v != "" {
		result.LogLevel = v
	}
	return result
}

// Validate rejects settings the cache cannot run with.
func (c Config) Validate() error {
	if c.RevalidateSeconds <= 0 {
		return fmt.Errorf("revalidate_seconds must be positive, got %d", c.RevalidateSeconds)
	}
	if c.RevalidateTimeout < 0 {
		return fmt.Errorf("revalidate_timeout must not be negative, got %s", c.RevalidateTimeout)
	}
	if !strings.HasPrefix(c.Route, "/") {
		return fmt.Errorf("route must start with '/', got %q", c.Route)
	}
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("addr is required")
	}
	return nil
}

// LoadFile reads a YAML configuration file. Missing keys stay zero, so the
// result is meant to be merged onto DefaultConfig.
func LoadFile(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// FromEnv reads overrides from environment variables through lookup
// (os.LookupEnv in production).
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	var cfg Config
	get := func(key string) string {
		v, _ := lookup(key)
		return strings.TrimSpace(v)
	}

	cfg.Addr = get("ISR_ADDR")
	cfg.Route = get("ISR_ROUTE")
	cfg.LogLevel = get("LOG_LEVEL")

	if v := get("ISR_REVALIDATE_SECONDS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("ISR_REVALIDATE_SECONDS: %w", err)
		}
		cfg.RevalidateSeconds = n
	}
	if v := get("ISR_REVALIDATE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("ISR_REVALIDATE_TIMEOUT: %w", err)
		}
		cfg.RevalidateTimeout = d
	}
	return cfg, nil
}

// Load builds the effective configuration: defaults, then the optional file,
// then the environment.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if strings.TrimSpace(path) != "" {
		fileCfg, err := LoadFile(path)
		if err != nil {
			return Config{}, err
		}
		cfg = cfg.Merge(fileCfg)
	}

	envCfg, err := FromEnv(os.LookupEnv)
	if err != nil {
		return Config{}, err
	}
	return cfg.Merge(envCfg), nil
}
