// Package config loads menuview settings from YAML with MENUVIEW_*
// environment overrides.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override. A double underscore
// separates nesting levels: MENUVIEW_RELAY__MAX_BYTES -> relay.max_bytes.
const EnvPrefix = "MENUVIEW_"

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	cfg := DefaultConfig()

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(key, "__", ".")
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

var validSources = map[CatalogSource]bool{
	CatalogStatic:    true,
	CatalogFirestore: true,
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if !strings.HasPrefix(c.Server.RelayPath, "/") {
		return fmt.Errorf("server.relay_path %q must start with /", c.Server.RelayPath)
	}
	if c.Server.PublicURL != "" {
		if u, err := url.Parse(c.Server.PublicURL); err != nil || u.Host == "" {
			return fmt.Errorf("server.public_url %q is not an absolute URL", c.Server.PublicURL)
		}
	}

	if c.Storage.Base != "" {
		if u, err := url.Parse(c.Storage.Base); err != nil || u.Host == "" {
			return fmt.Errorf("storage.base %q is not an absolute URL", c.Storage.Base)
		}
	}
	if c.Storage.UseClient && c.Storage.Bucket == "" {
		return fmt.Errorf("storage.bucket is required when storage.use_client is set")
	}

	if !validSources[c.Catalog.Source] {
		return fmt.Errorf("invalid catalog.source %q: must be one of static, firestore", c.Catalog.Source)
	}
	if c.Catalog.Source == CatalogFirestore && c.Catalog.ProjectID == "" {
		return fmt.Errorf("catalog.project_id is required for the firestore catalog")
	}

	if c.Viewer.WindowChrome < 0 || c.Viewer.MinContentHeight < 0 {
		return fmt.Errorf("viewer sizes must be non-negative")
	}
	if c.Viewer.PrefetchLimit < 0 {
		return fmt.Errorf("viewer.prefetch_limit must be non-negative")
	}

	if c.Relay.MaxBytes <= 0 {
		return fmt.Errorf("relay.max_bytes must be positive")
	}
	if c.Relay.MaxRetries < 1 {
		return fmt.Errorf("relay.max_retries must be at least 1")
	}

	seen := make(map[string]bool)
	for _, loc := range c.Locations {
		if loc.ID == "" {
			return fmt.Errorf("location %q has no id", loc.Name)
		}
		if seen[loc.ID] {
			return fmt.Errorf("duplicate location id %q", loc.ID)
		}
		seen[loc.ID] = true
	}
	return nil
}

// SlogLevel maps LogLevel to a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
