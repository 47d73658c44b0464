package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/HuSoftSolutions/bunker-website-sub001/internal/models"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Server.RelayPath != "/api/menu-pdf" {
		t.Errorf("expected default relay path, got %q", cfg.Server.RelayPath)
	}
	if cfg.Viewer.WindowChrome != 220 || cfg.Viewer.MinContentHeight != 320 {
		t.Errorf("unexpected viewer defaults %+v", cfg.Viewer)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "menuview.yml")

	original := DefaultConfig()
	original.Server.Port = 9090
	original.Storage.Bucket = "bunker-menus"
	original.Relay.Timeout = 5 * time.Second
	original.Relay.AllowedHosts = []string{"cdn.example.com"}
	original.Locations = []models.Location{{
		ID:   "loc-1",
		Name: "Downtown",
		Menus: []models.DocumentDescriptor{
			{Name: "Lunch", StoragePath: "loc-1/lunch.pdf"},
			{SourceURL: "https://cdn.example.com/drinks.pdf"},
		},
	}}

	if err := original.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if diff := cmp.Diff(original, loaded); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nonexistent.yml"))
	if err != nil {
		t.Fatalf("expected no error for missing file, got: %v", err)
	}
	if diff := cmp.Diff(DefaultConfig(), cfg); diff != "" {
		t.Errorf("missing file should give defaults (-want +got):\n%s", diff)
	}
}

func TestEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "menuview.yml")
	yml := "server:\n  port: 9000\nstorage:\n  base: https://storage.googleapis.com/a\n"
	if err := os.WriteFile(path, []byte(yml), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("MENUVIEW_SERVER__PORT", "7000")
	t.Setenv("MENUVIEW_RELAY__MAX_RETRIES", "5")
	t.Setenv("MENUVIEW_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 7000 {
		t.Errorf("port = %d, want env override 7000", cfg.Server.Port)
	}
	if cfg.Relay.MaxRetries != 5 {
		t.Errorf("max_retries = %d, want 5", cfg.Relay.MaxRetries)
	}
	if cfg.Storage.Base != "https://storage.googleapis.com/a" {
		t.Errorf("storage.base = %q", cfg.Storage.Base)
	}
	if cfg.SlogLevel() != slog.LevelDebug {
		t.Errorf("SlogLevel = %v", cfg.SlogLevel())
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"relative relay", func(c *Config) { c.Server.RelayPath = "api/menu-pdf" }, "relay_path"},
		{"bad public url", func(c *Config) { c.Server.PublicURL = "localhost" }, "public_url"},
		{"bad storage base", func(c *Config) { c.Storage.Base = "bucket" }, "storage.base"},
		{"client without bucket", func(c *Config) { c.Storage.UseClient = true }, "storage.bucket"},
		{"unknown source", func(c *Config) { c.Catalog.Source = "mysql" }, "catalog.source"},
		{"firestore without project", func(c *Config) { c.Catalog.Source = CatalogFirestore }, "project_id"},
		{"zero retries", func(c *Config) { c.Relay.MaxRetries = 0 }, "max_retries"},
		{"duplicate location", func(c *Config) {
			c.Locations = []models.Location{{ID: "a"}, {ID: "a"}}
		}, "duplicate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}
