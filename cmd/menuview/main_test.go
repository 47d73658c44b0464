package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/HuSoftSolutions/bunker-website-sub001/internal/config"
	"github.com/HuSoftSolutions/bunker-website-sub001/internal/models"
	"github.com/HuSoftSolutions/bunker-website-sub001/internal/render/rendertest"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestInitWritesLoadableConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "menuview.yml")

	if _, err := run(t, "init", "--config", path); err != nil {
		t.Fatalf("init: %v", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("generated config does not validate: %v", err)
	}
	if len(cfg.Locations) != 1 || len(cfg.Locations[0].Menus) != 2 {
		t.Errorf("unexpected locations %+v", cfg.Locations)
	}

	if _, err := run(t, "init", "--config", path); err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Errorf("second init err = %v", err)
	}
}

func TestInspect(t *testing.T) {
	dir := t.TempDir()
	pdf := filepath.Join(dir, "menu.pdf")
	if err := os.WriteFile(pdf, rendertest.PDF([2]float64{1000, 1400}, rendertest.Letter), 0644); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, "inspect", pdf, "--config", filepath.Join(dir, "none.yml"), "--width", "800", "--height", "820")
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	// 820 - 220 chrome = 600 tall, so the height bound wins: 600/1400.
	for _, want := range []string{"pages:        2", "1000 x 1400 pt", "scale:        0.4286"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestResolveArgs(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "menuview.yml")
	cfg := config.DefaultConfig()
	cfg.Storage.Base = "https://storage.googleapis.com/menus"
	if err := cfg.Save(cfgPath); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, "resolve", "--config", cfgPath, "downtown/lunch menu.pdf")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	var tabs []models.MenuTab
	if err := json.Unmarshal([]byte(out), &tabs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(tabs) != 1 || tabs[0].CanonicalURL != "https://storage.googleapis.com/menus/downtown/lunch%20menu.pdf" {
		t.Errorf("tabs = %+v", tabs)
	}
}
