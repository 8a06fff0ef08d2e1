package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestDefaultConfig verifies the defaults reproduce the reference preview settings
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Render.DPI != 100 {
		t.Errorf("Expected default DPI 100, got %d", cfg.Render.DPI)
	}
	if cfg.Render.LabeledQuality != 85 {
		t.Errorf("Expected labeled quality 85, got %d", cfg.Render.LabeledQuality)
	}
	if cfg.Legend.MaxEntries != 15 {
		t.Errorf("Expected 15 legend entries, got %d", cfg.Legend.MaxEntries)
	}
	if cfg.Output.Extension != ".jpg" {
		t.Errorf("Expected .jpg extension, got %s", cfg.Output.Extension)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected defaults to validate, got %v", err)
	}
}

// TestLoadConfigMissingFile verifies a missing file yields the defaults
func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Expected defaults for missing file, got error: %v", err)
	}
	if cfg.Render.DPI != 100 {
		t.Errorf("Expected default DPI, got %d", cfg.Render.DPI)
	}
}

// TestLoadConfigOverrides verifies partial files keep unspecified defaults
func TestLoadConfigOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preview.yaml")
	content := "render:\n  dpi: 150\nlegend:\n  maxEntries: 5\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Render.DPI != 150 {
		t.Errorf("Expected DPI 150, got %d", cfg.Render.DPI)
	}
	if cfg.Legend.MaxEntries != 5 {
		t.Errorf("Expected 5 legend entries, got %d", cfg.Legend.MaxEntries)
	}
	if cfg.Render.LabeledQuality != 85 {
		t.Errorf("Expected default quality to survive, got %d", cfg.Render.LabeledQuality)
	}
}

// TestLoadConfigInvalid verifies malformed YAML and out-of-range values are rejected
func TestLoadConfigInvalid(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("render: [not, a, map"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(bad); err == nil {
		t.Error("Expected parse error for malformed YAML")
	}

	invalid := filepath.Join(dir, "invalid.yaml")
	if err := os.WriteFile(invalid, []byte("render:\n  labeledQuality: 150\n"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := LoadConfig(invalid)
	if err == nil || !strings.Contains(err.Error(), "labeledQuality") {
		t.Errorf("Expected validation error naming labeledQuality, got %v", err)
	}
}

// TestValidate verifies each invalid setting is reported
func TestValidate(t *testing.T) {
	mutations := map[string]func(*Config){
		"zero dpi":      func(c *Config) { c.Render.DPI = 0 },
		"negative pad":  func(c *Config) { c.Render.PadInches = -1 },
		"tiny legend":   func(c *Config) { c.Legend.MaxEntries = 1 },
		"bad color":     func(c *Config) { c.Legend.OverflowColor = "grey" },
		"no extension":  func(c *Config) { c.Output.Extension = "" },
		"zero font":     func(c *Config) { c.Fonts.Legend = 0 },
		"empty quality": func(c *Config) { c.Render.EmptyQuality = 0 },
	}
	for name, mutate := range mutations {
		cfg := DefaultConfig()
		mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
}

// TestSaveAndLoadConfig verifies a written default file reloads unchanged
func TestSaveAndLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "preview.yaml")
	if err := CreateDefaultConfigFile(path); err != nil {
		t.Fatalf("Failed to create config file: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("Failed to reload config: %v", err)
	}
	if *cfg != *DefaultConfig() {
		t.Errorf("Expected reloaded config to equal defaults, got %+v", cfg)
	}
}
