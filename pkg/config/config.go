// Package config provides configuration loading and management for nrrdpreview.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Render parameters
	Render struct {
		// DPI is the output raster resolution in pixels per inch
		DPI int `yaml:"dpi"`

		// FigureWidth is the figure width in inches for both layouts
		FigureWidth float64 `yaml:"figureWidth"`

		// LabeledHeight is the figure height in inches of the 2x3 label layout
		LabeledHeight float64 `yaml:"labeledHeight"`

		// EmptyHeight is the figure height in inches of the 1x3 grayscale layout
		EmptyHeight float64 `yaml:"emptyHeight"`

		// LabeledQuality is the JPEG quality of label previews
		LabeledQuality int `yaml:"labeledQuality"`

		// EmptyQuality is the JPEG quality of empty-mask previews
		EmptyQuality int `yaml:"emptyQuality"`

		// PadInches is the margin kept around the cropped figure
		PadInches float64 `yaml:"padInches"`
	} `yaml:"render"`

	// Font sizes in points
	Fonts struct {
		Title    float64 `yaml:"title"`
		Suptitle float64 `yaml:"suptitle"`
		Legend   float64 `yaml:"legend"`
	} `yaml:"fonts"`

	// Legend parameters
	Legend struct {
		// MaxEntries is the most patches the legend shows; beyond it the
		// last patch summarises the remainder
		MaxEntries int `yaml:"maxEntries"`

		// OverflowColor is the hex color of the summary patch
		OverflowColor string `yaml:"overflowColor"`
	} `yaml:"legend"`

	// Output parameters
	Output struct {
		// Extension replaces the input extension to form the default output path
		Extension string `yaml:"extension"`

		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Render.DPI = 100
	cfg.Render.FigureWidth = 12
	cfg.Render.LabeledHeight = 8
	cfg.Render.EmptyHeight = 4
	cfg.Render.LabeledQuality = 85
	cfg.Render.EmptyQuality = 75
	cfg.Render.PadInches = 0.1

	cfg.Fonts.Title = 12
	cfg.Fonts.Suptitle = 10
	cfg.Fonts.Legend = 8

	cfg.Legend.MaxEntries = 15
	cfg.Legend.OverflowColor = "#808080"

	cfg.Output.Extension = ".jpg"
	cfg.Output.Verbose = false

	return cfg
}

// Validate reports the first invalid setting
func (c *Config) Validate() error {
	switch {
	case c.Render.DPI <= 0:
		return fmt.Errorf("render.dpi must be positive, got %d", c.Render.DPI)
	case c.Render.FigureWidth <= 0 || c.Render.LabeledHeight <= 0 || c.Render.EmptyHeight <= 0:
		return fmt.Errorf("figure dimensions must be positive")
	case c.Render.LabeledQuality < 1 || c.Render.LabeledQuality > 100:
		return fmt.Errorf("render.labeledQuality must be in 1..100, got %d", c.Render.LabeledQuality)
	case c.Render.EmptyQuality < 1 || c.Render.EmptyQuality > 100:
		return fmt.Errorf("render.emptyQuality must be in 1..100, got %d", c.Render.EmptyQuality)
	case c.Render.PadInches < 0:
		return fmt.Errorf("render.padInches must not be negative")
	case c.Fonts.Title <= 0 || c.Fonts.Suptitle <= 0 || c.Fonts.Legend <= 0:
		return fmt.Errorf("font sizes must be positive")
	case c.Legend.MaxEntries < 2:
		return fmt.Errorf("legend.maxEntries must be at least 2, got %d", c.Legend.MaxEntries)
	case c.Output.Extension == "":
		return fmt.Errorf("output.extension must not be empty")
	}
	if _, err := colorful.Hex(c.Legend.OverflowColor); err != nil {
		return fmt.Errorf("legend.overflowColor: %w", err)
	}
	return nil
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
