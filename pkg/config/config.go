// Package config provides configuration loading and management for orthofuse.
// It handles loading configuration from YAML files, provides default values and
// validates the constants shared by the reader, the solver and the writer.
package config

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"orthofuse/pkg/fusion"
)

// Output formats
const (
	FormatRaw = "raw"
	FormatNpy = "npy"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Volume geometry shared by all inputs and the output
	Volume struct {
		// Dim is the isotropic extent of the fused volume along every axis
		Dim int `yaml:"dim"`

		// CubeSize is the ratio between coarse and isotropic resolution
		CubeSize int `yaml:"cubeSize"`

		// ByteOrder of the raw float32 samples, "little" or "big"
		ByteOrder string `yaml:"byteOrder"`
	} `yaml:"volume"`

	// Input scan locations. Each file holds (dim/cubeSize, dim, dim) samples
	// in its native frame.
	Input struct {
		Axial    string `yaml:"axial"`
		Coronal  string `yaml:"coronal"`
		Sagittal string `yaml:"sagittal"`

		// Truth optionally names an isotropic volume to validate against
		Truth string `yaml:"truth"`
	} `yaml:"input"`

	// Processing parameters
	Processing struct {
		// NumCores specifies how many goroutines solve cubes in parallel
		NumCores int `yaml:"numCores"`

		// Solver selects the least-squares backend ("svd" or "qr")
		Solver string `yaml:"solver"`
	} `yaml:"processing"`

	// Output parameters
	Output struct {
		// Path of the fused volume
		Path string `yaml:"path"`

		// Format of the fused volume: raw or npy. A raw path ending in .zst
		// is compressed.
		Format string `yaml:"format"`

		// PreviewDir, if set, receives JPEG slices of the fused volume
		PreviewDir string `yaml:"previewDir"`

		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Volume.Dim = 180
	cfg.Volume.CubeSize = 3
	cfg.Volume.ByteOrder = "little"

	cfg.Input.Axial = "AXL"
	cfg.Input.Coronal = "COR"
	cfg.Input.Sagittal = "SAG"

	cfg.Processing.NumCores = runtime.NumCPU() // Use all available cores by default
	cfg.Processing.Solver = fusion.SolverSVD

	cfg.Output.Path = "LAF"
	cfg.Output.Format = FormatRaw
	cfg.Output.Verbose = true

	return cfg
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Parse YAML
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
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

	// Marshal config to YAML
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	// Write to file
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

// Validate checks the configuration before any file is read or written.
// Every error wraps fusion.ErrConfiguration.
func (c *Config) Validate() error {
	layout, err := fusion.NewCubeLayout(c.Volume.CubeSize)
	if err != nil {
		return err
	}
	if err := layout.CheckExtent(c.Volume.Dim); err != nil {
		return err
	}

	if _, err := c.ByteOrder(); err != nil {
		return err
	}

	for name, path := range map[string]string{
		"input.axial":    c.Input.Axial,
		"input.coronal":  c.Input.Coronal,
		"input.sagittal": c.Input.Sagittal,
		"output.path":    c.Output.Path,
	} {
		if path == "" {
			return fmt.Errorf("%w: %s must be set", fusion.ErrConfiguration, name)
		}
	}

	switch c.Processing.Solver {
	case fusion.SolverSVD, fusion.SolverQR:
	default:
		return fmt.Errorf("%w: unknown solver %q", fusion.ErrConfiguration, c.Processing.Solver)
	}

	switch c.Output.Format {
	case FormatRaw, FormatNpy:
	default:
		return fmt.Errorf("%w: unknown output format %q", fusion.ErrConfiguration, c.Output.Format)
	}

	return nil
}

// ByteOrder resolves the configured element byte order
func (c *Config) ByteOrder() (binary.ByteOrder, error) {
	switch strings.ToLower(c.Volume.ByteOrder) {
	case "little", "le":
		return binary.LittleEndian, nil
	case "big", "be":
		return binary.BigEndian, nil
	}
	return nil, fmt.Errorf("%w: unknown byte order %q", fusion.ErrConfiguration, c.Volume.ByteOrder)
}

// Depth is the number of thick slices in every input scan
func (c *Config) Depth() int {
	return c.Volume.Dim / c.Volume.CubeSize
}
