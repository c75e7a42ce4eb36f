// Package config loads harness settings from an optional YAML file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultFileName is the config file looked up at the repository root.
const DefaultFileName = "scenetest.yaml"

// Config holds all configurable harness parameters. Command-line flags
// override whatever the file sets.
type Config struct {
	// BinName is the compiler executable name under the build tree.
	BinName string `yaml:"bin_name"`
	// BuildDir is the build output directory, relative to the repo root.
	BuildDir string `yaml:"build_dir"`
	// ExamplesDir is the example-tree root, relative to the repo root.
	ExamplesDir string `yaml:"examples_dir"`
	// TimeoutSeconds bounds each compiler invocation.
	TimeoutSeconds int `yaml:"timeout_seconds"`
	// Verbose enables full command-line output by default.
	Verbose bool `yaml:"verbose"`
}

// Default returns the built-in configuration matching the compiler
// repository's layout.
func Default() *Config {
	return &Config{
		BinName:        "scene-builder",
		BuildDir:       "target",
		ExamplesDir:    "examples",
		TimeoutSeconds: 30,
	}
}

// Timeout returns the per-execution timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Load reads configuration from a YAML file. A missing file returns
// defaults; invalid YAML returns an error. Fields absent from the file
// keep their default values.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultFileName
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	return cfg, nil
}
