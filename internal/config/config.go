// Package config loads optional settings from an .xldiff.yaml file.
//
// Every field has a working zero default, so the tool runs without any
// configuration file at all. Command-line flags take precedence over
// file values; the merge happens at the command layer.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/xldiff/xldiff/internal/log"
)

// EnvConfigFile overrides the configuration file location. When set, the
// file must exist; a missing file is an error rather than a silent skip.
const EnvConfigFile = "XLDIFF_CONFIG"

const fileName = ".xldiff.yaml"

// Config carries the tunable settings.
type Config struct {
	// Format is the default output format (text, json, csv, tsv).
	Format string `yaml:"format"`
	// Parallelism caps concurrent sheet comparisons. Zero means serial.
	Parallelism int `yaml:"parallelism"`
	// MaxCellsPerSheet caps the populated area captured per sheet.
	// Zero keeps the built-in limit.
	MaxCellsPerSheet int `yaml:"maxCellsPerSheet"`
	// StoreRoot overrides the snapshot store directory.
	StoreRoot string `yaml:"storeRoot"`
	// BasePath is prepended to relative workbook paths.
	BasePath string `yaml:"basePath"`
	// AllowedPaths restricts which directories the MCP server may read
	// from or write to.
	AllowedPaths []string `yaml:"allowedPaths"`
	// CacheSize is the number of parsed workbooks the MCP server keeps
	// in memory.
	CacheSize int `yaml:"cacheSize"`
}

// Load reads the configuration file, checking XLDIFF_CONFIG first, then
// .xldiff.yaml in the working directory, then the user config directory.
// A missing file yields the zero Config without error.
func Load() (Config, error) {
	path, ok := findConfigFile()
	if !ok {
		return Config{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	log.WithField("path", path).Debug("loaded config")
	return cfg, nil
}

func findConfigFile() (string, bool) {
	if path := os.Getenv(EnvConfigFile); path != "" {
		return path, true
	}

	if info, err := os.Stat(fileName); err == nil && !info.IsDir() {
		return fileName, true
	}

	if dir, err := os.UserConfigDir(); err == nil {
		path := filepath.Join(dir, "xldiff", "config.yaml")
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
	}

	return "", false
}
