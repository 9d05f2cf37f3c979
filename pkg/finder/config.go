package finder

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"

	"pathscout/pkg/pathsafe"
)

// DefaultLoader is the classification attached to results when none is configured.
const DefaultLoader = "local"

// Config holds the defaults a Finder applies to every query.
type Config struct {
	// Workers is a concurrency hint for collaborators that post-process results.
	Workers int `yaml:"workers"`

	// CacheResults is reserved; results are never cached across calls.
	CacheResults bool `yaml:"cache_results"`

	// Constraint optionally bounds where results may resolve to.
	Constraint *pathsafe.Constraint `yaml:"constraint,omitempty"`

	// Loader is copied into every Result.
	Loader string `yaml:"loader"`

	// HonorIgnoreFiles is the default for Query.HonorIgnoreFiles.
	HonorIgnoreFiles bool `yaml:"honor_ignore_files"`

	// Validator, when set, checks each query before traversal.
	Validator QueryValidator `yaml:"-"`
}

// DefaultConfig returns a Config with sensible default values
func DefaultConfig() Config {
	return Config{
		Workers:          runtime.NumCPU(),
		CacheResults:     false,
		Loader:           DefaultLoader,
		HonorIgnoreFiles: true,
	}
}

// LoadConfig reads a YAML config file on top of DefaultConfig. A relative
// constraint root is resolved against the config file's directory.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config file %s: %w", path, err)
	}

	if cfg.Constraint != nil && cfg.Constraint.Root != "" && !filepath.IsAbs(cfg.Constraint.Root) {
		cfg.Constraint.Root = filepath.Join(filepath.Dir(path), cfg.Constraint.Root)
	}
	if cfg.Loader == "" {
		cfg.Loader = DefaultLoader
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	return cfg, nil
}
