package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// maxBlockSize caps the hashing buffer.
const maxBlockSize = 64 << 20

// Load reads and validates a single dirsync.yaml file. Relative paths in
// the file are resolved against its directory.
func Load(path string) (*Config, error) {
	cfg, err := parse(path)
	if err != nil {
		return nil, err
	}

	if errs := Validate(cfg); len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}

	return cfg, nil
}

func parse(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving config path: %w", err)
	}
	cfg.resolvePaths(filepath.Dir(abs))
	return &cfg, nil
}

// resolvePaths makes relative paths absolute against base.
func (c *Config) resolvePaths(base string) {
	for _, p := range []*string{&c.Source, &c.Dest, &c.TrashDir, &c.Manifest} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(base, *p)
		}
	}
}

// LoadLayers loads every discovered config layer that exists and merges
// them over Default, lowest precedence first. A missing project file is
// only an error when opts.RequireProject is set. The merged result is
// validated.
func LoadLayers(opts DiscoverOptions) (*Config, []ConfigLayerInfo, error) {
	layers := DiscoverPaths(opts)
	configs := []*Config{Default()}

	for i := range layers {
		layer := &layers[i]
		cfg, err := parse(layer.Path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && !(layer.Level == LevelProject && opts.RequireProject) {
				continue
			}
			layer.Err = err
			return nil, layers, err
		}
		layer.Loaded = true
		configs = append(configs, cfg)
	}

	merged, err := MergeAll(configs)
	if err != nil {
		return nil, layers, err
	}
	if errs := Validate(merged); len(errs) > 0 {
		return nil, layers, &ValidationError{Errors: errs}
	}
	return merged, layers, nil
}

// ValidationError holds multiple validation failures.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

// Validate checks a Config for semantic correctness.
// Returns a list of validation error messages (empty if valid).
func Validate(cfg *Config) []string {
	var errs []string

	if cfg.Version != 1 {
		errs = append(errs, fmt.Sprintf("unsupported version %d — only version 1 is supported", cfg.Version))
	}

	if cfg.Source != "" && cfg.Source == cfg.Dest {
		errs = append(errs, fmt.Sprintf("'source' and 'dest' must differ, both are '%s'", cfg.Source))
	}

	if cfg.BlockSize < 0 || cfg.BlockSize > maxBlockSize {
		errs = append(errs, fmt.Sprintf("invalid block_size %d — must be between 0 and %d bytes", cfg.BlockSize, maxBlockSize))
	}

	switch cfg.OnError {
	case "", "fail-fast", "continue":
	default:
		errs = append(errs, fmt.Sprintf("invalid on_error '%s' — must be one of: fail-fast, continue", cfg.OnError))
	}

	for i, pattern := range cfg.Include {
		if !doublestar.ValidatePattern(pattern) {
			errs = append(errs, fmt.Sprintf("include[%d]: invalid pattern '%s'", i, pattern))
		}
	}

	for i, line := range cfg.Exclude {
		if strings.TrimSpace(line) == "" {
			errs = append(errs, fmt.Sprintf("exclude[%d]: empty pattern", i))
		}
	}

	return errs
}
