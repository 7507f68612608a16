// Package config loads bracefix.toml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"

	"bracefix/internal/bracket"
	"bracefix/internal/repair"
)

// FileName is the manifest looked up from the working directory upwards.
const FileName = "bracefix.toml"

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

type Config struct {
	// Path is the file the config was loaded from; empty for defaults.
	Path   string       `toml:"-"`
	Repair RepairConfig `toml:"repair"`
	Batch  BatchConfig  `toml:"batch"`
	Cache  CacheConfig  `toml:"cache"`
}

type RepairConfig struct {
	Pairs    []string `toml:"pairs"`
	MaxDepth int      `toml:"max_depth"`
	MinDepth int      `toml:"min_depth"`
	Staged   bool     `toml:"staged"`
	Oracle   string   `toml:"oracle"`
}

type BatchConfig struct {
	// Jobs limits concurrent repairs; 0 means GOMAXPROCS.
	Jobs      int  `toml:"jobs"`
	Normalize bool `toml:"normalize"`
}

type CacheConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Repair: RepairConfig{
			Pairs:    bracket.DefaultPairs().Specs(),
			MaxDepth: repair.DefaultMaxDepth,
			Staged:   true,
			Oracle:   "xpath",
		},
	}
}

// Find walks up from startDir looking for bracefix.toml.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Load decodes path over the defaults. Keys absent from the file keep
// their default values; unknown keys are an error.
func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return Config{}, fmt.Errorf("%s: %w: unknown keys %s", path, ErrInvalid, strings.Join(keys, ", "))
	}
	if meta.IsDefined("repair", "pairs") && len(cfg.Repair.Pairs) == 0 {
		return Config{}, fmt.Errorf("%s: %w: [repair].pairs is empty", path, ErrInvalid)
	}
	if meta.IsDefined("repair", "oracle") && strings.TrimSpace(cfg.Repair.Oracle) == "" {
		return Config{}, fmt.Errorf("%s: %w: [repair].oracle is empty", path, ErrInvalid)
	}
	cfg.Path = path
	if cfg.Cache.Dir != "" && !filepath.IsAbs(cfg.Cache.Dir) {
		cfg.Cache.Dir = filepath.Join(filepath.Dir(path), cfg.Cache.Dir)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadNearest loads the nearest bracefix.toml above startDir, or the
// defaults when there is none.
func LoadNearest(startDir string) (Config, error) {
	path, ok, err := Find(startDir)
	if err != nil {
		return Config{}, err
	}
	if !ok {
		return Default(), nil
	}
	return Load(path)
}

// Validate checks value ranges and that the pairs parse.
func (c Config) Validate() error {
	if c.Repair.MaxDepth < 0 || c.Repair.MinDepth < 0 {
		return fmt.Errorf("%w: depths must not be negative", ErrInvalid)
	}
	if c.Repair.MinDepth > c.Repair.MaxDepth {
		return fmt.Errorf("%w: min_depth %d exceeds max_depth %d", ErrInvalid, c.Repair.MinDepth, c.Repair.MaxDepth)
	}
	if c.Batch.Jobs < 0 {
		return fmt.Errorf("%w: jobs must not be negative", ErrInvalid)
	}
	if _, err := c.PairSet(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

// PairSet parses Repair.Pairs.
func (c Config) PairSet() (bracket.PairSet, error) {
	return bracket.ParsePairs(c.Repair.Pairs...)
}

// RepairConfig builds the search configuration around v.
func (c Config) RepairConfig(v repair.Validator) (repair.Config, error) {
	pairs, err := c.PairSet()
	if err != nil {
		return repair.Config{}, err
	}
	return repair.Config{
		Pairs:     pairs,
		MaxDepth:  c.Repair.MaxDepth,
		MinDepth:  c.Repair.MinDepth,
		Staged:    c.Repair.Staged,
		Validator: v,
	}, nil
}

// Jobs resolves Batch.Jobs.
func (c Config) Jobs() int {
	if c.Batch.Jobs > 0 {
		return c.Batch.Jobs
	}
	return runtime.GOMAXPROCS(0)
}

// CacheDir resolves Cache.Dir, defaulting to the user cache directory.
func (c Config) CacheDir() (string, error) {
	if c.Cache.Dir != "" {
		return c.Cache.Dir, nil
	}
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("resolve cache dir: %w", err)
	}
	return filepath.Join(base, "bracefix"), nil
}
