// Package config handles reading and writing .intake/config.yaml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level structure for .intake/config.yaml.
type Config struct {
	Version  int            `yaml:"version"`
	Judge    JudgeConfig    `yaml:"judge"`
	Detector DetectorConfig `yaml:"detector"`
	Store    StoreConfig    `yaml:"store"`
	Catalog  string         `yaml:"catalog,omitempty"` // topics YAML; empty = built-in agenda
}

// JudgeConfig selects and tunes the language-model judge.
type JudgeConfig struct {
	Provider            string  `yaml:"provider"` // "claude" | "openai" | "gemini"
	Model               string  `yaml:"model,omitempty"`
	Temperature         float64 `yaml:"temperature"`
	ClassifyTemperature float64 `yaml:"classify_temperature"`
	Timeout             int     `yaml:"timeout"` // seconds
}

// DetectorConfig controls how refusals are recognised.
type DetectorConfig struct {
	Strategy  string `yaml:"strategy"`   // "keyword" | "judge"
	CacheSize int    `yaml:"cache_size"` // judge strategy memo entries
}

// StoreConfig controls where sessions are persisted.
type StoreConfig struct {
	Backend string `yaml:"backend"` // "file" | "sqlite"
	Path    string `yaml:"path"`    // relative to .intake/ unless absolute
}

// Judge providers.
const (
	ProviderClaude = "claude"
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Detector strategies.
const (
	StrategyKeyword = "keyword"
	StrategyJudge   = "judge"
)

// Store backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Dir is the per-project state directory, relative to the project root.
const Dir = ".intake"

const configFile = "config.yaml"

// ReadConfig reads .intake/config.yaml from the given project directory.
// dir is the project root (not .intake/ itself).
// Returns an error if the file is not found or YAML is malformed.
func ReadConfig(dir string) (*Config, error) {
	path := filepath.Join(dir, Dir, configFile)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadOrDefault reads the project config, falling back to DefaultConfig when
// the file does not exist. Malformed files are still reported.
func LoadOrDefault(dir string) (*Config, error) {
	cfg, err := ReadConfig(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return nil, err
	}
	return cfg, nil
}

// WriteConfig writes cfg to .intake/config.yaml in the given project directory.
// Creates the .intake/ directory if it does not exist.
func WriteConfig(dir string, cfg *Config) error {
	dirPath := filepath.Join(dir, Dir)
	if err := os.MkdirAll(dirPath, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}

	path := filepath.Join(dirPath, configFile)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version: 1,
		Judge: JudgeConfig{
			Provider:            ProviderClaude,
			Temperature:         0.7,
			ClassifyTemperature: 0.1,
			Timeout:             60,
		},
		Detector: DetectorConfig{
			Strategy:  StrategyJudge,
			CacheSize: 256,
		},
		Store: StoreConfig{
			Backend: BackendFile,
			Path:    "sessions/interview.json",
		},
	}
}

// Validate checks that cfg holds a coherent set of values. All problems are
// reported together.
func (c *Config) Validate() error {
	var errs []error

	switch c.Judge.Provider {
	case ProviderClaude, ProviderOpenAI, ProviderGemini:
	default:
		errs = append(errs, fmt.Errorf("judge.provider %q is invalid; valid values: claude, openai, gemini", c.Judge.Provider))
	}
	if c.Judge.Temperature < 0 || c.Judge.Temperature > 2 {
		errs = append(errs, fmt.Errorf("judge.temperature %.2f out of range [0, 2]", c.Judge.Temperature))
	}
	if c.Judge.ClassifyTemperature < 0 || c.Judge.ClassifyTemperature > 2 {
		errs = append(errs, fmt.Errorf("judge.classify_temperature %.2f out of range [0, 2]", c.Judge.ClassifyTemperature))
	}
	if c.Judge.Timeout < 0 {
		errs = append(errs, fmt.Errorf("judge.timeout must not be negative"))
	}

	switch c.Detector.Strategy {
	case StrategyKeyword, StrategyJudge:
	default:
		errs = append(errs, fmt.Errorf("detector.strategy %q is invalid; valid values: keyword, judge", c.Detector.Strategy))
	}

	switch c.Store.Backend {
	case BackendFile, BackendSQLite:
	default:
		errs = append(errs, fmt.Errorf("store.backend %q is invalid; valid values: file, sqlite", c.Store.Backend))
	}
	if c.Store.Path == "" {
		errs = append(errs, fmt.Errorf("store.path must not be empty"))
	}

	return errors.Join(errs...)
}

// JudgeTimeout returns the per-call judge deadline; zero disables it.
func (c *Config) JudgeTimeout() time.Duration {
	return time.Duration(c.Judge.Timeout) * time.Second
}

// StorePath resolves the store path against the project root.
func (c *Config) StorePath(projectRoot string) string {
	if filepath.IsAbs(c.Store.Path) {
		return c.Store.Path
	}
	return filepath.Join(projectRoot, Dir, c.Store.Path)
}

// CatalogPath resolves the catalog path against the project root. Returns ""
// when the built-in catalog is in use.
func (c *Config) CatalogPath(projectRoot string) string {
	if c.Catalog == "" || filepath.IsAbs(c.Catalog) {
		return c.Catalog
	}
	return filepath.Join(projectRoot, Dir, c.Catalog)
}
