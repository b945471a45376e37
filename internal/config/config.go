package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Normalization modes accepted for keysize estimation.
const (
	NormalizationInteger    = "integer"
	NormalizationFractional = "fractional"
)

// Config captures the cryptkit configuration resolved from defaults, optional
// files, and environment overrides.
type Config struct {
	Workers int           `yaml:"workers"`
	Keysize KeysizeConfig `yaml:"keysize"`
	Audit   AuditConfig   `yaml:"audit"`
	Tracing TracingConfig `yaml:"tracing"`
	Recipes RecipesConfig `yaml:"recipes"`
}

// KeysizeConfig tunes repeating-key keysize estimation.
type KeysizeConfig struct {
	Min           int    `yaml:"min"`
	Max           int    `yaml:"max"`
	Top           int    `yaml:"top"`
	Pairs         int    `yaml:"pairs"`
	Normalization string `yaml:"normalization"`
}

// Fractional reports whether distances are normalized with float division.
func (k KeysizeConfig) Fractional() bool {
	return k.Normalization == NormalizationFractional
}

// AuditConfig controls where audit events are written.
type AuditConfig struct {
	File   string `yaml:"file"`
	Stdout bool   `yaml:"stdout"`
}

// TracingConfig controls span export.
type TracingConfig struct {
	File        string  `yaml:"file"`
	SampleRatio float64 `yaml:"sample_ratio"`
	ServiceName string  `yaml:"service_name"`
}

// RecipesConfig points at the directory holding saved pipelines.
type RecipesConfig struct {
	Dir string `yaml:"dir"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Workers: runtime.NumCPU(),
		Keysize: KeysizeConfig{
			Min:           2,
			Max:           60,
			Top:           10,
			Pairs:         4,
			Normalization: NormalizationFractional,
		},
		Audit: AuditConfig{
			Stdout: false,
		},
		Tracing: TracingConfig{
			SampleRatio: 0,
			ServiceName: "cryptkit",
		},
		Recipes: RecipesConfig{
			Dir: defaultRecipesDir(),
		},
	}
}

func defaultRecipesDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ""
	}
	return filepath.Join(home, ".cryptkit", "recipes")
}

// Load resolves the configuration using defaults, configuration files, and
// environment overrides. Files are applied in order:
//  1. ~/.cryptkit/config.yml
//  2. ./cryptkit.yml
//
// Environment variables prefixed with CRYPTKIT_ have the highest precedence.
// The result is validated before it is returned.
func Load() (Config, error) {
	cfg := Default()

	if home, err := os.UserHomeDir(); err == nil && home != "" {
		if err := applyFile(&cfg, filepath.Join(home, ".cryptkit", "config.yml")); err != nil {
			return Config{}, err
		}
	}

	wd, err := os.Getwd()
	if err != nil {
		return Config{}, fmt.Errorf("determine working directory: %w", err)
	}
	if err := applyFile(&cfg, filepath.Join(wd, "cryptkit.yml")); err != nil {
		return Config{}, err
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFile applies a single YAML file on top of the defaults and environment.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := applyFileConfig(&cfg, data); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := applyEnvOverrides(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the estimator and pool cannot run with.
func (c Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.Keysize.Min < 2 {
		return fmt.Errorf("keysize.min must be at least 2, got %d", c.Keysize.Min)
	}
	if c.Keysize.Max < c.Keysize.Min {
		return fmt.Errorf("keysize.max %d is below keysize.min %d", c.Keysize.Max, c.Keysize.Min)
	}
	if c.Keysize.Top < 1 {
		return fmt.Errorf("keysize.top must be at least 1, got %d", c.Keysize.Top)
	}
	if c.Keysize.Pairs < 1 {
		return fmt.Errorf("keysize.pairs must be at least 1, got %d", c.Keysize.Pairs)
	}
	switch c.Keysize.Normalization {
	case NormalizationInteger, NormalizationFractional:
	default:
		return fmt.Errorf("unknown keysize.normalization %q", c.Keysize.Normalization)
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		return fmt.Errorf("tracing.sample_ratio must be within [0,1], got %v", c.Tracing.SampleRatio)
	}
	return nil
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := applyFileConfig(cfg, data); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

type fileConfig struct {
	Workers *int               `yaml:"workers"`
	Keysize *fileKeysizeConfig `yaml:"keysize"`
	Audit   *fileAuditConfig   `yaml:"audit"`
	Tracing *fileTracingConfig `yaml:"tracing"`
	Recipes *fileRecipesConfig `yaml:"recipes"`
}

type fileKeysizeConfig struct {
	Min           *int    `yaml:"min"`
	Max           *int    `yaml:"max"`
	Top           *int    `yaml:"top"`
	Pairs         *int    `yaml:"pairs"`
	Normalization *string `yaml:"normalization"`
}

type fileAuditConfig struct {
	File   *string `yaml:"file"`
	Stdout *bool   `yaml:"stdout"`
}

type fileTracingConfig struct {
	File        *string  `yaml:"file"`
	SampleRatio *float64 `yaml:"sample_ratio"`
	ServiceName *string  `yaml:"service_name"`
}

type fileRecipesConfig struct {
	Dir *string `yaml:"dir"`
}

func applyFileConfig(cfg *Config, data []byte) error {
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return err
	}

	if fc.Workers != nil {
		cfg.Workers = *fc.Workers
	}
	if k := fc.Keysize; k != nil {
		if k.Min != nil {
			cfg.Keysize.Min = *k.Min
		}
		if k.Max != nil {
			cfg.Keysize.Max = *k.Max
		}
		if k.Top != nil {
			cfg.Keysize.Top = *k.Top
		}
		if k.Pairs != nil {
			cfg.Keysize.Pairs = *k.Pairs
		}
		if k.Normalization != nil {
			cfg.Keysize.Normalization = strings.ToLower(strings.TrimSpace(*k.Normalization))
		}
	}
	if a := fc.Audit; a != nil {
		if a.File != nil {
			cfg.Audit.File = strings.TrimSpace(*a.File)
		}
		if a.Stdout != nil {
			cfg.Audit.Stdout = *a.Stdout
		}
	}
	if tr := fc.Tracing; tr != nil {
		if tr.File != nil {
			cfg.Tracing.File = strings.TrimSpace(*tr.File)
		}
		if tr.SampleRatio != nil {
			cfg.Tracing.SampleRatio = *tr.SampleRatio
		}
		if tr.ServiceName != nil {
			cfg.Tracing.ServiceName = strings.TrimSpace(*tr.ServiceName)
		}
	}
	if r := fc.Recipes; r != nil && r.Dir != nil {
		cfg.Recipes.Dir = strings.TrimSpace(*r.Dir)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) error {
	ints := []struct {
		name string
		dst  *int
	}{
		{"CRYPTKIT_WORKERS", &cfg.Workers},
		{"CRYPTKIT_KEYSIZE_MIN", &cfg.Keysize.Min},
		{"CRYPTKIT_KEYSIZE_MAX", &cfg.Keysize.Max},
		{"CRYPTKIT_KEYSIZE_TOP", &cfg.Keysize.Top},
		{"CRYPTKIT_KEYSIZE_PAIRS", &cfg.Keysize.Pairs},
	}
	for _, env := range ints {
		val := strings.TrimSpace(os.Getenv(env.name))
		if val == "" {
			continue
		}
		parsed, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("%s: %w", env.name, err)
		}
		*env.dst = parsed
	}

	if val := strings.TrimSpace(os.Getenv("CRYPTKIT_KEYSIZE_NORMALIZATION")); val != "" {
		cfg.Keysize.Normalization = strings.ToLower(val)
	}
	if val := strings.TrimSpace(os.Getenv("CRYPTKIT_AUDIT_FILE")); val != "" {
		cfg.Audit.File = val
	}
	if val := strings.TrimSpace(os.Getenv("CRYPTKIT_AUDIT_STDOUT")); val != "" {
		parsed, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("CRYPTKIT_AUDIT_STDOUT: %w", err)
		}
		cfg.Audit.Stdout = parsed
	}
	if val := strings.TrimSpace(os.Getenv("CRYPTKIT_TRACING_FILE")); val != "" {
		cfg.Tracing.File = val
	}
	if val := strings.TrimSpace(os.Getenv("CRYPTKIT_TRACING_SAMPLE_RATIO")); val != "" {
		parsed, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return fmt.Errorf("CRYPTKIT_TRACING_SAMPLE_RATIO: %w", err)
		}
		cfg.Tracing.SampleRatio = parsed
	}
	if val := strings.TrimSpace(os.Getenv("CRYPTKIT_TRACING_SERVICE_NAME")); val != "" {
		cfg.Tracing.ServiceName = val
	}
	if val := strings.TrimSpace(os.Getenv("CRYPTKIT_RECIPES_DIR")); val != "" {
		cfg.Recipes.Dir = val
	}
	return nil
}
