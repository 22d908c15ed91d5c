// Package config loads jdc settings from YAML files, a .env file and JDC_*
// environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/l3aro/java-dataset-converter/internal/log"
	"github.com/l3aro/java-dataset-converter/internal/scanner"
	"github.com/l3aro/java-dataset-converter/pkg/obfuscator"
	"github.com/l3aro/java-dataset-converter/pkg/syntax"
)

// Dir is the name of the config directory in the home and project roots.
const Dir = ".jdc"

// FileName is the config file name inside Dir.
const FileName = "config.yaml"

// Config holds the settings for a conversion run.
type Config struct {
	Backend         string `yaml:"backend"`
	Workers         int    `yaml:"workers"`
	Extension       string `yaml:"extension"`
	Recursive       bool   `yaml:"recursive"`
	SkipHidden      bool   `yaml:"skip_hidden"`
	JSONL           bool   `yaml:"jsonl"`
	JSONLDir        string `yaml:"jsonl_dir,omitempty"`
	FuncPrefix      string `yaml:"func_prefix"`
	VarPrefix       string `yaml:"var_prefix"`
	AvoidCollisions bool   `yaml:"avoid_collisions"`
	AllowPartial    bool   `yaml:"allow_partial"`
	ErrorLog        string `yaml:"error_log,omitempty"`
	Manifest        bool   `yaml:"manifest"`
	LogLevel        string `yaml:"log_level"`
	LogFormat       string `yaml:"log_format"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Backend:         syntax.BackendTreeSitter,
		Workers:         runtime.NumCPU(),
		Extension:       "java",
		SkipHidden:      true,
		JSONL:           true,
		FuncPrefix:      "func_",
		VarPrefix:       "var_",
		AvoidCollisions: true,
		Manifest:        true,
		LogLevel:        "info",
		LogFormat:       log.FormatText,
	}
}

// GlobalPath returns ~/.jdc/config.yaml, or "" when there is no home.
func GlobalPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, Dir, FileName)
}

// ProjectPath returns ./.jdc/config.yaml relative to the working directory.
func ProjectPath() string {
	cwd, err := os.Getwd()
	if err != nil {
		return filepath.Join(Dir, FileName)
	}
	return filepath.Join(cwd, Dir, FileName)
}

// Load builds the configuration in priority order: defaults, the global
// file, the project file, then .env and the environment.
func Load() (*Config, error) {
	return LoadPaths(GlobalPath(), ProjectPath())
}

// LoadPaths is Load with explicit file locations. Missing files are
// skipped; empty paths are ignored.
func LoadPaths(paths ...string) (*Config, error) {
	cfg := DefaultConfig()

	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := cfg.merge(path, false); err != nil {
			return nil, err
		}
	}

	// Existing environment variables win over .env entries.
	_ = godotenv.Load()
	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromFile loads a single config file on top of the defaults. The
// file must exist.
func LoadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()
	if err := cfg.merge(path, true); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) merge(path string, required bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if !required && os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// Save writes the configuration as YAML, creating parent directories.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("JDC_BACKEND"); v != "" {
		cfg.Backend = v
	}
	if v := os.Getenv("JDC_WORKERS"); v != "" {
		cfg.Workers = parseInt(v)
	}
	if v := os.Getenv("JDC_EXTENSION"); v != "" {
		cfg.Extension = v
	}
	if v := os.Getenv("JDC_RECURSIVE"); v != "" {
		cfg.Recursive = parseBool(v)
	}
	if v := os.Getenv("JDC_SKIP_HIDDEN"); v != "" {
		cfg.SkipHidden = parseBool(v)
	}
	if v := os.Getenv("JDC_JSONL"); v != "" {
		cfg.JSONL = parseBool(v)
	}
	if v := os.Getenv("JDC_JSONL_DIR"); v != "" {
		cfg.JSONLDir = v
	}
	if v := os.Getenv("JDC_FUNC_PREFIX"); v != "" {
		cfg.FuncPrefix = v
	}
	if v := os.Getenv("JDC_VAR_PREFIX"); v != "" {
		cfg.VarPrefix = v
	}
	if v := os.Getenv("JDC_AVOID_COLLISIONS"); v != "" {
		cfg.AvoidCollisions = parseBool(v)
	}
	if v := os.Getenv("JDC_ALLOW_PARTIAL"); v != "" {
		cfg.AllowPartial = parseBool(v)
	}
	if v := os.Getenv("JDC_ERROR_LOG"); v != "" {
		cfg.ErrorLog = v
	}
	if v := os.Getenv("JDC_MANIFEST"); v != "" {
		cfg.Manifest = parseBool(v)
	}
	if v := os.Getenv("JDC_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("JDC_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if _, err := syntax.NewBackend(c.Backend); err != nil {
		return fmt.Errorf("invalid backend: %w", err)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if err := validatePrefix("func_prefix", c.FuncPrefix); err != nil {
		return err
	}
	if err := validatePrefix("var_prefix", c.VarPrefix); err != nil {
		return err
	}
	// v and v1 would both produce v11.
	if overlaps(c.FuncPrefix, c.VarPrefix) || overlaps(c.VarPrefix, c.FuncPrefix) {
		return fmt.Errorf("func_prefix %q and var_prefix %q can generate the same name", c.FuncPrefix, c.VarPrefix)
	}
	if strings.Contains(c.Extension, "/") {
		return fmt.Errorf("invalid extension %q", c.Extension)
	}
	if !log.ValidFormat(c.LogFormat) {
		return fmt.Errorf("invalid log_format %q (use text or json)", c.LogFormat)
	}
	return nil
}

func validatePrefix(key, prefix string) error {
	if prefix == "" {
		return fmt.Errorf("%s is required", key)
	}
	for i, r := range prefix {
		letter := r == '_' || r == '$' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		if letter || (i > 0 && r >= '0' && r <= '9') {
			continue
		}
		return fmt.Errorf("%s %q is not a valid Java identifier prefix", key, prefix)
	}
	return nil
}

// overlaps reports whether b is a followed by digits only.
func overlaps(a, b string) bool {
	if !strings.HasPrefix(b, a) {
		return false
	}
	for _, r := range b[len(a):] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ObfuscatorOptions returns the renaming options.
func (c *Config) ObfuscatorOptions() obfuscator.Options {
	return obfuscator.Options{
		FuncPrefix:      c.FuncPrefix,
		VarPrefix:       c.VarPrefix,
		AvoidCollisions: c.AvoidCollisions,
		AllowPartial:    c.AllowPartial,
	}
}

// ScannerOptions returns file discovery options.
func (c *Config) ScannerOptions() scanner.Options {
	opts := scanner.DefaultOptions()
	opts.Extension = strings.TrimPrefix(c.Extension, ".")
	opts.Recursive = c.Recursive
	opts.SkipHidden = c.SkipHidden
	return opts
}

func parseInt(s string) int {
	var n int
	if _, err := fmt.Sscanf(strings.TrimSpace(s), "%d", &n); err != nil {
		return 0
	}
	return n
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
