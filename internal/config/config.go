package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir  string `toml:"data_dir"`
	CacheDir string `toml:"cache_dir"`
	LogDir   string `toml:"log_dir"`
}

// Scanner contains configuration for the provider scanner.
type Scanner struct {
	Iterations          int     `toml:"iterations"`
	FetchTimeoutSeconds int     `toml:"fetch_timeout_seconds"`
	RequestsPerSecond   float64 `toml:"requests_per_second"`
	CacheTTLSeconds     int     `toml:"cache_ttl_seconds"`
	CacheEnabled        bool    `toml:"cache_enabled"`
}

// Parser contains configuration for the release-name parser.
type Parser struct {
	CacheTTLSeconds int  `toml:"cache_ttl_seconds"`
	CacheEnabled    bool `toml:"cache_enabled"`
}

// Provider holds per-provider overrides keyed by provider name.
type Provider struct {
	Enabled *bool `toml:"enabled"`

	// URL is the feed endpoint for providers backed by a JSON search API.
	URL             string `toml:"url"`
	DefaultLanguage string `toml:"default_language"`
	DefaultType     string `toml:"default_type"`
}

// Downloads contains configuration for the download manager.
type Downloads struct {
	Backend string `toml:"backend"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for rill.
//
// Sections by subsystem:
//   - Paths: data, cache and log directories
//   - Scanner: pagination depth, fetch timeout, rate limit, scan cache
//   - Parser: name-parse cache
//   - Providers: per-provider enable flags and field defaults
//   - Downloads: which downloader backend to hand selections to
//   - Logging: log format and level
type Config struct {
	Paths     Paths               `toml:"paths"`
	Scanner   Scanner             `toml:"scanner"`
	Parser    Parser              `toml:"parser"`
	Providers map[string]Provider `toml:"providers"`
	Downloads Downloads           `toml:"downloads"`
	Logging   Logging             `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/rill/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The boolean reports
// whether a config file was actually found.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("rill.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories rill needs to operate.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.CacheDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the location of the sqlite database.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "rill.db")
}

// LogFilePath returns the location of the rolling log file.
func (c *Config) LogFilePath() string {
	return filepath.Join(c.Paths.LogDir, "rill.log")
}

// ScanCacheDir returns the directory holding cached scan results.
func (c *Config) ScanCacheDir() string {
	return filepath.Join(c.Paths.CacheDir, "scan")
}

// ParseCacheDir returns the directory holding cached name-parse results.
func (c *Config) ParseCacheDir() string {
	return filepath.Join(c.Paths.CacheDir, "nameparse")
}

// ProviderEnabled reports whether a provider is enabled; providers default
// to enabled unless the config says otherwise.
func (c *Config) ProviderEnabled(name string) bool {
	p, ok := c.Providers[name]
	if !ok || p.Enabled == nil {
		return true
	}
	return *p.Enabled
}

// SampleConfig returns the embedded example configuration.
func SampleConfig() string {
	return sampleConfig
}

// WriteSample writes the sample configuration file to the given path.
func WriteSample(path string) error {
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config file already exists at %s", expanded)
	}
	return os.WriteFile(expanded, []byte(sampleConfig), 0o644)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

func (c *Config) normalize() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.CacheDir, err = expandPath(c.Paths.CacheDir); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Downloads.Backend = strings.ToLower(strings.TrimSpace(c.Downloads.Backend))
	return nil
}
