package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds the settings shared by the CLI and the terminal browser.
type Config struct {
	URL           string
	Timeout       time.Duration
	LogLevel      string
	LogFile       string
	LogMaxSizeMB  int
	LogMaxBackups int
	Metrics       bool
	Tracing       bool
}

const (
	defaultConfigPath    = "~/.config/dizquetv/config.toml"
	defaultURL           = "http://127.0.0.1:8000"
	defaultTimeout       = 5 * time.Second
	defaultLogLevel      = "info"
	defaultLogFile       = "~/.local/share/dizquetv/dizquetv.log"
	defaultLogMaxSizeMB  = 10
	defaultLogMaxBackups = 3
)

// Environment variables that override the config file.
const (
	EnvURL      = "DIZQUETV_URL"
	EnvTimeout  = "DIZQUETV_TIMEOUT_SECONDS"
	EnvLogLevel = "DIZQUETV_LOG_LEVEL"
	EnvLogFile  = "DIZQUETV_LOG_FILE"
	EnvMetrics  = "DIZQUETV_METRICS"
)

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		URL:           defaultURL,
		Timeout:       defaultTimeout,
		LogLevel:      defaultLogLevel,
		LogFile:       mustExpand(defaultLogFile),
		LogMaxSizeMB:  defaultLogMaxSizeMB,
		LogMaxBackups: defaultLogMaxBackups,
	}
}

// Load reads the TOML config at path (or the default location), then
// applies DIZQUETV_* environment overrides. A missing file is not an error.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	switch {
	case err == nil:
		defer func() { _ = file.Close() }()
		if err := cfg.readFrom(file); err != nil {
			return Config{}, err
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return Config{}, fmt.Errorf("open config: %w", err)
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) readFrom(r io.Reader) error {
	bytes, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		URL            string `toml:"url"`
		TimeoutSeconds int    `toml:"timeout_seconds"`
		LogLevel       string `toml:"log_level"`
		LogFile        string `toml:"log_file"`
		LogMaxSizeMB   int    `toml:"log_max_size_mb"`
		LogMaxBackups  int    `toml:"log_max_backups"`
		Metrics        bool   `toml:"metrics"`
		Tracing        bool   `toml:"tracing"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.URL); v != "" {
		c.URL = v
	}
	if raw.TimeoutSeconds > 0 {
		c.Timeout = time.Duration(raw.TimeoutSeconds) * time.Second
	}
	if v := strings.TrimSpace(raw.LogLevel); v != "" {
		c.LogLevel = strings.ToLower(v)
	}
	if v := strings.TrimSpace(raw.LogFile); v != "" {
		c.LogFile = mustExpand(v)
	}
	if raw.LogMaxSizeMB > 0 {
		c.LogMaxSizeMB = raw.LogMaxSizeMB
	}
	if raw.LogMaxBackups > 0 {
		c.LogMaxBackups = raw.LogMaxBackups
	}
	c.Metrics = raw.Metrics
	c.Tracing = raw.Tracing
	return nil
}

func (c *Config) applyEnv() {
	c.URL = getEnv(EnvURL, c.URL)
	if secs := getEnvInt(EnvTimeout, 0); secs > 0 {
		c.Timeout = time.Duration(secs) * time.Second
	}
	c.LogLevel = strings.ToLower(getEnv(EnvLogLevel, c.LogLevel))
	if v := getEnv(EnvLogFile, ""); v != "" {
		c.LogFile = mustExpand(v)
	}
	c.Metrics = getEnvBool(EnvMetrics, c.Metrics)
}

// LogPath returns the CLI log file location.
func (c Config) LogPath() string {
	if strings.TrimSpace(c.LogFile) == "" {
		return mustExpand(defaultLogFile)
	}
	return c.LogFile
}

// DefaultPath returns the config location used when none is given.
func DefaultPath() string {
	return mustExpand(defaultConfigPath)
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(strings.TrimSpace(v))
		if err == nil {
			return i
		}
	}
	return def
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
