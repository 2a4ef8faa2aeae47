// Package config loads the server configuration from an optional YAML file
// and the environment.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults.
const (
	DefaultAddr           = ":8080"
	DefaultDBPath         = "doacoes.db"
	DefaultAPIURL         = "http://localhost:5000/api"
	DefaultRequestTimeout = 10 * time.Second
	DefaultVisitorTTL     = 2 * time.Hour
)

// Config is the server configuration.
type Config struct {
	Addr           string        `yaml:"addr"`
	DBPath         string        `yaml:"dbPath"`
	APIURL         string        `yaml:"apiURL"`
	RequestTimeout time.Duration `yaml:"requestTimeout"`
	CookieSecure   bool          `yaml:"cookieSecure"`
	VisitorTTL     time.Duration `yaml:"visitorTTL"`
	LogLevel       string        `yaml:"logLevel"`
	LogFile        string        `yaml:"logFile"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Addr:           DefaultAddr,
		DBPath:         DefaultDBPath,
		APIURL:         DefaultAPIURL,
		RequestTimeout: DefaultRequestTimeout,
		VisitorTTL:     DefaultVisitorTTL,
		LogLevel:       "info",
	}
}

// Load reads config from path on top of the defaults, applies environment
// overrides and validates the result. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("DOACOES_API_URL"); v != "" {
		cfg.APIURL = v
	}
	if v := os.Getenv("DOACOES_REQUEST_TIMEOUT"); v != "" {
		d, err := parseDuration(v)
		if err != nil {
			return fmt.Errorf("config: DOACOES_REQUEST_TIMEOUT: %w", err)
		}
		cfg.RequestTimeout = d
	}
	if v := os.Getenv("DOACOES_COOKIE_SECURE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: DOACOES_COOKIE_SECURE: %w", err)
		}
		cfg.CookieSecure = b
	}
	return nil
}

// parseDuration accepts Go durations and bare seconds.
func parseDuration(v string) (time.Duration, error) {
	v = strings.TrimSpace(v)
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(v)
}

// Validate checks that cfg is usable.
func Validate(cfg Config) error {
	if cfg.Addr == "" {
		return errors.New("config: addr is required")
	}
	if cfg.DBPath == "" {
		return errors.New("config: dbPath is required")
	}
	u, err := url.Parse(cfg.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("config: apiURL %q must be an absolute http(s) URL", cfg.APIURL)
	}
	if cfg.RequestTimeout <= 0 {
		return errors.New("config: requestTimeout must be positive")
	}
	if cfg.VisitorTTL <= 0 {
		return errors.New("config: visitorTTL must be positive")
	}
	switch strings.ToLower(cfg.LogLevel) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown logLevel %q", cfg.LogLevel)
	}
	return nil
}
