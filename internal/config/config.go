// Package config loads server settings from an optional YAML file with
// HUBBLE_* environment overrides. Environment variables always win so the
// same image can run with a file, with env only, or with both.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port            int           `yaml:"port"`
	BaseURL         string        `yaml:"base_url"`
	DBPath          string        `yaml:"db_path"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	LogLevel        string        `yaml:"log_level"`

	JWTSecret     string `yaml:"jwt_secret"`
	AdminUsername string `yaml:"admin_username"`
	AdminPassword string `yaml:"admin_password"`

	GitHubClientID     string `yaml:"github_client_id"`
	GitHubClientSecret string `yaml:"github_client_secret"`
	GitHubCallbackURL  string `yaml:"github_callback_url"`
	GitHubAllowedLogin string `yaml:"github_allowed_login"`

	DiscoveryEnabled  bool          `yaml:"discovery_enabled"`
	DiscoveryInterval time.Duration `yaml:"discovery_interval"`

	FaviconCacheSize int           `yaml:"favicon_cache_size"`
	FaviconCacheTTL  time.Duration `yaml:"favicon_cache_ttl"`
}

// Load reads the YAML file at path (skipped when path is empty or the file
// does not exist), applies environment overrides, and validates the result.
func Load(path string) (*Config, error) {
	cfg := &Config{
		Port:              8080,
		BaseURL:           "http://localhost:8080",
		DBPath:            "hubble.db",
		ShutdownTimeout:   10 * time.Second,
		LogLevel:          "info",
		AdminUsername:     "admin",
		DiscoveryEnabled:  false,
		DiscoveryInterval: 30 * time.Second,
		FaviconCacheSize:  256,
		FaviconCacheTTL:   24 * time.Hour,
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("config: reading %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parsing %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Port = getenvInt("HUBBLE_PORT", c.Port)
	c.BaseURL = getenv("HUBBLE_BASE_URL", c.BaseURL)
	c.DBPath = getenv("HUBBLE_DB_PATH", c.DBPath)
	c.ShutdownTimeout = getenvDuration("HUBBLE_SHUTDOWN_TIMEOUT", c.ShutdownTimeout)
	c.LogLevel = getenv("HUBBLE_LOG_LEVEL", c.LogLevel)

	c.JWTSecret = getenv("HUBBLE_JWT_SECRET", c.JWTSecret)
	c.AdminUsername = getenv("HUBBLE_ADMIN_USERNAME", c.AdminUsername)
	c.AdminPassword = getenv("HUBBLE_ADMIN_PASSWORD", c.AdminPassword)

	c.GitHubClientID = getenv("HUBBLE_GITHUB_CLIENT_ID", c.GitHubClientID)
	c.GitHubClientSecret = getenv("HUBBLE_GITHUB_CLIENT_SECRET", c.GitHubClientSecret)
	c.GitHubCallbackURL = getenv("HUBBLE_GITHUB_CALLBACK_URL", c.GitHubCallbackURL)
	c.GitHubAllowedLogin = getenv("HUBBLE_GITHUB_ALLOWED_LOGIN", c.GitHubAllowedLogin)

	c.DiscoveryEnabled = getenvBool("HUBBLE_DISCOVERY_ENABLED", c.DiscoveryEnabled)
	c.DiscoveryInterval = getenvDuration("HUBBLE_DISCOVERY_INTERVAL", c.DiscoveryInterval)

	c.FaviconCacheSize = getenvInt("HUBBLE_FAVICON_CACHE_SIZE", c.FaviconCacheSize)
	c.FaviconCacheTTL = getenvDuration("HUBBLE_FAVICON_CACHE_TTL", c.FaviconCacheTTL)
}

func (c *Config) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: invalid port %d", c.Port)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("config: jwt secret is required (set HUBBLE_JWT_SECRET)")
	}
	if c.DBPath == "" {
		return fmt.Errorf("config: db path is required")
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	return nil
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// GitHubConfigured reports whether the optional GitHub login flow has
// everything it needs.
func (c *Config) GitHubConfigured() bool {
	return c.GitHubClientID != "" && c.GitHubClientSecret != "" && c.GitHubAllowedLogin != ""
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getenvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
