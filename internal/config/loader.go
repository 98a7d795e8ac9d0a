package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"
)

// Load reads and merges configuration from global and project paths.
// Order of precedence (highest to lowest): project config, global config, defaults.
// Missing files are not errors; malformed JSON returns an error.
func Load(globalPath, projectPath string) (*Config, error) {
	cfg := DefaultConfig()

	if globalPath != "" {
		if err := mergeConfigFile(cfg, globalPath); err != nil {
			return nil, fmt.Errorf("loading global config: %w", err)
		}
	}

	if projectPath != "" {
		if err := mergeConfigFile(cfg, projectPath); err != nil {
			return nil, fmt.Errorf("loading project config: %w", err)
		}
	}

	return cfg, nil
}

// DefaultPaths returns the conventional global and project config paths.
// Global: ~/.todobridge/config.json
// Project: .todobridge/config.json (relative to cwd)
func DefaultPaths() (globalPath, projectPath string, err error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(homeDir, ".todobridge", "config.json"), filepath.Join(".todobridge", "config.json"), nil
}

// LoadDefault loads configuration from the conventional paths.
func LoadDefault() (*Config, error) {
	globalPath, projectPath, err := DefaultPaths()
	if err != nil {
		return nil, err
	}
	return Load(globalPath, projectPath)
}

// MergeOutputs merges a backend outputs file (the JSON the hosted backend
// generates for its clients) into cfg. Only the "data" section is read.
// Unlike config files, a missing outputs file is an error.
func MergeOutputs(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading outputs %s: %w", path, err)
	}

	var outputs struct {
		Data *DataConfig `json:"data"`
	}
	if err := json.Unmarshal(data, &outputs); err != nil {
		return fmt.Errorf("parsing outputs %s: %w", path, err)
	}
	if outputs.Data == nil {
		return fmt.Errorf("outputs %s: no data section", path)
	}

	mergeData(&cfg.Data, *outputs.Data)
	return nil
}

// mergeConfigFile reads a JSON config file and merges it into the base config.
// Missing files are silently skipped. Malformed JSON returns an error.
func mergeConfigFile(base *Config, path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	var loaded Config
	if err := json.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	mergeData(&base.Data, loaded.Data)
	mergeSandbox(&base.Sandbox, loaded.Sandbox)
	if loaded.Log.File != "" {
		base.Log.File = loaded.Log.File
	}
	return nil
}

// Non-empty fields of src win.
func mergeData(dst *DataConfig, src DataConfig) {
	if src.URL != "" {
		dst.URL = src.URL
	}
	if src.APIKey != "" {
		dst.APIKey = src.APIKey
	}
	if src.Region != "" {
		dst.Region = src.Region
	}
	if src.DefaultAuthorizationType != "" {
		dst.DefaultAuthorizationType = src.DefaultAuthorizationType
	}
	if src.Timeout != "" {
		dst.Timeout = src.Timeout
	}
}

func mergeSandbox(dst *SandboxConfig, src SandboxConfig) {
	if src.Addr != "" {
		dst.Addr = src.Addr
	}
	if src.DBPath != "" {
		dst.DBPath = src.DBPath
	}
	if src.APIKey != "" {
		dst.APIKey = src.APIKey
	}
	if src.MaxContentLength != 0 {
		dst.MaxContentLength = src.MaxContentLength
	}
}

// Validate checks the data connection settings the bridge needs at start-up.
func (c *Config) Validate() error {
	if c.Data.URL == "" {
		return errors.New("data.url is required")
	}
	u, err := url.Parse(c.Data.URL)
	if err != nil {
		return fmt.Errorf("data.url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("data.url: unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("data.url: missing host")
	}

	switch c.Data.DefaultAuthorizationType {
	case "", AuthModeAPIKey, AuthModeNone:
	default:
		return fmt.Errorf("data.default_authorization_type: unsupported mode %q", c.Data.DefaultAuthorizationType)
	}

	if _, err := c.Data.ClientTimeout(); err != nil {
		return err
	}
	return nil
}

// ClientTimeout parses Timeout. Zero means the transport imposes no timeout.
func (d DataConfig) ClientTimeout() (time.Duration, error) {
	if d.Timeout == "" {
		return 0, nil
	}
	timeout, err := time.ParseDuration(d.Timeout)
	if err != nil {
		return 0, fmt.Errorf("data.timeout: %w", err)
	}
	if timeout < 0 {
		return 0, fmt.Errorf("data.timeout: must not be negative")
	}
	return timeout, nil
}
