package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// envOverrides lists the environment variables that override file config.
// Unset or empty variables leave the file value alone.
type envOverrides struct {
	DataURL     string `env:"TODOBRIDGE_DATA_URL"`
	APIKey      string `env:"TODOBRIDGE_API_KEY"`
	Region      string `env:"TODOBRIDGE_REGION"`
	AuthMode    string `env:"TODOBRIDGE_AUTH_MODE"`
	Timeout     string `env:"TODOBRIDGE_TIMEOUT"`
	SandboxAddr string `env:"TODOBRIDGE_SANDBOX_ADDR"`
	SandboxDB   string `env:"TODOBRIDGE_SANDBOX_DB"`
	SandboxKey  string `env:"TODOBRIDGE_SANDBOX_API_KEY"`
	MaxContent  int    `env:"TODOBRIDGE_SANDBOX_MAX_CONTENT"`
	LogFile     string `env:"TODOBRIDGE_LOG_FILE"`
}

// ApplyEnv overlays TODOBRIDGE_* environment variables onto cfg.
func ApplyEnv(cfg *Config) error {
	var o envOverrides
	if err := env.Parse(&o); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	mergeData(&cfg.Data, DataConfig{
		URL:                      o.DataURL,
		APIKey:                   o.APIKey,
		Region:                   o.Region,
		DefaultAuthorizationType: o.AuthMode,
		Timeout:                  o.Timeout,
	})
	mergeSandbox(&cfg.Sandbox, SandboxConfig{
		Addr:             o.SandboxAddr,
		DBPath:           o.SandboxDB,
		APIKey:           o.SandboxKey,
		MaxContentLength: o.MaxContent,
	})
	if o.LogFile != "" {
		cfg.Log.File = o.LogFile
	}
	return nil
}
