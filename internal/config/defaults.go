package config

// DefaultConfig returns a configuration pointing at a locally running sandbox.
func DefaultConfig() *Config {
	return &Config{
		Data: DataConfig{
			URL:                      "http://127.0.0.1:8787",
			DefaultAuthorizationType: AuthModeAPIKey,
			Region:                   "local",
		},
		Sandbox: SandboxConfig{
			Addr:             "127.0.0.1:8787",
			DBPath:           ".todobridge/sandbox.db",
			MaxContentLength: 1024,
		},
		Log: LogConfig{
			File: ".todobridge/todobridge.log",
		},
	}
}
