package config

// Authorization modes understood by the data client.
const (
	AuthModeAPIKey = "API_KEY"
	AuthModeNone   = "NONE"
)

// DataConfig describes how to reach the hosted data service.
// Field names match the "data" section of the backend outputs file.
type DataConfig struct {
	URL                      string `json:"url,omitempty"`                        // Base URL of the data API
	APIKey                   string `json:"api_key,omitempty"`                    // Sent as x-api-key in API_KEY mode
	Region                   string `json:"aws_region,omitempty"`                 // Informational; shown in the UI
	DefaultAuthorizationType string `json:"default_authorization_type,omitempty"` // "API_KEY" or "NONE"
	Timeout                  string `json:"timeout,omitempty"`                    // Go duration; empty means no client timeout
}

// SandboxConfig configures the local data service used for development.
type SandboxConfig struct {
	Addr             string `json:"addr,omitempty"`
	DBPath           string `json:"db_path,omitempty"`
	APIKey           string `json:"api_key,omitempty"`            // Empty disables the key check
	MaxContentLength int    `json:"max_content_length,omitempty"` // In runes; longer content is rejected
}

// LogConfig controls where the UI binary writes its log.
type LogConfig struct {
	File string `json:"file,omitempty"`
}

// Config is the top-level configuration.
type Config struct {
	Data    DataConfig    `json:"data"`
	Sandbox SandboxConfig `json:"sandbox"`
	Log     LogConfig     `json:"log"`
}
