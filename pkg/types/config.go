package types

import "time"

// AIConfig holds settings for the completion service used to build graphs.
type AIConfig struct {
	// Model is the model identifier sent with every completion request
	// (e.g. "meta-llama/Meta-Llama-3.1-70B-Instruct-Turbo").
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// BaseURL is the root of the OpenAI-compatible API
	// (e.g. "https://api.together.xyz/v1").
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`

	// APIKey is the authentication key for the completion service.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// RepairJSON enables one repair attempt on model output that is not
	// valid JSON. Off by default: malformed output yields an empty graph.
	RepairJSON bool `json:"repair_json" yaml:"repair_json" mapstructure:"repair_json"`
}

// ServerConfig holds settings for the HTTP service.
type ServerConfig struct {
	// Addr is the listen address (default ":5000").
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`

	// ReadTimeout bounds reading a whole request, including the body.
	ReadTimeout time.Duration `json:"read_timeout" yaml:"read_timeout" mapstructure:"read_timeout"`

	// WriteTimeout bounds the handler plus response write. It must cover a
	// full completion round trip.
	WriteTimeout time.Duration `json:"write_timeout" yaml:"write_timeout" mapstructure:"write_timeout"`

	// MaxBodyBytes caps the size of a POSTed form (default 1 MiB).
	MaxBodyBytes int64 `json:"max_body_bytes" yaml:"max_body_bytes" mapstructure:"max_body_bytes"`

	// AllowedOrigins lists CORS origins allowed to POST notes.
	AllowedOrigins []string `json:"allowed_origins" yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Format is "json" or "console".
	Format string `json:"format" yaml:"format" mapstructure:"format"`

	// File, when set, receives log output with size-based rotation
	// instead of stderr.
	File string `json:"file,omitempty" yaml:"file,omitempty" mapstructure:"file"`

	MaxSizeMB  int `json:"max_size_mb" yaml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int `json:"max_backups" yaml:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int `json:"max_age_days" yaml:"max_age_days" mapstructure:"max_age_days"`
}

// Config groups all settings.
type Config struct {
	AI     AIConfig     `json:"ai" yaml:"ai" mapstructure:"ai"`
	Server ServerConfig `json:"server" yaml:"server" mapstructure:"server"`
	Log    LogConfig    `json:"log" yaml:"log" mapstructure:"log"`
}
