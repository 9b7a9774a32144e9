// Package config handles configuration loading from TOML files and environment variables.
package config

import (
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
)

// Config is the root configuration structure.
type Config struct {
	Server     ServerConfig     `toml:"server"`
	History    HistoryConfig    `toml:"history"`
	Completion CompletionConfig `toml:"completion"`
	Cloud      CloudConfig      `toml:"cloud"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// HistoryConfig holds external history-service settings.
type HistoryConfig struct {
	BaseURL string `toml:"base_url"`
}

// CompletionConfig holds streaming completion service settings.
type CompletionConfig struct {
	Endpoint    string  `toml:"endpoint"`
	Model       string  `toml:"model"`
	APIKey      string  `toml:"api_key"`
	Temperature float64 `toml:"temperature"`
	RateLimit   float64 `toml:"rate_limit"`
	RateBurst   int     `toml:"rate_burst"`
}

// CloudConfig holds settings for the hosted thread-store token service.
type CloudConfig struct {
	BaseURL string `toml:"base_url"`
	APIKey  string `toml:"api_key"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr: ":3000",
		},
		History: HistoryConfig{
			BaseURL: "http://localhost:4111/api",
		},
		Completion: CompletionConfig{
			Endpoint:    "https://api.openai.com/v1",
			Model:       "gpt-4o",
			Temperature: 0.7,
			RateLimit:   10.0,
			RateBurst:   5,
		},
		Cloud: CloudConfig{
			BaseURL: "https://backend.assistant-api.com",
		},
	}
}

// Load reads configuration from a TOML file and applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	// Load from file if it exists
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, cfg); err != nil {
				return nil, err
			}
		}
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CREWCHAT_ADDR"); v != "" {
		cfg.Server.Addr = v
	}

	if v := os.Getenv("CREWCHAT_HISTORY_BASE_URL"); v != "" {
		cfg.History.BaseURL = v
	}

	if v := os.Getenv("CREWCHAT_COMPLETION_ENDPOINT"); v != "" {
		cfg.Completion.Endpoint = v
	}

	if v := os.Getenv("CREWCHAT_COMPLETION_MODEL"); v != "" {
		cfg.Completion.Model = v
	}

	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Completion.APIKey = v
	}

	if v := os.Getenv("CREWCHAT_COMPLETION_TEMPERATURE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Completion.Temperature = f
		}
	}

	if v := os.Getenv("CREWCHAT_COMPLETION_RATE_LIMIT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Completion.RateLimit = f
		}
	}

	if v := os.Getenv("CREWCHAT_COMPLETION_RATE_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Completion.RateBurst = n
		}
	}

	if v := os.Getenv("CREWCHAT_CLOUD_BASE_URL"); v != "" {
		cfg.Cloud.BaseURL = v
	}

	if v := os.Getenv("ASSISTANT_API_KEY"); v != "" {
		cfg.Cloud.APIKey = v
	}
}
