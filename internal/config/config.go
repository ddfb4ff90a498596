// Package config provides configuration management for the QA advisor.
//
// Settings come from an optional TOML file with environment variable
// overrides. Credentials are environment-only and never appear in the file.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Provider selects the completion boundary implementation.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderDual      = "dual"
)

// Duration wraps time.Duration so it can be written as "30m" in TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// Config holds the configuration for the QA advisor.
type Config struct {
	Addr     string `toml:"addr"`
	Provider string `toml:"provider"`

	Model          string   `toml:"model"`
	FallbackModel  string   `toml:"fallback_model"`
	Temperature    float64  `toml:"temperature"`
	MaxTokens      int64    `toml:"max_tokens"`
	PersonaFile    string   `toml:"persona_file"`
	OpenAIBaseURL  string   `toml:"openai_base_url"`
	SessionTimeout Duration `toml:"session_timeout"`

	OTLPEndpoint string `toml:"otlp_endpoint"`

	// Environment-only credentials
	AnthropicAPIKey string `toml:"-"`
	OpenAIAPIKey    string `toml:"-"`
	AuthToken       string `toml:"-"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Addr:           ":8080",
		Provider:       ProviderAnthropic,
		Model:          "claude-sonnet-4-0",
		FallbackModel:  "gpt-4o",
		Temperature:    0.7,
		MaxTokens:      4096,
		OpenAIBaseURL:  "https://api.openai.com/v1",
		SessionTimeout: Duration{30 * time.Minute},
	}
}

// Load builds the configuration: defaults, then the TOML file at path if one
// is given, then environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	loadFromEnv(&cfg.Addr, "QA_ADVISOR_ADDR")
	loadFromEnv(&cfg.Provider, "QA_ADVISOR_PROVIDER")
	loadFromEnv(&cfg.Model, "QA_ADVISOR_MODEL")
	loadFromEnv(&cfg.FallbackModel, "QA_ADVISOR_FALLBACK_MODEL")
	loadFromEnv(&cfg.PersonaFile, "QA_ADVISOR_PERSONA_FILE")
	loadFromEnv(&cfg.OpenAIBaseURL, "OPENAI_BASE_URL")
	loadFromEnv(&cfg.OTLPEndpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	loadFromEnv(&cfg.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	loadFromEnv(&cfg.OpenAIAPIKey, "OPENAI_API_KEY")
	loadFromEnv(&cfg.AuthToken, "QA_ADVISOR_AUTH_TOKEN")

	return cfg, nil
}

func loadFromEnv(dest *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dest = v
	}
}

// Validate checks ranges and the presence of the credential for the selected
// provider.
func (c Config) Validate() error {
	switch c.Provider {
	case ProviderAnthropic, ProviderOpenAI, ProviderDual:
	default:
		return fmt.Errorf("unknown provider %q", c.Provider)
	}

	if c.Provider != ProviderOpenAI && c.AnthropicAPIKey == "" {
		return fmt.Errorf("missing required environment variable: ANTHROPIC_API_KEY")
	}
	if c.Provider != ProviderAnthropic && c.OpenAIAPIKey == "" {
		return fmt.Errorf("missing required environment variable: OPENAI_API_KEY")
	}

	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature %v out of range [0, 2]", c.Temperature)
	}
	if c.MaxTokens <= 0 || c.MaxTokens > 128000 {
		return fmt.Errorf("max_tokens %d out of range (0, 128000]", c.MaxTokens)
	}
	if c.SessionTimeout.Duration <= 0 {
		return fmt.Errorf("session_timeout must be positive")
	}
	return nil
}
