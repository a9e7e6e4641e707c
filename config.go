package main

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// Config holds runtime configuration: defaults, then the settings file, then
// environment variables. Command-line flags are applied on top by main.
type Config struct {
	// Analysis backend
	Backend  BackendType
	Delay    time.Duration // simulated backend latency
	Endpoint string        // http backend URL
	APIKey   string        // http backend bearer token
	Timeout  time.Duration // http backend request timeout

	// llm backend
	Provider   ProviderType
	Model      string
	Region     string
	LLMAPIKey  string
	MaxTokens  int
	GuardURL   string
	GuardToken string

	// Display
	Theme      string
	Locale     string
	Animations bool

	// Logging
	LogLevel string
	LogFile  string

	Settings *Settings
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return configFromSettings(DefaultSettings())
}

func configFromSettings(s *Settings) *Config {
	return &Config{
		Backend:    ParseBackendType(s.Analysis.Backend),
		Delay:      s.Analysis.Delay,
		Endpoint:   s.Analysis.Endpoint,
		Timeout:    s.Analysis.Timeout,
		Provider:   ParseProviderType(s.LLM.Provider),
		Model:      s.LLM.Model,
		Region:     s.LLM.Region,
		MaxTokens:  s.LLM.MaxTokens,
		GuardURL:   s.LLM.GuardURL,
		Theme:      s.Display.Theme,
		Locale:     s.Display.Locale,
		Animations: s.Display.Animations,
		LogLevel:   s.Log.Level,
		LogFile:    s.Log.File,
		Settings:   s,
	}
}

// LoadConfig loads the settings file and applies environment overrides. A
// malformed settings file is reported but the defaults are still returned.
func LoadConfig() (*Config, error) {
	settings, err := LoadSettings()
	cfg := configFromSettings(settings)

	if val := os.Getenv("RISKSCOPE_BACKEND"); val != "" {
		cfg.Backend = ParseBackendType(val)
	}
	if val := os.Getenv("RISKSCOPE_DELAY"); val != "" {
		if d, perr := time.ParseDuration(val); perr == nil && d >= 0 {
			cfg.Delay = d
		}
	}
	if val := os.Getenv("RISKSCOPE_ENDPOINT"); val != "" {
		cfg.Endpoint = val
	}
	if val := os.Getenv("RISKSCOPE_API_KEY"); val != "" {
		cfg.APIKey = val
	}
	if val := os.Getenv("RISKSCOPE_TIMEOUT"); val != "" {
		if d, perr := time.ParseDuration(val); perr == nil && d > 0 {
			cfg.Timeout = d
		}
	}

	if val := os.Getenv("RISKSCOPE_PROVIDER"); val != "" {
		cfg.Provider = ParseProviderType(val)
	}
	if val := os.Getenv("RISKSCOPE_MODEL"); val != "" {
		cfg.Model = val
	}
	if val := os.Getenv("AWS_REGION"); val != "" {
		cfg.Region = val
	}
	if val := os.Getenv("RISKSCOPE_LLM_API_KEY"); val != "" {
		cfg.LLMAPIKey = val
	}
	if val := os.Getenv("RISKSCOPE_MAX_TOKENS"); val != "" {
		if n, perr := strconv.Atoi(val); perr == nil && n > 0 {
			cfg.MaxTokens = n
		}
	}
	if val := os.Getenv("LLMGUARD_URL"); val != "" {
		cfg.GuardURL = val
	}
	cfg.GuardToken = os.Getenv("LLMGUARD_TOKEN")

	if val := os.Getenv("RISKSCOPE_THEME"); val != "" {
		cfg.Theme = val
	}
	if val := os.Getenv("RISKSCOPE_LOCALE"); val != "" {
		cfg.Locale = val
	}
	if cfg.Locale == "" {
		cfg.Locale = localeFromEnv()
	}
	if val := os.Getenv("RISKSCOPE_NO_ANIM"); val != "" {
		if b, perr := strconv.ParseBool(val); perr == nil {
			cfg.Animations = !b
		}
	}
	if val := os.Getenv("RISKSCOPE_LOG_LEVEL"); val != "" {
		cfg.LogLevel = val
	}

	return cfg, err
}

// GetProviderConfig builds the provider configuration for the llm backend
func (c *Config) GetProviderConfig() *ProviderConfig {
	return &ProviderConfig{
		Provider: c.Provider,
		APIKey:   c.LLMAPIKey,
		Region:   c.Region,
		Model:    MapModelGeneric(c.Provider, c.Model),
	}
}

// ParseLogLevel converts the configured level, defaulting to info
func (c *Config) ParseLogLevel() log.Level {
	lvl, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

// localeFromEnv derives a BCP 47 tag from LC_ALL / LANG ("en_US.UTF-8" -> "en-US")
func localeFromEnv() string {
	for _, key := range []string{"LC_ALL", "LC_NUMERIC", "LANG"} {
		val := os.Getenv(key)
		if val == "" || val == "C" || val == "POSIX" {
			continue
		}
		if i := strings.IndexAny(val, ".@"); i >= 0 {
			val = val[:i]
		}
		return strings.ReplaceAll(val, "_", "-")
	}
	return "en"
}
