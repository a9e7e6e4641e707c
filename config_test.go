package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

// useTempSettingsDir points the settings file at a fresh directory for one test
func useTempSettingsDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	orig := settingsDir
	settingsDir = func() (string, error) { return dir, nil }
	t.Cleanup(func() { settingsDir = orig })
	return dir
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Backend != BackendSimulated {
		t.Errorf("Backend = %q, want simulated", cfg.Backend)
	}
	if cfg.Delay != 2*time.Second {
		t.Errorf("Delay = %v, want 2s", cfg.Delay)
	}
	if cfg.Provider != ProviderBedrock {
		t.Errorf("Provider = %q, want bedrock", cfg.Provider)
	}
	if cfg.MaxTokens != DefaultScoringMaxTokens {
		t.Errorf("MaxTokens = %d, want %d", cfg.MaxTokens, DefaultScoringMaxTokens)
	}
	if !cfg.Animations {
		t.Error("Animations should default to on")
	}
	if cfg.Settings == nil {
		t.Error("Settings should not be nil")
	}
}

func TestLoadConfig(t *testing.T) {
	useTempSettingsDir(t)

	// Test with environment overrides
	t.Setenv("RISKSCOPE_BACKEND", "http")
	t.Setenv("RISKSCOPE_ENDPOINT", "https://scoring.example.com/assess")
	t.Setenv("RISKSCOPE_API_KEY", "secret")
	t.Setenv("RISKSCOPE_DELAY", "750ms")
	t.Setenv("RISKSCOPE_TIMEOUT", "5s")
	t.Setenv("RISKSCOPE_PROVIDER", "openai")
	t.Setenv("RISKSCOPE_MODEL", "fast")
	t.Setenv("RISKSCOPE_LLM_API_KEY", "sk-test")
	t.Setenv("RISKSCOPE_MAX_TOKENS", "1024")
	t.Setenv("LLMGUARD_URL", "http://localhost:8000")
	t.Setenv("LLMGUARD_TOKEN", "guard")
	t.Setenv("RISKSCOPE_THEME", "nord")
	t.Setenv("RISKSCOPE_LOCALE", "de-DE")
	t.Setenv("RISKSCOPE_NO_ANIM", "true")
	t.Setenv("RISKSCOPE_LOG_LEVEL", "debug")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Backend != BackendHTTP {
		t.Errorf("Backend = %q, want http", cfg.Backend)
	}
	if cfg.Endpoint != "https://scoring.example.com/assess" {
		t.Errorf("Endpoint = %q", cfg.Endpoint)
	}
	if cfg.APIKey != "secret" {
		t.Errorf("APIKey = %q, want secret", cfg.APIKey)
	}
	if cfg.Delay != 750*time.Millisecond {
		t.Errorf("Delay = %v, want 750ms", cfg.Delay)
	}
	if cfg.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", cfg.Timeout)
	}
	if cfg.Provider != ProviderOpenAI {
		t.Errorf("Provider = %q, want openai", cfg.Provider)
	}
	if cfg.MaxTokens != 1024 {
		t.Errorf("MaxTokens = %d, want 1024", cfg.MaxTokens)
	}
	if cfg.GuardURL != "http://localhost:8000" || cfg.GuardToken != "guard" {
		t.Errorf("Guard = %q/%q", cfg.GuardURL, cfg.GuardToken)
	}
	if cfg.Theme != "nord" {
		t.Errorf("Theme = %q, want nord", cfg.Theme)
	}
	if cfg.Locale != "de-DE" {
		t.Errorf("Locale = %q, want de-DE", cfg.Locale)
	}
	if cfg.Animations {
		t.Error("RISKSCOPE_NO_ANIM=true should disable animations")
	}
	if cfg.ParseLogLevel() != log.DebugLevel {
		t.Errorf("ParseLogLevel() = %v, want debug", cfg.ParseLogLevel())
	}

	pc := cfg.GetProviderConfig()
	if pc.Model != OpenAIModelMap[ModelFast] {
		t.Errorf("provider model = %q, want mapped fast tier", pc.Model)
	}
	if pc.APIKey != "sk-test" {
		t.Errorf("provider key = %q, want sk-test", pc.APIKey)
	}
}

func TestLoadConfigIgnoresBadValues(t *testing.T) {
	useTempSettingsDir(t)
	t.Setenv("RISKSCOPE_DELAY", "-5s")
	t.Setenv("RISKSCOPE_TIMEOUT", "soon")
	t.Setenv("RISKSCOPE_MAX_TOKENS", "lots")
	t.Setenv("RISKSCOPE_NO_ANIM", "maybe")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Delay != DefaultSimulatedDelay {
		t.Errorf("Delay = %v, want default", cfg.Delay)
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want default", cfg.Timeout)
	}
	if cfg.MaxTokens != DefaultScoringMaxTokens {
		t.Errorf("MaxTokens = %d, want default", cfg.MaxTokens)
	}
	if !cfg.Animations {
		t.Error("unparseable RISKSCOPE_NO_ANIM should leave animations on")
	}
}

func TestLoadConfigFromSettingsFile(t *testing.T) {
	dir := useTempSettingsDir(t)
	t.Setenv("RISKSCOPE_BACKEND", "")
	t.Setenv("RISKSCOPE_LOCALE", "")

	data := []byte("analysis:\n  backend: llm\ndisplay:\n  theme: dracula\n  locale: fr-FR\n")
	if err := os.WriteFile(filepath.Join(dir, "settings.yaml"), data, 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Backend != BackendLLM {
		t.Errorf("Backend = %q, want llm", cfg.Backend)
	}
	if cfg.Theme != "dracula" {
		t.Errorf("Theme = %q, want dracula", cfg.Theme)
	}
	if cfg.Locale != "fr-FR" {
		t.Errorf("Locale = %q, want fr-FR", cfg.Locale)
	}
	// Keys missing from the file keep their defaults
	if cfg.Delay != DefaultSimulatedDelay {
		t.Errorf("Delay = %v, want default", cfg.Delay)
	}
}

func TestLoadConfigMalformedSettings(t *testing.T) {
	dir := useTempSettingsDir(t)
	if err := os.WriteFile(filepath.Join(dir, "settings.yaml"), []byte("analysis: [unclosed"), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig()
	if err == nil {
		t.Fatal("expected an error for malformed settings")
	}
	if cfg == nil || cfg.Backend != BackendSimulated {
		t.Error("defaults should still be returned")
	}
}

func TestParseLogLevelDefault(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LogLevel = "chatty"
	if cfg.ParseLogLevel() != log.InfoLevel {
		t.Errorf("ParseLogLevel() = %v, want info", cfg.ParseLogLevel())
	}
}

func TestLocaleFromEnv(t *testing.T) {
	tests := []struct {
		name  string
		lcAll string
		lang  string
		want  string
	}{
		{"LANG with encoding", "", "en_GB.UTF-8", "en-GB"},
		{"LC_ALL wins", "de_DE.UTF-8", "en_US.UTF-8", "de-DE"},
		{"modifier stripped", "", "sr_RS@latin", "sr-RS"},
		{"C locale falls through", "C", "", "en"},
		{"nothing set", "", "", "en"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("LC_ALL", tt.lcAll)
			t.Setenv("LC_NUMERIC", "")
			t.Setenv("LANG", tt.lang)
			if got := localeFromEnv(); got != tt.want {
				t.Errorf("localeFromEnv() = %q, want %q", got, tt.want)
			}
		})
	}
}
