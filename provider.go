package main

import (
	"context"
	"fmt"
	"strings"
)

// ProviderType represents the LLM provider used by the llm analysis backend
type ProviderType string

const (
	ProviderBedrock   ProviderType = "bedrock"
	ProviderAnthropic ProviderType = "anthropic"
	ProviderOpenAI    ProviderType = "openai"
)

// Message represents a conversation message
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// GenerateResult contains the response text and token usage
type GenerateResult struct {
	Text         string
	InputTokens  int
	OutputTokens int
}

// LLMProvider is the abstract interface for LLM providers
type LLMProvider interface {
	// Generate sends a prompt to the LLM and returns the response
	Generate(ctx context.Context, model, systemPrompt string, messages []Message, maxTokens int) (*GenerateResult, error)

	// Name returns the provider name for display
	Name() string

	// MapModel maps a canonical model name (fast/balanced/deep) to provider-specific ID
	MapModel(canonical string) string

	// DefaultModel returns the provider's default model
	DefaultModel() string
}

// ProviderConfig holds configuration for initializing providers
type ProviderConfig struct {
	Provider ProviderType
	APIKey   string // For non-Bedrock providers
	Region   string // For Bedrock
	Model    string
}

// NewProvider creates an LLM provider based on configuration
func NewProvider(ctx context.Context, cfg *ProviderConfig) (LLMProvider, error) {
	switch cfg.Provider {
	case ProviderBedrock:
		return NewBedrockProvider(ctx, cfg)
	case ProviderAnthropic:
		return NewAnthropicProvider(cfg)
	case ProviderOpenAI:
		return NewOpenAIProvider(cfg)
	default:
		return nil, fmt.Errorf("unknown provider: %s", cfg.Provider)
	}
}

// ParseProviderType converts a string to ProviderType
func ParseProviderType(s string) ProviderType {
	switch strings.ToLower(s) {
	case "bedrock", "aws":
		return ProviderBedrock
	case "anthropic", "claude":
		return ProviderAnthropic
	case "openai", "gpt":
		return ProviderOpenAI
	default:
		return ProviderBedrock // Default to Bedrock
	}
}

// Canonical model tiers. Scoring runs on the balanced tier unless configured otherwise.
const (
	ModelFast     = "fast"
	ModelBalanced = "balanced"
	ModelDeep     = "deep"
)

// BedrockModelMap maps canonical names to Bedrock model IDs
var BedrockModelMap = map[string]string{
	ModelFast:     "global.anthropic.claude-haiku-4-5-20251001-v1:0",
	ModelBalanced: "global.anthropic.claude-sonnet-4-5-20250929-v1:0",
	ModelDeep:     "global.anthropic.claude-opus-4-5-20251101-v1:0",
}

// AnthropicModelMap maps canonical names to Anthropic API model IDs
var AnthropicModelMap = map[string]string{
	ModelFast:     "claude-3-5-haiku-latest",
	ModelBalanced: "claude-sonnet-4-5-20250929",
	ModelDeep:     "claude-opus-4-5-20251101",
}

// OpenAIModelMap maps canonical names to OpenAI model IDs
var OpenAIModelMap = map[string]string{
	ModelFast:     "gpt-4o-mini",
	ModelBalanced: "gpt-4o",
	ModelDeep:     "gpt-4.1",
}

// MapModelGeneric maps a canonical model name using the appropriate provider map
func MapModelGeneric(provider ProviderType, canonical string) string {
	var modelMap map[string]string
	switch provider {
	case ProviderAnthropic:
		modelMap = AnthropicModelMap
	case ProviderOpenAI:
		modelMap = OpenAIModelMap
	default:
		modelMap = BedrockModelMap
	}

	if mapped, ok := modelMap[canonical]; ok {
		return mapped
	}
	// If not a canonical name, return as-is (might be a full model ID)
	return canonical
}

// IsCanonicalModel checks if a model name is a canonical name
func IsCanonicalModel(model string) bool {
	switch model {
	case ModelFast, ModelBalanced, ModelDeep:
		return true
	default:
		return false
	}
}

// providerDisplayName returns a human-readable name for the provider
func providerDisplayName(p ProviderType) string {
	switch p {
	case ProviderBedrock:
		return "AWS Bedrock"
	case ProviderAnthropic:
		return "Anthropic API"
	case ProviderOpenAI:
		return "OpenAI API"
	default:
		return string(p)
	}
}
