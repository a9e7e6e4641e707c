package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const anthropicAPIURL = "https://api.anthropic.com/v1/messages"

// Ensure AnthropicClient implements LLMProvider
var _ LLMProvider = (*AnthropicClient)(nil)

// AnthropicClient implements LLMProvider for direct Anthropic API
type AnthropicClient struct {
	apiKey       string
	apiURL       string
	defaultModel string
	httpClient   *http.Client
}

// AnthropicRequest represents a request to the Anthropic Messages API
type AnthropicRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
	Messages  []Message `json:"messages"`
}

// AnthropicResponse represents a response from the Anthropic Messages API
type AnthropicResponse struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Role    string `json:"role"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Model      string `json:"model"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// NewAnthropicProvider creates an AnthropicClient as an LLMProvider
func NewAnthropicProvider(cfg *ProviderConfig) (LLMProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("Anthropic API key required (set RISKSCOPE_LLM_API_KEY)")
	}

	defaultModel := cfg.Model
	if defaultModel == "" {
		defaultModel = AnthropicModelMap[ModelBalanced]
	}

	return &AnthropicClient{
		apiKey:       cfg.APIKey,
		apiURL:       anthropicAPIURL,
		defaultModel: defaultModel,
		httpClient:   &http.Client{Timeout: 2 * time.Minute},
	}, nil
}

// Name returns the provider name
func (c *AnthropicClient) Name() string {
	return "Anthropic"
}

// MapModel maps a canonical model name to Anthropic model ID
func (c *AnthropicClient) MapModel(canonical string) string {
	return MapModelGeneric(ProviderAnthropic, canonical)
}

// DefaultModel returns the default model
func (c *AnthropicClient) DefaultModel() string {
	return c.defaultModel
}

// Generate sends a request to the Anthropic API
func (c *AnthropicClient) Generate(ctx context.Context, model, systemPrompt string, messages []Message, maxTokens int) (*GenerateResult, error) {
	if model == "" {
		model = c.defaultModel
	}
	if IsCanonicalModel(model) {
		model = c.MapModel(model)
	}

	req := AnthropicRequest{
		Model:     model,
		MaxTokens: maxTokens,
		System:    systemPrompt,
		Messages:  messages,
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &AnalysisError{
			Kind:    AnalysisStatus,
			Backend: "llm/anthropic",
			Status:  resp.StatusCode,
			Err:     fmt.Errorf("API error: %s", truncate(string(respBody), 200)),
		}
	}

	var apiResp AnthropicResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	var text string
	for _, content := range apiResp.Content {
		if content.Type == "text" {
			text += content.Text
		}
	}

	if text == "" {
		return nil, fmt.Errorf("model returned no text content (stop_reason: %s)", apiResp.StopReason)
	}

	return &GenerateResult{
		Text:         text,
		InputTokens:  apiResp.Usage.InputTokens,
		OutputTokens: apiResp.Usage.OutputTokens,
	}, nil
}
