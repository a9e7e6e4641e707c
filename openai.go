package main

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// Ensure OpenAIClient implements LLMProvider
var _ LLMProvider = (*OpenAIClient)(nil)

// OpenAIClient implements LLMProvider for the OpenAI Chat Completions API
type OpenAIClient struct {
	client       *openai.Client
	defaultModel string
}

// NewOpenAIProvider creates an OpenAIClient as an LLMProvider
func NewOpenAIProvider(cfg *ProviderConfig) (LLMProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key required (set RISKSCOPE_LLM_API_KEY)")
	}

	defaultModel := cfg.Model
	if defaultModel == "" {
		defaultModel = OpenAIModelMap[ModelBalanced]
	}

	return &OpenAIClient{
		client:       openai.NewClient(cfg.APIKey),
		defaultModel: defaultModel,
	}, nil
}

// Name returns the provider name
func (c *OpenAIClient) Name() string {
	return "OpenAI"
}

// MapModel maps a canonical model name to OpenAI model ID
func (c *OpenAIClient) MapModel(canonical string) string {
	return MapModelGeneric(ProviderOpenAI, canonical)
}

// DefaultModel returns the default model
func (c *OpenAIClient) DefaultModel() string {
	return c.defaultModel
}

// convertMessagesToOpenAI prepends the system prompt and converts riskscope messages
func convertMessagesToOpenAI(systemPrompt string, messages []Message) []openai.ChatCompletionMessage {
	result := make([]openai.ChatCompletionMessage, 0, len(messages)+1)

	if systemPrompt != "" {
		result = append(result, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: systemPrompt,
		})
	}

	for _, msg := range messages {
		result = append(result, openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}

	return result
}

// Generate sends a chat completion request, asking for a JSON object response
func (c *OpenAIClient) Generate(ctx context.Context, model, systemPrompt string, messages []Message, maxTokens int) (*GenerateResult, error) {
	if model == "" {
		model = c.defaultModel
	}
	if IsCanonicalModel(model) {
		model = c.MapModel(model)
	}

	req := openai.ChatCompletionRequest{
		Model:               model,
		Messages:            convertMessagesToOpenAI(systemPrompt, messages),
		MaxCompletionTokens: maxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("OpenAI API call failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("model returned no choices")
	}

	text := resp.Choices[0].Message.Content
	if text == "" {
		return nil, fmt.Errorf("model returned empty content (finish_reason: %s)", resp.Choices[0].FinishReason)
	}

	return &GenerateResult{
		Text:         text,
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
	}, nil
}
