package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
)

// bedrockInvoker is the slice of the Bedrock runtime client the provider uses
type bedrockInvoker interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// BedrockClient implements LLMProvider on top of the AWS Bedrock Runtime client
type BedrockClient struct {
	client       bedrockInvoker
	defaultModel string
}

var _ LLMProvider = (*BedrockClient)(nil)

// ClaudeRequest represents the request body for Claude models
type ClaudeRequest struct {
	AnthropicVersion string    `json:"anthropic_version"`
	MaxTokens        int       `json:"max_tokens"`
	Messages         []Message `json:"messages"`
	System           string    `json:"system,omitempty"`
	Temperature      float64   `json:"temperature"`
}

// ClaudeResponse represents the response from Claude models
type ClaudeResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// NewBedrockProvider creates a Bedrock client with credentials from the default AWS chain
func NewBedrockProvider(ctx context.Context, cfg *ProviderConfig) (LLMProvider, error) {
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, ErrAWSConfig(err)
	}

	defaultModel := cfg.Model
	if defaultModel == "" {
		defaultModel = BedrockModelMap[ModelBalanced]
	}

	return &BedrockClient{
		client:       bedrockruntime.NewFromConfig(awsCfg),
		defaultModel: defaultModel,
	}, nil
}

// Name returns the provider name
func (b *BedrockClient) Name() string {
	return "Bedrock"
}

// MapModel maps a canonical model name to a Bedrock model ID
func (b *BedrockClient) MapModel(canonical string) string {
	return MapModelGeneric(ProviderBedrock, canonical)
}

// DefaultModel returns the configured default model ID
func (b *BedrockClient) DefaultModel() string {
	return b.defaultModel
}

// Generate sends a prompt to a Claude model on Bedrock
func (b *BedrockClient) Generate(ctx context.Context, modelID, systemPrompt string, messages []Message, maxTokens int) (*GenerateResult, error) {
	if modelID == "" {
		modelID = b.defaultModel
	}
	if IsCanonicalModel(modelID) {
		modelID = b.MapModel(modelID)
	}

	request := ClaudeRequest{
		AnthropicVersion: "bedrock-2023-05-31",
		MaxTokens:        maxTokens,
		Messages:         messages,
		System:           systemPrompt,
	}

	requestBody, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	output, err := b.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(modelID),
		Body:        requestBody,
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return nil, ErrBedrockInvoke(err)
	}

	var response ClaudeResponse
	if err := json.Unmarshal(output.Body, &response); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	var text string
	for _, content := range response.Content {
		if content.Type == "text" {
			text += content.Text
		}
	}

	return &GenerateResult{
		Text:         text,
		InputTokens:  response.Usage.InputTokens,
		OutputTokens: response.Usage.OutputTokens,
	}, nil
}
