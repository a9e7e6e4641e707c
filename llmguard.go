package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"
)

// LLMGuardClient handles communication with llm-guard API for prompt scanning.
// The protocol identifier is user text that ends up inside an LLM prompt, so
// the llm backend scans it first when a guard URL is configured.
// See: https://github.com/protectai/llm-guard
type LLMGuardClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
	enabled    bool
}

// LLMGuardScanRequest is the request format for /scan/prompt
type LLMGuardScanRequest struct {
	Prompt string `json:"prompt,omitempty"`
}

// LLMGuardScanResponse is the response from scanning endpoints
type LLMGuardScanResponse struct {
	IsValid         bool                   `json:"is_valid"`
	SanitizedPrompt string                 `json:"sanitized_prompt,omitempty"`
	Results         map[string]GuardResult `json:"results"`
}

// GuardResult represents a single scanner result
type GuardResult struct {
	Score   float64 `json:"score"`
	IsValid bool    `json:"is_valid"`
	Risk    string  `json:"risk,omitempty"`
}

// NewLLMGuardClient creates a new llm-guard client; an empty URL disables scanning
func NewLLMGuardClient(url, token string) *LLMGuardClient {
	if url == "" {
		return &LLMGuardClient{enabled: false}
	}

	return &LLMGuardClient{
		baseURL: strings.TrimRight(url, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		enabled: true,
	}
}

// IsEnabled returns whether llm-guard is configured
func (c *LLMGuardClient) IsEnabled() bool {
	return c != nil && c.enabled
}

// ScanPrompt scans user input for prompt injection, secrets, and toxicity
func (c *LLMGuardClient) ScanPrompt(ctx context.Context, prompt string) (*LLMGuardScanResponse, error) {
	if !c.IsEnabled() {
		return &LLMGuardScanResponse{IsValid: true, SanitizedPrompt: prompt}, nil
	}

	body, err := json.Marshal(LLMGuardScanRequest{Prompt: prompt})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/scan/prompt", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("llm-guard request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("llm-guard returned status %d", resp.StatusCode)
	}

	var result LLMGuardScanResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return &result, nil
}

// FormatSecurityIssues formats failing scanners as a single line, sorted by name
func FormatSecurityIssues(resp *LLMGuardScanResponse) string {
	if resp == nil || resp.IsValid {
		return ""
	}

	var issues []string
	for scanner, result := range resp.Results {
		if !result.IsValid {
			issue := fmt.Sprintf("%s score=%.2f", scanner, result.Score)
			if result.Risk != "" {
				issue += fmt.Sprintf(" (%s)", result.Risk)
			}
			issues = append(issues, issue)
		}
	}
	sort.Strings(issues)

	if len(issues) == 0 {
		return "prompt scan rejected input"
	}
	return "prompt scan rejected input: " + strings.Join(issues, ", ")
}
