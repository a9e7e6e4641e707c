package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
	"unicode/utf8"
)

// maxResponseBytes caps how much of a scoring response is read
const maxResponseBytes = 1 << 20

// HTTPAnalyzer calls a remote scoring service over JSON/HTTP
type HTTPAnalyzer struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

var _ Analyzer = (*HTTPAnalyzer)(nil)

// analysisRequest is the body POSTed to the scoring service
type analysisRequest struct {
	Protocol string `json:"protocol"`
}

// NewHTTPAnalyzer creates a client for the scoring service at endpoint
func NewHTTPAnalyzer(endpoint, apiKey string, timeout time.Duration) (*HTTPAnalyzer, error) {
	if endpoint == "" {
		return nil, newAnalysisError(AnalysisConfig, "http", errors.New("scoring endpoint required (set RISKSCOPE_ENDPOINT)"))
	}
	u, err := url.Parse(endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, newAnalysisError(AnalysisConfig, "http", fmt.Errorf("invalid scoring endpoint %q", endpoint))
	}

	return &HTTPAnalyzer{
		endpoint: endpoint,
		apiKey:   apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

func (h *HTTPAnalyzer) Name() string {
	return "http"
}

// Analyze posts the identifier and decodes the returned assessment
func (h *HTTPAnalyzer) Analyze(ctx context.Context, query ValidProtocolQuery) (*RiskAssessment, error) {
	result, err := h.analyze(ctx, query)
	return checkedResult(h.Name(), result, err)
}

func (h *HTTPAnalyzer) analyze(ctx context.Context, query ValidProtocolQuery) (*RiskAssessment, error) {
	body, err := json.Marshal(analysisRequest{Protocol: query.String()})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if h.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+h.apiKey)
	}

	resp, err := h.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &AnalysisError{
			Kind:    AnalysisStatus,
			Backend: h.Name(),
			Status:  resp.StatusCode,
			Err:     errors.New(truncate(string(respBody), 200)),
		}
	}

	var assessment RiskAssessment
	if err := json.Unmarshal(respBody, &assessment); err != nil {
		return nil, newAnalysisError(AnalysisDecode, h.Name(), fmt.Errorf("failed to parse response: %w", err))
	}
	return &assessment, nil
}

// truncate shortens s to at most n bytes for error messages, cutting on a
// rune boundary
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
