package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
)

// BackendType selects which analysis service the orchestrator talks to
type BackendType string

const (
	BackendSimulated BackendType = "simulated"
	BackendHTTP      BackendType = "http"
	BackendLLM       BackendType = "llm"
)

// Analyzer abstracts the external scoring service. One call per request;
// the orchestrator guarantees at most one call in flight.
type Analyzer interface {
	// Analyze scores a validated protocol identifier
	Analyze(ctx context.Context, query ValidProtocolQuery) (*RiskAssessment, error)

	// Name returns the backend name for display
	Name() string
}

// ParseBackendType converts a string to BackendType
func ParseBackendType(s string) BackendType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "http", "https", "service":
		return BackendHTTP
	case "llm", "ai":
		return BackendLLM
	default:
		return BackendSimulated
	}
}

// NewAnalyzer creates the analysis client named by the configuration
func NewAnalyzer(ctx context.Context, cfg *Config, logger *log.Logger) (Analyzer, error) {
	switch cfg.Backend {
	case BackendSimulated:
		return NewSimulatedAnalyzer(cfg.Delay), nil
	case BackendHTTP:
		return NewHTTPAnalyzer(cfg.Endpoint, cfg.APIKey, cfg.Timeout)
	case BackendLLM:
		pcfg := cfg.GetProviderConfig()
		provider, err := NewProvider(ctx, pcfg)
		if err != nil {
			return nil, err
		}
		if logger != nil {
			logger.Debug("llm backend", "provider", providerDisplayName(cfg.Provider), "model", pcfg.Model, "guard", cfg.GuardURL != "")
		}
		return NewLLMAnalyzer(provider, cfg.Model, cfg.MaxTokens, NewLLMGuardClient(cfg.GuardURL, cfg.GuardToken), logger), nil
	default:
		return nil, fmt.Errorf("unknown analysis backend: %s", cfg.Backend)
	}
}

// checkedResult applies the trust-boundary checks shared by every backend and
// normalizes failures into *AnalysisError.
func checkedResult(backend string, result *RiskAssessment, err error) (*RiskAssessment, error) {
	if err != nil {
		var aerr *AnalysisError
		if errors.As(err, &aerr) {
			return nil, aerr
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, newAnalysisError(AnalysisCanceled, backend, err)
		}
		return nil, newAnalysisError(AnalysisTransport, backend, err)
	}
	if verr := result.Validate(); verr != nil {
		return nil, newAnalysisError(AnalysisInvalid, backend, verr)
	}
	return result, nil
}
