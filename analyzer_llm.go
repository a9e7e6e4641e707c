package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/charmbracelet/log"
)

// DefaultScoringMaxTokens bounds the scoring reply; a full report fits comfortably
const DefaultScoringMaxTokens = 2048

// LLMAnalyzer delegates scoring to an LLM provider
type LLMAnalyzer struct {
	provider  LLMProvider
	model     string
	maxTokens int
	guard     *LLMGuardClient
	logger    *log.Logger
}

var _ Analyzer = (*LLMAnalyzer)(nil)

// NewLLMAnalyzer creates an llm backend. model may be canonical (fast/balanced/deep),
// a provider model ID, or empty for the provider default.
func NewLLMAnalyzer(provider LLMProvider, model string, maxTokens int, guard *LLMGuardClient, logger *log.Logger) *LLMAnalyzer {
	if maxTokens <= 0 {
		maxTokens = DefaultScoringMaxTokens
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &LLMAnalyzer{
		provider:  provider,
		model:     model,
		maxTokens: maxTokens,
		guard:     guard,
		logger:    logger,
	}
}

func (a *LLMAnalyzer) Name() string {
	return "llm/" + strings.ToLower(a.provider.Name())
}

// Analyze scans the identifier, asks the model for a report and decodes it
func (a *LLMAnalyzer) Analyze(ctx context.Context, query ValidProtocolQuery) (*RiskAssessment, error) {
	result, err := a.analyze(ctx, query)
	return checkedResult(a.Name(), result, err)
}

func (a *LLMAnalyzer) analyze(ctx context.Context, query ValidProtocolQuery) (*RiskAssessment, error) {
	protocol := query.String()

	if a.guard.IsEnabled() {
		scan, err := a.guard.ScanPrompt(ctx, protocol)
		if err != nil {
			return nil, err
		}
		if !scan.IsValid {
			return nil, newAnalysisError(AnalysisGuardRejected, a.Name(), errors.New(FormatSecurityIssues(scan)))
		}
		if scan.SanitizedPrompt != "" {
			protocol = scan.SanitizedPrompt
		}
	}

	model := a.model
	if model == "" {
		model = a.provider.DefaultModel()
	}

	messages := []Message{{Role: "user", Content: scoringUserPrompt(protocol)}}
	res, err := a.provider.Generate(ctx, model, ScoringSystemPrompt, messages, a.maxTokens)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("scoring reply", "model", model, "input_tokens", res.InputTokens, "output_tokens", res.OutputTokens)

	raw := extractJSON(res.Text)
	if raw == "" {
		return nil, newAnalysisError(AnalysisDecode, a.Name(), fmt.Errorf("no JSON object in model reply: %s", truncate(res.Text, 120)))
	}

	var assessment RiskAssessment
	if err := json.Unmarshal([]byte(raw), &assessment); err != nil {
		return nil, newAnalysisError(AnalysisDecode, a.Name(), fmt.Errorf("failed to parse model reply: %w", err))
	}
	normalizeAssessment(&assessment)
	return &assessment, nil
}

var jsonFenceRe = regexp.MustCompile("(?s)```(?:json)?[ \t]*\n(.*?)\n?```")

// extractJSON pulls the JSON object out of a model reply: a fenced ```json block
// if present, otherwise the outermost {...} span.
func extractJSON(reply string) string {
	reply = strings.ReplaceAll(reply, "\r\n", "\n")

	if m := jsonFenceRe.FindStringSubmatch(reply); len(m) >= 2 {
		reply = m[1]
	}

	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end <= start {
		return ""
	}
	return strings.TrimSpace(reply[start : end+1])
}

// normalizeAssessment lower-cases the enum fields models tend to capitalize
// and strips markdown the terminal would print literally.
func normalizeAssessment(a *RiskAssessment) {
	a.Level = RiskLevel(strings.ToLower(strings.TrimSpace(string(a.Level))))
	for i := range a.Findings {
		f := &a.Findings[i]
		f.Severity = Severity(strings.ToLower(strings.TrimSpace(string(f.Severity))))
		f.Title = stripMarkdown(f.Title)
		f.Description = stripMarkdown(f.Description)
	}
	for i := range a.Recommendations {
		r := &a.Recommendations[i]
		r.Title = stripMarkdown(r.Title)
		r.Description = stripMarkdown(r.Description)
	}
}
