package main

import (
	"context"
	"time"
)

// DefaultSimulatedDelay mirrors the latency of the hosted scoring service
const DefaultSimulatedDelay = 2 * time.Second

// SimulatedAnalyzer stands in for the scoring service: it waits a fixed delay
// and returns the reference assessment regardless of the identifier.
type SimulatedAnalyzer struct {
	delay time.Duration
}

var _ Analyzer = (*SimulatedAnalyzer)(nil)

// NewSimulatedAnalyzer creates a simulated backend; a zero delay resolves immediately
func NewSimulatedAnalyzer(delay time.Duration) *SimulatedAnalyzer {
	if delay < 0 {
		delay = 0
	}
	return &SimulatedAnalyzer{delay: delay}
}

func (s *SimulatedAnalyzer) Name() string {
	return "simulated"
}

func (s *SimulatedAnalyzer) Analyze(ctx context.Context, _ ValidProtocolQuery) (*RiskAssessment, error) {
	if s.delay > 0 {
		timer := time.NewTimer(s.delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return checkedResult(s.Name(), nil, ctx.Err())
		}
	}
	return checkedResult(s.Name(), ReferenceAssessment(), nil)
}

// ReferenceAssessment is the canned report the simulated backend resolves with
func ReferenceAssessment() *RiskAssessment {
	return &RiskAssessment{
		Score: 85,
		Level: RiskMedium,
		Findings: []Finding{
			{
				ID:          "1",
				Title:       "Smart Contract Audit Status",
				Description: "The protocol has not undergone a complete security audit by a reputable firm.",
				Severity:    SeverityCritical,
			},
			{
				ID:          "2",
				Title:       "Token Economics",
				Description: "Complex tokenomics with potential inflation risks and unclear vesting schedules.",
				Severity:    SeverityWarning,
			},
			{
				ID:          "3",
				Title:       "Governance Structure",
				Description: "Decentralized governance implementation needs review for potential centralization risks.",
				Severity:    SeverityInfo,
			},
		},
		Recommendations: []Recommendation{
			{
				ID:          "1",
				Title:       "Wait for Audit Completion",
				Description: "Hold off on large investments until a complete security audit is performed and published.",
			},
			{
				ID:          "2",
				Title:       "Review Documentation",
				Description: "Thoroughly examine the whitepaper, focusing on tokenomics and vesting schedules.",
			},
			{
				ID:          "3",
				Title:       "Start Small",
				Description: "Begin with minimal test transactions to understand protocol behavior.",
			},
		},
		Metrics: Metrics{
			TVL:          "$5.2M",
			Holders:      12500,
			Transactions: 45000,
			Age:          "6 months",
		},
	}
}
