package main

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReferenceAssessmentIsValid(t *testing.T) {
	require.NoError(t, ReferenceAssessment().Validate())
}

func TestRiskAssessmentValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(a *RiskAssessment)
	}{
		{"score above range", func(a *RiskAssessment) { a.Score = 101 }},
		{"negative score", func(a *RiskAssessment) { a.Score = -1 }},
		{"unknown level", func(a *RiskAssessment) { a.Level = "extreme" }},
		{"unknown severity", func(a *RiskAssessment) { a.Findings[1].Severity = "fatal" }},
		{"finding without id", func(a *RiskAssessment) { a.Findings[0].ID = "" }},
		{"finding without title", func(a *RiskAssessment) { a.Findings[2].Title = "" }},
		{"duplicate finding ids", func(a *RiskAssessment) { a.Findings[1].ID = a.Findings[0].ID }},
		{"duplicate recommendation ids", func(a *RiskAssessment) { a.Recommendations[2].ID = "1" }},
		{"recommendation without title", func(a *RiskAssessment) { a.Recommendations[0].Title = "" }},
		{"negative holders", func(a *RiskAssessment) { a.Metrics.Holders = -5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := ReferenceAssessment()
			tt.mutate(a)
			assert.Error(t, a.Validate())
		})
	}

	t.Run("boundaries accepted", func(t *testing.T) {
		for _, score := range []int{0, 100} {
			a := ReferenceAssessment()
			a.Score = score
			assert.NoError(t, a.Validate(), "score %d", score)
		}
	})

	t.Run("empty lists accepted", func(t *testing.T) {
		a := ReferenceAssessment()
		a.Findings = nil
		a.Recommendations = []Recommendation{}
		assert.NoError(t, a.Validate())
	})

	t.Run("same id across lists accepted", func(t *testing.T) {
		a := ReferenceAssessment()
		require.Equal(t, a.Findings[0].ID, a.Recommendations[0].ID)
		assert.NoError(t, a.Validate())
	})

	t.Run("score and level not cross-checked", func(t *testing.T) {
		a := ReferenceAssessment()
		a.Score = 5
		a.Level = RiskHigh
		assert.NoError(t, a.Validate())
	})

	t.Run("nil assessment", func(t *testing.T) {
		var a *RiskAssessment
		assert.Error(t, a.Validate())
	})
}

func TestRiskAssessmentJSON(t *testing.T) {
	payload := `{
		"score": 42,
		"level": "low",
		"findings": [{"id": "f1", "title": "Oracle", "description": "Single oracle", "severity": "warning"}],
		"recommendations": [{"id": "r1", "title": "Diversify", "description": "Add a fallback oracle"}],
		"metrics": {"tvl": "$1.1B", "holders": 350000, "transactions": 9000000, "age": "3 years"}
	}`

	var a RiskAssessment
	require.NoError(t, json.Unmarshal([]byte(payload), &a))
	require.NoError(t, a.Validate())

	assert.Equal(t, 42, a.Score)
	assert.Equal(t, RiskLow, a.Level)
	assert.Equal(t, SeverityWarning, a.Findings[0].Severity)
	assert.Equal(t, int64(9000000), a.Metrics.Transactions)
	assert.Equal(t, "$1.1B", a.Metrics.TVL)
}

func TestRiskAssessmentClone(t *testing.T) {
	a := ReferenceAssessment()
	c := a.Clone()
	require.Equal(t, a, c)

	c.Findings[0].Title = "changed"
	c.Recommendations[0].Title = "changed"
	assert.NotEqual(t, a.Findings[0].Title, c.Findings[0].Title)
	assert.NotEqual(t, a.Recommendations[0].Title, c.Recommendations[0].Title)

	var nilA *RiskAssessment
	assert.Nil(t, nilA.Clone())
}
