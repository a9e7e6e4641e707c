package main

import (
	"errors"
	"fmt"
	"slices"

	"github.com/go-playground/validator/v10"
)

// RiskLevel is the service's overall verdict; it is correlated with Score by
// the service and never recomputed here.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Severity tags a finding. It drives display color only, never ordering.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// Finding is a discrete, severity-tagged observation about a protocol
type Finding struct {
	ID          string   `json:"id" yaml:"id" validate:"required"`
	Title       string   `json:"title" yaml:"title" validate:"required"`
	Description string   `json:"description" yaml:"description"`
	Severity    Severity `json:"severity" yaml:"severity" validate:"oneof=critical warning info"`
}

// Recommendation is an actionable suggestion paired with an assessment
type Recommendation struct {
	ID          string `json:"id" yaml:"id" validate:"required"`
	Title       string `json:"title" yaml:"title" validate:"required"`
	Description string `json:"description" yaml:"description"`
}

// Metrics is the fixed-shape on-chain summary returned with an assessment.
// TVL and Age arrive pre-formatted from the service.
type Metrics struct {
	TVL          string `json:"tvl" yaml:"tvl"`
	Holders      int64  `json:"holders" yaml:"holders" validate:"gte=0"`
	Transactions int64  `json:"transactions" yaml:"transactions" validate:"gte=0"`
	Age          string `json:"age" yaml:"age"`
}

// RiskAssessment is the result payload of one analysis. Findings and
// Recommendations keep the order the service sent them in.
type RiskAssessment struct {
	Score           int              `json:"score" yaml:"score" validate:"gte=0,lte=100"`
	Level           RiskLevel        `json:"level" yaml:"level" validate:"oneof=low medium high"`
	Findings        []Finding        `json:"findings" yaml:"findings" validate:"unique=ID,dive"`
	Recommendations []Recommendation `json:"recommendations" yaml:"recommendations" validate:"unique=ID,dive"`
	Metrics         Metrics          `json:"metrics" yaml:"metrics"`
}

var assessmentValidate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks a decoded payload at the analysis-service trust boundary.
func (a *RiskAssessment) Validate() error {
	if a == nil {
		return errors.New("empty assessment")
	}
	err := assessmentValidate.Struct(a)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Errorf("field %s failed %q check (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
	}
	return err
}

// Clone returns a deep copy. Orchestrator.Complete stores a clone so the
// analyzer can't mutate a result held by the lifecycle.
func (a *RiskAssessment) Clone() *RiskAssessment {
	if a == nil {
		return nil
	}
	c := *a
	c.Findings = slices.Clone(a.Findings)
	c.Recommendations = slices.Clone(a.Recommendations)
	return &c
}
