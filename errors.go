package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// UserError represents an error that should be displayed to the user with helpful context
type UserError struct {
	Message    string
	Cause      error
	Suggestion string
}

func (e *UserError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *UserError) Unwrap() error {
	return e.Cause
}

// Sentinel validation failures
var (
	ErrEmptyQuery   = errors.New("protocol identifier is empty")
	ErrQueryTooLong = errors.New("protocol identifier is too long")
	ErrQueryInvalid = errors.New("protocol identifier contains invalid characters")
)

// ValidationError is returned when a protocol identifier is refused before any
// request is issued. It never reaches the lifecycle state machine.
type ValidationError struct {
	Input string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid protocol identifier %q: %v", e.Input, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// AnalysisErrorKind classifies analysis failures for display and logging
type AnalysisErrorKind string

const (
	AnalysisTransport     AnalysisErrorKind = "transport"
	AnalysisStatus        AnalysisErrorKind = "status"
	AnalysisDecode        AnalysisErrorKind = "decode"
	AnalysisInvalid       AnalysisErrorKind = "invalid_payload"
	AnalysisCanceled      AnalysisErrorKind = "canceled"
	AnalysisGuardRejected AnalysisErrorKind = "guard_rejected"
	AnalysisConfig        AnalysisErrorKind = "config"
)

// AnalysisError is a failure of the external analysis service. It surfaces as
// the Failure lifecycle state and is never retried automatically.
type AnalysisError struct {
	Kind    AnalysisErrorKind
	Backend string
	Status  int // HTTP status for AnalysisStatus, 0 otherwise
	Err     error
}

func (e *AnalysisError) Error() string {
	var sb strings.Builder
	sb.WriteString("analysis failed")
	if e.Backend != "" {
		sb.WriteString(" (" + e.Backend + ")")
	}
	if e.Status != 0 {
		sb.WriteString(fmt.Sprintf(": status %d", e.Status))
	}
	if e.Err != nil {
		sb.WriteString(": " + e.Err.Error())
	}
	return sb.String()
}

func (e *AnalysisError) Unwrap() error {
	return e.Err
}

func newAnalysisError(kind AnalysisErrorKind, backend string, err error) *AnalysisError {
	return &AnalysisError{Kind: kind, Backend: backend, Err: err}
}

var (
	errorLabel      = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	suggestionLabel = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
)

// FormatUserError formats an error for user display with colors and suggestions
func FormatUserError(err error) string {
	var sb strings.Builder

	var userErr *UserError
	if errors.As(err, &userErr) {
		sb.WriteString(fmt.Sprintf("%s %s\n", errorLabel.Render("Error:"), userErr.Message))
		if userErr.Cause != nil {
			sb.WriteString(fmt.Sprintf("       Cause: %v\n", userErr.Cause))
		}
		if userErr.Suggestion != "" {
			sb.WriteString(fmt.Sprintf("\n%s %s\n", suggestionLabel.Render("Suggestion:"), userErr.Suggestion))
		}
		return sb.String()
	}

	errStr := err.Error()
	sb.WriteString(fmt.Sprintf("%s %s\n", errorLabel.Render("Error:"), errStr))
	if suggestion := getSuggestionForError(err); suggestion != "" {
		sb.WriteString(fmt.Sprintf("\n%s %s\n", suggestionLabel.Render("Suggestion:"), suggestion))
	}

	return sb.String()
}

// getSuggestionForError returns a helpful suggestion based on the error type or content
func getSuggestionForError(err error) string {
	if errors.Is(err, ErrEmptyQuery) {
		return "Enter a protocol name or contract address, e.g. 'uniswap-v3'."
	}
	if errors.Is(err, ErrQueryTooLong) {
		return "Protocol identifiers are limited to 256 characters."
	}

	var aerr *AnalysisError
	if errors.As(err, &aerr) {
		switch aerr.Kind {
		case AnalysisStatus:
			if aerr.Status == 401 || aerr.Status == 403 {
				return "The scoring service rejected the credentials. Set RISKSCOPE_API_KEY."
			}
			if aerr.Status == 429 {
				return "You're being rate-limited. Wait a moment and resubmit."
			}
		case AnalysisInvalid, AnalysisDecode:
			return "The scoring service returned an unexpected report. Check RISKSCOPE_ENDPOINT points at a compatible service."
		case AnalysisGuardRejected:
			return "The identifier was flagged by the prompt scanner. Use a plain protocol name or address."
		case AnalysisConfig:
			return "Check the analysis section of ~/.riskscope/settings.yaml."
		}
	}

	errLower := strings.ToLower(err.Error())

	// AWS/Bedrock related errors
	if strings.Contains(errLower, "no valid credential") ||
		strings.Contains(errLower, "unable to sign request") ||
		strings.Contains(errLower, "security token") {
		return "Check your AWS credentials. Run 'aws configure' or set AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY environment variables."
	}

	if strings.Contains(errLower, "access denied") ||
		strings.Contains(errLower, "not authorized") {
		return "Your AWS credentials may not have permission to access Bedrock. Check IAM policies for bedrock:InvokeModel permission."
	}

	if strings.Contains(errLower, "throttl") {
		return "You're being rate-limited. Wait a moment and try again, or check your Bedrock service quotas."
	}

	if strings.Contains(errLower, "timeout") || strings.Contains(errLower, "deadline exceeded") {
		return "The scoring service did not answer in time. Resubmit, or raise analysis.timeout in settings."
	}

	if strings.Contains(errLower, "connection refused") ||
		strings.Contains(errLower, "network") ||
		strings.Contains(errLower, "no such host") {
		return "Check your network connection. You may be offline or behind a firewall."
	}

	return ""
}

// Common error constructors

// ErrAWSConfig creates an error for AWS configuration issues
func ErrAWSConfig(cause error) *UserError {
	return &UserError{
		Message: "Failed to initialize AWS configuration",
		Cause:   cause,
		Suggestion: `Check your AWS credentials:
       1. Run 'aws configure' to set up credentials
       2. Or set environment variables:
          export AWS_ACCESS_KEY_ID=your_key
          export AWS_SECRET_ACCESS_KEY=your_secret
          export AWS_REGION=us-east-1`,
	}
}

// ErrBedrockInvoke creates an error for Bedrock API issues
func ErrBedrockInvoke(cause error) *UserError {
	return &UserError{
		Message: "Failed to call Bedrock API",
		Cause:   cause,
		Suggestion: `Possible issues:
       1. Check AWS credentials and region
       2. Verify Bedrock access is enabled in your AWS account
       3. Check IAM permissions for bedrock:InvokeModel
       4. Try a different model with RISKSCOPE_MODEL`,
	}
}

// ErrNotATerminal creates an error for running the TUI without a TTY
func ErrNotATerminal() *UserError {
	return &UserError{
		Message:    "The interactive view requires a terminal",
		Suggestion: "Use 'riskscope analyze <protocol>' for non-interactive output.",
	}
}
