package main

import (
	"errors"
	"strconv"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// MaxQueryLength is the longest protocol identifier accepted, in characters
const MaxQueryLength = 256

// ProtocolQuery is the raw identifier as typed by the user
type ProtocolQuery string

// ValidProtocolQuery is a trimmed identifier that passed ValidateQuery.
// Only ValidateQuery constructs one.
type ValidProtocolQuery struct {
	value string
}

func (q ValidProtocolQuery) String() string {
	return q.value
}

// IsZero reports whether q was never validated
func (q ValidProtocolQuery) IsZero() bool {
	return q.value == ""
}

var queryValidate *validator.Validate

func init() {
	queryValidate = validator.New()
	_ = queryValidate.RegisterValidation("printable", validatePrintable)
}

// validatePrintable rejects control characters such as pasted newlines or
// terminal escape sequences.
func validatePrintable(fl validator.FieldLevel) bool {
	for _, r := range fl.Field().String() {
		if !unicode.IsPrint(r) {
			return false
		}
	}
	return true
}

// ValidateQuery normalizes raw and decides whether it may initiate a request.
func ValidateQuery(raw ProtocolQuery) (ValidProtocolQuery, error) {
	trimmed := strings.TrimSpace(string(raw))

	err := queryValidate.Var(trimmed, "required,max="+strconv.Itoa(MaxQueryLength)+",printable")
	if err == nil {
		return ValidProtocolQuery{value: trimmed}, nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return ValidProtocolQuery{}, &ValidationError{Input: string(raw), Err: err}
	}

	var cause error
	switch verrs[0].Tag() {
	case "required":
		cause = ErrEmptyQuery
	case "max":
		cause = ErrQueryTooLong
	default:
		cause = ErrQueryInvalid
	}
	return ValidProtocolQuery{}, &ValidationError{Input: string(raw), Err: cause}
}
