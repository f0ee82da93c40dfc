package model

import (
	"errors"
	"fmt"
)

// Input error kinds. Callers match them with errors.Is.
var (
	ErrInvalidSubject  = errors.New("invalid subject")
	ErrUnknownCategory = errors.New("unknown category")
	ErrInvalidRequest  = errors.New("invalid request")
)

// ValidationError reports which input field was rejected and why
type ValidationError struct {
	Kind   error
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%v: %s", e.Kind, e.Reason)
	}
	return fmt.Sprintf("%v: %s: %s", e.Kind, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return e.Kind
}

// InvalidSubject builds an ErrInvalidSubject error for field
func InvalidSubject(field, reason string) error {
	return &ValidationError{Kind: ErrInvalidSubject, Field: field, Reason: reason}
}

// UnknownCategory builds an ErrUnknownCategory error for category
func UnknownCategory(category string) error {
	return &ValidationError{Kind: ErrUnknownCategory, Field: "category", Reason: fmt.Sprintf("no regional average configured for %q", category)}
}

// InvalidRequest builds an ErrInvalidRequest error for field
func InvalidRequest(field, reason string) error {
	return &ValidationError{Kind: ErrInvalidRequest, Field: field, Reason: reason}
}

// IsInputError reports whether err is one of the caller-input error kinds
func IsInputError(err error) bool {
	return errors.Is(err, ErrInvalidSubject) || errors.Is(err, ErrUnknownCategory) || errors.Is(err, ErrInvalidRequest)
}
