// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrNotConfigured     = errors.New("llm not configured")
	ErrMissingSymbol     = errors.New("no symbol identified")
	ErrUnsupportedAction = errors.New("unsupported action")
	ErrNoData            = errors.New("no data returned")
	ErrConfigInvalid     = errors.New("invalid configuration")
)

// ParseError represents a failure to interpret LLM output as a structured request.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse error: %v", e.Err)
	}
	return "parse error: malformed intent"
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError creates a new ParseError.
func NewParseError(raw string, err error) *ParseError {
	return &ParseError{Raw: raw, Err: err}
}

// UnsupportedActionError reports an action outside the closed set. It
// matches ErrUnsupportedAction under errors.Is.
type UnsupportedActionError struct {
	Action string
}

func (e *UnsupportedActionError) Error() string {
	return fmt.Sprintf("unsupported action: %q", e.Action)
}

func (e *UnsupportedActionError) Is(target error) bool {
	return target == ErrUnsupportedAction
}

// NewUnsupportedActionError creates a new UnsupportedActionError.
func NewUnsupportedActionError(action string) *UnsupportedActionError {
	return &UnsupportedActionError{Action: action}
}

// ProviderError represents a failure from an external capability (market data or LLM).
type ProviderError struct {
	Provider  string
	Operation string
	Symbol    string
	Err       error
}

func (e *ProviderError) Error() string {
	if e.Symbol != "" {
		return fmt.Sprintf("provider error [%s] %s %s: %v", e.Provider, e.Operation, e.Symbol, e.Err)
	}
	return fmt.Sprintf("provider error [%s] %s: %v", e.Provider, e.Operation, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError creates a new ProviderError.
func NewProviderError(provider, operation, symbol string, err error) *ProviderError {
	return &ProviderError{
		Provider:  provider,
		Operation: operation,
		Symbol:    symbol,
		Err:       err,
	}
}

// ValidationError represents a validation error on a structured request.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s (%v): %s", e.Field, e.Value, e.Message)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
