package errors

import (
	"errors"
	"fmt"
)

var (
	// Payment errors
	ErrPaymentNotFound        = errors.New("payment not found")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrInvalidAmount          = errors.New("invalid amount")
	ErrRefundExceedsAmount    = errors.New("refund amount exceeds original amount")

	// Provider errors
	ErrProviderNotFound     = errors.New("payment provider not found")
	ErrProviderNotSupported = errors.New("provider not supported in country")
	ErrProviderUnavailable  = errors.New("payment provider unavailable")
	ErrProviderRejected     = errors.New("payment rejected by provider")
	ErrProviderTimeout      = errors.New("provider request timeout")
	ErrProviderMismatch     = errors.New("request routed to wrong provider adapter")
	ErrTransactionUnknown   = errors.New("transaction unknown to provider")

	// Settings errors
	ErrSettingNotFound = errors.New("setting not found")

	// Validation errors
	ErrValidationFailed = errors.New("validation failed")
	ErrInvalidInput     = errors.New("invalid input")
)

// DomainError wraps errors with additional context
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}
