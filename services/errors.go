package services

import (
	"errors"
	"fmt"
)

// ErrorType represents the type/category of error
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeRetrieval  ErrorType = "retrieval"
	ErrorTypeTool       ErrorType = "tool"
	ErrorTypeProvider   ErrorType = "provider"
	ErrorTypeInternal   ErrorType = "internal"
)

// DomainError represents a structured error with additional context
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
	Details map[string]interface{}
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// WithDetail adds a detail to the error
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// NewDomainError creates a new domain error
func NewDomainError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
		Details: make(map[string]interface{}),
	}
}

// IsValidationError reports whether err is a validation domain error
func IsValidationError(err error) bool {
	return isErrorType(err, ErrorTypeValidation)
}

// IsNotFoundError reports whether err is a not-found domain error
func IsNotFoundError(err error) bool {
	return isErrorType(err, ErrorTypeNotFound)
}

// IsRetrievalError reports whether err is a retrieval domain error
func IsRetrievalError(err error) bool {
	return isErrorType(err, ErrorTypeRetrieval)
}

func isErrorType(err error, t ErrorType) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == t
	}
	return false
}

// GetErrorDetails extracts the details map from a domain error, if any
func GetErrorDetails(err error) map[string]interface{} {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Details
	}
	return nil
}

// Domain error variables

var (
	// Validation errors
	ErrEmptyQuery        = NewDomainError(ErrorTypeValidation, "query cannot be empty", nil)
	ErrEmptyConversation = NewDomainError(ErrorTypeValidation, "conversation id cannot be empty", nil)

	// Retrieval errors
	ErrEmbeddingFailed = NewDomainError(ErrorTypeRetrieval, "failed to embed query", nil)
	ErrIndexSearch     = NewDomainError(ErrorTypeRetrieval, "vector index search failed", nil)

	// Tool errors
	ErrToolNotFound      = NewDomainError(ErrorTypeNotFound, "tool not found", nil)
	ErrToolInvalidSchema = NewDomainError(ErrorTypeValidation, "invalid tool schema", nil)

	// Provider errors
	ErrProviderUnavailable = NewDomainError(ErrorTypeProvider, "generation provider unavailable", nil)
)
