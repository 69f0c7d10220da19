package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewDomainError(t *testing.T) {
	baseErr := errors.New("base error")
	domainErr := NewDomainError(ErrorTypeRetrieval, "index unavailable", baseErr)

	assert.Equal(t, ErrorTypeRetrieval, domainErr.Type)
	assert.Equal(t, "index unavailable", domainErr.Message)
	assert.Equal(t, baseErr, domainErr.Err)
	assert.NotNil(t, domainErr.Details)
}

func TestDomainError_Error(t *testing.T) {
	tests := []struct {
		name    string
		err     *DomainError
		wantMsg string
	}{
		{
			name: "error with wrapped error",
			err: &DomainError{
				Type:    ErrorTypeRetrieval,
				Message: "vector index search failed",
				Err:     errors.New("connection refused"),
			},
			wantMsg: "retrieval: vector index search failed (connection refused)",
		},
		{
			name: "error without wrapped error",
			err: &DomainError{
				Type:    ErrorTypeValidation,
				Message: "query cannot be empty",
			},
			wantMsg: "validation: query cannot be empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMsg, tt.err.Error())
		})
	}
}

func TestDomainError_Unwrap(t *testing.T) {
	baseErr := errors.New("base error")
	domainErr := NewDomainError(ErrorTypeInternal, "internal error", baseErr)

	assert.Equal(t, baseErr, errors.Unwrap(domainErr))
}

func TestDomainError_Is(t *testing.T) {
	err := NewDomainError(ErrorTypeRetrieval, "embed timed out", nil)

	assert.ErrorIs(t, err, ErrEmbeddingFailed)   // same type
	assert.NotErrorIs(t, err, ErrToolNotFound)   // different type
	assert.NotErrorIs(t, err, errors.New("x"))   // not a DomainError
}

func TestDomainError_WithDetail(t *testing.T) {
	err := NewDomainError(ErrorTypeTool, "invalid arguments", nil).
		WithDetail("tool", "find_hospitals").
		WithDetail("missing", "location")

	assert.Equal(t, "find_hospitals", err.Details["tool"])
	assert.Equal(t, "location", err.Details["missing"])
}
