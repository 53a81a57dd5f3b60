// Package errors provides the standardized error taxonomy shared by the HTTP handlers.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"

	ErrCodeGenerationFailed  ErrorCode = "GENERATION_FAILED"
	ErrCodeGenerationTimeout ErrorCode = "GENERATION_TIMEOUT"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeQueryTimeout             ErrorCode = "QUERY_TIMEOUT"

	ErrCodeSearchQueryFailed ErrorCode = "SEARCH_QUERY_FAILED"
	ErrCodeSearchTimeout     ErrorCode = "SEARCH_TIMEOUT"
	ErrCodeIndexNotFound     ErrorCode = "INDEX_NOT_FOUND"

	ErrCodeCacheUnavailable ErrorCode = "CACHE_UNAVAILABLE"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

func newError(code ErrorCode, message, details string, retryable bool, cause error) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

func NewInvalidInputError(details string) *StandardError {
	return newError(ErrCodeInvalidInput, "Missing required fields", details, false, nil)
}

func NewInvalidParameterError(details string) *StandardError {
	return newError(ErrCodeInvalidInput, "Invalid request parameters", details, false, nil)
}

func NewGenerationFailedError(err error) *StandardError {
	return newError(ErrCodeGenerationFailed, "Failed to generate AI response", err.Error(), true, err)
}

func NewGenerationTimeoutError(err error) *StandardError {
	return newError(ErrCodeGenerationTimeout, "Failed to generate AI response", err.Error(), true, err)
}

func NewDatabaseConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseConnectionFailed, "Database connection error", err.Error(), true, err)
}

func NewQueryExecutionFailedError(queryType string, err error) *StandardError {
	return newError(ErrCodeQueryExecutionFailed, "Database query execution error",
		fmt.Sprintf("queryType: %s, error: %s", queryType, err.Error()), true, err)
}

func NewQueryTimeoutError(queryType string) *StandardError {
	return newError(ErrCodeQueryTimeout, "Database query timeout",
		fmt.Sprintf("queryType: %s", queryType), true, nil)
}

func NewSearchQueryFailedError(queryType string, err error) *StandardError {
	return newError(ErrCodeSearchQueryFailed, "Search query error",
		fmt.Sprintf("queryType: %s, error: %s", queryType, err.Error()), true, err)
}

func NewSearchTimeoutError(queryType string) *StandardError {
	return newError(ErrCodeSearchTimeout, "Search query timeout",
		fmt.Sprintf("queryType: %s", queryType), true, nil)
}

func NewIndexNotFoundError(indexName string) *StandardError {
	return newError(ErrCodeIndexNotFound, "Search index not found",
		fmt.Sprintf("indexName: %s", indexName), false, nil)
}

func NewCacheUnavailableError(err error) *StandardError {
	return newError(ErrCodeCacheUnavailable, "Cache unavailable", err.Error(), true, err)
}

// Normalize returns err as a *StandardError, wrapping unknown errors as INTERNAL_ERROR.
func Normalize(err error) *StandardError {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return newError(ErrCodeInternal, "Unexpected error", err.Error(), false, err)
}

// HTTPStatusFor maps an error code to the status the API responds with.
func HTTPStatusFor(code ErrorCode) int {
	switch code {
	case ErrCodeInvalidInput:
		return http.StatusBadRequest
	case ErrCodeIndexNotFound:
		return http.StatusNotFound
	case ErrCodeSearchQueryFailed:
		return http.StatusBadGateway
	case ErrCodeGenerationTimeout, ErrCodeQueryTimeout, ErrCodeSearchTimeout:
		return http.StatusGatewayTimeout
	case ErrCodeDatabaseConnectionFailed, ErrCodeCacheUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func IsRetryableErrorCode(code ErrorCode) bool {
	switch code {
	case ErrCodeGenerationFailed,
		ErrCodeGenerationTimeout,
		ErrCodeDatabaseConnectionFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeQueryTimeout,
		ErrCodeSearchQueryFailed,
		ErrCodeSearchTimeout,
		ErrCodeCacheUnavailable:
		return true
	default:
		return false
	}
}

func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "GENERATION"):
		return "AI"
	case strings.Contains(codeStr, "SEARCH") || strings.Contains(codeStr, "INDEX"):
		return "SEARCH"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY_"):
		return "DATABASE"
	case strings.Contains(codeStr, "CACHE"):
		return "CACHE"
	case strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}

// ErrorResponse is the JSON body written for a failed API call.
type ErrorResponse struct {
	Error     string    `json:"error"`
	Code      ErrorCode `json:"code"`
	Details   string    `json:"details,omitempty"`
	Retryable bool      `json:"retryable"`
}

// ToResponse renders e for clients. Details are only exposed for input errors.
func (e *StandardError) ToResponse() ErrorResponse {
	resp := ErrorResponse{Error: e.Message, Code: e.Code, Retryable: IsRetryableErrorCode(e.Code)}
	if e.Code == ErrCodeInvalidInput {
		resp.Details = e.Details
	}
	return resp
}
