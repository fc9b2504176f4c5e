package llm

import (
	"context"
	"errors"
	"fmt"
)

// Common errors returned by providers.
var (
	// ErrEmptyAPIKey indicates that an API key was required but not provided.
	ErrEmptyAPIKey = errors.New("API key cannot be empty")
	// ErrEmptyResponse indicates that the model returned no text.
	ErrEmptyResponse = errors.New("empty response from model")
)

// ErrorType classifies provider failures.
type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	ErrorTypeAuthentication
	ErrorTypeRateLimit
	ErrorTypeBadRequest
	ErrorTypeNotFound
	ErrorTypeServerError
	ErrorTypeContentPolicy
	ErrorTypeNetwork
	ErrorTypeTimeout
	ErrorTypeEmptyResponse
)

func (t ErrorType) String() string {
	switch t {
	case ErrorTypeAuthentication:
		return "authentication"
	case ErrorTypeRateLimit:
		return "rate_limit"
	case ErrorTypeBadRequest:
		return "bad_request"
	case ErrorTypeNotFound:
		return "not_found"
	case ErrorTypeServerError:
		return "server_error"
	case ErrorTypeContentPolicy:
		return "content_policy"
	case ErrorTypeNetwork:
		return "network"
	case ErrorTypeTimeout:
		return "timeout"
	case ErrorTypeEmptyResponse:
		return "empty_response"
	default:
		return "unknown"
	}
}

// ProviderError is a normalized failure from any provider.
type ProviderError struct {
	Type         ErrorType
	Provider     string
	StatusCode   int
	Message      string
	WrappedError error
}

func (e *ProviderError) Error() string {
	base := fmt.Sprintf("%s error", e.Provider)
	if e.StatusCode > 0 {
		base += fmt.Sprintf(" (HTTP %d)", e.StatusCode)
	}
	if e.Type != ErrorTypeUnknown {
		base += fmt.Sprintf(" [%s]", e.Type)
	}
	if e.Message != "" {
		base += ": " + e.Message
	}
	if e.WrappedError != nil && e.WrappedError.Error() != e.Message {
		base += fmt.Sprintf(": %v", e.WrappedError)
	}
	return base
}

func (e *ProviderError) Unwrap() error {
	return e.WrappedError
}

// IsRetryable reports whether a later attempt could succeed.
func (e *ProviderError) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeRateLimit, ErrorTypeServerError, ErrorTypeNetwork, ErrorTypeTimeout:
		return true
	default:
		return false
	}
}

// NewProviderError creates a new ProviderError.
func NewProviderError(provider string, errType ErrorType, statusCode int, message string, wrapped error) *ProviderError {
	return &ProviderError{
		Type:         errType,
		Provider:     provider,
		StatusCode:   statusCode,
		Message:      message,
		WrappedError: wrapped,
	}
}

// IsRetryable reports whether err is a retryable ProviderError.
func IsRetryable(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.IsRetryable()
}

// errorClassifier maps status codes and context errors onto ProviderErrors.
type errorClassifier struct {
	provider string
}

func (ec errorClassifier) classifyHTTP(statusCode int, message string, err error) *ProviderError {
	var errType ErrorType
	switch {
	case statusCode == 401 || statusCode == 403:
		errType = ErrorTypeAuthentication
		if message == "" {
			message = ec.provider + " authentication failed"
		}
	case statusCode == 429:
		errType = ErrorTypeRateLimit
		if message == "" {
			message = ec.provider + " rate limit exceeded"
		}
	case statusCode == 404:
		errType = ErrorTypeNotFound
	case statusCode == 408 || statusCode == 504:
		errType = ErrorTypeTimeout
	case statusCode >= 500:
		errType = ErrorTypeServerError
	case statusCode >= 400:
		errType = ErrorTypeBadRequest
	default:
		errType = ErrorTypeUnknown
	}
	return NewProviderError(ec.provider, errType, statusCode, message, err)
}

// classify handles errors that carry no status code.
func (ec errorClassifier) classify(err error) *ProviderError {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return NewProviderError(ec.provider, ErrorTypeTimeout, 0, "context deadline exceeded", err)
	case errors.Is(err, context.Canceled):
		return NewProviderError(ec.provider, ErrorTypeNetwork, 0, "request canceled", err)
	case errors.Is(err, ErrEmptyResponse):
		return NewProviderError(ec.provider, ErrorTypeEmptyResponse, 0, "", err)
	default:
		return NewProviderError(ec.provider, ErrorTypeNetwork, 0, "request failed", err)
	}
}
