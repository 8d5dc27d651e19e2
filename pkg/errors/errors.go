// Package errors classifies failures talking to the image API so callers
// can decide whether to retry, re-authenticate or give up.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents different types of errors that can occur
type ErrorType string

const (
	ErrorTypeNetwork     ErrorType = "network"
	ErrorTypeRateLimit   ErrorType = "rate_limit"
	ErrorTypeAuth        ErrorType = "auth"
	ErrorTypeParsing     ErrorType = "parsing"
	ErrorTypeNotFound    ErrorType = "not_found"
	ErrorTypeBadRequest  ErrorType = "bad_request"
	ErrorTypeServerError ErrorType = "server_error"
	ErrorTypeUnknown     ErrorType = "unknown"
)

// Error represents an API error with type information
type Error struct {
	Type    ErrorType
	Message string
	Code    int
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an Error wrapping cause, which may be nil.
func New(t ErrorType, code int, msg string, cause error) *Error {
	return &Error{Type: t, Message: msg, Code: code, Err: cause}
}

// FromStatus classifies a non-2xx HTTP status. body is the (possibly
// truncated) response text; Pixabay reports bad keys and bad parameters
// as plain-text 400s.
func FromStatus(code int, body string) *Error {
	msg := body
	if msg == "" {
		msg = http.StatusText(code)
	}

	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return New(ErrorTypeAuth, code, msg, nil)
	case code == http.StatusNotFound:
		return New(ErrorTypeNotFound, code, msg, nil)
	case code == http.StatusTooManyRequests:
		return New(ErrorTypeRateLimit, code, msg, nil)
	case code == http.StatusBadRequest:
		return New(ErrorTypeBadRequest, code, msg, nil)
	case code >= 500:
		return New(ErrorTypeServerError, code, msg, nil)
	default:
		return New(ErrorTypeUnknown, code, msg, nil)
	}
}

// TypeOf returns the ErrorType of err, or ErrorTypeUnknown.
func TypeOf(err error) ErrorType {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Type
	}
	return ErrorTypeUnknown
}

// IsRetryable checks if an error type should be retried
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeNetwork, ErrorTypeRateLimit, ErrorTypeServerError:
		return true
	default:
		return false
	}
}

// IsRetryableStatusCode checks if an HTTP status code indicates a retryable error
func IsRetryableStatusCode(statusCode int) bool {
	switch statusCode {
	case 0, http.StatusTooManyRequests:
		return true
	default:
		return statusCode >= 500
	}
}
