package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Common errors returned by the chat-completion client.
var (
	// ErrMissingAPIKey indicates the client was built without credentials.
	ErrMissingAPIKey = errors.New("model API key is required")

	// ErrAuthError indicates the API rejected the credentials.
	ErrAuthError = errors.New("model API authentication error")

	// ErrRateLimited indicates the API throttled the request.
	ErrRateLimited = errors.New("model API rate limit exceeded")

	// ErrNetworkError indicates a connectivity issue.
	ErrNetworkError = errors.New("network error communicating with model API")

	// ErrEmptyResponse indicates a well-formed reply without any choices.
	ErrEmptyResponse = errors.New("model returned no choices")

	// ErrInvalidResponse indicates a reply that could not be decoded.
	ErrInvalidResponse = errors.New("invalid response from model API")

	// ErrRetriesExhausted wraps the last error once the retry policy gives up.
	ErrRetriesExhausted = errors.New("model call failed after retries")
)

// APIError is a non-2xx reply from the chat-completion endpoint.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("model API error (status %d): %s", e.StatusCode, e.Message)
}

// IsRetryable reports whether a failed call may succeed if repeated.
// Rate limits, server errors, network failures and undecodable replies are
// transient; bad requests and authentication failures are not.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, ErrAuthError) || errors.Is(err, ErrMissingAPIKey) {
		return false
	}
	if errors.Is(err, ErrRateLimited) || errors.Is(err, ErrNetworkError) ||
		errors.Is(err, ErrEmptyResponse) || errors.Is(err, ErrInvalidResponse) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= http.StatusInternalServerError ||
			apiErr.StatusCode == http.StatusRequestTimeout
	}
	return false
}

// checkStatus maps an HTTP status to the error taxonomy.
func checkStatus(status int, body string) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: status %d", ErrAuthError, status)
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: status %d", ErrRateLimited, status)
	case status >= 300:
		return &APIError{StatusCode: status, Message: body}
	}
	return nil
}
