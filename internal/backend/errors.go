package backend

import (
	"errors"
	"fmt"
	"net/http"
)

// Errors
var (
	// ErrUnauthorized is matched by any APIError with status 401
	ErrUnauthorized = errors.New("unauthorized")
	// ErrUnavailable wraps transport failures (connection refused, timeout, ...)
	ErrUnavailable = errors.New("backend unavailable")
	// ErrMalformedBody is returned when a response body is not the expected JSON
	ErrMalformedBody = errors.New("malformed response body")
	// ErrMissingEntity is returned when a get-one response lacks its wrapper key
	ErrMissingEntity = errors.New("entity missing from response")
)

// APIError is a non-2xx response from the API
type APIError struct {
	Status  int
	Message string
}

// Error implements error
func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.Status, e.Message)
}

// Is lets errors.Is(err, ErrUnauthorized) match 401 responses
func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.Status == http.StatusUnauthorized
}

// errorBody covers the error shapes the API returns:
// {"message": "..."}, {"error": "..."} and {"error": {"message": "..."}}
type errorBody struct {
	Message string `json:"message"`
	Error   any    `json:"error"`
}

func (b errorBody) text() string {
	if b.Message != "" {
		return b.Message
	}
	switch v := b.Error.(type) {
	case string:
		return v
	case map[string]any:
		if msg, ok := v["message"].(string); ok {
			return msg
		}
	}
	return ""
}

// Message extracts a user-facing message from an error. API errors yield
// the server's message; anything else yields fallback.
func Message(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
