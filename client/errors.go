package client

import (
	"errors"
	"fmt"
)

// APIError is a non-2xx response translated into an error. Message and Code
// carry the body's "message" and "error" fields when present.
type APIError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *APIError) Error() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.Code != "":
		return e.Code
	default:
		return fmt.Sprintf("server returned status %d", e.StatusCode)
	}
}

// IsUnauthorized reports whether err is an APIError with status 401. Callers
// use this to distinguish an expired session from other failures.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == 401
}

// ErrorMessage extracts a user-facing message from err. Preference order:
// the response body's "message" field, its "error" field, the error's own
// message, then fallback. Applied identically at every call site so
// notifications read the same no matter which layer failed.
func ErrorMessage(err error, fallback string) string {
	if err == nil {
		return fallback
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			return apiErr.Message
		}
		if apiErr.Code != "" {
			return apiErr.Code
		}
		return fallback
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallback
}
