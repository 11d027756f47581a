package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// RateLimitError indicates the upstream returned 429. Transient.
type RateLimitError struct{}

func (e *RateLimitError) Error() string { return "rate limited" }

// AuthError indicates a 401/403 from the upstream. Fatal for the request;
// retrying without fixing credentials will not help.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return "authentication error: " + e.Message
}

// ServerError indicates a 5xx from the upstream. Transient.
type ServerError struct {
	StatusCode int
	Body       string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error (status %d): %s", e.StatusCode, e.Body)
}

// IsAuth reports whether err is an upstream authentication/quota failure.
func IsAuth(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

// IsTransient reports whether err is worth a user-initiated retry:
// rate limits, upstream 5xx, timeouts, and network failures.
func IsTransient(err error) bool {
	var rle *RateLimitError
	if errors.As(err, &rle) {
		return true
	}
	var se *ServerError
	if errors.As(err, &se) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	return false
}
