package leetcode

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// HTTPError is returned when the upstream answers with a non-2xx status.
type HTTPError struct {
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("leetcode http %d: %s", e.Status, truncate(e.Body, 200))
}

// NetworkError is returned when no connection to the endpoint could be made.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("leetcode network: %v", e.Err) }
func (e *NetworkError) Unwrap() error { return e.Err }

// TimeoutError is returned when the request deadline expired or the call was
// cancelled before a response arrived.
type TimeoutError struct {
	Err error
}

func (e *TimeoutError) Error() string { return fmt.Sprintf("leetcode timeout: %v", e.Err) }
func (e *TimeoutError) Unwrap() error { return e.Err }

type NotFoundError struct {
	Username string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("leetcode user %q not found", e.Username)
}

type RateLimitedError struct {
	Err error
}

func (e *RateLimitedError) Error() string {
	if e.Err == nil {
		return "leetcode rate limited"
	}
	return fmt.Sprintf("leetcode rate limited: %v", e.Err)
}
func (e *RateLimitedError) Unwrap() error { return e.Err }

// UnavailableError means no network path to the upstream succeeded.
type UnavailableError struct {
	Err error
}

func (e *UnavailableError) Error() string { return fmt.Sprintf("leetcode unavailable: %v", e.Err) }
func (e *UnavailableError) Unwrap() error { return e.Err }

// SchemaError means the payload could not be interpreted. It is a bug signal.
type SchemaError struct {
	Field string
	Err   error
}

func (e *SchemaError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("leetcode schema: %s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("leetcode schema: missing %s", e.Field)
}
func (e *SchemaError) Unwrap() error { return e.Err }

type AuthExpiredError struct {
	Status int
}

func (e *AuthExpiredError) Error() string {
	return fmt.Sprintf("leetcode session rejected (http %d)", e.Status)
}

// transportError converts an error from the HTTP round trip into one of
// HTTPError, TimeoutError or NetworkError.
func transportError(ctx context.Context, err error) error {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}
	if isTimeout(ctx, err) {
		return &TimeoutError{Err: err}
	}
	return &NetworkError{Err: err}
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	if ctx != nil && ctx.Err() != nil {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// IsNotFoundMessage reports whether a GraphQL error message means the
// requested user does not exist.
func IsNotFoundMessage(msg string) bool {
	m := strings.ToLower(msg)
	return strings.Contains(m, "not found") || strings.Contains(m, "does not exist")
}

// IsAuthStatus reports whether an HTTP status means the session was refused.
func IsAuthStatus(status int) bool {
	return status == http.StatusUnauthorized || status == http.StatusForbidden
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
