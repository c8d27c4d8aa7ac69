package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"leetcode-dash/internal/leetcode"

	"github.com/gin-gonic/gin"
)

const (
	ErrorCodeValidation   = "validation_error"
	ErrorCodeNotFound     = "not_found"
	ErrorCodeUnauthorized = "unauthorized"
	ErrorCodeRateLimited  = "rate_limited"
	ErrorCodeTimeout      = "timeout"
	ErrorCodeUnavailable  = "upstream_unavailable"
	ErrorCodeUpstream     = "upstream_error"
	ErrorCodeInternal     = "internal_error"
)

type ErrorDetails struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message,omitempty"`
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ValidationError rejects caller input before anything is sent upstream.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string { return fmt.Sprintf("%s: %v", e.Field, e.Err) }
func (e *ValidationError) Unwrap() error { return e.Err }

// Classify maps any error from the gateway or normalizer onto the error
// taxonomy the handlers understand. The result is always one of
// *leetcode.NotFoundError, *leetcode.TimeoutError, *leetcode.RateLimitedError,
// *leetcode.UnavailableError, *leetcode.SchemaError,
// *leetcode.AuthExpiredError, *ValidationError, or *leetcode.HTTPError for
// any other 4xx the upstream answered with.
func Classify(err error, username string) error {
	if err == nil {
		return nil
	}

	var (
		validation  *ValidationError
		notFound    *leetcode.NotFoundError
		timeout     *leetcode.TimeoutError
		rateLimited *leetcode.RateLimitedError
		unavailable *leetcode.UnavailableError
		schema      *leetcode.SchemaError
		authExpired *leetcode.AuthExpiredError
		httpErr     *leetcode.HTTPError
		netErr      *leetcode.NetworkError
	)
	switch {
	case errors.As(err, &validation):
		return validation
	case errors.As(err, &notFound):
		if username != "" {
			return &leetcode.NotFoundError{Username: username}
		}
		return notFound
	case errors.As(err, &timeout):
		return timeout
	case errors.As(err, &rateLimited):
		return rateLimited
	case errors.As(err, &unavailable):
		return unavailable
	case errors.As(err, &schema):
		return schema
	case errors.As(err, &authExpired):
		return authExpired
	case errors.As(err, &httpErr):
		switch {
		case httpErr.Status == http.StatusTooManyRequests:
			return &leetcode.RateLimitedError{Err: httpErr}
		case leetcode.IsAuthStatus(httpErr.Status):
			return &leetcode.AuthExpiredError{Status: httpErr.Status}
		case httpErr.Status >= 400 && httpErr.Status < 500:
			// the upstream is up and refused this request
			return httpErr
		}
		return &leetcode.UnavailableError{Err: httpErr}
	case errors.As(err, &netErr):
		return &leetcode.UnavailableError{Err: netErr}
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return &leetcode.TimeoutError{Err: err}
	case leetcode.IsNotFoundMessage(err.Error()):
		return &leetcode.NotFoundError{Username: username}
	}
	return &leetcode.UnavailableError{Err: err}
}

// staleEligible reports whether a previous snapshot may stand in for a
// failed refresh. A not-found answer is authoritative and never masked.
func staleEligible(err error) bool {
	var (
		timeout     *leetcode.TimeoutError
		rateLimited *leetcode.RateLimitedError
		unavailable *leetcode.UnavailableError
		schema      *leetcode.SchemaError
	)
	return errors.As(err, &timeout) || errors.As(err, &rateLimited) ||
		errors.As(err, &unavailable) || errors.As(err, &schema)
}

// WriteError renders a classified error with a status and an actionable
// message. The wording is for people; clients switch on the code.
func WriteError(c *gin.Context, err error) {
	var (
		validation  *ValidationError
		notFound    *leetcode.NotFoundError
		timeout     *leetcode.TimeoutError
		rateLimited *leetcode.RateLimitedError
		schema      *leetcode.SchemaError
		authExpired *leetcode.AuthExpiredError
		httpErr     *leetcode.HTTPError
	)
	switch err := Classify(err, ""); {
	case errors.As(err, &validation):
		AbortJSONErrorWithDetails(c, http.StatusBadRequest, ErrorCodeValidation, "invalid request",
			[]ErrorDetails{{Field: validation.Field, Message: validation.Err.Error()}})
	case errors.As(err, &notFound):
		AbortJSONError(c, http.StatusNotFound, ErrorCodeNotFound,
			fmt.Sprintf("LeetCode user %q not found; check the spelling of the username", notFound.Username))
	case errors.As(err, &timeout):
		AbortJSONError(c, http.StatusGatewayTimeout, ErrorCodeTimeout, "LeetCode took too long to answer; try again")
	case errors.As(err, &rateLimited):
		AbortJSONError(c, http.StatusTooManyRequests, ErrorCodeRateLimited, "LeetCode is rate limiting requests; try again in a minute")
	case errors.As(err, &schema):
		AbortJSONError(c, http.StatusBadGateway, ErrorCodeUpstream, "LeetCode returned data this server cannot read")
	case errors.As(err, &authExpired):
		AbortJSONError(c, http.StatusUnauthorized, ErrorCodeUnauthorized, "LeetCode session missing or expired; log in again")
	case errors.As(err, &httpErr) && httpErr.Status < 500:
		AbortJSONError(c, http.StatusBadGateway, ErrorCodeUpstream,
			fmt.Sprintf("LeetCode rejected the request with status %d", httpErr.Status))
	default:
		AbortJSONError(c, http.StatusServiceUnavailable, ErrorCodeUnavailable, "LeetCode is unreachable; try again")
	}
}

func JSONError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

func JSONErrorWithDetails(c *gin.Context, status int, code, message string, details any) {
	if details == nil {
		JSONError(c, status, code, message)
		return
	}
	switch v := details.(type) {
	case []ErrorDetails:
		if len(v) == 0 {
			JSONError(c, status, code, message)
			return
		}
	}
	c.JSON(status, gin.H{
		"error": ErrorResponse{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

func AbortJSONError(c *gin.Context, status int, code, message string) {
	JSONError(c, status, code, message)
	c.Abort()
}

func AbortJSONErrorWithDetails(c *gin.Context, status int, code, message string, details any) {
	JSONErrorWithDetails(c, status, code, message, details)
	c.Abort()
}
