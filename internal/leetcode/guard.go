package leetcode

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/felixgeelhaar/fortify/circuitbreaker"
	"github.com/felixgeelhaar/fortify/ratelimit"
)

// GuardConfig configures the circuit breaker and rate limiter placed in
// front of the upstream.
type GuardConfig struct {
	// RatePerSecond caps outbound calls. Zero disables the limiter.
	RatePerSecond int

	// BreakerFailures is the number of consecutive transport failures that
	// opens the breaker. Zero disables the breaker.
	BreakerFailures int

	// BreakerCooldown is how long the breaker stays open (default: 30s).
	BreakerCooldown time.Duration

	Logger *slog.Logger
}

func DefaultGuardConfig() GuardConfig {
	return GuardConfig{
		RatePerSecond:   2,
		BreakerFailures: 5,
		BreakerCooldown: 30 * time.Second,
	}
}

// Guard wraps a Transport so a struggling upstream is not hammered: calls
// beyond the rate fail with *RateLimitedError and an open breaker fails with
// *UnavailableError without touching the network.
type Guard struct {
	next    Transport
	breaker circuitbreaker.CircuitBreaker[*RawResponse]
	limiter ratelimit.RateLimiter
	logger  *slog.Logger
	name    string
}

func NewGuard(next Transport, cfg GuardConfig) *Guard {
	g := &Guard{
		next:   next,
		logger: cfg.Logger,
		name:   "leetcode",
	}
	if g.logger == nil {
		g.logger = slog.Default()
	}

	if cfg.BreakerFailures > 0 {
		cooldown := cfg.BreakerCooldown
		if cooldown <= 0 {
			cooldown = 30 * time.Second
		}
		failures := cfg.BreakerFailures
		g.breaker = circuitbreaker.New[*RawResponse](circuitbreaker.Config{
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     cooldown,
			ReadyToTrip: func(counts circuitbreaker.Counts) bool {
				return int(counts.ConsecutiveFailures) >= failures
			},
			OnStateChange: func(from, to circuitbreaker.State) {
				g.logger.Warn("upstream circuit breaker state change",
					"from", from.String(),
					"to", to.String())
			},
		})
	}

	if cfg.RatePerSecond > 0 {
		g.limiter = ratelimit.New(&ratelimit.Config{
			Rate:     cfg.RatePerSecond,
			Burst:    cfg.RatePerSecond * 3,
			Interval: time.Second,
		})
	}
	return g
}

func (g *Guard) Send(ctx context.Context, req Request, sess *Session) (*RawResponse, error) {
	if g.limiter != nil && !g.limiter.Allow(ctx, g.name) {
		return nil, &RateLimitedError{Err: errors.New("local upstream rate limit exceeded")}
	}
	if g.breaker == nil {
		return g.next.Send(ctx, req, sess)
	}

	// Client-side HTTP errors say nothing about upstream health, so they are
	// carried out of the breaker instead of being counted as failures.
	var passthrough error
	resp, err := g.breaker.Execute(ctx, func(ctx context.Context) (*RawResponse, error) {
		resp, err := g.next.Send(ctx, req, sess)
		if err != nil && !tripsBreaker(err) {
			passthrough = err
			return nil, nil
		}
		return resp, err
	})
	if passthrough != nil {
		return nil, passthrough
	}
	if err != nil && !isTyped(err) {
		return nil, &UnavailableError{Err: err}
	}
	return resp, err
}

func (g *Guard) Close() error {
	if g.limiter != nil {
		return g.limiter.Close()
	}
	return nil
}

func tripsBreaker(err error) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Status >= 500 || httpErr.Status == http.StatusTooManyRequests
	}
	var schemaErr *SchemaError
	return !errors.As(err, &schemaErr)
}

func isTyped(err error) bool {
	var (
		httpErr    *HTTPError
		netErr     *NetworkError
		timeoutErr *TimeoutError
		schemaErr  *SchemaError
	)
	return errors.As(err, &httpErr) || errors.As(err, &netErr) ||
		errors.As(err, &timeoutErr) || errors.As(err, &schemaErr)
}
