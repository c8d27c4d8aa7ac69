package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"leetcode-dash/internal/leetcode"

	"golang.org/x/sync/singleflight"
)

type GatewayConfig struct {
	// TTL applies to ordinary read queries (default: 5m).
	TTL time.Duration

	// LongTTL applies to operations listed in LongLived (default: 6h).
	LongTTL time.Duration

	// LongLived names operations whose answers rarely change. Defaults to
	// the daily challenge.
	LongLived []string

	Sessions *SessionBridge
	Logger   *slog.Logger
	Now      func() time.Time
}

// Gateway relays GraphQL requests to the upstream with a fingerprint cache
// in front. At most one upstream call per fingerprint is in flight; later
// identical callers wait for it. Transports are tried in order, moving on
// only when one cannot connect at all.
type Gateway struct {
	transports []leetcode.Transport
	cache      *Cache
	group      singleflight.Group
	sessions   *SessionBridge
	ttl        time.Duration
	longTTL    time.Duration
	longLived  map[string]bool
	logger     *slog.Logger
}

func NewGateway(cfg GatewayConfig, transports ...leetcode.Transport) *Gateway {
	if cfg.TTL <= 0 {
		cfg.TTL = 5 * time.Minute
	}
	if cfg.LongTTL <= 0 {
		cfg.LongTTL = 6 * time.Hour
	}
	if cfg.LongLived == nil {
		cfg.LongLived = []string{leetcode.OpDailyChallenge}
	}
	if cfg.Sessions == nil {
		cfg.Sessions = NewSessionBridge(time.Hour, cfg.Now)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	long := make(map[string]bool, len(cfg.LongLived))
	for _, op := range cfg.LongLived {
		long[op] = true
	}
	return &Gateway{
		transports: transports,
		cache:      NewCache(cfg.Now),
		sessions:   cfg.Sessions,
		ttl:        cfg.TTL,
		longTTL:    cfg.LongTTL,
		longLived:  long,
		logger:     cfg.Logger,
	}
}

func (g *Gateway) Sessions() *SessionBridge { return g.sessions }

// Forward sends req with the held session, if any. When the upstream
// refuses that session it is dropped and the request is repeated
// anonymously.
func (g *Gateway) Forward(ctx context.Context, req leetcode.Request) (*leetcode.RawResponse, error) {
	sess := g.sessions.Current()
	resp, err := g.forward(ctx, req, sess)
	if sess == nil {
		return resp, err
	}

	var httpErr *leetcode.HTTPError
	if errors.As(err, &httpErr) && leetcode.IsAuthStatus(httpErr.Status) {
		g.sessions.Invalidate(sess)
		g.logger.Warn("upstream rejected session, continuing anonymously",
			"operation", req.OperationName,
			"error", &leetcode.AuthExpiredError{Status: httpErr.Status})
		return g.forward(ctx, req, nil)
	}
	return resp, err
}

// ForwardAuthenticated is Forward for requests that are meaningless without
// a session. It fails with *leetcode.AuthExpiredError instead of degrading.
func (g *Gateway) ForwardAuthenticated(ctx context.Context, req leetcode.Request) (*leetcode.RawResponse, error) {
	sess := g.sessions.Current()
	if sess == nil {
		return nil, &leetcode.AuthExpiredError{}
	}
	resp, err := g.forward(ctx, req, sess)
	var httpErr *leetcode.HTTPError
	if errors.As(err, &httpErr) && leetcode.IsAuthStatus(httpErr.Status) {
		g.sessions.Invalidate(sess)
		return nil, &leetcode.AuthExpiredError{Status: httpErr.Status}
	}
	return resp, err
}

// Purge drops every cached response.
func (g *Gateway) Purge() {
	g.cache.Purge()
}

func (g *Gateway) Sweep() int {
	return g.cache.Sweep()
}

func (g *Gateway) forward(ctx context.Context, req leetcode.Request, sess *leetcode.Session) (*leetcode.RawResponse, error) {
	sessionID := ""
	if sess != nil {
		sessionID = sess.ID
	}
	key := Fingerprint(sessionID, req.Query, req.Variables)

	if resp, ok := g.cached(key); ok {
		g.logger.Debug("gateway cache hit", "operation", req.OperationName)
		return resp, nil
	}
	return g.fetch(ctx, key, req, sess)
}

// fetch joins or starts the single upstream call for key.
func (g *Gateway) fetch(ctx context.Context, key string, req leetcode.Request, sess *leetcode.Session) (*leetcode.RawResponse, error) {
	ch := g.group.DoChan(key, func() (any, error) {
		// a flight that finished between the caller's miss and now has
		// already filled the cache
		if resp, ok := g.cached(key); ok {
			return resp, nil
		}

		// The call is shared by every waiter, so one waiter giving up must
		// not cancel it. The transport applies its own deadline.
		callCtx := context.WithoutCancel(ctx)
		resp, err := g.send(callCtx, req, sess)
		if err != nil {
			return nil, err
		}
		if len(resp.Errors) == 0 {
			if b, err := json.Marshal(resp); err == nil {
				g.cache.Set(key, b, g.ttlFor(req))
			}
		}
		return resp, nil
	})

	select {
	case <-ctx.Done():
		return nil, &leetcode.TimeoutError{Err: ctx.Err()}
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*leetcode.RawResponse), nil
	}
}

func (g *Gateway) cached(key string) (*leetcode.RawResponse, bool) {
	b, ok := g.cache.Get(key)
	if !ok {
		return nil, false
	}
	var resp leetcode.RawResponse
	if err := json.Unmarshal(b, &resp); err != nil {
		g.cache.Delete(key)
		return nil, false
	}
	return &resp, true
}

func (g *Gateway) send(ctx context.Context, req leetcode.Request, sess *leetcode.Session) (*leetcode.RawResponse, error) {
	if len(g.transports) == 0 {
		return nil, &leetcode.UnavailableError{Err: errors.New("no upstream transport configured")}
	}

	var err error
	for i, t := range g.transports {
		start := time.Now()
		var resp *leetcode.RawResponse
		resp, err = t.Send(ctx, req, sess)
		g.logger.Debug("upstream call",
			"operation", req.OperationName,
			"transport", i,
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err)
		if err == nil {
			return resp, nil
		}

		var netErr *leetcode.NetworkError
		if !errors.As(err, &netErr) {
			return nil, err
		}
	}
	return nil, err
}

func (g *Gateway) ttlFor(req leetcode.Request) time.Duration {
	if g.longLived[req.OperationName] {
		return g.longTTL
	}
	return g.ttl
}
