package api

import (
	"context"
	"errors"
	"sync"
	"time"

	"leetcode-dash/internal/leetcode"
)

var ErrIncompleteSession = errors.New("session id and csrf token are both required")

// SessionBridge holds at most one upstream session, obtained out-of-band,
// for a bounded time. An expired or rejected session simply disappears and
// callers continue anonymously.
type SessionBridge struct {
	mu        sync.RWMutex
	sess      *leetcode.Session
	expiresAt time.Time
	ttl       time.Duration
	now       func() time.Time
}

type SessionStatus struct {
	Active    bool       `json:"active"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

func NewSessionBridge(ttl time.Duration, now func() time.Time) *SessionBridge {
	if now == nil {
		now = time.Now
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &SessionBridge{ttl: ttl, now: now}
}

func (b *SessionBridge) Set(s leetcode.Session) error {
	if !s.Valid() {
		return ErrIncompleteSession
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sess = &s
	b.expiresAt = b.now().Add(b.ttl)
	return nil
}

func (b *SessionBridge) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sess = nil
	b.expiresAt = time.Time{}
}

// Current returns the held session, or nil when there is none or it expired.
func (b *SessionBridge) Current() *leetcode.Session {
	if b == nil {
		return nil
	}
	b.mu.RLock()
	sess, exp := b.sess, b.expiresAt
	b.mu.RUnlock()
	if sess == nil {
		return nil
	}
	if !b.now().Before(exp) {
		b.Invalidate(sess)
		return nil
	}
	return sess
}

// Invalidate drops s if it is still the held session. A session stored
// concurrently by a newer login is left alone.
func (b *SessionBridge) Invalidate(s *leetcode.Session) {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sess == s {
		b.sess = nil
		b.expiresAt = time.Time{}
	}
}

func (b *SessionBridge) Status() SessionStatus {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.sess == nil || !b.now().Before(b.expiresAt) {
		return SessionStatus{}
	}
	exp := b.expiresAt
	return SessionStatus{Active: true, ExpiresAt: &exp}
}

// Context attaches the held session, if any, to ctx.
func (b *SessionBridge) Context(ctx context.Context) context.Context {
	return leetcode.WithSession(ctx, b.Current())
}
