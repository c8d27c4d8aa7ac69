package leetcode

import (
	"context"
	"net/http"
)

// Session is a LEETCODE_SESSION cookie and csrftoken pair obtained
// out-of-band. A nil *Session means anonymous access.
type Session struct {
	ID        string `json:"session_id"`
	CSRFToken string `json:"csrf_token"`
}

func (s *Session) Valid() bool {
	return s != nil && s.ID != "" && s.CSRFToken != ""
}

type sessionKey struct{}

// WithSession returns a context whose upstream calls carry the session.
func WithSession(ctx context.Context, s *Session) context.Context {
	if !s.Valid() {
		return ctx
	}
	return context.WithValue(ctx, sessionKey{}, s)
}

func SessionFrom(ctx context.Context) *Session {
	s, _ := ctx.Value(sessionKey{}).(*Session)
	return s
}

func (s *Session) apply(req *http.Request) {
	req.AddCookie(&http.Cookie{Name: "LEETCODE_SESSION", Value: s.ID})
	req.AddCookie(&http.Cookie{Name: "csrftoken", Value: s.CSRFToken})
	req.Header.Set("x-csrftoken", s.CSRFToken)
	req.Header.Set("x-requested-with", "XMLHttpRequest")
}
