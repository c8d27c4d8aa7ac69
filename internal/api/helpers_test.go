package api

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"leetcode-dash/internal/leetcode"
	"leetcode-dash/internal/store"

	"github.com/vektah/gqlparser/v2/gqlerror"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *clock {
	return &clock{t: time.Date(2024, 1, 2, 15, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type call struct {
	Op       string
	Username string
	Session  *leetcode.Session
}

// fakeTransport records every upstream call and answers through fn.
type fakeTransport struct {
	mu    sync.Mutex
	calls []call
	fn    func(req leetcode.Request, sess *leetcode.Session) (*leetcode.RawResponse, error)
}

func (f *fakeTransport) Send(_ context.Context, req leetcode.Request, sess *leetcode.Session) (*leetcode.RawResponse, error) {
	username, _ := req.Variables["username"].(string)
	f.mu.Lock()
	f.calls = append(f.calls, call{Op: req.OperationName, Username: username, Session: sess})
	fn := f.fn
	f.mu.Unlock()
	return fn(req, sess)
}

func (f *fakeTransport) setFn(fn func(req leetcode.Request, sess *leetcode.Session) (*leetcode.RawResponse, error)) {
	f.mu.Lock()
	f.fn = fn
	f.mu.Unlock()
}

func (f *fakeTransport) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if op == "" || c.Op == op {
			n++
		}
	}
	return n
}

func (f *fakeTransport) usernames(op string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.calls {
		if c.Op == op {
			out = append(out, c.Username)
		}
	}
	return out
}

func okResponse(data string) *leetcode.RawResponse {
	return &leetcode.RawResponse{Data: json.RawMessage(data)}
}

func errResponse(data, msg string) *leetcode.RawResponse {
	return &leetcode.RawResponse{
		Data:   json.RawMessage(data),
		Errors: gqlerror.List{{Message: msg}},
	}
}

func profileJSON(username string) string {
	return fmt.Sprintf(`{
	  "allQuestionsCount": [
	    {"difficulty": "All", "count": 3000},
	    {"difficulty": "Easy", "count": 800},
	    {"difficulty": "Medium", "count": 1600},
	    {"difficulty": "Hard", "count": 600}
	  ],
	  "matchedUser": {
	    "username": %q,
	    "profile": {"realName": "Alice", "userAvatar": "", "ranking": 100},
	    "submitStats": {"acSubmissionNum": [
	      {"difficulty": "All", "count": 120, "submissions": 200},
	      {"difficulty": "Easy", "count": 80, "submissions": 120},
	      {"difficulty": "Medium", "count": 35, "submissions": 70},
	      {"difficulty": "Hard", "count": 5, "submissions": 10}
	    ]},
	    "submissionCalendar": "{\"1704153600\": 2}"
	  }
	}`, username)
}

const submissionsJSON = `{"recentSubmissionList": [
  {"id": "7", "title": "Two Sum", "titleSlug": "two-sum", "timestamp": "1704153700", "lang": "golang", "runtime": "4 ms", "statusDisplay": "Accepted"}
]}`

const notFoundJSON = `{"matchedUser": null}`

const dailyJSON = `{"activeDailyCodingChallengeQuestion": {
  "date": "2024-01-02",
  "link": "/problems/two-sum/",
  "question": {"questionFrontendId": "1", "title": "Two Sum", "titleSlug": "two-sum", "difficulty": "Easy", "acRate": 51.2}
}}`

// upstream answers like LeetCode for the users in known, keyed by exact
// username.
func upstream(known ...string) func(req leetcode.Request, sess *leetcode.Session) (*leetcode.RawResponse, error) {
	set := make(map[string]bool, len(known))
	for _, k := range known {
		set[k] = true
	}
	return func(req leetcode.Request, _ *leetcode.Session) (*leetcode.RawResponse, error) {
		username, _ := req.Variables["username"].(string)
		switch req.OperationName {
		case leetcode.OpUserProfile:
			if !set[username] {
				return errResponse(notFoundJSON, "That user does not exist."), nil
			}
			return okResponse(profileJSON(username)), nil
		case leetcode.OpRecentSubmissions:
			return okResponse(submissionsJSON), nil
		case leetcode.OpDailyChallenge:
			return okResponse(dailyJSON), nil
		case leetcode.OpUserStatus:
			return okResponse(`{"userStatus": {"isSignedIn": true, "username": "alice"}}`), nil
		}
		return nil, fmt.Errorf("unexpected operation %q", req.OperationName)
	}
}

func down(_ leetcode.Request, _ *leetcode.Session) (*leetcode.RawResponse, error) {
	return nil, &leetcode.NetworkError{Err: fmt.Errorf("connection refused")}
}

type memStore struct {
	mu        sync.Mutex
	snapshots map[string]store.Snapshot
	last      string
	resets    int
}

func newMemStore() *memStore {
	return &memStore{snapshots: make(map[string]store.Snapshot)}
}

func (m *memStore) SaveSnapshot(_ context.Context, username string, payload []byte, fetchedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots[username] = store.Snapshot{Username: username, Payload: payload, FetchedAt: fetchedAt}
	return nil
}

func (m *memStore) LatestSnapshot(_ context.Context, username string) (*store.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.snapshots[username]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &s, nil
}

func (m *memStore) SetLastUsername(_ context.Context, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last = username
	return nil
}

func (m *memStore) LastUsername(_ context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.last == "" {
		return "", store.ErrNotFound
	}
	return m.last, nil
}

func (m *memStore) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots = make(map[string]store.Snapshot)
	m.last = ""
	m.resets++
	return nil
}

func (m *memStore) Close() error { return nil }
