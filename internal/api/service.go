package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"leetcode-dash/internal/leetcode"
	"leetcode-dash/internal/store"

	"golang.org/x/sync/errgroup"
)

// Fetcher is the part of the Gateway the user service depends on.
type Fetcher interface {
	Forward(ctx context.Context, req leetcode.Request) (*leetcode.RawResponse, error)
	ForwardAuthenticated(ctx context.Context, req leetcode.Request) (*leetcode.RawResponse, error)
	Purge()
}

type ServiceConfig struct {
	Gateway Fetcher

	// Sessions is cleared on logout. Optional.
	Sessions *SessionBridge

	// Store persists snapshots across restarts. Optional.
	Store store.Store

	// RecentLimit is how many recent submissions to keep (default: 20).
	RecentLimit int

	// MockFallback serves bundled sample data when the upstream is down and
	// no snapshot exists.
	MockFallback bool

	Logger *slog.Logger
	Now    func() time.Time
}

// Result is what FetchUserData hands to views. Stale is set when Data is an
// earlier snapshot standing in for a failed refresh.
type Result struct {
	Data      *leetcode.UserData `json:"data"`
	Stale     bool               `json:"stale"`
	Mock      bool               `json:"mock,omitempty"`
	FetchedAt time.Time          `json:"fetched_at"`
	LastError string             `json:"last_error,omitempty"`
}

type UserService struct {
	gw       Fetcher
	sessions *SessionBridge
	store    store.Store
	limit    int
	mock     bool
	logger   *slog.Logger
	now      func() time.Time

	mu        sync.RWMutex
	snapshots map[string]Result
	daily     *leetcode.DailyChallenge
}

func NewUserService(cfg ServiceConfig) *UserService {
	if cfg.RecentLimit <= 0 {
		cfg.RecentLimit = 20
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &UserService{
		gw:        cfg.Gateway,
		sessions:  cfg.Sessions,
		store:     cfg.Store,
		limit:     cfg.RecentLimit,
		mock:      cfg.MockFallback,
		logger:    cfg.Logger,
		now:       cfg.Now,
		snapshots: make(map[string]Result),
	}
}

// FetchUserData refreshes the data for username. A not-found answer is
// retried once with the lowercased username. When every path to the
// upstream fails, the last good snapshot is returned marked stale. Errors
// are always classified (see Classify).
func (s *UserService) FetchUserData(ctx context.Context, username string) (*Result, error) {
	username = strings.TrimSpace(username)
	if err := leetcode.ValidateUsername(username); err != nil {
		return nil, &ValidationError{Field: "username", Err: err}
	}

	ud, err := s.fetch(ctx, username)
	var notFound *leetcode.NotFoundError
	if errors.As(err, &notFound) {
		if lower, ok := leetcode.CaseVariant(username); ok {
			s.logger.Info("user not found, retrying lowercased", "username", username, "retry", lower)
			ud, err = s.fetch(ctx, lower)
		}
	}

	if err != nil {
		err = Classify(err, username)
		var schema *leetcode.SchemaError
		if errors.As(err, &schema) {
			s.logger.Error("unreadable upstream payload", "username", username, "error", err)
		}
		return s.fallback(ctx, username, err)
	}

	res := &Result{Data: ud, FetchedAt: s.now()}
	s.remember(ctx, username, res)
	return res, nil
}

// fetch issues the profile and recent-submissions queries concurrently.
// Only the profile is required.
func (s *UserService) fetch(ctx context.Context, username string) (*leetcode.UserData, error) {
	var profile, subs *leetcode.RawResponse

	var g errgroup.Group
	g.Go(func() error {
		resp, err := s.gw.Forward(ctx, leetcode.UserProfileRequest(username))
		profile = resp
		return err
	})
	g.Go(func() error {
		resp, err := s.gw.Forward(ctx, leetcode.RecentSubmissionsRequest(username, s.limit))
		if err != nil {
			s.logger.Warn("recent submissions unavailable", "username", username, "error", err)
			return nil
		}
		subs = resp
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return leetcode.Normalize(leetcode.Payloads{
		Username:    username,
		Profile:     profile,
		Submissions: subs,
		Limit:       s.limit,
		Now:         s.now(),
	})
}

func (s *UserService) fallback(ctx context.Context, username string, err error) (*Result, error) {
	if !staleEligible(err) {
		return nil, err
	}

	if snap, ok := s.snapshot(ctx, username); ok {
		s.logger.Warn("serving stale snapshot",
			"username", username,
			"fetched_at", snap.FetchedAt,
			"error", err)
		snap.Stale = true
		snap.LastError = err.Error()
		return &snap, nil
	}

	var schema *leetcode.SchemaError
	if s.mock && !errors.As(err, &schema) {
		ud, mockErr := leetcode.SampleUserData(username, s.now())
		if mockErr == nil {
			s.logger.Warn("serving sample data", "username", username, "error", err)
			return &Result{Data: ud, Stale: true, Mock: true, FetchedAt: s.now(), LastError: err.Error()}, nil
		}
		s.logger.Error("sample data unavailable", "error", mockErr)
	}
	return nil, err
}

func (s *UserService) remember(ctx context.Context, username string, res *Result) {
	key := strings.ToLower(username)
	s.mu.Lock()
	s.snapshots[key] = *res
	s.mu.Unlock()

	if s.store == nil {
		return
	}
	payload, err := json.Marshal(res.Data)
	if err != nil {
		s.logger.Error("encode snapshot", "username", username, "error", err)
		return
	}
	if err := s.store.SaveSnapshot(ctx, key, payload, res.FetchedAt); err != nil {
		s.logger.Warn("persist snapshot", "username", username, "error", err)
	}
	if err := s.store.SetLastUsername(ctx, username); err != nil {
		s.logger.Warn("persist last username", "username", username, "error", err)
	}
}

func (s *UserService) snapshot(ctx context.Context, username string) (Result, bool) {
	key := strings.ToLower(username)
	s.mu.RLock()
	res, ok := s.snapshots[key]
	s.mu.RUnlock()
	if ok {
		return res, true
	}
	if s.store == nil {
		return Result{}, false
	}

	snap, err := s.store.LatestSnapshot(ctx, key)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.logger.Warn("load snapshot", "username", username, "error", err)
		}
		return Result{}, false
	}
	var ud leetcode.UserData
	if err := json.Unmarshal(snap.Payload, &ud); err != nil {
		s.logger.Warn("decode snapshot", "username", username, "error", err)
		return Result{}, false
	}
	return Result{Data: &ud, FetchedAt: snap.FetchedAt}, true
}

// Daily returns today's challenge. The gateway caches it for hours; the
// last good answer covers upstream outages.
func (s *UserService) Daily(ctx context.Context) (*leetcode.DailyChallenge, error) {
	resp, err := s.gw.Forward(ctx, leetcode.DailyChallengeRequest())
	var daily *leetcode.DailyChallenge
	if err == nil {
		daily, err = leetcode.NormalizeDaily(resp)
	}
	if err != nil {
		err = Classify(err, "")
		s.mu.RLock()
		last := s.daily
		s.mu.RUnlock()
		if last != nil && staleEligible(err) {
			s.logger.Warn("serving last daily challenge", "error", err)
			return last, nil
		}
		return nil, err
	}

	s.mu.Lock()
	s.daily = daily
	s.mu.Unlock()
	return daily, nil
}

// VerifySession asks the upstream whether the held session is signed in.
// A session the upstream no longer honours is dropped.
func (s *UserService) VerifySession(ctx context.Context) (*leetcode.UserStatus, error) {
	resp, err := s.gw.ForwardAuthenticated(ctx, leetcode.UserStatusRequest())
	if err != nil {
		return nil, Classify(err, "")
	}
	st, err := leetcode.NormalizeUserStatus(resp)
	if err != nil {
		return nil, Classify(err, "")
	}
	if !st.SignedIn {
		if s.sessions != nil {
			s.sessions.Invalidate(s.sessions.Current())
		}
		return nil, &leetcode.AuthExpiredError{}
	}
	return st, nil
}

// LastUsername is the username of the most recent successful fetch.
func (s *UserService) LastUsername(ctx context.Context) string {
	if s.store == nil {
		return ""
	}
	name, err := s.store.LastUsername(ctx)
	if err != nil {
		return ""
	}
	return name
}

// Logout forgets the session and every derived cache.
func (s *UserService) Logout(ctx context.Context) error {
	if s.sessions != nil {
		s.sessions.Clear()
	}
	s.gw.Purge()

	s.mu.Lock()
	s.snapshots = make(map[string]Result)
	s.daily = nil
	s.mu.Unlock()

	if s.store != nil {
		if err := s.store.Reset(ctx); err != nil {
			return err
		}
	}
	return nil
}
