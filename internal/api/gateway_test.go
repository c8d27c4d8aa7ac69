package api

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"leetcode-dash/internal/leetcode"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGateway(clk *clock, transports ...leetcode.Transport) *Gateway {
	return NewGateway(GatewayConfig{
		TTL:      5 * time.Minute,
		LongTTL:  6 * time.Hour,
		Sessions: NewSessionBridge(time.Hour, clk.Now),
		Now:      clk.Now,
	}, transports...)
}

func TestGateway_CacheHitSkipsUpstream(t *testing.T) {
	clk := newClock()
	ft := &fakeTransport{fn: upstream("alice")}
	gw := newTestGateway(clk, ft)
	ctx := context.Background()

	first, err := gw.Forward(ctx, leetcode.UserProfileRequest("alice"))
	require.NoError(t, err)
	second, err := gw.Forward(ctx, leetcode.UserProfileRequest("alice"))
	require.NoError(t, err)

	assert.Equal(t, 1, ft.count(""))
	assert.JSONEq(t, string(first.Data), string(second.Data))

	_, err = gw.Forward(ctx, leetcode.UserProfileRequest("bob"))
	require.NoError(t, err)
	assert.Equal(t, 2, ft.count(""), "different variables are a different fingerprint")
}

func TestGateway_LateCallerReusesFinishedFlight(t *testing.T) {
	clk := newClock()
	ft := &fakeTransport{fn: upstream("alice")}
	gw := newTestGateway(clk, ft)
	ctx := context.Background()
	req := leetcode.UserProfileRequest("alice")

	first, err := gw.Forward(ctx, req)
	require.NoError(t, err)
	require.Equal(t, 1, ft.count(""))

	// a caller that missed the cache just before the first flight stored
	// its answer joins the group after that flight is gone
	late, err := gw.fetch(ctx, Fingerprint("", req.Query, req.Variables), req, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, ft.count(""))
	assert.JSONEq(t, string(first.Data), string(late.Data))
}

func TestGateway_CacheExpires(t *testing.T) {
	clk := newClock()
	ft := &fakeTransport{fn: upstream("alice")}
	gw := newTestGateway(clk, ft)
	ctx := context.Background()

	_, err := gw.Forward(ctx, leetcode.UserProfileRequest("alice"))
	require.NoError(t, err)
	_, err = gw.Forward(ctx, leetcode.DailyChallengeRequest())
	require.NoError(t, err)

	clk.Advance(10 * time.Minute)
	_, err = gw.Forward(ctx, leetcode.UserProfileRequest("alice"))
	require.NoError(t, err)
	_, err = gw.Forward(ctx, leetcode.DailyChallengeRequest())
	require.NoError(t, err)
	assert.Equal(t, 2, ft.count(leetcode.OpUserProfile))
	assert.Equal(t, 1, ft.count(leetcode.OpDailyChallenge))

	clk.Advance(7 * time.Hour)
	_, err = gw.Forward(ctx, leetcode.DailyChallengeRequest())
	require.NoError(t, err)
	assert.Equal(t, 2, ft.count(leetcode.OpDailyChallenge))

	assert.Equal(t, 1, gw.Sweep(), "only the stale profile entry remains to sweep")
}

func TestGateway_ConcurrentCallersShareOneUpstreamCall(t *testing.T) {
	clk := newClock()
	release := make(chan struct{})
	ft := &fakeTransport{}
	ft.setFn(func(req leetcode.Request, sess *leetcode.Session) (*leetcode.RawResponse, error) {
		<-release
		return upstream("alice")(req, sess)
	})
	gw := newTestGateway(clk, ft)

	const callers = 8
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := gw.Forward(context.Background(), leetcode.UserProfileRequest("alice"))
			errs <- err
		}()
	}

	require.Eventually(t, func() bool { return ft.count("") == 1 }, time.Second, 5*time.Millisecond)
	close(release)
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, 1, ft.count(""))
}

func TestGateway_GraphQLErrorsNotCached(t *testing.T) {
	clk := newClock()
	ft := &fakeTransport{fn: upstream()}
	gw := newTestGateway(clk, ft)

	for range 2 {
		resp, err := gw.Forward(context.Background(), leetcode.UserProfileRequest("ghost"))
		require.NoError(t, err)
		assert.Equal(t, []string{"That user does not exist."}, resp.ErrorMessages())
	}
	assert.Equal(t, 2, ft.count(""))
}

func TestGateway_RejectedSessionDegradesToAnonymous(t *testing.T) {
	clk := newClock()
	ft := &fakeTransport{}
	ft.setFn(func(req leetcode.Request, sess *leetcode.Session) (*leetcode.RawResponse, error) {
		if sess != nil {
			return nil, &leetcode.HTTPError{Status: http.StatusForbidden}
		}
		return upstream("alice")(req, sess)
	})
	gw := newTestGateway(clk, ft)
	require.NoError(t, gw.Sessions().Set(leetcode.Session{ID: "sid", CSRFToken: "tok"}))

	resp, err := gw.Forward(context.Background(), leetcode.UserProfileRequest("alice"))
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Data)

	assert.Nil(t, gw.Sessions().Current())
	require.Equal(t, 2, ft.count(""))
	assert.NotNil(t, ft.calls[0].Session)
	assert.Nil(t, ft.calls[1].Session)
}

func TestGateway_ForwardAuthenticated(t *testing.T) {
	clk := newClock()
	ft := &fakeTransport{fn: upstream()}
	gw := newTestGateway(clk, ft)

	_, err := gw.ForwardAuthenticated(context.Background(), leetcode.UserStatusRequest())
	var authErr *leetcode.AuthExpiredError
	require.True(t, errors.As(err, &authErr))
	assert.Equal(t, 0, ft.count(""))

	require.NoError(t, gw.Sessions().Set(leetcode.Session{ID: "sid", CSRFToken: "tok"}))
	resp, err := gw.ForwardAuthenticated(context.Background(), leetcode.UserStatusRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Data)

	ft.setFn(func(leetcode.Request, *leetcode.Session) (*leetcode.RawResponse, error) {
		return nil, &leetcode.HTTPError{Status: http.StatusUnauthorized}
	})
	gw.Purge()
	_, err = gw.ForwardAuthenticated(context.Background(), leetcode.UserStatusRequest())
	require.True(t, errors.As(err, &authErr))
	assert.Equal(t, http.StatusUnauthorized, authErr.Status)
	assert.Nil(t, gw.Sessions().Current())
}

func TestGateway_SessionsDoNotShareCacheEntries(t *testing.T) {
	clk := newClock()
	ft := &fakeTransport{fn: upstream("alice")}
	gw := newTestGateway(clk, ft)
	ctx := context.Background()

	_, err := gw.Forward(ctx, leetcode.UserProfileRequest("alice"))
	require.NoError(t, err)
	require.NoError(t, gw.Sessions().Set(leetcode.Session{ID: "sid", CSRFToken: "tok"}))
	_, err = gw.Forward(ctx, leetcode.UserProfileRequest("alice"))
	require.NoError(t, err)

	assert.Equal(t, 2, ft.count(""))
}

func TestGateway_TransportFallthrough(t *testing.T) {
	t.Run("network error moves to next transport", func(t *testing.T) {
		first := &fakeTransport{fn: down}
		second := &fakeTransport{fn: upstream("alice")}
		gw := newTestGateway(newClock(), first, second)

		resp, err := gw.Forward(context.Background(), leetcode.UserProfileRequest("alice"))
		require.NoError(t, err)
		assert.NotEmpty(t, resp.Data)
		assert.Equal(t, 1, first.count(""))
		assert.Equal(t, 1, second.count(""))
	})

	t.Run("http error is final", func(t *testing.T) {
		first := &fakeTransport{fn: func(leetcode.Request, *leetcode.Session) (*leetcode.RawResponse, error) {
			return nil, &leetcode.HTTPError{Status: http.StatusInternalServerError}
		}}
		second := &fakeTransport{fn: upstream("alice")}
		gw := newTestGateway(newClock(), first, second)

		_, err := gw.Forward(context.Background(), leetcode.UserProfileRequest("alice"))
		var httpErr *leetcode.HTTPError
		require.True(t, errors.As(err, &httpErr))
		assert.Equal(t, 0, second.count(""))
	})

	t.Run("every transport down", func(t *testing.T) {
		gw := newTestGateway(newClock(), &fakeTransport{fn: down}, &fakeTransport{fn: down})
		_, err := gw.Forward(context.Background(), leetcode.UserProfileRequest("alice"))
		var netErr *leetcode.NetworkError
		assert.True(t, errors.As(err, &netErr))
	})

	t.Run("no transports", func(t *testing.T) {
		gw := newTestGateway(newClock())
		_, err := gw.Forward(context.Background(), leetcode.UserProfileRequest("alice"))
		var unavailable *leetcode.UnavailableError
		assert.True(t, errors.As(err, &unavailable))
	})
}

func TestGateway_CallerDeadline(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	ft := &fakeTransport{fn: func(req leetcode.Request, sess *leetcode.Session) (*leetcode.RawResponse, error) {
		<-release
		return upstream("alice")(req, sess)
	}}
	gw := newTestGateway(newClock(), ft)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := gw.Forward(ctx, leetcode.UserProfileRequest("alice"))

	var timeout *leetcode.TimeoutError
	assert.True(t, errors.As(err, &timeout))
}
