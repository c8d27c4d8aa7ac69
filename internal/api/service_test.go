package api

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"leetcode-dash/internal/leetcode"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type serviceFixture struct {
	clk   *clock
	ft    *fakeTransport
	gw    *Gateway
	store *memStore
	svc   *UserService
}

func newServiceFixture(t *testing.T, mock bool, known ...string) *serviceFixture {
	t.Helper()
	clk := newClock()
	ft := &fakeTransport{fn: upstream(known...)}
	gw := newTestGateway(clk, ft)
	st := newMemStore()
	svc := NewUserService(ServiceConfig{
		Gateway:      gw,
		Sessions:     gw.Sessions(),
		Store:        st,
		RecentLimit:  5,
		MockFallback: mock,
		Now:          clk.Now,
	})
	return &serviceFixture{clk: clk, ft: ft, gw: gw, store: st, svc: svc}
}

func TestFetchUserData_Success(t *testing.T) {
	f := newServiceFixture(t, false, "alice")

	res, err := f.svc.FetchUserData(context.Background(), "alice")
	require.NoError(t, err)
	assert.False(t, res.Stale)
	assert.Equal(t, "alice", res.Data.Profile.Username)
	assert.Equal(t, 60.0, res.Data.Progress.AcceptanceRate)
	require.Len(t, res.Data.RecentSubmissions, 1)

	assert.Equal(t, 1, f.ft.count(leetcode.OpUserProfile))
	assert.Equal(t, 1, f.ft.count(leetcode.OpRecentSubmissions))
	assert.Equal(t, "alice", f.svc.LastUsername(context.Background()))
	assert.Contains(t, f.store.snapshots, "alice")
}

func TestFetchUserData_CaseRetry(t *testing.T) {
	t.Run("lowercase variant succeeds", func(t *testing.T) {
		f := newServiceFixture(t, false, "alice")

		res, err := f.svc.FetchUserData(context.Background(), "Alice")
		require.NoError(t, err)
		assert.Equal(t, "alice", res.Data.Profile.Username)
		assert.Equal(t, []string{"Alice", "alice"}, f.ft.usernames(leetcode.OpUserProfile))
	})

	t.Run("both variants missing", func(t *testing.T) {
		f := newServiceFixture(t, false)

		_, err := f.svc.FetchUserData(context.Background(), "Ghost")
		var nf *leetcode.NotFoundError
		require.True(t, errors.As(err, &nf), "got %v", err)
		assert.Equal(t, "Ghost", nf.Username)
		assert.Equal(t, 2, f.ft.count(leetcode.OpUserProfile))
	})

	t.Run("already lowercase is not retried", func(t *testing.T) {
		f := newServiceFixture(t, false)

		_, err := f.svc.FetchUserData(context.Background(), "ghost")
		var nf *leetcode.NotFoundError
		require.True(t, errors.As(err, &nf))
		assert.Equal(t, 1, f.ft.count(leetcode.OpUserProfile))
	})
}

func TestFetchUserData_InvalidUsername(t *testing.T) {
	f := newServiceFixture(t, false)

	for _, name := range []string{"", "   ", "bad name!", "a/b"} {
		_, err := f.svc.FetchUserData(context.Background(), name)
		var ve *ValidationError
		assert.True(t, errors.As(err, &ve), "%q: got %v", name, err)
	}
	assert.Equal(t, 0, f.ft.count(""))
}

func TestFetchUserData_StaleFallback(t *testing.T) {
	f := newServiceFixture(t, false, "alice")
	ctx := context.Background()

	fresh, err := f.svc.FetchUserData(ctx, "alice")
	require.NoError(t, err)

	f.clk.Advance(10 * time.Minute)
	f.ft.setFn(down)

	res, err := f.svc.FetchUserData(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, res.Stale)
	assert.Equal(t, fresh.FetchedAt, res.FetchedAt)
	assert.Equal(t, fresh.Data.Progress, res.Data.Progress)
	assert.NotEmpty(t, res.LastError)
}

func TestFetchUserData_StaleFromStore(t *testing.T) {
	f := newServiceFixture(t, false, "alice")
	ctx := context.Background()

	_, err := f.svc.FetchUserData(ctx, "alice")
	require.NoError(t, err)

	// a restarted process only has the persisted snapshot
	restarted := NewUserService(ServiceConfig{
		Gateway: newTestGateway(f.clk, &fakeTransport{fn: down}),
		Store:   f.store,
		Now:     f.clk.Now,
	})
	res, err := restarted.FetchUserData(ctx, "ALICE")
	require.NoError(t, err)
	assert.True(t, res.Stale)
	assert.Equal(t, 120, res.Data.Progress.TotalSolved)
}

func TestFetchUserData_NotFoundIsNeverMasked(t *testing.T) {
	f := newServiceFixture(t, true, "alice")
	ctx := context.Background()

	_, err := f.svc.FetchUserData(ctx, "alice")
	require.NoError(t, err)

	f.clk.Advance(10 * time.Minute)
	f.ft.setFn(upstream())

	_, err = f.svc.FetchUserData(ctx, "alice")
	var nf *leetcode.NotFoundError
	assert.True(t, errors.As(err, &nf), "got %v", err)
}

func TestFetchUserData_RejectedRequestIsNotMasked(t *testing.T) {
	f := newServiceFixture(t, true, "alice")
	ctx := context.Background()

	_, err := f.svc.FetchUserData(ctx, "alice")
	require.NoError(t, err)

	f.clk.Advance(10 * time.Minute)
	f.ft.setFn(func(leetcode.Request, *leetcode.Session) (*leetcode.RawResponse, error) {
		return nil, &leetcode.HTTPError{Status: http.StatusBadRequest, Body: "bad query"}
	})

	res, err := f.svc.FetchUserData(ctx, "alice")
	assert.Nil(t, res)
	var httpErr *leetcode.HTTPError
	require.True(t, errors.As(err, &httpErr), "got %v", err)
	assert.Equal(t, http.StatusBadRequest, httpErr.Status)
}

func TestFetchUserData_NoSnapshot(t *testing.T) {
	f := newServiceFixture(t, false)
	f.ft.setFn(down)

	_, err := f.svc.FetchUserData(context.Background(), "alice")
	var unavailable *leetcode.UnavailableError
	assert.True(t, errors.As(err, &unavailable), "got %v", err)
}

func TestFetchUserData_MockFallback(t *testing.T) {
	f := newServiceFixture(t, true)
	f.ft.setFn(down)

	res, err := f.svc.FetchUserData(context.Background(), "alice")
	require.NoError(t, err)
	assert.True(t, res.Mock)
	assert.True(t, res.Stale)
	assert.Equal(t, "alice", res.Data.Profile.Username)
}

func TestFetchUserData_SubmissionsFailureKeepsProfile(t *testing.T) {
	f := newServiceFixture(t, false)
	f.ft.setFn(func(req leetcode.Request, sess *leetcode.Session) (*leetcode.RawResponse, error) {
		if req.OperationName == leetcode.OpRecentSubmissions {
			return nil, &leetcode.NetworkError{Err: errors.New("reset")}
		}
		return upstream("alice")(req, sess)
	})

	res, err := f.svc.FetchUserData(context.Background(), "alice")
	require.NoError(t, err)
	assert.False(t, res.Stale)
	assert.Empty(t, res.Data.RecentSubmissions)
}

func TestDaily(t *testing.T) {
	f := newServiceFixture(t, false)
	ctx := context.Background()

	d, err := f.svc.Daily(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Two Sum", d.Title)

	f.clk.Advance(7 * time.Hour)
	f.ft.setFn(down)

	again, err := f.svc.Daily(ctx)
	require.NoError(t, err)
	assert.Equal(t, d, again)

	fresh := newServiceFixture(t, false)
	fresh.ft.setFn(down)
	_, err = fresh.svc.Daily(ctx)
	var unavailable *leetcode.UnavailableError
	assert.True(t, errors.As(err, &unavailable))
}

func TestVerifySession(t *testing.T) {
	f := newServiceFixture(t, false)
	ctx := context.Background()

	_, err := f.svc.VerifySession(ctx)
	var authErr *leetcode.AuthExpiredError
	require.True(t, errors.As(err, &authErr))

	require.NoError(t, f.gw.Sessions().Set(leetcode.Session{ID: "sid", CSRFToken: "tok"}))
	st, err := f.svc.VerifySession(ctx)
	require.NoError(t, err)
	assert.True(t, st.SignedIn)

	f.gw.Purge()
	f.ft.setFn(func(leetcode.Request, *leetcode.Session) (*leetcode.RawResponse, error) {
		return okResponse(`{"userStatus": {"isSignedIn": false, "username": ""}}`), nil
	})
	_, err = f.svc.VerifySession(ctx)
	require.True(t, errors.As(err, &authErr))
	assert.Nil(t, f.gw.Sessions().Current())
}

func TestLogout(t *testing.T) {
	f := newServiceFixture(t, false, "alice")
	ctx := context.Background()

	require.NoError(t, f.gw.Sessions().Set(leetcode.Session{ID: "sid", CSRFToken: "tok"}))
	_, err := f.svc.FetchUserData(ctx, "alice")
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(ctx))
	assert.Nil(t, f.gw.Sessions().Current())
	assert.Equal(t, 1, f.store.resets)
	assert.Empty(t, f.svc.LastUsername(ctx))

	f.ft.setFn(down)
	_, err = f.svc.FetchUserData(ctx, "alice")
	assert.Error(t, err, "no snapshot survives logout")
}

func TestFetchUserData_DocumentedScenario(t *testing.T) {
	f := newServiceFixture(t, false)
	f.ft.setFn(func(req leetcode.Request, sess *leetcode.Session) (*leetcode.RawResponse, error) {
		username, _ := req.Variables["username"].(string)
		if req.OperationName == leetcode.OpUserProfile && username == "Alice123" {
			return errResponse(`null`, "user not found"), nil
		}
		return upstream("alice123")(req, sess)
	})

	res, err := f.svc.FetchUserData(context.Background(), "Alice123")
	require.NoError(t, err)

	p := res.Data.Progress
	assert.Equal(t, 120, p.TotalSolved)
	assert.Equal(t, 60.0, p.AcceptanceRate)
	assert.Equal(t, 80, p.PerDifficulty.Easy.Solved)
	assert.Equal(t, 2, f.ft.count(leetcode.OpUserProfile))
}
