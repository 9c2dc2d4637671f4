package gateway_test

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/go-board-client/auth"
	"github.com/jrsteele09/go-board-client/gateway"
	"github.com/jrsteele09/go-board-client/internal/errors"
	"github.com/jrsteele09/go-board-client/internal/fakeapi"
	"github.com/jrsteele09/go-board-client/internal/metrics"
	"github.com/jrsteele09/go-board-client/navigation"
	"github.com/jrsteele09/go-board-client/sessions"
	sessionrepofake "github.com/jrsteele09/go-board-client/sessions/repofake"
	"github.com/jrsteele09/go-board-client/token/refresh"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

type testFixture struct {
	api         *fakeapi.Server
	repo        *sessionrepofake.FakeSessionRepo
	store       *sessions.Store
	navigator   *navigation.Recorder
	coordinator *refresh.Coordinator
	metrics     *metrics.Metrics
	gateway     *gateway.Gateway
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	api := fakeapi.New()
	t.Cleanup(api.Close)

	m, err := metrics.New(prometheus.NewRegistry())
	require.NoError(t, err)

	repo := sessionrepofake.NewFakeSessionRepo()
	store := sessions.NewStore(repo)
	navigator := &navigation.Recorder{}
	coordinator := refresh.NewCoordinator(store, auth.NewClient(api.BaseURL(), api.Client()), navigator, refresh.WithMetrics(m))

	return &testFixture{
		api:         api,
		repo:        repo,
		store:       store,
		navigator:   navigator,
		coordinator: coordinator,
		metrics:     m,
		gateway:     gateway.New(api.BaseURL(), store, coordinator, gateway.WithHTTPClient(api.Client()), gateway.WithMetrics(m)),
	}
}

func (f *testFixture) login(t *testing.T) (accessToken, refreshToken string) {
	t.Helper()
	f.api.AddUser("kim@example.com", "Kim", "passw0rd!")
	accessToken, refreshToken = f.api.IssuePair("kim@example.com", "Kim")
	require.NoError(t, f.store.SetAuth(accessToken, refreshToken))
	return accessToken, refreshToken
}

func listBoards() *gateway.Request {
	return &gateway.Request{Method: http.MethodGet, Path: "/boards"}
}

func TestAttachesBearerToken(t *testing.T) {
	f := setupTestFixture(t)
	access, _ := f.login(t)
	f.api.SeedBoards(3)

	resp, err := f.gateway.Do(context.Background(), listBoards())
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	seen := f.api.Requests("/boards")
	require.Len(t, seen, 1)
	require.Equal(t, "Bearer "+access, seen[0].Authorization)
	require.NotEmpty(t, seen[0].RequestID)
	require.Equal(t, 0, f.api.RefreshCalls())
}

func TestDoJSONDecodesBody(t *testing.T) {
	f := setupTestFixture(t)
	f.login(t)
	f.api.SeedBoards(12)

	var page struct {
		Content       []map[string]any `json:"content"`
		TotalElements int64            `json:"totalElements"`
	}
	req := listBoards()
	req.Query = map[string][]string{"page": {"1"}, "size": {"10"}}
	require.NoError(t, f.gateway.DoJSON(context.Background(), req, &page))
	require.Len(t, page.Content, 2)
	require.EqualValues(t, 12, page.TotalElements)
}

func TestRefreshesAndReplaysOnce(t *testing.T) {
	f := setupTestFixture(t)
	oldAccess, oldRefresh := f.login(t)
	f.api.ExpireAccessTokens()

	resp, err := f.gateway.Do(context.Background(), listBoards())
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	seen := f.api.Requests("/boards")
	require.Len(t, seen, 2)
	require.Equal(t, "Bearer "+oldAccess, seen[0].Authorization)
	require.Equal(t, "Bearer "+f.store.AccessToken(), seen[1].Authorization)
	require.NotEqual(t, seen[0].Authorization, seen[1].Authorization)
	require.Equal(t, seen[0].RequestID, seen[1].RequestID)

	require.Equal(t, []string{oldRefresh}, f.api.RefreshTokensSeen())
	require.NotEqual(t, oldRefresh, f.store.RefreshToken())
	require.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Replays))
	require.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Requests.WithLabelValues(http.MethodGet, "401")))
	require.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Requests.WithLabelValues(http.MethodGet, "200")))
}

func TestConcurrentUnauthorizedShareOneRefresh(t *testing.T) {
	f := setupTestFixture(t)
	f.login(t)
	f.api.SeedBoards(1)
	f.api.ExpireAccessTokens()
	release := f.api.HoldRefresh()
	defer release()

	const callers = 5
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.gateway.Do(context.Background(), listBoards())
		}(i)
	}

	require.Eventually(t, func() bool {
		return f.api.RefreshCalls() == 1 && f.coordinator.Pending() == callers-1
	}, 5*time.Second, 5*time.Millisecond)
	release()
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	require.Equal(t, 1, f.api.RefreshCalls())
	require.Len(t, f.api.Requests("/boards"), 2*callers)
	require.Equal(t, refresh.Idle, f.coordinator.State())
	require.Equal(t, 0, f.navigator.Calls())
}

func TestRefreshFailureEndsSession(t *testing.T) {
	f := setupTestFixture(t)
	f.login(t)
	f.api.ExpireAccessTokens()
	f.api.FailRefresh(true)
	release := f.api.HoldRefresh()
	defer release()

	const callers = 3
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.gateway.Do(context.Background(), listBoards())
		}(i)
	}

	require.Eventually(t, func() bool {
		return f.api.RefreshCalls() == 1 && f.coordinator.Pending() == callers-1
	}, 5*time.Second, 5*time.Millisecond)
	release()
	wg.Wait()

	for _, err := range errs {
		require.Error(t, err)
		require.True(t, errors.IsUnauthorized(err))
	}
	require.Equal(t, 1, f.api.RefreshCalls())
	require.Len(t, f.api.Requests("/boards"), callers)
	require.False(t, f.store.IsAuthenticated())
	require.False(t, f.repo.Present())
	require.Equal(t, 1, f.navigator.Calls())
	require.ErrorIs(t, f.navigator.Reasons()[0], errors.ErrRefreshFailed)
}

func TestReplayRejectedIsNotRetriedAgain(t *testing.T) {
	f := setupTestFixture(t)
	f.login(t)
	f.api.RejectAll(true)

	_, err := f.gateway.Do(context.Background(), listBoards())
	require.Error(t, err)
	require.True(t, errors.IsUnauthorized(err))

	require.Len(t, f.api.Requests("/boards"), 2)
	require.Equal(t, 1, f.api.RefreshCalls())
	require.True(t, f.store.IsAuthenticated())
	require.Equal(t, 0, f.navigator.Calls())
	require.Equal(t, 2.0, testutil.ToFloat64(f.metrics.Unauthorized))
}

func TestOtherErrorsAreNotRetried(t *testing.T) {
	f := setupTestFixture(t)
	f.login(t)

	_, err := f.gateway.Do(context.Background(), &gateway.Request{Method: http.MethodGet, Path: "/boards/999"})
	require.ErrorIs(t, err, errors.ErrNotFound)

	var se *errors.StatusError
	require.True(t, errors.As(err, &se))
	require.Equal(t, http.StatusNotFound, se.StatusCode)
	require.Contains(t, string(se.Body), "board not found")

	require.Len(t, f.api.Requests("/boards/999"), 1)
	require.Equal(t, 0, f.api.RefreshCalls())
}

type countingRefresher struct {
	calls int
}

func (r *countingRefresher) Acquire(context.Context, string) (string, error) {
	r.calls++
	return "unused", nil
}

func TestTransportErrorIsNotRetried(t *testing.T) {
	api := fakeapi.New()
	baseURL := api.BaseURL()
	api.Close()

	refresher := &countingRefresher{}
	gw := gateway.New(baseURL, staticToken("token"), refresher)

	_, err := gw.Do(context.Background(), listBoards())
	require.Error(t, err)
	require.False(t, errors.IsUnauthorized(err))
	require.Equal(t, 0, refresher.calls)
}

type staticToken string

func (s staticToken) AccessToken() string { return string(s) }

func TestLoggedOutSendsNoAuthorization(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.gateway.Do(context.Background(), listBoards())
	require.True(t, errors.IsUnauthorized(err))

	seen := f.api.Requests("/boards")
	require.Len(t, seen, 1)
	require.Empty(t, seen[0].Authorization)
	require.Equal(t, 0, f.api.RefreshCalls())
	require.Equal(t, 1, f.navigator.Calls())
	require.ErrorIs(t, f.navigator.Reasons()[0], errors.ErrNoRefreshToken)
}

func TestCancelledCallerGetsContextError(t *testing.T) {
	f := setupTestFixture(t)
	f.login(t)
	f.api.ExpireAccessTokens()
	release := f.api.HoldRefresh()
	defer release()

	driverDone := make(chan error, 1)
	go func() {
		_, err := f.gateway.Do(context.Background(), listBoards())
		driverDone <- err
	}()
	require.Eventually(t, func() bool { return f.api.RefreshCalls() == 1 }, 5*time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	waiterDone := make(chan error, 1)
	go func() {
		_, err := f.gateway.Do(ctx, listBoards())
		waiterDone <- err
	}()
	require.Eventually(t, func() bool { return f.coordinator.Pending() == 1 }, 5*time.Second, 5*time.Millisecond)

	cancel()
	require.ErrorIs(t, <-waiterDone, context.Canceled)

	release()
	require.NoError(t, <-driverDone)
	require.Equal(t, 1, f.api.RefreshCalls())
}

func TestNewJSONRequest(t *testing.T) {
	req, err := gateway.NewJSONRequest(http.MethodPost, "/auth/signin", map[string]string{"username": "kim"})
	require.NoError(t, err)
	require.Equal(t, "application/json", req.ContentType)
	require.JSONEq(t, `{"username":"kim"}`, string(req.Body))

	req, err = gateway.NewJSONRequest(http.MethodGet, "/boards", nil)
	require.NoError(t, err)
	require.Nil(t, req.Body)
	require.Empty(t, req.ContentType)

	_, err = gateway.NewJSONRequest(http.MethodPost, "/x", make(chan int))
	require.Error(t, err)
}
