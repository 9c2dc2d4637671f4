package auth_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/jrsteele09/go-board-client/auth"
	"github.com/jrsteele09/go-board-client/internal/errors"
	"github.com/jrsteele09/go-board-client/internal/fakeapi"
	"github.com/jrsteele09/go-board-client/sessions"
	sessionrepofake "github.com/jrsteele09/go-board-client/sessions/repofake"
	"github.com/stretchr/testify/require"
)

const (
	testUsername = "kim@example.com"
	testName     = "Kim"
	testPassword = "passw0rd!"
)

type testFixture struct {
	api     *fakeapi.Server
	repo    *sessionrepofake.FakeSessionRepo
	store   *sessions.Store
	client  *auth.Client
	service *auth.Service
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	api := fakeapi.New()
	t.Cleanup(api.Close)

	repo := sessionrepofake.NewFakeSessionRepo()
	store := sessions.NewStore(repo)
	client := auth.NewClient(api.BaseURL(), api.Client())

	return &testFixture{
		api:     api,
		repo:    repo,
		store:   store,
		client:  client,
		service: auth.NewService(client, store),
	}
}

func TestSignupThenLogin(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	err := f.service.Signup(ctx, auth.SignupRequest{Username: testUsername, Name: testName, Password: testPassword, ConfirmPassword: testPassword})
	require.NoError(t, err)
	require.False(t, f.store.IsAuthenticated())

	user, err := f.service.Login(ctx, testUsername, testPassword)
	require.NoError(t, err)
	require.Equal(t, testUsername, user.Username)
	require.Equal(t, testName, user.DisplayName)
	require.True(t, f.store.IsAuthenticated())
	require.True(t, f.repo.Present())
	require.Equal(t, user, f.service.CurrentUser())
}

func TestSignupDuplicate(t *testing.T) {
	f := setupTestFixture(t)
	f.api.AddUser(testUsername, testName, testPassword)

	err := f.service.Signup(context.Background(), auth.SignupRequest{Username: testUsername, Name: testName, Password: testPassword, ConfirmPassword: testPassword})
	var se *errors.StatusError
	require.True(t, errors.As(err, &se))
	require.Equal(t, http.StatusConflict, se.StatusCode)
}

func TestSignupMismatchNeverReachesServer(t *testing.T) {
	f := setupTestFixture(t)

	err := f.service.Signup(context.Background(), auth.SignupRequest{Username: testUsername, Name: testName, Password: testPassword, ConfirmPassword: "other0rd!"})
	require.ErrorIs(t, err, errors.ErrPasswordMismatch)
	require.Empty(t, f.api.Requests(auth.RouteSignup))
}

func TestLoginInvalidCredentials(t *testing.T) {
	f := setupTestFixture(t)
	f.api.AddUser(testUsername, testName, testPassword)

	_, err := f.service.Login(context.Background(), testUsername, "wrong0rd!")
	require.ErrorIs(t, err, errors.ErrInvalidCredentials)
	require.False(t, f.store.IsAuthenticated())
	require.False(t, f.repo.Present())
}

func TestLogout(t *testing.T) {
	f := setupTestFixture(t)
	f.api.AddUser(testUsername, testName, testPassword)

	_, err := f.service.Login(context.Background(), testUsername, testPassword)
	require.NoError(t, err)

	require.NoError(t, f.service.Logout())
	require.False(t, f.store.IsAuthenticated())
	require.Nil(t, f.service.CurrentUser())
	require.NoError(t, f.service.Logout())
}

func TestExchangeRotatesRefreshToken(t *testing.T) {
	f := setupTestFixture(t)
	f.api.AddUser(testUsername, testName, testPassword)
	_, refreshToken := f.api.IssuePair(testUsername, testName)

	pair, err := f.client.Exchange(context.Background(), refreshToken)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEqual(t, refreshToken, pair.RefreshToken)

	_, err = f.client.Exchange(context.Background(), refreshToken)
	require.True(t, errors.IsUnauthorized(err))
	require.Equal(t, []string{refreshToken, refreshToken}, f.api.RefreshTokensSeen())
}
