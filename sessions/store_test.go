package sessions_test

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/go-board-client/internal/errors"
	"github.com/jrsteele09/go-board-client/sessions"
	sessionrepofake "github.com/jrsteele09/go-board-client/sessions/repofake"
	"github.com/jrsteele09/go-board-client/token/jwt"
	"github.com/stretchr/testify/require"
)

func unsignedToken(payload string) string {
	return "eyJhbGciOiJIUzI1NiJ9." + base64.RawURLEncoding.EncodeToString([]byte(payload)) + ".sig"
}

func signedToken(t *testing.T, username, name string) string {
	t.Helper()
	token, err := jwt.NewCreator([]byte("test-secret")).CreateAccessToken(jwt.Identity{Username: username, DisplayName: name}, time.Hour)
	require.NoError(t, err)
	return token
}

func TestSetAuthDerivesIdentity(t *testing.T) {
	repo := sessionrepofake.NewFakeSessionRepo()
	store := sessions.NewStore(repo)

	err := store.SetAuth(unsignedToken(`{"username":"u@x.com","name":"U"}`), "rt1")
	require.NoError(t, err)

	require.True(t, store.IsAuthenticated())
	require.Equal(t, &jwt.Identity{Username: "u@x.com", DisplayName: "U"}, store.User())
	require.Equal(t, "rt1", store.RefreshToken())
}

func TestSetAuthUsernameMatchesToken(t *testing.T) {
	store := sessions.NewStore(sessionrepofake.NewFakeSessionRepo())
	for _, username := range []string{"a@example.com", "park@example.kr", "x"} {
		require.NoError(t, store.SetAuth(signedToken(t, username, "Name"), "refresh-"+username))
		require.True(t, store.IsAuthenticated())
		require.Equal(t, username, store.User().Username)
	}
}

func TestSetAuthMalformedTokenStillStored(t *testing.T) {
	repo := sessionrepofake.NewFakeSessionRepo()
	store := sessions.NewStore(repo)

	require.NoError(t, store.SetAuth("not-a-jwt", "rt1"))
	require.True(t, store.IsAuthenticated())
	require.Nil(t, store.User())
	require.Equal(t, "not-a-jwt", store.AccessToken())

	reloaded := sessions.NewStore(repo)
	require.Equal(t, "not-a-jwt", reloaded.AccessToken())
	require.Equal(t, "rt1", reloaded.RefreshToken())
}

func TestSetAuthRequiresBothTokens(t *testing.T) {
	store := sessions.NewStore(sessionrepofake.NewFakeSessionRepo())
	require.ErrorIs(t, store.SetAuth("", "rt"), errors.ErrInvalidToken)
	require.ErrorIs(t, store.SetAuth("at", ""), errors.ErrInvalidToken)
	require.False(t, store.IsAuthenticated())
}

func TestSetAuthPersistFailureLeavesMemoryUntouched(t *testing.T) {
	repo := sessionrepofake.NewFakeSessionRepo()
	store := sessions.NewStore(repo)
	require.NoError(t, store.SetAuth(signedToken(t, "old@example.com", "Old"), "rt-old"))

	repo.PutErr = fmt.Errorf("disk full")
	err := store.SetAuth(signedToken(t, "new@example.com", "New"), "rt-new")
	require.Error(t, err)

	require.Equal(t, "rt-old", store.RefreshToken())
	require.Equal(t, "old@example.com", store.User().Username)
}

func TestPersistedSlotFormat(t *testing.T) {
	repo := sessionrepofake.NewFakeSessionRepo()
	store := sessions.NewStore(repo)
	require.NoError(t, store.SetAuth("at", "rt"))

	data, err := repo.Get()
	require.NoError(t, err)
	var slot map[string]string
	require.NoError(t, json.Unmarshal(data, &slot))
	require.Equal(t, map[string]string{"accessToken": "at", "refreshToken": "rt"}, slot)
}

func TestLoadRestoresSession(t *testing.T) {
	token := signedToken(t, "kim@example.com", "Kim")
	data, err := json.Marshal(map[string]string{"accessToken": token, "refreshToken": "rt"})
	require.NoError(t, err)

	store := sessions.NewStore(sessionrepofake.NewFakeSessionRepoWith(data))
	require.True(t, store.IsAuthenticated())
	require.Equal(t, "kim@example.com", store.User().Username)
	require.Equal(t, "rt", store.RefreshToken())
}

func TestLoadInvalidPersistedState(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "invalid json", data: "{not json"},
		{name: "wrong shape", data: `["a","b"]`},
		{name: "missing refresh token", data: `{"accessToken":"at"}`},
		{name: "missing access token", data: `{"refreshToken":"rt"}`},
		{name: "empty object", data: `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var store *sessions.Store
			require.NotPanics(t, func() {
				store = sessions.NewStore(sessionrepofake.NewFakeSessionRepoWith([]byte(tt.data)))
			})
			require.Equal(t, sessions.Session{}, store.Load())
			require.Equal(t, sessions.Session{}, store.Snapshot())
			require.False(t, store.IsAuthenticated())
		})
	}
}

func TestLoadEmptyRepo(t *testing.T) {
	store := sessions.NewStore(sessionrepofake.NewFakeSessionRepo())
	require.Equal(t, sessions.Session{}, store.Load())
	require.False(t, store.IsAuthenticated())
}

func TestLogoutClearsMemoryAndSlot(t *testing.T) {
	repo := sessionrepofake.NewFakeSessionRepo()
	store := sessions.NewStore(repo)
	require.NoError(t, store.SetAuth(signedToken(t, "a@b.c", "A"), "rt"))
	require.True(t, repo.Present())

	require.NoError(t, store.Logout())
	require.False(t, repo.Present())
	require.Equal(t, sessions.Session{}, store.Snapshot())
	require.False(t, store.IsAuthenticated())
}

func TestLogoutClearsMemoryWhenSlotDeleteFails(t *testing.T) {
	repo := sessionrepofake.NewFakeSessionRepo()
	store := sessions.NewStore(repo)
	require.NoError(t, store.SetAuth(signedToken(t, "a@b.c", "A"), "rt"))

	var seen []sessions.Session
	store.Subscribe(func(s sessions.Session) { seen = append(seen, s) })

	repo.DeleteErr = fmt.Errorf("permission denied")
	err := store.Logout()
	require.Error(t, err)
	require.Contains(t, err.Error(), "permission denied")

	require.False(t, store.IsAuthenticated())
	require.Equal(t, sessions.Session{}, store.Snapshot())
	require.Equal(t, []sessions.Session{{}}, seen)
}

func TestLogoutIdempotent(t *testing.T) {
	repo := sessionrepofake.NewFakeSessionRepo()
	store := sessions.NewStore(repo)

	calls := 0
	store.Subscribe(func(sessions.Session) { calls++ })

	require.NoError(t, store.Logout())
	require.NoError(t, store.Logout())
	require.Equal(t, sessions.Session{}, store.Snapshot())
	require.False(t, repo.Present())
	require.Zero(t, calls)
}

func TestTokenSource(t *testing.T) {
	store := sessions.NewStore(sessionrepofake.NewFakeSessionRepo())

	_, err := store.Token()
	require.ErrorIs(t, err, errors.ErrNotAuthenticated)

	access := signedToken(t, "a@b.c", "A")
	require.NoError(t, store.SetAuth(access, "rt"))

	tok, err := store.Token()
	require.NoError(t, err)
	require.Equal(t, access, tok.AccessToken)
	require.Equal(t, "rt", tok.RefreshToken)
	require.Equal(t, "Bearer", tok.Type())
	require.WithinDuration(t, time.Now().Add(time.Hour), tok.Expiry, 5*time.Second)
}

func TestSubscribePropagatesIdentity(t *testing.T) {
	store := sessions.NewStore(sessionrepofake.NewFakeSessionRepo())

	var seen []string
	unsubscribe := store.Subscribe(func(s sessions.Session) {
		if s.User == nil {
			seen = append(seen, "<none>")
			return
		}
		seen = append(seen, s.User.Username)
	})

	require.NoError(t, store.SetAuth(signedToken(t, "a@b.c", "A"), "rt"))
	require.NoError(t, store.Logout())
	unsubscribe()
	require.NoError(t, store.SetAuth(signedToken(t, "c@d.e", "C"), "rt"))

	require.Equal(t, []string{"a@b.c", "<none>"}, seen)
}

func TestListenerCanReadStore(t *testing.T) {
	store := sessions.NewStore(sessionrepofake.NewFakeSessionRepo())
	var authenticated bool
	store.Subscribe(func(sessions.Session) { authenticated = store.IsAuthenticated() })

	require.NoError(t, store.SetAuth("at", "rt"))
	require.True(t, authenticated)
}

func TestConcurrentSetAuthKeepsPairsTogether(t *testing.T) {
	store := sessions.NewStore(sessionrepofake.NewFakeSessionRepo())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := store.SetAuth(fmt.Sprintf("at-%d", i), fmt.Sprintf("rt-%d", i)); err != nil {
				t.Error(err)
			}
		}(i)
	}
	wg.Wait()

	s := store.Snapshot()
	require.Equal(t, "rt-"+s.AccessToken[len("at-"):], s.RefreshToken)
	reloaded := store.Load()
	require.Equal(t, s.AccessToken, reloaded.AccessToken)
	require.Equal(t, s.RefreshToken, reloaded.RefreshToken)
}
