package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"shopfront/internal/api"
	"shopfront/internal/session"
)

type memStore struct {
	values map[string]string
}

func newMemStore() *memStore {
	return &memStore{values: make(map[string]string)}
}

func (m *memStore) Get(key string) (string, bool, error) {
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *memStore) Set(key, value string) error {
	m.values[key] = value
	return nil
}

func (m *memStore) Delete(key string) error {
	delete(m.values, key)
	return nil
}

func newManager(t *testing.T, store *memStore, handler http.Handler) *Manager {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	var mgr *Manager
	identity := session.Identity{
		Sessions:      session.NewProvider(store),
		Token:         func() (string, bool) { return mgr.Token() },
		Authenticated: func() bool { return mgr.IsAuthenticated() },
	}
	client := api.New(server.URL, identity, api.DefaultConfig())
	mgr = NewManager(store, client)
	return mgr
}

func TestLoginPersistsToken(t *testing.T) {
	store := newMemStore()
	mgr := newManager(t, store, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/users/login":
			w.Write([]byte(`{"token": "tok_9", "user_id": 5}`))
		case "/api/users/me":
			require.Equal(t, "Bearer tok_9", r.Header.Get("Authorization"))
			w.Write([]byte(`{"id": 5, "username": "alice"}`))
		}
	}))

	user, err := mgr.Login(context.Background(), "alice", "pw")
	require.NoError(t, err)
	require.Equal(t, "alice", user.Username)
	require.Equal(t, "tok_9", store.values["token"])
	require.True(t, mgr.IsAuthenticated())
}

func TestLoginDiscardsTokenWhenProfileFails(t *testing.T) {
	store := newMemStore()
	mgr := newManager(t, store, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/users/login":
			w.Write([]byte(`{"token": "tok_bad", "user_id": 5}`))
		case "/api/users/me":
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error": "invalid token"}`))
		}
	}))

	_, err := mgr.Login(context.Background(), "alice", "pw")
	require.Error(t, err)
	require.False(t, mgr.IsAuthenticated())
}

func TestLogoutKeepsSessionID(t *testing.T) {
	store := newMemStore()
	store.values["token"] = "tok_1"
	store.values["session_id"] = "sess_keep"
	mgr := newManager(t, store, http.NotFoundHandler())

	require.NoError(t, mgr.Logout())
	require.False(t, mgr.IsAuthenticated())
	// The anonymous cart key survives logout; only the credential goes.
	require.Equal(t, "sess_keep", store.values["session_id"])
}

func TestCurrentUserWithoutToken(t *testing.T) {
	mgr := newManager(t, newMemStore(), http.NotFoundHandler())

	_, err := mgr.CurrentUser(context.Background())
	var valErr *api.ValidationError
	require.ErrorAs(t, err, &valErr)
}

func TestCurrentUserDiscardsRejectedToken(t *testing.T) {
	store := newMemStore()
	store.values["token"] = "tok_expired"
	mgr := newManager(t, store, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error": "token expired"}`))
	}))

	_, err := mgr.CurrentUser(context.Background())
	require.Error(t, err)
	require.False(t, mgr.IsAuthenticated())
}

func TestTokenReadIsFresh(t *testing.T) {
	store := newMemStore()
	mgr := newManager(t, store, http.NotFoundHandler())

	_, ok := mgr.Token()
	require.False(t, ok)

	// A token written by another call site is visible immediately; nothing
	// is cached in the manager.
	store.values["token"] = "tok_live"
	tok, ok := mgr.Token()
	require.True(t, ok)
	require.Equal(t, "tok_live", tok)
}
