// Package auth owns the bearer token lifecycle on the client: acquiring it
// at login, persisting it in local storage, reading it fresh for each
// request, and discarding it on logout. The token itself is an opaque
// capability; it is never parsed or validated locally.
package auth

import (
	"context"
	"errors"
	"fmt"

	"shopfront/internal/api"
	"shopfront/internal/logging"
	"shopfront/internal/storage"
)

// Store is the slice of local storage the manager needs.
type Store interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(key string) error
}

// Manager tracks the shopper's authentication state.
type Manager struct {
	store  Store
	client *api.Client
}

// NewManager returns a manager backed by the given storage and API client.
func NewManager(store Store, client *api.Client) *Manager {
	return &Manager{store: store, client: client}
}

// Token reads the bearer token from storage at call time. This is the
// TokenSource wired into the request identity; it must stay a fresh read so
// a token revoked mid-session is never replayed from a cached copy.
func (m *Manager) Token() (string, bool) {
	tok, ok, err := m.store.Get(storage.KeyToken)
	if err != nil {
		logging.Session("Failed to read token: %v", err)
		return "", false
	}
	return tok, ok && tok != ""
}

// IsAuthenticated reports whether a bearer token is currently persisted.
func (m *Manager) IsAuthenticated() bool {
	_, ok := m.Token()
	return ok
}

// Login authenticates, persists the returned token, and fetches the
// profile. A token that does not yield a profile is discarded immediately.
func (m *Manager) Login(ctx context.Context, username, password string) (api.User, error) {
	result, err := m.client.Login(ctx, username, password)
	if err != nil {
		return api.User{}, err
	}
	if err := m.store.Set(storage.KeyToken, result.Token); err != nil {
		return api.User{}, fmt.Errorf("failed to persist token: %w", err)
	}
	logging.Session("Logged in as user %d", result.UserID)

	user, err := m.client.Me(ctx)
	if err != nil {
		_ = m.store.Delete(storage.KeyToken)
		return api.User{}, err
	}
	return user, nil
}

// Register creates a new account. It does not log the shopper in.
func (m *Manager) Register(ctx context.Context, username, password string) error {
	return m.client.Register(ctx, username, password)
}

// Logout discards the persisted token. The anonymous session identifier is
// deliberately left in place so the shopper falls back to their guest cart.
func (m *Manager) Logout() error {
	if err := m.store.Delete(storage.KeyToken); err != nil {
		return fmt.Errorf("failed to discard token: %w", err)
	}
	logging.Session("Logged out")
	return nil
}

// CurrentUser fetches the profile for the persisted token. A rejected token
// is discarded, mirroring the logout-on-failed-profile behavior of the web
// client.
func (m *Manager) CurrentUser(ctx context.Context) (api.User, error) {
	if !m.IsAuthenticated() {
		return api.User{}, &api.ValidationError{Msg: "not signed in"}
	}
	user, err := m.client.Me(ctx)
	if err != nil {
		var apiErr *api.APIError
		if errors.As(err, &apiErr) {
			logging.Session("Stored token rejected (%d), discarding", apiErr.Status)
			_ = m.store.Delete(storage.KeyToken)
		}
		return api.User{}, err
	}
	return user, nil
}
