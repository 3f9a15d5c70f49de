// Package session owns the client-side identity facts attached to storefront
// requests: the persistent anonymous session identifier and the policy for
// which identity headers accompany each cart request.
package session

import (
	"fmt"
	"math/rand"
	"net/http"
	"strconv"

	"shopfront/internal/logging"
	"shopfront/internal/storage"
)

// Identity headers understood by the storefront backend.
const (
	HeaderSessionID     = "X-Session-ID"
	HeaderAuthorization = "Authorization"
)

// Store is the slice of local storage the provider needs.
type Store interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
}

// Provider derives the stable anonymous session identifier. The identifier
// is created lazily on first use, persisted, and never rotated; it outlives
// logout so a later guest session keeps its cart.
type Provider struct {
	store Store
}

// NewProvider returns a provider backed by the given local storage.
func NewProvider(store Store) *Provider {
	return &Provider{store: store}
}

// GetOrCreateID returns the persisted session identifier, generating and
// persisting a fresh one if none exists. Idempotent across calls within the
// same profile.
func (p *Provider) GetOrCreateID() (string, error) {
	if id, ok, err := p.store.Get(storage.KeySessionID); err != nil {
		return "", fmt.Errorf("failed to read session id: %w", err)
	} else if ok && id != "" {
		return id, nil
	}

	id := newSessionID()
	if err := p.store.Set(storage.KeySessionID, id); err != nil {
		return "", fmt.Errorf("failed to persist session id: %w", err)
	}
	logging.Session("Created session id %s", id)
	return id, nil
}

// newSessionID builds a correlation key with negligible collision
// probability: two independent random base-36 fragments. It is not a
// credential and carries no security property.
func newSessionID() string {
	return "sess_" + strconv.FormatInt(rand.Int63(), 36) + strconv.FormatInt(rand.Int63(), 36)
}

// TokenSource returns the current bearer token, read fresh from storage at
// call time. Callers must never cache the result across requests; acting on
// a token captured earlier risks sending a revoked credential.
type TokenSource func() (string, bool)

// Identity combines the session provider with the live auth state and
// produces the header set for a cart request.
type Identity struct {
	Sessions *Provider

	// Token reads the bearer token at call time.
	Token TokenSource

	// Authenticated reports whether the shopper is currently signed in.
	Authenticated func() bool
}

// Apply sets the identity headers on h.
//
// The session header is sent on every cart request, authenticated or not, so
// the backend can migrate a guest cart onto the user account on login; the
// client only supplies both identity facts and lets the server reconcile.
// The bearer header is added only when authenticated and a token is present.
func (id Identity) Apply(h http.Header) error {
	sid, err := id.Sessions.GetOrCreateID()
	if err != nil {
		return err
	}
	h.Set(HeaderSessionID, sid)

	if id.Authenticated != nil && id.Authenticated() && id.Token != nil {
		if tok, ok := id.Token(); ok && tok != "" {
			h.Set(HeaderAuthorization, "Bearer "+tok)
		}
	}
	return nil
}
