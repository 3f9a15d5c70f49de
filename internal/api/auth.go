package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"shopfront/internal/cart"
)

// User is the profile record returned by the backend.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// LoginResult carries the credentials returned on a successful login.
type LoginResult struct {
	Token  string `json:"token"`
	UserID int64  `json:"user_id"`
}

// Login authenticates with the backend and returns the bearer token.
// Persisting the token is the auth manager's job, not the client's.
func (c *Client) Login(ctx context.Context, username, password string) (LoginResult, error) {
	payload := map[string]string{
		"username": strings.TrimSpace(username),
		"password": password,
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/api/users/login", payload)
	if err != nil {
		return LoginResult{}, err
	}

	status, body, err := c.do(req)
	if err != nil {
		return LoginResult{}, err
	}
	if err := classify(status, body); err != nil {
		return LoginResult{}, err
	}

	var result LoginResult
	if err := json.Unmarshal(body, &result); err != nil {
		return LoginResult{}, fmt.Errorf("%w: login response: %v", cart.ErrMalformed, err)
	}
	if result.Token == "" {
		return LoginResult{}, fmt.Errorf("%w: login response carried no token", cart.ErrMalformed)
	}
	return result, nil
}

// Register creates a new account. The backend's sparse error envelopes get
// status-specific fallbacks so the user always sees something actionable.
func (c *Client) Register(ctx context.Context, username, password string) error {
	payload := map[string]string{
		"username": strings.TrimSpace(username),
		"password": password,
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/api/users", payload)
	if err != nil {
		return err
	}

	status, body, err := c.do(req)
	if err != nil {
		return err
	}
	err = classify(status, body)
	if apiErr, ok := err.(*APIError); ok && apiErr.Message == "" {
		switch apiErr.Status {
		case http.StatusConflict:
			apiErr.Message = "Username already exists. Please choose a different username."
		case http.StatusBadRequest:
			apiErr.Message = "Invalid request. Please check your input and try again."
		}
	}
	return err
}

// Me fetches the authenticated shopper's profile. Requires a bearer token.
func (c *Client) Me(ctx context.Context) (User, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/users/me", nil)
	if err != nil {
		return User{}, err
	}
	c.bearer(req.Header)

	status, body, err := c.do(req)
	if err != nil {
		return User{}, err
	}
	if err := classify(status, body); err != nil {
		return User{}, err
	}

	var user User
	if err := json.Unmarshal(body, &user); err != nil {
		return User{}, fmt.Errorf("%w: profile response: %v", cart.ErrMalformed, err)
	}
	return user, nil
}
