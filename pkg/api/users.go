package api

import (
	"context"
	"net/http"
)

type userEnvelope struct {
	User User `json:"user"`
}

// Credentials identify an existing account.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration creates a new account.
type Registration struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserUpdate is a partial account update; zero-valued fields are omitted.
type UserUpdate struct {
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	Bio      string `json:"bio,omitempty"`
	Image    string `json:"image,omitempty"`
	Password string `json:"password,omitempty"`
}

// Login exchanges credentials for a user with a fresh token.
func (c *Client) Login(ctx context.Context, creds Credentials) (User, error) {
	var out userEnvelope
	err := c.do(ctx, "login", http.MethodPost, "/users/login", map[string]Credentials{"user": creds}, &out)
	return out.User, err
}

// Register creates an account and returns the authenticated user.
func (c *Client) Register(ctx context.Context, reg Registration) (User, error) {
	var out userEnvelope
	err := c.do(ctx, "register", http.MethodPost, "/users", map[string]Registration{"user": reg}, &out)
	return out.User, err
}

// CurrentUser fetches the account behind the attached token.
func (c *Client) CurrentUser(ctx context.Context) (User, error) {
	var out userEnvelope
	err := c.do(ctx, "current_user", http.MethodGet, "/user", nil, &out)
	return out.User, err
}

// UpdateUser applies a partial update to the current account.
func (c *Client) UpdateUser(ctx context.Context, update UserUpdate) (User, error) {
	var out userEnvelope
	err := c.do(ctx, "update_user", http.MethodPut, "/user", map[string]UserUpdate{"user": update}, &out)
	return out.User, err
}
