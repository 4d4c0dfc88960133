package api

import (
	"context"
	"net/http"
	"net/url"
)

type profileEnvelope struct {
	Profile Profile `json:"profile"`
}

// GetProfile fetches a public profile by username.
func (c *Client) GetProfile(ctx context.Context, username string) (Profile, error) {
	var out profileEnvelope
	err := c.do(ctx, "get_profile", http.MethodGet, "/profiles/"+url.PathEscape(username), nil, &out)
	return out.Profile, err
}

// Follow subscribes the current user to username's articles.
func (c *Client) Follow(ctx context.Context, username string) (Profile, error) {
	var out profileEnvelope
	err := c.do(ctx, "follow", http.MethodPost, "/profiles/"+url.PathEscape(username)+"/follow", nil, &out)
	return out.Profile, err
}

// Unfollow removes the subscription.
func (c *Client) Unfollow(ctx context.Context, username string) (Profile, error) {
	var out profileEnvelope
	err := c.do(ctx, "unfollow", http.MethodDelete, "/profiles/"+url.PathEscape(username)+"/follow", nil, &out)
	return out.Profile, err
}
