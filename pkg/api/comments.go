package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// ListComments fetches all comments on an article, newest first.
func (c *Client) ListComments(ctx context.Context, slug string) ([]Comment, error) {
	var out struct {
		Comments []Comment `json:"comments"`
	}
	err := c.do(ctx, "list_comments", http.MethodGet, "/articles/"+url.PathEscape(slug)+"/comments", nil, &out)
	return out.Comments, err
}

// AddComment posts a comment on an article.
func (c *Client) AddComment(ctx context.Context, slug, body string) (Comment, error) {
	var out struct {
		Comment Comment `json:"comment"`
	}
	payload := map[string]map[string]string{"comment": {"body": body}}
	err := c.do(ctx, "add_comment", http.MethodPost, "/articles/"+url.PathEscape(slug)+"/comments", payload, &out)
	return out.Comment, err
}

// DeleteComment removes the current user's comment.
func (c *Client) DeleteComment(ctx context.Context, slug string, id int64) error {
	path := "/articles/" + url.PathEscape(slug) + "/comments/" + strconv.FormatInt(id, 10)
	return c.do(ctx, "delete_comment", http.MethodDelete, path, nil, nil)
}
