package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

type articleEnvelope struct {
	Article Article `json:"article"`
}

type articleListEnvelope struct {
	Articles      []Article `json:"articles"`
	ArticlesCount int       `json:"articlesCount"`
}

// ListQuery narrows and paginates the global article listing.
type ListQuery struct {
	Tag       string
	Author    string
	Favorited string
	Limit     int
	Offset    int
}

// ArticleDraft is the writable part of an article.
type ArticleDraft struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Body        string   `json:"body"`
	TagList     []string `json:"tagList,omitempty"`
}

// ListArticles returns one page of the global listing.
func (c *Client) ListArticles(ctx context.Context, q ListQuery) (ArticleList, error) {
	params := url.Values{}
	if q.Tag != "" {
		params.Set("tag", q.Tag)
	}
	if q.Author != "" {
		params.Set("author", q.Author)
	}
	if q.Favorited != "" {
		params.Set("favorited", q.Favorited)
	}
	addPagination(params, q.Limit, q.Offset)

	var out articleListEnvelope
	err := c.do(ctx, "list_articles", http.MethodGet, withQuery("/articles", params), nil, &out)
	return ArticleList{Articles: out.Articles, ArticlesCount: out.ArticlesCount}, err
}

// Feed returns one page of articles by authors the current user follows.
func (c *Client) Feed(ctx context.Context, limit, offset int) (ArticleList, error) {
	params := url.Values{}
	addPagination(params, limit, offset)

	var out articleListEnvelope
	err := c.do(ctx, "feed", http.MethodGet, withQuery("/articles/feed", params), nil, &out)
	return ArticleList{Articles: out.Articles, ArticlesCount: out.ArticlesCount}, err
}

// GetArticle fetches a single article by slug.
func (c *Client) GetArticle(ctx context.Context, slug string) (Article, error) {
	var out articleEnvelope
	err := c.do(ctx, "get_article", http.MethodGet, "/articles/"+url.PathEscape(slug), nil, &out)
	return out.Article, err
}

// CreateArticle publishes a new article and returns it with its slug.
func (c *Client) CreateArticle(ctx context.Context, draft ArticleDraft) (Article, error) {
	var out articleEnvelope
	err := c.do(ctx, "create_article", http.MethodPost, "/articles", map[string]ArticleDraft{"article": draft}, &out)
	return out.Article, err
}

// UpdateArticle rewrites an existing article. The server may change the slug
// when the title changes.
func (c *Client) UpdateArticle(ctx context.Context, slug string, draft ArticleDraft) (Article, error) {
	var out articleEnvelope
	err := c.do(ctx, "update_article", http.MethodPut, "/articles/"+url.PathEscape(slug), map[string]ArticleDraft{"article": draft}, &out)
	return out.Article, err
}

// DeleteArticle removes an article owned by the current user.
func (c *Client) DeleteArticle(ctx context.Context, slug string) error {
	return c.do(ctx, "delete_article", http.MethodDelete, "/articles/"+url.PathEscape(slug), nil, nil)
}

// Favorite marks the article as favorited by the current user.
func (c *Client) Favorite(ctx context.Context, slug string) (Article, error) {
	var out articleEnvelope
	err := c.do(ctx, "favorite", http.MethodPost, "/articles/"+url.PathEscape(slug)+"/favorite", nil, &out)
	return out.Article, err
}

// Unfavorite removes the current user's favorite.
func (c *Client) Unfavorite(ctx context.Context, slug string) (Article, error) {
	var out articleEnvelope
	err := c.do(ctx, "unfavorite", http.MethodDelete, "/articles/"+url.PathEscape(slug)+"/favorite", nil, &out)
	return out.Article, err
}

// ListTags returns the popular tag names.
func (c *Client) ListTags(ctx context.Context) ([]string, error) {
	var out struct {
		Tags []string `json:"tags"`
	}
	err := c.do(ctx, "list_tags", http.MethodGet, "/tags", nil, &out)
	return out.Tags, err
}

func addPagination(params url.Values, limit, offset int) {
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		params.Set("offset", strconv.Itoa(offset))
	}
}

func withQuery(path string, params url.Values) string {
	if len(params) == 0 {
		return path
	}
	return path + "?" + params.Encode()
}
