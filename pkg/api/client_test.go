package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginDecodesUserEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/users/login", r.URL.Path)
		require.NotEmpty(t, r.Header.Get("X-Request-Id"))

		var body map[string]Credentials
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "jake@jake.jake", body["user"].Email)

		_ = json.NewEncoder(w).Encode(map[string]User{"user": {
			Username: "jake",
			Email:    "jake@jake.jake",
			Token:    "jwt.token.here",
		}})
	}))
	defer srv.Close()

	c := New(srv.URL)
	user, err := c.Login(context.Background(), Credentials{Email: "jake@jake.jake", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "jake", user.Username)
	assert.Equal(t, "jwt.token.here", user.Token)
}

func TestAuthHeaderPresentExactlyWhenTokenSet(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"tags":[]}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.ListTags(context.Background())
	require.NoError(t, err)
	assert.Empty(t, gotAuth)

	c.SetToken("abc123")
	_, err = c.ListTags(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Token abc123", gotAuth)

	c.ClearToken()
	_, err = c.ListTags(context.Background())
	require.NoError(t, err)
	assert.Empty(t, gotAuth)
}

func TestListArticlesQueryParameters(t *testing.T) {
	var gotQuery map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		_, _ = w.Write([]byte(`{"articles":[{"slug":"one"}],"articlesCount":21}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	list, err := c.ListArticles(context.Background(), ListQuery{Tag: "go", Limit: 10, Offset: 20})
	require.NoError(t, err)
	assert.Equal(t, []string{"go"}, gotQuery["tag"])
	assert.Equal(t, []string{"10"}, gotQuery["limit"])
	assert.Equal(t, []string{"20"}, gotQuery["offset"])
	assert.Len(t, list.Articles, 1)
	assert.Equal(t, 21, list.ArticlesCount)
}

func TestValidationErrorCarriesErrorSet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"errors":{"email":["is invalid"],"password":["is too short"]}}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.Register(context.Background(), Registration{})
	require.Error(t, err)

	set, ok := Validation(err)
	require.True(t, ok)
	assert.Equal(t, []string{"is invalid"}, set["email"])
	assert.Equal(t, []string{
		"email is invalid",
		"password is too short",
	}, set.Messages())
}

func TestSentinelErrors(t *testing.T) {
	status := http.StatusUnauthorized
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.CurrentUser(context.Background())
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("401 = %v, want ErrUnauthorized", err)
	}

	status = http.StatusNotFound
	_, err = c.GetArticle(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("404 = %v, want ErrNotFound", err)
	}

	status = http.StatusInternalServerError
	_, err = c.GetArticle(context.Background(), "broken")
	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.Status != 500 {
		t.Fatalf("500 = %v, want *Error with status 500", err)
	}
}

func TestDeleteCommentPath(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(srv.URL)
	require.NoError(t, c.DeleteComment(context.Background(), "my-post", 42))
	assert.Equal(t, "/articles/my-post/comments/42", gotPath)
}
