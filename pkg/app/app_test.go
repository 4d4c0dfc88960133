package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cexll/conduitsdk-go/pkg/api"
	"github.com/cexll/conduitsdk-go/pkg/config"
	"github.com/cexll/conduitsdk-go/pkg/kv"
	"github.com/cexll/conduitsdk-go/pkg/overlay"
	"github.com/cexll/conduitsdk-go/pkg/query"
	"github.com/cexll/conduitsdk-go/pkg/session"
)

type recordingNav struct {
	NopNavigator
	home  atomic.Int32
	login atomic.Int32
}

func (n *recordingNav) NavigateHome()  { n.home.Add(1) }
func (n *recordingNav) NavigateLogin() { n.login.Add(1) }

func testConfig(url string) config.Config {
	cfg := config.Default()
	cfg.APIURL = url
	cfg.TokenPath = ""
	cfg.Log.Level = "disabled"
	return cfg
}

func TestLoginPersistsTokenUnderFixedKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/users/login", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]api.User{"user": {
			Username: "jake",
			Token:    "jwt.token.here",
		}})
	}))
	defer srv.Close()

	store := kv.NewMemory()
	a, err := New(context.Background(), testConfig(srv.URL), WithStorage(store))
	require.NoError(t, err)

	ok, err := a.Mutations().Login(context.Background(), api.Credentials{Email: "jake@jake.jake", Password: "pw"})
	require.NoError(t, err)
	require.True(t, ok)

	token, present := store.Get(session.TokenKey)
	require.True(t, present)
	assert.Equal(t, "jwt.token.here", token)
	assert.True(t, a.Session().IsAuthenticated())
}

func TestFeedWithoutSessionNavigatesToLogin(t *testing.T) {
	var feedHits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/articles/feed" {
			feedHits.Add(1)
		}
		_, _ = w.Write([]byte(`{"articles":[],"articlesCount":0}`))
	}))
	defer srv.Close()

	nav := &recordingNav{}
	a, err := New(context.Background(), testConfig(srv.URL), WithStorage(kv.NewMemory()), WithNavigator(nav))
	require.NoError(t, err)

	a.Articles().SetQuery(context.Background(), query.Feed, "")

	assert.Equal(t, int32(1), nav.login.Load())
	assert.Zero(t, feedHits.Load())
	state, _ := a.Articles().State().Get()
	assert.Equal(t, query.NotLoaded, state)
}

func TestArticleViewFoldsFavoriteOutcome(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/articles/how-to":
			_ = json.NewEncoder(w).Encode(map[string]api.Article{"article": {
				Slug:           "how-to",
				FavoritesCount: 3,
			}})
		case r.Method == http.MethodPost && r.URL.Path == "/articles/how-to/favorite":
			_ = json.NewEncoder(w).Encode(map[string]api.Article{"article": {
				Slug:           "how-to",
				Favorited:      true,
				FavoritesCount: 4,
			}})
		case r.URL.Path == "/users/login":
			_ = json.NewEncoder(w).Encode(map[string]api.User{"user": {Username: "jake", Token: "t"}})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	a, err := New(context.Background(), testConfig(srv.URL), WithStorage(kv.NewMemory()))
	require.NoError(t, err)
	_, err = a.Mutations().Login(context.Background(), api.Credentials{})
	require.NoError(t, err)

	view := a.ArticleView(context.Background(), "how-to")
	defer view.Close()
	waitFetched(t, view)

	var folded []api.Article
	sub := view.Live().Subscribe(func(art api.Article) { folded = append(folded, art) })
	defer sub.Cancel()

	ok, err := a.Mutations().ToggleFavorite(context.Background(), "how-to", false)
	require.NoError(t, err)
	require.True(t, ok)

	require.Len(t, folded, 1)
	assert.True(t, folded[0].Favorited)
	assert.Equal(t, 4, folded[0].FavoritesCount)
}

func TestFailedViewFetchNavigatesHome(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	nav := &recordingNav{}
	a, err := New(context.Background(), testConfig(srv.URL), WithStorage(kv.NewMemory()), WithNavigator(nav))
	require.NoError(t, err)

	view := a.ArticleView(context.Background(), "missing")
	defer view.Close()

	deadline := time.Now().Add(2 * time.Second)
	for nav.home.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	assert.Equal(t, int32(1), nav.home.Load())
}

func TestStartRestoresPersistedSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/user", r.URL.Path)
		require.Equal(t, "Token stored-token", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(map[string]api.User{"user": {Username: "jake", Token: "stored-token"}})
	}))
	defer srv.Close()

	store := kv.NewMemory()
	require.NoError(t, store.Set(session.TokenKey, "stored-token"))

	a, err := New(context.Background(), testConfig(srv.URL), WithStorage(store))
	require.NoError(t, err)
	a.Start(context.Background())

	u, ok := a.Session().Identity()
	require.True(t, ok)
	assert.Equal(t, "jake", u.Username)
}

func waitFetched(t *testing.T, view *overlay.Overlay[api.Article]) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, ok := view.Current(); ok {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("view never fetched")
}
