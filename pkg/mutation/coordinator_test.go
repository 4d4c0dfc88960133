package mutation

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cexll/conduitsdk-go/pkg/api"
	"github.com/cexll/conduitsdk-go/pkg/overlay"
)

type fakeTransport struct {
	mu         sync.Mutex
	loginCalls int
	loginFn    func() (api.User, error)
	favorite   func(slug string) (api.Article, error)
	follow     func(username string) (api.Profile, error)
	comment    api.Comment
	commentErr error
	deleted    []string
}

func (f *fakeTransport) Login(ctx context.Context, creds api.Credentials) (api.User, error) {
	f.mu.Lock()
	f.loginCalls++
	fn := f.loginFn
	f.mu.Unlock()
	if fn != nil {
		return fn()
	}
	return api.User{Username: "jake", Token: "t"}, nil
}

func (f *fakeTransport) Register(ctx context.Context, reg api.Registration) (api.User, error) {
	return api.User{Username: reg.Username, Token: "t"}, nil
}

func (f *fakeTransport) CreateArticle(ctx context.Context, draft api.ArticleDraft) (api.Article, error) {
	return api.Article{Slug: "new-post"}, nil
}

func (f *fakeTransport) UpdateArticle(ctx context.Context, slug string, draft api.ArticleDraft) (api.Article, error) {
	return api.Article{Slug: slug}, nil
}

func (f *fakeTransport) DeleteArticle(ctx context.Context, slug string) error {
	f.mu.Lock()
	f.deleted = append(f.deleted, slug)
	f.mu.Unlock()
	return nil
}

func (f *fakeTransport) Favorite(ctx context.Context, slug string) (api.Article, error) {
	if f.favorite != nil {
		return f.favorite(slug)
	}
	return api.Article{Slug: slug, Favorited: true, FavoritesCount: 1}, nil
}

func (f *fakeTransport) Unfavorite(ctx context.Context, slug string) (api.Article, error) {
	return api.Article{Slug: slug, Favorited: false}, nil
}

func (f *fakeTransport) Follow(ctx context.Context, username string) (api.Profile, error) {
	if f.follow != nil {
		return f.follow(username)
	}
	return api.Profile{Username: username, Following: true}, nil
}

func (f *fakeTransport) Unfollow(ctx context.Context, username string) (api.Profile, error) {
	return api.Profile{Username: username, Following: false}, nil
}

func (f *fakeTransport) AddComment(ctx context.Context, slug, body string) (api.Comment, error) {
	return f.comment, f.commentErr
}

func (f *fakeTransport) DeleteComment(ctx context.Context, slug string, id int64) error {
	return nil
}

type fakeSession struct {
	authed bool
	set    []api.User
	purged int
}

func (s *fakeSession) SetAuth(user api.User) { s.set = append(s.set, user); s.authed = true }
func (s *fakeSession) Purge()                { s.purged++; s.authed = false }
func (s *fakeSession) IsAuthenticated() bool { return s.authed }

func (s *fakeSession) Update(ctx context.Context, update api.UserUpdate) (api.User, error) {
	u := api.User{Username: "jake", Bio: update.Bio}
	s.set = append(s.set, u)
	return u, nil
}

type fakeNav struct {
	home, login, register int
	articles              []string
	profiles              []string
}

func (n *fakeNav) NavigateHome()                   { n.home++ }
func (n *fakeNav) NavigateLogin()                  { n.login++ }
func (n *fakeNav) NavigateRegister()               { n.register++ }
func (n *fakeNav) NavigateArticle(slug string)     { n.articles = append(n.articles, slug) }
func (n *fakeNav) NavigateProfile(username string) { n.profiles = append(n.profiles, username) }

func newCoordinator(tr *fakeTransport, sess *fakeSession, nav *fakeNav) (*Coordinator, *overlay.Bus) {
	bus := overlay.NewBus()
	return NewCoordinator(tr, sess, bus, nav), bus
}

func TestGuardAtMostOneInFlight(t *testing.T) {
	var g Guard
	require.True(t, g.TryStart())
	assert.True(t, g.InFlight())
	require.False(t, g.TryStart())
	g.Finish()
	assert.False(t, g.InFlight())
	require.True(t, g.TryStart())
}

func TestLoginEstablishesSessionAndNavigatesHome(t *testing.T) {
	tr := &fakeTransport{}
	sess := &fakeSession{}
	nav := &fakeNav{}
	c, _ := newCoordinator(tr, sess, nav)

	ok, err := c.Login(context.Background(), api.Credentials{Email: "jake@jake.jake", Password: "pw"})
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, sess.set, 1)
	assert.Equal(t, "jake", sess.set[0].Username)
	assert.Equal(t, 1, nav.home)
}

func TestDoubleSubmitMakesOneRequest(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	tr := &fakeTransport{loginFn: func() (api.User, error) {
		close(started)
		<-release
		return api.User{Username: "jake"}, nil
	}}
	c, _ := newCoordinator(tr, &fakeSession{}, &fakeNav{})

	done := make(chan struct{})
	go func() {
		defer close(done)
		ok, err := c.Login(context.Background(), api.Credentials{})
		assert.True(t, ok)
		assert.NoError(t, err)
	}()
	<-started

	ok, err := c.Login(context.Background(), api.Credentials{})
	require.NoError(t, err)
	assert.False(t, ok)

	close(release)
	<-done

	tr.mu.Lock()
	defer tr.mu.Unlock()
	assert.Equal(t, 1, tr.loginCalls)
}

func TestValidationRejectionFillsErrors(t *testing.T) {
	tr := &fakeTransport{loginFn: func() (api.User, error) {
		return api.User{}, &api.ValidationError{Set: api.ErrorSet{"email or password": {"is invalid"}}}
	}}
	sess := &fakeSession{}
	nav := &fakeNav{}
	c, _ := newCoordinator(tr, sess, nav)

	ok, err := c.Login(context.Background(), api.Credentials{})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, sess.set)
	assert.Zero(t, nav.home)

	set, present := c.Errors().Get()
	require.True(t, present)
	assert.Equal(t, []string{"email or password is invalid"}, set.Messages())
}

func TestNewSubmissionClearsErrors(t *testing.T) {
	fail := true
	tr := &fakeTransport{loginFn: func() (api.User, error) {
		if fail {
			return api.User{}, &api.ValidationError{Set: api.ErrorSet{"email": {"is invalid"}}}
		}
		return api.User{Username: "jake"}, nil
	}}
	c, _ := newCoordinator(tr, &fakeSession{}, &fakeNav{})

	_, err := c.Login(context.Background(), api.Credentials{})
	require.NoError(t, err)

	fail = false
	_, err = c.Login(context.Background(), api.Credentials{})
	require.NoError(t, err)

	set, _ := c.Errors().Get()
	assert.Nil(t, set)
}

func TestTransportErrorReturnedToCaller(t *testing.T) {
	boom := errors.New("boom")
	tr := &fakeTransport{loginFn: func() (api.User, error) { return api.User{}, boom }}
	c, _ := newCoordinator(tr, &fakeSession{}, &fakeNav{})

	ok, err := c.Login(context.Background(), api.Credentials{})
	assert.True(t, ok)
	assert.ErrorIs(t, err, boom)
}

func TestAnonymousFavoriteRedirectsToRegister(t *testing.T) {
	tr := &fakeTransport{favorite: func(string) (api.Article, error) {
		t.Fatal("transport reached without session")
		return api.Article{}, nil
	}}
	nav := &fakeNav{}
	c, _ := newCoordinator(tr, &fakeSession{authed: false}, nav)

	ok, err := c.ToggleFavorite(context.Background(), "post", false)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, nav.register)
}

func TestAnonymousFollowRedirectsToLogin(t *testing.T) {
	tr := &fakeTransport{follow: func(string) (api.Profile, error) {
		t.Fatal("transport reached without session")
		return api.Profile{}, nil
	}}
	nav := &fakeNav{}
	c, _ := newCoordinator(tr, &fakeSession{authed: false}, nav)

	ok, err := c.ToggleFollow(context.Background(), "celeb", false)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, nav.login)
}

func TestFavoritePublishesServerOutcome(t *testing.T) {
	c, bus := newCoordinator(&fakeTransport{}, &fakeSession{authed: true}, &fakeNav{})

	var patches []overlay.Patch
	sub := bus.Subscribe(func(p overlay.Patch) { patches = append(patches, p) })
	defer sub.Cancel()

	ok, err := c.ToggleFavorite(context.Background(), "post", false)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, patches, 1)
	assert.Equal(t, overlay.FavoriteToggled{Slug: "post", Favorited: true}, patches[0])
}

func TestCommentLifecyclePublishesPatches(t *testing.T) {
	tr := &fakeTransport{comment: api.Comment{ID: 7, Body: "nice"}}
	c, bus := newCoordinator(tr, &fakeSession{authed: true}, &fakeNav{})

	var patches []overlay.Patch
	sub := bus.Subscribe(func(p overlay.Patch) { patches = append(patches, p) })
	defer sub.Cancel()

	ok, err := c.AddComment(context.Background(), "post", "nice")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = c.DeleteComment(context.Background(), "post", 7)
	require.NoError(t, err)
	require.True(t, ok)

	require.Len(t, patches, 2)
	assert.Equal(t, overlay.CommentAdded{Slug: "post", Comment: api.Comment{ID: 7, Body: "nice"}}, patches[0])
	assert.Equal(t, overlay.CommentRemoved{Slug: "post", CommentID: 7}, patches[1])
}

func TestCreateArticleOpensNewSlug(t *testing.T) {
	nav := &fakeNav{}
	c, _ := newCoordinator(&fakeTransport{}, &fakeSession{authed: true}, nav)

	ok, err := c.CreateArticle(context.Background(), api.ArticleDraft{Title: "Hello"})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"new-post"}, nav.articles)
}

func TestLogoutPurgesAndGoesHome(t *testing.T) {
	sess := &fakeSession{authed: true}
	nav := &fakeNav{}
	c, _ := newCoordinator(&fakeTransport{}, sess, nav)

	c.Logout()
	assert.Equal(t, 1, sess.purged)
	assert.Equal(t, 1, nav.home)
}

func TestGuardIndependencePerSlug(t *testing.T) {
	c, _ := newCoordinator(&fakeTransport{}, &fakeSession{authed: true}, &fakeNav{})

	ok, err := c.ToggleFavorite(context.Background(), "a", false)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = c.ToggleFavorite(context.Background(), "b", false)
	require.NoError(t, err)
	assert.True(t, ok)
}
