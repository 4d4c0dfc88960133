// Package mutation submits writes to the server and routes their outcomes:
// identities to the session store, entity changes to the patch bus, and the
// user to the right place. Every action is guarded so a double-click cannot
// produce two requests.
package mutation

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/cexll/conduitsdk-go/pkg/api"
	"github.com/cexll/conduitsdk-go/pkg/logx"
	"github.com/cexll/conduitsdk-go/pkg/overlay"
	"github.com/cexll/conduitsdk-go/pkg/stream"
)

// Transport is the part of the API client the coordinator writes through.
type Transport interface {
	Login(ctx context.Context, creds api.Credentials) (api.User, error)
	Register(ctx context.Context, reg api.Registration) (api.User, error)
	CreateArticle(ctx context.Context, draft api.ArticleDraft) (api.Article, error)
	UpdateArticle(ctx context.Context, slug string, draft api.ArticleDraft) (api.Article, error)
	DeleteArticle(ctx context.Context, slug string) error
	Favorite(ctx context.Context, slug string) (api.Article, error)
	Unfavorite(ctx context.Context, slug string) (api.Article, error)
	Follow(ctx context.Context, username string) (api.Profile, error)
	Unfollow(ctx context.Context, username string) (api.Profile, error)
	AddComment(ctx context.Context, slug, body string) (api.Comment, error)
	DeleteComment(ctx context.Context, slug string, id int64) error
}

// Session is the part of the session store the coordinator drives.
type Session interface {
	SetAuth(user api.User)
	Purge()
	IsAuthenticated() bool
	Update(ctx context.Context, update api.UserUpdate) (api.User, error)
}

// Navigator moves the user between surfaces after a mutation resolves.
type Navigator interface {
	NavigateHome()
	NavigateLogin()
	NavigateRegister()
	NavigateArticle(slug string)
	NavigateProfile(username string)
}

// Coordinator owns every write path. Submit methods return (false, nil)
// when the same action is already in flight; the first submission's outcome
// stands.
type Coordinator struct {
	transport Transport
	session   Session
	bus       *overlay.Bus
	nav       Navigator
	log       zerolog.Logger
	guards    guardSet
	errors    *stream.Cell[api.ErrorSet]
}

// NewCoordinator wires the coordinator to its collaborators.
func NewCoordinator(transport Transport, session Session, bus *overlay.Bus, nav Navigator) *Coordinator {
	return &Coordinator{
		transport: transport,
		session:   session,
		bus:       bus,
		nav:       nav,
		log:       logx.Component("mutation"),
		errors:    stream.NewCell[api.ErrorSet](),
	}
}

// Errors is the live field-error state of the most recent submission. A new
// submission clears it; a rejected one fills it.
func (c *Coordinator) Errors() *stream.Cell[api.ErrorSet] {
	return c.errors
}

// submit runs fn under the named guard. Validation rejections land in the
// errors cell and are not returned as errors; everything else is.
func (c *Coordinator) submit(key string, fn func() error) (bool, error) {
	g := c.guards.get(key)
	if !g.TryStart() {
		c.log.Debug().Str("action", key).Msg("submission already in flight")
		return false, nil
	}
	defer g.Finish()

	c.errors.Set(nil)
	if err := fn(); err != nil {
		if set, ok := api.Validation(err); ok {
			c.errors.Set(set)
			return true, nil
		}
		return true, err
	}
	return true, nil
}

// Login authenticates and, on success, establishes the session and returns
// the user home.
func (c *Coordinator) Login(ctx context.Context, creds api.Credentials) (bool, error) {
	return c.submit("login", func() error {
		user, err := c.transport.Login(ctx, creds)
		if err != nil {
			return err
		}
		c.session.SetAuth(user)
		c.nav.NavigateHome()
		return nil
	})
}

// Register creates an account and signs it in.
func (c *Coordinator) Register(ctx context.Context, reg api.Registration) (bool, error) {
	return c.submit("register", func() error {
		user, err := c.transport.Register(ctx, reg)
		if err != nil {
			return err
		}
		c.session.SetAuth(user)
		c.nav.NavigateHome()
		return nil
	})
}

// Logout drops the session and returns home. Never guarded: it has no
// server round trip to duplicate.
func (c *Coordinator) Logout() {
	c.session.Purge()
	c.nav.NavigateHome()
}

// UpdateSettings applies a partial profile update and shows the result.
func (c *Coordinator) UpdateSettings(ctx context.Context, update api.UserUpdate) (bool, error) {
	return c.submit("settings", func() error {
		user, err := c.session.Update(ctx, update)
		if err != nil {
			return err
		}
		c.nav.NavigateProfile(user.Username)
		return nil
	})
}

// CreateArticle publishes a draft and opens the new article.
func (c *Coordinator) CreateArticle(ctx context.Context, draft api.ArticleDraft) (bool, error) {
	return c.submit("editor", func() error {
		article, err := c.transport.CreateArticle(ctx, draft)
		if err != nil {
			return err
		}
		c.nav.NavigateArticle(article.Slug)
		return nil
	})
}

// UpdateArticle rewrites an article and opens it under its possibly-new slug.
func (c *Coordinator) UpdateArticle(ctx context.Context, slug string, draft api.ArticleDraft) (bool, error) {
	return c.submit("editor", func() error {
		article, err := c.transport.UpdateArticle(ctx, slug, draft)
		if err != nil {
			return err
		}
		c.nav.NavigateArticle(article.Slug)
		return nil
	})
}

// DeleteArticle removes an article and returns home.
func (c *Coordinator) DeleteArticle(ctx context.Context, slug string) (bool, error) {
	return c.submit("delete:"+slug, func() error {
		if err := c.transport.DeleteArticle(ctx, slug); err != nil {
			return err
		}
		c.nav.NavigateHome()
		return nil
	})
}

// ToggleFavorite flips the favorite state of an article. Anonymous users are
// sent to registration without touching the server.
func (c *Coordinator) ToggleFavorite(ctx context.Context, slug string, favorited bool) (bool, error) {
	if !c.session.IsAuthenticated() {
		c.nav.NavigateRegister()
		return false, nil
	}
	return c.submit("favorite:"+slug, func() error {
		var (
			article api.Article
			err     error
		)
		if favorited {
			article, err = c.transport.Unfavorite(ctx, slug)
		} else {
			article, err = c.transport.Favorite(ctx, slug)
		}
		if err != nil {
			return err
		}
		c.bus.Publish(overlay.FavoriteToggled{Slug: article.Slug, Favorited: article.Favorited})
		return nil
	})
}

// ToggleFollow flips the follow state of a profile. Anonymous users are sent
// to the login page without touching the server.
func (c *Coordinator) ToggleFollow(ctx context.Context, username string, following bool) (bool, error) {
	if !c.session.IsAuthenticated() {
		c.nav.NavigateLogin()
		return false, nil
	}
	return c.submit("follow:"+username, func() error {
		var (
			profile api.Profile
			err     error
		)
		if following {
			profile, err = c.transport.Unfollow(ctx, username)
		} else {
			profile, err = c.transport.Follow(ctx, username)
		}
		if err != nil {
			return err
		}
		c.bus.Publish(overlay.FollowToggled{Username: profile.Username, Following: profile.Following})
		return nil
	})
}

// AddComment posts a comment and announces the accepted comment.
func (c *Coordinator) AddComment(ctx context.Context, slug, body string) (bool, error) {
	return c.submit("comment:"+slug, func() error {
		comment, err := c.transport.AddComment(ctx, slug, body)
		if err != nil {
			return err
		}
		c.bus.Publish(overlay.CommentAdded{Slug: slug, Comment: comment})
		return nil
	})
}

// DeleteComment removes a comment and announces the removal.
func (c *Coordinator) DeleteComment(ctx context.Context, slug string, id int64) (bool, error) {
	return c.submit("comment:"+slug, func() error {
		if err := c.transport.DeleteComment(ctx, slug, id); err != nil {
			return err
		}
		c.bus.Publish(overlay.CommentRemoved{Slug: slug, CommentID: id})
		return nil
	})
}
