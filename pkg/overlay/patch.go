// Package overlay layers locally-known mutation outcomes on top of fetched
// entities, so views reflect a favorite or follow the moment it succeeds
// without refetching the entity.
package overlay

import (
	"github.com/cexll/conduitsdk-go/pkg/api"
	"github.com/cexll/conduitsdk-go/pkg/stream"
)

// Patch is one locally-known change to a remote entity.
type Patch interface {
	// FocusKey identifies the entity the patch is about: an article slug
	// or a profile username.
	FocusKey() string
}

// FavoriteToggled records the outcome of a favorite or unfavorite on an
// article.
type FavoriteToggled struct {
	Slug      string
	Favorited bool
}

func (p FavoriteToggled) FocusKey() string { return p.Slug }

// FollowToggled records the outcome of a follow or unfollow on a profile.
type FollowToggled struct {
	Username  string
	Following bool
}

func (p FollowToggled) FocusKey() string { return p.Username }

// CommentAdded records a comment accepted by the server on an article.
type CommentAdded struct {
	Slug    string
	Comment api.Comment
}

func (p CommentAdded) FocusKey() string { return p.Slug }

// CommentRemoved records a comment deleted from an article.
type CommentRemoved struct {
	Slug      string
	CommentID int64
}

func (p CommentRemoved) FocusKey() string { return p.Slug }

// Bus carries patches from the mutation side to every attached overlay.
// Delivery is live-only: overlays attached after a patch never see it.
type Bus struct {
	feed *stream.Feed[Patch]
}

// NewBus builds an empty bus.
func NewBus() *Bus {
	return &Bus{feed: stream.NewFeed[Patch]()}
}

// Publish hands the patch to every current subscriber.
func (b *Bus) Publish(p Patch) {
	b.feed.Publish(p)
}

// Subscribe registers for future patches.
func (b *Bus) Subscribe(fn func(Patch)) stream.Subscription {
	return b.feed.Subscribe(fn)
}
