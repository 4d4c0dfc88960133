package overlay

import "github.com/cexll/conduitsdk-go/pkg/api"

// ArticleFold folds favorite and follow outcomes into an article view.
// Use with WithAliases so patches addressed to the author's username reach
// an overlay keyed by slug.
func ArticleFold(a api.Article, p Patch) (api.Article, bool) {
	switch p := p.(type) {
	case FavoriteToggled:
		if p.Slug != a.Slug || p.Favorited == a.Favorited {
			return a, false
		}
		a.Favorited = p.Favorited
		if p.Favorited {
			a.FavoritesCount++
		} else {
			a.FavoritesCount--
		}
		return a, true
	case FollowToggled:
		if p.Username != a.Author.Username || p.Following == a.Author.Following {
			return a, false
		}
		a.Author.Following = p.Following
		return a, true
	}
	return a, false
}

// ArticleAliases exposes the author's username as an extra focus key for an
// article overlay.
func ArticleAliases(a api.Article) []string {
	return []string{a.Author.Username}
}

// ProfileFold folds follow outcomes into a profile view.
func ProfileFold(pr api.Profile, p Patch) (api.Profile, bool) {
	t, ok := p.(FollowToggled)
	if !ok || t.Username != pr.Username || t.Following == pr.Following {
		return pr, false
	}
	pr.Following = t.Following
	return pr, true
}

// CommentsFold folds comment additions and removals into an article's
// comment list, newest first.
func CommentsFold(comments []api.Comment, p Patch) ([]api.Comment, bool) {
	switch p := p.(type) {
	case CommentAdded:
		next := make([]api.Comment, 0, len(comments)+1)
		next = append(next, p.Comment)
		next = append(next, comments...)
		return next, true
	case CommentRemoved:
		next := make([]api.Comment, 0, len(comments))
		removed := false
		for _, c := range comments {
			if c.ID == p.CommentID {
				removed = true
				continue
			}
			next = append(next, c)
		}
		return next, removed
	}
	return comments, false
}
