package main

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/cexll/conduitsdk-go/pkg/api"
	"github.com/cexll/conduitsdk-go/pkg/query"
)

func newArticlesCmd(c *cli) *cobra.Command {
	var (
		tag, author, favorited string
		page                   int
	)
	cmd := &cobra.Command{
		Use:   "articles",
		Short: "List articles from the global feed",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			typ, value := query.All, ""
			switch {
			case tag != "":
				typ, value = query.ByTag, tag
			case author != "":
				typ, value = query.ByAuthor, author
			case favorited != "":
				typ, value = query.FavoritedBy, favorited
			}

			engine := c.app.Articles()
			engine.SetQuery(ctx, typ, value)
			if page > 1 {
				engine.SetPage(ctx, page)
			}
			return printListing(ctx, cmd, engine)
		},
	}
	cmd.Flags().StringVar(&tag, "tag", "", "only articles with this tag")
	cmd.Flags().StringVar(&author, "author", "", "only articles by this author")
	cmd.Flags().StringVar(&favorited, "favorited", "", "only articles favorited by this user")
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	return cmd
}

func newFeedCmd(c *cli) *cobra.Command {
	var page int
	cmd := &cobra.Command{
		Use:   "feed",
		Short: "List articles by authors you follow",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			if !c.app.Session().IsAuthenticated() {
				return fmt.Errorf("feed requires a session; run `conduitctl login` first")
			}
			engine := c.app.Articles()
			engine.SetQuery(ctx, query.Feed, "")
			if page > 1 {
				engine.SetPage(ctx, page)
			}
			return printListing(ctx, cmd, engine)
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	return cmd
}

func newArticleCmd(c *cli) *cobra.Command {
	var asHTML bool
	cmd := &cobra.Command{
		Use:   "article <slug>",
		Short: "Read one article",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			article, err := c.app.Client().GetArticle(ctx, args[0])
			if err != nil {
				return err
			}

			printf(cmd, "# %s\n", article.Title)
			printf(cmd, "by %s · %s · ♥ %d\n", article.Author.Username,
				article.CreatedAt.Format("2006-01-02"), article.FavoritesCount)
			if len(article.TagList) > 0 {
				printf(cmd, "tags: %s\n", strings.Join(article.TagList, ", "))
			}
			printf(cmd, "\n")

			body := article.Body
			if asHTML {
				var buf bytes.Buffer
				md := goldmark.New(goldmark.WithExtensions(extension.GFM))
				if err := md.Convert([]byte(article.Body), &buf); err != nil {
					return fmt.Errorf("render body: %w", err)
				}
				body = buf.String()
			}
			printf(cmd, "%s\n", body)

			comments, err := c.app.Client().ListComments(ctx, args[0])
			if err != nil {
				return err
			}
			if len(comments) > 0 {
				printf(cmd, "\n-- %d comments --\n", len(comments))
				for _, comment := range comments {
					printf(cmd, "%s: %s\n", comment.Author.Username, comment.Body)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asHTML, "html", false, "render the markdown body to HTML")
	return cmd
}

func newTagsCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "tags",
		Short: "Show the popular tags",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			tags, err := c.app.Tags(ctx)
			if err != nil {
				return err
			}
			for _, tag := range tags {
				printf(cmd, "%s\n", tag)
			}
			return nil
		},
	}
}

func printListing(ctx context.Context, cmd *cobra.Command, engine *query.Engine) error {
	if err := waitLoaded(ctx, engine); err != nil {
		return err
	}
	articles, _ := engine.Articles().Get()
	count, _ := engine.Count().Get()

	for _, a := range articles {
		printArticleLine(cmd, a)
	}
	d := engine.Descriptor()
	printf(cmd, "\npage %d of %d · %d articles\n", d.Page, len(engine.Pages()), count)
	return nil
}

func printArticleLine(cmd *cobra.Command, a api.Article) {
	printf(cmd, "%-40s %-16s ♥ %d\n", a.Slug, a.Author.Username, a.FavoritesCount)
	if a.Description != "" {
		printf(cmd, "    %s\n", a.Description)
	}
}

// waitLoaded blocks until the engine finishes its current cycle. A cycle
// that fails stays in Loading, so the context deadline is the backstop.
func waitLoaded(ctx context.Context, engine *query.Engine) error {
	done := make(chan struct{}, 1)
	sub := engine.State().Subscribe(func(s query.LoadingState) {
		if s == query.Loaded {
			select {
			case done <- struct{}{}:
			default:
			}
		}
	})
	defer sub.Cancel()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("listing did not finish: %w", ctx.Err())
	}
}
