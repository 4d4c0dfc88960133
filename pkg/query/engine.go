// Package query drives paginated article listings. One engine owns one
// listing surface: callers change the descriptor, the engine fetches, and
// subscribers observe articles, count, and loading state through cells.
package query

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/cexll/conduitsdk-go/pkg/api"
	"github.com/cexll/conduitsdk-go/pkg/logx"
	"github.com/cexll/conduitsdk-go/pkg/stream"
)

// Source is the part of the API client the engine reads listings from.
type Source interface {
	ListArticles(ctx context.Context, q api.ListQuery) (api.ArticleList, error)
	Feed(ctx context.Context, limit, offset int) (api.ArticleList, error)
}

// Option configures an Engine.
type Option func(*Engine)

// WithPageSize overrides the default page size of 10.
func WithPageSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.pageSize = n
		}
	}
}

// WithAuthGate installs the session check applied to Feed selections. When
// the check fails the engine calls denied instead of fetching.
func WithAuthGate(authed func() bool, denied func()) Option {
	return func(e *Engine) {
		e.authed = authed
		e.denied = denied
	}
}

// Engine runs listing cycles. Descriptor changes supersede any cycle still
// in flight: only the latest descriptor's result is ever published.
type Engine struct {
	source   Source
	pageSize int
	authed   func() bool
	denied   func()
	log      zerolog.Logger

	mu         sync.Mutex
	descriptor Descriptor
	generation uint64
	cancel     context.CancelFunc

	state    *stream.Cell[LoadingState]
	articles *stream.Cell[[]api.Article]
	count    *stream.Cell[int]
}

// NewEngine builds an engine over the given source. The initial descriptor
// is the global listing, page 1, not yet loaded.
func NewEngine(source Source, opts ...Option) *Engine {
	e := &Engine{
		source:     source,
		pageSize:   10,
		log:        logx.Component("query"),
		descriptor: Descriptor{Type: All, Page: 1},
		state:      stream.NewDistinctCell(stream.Eq[LoadingState]),
		articles:   stream.NewCell[[]api.Article](),
		count:      stream.NewDistinctCell(stream.Eq[int]),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.state.Set(NotLoaded)
	e.count.Set(0)
	return e
}

// State is the live loading state. Subscriber callbacks must not call back
// into the engine.
func (e *Engine) State() *stream.Cell[LoadingState] { return e.state }

// Articles is the live page contents.
func (e *Engine) Articles() *stream.Cell[[]api.Article] { return e.articles }

// Count is the live total matching the current selection, across all pages.
func (e *Engine) Count() *stream.Cell[int] { return e.count }

// Descriptor returns the descriptor the engine is currently serving.
func (e *Engine) Descriptor() Descriptor {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.descriptor
}

// PageSize returns the number of articles per page.
func (e *Engine) PageSize() int { return e.pageSize }

// Pages returns the 1-based page numbers covering the current count.
func (e *Engine) Pages() []int {
	n, _ := e.count.Get()
	total := (n + e.pageSize - 1) / e.pageSize
	pages := make([]int, 0, total)
	for i := 1; i <= total; i++ {
		pages = append(pages, i)
	}
	return pages
}

// SetQuery switches the selection and resets to page 1, then starts a fetch.
// Setting the same selection again still refetches.
func (e *Engine) SetQuery(ctx context.Context, typ SelectionType, value string) {
	e.run(ctx, Descriptor{Type: typ, Value: value, Page: 1})
}

// SetPage moves to another page of the current selection.
func (e *Engine) SetPage(ctx context.Context, page int) {
	if page < 1 {
		page = 1
	}
	e.mu.Lock()
	d := e.descriptor
	e.mu.Unlock()
	d.Page = page
	e.run(ctx, d)
}

// Refresh refetches the current descriptor.
func (e *Engine) Refresh(ctx context.Context) {
	e.mu.Lock()
	d := e.descriptor
	e.mu.Unlock()
	e.run(ctx, d)
}

func (e *Engine) run(ctx context.Context, d Descriptor) {
	if d.Type == Feed && e.authed != nil && !e.authed() {
		e.log.Debug().Msg("feed requested without session")
		if e.denied != nil {
			e.denied()
		}
		return
	}

	e.mu.Lock()
	e.descriptor = d
	e.generation++
	gen := e.generation
	if e.cancel != nil {
		e.cancel()
	}
	cctx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.mu.Unlock()

	e.state.Set(Loading)
	go e.fetch(cctx, gen, d)
}

func (e *Engine) fetch(ctx context.Context, gen uint64, d Descriptor) {
	list, err := e.load(ctx, d)

	e.mu.Lock()
	stale := gen != e.generation
	e.mu.Unlock()
	if stale {
		return
	}

	if err != nil {
		// The cycle stays in Loading until a newer descriptor resolves;
		// consumers surface the stall rather than stale data.
		e.log.Warn().Err(err).Str("type", string(d.Type)).Int("page", d.Page).Msg("listing failed")
		return
	}

	e.articles.Set(list.Articles)
	e.count.Set(list.ArticlesCount)
	e.state.Set(Loaded)
}

func (e *Engine) load(ctx context.Context, d Descriptor) (api.ArticleList, error) {
	offset := (d.Page - 1) * e.pageSize
	if d.Type == Feed {
		return e.source.Feed(ctx, e.pageSize, offset)
	}
	q := api.ListQuery{Limit: e.pageSize, Offset: offset}
	switch d.Type {
	case ByTag:
		q.Tag = d.Value
	case ByAuthor:
		q.Author = d.Value
	case FavoritedBy:
		q.Favorited = d.Value
	}
	return e.source.ListArticles(ctx, q)
}
