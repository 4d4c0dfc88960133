// Package app assembles the client: configuration, logging, telemetry, the
// API client, the session store, the patch bus, the mutation coordinator,
// and the listing engine, ready for a host UI to subscribe to.
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/cexll/conduitsdk-go/pkg/api"
	"github.com/cexll/conduitsdk-go/pkg/config"
	"github.com/cexll/conduitsdk-go/pkg/kv"
	"github.com/cexll/conduitsdk-go/pkg/logx"
	"github.com/cexll/conduitsdk-go/pkg/mutation"
	"github.com/cexll/conduitsdk-go/pkg/overlay"
	"github.com/cexll/conduitsdk-go/pkg/query"
	"github.com/cexll/conduitsdk-go/pkg/session"
	"github.com/cexll/conduitsdk-go/pkg/telemetry"
)

// Option configures the App before wiring.
type Option func(*App)

// WithNavigator installs the host's navigator.
func WithNavigator(nav Navigator) Option {
	return func(a *App) { a.nav = nav }
}

// WithStorage overrides the token storage backend.
func WithStorage(store kv.Store) Option {
	return func(a *App) { a.storage = store }
}

// WithHTTPClient overrides the HTTP client used for API calls.
func WithHTTPClient(client *http.Client) Option {
	return func(a *App) { a.httpClient = client }
}

// App is the assembled client core.
type App struct {
	cfg config.Config
	log zerolog.Logger
	nav Navigator

	httpClient *http.Client
	storage    kv.Store
	tel        *telemetry.Manager

	client      *api.Client
	session     *session.Store
	bus         *overlay.Bus
	coordinator *mutation.Coordinator
	articles    *query.Engine
}

// New wires an App from configuration.
func New(ctx context.Context, cfg config.Config, opts ...Option) (*App, error) {
	logx.Init(logx.Options{Level: cfg.Log.Level, Console: cfg.Log.Console})

	a := &App{
		cfg: cfg,
		log: logx.Component("app"),
		nav: NopNavigator{},
	}
	for _, opt := range opts {
		opt(a)
	}

	if cfg.Telemetry.Enabled {
		tcfg := telemetry.Config{ServiceName: "conduitsdk-go"}
		tp, err := telemetry.NewOTLPTracerProvider(ctx, tcfg, telemetry.ExporterConfig{
			Endpoint: cfg.Telemetry.Endpoint,
			Insecure: cfg.Telemetry.Insecure,
		})
		if err != nil {
			return nil, fmt.Errorf("app: telemetry: %w", err)
		}
		tcfg.TracerProvider = tp
		mgr, err := telemetry.NewManager(tcfg)
		if err != nil {
			return nil, fmt.Errorf("app: telemetry: %w", err)
		}
		telemetry.SetDefault(mgr)
		a.tel = mgr
	}

	clientOpts := []api.Option{}
	if a.httpClient != nil {
		clientOpts = append(clientOpts, api.WithHTTPClient(a.httpClient))
	}
	a.client = api.New(cfg.APIURL, clientOpts...)

	if a.storage == nil {
		if cfg.TokenPath != "" {
			a.storage = kv.NewFile(cfg.TokenPath)
		} else {
			a.storage = kv.NewMemory()
		}
	}

	a.session = session.New(a.client, a.storage)
	a.bus = overlay.NewBus()
	a.coordinator = mutation.NewCoordinator(a.client, a.session, a.bus, a.nav)
	a.articles = query.NewEngine(a.client,
		query.WithPageSize(cfg.PageSize),
		query.WithAuthGate(a.session.IsAuthenticated, a.nav.NavigateLogin),
	)
	return a, nil
}

// Start restores any persisted session and begins watching storage for
// external token changes. Revalidation failure is logged, not fatal: the
// client simply starts anonymous.
func (a *App) Start(ctx context.Context) {
	if err := a.session.Revalidate(ctx); err != nil {
		a.log.Warn().Err(err).Msg("session revalidation failed")
	}
	go func() {
		if err := a.session.WatchStorage(ctx); err != nil && ctx.Err() == nil {
			a.log.Warn().Err(err).Msg("storage watch stopped")
		}
	}()
}

// Close flushes telemetry.
func (a *App) Close(ctx context.Context) error {
	if a.tel == nil {
		return nil
	}
	return a.tel.Shutdown(ctx)
}

// Session is the identity store.
func (a *App) Session() *session.Store { return a.session }

// Mutations is the write-path coordinator.
func (a *App) Mutations() *mutation.Coordinator { return a.coordinator }

// Articles is the listing engine.
func (a *App) Articles() *query.Engine { return a.articles }

// Client is the raw API client, for reads the higher layers don't cover.
func (a *App) Client() *api.Client { return a.client }

// Bus is the patch bus overlays attach to.
func (a *App) Bus() *overlay.Bus { return a.bus }

// ArticleView opens an overlay on one article: fetched snapshot plus live
// favorite and follow outcomes. A failed fetch sends the user home.
func (a *App) ArticleView(ctx context.Context, slug string) *overlay.Overlay[api.Article] {
	o := overlay.New(slug, overlay.ArticleFold,
		overlay.WithAliases(overlay.ArticleAliases),
		overlay.WithErrorHandler[api.Article](a.viewError(slug)),
	)
	o.Attach(a.bus)
	go func() {
		_ = o.Fetch(ctx, func(ctx context.Context) (api.Article, error) {
			return a.client.GetArticle(ctx, slug)
		})
	}()
	return o
}

// ProfileView opens an overlay on one profile with live follow outcomes.
func (a *App) ProfileView(ctx context.Context, username string) *overlay.Overlay[api.Profile] {
	o := overlay.New(username, overlay.ProfileFold,
		overlay.WithErrorHandler[api.Profile](a.viewError(username)),
	)
	o.Attach(a.bus)
	go func() {
		_ = o.Fetch(ctx, func(ctx context.Context) (api.Profile, error) {
			return a.client.GetProfile(ctx, username)
		})
	}()
	return o
}

// CommentsView opens an overlay on an article's comments with live
// additions and removals.
func (a *App) CommentsView(ctx context.Context, slug string) *overlay.Overlay[[]api.Comment] {
	o := overlay.New(slug, overlay.CommentsFold,
		overlay.WithErrorHandler[[]api.Comment](a.viewError(slug)),
	)
	o.Attach(a.bus)
	go func() {
		_ = o.Fetch(ctx, func(ctx context.Context) ([]api.Comment, error) {
			return a.client.ListComments(ctx, slug)
		})
	}()
	return o
}

// Tags fetches the popular tag names.
func (a *App) Tags(ctx context.Context) ([]string, error) {
	return a.client.ListTags(ctx)
}

func (a *App) viewError(key string) func(error) {
	return func(err error) {
		a.log.Warn().Err(err).Str("key", key).Msg("view fetch failed")
		a.nav.NavigateHome()
	}
}
