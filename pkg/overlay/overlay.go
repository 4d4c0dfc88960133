package overlay

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/cexll/conduitsdk-go/pkg/logx"
	"github.com/cexll/conduitsdk-go/pkg/stream"
)

// Fold applies one patch to a value. It returns the patched value and
// whether the patch was relevant; irrelevant patches leave the value alone.
type Fold[T any] func(value T, p Patch) (T, bool)

// Option configures an Overlay.
type Option[T any] func(*Overlay[T])

// WithAliases lets the overlay answer to extra focus keys computed from the
// fetched value, such as an article view also matching patches addressed to
// its author's username.
func WithAliases[T any](fn func(T) []string) Option[T] {
	return func(o *Overlay[T]) { o.aliases = fn }
}

// WithErrorHandler installs the handler called when the fetch fails. It is
// called at most once; after a failure the overlay discards all patches.
func WithErrorHandler[T any](fn func(error)) Option[T] {
	return func(o *Overlay[T]) { o.onError = fn }
}

// Overlay tracks one remote entity: a fetched snapshot plus every relevant
// patch folded in since. Fetched() replays the unpatched snapshot to late
// subscribers; Live() emits each folded value as patches land.
type Overlay[T any] struct {
	key     string
	fold    Fold[T]
	aliases func(T) []string
	onError func(error)
	log     zerolog.Logger

	fetched *stream.Cell[T]
	live    *stream.Feed[T]

	mu      sync.Mutex
	current T
	has     bool
	failed  bool
	sub     stream.Subscription
}

// New builds an overlay for the entity identified by key.
func New[T any](key string, fold Fold[T], opts ...Option[T]) *Overlay[T] {
	o := &Overlay[T]{
		key:     key,
		fold:    fold,
		log:     logx.Component("overlay"),
		fetched: stream.NewCell[T](),
		live:    stream.NewFeed[T](),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Fetch loads the entity once and seeds the overlay with the result. On
// failure the error handler fires once and the overlay goes inert.
func (o *Overlay[T]) Fetch(ctx context.Context, load func(context.Context) (T, error)) error {
	value, err := load(ctx)
	if err != nil {
		o.mu.Lock()
		failed := o.failed
		o.failed = true
		o.mu.Unlock()
		if !failed {
			o.log.Warn().Err(err).Str("key", o.key).Msg("fetch failed")
			if o.onError != nil {
				o.onError(err)
			}
		}
		return err
	}
	o.mu.Lock()
	o.current = value
	o.has = true
	o.mu.Unlock()
	o.fetched.Set(value)
	return nil
}

// Attach subscribes the overlay to the bus. Patches addressed to other
// entities are discarded; relevant ones are folded into the current value
// and published on Live.
func (o *Overlay[T]) Attach(bus *Bus) {
	o.mu.Lock()
	if o.sub != nil {
		o.mu.Unlock()
		return
	}
	o.sub = bus.Subscribe(o.apply)
	o.mu.Unlock()
}

// Close detaches the overlay from the bus.
func (o *Overlay[T]) Close() {
	o.mu.Lock()
	sub := o.sub
	o.sub = nil
	o.mu.Unlock()
	if sub != nil {
		sub.Cancel()
	}
}

// Fetched replays the unpatched server snapshot.
func (o *Overlay[T]) Fetched() *stream.Cell[T] { return o.fetched }

// Live emits each folded value. Live-only: no replay.
func (o *Overlay[T]) Live() *stream.Feed[T] { return o.live }

// Current returns the latest folded value when the fetch has completed.
func (o *Overlay[T]) Current() (T, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.current, o.has
}

func (o *Overlay[T]) apply(p Patch) {
	o.mu.Lock()
	if o.failed || !o.has || !o.matchesLocked(p) {
		o.mu.Unlock()
		return
	}
	next, applied := o.fold(o.current, p)
	if !applied {
		o.mu.Unlock()
		return
	}
	o.current = next
	o.mu.Unlock()
	o.live.Publish(next)
}

func (o *Overlay[T]) matchesLocked(p Patch) bool {
	key := p.FocusKey()
	if key == o.key {
		return true
	}
	if o.aliases == nil {
		return false
	}
	for _, alias := range o.aliases(o.current) {
		if key == alias {
			return true
		}
	}
	return false
}
