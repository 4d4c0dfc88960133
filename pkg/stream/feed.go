package stream

import (
	"slices"
	"sync"
)

// Feed broadcasts values to live subscribers only. Unlike Cell it keeps no
// latest value: late subscribers observe nothing until the next Publish.
type Feed[T any] struct {
	mu   sync.Mutex
	subs []*feedSub[T]
}

type feedSub[T any] struct {
	fn func(T)
}

// NewFeed returns an empty live-only broadcast.
func NewFeed[T any]() *Feed[T] {
	return &Feed[T]{}
}

// Publish delivers value to every current subscriber.
func (f *Feed[T]) Publish(value T) {
	f.mu.Lock()
	subs := f.subs
	f.mu.Unlock()

	for _, s := range subs {
		s.fn(value)
	}
}

// Subscribe registers fn for future publishes.
func (f *Feed[T]) Subscribe(fn func(T)) Subscription {
	s := &feedSub[T]{fn: fn}

	f.mu.Lock()
	next := slices.Clone(f.subs)
	f.subs = append(next, s)
	f.mu.Unlock()

	return &subscription{detach: func() { f.remove(s) }}
}

func (f *Feed[T]) remove(s *feedSub[T]) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := slices.Index(f.subs, s)
	if i < 0 {
		return
	}
	next := slices.Clone(f.subs)
	f.subs = slices.Delete(next, i, i+1)
}
