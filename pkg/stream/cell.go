package stream

import (
	"slices"
	"sync"
)

// Subscription detaches a consumer from the cell or feed it was registered
// with. Cancel is idempotent; no deliveries happen after it returns.
type Subscription interface {
	Cancel()
}

type subscription struct {
	once   sync.Once
	detach func()
}

func (s *subscription) Cancel() { s.once.Do(s.detach) }

// Eq is a ready-made equality function for comparable value types.
func Eq[T comparable](a, b T) bool { return a == b }

// Cell holds the latest value of a state stream. New subscribers receive the
// current value immediately (when one has been set) and every later change.
// The subscriber list is copy-on-write; deliveries run synchronously in the
// goroutine that calls Set.
type Cell[T any] struct {
	mu      sync.Mutex
	value   T
	has     bool
	version uint64
	equal   func(a, b T) bool
	subs    []*cellSub[T]
}

type cellSub[T any] struct {
	fn func(T)
}

// NewCell returns an empty cell with no duplicate suppression.
func NewCell[T any]() *Cell[T] {
	return &Cell[T]{}
}

// NewDistinctCell returns an empty cell that suppresses consecutive values
// considered equal by eq.
func NewDistinctCell[T any](eq func(a, b T) bool) *Cell[T] {
	return &Cell[T]{equal: eq}
}

// Set publishes value to all current subscribers. When the cell is distinct
// and value equals the previous one, nothing is published.
func (c *Cell[T]) Set(value T) {
	c.mu.Lock()
	if c.has && c.equal != nil && c.equal(c.value, value) {
		c.mu.Unlock()
		return
	}
	c.value = value
	c.has = true
	c.version++
	subs := c.subs
	c.mu.Unlock()

	for _, s := range subs {
		s.fn(value)
	}
}

// Get returns the latest value and whether one has been set.
func (c *Cell[T]) Get() (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value, c.has
}

// Version reports how many distinct values the cell has held.
func (c *Cell[T]) Version() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.version
}

// Subscribe registers fn. The current value, if any, is replayed before
// Subscribe returns.
func (c *Cell[T]) Subscribe(fn func(T)) Subscription {
	s := &cellSub[T]{fn: fn}

	c.mu.Lock()
	next := slices.Clone(c.subs)
	next = append(next, s)
	c.subs = next
	replay, has := c.value, c.has
	c.mu.Unlock()

	if has {
		fn(replay)
	}
	return &subscription{detach: func() { c.remove(s) }}
}

func (c *Cell[T]) remove(s *cellSub[T]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := slices.Index(c.subs, s)
	if i < 0 {
		return
	}
	next := slices.Clone(c.subs)
	c.subs = slices.Delete(next, i, i+1)
}

// Derive projects src into a new distinct cell. The derived cell tracks src
// for as long as the returned subscription stays active.
func Derive[T, U any](src *Cell[T], project func(T) U, eq func(a, b U) bool) (*Cell[U], Subscription) {
	dst := NewDistinctCell(eq)
	sub := src.Subscribe(func(v T) {
		dst.Set(project(v))
	})
	return dst, sub
}
