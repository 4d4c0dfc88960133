// Package session owns the single current-identity value for the client.
// Every consumer that needs to know who is signed in subscribes here; nothing
// else reads or writes the persisted token.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/cexll/conduitsdk-go/pkg/api"
	"github.com/cexll/conduitsdk-go/pkg/kv"
	"github.com/cexll/conduitsdk-go/pkg/logx"
	"github.com/cexll/conduitsdk-go/pkg/stream"
)

// TokenKey is the fixed storage key the session token lives under.
const TokenKey = "jwtToken"

// Transport is the part of the API client the session store drives.
type Transport interface {
	SetToken(token string)
	ClearToken()
	CurrentUser(ctx context.Context) (api.User, error)
	UpdateUser(ctx context.Context, update api.UserUpdate) (api.User, error)
}

// Watcher is implemented by storage backends that can report external
// changes to their contents.
type Watcher interface {
	Watch(ctx context.Context, fn func()) error
}

// Store holds the current identity and fans out changes to subscribers.
type Store struct {
	transport Transport
	storage   kv.Store
	log       zerolog.Logger
	now       func() time.Time

	current *stream.Cell[*api.User]
	authed  *stream.Cell[bool]
	// keeps the derived authed cell attached for the store's lifetime
	authSub stream.Subscription
}

// New builds a store over the given transport and storage capability.
func New(transport Transport, storage kv.Store) *Store {
	current := stream.NewDistinctCell(sameUser)
	authed, sub := stream.Derive(current, func(u *api.User) bool { return u != nil }, stream.Eq[bool])
	return &Store{
		transport: transport,
		storage:   storage,
		log:       logx.Component("session"),
		now:       time.Now,
		current:   current,
		authed:    authed,
		authSub:   sub,
	}
}

// Current is the live identity feed. Consecutive identical identities are
// suppressed; nil means anonymous.
func (s *Store) Current() *stream.Cell[*api.User] {
	return s.current
}

// Authenticated emits only when the session transitions between present and
// absent, not on identity field changes.
func (s *Store) Authenticated() *stream.Cell[bool] {
	return s.authed
}

// IsAuthenticated reports the instantaneous authenticated state.
func (s *Store) IsAuthenticated() bool {
	u, ok := s.current.Get()
	return ok && u != nil
}

// Identity returns the current identity when one is present.
func (s *Store) Identity() (api.User, bool) {
	u, ok := s.current.Get()
	if !ok || u == nil {
		return api.User{}, false
	}
	return *u, true
}

// SetAuth persists the identity's token, attaches it to the transport, and
// publishes the identity.
func (s *Store) SetAuth(user api.User) {
	if err := s.storage.Set(TokenKey, user.Token); err != nil {
		s.log.Warn().Err(err).Msg("persist token")
	}
	s.transport.SetToken(user.Token)
	u := user
	s.current.Set(&u)
	s.log.Debug().Str("username", user.Username).Msg("authenticated")
}

// Purge removes the persisted token and publishes absence. Idempotent.
func (s *Store) Purge() {
	if err := s.storage.Remove(TokenKey); err != nil {
		s.log.Warn().Err(err).Msg("remove token")
	}
	s.transport.ClearToken()
	s.current.Set(nil)
}

// Load attaches the persisted token, if any, to the transport without
// publishing an identity. The identity itself arrives through Revalidate.
func (s *Store) Load() bool {
	token, ok := s.storage.Get(TokenKey)
	if !ok || token == "" {
		return false
	}
	s.transport.SetToken(token)
	return true
}

// Revalidate restores the session from the persisted token. A missing or
// expired token, or any transport failure, purges the session rather than
// leaving a half-valid identity.
func (s *Store) Revalidate(ctx context.Context) error {
	token, ok := s.storage.Get(TokenKey)
	if !ok || token == "" {
		s.Purge()
		return nil
	}
	if tokenExpired(token, s.now()) {
		s.log.Debug().Msg("stored token expired")
		s.Purge()
		return nil
	}
	s.transport.SetToken(token)
	user, err := s.transport.CurrentUser(ctx)
	if err != nil {
		s.Purge()
		return fmt.Errorf("session: revalidate: %w", err)
	}
	s.SetAuth(user)
	return nil
}

// Update applies a partial profile update and publishes the replaced
// identity on success.
func (s *Store) Update(ctx context.Context, update api.UserUpdate) (api.User, error) {
	user, err := s.transport.UpdateUser(ctx, update)
	if err != nil {
		return api.User{}, err
	}
	s.SetAuth(user)
	return user, nil
}

// WatchStorage tracks external changes to the storage backend and purges the
// session when the token disappears underneath us. It blocks until ctx is
// done; storage backends without watch support return immediately.
func (s *Store) WatchStorage(ctx context.Context) error {
	watcher, ok := s.storage.(Watcher)
	if !ok {
		return nil
	}
	return watcher.Watch(ctx, func() {
		if _, ok := s.storage.Get(TokenKey); !ok && s.IsAuthenticated() {
			s.log.Debug().Msg("token removed externally")
			s.Purge()
		}
	})
}

func sameUser(a, b *api.User) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
