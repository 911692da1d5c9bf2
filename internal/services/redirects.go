package services

import (
	"context"
	"errors"

	"github.com/dbh-bot/dbh/internal/store"
	"github.com/dbh-bot/dbh/types"
)

const KindRedirect = "redirect"

// RedirectStore defines persistence operations for redirect links.
type RedirectStore interface {
	FindOne(ctx context.Context, id string) (types.RedirectLink, error)
	Save(ctx context.Context, link *types.RedirectLink) error
}

// RedirectTarget holds the attributes a link is created with.
type RedirectTarget struct {
	URL     string
	Message string
}

// RedirectService resolves redirect links through the write-back cache.
// Follow is served by the web handlers; Resolve and Create are called by
// the bot's command handlers.
type RedirectService struct {
	store RedirectStore
	cache *entityCache[types.RedirectLink]
}

func NewRedirectService(store RedirectStore, opts Options) *RedirectService {
	return &RedirectService{
		store: store,
		cache: newEntityCache(KindRedirect, store.Save, opts),
	}
}

// Resolve returns the live link for id, creating it from target on a total miss.
// An existing link keeps its stored target.
func (s *RedirectService) Resolve(ctx context.Context, id string, target RedirectTarget) (*types.RedirectLink, error) {
	return s.cache.resolve(ctx, id, s.finder(id), func() *types.RedirectLink {
		return newRedirect(id, target)
	})
}

func (s *RedirectService) Create(ctx context.Context, id string, target RedirectTarget) (*types.RedirectLink, error) {
	return s.cache.create(ctx, id, newRedirect(id, target))
}

// Follow resolves an existing link and counts one redirect. Unknown ids fail
// with ErrNotFound; a link is never invented without a target.
func (s *RedirectService) Follow(ctx context.Context, id string) (*types.RedirectLink, error) {
	for {
		link, err := s.cache.lookup(ctx, id, s.finder(id))
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, notFound(KindRedirect)
			}
			return nil, err
		}
		if s.cache.apply(id, link, func(l *types.RedirectLink) { l.Redirected++ }) {
			return link, nil
		}
	}
}

func (s *RedirectService) finder(id string) func(context.Context) (types.RedirectLink, error) {
	return func(ctx context.Context) (types.RedirectLink, error) {
		return s.store.FindOne(ctx, id)
	}
}

func newRedirect(id string, target RedirectTarget) *types.RedirectLink {
	return &types.RedirectLink{ID: id, URL: target.URL, Message: target.Message}
}

func (s *RedirectService) Kind() string {
	return KindRedirect
}

func (s *RedirectService) Cached() int {
	return s.cache.items.Len()
}

func (s *RedirectService) Flush(ctx context.Context) (KindReport, error) {
	return s.cache.flush(ctx)
}
