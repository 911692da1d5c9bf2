package services

import (
	"context"

	"github.com/dbh-bot/dbh/types"
)

const KindUser = "user"

// UserStore defines persistence operations for guild users.
type UserStore interface {
	FindOne(ctx context.Context, guildID, id string) (types.User, error)
	Save(ctx context.Context, user *types.User) error
}

// UserService resolves guild users through the write-back cache. Returned
// users are the cached instances; change them through Modify or Update.
type UserService struct {
	store UserStore
	cache *entityCache[types.User]
}

func NewUserService(store UserStore, opts Options) *UserService {
	return &UserService{
		store: store,
		cache: newEntityCache(KindUser, store.Save, opts),
	}
}

func userKey(guildID, authorID string) string {
	return guildID + ":" + authorID
}

// Resolve returns the live user for (guildID, author.ID), creating one on a
// total miss. The display name is resynchronized from author on every call.
func (s *UserService) Resolve(ctx context.Context, guildID string, author types.Author) (*types.User, error) {
	return s.Modify(ctx, guildID, author, func(*types.User) {})
}

// Modify resolves the user like Resolve and applies fn to it. The change is
// written back at the next flush.
func (s *UserService) Modify(ctx context.Context, guildID string, author types.Author, fn func(*types.User)) (*types.User, error) {
	key := userKey(guildID, author.ID)
	for {
		user, err := s.cache.resolve(ctx, key,
			func(ctx context.Context) (types.User, error) {
				return s.store.FindOne(ctx, guildID, author.ID)
			},
			func() *types.User {
				return types.NewUser(guildID, author)
			},
		)
		if err != nil {
			return nil, err
		}
		applied := s.cache.apply(key, user, func(u *types.User) {
			if u.Name != author.Username {
				u.Name = author.Username
			}
			fn(u)
		})
		if applied {
			return user, nil
		}
	}
}

// Create caches a fresh user with default role and zeroed stats, replacing
// any cached instance for the same key.
func (s *UserService) Create(ctx context.Context, guildID string, author types.Author) (*types.User, error) {
	return s.cache.create(ctx, userKey(guildID, author.ID), types.NewUser(guildID, author))
}

// Save persists user immediately.
func (s *UserService) Save(ctx context.Context, user *types.User) error {
	return s.cache.persist(ctx, user)
}

// Update applies fn to user and persists it immediately.
func (s *UserService) Update(ctx context.Context, user *types.User, fn func(*types.User)) error {
	return s.cache.update(ctx, user, fn)
}

func (s *UserService) Kind() string {
	return KindUser
}

func (s *UserService) Cached() int {
	return s.cache.items.Len()
}

func (s *UserService) Flush(ctx context.Context) (KindReport, error) {
	return s.cache.flush(ctx)
}
