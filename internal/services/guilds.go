package services

import (
	"context"

	"github.com/dbh-bot/dbh/types"
)

const KindGuild = "guild"

// GuildStore defines persistence operations for guilds.
type GuildStore interface {
	FindOne(ctx context.Context, id string) (types.Guild, error)
	Save(ctx context.Context, guild *types.Guild) error
}

// GuildService resolves guild settings through the write-back cache. Its
// callers are the bot's command handlers, which run outside this module.
// Returned guilds are the cached instances; change them through Modify.
type GuildService struct {
	store         GuildStore
	cache         *entityCache[types.Guild]
	defaultPrefix string
}

// NewGuildService builds the service. New guilds get defaultPrefix.
func NewGuildService(store GuildStore, defaultPrefix string, opts Options) *GuildService {
	return &GuildService{
		store:         store,
		cache:         newEntityCache(KindGuild, store.Save, opts),
		defaultPrefix: defaultPrefix,
	}
}

// Resolve returns the live guild for upstream.ID, creating it on a total
// miss. The name is resynchronized from upstream on every call.
func (s *GuildService) Resolve(ctx context.Context, upstream types.DiscordGuild) (*types.Guild, error) {
	return s.Modify(ctx, upstream, func(*types.Guild) {})
}

// Modify resolves the guild like Resolve and applies fn to it. The change is
// written back at the next flush.
func (s *GuildService) Modify(ctx context.Context, upstream types.DiscordGuild, fn func(*types.Guild)) (*types.Guild, error) {
	for {
		guild, err := s.cache.resolve(ctx, upstream.ID,
			func(ctx context.Context) (types.Guild, error) {
				return s.store.FindOne(ctx, upstream.ID)
			},
			func() *types.Guild {
				return types.NewGuild(upstream, s.defaultPrefix)
			},
		)
		if err != nil {
			return nil, err
		}
		applied := s.cache.apply(upstream.ID, guild, func(g *types.Guild) {
			if g.Name != upstream.Name {
				g.Name = upstream.Name
			}
			fn(g)
		})
		if applied {
			return guild, nil
		}
	}
}

func (s *GuildService) Create(ctx context.Context, upstream types.DiscordGuild) (*types.Guild, error) {
	return s.cache.create(ctx, upstream.ID, types.NewGuild(upstream, s.defaultPrefix))
}

func (s *GuildService) Kind() string {
	return KindGuild
}

func (s *GuildService) Cached() int {
	return s.cache.items.Len()
}

func (s *GuildService) Flush(ctx context.Context) (KindReport, error) {
	return s.cache.flush(ctx)
}
