package services

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/dbh-bot/dbh/internal/store"
	"github.com/dbh-bot/dbh/types"
)

// memStore is an in-memory store keyed like the postgres tables.
type memStore[T any] struct {
	mu      sync.Mutex
	records map[string]T
	finds   atomic.Int32
	saves   atomic.Int32
	findErr error
	saveErr func(*T) error
	// gate, when set, blocks every find until it is closed or ctx is done.
	gate chan struct{}
	key  func(*T) string
}

func newMemStore[T any](key func(*T) string) *memStore[T] {
	return &memStore[T]{records: make(map[string]T), key: key}
}

func (m *memStore[T]) find(ctx context.Context, key string) (T, error) {
	m.finds.Add(1)
	var zero T
	if m.gate != nil {
		select {
		case <-m.gate:
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}
	if m.findErr != nil {
		return zero, m.findErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.records[key]
	if !ok {
		return zero, store.ErrNotFound
	}
	return record, nil
}

func (m *memStore[T]) save(entity *T) error {
	m.saves.Add(1)
	if m.saveErr != nil {
		if err := m.saveErr(entity); err != nil {
			return err
		}
	}
	m.mu.Lock()
	m.records[m.key(entity)] = *entity
	m.mu.Unlock()
	return nil
}

func (m *memStore[T]) put(entity T) {
	m.mu.Lock()
	m.records[m.key(&entity)] = entity
	m.mu.Unlock()
}

func (m *memStore[T]) get(key string) (T, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.records[key]
	return record, ok
}

type fakeUserStore struct{ *memStore[types.User] }

func newFakeUserStore() fakeUserStore {
	return fakeUserStore{newMemStore(func(u *types.User) string { return userKey(u.GuildID, u.ID) })}
}

func (f fakeUserStore) FindOne(ctx context.Context, guildID, id string) (types.User, error) {
	return f.find(ctx, userKey(guildID, id))
}

func (f fakeUserStore) Save(_ context.Context, user *types.User) error {
	return f.save(user)
}

type fakeGuildStore struct{ *memStore[types.Guild] }

func newFakeGuildStore() fakeGuildStore {
	return fakeGuildStore{newMemStore(func(g *types.Guild) string { return g.ID })}
}

func (f fakeGuildStore) FindOne(ctx context.Context, id string) (types.Guild, error) {
	return f.find(ctx, id)
}

func (f fakeGuildStore) Save(_ context.Context, guild *types.Guild) error {
	return f.save(guild)
}

type fakeRedirectStore struct{ *memStore[types.RedirectLink] }

func newFakeRedirectStore() fakeRedirectStore {
	return fakeRedirectStore{newMemStore(func(l *types.RedirectLink) string { return l.ID })}
}

func (f fakeRedirectStore) FindOne(ctx context.Context, id string) (types.RedirectLink, error) {
	return f.find(ctx, id)
}

func (f fakeRedirectStore) Save(_ context.Context, link *types.RedirectLink) error {
	return f.save(link)
}

type fakeAccountStore struct {
	*memStore[types.WebAccount]
	nextID atomic.Int64
}

func newFakeAccountStore() *fakeAccountStore {
	return &fakeAccountStore{memStore: newMemStore(func(a *types.WebAccount) string { return a.Login })}
}

func (f *fakeAccountStore) FindByIdentifier(_ context.Context, identifier string) (types.WebAccount, error) {
	f.finds.Add(1)
	if f.findErr != nil {
		return types.WebAccount{}, f.findErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, account := range f.records {
		if account.Login == identifier || account.Email == identifier {
			return account, nil
		}
	}
	return types.WebAccount{}, store.ErrNotFound
}

func (f *fakeAccountStore) Exists(_ context.Context, login, email string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, account := range f.records {
		if account.Login == login || (email != "" && account.Email == email) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeAccountStore) Save(_ context.Context, account *types.WebAccount) error {
	if account.ID == 0 {
		account.ID = f.nextID.Add(1)
	}
	return f.save(account)
}

type fakeAuthors map[string]types.Author

func (f fakeAuthors) FetchAuthor(_ context.Context, id string) (types.Author, error) {
	author, ok := f[id]
	if !ok {
		return types.Author{}, ErrAuthorNotFound
	}
	return author, nil
}
