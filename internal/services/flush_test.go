package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dbh-bot/dbh/internal/auth"
	"github.com/dbh-bot/dbh/types"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu       sync.Mutex
	channels []string
	payloads [][]byte
	err      error
}

func (p *recordingPublisher) Publish(_ context.Context, channel string, data []byte, _ map[string]string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.channels = append(p.channels, channel)
	p.payloads = append(p.payloads, data)
	return "id", p.err
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.payloads)
}

type schedulerFixture struct {
	users     *UserService
	guilds    *GuildService
	redirects *RedirectService
	accounts  *AccountService
	userStore fakeUserStore
	scheduler *Scheduler
}

func newSchedulerFixture(interval time.Duration) schedulerFixture {
	fx := schedulerFixture{userStore: newFakeUserStore()}
	fx.users = NewUserService(fx.userStore, Options{})
	fx.guilds = NewGuildService(newFakeGuildStore(), "!", Options{})
	fx.redirects = NewRedirectService(newFakeRedirectStore(), Options{})
	fx.accounts = NewAccountService(newFakeAccountStore(), auth.NewCodec("secret", time.Hour, nil), Options{})
	fx.scheduler = NewScheduler(interval, fx.accounts, Options{}, fx.users, fx.guilds, fx.redirects, fx.accounts)
	return fx
}

func TestScheduler_FlushClearsEveryCache(t *testing.T) {
	fx := newSchedulerFixture(time.Hour)
	ctx := context.Background()

	_, err := fx.users.Resolve(ctx, "g1", alice)
	require.NoError(t, err)
	_, err = fx.guilds.Resolve(ctx, types.DiscordGuild{ID: "g1", Name: "Guild"})
	require.NoError(t, err)
	_, err = fx.redirects.Resolve(ctx, "r1", RedirectTarget{URL: "https://example.com"})
	require.NoError(t, err)
	account, err := fx.accounts.RegisterAccount(ctx, Registration{Login: "alice", Password: "pw"})
	require.NoError(t, err)
	_, err = fx.accounts.Issue(ClaimsFor(account))
	require.NoError(t, err)

	report, err := fx.scheduler.Flush(ctx)
	require.NoError(t, err)
	require.Equal(t, map[string]KindReport{
		KindUser:     {Persisted: 1},
		KindGuild:    {Persisted: 1},
		KindRedirect: {Persisted: 1},
		KindAccount:  {Persisted: 1},
	}, report.Kinds)
	require.Equal(t, 1, report.TokensCleared)

	require.Zero(t, fx.users.Cached())
	require.Zero(t, fx.guilds.Cached())
	require.Zero(t, fx.redirects.Cached())
	require.Zero(t, fx.accounts.Cached())
	require.Zero(t, fx.accounts.ClearSessions())
}

func TestScheduler_FlushVisitsEveryCacheDespiteFailures(t *testing.T) {
	fx := newSchedulerFixture(time.Hour)
	ctx := context.Background()
	boom := errors.New("write failed")
	fx.userStore.saveErr = func(*types.User) error { return boom }

	_, err := fx.users.Resolve(ctx, "g1", alice)
	require.NoError(t, err)
	_, err = fx.guilds.Resolve(ctx, types.DiscordGuild{ID: "g1"})
	require.NoError(t, err)

	report, err := fx.scheduler.Flush(ctx)
	require.ErrorIs(t, err, boom)
	require.Equal(t, KindReport{Failed: 1}, report.Kinds[KindUser])
	require.Equal(t, KindReport{Persisted: 1}, report.Kinds[KindGuild])
	require.Equal(t, 1, fx.users.Cached())
	require.Zero(t, fx.guilds.Cached())
}

func TestScheduler_PublishesReport(t *testing.T) {
	fx := newSchedulerFixture(time.Hour)
	pub := &recordingPublisher{}
	fx.scheduler.PublishTo(pub, "dbh.flush")

	_, err := fx.users.Resolve(context.Background(), "g1", alice)
	require.NoError(t, err)
	_, err = fx.scheduler.Flush(context.Background())
	require.NoError(t, err)

	require.Equal(t, []string{"dbh.flush"}, pub.channels)
	var decoded FlushReport
	require.NoError(t, json.Unmarshal(pub.payloads[0], &decoded))
	require.Equal(t, 1, decoded.Kinds[KindUser].Persisted)
}

func TestScheduler_PublishFailureDoesNotFailFlush(t *testing.T) {
	fx := newSchedulerFixture(time.Hour)
	fx.scheduler.PublishTo(&recordingPublisher{err: errors.New("broker down")}, "q")

	_, err := fx.scheduler.Flush(context.Background())
	require.NoError(t, err)
}

func TestScheduler_RunFlushesPeriodicallyAndOnStop(t *testing.T) {
	fx := newSchedulerFixture(10 * time.Millisecond)
	pub := &recordingPublisher{}
	fx.scheduler.PublishTo(pub, "q")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		fx.scheduler.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return pub.count() >= 2 }, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
	require.GreaterOrEqual(t, pub.count(), 3)
}
