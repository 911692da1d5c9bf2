package services

import (
	"context"
	"sync"
	"testing"

	"github.com/dbh-bot/dbh/types"
	"github.com/stretchr/testify/require"
)

func TestRedirectService_ResolveCreatesOnMiss(t *testing.T) {
	st := newFakeRedirectStore()
	svc := NewRedirectService(st, Options{})

	link, err := svc.Resolve(context.Background(), "r1", RedirectTarget{URL: "https://example.com", Message: "hi"})
	require.NoError(t, err)
	require.Equal(t, &types.RedirectLink{ID: "r1", URL: "https://example.com", Message: "hi"}, link)
	require.Zero(t, st.saves.Load())
}

func TestRedirectService_ResolveKeepsStoredTarget(t *testing.T) {
	st := newFakeRedirectStore()
	st.put(types.RedirectLink{ID: "r1", URL: "https://stored", Redirected: 4})
	svc := NewRedirectService(st, Options{})

	link, err := svc.Resolve(context.Background(), "r1", RedirectTarget{URL: "https://other"})
	require.NoError(t, err)
	require.Equal(t, "https://stored", link.URL)
	require.Equal(t, int64(4), link.Redirected)
}

func TestRedirectService_FollowIncrementsCounter(t *testing.T) {
	st := newFakeRedirectStore()
	st.put(types.RedirectLink{ID: "r1", URL: "https://stored", Redirected: 1})
	svc := NewRedirectService(st, Options{})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.Follow(ctx, "r1")
		require.NoError(t, err)
	}
	link, err := svc.Follow(ctx, "r1")
	require.NoError(t, err)
	require.Equal(t, int64(5), link.Redirected)
	require.Equal(t, int32(1), st.finds.Load())

	_, err = svc.Flush(ctx)
	require.NoError(t, err)
	saved, _ := st.get("r1")
	require.Equal(t, int64(5), saved.Redirected)
}

func TestRedirectService_FollowUnknownIsNotFound(t *testing.T) {
	svc := NewRedirectService(newFakeRedirectStore(), Options{})

	_, err := svc.Follow(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
	require.Equal(t, CodeNotFound, CodeOf(err))
	require.Zero(t, svc.Cached())
}

func TestRedirectService_CreateThenFollow(t *testing.T) {
	st := newFakeRedirectStore()
	svc := NewRedirectService(st, Options{})
	ctx := context.Background()

	created, err := svc.Create(ctx, "r2", RedirectTarget{URL: "https://new"})
	require.NoError(t, err)

	followed, err := svc.Follow(ctx, "r2")
	require.NoError(t, err)
	require.Same(t, created, followed)
	require.Equal(t, int64(1), followed.Redirected)
	require.Zero(t, st.finds.Load())
}

func TestRedirectService_FollowDuringFlushKeepsEveryCount(t *testing.T) {
	st := newFakeRedirectStore()
	st.put(types.RedirectLink{ID: "r1", URL: "https://stored"})
	svc := NewRedirectService(st, Options{})
	ctx := context.Background()

	const follows = 50
	var followers sync.WaitGroup
	for i := 0; i < follows; i++ {
		followers.Add(1)
		go func() {
			defer followers.Done()
			if _, err := svc.Follow(ctx, "r1"); err != nil {
				t.Error(err)
			}
		}()
	}

	done := make(chan struct{})
	flushed := make(chan struct{})
	go func() {
		defer close(flushed)
		for {
			select {
			case <-done:
				return
			default:
				_, _ = svc.Flush(ctx)
			}
		}
	}()

	followers.Wait()
	close(done)
	<-flushed

	_, err := svc.Flush(ctx)
	require.NoError(t, err)
	saved, _ := st.get("r1")
	require.Equal(t, int64(follows), saved.Redirected)
}
