package session_test

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionkit/core/identity"
	"github.com/dmitrymomot/sessionkit/core/session"
	"github.com/dmitrymomot/sessionkit/core/sessiontransport"
	"github.com/dmitrymomot/sessionkit/core/tokenstore"
	"github.com/dmitrymomot/sessionkit/pkg/countdown"
)

// gatedStore blocks the next SetAccessToken call after arming, letting tests
// interleave a logout with a commit's persistence writes.
type gatedStore struct {
	*tokenstore.Memory
	armed   atomic.Bool
	entered chan struct{}
	release chan struct{}
}

func newGatedStore() *gatedStore {
	return &gatedStore{
		Memory:  tokenstore.NewMemory(),
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (s *gatedStore) SetAccessToken(ctx context.Context, token string) {
	if s.armed.CompareAndSwap(true, false) {
		close(s.entered)
		<-s.release
	}
	s.Memory.SetAccessToken(ctx, token)
}

func newGatedManager(t *testing.T, store *gatedStore, svc *fakeIdentity) *session.Manager {
	t.Helper()

	mgr := session.NewManager(svc, store,
		session.WithTimer(countdown.New()),
		session.WithUnauthorizedBridge(sessiontransport.NewBridge()),
	)
	t.Cleanup(mgr.Close)
	return mgr
}

func TestManager_ConcurrentRefreshCoalescing(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	env := newManagerEnv(t, session.WithMetrics(session.NewMetrics(reg)))
	okLogin(env.svc)
	ctx := context.Background()
	require.NoError(t, env.manager.Login(ctx, "a@x.com", "Secret123!"))

	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	env.svc.refreshFn = func(ctx context.Context, refreshToken string) (identity.TokenResponse, error) {
		entered <- struct{}{}
		<-release
		return identity.TokenResponse{Token: "access-2", ExpiresInSeconds: 3600}, nil
	}

	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = env.manager.Refresh(ctx)
		}()
	}

	// Hold the outbound request open until every caller has had a chance to
	// join the in-flight group, then let it complete.
	<-entered
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), env.svc.refreshCalls.Load(), "concurrent refreshes must coalesce into one request")
	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, "access-2", env.manager.Current().AccessToken)

	// One caller executed the refresh; the other seven joined it.
	expected := `
# HELP sessionkit_token_refreshes_total Token refresh attempts by result; callers joining an in-flight refresh count as coalesced.
# TYPE sessionkit_token_refreshes_total counter
sessionkit_token_refreshes_total{result="coalesced"} 7
sessionkit_token_refreshes_total{result="ok"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "sessionkit_token_refreshes_total"))
}

func TestManager_ConcurrentLogout(t *testing.T) {
	t.Parallel()

	env := newManagerEnv(t)
	okLogin(env.svc)
	ctx := context.Background()
	require.NoError(t, env.manager.Login(ctx, "a@x.com", "Secret123!"))

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			env.manager.Logout(ctx)
		}()
	}
	wg.Wait()

	assert.False(t, env.manager.IsAuthenticated())
	assert.Empty(t, env.store.AccessToken(ctx))

	// Only the teardown that observed an authenticated session attempts the
	// server-side invalidation.
	assert.Eventually(t, func() bool {
		return env.svc.logoutCalls.Load() == 1
	}, time.Second, 10*time.Millisecond)
}

func TestManager_LogoutDiscardsInFlightLogin(t *testing.T) {
	t.Parallel()

	env := newManagerEnv(t)
	ctx := context.Background()

	entered := make(chan struct{})
	release := make(chan struct{})
	env.svc.loginFn = func(ctx context.Context, email, password string) (identity.TokenResponse, error) {
		close(entered)
		<-release
		return identity.TokenResponse{
			Token:            "access-1",
			RefreshToken:     "refresh-1",
			ExpiresInSeconds: 3600,
			User:             testUser(),
		}, nil
	}

	done := make(chan error, 1)
	go func() { done <- env.manager.Login(ctx, "a@x.com", "Secret123!") }()

	<-entered
	env.manager.Logout(ctx)
	close(release)

	select {
	case err := <-done:
		assert.ErrorIs(t, err, session.ErrSessionReplaced)
	case <-time.After(time.Second):
		t.Fatal("login never returned")
	}

	assert.False(t, env.manager.IsAuthenticated())
	assert.Empty(t, env.store.AccessToken(ctx))
	assert.Empty(t, env.store.RefreshToken(ctx))
}

func TestManager_LogoutDiscardsInFlightRefresh(t *testing.T) {
	t.Parallel()

	env := newManagerEnv(t)
	okLogin(env.svc)
	ctx := context.Background()
	require.NoError(t, env.manager.Login(ctx, "a@x.com", "Secret123!"))

	entered := make(chan struct{})
	release := make(chan struct{})
	env.svc.refreshFn = func(ctx context.Context, refreshToken string) (identity.TokenResponse, error) {
		close(entered)
		<-release
		return identity.TokenResponse{Token: "access-2", ExpiresInSeconds: 3600}, nil
	}

	done := make(chan error, 1)
	go func() { done <- env.manager.Refresh(ctx) }()

	<-entered
	env.manager.Logout(ctx)
	close(release)

	select {
	case err := <-done:
		assert.ErrorIs(t, err, session.ErrSessionReplaced)
	case <-time.After(time.Second):
		t.Fatal("refresh never returned")
	}

	// The stale refresh result must not resurrect the session.
	assert.False(t, env.manager.IsAuthenticated())
	assert.Empty(t, env.manager.Current().AccessToken)
}

func TestManager_LogoutDuringLoginPersistence(t *testing.T) {
	t.Parallel()

	store := newGatedStore()
	svc := &fakeIdentity{}
	okLogin(svc)
	mgr := newGatedManager(t, store, svc)
	ctx := context.Background()

	store.armed.Store(true)
	done := make(chan error, 1)
	go func() { done <- mgr.Login(ctx, "a@x.com", "Secret123!") }()

	// Logout completes while the login is mid-way through its token writes.
	<-store.entered
	mgr.Logout(ctx)
	close(store.release)

	select {
	case err := <-done:
		assert.ErrorIs(t, err, session.ErrSessionReplaced)
	case <-time.After(time.Second):
		t.Fatal("login never returned")
	}

	// The interleaved writes must not leave credentials behind the logout.
	assert.False(t, mgr.IsAuthenticated())
	assert.Empty(t, store.AccessToken(ctx))
	assert.Empty(t, store.RefreshToken(ctx))
	assert.Nil(t, store.LoadSnapshot(ctx))

	fresh := session.NewManager(svc, store)
	t.Cleanup(fresh.Close)
	assert.False(t, fresh.Restore(ctx), "logged-out session must not be restorable")
}

func TestManager_LogoutDuringRefreshPersistence(t *testing.T) {
	t.Parallel()

	store := newGatedStore()
	svc := &fakeIdentity{}
	okLogin(svc)
	mgr := newGatedManager(t, store, svc)
	ctx := context.Background()
	require.NoError(t, mgr.Login(ctx, "a@x.com", "Secret123!"))

	svc.refreshFn = func(ctx context.Context, refreshToken string) (identity.TokenResponse, error) {
		return identity.TokenResponse{Token: "access-2", ExpiresInSeconds: 3600}, nil
	}

	store.armed.Store(true)
	done := make(chan error, 1)
	go func() { done <- mgr.Refresh(ctx) }()

	<-store.entered
	mgr.Logout(ctx)
	close(store.release)

	select {
	case err := <-done:
		assert.ErrorIs(t, err, session.ErrSessionReplaced)
	case <-time.After(time.Second):
		t.Fatal("refresh never returned")
	}

	assert.False(t, mgr.IsAuthenticated())
	assert.Empty(t, store.AccessToken(ctx))
	assert.Nil(t, store.LoadSnapshot(ctx))
}

func TestManager_TouchLogoutRace(t *testing.T) {
	t.Parallel()

	env := newManagerEnv(t)
	okLogin(env.svc)
	ctx := context.Background()
	require.NoError(t, env.manager.Login(ctx, "a@x.com", "Secret123!"))

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				env.manager.Touch()
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		env.manager.Logout(ctx)
	}()
	wg.Wait()

	assert.False(t, env.manager.IsAuthenticated())
	assert.Empty(t, env.store.AccessToken(ctx))
}
