package sessionkit_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionkit"
	"github.com/dmitrymomot/sessionkit/core/identity"
	"github.com/dmitrymomot/sessionkit/core/tokenstore"
	"github.com/dmitrymomot/sessionkit/pkg/activity"
)

// fakeBackend serves the identity endpoints plus a token-protected API route.
func fakeBackend(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var creds struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		if creds.Password != "Secret123!" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(identity.TokenResponse{
			Token:            "access-1",
			RefreshToken:     "refresh-1",
			ExpiresInSeconds: 3600,
			User: &identity.User{
				ID:    uuid.New(),
				Email: creds.Email,
				Roles: []string{"admin"},
			},
		})
	})
	mux.HandleFunc("POST /auth/logout", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("GET /api/devices", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer access-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("GET /api/revoked", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newKit(t *testing.T, srv *httptest.Server, opts ...sessionkit.Option) *sessionkit.Kit {
	t.Helper()

	kit, err := sessionkit.New(context.Background(), append([]sessionkit.Option{
		sessionkit.WithConfig(sessionkit.Config{
			Identity:   identity.Config{BaseURL: srv.URL},
			TokenStore: sessionkit.StoreMemory,
		}),
	}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = kit.Close() })
	return kit
}

func TestKit_EndToEnd(t *testing.T) {
	t.Parallel()

	srv := fakeBackend(t)
	kit := newKit(t, srv)
	ctx := context.Background()

	require.NoError(t, kit.Manager.Login(ctx, "a@x.com", "Secret123!"))
	require.True(t, kit.Manager.IsAuthenticated())
	assert.True(t, kit.Manager.HasRole("admin"))

	// The assembled HTTP client attaches the stored access token.
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/devices", nil)
	require.NoError(t, err)
	resp, err := kit.HTTPClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Activity signals reach the session manager through the monitor.
	before := kit.Manager.Current().LastActivity
	kit.Monitor.Signal(activity.KindPointer)
	assert.False(t, kit.Manager.Current().LastActivity.Before(before))

	// A rejected API call tears the session down via the bridge.
	req, err = http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/revoked", nil)
	require.NoError(t, err)
	resp, err = kit.HTTPClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.False(t, kit.Manager.IsAuthenticated())
}

func TestKit_LoginFailure(t *testing.T) {
	t.Parallel()

	srv := fakeBackend(t)
	kit := newKit(t, srv)

	err := kit.Manager.Login(context.Background(), "a@x.com", "wrong")
	require.Error(t, err)
	assert.ErrorIs(t, err, identity.ErrInvalidCredentials)
	assert.False(t, kit.Manager.IsAuthenticated())
}

func TestKit_TokenStoreOverride(t *testing.T) {
	t.Parallel()

	srv := fakeBackend(t)
	store := tokenstore.NewMemory()
	kit := newKit(t, srv, sessionkit.WithTokenStore(store))
	ctx := context.Background()

	require.NoError(t, kit.Manager.Login(ctx, "a@x.com", "Secret123!"))
	assert.Equal(t, "access-1", store.AccessToken(ctx))
}

func TestKit_UnknownStoreDriver(t *testing.T) {
	t.Parallel()

	_, err := sessionkit.New(context.Background(), sessionkit.WithConfig(sessionkit.Config{
		Identity:   identity.Config{BaseURL: "http://localhost:1"},
		TokenStore: "bolt",
	}))
	assert.ErrorIs(t, err, sessionkit.ErrUnknownStore)
}

func TestKit_RequestTimeout(t *testing.T) {
	t.Parallel()

	srv := fakeBackend(t)

	t.Run("applies configured timeout to the shared client", func(t *testing.T) {
		t.Parallel()

		kit, err := sessionkit.New(context.Background(), sessionkit.WithConfig(sessionkit.Config{
			Identity: identity.Config{BaseURL: srv.URL, RequestTimeout: 3 * time.Second},
		}))
		require.NoError(t, err)
		t.Cleanup(func() { _ = kit.Close() })

		assert.Equal(t, 3*time.Second, kit.HTTPClient.Timeout)
	})

	t.Run("falls back to the identity default", func(t *testing.T) {
		t.Parallel()

		kit := newKit(t, srv)
		assert.Equal(t, identity.DefaultRequestTimeout, kit.HTTPClient.Timeout)
	})
}

func TestKit_Healthcheck(t *testing.T) {
	t.Parallel()

	srv := fakeBackend(t)
	kit := newKit(t, srv)
	assert.NoError(t, kit.Healthcheck(context.Background()))
}

func TestKit_RestoreAcrossInstances(t *testing.T) {
	t.Parallel()

	srv := fakeBackend(t)
	store := tokenstore.NewMemory()
	ctx := context.Background()

	first := newKit(t, srv, sessionkit.WithTokenStore(store))
	require.NoError(t, first.Manager.Login(ctx, "a@x.com", "Secret123!"))

	second := newKit(t, srv, sessionkit.WithTokenStore(store))
	require.True(t, second.Manager.Restore(ctx))
	assert.True(t, second.Manager.IsAuthenticated())
	assert.Equal(t, "a@x.com", second.Manager.CurrentUser().Email)
}
