package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dmitrymomot/sessionkit/core/identity"
	"github.com/dmitrymomot/sessionkit/core/logger"
	"github.com/dmitrymomot/sessionkit/core/sessiontransport"
	"github.com/dmitrymomot/sessionkit/core/tokenstore"
	"github.com/dmitrymomot/sessionkit/pkg/broadcast"
	"github.com/dmitrymomot/sessionkit/pkg/countdown"
)

// Service is what the manager needs from the identity backend.
// *identity.Client satisfies it.
type Service interface {
	Login(ctx context.Context, email, password string) (identity.TokenResponse, error)
	Logout(ctx context.Context, accessToken string) error
	Refresh(ctx context.Context, refreshToken string) (identity.TokenResponse, error)
}

// remoteLogoutTimeout bounds the best-effort server-side session invalidation.
const remoteLogoutTimeout = 5 * time.Second

type logoutCause string

const (
	causeManual        logoutCause = "manual"
	causeInactivity    logoutCause = "inactivity"
	causeRefreshFailed logoutCause = "refresh_failed"
	causeUnauthorized  logoutCause = "unauthorized"
)

// Manager is the authoritative session state machine. It owns the in-memory
// session state, writes tokens to the store in lock-step with it, schedules
// the inactivity timeout, coalesces token refreshes, and guards against stale
// completions of in-flight operations with a session generation counter.
//
// Construct one instance at startup and inject it into consumers; never share
// state through globals.
type Manager struct {
	svc          Service
	tokens       tokenstore.Store
	snapshots    tokenstore.SnapshotStore
	bridge       *sessiontransport.Bridge
	timer        *countdown.Timer
	broadcaster  *broadcast.MemoryBroadcaster[Event]
	metrics      *Metrics
	logger       *slog.Logger
	cfg          Config
	now          func() time.Time
	eventBufSize int

	mu    sync.Mutex
	state Session
	// gen increments whenever the session is torn down or replaced. In-flight
	// operations capture it at start and discard their results on mismatch,
	// so a late login or refresh can never resurrect a cleared session.
	gen uint64

	refreshGroup singleflight.Group
}

// NewManager creates a session manager. If the token store also implements
// SnapshotStore, it is used for the rehydration blob automatically.
func NewManager(svc Service, tokens tokenstore.Store, opts ...Option) *Manager {
	m := &Manager{
		svc:          svc,
		tokens:       tokens,
		timer:        countdown.New(),
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		cfg:          defaultConfig(),
		now:          time.Now,
		eventBufSize: 16,
	}
	if snapshots, ok := tokens.(tokenstore.SnapshotStore); ok {
		m.snapshots = snapshots
	}
	for _, opt := range opts {
		opt(m)
	}
	m.broadcaster = broadcast.NewMemoryBroadcaster[Event](m.eventBufSize)
	return m
}

// Login authenticates with the identity service. On success it stores the
// tokens, arms the inactivity timer, and registers the unauthorized callback.
// On failure the error is recorded on the session state for UI binding and
// returned to the caller.
//
// Overlapping Login calls each attempt authentication independently; the last
// one to complete wins. A Login that completes after a Logout is discarded.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	m.mu.Lock()
	gen := m.gen
	m.state.IsLoading = true
	m.state.Error = ""
	m.mu.Unlock()

	resp, err := m.svc.Login(ctx, email, password)
	if err == nil && (resp.User == nil || resp.Token == "") {
		err = errors.Join(identity.ErrInvalidResponse, errors.New("login response missing user profile or token"))
	}

	m.mu.Lock()
	if m.gen != gen {
		// Session was torn down while the request was in flight.
		m.mu.Unlock()
		return ErrSessionReplaced
	}
	m.state.IsLoading = false
	if err != nil {
		m.state.Error = err.Error()
		m.mu.Unlock()
		m.observeLogin(false)
		return errors.Join(ErrLoginFailed, err)
	}

	now := m.now()
	m.state = Session{
		IsAuthenticated: true,
		User:            resp.User,
		AccessToken:     resp.Token,
		RefreshToken:    resp.RefreshToken,
		TokenExpiresAt:  now.Add(time.Duration(resp.ExpiresInSeconds) * time.Second),
		LastActivity:    now,
		IsSessionActive: true,
	}
	snap := m.state
	m.mu.Unlock()

	m.persist(ctx, snap)
	m.timer.Arm(m.cfg.InactivityWindow, m.handleSessionTimeout)
	if m.bridge != nil {
		m.bridge.Set(m.onUnauthorized)
	}
	if m.discardStaleCommit(ctx, gen) {
		return ErrSessionReplaced
	}
	m.observeLogin(true)
	m.publish(EventLogin, snap)

	m.logger.InfoContext(ctx, "session established",
		logger.Component("session"),
		logger.Event("login"),
		logger.UserID(resp.User.ID.String()),
	)
	return nil
}

// Logout tears the session down: disarms the inactivity timer, clears the
// in-memory state and the token store synchronously, and invalidates the
// server-side session best-effort in the background so a slow or unavailable
// identity service can never block local teardown.
//
// Safe to call repeatedly, concurrently, and on an unauthenticated manager.
func (m *Manager) Logout(ctx context.Context) {
	m.teardown(ctx, causeManual, "")
}

// Refresh exchanges the refresh token for a new access token. Concurrent calls
// are coalesced into a single outbound request; every caller receives the same
// result. A failed refresh forces a full logout, since a half-refreshed
// session is not a safe state to retain.
func (m *Manager) Refresh(ctx context.Context) error {
	var executed bool
	_, err, _ := m.refreshGroup.Do("refresh", func() (any, error) {
		executed = true
		return nil, m.doRefresh(ctx)
	})
	if !executed {
		// This caller joined a refresh that was already in flight.
		m.observeRefreshCoalesced()
	}
	return err
}

func (m *Manager) doRefresh(ctx context.Context) error {
	m.mu.Lock()
	if !m.state.IsAuthenticated || m.state.RefreshToken == "" {
		m.mu.Unlock()
		return ErrNotAuthenticated
	}
	gen := m.gen
	refreshToken := m.state.RefreshToken
	m.mu.Unlock()

	resp, err := m.svc.Refresh(ctx, refreshToken)

	m.mu.Lock()
	if m.gen != gen {
		m.mu.Unlock()
		return ErrSessionReplaced
	}
	if err != nil {
		m.mu.Unlock()
		m.observeRefresh(false)
		m.teardown(ctx, causeRefreshFailed, "session could not be renewed, please sign in again")
		return errors.Join(ErrRefreshFailed, err)
	}

	now := m.now()
	m.state.AccessToken = resp.Token
	if resp.RefreshToken != "" {
		// The backend may rotate the refresh token; re-store whatever it returns.
		m.state.RefreshToken = resp.RefreshToken
	}
	if resp.ExpiresInSeconds > 0 {
		m.state.TokenExpiresAt = now.Add(time.Duration(resp.ExpiresInSeconds) * time.Second)
	}
	m.state.LastActivity = now
	m.state.Error = ""
	snap := m.state
	m.mu.Unlock()

	m.persist(ctx, snap)
	if m.discardStaleCommit(ctx, gen) {
		return ErrSessionReplaced
	}
	m.observeRefresh(true)
	m.publish(EventRefreshed, snap)
	return nil
}

// discardStaleCommit undoes the persistence half of a login or refresh commit
// when the session was torn down while the writes were in flight. The teardown
// already cleared the in-memory state; the interleaved persist would otherwise
// leave restorable credentials behind a completed logout. Storage is left
// alone when a newer session has committed in the meantime, since the writes
// now belong to it.
func (m *Manager) discardStaleCommit(ctx context.Context, gen uint64) bool {
	m.mu.Lock()
	if m.gen == gen {
		m.mu.Unlock()
		return false
	}
	live := m.state.IsAuthenticated
	m.mu.Unlock()

	if live {
		return true
	}

	m.timer.Disarm()
	if m.bridge != nil {
		m.bridge.Clear()
	}
	m.tokens.Clear(ctx)
	if m.snapshots != nil {
		m.snapshots.SaveSnapshot(ctx, nil)
	}
	return true
}

// Touch records user activity and restarts the inactivity window. Called by
// the activity monitor at its throttled cadence. No-op while unauthenticated.
// Touch calls are idempotent and commutative: each one re-arms the timer to
// now + the full window, so ordering between close-together calls is harmless.
func (m *Manager) Touch() {
	m.mu.Lock()
	if !m.state.IsAuthenticated || !m.state.IsSessionActive {
		m.mu.Unlock()
		return
	}
	gen := m.gen
	m.state.LastActivity = m.now()
	snap := m.state
	m.mu.Unlock()

	m.timer.Arm(m.cfg.InactivityWindow, m.handleSessionTimeout)

	// A teardown may have raced past the check above. Writing the snapshot
	// then would leave a resurrectable session behind a completed logout, so
	// skip it when the generation moved. The re-armed timer is harmless: its
	// callback re-checks the session state before acting.
	m.mu.Lock()
	stale := m.gen != gen
	m.mu.Unlock()
	if stale {
		return
	}
	m.persistSnapshot(context.Background(), snap)
}

// CheckSession reports whether the session currently holds a non-expired
// token. When the remaining lifetime falls below the refresh threshold it also
// kicks off a background refresh; a failure there leads to logout, never to an
// error surfaced here. The report is computed synchronously regardless of
// whether a refresh was started.
func (m *Manager) CheckSession(ctx context.Context) bool {
	m.mu.Lock()
	s := m.state
	now := m.now()
	m.mu.Unlock()

	if !s.IsAuthenticated || !s.IsSessionActive || s.AccessToken == "" {
		return false
	}

	remaining := s.Remaining(now)
	if remaining < m.cfg.RefreshThreshold {
		bg := context.WithoutCancel(ctx)
		go func() {
			if err := m.Refresh(bg); err != nil && !errors.Is(err, ErrSessionReplaced) {
				m.logger.WarnContext(bg, "background token refresh failed",
					logger.Component("session"), logger.Error(err))
			}
		}()
	}

	return remaining > 0
}

// Restore rehydrates the session from the persisted snapshot, if any. Call it
// once at startup before any network call. Returns true when a session was
// restored. The restored session gets a fresh inactivity window; a snapshot
// whose token is expired and has no refresh token is discarded.
func (m *Manager) Restore(ctx context.Context) bool {
	if m.snapshots == nil {
		return false
	}
	blob := m.snapshots.LoadSnapshot(ctx)
	if len(blob) == 0 {
		return false
	}

	sn, err := parseSnapshot(blob)
	if err != nil {
		m.logger.WarnContext(ctx, "corrupt session snapshot, starting fresh",
			logger.Component("session"), logger.Error(err))
		return false
	}

	s := sn.session()
	if !s.IsAuthenticated || s.AccessToken == "" || s.User == nil {
		return false
	}
	now := m.now()
	if s.Remaining(now) <= 0 && s.RefreshToken == "" {
		return false
	}

	m.mu.Lock()
	s.IsSessionActive = true
	s.LastActivity = now
	m.state = s
	snap := s
	m.mu.Unlock()

	m.timer.Arm(m.cfg.InactivityWindow, m.handleSessionTimeout)
	if m.bridge != nil {
		m.bridge.Set(m.onUnauthorized)
	}
	m.publish(EventRestored, snap)

	m.logger.InfoContext(ctx, "session restored from snapshot",
		logger.Component("session"),
		logger.Event("restore"),
		logger.UserID(s.User.ID.String()),
	)
	return true
}

// Run drives the periodic session check until the context is cancelled,
// closing the reactive-only gap where a long-lived session would hold a token
// past its refresh threshold with no navigation to trigger CheckSession.
// A zero CheckInterval disables the loop.
func (m *Manager) Run(ctx context.Context) error {
	if m.cfg.CheckInterval <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(m.cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			m.CheckSession(ctx)
		}
	}
}

// Subscribe registers a consumer for session state-change events. Route guards
// and UI shells observe the session through this; they never mutate it.
func (m *Manager) Subscribe(ctx context.Context) broadcast.Subscriber[Event] {
	return m.broadcaster.Subscribe(ctx)
}

// Close releases the manager's resources: disarms the timer and shuts down the
// event broadcaster. It does not log the session out.
func (m *Manager) Close() {
	m.timer.Disarm()
	m.broadcaster.Close()
}

// Current returns a copy of the session state.
func (m *Manager) Current() Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// IsAuthenticated reports whether a user is authenticated.
func (m *Manager) IsAuthenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.IsAuthenticated
}

// IsSessionActive reports whether the session has not hit the inactivity
// timeout.
func (m *Manager) IsSessionActive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.IsSessionActive
}

// CurrentUser returns the authenticated user profile, nil otherwise.
// Callers must treat the profile as read-only.
func (m *Manager) CurrentUser() *identity.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.User
}

// LastError returns the last user-facing error message, empty when healthy.
func (m *Manager) LastError() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Error
}

// HasRole reports whether the authenticated user carries the given role.
func (m *Manager) HasRole(role string) bool {
	return m.Current().HasRole(role)
}

// HasPermission reports whether the authenticated user carries the given
// permission.
func (m *Manager) HasPermission(permission string) bool {
	return m.Current().HasPermission(permission)
}

// handleSessionTimeout is the inactivity timer's expiry callback. It marks the
// session inactive, records the user-facing message, and tears the session
// down.
func (m *Manager) handleSessionTimeout() {
	m.mu.Lock()
	if !m.state.IsAuthenticated {
		m.mu.Unlock()
		return
	}
	m.state.IsSessionActive = false
	m.state.Error = InactivityMessage
	snap := m.state
	m.mu.Unlock()

	m.observeTimeout()
	m.publish(EventTimeout, snap)
	m.teardown(context.Background(), causeInactivity, InactivityMessage)
}

// onUnauthorized is registered on the bridge after login. The transport layer
// invokes it when any request is rejected with an authentication failure;
// teardown happens synchronously, no network round trip required.
func (m *Manager) onUnauthorized() {
	m.teardown(context.Background(), causeUnauthorized, "session is no longer valid, please sign in again")
}

// teardown is the single implementation behind every logout path. It bumps
// the session generation so in-flight operations discard their results, then
// clears state and stores synchronously. The best-effort server-side
// invalidation runs in the background and its failure is swallowed.
func (m *Manager) teardown(ctx context.Context, cause logoutCause, errMsg string) {
	m.timer.Disarm()

	m.mu.Lock()
	wasAuthenticated := m.state.IsAuthenticated
	accessToken := m.state.AccessToken
	m.gen++
	m.state = Session{Error: errMsg}
	snap := m.state
	m.mu.Unlock()

	if m.bridge != nil {
		m.bridge.Clear()
	}
	m.tokens.Clear(ctx)
	if m.snapshots != nil {
		m.snapshots.SaveSnapshot(ctx, nil)
	}

	if !wasAuthenticated {
		return
	}

	if accessToken != "" {
		go func() {
			rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), remoteLogoutTimeout)
			defer cancel()
			if err := m.svc.Logout(rctx, accessToken); err != nil {
				m.logger.DebugContext(rctx, "best-effort remote logout failed",
					logger.Component("session"), logger.Error(err))
			}
		}()
	}

	m.observeLogout(cause)
	m.publish(EventLogout, snap)

	m.logger.InfoContext(ctx, "session terminated",
		logger.Component("session"),
		logger.Event("logout"),
		logger.Key("cause", string(cause)),
	)
}

// persist writes tokens and the snapshot in lock-step with the state change.
func (m *Manager) persist(ctx context.Context, snap Session) {
	m.tokens.SetAccessToken(ctx, snap.AccessToken)
	m.tokens.SetRefreshToken(ctx, snap.RefreshToken)
	m.persistSnapshot(ctx, snap)
}

func (m *Manager) persistSnapshot(ctx context.Context, snap Session) {
	if m.snapshots == nil {
		return
	}
	blob, err := snapshotFrom(snap).marshal()
	if err != nil {
		m.logger.WarnContext(ctx, "failed to encode session snapshot",
			logger.Component("session"), logger.Error(err))
		return
	}
	m.snapshots.SaveSnapshot(ctx, blob)
}

func (m *Manager) publish(typ EventType, snap Session) {
	m.broadcaster.Broadcast(context.Background(), broadcast.Message[Event]{
		Data: Event{Type: typ, Session: snap},
	})
}

func (m *Manager) observeLogin(ok bool) { m.metrics.login(ok) }

func (m *Manager) observeRefresh(ok bool) { m.metrics.refresh(ok) }

func (m *Manager) observeRefreshCoalesced() { m.metrics.refreshCoalesced() }

func (m *Manager) observeLogout(c logoutCause) { m.metrics.logout(c) }

func (m *Manager) observeTimeout() { m.metrics.timeout() }
