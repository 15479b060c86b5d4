// Package session implements the client-side session and credential lifecycle
// state machine.
//
// The Manager tracks whether a user is authenticated, holds the access and
// refresh tokens, schedules automatic token renewal, detects user inactivity,
// and forces logout on session expiry or unrecoverable authentication failure.
// It is the single writer of the token store; the transport layer reads tokens
// from the store and reports rejections through the unauthorized bridge.
//
// # State Transitions
//
//	Unauthenticated -> Authenticating -> Authenticated(Active)
//	Authenticated(Active) <-> Authenticated(Refreshing)
//	any authenticated state -> LoggingOut -> Unauthenticated
//
// Logout is triggered explicitly, by the inactivity timeout, by a failed
// refresh, or by the transport layer's unauthorized callback.
//
// # Concurrency Model
//
// Operations are safe to call from any goroutine. Three rules keep overlapping
// operations coherent:
//
//   - Refresh calls are coalesced: a second caller while one is in flight
//     attaches to the same request and receives the same result, preventing
//     refresh-token replay races against a rotating backend.
//   - A session generation counter is captured by every in-flight login and
//     refresh; teardown bumps it, so late completions are discarded instead of
//     resurrecting cleared state.
//   - Logout clears local state synchronously and runs the best-effort
//     server-side invalidation in the background, so an unreachable identity
//     service never blocks teardown.
//
// # Usage
//
//	store := tokenstore.NewFile(credentialsPath)
//	bridge := sessiontransport.NewBridge()
//
//	manager := session.NewManager(identityClient, store,
//		session.WithUnauthorizedBridge(bridge),
//		session.WithLogger(log),
//	)
//	defer manager.Close()
//
//	manager.Restore(ctx) // rehydrate before any network call
//
//	monitor := activity.NewMonitor()
//	monitor.Start(manager.Touch)
//	defer monitor.Stop()
//
//	go manager.Run(ctx) // periodic proactive refresh check
//
//	if err := manager.Login(ctx, email, password); err != nil {
//		// err is also recorded on the state for UI binding
//	}
//
// Route guards observe, never mutate:
//
//	if !manager.CheckSession(ctx) || !manager.HasRole("admin") {
//		redirectToLogin()
//	}
package session
