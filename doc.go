// Package sessionkit provides client-side session and credential lifecycle
// management for applications talking to a token-based identity backend. It
// owns the authenticated session state machine, persists tokens across
// restarts, enforces an inactivity timeout, refreshes access tokens before
// they expire, and tears the session down when the backend rejects a request.
//
// # Package Organization
//
// The root package assembles the kit; the parts can also be used standalone:
//
//	github.com/dmitrymomot/sessionkit/core/session          - Session state machine: login, logout, refresh, restore
//	github.com/dmitrymomot/sessionkit/core/tokenstore       - Token and snapshot persistence (memory, file, Redis)
//	github.com/dmitrymomot/sessionkit/core/sessiontransport - Bearer-token HTTP transport and unauthorized bridge
//	github.com/dmitrymomot/sessionkit/core/identity         - Client for the identity backend's auth endpoints
//	github.com/dmitrymomot/sessionkit/core/config           - Type-safe environment variable loading
//	github.com/dmitrymomot/sessionkit/core/logger           - Structured logging setup and shared attributes
//	github.com/dmitrymomot/sessionkit/pkg/activity          - Throttled user-activity monitor
//	github.com/dmitrymomot/sessionkit/pkg/countdown         - Re-armable single-shot countdown timer
//	github.com/dmitrymomot/sessionkit/pkg/broadcast         - Type-safe in-memory event broadcasting
//	github.com/dmitrymomot/sessionkit/integration/redis     - Redis connection management with health checks
//
// # Getting Started
//
// Assemble the kit once at startup and hand its parts to the application
// shell:
//
//	kit, err := sessionkit.New(ctx)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer kit.Close()
//
//	if kit.Manager.Restore(ctx) {
//		// Session survived the restart.
//	}
//
//	if err := kit.Manager.Login(ctx, email, password); err != nil {
//		// Show kit.Manager.LastError() to the user.
//	}
//
//	// Forward raw interaction signals; the monitor throttles them.
//	kit.Monitor.Signal(activity.KindPointer)
//
//	// All API calls carry the access token and report expiry automatically.
//	resp, err := kit.HTTPClient.Do(req)
//
// Configuration is loaded from environment variables (see Config); pass
// WithConfig to supply it explicitly.
package sessionkit
