// Package tokenstore provides durable persistence for authentication credentials.
//
// The store keeps the access token and refresh token isolated from the in-memory
// session state so that the transport layer can read tokens for outgoing requests
// without depending on the full session manager. A second, larger snapshot blob
// holds the serialized session state used for rehydration after a process restart.
//
// # Contract
//
// Tokens are opaque strings addressed by fixed keys. The store performs no
// validation and no expiry tracking; both are the session manager's job. Write
// failures never propagate to callers: losing persistence degrades to
// "re-authenticate on next start", which is strictly better than crashing a
// running session. Failed writes are logged through the injected slog.Logger.
//
// # Implementations
//
//   - Memory: process-local, for tests and ephemeral sessions
//   - File: JSON file with atomic rename writes, for CLI and desktop clients
//   - Redis: shared store for headless agents, built on go-redis
//
// # Usage
//
//	store := tokenstore.NewFile("~/.config/myapp/credentials.json")
//	store.SetAccessToken(ctx, "eyJhbGciOi...")
//	token := store.AccessToken(ctx)
//
// All implementations also satisfy SnapshotStore and persist the rehydration
// blob in the same medium as the tokens.
package tokenstore
