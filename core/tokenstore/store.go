package tokenstore

import "context"

// Fixed keys under which credentials are persisted. Shared with any external
// tooling that inspects the store directly.
const (
	KeyAccessToken  = "auth.accessToken"
	KeyRefreshToken = "auth.refreshToken"
	KeySnapshot     = "auth.session"
)

// Store persists the access and refresh tokens as opaque strings.
//
// Setters swallow persistence failures by design: a store that cannot write
// degrades to re-login on next start, and callers must not have to handle that
// mid-session. Getters return an empty string when no token is stored.
type Store interface {
	SetAccessToken(ctx context.Context, token string)
	SetRefreshToken(ctx context.Context, token string)
	AccessToken(ctx context.Context) string
	RefreshToken(ctx context.Context) string
	Clear(ctx context.Context)
}

// SnapshotStore persists the serialized session state for startup rehydration.
// It lives in the same durable medium as the tokens and follows the same
// swallow-on-failure policy. LoadSnapshot returns nil when nothing is stored.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, blob []byte)
	LoadSnapshot(ctx context.Context) []byte
}
