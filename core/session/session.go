package session

import (
	"time"

	"github.com/dmitrymomot/sessionkit/core/identity"
)

// Session is a point-in-time snapshot of the client session state. The Manager
// owns the authoritative copy; consumers receive value copies and can never
// mutate the live state.
type Session struct {
	// IsAuthenticated is true exactly when both an access token and a user
	// profile are present.
	IsAuthenticated bool
	// IsLoading is true only while a login or initial restore is in flight.
	IsLoading bool
	// User is the authenticated profile, nil otherwise.
	User *identity.User
	// AccessToken and RefreshToken are opaque credential strings.
	AccessToken  string
	RefreshToken string
	// TokenExpiresAt is when the access token expires. Only meaningful while
	// authenticated; always set to now + expiresIn at the moment tokens land.
	TokenExpiresAt time.Time
	// LastActivity is the time of the last observed user activity.
	LastActivity time.Time
	// IsSessionActive turns false once the inactivity timeout has fired.
	IsSessionActive bool
	// Error holds the last user-facing error message, empty when healthy.
	Error string
}

// Remaining returns the time left until the access token expires.
// Zero or negative means expired; meaningless while unauthenticated.
func (s Session) Remaining(now time.Time) time.Duration {
	if s.TokenExpiresAt.IsZero() {
		return 0
	}
	return s.TokenExpiresAt.Sub(now)
}

// HasRole reports whether an authenticated user carries the given role.
// Always false while unauthenticated.
func (s Session) HasRole(role string) bool {
	return s.IsAuthenticated && s.User != nil && s.User.HasRole(role)
}

// HasPermission reports whether an authenticated user carries the given
// permission. Always false while unauthenticated.
func (s Session) HasPermission(permission string) bool {
	return s.IsAuthenticated && s.User != nil && s.User.HasPermission(permission)
}

// EventType classifies session state-change notifications.
type EventType string

const (
	EventLogin     EventType = "login"
	EventLogout    EventType = "logout"
	EventRefreshed EventType = "refreshed"
	EventTimeout   EventType = "timeout"
	EventRestored  EventType = "restored"
)

// Event is broadcast to subscribers on every significant state change,
// carrying the state snapshot taken right after the change.
type Event struct {
	Type    EventType
	Session Session
}
