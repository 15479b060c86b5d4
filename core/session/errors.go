package session

import "errors"

var (
	// ErrNotAuthenticated is returned when an operation requires an
	// authenticated session and none is present.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrSessionReplaced is returned when an in-flight operation completed
	// after the session it belonged to was torn down or replaced. Its result
	// has been discarded.
	ErrSessionReplaced = errors.New("session was replaced before the operation completed")
	// ErrRefreshFailed wraps identity service failures during token refresh.
	// A failed refresh always forces a full logout.
	ErrRefreshFailed = errors.New("token refresh failed")
	// ErrLoginFailed wraps identity service failures during login.
	ErrLoginFailed = errors.New("login failed")
)

// InactivityMessage is the user-facing error recorded when the inactivity
// timeout expires a session.
const InactivityMessage = "session expired due to inactivity"
