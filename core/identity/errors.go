package identity

import "errors"

var (
	// ErrInvalidCredentials is returned when the identity service rejects the
	// supplied email/password pair. Retryable by the user with different input.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrUnauthorized is returned when the identity service rejects a refresh
	// token. The session cannot be recovered without a fresh login.
	ErrUnauthorized = errors.New("identity service rejected the token")
	// ErrUnavailable is returned for transport failures and server errors.
	ErrUnavailable = errors.New("identity service unavailable")
	// ErrInvalidResponse is returned when the identity service answers with a
	// body the client cannot decode.
	ErrInvalidResponse = errors.New("invalid identity service response")
	// ErrMissingBaseURL is returned when constructing a client without a base URL.
	ErrMissingBaseURL = errors.New("identity base URL is required")
)
