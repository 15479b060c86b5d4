// Package identity provides the HTTP client for the token-issuing identity
// backend.
//
// The client speaks three endpoints:
//
//	POST /auth/login   {email, password}  -> {token, refreshToken, expiresInSeconds, user}
//	POST /auth/logout                     -> best-effort server-side invalidation
//	POST /auth/refresh {refreshToken}     -> {token, refreshToken?}
//
// Tokens are opaque strings; the client never inspects or validates them.
// Whatever the refresh endpoint returns is handed back verbatim so the caller
// can re-store a rotated refresh token.
//
// # Error Taxonomy
//
//   - ErrInvalidCredentials: the service rejected the email/password pair
//   - ErrUnauthorized: the service rejected a refresh token
//   - ErrUnavailable: transport failure or server error
//
// All are sentinel errors testable with errors.Is.
//
// # Usage
//
//	var cfg identity.Config
//	config.MustLoad(&cfg)
//
//	client, err := identity.New(cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	tokens, err := client.Login(ctx, "a@x.com", "Secret123!")
//	switch {
//	case errors.Is(err, identity.ErrInvalidCredentials):
//		// show retryable form error
//	case err != nil:
//		// service unavailable
//	}
package identity
