// Package sessiontransport connects the HTTP transport layer to the session
// lifecycle without coupling either to the other.
//
// Two pieces:
//
//   - Bridge: a single mutable callback slot. The session manager registers its
//     logout after a successful login; the transport invokes it when any request
//     comes back with an authentication failure. Which screen or feature issued
//     the failing request is irrelevant.
//
//   - RoundTripper: wraps an http.RoundTripper, reads the access token from the
//     token store (read-only; the session manager stays the sole writer),
//     attaches it as a Bearer header, and routes 401 responses through the
//     Bridge.
//
// # Usage
//
//	bridge := sessiontransport.NewBridge()
//
//	apiClient := &http.Client{
//		Transport: sessiontransport.NewRoundTripper(store, bridge),
//	}
//
//	manager := session.NewManager(identityClient, store,
//		session.WithUnauthorizedBridge(bridge),
//	)
//
// After login, a rejected token on any request tears the session down locally
// within the same tick, no network round trip required.
package sessiontransport
