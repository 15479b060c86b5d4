package sessiontransport

import (
	"context"
	"net/http"
)

// TokenReader is the read-only view of the token store the transport needs.
// The session manager remains the only writer.
type TokenReader interface {
	AccessToken(ctx context.Context) string
}

// RoundTripper attaches the stored access token to outgoing requests and
// routes authentication failures through the Bridge. Wrap the application's
// HTTP client transport with it once; every API call then carries credentials
// and reports expiry without per-call wiring.
type RoundTripper struct {
	base   http.RoundTripper
	tokens TokenReader
	bridge *Bridge
}

// RoundTripperOption configures a RoundTripper.
type RoundTripperOption func(*RoundTripper)

// WithBaseTransport sets the underlying transport; defaults to
// http.DefaultTransport.
func WithBaseTransport(base http.RoundTripper) RoundTripperOption {
	return func(rt *RoundTripper) {
		if base != nil {
			rt.base = base
		}
	}
}

// NewRoundTripper creates a transport that reads tokens from tokens and
// invokes bridge on 401 responses.
func NewRoundTripper(tokens TokenReader, bridge *Bridge, opts ...RoundTripperOption) *RoundTripper {
	rt := &RoundTripper{
		base:   http.DefaultTransport,
		tokens: tokens,
		bridge: bridge,
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

// RoundTrip implements http.RoundTripper. The request is cloned before the
// Authorization header is set, per the RoundTripper contract.
func (rt *RoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if token := rt.tokens.AccessToken(req.Context()); token != "" {
		req = req.Clone(req.Context())
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := rt.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized && rt.bridge != nil {
		rt.bridge.Invoke()
	}

	return resp, nil
}
