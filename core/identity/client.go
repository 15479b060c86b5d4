package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Config holds identity client configuration with environment variable mapping.
type Config struct {
	BaseURL        string        `env:"IDENTITY_BASE_URL,required"`
	RequestTimeout time.Duration `env:"IDENTITY_REQUEST_TIMEOUT" envDefault:"10s"`
}

// DefaultRequestTimeout bounds identity requests when the config does not set
// a timeout.
const DefaultRequestTimeout = 10 * time.Second

// User is the profile returned by the identity service on login.
type User struct {
	ID          uuid.UUID  `json:"id"`
	Email       string     `json:"email"`
	DisplayName string     `json:"displayName"`
	Roles       []string   `json:"roles"`
	Permissions []string   `json:"permissions"`
	CreatedAt   time.Time  `json:"createdAt"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
}

// HasRole reports whether the user carries the given role.
func (u User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// HasPermission reports whether the user carries the given permission.
func (u User) HasPermission(permission string) bool {
	for _, p := range u.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// TokenResponse is the credential payload returned by login and refresh.
// RefreshToken and User may be absent on refresh; the caller re-stores whatever
// is present.
type TokenResponse struct {
	Token            string `json:"token"`
	RefreshToken     string `json:"refreshToken,omitempty"`
	ExpiresInSeconds int64  `json:"expiresInSeconds"`
	User             *User  `json:"user,omitempty"`
}

// Client talks to the identity backend. The wire format is owned by the
// backend; this client treats tokens as opaque strings.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client, primarily for tests and
// custom transports.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithLogger sets the logger for request failures.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates an identity client after validating the base URL.
func New(cfg Config, opts ...Option) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, ErrMissingBaseURL
	}
	parsed, err := url.Parse(cfg.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("%w: invalid base URL %q", ErrMissingBaseURL, cfg.BaseURL)
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Login exchanges credentials for a token set.
// Returns ErrInvalidCredentials when the service rejects the pair.
func (c *Client) Login(ctx context.Context, email, password string) (TokenResponse, error) {
	payload := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{Email: email, Password: password}

	resp, err := c.post(ctx, "/auth/login", payload, "")
	if err != nil {
		return TokenResponse{}, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return decodeTokenResponse(resp.Body)
	case resp.StatusCode == http.StatusBadRequest,
		resp.StatusCode == http.StatusUnauthorized,
		resp.StatusCode == http.StatusForbidden:
		return TokenResponse{}, ErrInvalidCredentials
	default:
		return TokenResponse{}, fmt.Errorf("%w: login returned status %d", ErrUnavailable, resp.StatusCode)
	}
}

// Logout invalidates the server-side session for the given access token.
// Callers treat failures as best-effort; the error is informational.
func (c *Client) Logout(ctx context.Context, accessToken string) error {
	resp, err := c.post(ctx, "/auth/logout", struct{}{}, accessToken)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return fmt.Errorf("%w: logout returned status %d", ErrUnavailable, resp.StatusCode)
}

// Refresh exchanges the refresh token for a new access token. The response may
// also rotate the refresh token. Returns ErrUnauthorized when the refresh token
// is rejected.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (TokenResponse, error) {
	payload := struct {
		RefreshToken string `json:"refreshToken"`
	}{RefreshToken: refreshToken}

	resp, err := c.post(ctx, "/auth/refresh", payload, "")
	if err != nil {
		return TokenResponse{}, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return decodeTokenResponse(resp.Body)
	case resp.StatusCode == http.StatusBadRequest,
		resp.StatusCode == http.StatusUnauthorized,
		resp.StatusCode == http.StatusForbidden:
		return TokenResponse{}, ErrUnauthorized
	default:
		return TokenResponse{}, fmt.Errorf("%w: refresh returned status %d", ErrUnavailable, resp.StatusCode)
	}
}

func (c *Client) post(ctx context.Context, path string, payload any, bearer string) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Join(ErrInvalidResponse, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Join(ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.DebugContext(ctx, "identity request failed",
			slog.String("path", path), slog.Any("error", err))
		return nil, errors.Join(ErrUnavailable, err)
	}
	return resp, nil
}

func decodeTokenResponse(r io.Reader) (TokenResponse, error) {
	var tr TokenResponse
	if err := json.NewDecoder(r).Decode(&tr); err != nil {
		return TokenResponse{}, errors.Join(ErrInvalidResponse, err)
	}
	if tr.Token == "" {
		return TokenResponse{}, fmt.Errorf("%w: missing token", ErrInvalidResponse)
	}
	return tr, nil
}
