package sessionkit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/sessionkit/core/config"
	"github.com/dmitrymomot/sessionkit/core/identity"
	"github.com/dmitrymomot/sessionkit/core/logger"
	"github.com/dmitrymomot/sessionkit/core/session"
	"github.com/dmitrymomot/sessionkit/core/sessiontransport"
	"github.com/dmitrymomot/sessionkit/core/tokenstore"
	"github.com/dmitrymomot/sessionkit/integration/redis"
	"github.com/dmitrymomot/sessionkit/pkg/activity"
)

// Token store drivers selectable via SESSION_TOKEN_STORE.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
)

// ErrUnknownStore is returned for an unrecognized token store driver.
var ErrUnknownStore = errors.New("unknown token store driver")

// Config aggregates the configuration of every component the kit assembles.
// Nested sections carry their own environment tags.
type Config struct {
	Session  session.Config
	Identity identity.Config
	Redis    redis.Config

	// TokenStore selects the credential persistence driver.
	TokenStore string `env:"SESSION_TOKEN_STORE" envDefault:"memory"`
	// TokenFile is the snapshot path for the file driver.
	TokenFile string `env:"SESSION_TOKEN_FILE" envDefault:".session.json"`
}

// Kit is the assembled session toolkit: the state machine, the activity
// monitor feeding it, the transport-layer bridge, and an HTTP client whose
// transport attaches credentials and reports authentication failures.
//
// Build one Kit at application startup, hand Manager and Monitor to the UI
// shell, and use HTTPClient for every API call.
type Kit struct {
	Manager    *session.Manager
	Monitor    *activity.Monitor
	Bridge     *sessiontransport.Bridge
	HTTPClient *http.Client

	tokens tokenstore.Store
	rdb    *goredis.Client
	logger *slog.Logger
}

// Option configures the kit assembly.
type Option func(*builder)

type builder struct {
	cfg       *Config
	logger    *slog.Logger
	tokens    tokenstore.Store
	registry  prometheus.Registerer
	transport http.RoundTripper
}

// WithConfig supplies the configuration explicitly instead of loading it from
// the environment.
func WithConfig(cfg Config) Option {
	return func(b *builder) {
		b.cfg = &cfg
	}
}

// WithLogger sets the logger shared by every assembled component.
func WithLogger(log *slog.Logger) Option {
	return func(b *builder) {
		if log != nil {
			b.logger = log
		}
	}
}

// WithTokenStore overrides the configured token store driver with a concrete
// store, primarily for tests.
func WithTokenStore(store tokenstore.Store) Option {
	return func(b *builder) {
		b.tokens = store
	}
}

// WithMetricsRegistry registers session lifecycle metrics on reg.
func WithMetricsRegistry(reg prometheus.Registerer) Option {
	return func(b *builder) {
		b.registry = reg
	}
}

// WithBaseTransport sets the underlying transport for the assembled HTTP
// client, primarily for tests.
func WithBaseTransport(base http.RoundTripper) Option {
	return func(b *builder) {
		b.transport = base
	}
}

// New assembles the kit. Configuration is loaded from the environment unless
// WithConfig is given. The returned kit's activity monitor is already started
// and wired to the session manager; feed it signals from the UI shell.
func New(ctx context.Context, opts ...Option) (*Kit, error) {
	b := &builder{}
	for _, opt := range opts {
		opt(b)
	}

	if b.cfg == nil {
		var cfg Config
		if err := config.Load(&cfg); err != nil {
			return nil, err
		}
		b.cfg = &cfg
	}
	if b.logger == nil {
		b.logger = logger.New(logger.WithAttr(slog.String("app", "sessionkit")))
	}

	kit := &Kit{logger: b.logger}

	tokens := b.tokens
	if tokens == nil {
		var err error
		tokens, err = kit.openStore(ctx, b.cfg)
		if err != nil {
			return nil, err
		}
	}
	kit.tokens = tokens

	kit.Bridge = sessiontransport.NewBridge()

	rtOpts := []sessiontransport.RoundTripperOption{}
	if b.transport != nil {
		rtOpts = append(rtOpts, sessiontransport.WithBaseTransport(b.transport))
	}
	// identity.WithHTTPClient below replaces the timeout-bearing client the
	// identity constructor would build, so the shared client must carry the
	// request timeout itself.
	timeout := b.cfg.Identity.RequestTimeout
	if timeout <= 0 {
		timeout = identity.DefaultRequestTimeout
	}
	kit.HTTPClient = &http.Client{
		Transport: sessiontransport.NewRoundTripper(tokens, kit.Bridge, rtOpts...),
		Timeout:   timeout,
	}

	svc, err := identity.New(b.cfg.Identity,
		identity.WithHTTPClient(kit.HTTPClient),
		identity.WithLogger(b.logger),
	)
	if err != nil {
		return nil, err
	}

	managerOpts := []session.Option{
		session.WithConfig(b.cfg.Session),
		session.WithLogger(b.logger),
		session.WithUnauthorizedBridge(kit.Bridge),
	}
	if b.registry != nil {
		managerOpts = append(managerOpts, session.WithMetrics(session.NewMetrics(b.registry)))
	}
	kit.Manager = session.NewManager(svc, tokens, managerOpts...)

	kit.Monitor = activity.NewMonitor()
	kit.Monitor.Start(kit.Manager.Touch)

	return kit, nil
}

// openStore builds the token store named by the configuration.
func (k *Kit) openStore(ctx context.Context, cfg *Config) (tokenstore.Store, error) {
	switch cfg.TokenStore {
	case StoreMemory, "":
		return tokenstore.NewMemory(), nil
	case StoreFile:
		return tokenstore.NewFile(cfg.TokenFile, tokenstore.WithFileLogger(k.logger)), nil
	case StoreRedis:
		client, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		k.rdb = client
		return tokenstore.NewRedis(client, tokenstore.WithRedisLogger(k.logger)), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStore, cfg.TokenStore)
	}
}

// Healthcheck reports the readiness of the kit's external dependencies.
// With an in-process store there is nothing to check and the result is nil.
func (k *Kit) Healthcheck(ctx context.Context) error {
	if k.rdb == nil {
		return nil
	}
	return redis.Healthcheck(k.rdb)(ctx)
}

// Close stops the activity monitor, releases the session manager, and closes
// the Redis connection when one was opened. It does not log the session out.
func (k *Kit) Close() error {
	k.Monitor.Stop()
	k.Manager.Close()
	if k.rdb != nil {
		return k.rdb.Close()
	}
	return nil
}
