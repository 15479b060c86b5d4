package session

import (
	"log/slog"
	"time"

	"github.com/dmitrymomot/sessionkit/core/sessiontransport"
	"github.com/dmitrymomot/sessionkit/core/tokenstore"
	"github.com/dmitrymomot/sessionkit/pkg/countdown"
)

// Option configures a Manager.
type Option func(*Manager)

// WithConfig replaces the default lifecycle timings.
func WithConfig(cfg Config) Option {
	return func(m *Manager) {
		if cfg.InactivityWindow > 0 {
			m.cfg.InactivityWindow = cfg.InactivityWindow
		}
		if cfg.RefreshThreshold > 0 {
			m.cfg.RefreshThreshold = cfg.RefreshThreshold
		}
		if cfg.CheckInterval >= 0 {
			m.cfg.CheckInterval = cfg.CheckInterval
		}
	}
}

// WithLogger sets the logger for lifecycle events and swallowed failures.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithUnauthorizedBridge connects the manager to the transport layer's
// unauthorized callback bridge. After a successful login the manager registers
// its logout there; the transport invokes it when any request is rejected.
func WithUnauthorizedBridge(bridge *sessiontransport.Bridge) Option {
	return func(m *Manager) {
		m.bridge = bridge
	}
}

// WithMetrics attaches Prometheus metrics for session lifecycle events.
func WithMetrics(metrics *Metrics) Option {
	return func(m *Manager) {
		m.metrics = metrics
	}
}

// WithTimer replaces the inactivity timer, primarily for fake-clock tests.
func WithTimer(timer *countdown.Timer) Option {
	return func(m *Manager) {
		if timer != nil {
			m.timer = timer
		}
	}
}

// WithNow replaces the clock, primarily for tests.
func WithNow(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithSnapshotStore overrides the store used for the rehydration blob.
// By default the token store is used when it implements SnapshotStore.
func WithSnapshotStore(snapshots tokenstore.SnapshotStore) Option {
	return func(m *Manager) {
		m.snapshots = snapshots
	}
}

// WithEventBufferSize sets the per-subscriber buffer for state-change events.
func WithEventBufferSize(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.eventBufSize = n
		}
	}
}
