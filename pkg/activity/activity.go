package activity

import (
	"sync"
	"time"
)

// Kind classifies a raw user interaction signal. The set mirrors the
// coarse-grained interaction events an application shell can observe.
type Kind string

const (
	KindPointer Kind = "pointer"
	KindKey     Kind = "key"
	KindScroll  Kind = "scroll"
	KindTouch   Kind = "touch"
	KindClick   Kind = "click"
)

// DefaultThrottleWindow is the minimum interval between forwarded activity
// reports. Raw signals arriving inside the window are discarded.
const DefaultThrottleWindow = 30 * time.Second

// Monitor collects raw interaction signals and forwards "the user is active"
// to a single callback at a throttled cadence. The application shell feeds
// signals via Signal; the session manager receives the throttled reports.
//
// Safe for concurrent use.
type Monitor struct {
	mu            sync.Mutex
	onActive      func()
	lastForwarded time.Time
	window        time.Duration
	now           func() time.Time
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithThrottleWindow sets the minimum interval between forwarded reports.
func WithThrottleWindow(window time.Duration) Option {
	return func(m *Monitor) {
		if window > 0 {
			m.window = window
		}
	}
}

// WithNow replaces the clock, primarily for tests.
func WithNow(now func() time.Time) Option {
	return func(m *Monitor) {
		if now != nil {
			m.now = now
		}
	}
}

// NewMonitor creates a stopped monitor. Call Start to begin forwarding.
func NewMonitor(opts ...Option) *Monitor {
	m := &Monitor{
		window: DefaultThrottleWindow,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start begins forwarding throttled activity reports to onActive.
// Starting an already started monitor replaces the callback and resets the
// throttle window.
func (m *Monitor) Start(onActive func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onActive = onActive
	m.lastForwarded = time.Time{}
}

// Stop detaches the callback and discards subsequent signals.
// Idempotent and safe to call on a monitor that was never started.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onActive = nil
}

// Signal records a raw interaction signal. The first signal after Start is
// forwarded immediately; later signals are forwarded at most once per throttle
// window, tracked by the timestamp of the last forwarded report.
func (m *Monitor) Signal(_ Kind) {
	m.mu.Lock()
	if m.onActive == nil {
		m.mu.Unlock()
		return
	}
	now := m.now()
	if !m.lastForwarded.IsZero() && now.Sub(m.lastForwarded) < m.window {
		m.mu.Unlock()
		return
	}
	m.lastForwarded = now
	onActive := m.onActive
	m.mu.Unlock()

	// Invoked outside the lock so a callback feeding back into the monitor
	// cannot deadlock.
	onActive()
}
