package countdown

import (
	"sync"
	"time"
)

// StartFunc schedules fn to run once after d and returns a stop function.
// The default implementation wraps time.AfterFunc; tests inject a fake to drive
// expiry deterministically.
type StartFunc func(d time.Duration, fn func()) (stop func() bool)

// Timer is a single-shot countdown with re-arm semantics: arming always cancels
// the previously armed countdown, so at most one countdown is live at any time.
// The expiry callback fires exactly once per Arm call unless Disarm wins first.
//
// The timer knows nothing about sessions or tokens; it is a pure scheduling
// primitive. Safe for concurrent use.
type Timer struct {
	mu    sync.Mutex
	gen   uint64
	stop  func() bool
	start StartFunc
}

// Option configures a Timer.
type Option func(*Timer)

// WithStartFunc replaces the scheduling primitive, primarily for tests.
func WithStartFunc(start StartFunc) Option {
	return func(t *Timer) {
		if start != nil {
			t.start = start
		}
	}
}

// New creates a disarmed timer.
func New(opts ...Option) *Timer {
	t := &Timer{
		start: func(d time.Duration, fn func()) func() bool {
			return time.AfterFunc(d, fn).Stop
		},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Arm schedules onExpire to fire after d, cancelling any previously armed
// countdown first.
func (t *Timer) Arm(d time.Duration, onExpire func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.cancelLocked()
	t.gen++
	gen := t.gen
	t.stop = t.start(d, func() {
		t.fire(gen, onExpire)
	})
}

// Disarm cancels the pending countdown, if any. Safe to call when disarmed.
func (t *Timer) Disarm() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancelLocked()
}

// IsArmed reports whether a countdown is currently pending.
func (t *Timer) IsArmed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stop != nil
}

// fire runs the expiry callback only if this countdown is still the live one.
// time.AfterFunc may fire concurrently with Disarm or a re-Arm; the generation
// check makes that race harmless.
func (t *Timer) fire(gen uint64, onExpire func()) {
	t.mu.Lock()
	if t.gen != gen {
		t.mu.Unlock()
		return
	}
	t.stop = nil
	t.mu.Unlock()

	onExpire()
}

// cancelLocked invalidates the pending countdown. Callers must hold t.mu.
func (t *Timer) cancelLocked() {
	t.gen++
	if t.stop != nil {
		t.stop()
		t.stop = nil
	}
}
