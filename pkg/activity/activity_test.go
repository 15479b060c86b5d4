package activity_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/sessionkit/pkg/activity"
)

// fakeClock is a manually advanced clock for throttle tests.
type fakeClock struct {
	now atomic.Int64
}

func newFakeClock() *fakeClock {
	c := &fakeClock{}
	c.now.Store(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).UnixNano())
	return c
}

func (c *fakeClock) Now() time.Time {
	return time.Unix(0, c.now.Load())
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now.Add(int64(d))
}

func TestMonitor_Signal(t *testing.T) {
	t.Parallel()

	t.Run("forwards first signal immediately", func(t *testing.T) {
		t.Parallel()

		clock := newFakeClock()
		monitor := activity.NewMonitor(activity.WithNow(clock.Now))

		var calls atomic.Int32
		monitor.Start(func() { calls.Add(1) })
		monitor.Signal(activity.KindClick)

		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("discards signals inside the throttle window", func(t *testing.T) {
		t.Parallel()

		clock := newFakeClock()
		monitor := activity.NewMonitor(
			activity.WithNow(clock.Now),
			activity.WithThrottleWindow(30*time.Second),
		)

		var calls atomic.Int32
		monitor.Start(func() { calls.Add(1) })

		monitor.Signal(activity.KindPointer)
		clock.Advance(10 * time.Second)
		monitor.Signal(activity.KindKey)
		clock.Advance(10 * time.Second)
		monitor.Signal(activity.KindScroll)

		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("forwards again after the window elapses", func(t *testing.T) {
		t.Parallel()

		clock := newFakeClock()
		monitor := activity.NewMonitor(
			activity.WithNow(clock.Now),
			activity.WithThrottleWindow(30*time.Second),
		)

		var calls atomic.Int32
		monitor.Start(func() { calls.Add(1) })

		monitor.Signal(activity.KindClick)
		clock.Advance(30 * time.Second)
		monitor.Signal(activity.KindClick)

		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("drops signals before start", func(t *testing.T) {
		t.Parallel()

		monitor := activity.NewMonitor()
		assert.NotPanics(t, func() {
			monitor.Signal(activity.KindTouch)
		})
	})
}

func TestMonitor_Stop(t *testing.T) {
	t.Parallel()

	t.Run("discards signals after stop", func(t *testing.T) {
		t.Parallel()

		clock := newFakeClock()
		monitor := activity.NewMonitor(activity.WithNow(clock.Now))

		var calls atomic.Int32
		monitor.Start(func() { calls.Add(1) })
		monitor.Stop()
		monitor.Signal(activity.KindClick)

		assert.Equal(t, int32(0), calls.Load())
	})

	t.Run("idempotent and safe when never started", func(t *testing.T) {
		t.Parallel()

		monitor := activity.NewMonitor()
		assert.NotPanics(t, func() {
			monitor.Stop()
			monitor.Stop()
		})
	})

	t.Run("restart resets the throttle window", func(t *testing.T) {
		t.Parallel()

		clock := newFakeClock()
		monitor := activity.NewMonitor(activity.WithNow(clock.Now))

		var calls atomic.Int32
		monitor.Start(func() { calls.Add(1) })
		monitor.Signal(activity.KindClick)

		monitor.Stop()
		monitor.Start(func() { calls.Add(1) })
		monitor.Signal(activity.KindClick)

		assert.Equal(t, int32(2), calls.Load())
	})
}
