// Package activity observes coarse-grained user interaction signals and reports
// "the user is active" at a throttled cadence.
//
// The monitor sits between the application shell (which sees raw pointer, key,
// scroll, touch and click events) and the session manager (which only needs to
// know that activity happened recently enough to postpone the inactivity
// timeout). Throttling keeps a burst of raw signals from turning into a burst
// of timer re-arms: at most one report is forwarded per window, tracked by the
// timestamp of the last forwarded report.
//
// # Usage
//
//	monitor := activity.NewMonitor(
//		activity.WithThrottleWindow(30 * time.Second),
//	)
//	monitor.Start(sessionManager.Touch)
//	defer monitor.Stop()
//
//	// wherever the app shell sees interaction:
//	monitor.Signal(activity.KindClick)
package activity
