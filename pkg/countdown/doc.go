// Package countdown provides a single-shot resettable countdown timer.
//
// A Timer wraps the scheduling primitive (time.AfterFunc by default) with two
// guarantees the raw primitive does not give:
//
//   - at most one countdown is live at any time: Arm cancels the previous one
//   - the expiry callback fires exactly once per Arm, never after Disarm
//
// # Usage
//
//	timer := countdown.New()
//	timer.Arm(30*time.Minute, func() {
//		// inactivity expired
//	})
//
//	// user activity observed: postpone expiry by restarting the window
//	timer.Arm(30*time.Minute, onExpire)
//
//	// shutting down
//	timer.Disarm()
//
// # Testing
//
// Inject a fake scheduler to drive expiry without waiting:
//
//	var fire func()
//	timer := countdown.New(countdown.WithStartFunc(
//		func(d time.Duration, fn func()) func() bool {
//			fire = fn
//			return func() bool { fire = nil; return true }
//		},
//	))
package countdown
