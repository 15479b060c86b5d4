package sessiontransport

import "sync"

// Bridge is a single registration point connecting the transport layer to the
// session manager. The manager registers its logout as the callback after a
// successful login; the transport invokes it whenever any request fails with an
// authentication error, regardless of which feature issued the request.
//
// Only one callback is registered at a time; setting a new one replaces the
// old. Safe for concurrent use.
type Bridge struct {
	mu sync.Mutex
	fn func()
}

// NewBridge creates an empty bridge. Invoke on an empty bridge is a no-op.
func NewBridge() *Bridge {
	return &Bridge{}
}

// Set registers fn as the unauthorized callback, replacing any previous one.
func (b *Bridge) Set(fn func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fn = fn
}

// Clear removes the registered callback.
func (b *Bridge) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fn = nil
}

// Invoke calls the registered callback, if any. The callback runs outside the
// bridge lock so it may freely call Set or Clear.
func (b *Bridge) Invoke() {
	b.mu.Lock()
	fn := b.fn
	b.mu.Unlock()

	if fn != nil {
		fn()
	}
}
