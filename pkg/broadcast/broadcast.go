package broadcast

import (
	"context"
	"sync"
)

// Message wraps broadcast payloads for type-safe delivery.
type Message[T any] struct {
	Data T
}

// Broadcaster sends messages to multiple subscribers.
type Broadcaster[T any] interface {
	Subscribe(ctx context.Context) Subscriber[T]
	Broadcast(ctx context.Context, msg Message[T])
	Close()
}

// Subscriber receives broadcast messages.
type Subscriber[T any] interface {
	Receive(ctx context.Context) <-chan Message[T]
	Close()
}

// MemoryBroadcaster is an in-memory Broadcaster with non-blocking delivery.
// Messages to a subscriber with a full buffer are dropped rather than blocking
// the broadcast, so one slow consumer cannot stall the rest.
type MemoryBroadcaster[T any] struct {
	mu      sync.Mutex
	subs    map[*memorySubscriber[T]]struct{}
	bufSize int
	closed  bool
}

// NewMemoryBroadcaster creates a broadcaster whose subscribers each buffer up
// to bufferSize messages.
func NewMemoryBroadcaster[T any](bufferSize int) *MemoryBroadcaster[T] {
	if bufferSize < 1 {
		bufferSize = 1
	}
	return &MemoryBroadcaster[T]{
		subs:    make(map[*memorySubscriber[T]]struct{}),
		bufSize: bufferSize,
	}
}

// Subscribe registers a new subscriber. The subscription is removed when its
// context is cancelled or its Close method is called.
func (b *MemoryBroadcaster[T]) Subscribe(ctx context.Context) Subscriber[T] {
	sub := &memorySubscriber[T]{
		ch:     make(chan Message[T], b.bufSize),
		parent: b,
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(sub.ch)
		sub.closed = true
		return sub
	}
	b.subs[sub] = struct{}{}
	b.mu.Unlock()

	context.AfterFunc(ctx, sub.Close)

	return sub
}

// Broadcast delivers msg to every active subscriber without blocking.
func (b *MemoryBroadcaster[T]) Broadcast(_ context.Context, msg Message[T]) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for sub := range b.subs {
		select {
		case sub.ch <- msg:
		default:
			// Slow consumer: drop rather than block the broadcast.
		}
	}
}

// Close shuts down the broadcaster and all subscriber channels.
func (b *MemoryBroadcaster[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for sub := range b.subs {
		sub.closed = true
		close(sub.ch)
	}
	b.subs = nil
}

type memorySubscriber[T any] struct {
	ch     chan Message[T]
	parent *MemoryBroadcaster[T]
	closed bool
}

// Receive returns the subscriber's message channel. The channel is closed when
// the subscriber or broadcaster closes.
func (s *memorySubscriber[T]) Receive(_ context.Context) <-chan Message[T] {
	return s.ch
}

// Close unsubscribes and closes the message channel. Idempotent.
func (s *memorySubscriber[T]) Close() {
	s.parent.mu.Lock()
	defer s.parent.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	delete(s.parent.subs, s)
	close(s.ch)
}
