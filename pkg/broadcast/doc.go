// Package broadcast provides a generic in-memory pub/sub primitive with
// non-blocking delivery.
//
// Two interfaces define the contract:
//
//   - Broadcaster: sends messages to multiple subscribers
//   - Subscriber: receives broadcast messages
//
// The memory implementation delivers to each subscriber's buffered channel and
// drops messages for subscribers whose buffers are full, so a slow consumer can
// never stall the broadcaster or its peers. Subscriptions are tied to a context
// and cleaned up automatically on cancellation.
//
// # Usage
//
//	b := broadcast.NewMemoryBroadcaster[session.Event](16)
//	defer b.Close()
//
//	sub := b.Subscribe(ctx)
//	go func() {
//		for msg := range sub.Receive(ctx) {
//			handle(msg.Data)
//		}
//	}()
//
//	b.Broadcast(ctx, broadcast.Message[session.Event]{Data: evt})
package broadcast
