// Package broadcast is the process-local signal channel that keeps
// independent cart surfaces consistent without knowing about each other.
// The signal carries no payload: subscribers always re-fetch from the
// remote service rather than trust anything a publisher could attach.
package broadcast

import "sync"

// Bus fans a payload-free notification out to every current subscriber.
type Bus struct {
	mu   sync.Mutex
	next int
	subs map[int]chan struct{}
}

func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan struct{})}
}

// Subscription is one listener's handle. Receive on C; call Cancel on
// teardown. After Cancel returns, C is closed and no further signals
// are delivered.
type Subscription struct {
	C      <-chan struct{}
	cancel func()
}

func (s *Subscription) Cancel() { s.cancel() }

// Subscribe registers a listener. The signal channel has a one-slot
// buffer: publishes that arrive while a notification is already pending
// coalesce into it, so a slow subscriber never blocks a mutator and
// never queues stale wake-ups.
func (b *Bus) Subscribe() *Subscription {
	ch := make(chan struct{}, 1)

	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = ch
	b.mu.Unlock()

	return &Subscription{
		C: ch,
		cancel: func() {
			b.mu.Lock()
			if _, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(ch)
			}
			b.mu.Unlock()
		},
	}
}

// Publish notifies all current subscribers and returns immediately.
func (b *Bus) Publish() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- struct{}{}:
		default: // a wake-up is already pending; coalesce
		}
	}
}
