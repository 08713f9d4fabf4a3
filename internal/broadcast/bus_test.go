package broadcast

import (
	"sync"
	"testing"
	"time"
)

func recv(t *testing.T, c <-chan struct{}) bool {
	t.Helper()
	select {
	case _, ok := <-c:
		return ok
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for signal")
		return false
	}
}

func TestPublishReachesAllSubscribers(t *testing.T) {
	b := NewBus()
	a := b.Subscribe()
	c := b.Subscribe()
	defer a.Cancel()
	defer c.Cancel()

	b.Publish()

	if !recv(t, a.C) {
		t.Fatal("subscriber a: channel closed")
	}
	if !recv(t, c.C) {
		t.Fatal("subscriber c: channel closed")
	}
}

func TestPublishCoalesces(t *testing.T) {
	b := NewBus()
	s := b.Subscribe()
	defer s.Cancel()

	for i := 0; i < 10; i++ {
		b.Publish()
	}

	// exactly one pending wake-up, regardless of publish count
	recv(t, s.C)
	select {
	case <-s.C:
		t.Fatal("expected pending signals to coalesce into one")
	default:
	}
}

func TestCancelStopsDelivery(t *testing.T) {
	b := NewBus()
	s := b.Subscribe()
	s.Cancel()

	b.Publish() // must not panic on the closed channel

	if _, ok := <-s.C; ok {
		t.Fatal("expected closed channel after Cancel")
	}
}

func TestCancelIsIdempotent(t *testing.T) {
	b := NewBus()
	s := b.Subscribe()
	s.Cancel()
	s.Cancel()
}

func TestConcurrentPublishAndCancel(t *testing.T) {
	b := NewBus()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		s := b.Subscribe()
		wg.Add(2)
		go func() {
			defer wg.Done()
			b.Publish()
		}()
		go func() {
			defer wg.Done()
			s.Cancel()
		}()
	}
	wg.Wait()
}
