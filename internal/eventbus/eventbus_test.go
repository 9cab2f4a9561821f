package eventbus

import (
	"testing"
	"time"
)

func TestPublishSubscribe(t *testing.T) {
	b := New()
	defer b.Close()
	sub := b.Subscribe()

	b.Publish("hello")
	select {
	case got := <-sub:
		if got != "hello" {
			t.Fatalf("unexpected event: %v", got)
		}
	case <-time.After(time.Second):
		t.Fatalf("event not delivered")
	}
}

func TestSlowSubscriberDoesNotBlock(t *testing.T) {
	b := New()
	defer b.Close()
	_ = b.Subscribe() // never drained

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*2; i++ {
			b.Publish(i)
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("publish blocked on a slow subscriber")
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	b := New()
	defer b.Close()
	sub := b.Subscribe()
	b.Unsubscribe(sub)
	if _, ok := <-sub; ok {
		t.Fatalf("channel should be closed")
	}
}

func TestCloseClosesSubscribers(t *testing.T) {
	b := New()
	sub := b.Subscribe()
	b.Close()
	if _, ok := <-sub; ok {
		t.Fatalf("channel should be closed")
	}
	// Publishing after close is a no-op.
	b.Publish("late")
	if got := b.Subscribe(); got == nil {
		t.Fatalf("subscribe after close should return a closed channel")
	}
}
