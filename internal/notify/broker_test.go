package notify

import (
	"testing"

	"github.com/elenacorti/wisp/internal/conversation"
)

func TestBrokerDeliversToAllSubscribers(t *testing.T) {
	b := NewBroker()
	s1 := b.Subscribe(4)
	s2 := b.Subscribe(4)
	defer s1.Cancel()
	defer s2.Cancel()

	b.Publish(TurnEvent{SessionID: "s1", Action: conversation.ActionReflect})

	for _, sub := range []*Subscription{s1, s2} {
		select {
		case ev := <-sub.C:
			if ev.SessionID != "s1" {
				t.Fatalf("event = %+v", ev)
			}
		default:
			t.Fatalf("subscriber did not receive the event")
		}
	}
}

func TestBrokerCancelClosesChannelAndDetaches(t *testing.T) {
	b := NewBroker()
	sub := b.Subscribe(1)

	sub.Cancel()
	sub.Cancel() // second cancel is a no-op

	if _, ok := <-sub.C; ok {
		t.Fatalf("channel should be closed after cancel")
	}
	if n := b.SubscriberCount(); n != 0 {
		t.Fatalf("SubscriberCount() = %d, want 0", n)
	}

	// Publishing after cancel must not panic.
	b.Publish(TurnEvent{SessionID: "s1"})
}

func TestBrokerDropsForSlowSubscriber(t *testing.T) {
	b := NewBroker()
	drops := 0
	b.OnDrop(func() { drops++ })

	sub := b.Subscribe(1)
	defer sub.Cancel()

	b.Publish(TurnEvent{SessionID: "a"})
	b.Publish(TurnEvent{SessionID: "b"})

	if drops != 1 {
		t.Fatalf("drops = %d, want 1", drops)
	}
	ev := <-sub.C
	if ev.SessionID != "a" {
		t.Fatalf("kept event = %+v, want the first one", ev)
	}
}
