// Package notify fans out turn events to interested consumers. It replaces
// the ad-hoc global listener list the UI layer used to own with an explicit
// broker handing out typed, cancelable subscriber handles.
package notify

import (
	"sync"
	"time"

	"github.com/elenacorti/wisp/internal/conversation"
)

// TurnEvent describes one processed journaling turn.
type TurnEvent struct {
	TurnID    string              `json:"turn_id"`
	SessionID string              `json:"session_id"`
	Date      string              `json:"date"`
	Action    conversation.Action `json:"action"`
	Theme     string              `json:"theme,omitempty"`
	Phase     conversation.Phase  `json:"session_phase"`
	Reply     string              `json:"reply"`
	At        time.Time           `json:"at"`
}

// Subscription is a live handle on the event stream. C closes after Cancel.
type Subscription struct {
	C      <-chan TurnEvent
	cancel func()
	once   sync.Once
}

// Cancel detaches the subscriber and closes its channel. Safe to call twice.
func (s *Subscription) Cancel() {
	s.once.Do(s.cancel)
}

// Broker is a fan-out of turn events. Publish never blocks: a subscriber
// whose buffer is full misses the event.
type Broker struct {
	mu      sync.Mutex
	subs    map[int]chan TurnEvent
	nextID  int
	dropped func()
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[int]chan TurnEvent)}
}

// OnDrop installs a hook invoked whenever an event is dropped for a slow
// subscriber, so the caller can count it.
func (b *Broker) OnDrop(hook func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.dropped = hook
}

func (b *Broker) Subscribe(buffer int) *Subscription {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan TurnEvent, buffer)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	return &Subscription{
		C: ch,
		cancel: func() {
			b.mu.Lock()
			if existing, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(existing)
			}
			b.mu.Unlock()
		},
	}
}

func (b *Broker) Publish(ev TurnEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			if b.dropped != nil {
				b.dropped()
			}
		}
	}
}

// SubscriberCount reports the number of attached subscribers.
func (b *Broker) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
