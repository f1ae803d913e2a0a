// Package events fans out server events to SSE subscribers.
package events

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/termfolio/termfolio/internal/history"
	"github.com/termfolio/termfolio/internal/metrics"
)

const (
	EventRemounted      = "mounts.remounted"
	EventRemountFailed  = "mounts.remount_failed"
	EventSessionCreated = "session.created"
	EventSessionEnded   = "session.ended"
)

const (
	subscriberBuffer = 64
	replaySize       = 128
)

// Event is one notification. Mounts maps each alias to its entry count
// after a remount. ID increases by one per published event.
type Event struct {
	ID        uint64         `json:"id"`
	Type      string         `json:"type"`
	Session   string         `json:"session,omitempty"`
	Mounts    map[string]int `json:"mounts,omitempty"`
	Error     string         `json:"error,omitempty"`
	Timestamp int64          `json:"timestamp"`
}

// Broadcaster hands every published event to all subscribers and keeps
// the most recent ones so a reconnecting client can catch up.
type Broadcaster struct {
	mu          sync.Mutex
	subscribers map[chan Event]struct{}
	recent      *history.Ring[Event]
	lastID      uint64
}

// NewBroadcaster creates a new event broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[chan Event]struct{}),
		recent:      history.NewRing[Event](replaySize),
	}
}

// Subscribe adds a new subscriber and returns its event channel.
// The caller must call Unsubscribe when done.
func (b *Broadcaster) Subscribe() chan Event {
	ch, _ := b.SubscribeSince(0)
	return ch
}

// SubscribeSince subscribes and also returns the retained events with an
// ID above lastID, oldest first. No event is both replayed and delivered
// on the channel. lastID 0 replays nothing.
func (b *Broadcaster) SubscribeSince(lastID uint64) (chan Event, []Event) {
	ch := make(chan Event, subscriberBuffer)
	b.mu.Lock()
	b.subscribers[ch] = struct{}{}
	n := len(b.subscribers)
	var missed []Event
	if lastID > 0 {
		for _, e := range b.recent.Slice() {
			if e.ID > lastID {
				missed = append(missed, e)
			}
		}
	}
	b.mu.Unlock()
	metrics.SetSSEConnectionsActive(int64(n))
	return ch, missed
}

// Unsubscribe removes a subscriber and closes its channel. Unsubscribing
// twice is a no-op.
func (b *Broadcaster) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	if _, ok := b.subscribers[ch]; ok {
		delete(b.subscribers, ch)
		close(ch)
	}
	n := len(b.subscribers)
	b.mu.Unlock()
	metrics.SetSSEConnectionsActive(int64(n))
}

// Publish stamps the event and sends it to all subscribers without
// blocking. Subscribers whose buffer is full miss it.
func (b *Broadcaster) Publish(event Event) {
	if event.Timestamp == 0 {
		event.Timestamp = time.Now().Unix()
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lastID++
	event.ID = b.lastID
	b.recent.Push(event)
	for ch := range b.subscribers {
		select {
		case ch <- event:
		default:
			metrics.RecordSSEDropped(event.Type)
		}
	}
	metrics.RecordSSEEvent(event.Type)
}

// Count returns the current number of subscribers.
func (b *Broadcaster) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subscribers)
}

// MarshalEvent serializes an event to JSON.
func MarshalEvent(e Event) ([]byte, error) {
	return json.Marshal(e)
}
