package app

import (
	"sync"
	"time"
)

// EventKind labels one session event on the feed.
type EventKind string

const (
	EventTurnStarted        EventKind = "turn_started"
	EventTurnEnded          EventKind = "turn_ended"
	EventPhaseChanged       EventKind = "phase_changed"
	EventRoundStarted       EventKind = "round_started"
	EventExpectationSet     EventKind = "expectation_set"
	EventCollectionComplete EventKind = "collection_complete"
	EventCommandApplied     EventKind = "command_applied"
	EventStatusMessage      EventKind = "status_message"
)

// Event is one entry on a session's feed. Watchers receive them in
// publish order; payload keys vary by kind.
type Event struct {
	Session string         `json:"session_id"`
	Kind    EventKind      `json:"kind"`
	At      time.Time      `json:"at"`
	Payload map[string]any `json:"payload,omitempty"`
}

const subscriberBuffer = 64

// feed fans session events out to subscribers. Publishing never blocks:
// a subscriber whose buffer is full misses the event.
type feed struct {
	mu          sync.Mutex
	subscribers map[chan Event]struct{}
	closed      bool
}

func newFeed() *feed {
	return &feed{subscribers: make(map[chan Event]struct{})}
}

// subscribe registers a watcher. The returned cancel func is safe to
// call more than once; the channel closes on cancel or feed shutdown.
func (f *feed) subscribe() (<-chan Event, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ch := make(chan Event, subscriberBuffer)
	if f.closed {
		close(ch)
		return ch, func() {}
	}
	f.subscribers[ch] = struct{}{}
	return ch, func() { f.unsubscribe(ch) }
}

func (f *feed) unsubscribe(ch chan Event) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.subscribers[ch]; !ok {
		return
	}
	delete(f.subscribers, ch)
	close(ch)
}

func (f *feed) publish(event Event) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for ch := range f.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}

func (f *feed) close() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return
	}
	f.closed = true
	for ch := range f.subscribers {
		delete(f.subscribers, ch)
		close(ch)
	}
}
