// Package bus provides a typed in-process pub/sub registry keyed by match id.
// It carries owner decisions to same-process viewer sessions so a requester's
// open detail view updates instantly, without waiting for push or poll.
package bus

import "sync"

// Outcome tags the decision carried by an event.
type Outcome string

const (
	OutcomeAccepted Outcome = "accepted"
	OutcomeRejected Outcome = "rejected"
)

// Event is the payload published when an owner decides a slot request.
type Event struct {
	MatchID     string  `json:"matchId"`
	Position    string  `json:"position"`
	RequesterID string  `json:"requesterId"`
	RequestID   string  `json:"requestId"`
	Outcome     Outcome `json:"outcome"`
}

// Bus is a match-scoped pub/sub hub. Delivery is non-blocking: subscriber
// channels are buffered and a slow consumer drops the signal rather than
// stalling the publisher, which is safe because consumers re-derive from a
// fresh snapshot on every wake.
type Bus struct {
	mu   sync.Mutex
	subs map[string]map[chan Event]struct{}
}

// New creates a ready-to-use Bus.
func New() *Bus {
	return &Bus{subs: make(map[string]map[chan Event]struct{})}
}

// Subscribe returns a channel receiving every event published for matchID,
// and an unsubscribe func that must be called when the consuming view closes.
func (b *Bus) Subscribe(matchID string) (<-chan Event, func()) {
	ch := make(chan Event, 8)
	b.mu.Lock()
	if b.subs[matchID] == nil {
		b.subs[matchID] = make(map[chan Event]struct{})
	}
	b.subs[matchID][ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			if subs, ok := b.subs[matchID]; ok {
				delete(subs, ch)
				if len(subs) == 0 {
					delete(b.subs, matchID)
				}
			}
			b.mu.Unlock()
		})
	}
	return ch, cancel
}

// Publish delivers evt to every subscriber of evt.MatchID without blocking.
func (b *Bus) Publish(evt Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs[evt.MatchID] {
		select {
		case ch <- evt:
		default:
		}
	}
}
