package services

import (
	"sync"
	"time"
)

// DefaultSuppressionWindow is how long a just-cancelled acceptance vetoes
// stale inbound snapshots. Chosen well above the push/poll latency we see in
// practice; a too-short window lets the view flicker back to "accepted"
// right after the user cancelled.
const DefaultSuppressionWindow = 15 * time.Second

type suppressionKey struct {
	matchID     string
	position    string
	requesterID string
}

// SuppressionList is a time-bounded veto set. CancelAccepted registers the
// (match, position, requester) triple here so the reconciler ignores an
// accepted record that a stale push or poll still reports. It is a soft
// veto, not a lock: entries expire on their own.
type SuppressionList struct {
	mu      sync.Mutex
	window  time.Duration
	entries map[suppressionKey]time.Time

	// now is swapped out by tests to step time deterministically.
	now func() time.Time
}

// NewSuppressionList creates a list with the given window; zero or negative
// falls back to DefaultSuppressionWindow.
func NewSuppressionList(window time.Duration) *SuppressionList {
	if window <= 0 {
		window = DefaultSuppressionWindow
	}
	return &SuppressionList{
		window:  window,
		entries: make(map[suppressionKey]time.Time),
		now:     time.Now,
	}
}

// Add registers a veto for the triple, restarting the window if one exists.
func (l *SuppressionList) Add(matchID, position, requesterID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[suppressionKey{matchID, position, requesterID}] = l.now().Add(l.window)
}

// SuppressedPositions returns the positions currently vetoed for the viewer
// on the match, pruning expired entries as a side effect.
func (l *SuppressionList) SuppressedPositions(matchID, requesterID string) map[string]bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	suppressed := make(map[string]bool)
	for key, expiry := range l.entries {
		if !expiry.After(now) {
			delete(l.entries, key)
			continue
		}
		if key.matchID == matchID && key.requesterID == requesterID {
			suppressed[key.position] = true
		}
	}
	return suppressed
}
