package services

import (
	"context"
	"log"
	"maps"
	"sync"
	"time"

	"squadup_server/bus"
	"squadup_server/models"
)

// DefaultPollInterval is the fallback poll cadence. Polling continues even
// while push is healthy; it is the safety net for lost stream records.
const DefaultPollInterval = 10 * time.Second

// ChangeFeed is the push side of synchronization: subscriptions scoped to a
// match's ledger row and to a user's inbound log records. Delivery is
// at-least-once and unordered; subscribers treat every signal as "go fetch a
// fresh snapshot", never as a delta to apply.
type ChangeFeed interface {
	SubscribeMatch(matchID string) (<-chan struct{}, func())
	SubscribeRecipient(userID string) (<-chan struct{}, func())
}

// StateSink receives a session's derived output. The socket server
// implements it by emitting to the viewer's connection.
type StateSink interface {
	PublishStates(states map[string]models.ViewerPositionState)
	PublishOutcome(evt bus.Event)
}

// SyncChannelManager opens per-view sync sessions. Each session owns three
// independent update sources - the change feed, a fixed-interval poll, and
// the local bus - and funnels every wake into one snapshot-and-rederive
// path. The sources overlap on purpose; deduplication happens at the output:
// states are only published when they change, and each (requestID, outcome)
// side effect fires at most once per session.
type SyncChannelManager struct {
	Ledger       LedgerStore
	Requests     RequestStore
	Bus          *bus.Bus
	Feed         ChangeFeed
	Suppression  *SuppressionList
	PollInterval time.Duration
}

// SyncSession is one open match view. Idle until Open returns it Subscribed;
// Close releases all three sources together.
type SyncSession struct {
	matchID  string
	viewerID string
	sink     StateSink

	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once

	mu           sync.Mutex
	lastVersion  int64
	lastStates   map[string]models.ViewerPositionState
	seenOutcomes map[outcomeKey]bool
}

type outcomeKey struct {
	requestID string
	outcome   bus.Outcome
}

// Open starts a sync session for the viewer's match view and delivers an
// initial state snapshot. The caller must Close the session when the view
// goes away, or its handlers keep mutating a dead view.
func (m *SyncChannelManager) Open(ctx context.Context, matchID, viewerID string, sink StateSink) *SyncSession {
	sessionCtx, cancel := context.WithCancel(ctx)
	session := &SyncSession{
		matchID:      matchID,
		viewerID:     viewerID,
		sink:         sink,
		cancel:       cancel,
		done:         make(chan struct{}),
		seenOutcomes: make(map[outcomeKey]bool),
	}

	pushMatch, cancelMatch := m.Feed.SubscribeMatch(matchID)
	pushUser, cancelUser := m.Feed.SubscribeRecipient(viewerID)
	busCh, cancelBus := m.Bus.Subscribe(matchID)

	interval := m.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	go func() {
		defer close(session.done)
		defer cancelMatch()
		defer cancelUser()
		defer cancelBus()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		m.refresh(sessionCtx, session)
		for {
			select {
			case <-sessionCtx.Done():
				return
			case <-pushMatch:
			case <-pushUser:
			case <-busCh:
			case <-ticker.C:
			}
			m.refresh(sessionCtx, session)
		}
	}()

	return session
}

// refresh fetches a fresh (ledger, log) snapshot and re-derives the view.
// Every inbound signal lands here, so the path must be idempotent: the same
// underlying state derived twice publishes nothing the second time.
func (m *SyncChannelManager) refresh(ctx context.Context, session *SyncSession) {
	match, err := m.Ledger.Get(ctx, session.matchID)
	if err != nil {
		if ctx.Err() == nil {
			log.Printf("sync refresh: match %s: %v", session.matchID, err)
		}
		return
	}
	records, err := m.Requests.ListFor(ctx, session.matchID, session.viewerID)
	if err != nil {
		if ctx.Err() == nil {
			log.Printf("sync refresh: requests for match %s: %v", session.matchID, err)
		}
		return
	}

	snapshot := SnapshotOf(match)
	suppressed := m.Suppression.SuppressedPositions(session.matchID, session.viewerID)
	states := DerivePositionStates(snapshot, records, session.viewerID, suppressed)

	session.mu.Lock()
	defer session.mu.Unlock()

	// The transport gives no ordering guarantee: a snapshot can arrive after
	// a newer one was already applied. The match version is monotonic, so an
	// older version is provably stale and is dropped outright.
	if snapshot.Version < session.lastVersion {
		return
	}
	session.lastVersion = snapshot.Version

	if !maps.Equal(states, session.lastStates) {
		session.lastStates = states
		session.sink.PublishStates(states)
	}

	for _, record := range records {
		var outcome bus.Outcome
		switch record.Status {
		case models.RequestStatusAccepted:
			outcome = bus.OutcomeAccepted
		case models.RequestStatusRejected:
			outcome = bus.OutcomeRejected
		default:
			continue
		}
		key := outcomeKey{requestID: record.RequestID, outcome: outcome}
		if session.seenOutcomes[key] {
			continue
		}
		session.seenOutcomes[key] = true
		session.sink.PublishOutcome(bus.Event{
			MatchID:     record.MatchID,
			Position:    record.Position,
			RequesterID: record.RequesterID,
			RequestID:   record.RequestID,
			Outcome:     outcome,
		})
	}
}

// Close tears down the push subscription, the poll ticker, and the bus
// subscription together, and waits for the session goroutine to exit.
func (s *SyncSession) Close() {
	s.closeOnce.Do(func() {
		s.cancel()
		<-s.done
	})
}
