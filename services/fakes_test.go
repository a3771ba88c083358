package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"squadup_server/models"
)

// In-memory stand-ins for the DynamoDB-backed stores. They reproduce the
// storage-layer semantics the services rely on: the ledger mutates counters
// atomically under its lock, and the request log enforces the active-marker
// rule and status-guarded transitions.

type fakeLedger struct {
	mu      sync.Mutex
	matches map[string]*models.Match

	// scripted overrides injected by individual tests
	failDecrement error
	failIncrement error
	scriptedGets  []*models.Match
}

func newFakeLedger(matchID, ownerID string, counts map[string]int) *fakeLedger {
	return &fakeLedger{
		matches: map[string]*models.Match{
			matchID: {
				MatchID:       matchID,
				OwnerID:       ownerID,
				Sport:         "football",
				MissingGroups: models.FormatMissingGroups(counts),
				Version:       1,
				CreatedAt:     time.Now().UTC().Format(time.RFC3339),
			},
		},
	}
}

func (f *fakeLedger) Get(ctx context.Context, matchID string) (*models.Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.scriptedGets) > 0 {
		next := f.scriptedGets[0]
		if len(f.scriptedGets) > 1 {
			f.scriptedGets = f.scriptedGets[1:]
		}
		copied := *next
		return &copied, nil
	}
	match, ok := f.matches[matchID]
	if !ok {
		return nil, fmt.Errorf("match %s: %w", matchID, models.ErrNotFound)
	}
	copied := *match
	return &copied, nil
}

func (f *fakeLedger) Decrement(ctx context.Context, matchID, position string) (int, int64, error) {
	if f.failDecrement != nil {
		return 0, 0, f.failDecrement
	}
	return f.apply(matchID, position, -1)
}

func (f *fakeLedger) Increment(ctx context.Context, matchID, position string) (int, int64, error) {
	if f.failIncrement != nil {
		return 0, 0, f.failIncrement
	}
	return f.apply(matchID, position, +1)
}

func (f *fakeLedger) apply(matchID, position string, delta int) (int, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	match, ok := f.matches[matchID]
	if !ok {
		return 0, 0, fmt.Errorf("match %s: %w", matchID, models.ErrNotFound)
	}
	counts, err := models.ParseMissingGroups(match.MissingGroups)
	if err != nil {
		return 0, 0, err
	}
	if delta < 0 && counts[position] <= 0 {
		return 0, 0, fmt.Errorf("position %s has no missing slots: %w", position, models.ErrSlotUnavailable)
	}
	counts[position] += delta
	match.MissingGroups = models.FormatMissingGroups(counts)
	match.Version++
	return counts[position], match.Version, nil
}

func (f *fakeLedger) counts(matchID string) map[string]int {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts, _ := models.ParseMissingGroups(f.matches[matchID].MissingGroups)
	return counts
}

func (f *fakeLedger) sum(matchID string) int {
	total := 0
	for _, count := range f.counts(matchID) {
		total += count
	}
	return total
}

type fakeRequestLog struct {
	mu      sync.Mutex
	records map[string]*models.SlotRequest
	markers map[string]string // matchID/requesterID -> active request id

	failTransition error
	failDelete     error
}

func newFakeRequestLog() *fakeRequestLog {
	return &fakeRequestLog{
		records: make(map[string]*models.SlotRequest),
		markers: make(map[string]string),
	}
}

func recordKey(matchID, requestID string) string { return matchID + "/" + requestID }

func markerKey(matchID, requesterID string) string { return matchID + "/" + requesterID }

func (f *fakeRequestLog) Get(ctx context.Context, matchID, requestID string) (*models.SlotRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.records[recordKey(matchID, requestID)]
	if !ok {
		return nil, fmt.Errorf("request %s: %w", requestID, models.ErrNotFound)
	}
	copied := *record
	return &copied, nil
}

func (f *fakeRequestLog) Insert(ctx context.Context, record *models.SlotRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	mk := markerKey(record.MatchID, record.RequesterID)
	if _, exists := f.markers[mk]; exists {
		return fmt.Errorf("requester %s already active on match %s: %w",
			record.RequesterID, record.MatchID, models.ErrConflict)
	}
	f.markers[mk] = record.RequestID
	copied := *record
	f.records[recordKey(record.MatchID, record.RequestID)] = &copied
	return nil
}

func (f *fakeRequestLog) Transition(ctx context.Context, matchID, requestID string, status models.RequestStatus, resultMessage string) (*models.SlotRequest, error) {
	if f.failTransition != nil {
		return nil, f.failTransition
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.records[recordKey(matchID, requestID)]
	if !ok {
		return nil, fmt.Errorf("request %s: %w", requestID, models.ErrNotFound)
	}
	if record.Status != models.RequestStatusPending {
		return nil, fmt.Errorf("request %s: %w", requestID, models.ErrAlreadyTerminal)
	}
	record.Status = status
	record.ResultMessage = resultMessage
	record.RespondedAt = time.Now().UTC().Format(time.RFC3339)
	if status == models.RequestStatusRejected {
		f.releaseMarker(record)
	}
	copied := *record
	return &copied, nil
}

func (f *fakeRequestLog) Delete(ctx context.Context, record *models.SlotRequest) error {
	if f.failDelete != nil {
		return f.failDelete
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.records, recordKey(record.MatchID, record.RequestID))
	f.releaseMarker(record)
	return nil
}

func (f *fakeRequestLog) DeletePending(ctx context.Context, record *models.SlotRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.records[recordKey(record.MatchID, record.RequestID)]
	if !ok {
		return fmt.Errorf("request %s: %w", record.RequestID, models.ErrNotFound)
	}
	if stored.Status != models.RequestStatusPending {
		return fmt.Errorf("request %s: %w", record.RequestID, models.ErrNotPending)
	}
	delete(f.records, recordKey(record.MatchID, record.RequestID))
	f.releaseMarker(stored)
	return nil
}

func (f *fakeRequestLog) releaseMarker(record *models.SlotRequest) {
	mk := markerKey(record.MatchID, record.RequesterID)
	if f.markers[mk] == record.RequestID {
		delete(f.markers, mk)
	}
}

func (f *fakeRequestLog) ListFor(ctx context.Context, matchID, requesterID string) ([]models.SlotRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.SlotRequest
	for _, record := range f.records {
		if record.MatchID == matchID && record.RequesterID == requesterID {
			out = append(out, *record)
		}
	}
	return out, nil
}

func (f *fakeRequestLog) ListPendingFor(ctx context.Context, ownerID string) ([]models.SlotRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.SlotRequest
	for _, record := range f.records {
		if record.OwnerID == ownerID && record.Status == models.RequestStatusPending {
			out = append(out, *record)
		}
	}
	return out, nil
}

func (f *fakeRequestLog) statusOf(matchID, requestID string) models.RequestStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	if record, ok := f.records[recordKey(matchID, requestID)]; ok {
		return record.Status
	}
	return ""
}
