package services

import (
	"context"
	"testing"
	"time"

	"squadup_server/bus"
	"squadup_server/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRequesterFixture(counts map[string]int) (*fakeLedger, *fakeRequestLog, *RequesterActionService, *OwnerDecisionService) {
	ledger := newFakeLedger("m1", "owner", counts)
	log := newFakeRequestLog()
	suppression := NewSuppressionList(15 * time.Second)
	requester := &RequesterActionService{Ledger: ledger, Requests: log, Suppression: suppression}
	owner := &OwnerDecisionService{Ledger: ledger, Requests: log, Bus: bus.New()}
	return ledger, log, requester, owner
}

func TestSendEnforcesSingleActiveRequest(t *testing.T) {
	_, _, requester, _ := newRequesterFixture(map[string]int{"GK": 1, "DF": 1})
	ctx := context.Background()

	first, err := requester.Send(ctx, "m1", "GK", "alice")
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusPending, first.Status)

	// Same user, different position, different device: still refused.
	_, err = requester.Send(ctx, "m1", "DF", "alice")
	assert.ErrorIs(t, err, models.ErrAlreadyRequested)

	// A different user is free to ask.
	_, err = requester.Send(ctx, "m1", "DF", "bob")
	assert.NoError(t, err)
}

func TestSendRefusesOwnerAndUnknownPosition(t *testing.T) {
	_, _, requester, _ := newRequesterFixture(map[string]int{"GK": 1})
	ctx := context.Background()

	_, err := requester.Send(ctx, "m1", "GK", "owner")
	assert.ErrorIs(t, err, models.ErrInvalidState)

	_, err = requester.Send(ctx, "m1", "XX", "alice")
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = requester.Send(ctx, "missing-match", "GK", "alice")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestSendAllowedAgainAfterRejection(t *testing.T) {
	_, _, requester, owner := newRequesterFixture(map[string]int{"GK": 1})
	ctx := context.Background()

	first, err := requester.Send(ctx, "m1", "GK", "alice")
	require.NoError(t, err)
	_, err = owner.Reject(ctx, "m1", first.RequestID)
	require.NoError(t, err)

	// The rejected record is still in the log as a notification, but the
	// active marker is released.
	_, err = requester.Send(ctx, "m1", "GK", "alice")
	assert.NoError(t, err)
}

func TestResendAfterRejectionShowsSent(t *testing.T) {
	ledger, log, requester, owner := newRequesterFixture(map[string]int{"GK": 1})
	ctx := context.Background()

	first, err := requester.Send(ctx, "m1", "GK", "alice")
	require.NoError(t, err)
	_, err = owner.Reject(ctx, "m1", first.RequestID)
	require.NoError(t, err)

	second, err := requester.Send(ctx, "m1", "GK", "alice")
	require.NoError(t, err)
	require.NotEqual(t, first.RequestID, second.RequestID)

	// The rejection has not been dismissed yet; the fresh pending request
	// must still drive the display.
	match, err := ledger.Get(ctx, "m1")
	require.NoError(t, err)
	records, err := log.ListFor(ctx, "m1", "alice")
	require.NoError(t, err)
	require.Len(t, records, 2)

	states := DerivePositionStates(SnapshotOf(match), records, "alice", nil)
	assert.Equal(t, models.PositionSent, states["GK"])
}

func TestCancelPendingRacesWithAccept(t *testing.T) {
	_, _, requester, owner := newRequesterFixture(map[string]int{"GK": 1})
	ctx := context.Background()

	record, err := requester.Send(ctx, "m1", "GK", "alice")
	require.NoError(t, err)
	_, err = owner.Accept(ctx, "m1", record.RequestID)
	require.NoError(t, err)

	err = requester.CancelPending(ctx, "m1", record.RequestID)
	assert.ErrorIs(t, err, models.ErrNotPending)
}

func TestCancelPendingRemovesRecord(t *testing.T) {
	_, log, requester, _ := newRequesterFixture(map[string]int{"GK": 1})
	ctx := context.Background()

	record, err := requester.Send(ctx, "m1", "GK", "alice")
	require.NoError(t, err)
	require.NoError(t, requester.CancelPending(ctx, "m1", record.RequestID))

	_, err = log.Get(ctx, "m1", record.RequestID)
	assert.ErrorIs(t, err, models.ErrNotFound)

	// The marker is gone too, so the user can request again.
	_, err = requester.Send(ctx, "m1", "GK", "alice")
	assert.NoError(t, err)
}

func TestCancelAcceptedRestoresExactlyOneSlot(t *testing.T) {
	ledger, log, requester, owner := newRequesterFixture(map[string]int{"DF": 2, "MF": 1})
	ctx := context.Background()

	record, err := requester.Send(ctx, "m1", "DF", "alice")
	require.NoError(t, err)
	_, err = owner.Accept(ctx, "m1", record.RequestID)
	require.NoError(t, err)
	require.Equal(t, 1, ledger.counts("m1")["DF"])

	require.NoError(t, requester.CancelAccepted(ctx, "m1", record.RequestID))

	counts := ledger.counts("m1")
	assert.Equal(t, 2, counts["DF"], "cancelled position restored by exactly one")
	assert.Equal(t, 1, counts["MF"], "other positions untouched")

	_, err = log.Get(ctx, "m1", record.RequestID)
	assert.ErrorIs(t, err, models.ErrNotFound, "record removed")

	suppressed := requester.Suppression.SuppressedPositions("m1", "alice")
	assert.True(t, suppressed["DF"], "suppression window registered")
}

func TestCancelAcceptedRequiresAcceptedStatus(t *testing.T) {
	_, _, requester, _ := newRequesterFixture(map[string]int{"DF": 1})
	ctx := context.Background()

	record, err := requester.Send(ctx, "m1", "DF", "alice")
	require.NoError(t, err)

	err = requester.CancelAccepted(ctx, "m1", record.RequestID)
	assert.ErrorIs(t, err, models.ErrInvalidState)
}

func TestDismissRejectedClearsNotification(t *testing.T) {
	_, log, requester, owner := newRequesterFixture(map[string]int{"GK": 1})
	ctx := context.Background()

	record, err := requester.Send(ctx, "m1", "GK", "alice")
	require.NoError(t, err)
	_, err = owner.Reject(ctx, "m1", record.RequestID)
	require.NoError(t, err)

	require.NoError(t, requester.DismissRejected(ctx, "m1", record.RequestID))
	_, err = log.Get(ctx, "m1", record.RequestID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

// Conservation: across any accept/reject/cancel sequence the missing total
// equals the initial total minus the currently accepted, non-cancelled
// requests.
func TestLedgerConservation(t *testing.T) {
	ledger, log, requester, owner := newRequesterFixture(map[string]int{"GK": 1, "DF": 2, "MF": 1})
	ctx := context.Background()
	initial := ledger.sum("m1")

	a, err := requester.Send(ctx, "m1", "GK", "alice")
	require.NoError(t, err)
	b, err := requester.Send(ctx, "m1", "DF", "bob")
	require.NoError(t, err)
	c, err := requester.Send(ctx, "m1", "MF", "carol")
	require.NoError(t, err)

	_, err = owner.Accept(ctx, "m1", a.RequestID)
	require.NoError(t, err)
	_, err = owner.Accept(ctx, "m1", b.RequestID)
	require.NoError(t, err)
	_, err = owner.Reject(ctx, "m1", c.RequestID)
	require.NoError(t, err)

	require.NoError(t, requester.CancelAccepted(ctx, "m1", b.RequestID))

	acceptedNow := 0
	for _, requestID := range []string{a.RequestID, b.RequestID, c.RequestID} {
		if log.statusOf("m1", requestID) == models.RequestStatusAccepted {
			acceptedNow++
		}
	}
	assert.Equal(t, 1, acceptedNow)
	assert.Equal(t, initial-acceptedNow, ledger.sum("m1"))
}

// The stale-push scenario: DF has two slots, alice is accepted and then
// cancels. A snapshot from before the cancellation, arriving inside the
// suppression window, must not flip her display back to accepted.
func TestStaleSnapshotSuppressedAfterCancel(t *testing.T) {
	ledger, _, requester, owner := newRequesterFixture(map[string]int{"DF": 2})
	ctx := context.Background()

	record, err := requester.Send(ctx, "m1", "DF", "alice")
	require.NoError(t, err)
	accepted, err := owner.Accept(ctx, "m1", record.RequestID)
	require.NoError(t, err)

	// Capture the pre-cancellation state the stale push will carry.
	staleSnapshot := LedgerSnapshot{
		MatchID: "m1",
		OwnerID: "owner",
		Counts:  map[string]int{"DF": 1},
		Version: 2,
	}
	staleRecords := []models.SlotRequest{*accepted}

	require.NoError(t, requester.CancelAccepted(ctx, "m1", record.RequestID))
	require.Equal(t, 2, ledger.counts("m1")["DF"], "ledger restored")

	suppressed := requester.Suppression.SuppressedPositions("m1", "alice")
	states := DerivePositionStates(staleSnapshot, staleRecords, "alice", suppressed)
	assert.Equal(t, models.PositionOpen, states["DF"],
		"stale accepted snapshot must not resurface inside the suppression window")
}
