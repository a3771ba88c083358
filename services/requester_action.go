package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"squadup_server/models"

	"github.com/google/uuid"
)

// RequesterActionService executes the requester side of the slot lifecycle:
// sending a request, cancelling it before or after the owner's decision, and
// dismissing a rejection notification.
type RequesterActionService struct {
	Ledger      LedgerStore
	Requests    RequestStore
	Suppression *SuppressionList
}

// Send creates a pending request for one slot. The one-outstanding-request
// rule is enforced by the store's conditional marker write, so two devices
// of the same user racing here cannot both succeed; the loser gets
// models.ErrAlreadyRequested.
func (s *RequesterActionService) Send(ctx context.Context, matchID, position, requesterID string) (*models.SlotRequest, error) {
	match, err := s.Ledger.Get(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if requesterID == match.OwnerID {
		return nil, fmt.Errorf("owner cannot request a slot on their own match: %w", models.ErrInvalidState)
	}
	if !models.ValidPosition(position) {
		return nil, fmt.Errorf("position %q: %w", position, models.ErrNotFound)
	}

	record := &models.SlotRequest{
		MatchID:     matchID,
		RequestID:   uuid.New().String(),
		Position:    position,
		RequesterID: requesterID,
		OwnerID:     match.OwnerID,
		Status:      models.RequestStatusPending,
		CreatedAt:   time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.Requests.Insert(ctx, record); err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, fmt.Errorf("match %s: %w", matchID, models.ErrAlreadyRequested)
		}
		return nil, err
	}
	return record, nil
}

// CancelPending withdraws a not-yet-decided request. A cancel racing with an
// in-flight accept or reject fails with models.ErrNotPending; the caller
// should re-derive and show the decided state instead.
func (s *RequesterActionService) CancelPending(ctx context.Context, matchID, requestID string) error {
	record, err := s.Requests.Get(ctx, matchID, requestID)
	if err != nil {
		return err
	}
	if record.Status != models.RequestStatusPending {
		return fmt.Errorf("cancel request %s in status %s: %w", requestID, record.Status, models.ErrNotPending)
	}
	return s.Requests.DeletePending(ctx, record)
}

// CancelAccepted gives an accepted slot back: the ledger count is restored,
// the record removed, and a suppression window registered so a stale push or
// poll snapshot that still shows the acceptance cannot flicker the viewer's
// state back to accepted before the backend catches up.
func (s *RequesterActionService) CancelAccepted(ctx context.Context, matchID, requestID string) error {
	record, err := s.Requests.Get(ctx, matchID, requestID)
	if err != nil {
		return err
	}
	if record.Status != models.RequestStatusAccepted {
		return fmt.Errorf("cancel acceptance of request %s in status %s: %w", requestID, record.Status, models.ErrInvalidState)
	}

	if _, _, err := s.Ledger.Increment(ctx, matchID, record.Position); err != nil {
		return err
	}
	if err := s.Requests.Delete(ctx, record); err != nil {
		// Mirror the accept saga: take the restored slot back so the ledger
		// and the log do not disagree.
		if _, _, compErr := s.Ledger.Decrement(ctx, matchID, record.Position); compErr != nil {
			log.Printf("MANUAL RECONCILIATION: match %s position %s incremented but request %s not deleted and compensation failed: %v",
				matchID, record.Position, requestID, compErr)
		}
		return err
	}

	s.Suppression.Add(matchID, record.Position, record.RequesterID)
	return nil
}

// DismissRejected clears a rejection notification after the viewer has seen
// it, so later polls do not re-surface it.
func (s *RequesterActionService) DismissRejected(ctx context.Context, matchID, requestID string) error {
	record, err := s.Requests.Get(ctx, matchID, requestID)
	if err != nil {
		return err
	}
	if record.Status != models.RequestStatusRejected {
		return fmt.Errorf("dismiss request %s in status %s: %w", requestID, record.Status, models.ErrInvalidState)
	}
	return s.Requests.Delete(ctx, record)
}
