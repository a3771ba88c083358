package services

import (
	"context"
	"fmt"
	"log"

	"squadup_server/bus"
	"squadup_server/models"
)

// OwnerDecisionService executes the match owner's accept/reject decisions.
// Accept is a two-step saga across the ledger and the log: the slot is taken
// first, then the record is marked accepted. If the second step fails the
// slot is given back, otherwise the ledger would under-count forever.
type OwnerDecisionService struct {
	Ledger   LedgerStore
	Requests RequestStore
	Bus      *bus.Bus
}

// Accept takes one slot for the request's position and marks the record
// accepted. It fails with models.ErrInvalidState when the record is not
// pending and with models.ErrSlotUnavailable when a racing accept exhausted
// the position first; in both cases the record is left pending so the owner
// can retry or pick another request.
func (s *OwnerDecisionService) Accept(ctx context.Context, matchID, requestID string) (*models.SlotRequest, error) {
	record, err := s.Requests.Get(ctx, matchID, requestID)
	if err != nil {
		return nil, err
	}
	if record.Status != models.RequestStatusPending {
		return nil, fmt.Errorf("accept request %s in status %s: %w", requestID, record.Status, models.ErrInvalidState)
	}

	if _, _, err := s.Ledger.Decrement(ctx, matchID, record.Position); err != nil {
		// The ledger distinguishes an exhausted position from a missing
		// match; both pass through unchanged so a deleted match stays a
		// not-found, not a slot conflict.
		return nil, err
	}

	message := models.ResultMessageFor(models.RequestStatusAccepted, record.Position)
	updated, err := s.Requests.Transition(ctx, matchID, requestID, models.RequestStatusAccepted, message)
	if err != nil {
		// Compensate: the slot was taken but the record could not be marked.
		if _, _, compErr := s.Ledger.Increment(ctx, matchID, record.Position); compErr != nil {
			log.Printf("MANUAL RECONCILIATION: match %s position %s decremented but request %s not accepted and compensation failed: %v",
				matchID, record.Position, requestID, compErr)
		}
		return nil, err
	}

	s.Bus.Publish(bus.Event{
		MatchID:     matchID,
		Position:    record.Position,
		RequesterID: record.RequesterID,
		RequestID:   requestID,
		Outcome:     bus.OutcomeAccepted,
	})
	return updated, nil
}

// Reject marks the record rejected. The ledger is untouched.
func (s *OwnerDecisionService) Reject(ctx context.Context, matchID, requestID string) (*models.SlotRequest, error) {
	record, err := s.Requests.Get(ctx, matchID, requestID)
	if err != nil {
		return nil, err
	}
	if record.Status != models.RequestStatusPending {
		return nil, fmt.Errorf("reject request %s in status %s: %w", requestID, record.Status, models.ErrInvalidState)
	}

	message := models.ResultMessageFor(models.RequestStatusRejected, record.Position)
	updated, err := s.Requests.Transition(ctx, matchID, requestID, models.RequestStatusRejected, message)
	if err != nil {
		return nil, err
	}

	s.Bus.Publish(bus.Event{
		MatchID:     matchID,
		Position:    record.Position,
		RequesterID: record.RequesterID,
		RequestID:   requestID,
		Outcome:     bus.OutcomeRejected,
	})
	return updated, nil
}
