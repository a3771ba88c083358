package services

import (
	"context"

	"squadup_server/models"
)

// LedgerStore is the slice of the slot ledger that decision and action
// handlers depend on. SlotLedgerService is the DynamoDB implementation; tests
// substitute an in-memory fake.
type LedgerStore interface {
	Get(ctx context.Context, matchID string) (*models.Match, error)
	Decrement(ctx context.Context, matchID, position string) (int, int64, error)
	Increment(ctx context.Context, matchID, position string) (int, int64, error)
}

// RequestStore is the slice of the request log the handlers depend on.
type RequestStore interface {
	Get(ctx context.Context, matchID, requestID string) (*models.SlotRequest, error)
	Insert(ctx context.Context, record *models.SlotRequest) error
	Transition(ctx context.Context, matchID, requestID string, status models.RequestStatus, resultMessage string) (*models.SlotRequest, error)
	Delete(ctx context.Context, record *models.SlotRequest) error
	DeletePending(ctx context.Context, record *models.SlotRequest) error
	ListFor(ctx context.Context, matchID, requesterID string) ([]models.SlotRequest, error)
	ListPendingFor(ctx context.Context, ownerID string) ([]models.SlotRequest, error)
}
