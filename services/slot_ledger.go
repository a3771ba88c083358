package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"squadup_server/models"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

// SlotLedgerService owns the authoritative per-match counters of missing
// positions. Every mutation is a version-stamped conditional update: the
// write only lands if nobody else has written since our read, and on a lost
// race we re-read and retry against the fresh state. A plain read-modify-
// write here would silently lose one of two accepts racing on the last slot.
type SlotLedgerService struct {
	Dynamo *DynamoService
}

// ledgerRetries bounds the optimistic-concurrency retry loop. Contention on
// a single match is a handful of viewers, so losing three races in a row
// means something is wrong upstream.
const ledgerRetries = 3

// CreateMatch persists a new match advertising the given missing counts.
func (s *SlotLedgerService) CreateMatch(ctx context.Context, ownerID, sport string, counts map[string]int) (*models.Match, error) {
	for code := range counts {
		if !models.ValidPosition(code) {
			return nil, fmt.Errorf("create match: unknown position %q: %w", code, models.ErrNotFound)
		}
	}
	match := &models.Match{
		MatchID:       uuid.New().String(),
		OwnerID:       ownerID,
		Sport:         sport,
		MissingGroups: models.FormatMissingGroups(counts),
		Version:       1,
		CreatedAt:     time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.Dynamo.PutItem(ctx, models.MatchesTable, match); err != nil {
		return nil, err
	}
	return match, nil
}

// Get loads the match ledger row.
func (s *SlotLedgerService) Get(ctx context.Context, matchID string) (*models.Match, error) {
	key := map[string]types.AttributeValue{
		"matchId": &types.AttributeValueMemberS{Value: matchID},
	}
	item, err := s.Dynamo.GetItem(ctx, models.MatchesTable, key)
	if err != nil {
		return nil, fmt.Errorf("match %s: %w", matchID, models.ErrNotFound)
	}
	var match models.Match
	if err := attributevalue.UnmarshalMap(item, &match); err != nil {
		return nil, fmt.Errorf("failed to unmarshal match %s: %w", matchID, err)
	}
	return &match, nil
}

// Decrement atomically takes one slot from position. It fails with
// models.ErrSlotUnavailable when the position is already at zero, which is
// how a racing accept discovers the slot is gone, and with
// models.ErrNotFound when the match row itself is missing.
func (s *SlotLedgerService) Decrement(ctx context.Context, matchID, position string) (int, int64, error) {
	return s.apply(ctx, matchID, position, -1)
}

// Increment atomically returns one slot to position, creating the token if
// it was absent (the position had been fully staffed).
func (s *SlotLedgerService) Increment(ctx context.Context, matchID, position string) (int, int64, error) {
	return s.apply(ctx, matchID, position, +1)
}

func (s *SlotLedgerService) apply(ctx context.Context, matchID, position string, delta int) (int, int64, error) {
	if !models.ValidPosition(position) {
		return 0, 0, fmt.Errorf("position %q: %w", position, models.ErrNotFound)
	}
	var lastErr error
	for attempt := 0; attempt < ledgerRetries; attempt++ {
		match, err := s.Get(ctx, matchID)
		if err != nil {
			return 0, 0, err
		}
		counts, err := models.ParseMissingGroups(match.MissingGroups)
		if err != nil {
			return 0, 0, fmt.Errorf("corrupt ledger for match %s: %w", matchID, err)
		}
		if delta < 0 && counts[position] <= 0 {
			return 0, 0, fmt.Errorf("position %s has no missing slots: %w", position, models.ErrSlotUnavailable)
		}
		newCount := counts[position] + delta
		counts[position] = newCount
		newVersion := match.Version + 1

		key := map[string]types.AttributeValue{
			"matchId": &types.AttributeValueMemberS{Value: matchID},
		}
		_, err = s.Dynamo.UpdateItemWithCondition(ctx,
			models.MatchesTable,
			key,
			"SET missingGroups = :groups, version = :newVersion",
			"version = :expectedVersion",
			map[string]types.AttributeValue{
				":groups":          &types.AttributeValueMemberS{Value: models.FormatMissingGroups(counts)},
				":newVersion":      &types.AttributeValueMemberN{Value: strconv.FormatInt(newVersion, 10)},
				":expectedVersion": &types.AttributeValueMemberN{Value: strconv.FormatInt(match.Version, 10)},
			},
			nil,
		)
		if err == nil {
			return newCount, newVersion, nil
		}
		if !IsConditionalCheckFailed(err) {
			return 0, 0, err
		}
		// Lost the version race; loop and re-read the fresh counters.
		lastErr = err
	}
	return 0, 0, fmt.Errorf("ledger update for match %s lost %d races: %w", matchID, ledgerRetries, lastErr)
}
