package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"squadup_server/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// RequestLogService is the durable log of slot requests. Records double as
// the user-facing notification feed: the typed status drives all logic, the
// resultMessage field is only ever displayed.
//
// The one-outstanding-request rule is enforced at the storage layer with a
// marker item per (match, requester), written via conditional put. Two
// devices racing on Send both reach DynamoDB; exactly one marker put wins.
type RequestLogService struct {
	Dynamo *DynamoService
}

func requestKey(matchID, requestID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"matchId":   &types.AttributeValueMemberS{Value: matchID},
		"requestId": &types.AttributeValueMemberS{Value: requestID},
	}
}

// Get loads a single request record.
func (s *RequestLogService) Get(ctx context.Context, matchID, requestID string) (*models.SlotRequest, error) {
	item, err := s.Dynamo.GetItem(ctx, models.SlotRequestsTable, requestKey(matchID, requestID))
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", requestID, models.ErrNotFound)
	}
	var record models.SlotRequest
	if err := attributevalue.UnmarshalMap(item, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal request %s: %w", requestID, err)
	}
	return &record, nil
}

// Insert writes a new pending record. It fails with models.ErrConflict when
// the requester already holds an active (pending or accepted) record for the
// match.
func (s *RequestLogService) Insert(ctx context.Context, record *models.SlotRequest) error {
	marker := models.ActiveMarker{
		MatchID:         record.MatchID,
		RequestID:       models.ActiveMarkerSK(record.RequesterID),
		ActiveRequestID: record.RequestID,
		RequesterID:     record.RequesterID,
		Position:        record.Position,
		CreatedAt:       record.CreatedAt,
	}
	err := s.Dynamo.PutItemWithCondition(ctx,
		models.SlotRequestsTable,
		marker,
		"attribute_not_exists(requestId)",
		nil,
	)
	if err != nil {
		if IsConditionalCheckFailed(err) {
			return fmt.Errorf("requester %s already active on match %s: %w",
				record.RequesterID, record.MatchID, models.ErrConflict)
		}
		return err
	}
	if err := s.Dynamo.PutItem(ctx, models.SlotRequestsTable, record); err != nil {
		// Roll the marker back so the requester is not locked out by a
		// half-finished insert.
		if delErr := s.deleteMarker(ctx, record); delErr != nil {
			log.Printf("MANUAL RECONCILIATION: orphaned active marker for requester %s on match %s: %v",
				record.RequesterID, record.MatchID, delErr)
		}
		return err
	}
	return nil
}

// Transition moves a pending record to accepted or rejected, exactly once.
// It fails with models.ErrNotFound for a stale id and models.ErrAlreadyTerminal
// when the record was already decided.
func (s *RequestLogService) Transition(ctx context.Context, matchID, requestID string, status models.RequestStatus, resultMessage string) (*models.SlotRequest, error) {
	attrs, err := s.Dynamo.UpdateItemWithCondition(ctx,
		models.SlotRequestsTable,
		requestKey(matchID, requestID),
		"SET #s = :new, resultMessage = :msg, respondedAt = :at",
		"attribute_exists(matchId) AND #s = :pending",
		map[string]types.AttributeValue{
			":new":     &types.AttributeValueMemberS{Value: string(status)},
			":msg":     &types.AttributeValueMemberS{Value: resultMessage},
			":at":      &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339)},
			":pending": &types.AttributeValueMemberS{Value: string(models.RequestStatusPending)},
		},
		map[string]string{"#s": "status"},
	)
	if err != nil {
		if IsConditionalCheckFailed(err) {
			// Classify: stale id vs already decided.
			if _, getErr := s.Get(ctx, matchID, requestID); getErr != nil {
				return nil, fmt.Errorf("request %s: %w", requestID, models.ErrNotFound)
			}
			return nil, fmt.Errorf("request %s: %w", requestID, models.ErrAlreadyTerminal)
		}
		return nil, err
	}

	var record models.SlotRequest
	if err := attributevalue.UnmarshalMap(attrs, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal transitioned request %s: %w", requestID, err)
	}
	// A rejection frees the requester to ask again; the record itself stays
	// around as the inbox notification until dismissed.
	if status == models.RequestStatusRejected {
		if err := s.deleteMarker(ctx, &record); err != nil {
			log.Printf("failed to release active marker after rejecting request %s: %v", requestID, err)
		}
	}
	return &record, nil
}

// Delete removes a record and releases its active marker.
func (s *RequestLogService) Delete(ctx context.Context, record *models.SlotRequest) error {
	if err := s.Dynamo.DeleteItem(ctx, models.SlotRequestsTable, requestKey(record.MatchID, record.RequestID)); err != nil {
		return err
	}
	return s.deleteMarker(ctx, record)
}

// DeletePending removes a record only while it is still pending. A cancel
// racing with an in-flight accept fails with models.ErrNotPending instead of
// silently destroying the decided record.
func (s *RequestLogService) DeletePending(ctx context.Context, record *models.SlotRequest) error {
	err := s.Dynamo.DeleteItemWithCondition(ctx,
		models.SlotRequestsTable,
		requestKey(record.MatchID, record.RequestID),
		"#s = :pending",
		map[string]types.AttributeValue{
			":pending": &types.AttributeValueMemberS{Value: string(models.RequestStatusPending)},
		},
		map[string]string{"#s": "status"},
	)
	if err != nil {
		if IsConditionalCheckFailed(err) {
			return fmt.Errorf("request %s: %w", record.RequestID, models.ErrNotPending)
		}
		return err
	}
	return s.deleteMarker(ctx, record)
}

// deleteMarker releases the requester's active marker, but only if it still
// points at this record. A rejected record being dismissed must not tear down
// the marker of a newer pending request.
func (s *RequestLogService) deleteMarker(ctx context.Context, record *models.SlotRequest) error {
	key := requestKey(record.MatchID, models.ActiveMarkerSK(record.RequesterID))
	err := s.Dynamo.DeleteItemWithCondition(ctx,
		models.SlotRequestsTable,
		key,
		"activeRequestId = :rid",
		map[string]types.AttributeValue{
			":rid": &types.AttributeValueMemberS{Value: record.RequestID},
		},
		nil,
	)
	if err != nil && !IsConditionalCheckFailed(err) {
		return err
	}
	return nil
}

// ListFor returns the requester's records on a match. Marker items carry no
// status attribute and are filtered out here.
func (s *RequestLogService) ListFor(ctx context.Context, matchID, requesterID string) ([]models.SlotRequest, error) {
	tableName := models.SlotRequestsTable
	input := &dynamodb.QueryInput{
		TableName:              &tableName,
		KeyConditionExpression: aws.String("matchId = :matchId"),
		FilterExpression:       aws.String("requesterId = :requesterId AND attribute_exists(#s)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":matchId":     &types.AttributeValueMemberS{Value: matchID},
			":requesterId": &types.AttributeValueMemberS{Value: requesterID},
		},
		ExpressionAttributeNames: map[string]string{"#s": "status"},
	}
	items, err := s.Dynamo.QueryItemsWithQueryInput(ctx, input)
	if err != nil {
		return nil, err
	}
	var records []models.SlotRequest
	err = attributevalue.UnmarshalListOfMaps(items, &records)
	return records, err
}

// ListPendingFor returns the undecided requests awaiting an owner, via the
// owner GSI. This feeds the owner's inbox UI.
func (s *RequestLogService) ListPendingFor(ctx context.Context, ownerID string) ([]models.SlotRequest, error) {
	tableName := models.SlotRequestsTable
	input := &dynamodb.QueryInput{
		TableName:              &tableName,
		IndexName:              aws.String(models.OwnerIndexName),
		KeyConditionExpression: aws.String("ownerId = :ownerId"),
		FilterExpression:       aws.String("#s = :pending"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":ownerId": &types.AttributeValueMemberS{Value: ownerID},
			":pending": &types.AttributeValueMemberS{Value: string(models.RequestStatusPending)},
		},
		ExpressionAttributeNames: map[string]string{"#s": "status"},
	}
	items, err := s.Dynamo.QueryItemsWithQueryInput(ctx, input)
	if err != nil {
		return nil, err
	}
	var records []models.SlotRequest
	err = attributevalue.UnmarshalListOfMaps(items, &records)
	return records, err
}
