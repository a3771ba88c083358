package models

// RequestStatus is the typed lifecycle status of a slot request.
// The human-readable ResultMessage is derived from this enum, never the
// other way around.
type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusAccepted RequestStatus = "accepted"
	RequestStatusRejected RequestStatus = "rejected"
)

// SlotRequest is one user's durable attempt to claim a missing-position slot.
// Pending records are created by the requester, transitioned to
// accepted/rejected only by the match owner, and deleted by the requester on
// cancellation.
type SlotRequest struct {
	MatchID       string        `dynamodbav:"matchId" json:"matchId"`             // Partition Key (PK)
	RequestID     string        `dynamodbav:"requestId" json:"requestId"`         // Sort Key (SK) - UUID
	Position      string        `dynamodbav:"position" json:"position"`           // Position code, e.g. "GK"
	RequesterID   string        `dynamodbav:"requesterId" json:"requesterId"`     // User asking for the slot
	OwnerID       string        `dynamodbav:"ownerId" json:"ownerId"`             // Match owner who decides
	Status        RequestStatus `dynamodbav:"status" json:"status"`               // pending, accepted, rejected
	ResultMessage string        `dynamodbav:"resultMessage" json:"resultMessage"` // Display string, derived from Status
	CreatedAt     string        `dynamodbav:"createdAt" json:"createdAt"`
	RespondedAt   string        `dynamodbav:"respondedAt,omitempty" json:"respondedAt,omitempty"`
}

// ActiveMarker enforces the one-outstanding-request rule at the storage
// layer. One marker item exists per (match, requester) while that requester
// holds a pending or accepted record; it is written with a conditional put so
// two devices racing on Send cannot both succeed.
type ActiveMarker struct {
	MatchID         string `dynamodbav:"matchId"`   // PK, same table as requests
	RequestID       string `dynamodbav:"requestId"` // SK, "active#<requesterId>"
	ActiveRequestID string `dynamodbav:"activeRequestId"`
	RequesterID     string `dynamodbav:"requesterId"`
	Position        string `dynamodbav:"position"`
	CreatedAt       string `dynamodbav:"createdAt"`
}

// SlotRequestsTable is the DynamoDB table name for slot requests.
// GSI "OwnerIndex" (ownerId, createdAt) serves the owner's pending inbox.
const SlotRequestsTable = "SlotRequests"

// OwnerIndexName is the GSI used to list a match owner's inbound requests.
const OwnerIndexName = "OwnerIndex"

// ActiveMarkerSK returns the sort key of the active-marker item for a requester.
func ActiveMarkerSK(requesterID string) string {
	return "active#" + requesterID
}

// ResultMessageFor computes the display string shown in the requester's inbox
// for a decided request. Kept separate from the status enum so no caller is
// ever tempted to parse it back.
func ResultMessageFor(status RequestStatus, position string) string {
	switch status {
	case RequestStatusAccepted:
		return "Your request for position " + position + " was accepted"
	case RequestStatusRejected:
		return "Your request for position " + position + " was rejected"
	default:
		return ""
	}
}
