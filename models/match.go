package models

// Match represents a pickup match advertising missing roster positions.
// The ledger of missing slots lives on this item; it is only ever mutated
// through the SlotLedger service, never by a plain overwrite.
type Match struct {
	MatchID       string `dynamodbav:"matchId" json:"matchId"`             // Partition Key (PK) - Unique match ID
	OwnerID       string `dynamodbav:"ownerId" json:"ownerId"`             // User who created the match
	Sport         string `dynamodbav:"sport" json:"sport"`                 // e.g. "football"
	MissingGroups string `dynamodbav:"missingGroups" json:"missingGroups"` // "GK:1,DF:2" - one token per position with count > 0
	Version       int64  `dynamodbav:"version" json:"version"`             // Monotonic, bumped on every ledger write
	CreatedAt     string `dynamodbav:"createdAt" json:"createdAt"`         // Timestamp of creation
}

// MatchesTable is the DynamoDB table name for matches
const MatchesTable = "Matches"
