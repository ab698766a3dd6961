package idempotency

import "time"

// Status values for claim records
const (
	StatusInProgress = "IN_PROGRESS"
	StatusDone       = "DONE"
)

// Record is the shape persisted in the idempotency DynamoDB table. One record per
// processed results notice.
type Record struct {
	Key        string    `dynamodbav:"idempotency_key"` // PK
	Status     string    `dynamodbav:"status"`
	SessionID  string    `dynamodbav:"session_id"`
	RowID      string    `dynamodbav:"row_id,omitempty"` // parsed_orders row written for the notice
	CreatedAt  time.Time `dynamodbav:"created_at"`
	UpdatedAt  time.Time `dynamodbav:"updated_at"`
	LeaseUntil int64     `dynamodbav:"lease_until"` // epoch seconds; an IN_PROGRESS claim past this may be taken over
	ExpiresAt  int64     `dynamodbav:"expires_at"`  // TTL epoch seconds
}
