// Package idempotency records which results notices the worker has already handled,
// so a redelivered or duplicated notice does not archive the same result set twice.
package idempotency

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"

	"github.com/imrishuroy/rental-dispatch/internal/aws"
)

// Defaults for NewStore.
const (
	DefaultTTL   = 48 * time.Hour
	DefaultLease = 5 * time.Minute
)

// claimCondition lets a new claim through when the key is unseen, or when an earlier
// claim was never finished and its lease ran out (the worker died mid-message).
const claimCondition = "attribute_not_exists(idempotency_key) OR (#s = :in_progress AND lease_until < :now)"

// Store encapsulates idempotency operations against DynamoDB.
type Store struct {
	client    aws.DynamoDBAPI
	tableName string
	ttlWindow time.Duration
	lease     time.Duration
	nowFunc   func() time.Time
}

// NewStore returns a Store bound to tableName. ttlWindow <= 0 uses DefaultTTL.
func NewStore(client aws.DynamoDBAPI, tableName string, ttlWindow time.Duration) *Store {
	if ttlWindow <= 0 {
		ttlWindow = DefaultTTL
	}
	return &Store{
		client:    client,
		tableName: tableName,
		ttlWindow: ttlWindow,
		lease:     DefaultLease,
		nowFunc:   time.Now,
	}
}

// Claim creates an IN_PROGRESS record for key. It returns false, nil when another
// delivery already holds or finished the key.
func (s *Store) Claim(ctx context.Context, key, sessionID string) (bool, error) {
	now := s.nowFunc()
	rec := Record{
		Key:        key,
		Status:     StatusInProgress,
		SessionID:  sessionID,
		CreatedAt:  now,
		UpdatedAt:  now,
		LeaseUntil: now.Add(s.lease).Unix(),
		ExpiresAt:  now.Add(s.ttlWindow).Unix(),
	}
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return false, fmt.Errorf("marshal record: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName:           &s.tableName,
		Item:                item,
		ConditionExpression: awsString(claimCondition),
		ExpressionAttributeNames: map[string]string{
			"#s": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":in_progress": &types.AttributeValueMemberS{Value: StatusInProgress},
			":now":         &types.AttributeValueMemberN{Value: strconv.FormatInt(now.Unix(), 10)},
		},
	})
	if err != nil {
		var sc smithy.APIError
		if errors.As(err, &sc) && sc.ErrorCode() == "ConditionalCheckFailedException" {
			return false, nil
		}
		return false, fmt.Errorf("put item: %w", err)
	}
	return true, nil
}

// Get retrieves a record by key. If not found, returns (nil, nil).
func (s *Store) Get(ctx context.Context, key string) (*Record, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key:       recordKey(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var rec Record
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal item: %w", err)
	}
	return &rec, nil
}

// MarkDone finishes a claim. rowID may be empty when nothing was archived.
func (s *Store) MarkDone(ctx context.Context, key, sessionID, rowID string) error {
	rec, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	now := s.nowFunc()
	if rec == nil {
		rec = &Record{Key: key, SessionID: sessionID, CreatedAt: now, ExpiresAt: now.Add(s.ttlWindow).Unix()}
	}
	rec.Status = StatusDone
	rec.RowID = rowID
	rec.UpdatedAt = now
	rec.LeaseUntil = 0

	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	if _, err := s.client.PutItem(ctx, &dyn.PutItemInput{TableName: &s.tableName, Item: item}); err != nil {
		return fmt.Errorf("put item (mark done): %w", err)
	}
	return nil
}

// Release drops a claim so the next delivery can retry the work.
func (s *Store) Release(ctx context.Context, key string) error {
	_, err := s.client.DeleteItem(ctx, &dyn.DeleteItemInput{
		TableName: &s.tableName,
		Key:       recordKey(key),
	})
	if err != nil {
		return fmt.Errorf("delete item (release): %w", err)
	}
	return nil
}

func recordKey(key string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"idempotency_key": &types.AttributeValueMemberS{Value: key},
	}
}

// Helper
func awsString(s string) *string { return &s }
