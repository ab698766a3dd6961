package results

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"

	"github.com/imrishuroy/rental-dispatch/internal/aws"
)

// record is the shape persisted in the results DynamoDB table.
// expires_at must be configured as the table's TTL attribute.
type record struct {
	SessionID  string    `dynamodbav:"session_id"` // PK
	Items      string    `dynamodbav:"items"`      // JSON array, kept verbatim
	ItemsCount int       `dynamodbav:"items_count"`
	ReceivedAt time.Time `dynamodbav:"received_at"`
	ExpiresAt  int64     `dynamodbav:"expires_at"` // TTL epoch seconds
}

// DynamoStore keeps entries in a DynamoDB table so every API instance sees the same
// sessions. DynamoDB deletes expired items lazily, so reads filter on expires_at too.
type DynamoStore struct {
	client    aws.DynamoDBAPI
	tableName string
	ttl       time.Duration
	nowFunc   func() time.Time
}

// NewDynamoStore returns a store bound to tableName; ttl <= 0 falls back to DefaultTTL.
func NewDynamoStore(client aws.DynamoDBAPI, tableName string, ttl time.Duration) *DynamoStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &DynamoStore{
		client:    client,
		tableName: tableName,
		ttl:       ttl,
		nowFunc:   time.Now,
	}
}

func (s *DynamoStore) Put(ctx context.Context, sessionID string, items []json.RawMessage) (*Entry, error) {
	if sessionID == "" {
		return nil, ErrEmptySession
	}
	items = cloneItems(items)
	encoded, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("encode items: %w", err)
	}

	now := s.nowFunc().UTC()
	rec := record{
		SessionID:  sessionID,
		Items:      string(encoded),
		ItemsCount: len(items),
		ReceivedAt: now,
		ExpiresAt:  expiresAt(now.Add(s.ttl)),
	}
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return nil, fmt.Errorf("marshal record: %w", err)
	}

	// unconditional put: last writer wins
	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName: &s.tableName,
		Item:      item,
	})
	if err != nil {
		return nil, fmt.Errorf("put item: %w", describe(err))
	}
	return &Entry{SessionID: sessionID, Items: items, ReceivedAt: now}, nil
}

// Get retrieves a live entry. Returns (nil, nil) if not found or expired.
func (s *DynamoStore) Get(ctx context.Context, sessionID string) (*Entry, error) {
	if sessionID == "" {
		return nil, nil
	}
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName:      &s.tableName,
		Key:            sessionKey(sessionID),
		ConsistentRead: awsBool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get item: %w", describe(err))
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var rec record
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal record: %w", err)
	}
	if s.expired(rec.ReceivedAt) {
		return nil, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal([]byte(rec.Items), &items); err != nil {
		return nil, fmt.Errorf("decode items for %s: %w", sessionID, err)
	}
	if items == nil {
		items = []json.RawMessage{}
	}
	return &Entry{SessionID: rec.SessionID, Items: items, ReceivedAt: rec.ReceivedAt}, nil
}

func (s *DynamoStore) Delete(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	_, err := s.client.DeleteItem(ctx, &dyn.DeleteItemInput{
		TableName: &s.tableName,
		Key:       sessionKey(sessionID),
	})
	if err != nil {
		return fmt.Errorf("delete item: %w", describe(err))
	}
	return nil
}

// EvictExpired deletes entries the TTL sweeper has not reached yet.
func (s *DynamoStore) EvictExpired(ctx context.Context) (int, error) {
	ids, err := s.scanIDs(ctx, false)
	if err != nil {
		return 0, err
	}
	for _, id := range ids {
		if err := s.Delete(ctx, id); err != nil {
			return 0, err
		}
	}
	return len(ids), nil
}

func (s *DynamoStore) Sessions(ctx context.Context) ([]string, error) {
	ids, err := s.scanIDs(ctx, true)
	if err != nil {
		return nil, err
	}
	sort.Strings(ids)
	return ids, nil
}

// scanIDs lists live (or expired) session ids. expires_at is whole seconds, so the
// filter only narrows the scan; received_at decides.
func (s *DynamoStore) scanIDs(ctx context.Context, live bool) ([]string, error) {
	now := s.nowFunc().Unix()
	filter := "expires_at >= :now"
	if !live {
		filter = "expires_at <= :now"
		now++
	}
	input := &dyn.ScanInput{
		TableName:            &s.tableName,
		ProjectionExpression: awsString("session_id, received_at"),
		FilterExpression:     awsString(filter),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":now": &types.AttributeValueMemberN{Value: strconv.FormatInt(now, 10)},
		},
	}

	var ids []string
	for {
		out, err := s.client.Scan(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", describe(err))
		}
		for _, item := range out.Items {
			var rec record
			if err := attributevalue.UnmarshalMap(item, &rec); err != nil || rec.SessionID == "" {
				continue
			}
			if s.expired(rec.ReceivedAt) != live {
				ids = append(ids, rec.SessionID)
			}
		}
		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
	return ids, nil
}

// expired matches MemoryStore: an entry lives until it is more than ttl old.
func (s *DynamoStore) expired(receivedAt time.Time) bool {
	return s.nowFunc().Sub(receivedAt) > s.ttl
}

// expiresAt rounds up so the TTL sweeper never removes a live entry.
func expiresAt(t time.Time) int64 {
	sec := t.Unix()
	if t.Nanosecond() > 0 {
		sec++
	}
	return sec
}

func sessionKey(sessionID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"session_id": &types.AttributeValueMemberS{Value: sessionID},
	}
}

// describe prefixes service errors with their error code so logs stay greppable.
func describe(err error) error {
	var ae smithy.APIError
	if errors.As(err, &ae) {
		return fmt.Errorf("%s: %w", ae.ErrorCode(), err)
	}
	return err
}

// Helpers
func awsString(s string) *string { return &s }
func awsBool(b bool) *bool       { return &b }
