package results

import (
	"context"
	"errors"
	"strconv"
	"sync"

	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// simpleMock is a very small in-memory mock for PutItem/GetItem/DeleteItem/Scan used in unit tests.
// Scan understands only the two filters the store issues and pages one item at a time
// so pagination is exercised.
type simpleMock struct {
	mu          sync.Mutex
	table       map[string]map[string]types.AttributeValue
	putCalls    int
	deleteCalls int
	scanCalls   int
	failWith    error
}

func newSimpleMock() *simpleMock {
	return &simpleMock{
		table: map[string]map[string]types.AttributeValue{},
	}
}

func (m *simpleMock) PutItem(ctx context.Context, params *dyn.PutItemInput, optFns ...func(*dyn.Options)) (*dyn.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putCalls++
	if m.failWith != nil {
		return nil, m.failWith
	}
	keyAttr, ok := params.Item["session_id"].(*types.AttributeValueMemberS)
	if !ok {
		return nil, errors.New("missing key")
	}
	m.table[keyAttr.Value] = params.Item
	return &dyn.PutItemOutput{}, nil
}

func (m *simpleMock) GetItem(ctx context.Context, params *dyn.GetItemInput, optFns ...func(*dyn.Options)) (*dyn.GetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	keyAttr, ok := params.Key["session_id"].(*types.AttributeValueMemberS)
	if !ok {
		return nil, errors.New("missing key")
	}
	item, ok := m.table[keyAttr.Value]
	if !ok {
		return &dyn.GetItemOutput{}, nil
	}
	return &dyn.GetItemOutput{Item: item}, nil
}

func (m *simpleMock) DeleteItem(ctx context.Context, params *dyn.DeleteItemInput, optFns ...func(*dyn.Options)) (*dyn.DeleteItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteCalls++
	keyAttr, ok := params.Key["session_id"].(*types.AttributeValueMemberS)
	if !ok {
		return nil, errors.New("missing key")
	}
	delete(m.table, keyAttr.Value)
	return &dyn.DeleteItemOutput{}, nil
}

func (m *simpleMock) Scan(ctx context.Context, params *dyn.ScanInput, optFns ...func(*dyn.Options)) (*dyn.ScanOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scanCalls++
	if m.failWith != nil {
		return nil, m.failWith
	}
	now, _ := strconv.ParseInt(params.ExpressionAttributeValues[":now"].(*types.AttributeValueMemberN).Value, 10, 64)

	var start string
	if k, ok := params.ExclusiveStartKey["session_id"].(*types.AttributeValueMemberS); ok {
		start = k.Value
	}

	var matched []string
	for id, item := range m.table {
		exp, _ := strconv.ParseInt(item["expires_at"].(*types.AttributeValueMemberN).Value, 10, 64)
		switch *params.FilterExpression {
		case "expires_at <= :now":
			if exp > now {
				continue
			}
		case "expires_at >= :now":
			if exp < now {
				continue
			}
		default:
			return nil, errors.New("unsupported filter")
		}
		if id > start {
			matched = append(matched, id)
		}
	}
	if len(matched) == 0 {
		return &dyn.ScanOutput{}, nil
	}
	// lowest id first, one per page
	first := matched[0]
	for _, id := range matched[1:] {
		if id < first {
			first = id
		}
	}
	out := &dyn.ScanOutput{
		Items: []map[string]types.AttributeValue{
			{
				"session_id":  &types.AttributeValueMemberS{Value: first},
				"received_at": m.table[first]["received_at"],
			},
		},
	}
	if len(matched) > 1 {
		out.LastEvaluatedKey = map[string]types.AttributeValue{
			"session_id": &types.AttributeValueMemberS{Value: first},
		}
	}
	return out, nil
}
