// Package results holds parsed-order result sets keyed by upload session until the
// client collects them or they expire.
package results

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// DefaultTTL is how long an entry stays visible after it was received.
const DefaultTTL = time.Hour

// ErrEmptySession is returned when a store operation is given an empty session id.
var ErrEmptySession = errors.New("session id is empty")

// Entry is one received result set. Items are kept exactly as the automation sent them.
type Entry struct {
	SessionID  string            `json:"session_id"`
	Items      []json.RawMessage `json:"items"`
	ReceivedAt time.Time         `json:"received_at"`
}

// Store is the put/get/delete/evict contract shared by the in-process and DynamoDB
// implementations.
type Store interface {
	// Put overwrites any entry for sessionID and stamps the current time.
	Put(ctx context.Context, sessionID string, items []json.RawMessage) (*Entry, error)
	// Get returns (nil, nil) when no live entry exists.
	Get(ctx context.Context, sessionID string) (*Entry, error)
	Delete(ctx context.Context, sessionID string) error
	// EvictExpired drops entries older than the TTL and reports how many went.
	EvictExpired(ctx context.Context) (int, error)
	// Sessions lists live session ids in lexical order.
	Sessions(ctx context.Context) ([]string, error)
}

func cloneItems(items []json.RawMessage) []json.RawMessage {
	out := make([]json.RawMessage, len(items))
	for i, it := range items {
		out[i] = append(json.RawMessage(nil), it...)
	}
	return out
}
