package main

import (
	"context"
	"encoding/json"

	"github.com/imrishuroy/rental-dispatch/internal/catalog"
	"github.com/imrishuroy/rental-dispatch/internal/results"
)

// ResultsReader loads a session's parsed results.
type ResultsReader interface {
	Get(ctx context.Context, sessionID string) (*results.Entry, error)
}

// Archiver writes a result set to the parsed_orders table.
type Archiver interface {
	Insert(ctx context.Context, sessionID string, items []json.RawMessage) (*catalog.ArchivedOrders, error)
}

// Counter publishes a single count metric.
type Counter interface {
	Count(ctx context.Context, name string, value float64, dims map[string]string) error
}

// Claimer deduplicates notices. A notice is archived only by the delivery that
// claims its key.
type Claimer interface {
	Claim(ctx context.Context, key, sessionID string) (bool, error)
	MarkDone(ctx context.Context, key, sessionID, rowID string) error
	Release(ctx context.Context, key string) error
}

// Metric names published per processed notice.
const (
	MetricOrderLines   = "ParsedOrderLines"
	MetricUnrecognised = "UnrecognisedRecords"
	MetricArchivedSets = "ArchivedResultSets"
)
