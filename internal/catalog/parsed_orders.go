package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/imrishuroy/rental-dispatch/internal/db"
)

// ArchivedOrders is a result set persisted to the parsed_orders table.
type ArchivedOrders struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Items     int       `json:"items_count"`
	Processed bool      `json:"processed"`
	CreatedAt time.Time `json:"created_at"`
}

type ParsedOrderRepo struct {
	db db.DB
}

func NewParsedOrderRepo(database db.DB) *ParsedOrderRepo {
	return &ParsedOrderRepo{db: database}
}

// Insert stores items as one unprocessed row.
func (r *ParsedOrderRepo) Insert(ctx context.Context, sessionID string, items []json.RawMessage) (*ArchivedOrders, error) {
	if items == nil {
		items = []json.RawMessage{}
	}
	payload, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("marshal items: %w", err)
	}

	rec := &ArchivedOrders{SessionID: sessionID, Items: len(items)}
	const query = `INSERT INTO parsed_orders (session_id, items, processed)
		VALUES ($1, $2::jsonb, false)
		RETURNING id::text, created_at`
	err = r.db.ExecQueryRow(ctx, query, sessionID, string(payload)).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return nil, MapError(TableParsedOrders, err)
	}
	return rec, nil
}
