// Package orders understands the two record shapes the document automation emits:
// a flat line item per product, and an order grouping product names with their
// quantities.
package orders

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Shape of a parsed record.
type Shape string

const (
	ShapeLineItem Shape = "line_item"
	ShapeOrder    Shape = "order"
	ShapeUnknown  Shape = "unknown"
)

// ParsedOrderItem is the flat per-line-item shape.
type ParsedOrderItem struct {
	FileID       string   `json:"file_id,omitempty"`
	OrderName    string   `json:"order_name,omitempty"`
	EventDate    string   `json:"event_date,omitempty"`
	PickupTime   string   `json:"pickup_time,omitempty"`
	DropoffTime  string   `json:"dropoff_time,omitempty"`
	VenueName    string   `json:"venue_name,omitempty"`
	VenueAddress string   `json:"venue_address,omitempty"`
	ItemName     string   `json:"item_name,omitempty"`
	Quantity     Quantity `json:"quantity,omitempty"`
	RackCount    Quantity `json:"rack_count,omitempty"`
}

// ParsedOrder is the order-grouped shape.
type ParsedOrder struct {
	OrderID         string              `json:"order_id,omitempty"`
	ClientName      string              `json:"client_name,omitempty"`
	PickupDatetime  string              `json:"pickup_datetime,omitempty"`
	DropoffDatetime string              `json:"dropoff_datetime,omitempty"`
	VenueName       string              `json:"venue_name,omitempty"`
	VenueAddress    string              `json:"venue_address,omitempty"`
	Items           []string            `json:"items,omitempty"`
	ItemQuantities  map[string]Quantity `json:"item_quantities,omitempty"`
}

// Quantity accepts a JSON number, a numeric string, or null.
type Quantity float64

func (q *Quantity) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			// models sometimes answer "approx. 12"; treat as unknown
			return nil
		}
		*q = Quantity(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*q = Quantity(f)
	return nil
}

func (q Quantity) String() string {
	return strconv.FormatFloat(float64(q), 'f', -1, 64)
}

// Line is one product line of a parsed order, whatever shape it came in.
type Line struct {
	Order    string
	Client   string
	Venue    string
	Address  string
	Pickup   string
	Dropoff  string
	Item     string
	Quantity Quantity
	Racks    Quantity
}
