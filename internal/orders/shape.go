package orders

import (
	"encoding/json"
	"sort"
)

var (
	orderKeys    = []string{"order_id", "client_name", "item_quantities", "pickup_datetime", "dropoff_datetime"}
	lineItemKeys = []string{"item_name", "order_name", "file_id", "quantity", "event_date", "rack_count"}
)

// Classify reports which shape a raw record has. Grouped-order keys win over
// line-item keys when both appear.
func Classify(raw json.RawMessage) Shape {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return ShapeUnknown
	}
	for _, k := range orderKeys {
		if _, ok := obj[k]; ok {
			return ShapeOrder
		}
	}
	for _, k := range lineItemKeys {
		if _, ok := obj[k]; ok {
			return ShapeLineItem
		}
	}
	return ShapeUnknown
}

// Lines flattens records into product lines. Unknown shapes are skipped and counted.
func Lines(items []json.RawMessage) ([]Line, int) {
	var (
		lines   []Line
		skipped int
	)
	for _, raw := range items {
		switch Classify(raw) {
		case ShapeOrder:
			var o ParsedOrder
			if err := json.Unmarshal(raw, &o); err != nil {
				skipped++
				continue
			}
			lines = append(lines, o.Lines()...)
		case ShapeLineItem:
			var it ParsedOrderItem
			if err := json.Unmarshal(raw, &it); err != nil {
				skipped++
				continue
			}
			lines = append(lines, it.Line())
		default:
			skipped++
		}
	}
	return lines, skipped
}

// Line converts a flat item.
func (it ParsedOrderItem) Line() Line {
	pickup := it.PickupTime
	if it.EventDate != "" && pickup != "" {
		pickup = it.EventDate + " " + pickup
	}
	dropoff := it.DropoffTime
	if it.EventDate != "" && dropoff != "" {
		dropoff = it.EventDate + " " + dropoff
	}
	return Line{
		Order:    it.OrderName,
		Venue:    it.VenueName,
		Address:  it.VenueAddress,
		Pickup:   pickup,
		Dropoff:  dropoff,
		Item:     it.ItemName,
		Quantity: it.Quantity,
		Racks:    it.RackCount,
	}
}

// Lines expands a grouped order into one line per product. Products listed only in
// item_quantities are included after the ones in items, sorted by name.
func (o ParsedOrder) Lines() []Line {
	base := Line{
		Order:   o.OrderID,
		Client:  o.ClientName,
		Venue:   o.VenueName,
		Address: o.VenueAddress,
		Pickup:  o.PickupDatetime,
		Dropoff: o.DropoffDatetime,
	}

	seen := make(map[string]bool, len(o.Items))
	names := make([]string, 0, len(o.Items)+len(o.ItemQuantities))
	for _, name := range o.Items {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	var extra []string
	for name := range o.ItemQuantities {
		if !seen[name] {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	names = append(names, extra...)

	if len(names) == 0 {
		return []Line{base}
	}
	lines := make([]Line, 0, len(names))
	for _, name := range names {
		l := base
		l.Item = name
		l.Quantity = o.ItemQuantities[name]
		lines = append(lines, l)
	}
	return lines
}
