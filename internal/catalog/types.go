// Package catalog reads and writes the dashboard's schema-less tables in the hosted
// Postgres backend.
package catalog

import (
	"errors"
	"fmt"
	"regexp"
)

var (
	ErrNotFound      = errors.New("row not found")
	ErrUnknownTable  = errors.New("unknown table")
	ErrInvalidColumn = errors.New("invalid column name")
	ErrNoColumns     = errors.New("no columns to write")
)

type Table string

const (
	TableInventory       Table = "inventory"
	TableVehicles        Table = "vehicles"
	TableVenueDifficulty Table = "venue_difficulty"
	TableParsedOrders    Table = "parsed_orders"
)

// Row is one table row keyed by column name.
type Row map[string]interface{}

var defaultOrder = map[Table]string{
	TableInventory:       "product_name",
	TableVehicles:        "name",
	TableVenueDifficulty: "id",
}

// ParseTable accepts only the tables exposed through the catalog routes.
func ParseTable(name string) (Table, error) {
	t := Table(name)
	if _, ok := defaultOrder[t]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownTable, name)
	}
	return t, nil
}

// Tables lists the catalog tables in a stable order.
func Tables() []Table {
	return []Table{TableInventory, TableVehicles, TableVenueDifficulty}
}

var columnRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)

// ValidColumn reports whether name is a plain SQL identifier.
func ValidColumn(name string) bool {
	return columnRe.MatchString(name)
}
