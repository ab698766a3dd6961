package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v4"

	"github.com/imrishuroy/rental-dispatch/internal/db"
)

type Repository struct {
	db db.DB
}

func NewRepository(database db.DB) *Repository {
	return &Repository{db: database}
}

// List returns every row of t in the table's default order.
func (r *Repository) List(ctx context.Context, t Table) ([]Row, error) {
	order, ok := defaultOrder[t]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTable, string(t))
	}
	query := fmt.Sprintf("SELECT * FROM %s ORDER BY %s ASC", ident(string(t)), ident(order))

	var rows []map[string]interface{}
	if err := r.db.Select(ctx, &rows, query); err != nil {
		return nil, MapError(t, err)
	}
	out := make([]Row, 0, len(rows))
	for _, row := range rows {
		out = append(out, Row(row))
	}
	return out, nil
}

// Insert writes row and returns it as stored.
func (r *Repository) Insert(ctx context.Context, t Table, row Row) (Row, error) {
	if _, ok := defaultOrder[t]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTable, string(t))
	}
	cols, args, err := columns(row, nil)
	if err != nil {
		return nil, err
	}

	var query string
	if len(cols) == 0 {
		query = fmt.Sprintf("INSERT INTO %s DEFAULT VALUES RETURNING *", ident(string(t)))
	} else {
		quoted := make([]string, len(cols))
		params := make([]string, len(cols))
		for i, c := range cols {
			quoted[i] = ident(c)
			params[i] = fmt.Sprintf("$%d", i+1)
		}
		query = fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING *",
			ident(string(t)), strings.Join(quoted, ", "), strings.Join(params, ", "))
	}

	stored := map[string]interface{}{}
	if err := r.db.Get(ctx, &stored, query, args...); err != nil {
		return nil, MapError(t, err)
	}
	return Row(stored), nil
}

// Update sets the given columns on the row with id. An "id" key in row is ignored.
func (r *Repository) Update(ctx context.Context, t Table, id string, row Row) (Row, error) {
	if _, ok := defaultOrder[t]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTable, string(t))
	}
	cols, args, err := columns(row, map[string]bool{"id": true})
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, ErrNoColumns
	}

	sets := make([]string, len(cols))
	for i, c := range cols {
		sets[i] = fmt.Sprintf("%s = $%d", ident(c), i+1)
	}
	args = append(args, id)
	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = $%d RETURNING *",
		ident(string(t)), strings.Join(sets, ", "), ident("id"), len(args))

	stored := map[string]interface{}{}
	if err := r.db.Get(ctx, &stored, query, args...); err != nil {
		return nil, MapError(t, err)
	}
	return Row(stored), nil
}

// columns returns the sorted column names of row with their values.
func columns(row Row, skip map[string]bool) ([]string, []interface{}, error) {
	cols := make([]string, 0, len(row))
	for c := range row {
		if skip[c] {
			continue
		}
		if !ValidColumn(c) {
			return nil, nil, fmt.Errorf("%w: %q", ErrInvalidColumn, c)
		}
		cols = append(cols, c)
	}
	sort.Strings(cols)
	args := make([]interface{}, len(cols))
	for i, c := range cols {
		args[i] = row[c]
	}
	return cols, args, nil
}

func ident(name string) string {
	return pgx.Identifier{name}.Sanitize()
}
