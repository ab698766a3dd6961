package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/georgysavva/scany/pgxscan"
	"github.com/jackc/pgconn"

	"github.com/imrishuroy/rental-dispatch/internal/db"
	"github.com/imrishuroy/rental-dispatch/internal/metrics"
)

const (
	codeUndefinedTable        = "42P01"
	codeInsufficientPrivilege = "42501"
	codeInvalidPassword       = "28P01"
	codeInvalidAuthorization  = "28000"
)

// BackendError carries a user-facing message for a database failure.
type BackendError struct {
	Table   Table
	Code    string
	Message string
	Err     error
}

func (e *BackendError) Error() string { return e.Message }
func (e *BackendError) Unwrap() error { return e.Err }

// MapError turns driver errors into messages a dashboard user can act on.
// Sentinel errors and nil pass through untouched.
func MapError(table Table, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, db.ErrNotConfigured) || errors.Is(err, ErrNotFound) {
		return err
	}
	if pgxscan.NotFound(err) {
		return ErrNotFound
	}
	metrics.BackendErrorsTotal.WithLabelValues(string(table)).Inc()

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUndefinedTable:
			return &BackendError{
				Table:   table,
				Code:    pgErr.Code,
				Message: fmt.Sprintf("Table %q not found. Please run the SQL schema in your Supabase dashboard.", string(table)),
				Err:     err,
			}
		case codeInsufficientPrivilege:
			return &BackendError{
				Table:   table,
				Code:    pgErr.Code,
				Message: "Permission denied. Please check your RLS policies in Supabase.",
				Err:     err,
			}
		case codeInvalidPassword, codeInvalidAuthorization:
			return &BackendError{Table: table, Code: pgErr.Code, Message: invalidKey, Err: err}
		}
		if strings.Contains(pgErr.Message, "JWT") {
			return &BackendError{Table: table, Code: pgErr.Code, Message: invalidKey, Err: err}
		}
		return &BackendError{Table: table, Code: pgErr.Code, Message: pgErr.Message, Err: err}
	}
	if strings.Contains(err.Error(), "JWT") {
		return &BackendError{Table: table, Message: invalidKey, Err: err}
	}
	return err
}

const invalidKey = "Invalid API key. Please check your backend credentials."
