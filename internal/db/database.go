// Package db wraps the hosted Postgres pool behind a narrow interface the repositories
// and their mocks share.
package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/georgysavva/scany/pgxscan"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// ErrNotConfigured is returned by every call on an Unconfigured backend.
var ErrNotConfigured = errors.New("backend credentials are missing")

//go:generate mockgen -source=database.go -destination=mocks/database.go -package=mock_database DB

type DB interface {
	Get(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	Select(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	Exec(ctx context.Context, query string, args ...interface{}) (pgconn.CommandTag, error)
	ExecQueryRow(ctx context.Context, query string, args ...interface{}) pgx.Row
}

type Database struct {
	cluster *pgxpool.Pool
}

func NewDatabase(cluster *pgxpool.Pool) *Database {
	return &Database{cluster: cluster}
}

// Connect opens a pool for dsn and pings it once.
func Connect(ctx context.Context, dsn string) (*Database, error) {
	pool, err := pgxpool.Connect(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return NewDatabase(pool), nil
}

func (db Database) GetPool() *pgxpool.Pool {
	return db.cluster
}

func (db Database) Close() {
	db.cluster.Close()
}

func (db Database) Get(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return pgxscan.Get(ctx, db.cluster, dest, query, args...)
}

func (db Database) Select(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return pgxscan.Select(ctx, db.cluster, dest, query, args...)
}

func (db Database) Exec(ctx context.Context, query string, args ...interface{}) (pgconn.CommandTag, error) {
	return db.cluster.Exec(ctx, query, args...)
}

func (db Database) ExecQueryRow(ctx context.Context, query string, args ...interface{}) pgx.Row {
	return db.cluster.QueryRow(ctx, query, args...)
}

// Unconfigured stands in when no DATABASE_URL is set, so the API still serves the
// routes that do not need the backend.
type Unconfigured struct{}

func (Unconfigured) Get(context.Context, interface{}, string, ...interface{}) error {
	return ErrNotConfigured
}

func (Unconfigured) Select(context.Context, interface{}, string, ...interface{}) error {
	return ErrNotConfigured
}

func (Unconfigured) Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error) {
	return nil, ErrNotConfigured
}

func (Unconfigured) ExecQueryRow(context.Context, string, ...interface{}) pgx.Row {
	return errRow{err: ErrNotConfigured}
}

type errRow struct{ err error }

func (r errRow) Scan(...interface{}) error { return r.err }
