package db

import (
	"context"
	"database/sql"
)

// Database is the storage abstraction consumed by repositories.
// Implementations wrap a concrete driver (SQLite for the local trainer,
// MySQL when pointing at a shared server).
type Database interface {
	Querier

	// Transaction executes fn within a transaction, rolling back on error.
	Transaction(ctx context.Context, fn func(tx Transaction) error) error

	// Ping verifies the connection is alive.
	Ping(ctx context.Context) error

	// Close releases the connection pool.
	Close() error

	// DriverName reports the underlying driver ("sqlite3", "mysql").
	DriverName() string
}

// Transaction exposes query operations bound to one transaction.
type Transaction interface {
	Querier

	Commit() error
	Rollback() error
}

// Querier abstracts database operations for both database and transaction.
type Querier interface {
	Query(ctx context.Context, query string, args ...interface{}) (Rows, error)
	QueryRow(ctx context.Context, query string, args ...interface{}) Row
	Exec(ctx context.Context, query string, args ...interface{}) (Result, error)
}

// Rows wraps *sql.Rows.
type Rows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Close() error
	Err() error
}

// Row wraps *sql.Row.
type Row interface {
	Scan(dest ...interface{}) error
}

// Result wraps sql.Result.
type Result interface {
	LastInsertId() (int64, error)
	RowsAffected() (int64, error)
}

// GetQuerier returns transaction if provided, otherwise uses the database.
func GetQuerier(database Database, tx Transaction) Querier {
	if tx != nil {
		return tx
	}
	return database
}

// database/sql types satisfy the row abstractions directly.
var (
	_ Rows = (*sql.Rows)(nil)
	_ Row  = (*sql.Row)(nil)
)
