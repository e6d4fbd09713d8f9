package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Config holds connection pool settings shared by all drivers.
type Config struct {
	// Driver selects the backend: "sqlite3" (default) or "mysql".
	Driver string `yaml:"driver"`

	// DSN is the data source name.
	// sqlite3: a file path, e.g. "~/.trainer/trainer.db"
	// mysql:   "user:password@tcp(host:port)/dbname?parseTime=true&loc=UTC"
	DSN string `yaml:"dsn"`

	MaxOpenConnections int           `yaml:"maxOpenConnections"`
	MaxIdleConnections int           `yaml:"maxIdleConnections"`
	ConnMaxLifetime    time.Duration `yaml:"connMaxLifetime"`
	ConnMaxIdleTime    time.Duration `yaml:"connMaxIdleTime"`
}

func (c *Config) applyDefaults() {
	if c.Driver == "" {
		c.Driver = DriverSQLite
	}
	if c.MaxOpenConnections == 0 {
		c.MaxOpenConnections = 25
	}
	if c.MaxIdleConnections == 0 {
		c.MaxIdleConnections = 5
	}
	if c.ConnMaxLifetime == 0 {
		c.ConnMaxLifetime = 5 * time.Minute
	}
	if c.ConnMaxIdleTime == 0 {
		c.ConnMaxIdleTime = 10 * time.Minute
	}
}

// Conn implements Database on top of database/sql for any registered driver.
type Conn struct {
	db     *sql.DB
	driver string
}

// Open creates a Database for the configured driver.
func Open(cfg Config) (Database, error) {
	cfg.applyDefaults()
	switch cfg.Driver {
	case DriverSQLite:
		return NewSQLite(cfg)
	case DriverMySQL:
		return NewMySQL(cfg)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
}

func newConn(driver, dsn string, cfg Config) (*Conn, error) {
	if dsn == "" {
		return nil, fmt.Errorf("DSN cannot be empty")
	}

	sqlDB, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConnections)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConnections)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Conn{db: sqlDB, driver: driver}, nil
}

// NewConnWithDB wraps an existing sql.DB; used by tests.
func NewConnWithDB(sqlDB *sql.DB, driver string) *Conn {
	return &Conn{db: sqlDB, driver: driver}
}

// DriverName reports the underlying driver name.
func (c *Conn) DriverName() string {
	return c.driver
}

// Query executes a query that returns rows
func (c *Conn) Query(ctx context.Context, query string, args ...interface{}) (Rows, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	return rows, nil
}

// QueryRow executes a query that returns at most one row
func (c *Conn) QueryRow(ctx context.Context, query string, args ...interface{}) Row {
	return c.db.QueryRowContext(ctx, query, args...)
}

// Exec executes a query that doesn't return rows
func (c *Conn) Exec(ctx context.Context, query string, args ...interface{}) (Result, error) {
	result, err := c.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("exec failed: %w", err)
	}
	return result, nil
}

// Transaction executes a function within a database transaction
func (c *Conn) Transaction(ctx context.Context, fn func(tx Transaction) error) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction failed: %w", err)
	}

	wrapped := &connTx{tx: tx}
	if err := fn(wrapped); err != nil {
		_ = wrapped.Rollback()
		return err
	}

	return wrapped.Commit()
}

// Ping verifies a connection to the database is still alive
func (c *Conn) Ping(ctx context.Context) error {
	if err := c.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}
	return nil
}

// Close closes the database connection
func (c *Conn) Close() error {
	if err := c.db.Close(); err != nil {
		return fmt.Errorf("close failed: %w", err)
	}
	return nil
}

// connTx implements Transaction
type connTx struct {
	tx *sql.Tx
}

func (t *connTx) Query(ctx context.Context, query string, args ...interface{}) (Rows, error) {
	rows, err := t.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	return rows, nil
}

func (t *connTx) QueryRow(ctx context.Context, query string, args ...interface{}) Row {
	return t.tx.QueryRowContext(ctx, query, args...)
}

func (t *connTx) Exec(ctx context.Context, query string, args ...interface{}) (Result, error) {
	result, err := t.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("exec failed: %w", err)
	}
	return result, nil
}

func (t *connTx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("commit failed: %w", err)
	}
	return nil
}

func (t *connTx) Rollback() error {
	if err := t.tx.Rollback(); err != nil {
		return fmt.Errorf("rollback failed: %w", err)
	}
	return nil
}
