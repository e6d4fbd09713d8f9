package db

import (
	_ "github.com/go-sql-driver/mysql"
)

// DriverMySQL selects a shared MySQL server instead of the local file store.
const DriverMySQL = "mysql"

// NewMySQL opens a MySQL-backed database.
// DSN format: "user:password@tcp(host:port)/dbname?parseTime=true&loc=UTC".
// parseTime must be enabled; repositories scan timestamps into time.Time.
func NewMySQL(cfg Config) (*Conn, error) {
	return newConn(DriverMySQL, cfg.DSN, cfg)
}
