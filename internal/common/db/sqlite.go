package db

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// DriverSQLite is the default driver for the local trainer database.
const DriverSQLite = "sqlite3"

// NewSQLite opens (and creates if missing) a local SQLite database.
// Foreign keys are enabled so attempts and review states cascade-delete
// with their problem.
func NewSQLite(cfg Config) (*Conn, error) {
	path := expandHome(cfg.DSN)
	if path == "" {
		return nil, fmt.Errorf("sqlite path cannot be empty")
	}

	if path != ":memory:" && !strings.HasPrefix(path, "file:") {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create database directory failed: %w", err)
		}
	}

	// SQLite allows a single writer; a small pool avoids SQLITE_BUSY storms.
	if cfg.MaxOpenConnections > 4 {
		cfg.MaxOpenConnections = 4
	}

	dsn := fmt.Sprintf("file:%s?%s", path, url.Values{
		"_fk":           {"1"},
		"_busy_timeout": {"5000"},
		"_journal_mode": {"WAL"},
		"_loc":          {"UTC"},
	}.Encode())
	if path == ":memory:" {
		dsn = "file::memory:?cache=shared&_fk=1&_loc=UTC"
	}

	return newConn(DriverSQLite, dsn, cfg)
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
