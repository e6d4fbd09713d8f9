package repository

import (
	"context"
	"fmt"

	"github.com/abnzrdev/trainer/internal/common/db"
)

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS problems (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		contest TEXT NOT NULL,
		title TEXT NOT NULL,
		body TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (contest, title)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_problems_contest ON problems (contest)`,
	`CREATE TABLE IF NOT EXISTS attempts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		problem_id INTEGER NOT NULL REFERENCES problems (id) ON DELETE CASCADE,
		created_at DATETIME NOT NULL,
		outcome TEXT NOT NULL CHECK (outcome IN ('Pass', 'Fail')),
		duration_secs INTEGER NOT NULL CHECK (duration_secs >= 1)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_attempts_problem_created ON attempts (problem_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS review_states (
		problem_id INTEGER PRIMARY KEY REFERENCES problems (id) ON DELETE CASCADE,
		stability REAL NOT NULL,
		difficulty REAL NOT NULL,
		last_reviewed DATETIME NOT NULL,
		next_review_due DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_review_states_due ON review_states (next_review_due)`,
}

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS problems (
		id BIGINT PRIMARY KEY AUTO_INCREMENT,
		contest VARCHAR(100) NOT NULL,
		title VARCHAR(255) NOT NULL,
		body MEDIUMTEXT NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uk_contest_title (contest, title),
		KEY idx_problems_contest (contest)
	)`,
	`CREATE TABLE IF NOT EXISTS attempts (
		id BIGINT PRIMARY KEY AUTO_INCREMENT,
		problem_id BIGINT NOT NULL,
		created_at DATETIME NOT NULL,
		outcome ENUM('Pass', 'Fail') NOT NULL,
		duration_secs BIGINT NOT NULL,
		KEY idx_attempts_problem_created (problem_id, created_at),
		CONSTRAINT fk_attempts_problem FOREIGN KEY (problem_id)
			REFERENCES problems (id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS review_states (
		problem_id BIGINT PRIMARY KEY,
		stability DOUBLE NOT NULL,
		difficulty DOUBLE NOT NULL,
		last_reviewed DATETIME NOT NULL,
		next_review_due DATETIME NOT NULL,
		KEY idx_review_states_due (next_review_due),
		CONSTRAINT fk_review_states_problem FOREIGN KEY (problem_id)
			REFERENCES problems (id) ON DELETE CASCADE
	)`,
}

// InitSchema creates the trainer tables when they do not exist yet.
func InitSchema(ctx context.Context, database db.Database) error {
	var statements []string
	switch database.DriverName() {
	case db.DriverSQLite:
		statements = sqliteSchema
	case db.DriverMySQL:
		statements = mysqlSchema
	default:
		return fmt.Errorf("no schema for driver %s", database.DriverName())
	}

	for _, stmt := range statements {
		if _, err := database.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema failed: %w", err)
		}
	}
	return nil
}
