package repository

import (
	"context"
	"time"

	"github.com/abnzrdev/trainer/internal/common/db"
	"github.com/abnzrdev/trainer/internal/problem"
	pkgrepo "github.com/abnzrdev/trainer/pkg/repository"
)

// AttemptRepository is the append-only attempt ledger.
// There is deliberately no update or delete operation.
type AttemptRepository interface {
	Create(ctx context.Context, tx db.Transaction, a *problem.Attempt) (int64, error)
	LatestByProblem(ctx context.Context, problemID int64) (*problem.Attempt, error)
	ListByProblem(ctx context.Context, problemID int64) ([]*problem.Attempt, error)
}

type SQLAttemptRepository struct {
	db db.Database
}

func NewAttemptRepository(database db.Database) AttemptRepository {
	return &SQLAttemptRepository{db: database}
}

func (r *SQLAttemptRepository) Create(ctx context.Context, tx db.Transaction, a *problem.Attempt) (int64, error) {
	if a == nil || a.ProblemID <= 0 {
		return 0, pkgrepo.ErrInvalidInput
	}
	if !a.Outcome.IsValid() {
		return 0, pkgrepo.ErrInvalidInput
	}
	if a.DurationSecs < 1 {
		return 0, pkgrepo.ErrInvalidInput
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}

	query := "INSERT INTO attempts (problem_id, created_at, outcome, duration_secs) VALUES (?, ?, ?, ?)"
	result, err := r.querier(tx).Exec(ctx, query, a.ProblemID, a.CreatedAt, string(a.Outcome), a.DurationSecs)
	if err != nil {
		return 0, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}
	a.ID = id
	return id, nil
}

// LatestByProblem returns the most recent attempt by timestamp, id breaking ties.
func (r *SQLAttemptRepository) LatestByProblem(ctx context.Context, problemID int64) (*problem.Attempt, error) {
	query := `
		SELECT id, problem_id, created_at, outcome, duration_secs
		FROM attempts
		WHERE problem_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT 1`
	return scanAttempt(r.db.QueryRow(ctx, query, problemID))
}

func (r *SQLAttemptRepository) ListByProblem(ctx context.Context, problemID int64) ([]*problem.Attempt, error) {
	query := `
		SELECT id, problem_id, created_at, outcome, duration_secs
		FROM attempts
		WHERE problem_id = ?
		ORDER BY created_at DESC, id DESC`
	rows, err := r.db.Query(ctx, query, problemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []*problem.Attempt
	for rows.Next() {
		var a problem.Attempt
		var outcome string
		if err := rows.Scan(&a.ID, &a.ProblemID, &a.CreatedAt, &outcome, &a.DurationSecs); err != nil {
			return nil, err
		}
		a.Outcome = problem.Outcome(outcome)
		attempts = append(attempts, &a)
	}
	return attempts, rows.Err()
}

func (r *SQLAttemptRepository) querier(tx db.Transaction) db.Querier {
	return db.GetQuerier(r.db, tx)
}

func scanAttempt(row db.Row) (*problem.Attempt, error) {
	var a problem.Attempt
	var outcome string
	if err := row.Scan(&a.ID, &a.ProblemID, &a.CreatedAt, &outcome, &a.DurationSecs); err != nil {
		if db.IsNoRows(err) {
			return nil, pkgrepo.ErrNotFound
		}
		return nil, err
	}
	a.Outcome = problem.Outcome(outcome)
	return &a, nil
}
