// Package repository implements SQL persistence for problems, attempts,
// and review states.
package repository

import (
	"context"
	"time"

	"github.com/abnzrdev/trainer/internal/common/db"
	"github.com/abnzrdev/trainer/internal/problem"
	pkgrepo "github.com/abnzrdev/trainer/pkg/repository"
)

// ProblemRepository provides access to stored problems.
type ProblemRepository interface {
	Create(ctx context.Context, tx db.Transaction, p *problem.Problem) (int64, error)
	GetByID(ctx context.Context, problemID int64) (*problem.Problem, error)
	GetByContestTitle(ctx context.Context, contest, title string) (*problem.Problem, error)
	ListByContest(ctx context.Context, contest string) ([]*problem.Problem, error)
	ListContests(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, tx db.Transaction, problemID int64) error
}

type SQLProblemRepository struct {
	db db.Database
}

func NewProblemRepository(database db.Database) ProblemRepository {
	return &SQLProblemRepository{db: database}
}

func (r *SQLProblemRepository) Create(ctx context.Context, tx db.Transaction, p *problem.Problem) (int64, error) {
	if p == nil || p.Contest == "" || p.Title == "" {
		return 0, pkgrepo.ErrInvalidInput
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	query := "INSERT INTO problems (contest, title, body, created_at) VALUES (?, ?, ?, ?)"
	result, err := db.GetQuerier(r.db, tx).Exec(ctx, query, p.Contest, p.Title, p.Body, p.CreatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return 0, pkgrepo.ErrAlreadyExists
		}
		return 0, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}
	p.ID = id
	return id, nil
}

func (r *SQLProblemRepository) GetByID(ctx context.Context, problemID int64) (*problem.Problem, error) {
	query := "SELECT id, contest, title, body, created_at FROM problems WHERE id = ?"
	return scanProblem(r.db.QueryRow(ctx, query, problemID))
}

func (r *SQLProblemRepository) GetByContestTitle(ctx context.Context, contest, title string) (*problem.Problem, error) {
	query := "SELECT id, contest, title, body, created_at FROM problems WHERE contest = ? AND title = ?"
	return scanProblem(r.db.QueryRow(ctx, query, contest, title))
}

func (r *SQLProblemRepository) ListByContest(ctx context.Context, contest string) ([]*problem.Problem, error) {
	query := "SELECT id, contest, title, body, created_at FROM problems WHERE contest = ? ORDER BY title ASC"
	rows, err := r.db.Query(ctx, query, contest)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var problems []*problem.Problem
	for rows.Next() {
		var p problem.Problem
		if err := rows.Scan(&p.ID, &p.Contest, &p.Title, &p.Body, &p.CreatedAt); err != nil {
			return nil, err
		}
		problems = append(problems, &p)
	}
	return problems, rows.Err()
}

func (r *SQLProblemRepository) ListContests(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, "SELECT DISTINCT contest FROM problems ORDER BY contest ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contests []string
	for rows.Next() {
		var contest string
		if err := rows.Scan(&contest); err != nil {
			return nil, err
		}
		contests = append(contests, contest)
	}
	return contests, rows.Err()
}

func (r *SQLProblemRepository) Delete(ctx context.Context, tx db.Transaction, problemID int64) error {
	result, err := db.GetQuerier(r.db, tx).Exec(ctx, "DELETE FROM problems WHERE id = ?", problemID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return pkgrepo.ErrNotFound
	}
	return nil
}

func scanProblem(row db.Row) (*problem.Problem, error) {
	var p problem.Problem
	if err := row.Scan(&p.ID, &p.Contest, &p.Title, &p.Body, &p.CreatedAt); err != nil {
		if db.IsNoRows(err) {
			return nil, pkgrepo.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}
