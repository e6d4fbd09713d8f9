package repository

import (
	"context"
	"time"

	"github.com/abnzrdev/trainer/internal/common/db"
	"github.com/abnzrdev/trainer/internal/problem"
	pkgrepo "github.com/abnzrdev/trainer/pkg/repository"
)

// DueEntry pairs a problem with its review state for due-queue listings.
type DueEntry struct {
	Problem problem.Problem
	State   problem.ReviewState
}

// ReviewStateRepository persists the per-problem memory-strength model.
type ReviewStateRepository interface {
	Get(ctx context.Context, problemID int64) (*problem.ReviewState, error)
	Upsert(ctx context.Context, tx db.Transaction, state *problem.ReviewState) error
	ListDueBefore(ctx context.Context, cutoff time.Time) ([]*DueEntry, error)
}

type SQLReviewStateRepository struct {
	db db.Database
}

func NewReviewStateRepository(database db.Database) ReviewStateRepository {
	return &SQLReviewStateRepository{db: database}
}

func (r *SQLReviewStateRepository) Get(ctx context.Context, problemID int64) (*problem.ReviewState, error) {
	query := `
		SELECT problem_id, stability, difficulty, last_reviewed, next_review_due
		FROM review_states
		WHERE problem_id = ?`
	var s problem.ReviewState
	err := r.db.QueryRow(ctx, query, problemID).
		Scan(&s.ProblemID, &s.Stability, &s.Difficulty, &s.LastReviewed, &s.NextReviewDue)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, pkgrepo.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// Upsert writes the state, creating the row on the first rated pass and
// mutating it in place afterwards. Update-then-insert keeps the SQL portable
// across both drivers.
func (r *SQLReviewStateRepository) Upsert(ctx context.Context, tx db.Transaction, state *problem.ReviewState) error {
	if state == nil || state.ProblemID <= 0 {
		return pkgrepo.ErrInvalidInput
	}

	q := db.GetQuerier(r.db, tx)

	update := `
		UPDATE review_states
		SET stability = ?, difficulty = ?, last_reviewed = ?, next_review_due = ?
		WHERE problem_id = ?`
	result, err := q.Exec(ctx, update,
		state.Stability, state.Difficulty, state.LastReviewed, state.NextReviewDue, state.ProblemID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}

	insert := `
		INSERT INTO review_states (problem_id, stability, difficulty, last_reviewed, next_review_due)
		VALUES (?, ?, ?, ?, ?)`
	_, err = q.Exec(ctx, insert,
		state.ProblemID, state.Stability, state.Difficulty, state.LastReviewed, state.NextReviewDue)
	return err
}

// ListDueBefore returns all problems whose next review is due at or before
// cutoff, soonest first, problem id breaking ties for determinism.
func (r *SQLReviewStateRepository) ListDueBefore(ctx context.Context, cutoff time.Time) ([]*DueEntry, error) {
	query := `
		SELECT p.id, p.contest, p.title, p.body, p.created_at,
		       s.problem_id, s.stability, s.difficulty, s.last_reviewed, s.next_review_due
		FROM review_states s
		JOIN problems p ON p.id = s.problem_id
		WHERE s.next_review_due <= ?
		ORDER BY s.next_review_due ASC, p.id ASC`
	rows, err := r.db.Query(ctx, query, cutoff.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*DueEntry
	for rows.Next() {
		var e DueEntry
		if err := rows.Scan(
			&e.Problem.ID, &e.Problem.Contest, &e.Problem.Title, &e.Problem.Body, &e.Problem.CreatedAt,
			&e.State.ProblemID, &e.State.Stability, &e.State.Difficulty, &e.State.LastReviewed, &e.State.NextReviewDue,
		); err != nil {
			return nil, err
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}
