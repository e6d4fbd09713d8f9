// Package service orchestrates the trainer pipeline: workspace setup,
// verification, attempt recording, recall rating, and the due queue.
package service

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/abnzrdev/trainer/internal/content"
	"github.com/abnzrdev/trainer/internal/problem"
	"github.com/abnzrdev/trainer/internal/problem/repository"
	"github.com/abnzrdev/trainer/internal/review"
	"github.com/abnzrdev/trainer/internal/verify"
	"github.com/abnzrdev/trainer/internal/workspace"
	appErr "github.com/abnzrdev/trainer/pkg/errors"
	pkgrepo "github.com/abnzrdev/trainer/pkg/repository"
	"github.com/abnzrdev/trainer/pkg/utils/logger"
)

const hoursPerDay = 24.0

// Clock supplies the current instant; tests inject fixed clocks.
type Clock func() time.Time

// Trainer wires the verification harness, the attempt ledger, the review
// scheduler, and the due queue behind one API consumed by the REPL and the
// HTTP status server.
type Trainer struct {
	problems   repository.ProblemRepository
	attempts   repository.AttemptRepository
	reviews    repository.ReviewStateRepository
	harness    *verify.Harness
	samples    *content.Store
	workspaces *workspace.Manager
	scheduler  *review.Scheduler
	now        Clock

	// Review-state updates are read-modify-write over external storage with
	// no version check; serialize them per problem.
	ratingMu sync.Mutex
	perProb  map[int64]*sync.Mutex
}

// Config holds Trainer dependencies.
type Config struct {
	Problems   repository.ProblemRepository
	Attempts   repository.AttemptRepository
	Reviews    repository.ReviewStateRepository
	Harness    *verify.Harness
	Samples    *content.Store
	Workspaces *workspace.Manager
	Scheduler  *review.Scheduler
	Clock      Clock
}

// NewTrainer creates the orchestration service.
func NewTrainer(cfg Config) (*Trainer, error) {
	if cfg.Problems == nil || cfg.Attempts == nil || cfg.Reviews == nil {
		return nil, fmt.Errorf("repositories are required")
	}
	if cfg.Harness == nil {
		return nil, fmt.Errorf("verification harness is required")
	}
	if cfg.Samples == nil {
		return nil, fmt.Errorf("sample store is required")
	}
	if cfg.Workspaces == nil {
		return nil, fmt.Errorf("workspace manager is required")
	}
	if cfg.Scheduler == nil {
		cfg.Scheduler = review.NewScheduler()
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &Trainer{
		problems:   cfg.Problems,
		attempts:   cfg.Attempts,
		reviews:    cfg.Reviews,
		harness:    cfg.Harness,
		samples:    cfg.Samples,
		workspaces: cfg.Workspaces,
		scheduler:  cfg.Scheduler,
		now:        cfg.Clock,
		perProb:    make(map[int64]*sync.Mutex),
	}, nil
}

// AddProblem stores a new problem under a contest group.
func (t *Trainer) AddProblem(ctx context.Context, contest, title, body string) (*problem.Problem, error) {
	p := &problem.Problem{Contest: contest, Title: title, Body: body, CreatedAt: t.now().UTC()}
	if _, err := t.problems.Create(ctx, nil, p); err != nil {
		if pkgrepo.IsConflictError(err) {
			return nil, appErr.Newf(appErr.RecordAlreadyExists,
				"problem %q already exists in contest %q", title, contest)
		}
		return nil, appErr.Wrap(err, appErr.ProblemCreateFailed)
	}
	return p, nil
}

// Problem resolves one problem by id.
func (t *Trainer) Problem(ctx context.Context, problemID int64) (*problem.Problem, error) {
	p, err := t.problems.GetByID(ctx, problemID)
	if err != nil {
		if pkgrepo.IsNotFoundError(err) {
			return nil, appErr.Newf(appErr.ProblemNotFound, "problem %d not found", problemID)
		}
		return nil, appErr.Wrap(err, appErr.DatabaseError)
	}
	return p, nil
}

// Contests lists the known contest groups.
func (t *Trainer) Contests(ctx context.Context) ([]string, error) {
	contests, err := t.problems.ListContests(ctx)
	if err != nil {
		return nil, appErr.Wrap(err, appErr.DatabaseError)
	}
	return contests, nil
}

// ContestProblems lists all problems of one contest.
func (t *Trainer) ContestProblems(ctx context.Context, contest string) ([]*problem.Problem, error) {
	problems, err := t.problems.ListByContest(ctx, contest)
	if err != nil {
		return nil, appErr.Wrap(err, appErr.DatabaseError)
	}
	return problems, nil
}

// SetupWorkspace prepares the working directory for a problem, seeding it
// with the solution template and the cached samples. Missing samples are a
// setup error the caller must resolve before verifying.
func (t *Trainer) SetupWorkspace(ctx context.Context, problemID int64) (workspace.Layout, error) {
	p, err := t.Problem(ctx, problemID)
	if err != nil {
		return workspace.Layout{}, err
	}

	ctx = context.WithValue(ctx, logger.ContestKey, p.Contest)
	ctx = context.WithValue(ctx, logger.ProblemIDKey, p.ID)

	samples, err := t.samples.Samples(ctx, p.Contest, strconv.FormatInt(p.ID, 10))
	if err != nil {
		return workspace.Layout{}, err
	}

	layout, err := t.workspaces.Setup(p.Contest, strconv.FormatInt(p.ID, 10), samples)
	if err != nil {
		return workspace.Layout{}, err
	}
	logger.Info(ctx, "workspace ready",
		zap.Int64("problem_id", p.ID),
		zap.String("dir", layout.Dir))
	return layout, nil
}

// Verify runs the harness against the problem's workspace and records the
// outcome as a new immutable attempt. startedAt marks when the learner began
// working; the wall-clock spent is clamped to at least one second.
func (t *Trainer) Verify(ctx context.Context, problemID int64, startedAt time.Time) (verify.Verdict, *problem.Attempt, error) {
	p, err := t.Problem(ctx, problemID)
	if err != nil {
		return verify.Verdict{}, nil, err
	}

	ctx = context.WithValue(ctx, logger.RunIDKey, uuid.NewString())
	ctx = context.WithValue(ctx, logger.ProblemIDKey, p.ID)

	layout := t.workspaces.Layout(p.Contest, strconv.FormatInt(p.ID, 10))
	verdict, err := t.harness.Run(ctx, layout.SolutionPath)
	if err != nil {
		return verify.Verdict{}, nil, err
	}

	attempt, err := t.recordAttempt(ctx, p.ID, verdict.Passed, startedAt)
	if err != nil {
		return verify.Verdict{}, nil, err
	}
	return verdict, attempt, nil
}

func (t *Trainer) recordAttempt(ctx context.Context, problemID int64, passed bool, startedAt time.Time) (*problem.Attempt, error) {
	now := t.now().UTC()
	duration := int64(1)
	if !startedAt.IsZero() {
		if secs := int64(now.Sub(startedAt).Seconds()); secs > duration {
			duration = secs
		}
	}

	outcome := problem.OutcomeFail
	if passed {
		outcome = problem.OutcomePass
	}

	attempt := &problem.Attempt{
		ProblemID:    problemID,
		CreatedAt:    now,
		Outcome:      outcome,
		DurationSecs: duration,
	}
	if _, err := t.attempts.Create(ctx, nil, attempt); err != nil {
		return nil, appErr.Wrap(err, appErr.AttemptRecordFailed)
	}
	logger.Info(ctx, "attempt recorded",
		zap.Int64("problem_id", problemID),
		zap.String("outcome", string(outcome)),
		zap.Int64("duration_secs", duration))
	return attempt, nil
}

// LatestStatus derives the problem's status from its most recent attempt.
func (t *Trainer) LatestStatus(ctx context.Context, problemID int64) (problem.Status, error) {
	latest, err := t.attempts.LatestByProblem(ctx, problemID)
	if err != nil {
		if pkgrepo.IsNotFoundError(err) {
			return problem.StatusUnsolved, nil
		}
		return "", appErr.Wrap(err, appErr.DatabaseError)
	}
	return problem.StatusFromOutcome(latest.Outcome), nil
}

// AttemptHistory lists all attempts for a problem, newest first.
func (t *Trainer) AttemptHistory(ctx context.Context, problemID int64) ([]*problem.Attempt, error) {
	attempts, err := t.attempts.ListByProblem(ctx, problemID)
	if err != nil {
		return nil, appErr.Wrap(err, appErr.DatabaseError)
	}
	return attempts, nil
}

// Rate applies the learner's recall rating after a passing verification,
// updating the problem's memory-strength state and next due date.
func (t *Trainer) Rate(ctx context.Context, problemID int64, rating review.Rating) (*problem.ReviewState, error) {
	if !rating.IsValid() {
		return nil, appErr.Newf(appErr.InvalidRating, "invalid rating: %d", int(rating))
	}

	status, err := t.LatestStatus(ctx, problemID)
	if err != nil {
		return nil, err
	}
	if status != problem.StatusSolved {
		return nil, appErr.Newf(appErr.InvalidParams,
			"problem %d has no passing attempt to rate", problemID)
	}

	mu := t.problemMutex(problemID)
	mu.Lock()
	defer mu.Unlock()

	now := t.now().UTC()
	prior := review.InitialState()
	elapsedDays := 0.0

	existing, err := t.reviews.Get(ctx, problemID)
	switch {
	case err == nil:
		prior = review.State{
			Stability:    existing.Stability,
			Difficulty:   existing.Difficulty,
			LastReviewed: existing.LastReviewed,
		}
		if elapsed := now.Sub(existing.LastReviewed).Hours() / hoursPerDay; elapsed > 0 {
			elapsedDays = elapsed
		}
	case pkgrepo.IsNotFoundError(err):
		// First rated pass: synthetic prior, zero elapsed time.
	default:
		return nil, appErr.Wrap(err, appErr.DatabaseError)
	}

	result, err := t.scheduler.Update(prior, rating, elapsedDays)
	if err != nil {
		return nil, err
	}

	state := &problem.ReviewState{
		ProblemID:     problemID,
		Stability:     result.Stability,
		Difficulty:    result.Difficulty,
		LastReviewed:  result.LastReviewed,
		NextReviewDue: result.NextReviewDue,
	}
	if err := t.reviews.Upsert(ctx, nil, state); err != nil {
		return nil, appErr.Wrap(err, appErr.DatabaseError)
	}

	logger.Info(ctx, "review scheduled",
		zap.Int64("problem_id", problemID),
		zap.String("rating", rating.String()),
		zap.Float64("stability", result.Stability),
		zap.Float64("difficulty", result.Difficulty),
		zap.Int("interval_days", result.IntervalDays))
	return state, nil
}

// DueProblems lists every problem whose review is due by the end of asOf's
// calendar day, soonest first, problem id breaking ties.
func (t *Trainer) DueProblems(ctx context.Context, asOf time.Time) ([]*repository.DueEntry, error) {
	entries, err := t.reviews.ListDueBefore(ctx, endOfDay(asOf))
	if err != nil {
		return nil, appErr.Wrap(err, appErr.DatabaseError)
	}
	return entries, nil
}

func (t *Trainer) problemMutex(problemID int64) *sync.Mutex {
	t.ratingMu.Lock()
	defer t.ratingMu.Unlock()
	mu, ok := t.perProb[problemID]
	if !ok {
		mu = &sync.Mutex{}
		t.perProb[problemID] = mu
	}
	return mu
}

func endOfDay(ts time.Time) time.Time {
	utc := ts.UTC()
	return time.Date(utc.Year(), utc.Month(), utc.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), time.UTC)
}
