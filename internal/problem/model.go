// Package problem defines the trainer's persistent entities.
package problem

import "time"

// Problem is one practice problem inside a contest group.
type Problem struct {
	ID        int64
	Contest   string
	Title     string
	Body      string
	CreatedAt time.Time
}

// Outcome is the verdict recorded for one verification run.
type Outcome string

const (
	OutcomePass Outcome = "Pass"
	OutcomeFail Outcome = "Fail"
)

// IsValid reports whether o is a known outcome.
func (o Outcome) IsValid() bool {
	return o == OutcomePass || o == OutcomeFail
}

// Attempt records one verification run against a problem.
// Attempts are append-only; corrections happen by recording a new attempt.
type Attempt struct {
	ID           int64
	ProblemID    int64
	CreatedAt    time.Time
	Outcome      Outcome
	DurationSecs int64
}

// Status is the derived latest state of a problem.
type Status string

const (
	StatusUnsolved  Status = "unsolved"  // no attempts recorded
	StatusAttempted Status = "attempted" // most recent attempt failed
	StatusSolved    Status = "solved"    // most recent attempt passed
)

// StatusFromOutcome derives the latest status from the most recent attempt.
func StatusFromOutcome(o Outcome) Status {
	if o == OutcomePass {
		return StatusSolved
	}
	return StatusAttempted
}

// ReviewState holds the memory-strength model for one problem.
// At most one exists per problem; it is mutated in place on every rated pass.
type ReviewState struct {
	ProblemID     int64
	Stability     float64
	Difficulty    float64
	LastReviewed  time.Time
	NextReviewDue time.Time
}
