package review

import (
	"math"
	"time"

	appErr "github.com/abnzrdev/trainer/pkg/errors"
)

const (
	minStability  = 0.1
	minDifficulty = 1.0
	maxDifficulty = 10.0

	// Synthetic prior used when a problem has never been reviewed.
	initialStability  = 0.5
	initialDifficulty = 5.0

	// Lapse behavior: the penalty grows with how surprising the lapse was,
	// and stability shrinks by a factor in [0.35, 0.60] scaled by
	// retrievability.
	lapseDifficultyPenalty = 0.6
	lapseShrinkBase        = 0.35
	lapseShrinkRecallBonus = 0.25

	growthScale = 0.04
)

// ratingPolicy holds the per-rating numeric policy for successful recalls.
type ratingPolicy struct {
	difficultyDelta    float64
	recallBonus        float64
	intervalMultiplier float64
}

// recallPolicies maps each success rating to its policy triple. Easier
// recollections reduce perceived difficulty and grow the interval faster.
var recallPolicies = map[Rating]ratingPolicy{
	Hard: {difficultyDelta: 0.15, recallBonus: 0.9, intervalMultiplier: 1.3},
	Good: {difficultyDelta: -0.10, recallBonus: 1.2, intervalMultiplier: 2.4},
	Easy: {difficultyDelta: -0.30, recallBonus: 1.5, intervalMultiplier: 3.2},
}

// State is the memory-strength input to one scheduling step.
type State struct {
	Stability    float64
	Difficulty   float64
	LastReviewed time.Time
}

// Result is the output of one scheduling step.
type Result struct {
	Stability     float64
	Difficulty    float64
	IntervalDays  int
	LastReviewed  time.Time
	NextReviewDue time.Time
}

// Clock supplies the current instant; tests inject fixed clocks.
type Clock func() time.Time

// Scheduler computes review-state updates. It is stateless; all state
// flows through Update's arguments.
type Scheduler struct {
	now Clock
}

// NewScheduler creates a scheduler reading wall-clock time.
func NewScheduler() *Scheduler {
	return NewSchedulerWithClock(time.Now)
}

// NewSchedulerWithClock creates a scheduler with an injected time source.
func NewSchedulerWithClock(clock Clock) *Scheduler {
	if clock == nil {
		clock = time.Now
	}
	return &Scheduler{now: clock}
}

// InitialState returns the synthetic prior for a problem with no history.
func InitialState() State {
	return State{Stability: initialStability, Difficulty: initialDifficulty}
}

// Update computes the new memory-strength state and next due date from the
// prior state, the learner's rating, and days elapsed since the last review.
// It is a pure function of its inputs plus the injected clock.
func (s *Scheduler) Update(prior State, rating Rating, elapsedDays float64) (Result, error) {
	if !rating.IsValid() {
		return Result{}, appErr.Newf(appErr.InvalidRating, "invalid rating: %d", int(rating))
	}

	now := s.now().UTC()
	stability := math.Max(prior.Stability, minStability)
	difficulty := clamp(prior.Difficulty, minDifficulty, maxDifficulty)
	r := retrievability(stability, elapsedDays)

	var (
		newStability  float64
		newDifficulty float64
		intervalDays  int
	)

	if rating == Again {
		// A lapse always resets to daily review regardless of prior stability.
		newDifficulty = clamp(difficulty+lapseDifficultyPenalty*(1.0-r), minDifficulty, maxDifficulty)
		newStability = math.Max(minStability, stability*(lapseShrinkBase+lapseShrinkRecallBonus*r))
		intervalDays = 1
	} else {
		policy := recallPolicies[rating]
		newDifficulty = clamp(difficulty+policy.difficultyDelta, minDifficulty, maxDifficulty)

		// Lower difficulty and lower retrievability both amplify growth.
		growth := 1.0 + (maxDifficulty+1.0-newDifficulty)*growthScale*(1.0-r)*policy.recallBonus
		newStability = math.Max(minStability, stability*growth)

		// Nearest day, ties away from zero.
		intervalDays = int(math.Round(newStability * policy.intervalMultiplier))
		if intervalDays < 1 {
			intervalDays = 1
		}
	}

	return Result{
		Stability:     newStability,
		Difficulty:    newDifficulty,
		IntervalDays:  intervalDays,
		LastReviewed:  now,
		NextReviewDue: now.AddDate(0, 0, intervalDays),
	}, nil
}

// retrievability estimates the probability of successful unprompted recall
// right now: 1 at zero elapsed time, decaying toward 0 as time passes.
func retrievability(stability, elapsedDays float64) float64 {
	safeStability := math.Max(stability, minStability)
	safeDays := math.Max(elapsedDays, 0.0)
	return 1.0 / (1.0 + safeDays/(9.0*safeStability))
}

func clamp(value, low, high float64) float64 {
	return math.Max(low, math.Min(high, value))
}
