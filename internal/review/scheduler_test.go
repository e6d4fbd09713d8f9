package review_test

import (
	"math"
	"testing"
	"time"

	"github.com/abnzrdev/trainer/internal/review"
	appErr "github.com/abnzrdev/trainer/pkg/errors"
)

var fixedNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestScheduler_InvalidRating(t *testing.T) {
	s := review.NewSchedulerWithClock(fixedClock)
	_, err := s.Update(review.InitialState(), review.Rating(0), 1.0)
	if appErr.GetCode(err) != appErr.InvalidRating {
		t.Errorf("error code = %d, want InvalidRating", appErr.GetCode(err))
	}
}

func TestScheduler_AgainAlwaysSchedulesTomorrow(t *testing.T) {
	s := review.NewSchedulerWithClock(fixedClock)

	priors := []review.State{
		review.InitialState(),
		{Stability: 30.0, Difficulty: 2.0},
		{Stability: 0.2, Difficulty: 9.5},
	}
	for _, prior := range priors {
		res, err := s.Update(prior, review.Again, 5.0)
		if err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		if res.IntervalDays != 1 {
			t.Errorf("IntervalDays = %d, want 1 (prior stability %.1f)", res.IntervalDays, prior.Stability)
		}
		if want := fixedNow.AddDate(0, 0, 1); !res.NextReviewDue.Equal(want) {
			t.Errorf("NextReviewDue = %v, want %v", res.NextReviewDue, want)
		}
		if res.Stability >= prior.Stability && prior.Stability > 0.3 {
			t.Errorf("lapse should shrink stability: %f -> %f", prior.Stability, res.Stability)
		}
	}
}

func TestScheduler_FirstGoodReview(t *testing.T) {
	s := review.NewSchedulerWithClock(fixedClock)

	// First rated pass: synthetic prior, nothing elapsed, so recall is
	// certain and stability does not grow.
	res, err := s.Update(review.InitialState(), review.Good, 0.0)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if !almostEqual(res.Difficulty, 4.9) {
		t.Errorf("Difficulty = %f, want 4.9", res.Difficulty)
	}
	if !almostEqual(res.Stability, 0.5) {
		t.Errorf("Stability = %f, want 0.5", res.Stability)
	}
	// round(0.5 * 2.4) = 1
	if res.IntervalDays != 1 {
		t.Errorf("IntervalDays = %d, want 1", res.IntervalDays)
	}
	if !res.LastReviewed.Equal(fixedNow) {
		t.Errorf("LastReviewed = %v, want %v", res.LastReviewed, fixedNow)
	}
}

func TestScheduler_GoodAfterOneDay(t *testing.T) {
	s := review.NewSchedulerWithClock(fixedClock)

	res, err := s.Update(review.InitialState(), review.Good, 1.0)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	// r = 1/(1 + 1/(9*0.5)) = 0.8181..., difficulty 5.0 - 0.10 = 4.9,
	// growth = 1 + (11-4.9)*0.04*(1-r)*1.2
	r := 1.0 / (1.0 + 1.0/(9.0*0.5))
	growth := 1.0 + (11.0-4.9)*0.04*(1.0-r)*1.2
	wantStability := 0.5 * growth
	wantInterval := int(math.Round(wantStability * 2.4))
	if wantInterval < 1 {
		wantInterval = 1
	}

	if !almostEqual(res.Difficulty, 4.9) {
		t.Errorf("Difficulty = %f, want 4.9", res.Difficulty)
	}
	if !almostEqual(res.Stability, wantStability) {
		t.Errorf("Stability = %f, want %f", res.Stability, wantStability)
	}
	if res.IntervalDays != wantInterval {
		t.Errorf("IntervalDays = %d, want %d", res.IntervalDays, wantInterval)
	}
	if res.Stability <= 0.5 {
		t.Errorf("stability should grow after a recalled day, got %f", res.Stability)
	}
	if want := fixedNow.AddDate(0, 0, wantInterval); !res.NextReviewDue.Equal(want) {
		t.Errorf("NextReviewDue = %v, want %v", res.NextReviewDue, want)
	}
}

func TestScheduler_RatingOrderingOnSameState(t *testing.T) {
	s := review.NewSchedulerWithClock(fixedClock)
	prior := review.State{Stability: 4.0, Difficulty: 5.0}
	elapsed := 4.0

	hard, err := s.Update(prior, review.Hard, elapsed)
	if err != nil {
		t.Fatalf("Update(Hard) error = %v", err)
	}
	good, err := s.Update(prior, review.Good, elapsed)
	if err != nil {
		t.Fatalf("Update(Good) error = %v", err)
	}
	easy, err := s.Update(prior, review.Easy, elapsed)
	if err != nil {
		t.Fatalf("Update(Easy) error = %v", err)
	}

	if !(hard.IntervalDays < good.IntervalDays && good.IntervalDays < easy.IntervalDays) {
		t.Errorf("intervals should order hard < good < easy, got %d, %d, %d",
			hard.IntervalDays, good.IntervalDays, easy.IntervalDays)
	}
	if !(hard.Difficulty > good.Difficulty && good.Difficulty > easy.Difficulty) {
		t.Errorf("difficulty should order hard > good > easy, got %f, %f, %f",
			hard.Difficulty, good.Difficulty, easy.Difficulty)
	}
}

func TestScheduler_LapsePenaltyGrowsWithElapsedTime(t *testing.T) {
	s := review.NewSchedulerWithClock(fixedClock)
	prior := review.State{Stability: 6.0, Difficulty: 5.0}

	// The longer the problem survived before the lapse, the more surprising
	// the failure and the harsher both penalties.
	early, err := s.Update(prior, review.Again, 1.0)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	late, err := s.Update(prior, review.Again, 30.0)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if late.Difficulty <= early.Difficulty {
		t.Errorf("late lapse difficulty %f should exceed early %f", late.Difficulty, early.Difficulty)
	}
	if late.Stability >= early.Stability {
		t.Errorf("late lapse stability %f should be below early %f", late.Stability, early.Stability)
	}
}

func TestScheduler_Clamps(t *testing.T) {
	s := review.NewSchedulerWithClock(fixedClock)

	// Difficulty cannot exceed 10 even under repeated lapses.
	res, err := s.Update(review.State{Stability: 5.0, Difficulty: 9.9}, review.Again, 60.0)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if res.Difficulty > 10.0 {
		t.Errorf("Difficulty = %f, want <= 10", res.Difficulty)
	}

	// Difficulty cannot fall below 1 under repeated Easy ratings.
	res, err = s.Update(review.State{Stability: 5.0, Difficulty: 1.1}, review.Easy, 10.0)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if res.Difficulty < 1.0 {
		t.Errorf("Difficulty = %f, want >= 1", res.Difficulty)
	}

	// Stability never drops below the floor.
	res, err = s.Update(review.State{Stability: 0.11, Difficulty: 10.0}, review.Again, 365.0)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if res.Stability < 0.1 {
		t.Errorf("Stability = %f, want >= 0.1", res.Stability)
	}
}

func TestScheduler_IntervalNeverBelowOneDay(t *testing.T) {
	s := review.NewSchedulerWithClock(fixedClock)

	res, err := s.Update(review.State{Stability: 0.1, Difficulty: 10.0}, review.Hard, 0.0)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if res.IntervalDays < 1 {
		t.Errorf("IntervalDays = %d, want >= 1", res.IntervalDays)
	}
}

func TestScheduler_NegativeElapsedTreatedAsZero(t *testing.T) {
	s := review.NewSchedulerWithClock(fixedClock)

	backwards, err := s.Update(review.InitialState(), review.Good, -3.0)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	zero, err := s.Update(review.InitialState(), review.Good, 0.0)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if !almostEqual(backwards.Stability, zero.Stability) || !almostEqual(backwards.Difficulty, zero.Difficulty) {
		t.Errorf("negative elapsed should behave like zero: got %+v vs %+v", backwards, zero)
	}
}
