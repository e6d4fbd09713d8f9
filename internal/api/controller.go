// Package api exposes the trainer's state over a small read-only HTTP API.
package api

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/abnzrdev/trainer/internal/problem"
	"github.com/abnzrdev/trainer/internal/problem/repository"
	"github.com/abnzrdev/trainer/internal/service"
	"github.com/abnzrdev/trainer/pkg/utils/response"
)

// TrainerController serves problem, attempt, and review-queue lookups.
type TrainerController struct {
	trainer *service.Trainer
}

func NewTrainerController(trainer *service.Trainer) *TrainerController {
	return &TrainerController{trainer: trainer}
}

// ProblemView is the JSON shape of one problem.
type ProblemView struct {
	ID        int64  `json:"id"`
	Contest   string `json:"contest"`
	Title     string `json:"title"`
	CreatedAt string `json:"created_at"`
}

// AttemptView is the JSON shape of one ledger entry.
type AttemptView struct {
	ID           int64  `json:"id"`
	ProblemID    int64  `json:"problem_id"`
	CreatedAt    string `json:"created_at"`
	Outcome      string `json:"outcome"`
	DurationSecs int64  `json:"duration_secs"`
}

// DueView is one entry of the review queue.
type DueView struct {
	Problem       ProblemView `json:"problem"`
	Stability     float64     `json:"stability"`
	Difficulty    float64     `json:"difficulty"`
	LastReviewed  string      `json:"last_reviewed"`
	NextReviewDue string      `json:"next_review_due"`
}

// StatusView reports the derived status of one problem.
type StatusView struct {
	ProblemID int64  `json:"problem_id"`
	Status    string `json:"status"`
}

func (h *TrainerController) ListContests(c *gin.Context) {
	contests, err := h.trainer.Contests(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, contests)
}

func (h *TrainerController) ListContestProblems(c *gin.Context) {
	contest := c.Param("contest")
	problems, err := h.trainer.ContestProblems(c.Request.Context(), contest)
	if err != nil {
		response.Error(c, err)
		return
	}
	views := make([]ProblemView, 0, len(problems))
	for _, p := range problems {
		views = append(views, problemView(p))
	}
	response.Success(c, views)
}

func (h *TrainerController) GetProblem(c *gin.Context) {
	problemID, ok := parseProblemID(c)
	if !ok {
		response.BadRequest(c, "Invalid problem id")
		return
	}
	p, err := h.trainer.Problem(c.Request.Context(), problemID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, problemView(p))
}

func (h *TrainerController) GetStatus(c *gin.Context) {
	problemID, ok := parseProblemID(c)
	if !ok {
		response.BadRequest(c, "Invalid problem id")
		return
	}
	status, err := h.trainer.LatestStatus(c.Request.Context(), problemID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, StatusView{ProblemID: problemID, Status: string(status)})
}

func (h *TrainerController) ListAttempts(c *gin.Context) {
	problemID, ok := parseProblemID(c)
	if !ok {
		response.BadRequest(c, "Invalid problem id")
		return
	}
	attempts, err := h.trainer.AttemptHistory(c.Request.Context(), problemID)
	if err != nil {
		response.Error(c, err)
		return
	}
	views := make([]AttemptView, 0, len(attempts))
	for _, a := range attempts {
		views = append(views, AttemptView{
			ID:           a.ID,
			ProblemID:    a.ProblemID,
			CreatedAt:    a.CreatedAt.UTC().Format(time.RFC3339),
			Outcome:      string(a.Outcome),
			DurationSecs: a.DurationSecs,
		})
	}
	response.Success(c, views)
}

func (h *TrainerController) ListDue(c *gin.Context) {
	asOf := time.Now()
	if raw := c.Query("as_of"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			response.BadRequest(c, "as_of must be RFC3339")
			return
		}
		asOf = parsed
	}

	entries, err := h.trainer.DueProblems(c.Request.Context(), asOf)
	if err != nil {
		response.Error(c, err)
		return
	}
	views := make([]DueView, 0, len(entries))
	for _, e := range entries {
		views = append(views, dueView(e))
	}
	response.Success(c, views)
}

func problemView(p *problem.Problem) ProblemView {
	return ProblemView{
		ID:        p.ID,
		Contest:   p.Contest,
		Title:     p.Title,
		CreatedAt: p.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func dueView(e *repository.DueEntry) DueView {
	return DueView{
		Problem:       problemView(&e.Problem),
		Stability:     e.State.Stability,
		Difficulty:    e.State.Difficulty,
		LastReviewed:  e.State.LastReviewed.UTC().Format(time.RFC3339),
		NextReviewDue: e.State.NextReviewDue.UTC().Format(time.RFC3339),
	}
}

func parseProblemID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
