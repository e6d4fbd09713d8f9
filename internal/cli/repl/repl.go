// Package repl implements the interactive trainer shell.
package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/google/shlex"

	"github.com/abnzrdev/trainer/internal/review"
	"github.com/abnzrdev/trainer/internal/service"
	"github.com/abnzrdev/trainer/internal/verify"
)

// Session holds REPL state.
type Session struct {
	trainer      *service.Trainer
	editor       string
	outputWriter *bufio.Writer

	// startedAt tracks when the learner opened each problem's workspace so
	// a later run can record how long they worked.
	startedAt map[int64]time.Time
}

func New(trainer *service.Trainer, editor string) *Session {
	if editor == "" {
		editor = os.Getenv("EDITOR")
	}
	if editor == "" {
		editor = "nvim"
	}
	return &Session{
		trainer:      trainer,
		editor:       editor,
		outputWriter: bufio.NewWriter(os.Stdout),
		startedAt:    make(map[int64]time.Time),
	}
}

func (s *Session) Run(ctx context.Context) {
	reader := bufio.NewReader(os.Stdin)
	s.printLine("trainer shell, type help for commands")
	for {
		_, _ = s.outputWriter.WriteString("trainer> ")
		_ = s.outputWriter.Flush()
		line, err := reader.ReadString('\n')
		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.printLine("read input failed: %v", err)
			}
			return
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		switch line {
		case "exit", "quit":
			s.printLine("bye")
			return
		case "help":
			s.printHelp()
			continue
		}

		if err := s.handleCommand(ctx, line); err != nil {
			s.printLine("error: %v", err)
		}
	}
}

func (s *Session) handleCommand(ctx context.Context, line string) error {
	tokens, err := shlex.Split(line)
	if err != nil {
		return fmt.Errorf("parse command failed: %w", err)
	}
	if len(tokens) == 0 {
		return nil
	}

	switch tokens[0] {
	case "contests":
		return s.handleContests(ctx)
	case "problems":
		return s.handleProblems(ctx, tokens[1:])
	case "add":
		return s.handleAdd(ctx, tokens[1:])
	case "open":
		return s.handleOpen(ctx, tokens[1:])
	case "run":
		return s.handleRun(ctx, tokens[1:])
	case "rate":
		return s.handleRate(ctx, tokens[1:])
	case "status":
		return s.handleStatus(ctx, tokens[1:])
	case "history":
		return s.handleHistory(ctx, tokens[1:])
	case "due":
		return s.handleDue(ctx, tokens[1:])
	default:
		return fmt.Errorf("unknown command: %s", tokens[0])
	}
}

func (s *Session) handleContests(ctx context.Context) error {
	contests, err := s.trainer.Contests(ctx)
	if err != nil {
		return err
	}
	if len(contests) == 0 {
		s.printLine("no contests, use: add contest=<name> title=<title>")
		return nil
	}
	for _, contest := range contests {
		s.printLine("%s", contest)
	}
	return nil
}

func (s *Session) handleProblems(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: problems <contest>")
	}
	problems, err := s.trainer.ContestProblems(ctx, args[0])
	if err != nil {
		return err
	}
	if len(problems) == 0 {
		s.printLine("no problems in contest %s", args[0])
		return nil
	}
	for _, p := range problems {
		status, err := s.trainer.LatestStatus(ctx, p.ID)
		if err != nil {
			return err
		}
		s.printLine("%4d  %-10s  %s", p.ID, status, p.Title)
	}
	return nil
}

func (s *Session) handleAdd(ctx context.Context, args []string) error {
	params := map[string]string{}
	for _, token := range args {
		parts := strings.SplitN(token, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid param: %s", token)
		}
		params[strings.ToLower(parts[0])] = parts[1]
	}
	contest := params["contest"]
	title := params["title"]
	if contest == "" || title == "" {
		return fmt.Errorf("usage: add contest=<name> title=<title> [body_file=<path>]")
	}
	body := params["body"]
	if path := params["body_file"]; path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read body file failed: %w", err)
		}
		body = string(data)
	}

	p, err := s.trainer.AddProblem(ctx, contest, title, body)
	if err != nil {
		return err
	}
	s.printLine("created problem %d: %s / %s", p.ID, p.Contest, p.Title)
	return nil
}

func (s *Session) handleOpen(ctx context.Context, args []string) error {
	problemID, err := parseProblemID(args)
	if err != nil {
		return err
	}

	layout, err := s.trainer.SetupWorkspace(ctx, problemID)
	if err != nil {
		return err
	}
	if _, started := s.startedAt[problemID]; !started {
		s.startedAt[problemID] = time.Now()
	}
	s.printLine("workspace: %s", layout.Dir)

	cmd := exec.CommandContext(ctx, s.editor, layout.SolutionPath)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("editor exited: %w", err)
	}
	return nil
}

func (s *Session) handleRun(ctx context.Context, args []string) error {
	problemID, err := parseProblemID(args)
	if err != nil {
		return err
	}

	verdict, attempt, err := s.trainer.Verify(ctx, problemID, s.startedAt[problemID])
	if err != nil {
		return err
	}
	s.printVerdict(verdict)
	s.printLine("recorded attempt %d: %s after %s",
		attempt.ID, attempt.Outcome, time.Duration(attempt.DurationSecs)*time.Second)
	if verdict.Passed {
		delete(s.startedAt, problemID)
		s.printLine("rate your recall: rate %d again|hard|good|easy", problemID)
	}
	return nil
}

func (s *Session) handleRate(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: rate <problem_id> again|hard|good|easy")
	}
	problemID, err := parseProblemID(args[:1])
	if err != nil {
		return err
	}
	rating, err := review.ParseRating(args[1])
	if err != nil {
		return err
	}

	state, err := s.trainer.Rate(ctx, problemID, rating)
	if err != nil {
		return err
	}
	s.printLine("next review due %s (stability %.2f, difficulty %.2f)",
		state.NextReviewDue.UTC().Format("2006-01-02"), state.Stability, state.Difficulty)
	return nil
}

func (s *Session) handleStatus(ctx context.Context, args []string) error {
	problemID, err := parseProblemID(args)
	if err != nil {
		return err
	}
	status, err := s.trainer.LatestStatus(ctx, problemID)
	if err != nil {
		return err
	}
	s.printLine("problem %d: %s", problemID, status)
	return nil
}

func (s *Session) handleHistory(ctx context.Context, args []string) error {
	problemID, err := parseProblemID(args)
	if err != nil {
		return err
	}
	attempts, err := s.trainer.AttemptHistory(ctx, problemID)
	if err != nil {
		return err
	}
	if len(attempts) == 0 {
		s.printLine("no attempts yet")
		return nil
	}
	for _, a := range attempts {
		s.printLine("%s  %-4s  %s",
			a.CreatedAt.UTC().Format(time.RFC3339), a.Outcome,
			time.Duration(a.DurationSecs)*time.Second)
	}
	return nil
}

func (s *Session) handleDue(ctx context.Context, args []string) error {
	asOf := time.Now()
	if len(args) == 1 {
		parsed, err := time.Parse("2006-01-02", args[0])
		if err != nil {
			return fmt.Errorf("usage: due [YYYY-MM-DD]")
		}
		asOf = parsed
	}

	entries, err := s.trainer.DueProblems(ctx, asOf)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		s.printLine("nothing due, nice")
		return nil
	}
	for _, e := range entries {
		s.printLine("%4d  due %s  %s / %s",
			e.Problem.ID, e.State.NextReviewDue.UTC().Format("2006-01-02"),
			e.Problem.Contest, e.Problem.Title)
	}
	return nil
}

func (s *Session) printVerdict(v verify.Verdict) {
	if v.Passed {
		s.printLine("PASS")
		return
	}
	s.printLine("FAIL")
	if v.Diagnostics != "" {
		s.printLine("%s", v.Diagnostics)
	}
}

func parseProblemID(args []string) (int64, error) {
	if len(args) < 1 {
		return 0, fmt.Errorf("problem id required")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid problem id: %s", args[0])
	}
	return id, nil
}

func (s *Session) printHelp() {
	s.printLine("commands:")
	s.printLine("  contests                     list contest groups")
	s.printLine("  problems <contest>           list problems with status")
	s.printLine("  add contest=<c> title=<t>    add a problem (body_file=<path> optional)")
	s.printLine("  open <id>                    set up workspace and launch the editor")
	s.printLine("  run <id>                     compile and verify against samples")
	s.printLine("  rate <id> <rating>           rate recall after a pass (again|hard|good|easy)")
	s.printLine("  status <id>                  show derived problem status")
	s.printLine("  history <id>                 list recorded attempts")
	s.printLine("  due [YYYY-MM-DD]             list problems due for review")
	s.printLine("  help | exit")
}

func (s *Session) printLine(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(s.outputWriter, format+"\n", args...)
	_ = s.outputWriter.Flush()
}
