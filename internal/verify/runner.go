package verify

import (
	"context"
	"strings"
	"time"

	"github.com/google/shlex"

	"github.com/abnzrdev/trainer/internal/verify/engine"
	appErr "github.com/abnzrdev/trainer/pkg/errors"
)

// CompileRequest describes one compilation task.
type CompileRequest struct {
	WorkDir    string
	SourcePath string
	BinaryPath string
	Timeout    time.Duration
}

// CompileResult reports the outcome of one compilation.
type CompileResult struct {
	OK       bool
	ExitCode int
	Log      string // compiler error stream
}

// CaseRequest describes executing the compiled artifact against one input.
type CaseRequest struct {
	WorkDir    string
	BinaryPath string
	Input      string
	Timeout    time.Duration
}

// CaseResult reports one executed test case.
type CaseResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
	TimedOut bool
	Duration time.Duration
}

// Runner turns compile/run command templates into engine invocations.
// Templates use {src} and {bin} placeholders, e.g. "g++ -O2 -o {bin} {src}".
type Runner struct {
	eng        engine.Engine
	compileTpl string
	runTpl     string
}

// NewRunner creates a runner backed by the given engine.
func NewRunner(eng engine.Engine, compileTpl, runTpl string) *Runner {
	return &Runner{eng: eng, compileTpl: compileTpl, runTpl: runTpl}
}

// Compile builds the solution into an executable artifact in the workspace.
func (r *Runner) Compile(ctx context.Context, req CompileRequest) (CompileResult, error) {
	cmd, err := buildCommand(r.compileTpl, req.SourcePath, req.BinaryPath)
	if err != nil {
		return CompileResult{}, err
	}

	runRes, err := r.eng.Run(ctx, engine.RunSpec{
		Cmd:     cmd,
		Dir:     req.WorkDir,
		Timeout: req.Timeout,
	})
	if err != nil {
		return CompileResult{}, err
	}

	return CompileResult{
		OK:       runRes.ExitCode == 0 && !runRes.TimedOut,
		ExitCode: runRes.ExitCode,
		Log:      runRes.Stderr,
	}, nil
}

// RunCase executes the compiled artifact with the case input on stdin.
func (r *Runner) RunCase(ctx context.Context, req CaseRequest) (CaseResult, error) {
	cmd, err := buildCommand(r.runTpl, "", req.BinaryPath)
	if err != nil {
		return CaseResult{}, err
	}

	runRes, err := r.eng.Run(ctx, engine.RunSpec{
		Cmd:     cmd,
		Dir:     req.WorkDir,
		Stdin:   req.Input,
		Timeout: req.Timeout,
	})
	if err != nil {
		return CaseResult{}, err
	}

	return CaseResult{
		ExitCode: runRes.ExitCode,
		Stdout:   runRes.Stdout,
		Stderr:   runRes.Stderr,
		TimedOut: runRes.TimedOut,
		Duration: runRes.Duration,
	}, nil
}

func buildCommand(tpl, src, bin string) ([]string, error) {
	if strings.TrimSpace(tpl) == "" {
		return nil, appErr.New(appErr.InvalidParams).WithMessage("command template is required")
	}
	expanded := strings.ReplaceAll(tpl, "{src}", src)
	expanded = strings.ReplaceAll(expanded, "{bin}", bin)
	fields, err := shlex.Split(expanded)
	if err != nil {
		return nil, appErr.Wrapf(err, appErr.InvalidParams, "parse command template failed")
	}
	if len(fields) == 0 {
		return nil, appErr.New(appErr.InvalidParams).WithMessage("command is empty after expansion")
	}
	return fields, nil
}
