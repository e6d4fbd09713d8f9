package engine

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"

	appErr "github.com/abnzrdev/trainer/pkg/errors"
)

const defaultMaxOutputBytes = 1 << 20 // 1 MiB per stream

// ProcessEngine runs commands as plain subprocesses.
type ProcessEngine struct {
	maxOutputBytes int64
}

// NewProcessEngine creates an engine with the default output cap.
func NewProcessEngine() *ProcessEngine {
	return &ProcessEngine{maxOutputBytes: defaultMaxOutputBytes}
}

// NewProcessEngineWithLimit caps captured stdout/stderr at maxOutputBytes.
func NewProcessEngineWithLimit(maxOutputBytes int64) *ProcessEngine {
	if maxOutputBytes <= 0 {
		maxOutputBytes = defaultMaxOutputBytes
	}
	return &ProcessEngine{maxOutputBytes: maxOutputBytes}
}

// Run executes the command, feeding spec.Stdin and capturing both streams.
// A non-zero exit is reported through RunResult, not as an error; errors are
// reserved for failures to start or control the process. When the wall-clock
// allowance is exceeded the process is killed and TimedOut is set.
func (e *ProcessEngine) Run(ctx context.Context, spec RunSpec) (RunResult, error) {
	if len(spec.Cmd) == 0 {
		return RunResult{}, appErr.ValidationError("cmd", "required")
	}

	runCtx := ctx
	var cancel context.CancelFunc
	if spec.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, spec.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, spec.Cmd[0], spec.Cmd[1:]...)
	cmd.Dir = spec.Dir
	cmd.Stdin = strings.NewReader(spec.Stdin)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &limitedWriter{buf: &stdout, limit: e.maxOutputBytes}
	cmd.Stderr = &limitedWriter{buf: &stderr, limit: e.maxOutputBytes}

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	res := RunResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: elapsed,
	}

	if runCtx.Err() == context.DeadlineExceeded {
		res.TimedOut = true
		res.ExitCode = -1
		return res, nil
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		return res, appErr.Wrapf(err, appErr.ExecutionFailed, "start process failed: %s", spec.Cmd[0])
	}

	res.ExitCode = 0
	return res, nil
}

// limitedWriter keeps the first limit bytes and silently drops the rest, so
// a runaway solution cannot exhaust memory through its output.
type limitedWriter struct {
	buf     *bytes.Buffer
	limit   int64
	written int64
}

func (w *limitedWriter) Write(p []byte) (int, error) {
	remaining := w.limit - w.written
	if remaining <= 0 {
		return len(p), nil
	}
	if int64(len(p)) > remaining {
		w.buf.Write(p[:remaining])
		w.written = w.limit
		return len(p), nil
	}
	w.buf.Write(p)
	w.written += int64(len(p))
	return len(p), nil
}
