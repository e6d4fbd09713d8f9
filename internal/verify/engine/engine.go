// Package engine executes external processes with bounded time and output.
package engine

import (
	"context"
	"time"
)

// RunSpec describes one subprocess invocation.
type RunSpec struct {
	Cmd     []string      // argv; Cmd[0] is the executable
	Dir     string        // working directory
	Stdin   string        // text fed to standard input
	Timeout time.Duration // wall-clock allowance; 0 means no limit
}

// RunResult captures one finished subprocess.
type RunResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
	TimedOut bool
	Duration time.Duration
}

// Engine runs subprocesses. The process implementation invokes them
// directly; tests substitute fakes.
type Engine interface {
	Run(ctx context.Context, spec RunSpec) (RunResult, error)
}
