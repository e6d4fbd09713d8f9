package verify_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/abnzrdev/trainer/internal/verify"
	"github.com/abnzrdev/trainer/internal/verify/engine"
	appErr "github.com/abnzrdev/trainer/pkg/errors"
)

// fakeEngine replays canned results: compile invocations (the command with
// the source placeholder expanded) get compileResult, case invocations get
// the result keyed by their stdin.
type fakeEngine struct {
	compileResult engine.RunResult
	caseResults   map[string]engine.RunResult
	compileCalls  int
	caseCalls     []string
}

func (f *fakeEngine) Run(_ context.Context, spec engine.RunSpec) (engine.RunResult, error) {
	if spec.Cmd[0] == "cc" {
		f.compileCalls++
		return f.compileResult, nil
	}
	f.caseCalls = append(f.caseCalls, spec.Stdin)
	if res, ok := f.caseResults[spec.Stdin]; ok {
		return res, nil
	}
	return engine.RunResult{}, fmt.Errorf("unexpected case input %q", spec.Stdin)
}

func newTestHarness(eng engine.Engine) *verify.Harness {
	return verify.NewHarness(eng, verify.Config{
		CompileTemplate: "cc -o {bin} {src}",
		RunTemplate:     "{bin}",
	})
}

func writeWorkspace(t *testing.T, files map[string]string) (dir, solutionPath string) {
	t.Helper()
	dir = t.TempDir()
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir, filepath.Join(dir, "solution.cpp")
}

func TestHarness_MissingSolution(t *testing.T) {
	eng := &fakeEngine{}
	h := newTestHarness(eng)
	dir := t.TempDir()
	solutionPath := filepath.Join(dir, "solution.cpp")

	verdict, err := h.Run(context.Background(), solutionPath)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if verdict.Passed {
		t.Error("expected failed verdict")
	}
	want := "Source file not found: " + solutionPath
	if verdict.Diagnostics != want {
		t.Errorf("Diagnostics = %q, want %q", verdict.Diagnostics, want)
	}
	if eng.compileCalls != 0 {
		t.Errorf("compile should not run, got %d calls", eng.compileCalls)
	}
}

func TestHarness_CompileFailure(t *testing.T) {
	eng := &fakeEngine{
		compileResult: engine.RunResult{ExitCode: 1, Stderr: "solution.cpp:3: error: expected ';'"},
	}
	h := newTestHarness(eng)
	_, solutionPath := writeWorkspace(t, map[string]string{
		"solution.cpp": "int main() {}",
		"test_1.in":    "1\n",
		"test_1.out":   "1\n",
	})

	verdict, err := h.Run(context.Background(), solutionPath)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if verdict.Passed {
		t.Error("expected failed verdict")
	}
	if !strings.Contains(verdict.Diagnostics, "expected ';'") {
		t.Errorf("Diagnostics = %q, want compiler log", verdict.Diagnostics)
	}
	if len(eng.caseCalls) != 0 {
		t.Errorf("no cases should run after compile failure, ran %d", len(eng.caseCalls))
	}
}

func TestHarness_NoTestInputs(t *testing.T) {
	eng := &fakeEngine{}
	h := newTestHarness(eng)
	_, solutionPath := writeWorkspace(t, map[string]string{
		"solution.cpp": "int main() {}",
	})

	verdict, err := h.Run(context.Background(), solutionPath)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if verdict.Passed {
		t.Error("expected failed verdict")
	}
	if verdict.Diagnostics != "No .in test files found." {
		t.Errorf("Diagnostics = %q", verdict.Diagnostics)
	}
}

func TestHarness_AllCasesPass(t *testing.T) {
	eng := &fakeEngine{
		caseResults: map[string]engine.RunResult{
			"1 2\n": {Stdout: "3\r\n"},    // line endings differ from fixture
			"4 5\n": {Stdout: "9  \n"},    // trailing spaces differ
			"6 6\n": {Stdout: "\n12\n\n"}, // surrounding blank lines differ
		},
	}
	h := newTestHarness(eng)
	_, solutionPath := writeWorkspace(t, map[string]string{
		"solution.cpp": "int main() {}",
		"test_1.in":    "1 2\n",
		"test_1.out":   "3\n",
		"test_2.in":    "4 5\n",
		"test_2.out":   "9\n",
		"test_3.in":    "6 6\n",
		"test_3.out":   "12\n",
	})

	verdict, err := h.Run(context.Background(), solutionPath)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !verdict.Passed {
		t.Errorf("expected pass, diagnostics: %q", verdict.Diagnostics)
	}
	if verdict.Diagnostics != "" {
		t.Errorf("Diagnostics = %q, want empty", verdict.Diagnostics)
	}
	if len(eng.caseCalls) != 3 {
		t.Errorf("ran %d cases, want 3", len(eng.caseCalls))
	}
}

func TestHarness_MissingExpectedOutputDoesNotMaskLaterCases(t *testing.T) {
	eng := &fakeEngine{
		caseResults: map[string]engine.RunResult{
			"1\n": {Stdout: "1\n"},
			"3\n": {Stdout: "3\n"},
		},
	}
	h := newTestHarness(eng)
	_, solutionPath := writeWorkspace(t, map[string]string{
		"solution.cpp": "int main() {}",
		"test_1.in":    "1\n",
		"test_1.out":   "1\n",
		"test_2.in":    "2\n", // no test_2.out
		"test_3.in":    "3\n",
		"test_3.out":   "3\n",
	})

	verdict, err := h.Run(context.Background(), solutionPath)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if verdict.Passed {
		t.Error("expected failed verdict")
	}
	if verdict.Diagnostics != "Missing expected output file: test_2.out" {
		t.Errorf("Diagnostics = %q", verdict.Diagnostics)
	}
	// Cases 1 and 3 still execute around the broken fixture.
	if len(eng.caseCalls) != 2 {
		t.Errorf("ran %d cases, want 2", len(eng.caseCalls))
	}
}

func TestHarness_RuntimeError(t *testing.T) {
	eng := &fakeEngine{
		caseResults: map[string]engine.RunResult{
			"1\n": {ExitCode: 139, Stderr: "segmentation fault\n"},
		},
	}
	h := newTestHarness(eng)
	_, solutionPath := writeWorkspace(t, map[string]string{
		"solution.cpp": "int main() {}",
		"test_1.in":    "1\n",
		"test_1.out":   "1\n",
	})

	verdict, err := h.Run(context.Background(), solutionPath)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	want := "[test_1.in] Runtime error (code 139):\nsegmentation fault"
	if verdict.Diagnostics != want {
		t.Errorf("Diagnostics = %q, want %q", verdict.Diagnostics, want)
	}
}

func TestHarness_WrongAnswer(t *testing.T) {
	eng := &fakeEngine{
		caseResults: map[string]engine.RunResult{
			"1 2\n": {Stdout: "4\n"},
		},
	}
	h := newTestHarness(eng)
	_, solutionPath := writeWorkspace(t, map[string]string{
		"solution.cpp": "int main() {}",
		"test_1.in":    "1 2\n",
		"test_1.out":   "3\n",
	})

	verdict, err := h.Run(context.Background(), solutionPath)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	want := "[test_1.in] Wrong answer\nExpected:\n3\nGot:\n4"
	if verdict.Diagnostics != want {
		t.Errorf("Diagnostics = %q, want %q", verdict.Diagnostics, want)
	}
}

func TestHarness_TimeoutIsRuntimeFailure(t *testing.T) {
	eng := &fakeEngine{
		caseResults: map[string]engine.RunResult{
			"1\n": {ExitCode: -1, TimedOut: true},
		},
	}
	h := newTestHarness(eng)
	_, solutionPath := writeWorkspace(t, map[string]string{
		"solution.cpp": "int main() {}",
		"test_1.in":    "1\n",
		"test_1.out":   "1\n",
	})

	verdict, err := h.Run(context.Background(), solutionPath)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if verdict.Passed {
		t.Error("expected failed verdict")
	}
	if !strings.Contains(verdict.Diagnostics, "[test_1.in] Time limit exceeded") {
		t.Errorf("Diagnostics = %q", verdict.Diagnostics)
	}
}

func TestHarness_MultipleFailuresJoinedByBlankLine(t *testing.T) {
	eng := &fakeEngine{
		caseResults: map[string]engine.RunResult{
			"1\n": {Stdout: "wrong\n"},
			"2\n": {ExitCode: 1, Stderr: "oops\n"},
		},
	}
	h := newTestHarness(eng)
	_, solutionPath := writeWorkspace(t, map[string]string{
		"solution.cpp": "int main() {}",
		"test_1.in":    "1\n",
		"test_1.out":   "right\n",
		"test_2.in":    "2\n",
		"test_2.out":   "2\n",
	})

	verdict, err := h.Run(context.Background(), solutionPath)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	blocks := strings.Split(verdict.Diagnostics, "\n\n")
	if len(blocks) != 2 {
		t.Fatalf("got %d diagnostic blocks, want 2: %q", len(blocks), verdict.Diagnostics)
	}
	if !strings.HasPrefix(blocks[0], "[test_1.in] Wrong answer") {
		t.Errorf("first block = %q", blocks[0])
	}
	if !strings.HasPrefix(blocks[1], "[test_2.in] Runtime error") {
		t.Errorf("second block = %q", blocks[1])
	}
}

// blockingEngine parks the first case run until released so a second Run can
// race against it.
type blockingEngine struct {
	entered  chan struct{}
	release  chan struct{}
	blocked  bool
	compiled bool
}

func (b *blockingEngine) Run(_ context.Context, spec engine.RunSpec) (engine.RunResult, error) {
	if spec.Cmd[0] == "cc" {
		b.compiled = true
		return engine.RunResult{}, nil
	}
	if !b.blocked {
		b.blocked = true
		close(b.entered)
		<-b.release
	}
	return engine.RunResult{Stdout: "1\n"}, nil
}

func TestHarness_RejectsConcurrentRunOnSameWorkspace(t *testing.T) {
	eng := &blockingEngine{
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	h := newTestHarness(eng)
	_, solutionPath := writeWorkspace(t, map[string]string{
		"solution.cpp": "int main() {}",
		"test_1.in":    "1\n",
		"test_1.out":   "1\n",
	})

	done := make(chan verify.Verdict, 1)
	go func() {
		verdict, err := h.Run(context.Background(), solutionPath)
		if err != nil {
			t.Errorf("first Run() error = %v", err)
		}
		done <- verdict
	}()

	<-eng.entered
	_, err := h.Run(context.Background(), solutionPath)
	if appErr.GetCode(err) != appErr.WorkspaceBusy {
		t.Errorf("second Run() error code = %d, want WorkspaceBusy", appErr.GetCode(err))
	}
	close(eng.release)

	verdict := <-done
	if !verdict.Passed {
		t.Errorf("first run should pass, diagnostics: %q", verdict.Diagnostics)
	}
}

func TestHarness_CancelledContextAbortsRun(t *testing.T) {
	eng := &fakeEngine{
		caseResults: map[string]engine.RunResult{
			"1\n": {Stdout: "1\n"},
		},
	}
	h := newTestHarness(eng)
	_, solutionPath := writeWorkspace(t, map[string]string{
		"solution.cpp": "int main() {}",
		"test_1.in":    "1\n",
		"test_1.out":   "1\n",
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.Run(ctx, solutionPath)
	if appErr.GetCode(err) != appErr.VerifyAborted {
		t.Errorf("error code = %d, want VerifyAborted", appErr.GetCode(err))
	}
}
