package verify

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/abnzrdev/trainer/internal/verify/engine"
	appErr "github.com/abnzrdev/trainer/pkg/errors"
	"github.com/abnzrdev/trainer/pkg/utils/logger"
)

const (
	inputSuffix    = ".in"
	expectedSuffix = ".out"

	defaultCompileTimeout = 30 * time.Second
	defaultCaseTimeout    = 10 * time.Second
)

// Verdict is the aggregate result of one verification run. Diagnostics is
// empty iff every test case passed.
type Verdict struct {
	Passed      bool
	Diagnostics string
}

// Config holds harness settings.
type Config struct {
	CompileTemplate string        `yaml:"compileTemplate"` // e.g. "g++ -O2 -o {bin} {src}"
	RunTemplate     string        `yaml:"runTemplate"`     // e.g. "{bin}"
	BinaryName      string        `yaml:"binaryName"`      // artifact name inside the workspace
	CompileTimeout  time.Duration `yaml:"compileTimeout"`
	CaseTimeout     time.Duration `yaml:"caseTimeout"`
}

func (c *Config) applyDefaults() {
	if c.CompileTemplate == "" {
		c.CompileTemplate = "g++ -O2 -o {bin} {src}"
	}
	if c.RunTemplate == "" {
		c.RunTemplate = "{bin}"
	}
	if c.BinaryName == "" {
		c.BinaryName = "solution_bin"
	}
	if c.CompileTimeout <= 0 {
		c.CompileTimeout = defaultCompileTimeout
	}
	if c.CaseTimeout <= 0 {
		c.CaseTimeout = defaultCaseTimeout
	}
}

// Harness compiles a solution and runs it against every test case in the
// solution's workspace. Cases run sequentially so diagnostics stay ordered;
// one broken fixture never masks the remaining cases.
type Harness struct {
	runner *Runner
	cfg    Config

	mu       sync.Mutex
	inFlight map[string]struct{} // workspaces with a run in progress
}

// NewHarness creates a verification harness.
func NewHarness(eng engine.Engine, cfg Config) *Harness {
	cfg.applyDefaults()
	return &Harness{
		runner:   NewRunner(eng, cfg.CompileTemplate, cfg.RunTemplate),
		cfg:      cfg,
		inFlight: make(map[string]struct{}),
	}
}

// Run verifies the solution at solutionPath against the test cases next to
// it. Setup defects, compile failures, runtime failures, and wrong answers
// all come back as a failed Verdict with diagnostics; errors are reserved
// for harness-level problems (workspace busy, unreadable fixtures).
func (h *Harness) Run(ctx context.Context, solutionPath string) (Verdict, error) {
	workDir := filepath.Dir(solutionPath)
	if err := h.acquire(workDir); err != nil {
		return Verdict{}, err
	}
	defer h.release(workDir)

	start := time.Now()
	verdict, err := h.run(ctx, workDir, solutionPath)
	if err != nil {
		return Verdict{}, err
	}
	logger.Info(ctx, "verification finished",
		zap.String("solution", solutionPath),
		zap.Bool("passed", verdict.Passed),
		zap.Duration("elapsed", time.Since(start)))
	return verdict, nil
}

func (h *Harness) run(ctx context.Context, workDir, solutionPath string) (Verdict, error) {
	if _, err := os.Stat(solutionPath); err != nil {
		if os.IsNotExist(err) {
			return failed("Source file not found: %s", solutionPath), nil
		}
		return Verdict{}, appErr.Wrapf(err, appErr.WorkspaceSetupFailed, "stat solution failed")
	}

	binaryPath := filepath.Join(workDir, h.cfg.BinaryName)
	compileRes, err := h.runner.Compile(ctx, CompileRequest{
		WorkDir:    workDir,
		SourcePath: solutionPath,
		BinaryPath: binaryPath,
		Timeout:    h.cfg.CompileTimeout,
	})
	if err != nil {
		return Verdict{}, err
	}
	if !compileRes.OK {
		log := compileRes.Log
		if strings.TrimSpace(log) == "" {
			log = "Compilation failed."
		}
		return Verdict{Passed: false, Diagnostics: log}, nil
	}

	inputFiles, err := listInputFiles(workDir)
	if err != nil {
		return Verdict{}, err
	}
	if len(inputFiles) == 0 {
		return failed("No %s test files found.", inputSuffix), nil
	}

	var diags []string
	for _, inputFile := range inputFiles {
		if err := ctx.Err(); err != nil {
			// Aborted runs discard partially collected diagnostics.
			return Verdict{}, appErr.Wrap(err, appErr.VerifyAborted)
		}
		diag, err := h.runOneCase(ctx, workDir, binaryPath, inputFile)
		if err != nil {
			return Verdict{}, err
		}
		if diag != "" {
			diags = append(diags, diag)
		}
	}

	return Verdict{
		Passed:      len(diags) == 0,
		Diagnostics: strings.Join(diags, "\n\n"),
	}, nil
}

// runOneCase executes a single test case and returns its diagnostic block,
// or "" when the case passed.
func (h *Harness) runOneCase(ctx context.Context, workDir, binaryPath, inputFile string) (string, error) {
	caseName := filepath.Base(inputFile)
	expectedFile := strings.TrimSuffix(inputFile, inputSuffix) + expectedSuffix

	expectedRaw, err := os.ReadFile(expectedFile)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Sprintf("Missing expected output file: %s", filepath.Base(expectedFile)), nil
		}
		return "", appErr.Wrapf(err, appErr.WorkspaceSetupFailed, "read expected output failed")
	}

	inputRaw, err := os.ReadFile(inputFile)
	if err != nil {
		return "", appErr.Wrapf(err, appErr.WorkspaceSetupFailed, "read test input failed")
	}

	caseRes, err := h.runner.RunCase(ctx, CaseRequest{
		WorkDir:    workDir,
		BinaryPath: binaryPath,
		Input:      string(inputRaw),
		Timeout:    h.cfg.CaseTimeout,
	})
	if err != nil {
		return "", err
	}

	if caseRes.TimedOut {
		return fmt.Sprintf("[%s] Time limit exceeded after %s", caseName, h.cfg.CaseTimeout), nil
	}
	if caseRes.ExitCode != 0 {
		return fmt.Sprintf("[%s] Runtime error (code %d):\n%s",
			caseName, caseRes.ExitCode, strings.TrimSpace(caseRes.Stderr)), nil
	}

	actual := Normalize(caseRes.Stdout)
	expected := Normalize(string(expectedRaw))
	if actual != expected {
		return strings.Join([]string{
			fmt.Sprintf("[%s] Wrong answer", caseName),
			fmt.Sprintf("Expected:\n%s", strings.TrimRight(string(expectedRaw), " \t\r\n")),
			fmt.Sprintf("Got:\n%s", strings.TrimRight(caseRes.Stdout, " \t\r\n")),
		}, "\n"), nil
	}

	return "", nil
}

// acquire claims sole ownership of a workspace for one run. The compiled
// artifact and test inputs are shared, so a second concurrent run on the
// same workspace is rejected rather than queued.
func (h *Harness) acquire(workDir string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, busy := h.inFlight[workDir]; busy {
		return appErr.Newf(appErr.WorkspaceBusy, "verification already running in %s", workDir)
	}
	h.inFlight[workDir] = struct{}{}
	return nil
}

func (h *Harness) release(workDir string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.inFlight, workDir)
}

func listInputFiles(workDir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(workDir, "*"+inputSuffix))
	if err != nil {
		return nil, appErr.Wrapf(err, appErr.WorkspaceSetupFailed, "list test inputs failed")
	}
	sort.Strings(matches)
	return matches, nil
}

func failed(format string, args ...interface{}) Verdict {
	return Verdict{Passed: false, Diagnostics: fmt.Sprintf(format, args...)}
}
