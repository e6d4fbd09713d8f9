// Package workspace manages the per-problem working directories where the
// learner edits and verifies solutions.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/abnzrdev/trainer/internal/content"
	appErr "github.com/abnzrdev/trainer/pkg/errors"
)

const (
	solutionFileName = "solution.cpp"

	// DefaultTemplate seeds a fresh solution file.
	DefaultTemplate = `#include <bits/stdc++.h>
using namespace std;

int main() {
    ios::sync_with_stdio(false);
    cin.tie(nullptr);

    return 0;
}
`
)

// Layout describes the filesystem layout of one problem workspace.
type Layout struct {
	Dir          string
	SolutionPath string
	Contest      string
	ProblemID    string
}

// Manager creates and locates workspaces under a common root.
type Manager struct {
	rootDir  string
	template string
}

// NewManager creates a workspace manager. template may be empty; the
// default C++ skeleton is used then.
func NewManager(rootDir, template string) *Manager {
	if template == "" {
		template = DefaultTemplate
	}
	return &Manager{rootDir: rootDir, template: template}
}

// Layout returns the paths for a problem without touching the filesystem.
func (m *Manager) Layout(contest, problemID string) Layout {
	dir := filepath.Join(m.rootDir, contest, problemID)
	return Layout{
		Dir:          dir,
		SolutionPath: filepath.Join(dir, solutionFileName),
		Contest:      contest,
		ProblemID:    problemID,
	}
}

// Setup materializes the workspace for a problem: the directory, a solution
// skeleton (only when none exists yet; the learner's work is never
// clobbered), and one test_N.in/.out pair per sample.
func (m *Manager) Setup(contest, problemID string, samples []content.Sample) (Layout, error) {
	if contest == "" || problemID == "" {
		return Layout{}, appErr.ValidationError("contest/problem_id", "required")
	}
	if len(samples) == 0 {
		return Layout{}, appErr.Newf(appErr.SamplesNotCached,
			"no samples to seed workspace for contest=%q problem=%q", contest, problemID)
	}

	layout := m.Layout(contest, problemID)
	if err := os.MkdirAll(layout.Dir, 0755); err != nil {
		return Layout{}, appErr.Wrapf(err, appErr.WorkspaceSetupFailed, "create workspace failed")
	}

	if _, err := os.Stat(layout.SolutionPath); os.IsNotExist(err) {
		if err := os.WriteFile(layout.SolutionPath, []byte(m.template), 0644); err != nil {
			return Layout{}, appErr.Wrapf(err, appErr.WorkspaceSetupFailed, "write solution template failed")
		}
	}

	for i, sample := range samples {
		inPath := filepath.Join(layout.Dir, fmt.Sprintf("test_%d.in", i+1))
		outPath := filepath.Join(layout.Dir, fmt.Sprintf("test_%d.out", i+1))
		if err := os.WriteFile(inPath, []byte(sample.Input), 0644); err != nil {
			return Layout{}, appErr.Wrapf(err, appErr.WorkspaceSetupFailed, "write test input failed")
		}
		if err := os.WriteFile(outPath, []byte(sample.Output), 0644); err != nil {
			return Layout{}, appErr.Wrapf(err, appErr.WorkspaceSetupFailed, "write expected output failed")
		}
	}

	return layout, nil
}
