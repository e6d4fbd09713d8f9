package workspace_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/abnzrdev/trainer/internal/content"
	"github.com/abnzrdev/trainer/internal/workspace"
	appErr "github.com/abnzrdev/trainer/pkg/errors"
)

var twoSamples = []content.Sample{
	{Input: "1 2\n", Output: "3\n"},
	{Input: "4 5\n", Output: "9\n"},
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func TestManager_SetupSeedsWorkspace(t *testing.T) {
	root := t.TempDir()
	m := workspace.NewManager(root, "")

	layout, err := m.Setup("abc300", "7", twoSamples)
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if layout.Dir != filepath.Join(root, "abc300", "7") {
		t.Errorf("Dir = %s", layout.Dir)
	}
	if layout.SolutionPath != filepath.Join(layout.Dir, "solution.cpp") {
		t.Errorf("SolutionPath = %s", layout.SolutionPath)
	}

	if got := readFile(t, layout.SolutionPath); got != workspace.DefaultTemplate {
		t.Errorf("solution file should hold the default template, got %q", got)
	}
	if got := readFile(t, filepath.Join(layout.Dir, "test_1.in")); got != "1 2\n" {
		t.Errorf("test_1.in = %q", got)
	}
	if got := readFile(t, filepath.Join(layout.Dir, "test_2.out")); got != "9\n" {
		t.Errorf("test_2.out = %q", got)
	}
}

func TestManager_SetupPreservesLearnerWork(t *testing.T) {
	root := t.TempDir()
	m := workspace.NewManager(root, "")

	layout, err := m.Setup("abc300", "7", twoSamples)
	if err != nil {
		t.Fatalf("first Setup: %v", err)
	}

	edited := "int main() { /* my solution */ }\n"
	if err := os.WriteFile(layout.SolutionPath, []byte(edited), 0o644); err != nil {
		t.Fatalf("edit solution: %v", err)
	}

	if _, err := m.Setup("abc300", "7", twoSamples); err != nil {
		t.Fatalf("second Setup: %v", err)
	}
	if got := readFile(t, layout.SolutionPath); got != edited {
		t.Errorf("solution was clobbered: %q", got)
	}
}

func TestManager_SetupRefreshesSamples(t *testing.T) {
	root := t.TempDir()
	m := workspace.NewManager(root, "")

	if _, err := m.Setup("abc300", "7", twoSamples); err != nil {
		t.Fatalf("first Setup: %v", err)
	}

	updated := []content.Sample{{Input: "9 9\n", Output: "18\n"}}
	layout, err := m.Setup("abc300", "7", updated)
	if err != nil {
		t.Fatalf("second Setup: %v", err)
	}
	if got := readFile(t, filepath.Join(layout.Dir, "test_1.in")); got != "9 9\n" {
		t.Errorf("test_1.in = %q, want refreshed sample", got)
	}
}

func TestManager_SetupCustomTemplate(t *testing.T) {
	tpl := "// contest skeleton\nint main() {}\n"
	m := workspace.NewManager(t.TempDir(), tpl)

	layout, err := m.Setup("abc300", "1", twoSamples)
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if got := readFile(t, layout.SolutionPath); got != tpl {
		t.Errorf("solution = %q, want custom template", got)
	}
}

func TestManager_SetupRequiresSamples(t *testing.T) {
	m := workspace.NewManager(t.TempDir(), "")

	_, err := m.Setup("abc300", "1", nil)
	if !appErr.Is(err, appErr.SamplesNotCached) {
		t.Errorf("error = %v, want SamplesNotCached", err)
	}
}

func TestManager_LayoutDoesNotTouchDisk(t *testing.T) {
	root := t.TempDir()
	m := workspace.NewManager(root, "")

	layout := m.Layout("abc300", "42")
	if _, err := os.Stat(layout.Dir); !os.IsNotExist(err) {
		t.Errorf("Layout should not create directories, stat err = %v", err)
	}
}
