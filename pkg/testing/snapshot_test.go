package testing

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-drift/kayak/pkg/binding"
	"github.com/go-drift/kayak/pkg/core"
)

func pumpCounter(t *testing.T, label string, n int) *WidgetTester {
	t.Helper()
	tester := NewWidgetTesterWithT(t)
	tester.PumpWidget(column{Gap: 4, Children: []core.Widget{
		counter{Label: label, Count: binding.Bind(n)},
	}})
	return tester
}

func TestCaptureSnapshot_Structure(t *testing.T) {
	snap := pumpCounter(t, "a", 1).CaptureSnapshot()
	root := snap.Tree
	if root == nil {
		t.Fatal("expected snapshot root")
	}
	if root.ID != "column#0" || root.Properties["Gap"] != int64(4) {
		t.Errorf("root = %+v", root)
	}
	if len(root.Children) != 1 {
		t.Fatalf("root has %d children, want 1", len(root.Children))
	}
	c := root.Children[0]
	if c.Bindings != 1 || c.Properties["Label"] != "a" {
		t.Errorf("counter = %+v", c)
	}
	if _, ok := c.Properties["Count"]; ok {
		t.Error("binding fields should not be serialized")
	}
	if text := c.Children[0].Text; text == nil || *text != "a: 1" {
		t.Errorf("text node = %+v", c.Children[0])
	}
}

func TestCaptureSnapshot_Empty(t *testing.T) {
	tester := NewWidgetTesterWithT(t)
	if snap := tester.CaptureSnapshot(); snap.Tree != nil {
		t.Errorf("expected empty snapshot, got %+v", snap.Tree)
	}
}

func TestSnapshot_MatchesGolden(t *testing.T) {
	t.Setenv(UpdateSnapshotsEnv, "")
	pumpCounter(t, "a", 1).CaptureSnapshot().MatchesFile(t, "testdata/counter.snapshot.json")
}

func TestSnapshot_Diff(t *testing.T) {
	a := pumpCounter(t, "a", 1).CaptureSnapshot()
	b := pumpCounter(t, "a", 1).CaptureSnapshot()
	if diff := a.Diff(b); diff != "" {
		t.Errorf("expected no diff for identical snapshots, got:\n%s", diff)
	}

	c := pumpCounter(t, "a", 2).CaptureSnapshot()
	diff := c.Diff(a)
	if !strings.Contains(diff, `"a: 2"`) || !strings.Contains(diff, `"a: 1"`) {
		t.Errorf("diff should show both texts:\n%s", diff)
	}
}

func TestSnapshot_UpdateAndMatch(t *testing.T) {
	snap := pumpCounter(t, "b", 7).CaptureSnapshot()

	path := filepath.Join(t.TempDir(), "testdata", "counter.snapshot.json")
	if err := snap.UpdateFile(path); err != nil {
		t.Fatalf("UpdateFile failed: %v", err)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Fatal("snapshot file should exist after UpdateFile")
	}

	// MatchesFile should pass now
	t.Setenv(UpdateSnapshotsEnv, "")
	snap.MatchesFile(t, path)
}

func TestSnapshot_MatchesFile_MissingFile(t *testing.T) {
	t.Setenv(UpdateSnapshotsEnv, "")
	snap := pumpCounter(t, "a", 1).CaptureSnapshot()

	failed := false
	sub := &fatalRecorder{name: t.Name(), onFatal: func() { failed = true }}
	snap.MatchesFile(sub, "/nonexistent/path/snap.json")

	if !failed {
		t.Error("expected MatchesFile to fail for missing file")
	}
}

func TestSnapshot_MatchesFile_Mismatch(t *testing.T) {
	t.Setenv(UpdateSnapshotsEnv, "")
	path := filepath.Join(t.TempDir(), "snap.json")
	pumpCounter(t, "a", 1).CaptureSnapshot().UpdateFile(path)

	errored := false
	sub := &errorRecorder{name: t.Name(), onError: func() { errored = true }}
	pumpCounter(t, "a", 2).CaptureSnapshot().MatchesFile(sub, path)

	if !errored {
		t.Error("expected MatchesFile to report error for mismatch")
	}
}

func TestSnapshot_UpdateMode(t *testing.T) {
	snap := pumpCounter(t, "a", 1).CaptureSnapshot()
	path := filepath.Join(t.TempDir(), "update.snapshot.json")

	t.Setenv(UpdateSnapshotsEnv, "1")
	snap.MatchesFile(t, path)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("snapshot file should be created in update mode")
	}
}

// fatalRecorder intercepts Fatalf calls for testing MatchesFile failures.
type fatalRecorder struct {
	name    string
	onFatal func()
}

func (r *fatalRecorder) Fatalf(format string, args ...any) { r.onFatal() }
func (r *fatalRecorder) Errorf(format string, args ...any) {}
func (r *fatalRecorder) Helper()                           {}
func (r *fatalRecorder) Name() string                      { return r.name }

// errorRecorder intercepts Errorf calls for testing MatchesFile mismatches.
type errorRecorder struct {
	name    string
	onError func()
}

func (r *errorRecorder) Fatalf(format string, args ...any) {}
func (r *errorRecorder) Errorf(format string, args ...any) { r.onError() }
func (r *errorRecorder) Helper()                           {}
func (r *errorRecorder) Name() string                      { return r.name }
