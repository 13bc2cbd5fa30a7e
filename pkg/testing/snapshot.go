package testing

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-drift/kayak/pkg/core"
	"github.com/google/go-cmp/cmp"
)

// UpdateSnapshotsEnv is the environment variable that makes MatchesFile
// rewrite golden files instead of comparing against them.
const UpdateSnapshotsEnv = "KAYAK_UPDATE_SNAPSHOTS"

// TestingT is the subset of *testing.T used by MatchesFile, allowing
// test doubles to intercept failures.
type TestingT interface {
	Helper()
	Fatalf(format string, args ...any)
	Errorf(format string, args ...any)
	Name() string
}

// Snapshot captures the widget tree structure and widget props.
type Snapshot struct {
	Tree *SnapshotNode `json:"tree"`
}

// SnapshotNode represents a node in the serialized widget tree.
type SnapshotNode struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Text       *string         `json:"text,omitempty"`
	Bindings   int             `json:"bindings,omitempty"`
	Properties map[string]any  `json:"props,omitempty"`
	Children   []*SnapshotNode `json:"children,omitempty"`
}

// CaptureSnapshot captures the current widget tree. IDs are assigned per
// type in traversal order ("Label#0", "Label#1"), so snapshots do not depend
// on arena slot reuse.
func (t *WidgetTester) CaptureSnapshot() *Snapshot {
	snap := &Snapshot{}
	t.ctx.Inspect(func(tree *core.WidgetTree) {
		if tree.Contains(t.root) {
			snap.Tree = captureNode(tree, t.root, &typeCounter{})
		}
	})
	return snap
}

// MatchesFile compares this snapshot against a golden file. On mismatch it
// reports a diff and instructions for updating. When KAYAK_UPDATE_SNAPSHOTS=1
// is set, the file is silently updated instead.
func (s *Snapshot) MatchesFile(t TestingT, path string) {
	t.Helper()

	if os.Getenv(UpdateSnapshotsEnv) == "1" {
		if err := s.UpdateFile(path); err != nil {
			t.Fatalf("failed to update snapshot: %v", err)
		}
		return
	}

	expected, err := loadSnapshot(path)
	if err != nil {
		if os.IsNotExist(err) {
			t.Fatalf("snapshot file missing: %s\n\nTo create: %s=1 go test -run %s", path, UpdateSnapshotsEnv, t.Name())
			return
		}
		t.Fatalf("failed to load snapshot: %v", err)
		return
	}

	if diff := s.Diff(expected); diff != "" {
		t.Errorf("snapshot mismatch: %s\n%s\n\nTo update: %s=1 go test -run %s", path, diff, UpdateSnapshotsEnv, t.Name())
	}
}

// UpdateFile writes this snapshot to the given path, creating directories
// as needed.
func (s *Snapshot) UpdateFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := marshalSnapshot(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Diff returns a line diff between other (expected) and this snapshot
// (actual). Returns empty string if equal.
func (s *Snapshot) Diff(other *Snapshot) string {
	a, _ := marshalSnapshot(s)
	b, _ := marshalSnapshot(other)
	if bytes.Equal(a, b) {
		return ""
	}
	return cmp.Diff(strings.Split(string(b), "\n"), strings.Split(string(a), "\n"))
}

// typeCounter assigns stable IDs like "Label#0", "Label#1".
type typeCounter struct {
	counts map[string]int
}

func (c *typeCounter) next(typeName string) string {
	if c.counts == nil {
		c.counts = make(map[string]int)
	}
	n := c.counts[typeName]
	c.counts[typeName] = n + 1
	return fmt.Sprintf("%s#%d", typeName, n)
}

func captureNode(tree *core.WidgetTree, id core.Index, counter *typeCounter) *SnapshotNode {
	w, _ := tree.Widget(id)
	typeName := widgetTypeName(w)
	node := &SnapshotNode{
		ID:       counter.next(typeName),
		Type:     typeName,
		Bindings: tree.Subscriptions(id),
	}
	if text, ok := w.(core.TextNode); ok {
		node.Text = &text.Content
	} else if props := captureProperties(w); len(props) > 0 {
		node.Properties = props
	}
	for _, child := range tree.Children(id) {
		node.Children = append(node.Children, captureNode(tree, child, counter))
	}
	return node
}

func widgetTypeName(w core.Widget) string {
	t := reflect.TypeOf(w)
	if t == nil {
		return "nil"
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() == "" {
		return t.String()
	}
	return t.Name()
}

// captureProperties serializes the exported scalar fields of a widget
// struct. Producers, bindings, and other references are left out.
func captureProperties(w core.Widget) map[string]any {
	v := reflect.ValueOf(w)
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil
	}
	m, _ := serializeStruct(v).(map[string]any)
	return m
}

func serializeFieldValue(v reflect.Value) any {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint()
	case reflect.Float32, reflect.Float64:
		return round2(v.Float())
	case reflect.String:
		return v.String()
	case reflect.Bool:
		return v.Bool()
	case reflect.Struct:
		return serializeStruct(v)
	default:
		return nil
	}
}

func serializeStruct(v reflect.Value) any {
	t := v.Type()
	m := make(map[string]any)
	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		if val := serializeFieldValue(v.Field(i)); val != nil {
			m[f.Name] = val
		}
	}
	if len(m) == 0 {
		return nil
	}
	return m
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

func loadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("invalid snapshot JSON: %w", err)
	}
	return &snap, nil
}

func marshalSnapshot(s *Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
