package testing

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-drift/kayak/pkg/core"
)

// DefaultSettleFrames bounds PumpAndSettle when no limit is given.
const DefaultSettleFrames = 100

// ErrSettleTimeout is returned when PumpAndSettle exceeds its frame limit.
var ErrSettleTimeout = errors.New("PumpAndSettle timed out: tree did not settle")

// RenderFailedError is returned by Pump when widgets failed to render. The
// failures themselves are reported through the errors package handler.
type RenderFailedError struct {
	Failed int
}

func (e *RenderFailedError) Error() string {
	return fmt.Sprintf("%d widget render(s) failed", e.Failed)
}

// WidgetTester drives a private core.Context the way a host loop would,
// one frame per Pump.
type WidgetTester struct {
	ctx        *core.Context
	root       core.Index
	dispatches []func()
	frames     int
	last       core.RenderStats
}

// NewWidgetTester creates a tester with a fresh context.
// Call Cleanup() when done, or use NewWidgetTesterWithT() instead.
func NewWidgetTester(opts ...core.Option) *WidgetTester {
	return &WidgetTester{
		ctx:  core.NewContext(opts...),
		root: core.Invalid,
	}
}

// NewWidgetTesterWithT creates a tester that auto-cleans up via t.Cleanup().
// This is the recommended constructor for tests.
func NewWidgetTesterWithT(t *testing.T, opts ...core.Option) *WidgetTester {
	tester := NewWidgetTester(opts...)
	t.Cleanup(tester.Cleanup)
	return tester
}

// Cleanup closes the context, removing every node and global.
func (t *WidgetTester) Cleanup() {
	t.ctx.Close()
	t.root = core.Invalid
}

// Context returns the tester's context, for providing global state.
func (t *WidgetTester) Context() *core.Context {
	return t.ctx
}

// Root returns the root node of the mounted tree.
func (t *WidgetTester) Root() core.Index {
	return t.root
}

// Frames returns the number of frames pumped.
func (t *WidgetTester) Frames() int {
	return t.frames
}

// LastStats returns the render statistics of the most recent frame.
func (t *WidgetTester) LastStats() core.RenderStats {
	return t.last
}

// PumpWidget mounts (or remounts) a widget and runs one frame.
func (t *WidgetTester) PumpWidget(widget core.Widget) error {
	t.root = t.ctx.Mount(widget)
	return t.Pump()
}

// Pump runs a single frame: queued dispatches, then a render pass.
func (t *WidgetTester) Pump() error {
	dispatches := t.dispatches
	t.dispatches = nil
	for _, fn := range dispatches {
		fn()
	}

	t.last = t.ctx.RenderRoot()
	t.frames++
	if t.last.Failed > 0 {
		return &RenderFailedError{Failed: t.last.Failed}
	}
	return nil
}

// PumpAndSettle pumps frames until nothing is dirty and no dispatch is
// queued. It returns ErrSettleTimeout after maxFrames frames; maxFrames <= 0
// means DefaultSettleFrames.
func (t *WidgetTester) PumpAndSettle(maxFrames int) error {
	if maxFrames <= 0 {
		maxFrames = DefaultSettleFrames
	}
	for range maxFrames {
		if err := t.Pump(); err != nil {
			return err
		}
		if !t.needsWork() {
			return nil
		}
	}
	return ErrSettleTimeout
}

func (t *WidgetTester) needsWork() bool {
	return t.ctx.NeedsRender() || len(t.dispatches) > 0
}

// Dispatch queues a callback for the next frame, mirroring engine.Runner.
func (t *WidgetTester) Dispatch(fn func()) {
	if fn != nil {
		t.dispatches = append(t.dispatches, fn)
	}
}

// Dump returns the indented outline of the mounted tree.
func (t *WidgetTester) Dump() string {
	var out string
	t.ctx.Inspect(func(tree *core.WidgetTree) {
		out = tree.Dump(t.root)
	})
	return out
}

// Find evaluates a finder against the current tree.
func (t *WidgetTester) Find(finder Finder) FinderResult {
	result := FinderResult{finder: finder}
	t.ctx.Inspect(func(tree *core.WidgetTree) {
		if tree.Contains(t.root) {
			result.elements = finder.Evaluate(tree, t.root)
		}
	})
	return result
}
