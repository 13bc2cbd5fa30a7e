package testing

import (
	stderrors "errors"
	"fmt"
	"io"
	"testing"

	"github.com/go-drift/kayak/pkg/binding"
	"github.com/go-drift/kayak/pkg/core"
	"github.com/go-drift/kayak/pkg/errors"
)

// counter renders "Label: n" and tracks its binding.
type counter struct {
	Label string
	Count *binding.Binding[int]
}

func (c counter) Render(rc *core.RenderContext) error {
	rc.Emit(fmt.Sprintf("%s: %d", c.Label, c.Count.Read(rc)))
	return nil
}

type column struct {
	Gap      int
	Children []core.Widget
}

func (c column) Render(rc *core.RenderContext) error {
	for _, w := range c.Children {
		rc.Add(w)
	}
	return nil
}

type item struct {
	ID string
}

func (i item) Key() any { return i.ID }

func (i item) Render(rc *core.RenderContext) error {
	rc.Emit(i.ID)
	return nil
}

type failing struct{}

func (failing) Render(*core.RenderContext) error {
	return stderrors.New("no data")
}

// chain re-dirties itself until n reaches zero.
type chain struct {
	n *binding.Binding[int]
}

func (c chain) Render(rc *core.RenderContext) error {
	if v := c.n.Read(rc); v > 0 {
		c.n.Set(v - 1)
	}
	return nil
}

func silenceErrors(t *testing.T) {
	t.Helper()
	errors.SetHandler(&errors.LogHandler{Out: io.Discard})
	t.Cleanup(func() { errors.SetHandler(nil) })
}

func TestPumpWidget_MountsTree(t *testing.T) {
	tester := NewWidgetTesterWithT(t)

	if err := tester.PumpWidget(counter{Label: "n", Count: binding.Bind(0)}); err != nil {
		t.Fatal(err)
	}
	if !tester.Root().IsValid() {
		t.Fatal("expected root after PumpWidget")
	}
	if got, want := tester.Dump(), "testing.counter\n  \"n: 0\"\n"; got != want {
		t.Errorf("Dump() = %q, want %q", got, want)
	}
	if tester.Frames() != 1 {
		t.Errorf("Frames() = %d, want 1", tester.Frames())
	}
}

func TestPumpWidget_Remount(t *testing.T) {
	tester := NewWidgetTesterWithT(t)

	tester.PumpWidget(item{ID: "first"})
	first := tester.Root()

	tester.PumpWidget(item{ID: "second"})
	second := tester.Root()

	if first == second {
		t.Error("expected new root after remount")
	}
	if tester.Find(ByText("first")).Exists() {
		t.Error("old tree should be gone")
	}
}

func TestPump_RerendersOnSet(t *testing.T) {
	tester := NewWidgetTesterWithT(t)
	count := binding.Bind(0)
	tester.PumpWidget(counter{Label: "n", Count: count})

	count.Set(5)
	if err := tester.Pump(); err != nil {
		t.Fatal(err)
	}
	if !tester.Find(ByText("n: 5")).Exists() {
		t.Errorf("expected updated text, tree:\n%s", tester.Dump())
	}
	if got := tester.LastStats().Rendered; got != 2 {
		t.Errorf("Rendered = %d, want 2", got)
	}

	tester.Pump()
	if got := tester.LastStats(); got.Rendered != 0 || got.Batches != 0 {
		t.Errorf("idle pump did work: %+v", got)
	}
}

func TestPump_ReportsFailures(t *testing.T) {
	silenceErrors(t)
	tester := NewWidgetTesterWithT(t)

	err := tester.PumpWidget(column{Children: []core.Widget{failing{}, item{ID: "ok"}}})
	var failed *RenderFailedError
	if !stderrors.As(err, &failed) || failed.Failed != 1 {
		t.Fatalf("err = %v, want one failed render", err)
	}
	if !tester.Find(ByText("ok")).Exists() {
		t.Error("a failing sibling should not stop the rest of the tree")
	}
}

func TestPumpAndSettle(t *testing.T) {
	tester := NewWidgetTesterWithT(t)
	n := binding.Bind(0)
	tester.PumpWidget(chain{n: n})
	if err := tester.PumpAndSettle(0); err != nil {
		t.Errorf("expected settle for idle widget, got: %v", err)
	}

	frames := tester.Frames()
	tester.Dispatch(func() { n.Set(3) })
	if err := tester.PumpAndSettle(10); err != nil {
		t.Fatalf("PumpAndSettle: %v", err)
	}
	if n.Get() != 0 {
		t.Errorf("n = %d, want 0", n.Get())
	}
	if tester.Frames() == frames {
		t.Error("expected at least one frame")
	}
}

func TestPumpAndSettle_Timeout(t *testing.T) {
	tester := NewWidgetTesterWithT(t)
	tick := binding.Bind(0)
	ping := core.RenderFunc(func(rc *core.RenderContext) error {
		v := tick.Read(rc)
		// Defer the next tick to the following frame.
		tester.Dispatch(func() { tick.Set(v + 1) })
		return nil
	})
	tester.PumpWidget(ping)

	if err := tester.PumpAndSettle(5); !stderrors.Is(err, ErrSettleTimeout) {
		t.Errorf("err = %v, want ErrSettleTimeout", err)
	}
}

func TestDispatch(t *testing.T) {
	tester := NewWidgetTesterWithT(t)
	tester.PumpWidget(item{ID: "test"})

	called := false
	tester.Dispatch(func() { called = true })
	tester.Dispatch(nil)

	if called {
		t.Error("dispatch should not run until Pump")
	}

	tester.Pump()

	if !called {
		t.Error("dispatch should have run after Pump")
	}
}

func TestGlobalStateThroughContext(t *testing.T) {
	tester := NewWidgetTesterWithT(t)
	core.ProvideGlobalState(tester.Context(), "hello")

	var got string
	tester.PumpWidget(core.RenderFunc(func(rc *core.RenderContext) error {
		s, err := core.GetGlobalState[string](rc.Context())
		got = s
		return err
	}))
	if got != "hello" {
		t.Errorf("global = %q, want %q", got, "hello")
	}

	tester.Cleanup()
	if tester.Context().Globals() != 0 {
		t.Error("Cleanup should drop globals")
	}
}
