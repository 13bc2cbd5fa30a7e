package core

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/go-drift/kayak/pkg/binding"
)

type testController struct {
	disposed *[]string
	name     string
}

func (c *testController) Dispose() {
	*c.disposed = append(*c.disposed, c.name)
}

func TestUseStatePersistsAcrossRenders(t *testing.T) {
	var state *binding.Binding[int]
	renders := 0
	ctx := NewContext()
	ctx.Mount(RenderFunc(func(rc *RenderContext) error {
		renders++
		s := UseState(rc, 10)
		if state != nil && s != state {
			t.Error("UseState returned a different binding on re-render")
		}
		state = s
		return nil
	}))
	ctx.RenderRoot()

	state.Update(func(n int) int { return n + 1 })
	if !ctx.NeedsRender() {
		t.Fatal("writing UseState should dirty its node")
	}
	ctx.RenderRoot()

	if renders != 2 {
		t.Errorf("renders = %d, want 2", renders)
	}
	if got := state.Get(); got != 11 {
		t.Errorf("state = %d, want 11", got)
	}
	if got := state.SubscriberCount(); got != 1 {
		t.Errorf("SubscriberCount() = %d, want 1", got)
	}
}

func TestUseRef(t *testing.T) {
	inits := 0
	var refs []*int
	ctx := NewContext()
	root := ctx.Mount(RenderFunc(func(rc *RenderContext) error {
		r := UseRef(rc, func() int { inits++; return 5 })
		*r++
		refs = append(refs, r)
		return nil
	}))
	ctx.RenderRoot()
	ctx.MarkDirty(root)
	ctx.RenderRoot()

	if inits != 1 {
		t.Errorf("init ran %d times, want 1", inits)
	}
	if refs[0] != refs[1] || *refs[1] != 7 {
		t.Errorf("ref not stable: %v %v (%d)", refs[0], refs[1], *refs[1])
	}
}

func TestHookOrderMismatchFailsRender(t *testing.T) {
	h := captureErrors(t)
	flip := binding.Bind(false)
	ctx := NewContext()
	ctx.Mount(RenderFunc(func(rc *RenderContext) error {
		if flip.Read(rc) {
			UseRef(rc, func() string { return "" })
		} else {
			UseState(rc, 0)
		}
		return nil
	}))
	ctx.RenderRoot()

	flip.Set(true)
	stats := ctx.RenderRoot()

	if stats.Failed != 1 {
		t.Errorf("stats.Failed = %d, want 1", stats.Failed)
	}
	if len(h.render) != 1 || h.render[0].Recovered == nil {
		t.Errorf("expected a recovered hook panic, got %v", h.render)
	}
}

func TestDisposersRunOnRemoval(t *testing.T) {
	var disposed []string
	show := binding.Bind(true)
	ctx := NewContext()
	ctx.Mount(RenderFunc(func(rc *RenderContext) error {
		if show.Read(rc) {
			rc.Add(RenderFunc(func(rc *RenderContext) error {
				UseController(rc, func() *testController {
					return &testController{disposed: &disposed, name: "controller"}
				})
				rc.OnDispose(func() { disposed = append(disposed, "second") })
				rc.Add(RenderFunc(func(rc *RenderContext) error {
					rc.OnDispose(func() { disposed = append(disposed, "grandchild") })
					return nil
				}))
				return nil
			}))
		}
		return nil
	}))
	ctx.RenderRoot()
	if len(disposed) != 0 {
		t.Fatalf("disposed early: %v", disposed)
	}

	show.Set(false)
	ctx.RenderRoot()

	want := []string{"grandchild", "second", "controller"}
	if diff := cmp.Diff(want, disposed); diff != "" {
		t.Errorf("dispose order mismatch (-want +got):\n%s", diff)
	}
}

func TestDisposerPanicIsRecovered(t *testing.T) {
	h := captureErrors(t)
	ran := false
	ctx := NewContext()
	root := ctx.Mount(RenderFunc(func(rc *RenderContext) error {
		rc.OnDispose(func() { ran = true })
		rc.OnDispose(func() { panic("dispose failed") })
		return nil
	}))
	ctx.RenderRoot()
	ctx.Remove(root)

	if !ran {
		t.Error("later disposers should still run after a panic")
	}
	if len(h.panics) != 1 || h.panics[0].Op != "core.dispose" {
		t.Errorf("reported panics = %v", h.panics)
	}
}

func TestUseListener(t *testing.T) {
	b := binding.Bind(0)
	var seen []int
	renders := 0
	ctx := NewContext()
	root := ctx.Mount(RenderFunc(func(rc *RenderContext) error {
		renders++
		UseListener(rc, b, func(v int) { seen = append(seen, v) })
		return nil
	}))
	ctx.RenderRoot()

	b.Set(1)
	b.Set(2)
	if ctx.NeedsRender() {
		t.Error("a listener should not schedule a render")
	}
	ctx.MarkDirty(root)
	ctx.RenderRoot()
	b.Set(3)

	if diff := cmp.Diff([]int{1, 2, 3}, seen); diff != "" {
		t.Errorf("listener values mismatch (-want +got):\n%s", diff)
	}

	ctx.Remove(root)
	b.Set(4)
	if len(seen) != 3 {
		t.Errorf("listener ran after removal: %v", seen)
	}
}

func TestBindAndUnbind(t *testing.T) {
	b := binding.Bind("x")
	bound := binding.Bind(true)
	ctx := NewContext()
	ctx.Mount(RenderFunc(func(rc *RenderContext) error {
		rc.Bind(b)
		rc.Bind(b)
		if !bound.Read(rc) {
			rc.Unbind(b)
		}
		return nil
	}))
	ctx.RenderRoot()
	if got := b.SubscriberCount(); got != 1 {
		t.Fatalf("SubscriberCount() = %d, want 1", got)
	}

	bound.Set(false)
	ctx.RenderRoot()
	if got := b.SubscriberCount(); got != 0 {
		t.Errorf("SubscriberCount() after Unbind = %d, want 0", got)
	}
}
