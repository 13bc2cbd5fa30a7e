package core

import (
	"fmt"

	"github.com/go-drift/kayak/pkg/binding"
)

// UseState returns a node-local binding, created from initial on the first
// render and reused afterwards. The node is subscribed to it.
//
// Hooks are identified by call order, so they must be called unconditionally
// and in the same order on every render.
//
// Example:
//
//	func (c Counter) Render(rc *core.RenderContext) error {
//	    count := core.UseState(rc, 0)
//	    rc.Add(Button{Label: fmt.Sprint(count.Get()), OnClick: func() {
//	        count.Update(func(n int) int { return n + 1 })
//	    }})
//	    return nil
//	}
func UseState[T any](rc *RenderContext, initial T) *binding.Binding[T] {
	b := useHook(rc, func() *binding.Binding[T] {
		return binding.Bind(initial)
	})
	rc.Bind(b)
	return b
}

// UseRef returns a pointer that survives re-renders of the node. init runs
// once, on the first render.
func UseRef[T any](rc *RenderContext, init func() T) *T {
	return useHook(rc, func() *T {
		var v T
		if init != nil {
			v = init()
		}
		return &v
	})
}

// Disposable is implemented by resources released with their node.
type Disposable interface {
	Dispose()
}

// UseController creates a controller on the first render and disposes it
// when the node is removed.
//
// Example:
//
//	ticker := core.UseController(rc, func() *Ticker {
//	    return NewTicker(time.Second)
//	})
func UseController[C Disposable](rc *RenderContext, create func() C) C {
	return useHook(rc, func() C {
		controller := create()
		rc.OnDispose(controller.Dispose)
		return controller
	})
}

// UseListener calls fn with every value written to b until the node is
// removed. Unlike Bind, a listener does not schedule a render.
func UseListener[T any](rc *RenderContext, b *binding.Binding[T], fn func(T)) {
	useHook(rc, func() struct{} {
		rc.OnDispose(b.AddListener(fn))
		return struct{}{}
	})
}

func useHook[H any](rc *RenderContext, create func() H) H {
	i := rc.hook
	rc.hook++
	n := rc.node
	if i < len(n.hooks) {
		h, ok := n.hooks[i].(H)
		if !ok {
			var want H
			panic(fmt.Sprintf("core: hook %d of %s changed from %T to %T; hooks must be called in the same order on every render",
				i, widgetName(n.widget), n.hooks[i], want))
		}
		return h
	}
	h := create()
	n.hooks = append(n.hooks, h)
	return h
}
