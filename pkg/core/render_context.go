package core

import (
	"slices"

	"github.com/go-drift/kayak/pkg/binding"
)

// RenderContext is passed to [Widget.Render]. It identifies the rendering
// node and records the bindings the node depends on.
//
// A RenderContext is only valid during the Render call it was passed to.
type RenderContext struct {
	ctx  *Context
	id   Index
	node *node
	hook int
}

// ID returns the index of the rendering node.
func (rc *RenderContext) ID() Index {
	return rc.id
}

// Context returns the owning Context.
func (rc *RenderContext) Context() *Context {
	return rc.ctx
}

// Tree returns the widget tree.
func (rc *RenderContext) Tree() *WidgetTree {
	return rc.ctx.tree
}

// Widget returns the widget being rendered.
func (rc *RenderContext) Widget() Widget {
	return rc.node.widget
}

// Track subscribes the rendering node to src. It implements
// [binding.Tracker], so bindings read with b.Read(rc) are tracked.
func (rc *RenderContext) Track(src binding.Source) {
	rc.Bind(src)
}

// Bind subscribes the rendering node to src without reading it. The
// subscription lasts until the node is removed or [RenderContext.Unbind] is
// called.
func (rc *RenderContext) Bind(src binding.Source) {
	if src == nil {
		return
	}
	if src.Subscribe(subscriber{ctx: rc.ctx, id: rc.id}) {
		rc.node.sources = append(rc.node.sources, src)
	}
}

// Unbind releases a subscription made with Bind or Track.
func (rc *RenderContext) Unbind(src binding.Source) bool {
	if src == nil {
		return false
	}
	i := slices.Index(rc.node.sources, src)
	if i < 0 {
		return false
	}
	rc.node.sources = slices.Delete(rc.node.sources, i, i+1)
	return src.Unsubscribe(subscriber{ctx: rc.ctx, id: rc.id})
}

// Add produces w as the next child of the rendering node.
func (rc *RenderContext) Add(w Widget) Index {
	return rc.ctx.tree.Add(w, rc.id, rc.ctx)
}

// Emit produces value under the rendering node. See [WidgetTree.Emit].
func (rc *RenderContext) Emit(value any) {
	rc.ctx.tree.Emit(value, rc.id, rc.ctx)
}

// Render invokes children under the rendering node. A nil producer renders
// nothing.
func (rc *RenderContext) Render(children Children) {
	if children == nil {
		return
	}
	children(rc.ctx.tree, rc.id, rc.ctx)
}

// OnDispose registers fn to run when the node is removed. Disposers run in
// reverse registration order.
func (rc *RenderContext) OnDispose(fn func()) {
	if fn == nil {
		return
	}
	rc.node.disposers = append(rc.node.disposers, fn)
}

var _ binding.Tracker = (*RenderContext)(nil)
