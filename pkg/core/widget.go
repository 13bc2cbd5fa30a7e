package core

import (
	"reflect"

	"github.com/go-drift/kayak/pkg/arena"
)

// Index identifies a node in a [WidgetTree].
type Index = arena.Index

// Invalid is the Index of no node. The root's parent is Invalid.
var Invalid = arena.Invalid

// Widget is a UI element. The widget value carries the props captured when it
// was constructed; Render produces its children.
//
// A Render that returns an error renders nothing for this tick.
type Widget interface {
	Render(rc *RenderContext) error
}

// Updater is implemented by widgets that decide themselves whether new props
// require a render. Without it, props are compared with reflect.DeepEqual.
type Updater interface {
	ShouldUpdate(old Widget) bool
}

// Keyed is implemented by widgets that carry an identity across renders.
// A previous child is only reused when its key equals the new widget's key.
type Keyed interface {
	Key() any
}

// Children produces child nodes under parent. Producers are built by
// generated markup code and invoked by the widget that receives them, usually
// through [RenderContext.Render].
type Children func(tree *WidgetTree, parent Index, ctx *Context)

// RenderFunc adapts a function to the Widget interface.
type RenderFunc func(rc *RenderContext) error

// Render calls f(rc).
func (f RenderFunc) Render(rc *RenderContext) error {
	return f(rc)
}

// TextNode is the leaf produced for text values emitted into the tree.
type TextNode struct {
	Content string
}

// Render does nothing; text nodes have no children.
func (TextNode) Render(*RenderContext) error {
	return nil
}

func widgetName(w Widget) string {
	if w == nil {
		return "<nil>"
	}
	return reflect.TypeOf(w).String()
}

func canReuse(existing, next Widget) bool {
	if existing == nil || next == nil {
		return false
	}
	if reflect.TypeOf(existing) != reflect.TypeOf(next) {
		return false
	}
	return reflect.DeepEqual(keyOf(existing), keyOf(next))
}

func keyOf(w Widget) any {
	if k, ok := w.(Keyed); ok {
		return k.Key()
	}
	return nil
}

func propsChanged(old, next Widget) bool {
	if u, ok := next.(Updater); ok {
		return u.ShouldUpdate(old)
	}
	return !reflect.DeepEqual(old, next)
}
