package core

import (
	"fmt"
	"slices"

	"github.com/go-drift/kayak/pkg/arena"
	"github.com/go-drift/kayak/pkg/binding"
)

// NodeState describes where a node is in its lifecycle.
type NodeState int

const (
	// StateUninitialized is a node that was inserted but has not rendered.
	StateUninitialized NodeState = iota
	// StateRendered is a node whose last render is current.
	StateRendered
	// StateDirty is a rendered node scheduled to render again.
	StateDirty
	// StateRemoved is an index that no longer names a live node.
	StateRemoved
)

func (s NodeState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateRendered:
		return "rendered"
	case StateDirty:
		return "dirty"
	case StateRemoved:
		return "removed"
	default:
		return fmt.Sprintf("NodeState(%d)", int(s))
	}
}

type node struct {
	widget   Widget
	parent   Index
	children []Index
	depth    int

	rendered bool
	// batch is the render batch this node last rendered in.
	batch uint64

	sources   []binding.Source
	hooks     []any
	disposers []func()
}

// WidgetTree is the arena of live nodes owned by a [Context].
//
// Read accessors may be used from widget code during a render pass or by the
// host between passes; they must not race with [Context.RenderRoot].
type WidgetTree struct {
	nodes *arena.Arena[*node]
	root  Index
}

func newWidgetTree() *WidgetTree {
	return &WidgetTree{nodes: arena.New[*node]()}
}

func (t *WidgetTree) node(id Index) *node {
	n, ok := t.nodes.Get(id)
	if !ok {
		return nil
	}
	return n
}

func (t *WidgetTree) insert(w Widget, parent Index, depth int) Index {
	return t.nodes.Insert(&node{widget: w, parent: parent, depth: depth})
}

// Root returns the index of the mounted root, or Invalid.
func (t *WidgetTree) Root() Index {
	return t.root
}

// Len returns the number of live nodes.
func (t *WidgetTree) Len() int {
	return t.nodes.Len()
}

// Contains reports whether id names a live node.
func (t *WidgetTree) Contains(id Index) bool {
	return t.nodes.Contains(id)
}

// Widget returns the widget currently held by id.
func (t *WidgetTree) Widget(id Index) (Widget, bool) {
	n := t.node(id)
	if n == nil {
		return nil, false
	}
	return n.widget, true
}

// Parent returns the parent of id. The root's parent is Invalid.
func (t *WidgetTree) Parent(id Index) (Index, bool) {
	n := t.node(id)
	if n == nil {
		return Invalid, false
	}
	return n.parent, true
}

// Children returns a copy of id's child list in render order.
func (t *WidgetTree) Children(id Index) []Index {
	n := t.node(id)
	if n == nil {
		return nil
	}
	return slices.Clone(n.children)
}

// Depth returns the distance from the root, or -1 for a removed node.
func (t *WidgetTree) Depth(id Index) int {
	n := t.node(id)
	if n == nil {
		return -1
	}
	return n.depth
}

// Subscriptions returns the number of sources id is subscribed to.
func (t *WidgetTree) Subscriptions(id Index) int {
	n := t.node(id)
	if n == nil {
		return 0
	}
	return len(n.sources)
}

// Walk visits the subtree under id in pre-order. Returning false from fn
// skips the node's children.
func (t *WidgetTree) Walk(id Index, fn func(id Index, w Widget) bool) {
	n := t.node(id)
	if n == nil {
		return
	}
	if !fn(id, n.widget) {
		return
	}
	for _, child := range n.children {
		t.Walk(child, fn)
	}
}

// Add produces w as the next child of parent, which must be the node that is
// currently rendering. A previous child at the same position with the same
// widget type and key is reused; otherwise a new node is inserted. The child
// renders before Add returns if it is new, dirty, or its props changed.
//
// Add panics when called outside parent's render.
func (t *WidgetTree) Add(w Widget, parent Index, ctx *Context) Index {
	if ctx.tree != t {
		panic("core: WidgetTree.Add called with a Context that does not own the tree")
	}
	return ctx.add(w, parent)
}

// Emit adds value under parent according to its dynamic type:
//
//   - nil emits nothing
//   - a [Children] producer (or a func with the same signature) is invoked
//   - a [Widget] is added as with [WidgetTree.Add]
//   - a []Widget adds each element in order
//   - a []Children invokes each producer in order
//   - a string, fmt.Stringer, or any other value becomes a [TextNode]
func (t *WidgetTree) Emit(value any, parent Index, ctx *Context) {
	switch v := value.(type) {
	case nil:
	case Children:
		if v != nil {
			v(t, parent, ctx)
		}
	case func(*WidgetTree, Index, *Context):
		if v != nil {
			v(t, parent, ctx)
		}
	case Widget:
		t.Add(v, parent, ctx)
	case []Widget:
		for _, w := range v {
			t.Add(w, parent, ctx)
		}
	case []Children:
		for _, c := range v {
			if c != nil {
				c(t, parent, ctx)
			}
		}
	case string:
		t.Add(TextNode{Content: v}, parent, ctx)
	case fmt.Stringer:
		t.Add(TextNode{Content: v.String()}, parent, ctx)
	default:
		t.Add(TextNode{Content: fmt.Sprint(v)}, parent, ctx)
	}
}
