package core

import (
	stderrors "errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/go-drift/kayak/pkg/errors"
)

// maxBatches bounds the number of drain rounds in one RenderRoot call. Nodes
// that keep re-dirtying themselves are left for the next pass.
const maxBatches = 64

// Context owns a widget tree, its global state and its dirty set.
type Context struct {
	tree    *WidgetTree
	sched   scheduler
	globals globalRegistry

	renderMu sync.Mutex
	frames   []*frame
	batch    uint64
	stats    *RenderStats
	closed   bool
}

// Option configures a Context.
type Option func(*Context)

// WithOnNeedsRender sets a callback invoked whenever a node becomes dirty
// while no render was pending for it. The callback may run on any goroutine.
func WithOnNeedsRender(fn func()) Option {
	return func(c *Context) {
		c.sched.onNeedsRender = fn
	}
}

// NewContext returns an empty Context.
func NewContext(opts ...Option) *Context {
	c := &Context{tree: newWidgetTree()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetOnNeedsRender replaces the callback installed by [WithOnNeedsRender].
func (c *Context) SetOnNeedsRender(fn func()) {
	c.sched.setOnNeedsRender(fn)
}

// Tree returns the context's widget tree.
func (c *Context) Tree() *WidgetTree {
	return c.tree
}

// RenderStats summarizes one RenderRoot call.
type RenderStats struct {
	// Rendered counts Render invocations, including failed ones.
	Rendered int
	// Failed counts renders that panicked or returned an error.
	Failed int
	// Removed counts nodes removed from the tree.
	Removed int
	// Skipped counts dirty entries whose node was already removed.
	Skipped int
	// Batches counts dirty-set drains.
	Batches int
}

// Mount installs w as the root of the tree, replacing any previous root, and
// schedules it for the next pass.
func (c *Context) Mount(w Widget) Index {
	c.renderMu.Lock()
	defer c.renderMu.Unlock()
	if c.closed {
		panic("core: Mount on a closed Context")
	}
	if c.tree.root.IsValid() {
		c.removeSubtree(c.tree.root)
	}
	id := c.tree.insert(w, Invalid, 0)
	c.tree.root = id
	c.sched.schedule(id)
	return id
}

// NeedsRender reports whether any node is waiting to render.
func (c *Context) NeedsRender() bool {
	return c.sched.pending() > 0
}

// MarkDirty schedules id for the next pass. It reports false if id is not a
// live node or was already scheduled.
func (c *Context) MarkDirty(id Index) bool {
	if !c.tree.Contains(id) {
		return false
	}
	return c.sched.schedule(id)
}

// State returns the lifecycle state of id.
func (c *Context) State(id Index) NodeState {
	n := c.tree.node(id)
	switch {
	case n == nil:
		return StateRemoved
	case c.sched.isDirty(id) && n.rendered:
		return StateDirty
	case !n.rendered:
		return StateUninitialized
	default:
		return StateRendered
	}
}

// RenderRoot renders every dirty node, parents before children, until no
// node is dirty. Nodes dirtied while the pass runs are rendered in a later
// round of the same call.
func (c *Context) RenderRoot() RenderStats {
	c.renderMu.Lock()
	defer c.renderMu.Unlock()

	var stats RenderStats
	if c.closed {
		return stats
	}
	c.stats = &stats
	defer func() { c.stats = nil }()

	for stats.Batches < maxBatches {
		dirty := c.sched.drain()
		if len(dirty) == 0 {
			return stats
		}
		c.batch++
		stats.Batches++

		slices.SortStableFunc(dirty, func(a, b Index) int {
			return c.tree.Depth(a) - c.tree.Depth(b)
		})
		for _, id := range dirty {
			n := c.tree.node(id)
			if n == nil {
				stats.Skipped++
				continue
			}
			if n.batch == c.batch {
				// Already re-rendered through its parent.
				continue
			}
			c.renderNode(id, n)
		}
	}

	if c.sched.pending() > 0 {
		errors.Report(&errors.KayakError{
			Op:   "core.RenderRoot",
			Kind: errors.KindRender,
			Err:  fmt.Errorf("nodes still dirty after %d batches; deferring to next pass", maxBatches),
		})
	}
	return stats
}

// Remove removes id and its subtree, releasing their subscriptions. It
// reports false if id is not live.
func (c *Context) Remove(id Index) bool {
	c.renderMu.Lock()
	defer c.renderMu.Unlock()
	n := c.tree.node(id)
	if n == nil {
		return false
	}
	if p := c.tree.node(n.parent); p != nil {
		p.children = slices.DeleteFunc(p.children, func(child Index) bool { return child == id })
	}
	if id == c.tree.root {
		c.tree.root = Invalid
	}
	c.removeSubtree(id)
	return true
}

// Close tears the context down: every node is removed and every global is
// dropped. Rendering a closed context does nothing.
func (c *Context) Close() {
	c.renderMu.Lock()
	defer c.renderMu.Unlock()
	if c.closed {
		return
	}
	if c.tree.root.IsValid() {
		c.removeSubtree(c.tree.root)
		c.tree.root = Invalid
	}
	var detached []Index
	for id := range c.tree.nodes.All() {
		detached = append(detached, id)
	}
	for _, id := range detached {
		c.removeSubtree(id)
	}
	c.sched.reset()
	c.globals.clear()
	c.closed = true
}

// Inspect runs fn with exclusive access to the tree between render passes.
func (c *Context) Inspect(fn func(tree *WidgetTree)) {
	c.renderMu.Lock()
	defer c.renderMu.Unlock()
	fn(c.tree)
}

// frame records the children produced by a node while it renders.
type frame struct {
	parent   Index
	old      []Index
	cursor   int
	produced []Index
}

func (c *Context) frameFor(parent Index) *frame {
	for i := len(c.frames) - 1; i >= 0; i-- {
		if c.frames[i].parent == parent {
			return c.frames[i]
		}
	}
	return nil
}

func (c *Context) add(w Widget, parent Index) Index {
	if w == nil {
		return Invalid
	}
	f := c.frameFor(parent)
	if f == nil {
		panic(fmt.Sprintf("core: cannot add %s under %v: parent is not rendering", widgetName(w), parent))
	}
	pn := c.tree.node(parent)
	if pn == nil {
		panic(fmt.Sprintf("core: cannot add %s under removed node %v", widgetName(w), parent))
	}

	if f.cursor < len(f.old) {
		oldID := f.old[f.cursor]
		f.cursor++
		if on := c.tree.node(oldID); on != nil && canReuse(on.widget, w) {
			prev := on.widget
			on.widget = w
			f.produced = append(f.produced, oldID)
			if on.batch != c.batch && (!on.rendered || c.sched.isDirty(oldID) || propsChanged(prev, w)) {
				c.renderNode(oldID, on)
			}
			return oldID
		}
	}

	id := c.tree.insert(w, parent, pn.depth+1)
	f.produced = append(f.produced, id)
	c.renderNode(id, c.tree.node(id))
	return id
}

func (c *Context) renderNode(id Index, n *node) {
	n.batch = c.batch
	c.sched.forget(id)

	f := &frame{parent: id, old: n.children}
	n.children = nil
	base := len(c.frames)
	c.frames = append(c.frames, f)

	rc := &RenderContext{ctx: c, id: id, node: n}
	err := c.safeRender(id, n, rc)
	c.frames = c.frames[:base]

	keep := f.produced
	if err != nil {
		keep = nil
	}
	kept := make(map[Index]bool, len(keep))
	for _, child := range keep {
		kept[child] = true
	}
	for _, list := range [][]Index{f.old, f.produced} {
		for _, child := range list {
			if !kept[child] {
				c.removeSubtree(child)
			}
		}
	}
	n.children = keep
	n.rendered = true

	if c.stats != nil {
		c.stats.Rendered++
		if err != nil {
			c.stats.Failed++
		}
	}
}

// safeRender calls Render, recovering panics and reporting failures.
// A returned ErrNotFound is expected while global state is missing and is
// not reported.
func (c *Context) safeRender(id Index, n *node, rc *RenderContext) (err error) {
	defer func() {
		if r := recover(); r != nil {
			renderErr := &errors.RenderError{
				Widget:     widgetName(n.widget),
				Node:       id.String(),
				Recovered:  r,
				StackTrace: errors.CaptureStack(),
				Timestamp:  time.Now(),
			}
			errors.ReportRenderError(renderErr)
			err = renderErr
		}
	}()

	if renderErr := n.widget.Render(rc); renderErr != nil {
		if !stderrors.Is(renderErr, ErrNotFound) {
			errors.ReportRenderError(&errors.RenderError{
				Widget: widgetName(n.widget),
				Node:   id.String(),
				Err:    renderErr,
			})
		}
		return renderErr
	}
	return nil
}

// removeSubtree removes id and its descendants, children first.
func (c *Context) removeSubtree(id Index) {
	n := c.tree.node(id)
	if n == nil {
		return
	}
	for _, child := range n.children {
		c.removeSubtree(child)
	}
	n.children = nil

	sub := subscriber{ctx: c, id: id}
	for _, src := range n.sources {
		src.Unsubscribe(sub)
	}
	n.sources = nil

	for i := len(n.disposers) - 1; i >= 0; i-- {
		runDisposer(n.disposers[i])
	}
	n.disposers = nil
	n.hooks = nil

	c.tree.nodes.Remove(id)
	c.sched.forget(id)
	if c.stats != nil {
		c.stats.Removed++
	}
}

func runDisposer(fn func()) {
	defer errors.Recover("core.dispose")
	fn()
}

// subscriber marks a node dirty when a source it reads changes.
type subscriber struct {
	ctx *Context
	id  Index
}

func (s subscriber) MarkDirty() {
	s.ctx.sched.schedule(s.id)
}
