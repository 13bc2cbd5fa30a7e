// Package core provides the retained widget tree and its render context.
//
// A [Context] owns one UI root: the [WidgetTree] arena, the typed global-state
// registry, and the set of nodes waiting to re-render. Widgets are plain
// values implementing [Widget]; their fields are their props. A widget's
// Render method produces its children by adding widgets to the tree or by
// invoking [Children] producers, usually generated from markup by the
// kayak CLI.
//
// # Node Lifecycle
//
// Every node moves through Uninitialized, Rendered, Dirty and Removed:
//
//	ctx := core.NewContext()
//	ctx.Mount(App{})   // Uninitialized, scheduled
//	ctx.RenderRoot()   // Rendered
//	count.Set(1)       // subscribers become Dirty
//	ctx.RenderRoot()   // only dirty nodes render again
//
// When a node renders, its children are rebuilt. A child at the same
// position with the same widget type (and key, see [Keyed]) keeps its index,
// hooks and subscriptions; it renders again only when its props changed or it
// was dirty. Children that are not produced again are removed together with
// their subtrees and their binding subscriptions.
//
// # Bindings
//
// Reading a binding through the render context subscribes the node:
//
//	func (c Counter) Render(rc *core.RenderContext) error {
//	    count := c.Count.Read(rc)
//	    rc.Add(core.TextNode{Content: fmt.Sprint(count)})
//	    return nil
//	}
//
// Use [RenderContext.Bind] to subscribe without reading, and [UseState] for
// node-local state.
//
// # Global State
//
// Hosts register typed singletons with [ProvideGlobalState]. Widgets fetch
// them with [GetGlobalState]; a failed lookup returns [ErrNotFound], and a
// Render that returns it simply renders nothing this tick.
//
// # Concurrency
//
// Render passes are serialized per Context, and all widget code runs on the
// goroutine executing [Context.RenderRoot]. Bindings may be written from any
// goroutine; the write schedules the subscribers for the next pass.
package core
