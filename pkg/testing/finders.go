package testing

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-drift/kayak/pkg/core"
)

// Element is a matched node: its index and the widget it held when found.
type Element struct {
	ID     core.Index
	Widget core.Widget
}

// Finder locates nodes in the widget tree.
type Finder interface {
	// Evaluate returns all matching nodes under root (depth-first pre-order).
	Evaluate(tree *core.WidgetTree, root core.Index) []Element
	// Description returns a human-readable description for error messages.
	Description() string
}

// FinderResult wraps finder results with convenient accessors.
type FinderResult struct {
	elements []Element
	finder   Finder
}

func (r FinderResult) description() string {
	if r.finder == nil {
		return "unknown"
	}
	return r.finder.Description()
}

// First returns the first match. Panics if no matches.
func (r FinderResult) First() Element {
	if len(r.elements) == 0 {
		panic(fmt.Sprintf("Finder found no elements: %s", r.description()))
	}
	return r.elements[0]
}

// At returns the match at index. Panics if out of range.
func (r FinderResult) At(index int) Element {
	if index < 0 || index >= len(r.elements) {
		panic(fmt.Sprintf("Finder index %d out of range (found %d): %s", index, len(r.elements), r.description()))
	}
	return r.elements[index]
}

// All returns all matches in traversal order.
func (r FinderResult) All() []Element {
	return r.elements
}

// Count returns the number of matches.
func (r FinderResult) Count() int {
	return len(r.elements)
}

// Exists returns true if at least one match was found.
func (r FinderResult) Exists() bool {
	return len(r.elements) > 0
}

// Widget returns the widget of the first match. Panics if no matches.
func (r FinderResult) Widget() core.Widget {
	return r.First().Widget
}

// Texts returns the content of every matched text node, in order.
func (r FinderResult) Texts() []string {
	var out []string
	for _, e := range r.elements {
		if t, ok := e.Widget.(core.TextNode); ok {
			out = append(out, t.Content)
		}
	}
	return out
}

// typeFinder matches nodes whose widget is of the specified type.
type typeFinder struct {
	widgetType reflect.Type
}

func (f *typeFinder) Evaluate(tree *core.WidgetTree, root core.Index) []Element {
	return collectMatches(tree, root, func(e Element) bool {
		return reflect.TypeOf(e.Widget) == f.widgetType
	})
}

func (f *typeFinder) Description() string {
	return fmt.Sprintf("ByType(%s)", f.widgetType)
}

// ByType returns a finder that matches nodes whose widget is type T.
func ByType[T core.Widget]() Finder {
	return &typeFinder{widgetType: reflect.TypeFor[T]()}
}

// keyFinder matches nodes whose widget key equals the given key.
type keyFinder struct {
	key any
}

func (f *keyFinder) Evaluate(tree *core.WidgetTree, root core.Index) []Element {
	return collectMatches(tree, root, func(e Element) bool {
		k, ok := e.Widget.(core.Keyed)
		if !ok {
			return false
		}
		key := k.Key()
		if key == nil || f.key == nil {
			return key == nil && f.key == nil
		}
		// Guard against non-comparable types (slices, maps, funcs).
		if !reflect.TypeOf(key).Comparable() || !reflect.TypeOf(f.key).Comparable() {
			return reflect.DeepEqual(key, f.key)
		}
		return key == f.key
	})
}

func (f *keyFinder) Description() string {
	return fmt.Sprintf("ByKey(%v)", f.key)
}

// ByKey returns a finder that matches keyed widgets whose key equals key.
func ByKey(key any) Finder {
	return &keyFinder{key: key}
}

// textFinder matches text nodes by exact content.
type textFinder struct {
	text string
}

func (f *textFinder) Evaluate(tree *core.WidgetTree, root core.Index) []Element {
	return collectMatches(tree, root, func(e Element) bool {
		t, ok := e.Widget.(core.TextNode)
		return ok && t.Content == f.text
	})
}

func (f *textFinder) Description() string {
	return fmt.Sprintf("ByText(%q)", f.text)
}

// ByText returns a finder that matches [core.TextNode] leaves with exact
// content.
func ByText(text string) Finder {
	return &textFinder{text: text}
}

// textContainingFinder matches text nodes containing a substring.
type textContainingFinder struct {
	substring string
}

func (f *textContainingFinder) Evaluate(tree *core.WidgetTree, root core.Index) []Element {
	return collectMatches(tree, root, func(e Element) bool {
		t, ok := e.Widget.(core.TextNode)
		return ok && strings.Contains(t.Content, f.substring)
	})
}

func (f *textContainingFinder) Description() string {
	return fmt.Sprintf("ByTextContaining(%q)", f.substring)
}

// ByTextContaining returns a finder that matches [core.TextNode] leaves
// containing substring.
func ByTextContaining(substring string) Finder {
	return &textContainingFinder{substring: substring}
}

// predicateFinder matches nodes satisfying a predicate.
type predicateFinder struct {
	fn   func(Element) bool
	desc string
}

func (f *predicateFinder) Evaluate(tree *core.WidgetTree, root core.Index) []Element {
	return collectMatches(tree, root, f.fn)
}

func (f *predicateFinder) Description() string {
	return f.desc
}

// ByPredicate returns a finder that matches nodes satisfying fn.
func ByPredicate(fn func(Element) bool) Finder {
	return &predicateFinder{fn: fn, desc: "ByPredicate(...)"}
}

// descendantFinder finds nodes matching 'matching' that are descendants of
// nodes matching 'of'.
type descendantFinder struct {
	of       Finder
	matching Finder
}

func (f *descendantFinder) Evaluate(tree *core.WidgetTree, root core.Index) []Element {
	var results []Element
	seen := make(map[core.Index]bool)
	for _, ancestor := range f.of.Evaluate(tree, root) {
		// Search within each ancestor's subtree, skipping the ancestor itself.
		for _, child := range tree.Children(ancestor.ID) {
			for _, match := range f.matching.Evaluate(tree, child) {
				if !seen[match.ID] {
					seen[match.ID] = true
					results = append(results, match)
				}
			}
		}
	}
	return results
}

func (f *descendantFinder) Description() string {
	return fmt.Sprintf("Descendant(of: %s, matching: %s)", f.of.Description(), f.matching.Description())
}

// Descendant returns a finder that matches nodes satisfying 'matching' that
// are descendants of nodes matching 'of'.
func Descendant(of, matching Finder) Finder {
	return &descendantFinder{of: of, matching: matching}
}

// ancestorFinder finds nodes matching 'matching' that are ancestors of nodes
// matching 'of'.
type ancestorFinder struct {
	of       Finder
	matching Finder
}

func (f *ancestorFinder) Evaluate(tree *core.WidgetTree, root core.Index) []Element {
	descendants := f.of.Evaluate(tree, root)
	if len(descendants) == 0 {
		return nil
	}
	var results []Element
	for _, candidate := range f.matching.Evaluate(tree, root) {
		for _, desc := range descendants {
			if isAncestorOf(tree, candidate.ID, desc.ID) {
				results = append(results, candidate)
				break
			}
		}
	}
	return results
}

func (f *ancestorFinder) Description() string {
	return fmt.Sprintf("Ancestor(of: %s, matching: %s)", f.of.Description(), f.matching.Description())
}

// Ancestor returns a finder that matches nodes satisfying 'matching' that are
// ancestors of nodes matching 'of'.
func Ancestor(of, matching Finder) Finder {
	return &ancestorFinder{of: of, matching: matching}
}

// isAncestorOf walks up from descendant looking for ancestor.
func isAncestorOf(tree *core.WidgetTree, ancestor, descendant core.Index) bool {
	id, ok := tree.Parent(descendant)
	for ok && id.IsValid() {
		if id == ancestor {
			return true
		}
		id, ok = tree.Parent(id)
	}
	return false
}

// collectMatches performs a depth-first pre-order traversal, collecting nodes
// that satisfy the predicate.
func collectMatches(tree *core.WidgetTree, root core.Index, predicate func(Element) bool) []Element {
	var results []Element
	tree.Walk(root, func(id core.Index, w core.Widget) bool {
		if e := (Element{ID: id, Widget: w}); predicate(e) {
			results = append(results, e)
		}
		return true
	})
	return results
}
