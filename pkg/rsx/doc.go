// Package rsx parses Kayak markup and expands it into Go source that builds
// widget children.
//
// # Grammar
//
//	Children  = { Child } .
//	Child     = Element | Block | Fragment .
//	Element   = "<" Name { Attribute } ( "/>" | ">" Children "</" Name ">" ) .
//	Fragment  = "<>" Children "</>" .
//	Block     = "{" [ Expr ] "}" .
//	Attribute = ident "=" "{" Expr "}" | "{" "..." Expr "}" | ident .
//	Name      = ident [ "." ident ] .
//
// Expr is any Go expression. A bare ident attribute is a flag and sets the
// field to true. Attribute names are snake_case or camelCase and map to the
// exported Go field of the same name, so content becomes Content and on_click
// becomes OnClick.
//
// # Expansion
//
// [Generate] turns a [Children] list into a Go expression of type
// core.Children:
//
//   - no children, or a single empty block, expands to nil
//   - a single {children} block expands to children itself
//   - anything else expands to a producer closure
//
// Producers outlive the function that built them, so every variable they
// reference is snapshotted with core.Clone when the producer is constructed
// and cloned again each time it runs. With several children, each variable is
// snapshotted once as base_<name> and every child gets its own clone, so no
// child can observe another child's copy.
//
// Diagnostics are reported as *[Error] values carrying the markup position.
package rsx
