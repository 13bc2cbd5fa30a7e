package rsx

import (
	"go/ast"
	"go/token"
	"strings"
	"unicode"
)

// AttrKind classifies an attribute.
type AttrKind int

const (
	// AttrNamed is name={expr}.
	AttrNamed AttrKind = iota
	// AttrSpread is {...expr}: the widget starts as a copy of expr.
	AttrSpread
	// AttrEvent is a named attribute whose name starts with "on".
	AttrEvent
	// AttrFlag is a bare name, equivalent to name={true}.
	AttrFlag
)

func (k AttrKind) String() string {
	switch k {
	case AttrNamed:
		return "named"
	case AttrSpread:
		return "spread"
	case AttrEvent:
		return "event"
	case AttrFlag:
		return "flag"
	default:
		return "unknown"
	}
}

// Attribute is one element attribute.
type Attribute struct {
	Kind AttrKind
	// Name is the attribute name as written. Empty for spreads.
	Name string
	// Expr is the source of the value expression. Empty for flags.
	Expr string
	// X is the parsed value expression, nil for flags.
	X   ast.Expr
	Pos token.Position
}

// Field returns the Go field name the attribute sets.
func (a *Attribute) Field() string {
	return fieldName(a.Name)
}

// Child is an element, a block or a fragment.
type Child interface {
	Position() token.Position
	child()
}

// Element is a widget construction.
type Element struct {
	// Name is the widget type, optionally package qualified.
	Name        string
	Attributes  []*Attribute
	Children    Children
	SelfClosing bool
	Pos         token.Position
}

// Block is a {expr} child.
type Block struct {
	// Expr is the trimmed expression source; empty for {}.
	Expr string
	X    ast.Expr
	Pos  token.Position
}

// IsEmpty reports whether the block is {}.
func (b *Block) IsEmpty() bool {
	return b.Expr == ""
}

// IsChildren reports whether the block forwards the enclosing children.
func (b *Block) IsChildren() bool {
	id, ok := b.X.(*ast.Ident)
	return ok && id.Name == ChildrenIdent
}

// Fragment groups children without a wrapping widget.
type Fragment struct {
	Children Children
	Pos      token.Position
}

func (e *Element) Position() token.Position  { return e.Pos }
func (b *Block) Position() token.Position    { return b.Pos }
func (f *Fragment) Position() token.Position { return f.Pos }

func (*Element) child()  {}
func (*Block) child()    {}
func (*Fragment) child() {}

// Children is an ordered child list.
type Children struct {
	Nodes []Child
}

// Len returns the number of children.
func (c Children) Len() int {
	return len(c.Nodes)
}

// Attribute returns the attribute named name, or nil.
func (e *Element) Attribute(name string) *Attribute {
	for _, a := range e.Attributes {
		if a.Kind != AttrSpread && a.Name == name {
			return a
		}
	}
	return nil
}

// Spread returns the spread attribute, or nil.
func (e *Element) Spread() *Attribute {
	for _, a := range e.Attributes {
		if a.Kind == AttrSpread {
			return a
		}
	}
	return nil
}

func isEventName(name string) bool {
	if strings.HasPrefix(name, "on_") {
		return true
	}
	return len(name) > 2 && strings.HasPrefix(name, "on") && unicode.IsUpper(rune(name[2]))
}

// fieldName converts snake_case or camelCase to an exported Go name.
func fieldName(name string) string {
	var sb strings.Builder
	upper := true
	for _, r := range name {
		if r == '_' {
			upper = true
			continue
		}
		if upper {
			sb.WriteRune(unicode.ToUpper(r))
			upper = false
		} else {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
