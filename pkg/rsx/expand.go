package rsx

import (
	"fmt"
	"go/format"
	"slices"
	"strings"
)

const (
	basePrefix = "base_"
	spreadVar  = "kayakChild"
)

// reserved names are declared by generated code and cannot be captured.
var reserved = map[string]bool{
	"tree":    true,
	"parent":  true,
	"ctx":     true,
	spreadVar: true,
}

// Options configures expansion.
type Options struct {
	// Core is the qualifier of the core package in generated code.
	// Defaults to "core".
	Core string
	// Scope lists package-level names that producers reference directly
	// instead of capturing.
	Scope *Scope
	// OmitChildren leaves the implicit children value out of multi-child
	// snapshots, for call sites that have no children in scope.
	OmitChildren bool
}

func (o Options) withDefaults() Options {
	if o.Core == "" {
		o.Core = "core"
	}
	return o
}

// Expand parses markup and generates its children expression.
func Expand(filename string, src []byte, opts Options) (string, error) {
	c, err := Parse(filename, src)
	if err != nil {
		return "", err
	}
	return Generate(c, opts)
}

// Generate returns a gofmt-formatted Go expression of type core.Children
// that builds c.
func Generate(c Children, opts Options) (string, error) {
	g := &generator{opts: opts.withDefaults()}
	code, err := g.children(c)
	if err != nil {
		return "", err
	}
	return formatExpr(code)
}

type generator struct {
	opts Options
}

func (g *generator) signature() string {
	return fmt.Sprintf("func(tree *%[1]s.WidgetTree, parent %[1]s.Index, ctx *%[1]s.Context)", g.opts.Core)
}

func (g *generator) clone(name, from string) string {
	return fmt.Sprintf("%s := %s.Clone(%s)\n", name, g.opts.Core, from)
}

func (g *generator) children(c Children) (string, error) {
	switch c.Len() {
	case 0:
		return "nil", nil
	case 1:
		return g.single(c.Nodes[0])
	default:
		return g.multi(c.Nodes)
	}
}

func (g *generator) single(child Child) (string, error) {
	if b, ok := child.(*Block); ok {
		if b.IsEmpty() {
			return "nil", nil
		}
		if b.IsChildren() {
			return ChildrenIdent, nil
		}
	}

	captures, err := g.captures(child)
	if err != nil {
		return "", err
	}
	body, err := g.body(child)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	if len(captures) == 0 {
		fmt.Fprintf(&sb, "%s.Children(%s {\n%s})", g.opts.Core, g.signature(), body)
		return sb.String(), nil
	}

	fmt.Fprintf(&sb, "func() %s.Children {\n", g.opts.Core)
	for _, name := range captures {
		sb.WriteString(g.clone(name, name))
	}
	fmt.Fprintf(&sb, "return %s {\n", g.signature())
	for _, name := range captures {
		sb.WriteString(g.clone(name, name))
	}
	sb.WriteString(body)
	sb.WriteString("}\n}()")
	return sb.String(), nil
}

func (g *generator) multi(nodes []Child) (string, error) {
	var union []string
	perChild := make([][]string, len(nodes))
	for i, child := range nodes {
		captures, err := g.captures(child)
		if err != nil {
			return "", err
		}
		perChild[i] = captures
		for _, name := range captures {
			if !slices.Contains(union, name) {
				union = append(union, name)
			}
		}
	}
	if !g.opts.OmitChildren && !slices.Contains(union, ChildrenIdent) {
		union = append(union, ChildrenIdent)
	}

	var blocks strings.Builder
	for i, child := range nodes {
		body, err := g.body(child)
		if err != nil {
			return "", err
		}
		if body == "" {
			continue
		}
		blocks.WriteString("{\n")
		for _, name := range union {
			blocks.WriteString(g.clone(name, basePrefix+name))
		}
		for _, name := range union {
			if !slices.Contains(perChild[i], name) {
				fmt.Fprintf(&blocks, "_ = %s\n", name)
			}
		}
		blocks.WriteString(body)
		blocks.WriteString("}\n")
	}

	var sb strings.Builder
	if len(union) == 0 {
		fmt.Fprintf(&sb, "%s.Children(%s {\n%s})", g.opts.Core, g.signature(), blocks.String())
		return sb.String(), nil
	}
	fmt.Fprintf(&sb, "func() %s.Children {\n", g.opts.Core)
	for _, name := range union {
		sb.WriteString(g.clone(basePrefix+name, name))
	}
	fmt.Fprintf(&sb, "return %s {\n", g.signature())
	sb.WriteString(blocks.String())
	sb.WriteString("}\n}()")
	return sb.String(), nil
}

// captures returns the checked capture list of child.
func (g *generator) captures(child Child) ([]string, error) {
	names := Captures(child, g.opts.Scope)
	for _, name := range names {
		if reserved[name] {
			return nil, newError(ExpandError, child.Position(),
				"markup cannot reference %q: the name is used by generated code", name)
		}
		if strings.HasPrefix(name, basePrefix) {
			return nil, newError(ExpandError, child.Position(),
				"markup cannot reference %q: names starting with %q are used by generated code", name, basePrefix)
		}
	}
	return names, nil
}

// body returns the statements that add child under parent.
func (g *generator) body(child Child) (string, error) {
	switch n := child.(type) {
	case *Element:
		return g.element(n)
	case *Block:
		if n.IsEmpty() {
			return "", nil
		}
		return fmt.Sprintf("tree.Emit(%s, parent, ctx)\n", n.Expr), nil
	case *Fragment:
		var sb strings.Builder
		for _, c := range n.Children.Nodes {
			body, err := g.body(c)
			if err != nil {
				return "", err
			}
			sb.WriteString(body)
		}
		return sb.String(), nil
	default:
		return "", fmt.Errorf("rsx: unknown child %T", child)
	}
}

func (g *generator) element(el *Element) (string, error) {
	type field struct{ name, value string }
	var fields []field
	seen := map[string]*Attribute{}
	for _, a := range el.Attributes {
		if a.Kind == AttrSpread {
			continue
		}
		name := a.Field()
		if prev, ok := seen[name]; ok {
			return "", newError(ExpandError, a.Pos, "attributes %q and %q both set field %s of <%s>", prev.Name, a.Name, name, el.Name)
		}
		seen[name] = a
		value := a.Expr
		if a.Kind == AttrFlag {
			value = "true"
		}
		fields = append(fields, field{name, value})
	}
	if el.Children.Len() > 0 {
		expansion, err := g.children(el.Children)
		if err != nil {
			return "", err
		}
		if expansion != "nil" {
			fields = append(fields, field{"Children", expansion})
		}
	}

	var sb strings.Builder
	if spread := el.Spread(); spread != nil {
		sb.WriteString("{\n")
		fmt.Fprintf(&sb, "var %s %s = %s.Clone(%s)\n", spreadVar, el.Name, g.opts.Core, spread.Expr)
		for _, f := range fields {
			fmt.Fprintf(&sb, "%s.%s = %s\n", spreadVar, f.name, f.value)
		}
		fmt.Fprintf(&sb, "tree.Add(%s, parent, ctx)\n", spreadVar)
		sb.WriteString("}\n")
		return sb.String(), nil
	}

	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f.name + ": " + f.value
	}
	fmt.Fprintf(&sb, "tree.Add(%s{%s}, parent, ctx)\n", el.Name, strings.Join(parts, ", "))
	return sb.String(), nil
}

const exprPrefix = "package p\n\nvar _ = "

// formatExpr gofmts a generated expression.
func formatExpr(code string) (string, error) {
	out, err := format.Source([]byte(exprPrefix + code + "\n"))
	if err != nil {
		return "", &Error{Type: ExpandError, Message: fmt.Sprintf("generated code does not parse: %v", err)}
	}
	s := strings.TrimPrefix(string(out), exprPrefix)
	return strings.TrimSuffix(s, "\n"), nil
}
