package rsx

import (
	"go/ast"
	"go/token"
	"go/types"
	"path"
	"strconv"
	"strings"
)

// Scope lists identifiers that are visible to generated code without being
// captured: package-level declarations and imported package names.
type Scope struct {
	Globals map[string]bool
	Imports map[string]bool
}

// NewScope collects the package-level declarations and imports of files.
func NewScope(files ...*ast.File) *Scope {
	s := &Scope{Globals: map[string]bool{}, Imports: map[string]bool{}}
	for _, f := range files {
		for _, imp := range f.Imports {
			s.AddImport(importName(imp))
		}
		for _, decl := range f.Decls {
			switch d := decl.(type) {
			case *ast.FuncDecl:
				if d.Recv == nil {
					s.Globals[d.Name.Name] = true
				}
			case *ast.GenDecl:
				for _, spec := range d.Specs {
					switch sp := spec.(type) {
					case *ast.TypeSpec:
						s.Globals[sp.Name.Name] = true
					case *ast.ValueSpec:
						for _, n := range sp.Names {
							s.Globals[n.Name] = true
						}
					}
				}
			}
		}
	}
	return s
}

// AddImport marks name as an imported package.
func (s *Scope) AddImport(name string) {
	if name == "" || name == "_" || name == "." {
		return
	}
	if s.Imports == nil {
		s.Imports = map[string]bool{}
	}
	s.Imports[name] = true
}

// Declared reports whether name resolves outside the markup.
func (s *Scope) Declared(name string) bool {
	if s == nil {
		return false
	}
	return s.Globals[name] || s.Imports[name]
}

func importName(imp *ast.ImportSpec) string {
	if imp.Name != nil {
		return imp.Name.Name
	}
	p, err := strconv.Unquote(imp.Path.Value)
	if err != nil {
		return ""
	}
	name := path.Base(p)
	// gopkg.in/yaml.v3 and example.com/foo/v2 style paths.
	if i := strings.Index(name, ".v"); i > 0 {
		name = name[:i]
	}
	if strings.HasPrefix(name, "v") && len(name) > 1 && strings.Trim(name[1:], "0123456789") == "" {
		name = path.Base(path.Dir(p))
	}
	name = strings.TrimPrefix(name, "go-")
	return strings.ReplaceAll(name, "-", "_")
}

// Captures returns the variables a producer for child must snapshot, in
// first-appearance order.
func Captures(child Child, scope *Scope) []string {
	c := &collector{scope: scope, seen: map[string]bool{}}
	c.child(child)
	return c.names
}

type collector struct {
	scope *Scope
	seen  map[string]bool
	names []string
}

func (c *collector) add(name string) {
	if c.seen[name] {
		return
	}
	c.seen[name] = true
	c.names = append(c.names, name)
}

func (c *collector) child(child Child) {
	switch n := child.(type) {
	case *Element:
		for _, a := range n.Attributes {
			if a.X != nil {
				c.expr(a.X)
			}
		}
		for _, ch := range n.Children.Nodes {
			c.child(ch)
		}
	case *Block:
		if n.X != nil {
			c.expr(n.X)
		}
	case *Fragment:
		for _, ch := range n.Children.Nodes {
			c.child(ch)
		}
	}
}

func (c *collector) expr(x ast.Expr) {
	for _, name := range freeVars(x) {
		if c.scope.Declared(name) {
			continue
		}
		c.add(name)
	}
}

// freeVars returns identifiers referenced by x that are neither predeclared
// nor bound inside x. Composite literal types are never reported.
func freeVars(x ast.Expr) []string {
	w := &freeWalker{seen: map[string]bool{}}
	w.expr(x, nil)
	return w.names
}

type freeWalker struct {
	seen  map[string]bool
	names []string
}

type bound map[string]bool

func (w *freeWalker) ident(id *ast.Ident, local []bound) {
	name := id.Name
	if name == "_" || w.seen[name] {
		return
	}
	for _, b := range local {
		if b[name] {
			return
		}
	}
	if types.Universe.Lookup(name) != nil {
		return
	}
	w.seen[name] = true
	w.names = append(w.names, name)
}

// compositeLit walks the elements of e, a literal of type typ. typ is e.Type
// or, when the literal elides its type, the element type of the enclosing
// literal. Identifier keys are field names only in struct (or unknown)
// literals; map and array keys are expressions.
func (w *freeWalker) compositeLit(e *ast.CompositeLit, typ ast.Expr, local []bound) {
	var keyType, elemType ast.Expr
	keysAreExprs := false
	switch t := typ.(type) {
	case *ast.MapType:
		keysAreExprs, keyType, elemType = true, t.Key, t.Value
	case *ast.ArrayType:
		keysAreExprs, elemType = true, t.Elt
	}
	for _, elt := range e.Elts {
		if kv, ok := elt.(*ast.KeyValueExpr); ok {
			if _, keyIsIdent := kv.Key.(*ast.Ident); !keyIsIdent || keysAreExprs {
				w.element(kv.Key, keyType, local)
			}
			w.element(kv.Value, elemType, local)
			continue
		}
		w.element(elt, elemType, local)
	}
}

// element walks an element of a composite literal whose element type is typ.
func (w *freeWalker) element(x, typ ast.Expr, local []bound) {
	if lit, ok := x.(*ast.CompositeLit); ok && lit.Type == nil {
		if star, ok := typ.(*ast.StarExpr); ok {
			typ = star.X
		}
		w.compositeLit(lit, typ, local)
		return
	}
	w.expr(x, local)
}

func (w *freeWalker) expr(x ast.Expr, local []bound) {
	switch e := x.(type) {
	case nil:
	case *ast.Ident:
		w.ident(e, local)
	case *ast.BasicLit:
	case *ast.SelectorExpr:
		w.expr(e.X, local)
	case *ast.CompositeLit:
		w.compositeLit(e, e.Type, local)
	case *ast.FuncLit:
		scope := bound{}
		declareFields(scope, e.Type.Params)
		declareFields(scope, e.Type.Results)
		collectLocals(scope, e.Body)
		w.stmt(e.Body, append(local, scope))
	case *ast.ParenExpr:
		w.expr(e.X, local)
	case *ast.IndexExpr:
		w.expr(e.X, local)
		w.expr(e.Index, local)
	case *ast.IndexListExpr:
		w.expr(e.X, local)
		for _, idx := range e.Indices {
			w.expr(idx, local)
		}
	case *ast.SliceExpr:
		w.expr(e.X, local)
		w.expr(e.Low, local)
		w.expr(e.High, local)
		w.expr(e.Max, local)
	case *ast.TypeAssertExpr:
		w.expr(e.X, local)
	case *ast.CallExpr:
		w.expr(e.Fun, local)
		for _, arg := range e.Args {
			w.expr(arg, local)
		}
	case *ast.StarExpr:
		w.expr(e.X, local)
	case *ast.UnaryExpr:
		w.expr(e.X, local)
	case *ast.BinaryExpr:
		w.expr(e.X, local)
		w.expr(e.Y, local)
	case *ast.KeyValueExpr:
		w.expr(e.Key, local)
		w.expr(e.Value, local)
	case *ast.ArrayType, *ast.MapType, *ast.ChanType, *ast.FuncType,
		*ast.StructType, *ast.InterfaceType, *ast.Ellipsis:
		// Type operands, e.g. make([]T, n).
	}
}

func (w *freeWalker) stmt(s ast.Stmt, local []bound) {
	ast.Inspect(s, func(n ast.Node) bool {
		switch n := n.(type) {
		case ast.Expr:
			w.expr(n, local)
			return false
		case *ast.BranchStmt, *ast.LabeledStmt:
			if l, ok := n.(*ast.LabeledStmt); ok {
				w.stmt(l.Stmt, local)
			}
			return false
		case *ast.DeclStmt:
			if gd, ok := n.Decl.(*ast.GenDecl); ok {
				for _, spec := range gd.Specs {
					if vs, ok := spec.(*ast.ValueSpec); ok {
						for _, v := range vs.Values {
							w.expr(v, local)
						}
					}
				}
			}
			return false
		}
		return true
	})
}

func declareFields(b bound, fl *ast.FieldList) {
	if fl == nil {
		return
	}
	for _, f := range fl.List {
		for _, n := range f.Names {
			b[n.Name] = true
		}
	}
}

// collectLocals records every name declared anywhere in body. Shadowing
// order is not tracked: a name declared anywhere in a function literal is
// treated as local to all of it.
func collectLocals(b bound, body *ast.BlockStmt) {
	ast.Inspect(body, func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.AssignStmt:
			if n.Tok == token.DEFINE {
				for _, lhs := range n.Lhs {
					if id, ok := lhs.(*ast.Ident); ok {
						b[id.Name] = true
					}
				}
			}
		case *ast.RangeStmt:
			if n.Tok == token.DEFINE {
				for _, x := range []ast.Expr{n.Key, n.Value} {
					if id, ok := x.(*ast.Ident); ok {
						b[id.Name] = true
					}
				}
			}
		case *ast.ValueSpec:
			for _, id := range n.Names {
				b[id.Name] = true
			}
		case *ast.TypeSpec:
			b[n.Name.Name] = true
		case *ast.TypeSwitchStmt:
			if as, ok := n.Assign.(*ast.AssignStmt); ok {
				for _, lhs := range as.Lhs {
					if id, ok := lhs.(*ast.Ident); ok {
						b[id.Name] = true
					}
				}
			}
		case *ast.FuncLit:
			declareFields(b, n.Type.Params)
			declareFields(b, n.Type.Results)
		}
		return true
	})
}
