package generate

import (
	"fmt"
	"go/ast"
	goparser "go/parser"
	"go/token"
	"strings"

	"github.com/go-drift/kayak/pkg/rsx"
	"github.com/mattn/go-shellwords"
)

// DirectivePrefix starts a markup directive comment.
const DirectivePrefix = "//kayak:rsx"

// DirectiveError is the rsx.Error type of malformed directives.
const DirectiveError = "directive error"

// Param is one typed parameter of a generated function.
type Param struct {
	Name string
	Type string
}

// Directive is a //kayak:rsx comment and the markup lines that follow it in
// the same comment group:
//
//	//kayak:rsx Greeting name=string
//	// <Text content={"Hello, " + name}/>
type Directive struct {
	Name   string
	Params []Param
	Markup string
	// Pos is the position of the directive comment.
	Pos token.Position

	// markupLine and markupCol locate line 1, column 1 of Markup in the file.
	markupLine int
	markupCol  int
}

// ParseDirective parses the argument list of a directive comment. It
// returns nil, nil when text is not a kayak:rsx directive.
func ParseDirective(text string) (*Directive, error) {
	rest, ok := strings.CutPrefix(text, DirectivePrefix)
	if !ok || (rest != "" && rest[0] != ' ' && rest[0] != '\t') {
		return nil, nil
	}
	args, err := shellwords.Parse(rest)
	if err != nil {
		return nil, fmt.Errorf("error parsing args: %w", err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("missing function name")
	}

	d := &Directive{Name: args[0]}
	if !token.IsIdentifier(d.Name) {
		return nil, fmt.Errorf("function name %q is not a Go identifier", d.Name)
	}
	seen := map[string]bool{rsx.ChildrenIdent: true}
	for _, arg := range args[1:] {
		name, typ, ok := strings.Cut(arg, "=")
		if !ok || name == "" || strings.TrimSpace(typ) == "" {
			return nil, fmt.Errorf("parameter %q must have the form name=type", arg)
		}
		if !token.IsIdentifier(name) {
			return nil, fmt.Errorf("parameter name %q is not a Go identifier", name)
		}
		if seen[name] {
			if name == rsx.ChildrenIdent {
				return nil, fmt.Errorf("parameter %q is implicit", name)
			}
			return nil, fmt.Errorf("duplicate parameter %q", name)
		}
		if _, err := goparser.ParseExpr(typ); err != nil {
			return nil, fmt.Errorf("parameter %s: invalid type %q", name, typ)
		}
		seen[name] = true
		d.Params = append(d.Params, Param{Name: name, Type: typ})
	}
	return d, nil
}

// FindDirectives returns the directives in f in source order.
func FindDirectives(fset *token.FileSet, f *ast.File) ([]*Directive, error) {
	var (
		dirs []*Directive
		errs ErrorList
	)
	for _, group := range f.Comments {
		var (
			cur   *Directive
			lines []*ast.Comment
		)
		flush := func() {
			if cur != nil {
				cur.setMarkup(fset, lines)
				dirs = append(dirs, cur)
			}
			cur, lines = nil, nil
		}
		for _, c := range group.List {
			if !strings.HasPrefix(c.Text, DirectivePrefix) {
				if cur != nil && strings.HasPrefix(c.Text, "//") {
					lines = append(lines, c)
				} else {
					flush()
				}
				continue
			}
			flush()
			d, err := ParseDirective(c.Text)
			pos := fset.Position(c.Slash)
			if err != nil {
				errs = append(errs, &rsx.Error{Type: DirectiveError, Message: err.Error(), Pos: pos})
				continue
			}
			if d == nil {
				continue
			}
			d.Pos = pos
			cur = d
		}
		flush()
	}
	return dirs, errs.Err()
}

// setMarkup joins the comment lines into markup source. The comment marker
// and, when every non-blank line has one, a single following space are
// stripped.
func (d *Directive) setMarkup(fset *token.FileSet, comments []*ast.Comment) {
	if len(comments) == 0 {
		return
	}
	prefix := "// "
	for _, c := range comments {
		if c.Text != "//" && !strings.HasPrefix(c.Text, prefix) {
			prefix = "//"
			break
		}
	}
	lines := make([]string, len(comments))
	for i, c := range comments {
		if c.Text != "//" {
			lines[i] = strings.TrimPrefix(c.Text, prefix)
		}
	}
	d.Markup = strings.Join(lines, "\n")

	first := fset.Position(comments[0].Slash)
	d.markupLine = first.Line
	d.markupCol = first.Column + len(prefix)
}

// relocate maps a markup diagnostic to its position in the Go file.
func (d *Directive) relocate(err error) error {
	rerr, ok := err.(*rsx.Error)
	if !ok {
		return err
	}
	if d.markupLine == 0 || !rerr.Pos.IsValid() {
		rerr.Pos = d.Pos
		return rerr
	}
	rerr.Shift(d.Pos.Filename, d.markupLine-1, d.markupCol-1)
	return rerr
}

// ErrorList collects diagnostics from several directives.
type ErrorList []*rsx.Error

func (l ErrorList) Error() string {
	msgs := make([]string, len(l))
	for i, e := range l {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "\n")
}

// Err returns l as an error, or nil when it is empty.
func (l ErrorList) Err() error {
	if len(l) == 0 {
		return nil
	}
	return l
}
