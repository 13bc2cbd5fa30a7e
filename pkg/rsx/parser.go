package rsx

import (
	"go/ast"
	goparser "go/parser"
	"go/scanner"
	"go/token"
	"strings"
)

// ChildrenIdent is the name of the forwarded children value.
const ChildrenIdent = "children"

// Parse parses markup into a child list. filename is only used in
// diagnostics. A malformed child is always an *Error, never a shorter list.
func Parse(filename string, src []byte) (Children, error) {
	fset := token.NewFileSet()
	file, items, err := scan(fset, filename, src)
	if err != nil {
		return Children{}, err
	}
	p := &parser{fset: fset, file: file, src: src, items: items}
	return p.parse()
}

type parser struct {
	fset  *token.FileSet
	file  *token.File
	src   []byte
	items []item
	i     int
}

func (p *parser) parse() (Children, error) {
	c, err := p.children()
	if err != nil {
		return Children{}, err
	}
	if it := p.peek(); it.tok != token.EOF {
		closing := p.peekN(2)
		return Children{}, p.errorf(it.pos, "closing tag </%s> has no matching open element", closing.lit)
	}
	return c, nil
}

func (p *parser) peek() item {
	return p.peekN(0)
}

func (p *parser) peekN(n int) item {
	if p.i+n < len(p.items) {
		return p.items[p.i+n]
	}
	return p.items[len(p.items)-1]
}

func (p *parser) next() item {
	it := p.peek()
	if p.i < len(p.items)-1 {
		p.i++
	}
	return it
}

func (p *parser) position(pos token.Pos) token.Position {
	return p.fset.Position(pos)
}

func (p *parser) errorf(pos token.Pos, format string, args ...any) *Error {
	return newError(ParseError, p.position(pos), format, args...)
}

// atClose reports whether the next tokens are "</".
func (p *parser) atClose() bool {
	return p.peek().tok == token.LSS && p.peekN(1).tok == token.QUO
}

// children parses children up to, not including, a closing tag or the end
// of input.
func (p *parser) children() (Children, error) {
	var c Children
	for !p.atClose() && p.peek().tok != token.EOF {
		child, err := p.child()
		if err != nil {
			return Children{}, err
		}
		c.Nodes = append(c.Nodes, child)
	}
	return c, nil
}

func (p *parser) child() (Child, error) {
	it := p.peek()
	switch {
	case it.tok == token.LSS && p.peekN(1).tok == token.GTR:
		return p.fragment()
	case it.tok == token.LSS && p.peekN(1).tok == token.IDENT:
		return p.element()
	case it.tok == token.LBRACE:
		return p.block()
	default:
		return nil, p.errorf(it.pos, "unexpected %s; expected an element, a fragment or a {expression}", it)
	}
}

func (p *parser) fragment() (*Fragment, error) {
	open := p.next()
	p.next()
	f := &Fragment{Pos: p.position(open.pos)}

	children, err := p.children()
	if err != nil {
		return nil, err
	}
	f.Children = children

	if !p.atClose() {
		return nil, p.errorf(open.pos, "fragment is not closed; expected </>")
	}
	closeTag := p.next()
	p.next()
	if it := p.next(); it.tok != token.GTR {
		return nil, p.errorf(closeTag.pos, "fragment closed by </%s>; expected </>", it)
	}
	return f, nil
}

func (p *parser) element() (*Element, error) {
	open := p.next()
	name, err := p.name()
	if err != nil {
		return nil, err
	}
	el := &Element{Name: name, Pos: p.position(open.pos)}

attrs:
	for {
		it := p.peek()
		switch {
		case it.tok == token.QUO && p.peekN(1).tok == token.GTR:
			p.next()
			p.next()
			el.SelfClosing = true
			return el, nil
		case it.tok == token.GTR:
			p.next()
			break attrs
		case it.tok == token.IDENT:
			attr, err := p.namedAttribute(el)
			if err != nil {
				return nil, err
			}
			el.Attributes = append(el.Attributes, attr)
		case it.tok == token.LBRACE:
			attr, err := p.spreadAttribute(el)
			if err != nil {
				return nil, err
			}
			el.Attributes = append(el.Attributes, attr)
		case it.tok == token.EOF:
			return nil, p.errorf(open.pos, "element <%s> is not terminated", name)
		default:
			return nil, p.errorf(it.pos, "unexpected %s in <%s>", it, name)
		}
	}

	children, err := p.children()
	if err != nil {
		return nil, err
	}
	el.Children = children

	if !p.atClose() {
		return nil, p.errorf(open.pos, "element <%s> is not closed", name)
	}
	closeTag := p.next()
	p.next()
	closing, err := p.name()
	if err != nil {
		return nil, err
	}
	if closing != name {
		return nil, p.errorf(closeTag.pos, "closing tag </%s> does not match <%s>", closing, name)
	}
	if it := p.next(); it.tok != token.GTR {
		return nil, p.errorf(it.pos, "expected > after </%s, found %s", closing, it)
	}

	if attr := el.Attribute(ChildrenIdent); attr != nil && el.Children.Len() > 0 {
		return nil, p.errorf(closeTag.pos, "<%s> sets children both as an attribute and as nested content", name)
	}
	return el, nil
}

func (p *parser) name() (string, error) {
	it := p.next()
	if it.tok != token.IDENT {
		return "", p.errorf(it.pos, "expected widget name, found %s", it)
	}
	name := it.lit
	if p.peek().tok == token.PERIOD {
		p.next()
		sel := p.next()
		if sel.tok != token.IDENT {
			return "", p.errorf(sel.pos, "expected identifier after %s., found %s", name, sel)
		}
		name += "." + sel.lit
	}
	return name, nil
}

func (p *parser) namedAttribute(el *Element) (*Attribute, error) {
	it := p.next()
	attr := &Attribute{Kind: AttrFlag, Name: it.lit, Pos: p.position(it.pos)}
	if el.Attribute(attr.Name) != nil {
		return nil, p.errorf(it.pos, "duplicate attribute %q on <%s>", attr.Name, el.Name)
	}
	if p.peek().tok != token.ASSIGN {
		return attr, nil
	}
	p.next()

	if p.peek().tok != token.LBRACE {
		return nil, p.errorf(p.peek().pos, "attribute %q: expected {expression}, found %s", attr.Name, p.peek())
	}
	src, x, pos, err := p.expr(0)
	if err != nil {
		return nil, err
	}
	if src == "" {
		return nil, newError(ParseError, pos, "attribute %q has an empty value", attr.Name)
	}
	attr.Kind = AttrNamed
	if isEventName(attr.Name) {
		attr.Kind = AttrEvent
	}
	attr.Expr = src
	attr.X = x
	return attr, nil
}

func (p *parser) spreadAttribute(el *Element) (*Attribute, error) {
	open := p.peek()
	if p.peekN(1).tok != token.ELLIPSIS {
		return nil, p.errorf(open.pos, "unexpected { in <%s>; expected name={expression} or {...expression}", el.Name)
	}
	if el.Spread() != nil {
		return nil, p.errorf(open.pos, "<%s> has more than one spread attribute", el.Name)
	}
	src, x, _, err := p.expr(1)
	if err != nil {
		return nil, err
	}
	if src == "" {
		return nil, p.errorf(open.pos, "empty spread attribute in <%s>", el.Name)
	}
	return &Attribute{Kind: AttrSpread, Expr: src, X: x, Pos: p.position(open.pos)}, nil
}

func (p *parser) block() (*Block, error) {
	open := p.peek()
	src, x, _, err := p.expr(0)
	if err != nil {
		return nil, err
	}
	return &Block{Expr: src, X: x, Pos: p.position(open.pos)}, nil
}

// expr consumes a {...} group starting at the current LBRACE. skip is the
// number of tokens after the brace that are not part of the expression.
// It returns the trimmed expression source and its parsed form.
func (p *parser) expr(skip int) (string, ast.Expr, token.Position, error) {
	open := p.next()
	depth := 1
	start := p.i
	for j := p.i; j < len(p.items); j++ {
		switch p.items[j].tok {
		case token.LBRACE:
			depth++
		case token.RBRACE:
			depth--
		case token.EOF:
			return "", nil, token.Position{}, p.errorf(open.pos, "unterminated {")
		}
		if depth > 0 {
			continue
		}

		from := p.file.Offset(open.pos) + 1
		if skip > 0 {
			first := p.items[start+skip-1]
			from = p.file.Offset(first.pos) + len(first.tok.String())
		}
		to := p.file.Offset(p.items[j].pos)
		p.i = j + 1

		src := strings.TrimSpace(string(p.src[from:to]))
		pos := p.position(open.pos)
		if src == "" {
			return "", nil, pos, nil
		}
		x, err := goparser.ParseExpr(src)
		if err != nil {
			msg := err.Error()
			if list, ok := err.(scanner.ErrorList); ok && len(list) > 0 {
				msg = list[0].Msg
			}
			return "", nil, pos, p.errorf(open.pos, "invalid expression %q: %s", src, msg)
		}
		return src, x, pos, nil
	}
	return "", nil, token.Position{}, p.errorf(open.pos, "unterminated {")
}
